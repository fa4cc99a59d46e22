// repository.go выполняет операции с таблицами point_grants
// и point_expiry_warnings. Статус начисления и users.total_points
// меняются в одной транзакции.
package points

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bersemuka.app/rewards/internal/db/postgres"
)

// Repository предоставляет методы для работы с начислениями очков.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий очков.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateGrant записывает начисление и увеличивает users.total_points.
func (r *Repository) CreateGrant(ctx context.Context, g *PointGrant) error {
	return postgres.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO point_grants (id, user_id, amount, action, description, status, created_at, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, g.ID, g.UserID, g.Amount, g.Action, g.Description, g.Status, g.CreatedAt, g.ExpiresAt)
		if err != nil {
			return fmt.Errorf("ошибка записи начисления: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE users SET total_points = total_points + $2 WHERE id = $1
		`, g.UserID, g.Amount)
		if err != nil {
			return fmt.Errorf("ошибка обновления баланса: %w", err)
		}
		return nil
	})
}

// GetAvailablePoints: сумма активных (не потраченных и не сгоревших) начислений.
func (r *Repository) GetAvailablePoints(ctx context.Context, userID string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM point_grants
		WHERE user_id = $1 AND status = 'active'
	`
	var available int64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&available); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта доступных очков: %w", err)
	}
	return available, nil
}

// GetExpiringBetween возвращает сумму и ближайшую дату сгорания активных очков в [from, to).
func (r *Repository) GetExpiringBetween(ctx context.Context, userID string, from, to time.Time) (int64, *time.Time, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0), MIN(expires_at)
		FROM point_grants
		WHERE user_id = $1 AND status = 'active'
		  AND expires_at >= $2 AND expires_at < $3
	`
	var sum int64
	var next *time.Time
	if err := r.db.QueryRow(ctx, query, userID, from, to).Scan(&sum, &next); err != nil {
		return 0, nil, fmt.Errorf("ошибка чтения сгорающих очков: %w", err)
	}
	return sum, next, nil
}

// GetNextExpiry: ближайшая дата сгорания активного начисления после now.
func (r *Repository) GetNextExpiry(ctx context.Context, userID string, now time.Time) (*time.Time, error) {
	query := `
		SELECT MIN(expires_at)
		FROM point_grants
		WHERE user_id = $1 AND status = 'active' AND expires_at > $2
	`
	var next *time.Time
	if err := r.db.QueryRow(ctx, query, userID, now).Scan(&next); err != nil {
		return nil, fmt.Errorf("ошибка чтения ближайшего сгорания: %w", err)
	}
	return next, nil
}

// FindExpiringBalances группирует по пользователям активные очки со сроком в [from, to).
// Пользователи с балансом ниже minBalance пропускаются: им сгорание не грозит.
func (r *Repository) FindExpiringBalances(ctx context.Context, from, to time.Time, minBalance int64) ([]ExpiringBalance, error) {
	query := `
		WITH balances AS (
			SELECT user_id, SUM(amount) AS available
			FROM point_grants
			WHERE status = 'active'
			GROUP BY user_id
		)
		SELECT g.user_id, SUM(g.amount), MIN(g.expires_at)
		FROM point_grants g
		JOIN balances b ON b.user_id = g.user_id
		WHERE g.status = 'active'
		  AND g.expires_at >= $1 AND g.expires_at < $2
		  AND b.available >= $3
		GROUP BY g.user_id
		ORDER BY g.user_id
	`
	rows, err := r.db.Query(ctx, query, from, to, minBalance)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска сгорающих очков: %w", err)
	}
	defer rows.Close()

	var out []ExpiringBalance
	for rows.Next() {
		var b ExpiringBalance
		if err := rows.Scan(&b.UserID, &b.Points, &b.ExpiresAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// ReserveWarning отмечает, что предупреждение (пользователь, offset, день) отправляется.
// false: такое предупреждение уже было отправлено раньше.
func (r *Repository) ReserveWarning(ctx context.Context, w ExpiryWarning, expiryDay time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO point_expiry_warnings (user_id, days_before, expiry_date, points)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, days_before, expiry_date) DO NOTHING
	`, w.UserID, w.DaysBefore, expiryDay, w.Points)
	if err != nil {
		return false, fmt.Errorf("ошибка записи предупреждения: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ReleaseWarning снимает отметку, если отправить предупреждение не удалось.
func (r *Repository) ReleaseWarning(ctx context.Context, w ExpiryWarning, expiryDay time.Time) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM point_expiry_warnings
		WHERE user_id = $1 AND days_before = $2 AND expiry_date = $3
	`, w.UserID, w.DaysBefore, expiryDay)
	if err != nil {
		return fmt.Errorf("ошибка удаления предупреждения: %w", err)
	}
	return nil
}

// ExpireBatch помечает expired до limit просроченных начислений (expires_at <= runAt)
// и уменьшает users.total_points.
//
// Порог считается по балансу на начало запуска: активные начисления плюс те,
// что этот же запуск уже сжёг (expired_at = runAt). Результат запуска
// не зависит от размера батча.
// SKIP LOCKED: строки, которые сейчас тратит другая транзакция, достанутся следующему запуску.
func (r *Repository) ExpireBatch(ctx context.Context, runAt time.Time, minBalance int64, limit int) (*BatchResult, error) {
	result := &BatchResult{}

	err := postgres.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			WITH balances AS (
				SELECT user_id
				FROM point_grants
				WHERE status = 'active'
				   OR (status = 'expired' AND expired_at = $1)
				GROUP BY user_id
				HAVING SUM(amount) >= $2
			), candidates AS (
				SELECT g.id
				FROM point_grants g
				JOIN balances b ON b.user_id = g.user_id
				WHERE g.status = 'active' AND g.expires_at <= $1
				ORDER BY g.expires_at
				LIMIT $3
				FOR UPDATE OF g SKIP LOCKED
			)
			UPDATE point_grants g
			SET status = 'expired', expired_at = $1, updated_at = NOW()
			FROM candidates c
			WHERE g.id = c.id
			RETURNING g.user_id, g.amount
		`, runAt, minBalance, limit)
		if err != nil {
			return fmt.Errorf("ошибка сгорания начислений: %w", err)
		}

		perUser := make(map[string]int64)
		for rows.Next() {
			var userID string
			var amount int64
			if err := rows.Scan(&userID, &amount); err != nil {
				rows.Close()
				return fmt.Errorf("ошибка сканирования: %w", err)
			}
			perUser[userID] += amount
			result.Count++
			result.Points += amount
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("ошибка чтения строк: %w", err)
		}

		for userID, amount := range perUser {
			_, err := tx.Exec(ctx, `
				UPDATE users
				SET total_points = GREATEST(total_points - $2, 0)
				WHERE id = $1
			`, userID, amount)
			if err != nil {
				return fmt.Errorf("ошибка списания баланса (user_id=%s): %w", userID, err)
			}
		}
		result.Users = len(perUser)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
