// repository.go отвечает за чтение таблицы users.
// Каждая функция выполняет один SQL-запрос и возвращает результат или ошибку.
package members

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bersemuka.app/rewards/internal/common"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetByID: не найден → common.ErrUserNotFound.
func (r *Repository) GetByID(ctx context.Context, userID string) (*Member, error) {
	query := `
		SELECT id, full_name, trust_level, trust_score, total_points, telegram_chat_id, created_at
		FROM users
		WHERE id = $1
	`
	var m Member
	var level string
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&m.ID, &m.FullName, &level, &m.TrustScore, &m.TotalPoints,
		&m.TelegramChatID, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("пользователь %s: %w", userID, common.ErrUserNotFound)
		}
		return nil, fmt.Errorf("ошибка чтения пользователя (id=%s): %w", userID, err)
	}
	m.TrustLevel = ParseTrustLevel(level)
	return &m, nil
}

func (r *Repository) Exists(ctx context.Context, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("ошибка проверки существования: %w", err)
	}
	return exists, nil
}

// GetTelegramChatID возвращает привязанный чат Telegram или nil.
func (r *Repository) GetTelegramChatID(ctx context.Context, userID string) (*int64, error) {
	query := `SELECT telegram_chat_id FROM users WHERE id = $1`
	var chatID *int64
	err := r.db.QueryRow(ctx, query, userID).Scan(&chatID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("пользователь %s: %w", userID, common.ErrUserNotFound)
		}
		return nil, fmt.Errorf("ошибка чтения telegram_chat_id: %w", err)
	}
	return chatID, nil
}
