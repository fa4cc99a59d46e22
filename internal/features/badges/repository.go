// repository.go: таблицы badges/user_badges и агрегатные
// запросы по связям, мероприятиям, сообществам и оценкам для проверок.
package badges

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bersemuka.app/rewards/internal/common"
)

// Repository предоставляет методы для работы с бейджами.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий бейджей.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const badgeColumns = `id, type, name, description, criteria, category, tier, points, criteria_config, is_active`

func scanBadge(row pgx.Row) (*Badge, error) {
	var b Badge
	var badgeType string
	if err := row.Scan(
		&b.ID, &badgeType, &b.Name, &b.Description, &b.Criteria,
		&b.Category, &b.Tier, &b.Points, &b.CriteriaConfig, &b.IsActive,
	); err != nil {
		return nil, err
	}
	b.Type = BadgeType(badgeType)
	return &b, nil
}

// ListActiveBadges возвращает все активные бейджи каталога.
func (r *Repository) ListActiveBadges(ctx context.Context) ([]*Badge, error) {
	rows, err := r.db.Query(ctx, `SELECT `+badgeColumns+` FROM badges WHERE is_active = TRUE ORDER BY type`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения бейджей: %w", err)
	}
	defer rows.Close()

	var out []*Badge
	for rows.Next() {
		b, err := scanBadge(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования бейджа: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// GetBadgeByType: нет бейджа или он выключен → common.ErrBadgeNotFound.
func (r *Repository) GetBadgeByType(ctx context.Context, badgeType BadgeType) (*Badge, error) {
	row := r.db.QueryRow(ctx, `SELECT `+badgeColumns+` FROM badges WHERE type = $1 AND is_active = TRUE`, string(badgeType))
	b, err := scanBadge(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", badgeType, common.ErrBadgeNotFound)
		}
		return nil, fmt.Errorf("ошибка чтения бейджа %s: %w", badgeType, err)
	}
	return b, nil
}

// UpsertBadge создаёт бейдж или обновляет описание по type.
func (r *Repository) UpsertBadge(ctx context.Context, b *Badge) error {
	id := b.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO badges (id, type, name, description, criteria, category, tier, points, criteria_config, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (type) DO UPDATE
		SET name = EXCLUDED.name,
		    description = EXCLUDED.description,
		    criteria = EXCLUDED.criteria,
		    category = EXCLUDED.category,
		    tier = EXCLUDED.tier,
		    points = EXCLUDED.points,
		    criteria_config = EXCLUDED.criteria_config
	`, id, string(b.Type), b.Name, b.Description, b.Criteria, b.Category, b.Tier, b.Points, b.CriteriaConfig, b.IsActive)
	if err != nil {
		return fmt.Errorf("ошибка сохранения бейджа: %w", err)
	}
	return nil
}

// HasUserBadge проверяет, выдан ли бейдж пользователю.
func (r *Repository) HasUserBadge(ctx context.Context, userID, badgeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM user_badges WHERE user_id = $1 AND badge_id = $2)`,
		userID, badgeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки бейджа: %w", err)
	}
	return exists, nil
}

// InsertUserBadge записывает выдачу. false: запись уже была (уникальный индекс).
func (r *Repository) InsertUserBadge(ctx context.Context, ub *UserBadge) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO user_badges (id, user_id, badge_id, earned_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, badge_id) DO NOTHING
	`, ub.ID, ub.UserID, ub.BadgeID, ub.EarnedAt)
	if err != nil {
		return false, fmt.Errorf("ошибка записи бейджа: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListUserBadges возвращает выданные бейджи пользователя, новые первыми.
func (r *Repository) ListUserBadges(ctx context.Context, userID string) ([]*UserBadge, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, badge_id, earned_at
		FROM user_badges
		WHERE user_id = $1
		ORDER BY earned_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения бейджей пользователя: %w", err)
	}
	defer rows.Close()

	var out []*UserBadge
	for rows.Next() {
		var ub UserBadge
		if err := rows.Scan(&ub.ID, &ub.UserID, &ub.BadgeID, &ub.EarnedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования: %w", err)
		}
		out = append(out, &ub)
	}
	return out, rows.Err()
}

// --- Агрегаты для проверок ---

func (r *Repository) countInt(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("ошибка агрегатного запроса: %w", err)
	}
	return n, nil
}

// CountVisitedCountries: число разных стран в журнале поездок.
func (r *Repository) CountVisitedCountries(ctx context.Context, userID string) (int, error) {
	return r.countInt(ctx, `
		SELECT COUNT(DISTINCT LOWER(country))
		FROM travel_logs
		WHERE user_id = $1
	`, userID)
}

// CountAcceptedConnections: принятые связи, где пользователь инициатор или получатель.
func (r *Repository) CountAcceptedConnections(ctx context.Context, userID string) (int, error) {
	return r.countInt(ctx, `
		SELECT COUNT(*)
		FROM user_connections
		WHERE status = 'ACCEPTED' AND (initiator_id = $1 OR receiver_id = $1)
	`, userID)
}

// GetHostedEventStats: завершённые мероприятия пользователя и средняя оценка
// по trust moments этих мероприятий. NULL-оценки в среднее не входят.
func (r *Repository) GetHostedEventStats(ctx context.Context, userID string) (*HostedEventStats, error) {
	var stats HostedEventStats
	err := r.db.QueryRow(ctx, `
		WITH hosted AS (
			SELECT id FROM events WHERE host_id = $1 AND status = 'COMPLETED'
		)
		SELECT
			(SELECT COUNT(*) FROM hosted),
			COUNT(tm.rating),
			COALESCE(AVG(tm.rating)::float8, 0)
		FROM trust_moments tm
		WHERE tm.event_id IN (SELECT id FROM hosted) AND tm.rating IS NOT NULL
	`, userID).Scan(&stats.CompletedEvents, &stats.RatedMoments, &stats.AverageRating)
	if err != nil {
		return nil, fmt.Errorf("ошибка статистики мероприятий: %w", err)
	}
	return &stats, nil
}

// GetTrustScore: текущий рейтинг доверия.
func (r *Repository) GetTrustScore(ctx context.Context, userID string) (float64, error) {
	var score float64
	err := r.db.QueryRow(ctx, `SELECT trust_score FROM users WHERE id = $1`, userID).Scan(&score)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("пользователь %s: %w", userID, common.ErrUserNotFound)
		}
		return 0, fmt.Errorf("ошибка чтения рейтинга доверия: %w", err)
	}
	return score, nil
}

// MaxOwnedCommunitySize: размер самого большого сообщества, созданного пользователем.
func (r *Repository) MaxOwnedCommunitySize(ctx context.Context, userID string) (int, error) {
	return r.countInt(ctx, `
		SELECT COALESCE(MAX(member_count), 0)
		FROM (
			SELECT COUNT(cm.user_id) AS member_count
			FROM communities c
			LEFT JOIN community_members cm ON cm.community_id = c.id AND cm.is_approved = TRUE
			WHERE c.created_by = $1
			GROUP BY c.id
		) sizes
	`, userID)
}

// HasModeratorRoleSince: роль MODERATOR/ADMIN в каком-либо сообществе не позже since.
func (r *Repository) HasModeratorRoleSince(ctx context.Context, userID string, since time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1
			FROM community_members
			WHERE user_id = $1
			  AND role IN ('MODERATOR', 'ADMIN')
			  AND COALESCE(role_assigned_at, joined_at) <= $2
		)
	`, userID, since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки роли модератора: %w", err)
	}
	return exists, nil
}

// GetServiceRatingStats объединяет оценки продавца на маркетплейсе, отзывы по связям
// и оценённые trust moments в одну выборку.
func (r *Repository) GetServiceRatingStats(ctx context.Context, userID string) (*RatingStats, error) {
	var stats RatingStats
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(AVG(rating)::float8, 0)
		FROM (
			SELECT rating FROM marketplace_reviews WHERE seller_id = $1
			UNION ALL
			SELECT rating FROM connection_reviews WHERE reviewee_id = $1
			UNION ALL
			SELECT rating FROM trust_moments WHERE receiver_id = $1 AND rating IS NOT NULL
		) ratings
	`, userID).Scan(&stats.Count, &stats.AverageRating)
	if err != nil {
		return nil, fmt.Errorf("ошибка статистики оценок: %w", err)
	}
	return &stats, nil
}

// CountUsersCreatedBefore: сколько пользователей зарегистрировались строго раньше.
func (r *Repository) CountUsersCreatedBefore(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM users
		WHERE created_at < (SELECT created_at FROM users WHERE id = $1)
	`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта ранга регистрации: %w", err)
	}
	return n, nil
}

// ListConnectionCountries: страны проживания всех принятых связей.
func (r *Repository) ListConnectionCountries(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT ul.country
		FROM user_connections uc
		JOIN user_locations ul
		  ON ul.user_id = CASE WHEN uc.initiator_id = $1 THEN uc.receiver_id ELSE uc.initiator_id END
		WHERE uc.status = 'ACCEPTED'
		  AND (uc.initiator_id = $1 OR uc.receiver_id = $1)
		  AND ul.country IS NOT NULL
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения стран связей: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var country string
		if err := rows.Scan(&country); err != nil {
			return nil, fmt.Errorf("ошибка сканирования: %w", err)
		}
		out = append(out, country)
	}
	return out, rows.Err()
}
