// service.go: проверка и выдача бейджей пользователю.
// Вызывается кодом приложения после значимых действий (провёл мероприятие,
// принял связь и т.д.) и через HTTP-хуки.
package badges

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"bersemuka.app/rewards/internal/features/points"
)

// Store: операции с каталогом и выданными бейджами.
type Store interface {
	ListActiveBadges(ctx context.Context) ([]*Badge, error)
	GetBadgeByType(ctx context.Context, badgeType BadgeType) (*Badge, error)
	HasUserBadge(ctx context.Context, userID, badgeID string) (bool, error)
	InsertUserBadge(ctx context.Context, ub *UserBadge) (bool, error)
	ListUserBadges(ctx context.Context, userID string) ([]*UserBadge, error)
	UpsertBadge(ctx context.Context, b *Badge) error
}

// PointsAwarder начисляет очки за бейдж. Подключается только при BADGE_AWARD_POINTS=true.
type PointsAwarder interface {
	AwardPoints(ctx context.Context, userID string, amount int64, action, description string) (*points.PointGrant, error)
}

// Notifier сообщает пользователю о новом бейдже.
type Notifier interface {
	SendBadgeEarned(ctx context.Context, userID string, badge *Badge) error
}

// Service проверяет условия и выдаёт бейджи.
type Service struct {
	repo     Store
	criteria CriteriaStore
	awarder  PointsAwarder // nil: очки за бейджи не начисляются
	notifier Notifier      // nil: без уведомлений
	now      func() time.Time
}

// NewService создаёт сервис бейджей.
func NewService(repo Store, criteria CriteriaStore, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		criteria: criteria,
		notifier: notifier,
		now:      time.Now,
	}
}

// WithPointsAwarder включает начисление очков за полученный бейдж.
func (s *Service) WithPointsAwarder(awarder PointsAwarder) *Service {
	s.awarder = awarder
	return s
}

// SeedCatalog создаёт или обновляет восемь бейджей каталога.
func (s *Service) SeedCatalog(ctx context.Context) error {
	for _, b := range Catalog() {
		b.IsActive = true
		if err := s.repo.UpsertBadge(ctx, b); err != nil {
			return fmt.Errorf("ошибка посева бейджа %s: %w", b.Type, err)
		}
	}
	log.WithField("count", len(Catalog())).Info("Каталог бейджей обновлён")
	return nil
}

// ListBadges возвращает активный каталог.
func (s *Service) ListBadges(ctx context.Context) ([]*Badge, error) {
	return s.repo.ListActiveBadges(ctx)
}

// ListUserBadges возвращает бейджи пользователя.
func (s *Service) ListUserBadges(ctx context.Context, userID string) ([]*UserBadge, error) {
	return s.repo.ListUserBadges(ctx, userID)
}

// CheckAndAwardBadges проверяет все активные бейджи и выдаёт новые.
// Возвращает названия бейджей, выданных этим вызовом.
// Ошибка одного бейджа логируется и не мешает проверить остальные.
func (s *Service) CheckAndAwardBadges(ctx context.Context, userID string) ([]string, error) {
	all, err := s.repo.ListActiveBadges(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки каталога: %w", err)
	}

	awarded := make([]string, 0)
	for _, badge := range all {
		eligible, err := s.checkBadge(ctx, userID, badge)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"user_id": userID,
				"badge":   badge.Type,
			}).Error("Ошибка проверки бейджа")
			continue
		}
		if !eligible {
			continue
		}
		if s.awardBadge(ctx, userID, badge) {
			awarded = append(awarded, badge.Name)
		}
	}

	if len(awarded) > 0 {
		log.WithFields(log.Fields{
			"user_id": userID,
			"badges":  awarded,
		}).Info("Выданы новые бейджи")
	}
	return awarded, nil
}

// CheckBadgeCriteria: false сразу, если бейдж уже есть, иначе проверка условий.
func (s *Service) CheckBadgeCriteria(ctx context.Context, userID string, badgeType BadgeType) (bool, error) {
	badge, err := s.repo.GetBadgeByType(ctx, badgeType)
	if err != nil {
		return false, err
	}
	return s.checkBadge(ctx, userID, badge)
}

// CheckSpecificBadge проверяет и выдаёт один бейдж (после конкретного действия).
// true: бейдж выдан этим вызовом.
func (s *Service) CheckSpecificBadge(ctx context.Context, userID string, badgeType BadgeType) (bool, error) {
	badge, err := s.repo.GetBadgeByType(ctx, badgeType)
	if err != nil {
		return false, err
	}

	eligible, err := s.checkBadge(ctx, userID, badge)
	if err != nil {
		return false, err
	}
	if !eligible {
		return false, nil
	}
	return s.awardBadge(ctx, userID, badge), nil
}

func (s *Service) checkBadge(ctx context.Context, userID string, badge *Badge) (bool, error) {
	has, err := s.repo.HasUserBadge(ctx, userID, badge.ID)
	if err != nil {
		return false, err
	}
	if has {
		return false, nil
	}
	return s.meetsCriteria(ctx, userID, badge.Type)
}

// awardBadge выдаёт бейдж. Перед вставкой ещё раз проверяет, что бейджа нет:
// между проверкой условий и выдачей его мог выдать параллельный вызов.
// Любая ошибка здесь = «не выдан», наружу не пробрасывается.
func (s *Service) awardBadge(ctx context.Context, userID string, badge *Badge) bool {
	logger := log.WithFields(log.Fields{
		"user_id": userID,
		"badge":   badge.Type,
	})

	has, err := s.repo.HasUserBadge(ctx, userID, badge.ID)
	if err != nil {
		logger.WithError(err).Error("Ошибка повторной проверки бейджа")
		return false
	}
	if has {
		return false
	}

	inserted, err := s.repo.InsertUserBadge(ctx, &UserBadge{
		ID:       uuid.NewString(),
		UserID:   userID,
		BadgeID:  badge.ID,
		EarnedAt: s.now(),
	})
	if err != nil {
		logger.WithError(err).Error("Ошибка выдачи бейджа")
		return false
	}
	if !inserted {
		return false
	}

	if s.awarder != nil && badge.Points > 0 {
		description := fmt.Sprintf("Badge earned: %s", badge.Name)
		if _, err := s.awarder.AwardPoints(ctx, userID, badge.Points, points.ActionBadgeEarned, description); err != nil {
			logger.WithError(err).Warn("Бейдж выдан, но очки не начислены")
		}
	}

	if s.notifier != nil {
		if err := s.notifier.SendBadgeEarned(ctx, userID, badge); err != nil {
			logger.WithError(err).Warn("Не удалось уведомить о бейдже")
		}
	}

	logger.Info("Бейдж выдан")
	return true
}
