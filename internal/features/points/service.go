// service.go содержит бизнес-логику очков:
// предупреждения о сгорании, батчевое сгорание, начисления и сводку.
package points

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"bersemuka.app/rewards/internal/common"
	"bersemuka.app/rewards/internal/features/members"
)

// Store: операции хранилища, которые нужны сервису.
type Store interface {
	CreateGrant(ctx context.Context, g *PointGrant) error
	GetAvailablePoints(ctx context.Context, userID string) (int64, error)
	GetExpiringBetween(ctx context.Context, userID string, from, to time.Time) (int64, *time.Time, error)
	GetNextExpiry(ctx context.Context, userID string, now time.Time) (*time.Time, error)
	FindExpiringBalances(ctx context.Context, from, to time.Time, minBalance int64) ([]ExpiringBalance, error)
	ReserveWarning(ctx context.Context, w ExpiryWarning, expiryDay time.Time) (bool, error)
	ReleaseWarning(ctx context.Context, w ExpiryWarning, expiryDay time.Time) error
	ExpireBatch(ctx context.Context, runAt time.Time, minBalance int64, limit int) (*BatchResult, error)
}

// WarningNotifier доставляет предупреждение пользователю.
type WarningNotifier interface {
	SendExpiryWarning(ctx context.Context, w ExpiryWarning) error
}

// TrustLevelReader отдаёт уровень доверия пользователя на момент начисления.
type TrustLevelReader interface {
	GetTrustLevel(ctx context.Context, userID string) (members.TrustLevel, error)
}

// expiringSoonWindow: горизонт «скоро сгорит» в сводке.
const expiringSoonWindow = 30 * 24 * time.Hour

// Service управляет очками пользователей.
type Service struct {
	repo     Store
	policy   ExpiryPolicy
	notifier WarningNotifier
	users    TrustLevelReader
	loc      *time.Location
	now      func() time.Time
}

// NewService создаёт сервис очков. loc: часовой пояс, в котором считаются «дни» предупреждений.
func NewService(repo Store, policy ExpiryPolicy, notifier WarningNotifier, users TrustLevelReader, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:     repo,
		policy:   policy,
		notifier: notifier,
		users:    users,
		loc:      loc,
		now:      time.Now,
	}
}

// SendExpiryWarnings предупреждает пользователей, у которых очки сгорают
// ровно через daysBefore дней (календарный день в часовом поясе сервиса).
// Возвращает число отправленных предупреждений.
//
// Ошибка доставки одному пользователю не прерывает рассылку: отметка
// о предупреждении снимается, и следующий запуск попробует снова.
func (s *Service) SendExpiryWarnings(ctx context.Context, daysBefore int) (int, error) {
	if daysBefore <= 0 {
		return 0, fmt.Errorf("daysBefore должен быть > 0, получено %d", daysBefore)
	}

	dayStart := common.StartOfDay(s.now(), s.loc).AddDate(0, 0, daysBefore)
	dayEnd := dayStart.AddDate(0, 0, 1)

	balances, err := s.repo.FindExpiringBalances(ctx, dayStart, dayEnd, s.policy.MinBalanceExemption)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, b := range balances {
		w := ExpiryWarning{
			UserID:     b.UserID,
			Points:     b.Points,
			ExpiresAt:  b.ExpiresAt,
			DaysBefore: daysBefore,
		}

		reserved, err := s.repo.ReserveWarning(ctx, w, dayStart)
		if err != nil {
			log.WithError(err).WithField("user_id", b.UserID).Error("Не удалось отметить предупреждение")
			continue
		}
		if !reserved {
			continue // Уже предупреждали сегодня
		}

		if err := s.notifier.SendExpiryWarning(ctx, w); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"user_id":     b.UserID,
				"days_before": daysBefore,
			}).Warn("Не удалось отправить предупреждение о сгорании")
			if err := s.repo.ReleaseWarning(ctx, w, dayStart); err != nil {
				log.WithError(err).WithField("user_id", b.UserID).Error("Не удалось снять отметку предупреждения")
			}
			continue
		}
		sent++
	}

	log.WithFields(log.Fields{
		"days_before": daysBefore,
		"candidates":  len(balances),
		"sent":        sent,
	}).Debug("Предупреждения о сгорании разосланы")

	return sent, nil
}

// ExpireBatch сжигает до limit начислений, просроченных на момент runAt.
// Все батчи одного запуска передают один и тот же runAt: пользователь,
// у которого на старте запуска было ниже порога, не затрагивается,
// а у остальных сгорает всё просроченное, как бы ни делились батчи.
func (s *Service) ExpireBatch(ctx context.Context, runAt time.Time, limit int) (*BatchResult, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit должен быть > 0, получено %d", limit)
	}
	// Postgres хранит микросекунды: expired_at = runAt должно совпадать
	return s.repo.ExpireBatch(ctx, runAt.UTC().Truncate(time.Microsecond), s.policy.MinBalanceExemption, limit)
}

// AwardPoints создаёт начисление. Срок сгорания считается от уровня доверия
// пользователя в момент начисления и, если задано, от действия.
func (s *Service) AwardPoints(ctx context.Context, userID string, amount int64, action, description string) (*PointGrant, error) {
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}

	level, err := s.users.GetTrustLevel(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	grant := &PointGrant{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      amount,
		Action:      action,
		Description: description,
		Status:      StatusActive,
		CreatedAt:   now,
		ExpiresAt:   s.policy.CalculateExpiryDate(now, string(level), action),
	}
	if err := s.repo.CreateGrant(ctx, grant); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":    userID,
		"amount":     amount,
		"action":     action,
		"expires_at": grant.ExpiresAt.Format(time.RFC3339),
	}).Info("Очки начислены")

	return grant, nil
}

// GetSummary возвращает сводку по очкам пользователя.
func (s *Service) GetSummary(ctx context.Context, userID string) (*Summary, error) {
	available, err := s.repo.GetAvailablePoints(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	next, err := s.repo.GetNextExpiry(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	soon, _, err := s.repo.GetExpiringBetween(ctx, userID, now, now.Add(expiringSoonWindow))
	if err != nil {
		return nil, err
	}

	return &Summary{
		UserID:           userID,
		Available:        available,
		ExemptFromExpiry: s.policy.IsExemptFromExpiry(available),
		NextExpiryAt:     next,
		ExpiringSoon:     soon,
	}, nil
}
