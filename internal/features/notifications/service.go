// Package notifications доставляет пользователю уведомления очков и бейджей:
// запись в ленту (обязательно), пуш в Telegram и публикация в Redis (по возможности).
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"bersemuka.app/rewards/internal/common"
	"bersemuka.app/rewards/internal/features/badges"
	"bersemuka.app/rewards/internal/features/points"
)

type Store interface {
	Create(ctx context.Context, n *Notification) error
}

// ChatResolver отдаёт привязанный Telegram-чат (nil: не привязан).
type ChatResolver interface {
	TelegramChatID(ctx context.Context, userID string) (*int64, error)
}

type Pusher interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

type Service struct {
	repo   Store
	chats  ChatResolver
	pusher Pusher
	redis  *redis.Client
	now    func() time.Time
}

// NewService: pusher и redisClient могут быть nil.
func NewService(repo Store, chats ChatResolver, pusher Pusher, redisClient *redis.Client) *Service {
	return &Service{
		repo:   repo,
		chats:  chats,
		pusher: pusher,
		redis:  redisClient,
		now:    time.Now,
	}
}

// SendExpiryWarning реализует points.WarningNotifier.
func (s *Service) SendExpiryWarning(ctx context.Context, w points.ExpiryWarning) error {
	title := "Your points are expiring soon"
	message := fmt.Sprintf("%s will expire in %d %s on %s. Use them before they're gone!",
		common.FormatPoints(w.Points), w.DaysBefore, common.PluralizeDays(w.DaysBefore),
		common.FormatDate(w.ExpiresAt))

	return s.deliver(ctx, w.UserID, TypePointsExpiring, title, message, map[string]any{
		"points":      w.Points,
		"expires_at":  w.ExpiresAt.Format(time.RFC3339),
		"days_before": w.DaysBefore,
	})
}

// SendBadgeEarned реализует badges.Notifier.
func (s *Service) SendBadgeEarned(ctx context.Context, userID string, b *badges.Badge) error {
	title := "New badge earned!"
	message := fmt.Sprintf("You earned the %s badge: %s", b.Name, b.Description)

	return s.deliver(ctx, userID, TypeBadgeEarned, title, message, map[string]any{
		"badge_id":   b.ID,
		"badge_type": b.Type,
		"points":     b.Points,
	})
}

func (s *Service) deliver(ctx context.Context, userID string, t Type, title, message string, meta map[string]any) error {
	metadata, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("ошибка сериализации metadata: %w", err)
	}

	n := &Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      t,
		Title:     title,
		Message:   message,
		Metadata:  metadata,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	logger := log.WithFields(log.Fields{
		"user_id": userID,
		"type":    t,
	})

	s.publish(ctx, n, logger)
	s.push(ctx, n, logger)
	return nil
}

// publish отправляет уведомление в канал пользователя для онлайн-клиентов.
func (s *Service) publish(ctx context.Context, n *Notification, logger *log.Entry) {
	if s.redis == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return
	}
	channel := "user_notifications:" + n.UserID
	if err := s.redis.Publish(ctx, channel, payload).Err(); err != nil {
		logger.WithError(err).Warn("Не удалось опубликовать уведомление в Redis")
	}
}

func (s *Service) push(ctx context.Context, n *Notification, logger *log.Entry) {
	if s.pusher == nil || s.chats == nil {
		return
	}
	chatID, err := s.chats.TelegramChatID(ctx, n.UserID)
	if err != nil {
		logger.WithError(err).Warn("Не удалось получить Telegram-чат")
		return
	}
	if chatID == nil {
		return
	}

	text := fmt.Sprintf("<b>%s</b>\n\n%s", html.EscapeString(n.Title), html.EscapeString(n.Message))
	if err := s.pusher.SendText(ctx, *chatID, text); err != nil {
		logger.WithError(err).Warn("Не удалось отправить уведомление в Telegram")
	}
}
