// service.go: чтение проекции пользователя для других модулей.
package members

import (
	"context"
)

// Store: то, что сервису нужно от хранилища.
type Store interface {
	GetByID(ctx context.Context, userID string) (*Member, error)
	Exists(ctx context.Context, userID string) (bool, error)
	GetTelegramChatID(ctx context.Context, userID string) (*int64, error)
}

// Service отдаёт данные пользователя модулям очков, бейджей и уведомлений.
type Service struct {
	repo Store
}

// NewService создаёт новый сервис пользователей.
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// GetByID возвращает пользователя по ID.
func (s *Service) GetByID(ctx context.Context, userID string) (*Member, error) {
	return s.repo.GetByID(ctx, userID)
}

// Exists проверяет, что пользователь зарегистрирован.
func (s *Service) Exists(ctx context.Context, userID string) (bool, error) {
	return s.repo.Exists(ctx, userID)
}

// GetTrustLevel возвращает уровень доверия пользователя.
func (s *Service) GetTrustLevel(ctx context.Context, userID string) (TrustLevel, error) {
	m, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return m.TrustLevel, nil
}

// TelegramChatID возвращает привязанный чат Telegram (nil: не привязан).
func (s *Service) TelegramChatID(ctx context.Context, userID string) (*int64, error) {
	return s.repo.GetTelegramChatID(ctx, userID)
}
