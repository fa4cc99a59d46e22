// Package members читает проекцию пользователя, нужную ядру наград:
// уровень доверия, рейтинг доверия, баланс и дата регистрации.
// Саму таблицу users ведут другие части приложения, отсюда она только читается.
package members

import (
	"strings"
	"time"
)

// TrustLevel: уровень доверия пользователя.
type TrustLevel string

const (
	TrustLevelStarter TrustLevel = "starter"
	TrustLevelTrusted TrustLevel = "trusted"
	TrustLevelLeader  TrustLevel = "leader"
)

// ParseTrustLevel нормализует строку из БД ("LEADER", " Trusted ") к TrustLevel.
// Неизвестные значения возвращаются как есть в нижнем регистре.
func ParseTrustLevel(s string) TrustLevel {
	return TrustLevel(strings.ToLower(strings.TrimSpace(s)))
}

// Member представляет пользователя Berse в базе данных.
type Member struct {
	ID             string     `db:"id"`
	FullName       string     `db:"full_name"`
	TrustLevel     TrustLevel `db:"trust_level"`
	TrustScore     float64    `db:"trust_score"`  // 0..100
	TotalPoints    int64      `db:"total_points"` // Денормализованный баланс
	TelegramChatID *int64     `db:"telegram_chat_id"`
	CreatedAt      time.Time  `db:"created_at"`
}
