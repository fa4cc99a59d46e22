// Package points ведёт начисления очков (point grants) и их сгорание.
// models.go описывает структуры данных начислений.
package points

import "time"

// GrantStatus: статус начисления. spent и expired конечные.
type GrantStatus string

const (
	StatusActive  GrantStatus = "active"
	StatusSpent   GrantStatus = "spent"
	StatusExpired GrantStatus = "expired"
)

// Действия, для которых срок сгорания отличается от уровня доверия.
const (
	ActionAdminAdjustment = "ADMIN_ADJUSTMENT"
	ActionReferralBonus   = "REFERRAL_BONUS"
	ActionBadgeEarned     = "BADGE_EARNED"
)

// PointGrant: одно начисление очков со своим сроком жизни.
type PointGrant struct {
	ID          string      `db:"id"`
	UserID      string      `db:"user_id"`
	Amount      int64       `db:"amount"`
	Action      string      `db:"action"`
	Description string      `db:"description"`
	Status      GrantStatus `db:"status"`
	CreatedAt   time.Time   `db:"created_at"`
	ExpiresAt   time.Time   `db:"expires_at"`
	ExpiredAt   *time.Time  `db:"expired_at"`
}

// BatchResult: итог одного батча сгорания.
type BatchResult struct {
	Count  int   // Сколько начислений помечено expired
	Points int64 // Сумма сгоревших очков
	Users  int   // Сколько пользователей затронуто
}

// ExpiringBalance: сколько очков пользователя сгорает в заданный день.
type ExpiringBalance struct {
	UserID    string
	Points    int64
	ExpiresAt time.Time // Самое раннее сгорание в этом дне
}

// ExpiryWarning: предупреждение о скором сгорании для отправки пользователю.
type ExpiryWarning struct {
	UserID     string
	Points     int64
	ExpiresAt  time.Time
	DaysBefore int
}

// Summary: сводка по очкам пользователя.
type Summary struct {
	UserID           string     `json:"user_id"`
	Available        int64      `json:"available"`
	ExemptFromExpiry bool       `json:"exempt_from_expiry"`
	NextExpiryAt     *time.Time `json:"next_expiry_at,omitempty"`
	ExpiringSoon     int64      `json:"expiring_soon"` // Сгорает в ближайшие 30 дней
}
