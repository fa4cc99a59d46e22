package notifications

import (
	"encoding/json"
	"time"
)

// Type: вид уведомления.
type Type string

const (
	TypePointsExpiring Type = "POINTS_EXPIRING"
	TypeBadgeEarned    Type = "BADGE_EARNED"
)

// Notification: запись в ленте уведомлений пользователя.
type Notification struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Type      Type            `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	IsRead    bool            `json:"is_read"`
	CreatedAt time.Time       `json:"created_at"`
}
