// Package badges ведёт каталог достижений и их выдачу пользователям.
// models.go описывает бейдж каталога и запись о выдаче.
package badges

import (
	"encoding/json"
	"time"
)

// BadgeType: тег бейджа, по нему выбирается проверка условий.
type BadgeType string

const (
	TypeExplorer         BadgeType = "EXPLORER"
	TypeConnector        BadgeType = "CONNECTOR"
	TypeHostMaster       BadgeType = "HOST_MASTER"
	TypeTrustedMember    BadgeType = "TRUSTED_MEMBER"
	TypeCommunityBuilder BadgeType = "COMMUNITY_BUILDER"
	TypeServiceStar      BadgeType = "SERVICE_STAR"
	TypeEarlyAdopter     BadgeType = "EARLY_ADOPTER"
	TypeGlobalCitizen    BadgeType = "GLOBAL_CITIZEN"
)

// Badge: запись каталога. Создаётся при старте (SeedCatalog), дальше только читается.
type Badge struct {
	ID             string          `db:"id" json:"id"`
	Type           BadgeType       `db:"type" json:"type"`
	Name           string          `db:"name" json:"name"`
	Description    string          `db:"description" json:"description"`
	Criteria       string          `db:"criteria" json:"criteria"` // Условие человеческим языком
	Category       string          `db:"category" json:"category"`
	Tier           string          `db:"tier" json:"tier"`
	Points         int64           `db:"points" json:"points"`
	CriteriaConfig json.RawMessage `db:"criteria_config" json:"criteria_config"`
	IsActive       bool            `db:"is_active" json:"is_active"`
}

// UserBadge: факт выдачи бейджа. Не больше одной записи на пару (пользователь, бейдж).
type UserBadge struct {
	ID       string    `db:"id" json:"id"`
	UserID   string    `db:"user_id" json:"user_id"`
	BadgeID  string    `db:"badge_id" json:"badge_id"`
	EarnedAt time.Time `db:"earned_at" json:"earned_at"`
}

// HostedEventStats: агрегаты по завершённым мероприятиям, где пользователь был хостом.
type HostedEventStats struct {
	CompletedEvents int
	RatedMoments    int     // Оценки без значения rating не считаются
	AverageRating   float64 // 0, если оценок нет
}

// RatingStats: объединённые оценки из нескольких источников.
type RatingStats struct {
	Count         int
	AverageRating float64
}
