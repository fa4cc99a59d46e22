// Package schema хранит SQL-миграции сервиса.
// Миграции встроены в код для упрощения деплоя.
package schema

import "bersemuka.app/rewards/internal/db/postgres"

// Migrations применяются по порядку при старте (postgres.RunMigrations).
// Таблицы из migration001 ведут другие сервисы платформы; здесь они
// создаются только для локального окружения и тестовых стендов.
var Migrations = []postgres.Migration{
	{Version: 1, Name: "platform_projections", SQL: migration001Platform},
	{Version: 2, Name: "point_grants", SQL: migration002Points},
	{Version: 3, Name: "badges", SQL: migration003Badges},
	{Version: 4, Name: "notifications", SQL: migration004Notifications},
}

var migration001Platform = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    full_name TEXT NOT NULL DEFAULT '',
    trust_level TEXT NOT NULL DEFAULT 'starter',
    trust_score DOUBLE PRECISION NOT NULL DEFAULT 0,
    total_points BIGINT NOT NULL DEFAULT 0,
    telegram_chat_id BIGINT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at);

CREATE TABLE IF NOT EXISTS user_connections (
    id TEXT PRIMARY KEY,
    initiator_id TEXT NOT NULL REFERENCES users(id),
    receiver_id TEXT NOT NULL REFERENCES users(id),
    status TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_user_connections_initiator ON user_connections(initiator_id, status);
CREATE INDEX IF NOT EXISTS idx_user_connections_receiver ON user_connections(receiver_id, status);

CREATE TABLE IF NOT EXISTS user_locations (
    user_id TEXT PRIMARY KEY REFERENCES users(id),
    city TEXT,
    country TEXT
);

CREATE TABLE IF NOT EXISTS travel_logs (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id),
    country TEXT NOT NULL,
    visited_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_travel_logs_user ON travel_logs(user_id);

CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    host_id TEXT NOT NULL REFERENCES users(id),
    title TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    starts_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_events_host ON events(host_id, status);

CREATE TABLE IF NOT EXISTS trust_moments (
    id TEXT PRIMARY KEY,
    giver_id TEXT NOT NULL REFERENCES users(id),
    receiver_id TEXT NOT NULL REFERENCES users(id),
    event_id TEXT REFERENCES events(id),
    rating DOUBLE PRECISION,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_trust_moments_event ON trust_moments(event_id);
CREATE INDEX IF NOT EXISTS idx_trust_moments_receiver ON trust_moments(receiver_id);

CREATE TABLE IF NOT EXISTS communities (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_by TEXT NOT NULL REFERENCES users(id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS community_members (
    community_id TEXT NOT NULL REFERENCES communities(id),
    user_id TEXT NOT NULL REFERENCES users(id),
    role TEXT NOT NULL DEFAULT 'MEMBER',
    is_approved BOOLEAN NOT NULL DEFAULT TRUE,
    joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    role_assigned_at TIMESTAMPTZ,
    PRIMARY KEY (community_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_community_members_user ON community_members(user_id);

CREATE TABLE IF NOT EXISTS marketplace_reviews (
    id TEXT PRIMARY KEY,
    seller_id TEXT NOT NULL REFERENCES users(id),
    reviewer_id TEXT NOT NULL REFERENCES users(id),
    rating DOUBLE PRECISION NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_marketplace_reviews_seller ON marketplace_reviews(seller_id);

CREATE TABLE IF NOT EXISTS connection_reviews (
    id TEXT PRIMARY KEY,
    reviewee_id TEXT NOT NULL REFERENCES users(id),
    reviewer_id TEXT NOT NULL REFERENCES users(id),
    rating DOUBLE PRECISION NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_connection_reviews_reviewee ON connection_reviews(reviewee_id);
`

var migration002Points = `
CREATE TABLE IF NOT EXISTS point_grants (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id),
    amount BIGINT NOT NULL CHECK (amount > 0),
    action TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'spent', 'expired')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMPTZ NOT NULL,
    expired_at TIMESTAMPTZ,
    spent_at TIMESTAMPTZ,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_point_grants_user_status ON point_grants(user_id, status);
CREATE INDEX IF NOT EXISTS idx_point_grants_active_expiry ON point_grants(expires_at) WHERE status = 'active';

CREATE TABLE IF NOT EXISTS point_expiry_warnings (
    user_id TEXT NOT NULL REFERENCES users(id),
    days_before INTEGER NOT NULL,
    expiry_date DATE NOT NULL,
    points BIGINT NOT NULL,
    sent_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (user_id, days_before, expiry_date)
);
`

var migration003Badges = `
CREATE TABLE IF NOT EXISTS badges (
    id TEXT PRIMARY KEY,
    type TEXT UNIQUE NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    criteria TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    tier TEXT NOT NULL DEFAULT '',
    points BIGINT NOT NULL DEFAULT 0,
    criteria_config JSONB,
    is_active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS user_badges (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id),
    badge_id TEXT NOT NULL REFERENCES badges(id),
    earned_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (user_id, badge_id)
);
`

var migration004Notifications = `
CREATE TABLE IF NOT EXISTS notifications (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id),
    type TEXT NOT NULL,
    title TEXT NOT NULL,
    message TEXT NOT NULL,
    metadata JSONB,
    is_read BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at DESC);
`
