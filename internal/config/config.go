// Package config загружает конфигурацию сервиса из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Database ---
	// DATABASE_URL, если задан, заменяет DB_* целиком.
	DatabaseURL string `envconfig:"DATABASE_URL"`
	// В Docker дефолт "postgres" (имя сервиса в docker-compose), для локалки DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"berse"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"berse"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv       string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel  string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppLogFormat string `envconfig:"APP_LOG_FORMAT" default:"text"`
	AppTimezone  string `envconfig:"APP_TIMEZONE" default:"UTC"`

	// --- HTTP ---
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	// Argon2id-хеш сервисного токена (генерируется scripts/generate_hash.go)
	APITokenHash string `envconfig:"API_TOKEN_HASH" required:"true"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"60"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Points expiry ---
	PointsStandardExpiryMonths int           `envconfig:"POINTS_STANDARD_EXPIRY_MONTHS" default:"12"`
	PointsExpiryMonthsStarter  int           `envconfig:"POINTS_EXPIRY_MONTHS_STARTER" default:"12"`
	PointsExpiryMonthsTrusted  int           `envconfig:"POINTS_EXPIRY_MONTHS_TRUSTED" default:"12"`
	PointsExpiryMonthsLeader   int           `envconfig:"POINTS_EXPIRY_MONTHS_LEADER" default:"18"`
	PointsMinBalanceExemption  int64         `envconfig:"POINTS_MIN_BALANCE_EXEMPTION" default:"100"`
	PointsWarningDays          []int         `envconfig:"POINTS_WARNING_DAYS" default:"30,7,1"`
	PointsExpiryBatchSize      int           `envconfig:"POINTS_EXPIRY_BATCH_SIZE" default:"5000"`
	PointsExpiryBatchDelay     time.Duration `envconfig:"POINTS_EXPIRY_BATCH_DELAY" default:"100ms"`
	PointsExpiryCron           string        `envconfig:"POINTS_EXPIRY_CRON" default:"0 3 * * *"`

	// --- Locking ---
	// Пустой REDIS_URL = блокировка только внутри процесса
	RedisURL      string        `envconfig:"REDIS_URL"`
	ExpiryLockTTL time.Duration `envconfig:"EXPIRY_LOCK_TTL" default:"2h"`

	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`

	// --- Badges ---
	// Начислять очки за бейдж. Выключено, пока не согласована схема начислений.
	BadgeAwardPoints bool `envconfig:"BADGE_AWARD_POINTS" default:"false"`

	// --- Feature Flags ---
	FeaturePointsExpiryEnabled bool `envconfig:"FEATURE_POINTS_EXPIRY_ENABLED" default:"true"`
	FeatureTelegramNotify      bool `envconfig:"FEATURE_TELEGRAM_NOTIFY" default:"false"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Location возвращает часовой пояс планировщика. При ошибке: UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.AppTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) Validate() error {
	if !strings.HasPrefix(c.APITokenHash, "$argon2id$") {
		return fmt.Errorf("API_TOKEN_HASH должен быть Argon2id-хешем (scripts/generate_hash.go)")
	}
	if c.DatabaseURL == "" && c.DBPassword == "" {
		return fmt.Errorf("нужен DATABASE_URL или DB_PASSWORD")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.PointsStandardExpiryMonths <= 0 || c.PointsExpiryMonthsStarter <= 0 ||
		c.PointsExpiryMonthsTrusted <= 0 || c.PointsExpiryMonthsLeader <= 0 {
		return fmt.Errorf("сроки сгорания очков должны быть > 0 месяцев")
	}
	if c.PointsMinBalanceExemption < 0 {
		return fmt.Errorf("POINTS_MIN_BALANCE_EXEMPTION не может быть отрицательным")
	}
	if err := validateWarningDays(c.PointsWarningDays); err != nil {
		return err
	}
	if c.PointsExpiryBatchSize <= 0 {
		return fmt.Errorf("POINTS_EXPIRY_BATCH_SIZE должен быть > 0")
	}
	if c.PointsExpiryBatchDelay < 0 {
		return fmt.Errorf("POINTS_EXPIRY_BATCH_DELAY не может быть отрицательным")
	}
	if _, err := cron.ParseStandard(c.PointsExpiryCron); err != nil {
		return fmt.Errorf("POINTS_EXPIRY_CRON %q: %w", c.PointsExpiryCron, err)
	}
	if c.RedisURL != "" && c.ExpiryLockTTL <= 0 {
		return fmt.Errorf("EXPIRY_LOCK_TTL должен быть > 0")
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("некорректные RATE_LIMIT_REQUESTS/RATE_LIMIT_WINDOW")
	}
	if c.FeatureTelegramNotify && c.TelegramBotToken == "" {
		return fmt.Errorf("FEATURE_TELEGRAM_NOTIFY включён, но TELEGRAM_BOT_TOKEN не задан")
	}
	return nil
}

// validateWarningDays: ровно три предупреждения, строго по убыванию (30, 7, 1).
func validateWarningDays(days []int) error {
	if len(days) != 3 {
		return fmt.Errorf("POINTS_WARNING_DAYS: нужно ровно 3 значения, получено %d", len(days))
	}
	for i, d := range days {
		if d <= 0 {
			return fmt.Errorf("POINTS_WARNING_DAYS: значение %d должно быть > 0", d)
		}
		if i > 0 && d >= days[i-1] {
			return fmt.Errorf("POINTS_WARNING_DAYS: значения должны строго убывать")
		}
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
