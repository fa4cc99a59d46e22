// Package app инициализирует все компоненты приложения.
// app.go собирает приложение: создаёт БД-пул, репозитории, сервисы, фоновые
// задачи и HTTP-сервер и собирает всё в один объект App.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"bersemuka.app/rewards/internal/api"
	"bersemuka.app/rewards/internal/config"
	"bersemuka.app/rewards/internal/db/postgres"
	"bersemuka.app/rewards/internal/db/schema"
	"bersemuka.app/rewards/internal/features/badges"
	"bersemuka.app/rewards/internal/features/members"
	"bersemuka.app/rewards/internal/features/notifications"
	"bersemuka.app/rewards/internal/features/points"
	"bersemuka.app/rewards/internal/jobs"
)

const expiryLockKey = "berse:rewards:points-expiry:lock"

// newRedisClient подменяется в тестах.
var newRedisClient = redis.NewClient

// App содержит все компоненты приложения.
type App struct {
	Server    *api.Server
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	Redis     *redis.Client
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен: компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	// При любой ошибке ниже закрываем всё, что успели открыть
	a := &App{DB: pool}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	if err := postgres.RunMigrations(ctx, pool, schema.Migrations); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Redis (необязателен) ===
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("некорректный REDIS_URL: %w", err)
		}
		rdb = newRedisClient(opts)
		a.Redis = rdb
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis недоступен: %w", err)
		}
		log.Info("Подключение к Redis установлено")
	}

	// === 3. Telegram (необязателен) ===
	var pusher notifications.Pusher
	if cfg.FeatureTelegramNotify {
		sender, err := notifications.NewTelegramSender(cfg.TelegramBotToken)
		if err != nil {
			return nil, err
		}
		pusher = sender
		log.Info("Уведомления в Telegram включены")
	}

	// === 4. Репозитории ===
	memberRepo := members.NewRepository(pool)
	pointsRepo := points.NewRepository(pool)
	badgeRepo := badges.NewRepository(pool)
	notificationRepo := notifications.NewRepository(pool)

	// === 5. Сервисы ===
	memberService := members.NewService(memberRepo)
	notificationService := notifications.NewService(notificationRepo, memberService, pusher, rdb)
	pointsService := points.NewService(pointsRepo, points.PolicyFromConfig(cfg), notificationService, memberService, cfg.Location())
	badgeService := badges.NewService(badgeRepo, badgeRepo, notificationService)
	if cfg.BadgeAwardPoints {
		badgeService = badgeService.WithPointsAwarder(pointsService)
	}

	if err := badgeService.SeedCatalog(ctx); err != nil {
		return nil, fmt.Errorf("ошибка загрузки каталога бейджей: %w", err)
	}

	// === 6. Фоновые задачи ===
	var guard jobs.RunGuard = jobs.NewMemoryGuard()
	if rdb != nil {
		guard = jobs.NewRedisGuard(rdb, expiryLockKey, cfg.ExpiryLockTTL)
	}
	expiryJob := jobs.NewPointsExpiryJob(pointsService, guard, cfg)

	var scheduler *jobs.Scheduler
	if cfg.FeaturePointsExpiryEnabled {
		scheduler = jobs.NewScheduler(expiryJob, cfg.PointsExpiryCron, cfg.Location())
	} else {
		log.Warn("Сгорание очков по расписанию выключено (FEATURE_POINTS_EXPIRY_ENABLED=false)")
	}

	// === 7. HTTP ===
	handler := api.NewHandler(expiryJob, badgeService, pointsService, memberService).WithRunContext(ctx)
	server := api.NewServer(
		cfg.HTTPAddr,
		handler,
		api.NewTokenAuth(cfg.APITokenHash),
		api.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
	)

	a.Server = server
	a.Scheduler = scheduler
	ok = true
	return a, nil
}

// Close освобождает соединения с БД и Redis.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.WithError(err).Warn("Ошибка закрытия Redis")
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
