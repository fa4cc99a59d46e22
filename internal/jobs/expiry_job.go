package jobs

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	log "github.com/sirupsen/logrus"

	"bersemuka.app/rewards/internal/config"
	"bersemuka.app/rewards/internal/features/points"
)

// ExpiryService: операции очков, которые выполняет задача.
type ExpiryService interface {
	SendExpiryWarnings(ctx context.Context, daysBefore int) (int, error)
	ExpireBatch(ctx context.Context, runAt time.Time, limit int) (*points.BatchResult, error)
}

// RunResult: итог одного запуска.
type RunResult struct {
	Skipped      bool          `json:"skipped"`
	WarningsSent int           `json:"warnings_sent"`
	Batches      int           `json:"batches"`
	Expired      int           `json:"expired"`
	Points       int64         `json:"points"`
	Truncated    bool          `json:"truncated"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration_ns"`
}

// PointsExpiryJob: сначала предупреждения (30/7/1 дней), затем сгорание батчами.
type PointsExpiryJob struct {
	points      ExpiryService
	guard       RunGuard
	batchSize   int
	batchDelay  time.Duration
	warningDays []int

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewPointsExpiryJob(svc ExpiryService, guard RunGuard, cfg *config.Config) *PointsExpiryJob {
	if guard == nil {
		guard = NewMemoryGuard()
	}
	return &PointsExpiryJob{
		points:      svc,
		guard:       guard,
		batchSize:   cfg.PointsExpiryBatchSize,
		batchDelay:  cfg.PointsExpiryBatchDelay,
		warningDays: cfg.PointsWarningDays,
		now:         time.Now,
		sleep:       sleepCtx,
	}
}

// RunNow: ручной запуск оператором. Путь выполнения тот же, что у cron.
func (j *PointsExpiryJob) RunNow(ctx context.Context) (*RunResult, error) {
	log.Info("[EXPIRY] Ручной запуск")
	return j.Run(ctx)
}

// Run выполняет задачу, если она не запущена прямо сейчас.
// Пересекающийся запуск возвращает Skipped и ничего не меняет.
// Блокировка снимается всегда, даже после паники.
func (j *PointsExpiryJob) Run(ctx context.Context) (res *RunResult, err error) {
	acquired, err := j.guard.TryAcquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("не удалось взять блокировку: %w", err)
	}
	if !acquired {
		log.Warn("[EXPIRY] Предыдущий запуск ещё идёт, пропускаем")
		return &RunResult{Skipped: true}, nil
	}

	defer func() {
		if rerr := j.guard.Release(context.WithoutCancel(ctx)); rerr != nil {
			log.WithError(rerr).Error("[EXPIRY] Не удалось снять блокировку")
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("[EXPIRY] Паника в задаче сгорания")
			res = nil
			err = fmt.Errorf("паника в задаче сгорания: %v", r)
		}
	}()

	return j.execute(ctx), nil
}

func (j *PointsExpiryJob) execute(ctx context.Context) *RunResult {
	start := j.now()
	res := &RunResult{StartedAt: start}
	log.Info("[EXPIRY] Старт задачи сгорания очков")

	// Шаг 1: предупреждения. Ошибки не мешают сгоранию.
	for _, days := range j.warningDays {
		sent, err := j.points.SendExpiryWarnings(ctx, days)
		if err != nil {
			log.WithError(err).WithField("days_before", days).Error("[EXPIRY] Ошибка рассылки предупреждений")
			continue
		}
		res.WarningsSent += sent
		log.WithFields(log.Fields{
			"days_before": days,
			"sent":        sent,
		}).Info("[EXPIRY] Предупреждения отправлены")
	}

	// Шаг 2: сгорание, пока батч не вернёт 0. Момент запуска общий для всех батчей.
	for {
		batch, err := j.points.ExpireBatch(ctx, start, j.batchSize)
		if err != nil {
			res.Truncated = true
			log.WithError(err).WithField("batch", res.Batches+1).
				Error("[EXPIRY] Ошибка батча, остаток сгорит в следующий запуск")
			break
		}
		if batch == nil || batch.Count == 0 {
			break
		}

		res.Batches++
		res.Expired += batch.Count
		res.Points += batch.Points
		log.WithFields(log.Fields{
			"batch":  res.Batches,
			"grants": batch.Count,
			"points": batch.Points,
			"users":  batch.Users,
		}).Info("[EXPIRY] Батч обработан")

		if err := j.sleep(ctx, j.batchDelay); err != nil {
			res.Truncated = true
			log.WithError(err).Warn("[EXPIRY] Задача прервана")
			break
		}
	}

	res.Duration = j.now().Sub(start)
	log.WithFields(log.Fields{
		"warnings":  res.WarningsSent,
		"batches":   res.Batches,
		"expired":   res.Expired,
		"points":    res.Points,
		"truncated": res.Truncated,
		"duration":  res.Duration.String(),
	}).Info("[EXPIRY] Задача сгорания завершена")

	return res
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
