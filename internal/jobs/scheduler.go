// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ежедневное сгорание очков.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron       *cron.Cron
	expiryJob  *PointsExpiryJob
	expirySpec string
	loc        *time.Location
}

// NewScheduler создаёт планировщик в заданном часовом поясе (по умолчанию UTC).
func NewScheduler(expiryJob *PointsExpiryJob, expirySpec string, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		expiryJob:  expiryJob,
		expirySpec: expirySpec,
		loc:        loc,
	}
}

// Start регистрирует задачи и запускает планировщик.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.expirySpec, func() {
		log.Info("[CRON] Сгорание очков")
		if _, err := s.expiryJob.Run(ctx); err != nil {
			log.WithError(err).Error("[CRON] Ошибка задачи сгорания")
		}
	})
	if err != nil {
		return fmt.Errorf("некорректное расписание %q: %w", s.expirySpec, err)
	}

	s.cron.Start()
	log.WithFields(log.Fields{
		"expiry_cron": s.expirySpec,
		"timezone":    s.loc.String(),
	}).Info("Планировщик задач запущен")
	return nil
}

// Stop останавливает планировщик и ждёт завершения текущих задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
