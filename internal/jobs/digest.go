// Package jobs запускает фоновые задачи по расписанию.
package jobs

import (
	"context"
	"time"

	"agency-portal/internal/database"
	"agency-portal/internal/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DigestSender: часть mailer.Mailer, нужная дайджесту.
type DigestSender interface {
	SendDigest(leads []models.ContactSubmission) error
}

type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

func NewScheduler(log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log,
	}
}

// AddStaleLeadDigest регистрирует ежедневную рассылку по заявкам без ответа.
// Пустое расписание отключает задачу.
func (s *Scheduler) AddStaleLeadDigest(spec string, sender DigestSender, maxAge time.Duration) error {
	if spec == "" {
		s.log.Info("stale lead digest disabled")
		return nil
	}
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		n, err := RunStaleLeadDigest(ctx, sender, time.Now(), maxAge)
		if err != nil {
			s.log.Error("stale lead digest failed", zap.Error(err))
			return
		}
		s.log.Info("stale lead digest done", zap.Int("leads", n))
	})
	if err != nil {
		return err
	}
	s.log.Info("stale lead digest scheduled", zap.String("spec", spec))
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop возвращает контекст, который закрывается после завершения запущенных задач.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunStaleLeadDigest отправляет список заявок в статусе new старше maxAge.
func RunStaleLeadDigest(ctx context.Context, sender DigestSender, now time.Time, maxAge time.Duration) (int, error) {
	var leads []models.ContactSubmission
	err := database.DB.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.LeadNew, now.Add(-maxAge)).
		Order("created_at asc").
		Limit(100).
		Find(&leads).Error
	if err != nil {
		return 0, err
	}
	if len(leads) == 0 {
		return 0, nil
	}
	if err := sender.SendDigest(leads); err != nil {
		return 0, err
	}
	return len(leads), nil
}
