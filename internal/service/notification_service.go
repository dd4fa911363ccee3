package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/peoplehub/hr-access-api/internal/models"
	"github.com/peoplehub/hr-access-api/pkg/config"
	"github.com/peoplehub/hr-access-api/pkg/jobs"
)

type notificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// NotificationService is the outbound notification sink. Dispatch is
// asynchronous and fire-and-forget: it enqueues onto a worker queue and a
// failed enqueue or delivery is logged, never surfaced to the caller, so
// notification trouble cannot roll back the state transition that caused
// it.
type NotificationService struct {
	repo   notificationStore
	queue  *jobs.Queue
	logger *zap.Logger
}

const jobTypeNotification = "notification.deliver"

// NewNotificationService constructs the service and its backing queue.
func NewNotificationService(repo notificationStore, logger *zap.Logger, cfg config.NotificationsConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotificationService{repo: repo, logger: logger}
	svc.queue = jobs.NewQueue(jobTypeNotification, svc.deliver, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.WorkerRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return svc
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Dispatch queues a notification for delivery. Callers must invoke this
// outside any transaction.
func (s *NotificationService) Dispatch(notification models.Notification) {
	job := jobs.Job{
		ID:      fmt.Sprintf("%s:%s", notification.RecipientID, notification.Title),
		Type:    jobTypeNotification,
		Payload: notification,
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue notification",
			zap.String("recipient", notification.RecipientID),
			zap.Error(err))
	}
}

// DispatchAll queues one notification per recipient.
func (s *NotificationService) DispatchAll(recipients []string, template models.Notification) {
	for _, recipient := range recipients {
		notification := template
		notification.RecipientID = recipient
		s.Dispatch(notification)
	}
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	notification, ok := job.Payload.(models.Notification)
	if !ok {
		s.logger.Error("notification job carried unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	if err := s.repo.Create(ctx, &notification); err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}
	s.logger.Debug("notification delivered",
		zap.String("recipient", notification.RecipientID),
		zap.String("title", notification.Title))
	return nil
}
