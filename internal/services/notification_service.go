package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/anjali-menon/learnspace-api/internal/metrics"
	"github.com/anjali-menon/learnspace-api/internal/models"
	"github.com/anjali-menon/learnspace-api/internal/repository"
)

// sweepRetention is how long read notifications are kept before the daily
// sweep removes them.
const sweepRetention = 30 * 24 * time.Hour

// NotificationService lists and updates admin notifications and runs the
// daily cleanup.
type NotificationService interface {
	List(ctx context.Context) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) ([]models.Notification, error)
	Sweep(ctx context.Context) (int64, error)
	RunSweeper(ctx context.Context, interval time.Duration)
}

type notificationService struct {
	repo   repository.NotificationRepository
	logger *zap.SugaredLogger
}

func NewNotificationService(repo repository.NotificationRepository, logger *zap.SugaredLogger) NotificationService {
	return &notificationService{repo: repo, logger: logger}
}

func (s *notificationService) List(ctx context.Context) ([]models.Notification, error) {
	out, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

// MarkRead flips one notification to read and returns the refreshed list,
// which is what the admin dashboard renders next.
func (s *notificationService) MarkRead(ctx context.Context, id string) ([]models.Notification, error) {
	if _, err := s.repo.MarkRead(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	return s.List(ctx)
}

// Sweep deletes read notifications older than the retention window.
func (s *notificationService) Sweep(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteReadBefore(ctx, time.Now().UTC().Add(-sweepRetention))
	if err != nil {
		return 0, fmt.Errorf("sweep notifications: %w", err)
	}
	metrics.NotificationsSwept.Add(float64(deleted))
	return deleted, nil
}

// RunSweeper blocks, sweeping once per interval until ctx is cancelled. It
// is independent of request handling; a failed sweep just waits for the
// next tick.
func (s *notificationService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.Sweep(ctx)
			if err != nil {
				s.logger.Errorf("notification sweep: %v", err)
				continue
			}
			s.logger.Infof("notification sweep removed %d read notifications", deleted)
		}
	}
}
