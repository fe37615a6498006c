package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/anjali-menon/learnspace-api/internal/models"
	"github.com/anjali-menon/learnspace-api/internal/repository"
)

// Consumer turns auth events into admin notifications. It runs until its
// context is cancelled.
type Consumer struct {
	reader *kafka.Reader
	repo   repository.NotificationRepository
	logger *zap.SugaredLogger
}

func NewConsumer(brokers []string, topic, groupID string, repo repository.NotificationRepository, logger *zap.SugaredLogger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{reader: r, repo: repo, logger: logger}
}

func (c *Consumer) Start(ctx context.Context) error {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warnf("kafka read: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if err := c.handle(ctx, m.Value); err != nil {
			c.logger.Errorf("handle event: %v", err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func (c *Consumer) handle(ctx context.Context, raw []byte) error {
	var evt Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}

	n, ok := notificationFor(evt)
	if !ok {
		return nil
	}
	return c.repo.Create(ctx, n)
}

// notificationFor maps an event to the notification shown to admins.
// Login events are deliberately not surfaced; they are far too chatty.
func notificationFor(evt Event) (*models.Notification, bool) {
	switch evt.Type {
	case TypeUserActivated:
		return &models.Notification{
			UserID:  evt.UserID,
			Title:   "New member",
			Message: fmt.Sprintf("%s (%s) activated an account", evt.Name, evt.Email),
		}, true
	case TypeUserRoleUpdated:
		return &models.Notification{
			UserID:  evt.UserID,
			Title:   "Role changed",
			Message: fmt.Sprintf("%s is now %s", evt.Email, evt.Role),
		}, true
	case TypeUserDeleted:
		return &models.Notification{
			UserID:  evt.UserID,
			Title:   "Account removed",
			Message: fmt.Sprintf("%s was deleted", evt.Email),
		}, true
	}
	return nil, false
}
