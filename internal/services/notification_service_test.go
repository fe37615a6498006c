package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/anjali-menon/learnspace-api/internal/models"
	"github.com/anjali-menon/learnspace-api/internal/repository"
)

type memNotificationRepo struct {
	mu    sync.Mutex
	items map[string]*models.Notification
}

func newMemNotificationRepo() *memNotificationRepo {
	return &memNotificationRepo{items: map[string]*models.Notification{}}
}

func (r *memNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if n.Status == "" {
		n.Status = models.NotificationUnread
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	cp := *n
	r.items[n.ID.Hex()] = &cp
	return nil
}

func (r *memNotificationRepo) FindAll(_ context.Context) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Notification, 0, len(r.items))
	for _, n := range r.items {
		out = append(out, *n)
	}
	return out, nil
}

func (r *memNotificationRepo) MarkRead(_ context.Context, id string) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotificationNotFound
	}
	n.Status = models.NotificationRead
	cp := *n
	return &cp, nil
}

func (r *memNotificationRepo) DeleteReadBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, n := range r.items {
		if n.Status == models.NotificationRead && n.CreatedAt.Before(cutoff) {
			delete(r.items, id)
			deleted++
		}
	}
	return deleted, nil
}

func TestMarkReadReturnsRefreshedList(t *testing.T) {
	repo := newMemNotificationRepo()
	svc := NewNotificationService(repo, zap.NewNop().Sugar())
	ctx := context.Background()

	n := &models.Notification{UserID: "u1", Title: "New member", Message: "someone joined"}
	require.NoError(t, repo.Create(ctx, n))

	list, err := svc.MarkRead(ctx, n.ID.Hex())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.NotificationRead, list[0].Status)
}

func TestMarkReadUnknownID(t *testing.T) {
	svc := NewNotificationService(newMemNotificationRepo(), zap.NewNop().Sugar())

	_, err := svc.MarkRead(context.Background(), "652d3adfe2a1b2c3d4e5f601")
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestSweepDeletesOnlyOldReadNotifications(t *testing.T) {
	repo := newMemNotificationRepo()
	svc := NewNotificationService(repo, zap.NewNop().Sugar())
	ctx := context.Background()

	oldRead := &models.Notification{Title: "old read", Status: models.NotificationRead, CreatedAt: time.Now().UTC().Add(-31 * 24 * time.Hour)}
	oldUnread := &models.Notification{Title: "old unread", Status: models.NotificationUnread, CreatedAt: time.Now().UTC().Add(-31 * 24 * time.Hour)}
	freshRead := &models.Notification{Title: "fresh read", Status: models.NotificationRead, CreatedAt: time.Now().UTC()}
	for _, n := range []*models.Notification{oldRead, oldUnread, freshRead} {
		require.NoError(t, repo.Create(ctx, n))
	}

	deleted, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, err := svc.List(ctx)
	require.NoError(t, err)
	titles := make([]string, 0, len(remaining))
	for _, n := range remaining {
		titles = append(titles, n.Title)
	}
	assert.ElementsMatch(t, []string{"old unread", "fresh read"}, titles)
}

func TestRunSweeperStopsOnCancel(t *testing.T) {
	svc := NewNotificationService(newMemNotificationRepo(), zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.RunSweeper(ctx, time.Hour)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
