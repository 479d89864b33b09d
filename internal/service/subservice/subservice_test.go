package subservice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/ndenisov/groupgate/internal/domain"
	"github.com/ndenisov/groupgate/internal/state"
	"github.com/ndenisov/groupgate/internal/storage"
)

func NewMock(t *testing.T) (*Service, *state.Manager) {
	ctrl := gomock.NewController(t)
	store := storage.NewMockStore(ctrl)
	store.EXPECT().Load(gomock.Any()).Return(domain.NewDocument(), nil)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	mgr, err := state.Load(context.Background(), store)
	require.NoError(t, err)
	return New(mgr), mgr
}

func TestGrantNewSubscription(t *testing.T) {
	service, _ := NewMock(t)
	before := time.Now().UTC()

	sub, err := service.Grant(context.Background(), -100, 42, 1, "ORD-1")
	require.NoError(t, err)

	assert.Equal(t, "ORD-1", sub.LastOrderID)
	assert.WithinDuration(t, before.Add(30*24*time.Hour), sub.ExpiresAt, 5*time.Second)

	stored, ok := service.Get(-100, 42)
	require.True(t, ok)
	assert.Equal(t, *sub, stored)
}

func TestGrantStacksOnRemainingTime(t *testing.T) {
	service, mgr := NewMock(t)
	ctx := context.Background()

	// Existing subscription with 10 days left.
	remaining := time.Now().UTC().Add(10 * 24 * time.Hour)
	err := mgr.Update(ctx, func(doc *domain.Document) error {
		doc.Subs[domain.SubKey(-100, 42)] = domain.Subscription{
			JoinAt:      time.Now().UTC().Add(-20 * 24 * time.Hour),
			ExpiresAt:   remaining,
			LastOrderID: "ORD-0",
		}
		return nil
	})
	require.NoError(t, err)

	sub, err := service.Grant(ctx, -100, 42, 1, "ORD-1")
	require.NoError(t, err)

	// now + 10d remaining + 30d purchased, not now + 30d.
	assert.WithinDuration(t, remaining.Add(30*24*time.Hour), sub.ExpiresAt, 5*time.Second)
	assert.Equal(t, "ORD-1", sub.LastOrderID)
}

func TestGrantAfterExpiryResetsClock(t *testing.T) {
	service, mgr := NewMock(t)
	ctx := context.Background()

	err := mgr.Update(ctx, func(doc *domain.Document) error {
		doc.Subs[domain.SubKey(-100, 42)] = domain.Subscription{
			ExpiresAt: time.Now().UTC().Add(-24 * time.Hour),
		}
		return nil
	})
	require.NoError(t, err)

	before := time.Now().UTC()
	sub, err := service.Grant(ctx, -100, 42, 2, "ORD-1")
	require.NoError(t, err)

	assert.WithinDuration(t, before.Add(60*24*time.Hour), sub.ExpiresAt, 5*time.Second)
}

func TestExpired(t *testing.T) {
	service, mgr := NewMock(t)
	now := time.Now().UTC()

	err := mgr.Update(context.Background(), func(doc *domain.Document) error {
		doc.Subs[domain.SubKey(-100, 1)] = domain.Subscription{ExpiresAt: now.Add(-time.Minute)}
		doc.Subs[domain.SubKey(-100, 2)] = domain.Subscription{ExpiresAt: now.Add(time.Hour)}
		doc.Subs[domain.SubKey(-200, 3)] = domain.Subscription{ExpiresAt: now}
		return nil
	})
	require.NoError(t, err)

	keys := service.Expired(now)
	assert.Equal(t, []string{"-100|1", "-200|3"}, keys)
}

func TestDeleteIsIdempotent(t *testing.T) {
	service, _ := NewMock(t)
	ctx := context.Background()

	_, err := service.Grant(ctx, -100, 42, 1, "ORD-1")
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, -100, 42))
	require.NoError(t, service.Delete(ctx, -100, 42))

	_, ok := service.Get(-100, 42)
	assert.False(t, ok)
}

func TestForUser(t *testing.T) {
	service, mgr := NewMock(t)
	now := time.Now().UTC()

	err := mgr.Update(context.Background(), func(doc *domain.Document) error {
		doc.Subs[domain.SubKey(-100, 42)] = domain.Subscription{ExpiresAt: now.Add(time.Hour)}
		doc.Subs[domain.SubKey(-200, 42)] = domain.Subscription{ExpiresAt: now.Add(2 * time.Hour)}
		doc.Subs[domain.SubKey(-100, 7)] = domain.Subscription{ExpiresAt: now.Add(time.Hour)}
		return nil
	})
	require.NoError(t, err)

	subs := service.ForUser(42)
	assert.Len(t, subs, 2)
	assert.Contains(t, subs, int64(-100))
	assert.Contains(t, subs, int64(-200))
}
