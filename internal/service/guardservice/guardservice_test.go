package guardservice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/ndenisov/groupgate/internal/domain"
	"github.com/ndenisov/groupgate/internal/state"
	"github.com/ndenisov/groupgate/internal/storage"
)

func NewMock(t *testing.T) *Service {
	ctrl := gomock.NewController(t)
	store := storage.NewMockStore(ctrl)
	store.EXPECT().Load(gomock.Any()).Return(domain.NewDocument(), nil)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	mgr, err := state.Load(context.Background(), store)
	require.NoError(t, err)
	return New(mgr)
}

func TestConsume(t *testing.T) {
	entry := domain.GuardEntry{UserID: 42, GroupID: -100, Months: 3, OrderID: "ORD-1"}

	tests := []struct {
		name        string
		token       string
		userID      int64
		groupID     int64
		expectError bool
	}{
		{
			name:    "Bound identity redeems",
			token:   "t.me/+abc",
			userID:  42,
			groupID: -100,
		},
		{
			name:        "Unknown token is declined",
			token:       "t.me/+stolen",
			userID:      42,
			groupID:     -100,
			expectError: true,
		},
		{
			name:        "Different user is declined",
			token:       "t.me/+abc",
			userID:      7,
			groupID:     -100,
			expectError: true,
		},
		{
			name:        "Different group is declined",
			token:       "t.me/+abc",
			userID:      42,
			groupID:     -200,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewMock(t)
			ctx := context.Background()
			require.NoError(t, service.Create(ctx, "t.me/+abc", entry))

			got, err := service.Consume(ctx, tt.token, tt.userID, tt.groupID)
			if tt.expectError {
				assert.ErrorIs(t, err, ErrAccessMismatch)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, entry, got)
			}
		})
	}
}

func TestCheckDoesNotConsume(t *testing.T) {
	service := NewMock(t)
	ctx := context.Background()
	entry := domain.GuardEntry{UserID: 42, GroupID: -100, Months: 1, OrderID: "ORD-1"}
	require.NoError(t, service.Create(ctx, "t.me/+abc", entry))

	assert.True(t, service.Check("t.me/+abc", 42, -100))
	assert.False(t, service.Check("t.me/+abc", 7, -100))
	assert.False(t, service.Check("t.me/+abc", 42, -200))
	assert.False(t, service.Check("t.me/+stolen", 42, -100))

	// Checks, even failed ones, leave the entry redeemable.
	got, err := service.Consume(ctx, "t.me/+abc", 42, -100)
	assert.NoError(t, err)
	assert.Equal(t, entry, got)
}

func TestConsumeIsSingleUse(t *testing.T) {
	service := NewMock(t)
	ctx := context.Background()
	entry := domain.GuardEntry{UserID: 42, GroupID: -100, Months: 1, OrderID: "ORD-1"}
	require.NoError(t, service.Create(ctx, "t.me/+abc", entry))

	_, err := service.Consume(ctx, "t.me/+abc", 42, -100)
	require.NoError(t, err)

	// Second join request with the same token is always declined.
	_, err = service.Consume(ctx, "t.me/+abc", 42, -100)
	assert.ErrorIs(t, err, ErrAccessMismatch)
}

func TestMismatchLeavesEntryLive(t *testing.T) {
	service := NewMock(t)
	ctx := context.Background()
	entry := domain.GuardEntry{UserID: 42, GroupID: -100, Months: 1, OrderID: "ORD-1"}
	require.NoError(t, service.Create(ctx, "t.me/+abc", entry))

	_, err := service.Consume(ctx, "t.me/+abc", 7, -100)
	require.ErrorIs(t, err, ErrAccessMismatch)

	// The bound identity can still redeem after a hijack attempt.
	got, err := service.Consume(ctx, "t.me/+abc", 42, -100)
	assert.NoError(t, err)
	assert.Equal(t, entry, got)
}
