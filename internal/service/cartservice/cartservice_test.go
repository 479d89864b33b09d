package cartservice

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

func TestGetDefaultsToOneMonth(t *testing.T) {
	service := NewMock(t)

	cart, err := service.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Months)
}

func TestAdjust(t *testing.T) {
	tests := []struct {
		name     string
		deltas   []int
		expected int
	}{
		{name: "Single increment", deltas: []int{1}, expected: 2},
		{name: "Decrement clamps at minimum", deltas: []int{-1, -1}, expected: 1},
		{name: "Increment clamps at maximum", deltas: []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}, expected: 12},
		{name: "Up and down", deltas: []int{1, 1, -1}, expected: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewMock(t)
			ctx := context.Background()

			var cart domain.Cart
			var err error
			for _, d := range tt.deltas {
				cart, err = service.Adjust(ctx, 42, d)
				require.NoError(t, err)
			}
			assert.Equal(t, tt.expected, cart.Months)
		})
	}
}

func TestClear(t *testing.T) {
	service := NewMock(t)
	ctx := context.Background()

	_, err := service.Adjust(ctx, 42, 3)
	require.NoError(t, err)
	require.NoError(t, service.Clear(ctx, 42))

	cart, err := service.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Months)
}
