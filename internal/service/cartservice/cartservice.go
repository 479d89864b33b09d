package cartservice

import (
	"context"
	"strconv"

	"github.com/ndenisov/groupgate/internal/domain"
	"github.com/ndenisov/groupgate/internal/state"
)

const (
	MinMonths = 1
	MaxMonths = 12
)

// Service keeps the per-user months selector. A cart is ephemeral: checkout
// turns it into an order and the next /start supersedes it.
type Service struct {
	state *state.Manager
}

func New(st *state.Manager) *Service {
	return &Service{state: st}
}

func clamp(months int) int {
	if months < MinMonths {
		return MinMonths
	}
	if months > MaxMonths {
		return MaxMonths
	}
	return months
}

func key(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// Get returns the user's cart, creating one month by default.
func (s *Service) Get(ctx context.Context, userID int64) (domain.Cart, error) {
	var cart domain.Cart
	err := s.state.Update(ctx, func(doc *domain.Document) error {
		c, ok := doc.Carts[key(userID)]
		if !ok {
			c = domain.Cart{Months: MinMonths}
		}
		c.Months = clamp(c.Months)
		doc.Carts[key(userID)] = c
		cart = c
		return nil
	})
	return cart, err
}

// Adjust moves the months selector by delta, clamped to [MinMonths, MaxMonths].
func (s *Service) Adjust(ctx context.Context, userID int64, delta int) (domain.Cart, error) {
	var cart domain.Cart
	err := s.state.Update(ctx, func(doc *domain.Document) error {
		c, ok := doc.Carts[key(userID)]
		if !ok {
			c = domain.Cart{Months: MinMonths}
		}
		c.Months = clamp(clamp(c.Months) + delta)
		doc.Carts[key(userID)] = c
		cart = c
		return nil
	})
	return cart, err
}

func (s *Service) Clear(ctx context.Context, userID int64) error {
	return s.state.Update(ctx, func(doc *domain.Document) error {
		delete(doc.Carts, key(userID))
		return nil
	})
}
