package subservice

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ndenisov/groupgate/internal/domain"
	"github.com/ndenisov/groupgate/internal/state"
)

// MonthLength is a fixed billing month. No calendar arithmetic.
const MonthLength = 30 * 24 * time.Hour

// Service is the authoritative record of active access grants, keyed by
// (group, user).
type Service struct {
	state *state.Manager
}

func New(st *state.Manager) *Service {
	return &Service{state: st}
}

// Grant creates or extends a subscription. Renewal before expiry stacks on
// top of the remaining time instead of resetting the clock, so expires_at
// never decreases for a live subscription.
func (s *Service) Grant(ctx context.Context, groupID, userID int64, months int, orderID string) (*domain.Subscription, error) {
	key := domain.SubKey(groupID, userID)
	now := time.Now().UTC()

	var sub domain.Subscription
	err := s.state.Update(ctx, func(doc *domain.Document) error {
		base := now
		if existing, ok := doc.Subs[key]; ok && existing.ExpiresAt.After(now) {
			base = existing.ExpiresAt
		}
		sub = domain.Subscription{
			JoinAt:      now,
			ExpiresAt:   base.Add(time.Duration(months) * MonthLength),
			LastOrderID: orderID,
		}
		doc.Subs[key] = sub
		return nil
	})
	if err != nil {
		zap.L().Error("can't save subscription", zap.Error(err))
		return nil, err
	}

	zap.L().Info("subscription granted",
		zap.Int64("userID", userID),
		zap.Int64("groupID", groupID),
		zap.Int("months", months),
		zap.Time("expiresAt", sub.ExpiresAt),
	)
	return &sub, nil
}

func (s *Service) Get(groupID, userID int64) (domain.Subscription, bool) {
	var (
		sub domain.Subscription
		ok  bool
	)
	s.state.View(func(doc *domain.Document) {
		sub, ok = doc.Subs[domain.SubKey(groupID, userID)]
	})
	return sub, ok
}

// Delete removes the subscription record. Called by the scheduler once a
// revocation is performed; missing keys are a no-op (a sweep and a timer can
// both enqueue the same key).
func (s *Service) Delete(ctx context.Context, groupID, userID int64) error {
	return s.state.Update(ctx, func(doc *domain.Document) error {
		delete(doc.Subs, domain.SubKey(groupID, userID))
		return nil
	})
}

// Expired returns the keys of every subscription with expires_at <= now.
func (s *Service) Expired(now time.Time) []string {
	var keys []string
	s.state.View(func(doc *domain.Document) {
		for key, sub := range doc.Subs {
			if !sub.ExpiresAt.After(now) {
				keys = append(keys, key)
			}
		}
	})
	sort.Strings(keys)
	return keys
}

// All returns a copy of every subscription, keyed by "group|user".
func (s *Service) All() map[string]domain.Subscription {
	out := make(map[string]domain.Subscription)
	s.state.View(func(doc *domain.Document) {
		for key, sub := range doc.Subs {
			out[key] = sub
		}
	})
	return out
}

// ForUser lists the user's subscriptions across groups, for /status.
func (s *Service) ForUser(userID int64) map[int64]domain.Subscription {
	out := make(map[int64]domain.Subscription)
	s.state.View(func(doc *domain.Document) {
		for key, sub := range doc.Subs {
			groupID, uid, err := domain.ParseSubKey(key)
			if err != nil || uid != userID {
				continue
			}
			out[groupID] = sub
		}
	})
	return out
}
