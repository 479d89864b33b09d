package guardservice

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ndenisov/groupgate/internal/domain"
	"github.com/ndenisov/groupgate/internal/state"
)

// ErrAccessMismatch covers every invalid redemption: unknown token, wrong
// user, wrong group. Callers decline the join request and never distinguish
// the cases towards the requester.
var ErrAccessMismatch = errors.New("no guard entry for this join request")

// Service owns the invite guard: one live entry per issued token, redeemable
// by exactly the bound (user, group) pair, consumed on first valid use.
type Service struct {
	state *state.Manager
}

func New(st *state.Manager) *Service {
	return &Service{state: st}
}

// Create binds an invite token to the identity that paid for it.
func (s *Service) Create(ctx context.Context, token string, entry domain.GuardEntry) error {
	return s.state.Update(ctx, func(doc *domain.Document) error {
		doc.Guard[token] = entry
		return nil
	})
}

// Check reports whether token is redeemable by (userID, groupID) without
// consuming the entry. Callers confirm the approval with the transport first
// and only then Consume, so a failed approve leaves the entry redeemable.
func (s *Service) Check(token string, userID, groupID int64) bool {
	var ok bool
	s.state.View(func(doc *domain.Document) {
		g, found := doc.Guard[token]
		ok = found && g.UserID == userID && g.GroupID == groupID
	})
	return ok
}

// Consume validates a join request against the guard entry for token and
// deletes the entry on success. A second call with the same token, or a call
// from a different identity, fails with ErrAccessMismatch and leaves a valid
// entry untouched.
func (s *Service) Consume(ctx context.Context, token string, userID, groupID int64) (domain.GuardEntry, error) {
	var entry domain.GuardEntry
	err := s.state.Update(ctx, func(doc *domain.Document) error {
		g, ok := doc.Guard[token]
		if !ok || g.UserID != userID || g.GroupID != groupID {
			return ErrAccessMismatch
		}
		entry = g
		delete(doc.Guard, token)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAccessMismatch) {
			zap.L().Warn("join request rejected",
				zap.Int64("userID", userID),
				zap.Int64("groupID", groupID),
			)
		}
		return domain.GuardEntry{}, err
	}
	return entry, nil
}
