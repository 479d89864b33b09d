// Package scheduler revokes access when subscriptions expire. Every active
// subscription gets an in-process timer; a periodic sweep over the ledger
// backstops timers lost to restarts or clock drift.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ndenisov/groupgate/internal/config"
	"github.com/ndenisov/groupgate/internal/domain"
	"github.com/ndenisov/groupgate/internal/events"
	"github.com/ndenisov/groupgate/internal/metrics"
	"github.com/ndenisov/groupgate/internal/service/subservice"
	"github.com/ndenisov/groupgate/internal/transport"
)

type Service struct {
	subs          *subservice.Service
	transport     transport.Transport
	events        events.Publisher
	sweepInterval time.Duration

	queue chan string
	done  chan struct{}

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func New(cfg *config.Config, subs *subservice.Service, tr transport.Transport, pub events.Publisher) *Service {
	return &Service{
		subs:          subs,
		transport:     tr,
		events:        pub,
		sweepInterval: cfg.SweepInterval,
		queue:         make(chan string, 64),
		done:          make(chan struct{}),
		timers:        make(map[string]*time.Timer),
	}
}

// Start launches the revocation worker and the sweep ticker, then arms a
// timer for every subscription already in the ledger.
func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	go s.sweepLoop(ctx)
	s.ArmAll()
}

// Arm schedules a revocation check for the subscription key at expiresAt.
// Re-arming an already armed key replaces the previous timer, so renewals
// push the check forward instead of firing early.
func (s *Service) Arm(key string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.timers[key]; ok {
		prev.Stop()
	}
	delay := time.Until(expiresAt)
	if delay < 0 {
		delay = 0
	}
	s.timers[key] = time.AfterFunc(delay, func() {
		s.enqueue(key)
	})
}

// enqueue hands a key to the worker. Once the worker has exited nobody drains
// the queue, so senders bail out instead of blocking forever.
func (s *Service) enqueue(key string) {
	select {
	case s.queue <- key:
	case <-s.done:
	}
}

// ArmAll arms timers for the whole ledger. Called on startup so grants made
// before the last restart still get revoked on time.
func (s *Service) ArmAll() {
	subs := s.subs.All()
	for key, sub := range subs {
		s.Arm(key, sub.ExpiresAt)
	}
	zap.L().Info("expiry timers armed", zap.Int("count", len(subs)))
}

func (s *Service) worker(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case key := <-s.queue:
			s.process(ctx, key)
		}
	}
}

func (s *Service) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep enqueues every subscription that is already past its expires_at. The
// worker re-reads the ledger before acting, so a key enqueued by both a timer
// and a sweep is revoked once.
func (s *Service) Sweep() {
	for _, key := range s.subs.Expired(time.Now().UTC()) {
		s.enqueue(key)
	}
}

// process decides a single key's fate against the current ledger. A timer
// armed before a renewal fires against the old expires_at; the re-read
// catches that and re-arms instead of revoking.
func (s *Service) process(ctx context.Context, key string) {
	groupID, userID, err := domain.ParseSubKey(key)
	if err != nil {
		zap.L().Error("bad subscription key", zap.String("key", key), zap.Error(err))
		return
	}

	sub, ok := s.subs.Get(groupID, userID)
	if !ok {
		s.disarm(key)
		return
	}
	now := time.Now().UTC()
	if sub.ExpiresAt.After(now) {
		s.Arm(key, sub.ExpiresAt)
		return
	}

	s.revoke(ctx, key, groupID, userID)
}

// revoke removes the member and the ledger entry. A transport failure is
// reported but does not keep the subscription alive: the local record is the
// source of truth and a dangling member is recoverable, a resurrecting
// subscription is not.
func (s *Service) revoke(ctx context.Context, key string, groupID, userID int64) {
	if err := s.transport.RemoveMember(ctx, groupID, userID); err != nil {
		zap.L().Error("revocation transport call failed",
			zap.Int64("groupID", groupID),
			zap.Int64("userID", userID),
			zap.Error(err),
		)
		metrics.RevocationFailures.Inc()
		s.events.Publish(ctx, events.RevokeFailed, map[string]any{
			"group_id": groupID,
			"user_id":  userID,
			"error":    err.Error(),
		})
	}

	if err := s.subs.Delete(ctx, groupID, userID); err != nil {
		zap.L().Error("can't delete subscription", zap.String("key", key), zap.Error(err))
		return
	}
	s.disarm(key)

	text := "Your subscription has expired and access to the group was removed.\n" +
		"Use /start to renew."
	if err := s.transport.SendMessage(ctx, userID, text); err != nil {
		zap.L().Warn("expiry notification failed", zap.Int64("userID", userID), zap.Error(err))
	}

	metrics.Revocations.Inc()
	s.events.Publish(ctx, events.AccessRevoked, map[string]any{
		"group_id": groupID,
		"user_id":  userID,
	})
	zap.L().Info("subscription revoked", zap.Int64("groupID", groupID), zap.Int64("userID", userID))
}

func (s *Service) disarm(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, ok := s.timers[key]; ok {
		timer.Stop()
		delete(s.timers, key)
	}
}
