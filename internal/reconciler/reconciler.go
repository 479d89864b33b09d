// Package reconciler drains the transaction feed on a fixed interval and
// matches payments to pending orders. A matched payment yields a single-use
// join-request invite bound to the buyer; everything else is recorded for
// manual reconciliation. Every feed id is consumed at most once.
package reconciler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ndenisov/groupgate/internal/config"
	"github.com/ndenisov/groupgate/internal/domain"
	"github.com/ndenisov/groupgate/internal/events"
	"github.com/ndenisov/groupgate/internal/feed"
	"github.com/ndenisov/groupgate/internal/metrics"
	"github.com/ndenisov/groupgate/internal/service/guardservice"
	"github.com/ndenisov/groupgate/internal/service/orderservice"
	"github.com/ndenisov/groupgate/internal/state"
	"github.com/ndenisov/groupgate/internal/transport"
)

type Service struct {
	source    feed.Source
	orders    *orderservice.Service
	guard     *guardservice.Service
	state     *state.Manager
	transport transport.Transport
	events    events.Publisher

	interval       time.Duration
	window         time.Duration
	inviteTTL      time.Duration
	malformedLimit int
}

func New(cfg *config.Config, source feed.Source, orders *orderservice.Service, guard *guardservice.Service, st *state.Manager, tr transport.Transport, pub events.Publisher) *Service {
	return &Service{
		source:         source,
		orders:         orders,
		guard:          guard,
		state:          st,
		transport:      tr,
		events:         pub,
		interval:       cfg.PollInterval,
		window:         cfg.MatchWindow,
		inviteTTL:      cfg.InviteTTL,
		malformedLimit: cfg.MalformedLimit,
	}
}

func (s *Service) Start(ctx context.Context) {
	zap.L().Info("reconciler started", zap.Duration("interval", s.interval))
	go s.run(ctx)
}

func (s *Service) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("context canceled, stopping reconciler")
			return
		case <-ticker.C:
			s.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch runs one poll cycle. A fetch error counts as an empty batch;
// the next tick retries naturally.
func (s *Service) ProcessBatch(ctx context.Context) {
	txs, err := s.source.Fetch(ctx)
	if err != nil {
		zap.L().Warn("feed fetch failed, skipping cycle", zap.Error(err))
		return
	}

	for _, tx := range txs {
		s.processTransaction(ctx, tx)
	}
}

func (s *Service) processTransaction(ctx context.Context, tx domain.Transaction) {
	if tx.TxID == "" {
		return
	}

	var seen bool
	s.state.View(func(doc *domain.Document) {
		seen = doc.TxProcessed(tx.TxID)
	})
	if seen {
		return
	}

	amount, ts, parseErr := parseRecord(tx)
	if parseErr != nil {
		s.recordMalformed(ctx, tx, parseErr)
		return
	}

	orderID, ok := s.orders.MatchPending(amount, ts, s.window)
	if !ok {
		s.recordUnmatched(ctx, tx)
		return
	}

	order, err := s.orders.MarkPaid(ctx, orderID, tx.TxID)
	if err != nil {
		// The order flipped between match and transition; the payment has no
		// pending order anymore, same as no match.
		zap.L().Warn("matched order no longer pending", zap.String("orderID", orderID), zap.Error(err))
		s.recordUnmatched(ctx, tx)
		return
	}

	if err := s.markProcessed(ctx, tx.TxID); err != nil {
		zap.L().Error("can't mark transaction processed", zap.String("txID", tx.TxID), zap.Error(err))
		return
	}
	metrics.TransactionsProcessed.Inc()
	metrics.PaymentsMatched.Inc()

	token, err := s.transport.CreateInvite(ctx, order.GroupID, s.inviteTTL, true)
	if err != nil {
		// The payment is verified and consumed; without an invite the buyer
		// needs operator help, so this is loud.
		s.events.Publish(ctx, events.InviteFailed, map[string]any{
			"order_id": order.OrderID,
			"user_id":  order.UserID,
			"error":    err.Error(),
		})
		return
	}

	err = s.guard.Create(ctx, token, domain.GuardEntry{
		UserID:  order.UserID,
		GroupID: order.GroupID,
		Months:  order.Months,
		OrderID: order.OrderID,
	})
	if err != nil {
		zap.L().Error("can't save guard entry", zap.String("orderID", order.OrderID), zap.Error(err))
		return
	}
	metrics.InvitesIssued.Inc()

	text := "✅ Payment verified.\nDuration: " + strconv.Itoa(order.Months) + " months\n\n" +
		"Request to join (valid 5 minutes):\n" + token + "\n\n" +
		"Your access starts when the join request is approved."
	if err := s.transport.SendMessage(ctx, order.UserID, text); err != nil {
		zap.L().Warn("buyer notification failed", zap.Int64("userID", order.UserID), zap.Error(err))
	}

	s.events.Publish(ctx, events.PaymentMatched, map[string]any{
		"order_id": order.OrderID,
		"user_id":  order.UserID,
		"amount":   order.AmountExpected,
		"tx_id":    tx.TxID,
	})
}

func parseRecord(tx domain.Transaction) (int64, time.Time, error) {
	amount, err := strconv.ParseInt(strings.TrimSpace(tx.Amount), 10, 64)
	if err != nil {
		return 0, time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339, tx.Timestamp)
	if err != nil {
		return 0, time.Time{}, err
	}
	return amount, ts, nil
}

func (s *Service) markProcessed(ctx context.Context, txID string) error {
	return s.state.Update(ctx, func(doc *domain.Document) error {
		if !doc.TxProcessed(txID) {
			doc.ProcessedTxIDs = append(doc.ProcessedTxIDs, txID)
		}
		delete(doc.Malformed, txID)
		return nil
	})
}

// recordUnmatched consumes the id permanently and keeps the payment visible
// for manual reconciliation; auto-matching gives up on it.
func (s *Service) recordUnmatched(ctx context.Context, tx domain.Transaction) {
	err := s.state.Update(ctx, func(doc *domain.Document) error {
		if doc.TxProcessed(tx.TxID) {
			return nil
		}
		doc.ProcessedTxIDs = append(doc.ProcessedTxIDs, tx.TxID)
		delete(doc.Malformed, tx.TxID)
		doc.Unmatched = append(doc.Unmatched, domain.UnmatchedPayment{
			TxID:       tx.TxID,
			Amount:     tx.Amount,
			Timestamp:  tx.Timestamp,
			Note:       tx.Note,
			RecordedAt: time.Now().UTC(),
		})
		return nil
	})
	if err != nil {
		zap.L().Error("can't record unmatched payment", zap.String("txID", tx.TxID), zap.Error(err))
		return
	}
	metrics.TransactionsProcessed.Inc()
	metrics.PaymentsUnmatched.Inc()

	s.events.Publish(ctx, events.PaymentUnmatched, map[string]any{
		"tx_id":  tx.TxID,
		"amount": tx.Amount,
		"time":   tx.Timestamp,
		"note":   tx.Note,
	})
}

// recordMalformed retries a parse failure on later polls, but only up to the
// quarantine limit: past it the record is consumed so one poison record
// cannot be retried forever.
func (s *Service) recordMalformed(ctx context.Context, tx domain.Transaction, parseErr error) {
	var quarantined bool
	err := s.state.Update(ctx, func(doc *domain.Document) error {
		doc.Malformed[tx.TxID]++
		if doc.Malformed[tx.TxID] >= s.malformedLimit {
			delete(doc.Malformed, tx.TxID)
			doc.ProcessedTxIDs = append(doc.ProcessedTxIDs, tx.TxID)
			doc.Unmatched = append(doc.Unmatched, domain.UnmatchedPayment{
				TxID:       tx.TxID,
				Amount:     tx.Amount,
				Timestamp:  tx.Timestamp,
				Note:       tx.Note,
				RecordedAt: time.Now().UTC(),
			})
			quarantined = true
		}
		return nil
	})
	if err != nil {
		zap.L().Error("can't track malformed record", zap.String("txID", tx.TxID), zap.Error(err))
		return
	}

	if !quarantined {
		zap.L().Warn("malformed transaction record, will retry",
			zap.String("txID", tx.TxID),
			zap.Error(parseErr),
		)
		return
	}

	metrics.TransactionsProcessed.Inc()
	metrics.PaymentsQuarantined.Inc()
	s.events.Publish(ctx, events.PaymentQuarantined, map[string]any{
		"tx_id":  tx.TxID,
		"amount": tx.Amount,
		"time":   tx.Timestamp,
		"error":  parseErr.Error(),
	})
}
