package orderservice

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ndenisov/groupgate/internal/domain"
	"github.com/ndenisov/groupgate/internal/state"
)

const maxAmountOffset = 999

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrOrderNotPending = errors.New("order is not pending")
)

// Service is the append-only order ledger. Orders are created on checkout,
// transition PENDING -> PAID_WAITING_JOIN exactly once on a matched payment,
// and are never deleted.
type Service struct {
	state  *state.Manager
	prefix string
}

func New(st *state.Manager, prefix string) *Service {
	return &Service{state: st, prefix: prefix}
}

func newOrderID(prefix string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return fmt.Sprintf("%s-%d-%s", prefix, now.Unix(), suffix)
}

// Create opens an order at months*price plus a random offset in [1, 999].
// The offset makes the expected amount unique enough to serve as the sole
// correlation key against the payment feed. Checkout is final: there is no
// cancellation path, an unmatched order just stays PENDING.
func (s *Service) Create(ctx context.Context, userID, groupID int64, months int, pricePerMonth int64) (*domain.Order, error) {
	now := time.Now().UTC()
	order := domain.Order{
		OrderID:        newOrderID(s.prefix, now),
		UserID:         userID,
		GroupID:        groupID,
		Months:         months,
		AmountExpected: int64(months)*pricePerMonth + int64(rand.Intn(maxAmountOffset)+1),
		Status:         domain.PendingOrderStatus,
		CreatedAt:      now,
	}

	err := s.state.Update(ctx, func(doc *domain.Document) error {
		doc.Orders[order.OrderID] = order
		return nil
	})
	if err != nil {
		zap.L().Error("can't save order", zap.Error(err))
		return nil, err
	}

	zap.L().Info("order created",
		zap.String("orderID", order.OrderID),
		zap.Int64("userID", userID),
		zap.Int64("amountExpected", order.AmountExpected),
	)
	return &order, nil
}

// MatchPending finds the pending order a payment belongs to: the amount must
// be exact and the payment timestamp within window of the order's creation.
// When several pending orders share the amount, the earliest created wins.
func (s *Service) MatchPending(amount int64, ts time.Time, window time.Duration) (string, bool) {
	var candidates []domain.Order
	s.state.View(func(doc *domain.Document) {
		for _, o := range doc.Orders {
			if o.Status != domain.PendingOrderStatus {
				continue
			}
			if o.AmountExpected != amount {
				continue
			}
			diff := ts.Sub(o.CreatedAt)
			if diff < 0 {
				diff = -diff
			}
			if diff <= window {
				candidates = append(candidates, o)
			}
		}
	})
	if len(candidates) == 0 {
		return "", false
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	return candidates[0].OrderID, true
}

// MarkPaid transitions an order to PAID_WAITING_JOIN. It re-checks the
// status under the lock so a stale match (e.g. the same amount fetched twice
// in one batch) cannot transition an order a second time.
func (s *Service) MarkPaid(ctx context.Context, orderID, txID string) (*domain.Order, error) {
	var updated domain.Order
	err := s.state.Update(ctx, func(doc *domain.Document) error {
		o, ok := doc.Orders[orderID]
		if !ok {
			return ErrOrderNotFound
		}
		if o.Status != domain.PendingOrderStatus {
			return ErrOrderNotPending
		}
		now := time.Now().UTC()
		o.Status = domain.PaidWaitingJoinStatus
		o.PaidAt = &now
		o.TxID = txID
		doc.Orders[orderID] = o
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Service) Get(orderID string) (domain.Order, bool) {
	var (
		order domain.Order
		ok    bool
	)
	s.state.View(func(doc *domain.Document) {
		order, ok = doc.Orders[orderID]
	})
	return order, ok
}

// All returns every order, newest first. Used by the admin API.
func (s *Service) All() []domain.Order {
	var orders []domain.Order
	s.state.View(func(doc *domain.Document) {
		for _, o := range doc.Orders {
			orders = append(orders, o)
		}
	})
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}
