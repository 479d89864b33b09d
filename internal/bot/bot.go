// Package bot is the Telegram front end: a long-poll dispatcher for
// commands, the purchase menu callbacks, and the join-request handshake.
package bot

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ndenisov/groupgate/internal/config"
	"github.com/ndenisov/groupgate/internal/domain"
	"github.com/ndenisov/groupgate/internal/events"
	"github.com/ndenisov/groupgate/internal/metrics"
	"github.com/ndenisov/groupgate/internal/service"
	"github.com/ndenisov/groupgate/internal/transport"
	"github.com/ndenisov/groupgate/internal/transport/telegram"
)

const pollTimeout = 25 * time.Second

// UpdateSource is the long-poll side of the Bot API, split from the outbound
// transport so the dispatcher can be tested without HTTP.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, error)
}

// Armer schedules a revocation check after a grant.
type Armer interface {
	Arm(key string, expiresAt time.Time)
}

type Service struct {
	source    UpdateSource
	transport transport.Transport
	services  *service.Services
	scheduler Armer
	events    events.Publisher

	groupID        int64
	productName    string
	pricePerMonth  int64
	paymentDetails string
}

func New(cfg *config.Config, source UpdateSource, tr transport.Transport, svc *service.Services, sched Armer, pub events.Publisher) *Service {
	return &Service{
		source:         source,
		transport:      tr,
		services:       svc,
		scheduler:      sched,
		events:         pub,
		groupID:        cfg.GroupID,
		productName:    cfg.ProductName,
		pricePerMonth:  cfg.PricePerMonth,
		paymentDetails: cfg.PaymentDetails,
	}
}

// Run long-polls updates until the context is cancelled. Update handling is
// best effort: a failed handler is logged and the offset advances anyway, a
// dead update must not wedge the loop.
func (b *Service) Run(ctx context.Context) error {
	var offset int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		updates, err := b.source.GetUpdates(ctx, offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			zap.L().Warn("getUpdates failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			b.Dispatch(ctx, update)
		}
	}
}

func (b *Service) Dispatch(ctx context.Context, update telegram.Update) {
	switch {
	case update.ChatJoinRequest != nil:
		b.handleJoinRequest(ctx, update.ChatJoinRequest)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Service) handleMessage(ctx context.Context, msg *telegram.Message) {
	switch {
	case strings.HasPrefix(msg.Text, "/start"):
		b.sendMenu(ctx, msg.Chat.ID, msg.From.ID)
	case strings.HasPrefix(msg.Text, "/info"):
		b.sendInfo(ctx, msg.Chat.ID)
	case strings.HasPrefix(msg.Text, "/status"):
		b.sendStatus(ctx, msg.Chat.ID, msg.From.ID)
	}
}

func (b *Service) sendMenu(ctx context.Context, chatID, userID int64) {
	cart, err := b.services.CartService.Get(ctx, userID)
	if err != nil {
		zap.L().Error("can't read cart", zap.Int64("userID", userID), zap.Error(err))
		return
	}
	text := "Welcome!\n\n" + b.cartText(cart)
	if err := b.transport.SendKeyboard(ctx, chatID, text, menuKeyboard()); err != nil {
		zap.L().Warn("can't send menu", zap.Int64("chatID", chatID), zap.Error(err))
	}
}

func (b *Service) sendInfo(ctx context.Context, chatID int64) {
	text := fmt.Sprintf("%s\n\nSubscription: %s per month.\nPayment details: %s\n\n"+
		"Use /start to pick a duration and /status to see your access.",
		b.productName, formatAmount(b.pricePerMonth), b.paymentDetails)
	if err := b.transport.SendMessage(ctx, chatID, text); err != nil {
		zap.L().Warn("can't send info", zap.Int64("chatID", chatID), zap.Error(err))
	}
}

func (b *Service) sendStatus(ctx context.Context, chatID, userID int64) {
	subs := b.services.SubService.ForUser(userID)
	if len(subs) == 0 {
		if err := b.transport.SendMessage(ctx, chatID, "You have no active subscriptions. Use /start to buy one."); err != nil {
			zap.L().Warn("can't send status", zap.Int64("chatID", chatID), zap.Error(err))
		}
		return
	}

	groupIDs := make([]int64, 0, len(subs))
	for groupID := range subs {
		groupIDs = append(groupIDs, groupID)
	}
	sort.Slice(groupIDs, func(i, j int) bool { return groupIDs[i] < groupIDs[j] })

	var sb strings.Builder
	sb.WriteString("Your subscriptions:\n")
	for _, groupID := range groupIDs {
		fmt.Fprintf(&sb, "\n%s: until %s", b.productName, subs[groupID].ExpiresAt.Format("02.01.2006 15:04 MST"))
	}
	if err := b.transport.SendMessage(ctx, chatID, sb.String()); err != nil {
		zap.L().Warn("can't send status", zap.Int64("chatID", chatID), zap.Error(err))
	}
}

func (b *Service) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	if err := b.transport.AnswerCallback(ctx, cb.ID); err != nil {
		zap.L().Warn("can't answer callback", zap.String("callbackID", cb.ID), zap.Error(err))
	}
	if cb.Message == nil {
		return
	}
	chatID, messageID := cb.Message.Chat.ID, cb.Message.MessageID

	switch {
	case cb.Data == "noop":
		return
	case strings.HasPrefix(cb.Data, "month:"):
		delta, err := strconv.Atoi(strings.TrimPrefix(cb.Data, "month:"))
		if err != nil {
			zap.L().Warn("bad callback data", zap.String("data", cb.Data))
			return
		}
		cart, err := b.services.CartService.Adjust(ctx, cb.From.ID, delta)
		if err != nil {
			zap.L().Error("can't adjust cart", zap.Int64("userID", cb.From.ID), zap.Error(err))
			return
		}
		if err := b.transport.EditMessage(ctx, chatID, messageID, "Welcome!\n\n"+b.cartText(cart), menuKeyboard()); err != nil {
			zap.L().Warn("can't edit menu", zap.Int64("chatID", chatID), zap.Error(err))
		}
	case cb.Data == "cancel":
		if err := b.services.CartService.Clear(ctx, cb.From.ID); err != nil {
			zap.L().Error("can't clear cart", zap.Int64("userID", cb.From.ID), zap.Error(err))
			return
		}
		if err := b.transport.EditMessage(ctx, chatID, messageID, "Cancelled. Use /start whenever you are ready.", nil); err != nil {
			zap.L().Warn("can't edit menu", zap.Int64("chatID", chatID), zap.Error(err))
		}
	case cb.Data == "continue":
		b.checkout(ctx, chatID, messageID, cb.From.ID)
	}
}

// checkout turns the cart into a pending order and tells the buyer the exact
// amount to transfer. The random offset baked into the amount is what the
// reconciler matches on, so the message stresses "to the kopeck".
func (b *Service) checkout(ctx context.Context, chatID, messageID, userID int64) {
	cart, err := b.services.CartService.Get(ctx, userID)
	if err != nil {
		zap.L().Error("can't read cart", zap.Int64("userID", userID), zap.Error(err))
		return
	}
	order, err := b.services.OrderService.Create(ctx, userID, b.groupID, cart.Months, b.pricePerMonth)
	if err != nil {
		zap.L().Error("can't create order", zap.Int64("userID", userID), zap.Error(err))
		return
	}
	if err := b.services.CartService.Clear(ctx, userID); err != nil {
		zap.L().Warn("can't clear cart", zap.Int64("userID", userID), zap.Error(err))
	}

	text := fmt.Sprintf("Order %s\n%s, %d %s\n\n"+
		"Transfer exactly %s to:\n%s\n\n"+
		"The amount must match to the kopeck, it is how your payment is recognized. "+
		"Once the transfer arrives you will get a personal invite link here.",
		order.OrderID, b.productName, order.Months, plural(order.Months),
		formatAmount(order.AmountExpected), b.paymentDetails)
	if err := b.transport.EditMessage(ctx, chatID, messageID, text, nil); err != nil {
		zap.L().Warn("can't send checkout", zap.Int64("chatID", chatID), zap.Error(err))
	}
}

// handleJoinRequest is the guard handshake: the invite token from the join
// request must have a guard entry bound to exactly this (user, group) pair.
// Anything else is declined without explanation.
func (b *Service) handleJoinRequest(ctx context.Context, req *telegram.ChatJoinRequest) {
	userID, groupID := req.From.ID, req.Chat.ID
	var token string
	if req.InviteLink != nil {
		token = req.InviteLink.InviteLink
	}

	if !b.services.GuardService.Check(token, userID, groupID) {
		if err := b.transport.DeclineJoinRequest(ctx, groupID, userID); err != nil {
			zap.L().Warn("can't decline join request", zap.Int64("userID", userID), zap.Error(err))
		}
		metrics.JoinsDeclined.Inc()
		return
	}

	// Approve before consuming the entry: a transient approve failure must
	// leave the token redeemable within the invite TTL.
	if err := b.transport.ApproveJoinRequest(ctx, groupID, userID); err != nil {
		zap.L().Error("can't approve join request", zap.Int64("userID", userID), zap.Error(err))
		return
	}
	entry, err := b.services.GuardService.Consume(ctx, token, userID, groupID)
	if err != nil {
		zap.L().Error("guard entry vanished after approve", zap.Int64("userID", userID), zap.Error(err))
		return
	}
	if err := b.transport.RevokeInvite(ctx, groupID, token); err != nil {
		zap.L().Warn("can't revoke invite", zap.String("token", token), zap.Error(err))
	}

	sub, err := b.services.SubService.Grant(ctx, groupID, userID, entry.Months, entry.OrderID)
	if err != nil {
		zap.L().Error("can't grant subscription", zap.Int64("userID", userID), zap.Error(err))
		return
	}
	b.scheduler.Arm(domain.SubKey(groupID, userID), sub.ExpiresAt)

	metrics.JoinsApproved.Inc()
	b.events.Publish(ctx, events.AccessGranted, map[string]any{
		"user_id":    userID,
		"group_id":   groupID,
		"order_id":   entry.OrderID,
		"months":     entry.Months,
		"expires_at": sub.ExpiresAt.Format(time.RFC3339),
	})

	text := fmt.Sprintf("Welcome! Your access is active until %s.", sub.ExpiresAt.Format("02.01.2006 15:04 MST"))
	if err := b.transport.SendMessage(ctx, userID, text); err != nil {
		zap.L().Warn("can't send welcome", zap.Int64("userID", userID), zap.Error(err))
	}
}

func (b *Service) cartText(cart domain.Cart) string {
	total := int64(cart.Months) * b.pricePerMonth
	return fmt.Sprintf("%s\n\nDuration: %d %s\nTotal: %s",
		b.productName, cart.Months, plural(cart.Months), formatAmount(total))
}

func menuKeyboard() [][]transport.Button {
	return [][]transport.Button{
		{{Text: "Duration", Data: "noop"}},
		{{Text: "-1 month", Data: "month:-1"}, {Text: "+1 month", Data: "month:1"}},
		{{Text: "Cancel", Data: "cancel"}, {Text: "Continue", Data: "continue"}},
	}
}

func plural(months int) string {
	if months == 1 {
		return "month"
	}
	return "months"
}

// formatAmount renders minor units as a decimal string, e.g. 150999 -> "1509.99".
func formatAmount(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}
