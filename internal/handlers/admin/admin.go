// Package admin exposes read-only views of the ledger for the operator:
// orders, active subscriptions and payments that matched nothing.
package admin

import (
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ndenisov/groupgate/internal/domain"
	"github.com/ndenisov/groupgate/internal/dto"
	"github.com/ndenisov/groupgate/pkg/utils"
)

type OrderService interface {
	All() []domain.Order
}

type SubService interface {
	All() map[string]domain.Subscription
}

// Ledger is the read side of the state handle, for the unmatched list which
// no service owns.
type Ledger interface {
	View(fn func(doc *domain.Document))
}

type AdminHandler struct {
	orderService OrderService
	subService   SubService
	ledger       Ledger
}

func New(orders OrderService, subs SubService, ledger Ledger) *AdminHandler {
	return &AdminHandler{
		orderService: orders,
		subService:   subs,
		ledger:       ledger,
	}
}

// GetOrders godoc
//
//	@Summary		Get the order ledger
//	@Description	Retrieve every order, newest first
//	@Tags			Admin
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}		dto.GetOrdersResponseDTO
//	@Failure		204	{object}	utils.Response	"No data available"
//	@Failure		401	{object}	utils.Response	"Not authorized"
//	@Router			/api/orders [get]
func (h *AdminHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders := h.orderService.All()
	if len(orders) == 0 {
		utils.RespondWithError(w, http.StatusNoContent, "No data available")
		return
	}

	var response []dto.GetOrdersResponseDTO
	for _, order := range orders {
		item := dto.GetOrdersResponseDTO{
			OrderID:        order.OrderID,
			UserID:         order.UserID,
			Months:         order.Months,
			AmountExpected: order.AmountExpected,
			Status:         order.Status,
			CreatedAt:      order.CreatedAt.Format(time.RFC3339),
			TxID:           order.TxID,
		}
		if order.PaidAt != nil {
			item.PaidAt = order.PaidAt.Format(time.RFC3339)
		}
		response = append(response, item)
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// GetSubscriptions godoc
//
//	@Summary		Get active subscriptions
//	@Description	Retrieve every subscription with its expiry
//	@Tags			Admin
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}		dto.GetSubscriptionsResponseDTO
//	@Failure		204	{object}	utils.Response	"No data available"
//	@Failure		401	{object}	utils.Response	"Not authorized"
//	@Router			/api/subscriptions [get]
func (h *AdminHandler) GetSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs := h.subService.All()
	if len(subs) == 0 {
		utils.RespondWithError(w, http.StatusNoContent, "No data available")
		return
	}

	keys := make([]string, 0, len(subs))
	for key := range subs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var response []dto.GetSubscriptionsResponseDTO
	for _, key := range keys {
		groupID, userID, err := domain.ParseSubKey(key)
		if err != nil {
			zap.L().Warn("skipping malformed subscription key", zap.String("key", key))
			continue
		}
		sub := subs[key]
		response = append(response, dto.GetSubscriptionsResponseDTO{
			GroupID:     groupID,
			UserID:      userID,
			JoinAt:      sub.JoinAt.Format(time.RFC3339),
			ExpiresAt:   sub.ExpiresAt.Format(time.RFC3339),
			LastOrderID: sub.LastOrderID,
		})
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// GetUnmatched godoc
//
//	@Summary		Get unmatched payments
//	@Description	Retrieve feed transactions that matched no pending order
//	@Tags			Admin
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}		dto.GetUnmatchedResponseDTO
//	@Failure		204	{object}	utils.Response	"No data available"
//	@Failure		401	{object}	utils.Response	"Not authorized"
//	@Router			/api/unmatched [get]
func (h *AdminHandler) GetUnmatched(w http.ResponseWriter, r *http.Request) {
	var unmatched []domain.UnmatchedPayment
	h.ledger.View(func(doc *domain.Document) {
		unmatched = append(unmatched, doc.Unmatched...)
	})
	if len(unmatched) == 0 {
		utils.RespondWithError(w, http.StatusNoContent, "No data available")
		return
	}

	var response []dto.GetUnmatchedResponseDTO
	for _, p := range unmatched {
		response = append(response, dto.GetUnmatchedResponseDTO{
			TxID:       p.TxID,
			Amount:     p.Amount,
			Timestamp:  p.Timestamp,
			Note:       p.Note,
			RecordedAt: p.RecordedAt.Format(time.RFC3339),
		})
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}
