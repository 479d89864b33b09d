package dto

type GetOrdersResponseDTO struct {
	OrderID        string `json:"order_id" example:"ORD-1756710000-9F2A"`
	UserID         int64  `json:"user_id" example:"4242424242"`
	Months         int    `json:"months" example:"3"`
	AmountExpected int64  `json:"amount_expected" example:"150999"`
	Status         string `json:"status" example:"PENDING"`
	CreatedAt      string `json:"created_at" example:"2026-09-01T08:00:00Z"`
	PaidAt         string `json:"paid_at,omitempty" example:"2026-09-01T09:30:00Z"`
	TxID           string `json:"tx_id,omitempty" example:"d3adb33f"`
}
