package dto

type GetSubscriptionsResponseDTO struct {
	GroupID     int64  `json:"group_id" example:"-1001234567890"`
	UserID      int64  `json:"user_id" example:"4242424242"`
	JoinAt      string `json:"join_at" example:"2026-09-01T09:31:00Z"`
	ExpiresAt   string `json:"expires_at" example:"2026-12-01T09:31:00Z"`
	LastOrderID string `json:"last_order_id" example:"ORD-1756710000-9F2A"`
}

type GetUnmatchedResponseDTO struct {
	TxID       string `json:"tx_id" example:"d3adb33f"`
	Amount     string `json:"amount" example:"150000"`
	Timestamp  string `json:"ts_iso" example:"2026-09-01T09:30:00Z"`
	Note       string `json:"note,omitempty" example:"transfer"`
	RecordedAt string `json:"recorded_at" example:"2026-09-01T09:30:30Z"`
}
