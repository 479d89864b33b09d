// Package transport is the opaque notification and access-control API the
// core talks to. Every method can fail with a plain error; callers treat
// those as recoverable and log them, the ledger is committed before any
// transport call.
package transport

import (
	"context"
	"time"
)

// Button is one inline keyboard button; Data comes back in the callback.
type Button struct {
	Text string
	Data string
}

//go:generate mockgen -source=transport.go -destination=transport_mock.go -package=transport
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendKeyboard(ctx context.Context, chatID int64, text string, keyboard [][]Button) error
	EditMessage(ctx context.Context, chatID, messageID int64, text string, keyboard [][]Button) error
	AnswerCallback(ctx context.Context, callbackID string) error

	// CreateInvite returns a single-use invite token (link). With
	// approvalRequired the join produces a join request instead of a direct
	// join, which is the hook the access guard validates on.
	CreateInvite(ctx context.Context, groupID int64, ttl time.Duration, approvalRequired bool) (string, error)
	RevokeInvite(ctx context.Context, groupID int64, token string) error
	ApproveJoinRequest(ctx context.Context, groupID, userID int64) error
	DeclineJoinRequest(ctx context.Context, groupID, userID int64) error

	// RemoveMember forces the user out without a permanent block (ban then
	// unban).
	RemoveMember(ctx context.Context, groupID, userID int64) error
}
