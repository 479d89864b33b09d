// Package telegram implements the transport contract over the Telegram Bot
// API. It is deliberately thin: request, envelope check, result decode.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ndenisov/groupgate/internal/transport"
	"github.com/ndenisov/groupgate/pkg/clients"
)

const defaultAPIBase = "https://api.telegram.org"

type Client struct {
	token  string
	base   string
	client clients.HTTPClientI
}

func New(token string, client clients.HTTPClientI) *Client {
	return &Client{
		token:  token,
		base:   defaultAPIBase,
		client: client,
	}
}

// SetBase overrides the API host, for tests.
func (c *Client) SetBase(base string) {
	c.base = base
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	Description string          `json:"description,omitempty"`
}

func (c *Client) call(method string, payload any, result any) error {
	url := fmt.Sprintf("%s/bot%s/%s", c.base, c.token, method)

	status, body, err := c.client.PostJSON(url, payload)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("telegram %s: decode response (status %d): %w", method, status, err)
	}
	if !resp.OK {
		return fmt.Errorf("telegram %s: %s (status %d)", method, resp.Description, status)
	}

	if result != nil {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("telegram %s: decode result: %w", method, err)
		}
	}
	return nil
}

func (c *Client) SendMessage(_ context.Context, chatID int64, text string) error {
	return c.call("sendMessage", map[string]any{
		"chat_id":                  chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}, nil)
}

func toMarkup(keyboard [][]transport.Button) inlineKeyboardMarkup {
	markup := inlineKeyboardMarkup{InlineKeyboard: make([][]inlineKeyboardButton, 0, len(keyboard))}
	for _, row := range keyboard {
		buttons := make([]inlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, inlineKeyboardButton{Text: b.Text, CallbackData: b.Data})
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, buttons)
	}
	return markup
}

func (c *Client) SendKeyboard(_ context.Context, chatID int64, text string, keyboard [][]transport.Button) error {
	return c.call("sendMessage", map[string]any{
		"chat_id":                  chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
		"reply_markup":             toMarkup(keyboard),
	}, nil)
}

func (c *Client) EditMessage(_ context.Context, chatID, messageID int64, text string, keyboard [][]transport.Button) error {
	payload := map[string]any{
		"chat_id":                  chatID,
		"message_id":               messageID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	if keyboard != nil {
		payload["reply_markup"] = toMarkup(keyboard)
	}
	return c.call("editMessageText", payload, nil)
}

func (c *Client) AnswerCallback(_ context.Context, callbackID string) error {
	return c.call("answerCallbackQuery", map[string]any{
		"callback_query_id": callbackID,
	}, nil)
}

func (c *Client) CreateInvite(_ context.Context, groupID int64, ttl time.Duration, approvalRequired bool) (string, error) {
	var link ChatInviteLink
	err := c.call("createChatInviteLink", map[string]any{
		"chat_id":              groupID,
		"expire_date":          time.Now().Add(ttl).Unix(),
		"creates_join_request": approvalRequired,
	}, &link)
	if err != nil {
		return "", err
	}
	return link.InviteLink, nil
}

func (c *Client) RevokeInvite(_ context.Context, groupID int64, token string) error {
	return c.call("revokeChatInviteLink", map[string]any{
		"chat_id":     groupID,
		"invite_link": token,
	}, nil)
}

func (c *Client) ApproveJoinRequest(_ context.Context, groupID, userID int64) error {
	return c.call("approveChatJoinRequest", map[string]any{
		"chat_id": groupID,
		"user_id": userID,
	}, nil)
}

func (c *Client) DeclineJoinRequest(_ context.Context, groupID, userID int64) error {
	return c.call("declineChatJoinRequest", map[string]any{
		"chat_id": groupID,
		"user_id": userID,
	}, nil)
}

// RemoveMember kicks without blocking: ban, then lift the ban so the user
// can be invited again after a future purchase.
func (c *Client) RemoveMember(_ context.Context, groupID, userID int64) error {
	if err := c.call("banChatMember", map[string]any{
		"chat_id": groupID,
		"user_id": userID,
	}, nil); err != nil {
		return err
	}

	if err := c.call("unbanChatMember", map[string]any{
		"chat_id":        groupID,
		"user_id":        userID,
		"only_if_banned": true,
	}, nil); err != nil {
		// The kick happened; a failed unban only means a future invite needs
		// a manual unban first.
		zap.L().Warn("unban after kick failed", zap.Int64("userID", userID), zap.Error(err))
	}
	return nil
}

// GetUpdates long-polls the Bot API. offset must be the last seen update id
// plus one.
func (c *Client) GetUpdates(_ context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	var updates []Update
	err := c.call("getUpdates", map[string]any{
		"offset":          offset,
		"timeout":         int(timeout.Seconds()),
		"allowed_updates": []string{"message", "callback_query", "chat_join_request"},
	}, &updates)
	if err != nil {
		return nil, err
	}
	return updates, nil
}
