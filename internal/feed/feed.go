// Package feed pulls payment records from the bank mutation endpoint. The
// reconciler treats any fetch failure as "no new data this cycle".
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ndenisov/groupgate/internal/domain"
	"github.com/ndenisov/groupgate/pkg/clients"
)

//go:generate mockgen -source=feed.go -destination=feed_mock.go -package=feed
type Source interface {
	Fetch(ctx context.Context) ([]domain.Transaction, error)
}

type Client struct {
	url    string
	token  string
	client clients.HTTPClientI
}

func New(url, token string, client clients.HTTPClientI) *Client {
	return &Client{url: url, token: token, client: client}
}

// Fetch returns the current batch of transactions. The feed serves either a
// bare array or an object with a "transactions" field; both are accepted.
func (c *Client) Fetch(_ context.Context) ([]domain.Transaction, error) {
	if c.url == "" {
		return nil, nil
	}

	headers := http.Header{}
	if c.token != "" {
		headers.Set("Authorization", "Bearer "+c.token)
	}

	status, body, _, err := c.client.Get(c.url, headers)
	if err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("fetch transactions: unexpected status %d", status)
	}

	var txs []domain.Transaction
	if err := json.Unmarshal(body, &txs); err == nil {
		return txs, nil
	}

	var wrapped struct {
		Transactions []domain.Transaction `json:"transactions"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("fetch transactions: decode body: %w", err)
	}
	return wrapped.Transactions, nil
}
