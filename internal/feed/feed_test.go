package feed

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/ndenisov/groupgate/pkg/clients"
)

func NewMock(t *testing.T) (*Client, *clients.MockHTTPClientI) {
	ctrl := gomock.NewController(t)
	httpClient := clients.NewMockHTTPClientI(ctrl)
	return New("https://feed.example.com/mutasi", "secret", httpClient), httpClient
}

func TestFetch(t *testing.T) {
	tests := []struct {
		name        string
		statusCode  int
		body        []byte
		clientErr   error
		expectErr   bool
		expectCount int
	}{
		{
			name:        "Bare array body",
			statusCode:  200,
			body:        []byte(`[{"tx_id":"tx-1","amount":"150999","ts_iso":"2026-09-01T10:00:00Z"}]`),
			expectCount: 1,
		},
		{
			name:        "Wrapped transactions body",
			statusCode:  200,
			body:        []byte(`{"transactions":[{"tx_id":"tx-1","amount":"150999","ts_iso":"2026-09-01T10:00:00Z"},{"tx_id":"tx-2","amount":"99","ts_iso":"2026-09-01T11:00:00Z"}]}`),
			expectCount: 2,
		},
		{
			name:       "HTTP error",
			clientErr:  errors.New("connection refused"),
			expectErr:  true,
		},
		{
			name:       "Unexpected status",
			statusCode: 503,
			body:       []byte(`service unavailable`),
			expectErr:  true,
		},
		{
			name:       "Garbage body",
			statusCode: 200,
			body:       []byte(`not json`),
			expectErr:  true,
		},
		{
			name:        "Empty array",
			statusCode:  200,
			body:        []byte(`[]`),
			expectCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, httpClient := NewMock(t)
			httpClient.EXPECT().
				Get("https://feed.example.com/mutasi", gomock.Any()).
				DoAndReturn(func(_ string, headers http.Header) (int, []byte, http.Header, error) {
					assert.Equal(t, "Bearer secret", headers.Get("Authorization"))
					return tt.statusCode, tt.body, nil, tt.clientErr
				})

			txs, err := client.Fetch(context.Background())
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, txs, tt.expectCount)
		})
	}
}

func TestFetchNumericAmounts(t *testing.T) {
	// The bank feed serves amounts as JSON numbers; recorded batches may mix
	// them with strings.
	client, httpClient := NewMock(t)
	httpClient.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(200, []byte(`[
			{"tx_id":"tx-1","amount":150999,"ts_iso":"2026-09-01T10:00:00Z"},
			{"tx_id":"tx-2","amount":"150000","ts_iso":"2026-09-01T11:00:00Z"}
		]`), nil, nil)

	txs, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "150999", txs[0].Amount)
	assert.Equal(t, "150000", txs[1].Amount)
}

func TestFetchBadAmountTypeStaysPerRecord(t *testing.T) {
	// A record with a non-scalar amount must not take the rest of the batch
	// down with it; it surfaces with its raw text and fails validation alone.
	client, httpClient := NewMock(t)
	httpClient.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(200, []byte(`[
			{"tx_id":"tx-1","amount":{},"ts_iso":"2026-09-01T10:00:00Z"},
			{"tx_id":"tx-2","amount":150999,"ts_iso":"2026-09-01T11:00:00Z"}
		]`), nil, nil)

	txs, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "{}", txs[0].Amount)
	assert.Equal(t, "150999", txs[1].Amount)
}

func TestFetchNoURLConfigured(t *testing.T) {
	ctrl := gomock.NewController(t)
	httpClient := clients.NewMockHTTPClientI(ctrl)

	client := New("", "", httpClient)
	txs, err := client.Fetch(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, txs)
}
