package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndenisov/groupgate/internal/domain"
)

func NewMock(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	store := New(mockDB)
	t.Cleanup(mockDB.Close)

	return store, mockDB
}

func TestStore_Load(t *testing.T) {
	doc := domain.NewDocument()
	doc.ProcessedTxIDs = []string{"tx-1", "tx-2"}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	tests := []struct {
		name      string
		mockSetup func(mock pgxmock.PgxPoolIface)
		expectErr bool
		check     func(t *testing.T, doc *domain.Document)
	}{
		{
			name: "State row exists",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{"doc"}).AddRow(raw)
				mock.ExpectQuery(regexp.QuoteMeta("SELECT doc FROM state WHERE id = $1")).
					WithArgs(1).
					WillReturnRows(rows)
			},
			check: func(t *testing.T, doc *domain.Document) {
				assert.Equal(t, []string{"tx-1", "tx-2"}, doc.ProcessedTxIDs)
				assert.NotNil(t, doc.Orders)
			},
		},
		{
			name: "Query error",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT doc FROM state WHERE id = $1")).
					WithArgs(1).
					WillReturnError(errors.New("connection refused"))
			},
			expectErr: true,
		},
		{
			name: "Corrupt document",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{"doc"}).AddRow([]byte("{broken"))
				mock.ExpectQuery(regexp.QuoteMeta("SELECT doc FROM state WHERE id = $1")).
					WithArgs(1).
					WillReturnRows(rows)
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := NewMock(t)
			tt.mockSetup(mock)

			got, err := store.Load(context.Background())
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				tt.check(t, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_LoadEmpty(t *testing.T) {
	store, mock := NewMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT doc FROM state WHERE id = $1")).
		WithArgs(1).
		WillReturnRows(pgxmock.NewRows([]string{"doc"}))

	doc, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, doc.Orders)
	assert.Empty(t, doc.ProcessedTxIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Save(t *testing.T) {
	store, mock := NewMock(t)
	doc := domain.NewDocument()
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO state (id, doc, updated_at)")).
		WithArgs(1, raw).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, store.Save(context.Background(), doc))
	assert.NoError(t, mock.ExpectationsWereMet())
}
