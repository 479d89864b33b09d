package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	_ "github.com/ndenisov/groupgate/docs"
	"github.com/ndenisov/groupgate/internal/config"
	"github.com/ndenisov/groupgate/internal/domain"
	"github.com/ndenisov/groupgate/internal/service"
	"github.com/ndenisov/groupgate/internal/state"
	"github.com/ndenisov/groupgate/internal/storage"
	"github.com/ndenisov/groupgate/pkg/auth"
)

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := storage.NewMockStore(ctrl)
	store.EXPECT().Load(gomock.Any()).Return(domain.NewDocument(), nil)
	st, err := state.Load(context.Background(), store)
	require.NoError(t, err)

	h := New(service.New(st, "ORD"), st, &config.Config{JWTSecret: "test-secret"})
	assert.NotNil(t, h, "Handlers should not be nil")
}

func TestInitRoutes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuthHandler := NewMockAuthHandler(ctrl)
	mockAdminHandler := NewMockAdminHandler(ctrl)

	mockAuthHandler.EXPECT().Login(gomock.Any(), gomock.Any()).AnyTimes()
	mockAdminHandler.EXPECT().GetOrders(gomock.Any(), gomock.Any()).AnyTimes()
	mockAdminHandler.EXPECT().GetSubscriptions(gomock.Any(), gomock.Any()).AnyTimes()
	mockAdminHandler.EXPECT().GetUnmatched(gomock.Any(), gomock.Any()).AnyTimes()

	h := &Handlers{
		AuthHandler:  mockAuthHandler,
		AdminHandler: mockAdminHandler,
		JWTService:   auth.NewJWTService("test-secret"),
	}

	router := chi.NewRouter()
	h.InitRoutes(router)

	tests := []struct {
		method string
		url    string
		status int
	}{
		{"GET", "/health", http.StatusOK},
		{"GET", "/metrics", http.StatusOK},
		{"POST", "/api/login", http.StatusOK},
		{"GET", "/api/orders", http.StatusUnauthorized},
		{"GET", "/api/subscriptions", http.StatusUnauthorized},
		{"GET", "/api/unmatched", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.url, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.url, nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
