package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/ndenisov/groupgate/docs"
	"github.com/ndenisov/groupgate/internal/config"
	adminhandlers "github.com/ndenisov/groupgate/internal/handlers/admin"
	authhandlers "github.com/ndenisov/groupgate/internal/handlers/auth"
	"github.com/ndenisov/groupgate/internal/service"
	"github.com/ndenisov/groupgate/internal/state"
	"github.com/ndenisov/groupgate/pkg/auth"
)

type AuthHandler interface {
	Login(w http.ResponseWriter, r *http.Request)
}

type AdminHandler interface {
	GetOrders(w http.ResponseWriter, r *http.Request)
	GetSubscriptions(w http.ResponseWriter, r *http.Request)
	GetUnmatched(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	AuthHandler  AuthHandler
	AdminHandler AdminHandler
	JWTService   auth.JWTServiceInterface
}

func New(s *service.Services, st *state.Manager, cfg *config.Config) *Handlers {
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	return &Handlers{
		AuthHandler:  authhandlers.New(cfg.AdminPasswordHash, jwtService),
		AdminHandler: adminhandlers.New(s.OrderService, s.SubService, st),
		JWTService:   jwtService,
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Route("/api", func(r chi.Router) {
		r.Post("/login", h.AuthHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware(h.JWTService))
			r.Get("/orders", h.AdminHandler.GetOrders)
			r.Get("/subscriptions", h.AdminHandler.GetSubscriptions)
			r.Get("/unmatched", h.AdminHandler.GetUnmatched)
		})
	})

	return r
}
