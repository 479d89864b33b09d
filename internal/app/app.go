package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ndenisov/groupgate/internal/bot"
	"github.com/ndenisov/groupgate/internal/config"
	"github.com/ndenisov/groupgate/internal/events"
	"github.com/ndenisov/groupgate/internal/feed"
	"github.com/ndenisov/groupgate/internal/handlers"
	"github.com/ndenisov/groupgate/internal/pg"
	"github.com/ndenisov/groupgate/internal/reconciler"
	"github.com/ndenisov/groupgate/internal/scheduler"
	"github.com/ndenisov/groupgate/internal/service"
	"github.com/ndenisov/groupgate/internal/state"
	"github.com/ndenisov/groupgate/internal/storage"
	"github.com/ndenisov/groupgate/internal/storage/filestore"
	"github.com/ndenisov/groupgate/internal/storage/pgstore"
	"github.com/ndenisov/groupgate/internal/transport/telegram"
	"github.com/ndenisov/groupgate/pkg/clients"
	"github.com/ndenisov/groupgate/pkg/logger"
)

type ApplicationI interface {
	Start(ctx context.Context) error
	Wait(ctx context.Context, cancel context.CancelFunc) error
}

type Application struct {
	cfg *config.Config
	api *handlers.Handlers
	srv *service.Services
	st  *state.Manager

	reconciler *reconciler.Service
	scheduler  *scheduler.Service
	bot        *bot.Service

	errCh chan error
	wg    sync.WaitGroup
	ready bool
}

func New() *Application {
	return &Application{
		errCh: make(chan error),
	}
}

func (a *Application) Start(ctx context.Context) error {
	cfg := config.New()

	err := logger.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("can't init logger: %w", err)
	}

	store, err := getStore(ctx, cfg)
	if err != nil {
		zap.L().Error("build state store failed: ", zap.Error(err))
		return fmt.Errorf("can't build state store: %w", err)
	}

	st, err := state.Load(ctx, store)
	if err != nil {
		zap.L().Error("load state failed: ", zap.Error(err))
		return fmt.Errorf("can't load state: %w", err)
	}

	tg := telegram.New(cfg.BotToken, clients.NewHTTPClient())
	pub := events.New(cfg.KafkaBrokers, cfg.KafkaTopic, tg, cfg.AdminChatIDs)
	source := feed.New(cfg.FeedAddress, cfg.FeedToken, clients.NewHTTPClient())

	a.cfg = cfg
	a.st = st
	a.srv = service.New(st, cfg.OrderPrefix)
	a.api = handlers.New(a.srv, st, cfg)
	a.reconciler = reconciler.New(cfg, source, a.srv.OrderService, a.srv.GuardService, st, tg, pub)
	a.scheduler = scheduler.New(cfg, a.srv.SubService, tg, pub)
	a.bot = bot.New(cfg, tg, tg, a.srv, a.scheduler, pub)

	if err = a.startHTTPServer(ctx); err != nil {
		return fmt.Errorf("can't start http server: %w", err)
	}
	a.startWorkers(ctx)

	a.ready = true
	zap.L().Info("all systems started successfully")
	return nil
}

// getStore picks the persistence backend: Postgres when a DSN is configured,
// the JSON file otherwise.
func getStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.Database == "" {
		zap.L().Info("using file state store", zap.String("path", cfg.StatePath))
		return filestore.New(cfg.StatePath), nil
	}

	pool, err := getPgxpool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pg.RunMigrations(pool); err != nil {
		return nil, err
	}
	zap.L().Info("using postgres state store")
	return pgstore.New(pool), nil
}

func getPgxpool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	cfgpool, err := pgxpool.ParseConfig(cfg.Database)
	if err != nil {
		return nil, err
	}
	dbpool, err := pgxpool.NewWithConfig(ctx, cfgpool)
	if err != nil {
		return nil, err
	}
	if err = dbpool.Ping(ctx); err != nil {
		return nil, err
	}
	return dbpool, nil
}

func (a *Application) startHTTPServer(ctx context.Context) error {
	router := chi.NewRouter()
	a.api.InitRoutes(router)
	server := http.Server{
		Addr:    a.cfg.Address,
		Handler: router,
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()

		sCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(sCtx)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		zap.L().Info("starting http server on port", zap.String("port", a.cfg.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.errCh <- fmt.Errorf("http server exited with error: %w", err)
		}
	}()

	return nil
}

func (a *Application) startWorkers(ctx context.Context) {
	a.reconciler.Start(ctx)
	a.scheduler.Start(ctx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.errCh <- fmt.Errorf("bot loop exited with error: %w", err)
		}
	}()
}

func (a *Application) Wait(ctx context.Context, cancel context.CancelFunc) error {
	var appErr error

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		for err := range a.errCh {
			cancel()
			zap.L().Error(err.Error())
			appErr = err
		}
	}()

	<-ctx.Done()
	a.wg.Wait()
	close(a.errCh)
	wg.Wait()

	return appErr
}
