package backoffice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"

	"github.com/cardops/backoffice/internal/authclient"
	"github.com/cardops/backoffice/internal/mask"
	"github.com/cardops/backoffice/internal/middleware"
)

// App bundles the back-office HTTP server, the authority client, the
// workflows and the dashboard refresher, and is responsible for starting and
// stopping them together.
type App struct {
	srv       *http.Server
	refresher *Refresher
	wg        *sync.WaitGroup
	Addr      string
	logger    *slog.Logger
	config    *Config
}

func NewApp(logger *slog.Logger, config *Config) *App {
	logger = logger.With(slog.String("app", "backoffice"))

	if config == nil {
		config = DefaultConfig()
	}

	return &App{
		wg:     &sync.WaitGroup{},
		logger: logger,
		config: config,
	}
}

func (a *App) Start() error {
	a.logger.Info("starting app...")

	if err := a.config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	format, err := mask.NewFormatter(a.config.Locale, a.config.Currency)
	if err != nil {
		return fmt.Errorf("building amount formatter: %w", err)
	}

	client := authclient.New(a.config.AuthorityURL, nil)

	cards := NewCardWorkflow(client, a.logger)
	transactions := NewTransactionWorkflow(client, a.logger)

	a.refresher = NewRefresher(client, client, format, a.logger, a.config.RefreshInterval, a.config.SnapshotSize)
	a.refresher.Start()

	router := chi.NewRouter()
	router.Use(middleware.NewStructuredLogger(a.logger))

	api := NewAPI(cards, transactions, a.refresher)
	api.AppendRoutes(router)

	router.Get("/-/live", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	l, err := net.Listen("tcp", a.config.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening tcp port: %w", err)
	}

	a.Addr = l.Addr().String()

	a.srv = &http.Server{
		Handler: router,
	}

	a.wg.Add(1)
	go func() {
		a.logger.Info("http server started", slog.String("addr", a.Addr))

		if err := a.srv.Serve(l); err != nil && err != http.ErrServerClosed {
			a.logger.Error("http server error", "err", err)
		}

		a.wg.Done()
	}()

	return nil
}

func (a *App) Shutdown() {
	a.logger.Info("shutting down app...")

	if a.refresher != nil {
		a.refresher.Close()
	}

	if a.srv != nil {
		if err := a.srv.Shutdown(context.Background()); err != nil {
			a.logger.Error("http server shutdown", "err", err)
		}
	}

	a.wg.Wait()

	a.logger.Info("app stopped")
}
