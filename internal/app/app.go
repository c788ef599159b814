package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/catalog"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/review"
	"github.com/xenking/storefront/internal/httpapi"
	"github.com/xenking/storefront/internal/storage/sqlite"
	"github.com/xenking/storefront/internal/syncbus"
	"github.com/xenking/storefront/pkg/health"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the facade server, and handles
// graceful shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr), zap.String("db", cfg.DBPath))

	// Local record store: the durable keyed storage every piece of core
	// state lives in.
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return errors.Wrap(err, "open record store")
	}
	defer store.Close()

	// Notification bus plus the cross-context watcher that turns writes by
	// other processes sharing the database file into bus events.
	bus := syncbus.New()
	watcher := syncbus.NewWatcher(store, bus, cfg.Sync.PollInterval, lg.Named("watcher"))
	go func() {
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			lg.Warn("watcher stopped", zap.Error(err))
		}
	}()

	// An externally changed cart record means subscribers must re-read; a
	// nil cart payload is the "re-read from storage" signal.
	bus.Subscribe(syncbus.TopicStorageChanged, func(ctx context.Context, ev syncbus.Event) {
		if key, ok := ev.Payload.(string); ok && key == "cart" {
			bus.Publish(ctx, syncbus.TopicCartUpdated, nil)
		}
	})

	// Domain stores.
	carts := cart.NewStore(store, bus, lg.Named("cart"))
	ledger := order.NewLedger(store, carts, lg.Named("order"))
	reviews := review.NewAggregator(store, lg.Named("review"))

	// Catalog collaborator with an instrumented transport.
	catalogClient := catalog.NewClient(catalog.Config{
		BaseURL:      cfg.Catalog.BaseURL,
		Timeout:      cfg.Catalog.Timeout,
		SnapshotPath: cfg.Catalog.SnapshotPath,
	}, otelhttp.NewTransport(http.DefaultTransport,
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	), lg.Named("catalog"))

	// Health probes.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("storage", 2*time.Second, store.Ping)
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.SetReady(true)

	// Facade routes + health endpoints on one server.
	h := httpapi.NewHandler(carts, ledger, reviews, catalogClient, bus)
	mux := h.Routes()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins: cfg.CORS.Origins,
				AllowHeaders: []string{"Content-Type"},
				MaxAge:       cfg.CORS.MaxAge,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
