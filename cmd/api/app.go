package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/formbricks/storefront/internal/api/handlers"
	"github.com/formbricks/storefront/internal/api/middleware"
	"github.com/formbricks/storefront/internal/auth"
	"github.com/formbricks/storefront/internal/config"
	"github.com/formbricks/storefront/internal/models"
	"github.com/formbricks/storefront/internal/observability"
	"github.com/formbricks/storefront/internal/openai"
	"github.com/formbricks/storefront/internal/repository"
	"github.com/formbricks/storefront/internal/service"
	"github.com/formbricks/storefront/internal/workers"
	"github.com/formbricks/storefront/pkg/cache"
	"github.com/formbricks/storefront/pkg/embeddings"
)

const (
	riverQueueDepthInterval = 15 * time.Second
	filterOptionsCacheTTL   = 5 * time.Minute

	enqueueMaxRetries     = 3
	enqueueInitialBackoff = 200 * time.Millisecond
	enqueueMaxBackoff     = 2 * time.Second
)

// App holds all server dependencies and coordinates startup and shutdown.
type App struct {
	cfg            *config.Config
	db             *pgxpool.Pool
	server         *http.Server
	river          *river.Client[pgx.Tx]
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	metrics        *observability.Metrics
}

// routeHandlers groups the HTTP handlers registered by newHTTPServer.
// AI is nil when no AI provider key is configured.
type routeHandlers struct {
	health    *handlers.HealthHandler
	products  *handlers.ProductsHandler
	search    *handlers.SearchHandler
	cart      *handlers.CartHandler
	analytics *handlers.AnalyticsHandler
	vendor    *handlers.VendorHandler
	admin     *handlers.AdminHandler
	ai        *handlers.AIHandler
	metrics   http.Handler
}

// setupMetrics creates the meter provider and storefront metrics when metrics are enabled.
// When NewMeterProvider returns nil (unsupported exporter), returns nils (metrics disabled).
func setupMetrics(ctx context.Context, cfg *config.Config) (*sdkmetric.MeterProvider, http.Handler, *observability.Metrics, error) {
	mp, promHandler, err := observability.NewMeterProvider(ctx, cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create meter provider: %w", err)
	}

	if mp == nil {
		return nil, nil, nil, nil
	}

	metrics, err := observability.NewMetrics(mp.Meter(observability.MeterScope))
	if err != nil {
		if err2 := observability.ShutdownMeterProvider(ctx, mp); err2 != nil {
			slog.Error("shutdown meter provider after metrics error", "error", err2)
		}

		return nil, nil, nil, fmt.Errorf("create metrics: %w", err)
	}

	return mp, promHandler, metrics, nil
}

// NewApp builds and wires all components. It does not start the HTTP server or River;
// call Run to start and block until shutdown or failure.
func NewApp(ctx context.Context, cfg *config.Config, db *pgxpool.Pool) (*App, error) {
	var (
		err           error
		meterProvider *sdkmetric.MeterProvider
		promHandler   http.Handler
		metrics       *observability.Metrics
	)

	if cfg.OtelMetricsExporter == "" {
		slog.Warn("metrics not enabled (OTEL_METRICS_EXPORTER empty or unset)")
	} else {
		meterProvider, promHandler, metrics, err = setupMetrics(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	var (
		httpMetrics      observability.HTTPMetrics
		apiMetrics       observability.APIMetrics
		searchMetrics    observability.SearchMetrics
		embeddingMetrics observability.EmbeddingMetrics
		cacheMetrics     observability.CacheMetrics
	)
	if metrics != nil {
		httpMetrics = metrics.HTTP
		apiMetrics = metrics.API
		searchMetrics = metrics.Search
		embeddingMetrics = metrics.Embeddings
		cacheMetrics = metrics.Cache
	}

	var tracerProvider *sdktrace.TracerProvider

	if cfg.OtelTracesExporter == "" {
		slog.Warn("tracing not enabled (OTEL_TRACES_EXPORTER empty or unset)")
	} else {
		tracerProvider, err = observability.NewTracerProvider(ctx, cfg)
		if err != nil {
			if err2 := observability.ShutdownMeterProvider(ctx, meterProvider); err2 != nil {
				slog.Error("shutdown meter provider after tracer provider error", "error", err2)
			}

			return nil, fmt.Errorf("create tracer provider: %w", err)
		}
	}

	// Install TraceContextHandler unconditionally so request_id (and trace_id/span_id when tracing is on) appear in logs.
	slog.SetDefault(slog.New(observability.NewTraceContextHandler(slog.Default().Handler())))

	if tracerProvider != nil {
		otel.SetTracerProvider(tracerProvider)
	}

	if meterProvider != nil {
		otel.SetMeterProvider(meterProvider)
	}

	filterOptionsCache, err := cache.NewLoaderCache[string, *models.FilterOptions](
		cfg.FilterOptionsCacheSize, filterOptionsCacheTTL, func(k string) string { return k },
	)
	if err != nil {
		if err2 := shutdownObservability(ctx, tracerProvider, meterProvider); err2 != nil {
			slog.Error("shutdown observability after cache error", "error", err2)
		}

		return nil, fmt.Errorf("create filter options cache: %w", err)
	}

	productsRepo := repository.NewProductsRepository(db)
	searchRepo := repository.NewSearchRepository(db)
	cartRepo := repository.NewCartRepository(db)
	interactionsRepo := repository.NewInteractionsRepository(db)
	usersRepo := repository.NewUsersRepository(db)

	embeddingClient := embeddings.NewLexicalClient()

	riverWorkers := river.NewWorkers()
	river.AddWorker(riverWorkers, workers.NewProductEmbeddingWorker(productsRepo, embeddingClient, embeddingMetrics))

	riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{
		Queues: map[string]river.QueueConfig{
			service.EmbeddingsQueueName: {MaxWorkers: cfg.EmbeddingMaxConcurrent},
		},
		Workers: riverWorkers,
	})
	if err != nil {
		if err2 := shutdownObservability(ctx, tracerProvider, meterProvider); err2 != nil {
			slog.Error("shutdown observability after River client error", "error", err2)
		}

		return nil, fmt.Errorf("create River client: %w", err)
	}

	inserter := service.NewRetryingInserter(riverClient, service.RetryingInserterConfig{
		MaxRetries:     enqueueMaxRetries,
		InitialBackoff: enqueueInitialBackoff,
		MaxBackoff:     enqueueMaxBackoff,
	})
	enqueuer := service.NewEmbeddingEnqueuer(inserter, service.EmbeddingsQueueName, cfg.EmbeddingMaxAttempts, embeddingMetrics)

	productsService := service.NewProductsService(service.ProductsServiceParams{
		Repo:               productsRepo,
		BlendRepo:          searchRepo,
		EmbeddingClient:    embeddingClient,
		Enqueuer:           enqueuer,
		FilterOptionsCache: filterOptionsCache,
		CacheMetrics:       cacheMetrics,
		Logger:             slog.Default(),
	})

	searchService := service.NewSearchService(service.SearchServiceParams{
		Repo:            searchRepo,
		EmbeddingClient: embeddingClient,
		Settings: service.SearchSettings{
			VectorMaxDistance:     cfg.SearchVectorMaxDistance,
			VectorScoreMultiplier: cfg.SearchVectorScoreMultiplier,
			VectorLimit:           cfg.SearchVectorLimit,
			TextLimit:             cfg.SearchTextLimit,
			FuzzyLimit:            cfg.SearchFuzzyLimit,
			MaxResults:            cfg.SearchMaxResults,
			StrategyTimeout:       cfg.SearchStrategyTimeout,
		},
		Metrics: searchMetrics,
		Logger:  slog.Default(),
	})

	statsService := service.NewStatsService(productsRepo)

	routes := routeHandlers{
		health:    handlers.NewHealthHandler(db),
		products:  handlers.NewProductsHandler(productsService),
		search:    handlers.NewSearchHandler(searchService),
		cart:      handlers.NewCartHandler(service.NewCartService(cartRepo)),
		analytics: handlers.NewAnalyticsHandler(service.NewAnalyticsService(interactionsRepo)),
		vendor:    handlers.NewVendorHandler(productsService, statsService),
		admin:     handlers.NewAdminHandler(service.NewModerationService(productsRepo, productsService), statsService),
		metrics:   promHandler,
	}

	if cfg.AIEnabled() {
		llm := openai.NewClient(openai.Config{
			APIKey:     cfg.AIAPIKey,
			BaseURL:    cfg.AIBaseURL,
			Timeout:    cfg.AIRequestTimeout,
			MaxRetries: cfg.AIMaxRetries,
		})
		keywords := service.NewKeywordService(llm, service.KeywordModels{
			Chat:          cfg.AIChatModel,
			Keyword:       cfg.AIKeywordModel,
			Vision:        cfg.AIVisionModel,
			Transcription: cfg.AITranscriptionModel,
		})
		routes.ai = handlers.NewAIHandler(keywords, cfg.MaxUploadBytes)

		slog.Info("AI search enabled", "base_url", cfg.AIBaseURL, "chat_model", cfg.AIChatModel)
	} else {
		slog.Info("AI search disabled (AI_API_KEY not set)")
	}

	server := newHTTPServer(cfg, routes, auth.NewVerifier(cfg.JWTSecret), usersRepo,
		httpMetrics, apiMetrics, meterProvider, tracerProvider)

	return &App{
		cfg:            cfg,
		db:             db,
		server:         server,
		river:          riverClient,
		meterProvider:  meterProvider,
		tracerProvider: tracerProvider,
		metrics:        metrics,
	}, nil
}

// chain applies middleware so that the first one listed runs first.
func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}

	return h
}

// newHTTPServer builds the HTTP server and mux. Catalog reads and search are public,
// cart/analytics/AI routes need a session token, vendor and admin routes also need the role.
// Handler chain: RequestID -> Metrics -> otelhttp(Logging(MaxBody(mux))).
func newHTTPServer(
	cfg *config.Config,
	h routeHandlers,
	verifier middleware.TokenVerifier,
	roles middleware.RoleResolver,
	httpMetrics observability.HTTPMetrics,
	apiMetrics observability.APIMetrics,
	meterProvider *sdkmetric.MeterProvider,
	tracerProvider *sdktrace.TracerProvider,
) *http.Server {
	authed := middleware.Auth(verifier)
	vendorOnly := middleware.RequireRole(roles, auth.RoleVendor, auth.RoleAdmin)
	adminOnly := middleware.RequireRole(roles, auth.RoleAdmin)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.health.Check)
	mux.HandleFunc("GET /ready", h.health.Ready)

	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}

	mux.HandleFunc("GET /v1/products", h.products.List)
	mux.HandleFunc("GET /v1/products/featured", h.products.Featured)
	mux.HandleFunc("GET /v1/products/trending", h.products.Trending)
	mux.HandleFunc("GET /v1/products/filter-options", h.products.FilterOptions)
	mux.HandleFunc("GET /v1/products/search", h.search.Search)
	mux.HandleFunc("POST /v1/products/vector-search", h.products.VectorSearch)
	mux.HandleFunc("POST /v1/products/smart-filter", h.products.SmartFilter)
	mux.HandleFunc("GET /v1/products/{id}", h.products.Get)
	mux.HandleFunc("GET /v1/products/{id}/recommendations", h.products.Recommendations)

	mux.Handle("GET /v1/cart/count", middleware.OptionalAuth(verifier)(http.HandlerFunc(h.cart.Count)))
	mux.Handle("GET /v1/cart", authed(http.HandlerFunc(h.cart.List)))
	mux.Handle("POST /v1/cart", authed(http.HandlerFunc(h.cart.Add)))
	mux.Handle("PUT /v1/cart", authed(http.HandlerFunc(h.cart.Update)))
	mux.Handle("DELETE /v1/cart/{id}", authed(http.HandlerFunc(h.cart.Remove)))

	mux.Handle("POST /v1/analytics/track", authed(http.HandlerFunc(h.analytics.Track)))
	mux.Handle("GET /v1/analytics/preferences", authed(http.HandlerFunc(h.analytics.Preferences)))

	mux.Handle("GET /v1/vendor/products", chain(http.HandlerFunc(h.vendor.ListProducts), authed, vendorOnly))
	mux.Handle("POST /v1/vendor/products", chain(http.HandlerFunc(h.vendor.CreateProduct), authed, vendorOnly))
	mux.Handle("PATCH /v1/vendor/products/{id}", chain(http.HandlerFunc(h.vendor.UpdateProduct), authed, vendorOnly))
	mux.Handle("GET /v1/vendor/stats", chain(http.HandlerFunc(h.vendor.Stats), authed, vendorOnly))

	mux.Handle("GET /v1/admin/products/pending", chain(http.HandlerFunc(h.admin.ListPending), authed, adminOnly))
	mux.Handle("POST /v1/admin/products/{id}/approve", chain(http.HandlerFunc(h.admin.Approve), authed, adminOnly))
	mux.Handle("POST /v1/admin/products/{id}/reject", chain(http.HandlerFunc(h.admin.Reject), authed, adminOnly))
	mux.Handle("GET /v1/admin/stats", chain(http.HandlerFunc(h.admin.Stats), authed, adminOnly))

	// AI routes are not registered when no provider key is configured.
	if h.ai != nil {
		limited := middleware.RateLimit(middleware.RateLimitConfig{
			PerSecond: cfg.AIRateLimitPerSecond,
			Burst:     cfg.AIRateLimitBurst,
		}, apiMetrics)

		mux.Handle("POST /v1/products/voice-search", chain(http.HandlerFunc(h.ai.VoiceSearch), authed, limited))
		mux.Handle("POST /v1/products/image-search", chain(http.HandlerFunc(h.ai.ImageSearch), authed, limited))
		mux.Handle("POST /v1/chatbot", chain(http.HandlerFunc(h.ai.Chat), authed, limited))
	}

	bodyLimits := middleware.BodyLimits{JSON: cfg.MaxRequestBodyBytes, Upload: cfg.MaxUploadBytes}

	otelOpts := []otelhttp.Option{
		// Skip tracing for probes and scrapes to reduce noise.
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health" && r.URL.Path != "/ready" && r.URL.Path != "/metrics"
		}),
	}
	if meterProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithMeterProvider(meterProvider))
	}

	if tracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(tracerProvider))
	}

	// Logging runs inside otelhttp so r.Context() has the span when we log (trace_id/span_id in access logs).
	inner := middleware.Logging(middleware.MaxBody(bodyLimits, apiMetrics)(mux))
	handler := otelhttp.NewHandler(inner, "storefront-api", otelOpts...)
	handler = middleware.Metrics(httpMetrics)(handler)
	handler = middleware.RequestID(handler)

	const (
		readTimeout  = 15 * time.Second
		writeTimeout = 60 * time.Second
		idleTimeout  = 60 * time.Second
	)

	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
}

// Run starts the HTTP server and River, then blocks until ctx is cancelled (e.g. signal)
// or a component fails. When ctx is cancelled or a component fails, it cancels the internal
// River context so River and the queue depth poller stop before Run returns. Caller should then call Shutdown.
func (a *App) Run(ctx context.Context) error {
	runErr := make(chan error, 1)

	riverCtx, cancelRiver := context.WithCancel(ctx)
	defer cancelRiver()

	if a.metrics != nil && a.metrics.Queue != nil {
		go runRiverQueueDepthPoller(riverCtx, a.db, a.metrics.Queue)
	}

	go func() {
		if err := a.river.Start(riverCtx); err != nil && !errors.Is(err, context.Canceled) {
			select {
			case runErr <- fmt.Errorf("river: %w", err):
			default:
			}
		}
	}()

	go func() {
		slog.Info("Starting server", "port", a.cfg.Port)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case runErr <- fmt.Errorf("server: %w", err):
			default:
			}
		}
	}()

	select {
	case err := <-runErr:
		cancelRiver()

		return err
	case <-ctx.Done():
		cancelRiver()

		return nil
	}
}

// runRiverQueueDepthPoller periodically updates the embeddings queue depth gauge.
func runRiverQueueDepthPoller(ctx context.Context, db *pgxpool.Pool, queueMetrics observability.QueueMetrics) {
	ticker := time.NewTicker(riverQueueDepthInterval)
	defer ticker.Stop()

	update := func() {
		var count int

		err := db.QueryRow(ctx,
			`SELECT COUNT(*) FROM river_job WHERE queue = $1 AND state IN ($2, $3, $4)`,
			service.EmbeddingsQueueName,
			rivertype.JobStateAvailable, rivertype.JobStateRetryable, rivertype.JobStateScheduled,
		).Scan(&count)
		if err != nil {
			slog.WarnContext(ctx, "river queue depth poll failed", "error", err)

			return
		}

		queueMetrics.SetRiverQueueDepth(count)
	}

	update()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			update()
		}
	}
}

// shutdownObservability shuts down tracer and meter providers. Logs secondary errors, returns the first.
func shutdownObservability(ctx context.Context, tracer *sdktrace.TracerProvider, meter *sdkmetric.MeterProvider) error {
	var first error

	if err := observability.ShutdownTracerProvider(ctx, tracer); err != nil {
		first = err
	}

	if err := observability.ShutdownMeterProvider(ctx, meter); err != nil {
		if first == nil {
			first = err
		} else {
			slog.Error("shutdown meter provider", "error", err)
		}
	}

	return first
}

// Shutdown stops the server and River in order. Call after Run returns.
// Observability is shut down once via defer; its error is returned only when server and River shut down successfully.
func (a *App) Shutdown(ctx context.Context) (err error) {
	defer func() {
		obsErr := shutdownObservability(ctx, a.tracerProvider, a.meterProvider)
		if err == nil {
			err = obsErr
		} else if obsErr != nil {
			slog.Error("shutdown observability", "error", obsErr)
		}
	}()

	if err = a.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		if stopErr := a.river.Stop(ctx); stopErr != nil {
			slog.Error("river stop during server shutdown", "error", stopErr)
		}

		return fmt.Errorf("server shutdown: %w", err)
	}

	if err = a.river.Stop(ctx); err != nil {
		return fmt.Errorf("river stop: %w", err)
	}

	return nil
}
