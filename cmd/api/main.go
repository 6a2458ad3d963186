package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/backoffice/internal/audit"
	"github.com/noah-isme/backoffice/internal/auth"
	"github.com/noah-isme/backoffice/internal/catalog"
	"github.com/noah-isme/backoffice/internal/common"
	"github.com/noah-isme/backoffice/internal/config"
	"github.com/noah-isme/backoffice/internal/customer"
	"github.com/noah-isme/backoffice/internal/db"
	"github.com/noah-isme/backoffice/internal/health"
	"github.com/noah-isme/backoffice/internal/ledger"
	"github.com/noah-isme/backoffice/internal/obs"
	"github.com/noah-isme/backoffice/internal/order"
	"github.com/noah-isme/backoffice/internal/ratelimit"
	"github.com/noah-isme/backoffice/internal/report"
	"github.com/noah-isme/backoffice/internal/security"
	"github.com/noah-isme/backoffice/internal/store"
	"github.com/noah-isme/backoffice/internal/user"
)

const serviceName = "backoffice-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(envOrDefault("OBS_LOG_FORMAT", "json"), envOrDefault("OBS_LOG_LEVEL", "info")).
		With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", obs.DefaultNamespace)
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", false)
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:    serviceName,
			ServiceVersion: envOrDefault("APP_VERSION", ""),
			Endpoint:       envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:       envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio:  envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0),
			Environment:    cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	if cfg.AutoMigrate {
		if err := db.MigrateUp(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("apply migrations")
		}
		logger.Info().Msg("migrations applied")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL, serviceName)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	queries := store.New(pool)

	redisClient := connectRedis(ctx, cfg, metricsEnabled, logger)
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
	}

	userService := user.NewService(user.ServiceConfig{Queries: queries})
	created, err := userService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword, cfg.AdminName)
	if err != nil {
		logger.Fatal().Err(err).Msg("bootstrap admin user")
	}
	if created {
		logger.Info().Str("username", cfg.AdminUsername).Msg("admin user created")
	}

	var revoker auth.Revoker
	if redisClient != nil {
		revoker = auth.RedisRevoker{Client: redisClient}
	}
	authService, err := auth.NewService(auth.Config{
		Queries:        queries,
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
		Revoker:        revoker,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authHandler := auth.NewHandler(auth.HandlerConfig{
		Service:          authService,
		AccessCookieName: cfg.AccessCookieName,
		CookieDomain:     cfg.CookieDomain,
		CookieSecure:     cfg.CookieSecure,
		CookieSameSite:   cfg.CookieSameSite,
	})
	authMiddleware := auth.Middleware{Service: authService, AccessCookie: cfg.AccessCookieName}

	loginLimiter, err := ratelimit.NewLimiter(cfg.LoginRateLimit, redisClient)
	if err != nil {
		logger.Fatal().Err(err).Str("rate", cfg.LoginRateLimit).Msg("initialise login rate limit")
	}
	loginRate := ratelimit.Handler{
		Limiter: loginLimiter,
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limit store") },
	}

	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Queries: queries,
		Cache:   catalog.NewCache(redisClient, 5*time.Minute),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: catalogService})

	customerHandler := customer.NewHandler(customer.NewService(queries))
	ledgerHandler := ledger.NewHandler(ledger.NewService(ledger.ServiceConfig{Queries: queries}))

	orderService := order.NewService(order.ServiceConfig{
		Queries:  queries,
		Tx:       order.PGTx{DB: pool, Q: queries},
		Location: cfg.Location,
	})
	orderHandler := order.NewHandler(order.HandlerConfig{Service: orderService, Location: cfg.Location})

	reportHandler := report.NewHandler(report.NewService(report.ServiceConfig{
		Queries:     queries,
		Location:    cfg.Location,
		DefaultDays: cfg.ReportDefaultRangeDays,
	}))

	userHandler := user.NewHandler(userService)

	auditService := &audit.Service{Store: queries, Enabled: cfg.AuditEnabled}
	auditRecorder := audit.HTTPRecorder{
		Service: auditService,
		OnError: func(err error) { logger.Error().Err(err).Msg("record audit log") },
	}
	auditHandler := audit.Handler{Store: queries}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", "")), nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{HSTSMaxAge: envInt("SECURE_HSTS_MAX_AGE", 0)}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(security.BodyLimit{Max: int64(envInt("HTTP_MAX_BODY_BYTES", 1<<20))}.Middleware)

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", false) {
		r.Mount("/debug", protectPprof(middleware.Profiler(), envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", ""), envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")))
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{db: pool, redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.With(loginRate.Middleware).Post("/auth/login", authHandler.Login)
		v.Post("/auth/logout", authHandler.Logout)

		v.Group(func(p chi.Router) {
			p.Use(authMiddleware.RequireAuth)
			p.Use(auditRecorder.Middleware)

			p.Get("/auth/me", authHandler.Me)

			p.Get("/products", catalogHandler.List)
			p.Post("/products", catalogHandler.Create)
			p.Get("/products/{id}", catalogHandler.Get)
			p.Put("/products/{id}", catalogHandler.Update)

			p.Get("/customers", customerHandler.List)
			p.Post("/customers", customerHandler.Create)
			p.Get("/customers/{id}", customerHandler.Get)
			p.Put("/customers/{id}", customerHandler.Update)
			p.Get("/customers/{id}/statement", ledgerHandler.Statement)
			p.With(idem.Middleware).Post("/customers/{id}/payments", ledgerHandler.RecordPayment)

			p.Get("/orders", orderHandler.List)
			p.Get("/orders/board", orderHandler.Board)
			p.With(idem.Middleware).Post("/orders", orderHandler.Create)
			p.Get("/orders/{id}", orderHandler.Get)
			p.Put("/orders/{id}", orderHandler.Update)
			p.Delete("/orders/{id}", orderHandler.Delete)
			p.Post("/orders/{id}/deliver", orderHandler.MarkDelivered)

			p.Get("/reports", reportHandler.Report)
			p.Get("/reports/export", reportHandler.Export)

			p.Route("/admin", func(admin chi.Router) {
				admin.Use(auth.RequireAdmin)
				admin.Get("/users", userHandler.List)
				admin.Post("/users", userHandler.Create)
				admin.Put("/users/{id}", userHandler.Update)
				admin.Get("/audit-logs", auditHandler.List)
			})
		})
	})

	var handler http.Handler = r
	if tracingEnabled {
		handler = otelhttp.NewHandler(r, serviceName)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	case <-sigCtx.Done():
	}

	health.SetReady(false)
	logger.Info().Msg("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), envDurationMillis("HTTP_SHUTDOWN_TIMEOUT_MS", 15000))
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
}

// connectRedis returns nil when REDIS_URL is unset. A configured but
// unreachable Redis is fatal.
func connectRedis(ctx context.Context, cfg *config.Config, metricsEnabled bool, logger zerolog.Logger) *redis.Client {
	if !cfg.RedisEnabled() {
		logger.Info().Msg("redis disabled; idempotency keys, token revocation and catalog cache are off")
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return client
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return health.ErrDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		if trimmed := strings.TrimSpace(val); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
