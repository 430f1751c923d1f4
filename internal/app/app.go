package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"academic-assist/internal/auth"
	"academic-assist/internal/config"
	"academic-assist/internal/dashboard"
	"academic-assist/internal/db"
	"academic-assist/internal/events"
	"academic-assist/internal/health"
	"academic-assist/internal/logger"
	"academic-assist/internal/metrics"
	"academic-assist/internal/middleware"
	"academic-assist/internal/report"
	"academic-assist/internal/request"
	"academic-assist/internal/session"
	"academic-assist/internal/telemetry"
	"academic-assist/internal/upload"
	"academic-assist/internal/web"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"google.golang.org/grpc"
)

type App struct {
	config        *config.Config
	router        chi.Router
	server        *http.Server
	grpcServer    *grpc.Server
	grpcHealth    *health.GRPCServer
	db            *bun.DB
	publisher     events.Publisher
	meterProvider *sdkmetric.MeterProvider
	logger        *slog.Logger
	cancel        context.CancelFunc
}

func New() *App {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	slogLogger := logger.NewWithServiceContext(ServiceName, Version, cfg.Env)

	// Set as default logger so slog.Info() uses the same handler
	slog.SetDefault(slogLogger)
	slogLogger.Info("config loaded", "env", cfg.Env, "git_commit", GitCommit, "build_time", BuildTime)

	app, err := NewWithConfig(context.Background(), cfg, slogLogger)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}
	return app
}

// NewWithConfig wires every component from cfg without starting listeners.
func NewWithConfig(ctx context.Context, cfg *config.Config, slogLogger *slog.Logger) (*App, error) {
	slogLogger.Info("initializing application")

	app := &App{
		config: cfg,
		router: chi.NewRouter(),
		logger: slogLogger,
	}

	loc, err := loadLocation(cfg.Location)
	if err != nil {
		return nil, err
	}
	clock := func() time.Time { return time.Now().In(loc) }

	app.meterProvider, err = telemetry.InitMeterProvider(ctx, cfg.Telemetry.OTLPEndpoint, ServiceName, Version, slogLogger)
	if err != nil {
		slogLogger.Warn("failed to initialize OTel metrics, continuing without export", "error", err)
	}
	meter := otel.Meter(ServiceName)
	appMetrics, err := metrics.New(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	app.db, err = db.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := appMetrics.Database.RegisterDB(app.db.DB, meter); err != nil {
		slogLogger.Warn("failed to register database pool metrics", "error", err)
	}

	models := append(request.Models(), (*auth.Admin)(nil))
	if err := db.RunMigrations(ctx, app.db, models...); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	store, err := newStore(cfg.Uploads, slogLogger)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureDirs(ctx, upload.Dirs...); err != nil {
		return nil, fmt.Errorf("failed to prepare upload storage: %w", err)
	}

	if err := appMetrics.Health.Register(meter, ServiceName, Version, cfg.Env, metrics.DependencyDatabase, metrics.DependencyStorage); err != nil {
		slogLogger.Warn("failed to register health metrics", "error", err)
	}

	app.publisher = events.New(cfg.Events, slogLogger)

	views, err := web.NewViews()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	sessions, err := session.NewManager(cfg.Session, slogLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}
	responder := web.NewResponder(views, sessions, slogLogger)

	// Auth
	authService := auth.NewService(auth.NewRepository(app.db, appMetrics), cfg.Admin, appMetrics, slogLogger)
	if err := authService.SeedDefaultAdmin(ctx); err != nil {
		return nil, fmt.Errorf("failed to seed admin: %w", err)
	}
	authHandler := auth.NewHandler(authService, responder, slogLogger)

	// Requests
	uploader := upload.NewUploader(store, upload.NewPolicy(cfg.Uploads.AllowedExtensions), slogLogger)
	requestService := request.NewService(request.NewRepository(app.db, appMetrics), uploader, app.publisher, appMetrics, slogLogger)
	requestHandler := request.NewHandler(requestService, responder, slogLogger)

	// Admin views
	dashboardService := dashboard.NewService(requestService, store, slogLogger, dashboard.WithClock(clock))
	dashboardHandler := dashboard.NewHandler(dashboardService, store, responder, slogLogger)
	reportService := report.NewService(requestService, report.NewRenderer(), appMetrics, slogLogger, report.WithClock(clock))
	reportHandler := report.NewHandler(reportService, responder, slogLogger)

	checker := health.NewChecker(app.db, store, appMetrics.Health)
	healthHandler := health.NewHandler(checker, slogLogger)

	router := app.router
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.RequestLogger(slogLogger))
	router.Use(chimiddleware.Recoverer)
	router.Use(appMetrics.HTTP.Middleware)
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	if cfg.Server.MaxUploadBytes > 0 {
		router.Use(chimiddleware.RequestSize(cfg.Server.MaxUploadBytes))
	}
	router.NotFound(responder.NotFound)

	healthHandler.RegisterRoutes(router)
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		responder.Page(w, r, sessions.Load(r), http.StatusOK, "index", "", nil)
	})
	authHandler.RegisterRoutes(router)
	requestHandler.RegisterRoutes(router)

	// Admin-only routes
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin(responder))
		dashboardHandler.RegisterRoutes(r)
		reportHandler.RegisterRoutes(r)
		requestHandler.RegisterAdminRoutes(r)
	})

	if cfg.Grpc.Port != "" {
		app.grpcServer = grpc.NewServer()
		app.grpcHealth = health.NewGRPCServer(app.grpcServer, checker, slogLogger)
	}

	slogLogger.Info("application initialized successfully")
	return app, nil
}

// Handler returns the fully wired router.
func (a *App) Handler() http.Handler {
	return a.router
}

func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.grpcServer != nil {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%s", a.config.Grpc.Port))
		if err != nil {
			return fmt.Errorf("failed to listen on gRPC port: %w", err)
		}
		go a.grpcHealth.Run(ctx, 15*time.Second)
		go func() {
			a.logger.Info("gRPC health server starting", "port", a.config.Grpc.Port)
			if err := a.grpcServer.Serve(lis); err != nil {
				a.logger.Error("gRPC server error", "error", err)
			}
		}()
	}

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  time.Duration(a.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(a.config.Server.IdleTimeout) * time.Second,
	}

	a.logger.Info("server starting", "port", a.config.Server.Port)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down server")

	if a.cancel != nil {
		a.cancel()
	}

	var errs []error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if a.grpcServer != nil {
		a.grpcHealth.Shutdown()
		a.grpcServer.GracefulStop()
	}
	if err := a.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("events close: %w", err))
	}
	if err := telemetry.Shutdown(ctx, a.meterProvider, a.logger); err != nil {
		errs = append(errs, err)
	}
	db.Close(a.db)

	return errors.Join(errs...)
}

func newStore(cfg config.UploadsConfig, logger *slog.Logger) (upload.Store, error) {
	switch cfg.Driver {
	case "minio":
		store, err := upload.NewMinIOStore(cfg.MinIO, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create minio store: %w", err)
		}
		return store, nil
	case "", "local":
		logger.Info("storing uploads on local disk", "root", cfg.Root)
		return upload.NewLocalStore(cfg.Root), nil
	default:
		return nil, fmt.Errorf("unknown uploads driver %q", cfg.Driver)
	}
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid location %q: %w", name, err)
	}
	return loc, nil
}
