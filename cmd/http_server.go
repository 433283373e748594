package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sekreterlik/sekreterlik/internal"
	"github.com/sekreterlik/sekreterlik/internal/auth"
	authPostgres "github.com/sekreterlik/sekreterlik/internal/auth/postgres"
	"github.com/sekreterlik/sekreterlik/internal/core/events"
	"github.com/sekreterlik/sekreterlik/internal/identity"
	"github.com/sekreterlik/sekreterlik/internal/member"
	memberPostgres "github.com/sekreterlik/sekreterlik/internal/member/postgres"
	"github.com/sekreterlik/sekreterlik/internal/permission"
	permissionPostgres "github.com/sekreterlik/sekreterlik/internal/permission/postgres"
	"github.com/sekreterlik/sekreterlik/internal/position"
	positionPostgres "github.com/sekreterlik/sekreterlik/internal/position/postgres"
	"github.com/sekreterlik/sekreterlik/internal/session"
	sessionRedis "github.com/sekreterlik/sekreterlik/internal/session/redis"
	"github.com/sekreterlik/sekreterlik/internal/transport"
	"github.com/sekreterlik/sekreterlik/internal/transport/rest"
	"github.com/sekreterlik/sekreterlik/internal/viewgate"
	"github.com/sekreterlik/sekreterlik/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server serving the session, guarded routes and the permission registry`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Gorm   *gorm.DB
	Redis  goredis.UniversalClient
	Bus    *events.EventBus
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer deps.close()

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func (d *Dependencies) close() {
	if d.Bus != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := d.Bus.Wait(ctx); err != nil {
			d.Logger.Warn("event handlers still running at shutdown", "error", err)
		}
		cancel()
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("Redis close error", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("Database close error", "error", err)
	}
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logCfg := config.Observability.Logging
	lg := logger.Setup(logger.Options{
		Level:      logCfg.Level,
		Format:     logCfg.Format,
		File:       logCfg.File,
		MaxSizeMB:  logCfg.MaxSizeMB,
		MaxBackups: logCfg.MaxBackups,
		MaxAgeDays: logCfg.MaxAgeDays,
		Compress:   logCfg.Compress,
	})

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	deps := &Dependencies{
		Config: config,
		DB:     db,
		Gorm:   gormDB,
		Router: chi.NewRouter(),
		Logger: lg,
	}

	store, err := deps.sessionStore()
	if err != nil {
		deps.close()
		return nil, err
	}

	handlers, err := deps.handlers(store)
	if err != nil {
		deps.close()
		return nil, err
	}

	rest.RegisterAllRoutes(deps.Router, handlers, rest.RouterOptions{
		AllowedOrigins: config.Server.AllowedOrigins,
	}, lg)

	return deps, nil
}

// sessionStore picks Redis when an address is configured and keeps sessions
// in process memory otherwise.
func (d *Dependencies) sessionStore() (session.Store, error) {
	cfg := d.Config
	if cfg.Redis.Addr == "" {
		d.Logger.Warn("redis address not set, sessions are kept in memory")
		return session.NewMemoryStore(cfg.Security.SessionTTL), nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := internal.WithTimeout(context.Background(), 0)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	d.Redis = client
	return sessionRedis.NewStore(client, cfg.Redis.KeyPrefix, cfg.Security.SessionTTL), nil
}

func (d *Dependencies) handlers(store session.Store) (rest.Handlers, error) {
	cfg := d.Config
	lg := d.Logger
	base := transport.NewBaseHandler(lg)

	bus := events.NewEventBus(lg)
	events.RegisterAuditLog(bus, lg)
	d.Bus = bus

	authService := auth.NewService(authPostgres.NewRepository(d.Gorm), lg, cfg.Security.BCryptCost)
	cookies := session.NewCookieManager(cfg.Security.CookieName, cfg.Security.SessionSecret, cfg.Security.SessionTTL, cfg.Security.CookieSecure)

	providerCfg := auth.ProviderConfig{
		Mode:             auth.ModeFor(cfg.Auth.UseRemoteIdentity),
		Store:            store,
		Backend:          authService,
		Events:           bus,
		Logger:           lg,
		PrincipalTimeout: cfg.Auth.PrincipalTimeout,
	}

	var sources auth.SourceFactory
	if cfg.Auth.UseRemoteIdentity {
		ctx, cancel := internal.WithTimeout(context.Background(), 0)
		defer cancel()
		verifier, err := identity.NewOIDCVerifier(ctx, identity.OIDCConfig{
			Issuer:   cfg.Auth.OIDCIssuer,
			ClientID: cfg.Auth.OIDCClientID,
		})
		if err != nil {
			return rest.Handlers{}, fmt.Errorf("failed to initialize identity provider: %w", err)
		}
		sources = identity.RequestSources(verifier, lg)
	}

	permissionService := permission.NewService(permissionPostgres.NewPermissionRepository(d.Gorm), bus, lg)
	positionService := position.NewService(positionPostgres.NewPositionRepository(d.Gorm), lg)
	memberService := member.NewService(memberPostgres.NewMemberRepository(d.DB), permissionService, lg)

	policy, err := viewgate.ParseUnlistedPolicy(cfg.Dashboard.UnlistedViewPolicy)
	if err != nil {
		return rest.Handlers{}, err
	}

	return rest.Handlers{
		Health:     rest.NewHealthHandler(d.DB.DB, d.Redis),
		Auth:       auth.NewHandler(base, providerCfg, cookies, sources),
		Permission: permission.NewHandler(base, permissionService),
		Position:   position.NewHandler(base, positionService),
		Member:     member.NewHandler(base, memberService),
		Dashboard: viewgate.NewHandler(base, permissionService, store, viewgate.Config{
			Unlisted: policy,
			ErrorTTL: cfg.Dashboard.ErrorTTL,
		}),
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm shares the sqlx pool with gorm.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
}
