package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/vanillai/vanillai/internal/config"
	"github.com/vanillai/vanillai/internal/db"
	"github.com/vanillai/vanillai/internal/http/api/admin"
	"github.com/vanillai/vanillai/internal/http/api/front"
	"github.com/vanillai/vanillai/internal/http/middleware"
	"github.com/vanillai/vanillai/internal/logging"
	"github.com/vanillai/vanillai/internal/ratelimit"
	"github.com/vanillai/vanillai/internal/seed"
	internalsettings "github.com/vanillai/vanillai/internal/settings"
	"github.com/vanillai/vanillai/internal/validate"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	conn, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(conn)
	return db.Migrate(conn.WithContext(ctx))
}

// Seed migrates the database and inserts the bundled sample content.
func Seed(ctx context.Context, cfg config.AppConfig) (seed.Result, error) {
	conn, err := openDatabase(cfg)
	if err != nil {
		return seed.Result{}, err
	}
	defer closeDatabase(conn)
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return seed.Result{}, errMigrate
	}
	return seed.Run(ctx, conn)
}

// NewRouter builds the HTTP engine with middleware and all routes.
func NewRouter(conn *gorm.DB, jwtCfg config.JWTConfig, serverCfg config.ServerConfig, limiter *ratelimit.Manager) (*gin.Engine, error) {
	if errValidate := validate.Register(); errValidate != nil {
		return nil, errValidate
	}
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		gin.Recovery(),
		middleware.SecurityHeaders(),
		middleware.CORS(serverCfg.CORSOrigins),
	)
	admin.RegisterAdminRoutes(engine, conn, jwtCfg, serverCfg)
	front.RegisterFrontRoutes(engine, conn, jwtCfg, serverCfg, limiter)
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	return engine, nil
}

// RunServer boots the API server and blocks until ctx is cancelled.
// A positive port overrides the configured one.
func RunServer(ctx context.Context, cfg config.AppConfig, port int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	serverCfg, err := config.LoadServerConfig(configPath)
	if err != nil {
		return err
	}
	if port > 0 {
		serverCfg.Port = port
	}
	if errLog := logging.Setup(os.Stderr, serverCfg.LogLevel, serverCfg.LogFormat); errLog != nil {
		return errLog
	}
	if serverCfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	jwtCfg, err := config.LoadJWTConfig(configPath)
	if err != nil {
		return err
	}
	if jwtCfg.Secret == "" {
		return errors.New("jwt secret is not configured (set jwt.secret or JWT_SECRET)")
	}

	conn, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(conn)
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errRefresh := internalsettings.Refresh(ctx, conn); errRefresh != nil {
		return errRefresh
	}
	initialized, errInit := HasAdminInitialized(conn)
	if errInit != nil {
		return errInit
	}
	if !initialized && len(serverCfg.AdminEmails) == 0 {
		log.Warn("no admin account found; run `vanillai init` or set admin-emails")
	}

	limiter := ratelimit.NewManager(nil, nil, nil)
	defer limiter.Close()

	engine, err := NewRouter(conn, jwtCfg, serverCfg, limiter)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              serverCfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("starting server on %s (config=%s)", srv.Addr, configPath)
		if errListen := srv.ListenAndServe(); errListen != nil && !errors.Is(errListen, http.ErrServerClosed) {
			errCh <- errListen
		}
		close(errCh)
	}()

	select {
	case errListen := <-errCh:
		return errListen
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
		return fmt.Errorf("shutdown server: %w", errShutdown)
	}
	return nil
}

func openDatabase(cfg config.AppConfig) (*gorm.DB, error) {
	dsn, err := config.LoadDatabaseDSN(config.ResolveConfigPath(cfg.ConfigPath))
	if err != nil {
		return nil, err
	}
	return db.Open(dsn)
}

func closeDatabase(conn *gorm.DB) {
	sqlDB, errDB := conn.DB()
	if errDB != nil {
		return
	}
	if errClose := sqlDB.Close(); errClose != nil {
		log.Errorf("sql db close error: %v", errClose)
	}
}
