package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crucial707/sqlgate/internal/config"
	"github.com/crucial707/sqlgate/internal/db"
	"github.com/crucial707/sqlgate/internal/logging"
	"github.com/crucial707/sqlgate/internal/middleware"
)

func main() {
	if err := run(); err != nil {
		slog.Error("sqlgate stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg := config.Load()

	logger, closer := logging.Setup(logging.Options{
		Format:     cfg.LogFormat,
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	defer closer.Close()

	if cfg.SQLGatewayEnabled {
		logger.Warn("SQL gateway is enabled: /sql executes arbitrary statements",
			"allow", cfg.SQLGatewayAllow,
			"expose_errors", cfg.SQLGatewayExposeErrors)
	}

	dbCfg := databaseConfig(cfg)

	// Migrations open and close their own connection.
	if cfg.DBMigrate {
		if err := db.RunMigrations(dbCfg); err != nil {
			return err
		}
		logger.Info("migrations applied", "driver", dbCfg.Driver)
	}

	conn, err := db.Connect(dbCfg)
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Info("connected to database", "driver", dbCfg.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter := middleware.NewIPRateLimiter(cfg.SQLRatePerMin, cfg.SQLRateBurst)
	go sweepLimiter(ctx, limiter)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(conn, cfg, limiter),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		tls := cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""
		logger.Info("starting server", "addr", srv.Addr, "tls", tls, "env", cfg.Env)
		if tls {
			errCh <- srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func databaseConfig(cfg config.Config) db.Config {
	return db.Config{
		Driver:       cfg.DBDriver,
		Host:         cfg.DBHost,
		Port:         cfg.DBPort,
		Name:         cfg.DBName,
		User:         cfg.DBUser,
		Password:     cfg.DBPass,
		SSLMode:      cfg.DBSSLMode,
		Path:         cfg.DBPath,
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	}
}

// sweepLimiter drops idle rate-limit buckets until ctx is done.
func sweepLimiter(ctx context.Context, l *middleware.IPRateLimiter) {
	t := time.NewTicker(5 * time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := l.Sweep(10 * time.Minute); n > 0 {
				slog.Debug("rate limiter sweep", "dropped", n)
			}
		}
	}
}
