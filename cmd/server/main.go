// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/uno/internal/auth"
	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/config"
	"github.com/jason-s-yu/uno/internal/database"
	"github.com/jason-s-yu/uno/internal/handlers"
	"github.com/jason-s-yu/uno/internal/middleware"
	"github.com/jason-s-yu/uno/internal/room"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	signer, err := newSigner(cfg, logger)
	if err != nil {
		return err
	}

	opts := cfg.RoomOptions()
	opts.Logger = logger

	var users auth.UserStore
	if cfg.DatabaseURL != "" {
		db, err := database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		opts.Sink = db
		users = db
		logger.Info("Connected to database; game results will be persisted.")
	} else {
		logger.Warn("DATABASE_URL is empty; game results will only be logged.")
	}

	if rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB); err != nil {
		logger.Warnf("Redis unavailable, action log disabled: %v", err)
	} else {
		defer rdb.Close()
		opts.Actions = cache.NewPublisher(rdb, cfg.HistorianQueue)
		logger.Infof("Publishing room actions to %s (queue %s).", cfg.RedisAddr, cfg.HistorianQueue)
	}

	rooms := room.NewStore(opts)
	gs := handlers.NewGameServer(rooms, auth.NewResolver(signer, users, logger), logger)
	gs.IntentRate = rate.Limit(cfg.IntentRatePerSec)
	gs.IntentBurst = cfg.IntentBurst

	logged := middleware.LogMiddleware(logger)
	mux := http.NewServeMux()
	mux.Handle("/ws", logged(handlers.GameWSHandler(gs)))
	mux.Handle("/rooms", logged(handlers.ListRoomsHandler(gs)))
	mux.Handle("/healthz", handlers.HealthHandler(gs))

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down.")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		gs.Shutdown()
		rooms.CloseAll(shutdownCtx)
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newSigner loads the token keys from disk when configured, so tokens survive
// a restart; otherwise a fresh pair is generated.
func newSigner(cfg *config.Config, logger *logrus.Logger) (*auth.Signer, error) {
	if !cfg.HasKeyFiles() {
		logger.Warn("No JWT key files configured; tokens will not survive a restart.")
		return auth.NewSigner(cfg.TokenExpireTime)
	}
	signer, err := auth.NewSignerFromPath(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath, cfg.TokenExpireTime)
	if err != nil {
		return nil, fmt.Errorf("load jwt keys: %w", err)
	}
	logger.Infof("Loaded JWT keys from %s.", cfg.JWTPrivateKeyPath)
	return signer, nil
}
