package main

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
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/duty-bot/internal/application"
	"github.com/example/duty-bot/internal/bot"
	"github.com/example/duty-bot/internal/config"
	httptransport "github.com/example/duty-bot/internal/http"
	"github.com/example/duty-bot/internal/logging"
	"github.com/example/duty-bot/internal/persistence/redisgate"
	"github.com/example/duty-bot/internal/persistence/sqlite"
	"github.com/example/duty-bot/internal/vk"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.Secrets()...)

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("duty bot listening", "addr", server.Addr, "group_id", app.groupID)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		app.Close()
		os.Exit(1)
	}
}

// app is the wired bot of one community.
type app struct {
	groupID int64
	handler http.Handler
	closers []func() error
	logger  *slog.Logger
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("failed to release resource", "error", err)
		}
	}
	a.closers = nil
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	client, err := vk.NewClient(vk.ClientConfig{
		Token:   cfg.VKToken,
		APIURL:  cfg.VKAPIURL,
		Version: cfg.VKAPIVersion,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error { client.CloseIdleConnections(); return nil })

	a.groupID = cfg.GroupID
	if a.groupID == 0 {
		if a.groupID, err = client.GroupID(ctx); err != nil {
			return nil, fmt.Errorf("resolve community id: %w", err)
		}
	}

	store, err := sqlite.Open(ctx, sqlite.Config{Path: cfg.DatabasePath(a.groupID)}, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a.closers = append(a.closers, store.Close)

	var gate application.NotificationGate = application.NewStoreGate(store)
	if cfg.RedisURL != "" {
		redisGate, err := redisgate.NewGate(ctx, cfg.RedisURL, fmt.Sprintf("dutybot:%d", a.groupID))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, redisGate.Close)
		gate = redisGate
	}

	floor := cfg.Floor
	duty := application.NewDutyServiceWithLogger(store, floor.Layout, floor.Location, time.Now, logger)
	admins := application.NewAdminServiceWithLogger(store, logger)
	if err := duty.Bootstrap(ctx); err != nil {
		return nil, fmt.Errorf("bootstrap rotation: %w", err)
	}
	if _, err := admins.SeedAdmin(ctx, cfg.BootstrapAdmin); err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}

	b, err := bot.New(bot.Config{
		GroupID:  a.groupID,
		Duty:     duty,
		Admins:   admins,
		Throttle: application.NewThrottle(gate, floor.NotifyTimeout, time.Now, logger),
		Profiles: application.NewProfileDirectory(vkProfileSource{client: client}, time.Hour, time.Now, logger),
		Sender:   client,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	callback := httptransport.NewCallbackHandler(httptransport.CallbackConfig{
		GroupID:           a.groupID,
		Secret:            cfg.CallbackSecret,
		ConfirmationToken: cfg.ConfirmationToken,
	}, b, logger)

	a.handler = httptransport.NewRouter(httptransport.RouterConfig{
		Callback:      callback,
		Metrics:       promhttp.Handler(),
		Limiter:       httptransport.NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		SigningSecret: cfg.SigningSecret,
		Logger:        logger,
	})
	return a, nil
}

// vkProfileSource resolves display names through users.get.
type vkProfileSource struct {
	client *vk.Client
}

func (s vkProfileSource) Profiles(ctx context.Context, ids []int64) ([]application.Profile, error) {
	users, err := s.client.Users(ctx, ids)
	if err != nil {
		return nil, err
	}
	profiles := make([]application.Profile, len(users))
	for i, user := range users {
		profiles[i] = application.Profile{ID: user.ID, FirstName: user.FirstName, LastName: user.LastName}
	}
	return profiles, nil
}
