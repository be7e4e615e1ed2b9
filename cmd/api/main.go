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

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/zhouzirui/core-companion/backend/internal/config"
	"github.com/zhouzirui/core-companion/backend/internal/handler"
	"github.com/zhouzirui/core-companion/backend/internal/observability"
	"github.com/zhouzirui/core-companion/backend/internal/service/ai"
	"github.com/zhouzirui/core-companion/backend/internal/service/chat"
	"github.com/zhouzirui/core-companion/backend/internal/service/tagging"
	sessionstore "github.com/zhouzirui/core-companion/backend/internal/store/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fatal("failed to load configuration", err)
	}

	logger, closeLog, err := observability.InitLogger(cfg.Log)
	if err != nil {
		fatal("failed to initialise logger", err)
	}
	defer closeLog()
	if envErr != nil {
		logger.Info("no .env file loaded, using process environment", "error", envErr)
	}

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Log)
	if err != nil {
		fatal("failed to initialise telemetry", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	metrics, err := observability.NewMetrics()
	if err != nil {
		logger.Warn("metrics disabled", "error", err)
	}

	chatModel, err := newChatModel(ctx, cfg.AI)
	if err != nil {
		fatal("failed to initialise chat model", err)
	}
	logger.Info("chat model ready", "provider", cfg.AI.Provider, "model", cfg.AI.Model)

	gateway, err := ai.NewService(ctx, chatModel)
	if err != nil {
		fatal("failed to initialise completion gateway", err)
	}

	tagger, err := tagging.NewService(ctx, gateway.ChatModel(), cfg.Tagging.Mode)
	if err != nil {
		fatal("failed to initialise tagger", err)
	}
	logger.Info("session tagger ready", "mode", tagger.Mode())

	store, err := newSessionStore(ctx, cfg.Store)
	if err != nil {
		fatal("failed to open session store", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("session store close failed", "error", err)
		}
	}()
	logger.Info("session store ready", "driver", cfg.Store.Driver)

	chatService := chat.NewService(gateway, store, tagger, chat.WithMetrics(metrics))
	router := handler.NewRouter(chatService, cfg.Server)

	if err := startServer(ctx, cfg.Server, router); err != nil {
		logger.Error("server error", "error", err)
	}
}

func newChatModel(ctx context.Context, aiCfg config.AIConfig) (model.BaseChatModel, error) {
	if aiCfg.Provider == config.ProviderMock {
		return ai.NewMockChatModel(), nil
	}
	return aiCfg.NewChatModel(ctx)
}

func newSessionStore(ctx context.Context, storeCfg config.StoreConfig) (sessionstore.Store, error) {
	switch sessionstore.StoreType(storeCfg.Driver) {
	case sessionstore.StoreTypeSQLite:
		return sessionstore.NewStore(ctx, sessionstore.StoreTypeSQLite, sessionstore.WithSQLitePath(storeCfg.SQLitePath))
	case sessionstore.StoreTypeRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     storeCfg.RedisAddr,
			Password: storeCfg.RedisPassword,
			DB:       storeCfg.RedisDB,
		})
		store, err := sessionstore.NewStore(ctx, sessionstore.StoreTypeRedis, sessionstore.WithRedisClient(client))
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis %s: %w", storeCfg.RedisAddr, err)
		}
		return store, nil
	case sessionstore.StoreTypeSupabase:
		return sessionstore.NewStore(ctx, sessionstore.StoreTypeSupabase,
			sessionstore.WithSupabase(storeCfg.SupabaseURL, storeCfg.SupabaseKey),
			sessionstore.WithSupabaseTable(storeCfg.SupabaseTable),
		)
	default:
		return sessionstore.NewStore(ctx, sessionstore.StoreType(storeCfg.Driver))
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) error {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("core companion backend listening", "addr", addr)
	return runServer(ctx, srv)
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
