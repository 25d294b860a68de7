package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"counterpos/internal/pkg/cache"
	"counterpos/internal/pkg/telemetry"
	"counterpos/internal/pos/catalog"
	"counterpos/internal/pos/held"
	"counterpos/internal/pos/httpx"
	"counterpos/internal/pos/ledger"
	"counterpos/internal/pos/pricing"
	"counterpos/internal/pos/sequence"
	"counterpos/internal/pos/storage/sqlite"
	"counterpos/internal/pos/terminal"
)

const serviceName = "pos-server"

func main() {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}
	telemetry.InitLogger(serviceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("pos server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	shutdownTracer, err := telemetry.SetupTracer(ctx, serviceName)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			slog.Warn("tracer shutdown failed", "error", err)
		}
	}()

	store, err := sqlite.Open(getEnv("POS_DB_PATH", "pos.db"))
	if err != nil {
		return err
	}
	defer store.Close()

	menu, err := catalog.LoadFile(getEnv("POS_MENU_PATH", "menu.json"))
	if err != nil {
		return err
	}
	var cat catalog.Catalog = menu
	if addr := os.Getenv("POS_REDIS_ADDR"); addr != "" {
		ttl := envDuration("POS_CATALOG_TTL", 5*time.Minute)
		cat = catalog.NewCached(menu, cache.NewRedisCache(addr, serviceName), ttl)
		slog.Info("catalog cache enabled", "redis_addr", addr, "ttl", ttl)
	}

	seq, err := sequence.New(ctx, store, time.Now)
	if err != nil {
		return err
	}

	taxRate := envFloat("POS_TAX_RATE", 0.15)
	eng := pricing.NewEngine(taxRate)
	led := ledger.New(store, seq, eng, time.Now)
	holds := held.NewStore(store, envInt("POS_HELD_LIMIT", 100), time.Now)
	term := terminal.New(cat, eng, led, holds, seq)

	router := httpx.NewRouter(httpx.NewHandler(term, cat))
	srv := &http.Server{
		Addr:         getEnv("POS_HTTP_ADDR", ":8080"),
		Handler:      otelhttp.NewHandler(router, serviceName),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("pos server listening",
			"addr", srv.Addr, "tax_rate", taxRate, "week", seq.Current().WeekKey,
			"order_number", seq.Current().OrderNumber)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	slog.Info("pos server stopped")
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("invalid env value, using fallback", "key", key, "value", v)
		return fallback
	}
	return f
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid env value, using fallback", "key", key, "value", v)
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid env value, using fallback", "key", key, "value", v)
		return fallback
	}
	return d
}
