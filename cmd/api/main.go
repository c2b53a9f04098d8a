package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/biohubbc/biohub/internal/adapters/http"
	natsadapter "github.com/biohubbc/biohub/internal/adapters/nats"
	"github.com/biohubbc/biohub/internal/adapters/postgres"
	"github.com/biohubbc/biohub/internal/adapters/valkey"
	"github.com/biohubbc/biohub/internal/core/ports"
	"github.com/biohubbc/biohub/internal/core/transform"
	"github.com/biohubbc/biohub/internal/core/usecases"
	"github.com/biohubbc/biohub/internal/pkg/config"
	"github.com/biohubbc/biohub/internal/pkg/logging"
	"github.com/biohubbc/biohub/internal/pkg/metrics"
	"github.com/biohubbc/biohub/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("biohub-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint)
	if err != nil {
		slog.Warn("telemetry init failed", "error", err)
	} else {
		defer shutdownTracer()
	}

	codes, restrictUnknown, err := cfg.Security.Denylist()
	if err != nil {
		log.Fatalf("security rules: %v", err)
	}
	if codes == nil {
		codes = transform.DefaultDenylist
	}
	classifier := transform.NewClassifier(codes, transform.WithRestrictUnknownTaxa(restrictUnknown))
	slog.Info("security classifier loaded", "codes", len(classifier.Codes()), "restrict_unknown_taxa", classifier.RestrictsUnknown())

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Pool.Stat())
			case <-ctx.Done():
				return
			}
		}
	}()

	// Cache is optional; the services read through to Postgres without it.
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Prefix)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	// NATS publisher is optional too; events are best effort.
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Drain()
	}

	// Repos
	submissionRepo := postgres.NewSubmissionRepo(db)
	transformRepo := postgres.NewTransformRepo(db)
	searchRepo := postgres.NewSearchRepo(db)

	deps := &http.Dependencies{
		Submissions: usecases.NewSubmissionService(submissionRepo, publisher),
		Transforms:  usecases.NewTransformService(submissionRepo, transformRepo, publisher, cacheSvc, classifier),
		Search:      usecases.NewSearchService(searchRepo, transformRepo, cacheSvc),
		NATS:        natsConn,
		DB:          db,
		Cache:       cache,
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024, // EML and DwC documents can be large
		AppName:      "BioHub Transform API",
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
