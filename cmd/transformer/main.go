package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/biohubbc/biohub/internal/adapters/nats"
	"github.com/biohubbc/biohub/internal/adapters/postgres"
	"github.com/biohubbc/biohub/internal/adapters/valkey"
	"github.com/biohubbc/biohub/internal/core/ports"
	"github.com/biohubbc/biohub/internal/core/transform"
	"github.com/biohubbc/biohub/internal/core/usecases"
	"github.com/biohubbc/biohub/internal/pkg/config"
	"github.com/biohubbc/biohub/internal/pkg/logging"
	"github.com/biohubbc/biohub/internal/pkg/telemetry"
	"github.com/biohubbc/biohub/internal/workflows"
)

func main() {
	cfg, err := config.Load("biohub-transformer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

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

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var cacheSvc ports.CacheService
	if cache, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Prefix); err != nil {
		slog.Warn("valkey unavailable, cached reads will expire on their own", "error", err)
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	var publisher ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, transformed events will not be published", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	submissionRepo := postgres.NewSubmissionRepo(db)
	transformRepo := postgres.NewTransformRepo(db)
	svc := usecases.NewTransformService(submissionRepo, transformRepo, publisher, cacheSvc, classifier)

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(logger),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.TransformWorkflow)
	w.RegisterActivity(&workflows.TransformActivities{Transforms: svc})

	slog.Info("transformer worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
