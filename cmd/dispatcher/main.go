package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"

	natsadapter "github.com/biohubbc/biohub/internal/adapters/nats"
	"github.com/biohubbc/biohub/internal/core/ports"
	"github.com/biohubbc/biohub/internal/pkg/config"
	"github.com/biohubbc/biohub/internal/pkg/logging"
	"github.com/biohubbc/biohub/internal/workflows"
)

// dispatcher starts a TransformWorkflow for every submission.ingested event.
func main() {
	cfg, err := config.Load("biohub-dispatcher")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tc, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(logger),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer tc.Close()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	start := func(ctx context.Context, ev *ports.SubmissionEvent) error {
		run, err := tc.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
			ID:        workflows.WorkflowID(ev.SubmissionID),
			TaskQueue: cfg.Temporal.TaskQueue,
		}, workflows.TransformWorkflow, workflows.TransformInput{SubmissionID: ev.SubmissionID})
		if err != nil {
			return fmt.Errorf("start transform workflow for %s: %w", ev.SubmissionID, err)
		}
		slog.Info("transform workflow started",
			"submission_id", ev.SubmissionID,
			"workflow_id", run.GetID(),
			"run_id", run.GetRunID(),
		)
		return nil
	}
	if err := sub.SubscribeSubmissionIngested(ctx, start); err != nil {
		log.Fatalf("subscribe ingested: %v", err)
	}

	audit := func(ctx context.Context, ev *ports.SubmissionEvent) error {
		slog.Info("submission transformed",
			"submission_id", ev.SubmissionID,
			"run_id", ev.RunID,
			"status", ev.Status,
			"features", ev.Features,
			"skipped", ev.Skipped,
			"restricted", ev.Restricted,
		)
		return nil
	}
	if err := sub.SubscribeSubmissionTransformed(ctx, audit); err != nil {
		log.Fatalf("subscribe transformed: %v", err)
	}

	slog.Info("dispatcher started", "task_queue", cfg.Temporal.TaskQueue)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("received signal, shutting down dispatcher", "signal", sig.String())
}
