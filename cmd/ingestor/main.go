package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	natsadapter "github.com/biohubbc/biohub/internal/adapters/nats"
	"github.com/biohubbc/biohub/internal/adapters/postgres"
	"github.com/biohubbc/biohub/internal/core/ports"
	"github.com/biohubbc/biohub/internal/core/usecases"
	"github.com/biohubbc/biohub/internal/pkg/config"
	"github.com/biohubbc/biohub/internal/pkg/logging"
)

// ingestor loads EML/DwC document pairs listed in a manifest and stores them
// as submissions. Usage: ingestor [manifest.json] [name,name,...]
func main() {
	cfg, err := config.Load("biohub-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	var publisher ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, submissions will not be dispatched for transform", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}
	submissions := usecases.NewSubmissionService(postgres.NewSubmissionRepo(db), publisher)

	manifestPath := "manifest.json"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}
	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		log.Fatalf("manifest: %v", err)
	}

	// Optional CLI arg: comma-separated entry names
	var names []string
	if len(os.Args) > 2 {
		for _, s := range strings.Split(os.Args[2], ",") {
			names = append(names, strings.TrimSpace(s))
		}
	}
	entries := manifest.Filter(names)
	slog.Info("BioHub ingestor starting", "entries", len(entries), "source", manifest.Source)

	fetcher := &Fetcher{Client: &http.Client{Timeout: 120 * time.Second}}

	var ok, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4) // max 4 concurrent downloads

	for _, entry := range entries {
		g.Go(func() error {
			eml, dwc, err := fetcher.Pair(gctx, entry)
			if err != nil {
				slog.Error("fetch submission documents", "name", entry.Name, "error", err)
				failed.Add(1)
				return nil
			}
			source := entry.SourceSystem
			if source == "" {
				source = manifest.Source
			}
			sub, err := submissions.Create(gctx, source, eml, dwc)
			if err != nil {
				slog.Error("store submission", "name", entry.Name, "error", err)
				failed.Add(1)
				return nil
			}
			slog.Info("submission ingested", "name", entry.Name, "submission_id", sub.ID)
			ok.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	slog.Info("ingestion complete", "ingested", ok.Load(), "failed", failed.Load())
	if failed.Load() > 0 {
		os.Exit(1)
	}
}
