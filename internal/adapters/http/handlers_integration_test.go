//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/biohubbc/biohub/internal/adapters/http"
	"github.com/biohubbc/biohub/internal/adapters/postgres"
	"github.com/biohubbc/biohub/internal/core/domain"
	"github.com/biohubbc/biohub/internal/core/transform"
	"github.com/biohubbc/biohub/internal/core/usecases"
	"github.com/biohubbc/biohub/internal/pkg/config"
	"github.com/biohubbc/biohub/migrations"
)

// setupTestDB migrates the test database and returns a connected DB.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("biohub-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	dsn := cfg.Database.DSN()
	if err := migrations.Up(dsn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, dsn, 4)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return db
}

// setupTestDeps wires real repos with no cache or publisher.
func setupTestDeps(db *postgres.DB) *handler.Dependencies {
	subs := postgres.NewSubmissionRepo(db)
	transforms := postgres.NewTransformRepo(db)
	classifier := transform.NewClassifier(transform.DefaultDenylist)

	return &handler.Dependencies{
		Submissions: usecases.NewSubmissionService(subs, nil),
		Transforms:  usecases.NewTransformService(subs, transforms, nil, nil, classifier),
		Search:      usecases.NewSearchService(postgres.NewSearchRepo(db), transforms, nil),
		DB:          db,
	}
}

// seedSubmission posts the test EML/DwC pair and returns the new id.
func seedSubmission(t *testing.T, app *fiber.App) string {
	t.Helper()
	req := jsonRequest("POST", "/v1/submissions", map[string]interface{}{
		"source_system": "integration",
		"eml_source":    json.RawMessage(testEML),
		"dwc_source":    json.RawMessage(testDwC),
	})
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	var sub domain.Submission
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		t.Fatalf("decode submission: %v", err)
	}
	return sub.ID
}

func runTransform(t *testing.T, app *fiber.App, id string) domain.TransformRun {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("POST", "/v1/submissions/"+id+"/transform", nil), -1)
	if err != nil {
		t.Fatalf("transform request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	var run domain.TransformRun
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	return run
}

func currentComponents(t *testing.T, app *fiber.App, id string) []domain.SpatialComponent {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", "/v1/submissions/"+id+"/spatial", nil), -1)
	if err != nil {
		t.Fatalf("spatial request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var rows []domain.SpatialComponent
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		t.Fatalf("decode components: %v", err)
	}
	return rows
}

func TestTransformPipeline_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()
	app := setupApp(setupTestDeps(db))

	id := seedSubmission(t, app)
	run := runTransform(t, app, id)
	if run.Status != domain.RunSucceeded {
		t.Fatalf("expected succeeded run, got %q (%s)", run.Status, run.Error)
	}
	if run.Restricted != 1 {
		t.Errorf("expected 1 restricted occurrence, got %d", run.Restricted)
	}

	rows := currentComponents(t, app, id)
	if len(rows) != 4 {
		t.Fatalf("expected boundary, centroid and 2 occurrences, got %d rows", len(rows))
	}
	restricted := 0
	for _, r := range rows {
		if len(r.Component) != 0 {
			t.Errorf("row %s exposes its unsecured component", r.ID)
		}
		if r.Restricted {
			restricted++
			if string(r.Secured) != "{}" {
				t.Errorf("restricted row %s has payload %s", r.ID, r.Secured)
			}
		}
	}
	if restricted != 1 {
		t.Errorf("expected 1 restricted row, got %d", restricted)
	}

	// A second run supersedes the first instead of adding rows.
	runTransform(t, app, id)
	if rows := currentComponents(t, app, id); len(rows) != 4 {
		t.Errorf("expected 4 current rows after re-run, got %d", len(rows))
	}
}

func TestSearchNearby_Integration_HidesRestricted(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()
	app := setupApp(setupTestDeps(db))

	id := seedSubmission(t, app)
	runTransform(t, app, id)

	// The spotted owl sits at 49.5,-122.5 and must never be found by location.
	resp, err := app.Test(httptest.NewRequest("GET", "/v1/search/nearby?lat=49.5&lon=-122.5&radius=100", nil), -1)
	if err != nil {
		t.Fatalf("nearby request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var rows []domain.SpatialComponent
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	for _, r := range rows {
		if r.Restricted {
			t.Errorf("nearby search returned restricted row %s", r.ID)
		}
	}
}

func TestSearchMetadata_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()
	app := setupApp(setupTestDeps(db))

	id := seedSubmission(t, app)
	runTransform(t, app, id)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/search/metadata?q=owls", nil), -1)
	if err != nil {
		t.Fatalf("search request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var rows []domain.SubmissionMetadata
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		t.Fatalf("decode rows: %v", err)
	}
	found := false
	for _, r := range rows {
		if r.SubmissionID == id {
			found = true
		}
	}
	if !found {
		t.Errorf("submission %s not found by metadata search", id)
	}
}
