package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/biohubbc/biohub/internal/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("biohub-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Telemetry.ServiceName != "biohub-test" {
		t.Errorf("expected service name biohub-test, got %s", cfg.Telemetry.ServiceName)
	}
	if cfg.Temporal.TaskQueue != "biohub-transform" {
		t.Errorf("unexpected task queue %s", cfg.Temporal.TaskQueue)
	}
	if cfg.Security.RestrictUnknownTaxa {
		t.Error("unknown taxa should not be restricted by default")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("BIOHUB_SERVER_PORT", "9090")
	t.Setenv("BIOHUB_SECURITY_RESTRICT_UNKNOWN_TAXA", "true")
	t.Setenv("BIOHUB_DATABASE_MAX_CONNS", "25")

	cfg, err := config.Load("biohub-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if !cfg.Security.RestrictUnknownTaxa {
		t.Error("expected restrict_unknown_taxa from environment")
	}
	if cfg.Database.MaxConns != 25 {
		t.Errorf("expected max conns 25, got %d", cfg.Database.MaxConns)
	}
}

func TestValidate_AccumulatesErrors(t *testing.T) {
	cfg := &config.Config{Log: config.LogConfig{Format: "xml"}}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "database.host", "nats.url", "temporal.host_port", "log.format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestDatabaseDSN(t *testing.T) {
	d := config.DatabaseConfig{User: "u", Password: "p", Host: "db", Port: 5432, DBName: "biohub", SSLMode: "disable"}
	if got := d.DSN(); got != "postgres://u:p@db:5432/biohub?sslmode=disable" {
		t.Errorf("unexpected DSN %s", got)
	}
}

func TestParseSecurityRules_ExpandsEnv(t *testing.T) {
	t.Setenv("EXTRA_CODE", "B-MAMU")

	rules, err := config.ParseSecurityRules([]byte("denylist:\n  - M-ALAM\n  - ${EXTRA_CODE}\n  - \"  \"\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules.Denylist) != 2 || rules.Denylist[1] != "B-MAMU" {
		t.Errorf("unexpected denylist %v", rules.Denylist)
	}
	if rules.RestrictUnknownTaxa != nil {
		t.Error("posture should be unset when absent from the file")
	}
}

func TestParseSecurityRules_Empty(t *testing.T) {
	if _, err := config.ParseSecurityRules([]byte("denylist: []\n")); err == nil {
		t.Error("expected error for empty denylist")
	}
	if _, err := config.ParseSecurityRules([]byte("denylist: [")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestSecurityConfig_Denylist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("denylist: [M-ORAM]\nrestrict_unknown_taxa: true\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	codes, restrict, err := config.SecurityConfig{RulesFile: path}.Denylist()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(codes) != 1 || codes[0] != "M-ORAM" || !restrict {
		t.Errorf("unexpected rules %v restrict=%v", codes, restrict)
	}

	codes, restrict, err = config.SecurityConfig{RestrictUnknownTaxa: true}.Denylist()
	if err != nil || codes != nil || !restrict {
		t.Errorf("expected defaults without a rules file, got %v %v %v", codes, restrict, err)
	}

	if _, _, err := (config.SecurityConfig{RulesFile: filepath.Join(t.TempDir(), "missing.yaml")}).Denylist(); err == nil {
		t.Error("expected error for missing rules file")
	}
}
