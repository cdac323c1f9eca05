package scenario

import (
	"context"
	stderrors "errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/louisbranch/emberfall/internal/errors"
	"github.com/louisbranch/emberfall/internal/narrative"
	"github.com/louisbranch/emberfall/internal/storage/sqlite"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("scenario", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if !cfg.Assertions {
		t.Fatal("expected assertions to default to true")
	}
	if cfg.Verbose {
		t.Fatal("expected verbose to default to false")
	}
	if cfg.Locale != "en-US" {
		t.Fatalf("expected default locale en-US, got %q", cfg.Locale)
	}
}

func TestParseConfigEnvAndFlags(t *testing.T) {
	t.Setenv("EMBERFALL_SCENARIO_FILE", "env.lua")
	t.Setenv("EMBERFALL_SCENARIO_VERBOSE", "true")

	fs := flag.NewFlagSet("scenario", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-scenario", "flag.lua", "-assert=false"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Scenario != "flag.lua" {
		t.Fatalf("expected flag to win, got %q", cfg.Scenario)
	}
	if cfg.Assertions {
		t.Fatal("expected assertions disabled by flag")
	}
	if !cfg.Verbose {
		t.Fatal("expected verbose from env")
	}
}

func writeScript(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "run.lua")
	script := `local scene = Scenario.new("persist")
scene:world({seed = 101})
scene:travel()
scene:explore({threat = 7})
scene:rest()
return scene
`
	if err := os.WriteFile(path, []byte(script), 0o600); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestRunPersistsWorldAndTelemetry(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Scenario:   writeScript(t, dir),
		Assertions: true,
		Locale:     "en-US",
		DBPath:     filepath.Join(dir, "worlds.db"),
		WorldID:    "w1",
	}
	ctx := context.Background()

	if err := Run(ctx, cfg, io.Discard); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := Run(ctx, cfg, io.Discard); err != nil {
		t.Fatalf("second run: %v", err)
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	record, err := store.LoadWorld(ctx, "w1")
	if err != nil {
		t.Fatalf("load world: %v", err)
	}
	if record.Revision != 2 {
		t.Fatalf("revision = %d, want 2 after two runs", record.Revision)
	}
	state, _, err := narrative.DecodeState(record.Document)
	if err != nil {
		t.Fatalf("decode persisted document: %v", err)
	}
	if state.Turn != 3 {
		t.Fatalf("persisted turn = %d, want 3", state.Turn)
	}

	events, err := store.ListTelemetryEvents(ctx, "w1", 100)
	if err != nil {
		t.Fatalf("list telemetry: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("persisted run must record its side effects")
	}
}

func TestRunRejectsMissingWorldID(t *testing.T) {
	err := Run(context.Background(), Config{Scenario: "x.lua", DBPath: "worlds.db"}, io.Discard)
	var domainErr *errors.Error
	if !stderrors.As(err, &domainErr) || domainErr.Code != errors.CodeConfigInvalid {
		t.Fatalf("err = %v, want config error for missing world id", err)
	}
}

func TestRunRejectsMissingScenario(t *testing.T) {
	err := Run(context.Background(), Config{}, io.Discard)
	var domainErr *errors.Error
	if !stderrors.As(err, &domainErr) || domainErr.Code != errors.CodeConfigInvalid {
		t.Fatalf("err = %v, want config error for missing scenario", err)
	}
}
