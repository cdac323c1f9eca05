// Package scenario parses scenario command flags, runs a Lua scenario
// against the in-process narrative engine, and optionally persists the
// resulting world.
package scenario

import (
	"context"
	stderrors "errors"
	"flag"
	"io"
	"log"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/louisbranch/emberfall/internal/errors"
	"github.com/louisbranch/emberfall/internal/narrative"
	"github.com/louisbranch/emberfall/internal/platform/config"
	platformotel "github.com/louisbranch/emberfall/internal/platform/otel"
	"github.com/louisbranch/emberfall/internal/storage"
	"github.com/louisbranch/emberfall/internal/storage/sqlite"
	"github.com/louisbranch/emberfall/internal/telemetry"
	"github.com/louisbranch/emberfall/internal/tools/scenario"
)

// Config holds scenario command configuration.
type Config struct {
	Scenario   string `env:"EMBERFALL_SCENARIO_FILE"`
	Assertions bool   `env:"EMBERFALL_SCENARIO_ASSERT"  envDefault:"true"`
	Verbose    bool   `env:"EMBERFALL_SCENARIO_VERBOSE"`
	Locale     string `env:"EMBERFALL_LOCALE"           envDefault:"en-US"`
	DBPath     string `env:"EMBERFALL_DB_PATH"`
	WorldID    string `env:"EMBERFALL_WORLD_ID"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Scenario, "scenario", cfg.Scenario, "path to scenario lua file")
	fs.BoolVar(&cfg.Assertions, "assert", cfg.Assertions, "enable assertions (disable to log expectations)")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable verbose logging")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "locale for flavor output")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "sqlite database to persist the resulting world (optional)")
	fs.StringVar(&cfg.WorldID, "world", cfg.WorldID, "world id to persist under")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the scenario command.
func Run(ctx context.Context, cfg Config, errOut io.Writer) error {
	if errOut == nil {
		errOut = io.Discard
	}
	if cfg.Scenario == "" {
		return errors.New(errors.CodeConfigInvalid, "scenario path is required")
	}
	if cfg.DBPath != "" && cfg.WorldID == "" {
		return errors.New(errors.CodeConfigInvalid, "world id is required to persist a run")
	}

	shutdown, err := platformotel.Setup(ctx, "scenario")
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	mode := scenario.AssertionStrict
	if !cfg.Assertions {
		mode = scenario.AssertionLogOnly
	}

	runCtx, span := otel.Tracer("emberfall/scenario").Start(ctx, "scenario.run")
	defer span.End()

	logger := log.New(errOut, "", 0)
	runner := scenario.NewRunner(scenario.Config{
		Assertions: mode,
		Verbose:    cfg.Verbose,
		Locale:     cfg.Locale,
		Logger:     logger,
	})
	parsed, err := scenario.LoadScenarioFromFile(cfg.Scenario)
	if err != nil {
		return err
	}
	if err := runner.RunScenario(runCtx, parsed); err != nil {
		return err
	}
	if cfg.DBPath == "" {
		return nil
	}
	return persistRun(runCtx, cfg, runner)
}

// persistRun saves the final world document under the revision discipline
// and records the run's side effects as telemetry.
func persistRun(ctx context.Context, cfg Config, runner *scenario.Runner) error {
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return errors.Wrap(errors.CodeStorageFailed, "open world database", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}()

	document, err := narrative.EncodeState(runner.State())
	if err != nil {
		return err
	}
	record := storage.WorldRecord{
		WorldID:       cfg.WorldID,
		SchemaVersion: narrative.SchemaVersion,
		Document:      document,
	}
	existing, err := store.LoadWorld(ctx, cfg.WorldID)
	switch {
	case err == nil:
		record.Revision = existing.Revision
	case stderrors.Is(err, storage.ErrNotFound):
		// First save for this world: revision 0 creates the row.
	default:
		return errors.Wrap(errors.CodeStorageFailed, "load world", err)
	}
	if _, err := store.SaveWorld(ctx, record); err != nil {
		if stderrors.Is(err, storage.ErrStaleRevision) {
			return errors.Wrap(errors.CodeStaleRevision, "another writer updated the world", err)
		}
		return errors.Wrap(errors.CodeStorageFailed, "save world", err)
	}
	if err := telemetry.NewEmitter(store).EmitEffects(ctx, cfg.WorldID, runner.Effects()); err != nil {
		return errors.Wrap(errors.CodeStorageFailed, "record telemetry", err)
	}
	return nil
}
