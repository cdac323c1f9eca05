// Package mcp parses MCP command flags and serves the read-only narrative
// tools on stdio.
package mcp

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/louisbranch/emberfall/internal/mcp"
	"github.com/louisbranch/emberfall/internal/platform/config"
	"github.com/louisbranch/emberfall/internal/platform/otel"
	"github.com/louisbranch/emberfall/internal/storage/sqlite"
)

// Config holds MCP command configuration.
type Config struct {
	DBPath string `env:"EMBERFALL_DB_PATH" envDefault:"emberfall.db"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "path to the narrative sqlite database")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP protocol adapter.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "mcp")
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

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}()

	return mcp.NewServer(store).Serve(ctx)
}
