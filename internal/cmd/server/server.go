// Package server holds the server command's flag and env plumbing.
package server

import (
	"context"
	"flag"
	"path/filepath"
	"strings"

	app "github.com/louisbranch/cezi/internal/app/server"
	"github.com/louisbranch/cezi/internal/auth/token"
	platformcmd "github.com/louisbranch/cezi/internal/platform/cmd"
)

// Config holds server command configuration.
type Config struct {
	HTTPAddr  string
	DBPath    string
	BlobDir   string
	LuaScript string
}

// EnvLookup returns the value for a key when present.
type EnvLookup func(string) (string, bool)

// ParseConfig parses flags into a Config, with env values as defaults.
func ParseConfig(fs *flag.FlagSet, args []string, lookup EnvLookup) (Config, error) {
	cfg := Config{
		HTTPAddr:  envOrDefault(lookup, "CEZI_HTTP_ADDR", "localhost:8080"),
		DBPath:    envOrDefault(lookup, "CEZI_DB_PATH", filepath.Join("data", "cezi.db")),
		BlobDir:   envOrDefault(lookup, "CEZI_BLOB_DIR", filepath.Join("data", "blobs")),
		LuaScript: envOrDefault(lookup, "CEZI_DIVINATION_SCRIPT", ""),
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The HTTP server address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "Path to the SQLite database file")
	fs.StringVar(&cfg.BlobDir, "blob-dir", cfg.BlobDir, "Directory for uploaded blobs")
	fs.StringVar(&cfg.LuaScript, "divination-script", cfg.LuaScript, "Optional Lua script overriding the canned interpretation")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the server with telemetry configured from the environment.
func Run(ctx context.Context, cfg Config) error {
	tokens, err := token.LoadConfigFromEnv(nil)
	if err != nil {
		return err
	}
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceServer, func(ctx context.Context) error {
		return app.Run(ctx, app.Config{
			HTTPAddr:  cfg.HTTPAddr,
			DBPath:    cfg.DBPath,
			BlobDir:   cfg.BlobDir,
			LuaScript: cfg.LuaScript,
			Tokens:    tokens,
		})
	})
}

func envOrDefault(lookup EnvLookup, key, fallback string) string {
	if lookup == nil {
		return fallback
	}
	value, ok := lookup(key)
	if !ok {
		return fallback
	}
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	return trimmed
}
