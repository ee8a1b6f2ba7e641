package server

import (
	"flag"
	"path/filepath"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil, func(string) (string, bool) { return "", false })
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.HTTPAddr != "localhost:8080" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.DBPath != filepath.Join("data", "cezi.db") {
		t.Fatalf("DBPath = %q", cfg.DBPath)
	}
	if cfg.BlobDir != filepath.Join("data", "blobs") {
		t.Fatalf("BlobDir = %q", cfg.BlobDir)
	}
	if cfg.LuaScript != "" {
		t.Fatalf("LuaScript = %q", cfg.LuaScript)
	}
}

func TestParseConfigEnvOverrides(t *testing.T) {
	env := map[string]string{
		"CEZI_HTTP_ADDR":         "localhost:9999",
		"CEZI_DB_PATH":           "/tmp/cezi.db",
		"CEZI_DIVINATION_SCRIPT": "/etc/cezi/interpret.lua",
	}
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil, func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	})
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.HTTPAddr != "localhost:9999" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.DBPath != "/tmp/cezi.db" {
		t.Fatalf("DBPath = %q", cfg.DBPath)
	}
	if cfg.LuaScript != "/etc/cezi/interpret.lua" {
		t.Fatalf("LuaScript = %q", cfg.LuaScript)
	}
}

func TestParseConfigFlagsWinOverEnv(t *testing.T) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-http-addr", "localhost:7777"}, func(key string) (string, bool) {
		if key == "CEZI_HTTP_ADDR" {
			return "localhost:9999", true
		}
		return "", false
	})
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.HTTPAddr != "localhost:7777" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
}

func TestParseConfigBadFlag(t *testing.T) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	if _, err := ParseConfig(fs, []string{"-no-such-flag"}, nil); err == nil {
		t.Fatal("ParseConfig() expected error for unknown flag")
	}
}
