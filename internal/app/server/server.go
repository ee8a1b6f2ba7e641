// Package server hosts the HTTP surface: auth endpoints, reading submission
// and history, profile edits, and blob serving.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/cezi/internal/auth"
	"github.com/louisbranch/cezi/internal/auth/localauth"
	"github.com/louisbranch/cezi/internal/auth/token"
	"github.com/louisbranch/cezi/internal/divination"
	"github.com/louisbranch/cezi/internal/history"
	"github.com/louisbranch/cezi/internal/id"
	"github.com/louisbranch/cezi/internal/profile"
	"github.com/louisbranch/cezi/internal/storage/blobfs"
	"github.com/louisbranch/cezi/internal/storage/sqlite"
)

const blobsURLPrefix = "/blobs"

// Config collects everything the server needs to start.
type Config struct {
	HTTPAddr  string
	DBPath    string
	BlobDir   string
	LuaScript string
	Tokens    token.Config
}

// Server hosts the sync service over HTTP.
type Server struct {
	listener   net.Listener
	httpServer *http.Server
	store      *sqlite.Store
	blobs      *blobfs.Store
	tracker    *auth.Tracker
	history    *history.Synchronizer
	profiles   *profile.Synchronizer
	tracer     trace.Tracer
	detach     []func()
}

// New creates a configured server listening on cfg.HTTPAddr.
func New(cfg Config) (*Server, error) {
	listener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}

	store, err := openStore(cfg.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	blobs, err := blobfs.New(cfg.BlobDir, blobsURLPrefix)
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, err
	}

	engine, err := openEngine(cfg.LuaScript)
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, err
	}

	provider, err := localauth.New(localauth.Config{
		Users:       store,
		Sessions:    store,
		Tokens:      cfg.Tokens,
		IDGenerator: id.NewID,
	})
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, err
	}

	tracker, err := auth.NewTracker(provider)
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, err
	}

	readings, err := history.NewSynchronizer(store, engine, nil)
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, err
	}

	profiles, err := profile.NewSynchronizer(profile.Config{
		Store: store,
		Blobs: blobs,
	})
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, err
	}

	server := &Server{
		listener: listener,
		store:    store,
		blobs:    blobs,
		tracker:  tracker,
		history:  readings,
		profiles: profiles,
		tracer:   otel.Tracer("github.com/louisbranch/cezi/internal/app/server"),
	}
	server.detach = append(server.detach,
		readings.Attach(tracker),
		profiles.Attach(tracker),
	)

	mux := http.NewServeMux()
	server.registerRoutes(mux)
	server.httpServer = &http.Server{Handler: mux}

	return server, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a server until the context ends.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the server and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.close()

	log.Printf("cezi server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	handleErr := func(err error) error {
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve HTTP: %w", err)
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
		return handleErr(<-serveErr)
	case err := <-serveErr:
		return handleErr(err)
	}
}

func openStore(path string) (*sqlite.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = filepath.Join("data", "cezi.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	store, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return store, nil
}

func openEngine(luaScript string) (divination.Engine, error) {
	luaScript = strings.TrimSpace(luaScript)
	if luaScript == "" {
		return divination.NewTemplateEngine(), nil
	}
	engine, err := divination.NewLuaEngine(luaScript)
	if err != nil {
		return nil, fmt.Errorf("load divination script: %w", err)
	}
	return engine, nil
}

func (s *Server) close() {
	if s == nil {
		return
	}
	for _, detach := range s.detach {
		detach()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}
}
