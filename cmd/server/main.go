package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/counsellor-web/backend"
	"github.com/jrsteele09/counsellor-web/internal/config"
	"github.com/jrsteele09/counsellor-web/server"
	"github.com/jrsteele09/counsellor-web/sessions"
	"github.com/jrsteele09/counsellor-web/sessions/memstore"
	"github.com/jrsteele09/counsellor-web/sessions/redisstore"
	"github.com/jrsteele09/counsellor-web/sessions/sqlitestore"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const purgeInterval = time.Hour

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return fmt.Errorf("config.New: %w", err)
	}
	setupLogging(c)
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, err := openSessionRepo(ctx, c)
	if err != nil {
		return err
	}
	manager := sessions.NewManager(c.GetSessionNamespace(), repo, sessions.WithIdleTTL(c.GetSessionIdleTTL()))
	defer func() {
		if err := manager.Close(); err != nil {
			log.Err(err).Msg("Failed to close session repo")
		}
	}()
	go manager.Run(ctx)

	api := backend.New(c.GetBackendURL(), backend.WithTimeout(c.GetBackendTimeout()))
	handler, err := server.New(c, manager, api)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	srv := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() { errs <- listenAndServe(srv) }()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(srv)
}

func setupLogging(c config.Config) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// openSessionRepo connects the configured session backend
func openSessionRepo(ctx context.Context, c config.Config) (sessions.Repo, error) {
	switch c.GetSessionBackend() {
	case config.SessionBackendMemory:
		log.Warn().Msg("Sessions are kept in memory and will not survive a restart")
		return memstore.New(), nil

	case config.SessionBackendRedis:
		repo, err := redisstore.Dial(ctx, c.GetRedisURL(), redisstore.WithTTL(c.GetSessionTTL()))
		if err != nil {
			return nil, fmt.Errorf("redisstore.Dial: %w", err)
		}
		log.Info().Msg("Sessions stored in redis")
		return repo, nil

	default:
		path := c.GetSessionSQLitePath()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create session directory: %w", err)
		}
		repo, err := sqlitestore.Open(path, sqlitestore.WithTTL(c.GetSessionTTL()))
		if err != nil {
			return nil, fmt.Errorf("sqlitestore.Open: %w", err)
		}
		go purgeExpired(ctx, repo)
		log.Info().Str("path", path).Msg("Sessions stored in sqlite")
		return repo, nil
	}
}

func purgeExpired(ctx context.Context, repo *sqlitestore.Store) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.PurgeExpired(ctx)
			if err != nil {
				log.Err(err).Msg("Failed to purge expired sessions")
				continue
			}
			if n > 0 {
				log.Debug().Int64("purged", n).Msg("Purged expired sessions")
			}
		}
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
