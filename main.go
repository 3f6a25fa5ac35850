package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/danielhkuo/itemboard/app"
	"github.com/danielhkuo/itemboard/auth"
	"github.com/danielhkuo/itemboard/cliparse"
	"github.com/danielhkuo/itemboard/db"
	"github.com/danielhkuo/itemboard/middleware"
	"github.com/danielhkuo/itemboard/query"
	"github.com/danielhkuo/itemboard/router"
	"github.com/danielhkuo/itemboard/store"
)

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The REST store asks the session for its bearer token on every request
	var sessions *auth.Manager
	token := func() string {
		if sessions == nil {
			return ""
		}
		return sessions.Token()
	}

	// Connect to the backing store
	var backend store.Store
	if cfg.UseBackend() {
		httpClient := &http.Client{
			Transport: middleware.LogTransport(nil),
			Timeout:   30 * time.Second,
		}
		backend = store.NewREST(cfg.BackendURL, cfg.BackendKey,
			store.WithHTTPClient(httpClient),
			store.WithAccessToken(token),
		)
		slog.Info("Using hosted backend", "url", cfg.BackendURL)
	} else {
		sqlStore, err := store.OpenSQL(ctx, cfg.DatabaseType, cfg.DatabaseURL)
		if err != nil {
			slog.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		defer sqlStore.Close()
		backend = sqlStore
		slog.Info("Database schema ready", "type", cfg.DatabaseType)
	}

	// One query cache for the whole session
	queries := query.New(query.WithLogger(slog.Default()))
	client := db.New(middleware.WithLogging(backend), queries)
	sessions = auth.NewManager(client.Users)

	hist, err := router.NewMemoryHistory(cfg.StartPath)
	if err != nil {
		slog.Error("invalid start path", "path", cfg.StartPath, "error", err)
		os.Exit(1)
	}

	var opts []router.Option
	if isatty.IsTerminal(os.Stdout.Fd()) {
		opts = append(opts, router.WithScroller(router.ScrollFunc(func(x, y int) {
			// Home the cursor and clear the screen
			fmt.Fprint(os.Stdout, "\033[H\033[2J")
		})))
	}

	application := app.New(cfg, client, sessions, hist, os.Stdout, opts...)
	defer application.Close()

	go collect(ctx, queries)

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() {
		done <- application.Run(ctx, os.Stdin)
	}()

	select {
	case err = <-done:
	case <-ctrlc:
		// Wait for Ctrl-C signal
		cancel()
	}

	if err != nil {
		slog.Error("Session ended", "error", err)
		return
	}
	slog.Info("Session ended")
}

// collect evicts idle cache entries until ctx is done
func collect(ctx context.Context, queries *query.Client) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := queries.Collect(); n > 0 {
				slog.Debug("evicted idle queries", "count", n)
			}
		}
	}
}
