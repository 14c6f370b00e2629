package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"orgmeet/internal/cli"
	"orgmeet/internal/client"
	"orgmeet/internal/logging"
)

func defaultCachePath() string {
	if v := os.Getenv("ORGMEET_CACHE_PATH"); v != "" {
		return v
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "orgmeet-cache.db"
	}
	return filepath.Join(dir, "orgmeet", "cache.db")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	apiURL := flag.String("api", envOr("ORGMEET_API_URL", "http://localhost:3000"), "orgmeet API base URL")
	cachePath := flag.String("cache", defaultCachePath(), "local SQLite cache file")
	logLevel := flag.String("log-level", envOr("ORGMEET_LOG_LEVEL", "error"), "log level")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(*cachePath), 0o700); err != nil {
		fmt.Fprintln(os.Stderr, "error: create cache dir:", err)
		os.Exit(1)
	}
	db, err := client.OpenCache(ctx, *cachePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: open cache:", err)
		os.Exit(1)
	}

	logger := logging.NewWithWriter(os.Stderr, *logLevel)
	api := client.NewAPI(*apiURL, nil)
	app := &cli.App{
		Sessions: client.NewSessionStore(db),
		Repo:     client.NewFallbackRepository(api, client.NewSnapshotStore(db), logger),
		API:      api,
		In:       bufio.NewReader(os.Stdin),
		Out:      os.Stdout,
		Err:      os.Stderr,
	}
	code := app.Run(ctx, flag.Args())
	db.Close()
	os.Exit(code)
}
