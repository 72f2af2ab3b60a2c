// Command web starts the Mood-Music-Go JSON API. Configuration comes from
// environment variables, an optional .env file and an optional YAML file
// (CONFIG_PATH). Legacy journal data is migrated before the server accepts
// requests.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"Mood-Music-Go/pkg/applemusic"
	"Mood-Music-Go/pkg/claude"
	"Mood-Music-Go/pkg/config"
	"Mood-Music-Go/pkg/db"
	"Mood-Music-Go/pkg/handlers"
	"Mood-Music-Go/pkg/history"
	"Mood-Music-Go/pkg/metrics"
	"Mood-Music-Go/pkg/music"
	"Mood-Music-Go/pkg/openai"
	"Mood-Music-Go/pkg/spotify"
	"Mood-Music-Go/pkg/suggest"
)

var log = logrus.WithField("component", "main")

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}
	if err := configureLogging(cfg.Log); err != nil {
		logrus.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func configureLogging(c config.LogConfig) error {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logrus.SetLevel(level)
	if c.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// run serves until ctx is cancelled and then shuts down gracefully.
func run(ctx context.Context, cfg *config.Config) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app, cleanup, err := newApplication(ctx, cfg, reg)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      app.Routes(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// newApplication builds every dependency from cfg, migrates the journal and
// returns the handler set. cleanup releases the database, if any.
func newApplication(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*handlers.Application, func(), error) {
	persister, cleanup, err := openJournal(ctx, cfg.History)
	if err != nil {
		return nil, nil, err
	}
	store := history.NewStore(persister, cfg.History.MaxEntries)

	primary := &applemusic.Client{
		HTTP:    &http.Client{Timeout: cfg.Suggestion.RequestTimeout},
		BaseURL: cfg.Catalog.BaseURL,
		Country: cfg.Catalog.Country,
		Limit:   cfg.Catalog.SearchLimit,
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	n, err := store.Migrate(migrateCtx, primary, cfg.History.MigrationWorkers)
	cancel()
	if err != nil {
		// The journal stays at its old version and is migrated on the next
		// start.
		log.WithError(err).Warn("journal migration failed")
	} else if n > 0 {
		log.Infof("journal migrated to version %d", history.CurrentVersion)
	}

	m := metrics.New(reg)
	catalog := music.Catalog{Primary: primary, Observer: m}
	if cfg.Spotify.ClientID != "" {
		sc := spotify.New(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret)
		sc.Timeout = cfg.Suggestion.RequestTimeout
		catalog.Secondary = sc
	} else {
		log.Info("spotify credentials not set, spotify users get primary catalog metadata")
	}

	orch := &suggest.Orchestrator{
		Suggester: newSuggester(cfg),
		Catalog:   catalog,
		History:   store,
		Metrics:   m,
		Defaults: suggest.Options{
			MaxAttempts: cfg.Suggestion.MaxAttempts,
			Provider:    cfg.Suggestion.Provider(),
			Timeout:     cfg.Suggestion.RequestTimeout,
		},
	}
	return &handlers.Application{Suggestions: orch, History: store}, cleanup, nil
}

func newSuggester(cfg *config.Config) music.Suggester {
	if cfg.Text.Provider == config.TextAnthropic {
		if cfg.Text.AnthropicKey == "" {
			log.Warn("ANTHROPIC_API_KEY not set, suggestions will fail")
		}
		return claude.New(claude.Options{
			APIKey:    cfg.Text.AnthropicKey,
			Model:     cfg.Text.AnthropicModel,
			MaxTokens: cfg.Text.MaxTokens,
			Timeout:   cfg.Suggestion.RequestTimeout,
		})
	}
	if cfg.Text.OpenAIKey == "" {
		log.Warn("OPENAI_API_KEY not set, suggestions will fail")
	}
	return &openai.Client{
		APIKey:    cfg.Text.OpenAIKey,
		Model:     cfg.Text.OpenAIModel,
		BaseURL:   cfg.Text.OpenAIBaseURL,
		MaxTokens: cfg.Text.MaxTokens,
		Timeout:   cfg.Suggestion.RequestTimeout,
	}
}

// openJournal returns the configured persister. When switching to sqlite, an
// existing JSON journal at Path is imported into an empty database so no
// history is lost.
func openJournal(ctx context.Context, c config.HistoryConfig) (history.Persister, func(), error) {
	file := history.FilePersister{Path: c.Path}
	if c.Backend != config.BackendSQLite {
		return file, func() {}, nil
	}
	database, err := db.New(c.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("db init: %w", err)
	}
	if snap, err := file.Load(ctx); err == nil {
		imported, err := database.ImportSnapshot(ctx, snap)
		if err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("import journal: %w", err)
		}
		if imported {
			log.Infof("imported %d entries from %s", len(snap.Entries), c.Path)
		}
	} else {
		log.WithError(err).Warn("could not read JSON journal for import")
	}
	return database, func() { database.Close() }, nil
}
