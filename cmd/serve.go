package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matchday-hq/matchday/internal/api"
	"github.com/matchday-hq/matchday/internal/build"
	"github.com/matchday-hq/matchday/internal/config"
	"github.com/matchday-hq/matchday/internal/detector"
	"github.com/matchday-hq/matchday/internal/eventbus"
	"github.com/matchday-hq/matchday/internal/logger"
	"github.com/matchday-hq/matchday/internal/metrics"
	"github.com/matchday-hq/matchday/internal/notification"
	"github.com/matchday-hq/matchday/internal/resolve"
	"github.com/matchday-hq/matchday/internal/scheduler"
	"github.com/matchday-hq/matchday/internal/searchindex"
	"github.com/matchday-hq/matchday/internal/server"
	"github.com/matchday-hq/matchday/internal/service"
	"github.com/matchday-hq/matchday/internal/storage"
	"github.com/matchday-hq/matchday/internal/upstream"
)

// NewServeCmd returns the "serve" subcommand that starts the sync service.
func NewServeCmd(cfg *config.AppConfig) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the matchday synchronization service",
		Long: `Start the HTTP API server and the background detection scheduler.
State is persisted under the data directory (default ~/.matchday).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// CLI flags override env config.
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			logFile := filepath.Join(cfg.LogDir(), "system.log")
			fmt.Printf("Matchday %s listening on http://localhost:%d\n", build.Version, cfg.Port)
			fmt.Printf("Logs: %s\n", logFile)

			if err := runServe(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "An error occurred. Please check the logs at: %s\n", logFile)
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", cfg.Port, "HTTP server port (overrides PORT env var)")

	return cmd
}

func runServe(cfg *config.AppConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := os.MkdirAll(cfg.LogDir(), 0750); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	sysLogger, err := logger.NewSystemLogger(cfg.LogDir(), cfg.SlogLevel())
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	sysLogger.Info("matchday starting",
		slog.Int("port", cfg.Port),
		slog.String("data_dir", cfg.DataDir),
		slog.String("version", build.Version),
		slog.String("commit", build.CommitSHA),
		slog.String("build_date", build.BuildDate),
	)

	db, created, err := storage.NewSQLiteDB(cfg.DBPath(), sysLogger)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()
	if created {
		sysLogger.Info("created new database", "path", cfg.DBPath())
	}

	// One-time migration of the legacy file-per-key state directory.
	if err := storage.MigrateFileState(db, cfg.StateDir(), sysLogger); err != nil {
		sysLogger.Warn("legacy state migration failed, continuing with empty state", "error", err)
	}

	kv := storage.NewSQLiteKVStore(db)
	clock := storage.SystemClock

	inbox := notification.NewStore(kv, clock, cfg.NotificationCap, sysLogger)
	inbox.Load()

	index := searchindex.New(kv, clock, cfg.SearchIndexMaxAge(), sysLogger)
	index.Load()

	leagues, err := config.LoadLeagueRegistry(cfg.LeaguesFile())
	if err != nil {
		return fmt.Errorf("loading league registry: %w", err)
	}
	seedSearchIndex(index, leagues)

	upstreamClient := upstream.NewHTTPClient(cfg.UpstreamBaseURL, cfg.UpstreamAPIKey, cfg.UpstreamTimeout())

	m := metrics.New()
	resolver := resolve.NewCompetitionResolver(upstreamClient, m)

	bus := eventbus.New(0, sysLogger)
	defer bus.Close()

	emailHandler := notification.NewHandler(func() (*notification.Settings, error) {
		return service.LoadSettings(kv)
	}, nil, sysLogger)
	bus.Subscribe(emailHandler.Handle)

	engine := detector.New(detector.Config{
		Client:          upstreamClient,
		Store:           inbox,
		Bus:             bus,
		Metrics:         m,
		Clock:           clock,
		Logger:          sysLogger,
		Lookahead:       cfg.UpcomingLookahead(),
		NotificationTTL: cfg.NotificationTTL(),
		FetchTimeout:    cfg.UpstreamTimeout(),
	})

	sched, err := scheduler.New(scheduler.Config{
		Engine:       engine,
		Logger:       sysLogger,
		PollInterval: cfg.PollInterval(),
		CycleTimeout: cfg.PollInterval(),
	})
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer func() { _ = sched.Stop() }()

	notificationSvc := service.NewNotificationService(inbox, kv, clock, sysLogger)

	apiSrv := api.New(notificationSvc, index, resolver, upstreamClient, engine, leagues, sysLogger)
	srv := server.New(apiSrv, m, cfg.CORSOrigins, cfg.Port, sysLogger)

	sysLogger.Info("server ready", "url", fmt.Sprintf("http://localhost:%d", cfg.Port))

	return srv.Run(ctx)
}

// seedSearchIndex registers the configured organizations and competitions so
// search works before any API traffic has populated the index.
func seedSearchIndex(index *searchindex.Index, leagues *config.LeagueRegistry) {
	var entities []searchindex.Entity
	for _, org := range leagues.All() {
		for _, comp := range org.Competitions {
			entities = append(entities, searchindex.Entity{
				Type: searchindex.EntityCompetition,
				ID:   org.Key + "/" + comp.Key,
				Name: org.Name + " " + comp.Name,
				Link: fmt.Sprintf("/leagues/%s/competitions/%s", org.Key, comp.Key),
			})
		}
	}
	if len(entities) > 0 {
		index.Register(entities)
	}
}
