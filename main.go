package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"menu-service/api"
	"menu-service/config"
	"menu-service/db"
	"menu-service/tasks"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "menu-service",
		Short:         "Menu hierarchy API with spreadsheet sync",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newSyncCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, background workers and the sheet sync scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			ctx := cmd.Context()
			pool, err := db.Open(ctx, cfg.DB)
			if err != nil {
				return fmt.Errorf("db: %w", err)
			}
			defer pool.Close()

			if err := db.Migrate(ctx, pool); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			version, err := db.MigrationVersion(ctx, pool)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied. Version:", version)
			return nil
		},
	}
}

func newSyncCmd() *cobra.Command {
	var sheetPath, sheetName, baseURL string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sheet sync against a running API and print the report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if sheetPath != "" {
				cfg.Sync.SheetPath = sheetPath
			}
			if sheetName != "" {
				cfg.Sync.SheetName = sheetName
			}
			if baseURL != "" {
				cfg.Sync.BaseURL = baseURL
			}

			job, err := newSyncJob(cfg, cfg.Logger())
			if err != nil {
				return err
			}
			report, err := job.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("sync: %w", err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().StringVar(&sheetPath, "sheet", "", "workbook path (overrides SYNC_SHEET_PATH)")
	cmd.Flags().StringVar(&sheetName, "sheet-name", "", "worksheet name (overrides SYNC_SHEET_NAME)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "API base URL (overrides SYNC_BASE_URL)")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := cfg.Logger()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	c, err := openCache(cfg)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer c.Close()

	notifier := openNotifier(cfg, logger)

	var sched *tasks.Scheduler
	if cfg.Sync.Enabled {
		job, err := newSyncJob(cfg, logger)
		if err != nil {
			return err
		}
		sched = &tasks.Scheduler{
			Name:     "menu sync",
			Interval: cfg.Sync.Interval,
			Job:      syncTask(job),
			Notifier: notifier,
			Logger:   logger,
		}
	}

	queue := tasks.NewQueue(cfg.Tasks.Workers, cfg.Tasks.Buffer, logger)
	queue.Start(ctx)

	srv := api.NewServer(store, c, queue, notifier, logger).NewHTTPServer(cfg.HTTP.Addr)

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		logger.WithField("addr", cfg.HTTP.Addr).Info("http server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		queue.Close()
		logger.Info("http server stopped")
		return err
	})

	if sched != nil {
		eg.Go(func() error { return sched.Run(egctx) })
	}

	return eg.Wait()
}
