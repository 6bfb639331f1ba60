package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/costwise/costwise/internal/ai"
	"github.com/costwise/costwise/internal/cache"
	"github.com/costwise/costwise/internal/config"
	"github.com/costwise/costwise/internal/engine"
	"github.com/costwise/costwise/internal/inventory"
	awsinv "github.com/costwise/costwise/internal/inventory/aws"
	"github.com/costwise/costwise/internal/logging"
	"github.com/costwise/costwise/internal/rulepacks"
	"github.com/costwise/costwise/internal/rules"
	"github.com/costwise/costwise/internal/store"
	"github.com/costwise/costwise/internal/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "costwise",
		Short: "Cloud cost recommendation engine",
	}
	root.AddCommand(newAdviseCmd())
	root.AddCommand(newSyncCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// app bundles the collaborators every database-backed command needs.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.PostgresStore
	close  func()
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	logger, err := logging.New(cfg.Logger)
	if err != nil {
		return nil, err
	}
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return &app{
		cfg:    cfg,
		logger: logger,
		store:  store.NewPostgresStore(pool),
		close: func() {
			pool.Close()
			_ = logger.Sync()
		},
	}, nil
}

func newAdviseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "advise",
		Short: "Recommendation engine commands",
	}
	cmd.AddCommand(newAdviseRunCmd())
	return cmd
}

func newAdviseRunCmd() *cobra.Command {
	var syncIDArg string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the rule engine against a completed sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			syncID, err := uuid.Parse(syncIDArg)
			if err != nil {
				return fmt.Errorf("invalid --sync-id: %w", err)
			}

			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			advisor := engine.NewOrchestrator(a.store, rulepacks.Discover(a.logger), engine.Options{
				Catalog:       buildCatalog(a),
				Thresholds:    a.cfg.Engine.Thresholds(),
				DisabledRules: a.cfg.Engine.DisabledRules,
				Describer:     buildDescriber(a),
				Logger:        a.logger,
			})

			summary, err := advisor.RunForSync(cmd.Context(), syncID)
			if err != nil {
				return fmt.Errorf("advisor run failed: %w", err)
			}
			return printJSON(summary)
		},
	}

	cmd.Flags().StringVar(&syncIDArg, "sync-id", "", "ID of the completed sync to advise on (required)")
	_ = cmd.MarkFlagRequired("sync-id")
	return cmd
}

// buildCatalog wraps the store's catalog in a Redis read-through cache when
// a Redis URL is configured.
func buildCatalog(a *app) rules.CatalogSource {
	if a.cfg.Redis.URL == "" {
		return nil
	}
	redisCache, err := cache.NewRedisCache(a.cfg.Redis.URL)
	if err != nil {
		a.logger.Warn("invalid Redis URL, catalog cache disabled", zap.Error(err))
		return nil
	}
	return cache.NewCachingCatalog(a.store, redisCache, a.cfg.Redis.CacheTTL, a.logger)
}

// buildDescriber constructs the AI description service, or nil when no
// provider is configured.
func buildDescriber(a *app) engine.Describer {
	if a.cfg.AI.Provider == "" {
		return nil
	}
	provider, err := ai.NewProvider(a.cfg.AI)
	if err != nil {
		a.logger.Warn("AI provider misconfigured, descriptions disabled", zap.Error(err))
		return nil
	}
	return ai.NewService(provider, a.cfg.AI.Timeout, a.logger)
}

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Inventory sync commands",
	}
	cmd.AddCommand(newSyncAWSCmd())
	return cmd
}

func newSyncAWSCmd() *cobra.Command {
	var (
		userIDArg     string
		providerIDArg string
	)

	cmd := &cobra.Command{
		Use:   "aws",
		Short: "Sync an AWS account's inventory into the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(userIDArg)
			if err != nil {
				return fmt.Errorf("invalid --user-id: %w", err)
			}
			providerID, err := uuid.Parse(providerIDArg)
			if err != nil {
				return fmt.Errorf("invalid --provider-id: %w", err)
			}

			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			collector, err := awsinv.NewCollector(cmd.Context(), a.cfg.AWS, a.logger)
			if err != nil {
				return err
			}

			sync, err := inventory.NewService(a.store, a.logger).Run(cmd.Context(), userID, providerID, collector)
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}
			return printJSON(sync)
		},
	}

	cmd.Flags().StringVar(&userIDArg, "user-id", "", "owner of the provider connection (required)")
	cmd.Flags().StringVar(&providerIDArg, "provider-id", "", "stable ID of the provider connection (required)")
	_ = cmd.MarkFlagRequired("user-id")
	_ = cmd.MarkFlagRequired("provider-id")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if err := store.RunMigrations(cfg.Database.URL, dir); err != nil {
				return err
			}
			fmt.Println("migrations applied")
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "migrations", "directory containing migration files")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(version.Info())
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
