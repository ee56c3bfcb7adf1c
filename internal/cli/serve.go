package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pipscope/internal/server"
	"github.com/matzehuels/pipscope/pkg/archive"
	"github.com/matzehuels/pipscope/pkg/integrations/pypi"
)

// newServeCmd creates the serve command.
func newServeCmd() *cobra.Command {
	var (
		addr          string
		maxConcurrent int64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the auditor over HTTP",
		Long: `Serve the auditor over HTTP.

POST /api/v1/audits runs an audit and returns the JSON export; GET
/api/v1/audits lists archived runs. Configuration comes from flags, the
environment (a .env file in the working directory is honored), and the
config file:

  PIPSCOPE_ADDR   listen address         (flag --addr wins)
  MONGO_URI       archive to MongoDB     (default: file archive)
  REDIS_ADDR      cache responses in Redis (default: file cache)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") {
				if v := os.Getenv("PIPSCOPE_ADDR"); v != "" {
					addr = v
				} else if cfg.Serve.Addr != "" {
					addr = cfg.Serve.Addr
				}
			}
			if !cmd.Flags().Changed("max-concurrent") && cfg.Serve.MaxConcurrent > 0 {
				maxConcurrent = cfg.Serve.MaxConcurrent
			}
			if v := os.Getenv("REDIS_ADDR"); v != "" {
				cfg.Cache.RedisAddr = v
			}

			return runServe(cmd.Context(), cfg, addr, maxConcurrent)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().Int64Var(&maxConcurrent, "max-concurrent", 4, "maximum concurrent audits")

	return cmd
}

func runServe(ctx context.Context, cfg *fileConfig, addr string, maxConcurrent int64) error {
	logger := loggerFromContext(ctx)

	client := pypi.NewClient(newCacheBackend(ctx, cfg, false, logger), cfg.cacheTTL())
	client.EnableRetry()

	store, err := newArchiveStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	srv := server.New(server.Config{
		Addr:          addr,
		MaxConcurrent: maxConcurrent,
		Source:        client,
		Archive:       store,
		Logger:        logger,
	})
	return srv.Run(ctx)
}

// newArchiveStore connects to MongoDB when configured and falls back
// to the file archive in the XDG data directory.
func newArchiveStore(ctx context.Context, cfg *fileConfig, logger *charmlog.Logger) (archive.Store, error) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = cfg.Serve.MongoURI
	}
	if uri != "" {
		store, err := archive.NewMongoStore(ctx, uri, cfg.Serve.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}
		logger.Info("archiving to MongoDB", "database", cfg.Serve.MongoDatabase)
		return store, nil
	}

	store, err := archive.NewFileStore(reportsDir())
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	logger.Info("archiving to files", "dir", store.Path())
	return store, nil
}
