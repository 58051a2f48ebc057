package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/dental-api/internal/config"
	"github.com/jwalitptl/dental-api/internal/repository"
	"github.com/jwalitptl/dental-api/internal/repository/backend"
	"github.com/jwalitptl/dental-api/internal/store"
	"github.com/jwalitptl/dental-api/pkg/logger"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	configDir string
	driver    string
	dataDir   string
	verbose   bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "dentalctl",
		Short:         "Maintain the dental clinic state",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configDir, "config", "", "directory holding config.yaml (default . and ./config)")
	root.PersistentFlags().StringVar(&opts.driver, "driver", "", "override storage.driver")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "override storage.file.dir")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log store activity to stderr")

	root.AddCommand(
		newSeedCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
		newStatsCmd(opts),
		newBackupCmd(opts),
	)
	return root
}

func (o *options) loadConfig() (*config.Config, error) {
	var paths []string
	if o.configDir != "" {
		paths = append(paths, o.configDir)
	}
	cfg, err := config.LoadConfig(paths...)
	if err != nil {
		return nil, err
	}
	if o.driver != "" {
		cfg.Storage.Driver = o.driver
	}
	if o.dataDir != "" {
		cfg.Storage.File.Dir = o.dataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *options) logger(w io.Writer) zerolog.Logger {
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	return logger.New(logger.Config{Level: level, Format: "console", Output: w})
}

// openStore loads the configured backend into a ready store. The returned
// func closes the backend.
func (o *options) openStore(ctx context.Context, cmd *cobra.Command) (*store.Store, *config.Config, func(), error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	repo, err := backend.Open(ctx, cfg.Storage, nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}
	st := store.New(
		repository.NewSnapshots(repo, cfg.Storage.Prefix),
		store.WithLogger(o.logger(cmd.ErrOrStderr())),
	)
	if err := st.Load(ctx); err != nil {
		_ = repo.Close()
		return nil, nil, nil, fmt.Errorf("failed to load state: %w", err)
	}
	return st, cfg, func() { _ = repo.Close() }, nil
}
