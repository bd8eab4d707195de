package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pageboundapp/pagebound-server/internal/config"
	"github.com/pageboundapp/pagebound-server/internal/di/providers"
	"github.com/pageboundapp/pagebound-server/internal/logger"
	"github.com/pageboundapp/pagebound-server/internal/remote"
	"github.com/pageboundapp/pagebound-server/internal/store"
)

// app is the per-invocation environment shared by every subcommand.
type app struct {
	out    io.Writer
	logger *slog.Logger
	store  store.Store
	remote *remote.Adapter

	// Persistent flags, forwarded to config.LoadConfig.
	backend  string
	dataPath string
	dsn      string
	envFile  string
	logLevel string
	asJSON   bool
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "pagectl",
		Short:         "Operate on a Pagebound data store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.backend, "storage-backend", "", "Persistence backend (sqlite, badger, postgres)")
	flags.StringVar(&a.dataPath, "data-path", "", "Directory for local data (default: ~/.pagebound)")
	flags.StringVar(&a.dsn, "database-url", "", "Postgres connection string")
	flags.StringVar(&a.envFile, "env-file", ".env", "Path to .env file")
	flags.StringVar(&a.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flags.BoolVar(&a.asJSON, "json", false, "Print results as JSON")

	root.AddCommand(
		newSeedCmd(a),
		newBooksCmd(a),
		newGroupsCmd(a),
		newAnnotationsCmd(a),
	)
	return root
}

// open loads configuration the way the server does and opens the store.
func (a *app) open() error {
	args := []string{"-env-file", a.envFile, "-log-level", a.logLevel}
	if a.backend != "" {
		args = append(args, "-storage-backend", a.backend)
	}
	if a.dataPath != "" {
		args = append(args, "-data-path", a.dataPath)
	}
	if a.dsn != "" {
		args = append(args, "-database-url", a.dsn)
	}

	cfg, err := config.LoadConfig(args)
	if err != nil {
		return err
	}

	a.logger = logger.New(logger.Config{
		Writer:      os.Stderr,
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	a.store, err = providers.OpenStore(cfg.Storage, a.logger)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Storage.Backend, err)
	}
	a.remote = remote.New(a.store, a.logger)
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
