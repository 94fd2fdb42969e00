// Copyright (c) 2025 GPAI
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the GPAI CLI.
// Commands share one App built before the first subcommand runs; the session
// it carries is hydrated exactly once per process.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gpai/cli/internal/authapi"
	"gpai/cli/internal/config"
	"gpai/cli/internal/logging"
	"gpai/cli/internal/session"
	"gpai/cli/internal/storage"
)

// skipSetup marks commands that run without config or session.
const skipSetup = "gpai/skip-setup"

// App is the per-process context handed to every command.
type App struct {
	Config  config.Config
	Log     *zap.Logger
	Store   storage.Store
	Session *session.Manager
	Auth    authapi.API
}

type globalFlags struct {
	apiURL      string
	storage     string
	verbose     bool
	showVersion bool
}

// setup loads configuration and restores the persisted session. A store that
// cannot be opened is not fatal: the session simply starts logged out.
func (a *App) setup(f *globalFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if f.apiURL != "" {
		cfg.APIURL = f.apiURL
	}
	if f.storage != "" {
		cfg.Storage.Backend = strings.ToLower(f.storage)
	}

	log, err := logging.New(cfg.LogLevel, f.verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store, err := storage.Open(cfg.Storage, log)
	if err != nil {
		log.Warn("continuing without credential store", zap.Error(err))
		store = nil
	}

	a.Config = cfg
	a.Log = log
	a.Store = store
	a.Session = session.NewManager(store, session.WithLogger(log))
	a.Session.Hydrate()
	a.Auth = authapi.New(cfg.APIURL,
		authapi.WithLogger(log),
		authapi.WithTimeout(cfg.Timeout()),
		authapi.WithUserAgent("gpai-cli/"+Version),
	)
	log.Debug("session ready",
		zap.String("access", a.Session.GuardedAccess().String()),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("api_url", cfg.APIURL),
	)
	return nil
}

func (a *App) close() {
	if c, ok := a.Store.(io.Closer); ok {
		_ = c.Close()
	}
	if a.Log != nil {
		_ = a.Log.Sync()
	}
}

// newRootCmd wires commands to app. An app that already carries a session is
// used as is.
func newRootCmd(app *App) *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "gpai",
		Short:         "GPAI CLI: sign in and manage your session",
		Long:          `gpai signs you in to the GPAI auth service and keeps the session in your OS keychain (or Redis) between runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipSetup] != "" || app.Session != nil {
				return nil
			}
			if cmd == cmd.Root() && flags.showVersion {
				return nil
			}
			return app.setup(flags)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.showVersion {
				printVersion(cmd.OutOrStdout())
				return nil
			}
			return cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.apiURL, "api-url", "", "auth service base URL (overrides GPAI_API_URL)")
	pf.StringVar(&flags.storage, "storage", "", "credential store: keyring, redis or memory")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging to stderr")
	root.Flags().BoolVar(&flags.showVersion, "version", false, "Show CLI version")

	root.AddCommand(
		newLoginCmd(app),
		newRegisterCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newStatusCmd(app),
		newRefreshCmd(app),
		newProfileCmd(app),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

// execute runs root and releases what app opened, whatever the outcome.
func execute(ctx context.Context, app *App, root *cobra.Command) error {
	defer app.close()
	return root.ExecuteContext(ctx)
}

// Execute runs the CLI application.
func Execute() {
	app := &App{}
	if err := execute(context.Background(), app, newRootCmd(app)); err != nil {
		fmt.Fprintln(os.Stderr, logging.PresentError("Error", err))
		os.Exit(1)
	}
}
