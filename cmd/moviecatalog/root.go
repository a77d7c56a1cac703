package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-movie-catalog/internal/config"
	"github.com/tbourn/go-movie-catalog/internal/sysutil"
)

// appContext carries state resolved once before any subcommand runs.
type appContext struct {
	envFile  string
	logLevel string
	cfg      config.Config
}

func newRootCommand() *cobra.Command {
	app := &appContext{}

	rootCmd := &cobra.Command{
		Use:           "moviecatalog",
		Short:         "Personal movie catalogs, wish lists and weekly new releases",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&app.envFile, "env-file", ".env", "Dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "Override LOG_LEVEL")

	rootCmd.AddCommand(newServeCommand(app))
	rootCmd.AddCommand(newIngestCommand(app))
	rootCmd.AddCommand(newMigrateCommand(app))

	return rootCmd
}

// load reads the dotenv file, the configuration and sets up logging.
func (a *appContext) load() error {
	if err := loadEnvFile(a.envFile); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.LogLevel = sysutil.FirstNonEmpty(a.logLevel, cfg.LogLevel)
	a.cfg = cfg

	sysutil.SetupLogger(os.Stderr, cfg.LogPretty, sysutil.IsTruthy(os.Getenv("NO_COLOR")))
	sysutil.SetLogLevel(cfg.LogLevel)
	return nil
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
