package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AI2HU/bulletcalc/internal/config"
	"github.com/AI2HU/bulletcalc/internal/db"
	"github.com/AI2HU/bulletcalc/internal/db/mongodb"
	"github.com/AI2HU/bulletcalc/internal/db/sqlite"
	"github.com/AI2HU/bulletcalc/internal/logger"
	"github.com/AI2HU/bulletcalc/internal/models"
)

// Version is set at build time
var Version = "dev"

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "bulletcalc",
	Short: "Ballistic trajectory calculator and API server",
	Long: `bulletcalc solves external ballistics for small-arms projectiles and serves
the results over a REST API.

User accounts and sessions live in SQLite. Calculation history and saved
ammunition profiles live in MongoDB; when MongoDB is unreachable the server
still starts and answers calculations without saving them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init writes the config file, it must not require one
		if cmd.Name() == "init" {
			return nil
		}

		path := cfgFile
		if path == "" {
			path = config.GetConfigPath()
		}

		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.LogLevel
		if logLevel != "" {
			level = logLevel
		}
		logger.InitWithFormat(logger.ParseLogLevel(level), os.Stderr, logger.Format(cfg.LogFormat))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		_ = logger.Sync()
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.bulletcalc/config.yaml or $"+config.ConfigPathEnv+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (DEBUG, INFO, WARNING, ERROR)")

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(calcCmd)
	rootCmd.AddCommand(checkCmd)
}

func sqlConfig(c *config.Config) *models.Config {
	return &models.Config{
		Provider: c.SQLDatabase.Provider,
		URI:      c.SQLDatabase.URI,
		Options:  c.SQLDatabase.Options,
	}
}

func mongoConfig(c *config.Config) *models.MongoConfig {
	return &models.MongoConfig{
		Database:   c.NoSQLDatabase.Database,
		Host:       c.NoSQLDatabase.Host,
		Port:       c.NoSQLDatabase.Port,
		Username:   c.NoSQLDatabase.Username,
		Password:   c.NoSQLDatabase.Password,
		AuthSource: c.NoSQLDatabase.AuthSource,
		Timeout:    c.NoSQLDatabase.Timeout,
	}
}

// openSQL connects to the relational store only
func openSQL(ctx context.Context) (*sqlite.SQLite, error) {
	if cfg.SQLDatabase.Provider != "sqlite" {
		return nil, fmt.Errorf("unsupported SQL database provider: %s", cfg.SQLDatabase.Provider)
	}
	store, err := sqlite.New(sqlConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite database: %w", err)
	}
	if err := store.Connect(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// openDatabase connects SQLite and makes a best-effort attempt at MongoDB
func openDatabase(ctx context.Context) (*db.Hybrid, error) {
	if cfg.SQLDatabase.Provider != "sqlite" {
		return nil, fmt.Errorf("unsupported SQL database provider: %s", cfg.SQLDatabase.Provider)
	}
	sqlStore, err := sqlite.New(sqlConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite database: %w", err)
	}
	docStore, err := mongodb.New(mongoConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create MongoDB client: %w", err)
	}

	database := db.New(sqlStore, docStore, cfg.NoSQLDatabase.Database)
	if err := database.Connect(ctx); err != nil {
		return nil, err
	}
	return database, nil
}
