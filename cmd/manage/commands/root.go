// Package commands implements the foodgram-manage admin tool: schema
// migrations and catalog data loads.
package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/dmitrijs2005/foodgram/internal/server/config"
	"github.com/dmitrijs2005/foodgram/internal/server/repositories/repomanager"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	dsn        string
)

var rootCmd = &cobra.Command{
	Use:   "foodgram-manage",
	Short: "Foodgram administration commands",
	Long: `Administration commands for the Foodgram server.

Connection settings come from the same sources as the server: an optional
config file (--config), .env and FOODGRAM_* variables. --dsn overrides the
database DSN.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (JSON or TOML)")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "PostgreSQL DSN, overrides the configured one")

	rootCmd.AddCommand(migrateCmd, loadIngredientsCmd, loadTagsCmd)
}

// loadConfig resolves settings without looking at the command line, which
// belongs to cobra.
func loadConfig() (*config.Config, error) {
	var args []string
	if configFile != "" {
		args = []string{"-c", configFile}
	}

	cfg, err := config.LoadConfig(args)
	if err != nil {
		return nil, err
	}
	if dsn != "" {
		cfg.DatabaseDSN = dsn
	}
	return cfg, nil
}

// openDB connects and brings the schema up to date.
func openDB(ctx context.Context) (*sql.DB, *repomanager.PostgresRepositoryManager, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("connect: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return db, m, nil
}
