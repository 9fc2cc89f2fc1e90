package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AI2HU/bulletcalc/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage SQLite schema migrations",
	Long:  `Apply or inspect the embedded SQLite migrations for users and sessions.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Run all pending migrations",
	Long:  `Apply all pending database migrations.`,
	RunE:  runMigrateUp,
}

var migrateVersionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"status"},
	Short:   "Show current migration version",
	Long:    `Show the current database migration version.`,
	RunE:    runMigrateVersion,
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	fmt.Println("🔄 Running database migrations...")

	// Connect applies pending migrations
	ctx := context.Background()
	store, err := openSQL(ctx)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	defer store.Disconnect(ctx)

	fmt.Println(FormatSuccess("✅ Migrations completed successfully!"))
	return printMigrationVersion(store.DB())
}

func runMigrateVersion(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	store, err := openSQL(ctx)
	if err != nil {
		return err
	}
	defer store.Disconnect(ctx)

	return printMigrationVersion(store.DB())
}

func printMigrationVersion(conn *sql.DB) error {
	version, dirty, err := db.MigrationVersion(conn)
	if err != nil {
		return err
	}

	fmt.Printf("%s📊 Migration Status%s\n", HeaderStyle, Reset)
	fmt.Println(FormatLabelValue("Database:", cfg.SQLDatabase.URI))
	fmt.Println(FormatLabelValue("Version:", fmt.Sprintf("%d", version)))
	if dirty {
		fmt.Println(FormatWarning("⚠️  Schema is dirty: the last migration did not complete"))
	}
	return nil
}
