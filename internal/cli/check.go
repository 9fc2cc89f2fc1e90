package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AI2HU/bulletcalc/internal/db"
	"github.com/AI2HU/bulletcalc/internal/db/mongodb"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate settings and probe both databases",
	Long: `Validate the effective settings, report which configured paths exist, and
probe SQLite and MongoDB. A MongoDB failure is reported but does not fail the
check, matching how the server treats it.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	fmt.Printf("%s🔍 Configuration Check%s\n", HeaderStyle, Reset)
	fmt.Printf("%s======================%s\n", DimStyle, Reset)
	fmt.Println(FormatLabelValue("Base dir:", cfg.BaseDir))
	fmt.Println(FormatLabelValue("Secret key:", maskSensitiveData(cfg.SecretKey, "*")))
	fmt.Println(FormatLabelValue("Debug:", fmt.Sprintf("%v", cfg.Debug)))
	fmt.Println(FormatLabelValue("Mongo URI:", cfg.MongoURI()))
	if cfg.NoSQLDatabase.Username != "" {
		fmt.Println(FormatLabelValue("Mongo user:", cfg.NoSQLDatabase.Username+" (auth source "+cfg.NoSQLDatabase.AuthSource+")"))
	}
	fmt.Println()

	if err := cfg.Validate(); err != nil {
		fmt.Println(FormatError("❌ Invalid settings:"))
		fmt.Printf("   %s\n", err)
		return err
	}
	fmt.Println(FormatSuccess("✅ Settings are valid"))
	fmt.Println()

	fmt.Printf("%sPaths%s\n", LabelStyle, Reset)
	for _, p := range cfg.CheckPaths() {
		status := FormatSuccess("found")
		if !p.Exists {
			status = FormatWarning("missing")
		}
		fmt.Printf("  %-16s %s %s\n", p.Name, FormatDim(p.Path), status)
	}
	fmt.Println()

	store, err := openSQL(ctx)
	if err != nil {
		fmt.Println(FormatError("❌ SQLite: " + err.Error()))
		return err
	}
	version, _, err := db.MigrationVersion(store.DB())
	store.Disconnect(ctx)
	if err != nil {
		return err
	}
	fmt.Println(FormatSuccess(fmt.Sprintf("✅ SQLite: schema version %d", version)))

	docStore, err := mongodb.New(mongoConfig(cfg))
	if err != nil {
		return err
	}
	start := time.Now()
	if db.ConnectBestEffort(ctx, docStore, cfg.NoSQLDatabase.Database) {
		fmt.Println(FormatSuccess(fmt.Sprintf("✅ MongoDB: connected in %s", formatDuration(time.Since(start)))))
		docStore.Disconnect(ctx)
	} else {
		fmt.Println(FormatWarning("⚠️  MongoDB: unreachable, history and profiles will be disabled"))
	}
	return nil
}
