package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AI2HU/bulletcalc/internal/api"
	"github.com/AI2HU/bulletcalc/internal/logger"
	"github.com/AI2HU/bulletcalc/internal/scheduler"
	"github.com/AI2HU/bulletcalc/internal/services"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bulletcalc REST API server",
	Long: `Start the REST API server. SQLite is required; MongoDB is connected on a
best-effort basis with a five second timeout. Without MongoDB, calculations
are still answered but history and profile endpoints return 503.

An hourly background job purges expired login sessions.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveHost, "host", "H", "", "Host to bind the API server to (overrides config)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run the API server on (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("%s🚀 Starting bulletcalc API Server%s\n", HeaderStyle, Reset)
	fmt.Printf("%s================================%s\n", DimStyle, Reset)
	fmt.Println(FormatLabelValue("Address:", cfg.Address()))
	fmt.Println(FormatLabelValue("Debug:", fmt.Sprintf("%v", cfg.Debug)))
	fmt.Println(FormatLabelValue("SQLite:", cfg.SQLDatabase.URI))
	fmt.Println(FormatLabelValue("MongoDB:", fmt.Sprintf("%s:%d/%s", cfg.NoSQLDatabase.Host, cfg.NoSQLDatabase.Port, cfg.NoSQLDatabase.Database)))
	fmt.Println()

	if cfg.Debug {
		logger.Warning("Running with DEBUG enabled; do not use these settings in production")
	}

	database, err := openDatabase(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Disconnect(context.Background())

	if database.NoSQLConnected() {
		fmt.Println(FormatSuccess("✅ MongoDB connected"))
	} else {
		fmt.Println(FormatWarning("⚠️  MongoDB unavailable: history and profiles disabled"))
	}

	auth := services.NewAuthService(database, services.DefaultPasswordValidators(cfg.PasswordMinLength), cfg.Session.MaxAge)
	server, err := api.NewServer(cfg, database, api.WithAuthService(auth), api.WithVersion(Version))
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}

	sched := scheduler.New(scheduler.SessionPurgeJob(auth))
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	printEndpoints()
	fmt.Println("Press Ctrl+C to stop the server")

	if err := server.Run(ctx); err != nil {
		return err
	}

	fmt.Printf("\n%s🛑 API server stopped%s\n", InfoStyle, Reset)
	return nil
}

func printEndpoints() {
	fmt.Printf("%s📚 Available Endpoints:%s\n", LabelStyle, Reset)
	fmt.Println("  Calculations:")
	fmt.Println("    POST   /api/v1/calculate              - Solve a trajectory")
	fmt.Println("    GET    /api/v1/calculations           - List saved calculations")
	fmt.Println("    GET    /api/v1/calculations/:id       - Get a calculation")
	fmt.Println("    DELETE /api/v1/calculations/:id       - Delete a calculation")
	fmt.Println()
	fmt.Println("  Profiles:")
	fmt.Println("    GET    /api/v1/profiles               - List ammunition profiles")
	fmt.Println("    GET    /api/v1/profiles/:id           - Get a profile")
	fmt.Println("    POST   /api/v1/profiles               - Create a profile")
	fmt.Println("    PUT    /api/v1/profiles/:id           - Update a profile")
	fmt.Println("    DELETE /api/v1/profiles/:id           - Delete a profile")
	fmt.Println("    POST   /api/v1/profiles/:id/calculate - Solve from a profile")
	fmt.Println()
	fmt.Println("  Auth:")
	fmt.Println("    POST   /api/v1/auth/register          - Create an account")
	fmt.Println("    POST   /api/v1/auth/login             - Open a session")
	fmt.Println("    POST   /api/v1/auth/logout            - Close the session")
	fmt.Println("    GET    /api/v1/auth/me                - Current user")
	fmt.Println("    GET    /api/v1/auth/csrf              - Issue a CSRF token")
	fmt.Println()
	fmt.Println("  Meta:")
	fmt.Println("    GET    /api/v1/health                 - Health check")
	fmt.Println("    GET    /api/v1/settings               - Effective settings")
	fmt.Println()
}
