package cli

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/gorilla/securecookie"
	"github.com/spf13/cobra"

	"github.com/AI2HU/bulletcalc/internal/config"
	"github.com/AI2HU/bulletcalc/internal/db"
	"github.com/AI2HU/bulletcalc/internal/db/mongodb"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize bulletcalc configuration",
	Long:  `Interactive wizard to set up the settings file: secret key, allowed hosts, SQLite path and MongoDB connection.`,
	RunE:  runInit,
}

// newSecretKey returns a random 50-byte key, hex encoded
func newSecretKey() string {
	return hex.EncodeToString(securecookie.GenerateRandomKey(50))
}

func runInit(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Printf("%s🚀 Welcome to bulletcalc setup%s\n", HeaderStyle, Reset)
	fmt.Printf("%s=============================%s\n", DimStyle, Reset)
	fmt.Println()

	configPath := cfgFile
	if configPath == "" {
		configPath = config.GetConfigPath()
	}
	if config.Exists(configPath) {
		fmt.Printf("Configuration file already exists at: %s\n", configPath)
		confirmed, err := promptYesNo(reader, "Do you want to overwrite it? (y/N): ")
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Setup cancelled.")
			return nil
		}
	}

	wd, _ := os.Getwd()
	c := config.DefaultConfig(wd)

	// Security
	fmt.Printf("\n%s🔐 Security%s\n", LabelStyle, Reset)
	fmt.Printf("%s-----------%s\n", DimStyle, Reset)

	c.SecretKey = newSecretKey()
	fmt.Printf("Generated secret key: %s\n", maskSensitiveData(c.SecretKey, "*"))

	debug, err := promptYesNo(reader, "Enable debug mode? (y/N): ")
	if err != nil {
		return err
	}
	c.Debug = debug

	hosts, err := promptWithRetry(reader, "Allowed hosts, comma separated [localhost,127.0.0.1]: ", func(input string) (string, error) {
		if input == "" {
			input = "localhost,127.0.0.1"
		}
		list, err := validateHostList(input)
		if err != nil {
			return "", err
		}
		return strings.Join(list, ","), nil
	})
	if err != nil {
		return err
	}
	c.AllowedHosts = strings.Split(hosts, ",")

	// SQLite
	fmt.Printf("\n%s📊 Auth Database (SQLite)%s\n", LabelStyle, Reset)
	fmt.Printf("%s-------------------------%s\n", DimStyle, Reset)

	sqlitePath, err := promptOptional(reader, fmt.Sprintf("SQLite file [%s]: ", c.SQLDatabase.URI), c.SQLDatabase.URI)
	if err != nil {
		return err
	}
	c.SQLDatabase.URI = sqlitePath

	// MongoDB
	fmt.Printf("\n%s🍃 Application Database (MongoDB)%s\n", LabelStyle, Reset)
	fmt.Printf("%s---------------------------------%s\n", DimStyle, Reset)

	mongoHost, err := promptOptional(reader, fmt.Sprintf("Host [%s]: ", c.NoSQLDatabase.Host), c.NoSQLDatabase.Host)
	if err != nil {
		return err
	}
	c.NoSQLDatabase.Host = mongoHost

	portStr, err := promptWithRetry(reader, fmt.Sprintf("Port [%d]: ", c.NoSQLDatabase.Port), func(input string) (string, error) {
		port, err := validatePort(input, c.NoSQLDatabase.Port)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d", port), nil
	})
	if err != nil {
		return err
	}
	fmt.Sscanf(portStr, "%d", &c.NoSQLDatabase.Port)

	dbName, err := promptWithRetry(reader, fmt.Sprintf("Database name [%s]: ", c.NoSQLDatabase.Database), func(input string) (string, error) {
		if input == "" {
			return c.NoSQLDatabase.Database, nil
		}
		return validateDatabaseName(input)
	})
	if err != nil {
		return err
	}
	c.NoSQLDatabase.Database = dbName

	username, err := promptOptional(reader, "Username (leave empty for no auth): ", "")
	if err != nil {
		return err
	}
	c.NoSQLDatabase.Username = username
	if username != "" {
		password, err := promptPassword(reader, "Password: ")
		if err != nil {
			return err
		}
		c.NoSQLDatabase.Password = password

		authSource, err := promptOptional(reader, fmt.Sprintf("Auth source [%s]: ", c.NoSQLDatabase.AuthSource), c.NoSQLDatabase.AuthSource)
		if err != nil {
			return err
		}
		c.NoSQLDatabase.AuthSource = authSource
	}

	// Probe MongoDB; failure only warns since the server runs without it
	fmt.Println("\n🔌 Testing MongoDB connection...")
	docStore, err := mongodb.New(mongoConfig(c))
	if err != nil {
		return fmt.Errorf("failed to create MongoDB client: %w", err)
	}
	ctx := context.Background()
	if db.ConnectBestEffort(ctx, docStore, c.NoSQLDatabase.Database) {
		fmt.Println(FormatSuccess("✅ MongoDB connection successful!"))
		docStore.Disconnect(ctx)
	} else {
		fmt.Println(FormatWarning("⚠️  Could not reach MongoDB. Settings are saved anyway; history and profiles stay disabled until it is reachable."))
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fmt.Println("\n💾 Saving configuration...")
	if err := c.Save(configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Printf("%s✅ Configuration saved to: %s%s\n", SuccessStyle, configPath, Reset)

	fmt.Printf("\n%s📋 Configuration Summary%s\n", LabelStyle, Reset)
	fmt.Printf("%s========================%s\n", DimStyle, Reset)
	fmt.Println(FormatLabelValue("Debug:", fmt.Sprintf("%v", c.Debug)))
	fmt.Println(FormatLabelValue("Allowed hosts:", strings.Join(c.AllowedHosts, ", ")))
	fmt.Println(FormatLabelValue("SQLite:", c.SQLDatabase.URI))
	fmt.Println(FormatLabelValue("MongoDB:", fmt.Sprintf("%s/%s", c.MongoURI(), c.NoSQLDatabase.Database)))
	fmt.Println()
	fmt.Println("🎉 Setup complete!")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Create an account: bulletcalc user create <username>")
	fmt.Println("  2. Check the setup:   bulletcalc check")
	fmt.Println("  3. Start the server:  bulletcalc serve")

	return nil
}
