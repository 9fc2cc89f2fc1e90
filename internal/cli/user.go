package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/AI2HU/bulletcalc/internal/db/sqlite"
	"github.com/AI2HU/bulletcalc/internal/services"
)

var (
	userEmail    string
	userPassword string
	userStaff    bool
	userYes      bool
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
	Long:  `Create, list and delete accounts stored in the SQLite auth database.`,
}

var userCreateCmd = &cobra.Command{
	Use:   "create [username]",
	Short: "Create a user account",
	Long:  `Create an account. The password is read from --password or prompted for, and must pass the password validators.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runUserCreate,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List user accounts",
	RunE:  runUserList,
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete [username]",
	Short: "Delete a user account and its sessions",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserDelete,
}

var userPasswordCmd = &cobra.Command{
	Use:   "passwd [username]",
	Short: "Change a user's password",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserPassword,
}

func init() {
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "Email address")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "Password (prompted for when omitted)")
	userCreateCmd.Flags().BoolVar(&userStaff, "staff", false, "Mark the account as staff")
	userPasswordCmd.Flags().StringVar(&userPassword, "password", "", "New password (prompted for when omitted)")
	userDeleteCmd.Flags().BoolVarP(&userYes, "yes", "y", false, "Skip the confirmation prompt")

	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userDeleteCmd)
	userCmd.AddCommand(userPasswordCmd)
}

func newAuthService(store *sqlite.SQLite) *services.AuthService {
	return services.NewAuthService(store, services.DefaultPasswordValidators(cfg.PasswordMinLength), cfg.Session.MaxAge)
}

func readPassword(reader *bufio.Reader, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return promptPassword(reader, fmt.Sprintf("%sPassword: %s", LabelStyle, Reset))
}

// printPasswordProblems lists every validator complaint on its own line
func printPasswordProblems(err error) bool {
	var pwErr *services.PasswordError
	if !errors.As(err, &pwErr) {
		return false
	}
	fmt.Println(FormatError("❌ Password rejected:"))
	for _, p := range pwErr.Problems {
		fmt.Printf("   %s• %s%s\n", WarningStyle, p, Reset)
	}
	return true
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	store, err := openSQL(ctx)
	if err != nil {
		return err
	}
	defer store.Disconnect(ctx)

	password, err := readPassword(reader, userPassword)
	if err != nil {
		return err
	}

	user, err := newAuthService(store).CreateUser(ctx, args[0], userEmail, password, userStaff)
	if err != nil {
		if printPasswordProblems(err) {
			return services.ErrPasswordInvalid
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("%s✅ Created user %s%s\n", SuccessStyle, FormatValue(user.Username), Reset)
	fmt.Println(FormatLabelValue("ID:", user.ID))
	return nil
}

func runUserList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	store, err := openSQL(ctx)
	if err != nil {
		return err
	}
	defer store.Disconnect(ctx)

	users, err := newAuthService(store).ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if len(users) == 0 {
		fmt.Printf("%sNo users yet. Use '%s' to add one.%s\n", WarningStyle, FormatSecondary("bulletcalc user create"), Reset)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%sUSERNAME\tEMAIL\tSTAFF\tACTIVE\tLAST LOGIN%s\n", LabelStyle, Reset)
	fmt.Fprintf(w, "%s────────\t─────\t─────\t──────\t──────────%s\n", DimStyle, Reset)

	for _, u := range users {
		lastLogin := "never"
		if u.LastLogin != nil {
			lastLogin = u.LastLogin.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			FormatValue(u.Username),
			FormatSecondary(u.Email),
			yesNo(u.IsStaff),
			yesNo(u.IsActive),
			FormatMeta(lastLogin),
		)
	}

	w.Flush()
	fmt.Printf("\n%sTotal: %s users%s\n", InfoStyle, FormatCount(len(users)), Reset)
	return nil
}

func runUserDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	if !userYes {
		confirmed, err := promptYesNo(reader, fmt.Sprintf("%sDelete user %s and all of their sessions? (y/N): %s", WarningStyle, args[0], Reset))
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Deletion cancelled.")
			return nil
		}
	}

	store, err := openSQL(ctx)
	if err != nil {
		return err
	}
	defer store.Disconnect(ctx)

	if err := newAuthService(store).DeleteUser(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	fmt.Printf("%s✅ Deleted user %s%s\n", SuccessStyle, FormatValue(args[0]), Reset)
	return nil
}

func runUserPassword(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	store, err := openSQL(ctx)
	if err != nil {
		return err
	}
	defer store.Disconnect(ctx)

	password, err := readPassword(reader, userPassword)
	if err != nil {
		return err
	}

	if err := newAuthService(store).ChangePassword(ctx, args[0], password); err != nil {
		if printPasswordProblems(err) {
			return services.ErrPasswordInvalid
		}
		return fmt.Errorf("failed to change password: %w", err)
	}

	fmt.Printf("%s✅ Password updated for %s%s\n", SuccessStyle, FormatValue(args[0]), Reset)
	return nil
}

func yesNo(b bool) string {
	if b {
		return FormatSuccess("Yes")
	}
	return FormatDim("No")
}
