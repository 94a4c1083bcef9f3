package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/musicreward/musicreward/internal/service"
	"github.com/musicreward/musicreward/internal/store"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin users",
		Long:  "Create, list and reset the passwords of admin users in the configured store.",
	}

	cmd.AddCommand(newAdminCreateCmd())
	cmd.AddCommand(newAdminListCmd())
	cmd.AddCommand(newAdminPasswdCmd())

	return cmd
}

// withStore opens the configured store for one CLI operation.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, st store.Store, sessions *service.SessionManager) error) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Storage.Driver == "memory" {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: storage.driver is memory; changes are discarded on exit")
	}

	ctx := context.Background()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	return fn(ctx, st, service.NewSessionManager(st, st, cfg.Auth.SessionTTL))
}

// readPassword prompts for a password twice on the terminal.
func readPassword() (string, error) {
	fmt.Print("Password: ")
	pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()

	fmt.Print("Confirm password: ")
	confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}
	fmt.Println()

	if string(pwBytes) != string(confirmBytes) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(pwBytes), nil
}

// ---------- admin create ----------

func newAdminCreateCmd() *cobra.Command {
	var (
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new admin user",
		Example: `  musicreward admin create --username alice --password s3cretpass
  musicreward admin create --username alice  # prompts for password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			username = strings.TrimSpace(username)
			if password == "" {
				pw, err := readPassword()
				if err != nil {
					return err
				}
				password = pw
			}

			return withStore(cmd, func(ctx context.Context, _ store.Store, sessions *service.SessionManager) error {
				admin, err := sessions.CreateAdmin(ctx, username, password)
				if err != nil {
					return fmt.Errorf("create admin: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created admin user %q (id %d)\n", admin.Username, admin.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Admin username (required)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (prompted if omitted)")
	cmd.MarkFlagRequired("username")

	return cmd
}

// ---------- admin list ----------

func newAdminListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all admin users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, st store.Store, _ *service.SessionManager) error {
				admins, err := st.ListAdmins(ctx)
				if err != nil {
					return fmt.Errorf("list admins: %w", err)
				}

				out := cmd.OutOrStdout()
				if jsonOutput {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(admins)
				}

				if len(admins) == 0 {
					fmt.Fprintln(out, "No admin users configured. Use 'musicreward admin create' to create one.")
					return nil
				}

				fmt.Fprintf(out, "%-6s %-24s %-20s\n", "ID", "USERNAME", "LAST LOGIN")
				fmt.Fprintf(out, "%-6s %-24s %-20s\n", "--", "--------", "----------")
				for _, a := range admins {
					last := "never"
					if a.LastLoginAt != nil {
						last = a.LastLoginAt.Format("2006-01-02 15:04:05")
					}
					fmt.Fprintf(out, "%-6d %-24s %-20s\n", a.ID, a.Username, last)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

// ---------- admin passwd ----------

func newAdminPasswdCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "passwd <username>",
		Short: "Set an admin user's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				pw, err := readPassword()
				if err != nil {
					return err
				}
				password = pw
			}

			return withStore(cmd, func(ctx context.Context, _ store.Store, sessions *service.SessionManager) error {
				if err := sessions.SetPassword(ctx, args[0], password); err != nil {
					return fmt.Errorf("set password: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %q\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "New password (prompted if omitted)")

	return cmd
}
