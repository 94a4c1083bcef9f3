package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	appVersion string
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	// A missing .env file is normal outside development.
	_ = godotenv.Load()
	return newRootCmd(version, commit, date).Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "musicreward",
		Short: "Listen-to-earn music API server",
		Long: `MusicReward serves the backend of a listen-to-earn music app: a curated
featured catalog, YouTube-backed search and charts, listening rewards and an
admin-adjudicated withdrawal workflow.

Configuration comes from musicreward.yaml, MUSICREWARD_* environment variables
(a .env file is loaded first) and command-line flags, in increasing priority.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./musicreward.yaml)")
	cmd.PersistentFlags().String("driver", "", "storage driver: memory, sqlite, postgres or mysql")
	cmd.PersistentFlags().String("dsn", "", "storage DSN")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))
	cmd.AddCommand(newAdminCmd())
	cmd.AddCommand(newSongCmd())
	cmd.AddCommand(newOpenAPICmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}
