package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/musicreward/musicreward/internal/server"
)

const banner = `
 __  __           _      ____                            _
|  \/  |_   _ ___(_) ___|  _ \ _____      ____ _ _ __ __| |
| |\/| | | | / __| |/ __| |_) / _ \ \ /\ / / _' | '__/ _' |
| |  | | |_| \__ \ | (__|  _ <  __/\ V  V / (_| | | | (_| |
|_|  |_|\__,_|___/_|\___|_| \_\___| \_/\_/ \__,_|_|  \__,_|
`

func newServeCmd() *cobra.Command {
	var dev bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MusicReward API server",
		Long:  "Start the HTTP server that exposes the public music API and the admin API.",
		Example: `  musicreward serve
  musicreward serve --port 8080 --driver sqlite --dsn ./musicreward.db
  MUSICREWARD_YOUTUBE_API_KEY=... musicreward serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, dev)
		},
	}

	cmd.Flags().IntP("port", "p", 5000, "HTTP listen port")
	cmd.Flags().String("host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().String("log-level", "info", "Log level: debug, info, warn or error")
	cmd.Flags().String("log-format", "text", "Log format: text or json")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (debug logging)")

	return cmd
}

func runServe(cmd *cobra.Command, dev bool) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log, dev)

	fmt.Print(banner)
	fmt.Println()

	ctx := context.Background()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("storage initialized", "driver", cfg.Storage.Driver)

	srv, err := server.New(cfg, st, newUpstream(cfg.YouTube, logger), logger)
	if err != nil {
		st.Close()
		return err
	}

	created, err := srv.Sessions().EnsureAdmin(ctx, cfg.Auth.SeedUsername, cfg.Auth.SeedPassword)
	if err != nil {
		st.Close()
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		logger.Warn("seeded default admin account, change its password with: musicreward admin passwd",
			"username", cfg.Auth.SeedUsername)
	}
	if !cfg.Auth.RequireAdmin {
		logger.Warn("admin routes are open: auth.require_admin is false")
	}
	if cfg.YouTube.APIKey == "" {
		logger.Warn("youtube.api_key not set, search and charts use the featured catalog only")
	}

	base := fmt.Sprintf("http://%s", cfg.Addr())
	fmt.Printf("→ MusicReward %s\n", versionString())
	fmt.Printf("→ Listening on %s\n", base)
	fmt.Printf("→ API:        %s/api\n", base)
	fmt.Printf("→ OpenAPI:    %s/openapi.json\n", base)
	fmt.Printf("→ Health:     %s/healthz\n", base)
	fmt.Printf("→ Storage:    %s\n", cfg.Storage.Driver)
	fmt.Println()

	return srv.ListenAndServe()
}
