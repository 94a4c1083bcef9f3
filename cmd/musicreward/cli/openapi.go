package cli

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/musicreward/musicreward/internal/openapi"
)

func newOpenAPICmd() *cobra.Command {
	var (
		outputFile string
		baseURL    string
	)

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Generate the OpenAPI document",
		Long: `Generate the OpenAPI 3.1 document for the HTTP API. Admin security and
the server-attested play routes follow the effective configuration.`,
		Example: `  musicreward openapi
  musicreward openapi -o openapi.json --base-url https://api.example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			doc := openapi.Generate(openapi.Options{
				BaseURL:        baseURL,
				Version:        versionString(),
				RequireAdmin:   cfg.Auth.RequireAdmin,
				ServerAttested: cfg.Reward.ServerAttested,
			})
			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal document: %w", err)
			}

			if outputFile == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			if err := os.WriteFile(outputFile, data, 0644); err != nil {
				return fmt.Errorf("write document: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%d operations)\n", outputFile, openapi.OperationCount(doc))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the document to a file instead of stdout")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Server URL to advertise in the document")

	return cmd
}
