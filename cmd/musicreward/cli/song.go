package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/musicreward/musicreward/internal/service"
	"github.com/musicreward/musicreward/internal/store"
)

func newSongCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "song",
		Aliases: []string{"songs", "featured"},
		Short:   "Manage the featured song catalog",
		Long:    "Add, list and remove featured songs in the configured store.",
	}

	cmd.AddCommand(newSongAddCmd())
	cmd.AddCommand(newSongListCmd())
	cmd.AddCommand(newSongRemoveCmd())

	return cmd
}

// ---------- song add ----------

func newSongAddCmd() *cobra.Command {
	var in service.AddSongInput
	var duration, order int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a featured song",
		Example: `  musicreward song add --video-id dQw4w9WgXcQ --title "Never Gonna Give You Up" --artist "Rick Astley"
  musicreward song add --video-id abc123 --title T --artist A --duration 240 --order 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("duration") {
				in.Duration = &duration
			}
			if cmd.Flags().Changed("order") {
				in.DisplayOrder = &order
			}
			return withStore(cmd, func(ctx context.Context, st store.Store, _ *service.SessionManager) error {
				song, err := service.NewCatalogService(st).Add(ctx, in)
				if err != nil {
					return fmt.Errorf("add song: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %q by %s (id %d)\n", song.Title, song.Artist, song.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in.VideoID, "video-id", "", "YouTube video id (required)")
	cmd.Flags().StringVar(&in.Title, "title", "", "Song title (required)")
	cmd.Flags().StringVar(&in.Artist, "artist", "", "Artist (required)")
	cmd.Flags().StringVar(&in.Thumbnail, "thumbnail", "", "Thumbnail URL (default: YouTube maxresdefault)")
	cmd.Flags().IntVar(&duration, "duration", 0, "Duration in seconds (default 180)")
	cmd.Flags().IntVar(&order, "order", 0, "Display order (default 0)")
	cmd.MarkFlagRequired("video-id")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("artist")

	return cmd
}

// ---------- song list ----------

func newSongListCmd() *cobra.Command {
	var (
		jsonOutput bool
		all        bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List featured songs in display order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, st store.Store, _ *service.SessionManager) error {
				catalog := service.NewCatalogService(st)
				list := catalog.List
				if all {
					list = catalog.ListAll
				}
				songs, err := list(ctx)
				if err != nil {
					return fmt.Errorf("list songs: %w", err)
				}

				out := cmd.OutOrStdout()
				if jsonOutput {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(songs)
				}

				if len(songs) == 0 {
					fmt.Fprintln(out, "No featured songs. Use 'musicreward song add' to add one.")
					return nil
				}

				fmt.Fprintf(out, "%-6s %-6s %-14s %-32s %-24s %-6s\n", "ID", "ORDER", "VIDEO", "TITLE", "ARTIST", "ACTIVE")
				for _, s := range songs {
					active := "yes"
					if !s.IsActive {
						active = "no"
					}
					fmt.Fprintf(out, "%-6d %-6d %-14s %-32s %-24s %-6s\n",
						s.ID, s.DisplayOrder, s.VideoID, truncate(s.Title, 32), truncate(s.Artist, 24), active)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&all, "all", false, "Include inactive songs")

	return cmd
}

// ---------- song remove ----------

func newSongRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a featured song",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid song id %q", args[0])
			}
			return withStore(cmd, func(ctx context.Context, st store.Store, _ *service.SessionManager) error {
				if err := service.NewCatalogService(st).Remove(ctx, id); err != nil {
					return fmt.Errorf("remove song %d: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed song %d\n", id)
				return nil
			})
		},
	}
	return cmd
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
