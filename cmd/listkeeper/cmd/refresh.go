package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solatis/listkeeper/internal/core/db"
	"github.com/solatis/listkeeper/internal/playlist"
	"github.com/solatis/listkeeper/internal/types"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh [playlist-id]",
	Short: "Refresh playlists against the stored library snapshot",
	Long: `Refresh evaluates stored playlist definitions against the current media
item snapshots and replaces each playlist's member list. With no argument
every playlist is refreshed; with a playlist id only that one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	store, err := db.NewStore(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}

	engine := newEngine(cfg, log)
	refresher := playlist.NewRefresher(engine, store, log)

	if len(args) == 1 {
		id, err := types.ParsePlaylistID(args[0])
		if err != nil {
			return fmt.Errorf("invalid playlist id %q: %w", args[0], err)
		}
		n, err := refresher.RefreshOne(id)
		if err != nil {
			return err
		}
		log.Info().Str("playlist_id", string(id)).Int("members", n).Msg("playlist refreshed")
		return nil
	}

	return refresher.RefreshAll()
}
