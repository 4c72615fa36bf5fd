package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jfmyers9/mpdpanel/internal/player"
	"github.com/spf13/cobra"
)

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Resume playback in MPD",
	Long:  `Resume playback in MPD. If paused, continues the current song.`,
	RunE:  controlRunner("play", player.Controller.Play),
}

// pauseCmd represents the pause command
var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause playback in MPD",
	Long:  `Pause playback in MPD. Pauses the currently playing song.`,
	RunE:  controlRunner("pause", player.Controller.Pause),
}

// playpauseCmd represents the playpause command
var playpauseCmd = &cobra.Command{
	Use:     "playpause",
	Aliases: []string{"toggle"},
	Short:   "Toggle play/pause in MPD",
	Long:    `Toggle between play and pause in MPD. When stopped, starts playing the queue.`,
	RunE:    controlRunner("playpause", player.Controller.Toggle),
}

// stopCmd represents the stop command
var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop playback in MPD",
	Long:  `Stop playback in MPD. The queue is kept.`,
	RunE:  controlRunner("stop", player.Controller.Stop),
}

// nextCmd represents the next command
var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Skip to next song in MPD",
	Long:  `Skip to the next song in the MPD queue.`,
	RunE:  controlRunner("skip to next song", player.Controller.Next),
}

// prevCmd represents the prev command
var prevCmd = &cobra.Command{
	Use:   "prev",
	Short: "Go to previous song in MPD",
	Long:  `Go to the previous song in the MPD queue.`,
	RunE:  controlRunner("go to previous song", player.Controller.Previous),
}

func init() {
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(playpauseCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(prevCmd)
}

// controlRunner connects to MPD and issues one playback command
func controlRunner(what string, fn func(player.Controller, context.Context) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		client, err := connectPlayer(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to mpd: %w", err)
		}
		defer client.Close()

		if err := fn(client, ctx); err != nil {
			return fmt.Errorf("failed to %s: %w", what, err)
		}
		return nil
	}
}
