package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jfmyers9/mpdpanel/internal/assets"
	"github.com/jfmyers9/mpdpanel/internal/config"
	"github.com/jfmyers9/mpdpanel/internal/daemon"
	"github.com/jfmyers9/mpdpanel/internal/display"
	"github.com/jfmyers9/mpdpanel/internal/player"
	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show MPD, screensaver and service status",
	Long: `Show what the front panel would see right now: the MPD connection and
playback state, the screensaver images, the configured actions and
whether the systemd service is installed.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	file := cfg.File()
	if file == "" {
		file = "(defaults)"
	}
	fmt.Printf("Config:   %s\n", file)

	printPlayerStatus(ctx, cfg)

	if store, err := assets.NewStore(cfg.Screensaver.DB); err != nil {
		fmt.Printf("Images:   unavailable (%v)\n", err)
	} else {
		defer store.Close()
		printImageStatus(ctx, store, cfg.Display.Width, cfg.Display.Height)
	}

	if table, err := cfg.Table(); err != nil {
		fmt.Printf("Actions:  invalid (%v)\n", err)
	} else {
		fmt.Printf("Actions:  %d bound\n", len(table))
	}

	unitPath := daemon.GetUnitPath("")
	if info, err := os.Stat(unitPath); err == nil {
		fmt.Printf("Service:  installed %s (%s)\n", humanize.Time(info.ModTime()), unitPath)
	} else {
		fmt.Println("Service:  not installed")
	}

	return nil
}

func printPlayerStatus(ctx context.Context, cfg *config.Config) {
	start := time.Now()
	client, err := connectPlayer(ctx, cfg)
	if err != nil {
		fmt.Printf("MPD:      offline (%v)\n", err)
		return
	}
	defer client.Close()
	fmt.Printf("MPD:      %s (connected in %s)\n", client.Addr(), time.Since(start).Round(time.Millisecond))

	status, err := client.Status(ctx)
	if err != nil {
		fmt.Printf("State:    unknown (%v)\n", err)
		return
	}
	fmt.Printf("State:    %s\n", status.State)
	if status.State == player.StateStopped {
		return
	}

	song, err := client.CurrentSong(ctx)
	if err != nil {
		fmt.Printf("Song:     unknown (%v)\n", err)
		return
	}
	status = status.WithSong(song)
	fmt.Printf("Song:     %s - %s (%s)\n", status.Artist, status.Title, display.TrackText(status.Track))
	fmt.Printf("Elapsed:  %s\n", display.FormatElapsed(status.Elapsed))
}

func printImageStatus(ctx context.Context, store *assets.Store, width, height int) {
	images, err := store.List(ctx)
	if err != nil {
		fmt.Printf("Images:   unavailable (%v)\n", err)
		return
	}
	if len(images) == 0 {
		fmt.Println("Images:   none (screensaver disabled)")
		return
	}

	var total uint64
	usable := 0
	newest := images[0].AddedAt
	for _, img := range images {
		total += uint64(img.Size())
		if img.Width == width && img.Height == height {
			usable++
		}
		if img.AddedAt.After(newest) {
			newest = img.AddedAt
		}
	}
	fmt.Printf("Images:   %d of %d usable at %dx%d, %s, last added %s\n",
		usable, len(images), width, height, humanize.Bytes(total), humanize.Time(newest))
}
