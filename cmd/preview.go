package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jfmyers9/mpdpanel/internal/daemon"
	"github.com/jfmyers9/mpdpanel/internal/tui"
	"github.com/spf13/cobra"
)

var previewLogLevel string

// previewCmd represents the preview command
var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview the front panel in the terminal",
	Long: `Run the front panel against MPD with the display, LED and buttons
simulated in the terminal.

Keys 1-9 press the configured buttons in name order. Shifted number keys
(!, @, #, ...) hold the same button past the long press threshold.
Press q to quit.

Actions run exactly as they would on the device. Logs are written to
preview.log in the log directory.`,
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringVar(&previewLogLevel, "log-level", "debug", "Log level (debug, info, warn, error)")
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logDir, err := daemon.GetDefaultLogPath()
	if err != nil {
		return err
	}
	// The terminal belongs to the preview, so log to a file
	logger := setupLogger(filepath.Join(logDir, "preview.log"), previewLogLevel)

	ui := tui.New(tui.Config{
		Buttons:   cfg.InputIDs(),
		LongPress: cfg.Input.LongPress,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := buildApp(ctx, cfg, logger, panelOptions{
		presenter:     ui,
		indicator:     ui,
		source:        ui.Keys(),
		fontsOptional: true,
	})
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- app.RunContext(ctx)
	}()

	uiErr := ui.Run(ctx)
	cancel()
	if err := <-done; err != nil {
		return fmt.Errorf("panel error: %w", err)
	}
	return uiErr
}
