package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	daemonLogFile  string
	daemonLogLevel string
	daemonDisplay  string
	daemonInput    string
	daemonLED      string
)

// daemonCmd represents the daemon command
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the front panel",
	Long: `Run the front panel daemon that shows MPD status and handles the buttons.

The daemon will:
- Show a splash screen, then poll MPD on every display tick
- Show track number and elapsed time, artist or title while playing
- Colour the status LED by play state and turn it off while offline
- Cycle screensaver images after the idle timeout
- Run the configured action for each short or long button press
- Reconnect to MPD when the connection drops
- Clear the display and LED on SIGINT/SIGTERM/SIGHUP/SIGQUIT

The daemon runs in the foreground and logs to stderr by default.
Use the --log-file flag to log to a file (useful for systemd).`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)

	// Command-line flags
	daemonCmd.Flags().StringVar(&daemonLogFile, "log-file", "", "Log file path (default: stderr)")
	daemonCmd.Flags().StringVar(&daemonLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	daemonCmd.Flags().StringVar(&daemonDisplay, "display", "", "Display driver: ssd1306 or none (overrides config)")
	daemonCmd.Flags().StringVar(&daemonInput, "input", "", "Input driver: gpio, evdev or none (overrides config)")
	daemonCmd.Flags().StringVar(&daemonLED, "led", "", "LED driver: ws2812 or none (overrides config)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if daemonDisplay != "" {
		cfg.Display.Driver = daemonDisplay
	}
	if daemonInput != "" {
		cfg.Input.Driver = daemonInput
	}
	if daemonLED != "" {
		cfg.LED.Driver = daemonLED
	}

	// Set up logging
	logger := setupLogger(daemonLogFile, daemonLogLevel)

	logger.Info().
		Str("version", version).
		Str("config", cfg.File()).
		Msg("Starting mpdpanel daemon")

	app, err := buildApp(context.Background(), cfg, logger, panelOptions{})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to start")
		return err
	}

	// Run daemon (blocks until shutdown signal)
	if err := app.Run(); err != nil {
		return fmt.Errorf("daemon error: %w", err)
	}

	logger.Info().Msg("Daemon stopped")
	return nil
}
