package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jfmyers9/mpdpanel/internal/action"
	"github.com/jfmyers9/mpdpanel/internal/assets"
	"github.com/jfmyers9/mpdpanel/internal/config"
	"github.com/jfmyers9/mpdpanel/internal/daemon"
	"github.com/jfmyers9/mpdpanel/internal/display"
	"github.com/jfmyers9/mpdpanel/internal/input"
	"github.com/jfmyers9/mpdpanel/internal/player"
	"github.com/jfmyers9/mpdpanel/internal/render"
	"github.com/rs/zerolog"
	"golang.org/x/image/font"
)

// loadConfig loads the config named by --config, or searches for one
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// setupLogger creates a logger with the specified configuration
func setupLogger(logFile, logLevel string) zerolog.Logger {
	// Parse log level
	level := zerolog.InfoLevel
	switch logLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	// Set up output
	var output *os.File
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create log directory: %v\n", err)
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			output = os.Stderr
		} else {
			output = f
		}
	} else {
		output = os.Stderr
	}

	// Create logger
	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	// Use pretty console output if logging to stderr
	if output == os.Stderr {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	return logger
}

// resolveAddr returns host:port for MPD, browsing mDNS when the host is "auto"
func resolveAddr(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (string, error) {
	if cfg.MPD.Host != "auto" {
		return cfg.MPD.Addr(), nil
	}
	addr, err := player.Discover(ctx, player.DefaultDiscoverTimeout)
	if err != nil {
		return "", fmt.Errorf("failed to discover mpd: %w", err)
	}
	logger.Info().Str("addr", addr).Msg("Discovered MPD")
	return addr, nil
}

// connectPlayer dials MPD for one-shot commands
func connectPlayer(ctx context.Context, cfg *config.Config) (*player.MPDClient, error) {
	addr, err := resolveAddr(ctx, cfg, zerolog.New(io.Discard))
	if err != nil {
		return nil, err
	}
	client := player.NewMPDClient(cfg.MPD.Timeout)
	if err := client.Connect(ctx, addr); err != nil {
		return nil, err
	}
	return client, nil
}

// engineConfig maps the display and screensaver settings onto the engine
func engineConfig(cfg *config.Config) display.Config {
	return display.Config{
		Width:              cfg.Display.Width,
		ModeDuration:       cfg.Display.ModeDuration,
		ScrollStep:         cfg.Display.ScrollStep,
		ScrollInterval:     cfg.Display.ScrollInterval,
		ScrollDelay:        cfg.Display.ScrollDelay,
		Separator:          cfg.Display.Separator,
		ScreensaverTimeout: cfg.Screensaver.Timeout,
		ImageDuration:      cfg.Screensaver.ImageDuration,
	}
}

// loadImages reads the screensaver bitmaps matching the panel size
func loadImages(ctx context.Context, cfg *config.Config) ([][]byte, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Screensaver.DB), 0755); err != nil {
		return nil, &render.ResourceError{Kind: "images", Path: cfg.Screensaver.DB, Err: err}
	}
	store, err := assets.NewStore(cfg.Screensaver.DB)
	if err != nil {
		return nil, &render.ResourceError{Kind: "images", Path: cfg.Screensaver.DB, Err: err}
	}
	defer store.Close()

	images, err := store.Bitmaps(ctx, cfg.Display.Width, cfg.Display.Height)
	if err != nil {
		return nil, &render.ResourceError{Kind: "images", Path: cfg.Screensaver.DB, Err: err}
	}
	return images, nil
}

// panelOptions replaces the configured hardware, as the preview does
type panelOptions struct {
	presenter     render.Presenter
	indicator     render.Indicator
	source        input.Source
	fontsOptional bool // fall back to the built-in font when a face is missing
}

// buildApp wires the configured hardware, player and actions into an App.
// Startup resource errors are returned; nothing is left open on failure.
func buildApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts panelOptions) (*daemon.App, error) {
	table, err := cfg.Table()
	if err != nil {
		return nil, fmt.Errorf("invalid actions: %w", err)
	}

	images, err := loadImages(ctx, cfg)
	if err != nil {
		return nil, err
	}

	faces, err := render.LoadFaces(cfg.Display.Font, cfg.Display.FontSize, cfg.Display.TimeFont, cfg.Display.TimeFontSize)
	if err != nil {
		if !opts.fontsOptional {
			return nil, err
		}
		logger.Warn().Err(err).Msg("Using built-in font")
		faces = map[display.FontID]font.Face{}
	}

	var closers []io.Closer
	fail := func(err error) (*daemon.App, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
		return nil, err
	}

	presenter := opts.presenter
	if presenter == nil {
		switch cfg.Display.Driver {
		case "ssd1306":
			oled, err := render.OpenOLED(cfg.Display.I2CBus, uint8(cfg.Display.I2CAddress), cfg.Display.Width, cfg.Display.Height)
			if err != nil {
				return fail(err)
			}
			presenter = oled
		case "none", "":
			presenter = render.Discard{}
		default:
			return fail(fmt.Errorf("unknown display driver %q", cfg.Display.Driver))
		}
	}
	canvas := render.NewCanvas(cfg.Display.Width, cfg.Display.Height, faces, presenter)
	closers = append(closers, canvas)

	indicator := opts.indicator
	if indicator == nil {
		switch cfg.LED.Driver {
		case "ws2812":
			led, err := render.NewWS2812(cfg.LED.SPISpeed, uint8(cfg.LED.Brightness), logger)
			if err != nil {
				return fail(err)
			}
			indicator = led
		case "none", "log", "":
			indicator = render.NewLogIndicator(logger)
		default:
			return fail(fmt.Errorf("unknown led driver %q", cfg.LED.Driver))
		}
	}
	closers = append(closers, indicator)

	source := opts.source
	if source == nil {
		switch cfg.Input.Driver {
		case "gpio":
			source = input.NewGPIOSource(cfg.Input.Buttons, cfg.Input.Debounce, logger)
		case "evdev":
			source = input.NewEvdevSource(cfg.Input.Device, cfg.Input.Keys, cfg.Input.Debounce, logger)
		case "none", "":
			source = input.NopSource{}
		default:
			return fail(fmt.Errorf("unknown input driver %q", cfg.Input.Driver))
		}
	}

	addr, err := resolveAddr(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}

	client := player.NewMPDClient(cfg.MPD.Timeout)
	poller := daemon.NewPoller(client, addr, daemon.DefaultRetryInterval, logger)
	dispatcher := action.NewDispatcher(table, action.NewShellSink(), logger)

	logger.Info().
		Str("mpd", addr).
		Str("display", cfg.Display.Driver).
		Str("led", cfg.LED.Driver).
		Str("input", cfg.Input.Driver).
		Int("actions", len(table)).
		Int("images", len(images)).
		Msg("Panel configured")

	return daemon.New(daemon.Config{
		Tick:           cfg.Display.Tick,
		Splash:         cfg.Display.Splash,
		SplashDuration: cfg.Display.SplashDuration,
		LongPress:      cfg.Input.LongPress,
		Images:         images,
		Display:        engineConfig(cfg),
	}, daemon.Deps{
		Input:      source,
		Dispatcher: dispatcher,
		Player:     client,
		Poller:     poller,
		Renderer:   canvas,
		Indicator:  indicator,
		Measurer:   canvas,
	}, logger), nil
}
