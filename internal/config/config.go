package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jfmyers9/mpdpanel/internal/action"
	"github.com/jfmyers9/mpdpanel/internal/input"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Output format template for the now command
	// Default: "{{.Artist}} - {{.Title}}"
	OutputFormat string

	// Now controls the width and scrolling of the now command
	Now NowConfig

	MPD         MPDConfig
	Display     DisplayConfig
	Screensaver ScreensaverConfig
	LED         LEDConfig
	Input       InputConfig

	// Actions binds presses to effect sequences
	Actions []action.Entry

	// file is the config file that was read, empty when none
	file string
}

// NowConfig shapes now output for status bars
type NowConfig struct {
	Width            int // 0 disables padding
	Marquee          bool
	MarqueeSpeed     int // columns per second
	MarqueeSeparator string
}

// MPDConfig locates the music player daemon
type MPDConfig struct {
	Host    string // "auto" browses for _mpd._tcp
	Port    int
	Timeout time.Duration
}

// Addr returns host:port
func (m MPDConfig) Addr() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}

// DisplayConfig describes the panel and its cadences
type DisplayConfig struct {
	Driver         string // ssd1306 or none
	I2CBus         int
	I2CAddress     int
	Width          int
	Height         int
	Font           string
	FontSize       float64
	TimeFont       string
	TimeFontSize   float64
	Tick           time.Duration
	ModeDuration   time.Duration
	ScrollStep     int
	ScrollInterval time.Duration
	ScrollDelay    time.Duration
	Separator      string
	Splash         string
	SplashDuration time.Duration
}

// ScreensaverConfig holds the image store location and timings
type ScreensaverConfig struct {
	DB            string
	Timeout       time.Duration
	ImageDuration time.Duration
}

// LEDConfig selects the status LED driver
type LEDConfig struct {
	Driver     string // ws2812 or none
	Brightness int
	SPISpeed   int
}

// InputConfig selects the button source
type InputConfig struct {
	Driver    string // gpio, evdev or none
	Device    string // evdev device path
	Debounce  time.Duration
	LongPress time.Duration
	Buttons   map[input.ID]int    // BCM pin per button (gpio)
	Keys      map[input.ID]uint16 // key code per button (evdev)
}

var defaultButtons = map[string]int{
	"PLAY_PAUSE":     20,
	"PREV":           16,
	"NEXT":           26,
	"EXECUTE_SCRIPT": 13,
}

// KEY_PLAYPAUSE, KEY_PREVIOUSSONG, KEY_NEXTSONG, KEY_PROG1
var defaultKeys = map[string]int{
	"PLAY_PAUSE":     164,
	"PREV":           165,
	"NEXT":           163,
	"EXECUTE_SCRIPT": 148,
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output_format", "{{.Artist}} - {{.Title}}")
	v.SetDefault("now.width", 0)
	v.SetDefault("now.marquee", false)
	v.SetDefault("now.marquee_speed", 2)
	v.SetDefault("now.marquee_separator", " • ")

	v.SetDefault("mpd.host", "localhost")
	v.SetDefault("mpd.port", 6600)
	v.SetDefault("mpd.timeout", 10*time.Second)

	v.SetDefault("display.driver", "ssd1306")
	v.SetDefault("display.i2c_bus", 1)
	v.SetDefault("display.i2c_address", 0x3C)
	v.SetDefault("display.width", 128)
	v.SetDefault("display.height", 64)
	v.SetDefault("display.font", "/usr/share/fonts/truetype/heavitas/Heavitas.ttf")
	v.SetDefault("display.font_size", 22)
	v.SetDefault("display.time_font", "/usr/share/fonts/opentype/acqua/Color Basic.otf")
	v.SetDefault("display.time_font_size", 28)
	v.SetDefault("display.tick", 20*time.Millisecond)
	v.SetDefault("display.mode_duration", 20*time.Second)
	v.SetDefault("display.scroll_step", 2)
	v.SetDefault("display.scroll_interval", 20*time.Millisecond)
	v.SetDefault("display.scroll_delay", 2*time.Second)
	v.SetDefault("display.separator", " >>> ")
	v.SetDefault("display.splash", "V2.BS")
	v.SetDefault("display.splash_duration", 2*time.Second)

	v.SetDefault("screensaver.db", filepath.Join(getDataDir(), "images.db"))
	v.SetDefault("screensaver.timeout", 20*time.Second)
	v.SetDefault("screensaver.image_duration", 5*time.Second)

	v.SetDefault("led.driver", "ws2812")
	v.SetDefault("led.brightness", 127)
	v.SetDefault("led.spi_speed", 2400000)

	v.SetDefault("input.driver", "gpio")
	v.SetDefault("input.device", "/dev/input/by-path/platform-gpio-keys-event")
	v.SetDefault("input.debounce", 50*time.Millisecond)
	v.SetDefault("input.long_press", 2*time.Second)
	v.SetDefault("input.buttons", defaultButtons)
	v.SetDefault("input.keys", defaultKeys)
}

// Load reads configuration from file and environment. An empty path
// searches the user and system config directories.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Config file locations (in order of precedence)
		v.AddConfigPath(getConfigDir())
		v.AddConfigPath("/etc/mpdpanel")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine unless it was asked for explicitly
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Read from environment variables, e.g. MPDPANEL_MPD_HOST
	v.SetEnvPrefix("MPDPANEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return fromViper(v)
}

// Defaults returns the built-in configuration, ignoring files and the
// environment
func Defaults() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		OutputFormat: v.GetString("output_format"),
		Now: NowConfig{
			Width:            v.GetInt("now.width"),
			Marquee:          v.GetBool("now.marquee"),
			MarqueeSpeed:     v.GetInt("now.marquee_speed"),
			MarqueeSeparator: v.GetString("now.marquee_separator"),
		},
		MPD: MPDConfig{
			Host:    v.GetString("mpd.host"),
			Port:    v.GetInt("mpd.port"),
			Timeout: v.GetDuration("mpd.timeout"),
		},
		Display: DisplayConfig{
			Driver:         v.GetString("display.driver"),
			I2CBus:         v.GetInt("display.i2c_bus"),
			I2CAddress:     v.GetInt("display.i2c_address"),
			Width:          v.GetInt("display.width"),
			Height:         v.GetInt("display.height"),
			Font:           expandHome(v.GetString("display.font")),
			FontSize:       v.GetFloat64("display.font_size"),
			TimeFont:       expandHome(v.GetString("display.time_font")),
			TimeFontSize:   v.GetFloat64("display.time_font_size"),
			Tick:           v.GetDuration("display.tick"),
			ModeDuration:   v.GetDuration("display.mode_duration"),
			ScrollStep:     v.GetInt("display.scroll_step"),
			ScrollInterval: v.GetDuration("display.scroll_interval"),
			ScrollDelay:    v.GetDuration("display.scroll_delay"),
			Separator:      v.GetString("display.separator"),
			Splash:         v.GetString("display.splash"),
			SplashDuration: v.GetDuration("display.splash_duration"),
		},
		Screensaver: ScreensaverConfig{
			DB:            expandHome(v.GetString("screensaver.db")),
			Timeout:       v.GetDuration("screensaver.timeout"),
			ImageDuration: v.GetDuration("screensaver.image_duration"),
		},
		LED: LEDConfig{
			Driver:     v.GetString("led.driver"),
			Brightness: v.GetInt("led.brightness"),
			SPISpeed:   v.GetInt("led.spi_speed"),
		},
		Input: InputConfig{
			Driver:    v.GetString("input.driver"),
			Device:    v.GetString("input.device"),
			Debounce:  v.GetDuration("input.debounce"),
			LongPress: v.GetDuration("input.long_press"),
		},
		file: v.ConfigFileUsed(),
	}

	var err error
	if cfg.Input.Buttons, err = buttonMap[int](v, "input.buttons"); err != nil {
		return nil, err
	}
	if cfg.Input.Keys, err = buttonMap[uint16](v, "input.keys"); err != nil {
		return nil, err
	}

	if v.IsSet("actions") {
		if err := v.UnmarshalKey("actions", &cfg.Actions); err != nil {
			return nil, fmt.Errorf("failed to parse actions: %w", err)
		}
	} else {
		cfg.Actions = action.DefaultTable().Entries()
	}

	if cfg.Now.Width < 0 {
		return nil, fmt.Errorf("now.width must not be negative, got %d", cfg.Now.Width)
	}

	if cfg.LED.Brightness < 0 || cfg.LED.Brightness > 255 {
		return nil, fmt.Errorf("led.brightness must be 0-255, got %d", cfg.LED.Brightness)
	}

	return cfg, nil
}

// buttonMap reads a button name to number map. Viper folds keys to lower
// case, button IDs are upper case.
func buttonMap[T int | uint16](v *viper.Viper, key string) (map[input.ID]T, error) {
	var raw map[string]int
	if err := v.UnmarshalKey(key, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	out := make(map[input.ID]T, len(raw))
	for name, n := range raw {
		if n < 0 {
			return nil, fmt.Errorf("%s.%s: negative value %d", key, name, n)
		}
		out[input.ID(strings.ToUpper(name))] = T(n)
	}
	return out, nil
}

// Table builds the action table from the configured entries
func (c *Config) Table() (action.Table, error) {
	return action.FromEntries(c.Actions)
}

// File returns the config file that was loaded, or "" for defaults only
func (c *Config) File() string {
	return c.file
}

// InputIDs returns the configured buttons in name order
func (c *Config) InputIDs() []input.ID {
	ids := make([]input.ID, 0, len(c.Input.Buttons))
	for id := range c.Input.Buttons {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// getConfigDir returns the configuration directory path
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".config", "mpdpanel")
}

// getDataDir returns the directory for the image database and logs
func getDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".local", "share", "mpdpanel")
}

// GetConfigDir returns the configuration directory path (public helper)
func GetConfigDir() string {
	return getConfigDir()
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// Save writes configuration to path, or to the user config directory when
// path is empty, creating the directory if needed.
func (c *Config) Save(path string) (string, error) {
	if path == "" {
		path = filepath.Join(getConfigDir(), "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("output_format", c.OutputFormat)
	v.Set("now.width", c.Now.Width)
	v.Set("now.marquee", c.Now.Marquee)
	v.Set("now.marquee_speed", c.Now.MarqueeSpeed)
	v.Set("now.marquee_separator", c.Now.MarqueeSeparator)

	v.Set("mpd.host", c.MPD.Host)
	v.Set("mpd.port", c.MPD.Port)
	v.Set("mpd.timeout", c.MPD.Timeout.String())

	v.Set("display.driver", c.Display.Driver)
	v.Set("display.i2c_bus", c.Display.I2CBus)
	v.Set("display.i2c_address", c.Display.I2CAddress)
	v.Set("display.width", c.Display.Width)
	v.Set("display.height", c.Display.Height)
	v.Set("display.font", c.Display.Font)
	v.Set("display.font_size", c.Display.FontSize)
	v.Set("display.time_font", c.Display.TimeFont)
	v.Set("display.time_font_size", c.Display.TimeFontSize)
	v.Set("display.tick", c.Display.Tick.String())
	v.Set("display.mode_duration", c.Display.ModeDuration.String())
	v.Set("display.scroll_step", c.Display.ScrollStep)
	v.Set("display.scroll_interval", c.Display.ScrollInterval.String())
	v.Set("display.scroll_delay", c.Display.ScrollDelay.String())
	v.Set("display.separator", c.Display.Separator)
	v.Set("display.splash", c.Display.Splash)
	v.Set("display.splash_duration", c.Display.SplashDuration.String())

	v.Set("screensaver.db", c.Screensaver.DB)
	v.Set("screensaver.timeout", c.Screensaver.Timeout.String())
	v.Set("screensaver.image_duration", c.Screensaver.ImageDuration.String())

	v.Set("led.driver", c.LED.Driver)
	v.Set("led.brightness", c.LED.Brightness)
	v.Set("led.spi_speed", c.LED.SPISpeed)

	v.Set("input.driver", c.Input.Driver)
	v.Set("input.device", c.Input.Device)
	v.Set("input.debounce", c.Input.Debounce.String())
	v.Set("input.long_press", c.Input.LongPress.String())
	v.Set("input.buttons", stringKeys(c.Input.Buttons))
	v.Set("input.keys", stringKeys(c.Input.Keys))

	actions := make([]map[string]any, 0, len(c.Actions))
	for _, e := range c.Actions {
		effects := make([]map[string]any, 0, len(e.Effects))
		for _, d := range e.Effects {
			if d.Shell != "" {
				effects = append(effects, map[string]any{"shell": d.Shell})
			} else {
				effects = append(effects, map[string]any{"sleep": d.Sleep.String()})
			}
		}
		actions = append(actions, map[string]any{"input": e.Input, "press": e.Press, "effects": effects})
	}
	v.Set("actions", actions)

	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}

func stringKeys[T int | uint16](m map[input.ID]T) map[string]int {
	out := make(map[string]int, len(m))
	for id, n := range m {
		out[string(id)] = int(n)
	}
	return out
}
