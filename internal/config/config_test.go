package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jfmyers9/mpdpanel/internal/action"
	"github.com/jfmyers9/mpdpanel/internal/input"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.MPD.Addr() != "localhost:6600" {
		t.Errorf("addr = %s", cfg.MPD.Addr())
	}
	if cfg.MPD.Timeout != 10*time.Second {
		t.Errorf("mpd timeout = %v", cfg.MPD.Timeout)
	}
	if cfg.Display.Tick != 20*time.Millisecond || cfg.Display.ModeDuration != 20*time.Second {
		t.Errorf("display cadences = %v / %v", cfg.Display.Tick, cfg.Display.ModeDuration)
	}
	if cfg.Display.I2CAddress != 0x3C || cfg.Display.Width != 128 || cfg.Display.Height != 64 {
		t.Errorf("panel = %#x %dx%d", cfg.Display.I2CAddress, cfg.Display.Width, cfg.Display.Height)
	}
	if cfg.Display.Separator != " >>> " || cfg.Display.Splash != "V2.BS" {
		t.Errorf("separator=%q splash=%q", cfg.Display.Separator, cfg.Display.Splash)
	}
	if cfg.Screensaver.Timeout != 20*time.Second || cfg.Screensaver.ImageDuration != 5*time.Second {
		t.Errorf("screensaver = %+v", cfg.Screensaver)
	}
	if cfg.LED.Brightness != 127 || cfg.LED.SPISpeed != 2400000 {
		t.Errorf("led = %+v", cfg.LED)
	}
	if cfg.Input.Debounce != 50*time.Millisecond || cfg.Input.LongPress != 2*time.Second {
		t.Errorf("input timings = %v / %v", cfg.Input.Debounce, cfg.Input.LongPress)
	}
	if cfg.Input.Buttons[action.PlayPause] != 20 || cfg.Input.Buttons[action.ExecuteScript] != 13 {
		t.Errorf("buttons = %v", cfg.Input.Buttons)
	}
	if cfg.Input.Keys[action.Next] != 163 {
		t.Errorf("keys = %v", cfg.Input.Keys)
	}
	if cfg.File() != "" {
		t.Errorf("File = %q, want none", cfg.File())
	}

	table, err := cfg.Table()
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	if len(table) != len(action.DefaultTable()) {
		t.Errorf("default table has %d entries, want %d", len(table), len(action.DefaultTable()))
	}
}

func TestLoad_File(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, `
mpd:
  host: music.local
  port: 6601
display:
  driver: none
  mode_duration: 5s
input:
  buttons:
    PLAY_PAUSE: 5
    SHUTDOWN: 6
actions:
  - input: SHUTDOWN
    press: long
    effects:
      - shell: echo bye
      - sleep: 500ms
      - shell: poweroff
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MPD.Addr() != "music.local:6601" {
		t.Errorf("addr = %s", cfg.MPD.Addr())
	}
	if cfg.Display.Driver != "none" || cfg.Display.ModeDuration != 5*time.Second {
		t.Errorf("display = %+v", cfg.Display)
	}
	if cfg.Input.Buttons["SHUTDOWN"] != 6 || cfg.Input.Buttons[action.PlayPause] != 5 {
		t.Errorf("buttons = %v", cfg.Input.Buttons)
	}
	if cfg.File() != path {
		t.Errorf("File = %q, want %q", cfg.File(), path)
	}

	table, err := cfg.Table()
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	seq := table.Lookup(input.Classification{Input: "SHUTDOWN", Kind: input.Long})
	if len(seq) != 3 {
		t.Fatalf("sequence length = %d, want 3", len(seq))
	}
	if seq[1] != action.Sleep(500*time.Millisecond) {
		t.Errorf("seq[1] = %v, want sleep 500ms", seq[1])
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MPDPANEL_MPD_HOST", "10.0.0.2")
	t.Setenv("MPDPANEL_LED_DRIVER", "none")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MPD.Host != "10.0.0.2" {
		t.Errorf("host = %s, want env override", cfg.MPD.Host)
	}
	if cfg.LED.Driver != "none" {
		t.Errorf("led driver = %s, want env override", cfg.LED.Driver)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoad_BadBrightness(t *testing.T) {
	path := writeConfig(t, "led:\n  brightness: 300\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected brightness range error")
	}
}

func TestDefaults_IgnoresEnv(t *testing.T) {
	t.Setenv("MPDPANEL_MPD_HOST", "10.0.0.2")

	cfg, err := Defaults()
	if err != nil {
		t.Fatalf("Defaults: %v", err)
	}
	if cfg.MPD.Host != "localhost" || cfg.File() != "" {
		t.Errorf("host=%s file=%q, want built-in defaults", cfg.MPD.Host, cfg.File())
	}
	if len(cfg.Actions) != len(action.DefaultTable()) {
		t.Errorf("actions = %d, want default table", len(cfg.Actions))
	}
}

func TestLoad_NowSection(t *testing.T) {
	path := writeConfig(t, "now:\n  width: 24\n  marquee_separator: \" | \"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Now.Width != 24 || cfg.Now.Marquee || cfg.Now.MarqueeSeparator != " | " {
		t.Errorf("now = %+v", cfg.Now)
	}

	path = writeConfig(t, "now:\n  width: -1\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for negative width")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.MPD.Host = "pi.local"
	cfg.Display.ScrollDelay = 3 * time.Second
	cfg.Now.Width = 30
	cfg.Now.Marquee = true

	path, err := cfg.Save(filepath.Join(t.TempDir(), "sub", "config.yaml"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load saved: %v", err)
	}
	if loaded.MPD.Host != "pi.local" || loaded.Display.ScrollDelay != 3*time.Second {
		t.Errorf("loaded = %+v / %v", loaded.MPD, loaded.Display.ScrollDelay)
	}
	if loaded.Now.Width != 30 || !loaded.Now.Marquee || loaded.Now.MarqueeSpeed != 2 {
		t.Errorf("now = %+v", loaded.Now)
	}
	if loaded.Input.Buttons[action.Prev] != 16 {
		t.Errorf("buttons = %v", loaded.Input.Buttons)
	}

	want, _ := cfg.Table()
	got, err := loaded.Table()
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	for _, k := range want.Keys() {
		if len(got[k]) != len(want[k]) {
			t.Errorf("%s: %d effects, want %d", k, len(got[k]), len(want[k]))
		}
	}
}
