//go:build integration

package main

import (
	"context"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"
)

// buildBinary builds mpdpanel into a temporary directory
func buildBinary(t *testing.T) string {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "mpdpanel_test")
	buildCmd := exec.Command("go", "build", "-o", bin, ".")
	if out, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build binary: %v\n%s", err, out)
	}
	return bin
}

// closedPort returns a local port nothing is listening on
func closedPort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()
	return port
}

// writeTestConfig writes a config that needs no hardware and no fonts
func writeTestConfig(t *testing.T, dir string, extra string) string {
	t.Helper()
	body := `mpd:
  host: 127.0.0.1
  port: ` + strconv.Itoa(closedPort(t)) + `
  timeout: 500ms
display:
  driver: none
  font: ""
  time_font: ""
  splash_duration: 100ms
led:
  driver: none
input:
  driver: none
screensaver:
  db: ` + filepath.Join(dir, "images.db") + `
` + extra
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// TestDaemonLifecycle starts the daemon against an unreachable MPD and
// stops it with SIGTERM
func TestDaemonLifecycle(t *testing.T) {
	bin := buildBinary(t)
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir, "")
	logFile := filepath.Join(dir, "daemon.log")

	cmd := exec.Command(bin, "daemon", "--config", cfgPath, "--log-file", logFile, "--log-level", "debug")
	if err := cmd.Start(); err != nil {
		t.Fatalf("Failed to start daemon: %v", err)
	}

	// Splash, then at least one offline poll
	time.Sleep(1 * time.Second)

	if _, err := os.Stat(filepath.Join(dir, "images.db")); os.IsNotExist(err) {
		t.Errorf("Image database not created")
	}

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		t.Fatalf("signal: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Daemon exited with error: %v", err)
		}
	case <-time.After(5 * time.Second):
		cmd.Process.Kill()
		t.Fatal("Daemon did not stop within 5 seconds")
	}

	logs, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(logs), "Panel configured") {
		t.Errorf("log does not show startup:\n%s", logs)
	}
}

// TestDaemonMissingFont fails at startup instead of running blind
func TestDaemonMissingFont(t *testing.T) {
	bin := buildBinary(t)
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir, "")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, "daemon", "--config", cfgPath)
	cmd.Env = append(os.Environ(), "MPDPANEL_DISPLAY_FONT="+filepath.Join(dir, "missing.ttf"))
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("daemon started without its font:\n%s", out)
	}
	if !strings.Contains(string(out), "missing.ttf") {
		t.Errorf("error does not name the font:\n%s", out)
	}
}

// TestNowCommand exits 1 when MPD cannot be reached
func TestNowCommand(t *testing.T) {
	bin := buildBinary(t)
	cfgPath := writeTestConfig(t, t.TempDir(), "")

	cmd := exec.Command(bin, "now", "--config", cfgPath)
	output, err := cmd.CombinedOutput()
	exitErr, ok := err.(*exec.ExitError)
	if !ok || exitErr.ExitCode() != 1 {
		t.Errorf("now exit = %v, want status 1\n%s", err, output)
	}
}

// TestActionsYAML prints configured actions in config form
func TestActionsYAML(t *testing.T) {
	bin := buildBinary(t)
	cfgPath := writeTestConfig(t, t.TempDir(), `actions:
  - input: NEXT
    press: short
    effects:
      - shell: mpc next
      - sleep: 1s
`)

	out, err := exec.Command(bin, "actions", "--yaml", "--config", cfgPath).CombinedOutput()
	if err != nil {
		t.Fatalf("actions: %v\n%s", err, out)
	}
	for _, want := range []string{"input: NEXT", "press: short", "shell: mpc next", "sleep: 1s"} {
		if !strings.Contains(string(out), want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

// TestSystemdInstallation stages the unit below a temporary root
func TestSystemdInstallation(t *testing.T) {
	bin := buildBinary(t)
	root := t.TempDir()

	out, err := exec.Command(bin, "install", "--root", root).CombinedOutput()
	if err != nil {
		t.Fatalf("install: %v\n%s", err, out)
	}
	unit := filepath.Join(root, "etc", "systemd", "system", "mpdpanel.service")
	data, err := os.ReadFile(unit)
	if err != nil {
		t.Fatalf("unit not staged: %v", err)
	}
	if !strings.Contains(string(data), "mpdpanel_test daemon") {
		t.Errorf("unit does not run the daemon:\n%s", data)
	}

	out, err = exec.Command(bin, "uninstall", "--root", root).CombinedOutput()
	if err != nil {
		t.Fatalf("uninstall: %v\n%s", err, out)
	}
	if _, err := os.Stat(unit); !os.IsNotExist(err) {
		t.Errorf("unit still present after uninstall")
	}
}
