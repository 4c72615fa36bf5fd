package daemon

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

// UnitName is the systemd service name
const UnitName = "mpdpanel.service"

const unitTemplate = `[Unit]
Description=mpdpanel front panel for MPD
After=network-online.target mpd.service
Wants=network-online.target

[Service]
Type=simple
ExecStart={{.BinaryPath}} daemon{{if .ConfigFile}} --config {{.ConfigFile}}{{end}} --log-file {{.LogPath}}/mpdpanel.log
WorkingDirectory={{.WorkingDirectory}}
{{- if .User}}
User={{.User}}
{{- end}}
Environment=PATH=/usr/local/bin:/usr/bin:/bin:/usr/sbin:/sbin
Restart=on-failure
RestartSec=2
KillSignal=SIGTERM
TimeoutStopSec=10

[Install]
WantedBy=multi-user.target
`

// UnitConfig holds the configuration for generating a systemd unit
type UnitConfig struct {
	BinaryPath       string
	ConfigFile       string // optional --config flag
	LogPath          string
	WorkingDirectory string
	User             string // empty runs as root
}

// GenerateUnit generates a systemd unit file from the template
func GenerateUnit(config UnitConfig) (string, error) {
	tmpl, err := template.New("unit").Parse(unitTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse unit template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, config); err != nil {
		return "", fmt.Errorf("failed to execute unit template: %w", err)
	}

	return buf.String(), nil
}

// GetUnitPath returns the path where the unit should be installed. A
// non-empty root is prepended, which lets packagers stage the file.
func GetUnitPath(root string) string {
	return filepath.Join(root, "/etc/systemd/system", UnitName)
}

// GetDefaultLogPath returns the default path for daemon logs
func GetDefaultLogPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".local", "share", "mpdpanel", "logs"), nil
}
