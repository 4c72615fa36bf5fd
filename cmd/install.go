package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jfmyers9/mpdpanel/internal/daemon"
	"github.com/spf13/cobra"
)

var (
	installRoot string
	installUser string
)

// installCmd represents the install command
var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the mpdpanel daemon as a systemd service",
	Long: `Install the mpdpanel daemon as a systemd service that starts at boot.

This command will:
  - Generate a systemd unit for the mpdpanel daemon
  - Install it to /etc/systemd/system/
  - Reload systemd and enable the service
  - Start the daemon

With --root the unit is written below that directory and systemctl is not
run, which is useful when building an image. Installing to the live system
usually needs sudo.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Get the path to the current executable
		binaryPath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to get executable path: %w", err)
		}

		// Resolve symlinks to get the actual binary path
		binaryPath, err = filepath.EvalSymlinks(binaryPath)
		if err != nil {
			return fmt.Errorf("failed to resolve executable path: %w", err)
		}

		logPath, err := daemon.GetDefaultLogPath()
		if err != nil {
			return fmt.Errorf("failed to get log path: %w", err)
		}
		if err := os.MkdirAll(filepath.Join(installRoot, logPath), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		configPath := configFile
		if configPath != "" {
			if configPath, err = filepath.Abs(configPath); err != nil {
				return fmt.Errorf("failed to resolve config path: %w", err)
			}
		}

		unit, err := daemon.GenerateUnit(daemon.UnitConfig{
			BinaryPath:       binaryPath,
			ConfigFile:       configPath,
			LogPath:          logPath,
			WorkingDirectory: home,
			User:             installUser,
		})
		if err != nil {
			return fmt.Errorf("failed to generate unit: %w", err)
		}

		unitPath := daemon.GetUnitPath(installRoot)
		if err := os.MkdirAll(filepath.Dir(unitPath), 0755); err != nil {
			return fmt.Errorf("failed to create unit directory: %w", err)
		}

		live := installRoot == ""
		if _, err := os.Stat(unitPath); err == nil && live {
			fmt.Println("Service is already installed. Stopping it first...")
			if err := systemctl("stop", daemon.UnitName); err != nil {
				fmt.Printf("Warning: failed to stop existing service: %v\n", err)
			}
		}

		if err := os.WriteFile(unitPath, []byte(unit), 0644); err != nil {
			return fmt.Errorf("failed to write unit file: %w", err)
		}
		fmt.Printf("✓ Installed unit to %s\n", unitPath)

		if !live {
			fmt.Println("\nStaged only. Enable it on the target with:")
			fmt.Printf("  systemctl enable %s\n", daemon.UnitName)
			return nil
		}

		if err := systemctl("daemon-reload"); err != nil {
			return err
		}
		if err := systemctl("enable", "--now", daemon.UnitName); err != nil {
			return err
		}

		fmt.Println("✓ Service enabled and started successfully")
		fmt.Printf("✓ Logs will be written to %s\n", logPath)
		fmt.Println("\nThe mpdpanel daemon is now running and will start automatically at boot.")
		fmt.Println("\nYou can check the service status with:")
		fmt.Printf("  systemctl status %s\n", daemon.UnitName)
		fmt.Println("\nTo uninstall, run:")
		fmt.Println("  mpdpanel uninstall")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)

	installCmd.Flags().StringVar(&installRoot, "root", "", "Stage the unit below this directory instead of installing it")
	installCmd.Flags().StringVar(&installUser, "user", "", "Run the daemon as this user (default: root)")
}

// systemctl runs one systemctl command, returning its output on failure
func systemctl(args ...string) error {
	output, err := exec.Command("systemctl", args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(output)); msg != "" {
			return fmt.Errorf("systemctl %s failed: %s", strings.Join(args, " "), msg)
		}
		return fmt.Errorf("failed to run systemctl %s: %w", strings.Join(args, " "), err)
	}
	return nil
}
