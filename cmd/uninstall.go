package cmd

import (
	"fmt"
	"os"

	"github.com/jfmyers9/mpdpanel/internal/daemon"
	"github.com/spf13/cobra"
)

// uninstallCmd represents the uninstall command
var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Uninstall the mpdpanel systemd service",
	Long: `Uninstall the mpdpanel systemd service and stop it from starting at boot.

This command will:
  - Stop and disable the running service (if any)
  - Remove the unit file from /etc/systemd/system/
  - Reload systemd

The daemon clears the display and turns off the LED when it stops.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		unitPath := daemon.GetUnitPath(installRoot)

		// Check if the unit exists
		if _, err := os.Stat(unitPath); os.IsNotExist(err) {
			fmt.Println("Service is not installed (unit not found)")
			return nil
		}

		live := installRoot == ""
		if live {
			fmt.Println("Stopping service...")
			if err := systemctl("disable", "--now", daemon.UnitName); err != nil {
				fmt.Printf("Warning: failed to disable service: %v\n", err)
				fmt.Println("Continuing with unit removal...")
			} else {
				fmt.Println("✓ Service stopped")
			}
		}

		if err := os.Remove(unitPath); err != nil {
			return fmt.Errorf("failed to remove unit file: %w", err)
		}
		fmt.Printf("✓ Removed unit from %s\n", unitPath)

		if live {
			if err := systemctl("daemon-reload"); err != nil {
				fmt.Printf("Warning: %v\n", err)
			}
		}

		fmt.Println("\nThe mpdpanel service has been uninstalled successfully.")
		fmt.Println("It will no longer start automatically at boot.")
		fmt.Println("\nTo reinstall, run:")
		fmt.Println("  mpdpanel install")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(uninstallCmd)

	uninstallCmd.Flags().StringVar(&installRoot, "root", "", "Remove a unit staged below this directory")
}
