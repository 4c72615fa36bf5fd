package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jfmyers9/mpdpanel/internal/config"
	"github.com/spf13/cobra"
)

var configInitForce bool

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with every setting at its default",
	Long: `Write a config file listing every setting, including the default
button actions, so it can be edited in place.

The file is written to --config, or ~/.config/mpdpanel/config.yaml.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file in use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.File() == "" {
			fmt.Printf("No config file found, using defaults (searched %s, /etc/mpdpanel and .)\n", config.GetConfigDir())
			return nil
		}
		fmt.Println(cfg.File())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configPathCmd)

	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = filepath.Join(config.GetConfigDir(), "config.yaml")
	}
	if _, err := os.Stat(path); err == nil && !configInitForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg, err := config.Defaults()
	if err != nil {
		return err
	}

	written, err := cfg.Save(path)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Wrote %s\n", written)
	return nil
}
