/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// configFile overrides the config search path
var configFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mpdpanel",
	Short: "Front panel for an MPD music player",
	Long: `mpdpanel drives the front panel of a Raspberry Pi music player.

It runs as a daemon that shows the MPD playback status on a small OLED,
colours a status LED by play state, cycles screensaver images when idle,
and turns short and long button presses into configurable shell commands.

It also provides CLI commands to control MPD, inspect the button actions,
manage screensaver images and preview the panel in a terminal.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ~/.config/mpdpanel/config.yaml)")
}
