// Command ielts runs the study plan sync server and manages its stored state.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ieltsmaster/studyplan/internal/config"
	"github.com/ieltsmaster/studyplan/internal/ui"
)

var (
	cfgFile string
	noColor bool

	// cfg is loaded before every command runs
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ielts",
	Short: "IELTS study plan sync server",
	Long: `ielts serves the study dashboard's sync API and manages the stored state.

The state holds three regions: the daily Planner, the Resource Hub link
lists and the Chill Zone watch list. All of them live under one key with a
30-day expiry that every save renews.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ui.SetNoColor(noColor)

		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/ielts/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "server", Title: "Server:"},
		&cobra.Group{ID: "data", Title: "Data:"},
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
