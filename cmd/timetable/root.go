package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/timetable/internal/api"
	"github.com/jackzampolin/timetable/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "timetable",
	Short: "Turn pasted school timetables into structured schedules",
	Long: `Timetable reads a school timetable copied from a student portal, a
spreadsheet or a PDF and turns it into a structured multi-day schedule.

Parsing is heuristic and runs locally:
  - Tab-delimited grids copied from spreadsheets
  - Line-delimited grids with period headers and times
  - Freeform text with day and period markers
Model-assisted parsing can be enabled in config and always falls back to
the local parser.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.timetable/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "timetable home directory (default: ~/.timetable)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
