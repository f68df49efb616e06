package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/timetable/internal/api"
	"github.com/jackzampolin/timetable/internal/importer"
	"github.com/jackzampolin/timetable/internal/ingest"
	"github.com/jackzampolin/timetable/internal/server"
)

var (
	parseRemote bool
	parseTable  bool
	parseSave   bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [file|-]",
	Short: "Parse a timetable locally without a server",
	Long: `Parse a timetable file or standard input into a structured schedule.

Accepts .txt, .csv, .xlsx and .pdf files. With no argument or "-", text is
read from standard input.

Examples:
  timetable parse week.txt                 # Print the schedule as YAML
  pbpaste | timetable parse --table        # Render pasted text as a grid
  timetable parse grid.xlsx -o json --save # Save the result under ~/.timetable/exports`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, h, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := mgr.Get()
		logger := cfg.Logging.NewLogger(os.Stderr)

		doc, err := readSource(args, cfg.Import.MaxUploadBytes)
		if err != nil {
			return err
		}
		logger.Debug("read source", "name", doc.Name, "kind", doc.Kind, "chars", len(doc.Text))

		svc := server.NewServices(mgr, h, logger)
		res := svc.Importer.Import(cmd.Context(), doc.Text, importer.Options{Remote: parseRemote})
		if res.Notice != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", res.Notice, res.FallbackReason)
		}

		if parseSave {
			if err := h.EnsureExists(); err != nil {
				return err
			}
			path := h.ExportPath(res.ID, string(api.GetOutputFormat()))
			if err := api.OutputToFile(res, path); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Saved %s\n", path)
		}

		if parseTable {
			fmt.Println(renderSchedule(res.Schedule))
			fmt.Printf("source: %s  format: %s  classes: %d\n", res.Source, res.Format, res.Classes)
			return nil
		}
		return api.Output(res)
	},
}

// readSource reads the file named by args, or standard input as text.
func readSource(args []string, limit int64) (*ingest.Document, error) {
	if len(args) == 0 || args[0] == "-" {
		return ingest.Read("stdin.txt", os.Stdin, limit)
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer f.Close()
	return ingest.Read(args[0], f, limit)
}

func init() {
	parseCmd.Flags().BoolVar(&parseRemote, "remote", false, "Try model-assisted parsing first (requires import.remote_enabled)")
	parseCmd.Flags().BoolVar(&parseTable, "table", false, "Render the schedule as a table")
	parseCmd.Flags().BoolVar(&parseSave, "save", false, "Save the result to the exports directory")

	rootCmd.AddCommand(parseCmd)
}
