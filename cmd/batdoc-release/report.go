package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dpetta/batdoc-release/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "List past build and publish runs",
	Long: `Report lists the run history recorded by past build and publish runs,
newest first: run ID, stage, version, per-target and per-repo outcome counts,
and exit code.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().Int("limit", 20, "maximum number of runs to list")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	historyDir, _ := cmd.Flags().GetString("history-dir")
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := report.OpenStore(historyDir)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tSTAGE\tVERSION\tOUTCOME\tEXIT\tRUN")
	for _, r := range runs {
		outcome := fmt.Sprintf("%d/%d built", r.BuildsOK, r.Builds)
		if r.Stage == "publish" {
			outcome = fmt.Sprintf("%d/%d pushed", r.Pushed, r.Publishes)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			r.StartedAt, r.Stage, r.Version, outcome, r.ExitCode, r.ID)
	}
	return w.Flush()
}
