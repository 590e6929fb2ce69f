package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"dashwatch/internal/app"
)

var (
	reportFile       string
	reportDownloaded int64
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run one report cycle from a scraped batch file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if reportDownloaded <= 0 {
			return fmt.Errorf("--downloaded-at must be a positive unix timestamp")
		}

		opts := app.ReportOptions{
			Path:         reportFile,
			DownloadTime: time.Unix(reportDownloaded, 0).UTC(),
		}
		return getApp().Report(cmd.Context(), opts)
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportFile, "file", "-", "Batch JSON file to read (\"-\" for stdin)")
	reportCmd.Flags().Int64Var(&reportDownloaded, "downloaded-at", 0, "Unix timestamp (UTC) the batch was downloaded")
	_ = reportCmd.MarkFlagRequired("downloaded-at")
}
