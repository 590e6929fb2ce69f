package cli

import (
	"github.com/spf13/cobra"

	"dashwatch/internal/app"
)

var (
	renderURL    string
	renderChart  int
	renderWindow int
	renderPNG    string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Decode a chart URL and plot the decoded series to PNG",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.RenderOptions{
			URL:         renderURL,
			ChartIndex:  renderChart,
			WindowIndex: renderWindow,
			PNGPath:     renderPNG,
		}
		return getApp().Render(cmd.Context(), opts)
	},
}

func init() {
	renderCmd.Flags().StringVar(&renderURL, "url", "", "Chart API URL to decode")
	renderCmd.Flags().IntVar(&renderChart, "chart", 0, "Chart index into the field table")
	renderCmd.Flags().IntVar(&renderWindow, "window", 2, "Time window index (default: 6 hrs)")
	renderCmd.Flags().StringVar(&renderPNG, "png", "", "Path to write the PNG")
	_ = renderCmd.MarkFlagRequired("url")
	_ = renderCmd.MarkFlagRequired("png")
}
