package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	gochart "github.com/wcharczuk/go-chart/v2"

	"dashwatch/internal/chart"
	"dashwatch/internal/pipeline"
)

// Render decodes one chart URL locally and plots the decoded series to a
// PNG, for checking decoder output against the live dashboard.
func (a *App) Render(ctx context.Context, opts RenderOptions) error {
	if opts.URL == "" {
		return errors.New("--url is required")
	}
	if opts.PNGPath == "" {
		return errors.New("--png is required")
	}

	table, err := a.newTable()
	if err != nil {
		return err
	}
	label, err := table.ChartLabel(opts.ChartIndex)
	if err != nil {
		return err
	}
	window, err := pipeline.WindowByIndex(opts.WindowIndex)
	if err != nil {
		return err
	}

	params, err := chart.ParamsFromURL(opts.URL)
	if err != nil {
		return err
	}
	series, err := chart.ExtractSeries(params, window.Duration.Seconds())
	if err != nil {
		return err
	}

	plotted := make([]gochart.Series, 0, len(series))
	for _, s := range series {
		field, err := table.Resolve(label, s.Label)
		if err != nil {
			return err
		}
		xs := make([]float64, len(s.Points))
		ys := make([]float64, len(s.Points))
		for i, point := range s.Points {
			xs[i] = float64(point.Elapsed)
			ys[i] = point.Value
		}
		plotted = append(plotted, gochart.ContinuousSeries{
			Name:    field,
			XValues: xs,
			YValues: ys,
		})
	}

	graph := gochart.Chart{
		Title:  fmt.Sprintf("%s (%s)", label, window.Label),
		Width:  1280,
		Height: 720,
		XAxis: gochart.XAxis{
			Name: "seconds into window",
		},
		Series: plotted,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	if dir := filepath.Dir(opts.PNGPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(opts.PNGPath)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := graph.Render(gochart.PNG, file); err != nil {
		return err
	}
	a.Logger.Info().Str("path", opts.PNGPath).Str("chart", label).Msg("decoded chart rendered")
	return nil
}
