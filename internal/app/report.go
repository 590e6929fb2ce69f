package app

import (
	"context"
	"fmt"
	"os"

	"dashwatch/internal/scrape"
)

// Report runs one fetch cycle from a scraped batch file (or stdin when the
// path is "-") and prints how many records were imported.
func (a *App) Report(ctx context.Context, opts ReportOptions) error {
	p, closePipeline, err := a.newPipeline(ctx)
	if err != nil {
		return err
	}
	defer closePipeline()

	source := scrape.FileSource{Path: opts.Path, DownloadTime: opts.DownloadTime}
	batch, err := source.Fetch(ctx)
	if err != nil {
		return err
	}

	emitted, err := p.Process(ctx, batch)
	if err != nil {
		return err
	}

	plural := "s"
	if emitted == 1 {
		plural = ""
	}
	fmt.Fprintf(os.Stdout, "Imported %d record%s\n", emitted, plural)
	return nil
}
