// Package scrape parses the scraper's batch payloads into pipeline input.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"dashwatch/internal/chart"
	"dashwatch/internal/pipeline"
)

// Source produces one batch per fetch cycle.
type Source interface {
	Fetch(ctx context.Context) (pipeline.Batch, error)
}

// ParseBatch decodes a scraper payload: a JSON list of charts, each with a
// chart_num (index into the field table), module, time_window (index into
// the window table), and a chart_url_data.chart_url entry. downloadTime is
// when the dashboard page was scraped, shared by the whole batch.
func ParseBatch(payload []byte, downloadTime time.Time) (pipeline.Batch, error) {
	if !gjson.ValidBytes(payload) {
		return pipeline.Batch{}, fmt.Errorf("scrape payload is not valid JSON")
	}

	parsed := gjson.ParseBytes(payload)
	if !parsed.IsArray() {
		return pipeline.Batch{}, fmt.Errorf("scrape payload is not a JSON list")
	}

	batch := pipeline.Batch{DownloadTime: downloadTime.UTC()}
	var parseErr error
	parsed.ForEach(func(_, item gjson.Result) bool {
		desc, err := parseChart(item)
		if err != nil {
			parseErr = fmt.Errorf("chart %d: %w", len(batch.Charts), err)
			return false
		}
		batch.Charts = append(batch.Charts, desc)
		return true
	})
	if parseErr != nil {
		return pipeline.Batch{}, parseErr
	}
	return batch, nil
}

func parseChart(item gjson.Result) (pipeline.ChartDescriptor, error) {
	chartNum := item.Get("chart_num")
	module := item.Get("module")
	window := item.Get("time_window")
	chartURL := item.Get("chart_url_data.chart_url")

	for name, field := range map[string]gjson.Result{
		"chart_num":                chartNum,
		"module":                   module,
		"time_window":              window,
		"chart_url_data.chart_url": chartURL,
	} {
		if !field.Exists() {
			return pipeline.ChartDescriptor{}, fmt.Errorf("missing %s", name)
		}
	}

	params, err := chart.ParamsFromURL(chartURL.String())
	if err != nil {
		return pipeline.ChartDescriptor{}, err
	}

	return pipeline.ChartDescriptor{
		ChartIndex:  int(chartNum.Int()),
		Module:      module.String(),
		WindowIndex: int(window.Int()),
		Params:      params,
	}, nil
}

// FileSource reads one batch from a file, or stdin when the path is "-".
// The download time is supplied by whoever produced the file.
type FileSource struct {
	Path         string
	DownloadTime time.Time
}

// Fetch implements Source.
func (s FileSource) Fetch(_ context.Context) (pipeline.Batch, error) {
	var raw []byte
	var err error
	if s.Path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(s.Path)
	}
	if err != nil {
		return pipeline.Batch{}, fmt.Errorf("read batch: %w", err)
	}
	return ParseBatch(raw, s.DownloadTime)
}

// HTTPSource pulls the latest batch from the collector endpoint. The
// response body is the same JSON list the scraper writes to disk; the
// download time is taken at response time.
type HTTPSource struct {
	url    string
	client *http.Client
	logger zerolog.Logger
}

// NewHTTPSource constructs a collector-backed source.
func NewHTTPSource(url string, timeout time.Duration, logger zerolog.Logger) *HTTPSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSource{
		url:    strings.TrimSpace(url),
		client: &http.Client{Timeout: timeout},
		logger: logger.With().Str("component", "scrape_source").Logger(),
	}
}

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context) (pipeline.Batch, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return pipeline.Batch{}, fmt.Errorf("create collector request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return pipeline.Batch{}, fmt.Errorf("fetch batch: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return pipeline.Batch{}, fmt.Errorf("read batch response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return pipeline.Batch{}, fmt.Errorf("collector returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	downloadTime := time.Now().UTC()
	batch, err := ParseBatch(payload, downloadTime)
	if err != nil {
		return pipeline.Batch{}, err
	}

	s.logger.Debug().Int("charts", len(batch.Charts)).Time("download_time", downloadTime).Msg("batch fetched")
	return batch, nil
}
