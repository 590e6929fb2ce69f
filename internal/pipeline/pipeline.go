// Package pipeline reassembles decoded chart series into per-timestamp
// metric records and forwards everything newer than the emission watermark.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"dashwatch/internal/chart"
	"dashwatch/internal/fields"
	"dashwatch/internal/watermark"
)

// ErrMixedWindows indicates a batch whose charts do not all share one time
// window. Elapsed-to-absolute time conversion needs a single window
// duration, so such a batch is rejected outright.
var ErrMixedWindows = errors.New("pipeline: batch mixes time windows")

// ChartDescriptor identifies one scraped chart within a batch.
type ChartDescriptor struct {
	ChartIndex  int
	Module      string
	WindowIndex int
	Params      chart.Params
}

// Batch is the unit of one fetch cycle: every chart scraped in that cycle
// plus the single download timestamp they share.
type Batch struct {
	Charts       []ChartDescriptor
	DownloadTime time.Time
}

// Record is one aggregated observation at an absolute point in time.
type Record struct {
	Timestamp time.Time
	Fields    map[string]float64
}

// Sink delivers a module's records to the metrics backend. Implementations
// own their retry behaviour.
type Sink interface {
	Deliver(ctx context.Context, namespace, module string, records []Record) error
}

// Journal optionally keeps an audit copy of emitted records.
type Journal interface {
	InsertRecords(ctx context.Context, module string, records []Record) error
}

// Options configure a Pipeline.
type Options struct {
	Namespace string
}

// Pipeline drives extraction, aggregation, watermark filtering, and
// delivery for one batch at a time.
type Pipeline struct {
	table     *fields.Table
	store     watermark.Store
	sink      Sink
	journal   Journal
	namespace string
	logger    zerolog.Logger
}

// New constructs a Pipeline. journal may be nil.
func New(opts Options, table *fields.Table, store watermark.Store, sink Sink, journal Journal, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		table:     table,
		store:     store,
		sink:      sink,
		journal:   journal,
		namespace: opts.Namespace,
		logger:    logger.With().Str("component", "pipeline").Logger(),
	}
}

// Process runs one fetch cycle: decode every chart, aggregate per module,
// drop records at or before the watermark, deliver the rest, and advance
// the watermark. Any failure aborts the cycle before the watermark moves,
// so the next cycle retries from the last known-good state.
func (p *Pipeline) Process(ctx context.Context, batch Batch) (int, error) {
	if len(batch.Charts) == 0 {
		return 0, nil
	}

	window, err := p.batchWindow(batch)
	if err != nil {
		return 0, err
	}

	namedByModule, err := p.extractBatch(batch, window)
	if err != nil {
		return 0, err
	}

	mark, haveMark, err := p.store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load watermark: %w", err)
	}
	if !haveMark {
		p.logger.Info().Msg("no watermark from previous cycles; emitting all records")
	}

	windowStart := batch.DownloadTime.Add(-window.Duration)

	emitted := 0
	var latest time.Time
	for _, module := range sortedModules(namedByModule) {
		timed, err := AggregateByTime(namedByModule[module])
		if err != nil {
			return 0, fmt.Errorf("module %s: %w", module, err)
		}

		records := make([]Record, 0, len(timed))
		for _, rec := range timed {
			ts := windowStart.Add(time.Duration(rec.Elapsed) * time.Second)
			if haveMark && !ts.After(mark) {
				continue
			}
			records = append(records, Record{Timestamp: ts, Fields: rec.Fields})
		}
		if len(records) == 0 {
			continue
		}

		if err := p.sink.Deliver(ctx, p.namespace, module, records); err != nil {
			return 0, fmt.Errorf("deliver module %s: %w", module, err)
		}
		if p.journal != nil {
			if err := p.journal.InsertRecords(ctx, module, records); err != nil {
				p.logger.Error().Err(err).Str("module", module).Msg("failed to journal emitted records")
			}
		}

		emitted += len(records)
		if last := records[len(records)-1].Timestamp; last.After(latest) {
			latest = last
		}
		p.logger.Info().Str("module", module).Int("records", len(records)).Msg("records delivered")
	}

	if emitted > 0 {
		if err := p.store.Save(ctx, latest); err != nil {
			return 0, fmt.Errorf("save watermark: %w", err)
		}
	}
	return emitted, nil
}

func (p *Pipeline) batchWindow(batch Batch) (TimeWindow, error) {
	index := batch.Charts[0].WindowIndex
	for _, desc := range batch.Charts[1:] {
		if desc.WindowIndex != index {
			return TimeWindow{}, fmt.Errorf("%w: %d and %d", ErrMixedWindows, index, desc.WindowIndex)
		}
	}
	return WindowByIndex(index)
}

// extractBatch decodes every chart and resolves its series to canonical
// field names, grouped per module. When two charts in one module resolve a
// series to the same field name the later chart wins, matching the
// dashboard's own overlapping chart catalog (Summary and Error Details both
// report error rates).
func (p *Pipeline) extractBatch(batch Batch, window TimeWindow) (map[string]map[string]chart.Series, error) {
	namedByModule := make(map[string]map[string]chart.Series)
	for _, desc := range batch.Charts {
		label, err := p.table.ChartLabel(desc.ChartIndex)
		if err != nil {
			return nil, err
		}

		series, err := chart.ExtractSeries(desc.Params, window.Duration.Seconds())
		if err != nil {
			return nil, fmt.Errorf("chart %q module %s: %w", label, desc.Module, err)
		}

		named := namedByModule[desc.Module]
		if named == nil {
			named = make(map[string]chart.Series)
			namedByModule[desc.Module] = named
		}
		for _, s := range series {
			field, err := p.table.Resolve(label, s.Label)
			if err != nil {
				return nil, err
			}
			named[field] = s
		}
	}
	return namedByModule, nil
}

func sortedModules(byModule map[string]map[string]chart.Series) []string {
	modules := make([]string, 0, len(byModule))
	for module := range byModule {
		modules = append(modules, module)
	}
	sort.Strings(modules)
	return modules
}
