// Package fields maps well-known dashboard charts to canonical metric field
// names.
package fields

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownChart indicates a chart label missing from the table.
	ErrUnknownChart = errors.New("fields: unknown chart")

	// ErrUnknownSeries indicates a series label missing from a multi-series
	// chart's mapping.
	ErrUnknownSeries = errors.New("fields: unknown series label")
)

// Entry maps one well-known chart to metric field names. Exactly one of
// Field and Series is set: Field names the chart's lone unlabeled series,
// Series maps each series label of a multi-series chart to its field name.
type Entry struct {
	Chart  string            `yaml:"chart"`
	Field  string            `yaml:"field,omitempty"`
	Series map[string]string `yaml:"series,omitempty"`
}

// Table is the ordered chart-to-field lookup. Ordering is load-bearing:
// scraped batches identify charts by index into this table, and that index
// must line up with the chart dropdown on the dashboard homepage.
type Table struct {
	entries []Entry
	byChart map[string]int
}

// NewTable builds and validates a lookup table.
func NewTable(entries []Entry) (*Table, error) {
	table := &Table{
		entries: entries,
		byChart: make(map[string]int, len(entries)),
	}
	for i, entry := range entries {
		if entry.Chart == "" {
			return nil, fmt.Errorf("field table entry %d has no chart label", i)
		}
		if _, dup := table.byChart[entry.Chart]; dup {
			return nil, fmt.Errorf("field table entry %d duplicates chart %q", i, entry.Chart)
		}
		if err := validateEntry(entry); err != nil {
			return nil, fmt.Errorf("field table entry %d (%q): %w", i, entry.Chart, err)
		}
		table.byChart[entry.Chart] = i
	}
	return table, nil
}

func validateEntry(entry Entry) error {
	if entry.Field != "" && len(entry.Series) > 0 {
		return errors.New("both a single field and a series mapping configured")
	}
	if entry.Field == "" && len(entry.Series) == 0 {
		return errors.New("neither a single field nor a series mapping configured")
	}

	seen := make(map[string]string, len(entry.Series))
	for label, field := range entry.Series {
		if field == "" {
			return fmt.Errorf("series %q maps to an empty field name", label)
		}
		if prior, dup := seen[field]; dup {
			return fmt.Errorf("series %q and %q both map to field %q", prior, label, field)
		}
		seen[field] = label
	}
	return nil
}

// Load reads a table override from a YAML file.
func Load(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read field table: %w", err)
	}

	var entries []Entry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse field table %s: %w", path, err)
	}
	return NewTable(entries)
}

// Len returns the number of charts in the table.
func (t *Table) Len() int {
	return len(t.entries)
}

// ChartLabel resolves a chart index from a scraped batch to its label.
func (t *Table) ChartLabel(index int) (string, error) {
	if index < 0 || index >= len(t.entries) {
		return "", fmt.Errorf("%w: index %d outside table of %d charts", ErrUnknownChart, index, len(t.entries))
	}
	return t.entries[index].Chart, nil
}

// Resolve maps a (chart label, series label) pair to its canonical field
// name. seriesLabel is empty for single-series charts.
func (t *Table) Resolve(chartLabel, seriesLabel string) (string, error) {
	idx, ok := t.byChart[chartLabel]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownChart, chartLabel)
	}

	entry := t.entries[idx]
	if entry.Field != "" {
		return entry.Field, nil
	}
	field, ok := entry.Series[seriesLabel]
	if !ok {
		return "", fmt.Errorf("%w: %q in chart %q", ErrUnknownSeries, seriesLabel, chartLabel)
	}
	return field, nil
}

// Default is the field table for the App Engine dashboard. The order must
// match the chart dropdown on the dashboard homepage.
func Default() *Table {
	table, err := NewTable(defaultEntries())
	if err != nil {
		// The built-in table is validated by tests; reaching this is a bug.
		panic(err)
	}
	return table
}

func defaultEntries() []Entry {
	return []Entry{
		{Chart: "Summary", Series: map[string]string{
			"Client (4xx)":   "client_errors_per_second",
			"Server (5xx)":   "server_errors_per_second",
			"Total Requests": "requests_per_second",
		}},
		{Chart: "Requests by Type/Second", Series: map[string]string{
			"Static Requests":    "static_requests_per_second",
			"Dynamic Requests":   "dynamic_requests_per_second",
			"Cached Requests":    "cached_requests_per_second",
			"PageSpeed Requests": "pagespeed_requests_per_second",
		}},
		{Chart: "Latency", Field: "milliseconds_per_dynamic_request"},
		{Chart: "Loading Latency", Field: "milliseconds_per_loading_request"},
		{Chart: "Error Details", Series: map[string]string{
			"Client (4xx)":    "client_errors_per_second",
			"Server (5xx)":    "server_errors_per_second",
			"Quota Denials":   "quota_denials_per_second",
			"DoS API Denials": "dos_api_denials_per_second",
		}},
		{Chart: "Traffic (Bytes/Second)", Series: map[string]string{
			"Sent":     "bytes_sent_per_second",
			"Received": "bytes_received_per_second",
		}},
		{Chart: "Utilization", Series: map[string]string{
			"Total CPU":     "total_cpu_seconds_used_per_second",
			"API Calls CPU": "api_cpu_seconds_used_per_second",
		}},
		{Chart: "Milliseconds Used/Second", Field: "milliseconds_used_per_second"},
		{Chart: "Instances", Series: map[string]string{
			"Total":  "total_instance_count",
			"Active": "active_instance_count",
			"Billed": "billed_instance_count",
		}},
		{Chart: "Memory Usage (MB)", Field: "memory_usage_mb"},
		{Chart: "Memcache Operations/Second", Field: "memcache_ops_per_second"},
		{Chart: "Memcache Compute Units/Second", Field: "memcache_compute_units_per_second"},
		{Chart: "Memcache Traffic (Bytes/Second)", Series: map[string]string{
			"Sent":     "memcache_bytes_sent_per_second",
			"Received": "memcache_bytes_received_per_second",
			"Total":    "memcache_total_bytes_per_second",
		}},
		{Chart: "Memcache Total Cache Size (MB)", Field: "memcache_size_mb"},
	}
}
