package pipeline

import (
	"fmt"
	"sort"

	"dashwatch/internal/chart"
)

// TimedRecord is one aggregated observation: every field whose series
// reported a point at exactly Elapsed seconds into the chart window.
type TimedRecord struct {
	Elapsed int64
	Fields  map[string]float64
}

// AggregateByTime merges named series sharing a time axis into one record
// per distinct elapsed-seconds value, ascending. A record carries only the
// fields that actually have a point at its timestamp; a series with no
// point there is omitted, never defaulted. Two points at the same decoded
// time within one series violate the decoding contract and fail the call.
func AggregateByTime(named map[string]chart.Series) ([]TimedRecord, error) {
	values := make(map[string]map[int64]float64, len(named))
	timestamps := make(map[int64]struct{})

	for field, series := range named {
		byTime := make(map[int64]float64, len(series.Points))
		for _, point := range series.Points {
			if _, dup := byTime[point.Elapsed]; dup {
				return nil, fmt.Errorf("series %q has two points at t=%d", field, point.Elapsed)
			}
			byTime[point.Elapsed] = point.Value
			timestamps[point.Elapsed] = struct{}{}
		}
		values[field] = byTime
	}

	ordered := make([]int64, 0, len(timestamps))
	for ts := range timestamps {
		ordered = append(ordered, ts)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	records := make([]TimedRecord, 0, len(ordered))
	for _, ts := range ordered {
		record := TimedRecord{Elapsed: ts, Fields: make(map[string]float64)}
		for field, byTime := range values {
			if value, ok := byTime[ts]; ok {
				record.Fields[field] = value
			}
		}
		records = append(records, record)
	}
	return records, nil
}
