package pipeline

import (
	"testing"

	"dashwatch/internal/chart"
)

func TestAggregateByTimeUnion(t *testing.T) {
	named := map[string]chart.Series{
		"A": {Points: []chart.Point{{Elapsed: 10, Value: 1.0}, {Elapsed: 20, Value: 2.0}}},
		"B": {Points: []chart.Point{{Elapsed: 10, Value: 9.0}}},
	}

	records, err := AggregateByTime(named)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.Elapsed != 10 || first.Fields["A"] != 1.0 || first.Fields["B"] != 9.0 {
		t.Fatalf("record at t=10 wrong: %+v", first)
	}

	second := records[1]
	if second.Elapsed != 20 || second.Fields["A"] != 2.0 {
		t.Fatalf("record at t=20 wrong: %+v", second)
	}
	if _, present := second.Fields["B"]; present {
		t.Fatal("B has no point at t=20 and must be omitted, not defaulted")
	}
}

func TestAggregateByTimeAscendingOrder(t *testing.T) {
	named := map[string]chart.Series{
		"A": {Points: []chart.Point{{Elapsed: 30, Value: 3}, {Elapsed: 5, Value: 1}, {Elapsed: 20, Value: 2}}},
	}

	records, err := AggregateByTime(named)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	var prev int64 = -1
	for _, record := range records {
		if record.Elapsed <= prev {
			t.Fatalf("records not ascending: %+v", records)
		}
		prev = record.Elapsed
	}
}

func TestAggregateByTimeDuplicateTimestampFails(t *testing.T) {
	named := map[string]chart.Series{
		"A": {Points: []chart.Point{{Elapsed: 10, Value: 1.0}, {Elapsed: 10, Value: 2.0}}},
	}

	if _, err := AggregateByTime(named); err == nil {
		t.Fatal("two points at one timestamp within a series must fail")
	}
}

func TestAggregateByTimeEmpty(t *testing.T) {
	records, err := AggregateByTime(map[string]chart.Series{})
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}
