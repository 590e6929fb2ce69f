package pipeline

import (
	"fmt"
	"time"
)

// TimeWindow is one selectable chart span on the dashboard homepage.
type TimeWindow struct {
	Label    string
	Duration time.Duration
}

// TimeWindows lists the supported chart spans. Scraped batches identify
// windows by index into this list, which must match the ordering of the
// time picker on the dashboard homepage.
var TimeWindows = []TimeWindow{
	{Label: "30 mins", Duration: 30 * time.Minute},
	{Label: "3 hrs", Duration: 3 * time.Hour},
	{Label: "6 hrs", Duration: 6 * time.Hour},
	{Label: "12 hrs", Duration: 12 * time.Hour},
	{Label: "24 hrs", Duration: 24 * time.Hour},
	{Label: "2 days", Duration: 2 * 24 * time.Hour},
	{Label: "4 days", Duration: 4 * 24 * time.Hour},
	{Label: "7 days", Duration: 7 * 24 * time.Hour},
	{Label: "14 days", Duration: 14 * 24 * time.Hour},
	{Label: "30 days", Duration: 30 * 24 * time.Hour},
}

// WindowByIndex resolves a time-window index from a scraped batch.
func WindowByIndex(index int) (TimeWindow, error) {
	if index < 0 || index >= len(TimeWindows) {
		return TimeWindow{}, fmt.Errorf("time window index %d outside table of %d windows", index, len(TimeWindows))
	}
	return TimeWindows[index], nil
}
