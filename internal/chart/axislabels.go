package chart

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseAxisLabels maps each axis named by axisOrder (the "chxt" parameter,
// comma separated) to its ordered labels from the "chxl" parameter.
//
// "chxl" segments are pipe separated. A segment of the form "<n>:" switches
// the current axis to index n of axisOrder; every following segment belongs
// to that axis until the next such marker. Given chxt=x,y and
// chxl=0:|a|b|1:|c|d|e the result is {"x": [a b], "y": [c d e]}.
//
// The parse is purely syntactic. Callers interpret the labels themselves,
// e.g. by reading the last y label as the axis maximum.
func ParseAxisLabels(axisOrder, labels string) (map[string][]string, error) {
	axes := strings.Split(axisOrder, ",")
	perAxis := make([][]string, len(axes))

	current := 0
	for _, segment := range strings.Split(labels, "|") {
		if idx, ok := axisMarker(segment); ok {
			if idx < 0 || idx >= len(axes) {
				return nil, fmt.Errorf("axis label index %d out of range for axes %q", idx, axisOrder)
			}
			current = idx
			continue
		}
		perAxis[current] = append(perAxis[current], segment)
	}

	result := make(map[string][]string, len(axes))
	for i, axis := range axes {
		result[axis] = perAxis[i]
	}
	return result, nil
}

func axisMarker(segment string) (int, bool) {
	if !strings.HasSuffix(segment, ":") {
		return 0, false
	}
	idx, err := strconv.Atoi(strings.TrimSuffix(segment, ":"))
	if err != nil {
		return 0, false
	}
	return idx, true
}
