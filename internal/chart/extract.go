package chart

import (
	"fmt"
	"strconv"
	"strings"
)

// valueDigits is the best-case precision of the extended encoding; decoded
// values carry no more meaningful digits than this.
const valueDigits = 4

// Point is one decoded chart sample.
type Point struct {
	Elapsed int64 // seconds since the chart window started
	Value   float64
}

// Series is one decoded chart series. Label is empty when the chart carries
// a single unlabeled series.
type Series struct {
	Label  string
	Points []Point
}

// ExtractSeries decodes every series of one chart. The x axis is assumed to
// span windowSeconds of time and the y axis to span [0, max] where max is
// the last y axis label. Charts that do not use the extended encoding, or
// whose axes are not ordered x-then-y, are unsupported and rejected rather
// than misread.
func ExtractSeries(params Params, windowSeconds float64) ([]Series, error) {
	if params.AxisOrder != "x,y" {
		return nil, fmt.Errorf("%w: chxt=%q", ErrUnsupportedAxisOrder, params.AxisOrder)
	}

	axisLabels, err := ParseAxisLabels(params.AxisOrder, params.AxisLabels)
	if err != nil {
		return nil, err
	}
	yLabels := axisLabels["y"]
	if len(yLabels) == 0 {
		return nil, fmt.Errorf("chart has no y axis labels")
	}
	valueMax, err := strconv.ParseFloat(yLabels[len(yLabels)-1], 64)
	if err != nil {
		return nil, fmt.Errorf("parse y axis maximum %q: %w", yLabels[len(yLabels)-1], err)
	}

	// Data alternates x sequence, y sequence per series, in declared
	// series order.
	sequences, err := DecodeExtendedData(params.Data)
	if err != nil {
		return nil, err
	}

	labels := seriesLabels(params)
	if 2*len(labels) != len(sequences) {
		return nil, fmt.Errorf("chart declares %d series labels but carries %d data sequences", len(labels), len(sequences))
	}

	series := make([]Series, 0, len(labels))
	for i, label := range labels {
		points, err := zipSeries(sequences[i*2], sequences[i*2+1], windowSeconds, valueMax)
		if err != nil {
			return nil, fmt.Errorf("series %d: %w", i, err)
		}
		series = append(series, Series{Label: label, Points: points})
	}
	return series, nil
}

func seriesLabels(params Params) []string {
	if !params.HasSeriesLabels {
		return []string{""}
	}
	return strings.Split(params.SeriesLabels, "|")
}

func zipSeries(xTokens, yTokens []int, windowSeconds, valueMax float64) ([]Point, error) {
	n := len(xTokens)
	if len(yTokens) < n {
		n = len(yTokens)
	}

	points := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		if xTokens[i] == MissingToken || yTokens[i] == MissingToken {
			continue
		}
		value, err := RoundSignificant(Calibrate(yTokens[i], valueMax), valueDigits)
		if err != nil {
			return nil, err
		}
		points = append(points, Point{
			Elapsed: ElapsedSeconds(xTokens[i], windowSeconds),
			Value:   value,
		})
	}
	return points, nil
}
