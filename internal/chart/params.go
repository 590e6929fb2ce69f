package chart

import (
	"errors"
	"fmt"
	"net/url"
)

var (
	// ErrUnsupportedEncoding indicates chart data without the extended
	// format marker.
	ErrUnsupportedEncoding = errors.New("chart: data not in extended encoding")

	// ErrUnsupportedAxisOrder indicates a chart whose axes are not laid out
	// x-then-y.
	ErrUnsupportedAxisOrder = errors.New("chart: axis order is not x,y")
)

// Params is the query parameter set of one chart URL. The upstream grammar
// (parameter names, delimiters, encoding markers) is confined to this
// package; nothing outside it inspects raw chart URLs.
type Params struct {
	Type            string // cht
	AxisOrder       string // chxt
	AxisLabels      string // chxl
	Data            string // chd
	SeriesLabels    string // chdl
	HasSeriesLabels bool
}

// ParamsFromURL extracts chart parameters from a chart API request URL.
func ParamsFromURL(raw string) (Params, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return Params{}, fmt.Errorf("parse chart url: %w", err)
	}

	query := parsed.Query()
	params := Params{
		Type:       query.Get("cht"),
		AxisOrder:  query.Get("chxt"),
		AxisLabels: query.Get("chxl"),
		Data:       query.Get("chd"),
	}
	if query.Has("chdl") {
		params.SeriesLabels = query.Get("chdl")
		params.HasSeriesLabels = true
	}

	if params.Data == "" {
		return Params{}, fmt.Errorf("chart url %q has no chd parameter", raw)
	}
	return params, nil
}
