package chart

import (
	"errors"
	"testing"
)

func latencyParams() Params {
	return Params{
		Type:       "lc",
		AxisOrder:  "x,y",
		AxisLabels: "0:|now|-3hr|-6hr|1:|100|200|300",
		Data:       "e:" + encodeTokens(0, 2047, 4095) + "," + encodeTokens(0, 2047, 4095),
	}
}

func TestExtractSeriesSingleUnlabeled(t *testing.T) {
	series, err := ExtractSeries(latencyParams(), 21600)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(series) != 1 {
		t.Fatalf("expected 1 series, got %d", len(series))
	}
	if series[0].Label != "" {
		t.Fatalf("single series must be unlabeled, got %q", series[0].Label)
	}

	points := series[0].Points
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	if points[0].Elapsed != 0 || points[0].Value != 0 {
		t.Fatalf("token 0 must decode to (0, 0), got %+v", points[0])
	}
	if points[1].Elapsed != 10797 || points[1].Value != 150 {
		t.Fatalf("mid token decoded wrong: %+v", points[1])
	}
	if points[2].Elapsed != 21600 || points[2].Value != 300 {
		t.Fatalf("full-scale token decoded wrong: %+v", points[2])
	}
}

func TestExtractSeriesLabeled(t *testing.T) {
	params := Params{
		AxisOrder:       "x,y",
		AxisLabels:      "0:|now|1:|50|100",
		Data:            "e:" + encodeTokens(0) + "," + encodeTokens(4095) + "," + encodeTokens(4095) + "," + encodeTokens(0),
		SeriesLabels:    "Sent|Received",
		HasSeriesLabels: true,
	}

	series, err := ExtractSeries(params, 21600)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(series))
	}
	if series[0].Label != "Sent" || series[1].Label != "Received" {
		t.Fatalf("labels decoded wrong: %q, %q", series[0].Label, series[1].Label)
	}
	if series[0].Points[0].Value != 100 {
		t.Fatalf("Sent series value: got %v, want 100", series[0].Points[0].Value)
	}
	if series[1].Points[0].Elapsed != 21600 || series[1].Points[0].Value != 0 {
		t.Fatalf("Received series decoded wrong: %+v", series[1].Points[0])
	}
}

func TestExtractSeriesSkipsMissingSamples(t *testing.T) {
	params := latencyParams()
	params.Data = "e:" + encodeTokens(0) + "__" + encodeTokens(4095) + "," + encodeTokens(100, 200, 300)

	series, err := ExtractSeries(params, 21600)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	points := series[0].Points
	if len(points) != 2 {
		t.Fatalf("missing sample must be dropped: got %d points", len(points))
	}
	if points[0].Elapsed != 0 || points[1].Elapsed != 21600 {
		t.Fatalf("wrong points survived: %+v", points)
	}
}

func TestExtractSeriesLabelCountMismatch(t *testing.T) {
	params := latencyParams()
	params.SeriesLabels = "A|B"
	params.HasSeriesLabels = true

	if _, err := ExtractSeries(params, 21600); err == nil {
		t.Fatal("label count not matching series count must fail")
	}
}

func TestExtractSeriesRejectsNonExtendedData(t *testing.T) {
	params := latencyParams()
	params.Data = "s:Abc,Def"

	if _, err := ExtractSeries(params, 21600); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Fatalf("expected ErrUnsupportedEncoding, got %v", err)
	}
}

func TestExtractSeriesRejectsUnexpectedAxisOrder(t *testing.T) {
	params := latencyParams()
	params.AxisOrder = "y,x"

	if _, err := ExtractSeries(params, 21600); !errors.Is(err, ErrUnsupportedAxisOrder) {
		t.Fatalf("expected ErrUnsupportedAxisOrder, got %v", err)
	}
}

func TestExtractSeriesRequiresYLabels(t *testing.T) {
	params := latencyParams()
	params.AxisLabels = "0:|now|-6hr"

	if _, err := ExtractSeries(params, 21600); err == nil {
		t.Fatal("chart without y axis labels must fail")
	}
}

func TestParamsFromURL(t *testing.T) {
	raw := "https://chart.example.com/chart?cht=lc&chxt=x%2Cy&chxl=0%3A%7Cnow%7C1%3A%7C300&chd=e%3AAAf...&chdl=Sent%7CReceived"
	params, err := ParamsFromURL(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if params.Type != "lc" || params.AxisOrder != "x,y" {
		t.Fatalf("params decoded wrong: %+v", params)
	}
	if params.Data != "e:AAf..." {
		t.Fatalf("chd decoded wrong: %q", params.Data)
	}
	if !params.HasSeriesLabels || params.SeriesLabels != "Sent|Received" {
		t.Fatalf("chdl decoded wrong: %+v", params)
	}
}

func TestParamsFromURLWithoutSeriesLabels(t *testing.T) {
	params, err := ParamsFromURL("https://chart.example.com/chart?chxt=x,y&chd=e:AA")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if params.HasSeriesLabels {
		t.Fatal("absent chdl must leave HasSeriesLabels false")
	}
}

func TestParamsFromURLRequiresData(t *testing.T) {
	if _, err := ParamsFromURL("https://chart.example.com/chart?chxt=x,y"); err == nil {
		t.Fatal("chart url without chd must fail")
	}
}
