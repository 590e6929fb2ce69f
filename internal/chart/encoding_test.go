package chart

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func encodeTokens(tokens ...int) string {
	var b strings.Builder
	for _, token := range tokens {
		b.WriteByte(extendedAlphabet[token/64])
		b.WriteByte(extendedAlphabet[token%64])
	}
	return b.String()
}

func TestDecodeExtendedDataSingleSeries(t *testing.T) {
	series, err := DecodeExtendedData("e:" + encodeTokens(0, 2047, 4095))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(series) != 1 {
		t.Fatalf("expected 1 series, got %d", len(series))
	}
	want := []int{0, 2047, 4095}
	for i, token := range series[0] {
		if token != want[i] {
			t.Fatalf("token %d: got %d, want %d", i, token, want[i])
		}
	}
}

func TestDecodeExtendedDataMultipleSeries(t *testing.T) {
	data := "e:" + encodeTokens(0, 4095) + "," + encodeTokens(64, 65)
	series, err := DecodeExtendedData(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(series))
	}
	if series[1][0] != 64 || series[1][1] != 65 {
		t.Fatalf("second series decoded wrong: %v", series[1])
	}
}

func TestDecodeExtendedDataMissingMarker(t *testing.T) {
	series, err := DecodeExtendedData("e:AA__" + encodeTokens(4095))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	want := []int{0, MissingToken, 4095}
	for i, token := range series[0] {
		if token != want[i] {
			t.Fatalf("token %d: got %d, want %d", i, token, want[i])
		}
	}
}

func TestDecodeExtendedDataRejectsOtherFormats(t *testing.T) {
	for _, data := range []string{"s:Abc", "t:1,2,3", "AABB"} {
		if _, err := DecodeExtendedData(data); !errors.Is(err, ErrUnsupportedEncoding) {
			t.Fatalf("data %q: expected ErrUnsupportedEncoding, got %v", data, err)
		}
	}
}

func TestDecodeExtendedDataBadPayload(t *testing.T) {
	if _, err := DecodeExtendedData("e:AAB"); err == nil {
		t.Fatal("odd length payload should fail")
	}
	if _, err := DecodeExtendedData("e:A#"); err == nil {
		t.Fatal("invalid alphabet character should fail")
	}
}

func TestCalibrateEndpoints(t *testing.T) {
	if got := Calibrate(0, 300); got != 0 {
		t.Fatalf("token 0 must decode to 0, got %v", got)
	}
	if got := Calibrate(4095, 300); got != 300 {
		t.Fatalf("token 4095 must decode to the axis maximum, got %v", got)
	}
	want := float64(2047) / 4095 * 300
	if got := Calibrate(2047, 300); got != want {
		t.Fatalf("calibration must be exactly token/4095*max: got %v, want %v", got, want)
	}
}

func TestElapsedSecondsRoundsToNearest(t *testing.T) {
	if got := ElapsedSeconds(4095, 21600); got != 21600 {
		t.Fatalf("full-scale token: got %d, want 21600", got)
	}
	want := int64(math.Round(float64(2047) / 4095 * 21600))
	if got := ElapsedSeconds(2047, 21600); got != want {
		t.Fatalf("mid token: got %d, want %d", got, want)
	}
}

func TestRoundSignificant(t *testing.T) {
	cases := []struct {
		in     float64
		digits int
		want   float64
	}{
		{0, 4, 0},
		{0.003, 4, 0.003},
		{30000, 4, 30000},
		{123456, 4, 123500},
		{0.00012345, 4, 0.0001234},
		{149.96336996336996, 4, 150},
	}
	for _, tc := range cases {
		got, err := RoundSignificant(tc.in, tc.digits)
		if err != nil {
			t.Fatalf("RoundSignificant(%v, %d) failed: %v", tc.in, tc.digits, err)
		}
		if got != tc.want {
			t.Fatalf("RoundSignificant(%v, %d) = %v, want %v", tc.in, tc.digits, got, tc.want)
		}
	}
}

func TestRoundSignificantRejectsZeroDigits(t *testing.T) {
	if _, err := RoundSignificant(1.5, 0); err == nil {
		t.Fatal("digits < 1 must fail")
	}
}
