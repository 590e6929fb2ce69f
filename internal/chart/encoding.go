package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// ExtendedMax is the highest token value representable by the extended
	// data encoding: two alphabet characters, 64*64-1.
	ExtendedMax = 4095

	extendedPrefix   = "e:"
	extendedAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-."
)

// MissingToken marks the upstream "__" placeholder for an absent sample.
const MissingToken = -1

var extendedIndex = buildExtendedIndex()

func buildExtendedIndex() map[byte]int {
	idx := make(map[byte]int, len(extendedAlphabet))
	for i := 0; i < len(extendedAlphabet); i++ {
		idx[extendedAlphabet[i]] = i
	}
	return idx
}

// DecodeExtendedData unpacks a "chd" parameter using the extended encoding
// into one token slice per series. The payload must carry the "e:" format
// marker; series are comma separated, two characters per token.
func DecodeExtendedData(data string) ([][]int, error) {
	if !strings.HasPrefix(data, extendedPrefix) {
		return nil, fmt.Errorf("chart data %q: %w", truncate(data, 12), ErrUnsupportedEncoding)
	}

	payload := strings.TrimPrefix(data, extendedPrefix)
	parts := strings.Split(payload, ",")
	series := make([][]int, 0, len(parts))
	for _, part := range parts {
		tokens, err := decodeExtendedSeries(part)
		if err != nil {
			return nil, err
		}
		series = append(series, tokens)
	}
	return series, nil
}

func decodeExtendedSeries(s string) ([]int, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("extended series has odd length %d", len(s))
	}

	tokens := make([]int, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		if s[i] == '_' && s[i+1] == '_' {
			tokens = append(tokens, MissingToken)
			continue
		}
		hi, ok := extendedIndex[s[i]]
		if !ok {
			return nil, fmt.Errorf("invalid extended encoding character %q", s[i])
		}
		lo, ok := extendedIndex[s[i+1]]
		if !ok {
			return nil, fmt.Errorf("invalid extended encoding character %q", s[i+1])
		}
		tokens = append(tokens, hi*64+lo)
	}
	return tokens, nil
}

// Calibrate maps a token on [0, ExtendedMax] onto the axis range [0, max].
func Calibrate(token int, max float64) float64 {
	return float64(token) / ExtendedMax * max
}

// ElapsedSeconds maps a token onto the chart's time span, rounded to the
// nearest whole second.
func ElapsedSeconds(token int, windowSeconds float64) int64 {
	return int64(math.Round(Calibrate(token, windowSeconds)))
}

// RoundSignificant rounds x to at most digits significant digits. Unlike a
// fixed decimal-place round this keeps precision consistent across
// magnitudes, so 0.003 and 30000 both keep the same number of meaningful
// digits.
func RoundSignificant(x float64, digits int) (float64, error) {
	if digits < 1 {
		return 0, fmt.Errorf("significant digits must be >= 1, got %d", digits)
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(x, 'e', digits-1, 64), 64)
	if err != nil {
		return 0, fmt.Errorf("round %v to %d significant digits: %w", x, digits, err)
	}
	return rounded, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
