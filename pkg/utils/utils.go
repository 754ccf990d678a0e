package utils

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// DateLayout mirrors the en-US locale default for date and time.
const DateLayout = "1/2/2006, 3:04:05 PM"

const currencyDecimals = 8

func TruncateString(str string, num int) string {
	if len(str) <= num {
		return str
	}
	if num <= 3 {
		return str[:num]
	}
	return str[0:num-3] + "..."
}

// FormatHashrate picks the unit with strict thresholds: exactly 1e3 stays
// in H/s and exactly 1e6 stays in KH/s.
func FormatHashrate(h float64) string {
	switch {
	case h > 1_000_000:
		return fmt.Sprintf("%.2f MH/s", h/1_000_000)
	case h > 1_000:
		return fmt.Sprintf("%.2f KH/s", h/1_000)
	default:
		return FormatPrecise(h) + " H/s"
	}
}

// FormatPrecise renders f with the fewest digits that round-trip.
func FormatPrecise(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatDate renders unix seconds in local time.
func FormatDate(timestamp int64) string {
	return time.Unix(timestamp, 0).Local().Format(DateLayout)
}

// FormatCurrency renders a decimal string with exactly 8 fractional digits.
// Empty or unparseable input yields zero.
func FormatCurrency(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return FormatBigFloat(nil, currencyDecimals)
	}
	f, ok := new(big.Float).SetString(value)
	if !ok || f.IsInf() {
		return FormatBigFloat(nil, currencyDecimals)
	}
	return FormatBigFloat(f, currencyDecimals)
}

func FormatDifficulty(d float64) string {
	return strconv.FormatFloat(d, 'f', currencyDecimals, 64)
}

func FormatBigFloat(f *big.Float, decimals int) string {
	if f == nil {
		f = new(big.Float)
	}
	return f.Text('f', decimals)
}
