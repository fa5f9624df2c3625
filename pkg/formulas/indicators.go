package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// EMA returns the current exponential moving average of the closes.
// The second return is false when there is not enough history for the
// requested length.
func EMA(closes []float64, length int) (float64, bool) {
	if length <= 0 || len(closes) < length {
		return 0, false
	}
	ema := talib.Ema(closes, length)
	last := ema[len(ema)-1]
	if math.IsNaN(last) {
		return 0, false
	}
	return last, true
}

// DistanceFromEMA returns (price - EMA) / EMA for the latest close.
// Positive means the price trades above its moving average.
func DistanceFromEMA(closes []float64, length int) (float64, bool) {
	ema, ok := EMA(closes, length)
	if !ok || ema == 0 {
		return 0, false
	}
	price := closes[len(closes)-1]
	return (price - ema) / ema, true
}

// RSI returns the current relative strength index over the given period.
func RSI(closes []float64, length int) (float64, bool) {
	if length <= 0 || len(closes) < length+1 {
		return 0, false
	}
	rsi := talib.Rsi(closes, length)
	last := rsi[len(rsi)-1]
	if math.IsNaN(last) {
		return 0, false
	}
	return last, true
}
