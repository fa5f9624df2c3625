package formulas

// MaxDrawdown returns the maximum peak-to-trough decline of a value series,
// expressed as a negative fraction (e.g. -0.25 for a 25% drawdown).
// A monotonically rising series returns 0.
func MaxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	peak := values[0]
	maxDD := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (v - peak) / peak
			if dd < maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// CurrentDrawdown returns the decline of the final value from the running peak.
func CurrentDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	peak := values[0]
	for _, v := range values {
		if v > peak {
			peak = v
		}
	}
	if peak <= 0 {
		return 0
	}
	return (values[len(values)-1] - peak) / peak
}

// UnderwaterPeriods returns the lengths (in observations) of every stretch
// during which the series was below its running peak. The final period is
// counted even if the series ends underwater.
func UnderwaterPeriods(values []float64) []int {
	if len(values) == 0 {
		return nil
	}

	var periods []int
	peak := values[0]
	start := -1
	for i, v := range values {
		if v > peak {
			peak = v
		}
		underwater := v < peak
		switch {
		case underwater && start < 0:
			start = i
		case !underwater && start >= 0:
			periods = append(periods, i-start)
			start = -1
		}
	}
	if start >= 0 {
		periods = append(periods, len(values)-start)
	}
	return periods
}

// WorstRollingDrawdown returns the worst MaxDrawdown observed over any
// trailing window of the given length. Series shorter than the window fall
// back to the full-series drawdown.
func WorstRollingDrawdown(values []float64, window int) float64 {
	if window <= 0 || len(values) <= window {
		return MaxDrawdown(values)
	}

	worst := 0.0
	for i := window; i <= len(values); i++ {
		dd := MaxDrawdown(values[i-window : i])
		if dd < worst {
			worst = dd
		}
	}
	return worst
}
