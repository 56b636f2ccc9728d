package progress

// Progress expresses an accumulated value against a target.
// Percent is raw and may exceed 100; Display is clamped to [0, 100].
type Progress struct {
	Ratio   Metric `json:"ratio"`
	Percent Metric `json:"percent"`
	Display Metric `json:"display"`
}

func CalculateProgress(accumulated float64, target *float64) Progress {
	if target == nil || *target == 0 {
		return Progress{
			Ratio:   NotApplicable(),
			Percent: NotApplicable(),
			Display: NotApplicable(),
		}
	}

	ratio := accumulated / *target
	percent := ratio * 100

	return Progress{
		Ratio:   Some(ratio),
		Percent: Some(percent),
		Display: Some(clamp(percent, 0, 100)),
	}
}

// Reached reports whether the target has been met.
func (p Progress) Reached() bool {
	r, ok := p.Ratio.Value()
	return ok && r >= 1
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
