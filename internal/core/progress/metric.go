package progress

import (
	"bytes"
	"encoding/json"
	"math"
)

// Metric is a numeric result that may be not applicable, e.g. the progress of a goal
// without a target. A not-applicable metric is distinct from zero and encodes as JSON null.
type Metric struct {
	value float64
	ok    bool
}

func Some(v float64) Metric {
	return Metric{value: v, ok: true}
}

func NotApplicable() Metric {
	return Metric{}
}

func (m Metric) Applicable() bool {
	return m.ok
}

func (m Metric) Value() (float64, bool) {
	return m.value, m.ok
}

// Or returns the value, or fallback when the metric is not applicable.
func (m Metric) Or(fallback float64) float64 {
	if !m.ok {
		return fallback
	}
	return m.value
}

func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.ok || math.IsNaN(m.value) || math.IsInf(m.value, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(m.value)
}

func (m *Metric) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*m = Metric{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Some(v)
	return nil
}
