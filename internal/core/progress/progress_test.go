package progress_test

import (
	"encoding/json"
	"testing"

	"github.com/comitanigiacomo/kanso-goals/internal/core/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateProgress(t *testing.T) {
	t.Run("Success: Partial progress", func(t *testing.T) {
		p := progress.CalculateProgress(8, ptr(20.0))

		ratio, ok := p.Ratio.Value()
		require.True(t, ok)
		assert.InDelta(t, 0.4, ratio, 1e-9)
		assert.InDelta(t, 40, p.Display.Or(-1), 1e-9)
		assert.InDelta(t, 40, p.Percent.Or(-1), 1e-9)
		assert.False(t, p.Reached())
	})

	t.Run("Success: Overshoot is raw in ratio and capped in display", func(t *testing.T) {
		p := progress.CalculateProgress(25, ptr(20.0))

		assert.InDelta(t, 1.25, p.Ratio.Or(-1), 1e-9)
		assert.InDelta(t, 125, p.Percent.Or(-1), 1e-9)
		assert.Equal(t, 100.0, p.Display.Or(-1))
		assert.True(t, p.Reached())
	})

	t.Run("NotApplicable: Zero target", func(t *testing.T) {
		p := progress.CalculateProgress(0, ptr(0.0))

		assert.False(t, p.Ratio.Applicable())
		assert.False(t, p.Percent.Applicable())
		assert.False(t, p.Display.Applicable())
		assert.False(t, p.Reached())
	})

	t.Run("NotApplicable: Missing target", func(t *testing.T) {
		p := progress.CalculateProgress(12, nil)
		assert.False(t, p.Ratio.Applicable())
	})

	t.Run("BestEffort: Negative target", func(t *testing.T) {
		p := progress.CalculateProgress(5, ptr(-10.0))

		assert.InDelta(t, -0.5, p.Ratio.Or(0), 1e-9)
		assert.Equal(t, 0.0, p.Display.Or(-1))
	})
}

func TestMetric_JSON(t *testing.T) {
	p := progress.CalculateProgress(0, nil)
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ratio":null,"percent":null,"display":null}`, string(data))

	data, err = json.Marshal(progress.CalculateProgress(0, ptr(20.0)))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ratio":0,"percent":0,"display":0}`, string(data), "zero progress is a number, not null")

	var m progress.Metric
	require.NoError(t, json.Unmarshal([]byte("null"), &m))
	assert.False(t, m.Applicable())
	require.NoError(t, json.Unmarshal([]byte("2.5"), &m))
	assert.Equal(t, 2.5, m.Or(0))
}
