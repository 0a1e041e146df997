package benchstats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentileInterpolation(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50}

	assert.InDelta(t, 30.0, Percentile(sorted, 50), 1e-9)
	assert.InDelta(t, 10.0, Percentile(sorted, 0), 1e-9)
	assert.InDelta(t, 50.0, Percentile(sorted, 100), 1e-9)
	// Rank 0.9*(5-1)=3.6 lands between 40 and 50.
	assert.InDelta(t, 46.0, Percentile(sorted, 90), 1e-9)
	assert.InDelta(t, 15.0, Percentile(sorted, 12.5), 1e-9)
}

func TestPercentileDegenerateInputs(t *testing.T) {
	assert.Zero(t, Percentile(nil, 50))
	assert.Equal(t, 42.0, Percentile([]float64{42}, 99.9))
}

func TestSummarize(t *testing.T) {
	samples := []float64{5, 1, 3, 2, 4}
	s := Summarize(samples)

	assert.Equal(t, 5, s.Samples)
	assert.InDelta(t, 3.0, s.Mean, 1e-9)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.InDelta(t, 3.0, s.P50, 1e-9)
	// Summarize sorts its input in place.
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, samples)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Samples)
	assert.Zero(t, s.P50)
}

func TestFromDurations(t *testing.T) {
	out := FromDurations([]time.Duration{1500 * time.Nanosecond, 2 * time.Millisecond})
	require.Len(t, out, 2)
	assert.InDelta(t, 1.5, out[0], 1e-9)
	assert.InDelta(t, 2000.0, out[1], 1e-9)
}

func TestMarkdownRendering(t *testing.T) {
	s := Summarize([]float64{1, 2, 3})
	md := s.Markdown("Matching latency", map[string]string{"iterations": "3"})

	assert.Contains(t, md, "## Matching latency")
	assert.Contains(t, md, "| p50 | 2.000 µs |")
	assert.Contains(t, md, "| samples | 3 |")
	assert.Contains(t, md, "- iterations: `3`")
}
