// Package benchstats turns repeated-iteration latency samples into the
// percentile summary the benchmark reports are built from.
package benchstats

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Summary holds the latency distribution of one benchmark run, in
// microseconds.
type Summary struct {
	P50     float64 `json:"p50_us"`
	P90     float64 `json:"p90_us"`
	P99     float64 `json:"p99_us"`
	P999    float64 `json:"p999_us"`
	Mean    float64 `json:"mean_us"`
	Min     float64 `json:"min_us"`
	Max     float64 `json:"max_us"`
	Samples int     `json:"samples"`
}

// Percentile computes the p-th percentile (0..100) of sorted samples with
// linear interpolation between the two nearest ranks.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	k := float64(len(sorted)-1) * (p / 100.0)
	f := int(k)
	c := f + 1
	if c >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := k - float64(f)
	return sorted[f]*(1-frac) + sorted[c]*frac
}

// Summarize computes the standard latency distribution from raw samples.
// The input slice is sorted in place.
func Summarize(samples []float64) Summary {
	if len(samples) == 0 {
		return Summary{}
	}
	sort.Float64s(samples)
	sum := 0.0
	for _, v := range samples {
		sum += v
	}
	return Summary{
		P50:     Percentile(samples, 50),
		P90:     Percentile(samples, 90),
		P99:     Percentile(samples, 99),
		P999:    Percentile(samples, 99.9),
		Mean:    sum / float64(len(samples)),
		Min:     samples[0],
		Max:     samples[len(samples)-1],
		Samples: len(samples),
	}
}

// FromDurations converts raw timings into microsecond samples.
func FromDurations(ds []time.Duration) []float64 {
	out := make([]float64, len(ds))
	for i, d := range ds {
		out[i] = float64(d.Nanoseconds()) / 1e3
	}
	return out
}

// Markdown renders the summary as the table the benchmark report embeds.
// Context lines (host, date, iterations) are appended as a bullet list.
func (s Summary) Markdown(title string, context map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", title)
	b.WriteString("| Metric | Value |\n|---|---:|\n")
	fmt.Fprintf(&b, "| p50 | %.3f µs |\n", s.P50)
	fmt.Fprintf(&b, "| p90 | %.3f µs |\n", s.P90)
	fmt.Fprintf(&b, "| p99 | %.3f µs |\n", s.P99)
	fmt.Fprintf(&b, "| p99.9 | %.3f µs |\n", s.P999)
	fmt.Fprintf(&b, "| mean | %.3f µs |\n", s.Mean)
	fmt.Fprintf(&b, "| min | %.3f µs |\n", s.Min)
	fmt.Fprintf(&b, "| max | %.3f µs |\n", s.Max)
	fmt.Fprintf(&b, "| samples | %d |\n", s.Samples)

	if len(context) > 0 {
		keys := make([]string, 0, len(context))
		for k := range context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("\nContext:\n\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: `%s`\n", k, context[k])
		}
	}
	return b.String()
}
