// The benchreport binary measures the combined submit-and-match operation
// in a tight loop against a pre-populated book, then summarizes the
// per-iteration latency distribution (p50/p90/p99/p99.9) as markdown.
//
// With -input it skips the measurement and summarizes samples recorded
// elsewhere (a JSON array of microsecond values, or {"samples_us": [...]}).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/tradeflow/matching-engine/internal/benchstats"
	"github.com/tradeflow/matching-engine/internal/book"
	"github.com/tradeflow/matching-engine/internal/engine"
)

func main() {
	iterations := flag.Int("iterations", 10000, "measured iterations")
	warmup := flag.Int("warmup", 1000, "unmeasured warmup iterations")
	depth := flag.Int("depth", 100, "price levels pre-populated on each side")
	symbol := flag.String("symbol", "BENCH", "symbol to trade")
	input := flag.String("input", "", "summarize samples from this JSON file instead of measuring")
	out := flag.String("out", "", "write the markdown summary here as well as stdout")
	flag.Parse()

	var (
		samples []float64
		title   string
		err     error
	)
	if *input != "" {
		samples, err = readSamples(*input)
		title = fmt.Sprintf("Benchmark summary (%s)", *input)
	} else {
		samples, err = measure(*symbol, *depth, *warmup, *iterations)
		title = "Benchmark summary: submit-and-match"
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "benchreport: %v\n", err)
		os.Exit(1)
	}

	summary := benchstats.Summarize(samples)
	hostname, _ := os.Hostname()
	md := summary.Markdown(title, map[string]string{
		"host": hostname,
		"date": time.Now().UTC().Format(time.RFC3339),
		"cpus": fmt.Sprintf("%d", runtime.NumCPU()),
		"go":   runtime.Version(),
	})

	fmt.Println(md)
	if *out != "" {
		if err := os.WriteFile(*out, []byte(md), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "benchreport: write %s: %v\n", *out, err)
			os.Exit(1)
		}
		fmt.Printf("wrote summary to %s\n", *out)
	}
}

// measure times submit-and-match in isolation: the book is pre-populated
// before the loop, and each iteration submits one crossing buy/sell pair
// that fully fills, so the resident book size stays constant for any
// number of iterations.
func measure(symbol string, depth, warmup, iterations int) ([]float64, error) {
	eng := engine.New(zap.NewNop())

	// Resting liquidity away from the touch on both sides.
	const mid = int64(10000)
	for i := 1; i <= depth; i++ {
		if _, err := eng.SubmitOrder(engine.SubmitRequest{
			Symbol: symbol, Side: book.SideBuy, Type: book.TypeLimit,
			Price: mid - int64(i), Quantity: 100, ClientID: "bench",
		}); err != nil {
			return nil, err
		}
		if _, err := eng.SubmitOrder(engine.SubmitRequest{
			Symbol: symbol, Side: book.SideSell, Type: book.TypeLimit,
			Price: mid + int64(i), Quantity: 100, ClientID: "bench",
		}); err != nil {
			return nil, err
		}
	}

	pair := func() error {
		if _, err := eng.SubmitOrder(engine.SubmitRequest{
			Symbol: symbol, Side: book.SideBuy, Type: book.TypeLimit,
			Price: mid, Quantity: 100, ClientID: "bench",
		}); err != nil {
			return err
		}
		_, err := eng.SubmitOrder(engine.SubmitRequest{
			Symbol: symbol, Side: book.SideSell, Type: book.TypeLimit,
			Price: mid, Quantity: 100, ClientID: "bench",
		})
		return err
	}

	for i := 0; i < warmup; i++ {
		if err := pair(); err != nil {
			return nil, err
		}
	}

	timings := make([]time.Duration, 0, iterations)
	for i := 0; i < iterations; i++ {
		start := time.Now()
		if err := pair(); err != nil {
			return nil, err
		}
		timings = append(timings, time.Since(start))
	}
	return benchstats.FromDurations(timings), nil
}

func readSamples(path string) ([]float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var samples []float64
	if err := json.Unmarshal(raw, &samples); err == nil {
		return samples, nil
	}
	var wrapped struct {
		Samples []float64 `json:"samples_us"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(wrapped.Samples) == 0 {
		return nil, fmt.Errorf("no samples found in %s", path)
	}
	return wrapped.Samples, nil
}
