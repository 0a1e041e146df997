// The replay binary feeds a recorded order-flow script through a fresh
// engine and prints the end-of-run book state, for regression-checking
// matching behavior against known scripts.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/tradeflow/matching-engine/internal/engine"
	"github.com/tradeflow/matching-engine/internal/journal"
)

func main() {
	symbol := flag.String("symbol", "REPLAY", "symbol for events that do not name one")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: replay [-symbol SYM] <script.json>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	eng := engine.New(zap.NewNop())
	report, err := journal.Run(eng, f, *symbol)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
