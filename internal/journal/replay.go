package journal

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/google/uuid"

	"github.com/tradeflow/matching-engine/internal/book"
	"github.com/tradeflow/matching-engine/internal/engine"
)

// Script is a replayable order-flow file: a list of add and cancel events
// with small script-local identifiers. "match" events are accepted and
// ignored — matching is continuous here, it runs on every add.
type Script struct {
	Events []ScriptEvent `json:"events"`
}

type ScriptEvent struct {
	Type     string `json:"type"` // add | cancel | match
	ID       int64  `json:"id"`
	Symbol   string `json:"symbol,omitempty"`
	IsBuy    bool   `json:"is_buy,omitempty"`
	Market   bool   `json:"market,omitempty"`
	Qty      int64  `json:"qty,omitempty"`
	Price    int64  `json:"price,omitempty"`
	ClientID string `json:"client_id,omitempty"`
}

// RunReport summarizes one replay: counts of applied events and the final
// state of every book the script touched.
type RunReport struct {
	Orders  int              `json:"orders"`
	Cancels int              `json:"cancels"`
	Trades  int              `json:"trades"`
	Errors  int              `json:"errors"`
	Books   []*book.Snapshot `json:"books"`
}

// Run feeds a script through the engine. Script identifiers are mapped to
// engine-assigned order IDs so cancels can reference earlier adds.
func Run(e *engine.Engine, r io.Reader, defaultSymbol string) (*RunReport, error) {
	var script Script
	dec := json.NewDecoder(r)
	if err := dec.Decode(&script); err != nil {
		return nil, fmt.Errorf("decode replay script: %w", err)
	}

	ids := make(map[int64]uuid.UUID)
	owners := make(map[int64]string)
	symbols := make(map[string]bool)
	report := &RunReport{}

	for i, ev := range script.Events {
		switch ev.Type {
		case "add":
			symbol := ev.Symbol
			if symbol == "" {
				symbol = defaultSymbol
			}
			clientID := ev.ClientID
			if clientID == "" {
				clientID = "replay"
			}
			side := book.SideSell
			if ev.IsBuy {
				side = book.SideBuy
			}
			typ := book.TypeLimit
			price := ev.Price
			if ev.Market {
				typ = book.TypeMarket
				price = 0
			}
			res, err := e.SubmitOrder(engine.SubmitRequest{
				Symbol:   symbol,
				Side:     side,
				Type:     typ,
				Price:    price,
				Quantity: ev.Qty,
				ClientID: clientID,
			})
			if err != nil {
				report.Errors++
				continue
			}
			report.Orders++
			report.Trades += len(res.Trades)
			ids[ev.ID] = res.OrderID
			owners[ev.ID] = clientID
			symbols[symbol] = true
		case "cancel":
			id, ok := ids[ev.ID]
			if !ok {
				report.Errors++
				continue
			}
			if _, err := e.CancelOrder(id, owners[ev.ID]); err != nil {
				report.Errors++
				continue
			}
			report.Cancels++
		case "match":
			// continuous matching: nothing to trigger
		default:
			return nil, fmt.Errorf("replay event %d: unknown type %q", i, ev.Type)
		}
	}

	touched := make([]string, 0, len(symbols))
	for symbol := range symbols {
		touched = append(touched, symbol)
	}
	sort.Strings(touched)
	for _, symbol := range touched {
		report.Books = append(report.Books, e.GetOrderBook(symbol, 0))
	}
	return report, nil
}
