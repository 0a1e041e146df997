// The smoketest binary drives a running engine over HTTP through the
// canonical submit/match/cancel flow and reports what it saw. It exercises
// the transport end to end; unit-level matching coverage lives in the
// package tests.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

type submitResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Trades  []struct {
		Price    string `json:"price"`
		Quantity int64  `json:"quantity"`
	} `json:"trades"`
}

type bookResponse struct {
	Symbol string `json:"symbol"`
	Bids   []struct {
		Price    string `json:"price"`
		Quantity int64  `json:"quantity"`
	} `json:"bids"`
	Asks []struct {
		Price    string `json:"price"`
		Quantity int64  `json:"quantity"`
	} `json:"asks"`
}

type cancelResponse struct {
	Status string `json:"status"`
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "engine base URL")
	symbol := flag.String("symbol", "AAPL", "symbol to trade")
	flag.Parse()

	client := &http.Client{Timeout: 5 * time.Second}
	failures := 0
	check := func(name string, ok bool, detail string) {
		mark := "ok"
		if !ok {
			mark = "FAIL"
			failures++
		}
		fmt.Printf("[%s] %-32s %s\n", mark, name, detail)
	}

	fmt.Printf("smoketest against %s (symbol %s)\n", *baseURL, *symbol)

	// 1. Resting buy.
	buy, err := submit(client, *baseURL, map[string]any{
		"symbol": *symbol, "side": "BUY", "type": "LIMIT",
		"price": "150.00", "quantity": 100, "client_id": "client1",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "submit buy: %v\n", err)
		os.Exit(1)
	}
	check("buy limit rests", buy.Status == "RESTING", fmt.Sprintf("status=%s order_id=%s", buy.Status, buy.OrderID))

	// 2. Crossing sell fills completely against it.
	sell, err := submit(client, *baseURL, map[string]any{
		"symbol": *symbol, "side": "SELL", "type": "LIMIT",
		"price": "150.00", "quantity": 50, "client_id": "client2",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "submit sell: %v\n", err)
		os.Exit(1)
	}
	check("sell limit fills", sell.Status == "FILLED" && len(sell.Trades) == 1,
		fmt.Sprintf("status=%s trades=%d", sell.Status, len(sell.Trades)))
	if len(sell.Trades) == 1 {
		t := sell.Trades[0]
		check("trade at resting price", t.Price == "150.00" && t.Quantity == 50,
			fmt.Sprintf("price=%s qty=%d", t.Price, t.Quantity))
	}

	// 3. Depth shows the residual bid.
	bk, err := getBook(client, *baseURL, *symbol)
	if err != nil {
		fmt.Fprintf(os.Stderr, "get book: %v\n", err)
		os.Exit(1)
	}
	residualOK := len(bk.Bids) == 1 && bk.Bids[0].Price == "150.00" && bk.Bids[0].Quantity == 50 && len(bk.Asks) == 0
	check("book shows residual 50@150.00", residualOK,
		fmt.Sprintf("bids=%v asks=%v", bk.Bids, bk.Asks))

	// 4. A stranger cannot cancel client1's order.
	status, err := cancel(client, *baseURL, buy.OrderID, "client2")
	if err != nil {
		fmt.Fprintf(os.Stderr, "cancel (wrong owner): %v\n", err)
		os.Exit(1)
	}
	check("non-owner cancel refused", status == "UNAUTHORIZED", "status="+status)

	// 5. The owner can.
	status, err = cancel(client, *baseURL, buy.OrderID, "client1")
	if err != nil {
		fmt.Fprintf(os.Stderr, "cancel: %v\n", err)
		os.Exit(1)
	}
	check("owner cancel succeeds", status == "CANCELLED", "status="+status)

	// 6. Cancelling again reports the order gone.
	status, err = cancel(client, *baseURL, buy.OrderID, "client1")
	if err != nil {
		fmt.Fprintf(os.Stderr, "cancel (repeat): %v\n", err)
		os.Exit(1)
	}
	check("repeat cancel not found", status == "NOT_FOUND", "status="+status)

	if failures > 0 {
		fmt.Printf("smoketest finished: %d check(s) failed\n", failures)
		os.Exit(1)
	}
	fmt.Println("smoketest finished: all checks passed")
}

func submit(client *http.Client, baseURL string, body map[string]any) (*submitResponse, error) {
	payload, _ := json.Marshal(body)
	resp, err := client.Post(baseURL+"/api/v1/orders", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, raw)
	}
	var out submitResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func getBook(client *http.Client, baseURL, symbol string) (*bookResponse, error) {
	resp, err := client.Get(baseURL + "/api/v1/orderbook/" + symbol)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, raw)
	}
	var out bookResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func cancel(client *http.Client, baseURL, orderID, clientID string) (string, error) {
	req, err := http.NewRequest(http.MethodDelete,
		fmt.Sprintf("%s/api/v1/orders/%s?client_id=%s", baseURL, orderID, clientID), nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var out cancelResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, raw)
	}
	return out.Status, nil
}
