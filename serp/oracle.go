package serp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"serpledger/core/types"
)

// ErrNoQuote indicates the oracle holds no price for the requested currency.
var ErrNoQuote = errors.New("serp: no price quote")

// PriceOracle supplies one unsigned price quote per monitored currency, on the
// same scale as that currency's base unit.
type PriceOracle interface {
	Price(ctx context.Context, currency types.CurrencyID) (*big.Int, error)
}

// FeedOracle holds manually fed quotes. It backs the daemon's price feed
// endpoint and tests.
type FeedOracle struct {
	mu     sync.RWMutex
	quotes map[types.CurrencyID]*big.Int
}

// NewFeedOracle returns an empty feed.
func NewFeedOracle() *FeedOracle {
	return &FeedOracle{quotes: make(map[types.CurrencyID]*big.Int)}
}

// SetPrice records the quote for the currency, replacing any previous one.
// Negative quotes are rejected.
func (f *FeedOracle) SetPrice(currency types.CurrencyID, price *big.Int) error {
	price = types.BigOrZero(price)
	if price.Sign() < 0 {
		return fmt.Errorf("serp: negative price for %s", currency.Normalize())
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quotes[currency.Normalize()] = new(big.Int).Set(price)
	return nil
}

// Price implements the PriceOracle interface.
func (f *FeedOracle) Price(_ context.Context, currency types.CurrencyID) (*big.Int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	quote, ok := f.quotes[currency.Normalize()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoQuote, currency.Normalize())
	}
	return new(big.Int).Set(quote), nil
}

// HTTPOracle polls an endpoint returning a JSON object mapping currency
// symbols to decimal price strings.
type HTTPOracle struct {
	url    string
	client *http.Client
}

// NewHTTPOracle builds an oracle against the URL with a bounded client.
func NewHTTPOracle(url string) *HTTPOracle {
	return &HTTPOracle{url: url, client: &http.Client{Timeout: 5 * time.Second}}
}

// Price implements the PriceOracle interface.
func (o *HTTPOracle) Price(ctx context.Context, currency types.CurrencyID) (*big.Int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.url, nil)
	if err != nil {
		return nil, fmt.Errorf("serp: build oracle request: %w", err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serp: query oracle: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serp: oracle returned status %d", resp.StatusCode)
	}
	var quotes map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&quotes); err != nil {
		return nil, fmt.Errorf("serp: decode oracle response: %w", err)
	}
	raw, ok := quotes[string(currency.Normalize())]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoQuote, currency.Normalize())
	}
	price, ok := new(big.Int).SetString(raw, 10)
	if !ok || price.Sign() < 0 {
		return nil, fmt.Errorf("serp: malformed quote %q for %s", raw, currency.Normalize())
	}
	return price, nil
}
