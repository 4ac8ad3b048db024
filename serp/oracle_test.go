package serp

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeedOracle(t *testing.T) {
	oracle := NewFeedOracle()
	_, err := oracle.Price(context.Background(), "SETT")
	require.ErrorIs(t, err, ErrNoQuote)

	require.Error(t, oracle.SetPrice("SETT", big.NewInt(-1)))

	require.NoError(t, oracle.SetPrice("sett", big.NewInt(150)))
	price, err := oracle.Price(context.Background(), "SETT")
	require.NoError(t, err)
	require.EqualValues(t, 150, price.Int64(), "symbols normalize onto one quote")
}

func TestHTTPOracle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"SETT":"150","JUSD":"bogus"}`))
	}))
	defer server.Close()

	oracle := NewHTTPOracle(server.URL)
	price, err := oracle.Price(context.Background(), "SETT")
	require.NoError(t, err)
	require.EqualValues(t, 150, price.Int64())

	_, err = oracle.Price(context.Background(), "JUSD")
	require.Error(t, err)

	_, err = oracle.Price(context.Background(), "DNAR")
	require.ErrorIs(t, err, ErrNoQuote)
}
