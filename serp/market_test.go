package serp

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"serpledger/core/events"
	"serpledger/native/token"
	"serpledger/storage"
	"serpledger/tokens"
)

func newTestMarket(t *testing.T) (*Market, *tokens.Store, *events.Recorder) {
	t.Helper()
	backend, err := tokens.NewStore(storage.NewMemDB(), []tokens.CurrencyConfig{
		{Symbol: "DNAR", BaseUnit: big.NewInt(100), MinimumBalance: big.NewInt(1)},
		{Symbol: "SETT", BaseUnit: big.NewInt(100), MinimumBalance: big.NewInt(1)},
	})
	require.NoError(t, err)
	recorder := &events.Recorder{}
	return NewMarket("DNAR", backend, recorder), backend, recorder
}

func TestExpandSupplyGatesOnNativeID(t *testing.T) {
	market, backend, recorder := newTestMarket(t)
	require.NoError(t, backend.Deposit("DNAR", "serpers", big.NewInt(1000)))

	// A foreign native id is silently ignored.
	require.NoError(t, market.ExpandSupply("OTHER", "SETT", big.NewInt(500), big.NewInt(600), "serpers"))

	settSupply, err := backend.TotalIssuance("SETT")
	require.NoError(t, err)
	require.Zero(t, settSupply.Sign())
	require.Empty(t, recorder.Events(), "a gated-out call must not emit")
}

func TestExpandSupplyNoOpOnZeroAndIdentity(t *testing.T) {
	market, backend, recorder := newTestMarket(t)
	require.NoError(t, backend.Deposit("DNAR", "serpers", big.NewInt(1000)))

	require.NoError(t, market.ExpandSupply("DNAR", "SETT", big.NewInt(0), big.NewInt(0), "serpers"))
	require.NoError(t, market.ExpandSupply("DNAR", "DNAR", big.NewInt(500), big.NewInt(500), "serpers"))
	require.Empty(t, recorder.Events())

	dnarSupply, err := backend.TotalIssuance("DNAR")
	require.NoError(t, err)
	require.EqualValues(t, 1000, dnarSupply.Int64())
}

func TestExpandSupplyEmitsOnlyOnStateChange(t *testing.T) {
	market, backend, recorder := newTestMarket(t)

	// Unfunded serpers account: settlement fails, nothing may be emitted.
	err := market.ExpandSupply("DNAR", "SETT", big.NewInt(500), big.NewInt(600), "serpers")
	require.ErrorIs(t, err, token.ErrInsufficientBalance)
	require.Empty(t, recorder.Events())

	require.NoError(t, backend.Deposit("DNAR", "serpers", big.NewInt(1000)))
	require.NoError(t, market.ExpandSupply("DNAR", "SETT", big.NewInt(500), big.NewInt(600), "serpers"))

	recorded := recorder.Events()
	require.Len(t, recorded, 1)
	up, ok := recorded[0].(events.SerpedUpSupply)
	require.True(t, ok)
	require.EqualValues(t, "SETT", up.Currency)
	require.EqualValues(t, 500, up.Amount.Int64())
}

func TestContractSupplyMirrorsExpand(t *testing.T) {
	market, backend, recorder := newTestMarket(t)
	require.NoError(t, backend.Deposit("SETT", "serpers", big.NewInt(800)))

	require.NoError(t, market.ContractSupply("DNAR", "SETT", big.NewInt(300), big.NewInt(250), "serpers"))

	settSupply, err := backend.TotalIssuance("SETT")
	require.NoError(t, err)
	require.EqualValues(t, 500, settSupply.Int64())

	recorded := recorder.Events()
	require.Len(t, recorded, 1)
	down, ok := recorded[0].(events.SerpedDownSupply)
	require.True(t, ok)
	require.EqualValues(t, 300, down.Amount.Int64())

	// Gated native id on the contract side too.
	recorder.Reset()
	require.NoError(t, market.ContractSupply("OTHER", "SETT", big.NewInt(100), big.NewInt(80), "serpers"))
	require.Empty(t, recorder.Events())
}
