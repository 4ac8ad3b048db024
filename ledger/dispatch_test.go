package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"serpledger/core/events"
	"serpledger/native/asset"
	"serpledger/native/token"
	"serpledger/storage"
	"serpledger/tokens"
)

func newTestDispatch(t *testing.T) (*Dispatch, *events.Recorder) {
	t.Helper()
	db := storage.NewMemDB()
	nativeStore, err := token.NewStore(db, "DNAR", big.NewInt(1))
	require.NoError(t, err)
	backend, err := tokens.NewStore(db, []tokens.CurrencyConfig{
		{Symbol: "SETT", BaseUnit: big.NewInt(100), MinimumBalance: big.NewInt(1)},
		{Symbol: "JUSD", BaseUnit: big.NewInt(100), MinimumBalance: big.NewInt(1)},
	})
	require.NoError(t, err)
	recorder := &events.Recorder{}
	return NewDispatch("DNAR", asset.NewAdapter(nativeStore), backend, recorder), recorder
}

func TestDispatchRoutesByCurrencyID(t *testing.T) {
	ledger, _ := newTestDispatch(t)
	require.NoError(t, ledger.Deposit("DNAR", "alice", big.NewInt(100)))
	require.NoError(t, ledger.Deposit("SETT", "alice", big.NewInt(40)))

	nativeIssuance, err := ledger.TotalIssuance("DNAR")
	require.NoError(t, err)
	require.EqualValues(t, 100, nativeIssuance.Int64())

	stableIssuance, err := ledger.TotalIssuance("SETT")
	require.NoError(t, err)
	require.EqualValues(t, 40, stableIssuance.Int64())

	// Lowercase ids normalize onto the same route.
	free, err := ledger.FreeBalance("dnar", "alice")
	require.NoError(t, err)
	require.EqualValues(t, 100, free.Int64())

	_, err = ledger.FreeBalance("XYZ", "alice")
	require.ErrorIs(t, err, tokens.ErrUnknownCurrency)
}

func TestTransferZeroAndSelfAreSilentNoOps(t *testing.T) {
	ledger, recorder := newTestDispatch(t)
	require.NoError(t, ledger.Deposit("SETT", "alice", big.NewInt(50)))
	recorder.Reset()

	require.NoError(t, ledger.Transfer("SETT", "alice", "bob", big.NewInt(0)))
	require.NoError(t, ledger.Transfer("SETT", "alice", "alice", big.NewInt(10)))
	require.NoError(t, ledger.Transfer("SETT", "missing", "bob", nil))
	require.Empty(t, recorder.Events(), "no-ops must not emit")

	free, err := ledger.FreeBalance("SETT", "alice")
	require.NoError(t, err)
	require.EqualValues(t, 50, free.Int64())
}

func TestTransferEmitsOnSuccessOnly(t *testing.T) {
	ledger, recorder := newTestDispatch(t)
	require.NoError(t, ledger.Deposit("SETT", "alice", big.NewInt(50)))
	recorder.Reset()

	err := ledger.Transfer("SETT", "alice", "bob", big.NewInt(80))
	require.ErrorIs(t, err, token.ErrInsufficientBalance)
	require.Empty(t, recorder.Events())

	require.NoError(t, ledger.Transfer("SETT", "alice", "bob", big.NewInt(30)))
	recorded := recorder.Events()
	require.Len(t, recorded, 1)
	transfer, ok := recorded[0].(events.Transferred)
	require.True(t, ok)
	require.EqualValues(t, "SETT", transfer.Currency)
	require.Equal(t, "alice", transfer.From)
	require.Equal(t, "bob", transfer.To)
	require.EqualValues(t, 30, transfer.Amount.Int64())
}

func TestTransferNativeBypassesRouting(t *testing.T) {
	ledger, recorder := newTestDispatch(t)
	require.NoError(t, ledger.Deposit("DNAR", "alice", big.NewInt(100)))
	recorder.Reset()

	require.NoError(t, ledger.TransferNative("alice", "bob", big.NewInt(25)))

	free, err := ledger.FreeBalance("DNAR", "bob")
	require.NoError(t, err)
	require.EqualValues(t, 25, free.Int64())

	recorded := recorder.Events()
	require.Len(t, recorded, 1)
	transfer := recorded[0].(events.Transferred)
	require.EqualValues(t, "DNAR", transfer.Currency)
}

func TestUpdateBalanceKeepsSignInEvent(t *testing.T) {
	ledger, recorder := newTestDispatch(t)
	require.NoError(t, ledger.UpdateBalance("SETT", "alice", big.NewInt(80)))
	require.NoError(t, ledger.UpdateBalance("SETT", "alice", big.NewInt(-30)))
	require.NoError(t, ledger.UpdateBalance("SETT", "alice", big.NewInt(0)))

	free, err := ledger.FreeBalance("SETT", "alice")
	require.NoError(t, err)
	require.EqualValues(t, 50, free.Int64())

	recorded := recorder.Events()
	require.Len(t, recorded, 2, "zero delta emits nothing")
	down := recorded[1].(events.BalanceUpdated)
	require.EqualValues(t, -30, down.Amount.Int64(), "event keeps the delta sign")
}

func TestDepositWithdrawMoveIssuance(t *testing.T) {
	ledger, recorder := newTestDispatch(t)
	require.NoError(t, ledger.Deposit("JUSD", "alice", big.NewInt(70)))
	require.NoError(t, ledger.Withdraw("JUSD", "alice", big.NewInt(20)))

	issuance, err := ledger.TotalIssuance("JUSD")
	require.NoError(t, err)
	require.EqualValues(t, 50, issuance.Int64())

	recorded := recorder.Events()
	require.Len(t, recorded, 2)
	require.Equal(t, events.TypeDeposited, recorded[0].EventType())
	require.Equal(t, events.TypeWithdrawn, recorded[1].EventType())
}

func TestSlashReturnsGapAcrossRoutes(t *testing.T) {
	ledger, _ := newTestDispatch(t)
	require.NoError(t, ledger.Deposit("DNAR", "alice", big.NewInt(60)))
	require.NoError(t, ledger.Deposit("SETT", "alice", big.NewInt(10)))

	gap, err := ledger.Slash("DNAR", "alice", big.NewInt(100))
	require.NoError(t, err)
	require.EqualValues(t, 40, gap.Int64())

	gap, err = ledger.Slash("SETT", "alice", big.NewInt(10))
	require.NoError(t, err)
	require.Zero(t, gap.Sign())

	issuance, err := ledger.TotalIssuance("SETT")
	require.NoError(t, err)
	require.Zero(t, issuance.Sign(), "slash burns issuance")
}

func TestLockAndReserveRouting(t *testing.T) {
	ledger, _ := newTestDispatch(t)
	require.NoError(t, ledger.Deposit("DNAR", "alice", big.NewInt(100)))
	require.NoError(t, ledger.Deposit("SETT", "alice", big.NewInt(100)))

	require.NoError(t, ledger.SetLock("vest", "DNAR", "alice", big.NewInt(90)))
	err := ledger.Transfer("DNAR", "alice", "bob", big.NewInt(50))
	require.ErrorIs(t, err, token.ErrLiquidityRestrictions)

	// The lock binds only the native route.
	require.NoError(t, ledger.Transfer("SETT", "alice", "bob", big.NewInt(50)))

	require.NoError(t, ledger.Reserve("SETT", "alice", big.NewInt(30)))
	reserved, err := ledger.ReservedBalance("SETT", "alice")
	require.NoError(t, err)
	require.EqualValues(t, 30, reserved.Int64())

	remainder, err := ledger.Unreserve("SETT", "alice", big.NewInt(45))
	require.NoError(t, err)
	require.EqualValues(t, 15, remainder.Int64())
}

func TestBaseUnitFallsBackToNativeMinimum(t *testing.T) {
	ledger, _ := newTestDispatch(t)
	unit, err := ledger.BaseUnit("SETT")
	require.NoError(t, err)
	require.EqualValues(t, 100, unit.Int64())

	unit, err = ledger.BaseUnit("DNAR")
	require.NoError(t, err)
	require.EqualValues(t, 1, unit.Int64(), "native falls back to its minimum balance")
}

func TestNegativeAmountsNeverRunBackwards(t *testing.T) {
	ledger, recorder := newTestDispatch(t)
	// bob's whole balance is locked; a reversed transfer would drain him
	// without ever consulting his locks.
	require.NoError(t, ledger.Deposit("SETT", "bob", big.NewInt(100)))
	require.NoError(t, ledger.SetLock("vest", "SETT", "bob", big.NewInt(100)))
	recorder.Reset()

	err := ledger.Transfer("SETT", "alice", "bob", big.NewInt(-40))
	require.ErrorIs(t, err, token.ErrNegativeAmount)

	bobFree, err := ledger.FreeBalance("SETT", "bob")
	require.NoError(t, err)
	require.EqualValues(t, 100, bobFree.Int64())
	aliceFree, err := ledger.FreeBalance("SETT", "alice")
	require.NoError(t, err)
	require.Zero(t, aliceFree.Sign())

	// A negative withdrawal must not mint.
	require.NoError(t, ledger.Deposit("JUSD", "alice", big.NewInt(10)))
	recorder.Reset()
	err = ledger.Withdraw("JUSD", "alice", big.NewInt(-50))
	require.ErrorIs(t, err, token.ErrNegativeAmount)

	issuance, err := ledger.TotalIssuance("JUSD")
	require.NoError(t, err)
	require.EqualValues(t, 10, issuance.Int64())
	require.Empty(t, recorder.Events(), "failed operations must not emit")

	// Same guard on the native route and the remaining unsigned operations.
	err = ledger.Deposit("DNAR", "alice", big.NewInt(-5))
	require.ErrorIs(t, err, token.ErrNegativeAmount)
	_, err = ledger.Slash("SETT", "bob", big.NewInt(-5))
	require.ErrorIs(t, err, token.ErrNegativeAmount)
	err = ledger.Reserve("SETT", "bob", big.NewInt(-5))
	require.ErrorIs(t, err, token.ErrNegativeAmount)

	// UpdateBalance stays the sole signed entry point.
	require.NoError(t, ledger.UpdateBalance("JUSD", "alice", big.NewInt(-10)))
	issuance, err = ledger.TotalIssuance("JUSD")
	require.NoError(t, err)
	require.Zero(t, issuance.Sign())
}
