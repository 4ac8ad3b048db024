package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"serpledger/core/events"
	"serpledger/native/token"
)

func TestMergeAccountMovesNativeAndBackend(t *testing.T) {
	ledger, recorder := newTestDispatch(t)
	require.NoError(t, ledger.Deposit("DNAR", "alice", big.NewInt(100)))
	require.NoError(t, ledger.Reserve("DNAR", "alice", big.NewInt(40)))
	require.NoError(t, ledger.Deposit("SETT", "alice", big.NewInt(70)))
	recorder.Reset()

	require.NoError(t, ledger.MergeAccount("alice", "bob"))

	nativeFree, err := ledger.FreeBalance("DNAR", "bob")
	require.NoError(t, err)
	require.EqualValues(t, 100, nativeFree.Int64(), "reserve folds back into free balance")

	settFree, err := ledger.FreeBalance("SETT", "bob")
	require.NoError(t, err)
	require.EqualValues(t, 70, settFree.Int64())

	total, err := ledger.TotalBalance("DNAR", "alice")
	require.NoError(t, err)
	require.Zero(t, total.Sign())

	// The native consolidation shows up as a single transfer event.
	var transfers int
	for _, evt := range recorder.Events() {
		if transfer, ok := evt.(events.Transferred); ok && transfer.Currency == "DNAR" {
			transfers++
			require.EqualValues(t, 100, transfer.Amount.Int64())
		}
	}
	require.Equal(t, 1, transfers)
}

func TestMergeAccountRejectsLockedNativeBeforeMovingBackend(t *testing.T) {
	ledger, _ := newTestDispatch(t)
	require.NoError(t, ledger.Deposit("DNAR", "alice", big.NewInt(100)))
	require.NoError(t, ledger.SetLock("vest", "DNAR", "alice", big.NewInt(10)))
	require.NoError(t, ledger.Deposit("SETT", "alice", big.NewInt(70)))

	err := ledger.MergeAccount("alice", "bob")
	require.ErrorIs(t, err, token.ErrLiquidityRestrictions)

	settFree, err := ledger.FreeBalance("SETT", "alice")
	require.NoError(t, err)
	require.EqualValues(t, 70, settFree.Int64(), "backend must be untouched after the native precondition fails")
}

func TestMergeAccountLockedBackendLeavesNativeUntouched(t *testing.T) {
	ledger, _ := newTestDispatch(t)
	require.NoError(t, ledger.Deposit("DNAR", "alice", big.NewInt(100)))
	require.NoError(t, ledger.Deposit("JUSD", "alice", big.NewInt(30)))
	require.NoError(t, ledger.SetLock("vest", "JUSD", "alice", big.NewInt(5)))

	err := ledger.MergeAccount("alice", "bob")
	require.ErrorIs(t, err, token.ErrLiquidityRestrictions)

	nativeFree, err := ledger.FreeBalance("DNAR", "alice")
	require.NoError(t, err)
	require.EqualValues(t, 100, nativeFree.Int64())
}

func TestMergeAccountSelfIsNoOp(t *testing.T) {
	ledger, recorder := newTestDispatch(t)
	require.NoError(t, ledger.Deposit("DNAR", "alice", big.NewInt(100)))
	recorder.Reset()

	require.NoError(t, ledger.MergeAccount("alice", "alice"))
	require.Empty(t, recorder.Events())

	free, err := ledger.FreeBalance("DNAR", "alice")
	require.NoError(t, err)
	require.EqualValues(t, 100, free.Int64())
}

func TestMergeAccountClearsDormantNativeLocks(t *testing.T) {
	ledger, _ := newTestDispatch(t)
	// A lock on a drained native account must not outlive the merge.
	require.NoError(t, ledger.SetLock("vest", "DNAR", "alice", big.NewInt(10)))
	require.NoError(t, ledger.Deposit("SETT", "alice", big.NewInt(70)))

	require.NoError(t, ledger.MergeAccount("alice", "bob"))

	settFree, err := ledger.FreeBalance("SETT", "bob")
	require.NoError(t, err)
	require.EqualValues(t, 70, settFree.Int64())

	// Funds arriving on the old source are fully liquid again.
	require.NoError(t, ledger.Deposit("DNAR", "alice", big.NewInt(50)))
	require.NoError(t, ledger.Transfer("DNAR", "alice", "carol", big.NewInt(50)))
}
