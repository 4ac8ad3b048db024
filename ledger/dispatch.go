// Package ledger presents one uniform operation set over a privileged native
// currency and an arbitrary set of backend currencies. Every operation routes
// on currency-id equality with the configured native id; the routing decision
// lives in a single helper so it can never diverge across operations.
package ledger

import (
	"math/big"

	"serpledger/core/events"
	"serpledger/core/types"
)

// NativeAsset is the adapter-backed single-currency asset the native id
// routes to.
type NativeAsset interface {
	MinimumBalance() *big.Int
	TotalIssuance() (*big.Int, error)
	TotalBalance(who string) (*big.Int, error)
	FreeBalance(who string) (*big.Int, error)
	EnsureCanWithdraw(who string, amount *big.Int) error
	Transfer(from, to string, amount *big.Int) error
	Deposit(who string, amount *big.Int) error
	Withdraw(who string, amount *big.Int) error
	CanSlash(who string, amount *big.Int) (bool, error)
	Slash(who string, amount *big.Int) (*big.Int, error)
	UpdateBalance(who string, amount *big.Int) error

	SetLock(id types.LockID, who string, amount *big.Int) error
	ExtendLock(id types.LockID, who string, amount *big.Int) error
	RemoveLock(id types.LockID, who string) error
	ClearLocks(who string) error

	CanMerge(who string) error

	CanReserve(who string, amount *big.Int) (bool, error)
	Reserve(who string, amount *big.Int) error
	Unreserve(who string, amount *big.Int) (*big.Int, error)
	SlashReserved(who string, amount *big.Int) (*big.Int, error)
	ReservedBalance(who string) (*big.Int, error)
	RepatriateReserved(slashed, beneficiary string, amount *big.Int, status types.BalanceStatus) (*big.Int, error)
}

// Backend is the external multi-currency store every non-native id routes to.
type Backend interface {
	BaseUnit(currency types.CurrencyID) (*big.Int, error)
	MinimumBalance(currency types.CurrencyID) (*big.Int, error)
	TotalIssuance(currency types.CurrencyID) (*big.Int, error)
	TotalBalance(currency types.CurrencyID, who string) (*big.Int, error)
	FreeBalance(currency types.CurrencyID, who string) (*big.Int, error)
	EnsureCanWithdraw(currency types.CurrencyID, who string, amount *big.Int) error
	Transfer(currency types.CurrencyID, from, to string, amount *big.Int) error
	Deposit(currency types.CurrencyID, who string, amount *big.Int) error
	Withdraw(currency types.CurrencyID, who string, amount *big.Int) error
	CanSlash(currency types.CurrencyID, who string, amount *big.Int) (bool, error)
	Slash(currency types.CurrencyID, who string, amount *big.Int) (*big.Int, error)
	UpdateBalance(currency types.CurrencyID, who string, amount *big.Int) error

	SetLock(id types.LockID, currency types.CurrencyID, who string, amount *big.Int) error
	ExtendLock(id types.LockID, currency types.CurrencyID, who string, amount *big.Int) error
	RemoveLock(id types.LockID, currency types.CurrencyID, who string) error

	CanReserve(currency types.CurrencyID, who string, amount *big.Int) (bool, error)
	Reserve(currency types.CurrencyID, who string, amount *big.Int) error
	Unreserve(currency types.CurrencyID, who string, amount *big.Int) (*big.Int, error)
	SlashReserved(currency types.CurrencyID, who string, amount *big.Int) (*big.Int, error)
	ReservedBalance(currency types.CurrencyID, who string) (*big.Int, error)
	RepatriateReserved(currency types.CurrencyID, slashed, beneficiary string, amount *big.Int, status types.BalanceStatus) (*big.Int, error)

	MergeAccount(source, dest string) error
}

// Dispatch routes every ledger operation to the native asset or the backend
// and emits domain events on successful mutations.
type Dispatch struct {
	nativeID types.CurrencyID
	native   NativeAsset
	backend  Backend
	events   events.Emitter
}

// NewDispatch wires the routed ledger. A nil emitter discards events.
func NewDispatch(nativeID types.CurrencyID, native NativeAsset, backend Backend, emitter events.Emitter) *Dispatch {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	return &Dispatch{nativeID: nativeID.Normalize(), native: native, backend: backend, events: emitter}
}

// NativeID returns the currency id routed to the native asset.
func (d *Dispatch) NativeID() types.CurrencyID { return d.nativeID }

// isNative is the sole routing decision for every operation.
func (d *Dispatch) isNative(currency types.CurrencyID) bool {
	return currency.Normalize() == d.nativeID
}

// BaseUnit returns the peg reference of the currency. The native asset has no
// peg; its minimum balance stands in, matching the backend's scale contract.
func (d *Dispatch) BaseUnit(currency types.CurrencyID) (*big.Int, error) {
	if d.isNative(currency) {
		return d.native.MinimumBalance(), nil
	}
	return d.backend.BaseUnit(currency)
}

func (d *Dispatch) MinimumBalance(currency types.CurrencyID) (*big.Int, error) {
	if d.isNative(currency) {
		return d.native.MinimumBalance(), nil
	}
	return d.backend.MinimumBalance(currency)
}

func (d *Dispatch) TotalIssuance(currency types.CurrencyID) (*big.Int, error) {
	if d.isNative(currency) {
		return d.native.TotalIssuance()
	}
	return d.backend.TotalIssuance(currency)
}

func (d *Dispatch) TotalBalance(currency types.CurrencyID, who string) (*big.Int, error) {
	if d.isNative(currency) {
		return d.native.TotalBalance(who)
	}
	return d.backend.TotalBalance(currency, who)
}

func (d *Dispatch) FreeBalance(currency types.CurrencyID, who string) (*big.Int, error) {
	if d.isNative(currency) {
		return d.native.FreeBalance(who)
	}
	return d.backend.FreeBalance(currency, who)
}

func (d *Dispatch) EnsureCanWithdraw(currency types.CurrencyID, who string, amount *big.Int) error {
	if d.isNative(currency) {
		return d.native.EnsureCanWithdraw(who, amount)
	}
	return d.backend.EnsureCanWithdraw(currency, who, amount)
}

// Transfer moves amount between accounts. Zero amounts and self transfers are
// no-ops that emit nothing; underlying failures propagate untranslated.
func (d *Dispatch) Transfer(currency types.CurrencyID, from, to string, amount *big.Int) error {
	amount = types.BigOrZero(amount)
	if amount.Sign() == 0 || from == to {
		return nil
	}
	if d.isNative(currency) {
		if err := d.native.Transfer(from, to, amount); err != nil {
			return err
		}
	} else {
		if err := d.backend.Transfer(currency, from, to, amount); err != nil {
			return err
		}
	}
	d.events.Emit(events.Transferred{Currency: currency, From: from, To: to, Amount: amount})
	return nil
}

// TransferNative always routes to the native asset, regardless of any
// configured ids.
func (d *Dispatch) TransferNative(from, to string, amount *big.Int) error {
	amount = types.BigOrZero(amount)
	if amount.Sign() == 0 || from == to {
		return nil
	}
	if err := d.native.Transfer(from, to, amount); err != nil {
		return err
	}
	d.events.Emit(events.Transferred{Currency: d.nativeID, From: from, To: to, Amount: amount})
	return nil
}

// Deposit credits the account and grows issuance. Zero amounts are no-ops.
func (d *Dispatch) Deposit(currency types.CurrencyID, who string, amount *big.Int) error {
	amount = types.BigOrZero(amount)
	if amount.Sign() == 0 {
		return nil
	}
	if d.isNative(currency) {
		if err := d.native.Deposit(who, amount); err != nil {
			return err
		}
	} else {
		if err := d.backend.Deposit(currency, who, amount); err != nil {
			return err
		}
	}
	d.events.Emit(events.Deposited{Currency: currency, Who: who, Amount: amount})
	return nil
}

// Withdraw debits the account and shrinks issuance. Zero amounts are no-ops.
func (d *Dispatch) Withdraw(currency types.CurrencyID, who string, amount *big.Int) error {
	amount = types.BigOrZero(amount)
	if amount.Sign() == 0 {
		return nil
	}
	if d.isNative(currency) {
		if err := d.native.Withdraw(who, amount); err != nil {
			return err
		}
	} else {
		if err := d.backend.Withdraw(currency, who, amount); err != nil {
			return err
		}
	}
	d.events.Emit(events.Withdrawn{Currency: currency, Who: who, Amount: amount})
	return nil
}

// UpdateBalance applies a signed delta and emits the delta with its sign
// preserved. Zero deltas are no-ops.
func (d *Dispatch) UpdateBalance(currency types.CurrencyID, who string, amount *big.Int) error {
	amount = types.BigOrZero(amount)
	if amount.Sign() == 0 {
		return nil
	}
	if d.isNative(currency) {
		if err := d.native.UpdateBalance(who, amount); err != nil {
			return err
		}
	} else {
		if err := d.backend.UpdateBalance(currency, who, amount); err != nil {
			return err
		}
	}
	d.events.Emit(events.BalanceUpdated{Currency: currency, Who: who, Amount: amount})
	return nil
}

// CanSlash reports whether a slash of amount would be fully covered.
func (d *Dispatch) CanSlash(currency types.CurrencyID, who string, amount *big.Int) (bool, error) {
	if d.isNative(currency) {
		return d.native.CanSlash(who, amount)
	}
	return d.backend.CanSlash(currency, who, amount)
}

// Slash debits best-effort and returns the uncovered gap.
func (d *Dispatch) Slash(currency types.CurrencyID, who string, amount *big.Int) (*big.Int, error) {
	if d.isNative(currency) {
		return d.native.Slash(who, amount)
	}
	return d.backend.Slash(currency, who, amount)
}

func (d *Dispatch) SetLock(id types.LockID, currency types.CurrencyID, who string, amount *big.Int) error {
	if d.isNative(currency) {
		return d.native.SetLock(id, who, amount)
	}
	return d.backend.SetLock(id, currency, who, amount)
}

func (d *Dispatch) ExtendLock(id types.LockID, currency types.CurrencyID, who string, amount *big.Int) error {
	if d.isNative(currency) {
		return d.native.ExtendLock(id, who, amount)
	}
	return d.backend.ExtendLock(id, currency, who, amount)
}

func (d *Dispatch) RemoveLock(id types.LockID, currency types.CurrencyID, who string) error {
	if d.isNative(currency) {
		return d.native.RemoveLock(id, who)
	}
	return d.backend.RemoveLock(id, currency, who)
}

func (d *Dispatch) CanReserve(currency types.CurrencyID, who string, amount *big.Int) (bool, error) {
	if d.isNative(currency) {
		return d.native.CanReserve(who, amount)
	}
	return d.backend.CanReserve(currency, who, amount)
}

func (d *Dispatch) Reserve(currency types.CurrencyID, who string, amount *big.Int) error {
	if d.isNative(currency) {
		return d.native.Reserve(who, amount)
	}
	return d.backend.Reserve(currency, who, amount)
}

func (d *Dispatch) Unreserve(currency types.CurrencyID, who string, amount *big.Int) (*big.Int, error) {
	if d.isNative(currency) {
		return d.native.Unreserve(who, amount)
	}
	return d.backend.Unreserve(currency, who, amount)
}

func (d *Dispatch) SlashReserved(currency types.CurrencyID, who string, amount *big.Int) (*big.Int, error) {
	if d.isNative(currency) {
		return d.native.SlashReserved(who, amount)
	}
	return d.backend.SlashReserved(currency, who, amount)
}

func (d *Dispatch) ReservedBalance(currency types.CurrencyID, who string) (*big.Int, error) {
	if d.isNative(currency) {
		return d.native.ReservedBalance(who)
	}
	return d.backend.ReservedBalance(currency, who)
}

// RepatriateReserved moves amount from the slashed account's reserve to the
// beneficiary's free or reserved balance and returns the shortfall instead of
// failing outright.
func (d *Dispatch) RepatriateReserved(currency types.CurrencyID, slashed, beneficiary string, amount *big.Int, status types.BalanceStatus) (*big.Int, error) {
	if d.isNative(currency) {
		return d.native.RepatriateReserved(slashed, beneficiary, amount, status)
	}
	return d.backend.RepatriateReserved(currency, slashed, beneficiary, amount, status)
}
