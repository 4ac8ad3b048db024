// Package asset lifts a plain single-currency primitive into the native-asset
// contract required by the ledger dispatch: signed balance updates, a
// withdrawal feasibility check, and gap-returning slashes.
package asset

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"

	"serpledger/core/types"
)

var (
	// ErrAmountIntoBalanceFailed indicates a signed delta whose magnitude does
	// not fit the balance domain.
	ErrAmountIntoBalanceFailed = errors.New("asset: amount does not fit into balance")
	// ErrBalanceTooLow indicates a withdrawal would underflow the free balance.
	ErrBalanceTooLow = errors.New("asset: balance too low")
)

// Primitive is the embedded single-currency backend: unsigned balances, a
// lock primitive, and a reserve primitive. It has no signed-delta or
// multi-currency awareness.
type Primitive interface {
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

// Adapter wraps a Primitive so it satisfies the native-asset side of the
// ledger dispatch. Failures raised by the primitive propagate untranslated.
type Adapter struct {
	primitive Primitive
}

// NewAdapter binds the adapter to its primitive.
func NewAdapter(primitive Primitive) *Adapter {
	return &Adapter{primitive: primitive}
}

// UpdateBalance applies a signed delta: deposits for positive amounts,
// withdrawals otherwise. Zero deltas are filtered by the dispatch layer.
func (a *Adapter) UpdateBalance(who string, amount *big.Int) error {
	magnitude := new(big.Int).Abs(types.BigOrZero(amount))
	if _, overflow := uint256.FromBig(magnitude); overflow {
		return ErrAmountIntoBalanceFailed
	}
	if amount != nil && amount.Sign() > 0 {
		return a.Deposit(who, magnitude)
	}
	return a.Withdraw(who, magnitude)
}

// EnsureCanWithdraw checks free-balance sufficiency here and delegates any
// remaining liquidity checks to the primitive.
func (a *Adapter) EnsureCanWithdraw(who string, amount *big.Int) error {
	free, err := a.primitive.FreeBalance(who)
	if err != nil {
		return err
	}
	if new(big.Int).Sub(types.BigOrZero(free), types.BigOrZero(amount)).Sign() < 0 {
		return ErrBalanceTooLow
	}
	return a.primitive.EnsureCanWithdraw(who, amount)
}

func (a *Adapter) MinimumBalance() *big.Int { return a.primitive.MinimumBalance() }

func (a *Adapter) TotalIssuance() (*big.Int, error) { return a.primitive.TotalIssuance() }

func (a *Adapter) TotalBalance(who string) (*big.Int, error) { return a.primitive.TotalBalance(who) }

func (a *Adapter) FreeBalance(who string) (*big.Int, error) { return a.primitive.FreeBalance(who) }

func (a *Adapter) Transfer(from, to string, amount *big.Int) error {
	return a.primitive.Transfer(from, to, amount)
}

// Deposit credits unconditionally; account-creation side effects belong to
// the primitive.
func (a *Adapter) Deposit(who string, amount *big.Int) error {
	return a.primitive.Deposit(who, amount)
}

// Withdraw debits and permits the account to be fully drained.
func (a *Adapter) Withdraw(who string, amount *big.Int) error {
	return a.primitive.Withdraw(who, amount)
}

func (a *Adapter) CanSlash(who string, amount *big.Int) (bool, error) {
	return a.primitive.CanSlash(who, amount)
}

// Slash returns the gap between requested and available; it never fails on
// insufficient funds.
func (a *Adapter) Slash(who string, amount *big.Int) (*big.Int, error) {
	return a.primitive.Slash(who, amount)
}

func (a *Adapter) SetLock(id types.LockID, who string, amount *big.Int) error {
	return a.primitive.SetLock(id, who, amount)
}

func (a *Adapter) ExtendLock(id types.LockID, who string, amount *big.Int) error {
	return a.primitive.ExtendLock(id, who, amount)
}

func (a *Adapter) RemoveLock(id types.LockID, who string) error {
	return a.primitive.RemoveLock(id, who)
}

func (a *Adapter) ClearLocks(who string) error {
	return a.primitive.ClearLocks(who)
}

func (a *Adapter) CanMerge(who string) error {
	return a.primitive.CanMerge(who)
}

func (a *Adapter) CanReserve(who string, amount *big.Int) (bool, error) {
	return a.primitive.CanReserve(who, amount)
}

func (a *Adapter) Reserve(who string, amount *big.Int) error {
	return a.primitive.Reserve(who, amount)
}

func (a *Adapter) Unreserve(who string, amount *big.Int) (*big.Int, error) {
	return a.primitive.Unreserve(who, amount)
}

func (a *Adapter) SlashReserved(who string, amount *big.Int) (*big.Int, error) {
	return a.primitive.SlashReserved(who, amount)
}

func (a *Adapter) ReservedBalance(who string) (*big.Int, error) {
	return a.primitive.ReservedBalance(who)
}

func (a *Adapter) RepatriateReserved(slashed, beneficiary string, amount *big.Int, status types.BalanceStatus) (*big.Int, error) {
	return a.primitive.RepatriateReserved(slashed, beneficiary, amount, status)
}
