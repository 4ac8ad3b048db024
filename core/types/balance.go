package types

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	// ErrBalanceOverflow indicates an arithmetic result above the 256-bit balance domain.
	ErrBalanceOverflow = errors.New("types: balance overflow")
	// ErrBalanceUnderflow indicates an arithmetic result below zero.
	ErrBalanceUnderflow = errors.New("types: balance underflow")
)

// MaxBalance returns the largest representable balance (2^256 - 1). The
// returned value is freshly allocated and safe to mutate.
func MaxBalance() *big.Int {
	max := new(big.Int).Lsh(big.NewInt(1), 256)
	return max.Sub(max, big.NewInt(1))
}

// FitsBalance reports whether v lies inside the unsigned 256-bit balance domain.
func FitsBalance(v *big.Int) bool {
	if v == nil {
		return true
	}
	if v.Sign() < 0 {
		return false
	}
	_, overflow := uint256.FromBig(v)
	return !overflow
}

// BigOrZero returns v, or a zero value when v is nil. Callers treat the result
// as read-only shared state.
func BigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}

// CloneBig returns an owned copy of v, mapping nil to zero.
func CloneBig(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// CheckedAdd returns a + b, failing instead of wrapping past the balance domain.
func CheckedAdd(a, b *big.Int) (*big.Int, error) {
	sum := new(big.Int).Add(BigOrZero(a), BigOrZero(b))
	if !FitsBalance(sum) {
		return nil, ErrBalanceOverflow
	}
	return sum, nil
}

// CheckedSub returns a - b, failing instead of going negative.
func CheckedSub(a, b *big.Int) (*big.Int, error) {
	diff := new(big.Int).Sub(BigOrZero(a), BigOrZero(b))
	if diff.Sign() < 0 {
		return nil, ErrBalanceUnderflow
	}
	return diff, nil
}

// MinBig returns the smaller of a and b as an owned copy.
func MinBig(a, b *big.Int) *big.Int {
	a, b = BigOrZero(a), BigOrZero(b)
	if a.Cmp(b) <= 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}
