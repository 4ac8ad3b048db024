package types

import (
	"math/big"
	"testing"
)

func TestCheckedAddOverflow(t *testing.T) {
	sum, err := CheckedAdd(big.NewInt(40), big.NewInt(2))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if sum.Int64() != 42 {
		t.Fatalf("unexpected sum %s", sum)
	}
	if _, err := CheckedAdd(MaxBalance(), big.NewInt(1)); err != ErrBalanceOverflow {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestCheckedSubUnderflow(t *testing.T) {
	diff, err := CheckedSub(big.NewInt(10), big.NewInt(10))
	if err != nil {
		t.Fatalf("sub: %v", err)
	}
	if diff.Sign() != 0 {
		t.Fatalf("unexpected diff %s", diff)
	}
	if _, err := CheckedSub(big.NewInt(1), big.NewInt(2)); err != ErrBalanceUnderflow {
		t.Fatalf("expected underflow, got %v", err)
	}
}

func TestFitsBalance(t *testing.T) {
	if !FitsBalance(MaxBalance()) {
		t.Fatal("max balance should fit")
	}
	over := new(big.Int).Add(MaxBalance(), big.NewInt(1))
	if FitsBalance(over) {
		t.Fatal("2^256 should not fit")
	}
	if FitsBalance(big.NewInt(-1)) {
		t.Fatal("negative values should not fit")
	}
}

func TestNormalizeCurrency(t *testing.T) {
	if got := CurrencyID(" sett ").Normalize(); got != "SETT" {
		t.Fatalf("unexpected id %q", got)
	}
}
