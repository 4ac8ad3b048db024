package types

import "strings"

// CurrencyID identifies one currency class tracked by the ledger, e.g. the
// native DNAR or a stable SETT. Equality against the configured native id is
// the sole routing key between the embedded native asset and the generic
// multi-currency backend.
type CurrencyID string

// Normalize returns the canonical upper-case form of the identifier.
func (c CurrencyID) Normalize() CurrencyID {
	return CurrencyID(strings.ToUpper(strings.TrimSpace(string(c))))
}

func (c CurrencyID) String() string { return string(c) }

// LockID names a balance lock. Multiple locks may coexist on one account; the
// enforced hold is the maximum across them, not their sum.
type LockID string

// BalanceStatus selects the destination pot when repatriating reserved funds.
type BalanceStatus uint8

const (
	// StatusFree moves repatriated funds into the beneficiary's free balance.
	StatusFree BalanceStatus = iota
	// StatusReserved moves repatriated funds into the beneficiary's reserved balance.
	StatusReserved
)

func (s BalanceStatus) String() string {
	switch s {
	case StatusFree:
		return "free"
	case StatusReserved:
		return "reserved"
	default:
		return "unknown"
	}
}
