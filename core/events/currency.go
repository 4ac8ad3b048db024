package events

import (
	"math/big"

	"serpledger/core/types"
)

const (
	// TypeTransferred is emitted for every successful balance transfer.
	TypeTransferred = "currency.transferred"
	// TypeBalanceUpdated is emitted for signed balance adjustments.
	TypeBalanceUpdated = "currency.balance_updated"
	// TypeDeposited is emitted when issuance-increasing credits succeed.
	TypeDeposited = "currency.deposited"
	// TypeWithdrawn is emitted when issuance-decreasing debits succeed.
	TypeWithdrawn = "currency.withdrawn"
)

// Transferred captures a completed transfer between two accounts.
type Transferred struct {
	Currency types.CurrencyID
	From     string
	To       string
	Amount   *big.Int
}

func (Transferred) EventType() string { return TypeTransferred }

// Event renders the transfer for downstream consumers.
func (e Transferred) Event() *types.Event {
	return &types.Event{Type: TypeTransferred, Attributes: map[string]string{
		"currency": currencyAttr(e.Currency),
		"from":     e.From,
		"to":       e.To,
		"amount":   formatAmount(e.Amount),
	}}
}

// BalanceUpdated captures a signed balance adjustment. Amount keeps its sign,
// also for negative deltas.
type BalanceUpdated struct {
	Currency types.CurrencyID
	Who      string
	Amount   *big.Int
}

func (BalanceUpdated) EventType() string { return TypeBalanceUpdated }

func (e BalanceUpdated) Event() *types.Event {
	return &types.Event{Type: TypeBalanceUpdated, Attributes: map[string]string{
		"currency": currencyAttr(e.Currency),
		"who":      e.Who,
		"amount":   formatAmount(e.Amount),
	}}
}

// Deposited captures a successful credit.
type Deposited struct {
	Currency types.CurrencyID
	Who      string
	Amount   *big.Int
}

func (Deposited) EventType() string { return TypeDeposited }

func (e Deposited) Event() *types.Event {
	return &types.Event{Type: TypeDeposited, Attributes: map[string]string{
		"currency": currencyAttr(e.Currency),
		"who":      e.Who,
		"amount":   formatAmount(e.Amount),
	}}
}

// Withdrawn captures a successful debit.
type Withdrawn struct {
	Currency types.CurrencyID
	Who      string
	Amount   *big.Int
}

func (Withdrawn) EventType() string { return TypeWithdrawn }

func (e Withdrawn) Event() *types.Event {
	return &types.Event{Type: TypeWithdrawn, Attributes: map[string]string{
		"currency": currencyAttr(e.Currency),
		"who":      e.Who,
		"amount":   formatAmount(e.Amount),
	}}
}
