package events

import (
	"math/big"

	"serpledger/core/types"
)

const (
	// TypeSerpedUpSupply is emitted when stabilization expands a currency's supply.
	TypeSerpedUpSupply = "serp.supply_up"
	// TypeSerpedDownSupply is emitted when stabilization contracts a currency's supply.
	TypeSerpedDownSupply = "serp.supply_down"
)

// SerpedUpSupply captures a settled supply expansion.
type SerpedUpSupply struct {
	Currency types.CurrencyID
	Amount   *big.Int
}

func (SerpedUpSupply) EventType() string { return TypeSerpedUpSupply }

func (e SerpedUpSupply) Event() *types.Event {
	return &types.Event{Type: TypeSerpedUpSupply, Attributes: map[string]string{
		"currency": currencyAttr(e.Currency),
		"amount":   formatAmount(e.Amount),
	}}
}

// SerpedDownSupply captures a settled supply contraction.
type SerpedDownSupply struct {
	Currency types.CurrencyID
	Amount   *big.Int
}

func (SerpedDownSupply) EventType() string { return TypeSerpedDownSupply }

func (e SerpedDownSupply) Event() *types.Event {
	return &types.Event{Type: TypeSerpedDownSupply, Attributes: map[string]string{
		"currency": currencyAttr(e.Currency),
		"amount":   formatAmount(e.Amount),
	}}
}
