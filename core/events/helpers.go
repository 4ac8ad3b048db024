package events

import (
	"math/big"

	"serpledger/core/types"
)

func formatAmount(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}

func currencyAttr(currency types.CurrencyID) string {
	return currency.Normalize().String()
}
