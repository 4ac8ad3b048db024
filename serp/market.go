// Package serp implements the elastic supply stabilization loop: the
// settlement gate over supply-changing mint/burn operations and the periodic
// price-driven rebase engine feeding it.
package serp

import (
	"math/big"

	"serpledger/core/events"
	"serpledger/core/types"
)

// Settlement executes the mint/burn legs of a supply adjustment against the
// multi-currency backend.
type Settlement interface {
	ExpandSupply(nativeID, stableID types.CurrencyID, expandBy, payByQuoted *big.Int, serpers string) error
	ContractSupply(nativeID, stableID types.CurrencyID, contractBy, payByQuoted *big.Int, serpers string) error
}

// Market gates supply-changing operations by currency identity. Only the
// configured stabilization-native id may settle adjustments; everything else
// is a silent no-op. Settlement events fire only when supply actually moved.
type Market struct {
	serpNativeID types.CurrencyID
	settlement   Settlement
	events       events.Emitter
}

// NewMarket wires the settlement gate. A nil emitter discards events.
func NewMarket(serpNativeID types.CurrencyID, settlement Settlement, emitter events.Emitter) *Market {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	return &Market{serpNativeID: serpNativeID.Normalize(), settlement: settlement, events: emitter}
}

// ExpandSupply mints expandBy of stableID through the serpers account,
// settling payByQuoted of nativeID. No-op when expandBy is zero, when stable
// and native ids collide, or when nativeID is not the stabilization native.
func (m *Market) ExpandSupply(nativeID, stableID types.CurrencyID, expandBy, payByQuoted *big.Int, serpers string) error {
	expandBy = types.BigOrZero(expandBy)
	nativeID = nativeID.Normalize()
	stableID = stableID.Normalize()
	if expandBy.Sign() == 0 || stableID == nativeID {
		return nil
	}
	if nativeID != m.serpNativeID {
		return nil
	}
	if err := m.settlement.ExpandSupply(nativeID, stableID, expandBy, payByQuoted, serpers); err != nil {
		return err
	}
	m.events.Emit(events.SerpedUpSupply{Currency: stableID, Amount: expandBy})
	return nil
}

// ContractSupply is the mirror image: burns contractBy of stableID through
// the serpers account, settling payByQuoted of nativeID back to it.
func (m *Market) ContractSupply(nativeID, stableID types.CurrencyID, contractBy, payByQuoted *big.Int, serpers string) error {
	contractBy = types.BigOrZero(contractBy)
	nativeID = nativeID.Normalize()
	stableID = stableID.Normalize()
	if contractBy.Sign() == 0 || stableID == nativeID {
		return nil
	}
	if nativeID != m.serpNativeID {
		return nil
	}
	if err := m.settlement.ContractSupply(nativeID, stableID, contractBy, payByQuoted, serpers); err != nil {
		return err
	}
	m.events.Emit(events.SerpedDownSupply{Currency: stableID, Amount: contractBy})
	return nil
}
