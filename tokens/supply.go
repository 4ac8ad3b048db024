package tokens

import (
	"math/big"

	"serpledger/core/types"
	"serpledger/native/token"
)

// ExpandSupply mints expandBy of the stable currency to the serpers account,
// settling payByQuoted of the settlement-native currency out of it. The
// stable currency's issuance grows by exactly expandBy.
func (s *Store) ExpandSupply(nativeID, stableID types.CurrencyID, expandBy, payByQuoted *big.Int, serpers string) error {
	expandBy = types.BigOrZero(expandBy)
	if expandBy.Sign() < 0 || types.BigOrZero(payByQuoted).Sign() < 0 {
		return token.ErrNegativeAmount
	}
	if expandBy.Sign() == 0 {
		return nil
	}
	stable, err := s.entry(stableID)
	if err != nil {
		return err
	}
	native, err := s.entry(nativeID)
	if err != nil {
		return err
	}
	// Validate the mint before touching the settlement leg so a failure
	// leaves no partial state.
	supply, err := stable.store.TotalIssuance()
	if err != nil {
		return err
	}
	if _, err := types.CheckedAdd(supply, expandBy); err != nil {
		return err
	}
	if err := native.store.Withdraw(serpers, types.BigOrZero(payByQuoted)); err != nil {
		return err
	}
	return stable.store.Deposit(serpers, expandBy)
}

// ContractSupply burns contractBy of the stable currency from the serpers
// account, minting payByQuoted of the settlement-native currency back to it.
func (s *Store) ContractSupply(nativeID, stableID types.CurrencyID, contractBy, payByQuoted *big.Int, serpers string) error {
	contractBy = types.BigOrZero(contractBy)
	if contractBy.Sign() < 0 || types.BigOrZero(payByQuoted).Sign() < 0 {
		return token.ErrNegativeAmount
	}
	if contractBy.Sign() == 0 {
		return nil
	}
	stable, err := s.entry(stableID)
	if err != nil {
		return err
	}
	native, err := s.entry(nativeID)
	if err != nil {
		return err
	}
	nativeSupply, err := native.store.TotalIssuance()
	if err != nil {
		return err
	}
	if _, err := types.CheckedAdd(nativeSupply, types.BigOrZero(payByQuoted)); err != nil {
		return err
	}
	if err := stable.store.Withdraw(serpers, contractBy); err != nil {
		return err
	}
	return native.store.Deposit(serpers, types.BigOrZero(payByQuoted))
}

// MergeAccount consolidates source's holdings into dest for every registered
// currency. All currencies are validated before any balance moves, and the
// mutations are staged on one write batch, so neither a precondition failure
// nor an I/O failure can leave a partially merged backend.
func (s *Store) MergeAccount(source, dest string) error {
	if source == dest {
		return nil
	}
	for _, symbol := range s.symbols {
		if err := s.currencies[symbol].store.CanMerge(source); err != nil {
			return err
		}
	}
	batch := s.db.NewBatch()
	for _, symbol := range s.symbols {
		if err := s.currencies[symbol].store.MergeAccountTo(batch, source, dest); err != nil {
			return err
		}
	}
	return batch.Write()
}
