package token

import (
	"math/big"

	"serpledger/core/types"
	"serpledger/storage"
)

// CanMerge reports whether the account's entire holding could move to another
// account. A balance-bearing account with an active lock hold cannot be
// drained.
func (s *Store) CanMerge(who string) error {
	record, err := s.loadAccount(who)
	if err != nil {
		return err
	}
	total := new(big.Int).Add(record.Free, record.Reserved)
	if total.Sign() > 0 && record.frozen().Sign() > 0 {
		return ErrLiquidityRestrictions
	}
	return nil
}

// MergeAccount moves the account's free and reserved balance into dest and
// removes the source record, locks included. Issuance is unchanged.
func (s *Store) MergeAccount(source, dest string) error {
	return s.MergeAccountTo(s.db, source, dest)
}

// MergeAccountTo stages the merge mutations on the writer instead of applying
// them directly. Callers consolidating several currencies stage them all on
// one batch so the whole merge lands atomically.
func (s *Store) MergeAccountTo(w storage.KeyValueWriter, source, dest string) error {
	if source == dest {
		return nil
	}
	if err := s.CanMerge(source); err != nil {
		return err
	}
	sourceRecord, err := s.loadAccount(source)
	if err != nil {
		return err
	}
	if sourceRecord.empty() {
		return nil
	}
	total := new(big.Int).Add(sourceRecord.Free, sourceRecord.Reserved)
	destRecord, err := s.loadAccount(dest)
	if err != nil {
		return err
	}
	newFree, err := types.CheckedAdd(destRecord.Free, total)
	if err != nil {
		return err
	}
	destRecord.Free = newFree
	sourceRecord.Free = big.NewInt(0)
	sourceRecord.Reserved = big.NewInt(0)
	sourceRecord.Locks = nil
	if err := s.persistAccountTo(w, dest, destRecord); err != nil {
		return err
	}
	return s.persistAccountTo(w, source, sourceRecord)
}
