package ledger

import (
	"fmt"
	"math/big"
)

// MergeAccount consolidates every holding of source into dest: the backend
// currencies first, then the native asset with its reserve folded back into
// free balance. The native precondition is checked before any backend balance
// moves so a locked native holding rejects the whole merge.
func (d *Dispatch) MergeAccount(source, dest string) error {
	if source == dest {
		return nil
	}
	if err := d.native.CanMerge(source); err != nil {
		return fmt.Errorf("ledger: merge %s: %w", source, err)
	}
	free, err := d.native.FreeBalance(source)
	if err != nil {
		return err
	}
	if err := d.backend.MergeAccount(source, dest); err != nil {
		return err
	}
	reserved, err := d.native.ReservedBalance(source)
	if err != nil {
		return err
	}
	if reserved.Sign() > 0 {
		if _, err := d.native.Unreserve(source, reserved); err != nil {
			return err
		}
	}
	// Dormant locks on a drained source would otherwise outlive the account.
	if err := d.native.ClearLocks(source); err != nil {
		return err
	}
	total := new(big.Int).Add(free, reserved)
	if total.Sign() == 0 {
		return nil
	}
	return d.TransferNative(source, dest, total)
}
