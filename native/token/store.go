package token

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"serpledger/core/types"
	"serpledger/storage"
)

var (
	// ErrInsufficientBalance indicates a debit larger than the free balance.
	ErrInsufficientBalance = errors.New("token: balance too low")
	// ErrLiquidityRestrictions indicates active locks prevent the debit.
	ErrLiquidityRestrictions = errors.New("token: account liquidity restrictions prevent withdrawal")
	// ErrInsufficientReserved indicates a reserve debit larger than the reserved balance.
	ErrInsufficientReserved = errors.New("token: reserved balance too low")
	// ErrNegativeAmount indicates a negative amount reached an unsigned operation.
	ErrNegativeAmount = errors.New("token: negative amount")
)

type lockRecord struct {
	ID     string
	Amount *big.Int
}

type accountRecord struct {
	Free     *big.Int
	Reserved *big.Int
	Locks    []lockRecord
}

func newAccountRecord() *accountRecord {
	return &accountRecord{Free: big.NewInt(0), Reserved: big.NewInt(0)}
}

func (r *accountRecord) normalize() {
	if r.Free == nil {
		r.Free = big.NewInt(0)
	}
	if r.Reserved == nil {
		r.Reserved = big.NewInt(0)
	}
	for i := range r.Locks {
		if r.Locks[i].Amount == nil {
			r.Locks[i].Amount = big.NewInt(0)
		}
	}
}

// frozen returns the enforced hold: the maximum across active locks.
func (r *accountRecord) frozen() *big.Int {
	max := big.NewInt(0)
	for _, lock := range r.Locks {
		if lock.Amount != nil && lock.Amount.Cmp(max) > 0 {
			max = lock.Amount
		}
	}
	return new(big.Int).Set(max)
}

func (r *accountRecord) empty() bool {
	return r.Free.Sign() == 0 && r.Reserved.Sign() == 0 && len(r.Locks) == 0
}

// Store is a single-currency balance primitive: unsigned free/reserved
// balances, named locks, and total issuance, persisted as RLP records. It has
// no multi-currency or signed-delta awareness; the asset adapter supplies
// those on top.
type Store struct {
	db             storage.Database
	symbol         types.CurrencyID
	minimumBalance *big.Int
}

// NewStore binds a primitive for one currency to the underlying database.
func NewStore(db storage.Database, symbol types.CurrencyID, minimumBalance *big.Int) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("token: database required")
	}
	normalized := symbol.Normalize()
	if normalized == "" {
		return nil, fmt.Errorf("token: currency symbol required")
	}
	if minimumBalance != nil && minimumBalance.Sign() < 0 {
		return nil, fmt.Errorf("token: minimum balance must not be negative")
	}
	return &Store{db: db, symbol: normalized, minimumBalance: types.CloneBig(minimumBalance)}, nil
}

// Symbol returns the currency this store tracks.
func (s *Store) Symbol() types.CurrencyID { return s.symbol }

// MinimumBalance returns the existential deposit configured for the currency.
func (s *Store) MinimumBalance() *big.Int {
	return new(big.Int).Set(s.minimumBalance)
}

func (s *Store) accountKey(who string) []byte {
	return []byte("token/" + string(s.symbol) + "/account/" + who)
}

func (s *Store) supplyKey() []byte {
	return []byte("token/" + string(s.symbol) + "/supply")
}

func (s *Store) loadAccount(who string) (*accountRecord, error) {
	encoded, err := s.db.Get(s.accountKey(who))
	if errors.Is(err, storage.ErrNotFound) {
		return newAccountRecord(), nil
	}
	if err != nil {
		return nil, err
	}
	record := new(accountRecord)
	if err := rlp.DecodeBytes(encoded, record); err != nil {
		return nil, fmt.Errorf("token: decode account %s: %w", who, err)
	}
	record.normalize()
	return record, nil
}

func (s *Store) persistAccount(who string, record *accountRecord) error {
	return s.persistAccountTo(s.db, who, record)
}

func (s *Store) persistAccountTo(w storage.KeyValueWriter, who string, record *accountRecord) error {
	if record.empty() {
		return w.Delete(s.accountKey(who))
	}
	encoded, err := rlp.EncodeToBytes(record)
	if err != nil {
		return fmt.Errorf("token: encode account %s: %w", who, err)
	}
	return w.Put(s.accountKey(who), encoded)
}

// TotalIssuance returns the tracked supply of the currency.
func (s *Store) TotalIssuance() (*big.Int, error) {
	encoded, err := s.db.Get(s.supplyKey())
	if errors.Is(err, storage.ErrNotFound) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	supply := new(big.Int)
	if err := rlp.DecodeBytes(encoded, supply); err != nil {
		return nil, fmt.Errorf("token: decode supply: %w", err)
	}
	return supply, nil
}

func (s *Store) setIssuance(supply *big.Int) error {
	encoded, err := rlp.EncodeToBytes(supply)
	if err != nil {
		return fmt.Errorf("token: encode supply: %w", err)
	}
	return s.db.Put(s.supplyKey(), encoded)
}

// TotalBalance returns free plus reserved balance of the account.
func (s *Store) TotalBalance(who string) (*big.Int, error) {
	record, err := s.loadAccount(who)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Add(record.Free, record.Reserved), nil
}

// FreeBalance returns the spendable-before-locks balance of the account.
func (s *Store) FreeBalance(who string) (*big.Int, error) {
	record, err := s.loadAccount(who)
	if err != nil {
		return nil, err
	}
	return record.Free, nil
}

// ReservedBalance returns the reserved balance of the account.
func (s *Store) ReservedBalance(who string) (*big.Int, error) {
	record, err := s.loadAccount(who)
	if err != nil {
		return nil, err
	}
	return record.Reserved, nil
}

// EnsureCanWithdraw verifies the debit would not violate active locks. The
// free-balance sufficiency check itself belongs to the adapter above. Signed
// amounts never reach this layer; negative input is rejected outright.
func (s *Store) EnsureCanWithdraw(who string, amount *big.Int) error {
	amount = types.BigOrZero(amount)
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	record, err := s.loadAccount(who)
	if err != nil {
		return err
	}
	newFree := new(big.Int).Sub(record.Free, amount)
	if newFree.Sign() < 0 {
		return ErrInsufficientBalance
	}
	if newFree.Cmp(record.frozen()) < 0 {
		return ErrLiquidityRestrictions
	}
	return nil
}

// Transfer moves amount between two accounts. Issuance is unchanged.
func (s *Store) Transfer(from, to string, amount *big.Int) error {
	amount = types.BigOrZero(amount)
	if amount.Sign() == 0 || from == to {
		return nil
	}
	if err := s.EnsureCanWithdraw(from, amount); err != nil {
		return err
	}
	source, err := s.loadAccount(from)
	if err != nil {
		return err
	}
	dest, err := s.loadAccount(to)
	if err != nil {
		return err
	}
	source.Free = new(big.Int).Sub(source.Free, amount)
	newDestFree, err := types.CheckedAdd(dest.Free, amount)
	if err != nil {
		return err
	}
	dest.Free = newDestFree
	if err := s.persistAccount(from, source); err != nil {
		return err
	}
	return s.persistAccount(to, dest)
}

// Deposit credits the account unconditionally, creating it if needed, and
// grows total issuance.
func (s *Store) Deposit(who string, amount *big.Int) error {
	amount = types.BigOrZero(amount)
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	supply, err := s.TotalIssuance()
	if err != nil {
		return err
	}
	newSupply, err := types.CheckedAdd(supply, amount)
	if err != nil {
		return err
	}
	record, err := s.loadAccount(who)
	if err != nil {
		return err
	}
	newFree, err := types.CheckedAdd(record.Free, amount)
	if err != nil {
		return err
	}
	record.Free = newFree
	if err := s.persistAccount(who, record); err != nil {
		return err
	}
	return s.setIssuance(newSupply)
}

// Withdraw debits the account, shrinking total issuance. Draining the account
// to zero is permitted.
func (s *Store) Withdraw(who string, amount *big.Int) error {
	amount = types.BigOrZero(amount)
	if amount.Sign() == 0 {
		return nil
	}
	if err := s.EnsureCanWithdraw(who, amount); err != nil {
		return err
	}
	record, err := s.loadAccount(who)
	if err != nil {
		return err
	}
	record.Free = new(big.Int).Sub(record.Free, amount)
	supply, err := s.TotalIssuance()
	if err != nil {
		return err
	}
	newSupply, err := types.CheckedSub(supply, amount)
	if err != nil {
		return err
	}
	if err := s.persistAccount(who, record); err != nil {
		return err
	}
	return s.setIssuance(newSupply)
}

// CanSlash reports whether the free balance covers the full amount.
func (s *Store) CanSlash(who string, amount *big.Int) (bool, error) {
	if types.BigOrZero(amount).Sign() < 0 {
		return false, ErrNegativeAmount
	}
	record, err := s.loadAccount(who)
	if err != nil {
		return false, err
	}
	return record.Free.Cmp(types.BigOrZero(amount)) >= 0, nil
}

// Slash debits up to amount, free balance first and then reserved, reducing
// issuance by what was taken. It returns the uncovered gap and never fails on
// insufficient funds.
func (s *Store) Slash(who string, amount *big.Int) (*big.Int, error) {
	amount = types.BigOrZero(amount)
	if amount.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	if amount.Sign() == 0 {
		return big.NewInt(0), nil
	}
	record, err := s.loadAccount(who)
	if err != nil {
		return nil, err
	}
	fromFree := types.MinBig(amount, record.Free)
	remaining := new(big.Int).Sub(amount, fromFree)
	fromReserved := types.MinBig(remaining, record.Reserved)
	gap := new(big.Int).Sub(remaining, fromReserved)

	taken := new(big.Int).Add(fromFree, fromReserved)
	if taken.Sign() == 0 {
		return gap, nil
	}
	record.Free = new(big.Int).Sub(record.Free, fromFree)
	record.Reserved = new(big.Int).Sub(record.Reserved, fromReserved)
	supply, err := s.TotalIssuance()
	if err != nil {
		return nil, err
	}
	newSupply, err := types.CheckedSub(supply, taken)
	if err != nil {
		return nil, err
	}
	if err := s.persistAccount(who, record); err != nil {
		return nil, err
	}
	if err := s.setIssuance(newSupply); err != nil {
		return nil, err
	}
	return gap, nil
}

// SetLock creates or replaces the named lock. A zero amount removes it.
func (s *Store) SetLock(id types.LockID, who string, amount *big.Int) error {
	amount = types.BigOrZero(amount)
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	if amount.Sign() == 0 {
		return s.RemoveLock(id, who)
	}
	record, err := s.loadAccount(who)
	if err != nil {
		return err
	}
	for i := range record.Locks {
		if record.Locks[i].ID == string(id) {
			record.Locks[i].Amount = new(big.Int).Set(amount)
			return s.persistAccount(who, record)
		}
	}
	record.Locks = append(record.Locks, lockRecord{ID: string(id), Amount: new(big.Int).Set(amount)})
	return s.persistAccount(who, record)
}

// ExtendLock grows the named lock to at least amount. The hold can only grow
// through this operation; a smaller amount leaves the lock unchanged.
func (s *Store) ExtendLock(id types.LockID, who string, amount *big.Int) error {
	amount = types.BigOrZero(amount)
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	record, err := s.loadAccount(who)
	if err != nil {
		return err
	}
	for i := range record.Locks {
		if record.Locks[i].ID == string(id) {
			if record.Locks[i].Amount.Cmp(amount) < 0 {
				record.Locks[i].Amount = new(big.Int).Set(amount)
				return s.persistAccount(who, record)
			}
			return nil
		}
	}
	record.Locks = append(record.Locks, lockRecord{ID: string(id), Amount: new(big.Int).Set(amount)})
	return s.persistAccount(who, record)
}

// ClearLocks drops every lock on the account.
func (s *Store) ClearLocks(who string) error {
	record, err := s.loadAccount(who)
	if err != nil {
		return err
	}
	if len(record.Locks) == 0 {
		return nil
	}
	record.Locks = nil
	return s.persistAccount(who, record)
}

// RemoveLock drops the named lock if present.
func (s *Store) RemoveLock(id types.LockID, who string) error {
	record, err := s.loadAccount(who)
	if err != nil {
		return err
	}
	for i := range record.Locks {
		if record.Locks[i].ID == string(id) {
			record.Locks = append(record.Locks[:i], record.Locks[i+1:]...)
			return s.persistAccount(who, record)
		}
	}
	return nil
}

// CanReserve reports whether amount can move from free to reserved without
// violating locks.
func (s *Store) CanReserve(who string, amount *big.Int) (bool, error) {
	if err := s.EnsureCanWithdraw(who, amount); err != nil {
		if errors.Is(err, ErrInsufficientBalance) || errors.Is(err, ErrLiquidityRestrictions) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Reserve moves amount from free to reserved balance. Issuance is unchanged.
func (s *Store) Reserve(who string, amount *big.Int) error {
	amount = types.BigOrZero(amount)
	if amount.Sign() == 0 {
		return nil
	}
	if err := s.EnsureCanWithdraw(who, amount); err != nil {
		return err
	}
	record, err := s.loadAccount(who)
	if err != nil {
		return err
	}
	record.Free = new(big.Int).Sub(record.Free, amount)
	record.Reserved = new(big.Int).Add(record.Reserved, amount)
	return s.persistAccount(who, record)
}

// Unreserve moves up to amount back into free balance and returns the
// remainder that was not reserved in the first place.
func (s *Store) Unreserve(who string, amount *big.Int) (*big.Int, error) {
	amount = types.BigOrZero(amount)
	if amount.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	if amount.Sign() == 0 {
		return big.NewInt(0), nil
	}
	record, err := s.loadAccount(who)
	if err != nil {
		return nil, err
	}
	moved := types.MinBig(amount, record.Reserved)
	remainder := new(big.Int).Sub(amount, moved)
	if moved.Sign() == 0 {
		return remainder, nil
	}
	record.Reserved = new(big.Int).Sub(record.Reserved, moved)
	record.Free = new(big.Int).Add(record.Free, moved)
	if err := s.persistAccount(who, record); err != nil {
		return nil, err
	}
	return remainder, nil
}

// SlashReserved debits up to amount from the reserved balance, reducing
// issuance by what was taken, and returns the uncovered gap.
func (s *Store) SlashReserved(who string, amount *big.Int) (*big.Int, error) {
	amount = types.BigOrZero(amount)
	if amount.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	if amount.Sign() == 0 {
		return big.NewInt(0), nil
	}
	record, err := s.loadAccount(who)
	if err != nil {
		return nil, err
	}
	taken := types.MinBig(amount, record.Reserved)
	gap := new(big.Int).Sub(amount, taken)
	if taken.Sign() == 0 {
		return gap, nil
	}
	record.Reserved = new(big.Int).Sub(record.Reserved, taken)
	supply, err := s.TotalIssuance()
	if err != nil {
		return nil, err
	}
	newSupply, err := types.CheckedSub(supply, taken)
	if err != nil {
		return nil, err
	}
	if err := s.persistAccount(who, record); err != nil {
		return nil, err
	}
	if err := s.setIssuance(newSupply); err != nil {
		return nil, err
	}
	return gap, nil
}

// RepatriateReserved moves up to amount from the slashed account's reserved
// balance to the beneficiary's free or reserved balance and returns the
// shortfall that could not be moved.
func (s *Store) RepatriateReserved(slashed, beneficiary string, amount *big.Int, status types.BalanceStatus) (*big.Int, error) {
	amount = types.BigOrZero(amount)
	if amount.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	if amount.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if slashed == beneficiary {
		if status == types.StatusReserved {
			record, err := s.loadAccount(slashed)
			if err != nil {
				return nil, err
			}
			shortfall, err := types.CheckedSub(amount, types.MinBig(amount, record.Reserved))
			if err != nil {
				return nil, err
			}
			return shortfall, nil
		}
		return s.Unreserve(slashed, amount)
	}
	source, err := s.loadAccount(slashed)
	if err != nil {
		return nil, err
	}
	dest, err := s.loadAccount(beneficiary)
	if err != nil {
		return nil, err
	}
	moved := types.MinBig(amount, source.Reserved)
	shortfall := new(big.Int).Sub(amount, moved)
	if moved.Sign() == 0 {
		return shortfall, nil
	}
	source.Reserved = new(big.Int).Sub(source.Reserved, moved)
	if status == types.StatusReserved {
		newReserved, err := types.CheckedAdd(dest.Reserved, moved)
		if err != nil {
			return nil, err
		}
		dest.Reserved = newReserved
	} else {
		newFree, err := types.CheckedAdd(dest.Free, moved)
		if err != nil {
			return nil, err
		}
		dest.Free = newFree
	}
	if err := s.persistAccount(slashed, source); err != nil {
		return nil, err
	}
	if err := s.persistAccount(beneficiary, dest); err != nil {
		return nil, err
	}
	return shortfall, nil
}
