// Package tokens implements the generic multi-currency backend: the full
// balance/lock/reserve primitive set keyed by currency, mint/burn settlement
// for supply stabilization, and atomic account consolidation.
package tokens

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/holiman/uint256"

	"serpledger/core/types"
	"serpledger/native/token"
	"serpledger/storage"
)

var (
	// ErrUnknownCurrency indicates an operation on an unregistered currency id.
	ErrUnknownCurrency = errors.New("tokens: unknown currency")
	// ErrAmountIntoBalanceFailed indicates a signed delta whose magnitude does
	// not fit the balance domain.
	ErrAmountIntoBalanceFailed = errors.New("tokens: amount does not fit into balance")
)

// CurrencyConfig registers one currency with the backend.
type CurrencyConfig struct {
	Symbol         types.CurrencyID
	BaseUnit       *big.Int
	MinimumBalance *big.Int
}

type currencyEntry struct {
	store    *token.Store
	baseUnit *big.Int
}

// Store tracks an arbitrary set of non-native currencies, each backed by its
// own single-currency store sharing one database.
type Store struct {
	db         storage.Database
	currencies map[types.CurrencyID]*currencyEntry
	symbols    []types.CurrencyID
}

// NewStore registers the configured currencies against the database.
func NewStore(db storage.Database, configs []CurrencyConfig) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("tokens: database required")
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("tokens: at least one currency must be configured")
	}
	currencies := make(map[types.CurrencyID]*currencyEntry, len(configs))
	symbols := make([]types.CurrencyID, 0, len(configs))
	for _, cfg := range configs {
		symbol := cfg.Symbol.Normalize()
		if _, exists := currencies[symbol]; exists {
			return nil, fmt.Errorf("tokens: duplicate currency %s", symbol)
		}
		if cfg.BaseUnit != nil && cfg.BaseUnit.Sign() < 0 {
			return nil, fmt.Errorf("tokens: base unit of %s must not be negative", symbol)
		}
		sub, err := token.NewStore(db, symbol, cfg.MinimumBalance)
		if err != nil {
			return nil, err
		}
		currencies[symbol] = &currencyEntry{store: sub, baseUnit: types.CloneBig(cfg.BaseUnit)}
		symbols = append(symbols, symbol)
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i] < symbols[j] })
	return &Store{db: db, currencies: currencies, symbols: symbols}, nil
}

// Currencies lists the registered currency ids in sorted order.
func (s *Store) Currencies() []types.CurrencyID {
	return append([]types.CurrencyID(nil), s.symbols...)
}

func (s *Store) entry(currency types.CurrencyID) (*currencyEntry, error) {
	entry, ok := s.currencies[currency.Normalize()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCurrency, currency.Normalize())
	}
	return entry, nil
}

// BaseUnit returns the configured peg reference of the currency.
func (s *Store) BaseUnit(currency types.CurrencyID) (*big.Int, error) {
	entry, err := s.entry(currency)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(entry.baseUnit), nil
}

func (s *Store) MinimumBalance(currency types.CurrencyID) (*big.Int, error) {
	entry, err := s.entry(currency)
	if err != nil {
		return nil, err
	}
	return entry.store.MinimumBalance(), nil
}

func (s *Store) TotalIssuance(currency types.CurrencyID) (*big.Int, error) {
	entry, err := s.entry(currency)
	if err != nil {
		return nil, err
	}
	return entry.store.TotalIssuance()
}

func (s *Store) TotalBalance(currency types.CurrencyID, who string) (*big.Int, error) {
	entry, err := s.entry(currency)
	if err != nil {
		return nil, err
	}
	return entry.store.TotalBalance(who)
}

func (s *Store) FreeBalance(currency types.CurrencyID, who string) (*big.Int, error) {
	entry, err := s.entry(currency)
	if err != nil {
		return nil, err
	}
	return entry.store.FreeBalance(who)
}

func (s *Store) EnsureCanWithdraw(currency types.CurrencyID, who string, amount *big.Int) error {
	entry, err := s.entry(currency)
	if err != nil {
		return err
	}
	return entry.store.EnsureCanWithdraw(who, amount)
}

func (s *Store) Transfer(currency types.CurrencyID, from, to string, amount *big.Int) error {
	entry, err := s.entry(currency)
	if err != nil {
		return err
	}
	return entry.store.Transfer(from, to, amount)
}

func (s *Store) Deposit(currency types.CurrencyID, who string, amount *big.Int) error {
	entry, err := s.entry(currency)
	if err != nil {
		return err
	}
	return entry.store.Deposit(who, amount)
}

func (s *Store) Withdraw(currency types.CurrencyID, who string, amount *big.Int) error {
	entry, err := s.entry(currency)
	if err != nil {
		return err
	}
	return entry.store.Withdraw(who, amount)
}

func (s *Store) CanSlash(currency types.CurrencyID, who string, amount *big.Int) (bool, error) {
	entry, err := s.entry(currency)
	if err != nil {
		return false, err
	}
	return entry.store.CanSlash(who, amount)
}

func (s *Store) Slash(currency types.CurrencyID, who string, amount *big.Int) (*big.Int, error) {
	entry, err := s.entry(currency)
	if err != nil {
		return nil, err
	}
	return entry.store.Slash(who, amount)
}

// UpdateBalance applies a signed delta through magnitude conversion.
func (s *Store) UpdateBalance(currency types.CurrencyID, who string, amount *big.Int) error {
	entry, err := s.entry(currency)
	if err != nil {
		return err
	}
	magnitude := new(big.Int).Abs(types.BigOrZero(amount))
	if _, overflow := uint256.FromBig(magnitude); overflow {
		return ErrAmountIntoBalanceFailed
	}
	if amount != nil && amount.Sign() > 0 {
		return entry.store.Deposit(who, magnitude)
	}
	return entry.store.Withdraw(who, magnitude)
}

func (s *Store) SetLock(id types.LockID, currency types.CurrencyID, who string, amount *big.Int) error {
	entry, err := s.entry(currency)
	if err != nil {
		return err
	}
	return entry.store.SetLock(id, who, amount)
}

func (s *Store) ExtendLock(id types.LockID, currency types.CurrencyID, who string, amount *big.Int) error {
	entry, err := s.entry(currency)
	if err != nil {
		return err
	}
	return entry.store.ExtendLock(id, who, amount)
}

func (s *Store) RemoveLock(id types.LockID, currency types.CurrencyID, who string) error {
	entry, err := s.entry(currency)
	if err != nil {
		return err
	}
	return entry.store.RemoveLock(id, who)
}

func (s *Store) CanReserve(currency types.CurrencyID, who string, amount *big.Int) (bool, error) {
	entry, err := s.entry(currency)
	if err != nil {
		return false, err
	}
	return entry.store.CanReserve(who, amount)
}

func (s *Store) Reserve(currency types.CurrencyID, who string, amount *big.Int) error {
	entry, err := s.entry(currency)
	if err != nil {
		return err
	}
	return entry.store.Reserve(who, amount)
}

func (s *Store) Unreserve(currency types.CurrencyID, who string, amount *big.Int) (*big.Int, error) {
	entry, err := s.entry(currency)
	if err != nil {
		return nil, err
	}
	return entry.store.Unreserve(who, amount)
}

func (s *Store) SlashReserved(currency types.CurrencyID, who string, amount *big.Int) (*big.Int, error) {
	entry, err := s.entry(currency)
	if err != nil {
		return nil, err
	}
	return entry.store.SlashReserved(who, amount)
}

func (s *Store) ReservedBalance(currency types.CurrencyID, who string) (*big.Int, error) {
	entry, err := s.entry(currency)
	if err != nil {
		return nil, err
	}
	return entry.store.ReservedBalance(who)
}

func (s *Store) RepatriateReserved(currency types.CurrencyID, slashed, beneficiary string, amount *big.Int, status types.BalanceStatus) (*big.Int, error) {
	entry, err := s.entry(currency)
	if err != nil {
		return nil, err
	}
	return entry.store.RepatriateReserved(slashed, beneficiary, amount, status)
}
