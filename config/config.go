// Package config loads the daemon configuration from TOML, creating a default
// file on first run.
package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// CurrencyConfig registers one currency in the ledger.
type CurrencyConfig struct {
	Symbol         string `toml:"Symbol"`
	BaseUnit       int64  `toml:"BaseUnit"`
	MinimumBalance int64  `toml:"MinimumBalance"`
	// Monitored currencies are rebased by the stabilization engine.
	Monitored bool `toml:"Monitored"`
}

// GenesisBalance seeds an account at startup.
type GenesisBalance struct {
	Currency string `toml:"Currency"`
	Account  string `toml:"Account"`
	Amount   int64  `toml:"Amount"`
}

type Config struct {
	ListenAddress       string `toml:"ListenAddress"`
	DataDir             string `toml:"DataDir"`
	LogFile             string `toml:"LogFile"`
	Environment         string `toml:"Environment"`
	NativeCurrency      string `toml:"NativeCurrency"`
	SerpNativeCurrency  string `toml:"SerpNativeCurrency"`
	SerpersAccount      string `toml:"SerpersAccount"`
	AdjustmentFrequency uint64 `toml:"AdjustmentFrequency"`
	// BlockIntervalSeconds is the tick cadence of the daemon loop.
	BlockIntervalSeconds int              `toml:"BlockIntervalSeconds"`
	OracleURL            string           `toml:"OracleURL"`
	Currencies           []CurrencyConfig `toml:"Currencies"`
	GenesisBalances      []GenesisBalance `toml:"GenesisBalances"`
}

// Load loads the configuration from the given path.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration, naming the offending field.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("config: ListenAddress must not be empty")
	}
	if strings.TrimSpace(c.NativeCurrency) == "" {
		return fmt.Errorf("config: NativeCurrency must not be empty")
	}
	if strings.TrimSpace(c.SerpNativeCurrency) == "" {
		return fmt.Errorf("config: SerpNativeCurrency must not be empty")
	}
	if strings.TrimSpace(c.SerpersAccount) == "" {
		return fmt.Errorf("config: SerpersAccount must not be empty")
	}
	if c.AdjustmentFrequency == 0 {
		return fmt.Errorf("config: AdjustmentFrequency must be positive")
	}
	if c.BlockIntervalSeconds <= 0 {
		return fmt.Errorf("config: BlockIntervalSeconds must be positive")
	}
	if len(c.Currencies) == 0 {
		return fmt.Errorf("config: at least one Currencies block is required")
	}
	seen := make(map[string]bool, len(c.Currencies))
	native := strings.ToUpper(strings.TrimSpace(c.NativeCurrency))
	var monitored int
	for i, currency := range c.Currencies {
		symbol := strings.ToUpper(strings.TrimSpace(currency.Symbol))
		if symbol == "" {
			return fmt.Errorf("config: Currencies[%d].Symbol must not be empty", i)
		}
		if seen[symbol] {
			return fmt.Errorf("config: duplicate currency %s", symbol)
		}
		seen[symbol] = true
		if currency.BaseUnit <= 0 {
			return fmt.Errorf("config: Currencies[%d].BaseUnit must be positive", i)
		}
		if currency.MinimumBalance < 0 {
			return fmt.Errorf("config: Currencies[%d].MinimumBalance must not be negative", i)
		}
		if currency.Monitored {
			if symbol == native {
				return fmt.Errorf("config: native currency %s cannot be monitored", symbol)
			}
			monitored++
		}
	}
	if !seen[native] {
		return fmt.Errorf("config: NativeCurrency %s missing from Currencies", native)
	}
	if monitored == 0 {
		return fmt.Errorf("config: at least one monitored currency is required")
	}
	for i, balance := range c.GenesisBalances {
		symbol := strings.ToUpper(strings.TrimSpace(balance.Currency))
		if !seen[symbol] {
			return fmt.Errorf("config: GenesisBalances[%d] references unknown currency %s", i, symbol)
		}
		if strings.TrimSpace(balance.Account) == "" {
			return fmt.Errorf("config: GenesisBalances[%d].Account must not be empty", i)
		}
		if balance.Amount < 0 {
			return fmt.Errorf("config: GenesisBalances[%d].Amount must not be negative", i)
		}
	}
	return nil
}

// Monitored lists the currencies the stabilization engine rebases.
func (c *Config) Monitored() []string {
	var out []string
	for _, currency := range c.Currencies {
		if currency.Monitored {
			out = append(out, strings.ToUpper(strings.TrimSpace(currency.Symbol)))
		}
	}
	return out
}

// BaseUnitOf returns the configured base unit of the symbol, nil if unknown.
func (c *Config) BaseUnitOf(symbol string) *big.Int {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	for _, currency := range c.Currencies {
		if strings.ToUpper(strings.TrimSpace(currency.Symbol)) == symbol {
			return big.NewInt(currency.BaseUnit)
		}
	}
	return nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		ListenAddress:        ":8080",
		DataDir:              "./serp-data",
		Environment:          "local",
		NativeCurrency:       "DNAR",
		SerpNativeCurrency:   "DNAR",
		SerpersAccount:       "serpers",
		AdjustmentFrequency:  10,
		BlockIntervalSeconds: 6,
		Currencies: []CurrencyConfig{
			{Symbol: "DNAR", BaseUnit: 100, MinimumBalance: 1},
			{Symbol: "SETT", BaseUnit: 100, MinimumBalance: 1, Monitored: true},
			{Symbol: "JUSD", BaseUnit: 100, MinimumBalance: 1, Monitored: true},
		},
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
