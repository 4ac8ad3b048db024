package serp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"serpledger/core/types"
	"serpledger/observability"
)

// ErrZeroPrice indicates the oracle produced an invalid zero quote.
var ErrZeroPrice = errors.New("serp: zero price quote")

// SupplyView reads the ledger state the engine rebases against.
type SupplyView interface {
	BaseUnit(currency types.CurrencyID) (*big.Int, error)
	TotalIssuance(currency types.CurrencyID) (*big.Int, error)
}

// SupplyChange returns the signed supply delta that scales supply by the
// price to base-unit ratio: floor(price*supply/baseUnit) - supply. The
// multiply happens in arbitrary precision, so no intermediate overflow is
// possible; the division truncates toward zero.
func SupplyChange(price, supply, baseUnit *big.Int) (*big.Int, error) {
	price = types.BigOrZero(price)
	supply = types.BigOrZero(supply)
	baseUnit = types.BigOrZero(baseUnit)
	if baseUnit.Sign() == 0 {
		return nil, fmt.Errorf("serp: zero base unit")
	}
	scaled := new(big.Int).Mul(price, supply)
	scaled.Quo(scaled, baseUnit)
	return scaled.Sub(scaled, supply), nil
}

// Lane is one monitored currency the engine rebases.
type Lane struct {
	Currency types.CurrencyID
}

// Engine is the stateless per-tick control loop. Each tick passing the
// frequency gate evaluates every lane independently; one lane's failure never
// blocks another.
type Engine struct {
	nativeID  types.CurrencyID
	serpers   string
	frequency uint64
	lanes     []Lane
	oracle    PriceOracle
	view      SupplyView
	market    *Market
	logger    *slog.Logger
	metrics   *observability.SerpMetrics
	tracer    trace.Tracer
}

// NewEngine wires the engine. Frequency must be positive; a nil logger falls
// back to the default.
func NewEngine(nativeID types.CurrencyID, serpers string, frequency uint64, lanes []Lane, oracle PriceOracle, view SupplyView, market *Market, logger *slog.Logger) (*Engine, error) {
	if frequency == 0 {
		return nil, fmt.Errorf("serp: adjustment frequency must be positive")
	}
	if len(lanes) == 0 {
		return nil, fmt.Errorf("serp: at least one lane must be monitored")
	}
	if oracle == nil || view == nil || market == nil {
		return nil, fmt.Errorf("serp: oracle, view, and market are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	normalized := make([]Lane, len(lanes))
	for i, lane := range lanes {
		normalized[i] = Lane{Currency: lane.Currency.Normalize()}
	}
	return &Engine{
		nativeID:  nativeID.Normalize(),
		serpers:   serpers,
		frequency: frequency,
		lanes:     normalized,
		oracle:    oracle,
		view:      view,
		market:    market,
		logger:    logger,
		metrics:   observability.Metrics(),
		tracer:    otel.Tracer("serpledger/serp"),
	}, nil
}

// OnTick evaluates every monitored lane for the given tick. Ticks outside the
// adjustment frequency are gated out. Lane failures are logged and counted
// but never abort the remaining lanes.
func (e *Engine) OnTick(ctx context.Context, tick uint64) {
	ctx, span := e.tracer.Start(ctx, "serp.tick", trace.WithAttributes(
		attribute.Int64("tick", int64(tick)),
	))
	defer span.End()

	if tick%e.frequency != 0 {
		e.metrics.TickSkips.Inc()
		return
	}
	for _, lane := range e.lanes {
		if err := e.adjustLane(ctx, tick, lane); err != nil {
			e.metrics.AdjustmentErrors.WithLabelValues(string(lane.Currency)).Inc()
			e.logger.Error("lane adjustment failed",
				slog.String("currency", string(lane.Currency)),
				slog.Uint64("tick", tick),
				slog.String("error", err.Error()))
		}
	}
}

// SerpElast performs one price-driven adjustment for the currency: expand
// when price trades above the base unit, contract when below, nothing at peg.
func (e *Engine) SerpElast(ctx context.Context, currency types.CurrencyID, price *big.Int) error {
	currency = currency.Normalize()
	price = types.BigOrZero(price)
	if price.Sign() == 0 {
		return fmt.Errorf("%w: %s", ErrZeroPrice, currency)
	}
	baseUnit, err := e.view.BaseUnit(currency)
	if err != nil {
		return err
	}
	supply, err := e.view.TotalIssuance(currency)
	if err != nil {
		return err
	}
	change, err := SupplyChange(price, supply, baseUnit)
	if err != nil {
		return err
	}
	switch price.Cmp(baseUnit) {
	case 1:
		payByQuoted := quoted(change, price, baseUnit)
		if err := e.market.ExpandSupply(e.nativeID, currency, change, payByQuoted, e.serpers); err != nil {
			return err
		}
		e.recordRebase(currency, "expand", change)
	case -1:
		contractBy := new(big.Int).Neg(change)
		payByQuoted := quoted(contractBy, price, baseUnit)
		if err := e.market.ContractSupply(e.nativeID, currency, contractBy, payByQuoted, e.serpers); err != nil {
			return err
		}
		e.recordRebase(currency, "contract", change)
	}
	return nil
}

func (e *Engine) adjustLane(ctx context.Context, tick uint64, lane Lane) error {
	ctx, span := e.tracer.Start(ctx, "serp.adjust_lane", trace.WithAttributes(
		attribute.String("currency", string(lane.Currency)),
	))
	defer span.End()

	price, err := e.oracle.Price(ctx, lane.Currency)
	if err != nil {
		return err
	}
	return e.SerpElast(ctx, lane.Currency, price)
}

func (e *Engine) recordRebase(currency types.CurrencyID, direction string, change *big.Int) {
	if change.Sign() == 0 {
		return
	}
	e.metrics.Rebases.WithLabelValues(string(currency), direction).Inc()
	changeF, _ := new(big.Float).SetInt(change).Float64()
	e.metrics.LastSupplyChange.WithLabelValues(string(currency)).Set(changeF)
	e.logger.Info("supply rebased",
		slog.String("currency", string(currency)),
		slog.String("direction", direction),
		slog.String("change", change.String()))
}

// quoted settles changeBy at the quoted price: floor(changeBy*price/baseUnit).
func quoted(changeBy, price, baseUnit *big.Int) *big.Int {
	scaled := new(big.Int).Mul(changeBy, price)
	return scaled.Quo(scaled, baseUnit)
}
