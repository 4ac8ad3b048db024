package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"serpledger/config"
	"serpledger/core/events"
	"serpledger/core/types"
	"serpledger/ledger"
	"serpledger/native/asset"
	"serpledger/native/token"
	"serpledger/observability"
	"serpledger/observability/logging"
	"serpledger/serp"
	"serpledger/storage"
	"serpledger/tokens"
)

var genesisMarker = []byte("genesis/seeded")

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	memdb := flag.Bool("memdb", false, "Run against an in-memory database (state is lost on exit)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger := logging.Setup("serpd", cfg.Environment, cfg.LogFile)

	var db storage.Database
	if *memdb {
		db = storage.NewMemDB()
	} else {
		ldb, err := storage.NewLevelDB(cfg.DataDir)
		if err != nil {
			panic(fmt.Sprintf("Failed to open database: %v", err))
		}
		db = ldb
	}
	defer db.Close()

	nativeID := types.CurrencyID(cfg.NativeCurrency).Normalize()
	var nativeMin *big.Int
	currencyConfigs := make([]tokens.CurrencyConfig, 0, len(cfg.Currencies))
	for _, currency := range cfg.Currencies {
		symbol := types.CurrencyID(currency.Symbol).Normalize()
		currencyConfigs = append(currencyConfigs, tokens.CurrencyConfig{
			Symbol:         symbol,
			BaseUnit:       big.NewInt(currency.BaseUnit),
			MinimumBalance: big.NewInt(currency.MinimumBalance),
		})
		if symbol == nativeID {
			nativeMin = big.NewInt(currency.MinimumBalance)
		}
	}

	// The backend registers every currency, the native id included, so
	// supply settlement can reach the native leg. The native store aliases
	// the same records under the same keys.
	backend, err := tokens.NewStore(db, currencyConfigs)
	if err != nil {
		logger.Error("Failed to build currency backend", slog.Any("error", err))
		os.Exit(1)
	}
	nativeStore, err := token.NewStore(db, nativeID, nativeMin)
	if err != nil {
		logger.Error("Failed to build native store", slog.Any("error", err))
		os.Exit(1)
	}

	emitter := events.LogEmitter{Logger: logger}
	dispatch := ledger.NewDispatch(nativeID, asset.NewAdapter(nativeStore), backend, emitter)
	market := serp.NewMarket(types.CurrencyID(cfg.SerpNativeCurrency), backend, emitter)

	var oracle serp.PriceOracle
	var feed *serp.FeedOracle
	if strings.TrimSpace(cfg.OracleURL) != "" {
		oracle = serp.NewHTTPOracle(cfg.OracleURL)
	} else {
		feed = serp.NewFeedOracle()
		oracle = feed
	}

	lanes := make([]serp.Lane, 0, len(cfg.Monitored()))
	for _, symbol := range cfg.Monitored() {
		lanes = append(lanes, serp.Lane{Currency: types.CurrencyID(symbol)})
	}
	engine, err := serp.NewEngine(nativeID, cfg.SerpersAccount, cfg.AdjustmentFrequency, lanes, oracle, dispatch, market, logger)
	if err != nil {
		logger.Error("Failed to build stabilization engine", slog.Any("error", err))
		os.Exit(1)
	}

	if err := seedGenesis(db, dispatch, cfg); err != nil {
		logger.Error("Failed to seed genesis balances", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	router := newRouter(dispatch, feed)
	server := &http.Server{Addr: cfg.ListenAddress, Handler: router}
	go func() {
		logger.Info("http server listening", slog.String("address", cfg.ListenAddress))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", slog.Any("error", err))
			stop()
		}
	}()

	logger.Info("stabilization loop started",
		slog.String("native", string(nativeID)),
		slog.Uint64("frequency", cfg.AdjustmentFrequency),
		slog.Int("interval_seconds", cfg.BlockIntervalSeconds))

	ticker := time.NewTicker(time.Duration(cfg.BlockIntervalSeconds) * time.Second)
	defer ticker.Stop()

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error("http shutdown failed", slog.Any("error", err))
			}
			return
		case <-ticker.C:
			tick++
			engine.OnTick(ctx, tick)
		}
	}
}

// seedGenesis credits the configured genesis balances exactly once per
// database.
func seedGenesis(db storage.Database, dispatch *ledger.Dispatch, cfg *config.Config) error {
	seeded, err := db.Has(genesisMarker)
	if err != nil {
		return err
	}
	if seeded || len(cfg.GenesisBalances) == 0 {
		return nil
	}
	for _, balance := range cfg.GenesisBalances {
		if err := dispatch.Deposit(types.CurrencyID(balance.Currency), balance.Account, big.NewInt(balance.Amount)); err != nil {
			return err
		}
	}
	return db.Put(genesisMarker, []byte{1})
}

func newRouter(dispatch *ledger.Dispatch, feed *serp.FeedOracle) http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.HandlerFor(observability.Metrics().Registry(), promhttp.HandlerOpts{}))

	router.Get("/supply/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		symbol := types.CurrencyID(chi.URLParam(r, "symbol"))
		issuance, err := dispatch.TotalIssuance(symbol)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"currency": string(symbol.Normalize()),
			"issuance": issuance.String(),
		})
	})

	if feed != nil {
		router.Post("/oracle/price", func(w http.ResponseWriter, r *http.Request) {
			var payload struct {
				Currency string `json:"currency"`
				Price    string `json:"price"`
			}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			price, ok := new(big.Int).SetString(strings.TrimSpace(payload.Price), 10)
			if !ok {
				http.Error(w, "malformed price", http.StatusBadRequest)
				return
			}
			if err := feed.SetPrice(types.CurrencyID(payload.Currency), price); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusAccepted)
		})
	}

	return router
}
