package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SamAg19/SealBid/config"
	"github.com/SamAg19/SealBid/core/state"
	"github.com/SamAg19/SealBid/native/auction"
	nativecommon "github.com/SamAg19/SealBid/native/common"
	"github.com/SamAg19/SealBid/native/deed"
	"github.com/SamAg19/SealBid/native/mortgage"
	"github.com/SamAg19/SealBid/native/pool"
	"github.com/SamAg19/SealBid/observability/logging"
	"github.com/SamAg19/SealBid/observability/metrics"
	"github.com/SamAg19/SealBid/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	listenAddr := flag.String("listen", ":9464", "Listen address for the metrics endpoint")
	flag.Parse()

	logger := logging.Setup("sealbidd", os.Getenv("SEALBID_ENV"))

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	node, err := buildNode(cfg, state.NewManager(db))
	if err != nil {
		logger.Error("Failed to assemble protocol engines", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("sealbidd started",
		slog.String("dataDir", cfg.DataDir),
		slog.Uint64("annualRateBps", cfg.AnnualRateBps),
		slog.Int64("approvalTTLSeconds", cfg.ApprovalTTLSeconds),
		slog.Int64("liquidationWindowSeconds", cfg.LiquidationWindowSeconds),
		slog.String("poolVault", fmt.Sprintf("%x", node.pool.ModuleAddress())),
		slog.String("loanEscrow", fmt.Sprintf("%x", node.mortgage.ModuleAddress())),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(*listenAddr, mux); err != nil {
		logger.Error("Metrics endpoint failed", slog.Any("error", err))
		os.Exit(1)
	}
}

type node struct {
	pool     *pool.Engine
	mortgage *mortgage.Engine
	deeds    *deed.Registry
	auctions *auction.Engine
}

// buildNode wires the four protocol engines over the shared state manager and
// routes their events through the metrics recorder.
func buildNode(cfg *config.Config, manager *state.Manager) (*node, error) {
	owner, err := config.DecodeAddress(cfg.OwnerAddress)
	if err != nil {
		return nil, err
	}
	oracle, err := config.DecodeAddress(cfg.OracleAddress)
	if err != nil {
		return nil, err
	}
	operator, err := config.DecodeAddress(cfg.AuctionAddress)
	if err != nil {
		return nil, err
	}

	vault := nativecommon.ModuleAddress("pool")
	escrow := nativecommon.ModuleAddress("mortgage")
	auctionAddr := nativecommon.ModuleAddress("auction")
	recorder := metrics.NewRecorder(nil)

	poolEngine := pool.NewEngine(vault, owner)
	poolEngine.SetState(manager)
	poolEngine.SetEmitter(recorder)

	registry := deed.NewRegistry()
	registry.SetState(manager)
	registry.SetEmitter(recorder)

	auctionEngine := auction.NewEngine(operator)
	auctionEngine.SetState(manager)
	auctionEngine.SetEmitter(recorder)

	loanEngine := mortgage.NewEngine(escrow, owner, oracle, auctionAddr, cfg.AnnualRateBps)
	loanEngine.SetState(manager)
	loanEngine.SetPool(poolEngine)
	loanEngine.SetCollateralRegistry(registry)
	loanEngine.SetAuctions(auctionEngine)
	loanEngine.SetLiquidationWindow(cfg.LiquidationWindowSeconds)
	loanEngine.SetEmitter(recorder)

	auctionEngine.SetSink(loanEngine.SettlementRelay())
	if err := poolEngine.SetAuthorizedDisburser(owner, escrow); err != nil {
		return nil, err
	}

	return &node{pool: poolEngine, mortgage: loanEngine, deeds: registry, auctions: auctionEngine}, nil
}
