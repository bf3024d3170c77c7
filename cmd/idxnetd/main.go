package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"idxnet/config"
	"idxnet/core/events"
	nativecommon "idxnet/native/common"
	"idxnet/native/curation"
	"idxnet/native/epochs"
	"idxnet/native/staking"
	"idxnet/observability/logging"
	"idxnet/state"
	"idxnet/storage"
)

// parseAddresses decodes 0x-prefixed 20-byte hex addresses.
func parseAddresses(raw []string) ([][20]byte, error) {
	addrs := make([][20]byte, 0, len(raw))
	for _, entry := range raw {
		trimmed := strings.TrimPrefix(strings.TrimSpace(entry), "0x")
		decoded, err := hex.DecodeString(trimmed)
		if err != nil {
			return nil, fmt.Errorf("address %q: %w", entry, err)
		}
		if len(decoded) != 20 {
			return nil, fmt.Errorf("address %q: want 20 bytes, got %d", entry, len(decoded))
		}
		var addr [20]byte
		copy(addr[:], decoded)
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

func main() {
	configPath := flag.String("config", "./config.toml", "path to the TOML config file")
	inMemory := flag.Bool("mem", false, "run against an in-memory database (state is lost on exit)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup("idxnetd", cfg.Environment)

	var db storage.Database
	if *inMemory {
		db = storage.NewMemDB()
	} else {
		path := filepath.Join(cfg.DataDir, "ledger")
		leveldb, err := storage.NewLevelDB(path)
		if err != nil {
			logger.Error("open database", "path", path, "err", err)
			os.Exit(1)
		}
		db = leveldb
	}
	defer db.Close()

	node, err := buildNode(cfg, db, logger)
	if err != nil {
		logger.Error("build node", "err", err)
		os.Exit(1)
	}
	logger.Info("ledger ready",
		"network", cfg.NetworkName,
		"epochLength", cfg.Epochs.LengthBlocks,
		"stakingVault", fmt.Sprintf("%x", node.Staking.Vault()),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	server := &http.Server{Addr: cfg.MetricsAddress, Handler: mux}

	go func() {
		logger.Info("metrics listening", "addr", cfg.MetricsAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("metrics shutdown", "err", err)
	}
}

// Node bundles the wired engines for the host to drive.
type Node struct {
	Store    *state.Store
	Epochs   *epochs.Manager
	Curation *curation.Engine
	Staking  *staking.Engine
}

// buildNode constructs the engines over the shared store and wires their
// collaborators together: each module gets its own vault-bound treasury, the
// staking engine routes fee cuts into the curation market, and both emit
// through the structured log.
func buildNode(cfg *config.Config, db storage.Database, logger *slog.Logger) (*Node, error) {
	store := state.NewStore(db)
	clock, err := epochs.NewManager(cfg.Epochs.LengthBlocks)
	if err != nil {
		return nil, err
	}

	curationVault := state.ModuleVault("curation")
	stakingVault := state.ModuleVault("staking")
	emitter := events.LogEmitter{Logger: logger}

	slashers, err := parseAddresses(cfg.Staking.Slashers)
	if err != nil {
		return nil, fmt.Errorf("staking slashers: %w", err)
	}
	roles := nativecommon.StaticRoles{staking.RoleSlasher: slashers}

	curationParams := curation.Params{
		MinimumDeposit:         cfg.Curation.MinimumDepositAmount(),
		SeedSignal:             cfg.Curation.SeedSignalAmount(),
		DefaultReserveRatioPpm: cfg.Curation.DefaultReserveRatioPpm,
		WithdrawalFeePpm:       cfg.Curation.WithdrawalFeePpm,
	}
	if err := curationParams.Validate(); err != nil {
		return nil, err
	}
	curationEngine := curation.NewEngine(curationParams)
	curationEngine.SetState(store)
	curationEngine.SetTreasury(state.NewTreasury(store, curationVault))
	curationEngine.SetVault(curationVault)
	curationEngine.SetStakingModule(stakingVault)
	curationEngine.SetEmitter(emitter)

	stakingParams := staking.Params{
		ThawingPeriodEpochs:          cfg.Staking.ThawingPeriodEpochs,
		MaxAllocationEpochs:          cfg.Staking.MaxAllocationEpochs,
		RebateDisputeEpochs:          cfg.Staking.RebateDisputeEpochs,
		CurationFeePpm:               cfg.Staking.CurationFeePpm,
		DelegationCapacityMultiplier: cfg.Staking.DelegationCapacityMultiplier,
		MinDelegationCooldownBlocks:  cfg.Staking.MinDelegationCooldownBlocks,
	}
	if err := stakingParams.Validate(); err != nil {
		return nil, err
	}
	stakingEngine := staking.NewEngine(stakingParams)
	stakingEngine.SetState(store)
	stakingEngine.SetTreasury(state.NewTreasury(store, stakingVault))
	stakingEngine.SetClock(clock)
	stakingEngine.SetAccessControl(roles)
	stakingEngine.SetVault(stakingVault)
	stakingEngine.SetCurationMarket(curationEngine, curationVault)
	stakingEngine.SetEmitter(emitter)

	return &Node{
		Store:    store,
		Epochs:   clock,
		Curation: curationEngine,
		Staking:  stakingEngine,
	}, nil
}
