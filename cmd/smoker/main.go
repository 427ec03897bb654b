// Command smoker drives the differential replay harness: it feeds a
// scripted transaction set to both the deterministic settlement
// simulator and a live mocknet node and reports any divergence.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	appconfig "thorsmoker/cmd/config"
	"thorsmoker/core"
	"thorsmoker/internal/chains"
	"thorsmoker/internal/replay"
)

var (
	flagThorchainURL string
	flagMidgardURL   string
	flagBinanceURL   string
	flagGaiaURL      string
	flagBitcoinURL   string
	flagBCHURL       string
	flagLitecoinURL  string
	flagDogecoinURL  string
	flagEthereumURL  string

	flagGenerateBalances bool
	flagFastFail         bool
	flagNoVerify         bool
	flagBitcoinReorg     bool
	flagEthereumReorg    bool
	flagBootstrapOnly    bool
	flagConfigPath       string
	flagScanRate         float64
)

func main() {
	root := &cobra.Command{
		Use:   "smoker",
		Short: "Differential replay harness for the settlement simulator",
		RunE:  run,
	}

	f := root.Flags()
	f.StringVar(&flagThorchainURL, "thorchain", "", "thorchain REST base URL")
	f.StringVar(&flagMidgardURL, "midgard", "", "midgard REST base URL")
	f.StringVar(&flagBinanceURL, "binance", "", "binance mock adapter URL")
	f.StringVar(&flagGaiaURL, "gaia", "", "gaia mock adapter URL")
	f.StringVar(&flagBitcoinURL, "bitcoin", "", "bitcoin mock adapter URL")
	f.StringVar(&flagBCHURL, "bitcoin-cash", "", "bitcoin cash mock adapter URL")
	f.StringVar(&flagLitecoinURL, "litecoin", "", "litecoin mock adapter URL")
	f.StringVar(&flagDogecoinURL, "dogecoin", "", "dogecoin mock adapter URL")
	f.StringVar(&flagEthereumURL, "ethereum", "", "ethereum mock adapter URL")

	f.BoolVar(&flagGenerateBalances, "generate-balances", false, "seed starting balances before replay")
	f.BoolVar(&flagFastFail, "fast-fail", false, "stop at the first divergence instead of accumulating")
	f.BoolVar(&flagNoVerify, "no-verify", false, "replay without diffing simulator and live node state")
	f.BoolVar(&flagBitcoinReorg, "bitcoin-reorg", false, "simulate a bitcoin reorg mid-run")
	f.BoolVar(&flagEthereumReorg, "ethereum-reorg", false, "simulate an ethereum reorg mid-run")
	f.BoolVar(&flagBootstrapOnly, "bootstrap-only", false, "exit after start-up checks without replaying transactions")
	f.StringVar(&flagConfigPath, "config", "", "YAML run configuration (chain endpoints, toggles, transaction script)")
	f.Float64Var(&flagScanRate, "scan-rate", 1, "background block-stats scanner polls per second")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	appconfig.LoadConfig(os.Getenv("SYNN_ENV"))
	h := appconfig.AppConfig.Harness

	var runCfg *RunConfig
	if flagConfigPath != "" {
		loaded, err := LoadRunConfig(flagConfigPath)
		if err != nil {
			return err
		}
		runCfg = loaded
	}

	thorchainURL := firstNonEmpty(flagThorchainURL, h.ThorchainURL)
	midgardURL := firstNonEmpty(flagMidgardURL, h.MidgardURL)
	if runCfg != nil {
		thorchainURL = firstNonEmpty(thorchainURL, runCfg.Thorchain)
		midgardURL = firstNonEmpty(midgardURL, runCfg.Midgard)
		flagFastFail = flagFastFail || runCfg.FastFail
		flagNoVerify = flagNoVerify || runCfg.NoVerify
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	runeChain := h.RuneChain
	if runeChain == "" {
		runeChain = core.ChainTHOR
	}
	cfg := core.DefaultConfig()
	if h.RuneFee > 0 {
		cfg.RuneFee = h.RuneFee
	}
	if h.SynthMultiplier > 0 {
		cfg.SynthMultiplier = h.SynthMultiplier
	}
	sim := core.NewThorchainState(nil, cfg, runeChain)

	registry := chains.NewRegistry()
	urls := map[string]string{
		core.ChainBNB:  flagBinanceURL,
		core.ChainGAIA: flagGaiaURL,
		core.ChainBTC:  flagBitcoinURL,
		core.ChainBCH:  flagBCHURL,
		core.ChainLTC:  flagLitecoinURL,
		core.ChainDOGE: flagDogecoinURL,
		core.ChainETH:  flagEthereumURL,
	}
	if runCfg != nil {
		for chain, url := range runCfg.Chains {
			if urls[chain] == "" {
				urls[chain] = url
			}
		}
	}
	for chain, url := range urls {
		if url != "" {
			registry.Enable(chain)
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	if midgardURL != "" {
		health := replay.NewHealthChecker(midgardURL)
		if err := health.WaitForMidgard(ctx); err != nil {
			logger.Warn("midgard health check did not pass before timeout", zap.Error(err))
		}
	}

	var node *replay.NodeClient
	if thorchainURL != "" {
		node = replay.NewNodeClient(thorchainURL, wsURLFor(thorchainURL))
		if err := node.WaitForNode(ctx); err != nil {
			return fmt.Errorf("thorchain node never became ready: %w", err)
		}
	}

	if flagGenerateBalances {
		seedBalances(registry)
	}

	if flagBootstrapOnly {
		logger.Info("bootstrap-only: exiting without replay")
		return nil
	}

	if flagScanRate > 0 {
		registry.StartScanners(ctx, flagScanRate)
	}

	if flagBitcoinReorg {
		if adapter := registry.Get(core.ChainBTC); adapter != nil {
			if err := adapter.SimulateReorg(ctx, 1); err != nil {
				logger.Warn("bitcoin reorg simulation failed", zap.Error(err))
			}
		}
	}
	if flagEthereumReorg {
		if adapter := registry.Get(core.ChainETH); adapter != nil {
			if err := adapter.SimulateReorg(ctx, 1); err != nil {
				logger.Warn("ethereum reorg simulation failed", zap.Error(err))
			}
		}
	}

	smoker := replay.NewSmoker(sim, node, registry, logger)
	smoker.FastFail = flagFastFail
	smoker.NoVerify = flagNoVerify

	script := defaultScript()
	if runCfg != nil && len(runCfg.Transactions) > 0 {
		loaded, err := runCfg.Script()
		if err != nil {
			return err
		}
		script = loaded
	}
	result, err := smoker.Run(ctx, script)
	if err != nil {
		return fmt.Errorf("replay run failed: %w", err)
	}

	logger.Info("replay complete",
		zap.Int("tx_count", result.TxCount),
		zap.Int("divergences", len(result.Divergences)),
		zap.Duration("sim_duration", result.SimDuration),
		zap.Duration("live_duration", result.LiveDuration),
	)
	for _, d := range result.Divergences {
		logger.Error("divergence", zap.String("stage", d.Stage), zap.String("key", d.Key),
			zap.String("want", d.Want), zap.String("got", d.Got))
	}

	if !result.Passed() {
		os.Exit(1)
	}
	return nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func wsURLFor(httpURL string) string {
	switch {
	case len(httpURL) > 5 && httpURL[:5] == "https":
		return "wss" + httpURL[5:] + "/websocket"
	case len(httpURL) > 4 && httpURL[:4] == "http":
		return "ws" + httpURL[4:] + "/websocket"
	default:
		return httpURL
	}
}

func seedBalances(registry *chains.Registry) {
	const seedAmount = 100 * core.One
	for _, chain := range registry.All() {
		adapter := registry.Get(chain)
		asset := core.RuneAsset(chain)
		if !asset.IsRune() {
			asset = core.Asset{Chain: chain, Symbol: chain}
		}
		adapter.Seed("smoker-master", core.Coins{{Asset: asset, Amount: seedAmount}})
	}
}

// defaultScript is the harness's built-in transaction set: bootstrap a
// BNB.BNB pool, swap into it, and withdraw half the position. A real
// invocation typically loads a larger script from a YAML run
// configuration instead (--config, see runconfig.go); this default exists so `smoker` is
// runnable with no arguments beyond chain URLs.
func defaultScript() []core.Transaction {
	bnb := core.MustParseAsset("BNB.BNB")
	bnbVault := "bnb1vault"
	thorVault := "thor1vault"

	return []core.Transaction{
		// Both add-liquidity legs key the LP under the rune address
		// ("thor1alice"); each memo names the other leg's address as
		// its counterparty so handleAddLiquidity can pair them.
		core.NewTransaction(core.ChainBNB, "bnb1alice", bnbVault,
			core.Coins{{Asset: bnb, Amount: 50 * core.One}},
			"ADD:BNB.BNB:thor1alice"),
		core.NewTransaction(core.ChainTHOR, "thor1alice", thorVault,
			core.Coins{{Asset: core.RuneAsset(core.ChainTHOR), Amount: 50 * core.One}},
			"ADD:BNB.BNB:bnb1alice"),
		core.NewTransaction(core.ChainTHOR, "thor1bob", thorVault,
			core.Coins{{Asset: core.RuneAsset(core.ChainTHOR), Amount: 10 * core.One}},
			"SWAP:BNB.BNB:bnb1bob"),
		core.NewTransaction(core.ChainTHOR, "thor1alice", thorVault,
			nil, "WITHDRAW:BNB.BNB:5000"),
	}
}
