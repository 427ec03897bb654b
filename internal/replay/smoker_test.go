package replay

import (
	"context"
	"testing"

	"thorsmoker/core"
	"thorsmoker/internal/chains"
)

// newTestSmoker builds a Smoker with no live node, so Run only drives
// the in-process simulator and chain mocks — the pure-logic surface
// exercised without any network I/O.
func newTestSmoker() (*Smoker, *core.ThorchainState) {
	sim := core.NewThorchainState(nil, core.DefaultConfig(), core.ChainTHOR)
	registry := chains.NewRegistry()
	return NewSmoker(sim, nil, registry, nil), sim
}

// TestSmokerRunDrivesGasAndRewardsPerTx exercises the harness's
// catch-up path end to end without a live node: a reserve-funding tx,
// then an add-liquidity pair through the BNB mock adapter, must leave
// the BNB pool's asset side debited by the mock's reported gas and the reserve
// debited by a rewards payout — both only reachable through Run, not
// through core.ThorchainState.Handle alone.
func TestSmokerRunDrivesGasAndRewardsPerTx(t *testing.T) {
	smoker, sim := newTestSmoker()
	bnb := core.MustParseAsset("BNB.BNB")

	// The THOR leg is replayed before the BNB leg so that the BNB tx's
	// add-liquidity pairing completes within the same Run iteration that
	// reconciles the BNB mock adapter's reported gas — otherwise the
	// pool would still be pending (zero balance) when HandleGas runs.
	txs := []core.Transaction{
		core.NewTransaction(core.ChainTHOR, "thor1reserve", "", core.Coins{{Asset: sim.RuneAsset(), Amount: 3_153_600_000_000_000}}, "RESERVE"),
		core.NewTransaction(core.ChainTHOR, "thor1alice", "thor1vault",
			core.Coins{{Asset: sim.RuneAsset(), Amount: 50 * core.One}},
			"ADD:BNB.BNB:bnb1alice"),
		core.NewTransaction(core.ChainBNB, "bnb1alice", "bnb1vault",
			core.Coins{{Asset: bnb, Amount: 50 * core.One}},
			"ADD:BNB.BNB:thor1alice"),
	}

	result, err := smoker.Run(context.Background(), txs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.TxCount != len(txs) {
		t.Fatalf("TxCount = %d, want %d", result.TxCount, len(txs))
	}
	if !result.Passed() {
		t.Fatalf("expected no divergences with no live node configured, got %+v", result.Divergences)
	}

	pool := sim.GetPool(bnb)
	if pool.AssetBalance != 50*core.One-37500 {
		t.Fatalf("pool asset balance = %d, want %d (liquidity add minus the BNB mock's reported gas)",
			pool.AssetBalance, 50*core.One-37500)
	}

	if sim.Reserve() >= 3_153_600_000_000_000 {
		t.Fatalf("reserve = %d, want less than the funded amount after rewards and gas reconciliation", sim.Reserve())
	}

	var sawRewards, sawGas bool
	for _, e := range sim.Events() {
		switch e.Type {
		case "rewards":
			sawRewards = true
		case "gas":
			sawGas = true
		}
	}
	if !sawRewards {
		t.Fatalf("expected HandleRewards to run at least once per tx, no rewards event found")
	}
	if !sawGas {
		t.Fatalf("expected HandleGas to run off the mock adapter's reported gas, no gas event found")
	}
}

// TestSmokerRunNoVerifySkipsDivergenceChecks covers the NoVerify
// shortcut: it must still drive the simulator and mock adapters, just
// without the catch-up wait or any diffing.
func TestSmokerRunNoVerifySkipsDivergenceChecks(t *testing.T) {
	smoker, sim := newTestSmoker()
	smoker.NoVerify = true
	bnb := core.MustParseAsset("BNB.BNB")

	txs := []core.Transaction{
		core.NewTransaction(core.ChainBNB, "bnb1alice", "bnb1vault",
			core.Coins{{Asset: bnb, Amount: 10 * core.One}}, "ADD:BNB.BNB:thor1alice"),
	}

	result, err := smoker.Run(context.Background(), txs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Divergences) != 0 {
		t.Fatalf("expected zero divergences to even be checked under NoVerify, got %+v", result.Divergences)
	}
	pool := sim.GetPool(bnb)
	if pool.Status != core.PoolStaged {
		t.Fatalf("expected a lone asset-side add to leave the pool staged")
	}
}
