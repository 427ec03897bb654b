package chains

import (
	"context"
	"testing"
	"time"

	"thorsmoker/core"
)

func TestMockSeedAndTransfer(t *testing.T) {
	ctx := context.Background()
	m := NewMock(core.ChainBTC)
	btc := core.MustParseAsset("BTC.BTC")
	m.Seed("bc1alice", core.Coins{{Asset: btc, Amount: 10 * core.One}})

	tx := core.NewTransaction(core.ChainBTC, "bc1alice", "bc1bob", core.Coins{{Asset: btc, Amount: 3 * core.One}}, "SWAP:THOR.RUNE")
	if err := m.Transfer(ctx, &tx); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if tx.ID == "" || tx.ID == core.TODOID {
		t.Fatalf("expected Transfer to assign a synthetic tx id, got %q", tx.ID)
	}

	aliceBal, err := m.GetBalance(ctx, "bc1alice", &btc)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if len(aliceBal) != 1 || aliceBal[0].Amount != 7*core.One {
		t.Fatalf("alice balance = %+v, want 7e8", aliceBal)
	}

	bobBal, err := m.GetBalance(ctx, "bc1bob", &btc)
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if len(bobBal) != 1 || bobBal[0].Amount != 3*core.One {
		t.Fatalf("bob balance = %+v, want 3e8", bobBal)
	}

	height, err := m.GetBlockHeight(ctx)
	if err != nil {
		t.Fatalf("GetBlockHeight: %v", err)
	}
	if height != 1 {
		t.Fatalf("height = %d, want 1", height)
	}
}

func TestMockSimulateReorgRewindsBalances(t *testing.T) {
	ctx := context.Background()
	m := NewMock(core.ChainBTC)
	btc := core.MustParseAsset("BTC.BTC")
	m.Seed("bc1alice", core.Coins{{Asset: btc, Amount: 10 * core.One}})

	tx := core.NewTransaction(core.ChainBTC, "bc1alice", "bc1bob", core.Coins{{Asset: btc, Amount: 3 * core.One}}, "SWAP:THOR.RUNE")
	if err := m.Transfer(ctx, &tx); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	heightBefore, _ := m.GetBlockHeight(ctx)

	if err := m.SimulateReorg(ctx, 1); err != nil {
		t.Fatalf("SimulateReorg: %v", err)
	}

	heightAfter, _ := m.GetBlockHeight(ctx)
	if heightAfter != heightBefore {
		t.Fatalf("height after reorg = %d, want unchanged %d (rebroadcast restores tip)", heightAfter, heightBefore)
	}

	aliceBal, _ := m.GetBalance(ctx, "bc1alice", &btc)
	if len(aliceBal) != 1 || aliceBal[0].Amount != 7*core.One {
		t.Fatalf("alice balance after reorg+rebroadcast = %+v, want unchanged 7e8", aliceBal)
	}
}

func TestMockTransferAssignsChainGas(t *testing.T) {
	ctx := context.Background()
	m := NewMock(core.ChainETH)
	eth := core.MustParseAsset("ETH.ETH")
	m.Seed("0xalice", core.Coins{{Asset: eth, Amount: 10 * core.One}})

	tx := core.NewTransaction(core.ChainETH, "0xalice", "0xbob", core.Coins{{Asset: eth, Amount: 3 * core.One}}, "SWAP:THOR.RUNE")
	if err := m.Transfer(ctx, &tx); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if len(tx.Gas) != 1 || tx.Gas[0].Amount != defaultChainGas[core.ChainETH] {
		t.Fatalf("tx.Gas = %+v, want 1 coin of %d", tx.Gas, defaultChainGas[core.ChainETH])
	}
}

func TestScannerScanOnceUpdatesBlockStats(t *testing.T) {
	ctx := context.Background()
	m := NewMock(core.ChainBTC)
	btc := core.MustParseAsset("BTC.BTC")
	m.Seed("bc1alice", core.Coins{{Asset: btc, Amount: 10 * core.One}})

	tx := core.NewTransaction(core.ChainBTC, "bc1alice", "bc1bob", core.Coins{{Asset: btc, Amount: 1 * core.One}}, "SWAP:THOR.RUNE")
	if err := m.Transfer(ctx, &tx); err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	sc := NewScanner(m, 100)
	sc.scanOnce()

	rate, size := m.BlockStats()
	if rate != 1 {
		t.Fatalf("txRate = %d, want 1", rate)
	}
	if size != 1 {
		t.Fatalf("txSize = %d, want 1 (one coin in the one broadcast tx)", size)
	}
}

func TestRegistryStartScannersRunsUntilCancelled(t *testing.T) {
	r := NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	r.StartScanners(ctx, 1000)
	time.Sleep(5 * time.Millisecond)
	cancel()
}

func TestRegistryEnableAndGet(t *testing.T) {
	r := NewRegistry()
	if r.Get(core.ChainBTC) == nil {
		t.Fatalf("expected a pre-populated BTC mock")
	}
	if r.Get("NOSUCHCHAIN") != nil {
		t.Fatalf("expected nil for an unregistered chain")
	}
	m := r.Enable("NEWCHAIN")
	if m == nil || r.Get("NEWCHAIN") != m {
		t.Fatalf("Enable should register and return a usable mock")
	}
}
