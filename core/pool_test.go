package core

import "testing"

func TestPoolAddLiquiditySymmetricBootstrap(t *testing.T) {
	p := NewPool(MustParseAsset("BTC.BTC"))
	units, rune_, asset, pending := p.AddLiquidity("lp1", "thor1lp", "bc1lp", 100*One, 1*One, "tx1")
	if pending {
		t.Fatalf("symmetric first deposit must not be pending")
	}
	if units != 100*One {
		t.Fatalf("bootstrap units = %d, want %d", units, 100*One)
	}
	if rune_ != 100*One || asset != 1*One {
		t.Fatalf("unexpected credited amounts: rune=%d asset=%d", rune_, asset)
	}
	if p.RuneBalance != 100*One || p.AssetBalance != 1*One {
		t.Fatalf("unexpected pool balances: %+v", p)
	}
	if p.LPUnits != units {
		t.Fatalf("pool LPUnits = %d, want %d", p.LPUnits, units)
	}
}

func TestPoolAddLiquidityOneSidedIsPendingUntilBothLegsArrive(t *testing.T) {
	p := NewPool(MustParseAsset("BTC.BTC"))
	_, _, _, pending := p.AddLiquidity("lp1", "thor1lp", "", 50*One, 0, "tx1")
	if !pending {
		t.Fatalf("one-sided rune-only deposit must be pending")
	}
	if p.LPUnits != 0 {
		t.Fatalf("no units should mint while pending")
	}

	units, _, _, pending := p.AddLiquidity("lp1", "", "bc1lp", 0, 1*One, "tx2")
	if pending {
		t.Fatalf("second leg should complete the deposit, not stay pending")
	}
	if units == 0 {
		t.Fatalf("expected non-zero units once both legs arrived")
	}
	lp, ok := p.GetLiquidityProvider("lp1")
	if !ok || lp.PendingRune != 0 || lp.PendingAsset != 0 {
		t.Fatalf("pending fields must clear once units mint: %+v", lp)
	}
}

func TestPoolWithdrawProportional(t *testing.T) {
	p := NewPool(MustParseAsset("BTC.BTC"))
	p.AddLiquidity("lp1", "thor1lp", "bc1lp", 100*One, 1*One, "tx1")

	unitsRemoved, runeOut, assetOut, err := p.Withdraw("lp1", 5000) // 50%
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if unitsRemoved != 50*One {
		t.Fatalf("unitsRemoved = %d, want %d", unitsRemoved, 50*One)
	}
	if runeOut != 50*One || assetOut != One/2 {
		t.Fatalf("unexpected withdraw amounts: rune=%d asset=%d", runeOut, assetOut)
	}
	if p.RuneBalance != 50*One || p.AssetBalance != One/2 {
		t.Fatalf("unexpected remaining pool balances: %+v", p)
	}
}

func TestPoolWithdrawOutOfRangeBpsIsFatal(t *testing.T) {
	p := NewPool(MustParseAsset("BTC.BTC"))
	p.AddLiquidity("lp1", "thor1lp", "bc1lp", 100*One, 1*One, "tx1")
	if _, _, _, err := p.Withdraw("lp1", 10001); err == nil {
		t.Fatalf("expected error for out-of-range bps")
	}
}

func TestPoolSubUnderflowIsFatal(t *testing.T) {
	p := NewPool(MustParseAsset("BTC.BTC"))
	p.Add(10, 10)
	if _, err := p.Sub(11, 0); err == nil {
		t.Fatalf("expected underflow error")
	}
}

func TestPoolPromoteOnlyOnce(t *testing.T) {
	p := NewPool(MustParseAsset("BTC.BTC"))
	if p.Status != PoolStaged {
		t.Fatalf("new pool must start Staged")
	}
	if !p.Promote() {
		t.Fatalf("first Promote() should change status")
	}
	if p.Status != PoolAvailable {
		t.Fatalf("pool should be Available after Promote")
	}
	if p.Promote() {
		t.Fatalf("second Promote() should be a no-op")
	}
}

func TestPoolAutoDemoteOnZeroBalance(t *testing.T) {
	p := NewPool(MustParseAsset("BTC.BTC"))
	p.Add(100, 1)
	p.Promote()
	if _, err := p.Sub(100, 0); err != nil {
		t.Fatalf("Sub: %v", err)
	}
	if p.Status != PoolStaged {
		t.Fatalf("pool should auto-demote to Staged once a side hits zero")
	}
}

func TestPoolSynthUnits(t *testing.T) {
	p := NewPool(MustParseAsset("BTC.BTC"))
	p.Add(100*One, 100*One)
	p.LPUnits = 100 * One
	p.AddSynth(50 * One)

	su := p.SynthUnits()
	if su <= 0 {
		t.Fatalf("expected positive synth units, got %d", su)
	}
	if p.PoolUnits() != p.LPUnits+su {
		t.Fatalf("PoolUnits should be lp_units + synth_units")
	}
}
