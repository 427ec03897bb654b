package core

import "testing"

// TestHandleGasFoldsSpentGasIntoPoolAndReserve exercises the exported
// HandleGas entry point the replay harness calls once it observes a
// tx's real on-chain gas: the reserve pays the RUNE-equivalent of the
// asset gas into the pool, and gas_spent_rune tracks the non-THOR case.
func TestHandleGasFoldsSpentGasIntoPoolAndReserve(t *testing.T) {
	s := newTestState(ChainTHOR)
	bnb := MustParseAsset("BNB.BNB")
	pool := seedPool(s, bnb, 200*One, 100*One)

	s.reserve = 1_000_000_000
	runeBefore := pool.RuneBalance
	assetBefore := pool.AssetBalance
	reserveBefore := s.reserve

	const assetGasTotal = 5000
	const wantRuneAmt = 10000

	s.HandleGas(bnb, assetGasTotal, 3)

	if pool.RuneBalance != runeBefore+wantRuneAmt {
		t.Fatalf("pool rune balance = %d, want %d", pool.RuneBalance, runeBefore+wantRuneAmt)
	}
	if pool.AssetBalance != assetBefore-assetGasTotal {
		t.Fatalf("pool asset balance = %d, want %d", pool.AssetBalance, assetBefore-assetGasTotal)
	}
	if s.reserve != reserveBefore-wantRuneAmt {
		t.Fatalf("reserve = %d, want %d", s.reserve, reserveBefore-wantRuneAmt)
	}
	if s.gasSpentRune != wantRuneAmt {
		t.Fatalf("gasSpentRune = %d, want %d", s.gasSpentRune, wantRuneAmt)
	}

	events := s.Events()
	if len(events) != 1 || events[0].Type != "gas" {
		t.Fatalf("expected a single gas event, got %+v", events)
	}
}

// TestHandleGasSkipsGasSpentTrackingForRuneChain covers the THOR-chain
// branch: gas paid on the rune chain itself never counts toward
// gas_spent_rune, since it isn't subsidized from the reserve surplus
// the outbound fee multiplier targets.
func TestHandleGasSkipsGasSpentTrackingForRuneChain(t *testing.T) {
	s := newTestState(ChainTHOR)
	runeAsset := s.RuneAsset()
	seedPool(s, runeAsset, 100*One, 100*One)

	s.reserve = 1_000_000_000
	s.HandleGas(runeAsset, 1000, 1)

	if s.gasSpentRune != 0 {
		t.Fatalf("gasSpentRune = %d, want 0 for the rune chain", s.gasSpentRune)
	}
}
