package core

import "testing"

func TestTransactionMemoPrefixAndFields(t *testing.T) {
	tx := NewTransaction(ChainBTC, "bc1from", "bc1to", Coins{{Asset: MustParseAsset("BTC.BTC"), Amount: One}}, "SWAP:THOR.RUNE:thor1dest:12345")
	if tx.MemoPrefix() != "SWAP" {
		t.Fatalf("MemoPrefix() = %q, want SWAP", tx.MemoPrefix())
	}
	fields := tx.MemoFields()
	if len(fields) != 4 || fields[1] != "THOR.RUNE" || fields[2] != "thor1dest" || fields[3] != "12345" {
		t.Fatalf("unexpected memo fields: %v", fields)
	}
}

func TestTransactionGetAssetFromMemo(t *testing.T) {
	tx := NewTransaction(ChainBTC, "", "", nil, "SWAP:ETH.ETH")
	asset, ok := tx.GetAssetFromMemo()
	if !ok || asset.String() != "ETH.ETH" {
		t.Fatalf("GetAssetFromMemo() = %+v, %v", asset, ok)
	}

	noAsset := NewTransaction(ChainBTC, "", "", nil, "DONATE")
	if _, ok := noAsset.GetAssetFromMemo(); ok {
		t.Fatalf("expected no asset for bare DONATE memo")
	}
}

func TestTransactionIsRefundAndCrossChainProvision(t *testing.T) {
	refund := NewTransaction(ChainBTC, "", "", nil, "REFUND:abcd")
	if !refund.IsRefund() {
		t.Fatalf("expected IsRefund true")
	}

	crossChain := NewTransaction(ChainBNB, "", "", nil, "ADD:BTC.BTC:bc1counter")
	if !crossChain.IsCrossChainProvision() {
		t.Fatalf("expected cross-chain provision for mismatched inbound chain")
	}

	sameChain := NewTransaction(ChainBTC, "", "", nil, "ADD:BTC.BTC:bc1counter")
	if sameChain.IsCrossChainProvision() {
		t.Fatalf("same-chain add should not be a cross-chain provision")
	}
}

func TestCustomHashDeterministic(t *testing.T) {
	tx := NewTransaction(ChainBTC, "from", "to", Coins{{Asset: MustParseAsset("BTC.BTC"), Amount: One}}, "OUT:deadbeef")
	h1 := tx.CustomHash("vaultpubkey")
	h2 := tx.CustomHash("vaultpubkey")
	if h1 != h2 {
		t.Fatalf("CustomHash not deterministic: %s != %s", h1, h2)
	}
	if h3 := tx.CustomHash("other"); h3 == h1 {
		t.Fatalf("CustomHash should vary with vault pubkey")
	}
}

func TestTransactionEqualWildcardID(t *testing.T) {
	coins := Coins{{Asset: MustParseAsset("BTC.BTC"), Amount: One}}
	a := NewTransaction(ChainBTC, "x", "y", coins, "OUT:abcd")
	a.ID = TODOID
	b := a
	b.ID = "realtxhash0000000000000000000000000000000000000000000000000000"
	if !a.Equal(b) {
		t.Fatalf("expected wildcard TODOID to equal a concrete ID")
	}

	c := a
	c.ID = "concrete1111111111111111111111111111111111111111111111111111"
	d := c
	d.ID = "concrete2222222222222222222222222222222222222222222222222222"
	if c.Equal(d) {
		t.Fatalf("two distinct concrete IDs must not be equal")
	}
}
