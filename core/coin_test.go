package core

import "testing"

func TestNewCoinRejectsNegative(t *testing.T) {
	if _, err := NewCoin(MustParseAsset("BTC.BTC"), -1); err == nil {
		t.Fatalf("expected error for negative amount")
	}
}

func TestCoinQuantizeCosmos(t *testing.T) {
	c := Coin{Asset: MustParseAsset("GAIA.ATOM"), Amount: 123456}
	q := c.QuantizeCosmos()
	if q.Amount != 123400 {
		t.Fatalf("QuantizeCosmos() = %d, want 123400", q.Amount)
	}
}

func TestCoinsString(t *testing.T) {
	cs := Coins{
		{Asset: RuneAsset(ChainTHOR), Amount: One},
		{Asset: MustParseAsset("BTC.BTC"), Amount: 2 * One},
	}
	want := "100000000 THOR.RUNE, 200000000 BTC.BTC"
	if got := cs.String(); got != want {
		t.Fatalf("Coins.String() = %q, want %q", got, want)
	}
}

func TestCoinsGet(t *testing.T) {
	btc := MustParseAsset("BTC.BTC")
	cs := Coins{{Asset: btc, Amount: 42}}
	c, ok := cs.Get(btc)
	if !ok || c.Amount != 42 {
		t.Fatalf("Get() = %+v, %v", c, ok)
	}
	if _, ok := cs.Get(MustParseAsset("ETH.ETH")); ok {
		t.Fatalf("expected no match for unrelated asset")
	}
}

func TestCoinsSortedStableByAssetString(t *testing.T) {
	cs := Coins{
		{Asset: MustParseAsset("ETH.ETH"), Amount: 1},
		{Asset: MustParseAsset("BTC.BTC"), Amount: 2},
	}
	sorted := cs.Sorted()
	if sorted[0].Asset.String() != "BTC.BTC" || sorted[1].Asset.String() != "ETH.ETH" {
		t.Fatalf("unexpected sort order: %+v", sorted)
	}
}
