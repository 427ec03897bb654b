package core

// Coin is an (asset, amount) pair in base units. One unit is 1e-8 of
// the asset for most chains; Cosmos-family chains quantize amounts to
// multiples of CosmosQuantization throughout.

import (
	"fmt"
	"sort"
	"strings"
)

// One is the base-unit scale used by most chains (1 asset = 1e8 units).
const One int64 = 100_000_000

// CosmosQuantization is the truncation step Cosmos-family chain
// amounts are rounded down to.
const CosmosQuantization int64 = 100

// Coin is a non-negative integer amount of an asset.
type Coin struct {
	Asset  Asset
	Amount int64
}

// NewCoin constructs a Coin, rejecting negative amounts.
func NewCoin(asset Asset, amount int64) (Coin, error) {
	if amount < 0 {
		return Coin{}, fmt.Errorf("negative coin amount %d for %s", amount, asset)
	}
	return Coin{Asset: asset, Amount: amount}, nil
}

// IsRune reports whether this coin's asset is a RUNE asset.
func (c Coin) IsRune() bool { return c.Asset.IsRune() }

// IsZero reports a zero-amount coin.
func (c Coin) IsZero() bool { return c.Amount == 0 }

// Add returns the sum of two coins of the same asset.
func (c Coin) Add(o Coin) Coin {
	return Coin{Asset: c.Asset, Amount: c.Amount + o.Amount}
}

// Sub returns c minus o, clamped at zero (callers enforce underflow
// fatality at the Pool level, not here).
func (c Coin) Sub(o Coin) Coin {
	amt := c.Amount - o.Amount
	if amt < 0 {
		amt = 0
	}
	return Coin{Asset: c.Asset, Amount: amt}
}

// QuantizeCosmos truncates the amount down to the nearest multiple of
// CosmosQuantization, as Cosmos-family chains require.
func (c Coin) QuantizeCosmos() Coin {
	return Coin{Asset: c.Asset, Amount: (c.Amount / CosmosQuantization) * CosmosQuantization}
}

// String renders "<amount> <asset>", the wire form used inside memos
// and custom_hash inputs.
func (c Coin) String() string {
	return fmt.Sprintf("%d %s", c.Amount, c.Asset.String())
}

// Coins is an ordered list of Coin.
type Coins []Coin

// String renders coins comma-joined, matching the live node's
// `coins-string` format used by Transaction.custom_hash.
func (cs Coins) String() string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

// Get returns the coin matching asset, if any.
func (cs Coins) Get(asset Asset) (Coin, bool) {
	for _, c := range cs {
		if c.Asset.Equal(asset) {
			return c, true
		}
	}
	return Coin{}, false
}

// Sorted returns a copy of cs sorted by asset string, used wherever
// deterministic iteration order matters (e.g. the order-insensitive
// coin comparison in Transaction.Equal).
func (cs Coins) Sorted() Coins {
	out := make(Coins, len(cs))
	copy(out, cs)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Asset.String() < out[j].Asset.String()
	})
	return out
}
