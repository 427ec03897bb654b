package core

// LiquidityProvider tracks one address's share of a Pool, including
// the half-provided state of a cross-chain deposit that has not yet
// seen its other leg arrive.

// LiquidityProvider is an entity holding pool units, possibly with a
// pending one-sided deposit.
type LiquidityProvider struct {
	RuneAddress  string
	AssetAddress string
	Units        int64

	PendingRune   int64
	PendingAsset  int64
	PendingTxID   string

	RuneDepositValue  int64
	AssetDepositValue int64
}

// FetchAddress returns whichever address identifies this LP: the RUNE
// side if present, else the asset side.
func (lp *LiquidityProvider) FetchAddress() string {
	if lp.RuneAddress != "" {
		return lp.RuneAddress
	}
	return lp.AssetAddress
}

// IsZero reports an LP with no units and no pending deposit.
func (lp *LiquidityProvider) IsZero() bool {
	return lp.Units == 0 && lp.PendingRune == 0 && lp.PendingAsset == 0
}

// Add accumulates units and deposit-value accounting for this LP.
func (lp *LiquidityProvider) Add(units, runeValue, assetValue int64) {
	lp.Units += units
	lp.RuneDepositValue += runeValue
	lp.AssetDepositValue += assetValue
}

// Sub removes units; a negative resulting balance is a fatal
// programming error — withdraw math must never request more units
// than an LP holds.
func (lp *LiquidityProvider) Sub(units int64) error {
	if units > lp.Units {
		return fatalf("withdraw units %d exceed LP units %d", units, lp.Units)
	}
	lp.Units -= units
	return nil
}
