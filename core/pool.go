package core

// Pool is a constant-product market between RUNE and one other asset,
// plus its liquidity-provider book. A pool is created lazily on first
// reference and starts Staged; it becomes Available only through
// Promote, which add-liquidity calls when it mints the pool's first
// units, and is auto-demoted back to Staged the instant either side
// returns to zero.

import (
	"math"
)

// PoolStatus is the lifecycle state of a Pool.
type PoolStatus string

const (
	PoolStaged    PoolStatus = "staged"
	PoolAvailable PoolStatus = "available"
)

// Pool holds one asset's AMM state.
type Pool struct {
	Asset        Asset
	RuneBalance  int64
	AssetBalance int64
	SynthBalance int64
	LPUnits      int64
	Status       PoolStatus
	LPs          map[string]*LiquidityProvider
}

// NewPool constructs a lazily-created, Staged pool for asset.
func NewPool(asset Asset) *Pool {
	return &Pool{Asset: asset, Status: PoolStaged, LPs: make(map[string]*LiquidityProvider)}
}

// IsZero reports a pool with no balances on either side.
func (p *Pool) IsZero() bool {
	return p.RuneBalance == 0 && p.AssetBalance == 0 && p.SynthBalance == 0
}

// updateStatus demotes an Available pool back to Staged the instant
// either balance returns to zero; it never promotes (see Promote).
// Returns true if the status changed, so callers can decide whether to
// emit a `pool` event.
func (p *Pool) updateStatus() bool {
	before := p.Status
	switch {
	case p.Status == PoolAvailable && (p.RuneBalance == 0 || p.AssetBalance == 0):
		p.Status = PoolStaged
	case p.Status == PoolStaged && p.RuneBalance > 0 && p.AssetBalance > 0:
		// Promotion is driven explicitly by handle_add_liquidity (only an
		// add_liquidity with minted units promotes a pool), not by this
		// generic balance check — donate/swap/fee never promote a pool.
	}
	return p.Status != before
}

// Add credits both balances (used by donate and swap emission/input).
func (p *Pool) Add(runeAmt, assetAmt int64) bool {
	p.RuneBalance += runeAmt
	p.AssetBalance += assetAmt
	return p.updateStatus()
}

// Sub debits both balances; driving either below zero is a fatal
// invariant violation.
func (p *Pool) Sub(runeAmt, assetAmt int64) (bool, error) {
	if runeAmt > p.RuneBalance {
		return false, fatalf("pool %s: rune balance underflow (%d < %d)", p.Asset, p.RuneBalance, runeAmt)
	}
	if assetAmt > p.AssetBalance {
		return false, fatalf("pool %s: asset balance underflow (%d < %d)", p.Asset, p.AssetBalance, assetAmt)
	}
	p.RuneBalance -= runeAmt
	p.AssetBalance -= assetAmt
	return p.updateStatus(), nil
}

// AddSynth credits synth balance (minting a synth against the pool).
func (p *Pool) AddSynth(amt int64) { p.SynthBalance += amt }

// SubSynth debits synth balance (burning); underflow is fatal.
func (p *Pool) SubSynth(amt int64) error {
	if amt > p.SynthBalance {
		return fatalf("pool %s: synth balance underflow (%d < %d)", p.Asset, p.SynthBalance, amt)
	}
	p.SynthBalance -= amt
	return nil
}

// Promote marks the pool Available; called only by handle_add_liquidity
// the first time a pool mints non-zero LP units.
func (p *Pool) Promote() bool {
	if p.Status == PoolAvailable {
		return false
	}
	p.Status = PoolAvailable
	return true
}

// SynthUnits is lp_units·synth_balance / max(1, 2·asset_balance −
// synth_balance).
func (p *Pool) SynthUnits() int64 {
	if p.LPUnits == 0 || p.SynthBalance == 0 {
		return 0
	}
	denom := 2*p.AssetBalance - p.SynthBalance
	if denom < 1 {
		denom = 1
	}
	return int64(math.Floor(float64(p.LPUnits) * float64(p.SynthBalance) / float64(denom)))
}

// PoolUnits is lp_units + synth_units.
func (p *Pool) PoolUnits() int64 { return p.LPUnits + p.SynthUnits() }

// GetAssetInRune converts an asset-side value to its RUNE-side share:
// rune_balance·v / asset_balance.
func (p *Pool) GetAssetInRune(v int64) int64 {
	if p.AssetBalance == 0 {
		return 0
	}
	return int64(math.Floor(float64(p.RuneBalance) * float64(v) / float64(p.AssetBalance)))
}

// GetRuneInAsset converts a RUNE-side value to its asset-side share:
// asset_balance·v / rune_balance.
func (p *Pool) GetRuneInAsset(v int64) int64 {
	if p.RuneBalance == 0 {
		return 0
	}
	return int64(math.Floor(float64(p.AssetBalance) * float64(v) / float64(p.RuneBalance)))
}

// GetRuneDisbursementForAssetAdd converts an asset amount into the
// RUNE that would leave the pool if that amount were swapped in,
// rune_balance·a / (asset_balance + a) floored, clamped to the pool's
// current RUNE balance (used by handle_fee when converting a deducted
// asset-side fee into RUNE).
func (p *Pool) GetRuneDisbursementForAssetAdd(assetAmt int64) int64 {
	if p.AssetBalance+assetAmt == 0 {
		return 0
	}
	v := int64(math.Floor(float64(p.RuneBalance) * float64(assetAmt) / float64(p.AssetBalance+assetAmt)))
	if v > p.RuneBalance {
		return p.RuneBalance
	}
	return v
}

// GetOrCreateLiquidityProvider returns the LP keyed by address,
// creating an empty one if absent.
func (p *Pool) GetOrCreateLiquidityProvider(key string) *LiquidityProvider {
	lp, ok := p.LPs[key]
	if !ok {
		lp = &LiquidityProvider{}
		p.LPs[key] = lp
	}
	return lp
}

// GetLiquidityProvider looks up an LP by address without creating one.
func (p *Pool) GetLiquidityProvider(key string) (*LiquidityProvider, bool) {
	lp, ok := p.LPs[key]
	return lp, ok
}

// AddLiquidity folds a (possibly one-sided) deposit into the named LP.
// Only once both a RUNE-side and asset-side amount are present
// (accumulated across calls via the LP's pending_* fields) are units
// minted; until then the deposit is recorded as pending and zero
// units are returned. key identifies the LP (RUNE address wins when
// both are supplied, per the spec's "first address supplied" rule —
// callers pass the key they have already resolved).
func (p *Pool) AddLiquidity(key, runeAddr, assetAddr string, runeAmt, assetAmt int64, txID string) (units, runeCredited, assetCredited int64, pending bool) {
	lp := p.GetOrCreateLiquidityProvider(key)
	if runeAddr != "" {
		lp.RuneAddress = runeAddr
	}
	if assetAddr != "" {
		lp.AssetAddress = assetAddr
	}

	r := lp.PendingRune + runeAmt
	a := lp.PendingAsset + assetAmt

	if r == 0 || a == 0 {
		lp.PendingRune = r
		lp.PendingAsset = a
		lp.PendingTxID = txID
		return 0, runeAmt, assetAmt, true
	}

	R, A, P := p.RuneBalance, p.AssetBalance, p.PoolUnits()
	if R == 0 || A == 0 || P == 0 {
		units = r
	} else {
		num := float64(r)*float64(A) + float64(a)*float64(R) + 2*float64(r)*float64(a)
		den := float64(r)*float64(A) + float64(a)*float64(R) + 2*float64(R)*float64(A)
		units = int64(math.Floor(float64(P) * num / den))
	}

	p.LPUnits += units
	p.RuneBalance += r
	p.AssetBalance += a
	lp.Add(units, r, a)
	lp.PendingRune = 0
	lp.PendingAsset = 0
	lp.PendingTxID = ""

	return units, r, a, false
}

// Withdraw removes bps/10000 of the LP's share of the pool, proportional
// to pool_units. bps must be in [0, 10000].
func (p *Pool) Withdraw(key string, bps int64) (unitsRemoved, runeOut, assetOut int64, err error) {
	if bps < 0 || bps > 10000 {
		return 0, 0, 0, fatalf("withdraw basis points %d out of range [0,10000]", bps)
	}
	lp, ok := p.LPs[key]
	if !ok {
		return 0, 0, 0, fatalf("withdraw from unknown liquidity provider %q", key)
	}
	total := p.PoolUnits()
	if total == 0 {
		return 0, 0, 0, nil
	}
	unitsRemoved = int64(math.Floor(float64(lp.Units) * float64(bps) / 10000))
	runeOut = int64(math.Floor(float64(p.RuneBalance) * float64(unitsRemoved) / float64(total)))
	assetOut = int64(math.Floor(float64(p.AssetBalance) * float64(unitsRemoved) / float64(total)))

	p.RuneBalance -= runeOut
	p.AssetBalance -= assetOut
	p.LPUnits -= unitsRemoved
	if err := lp.Sub(unitsRemoved); err != nil {
		return 0, 0, 0, err
	}
	p.updateStatus()
	return unitsRemoved, runeOut, assetOut, nil
}
