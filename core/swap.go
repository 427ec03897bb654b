package core

// Swap math: constant-product emission, liquidity fee, and slip for a
// single leg. Synth legs use a doubled pool depth (synth_multiplier)
// on the synth's side of the trade, matching the live node's synth
// virtual-pool treatment.

import "math"

// SwapLeg is the result of executing one constant-product leg.
type SwapLeg struct {
	EmissionOut   int64
	LiquidityFee  int64 // expressed in the output asset's units
	LiquidityFeeRune int64
	SwapSlipBps   int64
}

// calcAssetEmission computes y = x·X·Y / (x+X)^2, floored.
func calcAssetEmission(x, X, Y float64) int64 {
	if x+X == 0 {
		return 0
	}
	return int64(math.Floor(x * X * Y / ((x + X) * (x + X))))
}

// calcLiquidityFee computes x^2·Y / (x+X)^2, floored.
func calcLiquidityFee(x, X, Y float64) int64 {
	if x+X == 0 {
		return 0
	}
	return int64(math.Floor(x * x * Y / ((x + X) * (x + X))))
}

// calcSwapSlip computes round(10000·x / (X+x)) basis points.
func calcSwapSlip(x, X float64) int64 {
	if X+x == 0 {
		return 0
	}
	return int64(math.Round(10000 * x / (X + x)))
}

// swapOneSide executes a single constant-product leg from a pool's
// perspective: amountIn of the pool's "in" side, Xin/Yout are the
// pre-trade depths of the in/out sides respectively (already doubled
// by synth_multiplier by the caller when either leg is a synth).
// cosmosQuantize truncates emission/fee to multiples of 100 for
// Cosmos-family output chains.
func swapOneSide(amountIn, xIn, yOut int64, cosmosQuantize bool) SwapLeg {
	x, X, Y := float64(amountIn), float64(xIn), float64(yOut)
	emission := calcAssetEmission(x, X, Y)
	fee := calcLiquidityFee(x, X, Y)
	slip := calcSwapSlip(x, X)
	if cosmosQuantize {
		emission = (emission / CosmosQuantization) * CosmosQuantization
		fee = (fee / CosmosQuantization) * CosmosQuantization
	}
	return SwapLeg{EmissionOut: emission, LiquidityFee: fee, SwapSlipBps: slip}
}
