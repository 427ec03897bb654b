package core

// Config holds the settlement engine's tunable constants (spec §6).
// The formulas that consume them are fixed; only these values are
// meant to vary between deployments, and they are overridable from
// pkg/config.Config at process start.

// EstimateSize is the per-chain transaction size estimate used by
// handle_fee's outbound gas adjustment (in bytes, min/max observed).
type EstimateSize struct {
	Min int
	Max int
}

// Config is the full set of configurable constants.
type Config struct {
	RuneFee               int64
	SynthMultiplier       int64
	TargetSurplus         int64
	OutboundFeeMultiplierMin int64
	OutboundFeeMultiplierMax int64
	EmissionCurve         int64
	BlocksPerYear         int64
	CosmosQuantization    int64
	EstimateSizes         map[string]EstimateSize
}

// DefaultConfig returns the spec's literal default constants.
func DefaultConfig() Config {
	return Config{
		RuneFee:                  2_000_000,
		SynthMultiplier:          2,
		TargetSurplus:            10_000 * 100_000_000,
		OutboundFeeMultiplierMin: 15_000,
		OutboundFeeMultiplierMax: 20_000,
		EmissionCurve:            6,
		BlocksPerYear:            5_256_000,
		CosmosQuantization:       CosmosQuantization,
		EstimateSizes: map[string]EstimateSize{
			ChainBTC:  {Min: 188, Max: 255},
			ChainBCH:  {Min: 269, Max: 417},
			ChainLTC:  {Min: 188, Max: 255},
			ChainDOGE: {Min: 269, Max: 417},
			ChainGAIA: {Min: 1, Max: 1},
		},
	}
}
