package core

// Outbound fee and gas bookkeeping. handleFee deducts the outbound
// network fee from each outbound coin and emits a `fee` event;
// handleGas reconciles actually-spent on-chain gas back into the
// reserve and the paying pool once the harness observes it broadcast.

import (
	"fmt"
)

// outboundFeeMultiplier interpolates linearly between the configured
// [min,max] bps bounds based on the surplus of gas withheld from
// users over gas actually spent on their behalf.
func (s *ThorchainState) outboundFeeMultiplier() int64 {
	surplus := s.gasWithheldRune - s.gasSpentRune
	min, max, target := s.cfg.OutboundFeeMultiplierMin, s.cfg.OutboundFeeMultiplierMax, s.cfg.TargetSurplus
	if surplus <= 0 {
		return max
	}
	if surplus >= target || target == 0 {
		return min
	}
	share := surplus * (max - min) / target
	return max - share
}

// runeFeeForChain is the current outbound RUNE fee for txs destined at
// chain: the chain's network fee, scaled by the outbound fee
// multiplier, expressed in RUNE via that chain's gas-asset pool.
func (s *ThorchainState) runeFeeForChain(chain string) int64 {
	multiplier := s.outboundFeeMultiplier()
	assetFee := s.networkFee(chain) * multiplier / 10000
	if chain == s.RuneChain {
		return assetFee
	}
	pool := s.GetPool(Asset{Chain: chain, Symbol: chain})
	return pool.GetAssetInRune(assetFee)
}

// assetFeeForChain mirrors runeFeeForChain but in the chain's own gas
// asset units, used when the outbound coin already is that gas asset.
func (s *ThorchainState) assetFeeForChain(chain string) int64 {
	multiplier := s.outboundFeeMultiplier()
	return s.networkFee(chain) * multiplier / 10000
}

func isUTXOFamily(chain string) bool {
	switch chain {
	case ChainBTC, ChainBCH, ChainLTC, ChainDOGE:
		return true
	default:
		return false
	}
}

// handleFee deducts the outbound fee from each outbound coin, dropping
// outbounds that cannot cover their own fee, and emits one `fee` event
// per affected coin.
func (s *ThorchainState) handleFee(inTx Transaction, outbounds []Transaction) []Transaction {
	var survivors []Transaction
	anySurvived := false
	paidNative := true

	for _, out := range outbounds {
		if len(out.Coins) == 0 {
			continue
		}
		coin := out.Coins[0]
		chain := out.Chain

		if coin.Asset.IsRune() {
			runeFee := s.runeFeeForChain(chain)
			deduct := coin.Amount
			if deduct > runeFee {
				deduct = runeFee
			}
			remainder := coin.Amount - deduct
			if remainder <= 0 {
				continue
			}
			out.Coins = Coins{{Asset: coin.Asset, Amount: remainder}}
			out.Fee = deduct
			s.emit(NewEvent("fee",
				Attr("tx_id", out.ID),
				Attr("coins", out.Coins.String()),
				Attr("pool_deduct", "0"),
			))
			survivors = append(survivors, out)
			anySurvived = true
			paidNative = paidNative && coin.Asset.EffectiveChain() == ChainTHOR
			continue
		}

		pool := s.GetPool(coin.Asset)
		if pool.Status == PoolStaged {
			survivors = append(survivors, out)
			anySurvived = true
			paidNative = false
			continue
		}

		var assetFee int64
		if coin.Asset.IsGasAsset(chain) {
			assetFee = s.assetFeeForChain(chain)
		} else {
			assetFee = pool.GetRuneInAsset(s.runeFeeForChain(chain))
		}

		if coin.Amount <= assetFee {
			continue // swallowed: outbound cannot cover its own fee
		}

		remainder := coin.Amount - assetFee
		out.Coins = Coins{{Asset: coin.Asset, Amount: remainder}}

		runeDisbursed := pool.GetRuneDisbursementForAssetAdd(assetFee)
		if coin.Asset.IsSynth() {
			if err := pool.SubSynth(assetFee); err != nil {
				s.logger.Errorf("handle_fee: %v", err)
			}
		} else {
			pool.Add(0, assetFee)
		}
		if _, err := pool.Sub(runeDisbursed, 0); err != nil {
			s.logger.Errorf("handle_fee rune disbursement: %v", err)
		}

		if isUTXOFamily(chain) || chain == ChainGAIA {
			maxGas := int64(1.5 * float64(s.networkFee(chain)))
			out.MaxGas = Coins{{Asset: Asset{Chain: chain, Symbol: chain}, Amount: maxGas}}
		}

		s.emit(NewEvent("fee",
			Attr("tx_id", out.ID),
			Attr("coins", out.Coins.String()),
			Attr("pool_deduct", fmt.Sprint(runeDisbursed)),
		))
		survivors = append(survivors, out)
		anySurvived = true
		paidNative = false
	}

	if anySurvived {
		runeFee := s.runeFeeForChain(outbounds[0].Chain)
		s.reserve += runeFee
		if !paidNative {
			s.gasWithheldRune += runeFee
		}
	}

	return survivors
}

// HandleGas locks and reconciles asset's observed on-chain gas, for use
// by the replay harness's catch-up step — see handleGas.
func (s *ThorchainState) HandleGas(asset Asset, assetGasTotal int64, txCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handleGas(asset, assetGasTotal, txCount)
}

// handleGas is invoked by the replay harness once it observes the
// outbounds for asset actually broadcast on-chain, with the real
// per-transaction gas the chain charged. It folds the spent gas back
// from the reserve into the paying pool and tracks gas_spent_rune.
func (s *ThorchainState) handleGas(asset Asset, assetGasTotal int64, txCount int) {
	pool := s.GetPool(asset)
	runeAmt := pool.GetAssetInRune(assetGasTotal)

	s.reserve -= runeAmt
	pool.Add(runeAmt, 0)
	if _, err := pool.Sub(0, assetGasTotal); err != nil {
		s.logger.Errorf("handle_gas: %v", err)
	}
	if asset.EffectiveChain() != ChainTHOR {
		s.gasSpentRune += runeAmt
	}

	s.emit(NewEvent("gas",
		Attr("asset", asset.String()),
		Attr("asset_amt", fmt.Sprint(assetGasTotal)),
		Attr("rune_amt", fmt.Sprint(runeAmt)),
		Attr("transaction_count", fmt.Sprint(txCount)),
	))
}
