package core

// Block reward distribution: split the reserve's per-block emission
// plus the accumulated swap-fee pot between bonded node operators and
// liquidity providers, proportional to bonded vs pooled RUNE.

import (
	"fmt"
	"math"
)

// SetTotalBonded records the network's total bonded RUNE, as reported
// by the live node (the simulator has no validator-bonding model of
// its own — spec §1 Non-goals).
func (s *ThorchainState) SetTotalBonded(bonded int64) { s.totalBonded = bonded }

func (s *ThorchainState) totalLiquidity() int64 {
	var total int64
	for _, p := range s.pools {
		total += p.RuneBalance
	}
	return total
}

func (s *ThorchainState) totalLiquidityFees() int64 {
	var total int64
	for _, v := range s.liquidity {
		total += v
	}
	return total
}

// roundRune rounds half away from zero, matching the original
// reference implementation's round() behavior for the always-positive
// values these formulas produce.
func roundRune(x float64) int64 { return int64(math.Round(x)) }

// HandleRewards runs the per-block reward distribution. It is a no-op
// (aborts silently) if the reserve cannot cover the computed payout —
// that is an expected steady-state condition, not an error.
func (s *ThorchainState) HandleRewards() {
	s.mu.Lock()
	defer s.mu.Unlock()

	blockRewards := roundRune(float64(s.reserve) / float64(s.cfg.EmissionCurve) / float64(s.cfg.BlocksPerYear))
	liquidityFees := s.totalLiquidityFees()
	systemIncome := blockRewards + liquidityFees

	totalLiquidity := s.totalLiquidity()
	var lpSplit int64
	if totalLiquidity < s.totalBonded {
		denom := float64(s.totalBonded+totalLiquidity) / float64(s.totalBonded)
		lpSplit = roundRune(float64(systemIncome) / denom)
	}

	bondReward := systemIncome - lpSplit
	poolReward := lpSplit - liquidityFees
	if poolReward < 0 {
		poolReward = 0
	}
	lpDeficit := liquidityFees - lpSplit
	if lpDeficit < 0 {
		lpDeficit = 0
	}

	if s.reserve < bondReward+poolReward {
		return
	}

	s.reserve -= bondReward
	s.bondReward += bondReward

	attrs := []Attribute{Attr("bond_reward", fmt.Sprint(bondReward))}

	if poolReward > 0 && liquidityFees > 0 {
		for key, fee := range s.liquidity {
			share := roundRune(float64(poolReward) * float64(fee) / float64(liquidityFees))
			pool := s.pools[key]
			pool.Add(share, 0)
			s.reserve -= share
			attrs = append(attrs, Attr(key, fmt.Sprint(share)))
		}
	} else if lpDeficit > 0 && liquidityFees > 0 {
		for key, fee := range s.liquidity {
			share := roundRune(float64(lpDeficit) * float64(fee) / float64(liquidityFees))
			pool := s.pools[key]
			if _, err := pool.Sub(share, 0); err != nil {
				s.logger.Errorf("handle_rewards debit: %v", err)
				continue
			}
			s.reserve += share
			attrs = append(attrs, Attr(key, fmt.Sprint(-share)))
		}
	}

	s.emit(NewEvent("rewards", attrs...))
	s.liquidity = make(map[string]int64)
}
