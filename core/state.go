package core

// ThorchainState is the settlement engine's single mutable core: pools,
// the event log, the reserve, and the per-block bookkeeping that
// rewards/gas/fee handling needs. It is single-threaded by contract —
// Handle is called serially by the replay harness, never concurrently.
// The exported entry points Handle, HandleGas and HandleRewards each
// additionally hold the state's mutex for the duration of the call.
//
// Build-graph: depends on the other core value types (Asset, Coin,
// Transaction, Event, Pool, LiquidityProvider), logrus for logging, and
// (through errors.go) pkg/utils for error wrapping.

import (
	"fmt"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
)

//---------------------------------------------------------------------
// State & construction
//---------------------------------------------------------------------

// ThorchainState is the global settlement engine.
type ThorchainState struct {
	logger *log.Logger
	cfg    Config

	// RuneChain is the chain RUNE natively settles on for this run
	// ("THOR" for native rune deployments, a legacy chain code like
	// "BNB" for BEP-2 rune).
	RuneChain string

	mu sync.Mutex

	pools        map[string]*Pool
	events       EventLog
	reserve      int64
	liquidity    map[string]int64 // pool asset string -> accumulated swap-fee rune this block
	totalBonded  int64
	bondReward   int64
	vaultPubkey  string
	networkFees  map[string]int64
	txRates      map[string]int64
	estimateSize map[string]EstimateSize

	gasSpentRune    int64
	gasWithheldRune int64
}

var (
	stateOnce sync.Once
	stateMgr  *ThorchainState
)

// InitThorchainState constructs the singleton engine instance, mirroring
// the teacher's InitAMM(lg, ledger) singleton-manager idiom.
func InitThorchainState(lg *log.Logger, cfg Config, runeChain string) {
	stateOnce.Do(func() {
		stateMgr = NewThorchainState(lg, cfg, runeChain)
	})
}

// StateManager returns the singleton engine instance.
func StateManager() *ThorchainState { return stateMgr }

// NewThorchainState builds a fresh, independent engine — used directly
// by tests that need isolated state rather than the process singleton.
func NewThorchainState(lg *log.Logger, cfg Config, runeChain string) *ThorchainState {
	if lg == nil {
		lg = log.New()
	}
	return &ThorchainState{
		logger:       lg,
		cfg:          cfg,
		RuneChain:    runeChain,
		pools:        make(map[string]*Pool),
		liquidity:    make(map[string]int64),
		networkFees:  make(map[string]int64),
		txRates:      make(map[string]int64),
		estimateSize: cfg.EstimateSizes,
	}
}

//---------------------------------------------------------------------
// Accessors
//---------------------------------------------------------------------

// RuneAsset returns this engine's native RUNE asset.
func (s *ThorchainState) RuneAsset() Asset { return RuneAsset(s.RuneChain) }

// GetPool returns the pool for asset, creating it Staged if absent.
// Synth assets resolve to their layer-1 pool.
func (s *ThorchainState) GetPool(asset Asset) *Pool {
	key := asset.GetLayer1Asset().String()
	p, ok := s.pools[key]
	if !ok {
		p = NewPool(asset.GetLayer1Asset())
		s.pools[key] = p
	}
	return p
}

// HasPool reports whether a pool already exists for asset without
// creating one.
func (s *ThorchainState) HasPool(asset Asset) bool {
	_, ok := s.pools[asset.GetLayer1Asset().String()]
	return ok
}

// Pools returns all pools keyed by asset string, for the replay
// harness's pool-state comparison.
func (s *ThorchainState) Pools() map[string]*Pool { return s.pools }

// Reserve returns the current reserve balance, in RUNE.
func (s *ThorchainState) Reserve() int64 { return s.reserve }

// Events returns the full ordered event log.
func (s *ThorchainState) Events() []Event { return s.events.All() }

// EventsSince returns the events from index from onward, i.e. those
// appended after the first from events.
func (s *ThorchainState) EventsSince(from int) []Event { return s.events.Since(from) }

// SetVaultPubkey registers the active asgard vault's pubkey, used by
// CustomHash outbound ordering.
func (s *ThorchainState) SetVaultPubkey(pk string) { s.vaultPubkey = pk }

// SetNetworkFee records the current per-chain network fee estimate, as
// reported asynchronously by a chain's background scanner.
func (s *ThorchainState) SetNetworkFee(chain string, fee int64) { s.networkFees[chain] = fee }

func (s *ThorchainState) networkFee(chain string) int64 { return s.networkFees[chain] }

func (s *ThorchainState) emit(e Event) { s.events.Append(e) }

//---------------------------------------------------------------------
// Top-level dispatch
//---------------------------------------------------------------------

// Handle dispatches tx by its memo prefix and returns the resulting
// outbound transactions. Recoverable protocol errors never propagate;
// they become a refund outbound list. Fatal errors (invariant
// violations) propagate to the caller, which must abort.
func (s *ThorchainState) Handle(tx Transaction) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.Chain == s.RuneChain {
		s.reserve += s.cfg.RuneFee
	}

	switch tx.MemoPrefix() {
	case "ADD":
		return s.handleAddLiquidity(tx)
	case "DONATE":
		return s.handleDonate(tx)
	case "WITHDRAW":
		return s.handleWithdraw(tx)
	case "SWAP":
		return s.handleSwap(tx)
	case "RESERVE":
		return s.handleReserve(tx)
	default:
		return s.doRefund(tx, refund(CodeInvalidMemo, "invalid memo"))
	}
}

//---------------------------------------------------------------------
// Donate / Reserve
//---------------------------------------------------------------------

func (s *ThorchainState) handleDonate(tx Transaction) ([]Transaction, error) {
	asset, ok := tx.GetAssetFromMemo()
	if !ok {
		return s.doRefund(tx, refund(CodeInvalidMemo, "invalid donate memo"))
	}
	pool := s.GetPool(asset)
	var runeAmt, assetAmt int64
	for _, c := range tx.Coins {
		if c.Asset.IsRune() {
			runeAmt += c.Amount
		} else {
			assetAmt += c.Amount
		}
	}
	pool.Add(runeAmt, assetAmt)
	s.emit(NewEvent("donate",
		Attr("pool", pool.Asset.String()),
		Attr("rune_amount", fmt.Sprint(runeAmt)),
		Attr("asset_amount", fmt.Sprint(assetAmt)),
		Attr("id", tx.ID),
		Attr("chain", tx.Chain),
		Attr("from", tx.From),
		Attr("to", tx.To),
		Attr("memo", tx.Memo),
	))
	return nil, nil
}

func (s *ThorchainState) handleReserve(tx Transaction) ([]Transaction, error) {
	var runeAmt int64
	for _, c := range tx.Coins {
		if c.Asset.IsRune() {
			runeAmt += c.Amount
		}
	}
	s.reserve += runeAmt
	s.emit(NewEvent("reserve",
		Attr("contributor_address", tx.From),
		Attr("amount", fmt.Sprint(runeAmt)),
		Attr("id", tx.ID),
		Attr("chain", tx.Chain),
		Attr("from", tx.From),
		Attr("to", tx.To),
		Attr("memo", tx.Memo),
	))
	return nil, nil
}

//---------------------------------------------------------------------
// Add liquidity
//---------------------------------------------------------------------

func (s *ThorchainState) handleAddLiquidity(tx Transaction) ([]Transaction, error) {
	fields := tx.MemoFields()
	if len(fields) < 2 || fields[1] == "" {
		return s.doRefund(tx, refund(CodeInvalidMemo, "invalid add liquidity memo"))
	}
	asset, err := ParseAsset(fields[1])
	if err != nil {
		return s.doRefund(tx, refund(CodeInvalidMemo, "invalid asset in memo"))
	}
	if asset.IsRune() {
		return s.doRefund(tx, refund(CodeInvalidMemo, "rune is not a valid add-liquidity asset"))
	}
	if asset.IsSynth() {
		return s.doRefund(tx, refund(CodeInvariantViolation, "synth asset is not a valid add-liquidity asset"))
	}
	if len(tx.Coins) > 2 {
		return s.doRefund(tx, refund(CodeInvalidMemo, "not expecting more than two coins in add liquidity"))
	}
	for _, c := range tx.Coins {
		if !c.Asset.IsRune() && !c.Asset.Equal(asset) {
			return s.doRefund(tx, refund(CodeInvalidMemo, "coin asset does not match memo asset"))
		}
	}

	var runeAmt, assetAmt int64
	for _, c := range tx.Coins {
		if c.Asset.IsRune() {
			runeAmt += c.Amount
		} else {
			assetAmt += c.Amount
		}
	}

	counterAddr := ""
	if len(fields) > 2 {
		counterAddr = fields[2]
	}

	var runeAddr, assetAddr string
	if tx.Chain == s.RuneChain {
		runeAddr = tx.From
		assetAddr = counterAddr
	} else {
		assetAddr = tx.From
		runeAddr = counterAddr
	}

	pool := s.GetPool(asset)
	key := runeAddr
	if key == "" {
		key = assetAddr
	}
	if existing, ok := pool.GetLiquidityProvider(key); ok {
		if assetAddr != "" && existing.AssetAddress != "" && existing.AssetAddress != assetAddr {
			return s.doRefund(tx, refund(CodeAddressMismatch, "mismatch of asset address"))
		}
	}

	wasZeroUnits := pool.LPUnits == 0
	units, runeCredited, assetCredited, pending := pool.AddLiquidity(key, runeAddr, assetAddr, runeAmt, assetAmt, tx.ID)

	if pending {
		s.emit(NewEvent("pending_liquidity",
			Attr("pool", pool.Asset.String()),
			Attr("rune_address", runeAddr),
			Attr("asset_address", assetAddr),
			Attr("rune_amount", fmt.Sprint(runeCredited)),
			Attr("asset_amount", fmt.Sprint(assetCredited)),
			Attr("type", "add"),
			Attr("id", tx.ID),
		))
		return nil, nil
	}

	if wasZeroUnits && units > 0 {
		if pool.Promote() {
			s.emit(NewEvent("pool",
				Attr("pool", pool.Asset.String()),
				Attr("pool_status", string(PoolAvailable)),
			))
		}
	}

	s.emit(NewEvent("add_liquidity",
		Attr("pool", pool.Asset.String()),
		Attr("liquidity_provider_units", fmt.Sprint(units)),
		Attr("rune_address", runeAddr),
		Attr("asset_address", assetAddr),
		Attr("rune_amount", fmt.Sprint(runeCredited)),
		Attr("asset_amount", fmt.Sprint(assetCredited)),
		Attr("id", tx.ID),
		Attr("chain", tx.Chain),
		Attr("from", tx.From),
		Attr("to", tx.To),
		Attr("memo", tx.Memo),
	))
	return nil, nil
}

//---------------------------------------------------------------------
// Withdraw
//---------------------------------------------------------------------

func (s *ThorchainState) handleWithdraw(tx Transaction) ([]Transaction, error) {
	fields := tx.MemoFields()
	if len(fields) < 2 || fields[1] == "" {
		return s.doRefund(tx, refund(CodeInvalidMemo, "invalid withdraw memo"))
	}
	asset, err := ParseAsset(fields[1])
	if err != nil {
		return s.doRefund(tx, refund(CodeInvalidMemo, "invalid asset in memo"))
	}
	bps := int64(10000)
	if len(fields) > 2 && fields[2] != "" {
		fmt.Sscanf(fields[2], "%d", &bps)
	}

	pool := s.GetPool(asset)
	key := tx.From
	lp, ok := pool.GetLiquidityProvider(key)
	if !ok || lp.Units == 0 {
		return s.doRefund(tx, refund(CodeInvalidMemo, "no liquidity units to withdraw"))
	}

	var runeInbound int64
	for _, c := range tx.Coins {
		if c.Asset.IsRune() {
			runeInbound += c.Amount
		}
	}
	s.reserve += runeInbound

	unitsRemoved, runeOut, assetOut, err := pool.Withdraw(key, bps)
	if err != nil {
		return nil, err
	}

	if asset.IsGAIA() {
		assetOut = (assetOut / CosmosQuantization) * CosmosQuantization
	}

	lastLP := lp.Units == 0
	if lastLP {
		gasDust := s.networkFee(asset.EffectiveChain())
		if gasDust > 0 && assetOut > gasDust {
			assetOut -= gasDust
		}
	}

	var outbounds []Transaction
	if runeOut > 0 {
		outbounds = append(outbounds, NewTransaction(s.RuneChain, "", tx.From,
			Coins{{Asset: s.RuneAsset(), Amount: runeOut}}, "OUT:"+tx.ID))
	}
	if assetOut > 0 {
		outbounds = append(outbounds, NewTransaction(asset.EffectiveChain(), "", tx.From,
			Coins{{Asset: asset, Amount: assetOut}}, "OUT:"+tx.ID))
	}

	s.emit(NewEvent("withdraw",
		Attr("pool", pool.Asset.String()),
		Attr("liquidity_provider_units", fmt.Sprint(unitsRemoved)),
		Attr("basis_points", fmt.Sprint(bps)),
		Attr("asymmetry", "0"),
		Attr("emit_asset", fmt.Sprint(assetOut)),
		Attr("emit_rune", fmt.Sprint(runeOut)),
		Attr("id", tx.ID),
		Attr("chain", tx.Chain),
		Attr("from", tx.From),
		Attr("to", tx.To),
		Attr("memo", tx.Memo),
	))

	outbounds = s.handleFee(tx, outbounds)
	return s.orderOutbound(outbounds), nil
}

//---------------------------------------------------------------------
// Swap
//---------------------------------------------------------------------

func addressLooksLikeChain(addr, chain string) bool {
	if addr == "" {
		return true
	}
	switch chain {
	case ChainTHOR:
		return len(addr) >= 4 && addr[:4] == "thor"
	case ChainBTC:
		return len(addr) > 0 && (addr[0] == 'b' || addr[0] == '1' || addr[0] == '3')
	case ChainETH:
		return len(addr) >= 2 && addr[:2] == "0x"
	default:
		return true
	}
}

func (s *ThorchainState) handleSwap(tx Transaction) ([]Transaction, error) {
	fields := tx.MemoFields()
	if len(fields) < 2 || fields[1] == "" {
		return s.doRefund(tx, refund(CodeInvalidMemo, "invalid swap memo"))
	}
	if len(tx.Coins) != 1 {
		return s.doRefund(tx, refund(CodeInvalidMemo, "not expecting multiple coins in a swap"))
	}
	target, err := ParseAsset(fields[1])
	if err != nil {
		return s.doRefund(tx, refund(CodeInvalidMemo, "invalid target asset"))
	}
	source := tx.Coins[0].Asset
	if source.Equal(target) {
		return s.doRefund(tx, refund(CodeInvalidMemo, "source and target are the same asset"))
	}

	destAddr := ""
	if len(fields) > 2 {
		destAddr = fields[2]
	}
	targetChain := target.EffectiveChain()
	if destAddr != "" && !addressLooksLikeChain(destAddr, targetChain) {
		return s.doRefund(tx, refund(CodeInvalidMemo, fmt.Sprintf("%s is not recognizable", destAddr)))
	}
	if (targetChain == ChainTHOR) && !target.IsRune() && !target.IsSynth() {
		return s.doRefund(tx, refund(CodeInvalidMemo, "destination requires a synth or rune target"))
	}

	if !target.IsRune() && !s.HasPool(target) {
		return s.doRefund(tx, refund(CodeNoPool, fmt.Sprintf("%s pool doesn't exist", target.GetLayer1Asset())))
	}
	if !source.IsRune() && !s.HasPool(source) {
		return s.doRefund(tx, refund(CodeNoPool, fmt.Sprintf("%s pool doesn't exist", source.GetLayer1Asset())))
	}

	amountIn := tx.Coins[0].Amount
	if source.IsRune() && amountIn <= s.networkFee(targetChain) {
		return s.doRefund(tx, refund(CodeNoPool, "not enough fee"))
	}

	var targetTrade int64
	if len(fields) > 3 && fields[3] != "" {
		fmt.Sscanf(fields[3], "%d", &targetTrade)
	}

	var outbounds []Transaction

	if !source.IsRune() && !target.IsRune() {
		// Double swap via RUNE: source -> RUNE -> target, with a fake
		// intermediate outbound event (id = EmptyID) mirroring the live
		// node's two-leg streaming shape.
		leg1Out, leg1Refund := s.swap(source, s.RuneAsset(), amountIn, tx, 0)
		if leg1Refund != nil {
			return s.doRefund(tx, *leg1Refund)
		}
		if leg1Out <= s.cfg.RuneFee {
			return s.doRefund(tx, refund(CodeNoPool, "not enough fee"))
		}
		s.emit(NewEvent("outbound",
			Attr("in_tx_id", tx.ID),
			Attr("id", EmptyID),
			Attr("chain", s.RuneChain),
			Attr("from", tx.From),
			Attr("to", destAddr),
			Attr("coin", fmt.Sprintf("%d %s", leg1Out, s.RuneAsset())),
			Attr("memo", "SWAP:"+target.String()),
		))
		leg2Out, leg2Refund := s.swap(s.RuneAsset(), target, leg1Out, tx, targetTrade)
		if leg2Refund != nil {
			return s.doRefund(tx, *leg2Refund)
		}
		if leg2Out > 0 {
			outbounds = append(outbounds, NewTransaction(targetChain, "", destOrFrom(destAddr, tx.From),
				Coins{{Asset: target, Amount: leg2Out}}, "OUT:"+tx.ID))
		}
	} else {
		amountOut, legRefund := s.swap(source, target, amountIn, tx, targetTrade)
		if legRefund != nil {
			return s.doRefund(tx, *legRefund)
		}
		if amountOut > 0 {
			outbounds = append(outbounds, NewTransaction(targetChain, "", destOrFrom(destAddr, tx.From),
				Coins{{Asset: target, Amount: amountOut}}, "OUT:"+tx.ID))
		}
	}

	outbounds = s.handleFee(tx, outbounds)
	return s.orderOutbound(outbounds), nil
}

func destOrFrom(dest, from string) string {
	if dest != "" {
		return dest
	}
	return from
}

// swap executes one constant-product leg between `from` and `to`,
// mutating the relevant pool and emitting a `swap` event. Returns a
// non-nil *RefundReason if a price-limit guard fires; the caller is
// responsible for turning that into a full refund.
func (s *ThorchainState) swap(from, to Asset, amountIn int64, inTx Transaction, tradeTarget int64) (int64, *RefundReason) {
	var pool *Pool
	var fromIsRune bool
	if from.IsRune() {
		pool = s.GetPool(to)
		fromIsRune = true
	} else {
		pool = s.GetPool(from)
		fromIsRune = false
	}

	doubling := int64(1)
	if from.IsSynth() || to.IsSynth() {
		doubling = s.cfg.SynthMultiplier
	}

	var xIn, yOut int64
	if fromIsRune {
		xIn, yOut = pool.RuneBalance, pool.AssetBalance*doubling
	} else {
		xIn, yOut = pool.AssetBalance*doubling, pool.RuneBalance
	}

	cosmosQuantize := to.EffectiveChain() == ChainGAIA
	leg := swapOneSide(amountIn, xIn, yOut, cosmosQuantize)

	if tradeTarget > 0 && leg.EmissionOut < tradeTarget {
		r := refund(CodeNoPool, fmt.Sprintf("emit asset %d less than price limit %d", leg.EmissionOut, tradeTarget))
		return 0, &r
	}
	if leg.EmissionOut == 0 {
		return 0, nil
	}

	var liquidityFeeRune int64
	if fromIsRune {
		// leg.LiquidityFee is denominated in the output (asset) side
		// here, since Y was the asset depth; convert to its rune value.
		liquidityFeeRune = pool.GetAssetInRune(leg.LiquidityFee)
		if to.IsSynth() {
			pool.Add(amountIn, 0)
			pool.AddSynth(leg.EmissionOut)
		} else {
			pool.Add(amountIn, 0)
			if _, err := pool.Sub(0, leg.EmissionOut); err != nil {
				s.logger.Errorf("swap: %v", err)
			}
		}
	} else {
		// leg.LiquidityFee is already denominated in rune here, since Y
		// was the rune depth.
		liquidityFeeRune = leg.LiquidityFee
		if from.IsSynth() {
			if err := pool.SubSynth(amountIn); err != nil {
				s.logger.Errorf("swap: %v", err)
			}
		} else {
			pool.Add(0, amountIn)
		}
		if _, err := pool.Sub(leg.EmissionOut, 0); err != nil {
			s.logger.Errorf("swap: %v", err)
		}
	}

	s.liquidity[pool.Asset.String()] += liquidityFeeRune

	s.emit(NewEvent("swap",
		Attr("pool", pool.Asset.String()),
		Attr("swap_target", fmt.Sprint(tradeTarget)),
		Attr("swap_slip", fmt.Sprint(leg.SwapSlipBps)),
		Attr("liquidity_fee", fmt.Sprint(leg.LiquidityFee)),
		Attr("liquidity_fee_in_rune", fmt.Sprint(liquidityFeeRune)),
		Attr("id", inTx.ID),
		Attr("chain", inTx.Chain),
		Attr("from", inTx.From),
		Attr("to", inTx.To),
		Attr("memo", inTx.Memo),
	))

	return leg.EmissionOut, nil
}

//---------------------------------------------------------------------
// Refund
//---------------------------------------------------------------------

func (s *ThorchainState) doRefund(tx Transaction, reason RefundReason) ([]Transaction, error) {
	var outbounds []Transaction
	for _, c := range tx.Coins {
		if c.Asset.IsRune() {
			outbounds = append(outbounds, NewTransaction(s.RuneChain, "", tx.From, Coins{c}, "REFUND:"+tx.ID))
			continue
		}
		pool := s.GetPool(c.Asset)
		if pool.RuneBalance == 0 {
			continue // dropped: no pool to route a refund through
		}
		outbounds = append(outbounds, NewTransaction(c.Asset.EffectiveChain(), "", tx.From, Coins{c}, "REFUND:"+tx.ID))
	}

	outbounds = s.handleFee(tx, outbounds)

	attrs := []Attribute{
		Attr("code", fmt.Sprint(reason.Code)),
		Attr("reason", reason.Message),
		Attr("id", tx.ID),
		Attr("chain", tx.Chain),
		Attr("from", tx.From),
		Attr("to", tx.To),
		Attr("memo", tx.Memo),
	}
	s.emit(NewEvent("refund", attrs...))

	if len(outbounds) == 0 {
		for _, c := range tx.Coins {
			if c.Asset.IsSynth() {
				pool := s.GetPool(c.Asset)
				if err := pool.SubSynth(c.Amount); err != nil {
					s.logger.Errorf("refund burn: %v", err)
					continue
				}
				s.emit(NewEvent("mint_burn",
					Attr("supply", "burn"),
					Attr("denom", c.Asset.String()),
					Attr("amount", fmt.Sprint(c.Amount)),
					Attr("reason", "failed_refund"),
				))
			} else if c.Asset.IsRune() {
				s.reserve += c.Amount
			}
		}
	}

	return s.orderOutbound(outbounds), nil
}

//---------------------------------------------------------------------
// Outbound ordering
//---------------------------------------------------------------------

// orderOutbound sorts outbounds by custom_hash(vault_pubkey) ascending,
// the canonical broadcast order the live node uses.
func (s *ThorchainState) orderOutbound(txs []Transaction) []Transaction {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].CustomHash(s.vaultPubkey) < txs[j].CustomHash(s.vaultPubkey)
	})
	return txs
}
