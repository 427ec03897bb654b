package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"thorsmoker/core"
	"thorsmoker/internal/chains"
)

// Divergence is one point of disagreement between the simulator and
// the live node, surfaced by a Smoker run.
type Divergence struct {
	Stage string // "pool", "event", "balance"
	Key   string
	Want  string
	Got   string
}

// Result is a completed Smoker run's outcome.
type Result struct {
	TxCount      int
	Divergences  []Divergence
	SimDuration  time.Duration
	LiveDuration time.Duration
}

// Passed reports whether the run found zero divergences.
func (r Result) Passed() bool { return len(r.Divergences) == 0 }

// Smoker replays a fixed transaction script against both the
// deterministic simulator and a live mocknet node, then compares the
// resulting pools and event windows. Pools are compared on RUNE and
// asset balance only; synth balance, units, the reserve and per-account
// chain balances are not compared. Event windows are compared as
// order-insensitive multisets under core.Event equality.
//
// Per transaction it hands the tx to the simulator and to the mock
// adapter for the tx's chain, waits for the live node to settle
// ("catch up"), reconciles gas and rewards, then diffs pool state and
// the event window the transaction produced.
type Smoker struct {
	Sim      *core.ThorchainState
	Node     *NodeClient
	Registry *chains.Registry

	FastFail bool
	NoVerify bool

	log *zap.Logger

	eventsCh   <-chan core.Event
	lastHeight int64
}

// NewSmoker wires a Smoker from its constituent parts.
func NewSmoker(sim *core.ThorchainState, node *NodeClient, registry *chains.Registry, log *zap.Logger) *Smoker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Smoker{Sim: sim, Node: node, Registry: registry, log: log}
}

// Run replays txs in order, diffing state after each one unless
// NoVerify is set. It stops at the first divergence when FastFail is
// set; otherwise it accumulates every divergence found.
func (s *Smoker) Run(ctx context.Context, txs []core.Transaction) (Result, error) {
	result := Result{TxCount: len(txs)}

	// A scratch id for correlating this run's log lines — never part of
	// any wire-format transaction id, which stays the spec's custom_hash.
	runLog := s.log.With(zap.String("run_id", uuid.New().String()))

	if s.Node != nil && s.eventsCh == nil {
		ch, err := s.Node.Subscribe(ctx)
		if err != nil {
			runLog.Warn("event subscription failed, event-diff checks disabled", zap.Error(err))
		} else {
			s.eventsCh = ch
		}
	}

	for i, tx := range txs {
		simStart := time.Now()
		simMark := len(s.Sim.Events())
		_, err := s.Sim.Handle(tx)
		result.SimDuration += time.Since(simStart)
		if err != nil {
			return result, fmt.Errorf("simulator rejected tx %d (%s): %w", i, tx.ID, err)
		}

		var pendingGas core.Coins
		adapter := s.Registry.Get(tx.Chain)
		if adapter != nil {
			liveStart := time.Now()
			if err := adapter.Transfer(ctx, &tx); err != nil {
				return result, fmt.Errorf("live adapter rejected tx %d (%s): %w", i, tx.ID, err)
			}
			result.LiveDuration += time.Since(liveStart)
			if len(tx.Gas) > 0 && tx.Chain != s.Sim.RuneChain {
				pendingGas = tx.Gas
			}
		}

		if s.NoVerify {
			continue
		}

		liveEvents, err := s.sinCatchUp(ctx)
		if err != nil {
			runLog.Warn("catch-up wait failed", zap.Int("tx_index", i), zap.Error(err))
		}

		// Gas and rewards are reconciled after the catch-up step, mirroring
		// the live node's begin-block bookkeeping. That step returns at
		// once when no live node is configured, and a failed wait is only
		// logged, so reconciliation runs in either case.
		for _, g := range pendingGas {
			s.Sim.HandleGas(g.Asset, g.Amount, 1)
		}
		s.Sim.HandleRewards()

		divs, err := s.checkPools(ctx)
		if err != nil {
			return result, err
		}
		divs = append(divs, s.checkEvents(simMark, liveEvents)...)
		result.Divergences = append(result.Divergences, divs...)

		if s.FastFail && len(result.Divergences) > 0 {
			runLog.Error("divergence detected, fast-fail stopping",
				zap.Int("tx_index", i), zap.Any("divergence", result.Divergences[len(result.Divergences)-1]))
			return result, nil
		}
	}

	return result, nil
}

// sinCatchUp waits for the live node's block height to advance past
// the last height this Smoker observed, polling up to 200 times at
// 300ms intervals (spec §4.5's event-pairing wait: gas, rewards,
// outbound, and scheduled_outbound events land on a later block than
// their trigger transaction). While waiting, it drains any events the
// node's websocket feed produces and returns them for the caller's
// event-diff check.
func (s *Smoker) sinCatchUp(ctx context.Context) ([]core.Event, error) {
	if s.Node == nil {
		return nil, nil
	}
	const attempts = 200
	const interval = 300 * time.Millisecond

	startHeight := s.lastHeight
	var collected []core.Event
	for i := 0; i < attempts; i++ {
		select {
		case <-ctx.Done():
			return collected, ctx.Err()
		default:
		}

		collected = append(collected, s.drainEvents(interval)...)

		height, err := s.Node.LastBlock(ctx)
		if err != nil {
			continue
		}
		if height > startHeight {
			s.lastHeight = height
			return collected, nil
		}
	}
	return collected, fmt.Errorf("live node did not advance past height %d after %d attempts", startHeight, attempts)
}

// drainEvents collects whatever the event subscription channel
// delivers within wait, or returns early if the channel closes.
func (s *Smoker) drainEvents(wait time.Duration) []core.Event {
	if s.eventsCh == nil {
		time.Sleep(wait)
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	var out []core.Event
	for {
		select {
		case e, ok := <-s.eventsCh:
			if !ok {
				return out
			}
			out = append(out, e)
		case <-timer.C:
			return out
		}
	}
}

// checkPools diffs every simulator pool against the live node's
// reported pool set.
func (s *Smoker) checkPools(ctx context.Context) ([]Divergence, error) {
	if s.Node == nil {
		return nil, nil
	}
	remote, err := s.Node.GetPools(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching live pools: %w", err)
	}
	remoteByAsset := make(map[string]RemotePool, len(remote))
	for _, rp := range remote {
		remoteByAsset[rp.Asset] = rp
	}

	var divs []Divergence
	for key, pool := range s.Sim.Pools() {
		rp, ok := remoteByAsset[key]
		if !ok {
			divs = append(divs, Divergence{Stage: "pool", Key: key, Want: "exists", Got: "missing on live node"})
			continue
		}
		want := fmt.Sprintf("%d", pool.RuneBalance)
		if got := rp.BalanceRune; got != want {
			divs = append(divs, Divergence{Stage: "pool", Key: key + ".rune_balance", Want: want, Got: got})
		}
		want = fmt.Sprintf("%d", pool.AssetBalance)
		if got := rp.BalanceAsset; got != want {
			divs = append(divs, Divergence{Stage: "pool", Key: key + ".asset_balance", Want: want, Got: got})
		}
	}
	return divs, nil
}

// checkEvents diffs the simulator's events appended since `from`
// against the live node's event window for the same span, as an
// order-insensitive multiset per core.EqualAsMultiset.
func (s *Smoker) checkEvents(simFrom int, live []core.Event) []Divergence {
	if s.Node == nil {
		return nil
	}
	simEvents := s.Sim.EventsSince(simFrom)
	if core.EqualAsMultiset(simEvents, live) {
		return nil
	}
	return []Divergence{{
		Stage: "event",
		Key:   fmt.Sprintf("window[%d:]", simFrom),
		Want:  fmt.Sprintf("%d events", len(simEvents)),
		Got:   fmt.Sprintf("%d events", len(live)),
	}}
}
