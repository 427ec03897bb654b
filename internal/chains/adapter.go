// Package chains defines the narrow contract each external chain
// adapter must satisfy and provides in-memory mock implementations.
// Real per-chain clients (Bitcoin/Ethereum/Cosmos/BNB wire protocols)
// are out of scope (spec §1); these mocks let the replay harness drive
// a full differential run without any real network I/O.
package chains

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"thorsmoker/core"
)

// defaultChainGas is the fixed per-transaction gas a mock adapter
// reports back on Transfer, in that chain's own gas-asset units,
// grounded on the smoke tooling's fixed network_fees table.
var defaultChainGas = map[string]int64{
	core.ChainBNB:  37500,
	core.ChainBTC:  10000,
	core.ChainLTC:  10000,
	core.ChainBCH:  10000,
	core.ChainDOGE: 10000,
	core.ChainGAIA: 20000,
	core.ChainETH:  65000,
}

// Adapter is the contract every external chain client implements.
type Adapter interface {
	// GetBlockHeight returns the chain's current tip height.
	GetBlockHeight(ctx context.Context) (int64, error)
	// GetBalance returns the coins held at address, optionally filtered
	// to a single asset.
	GetBalance(ctx context.Context, address string, asset *core.Asset) (core.Coins, error)
	// Transfer broadcasts tx, assigning it the chain's tx hash and gas
	// usage, and may resolve aliases present in To/From/Memo.
	Transfer(ctx context.Context, tx *core.Transaction) error
	// SetVaultAddress registers the current asgard vault for deposit
	// accounting.
	SetVaultAddress(address string)
	// BlockStats reports the chain's current fee-estimation inputs,
	// updated asynchronously by a background scanner.
	BlockStats() (txRate, txSize int64)
}

// Reorger is implemented by mock adapters that support the harness's
// --bitcoin-reorg/--ethereum-reorg supplemented feature (every Mock
// does, whatever its chain).
type Reorger interface {
	SimulateReorg(ctx context.Context, depth int) error
}

// Mock is an in-memory Adapter: no real network I/O, just enough
// bookkeeping (balances, height, a rewindable block history) to drive
// a differential replay run.
type Mock struct {
	mu sync.Mutex

	Chain       string
	height      int64
	vaultAddr   string
	balances    map[string]core.Coins
	blocks      [][]core.Transaction // broadcast history, for reorg rewind
	txRate      int64
	txSize      int64
	nextTxIndex int
}

// NewMock constructs an empty mock adapter for chain.
func NewMock(chain string) *Mock {
	return &Mock{Chain: chain, balances: make(map[string]core.Coins)}
}

// Seed credits address with coins, used to bootstrap a test's starting
// balances before any transaction is broadcast.
func (m *Mock) Seed(address string, coins core.Coins) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[address] = append(m.balances[address], coins...)
}

func (m *Mock) GetBlockHeight(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.height, nil
}

func (m *Mock) GetBalance(ctx context.Context, address string, asset *core.Asset) (core.Coins, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.balances[address]
	if asset == nil {
		out := make(core.Coins, len(all))
		copy(out, all)
		return out, nil
	}
	if c, ok := all.Get(*asset); ok {
		return core.Coins{c}, nil
	}
	return core.Coins{}, nil
}

func (m *Mock) Transfer(ctx context.Context, tx *core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.debit(tx.From, tx.Coins)
	m.credit(tx.To, tx.Coins)

	tx.ID = syntheticTxID(m.Chain, m.nextTxIndex)
	m.nextTxIndex++

	if gasAmt, ok := defaultChainGas[m.Chain]; ok {
		tx.Gas = core.Coins{{Asset: core.Asset{Chain: m.Chain, Symbol: m.Chain}, Amount: gasAmt}}
	}

	m.height++
	m.blocks = append(m.blocks, []core.Transaction{*tx})
	return nil
}

func (m *Mock) debit(address string, coins core.Coins) {
	bal := m.balances[address]
	for _, c := range coins {
		for i, b := range bal {
			if b.Asset.Equal(c.Asset) {
				bal[i].Amount -= c.Amount
			}
		}
	}
	m.balances[address] = bal
}

func (m *Mock) credit(address string, coins core.Coins) {
	bal := m.balances[address]
	for _, c := range coins {
		found := false
		for i, b := range bal {
			if b.Asset.Equal(c.Asset) {
				bal[i].Amount += c.Amount
				found = true
			}
		}
		if !found {
			bal = append(bal, c)
		}
	}
	m.balances[address] = bal
}

func (m *Mock) SetVaultAddress(address string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vaultAddr = address
}

func (m *Mock) BlockStats() (int64, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.txRate, m.txSize
}

// SetBlockStats lets a background scanner report its current estimate.
func (m *Mock) SetBlockStats(txRate, txSize int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txRate, m.txSize = txRate, txSize
}

// SimulateReorg rewinds the mock chain's tip by depth blocks and
// rebroadcasts them, exercising the --bitcoin-reorg/--ethereum-reorg
// CLI toggles (SPEC_FULL §9). The simulator side of the harness
// intentionally does not react to this — see DESIGN.md's Open
// Question decision on reorg semantics.
func (m *Mock) SimulateReorg(ctx context.Context, depth int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if depth > len(m.blocks) {
		depth = len(m.blocks)
	}
	start := len(m.blocks) - depth
	rewound := m.blocks[start:]
	m.blocks = m.blocks[:start]
	m.height -= int64(depth)
	for _, block := range rewound {
		for _, tx := range block {
			m.credit(tx.From, tx.Coins) // undo the debit
			m.debit(tx.To, tx.Coins)
		}
	}
	for _, block := range rewound {
		for _, tx := range block {
			m.debit(tx.From, tx.Coins) // replay: redo the same transfer
			m.credit(tx.To, tx.Coins)
		}
		m.blocks = append(m.blocks, block)
		m.height++
	}
	return nil
}

// Scanner periodically recomputes one adapter's BlockStats counters
// from its recent block history, gated by a rate.Limiter so a busy
// poller can't write updates faster than the configured scan cadence —
// spec §5's "background block scanners... write to scalar counters".
type Scanner struct {
	mock    *Mock
	limiter *rate.Limiter
}

// NewScanner builds a Scanner for mock, allowed to scan at up to
// scansPerSecond.
func NewScanner(mock *Mock, scansPerSecond float64) *Scanner {
	return &Scanner{mock: mock, limiter: rate.NewLimiter(rate.Limit(scansPerSecond), 1)}
}

// Run scans at up to the configured rate until ctx is cancelled.
func (sc *Scanner) Run(ctx context.Context) error {
	for {
		if err := sc.limiter.Wait(ctx); err != nil {
			return err
		}
		sc.scanOnce()
	}
}

// scanOnce counts the transactions in the adapter's last 10 blocks and
// averages their coin-list size, and reports the two as the adapter's
// current fee-estimation inputs (txRate, txSize).
func (sc *Scanner) scanOnce() {
	sc.mock.mu.Lock()
	recent := sc.mock.blocks
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	var txCount, totalSize int64
	for _, block := range recent {
		for _, tx := range block {
			txCount++
			totalSize += int64(len(tx.Coins))
		}
	}
	sc.mock.mu.Unlock()

	var avgSize int64
	if txCount > 0 {
		avgSize = totalSize / txCount
	}
	sc.mock.SetBlockStats(txCount, avgSize)
}

func syntheticTxID(chain string, n int) string {
	const hex = "0123456789abcdef"
	b := make([]byte, 64)
	seed := chain + string(rune(n))
	for i := range b {
		b[i] = hex[(int(seed[i%len(seed)])+i)%16]
	}
	return string(b)
}
