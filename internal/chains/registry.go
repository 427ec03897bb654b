package chains

import (
	"context"

	"thorsmoker/core"
)

// Registry holds one mock Adapter per external chain the harness
// drives, matching the Harness CLI's per-chain flags (spec §6).
type Registry struct {
	adapters map[string]*Mock
}

// NewRegistry constructs a registry with one mock per well-known chain.
func NewRegistry() *Registry {
	r := &Registry{adapters: make(map[string]*Mock)}
	for _, chain := range []string{
		core.ChainBNB, core.ChainGAIA, core.ChainBTC, core.ChainBCH,
		core.ChainLTC, core.ChainDOGE, core.ChainETH, core.ChainTHOR,
	} {
		r.adapters[chain] = NewMock(chain)
	}
	return r
}

// Get returns the mock adapter for chain, or nil if no mock is
// registered for it. NewRegistry registers every well-known chain, so
// Get only returns nil for other chain names never passed to Enable.
func (r *Registry) Get(chain string) *Mock { return r.adapters[chain] }

// Enable registers a mock for chain if not already present and returns
// it; for a chain NewRegistry already registered it returns the
// existing mock unchanged.
func (r *Registry) Enable(chain string) *Mock {
	if m, ok := r.adapters[chain]; ok {
		return m
	}
	m := NewMock(chain)
	r.adapters[chain] = m
	return m
}

// All returns every registered chain's name.
func (r *Registry) All() []string {
	out := make([]string, 0, len(r.adapters))
	for chain := range r.adapters {
		out = append(out, chain)
	}
	return out
}

// StartScanners launches one background Scanner per registered adapter,
// each polling at up to scansPerSecond, and returns once every goroutine
// has been started. The scanners run until ctx is cancelled.
func (r *Registry) StartScanners(ctx context.Context, scansPerSecond float64) {
	for _, m := range r.adapters {
		sc := NewScanner(m, scansPerSecond)
		go func() {
			_ = sc.Run(ctx)
		}()
	}
}
