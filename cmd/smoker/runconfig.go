package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"thorsmoker/core"
)

// RunConfig is the harness's own optional run configuration: the chain
// endpoint map, the fast-fail/no-verify toggles, and an inline
// transaction script, so a full run can be captured in
// one YAML file instead of a long flag list (spec §6).
type RunConfig struct {
	Thorchain string            `yaml:"thorchain"`
	Midgard   string            `yaml:"midgard"`
	Chains    map[string]string `yaml:"chains"`

	FastFail bool `yaml:"fast_fail"`
	NoVerify bool `yaml:"no_verify"`

	Transactions []scriptTx `yaml:"transactions"`
}

type scriptTx struct {
	Chain string       `yaml:"chain"`
	From  string       `yaml:"from"`
	To    string       `yaml:"to"`
	Memo  string       `yaml:"memo"`
	Coins []scriptCoin `yaml:"coins"`
}

type scriptCoin struct {
	Asset  string `yaml:"asset"`
	Amount int64  `yaml:"amount"`
}

// LoadRunConfig reads and decodes a YAML run configuration from path.
func LoadRunConfig(path string) (*RunConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run config %s: %w", path, err)
	}
	var rc RunConfig
	if err := yaml.Unmarshal(raw, &rc); err != nil {
		return nil, fmt.Errorf("parsing run config %s: %w", path, err)
	}
	return &rc, nil
}

// Script converts the run configuration's inline transaction list into
// the core.Transaction sequence Smoker.Run expects. A config with no
// transactions section returns an empty, non-nil slice so callers can
// distinguish "no override" from "this config has nothing to replay".
func (rc *RunConfig) Script() ([]core.Transaction, error) {
	txs := make([]core.Transaction, 0, len(rc.Transactions))
	for i, st := range rc.Transactions {
		coins := make(core.Coins, 0, len(st.Coins))
		for _, c := range st.Coins {
			asset, err := core.ParseAsset(c.Asset)
			if err != nil {
				return nil, fmt.Errorf("run config tx %d: %w", i, err)
			}
			coins = append(coins, core.Coin{Asset: asset, Amount: c.Amount})
		}
		txs = append(txs, core.NewTransaction(st.Chain, st.From, st.To, coins, st.Memo))
	}
	return txs, nil
}
