package main

import (
	"testing"

	"thorsmoker/internal/testutil"
)

func TestLoadRunConfigParsesChainsAndToggles(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	data := []byte("" +
		"thorchain: http://localhost:1317\n" +
		"midgard: http://localhost:8080\n" +
		"chains:\n" +
		"  BNB: http://localhost:26660\n" +
		"fast_fail: true\n" +
		"no_verify: false\n" +
		"transactions:\n" +
		"  - chain: BNB\n" +
		"    from: bnb1alice\n" +
		"    to: bnb1vault\n" +
		"    memo: \"ADD:BNB.BNB:thor1alice\"\n" +
		"    coins:\n" +
		"      - asset: BNB.BNB\n" +
		"        amount: 5000000000\n")
	if err := sb.WriteFile("run.yaml", data, 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	rc, err := LoadRunConfig(sb.Path("run.yaml"))
	if err != nil {
		t.Fatalf("LoadRunConfig: %v", err)
	}

	if rc.Thorchain != "http://localhost:1317" {
		t.Fatalf("Thorchain = %q", rc.Thorchain)
	}
	if rc.Chains["BNB"] != "http://localhost:26660" {
		t.Fatalf("Chains[BNB] = %q", rc.Chains["BNB"])
	}
	if !rc.FastFail {
		t.Fatalf("expected FastFail = true")
	}

	txs, err := rc.Script()
	if err != nil {
		t.Fatalf("Script: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
	if txs[0].Chain != "BNB" || txs[0].Memo != "ADD:BNB.BNB:thor1alice" {
		t.Fatalf("unexpected transaction: %+v", txs[0])
	}
	if len(txs[0].Coins) != 1 || txs[0].Coins[0].Amount != 5_000_000_000 {
		t.Fatalf("unexpected coins: %+v", txs[0].Coins)
	}
}

func TestRunConfigScriptWithBadAssetErrors(t *testing.T) {
	rc := &RunConfig{
		Transactions: []scriptTx{
			{Chain: "BNB", Coins: []scriptCoin{{Asset: "BNB.", Amount: 1}}},
		},
	}
	if _, err := rc.Script(); err == nil {
		t.Fatalf("expected an error parsing a malformed asset string")
	}
}
