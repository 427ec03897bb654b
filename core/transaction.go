package core

// Transaction is the engine's inbound/outbound wire value. Its id is
// either the literal sentinel "TODO" (not yet broadcast), the 64-zero
// hex "empty id" sentinel (the synthetic intermediate leg of a double
// swap), or a real chain hash / custom_hash digest.

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// EmptyID is the 64-zero-hex sentinel used for the synthetic
// intermediate outbound of a double swap.
var EmptyID = strings.Repeat("0", 64)

// TODOID is the placeholder id a Transaction carries before broadcast.
const TODOID = "TODO"

// Transaction is a single inbound or outbound transfer with a memo.
type Transaction struct {
	ID      string
	Chain   string
	From    string
	To      string
	Coins   Coins
	Memo    string
	Gas     Coins
	MaxGas  Coins
	Fee     int64
}

// NewTransaction constructs a Transaction whose ID is always TODOID;
// the broadcasting chain assigns the real id later.
func NewTransaction(chain, from, to string, coins Coins, memo string) Transaction {
	return Transaction{
		ID:    TODOID,
		Chain: chain,
		From:  from,
		To:    to,
		Coins: coins,
		Memo:  memo,
	}
}

// MemoPrefix returns the colon-delimited token up to (not including)
// the first ':'.
func (t Transaction) MemoPrefix() string {
	if idx := strings.Index(t.Memo, ":"); idx >= 0 {
		return t.Memo[:idx]
	}
	return t.Memo
}

// MemoFields splits the memo on ':'.
func (t Transaction) MemoFields() []string {
	return strings.Split(t.Memo, ":")
}

// GetAssetFromMemo parses the asset named in a SWAP:/ADD:/WITHDRAW:
// memo's second field, if any.
func (t Transaction) GetAssetFromMemo() (Asset, bool) {
	fields := t.MemoFields()
	if len(fields) < 2 || fields[1] == "" {
		return Asset{}, false
	}
	a, err := ParseAsset(fields[1])
	if err != nil {
		return Asset{}, false
	}
	return a, true
}

// IsSynth reports whether any coin carried by this transaction is a
// synthetic asset.
func (t Transaction) IsSynth() bool {
	for _, c := range t.Coins {
		if c.Asset.IsSynth() {
			return true
		}
	}
	return false
}

// IsRefund reports whether this transaction's memo marks it as a
// refund (REFUND:<in_hash>).
func (t Transaction) IsRefund() bool {
	return t.MemoPrefix() == "REFUND"
}

// IsCrossChainProvision reports whether this is one half of a
// cross-chain liquidity add: an ADD: memo whose inbound chain differs
// from the asset named in the memo (so the other half must arrive on
// a different chain before units can be minted).
func (t Transaction) IsCrossChainProvision() bool {
	if t.MemoPrefix() != "ADD" {
		return false
	}
	asset, ok := t.GetAssetFromMemo()
	if !ok {
		return false
	}
	return t.Chain != ChainTHOR && t.Chain != asset.EffectiveChain()
}

// CustomHash computes the deterministic outbound ordering hash: SHA-256
// of "chain|to|vault_pubkey|coins-string||in_hash" where in_hash is the
// token following the first ':' in the memo.
func (t Transaction) CustomHash(vaultPubkey string) string {
	inHash := ""
	if idx := strings.Index(t.Memo, ":"); idx >= 0 {
		inHash = t.Memo[idx+1:]
	}
	input := strings.Join([]string{
		t.Chain, t.To, vaultPubkey, t.Coins.String(), "", inHash,
	}, "|")
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// Equal compares transactions the way the equality contract requires:
// from/to addresses are ignored (aliases resolve late) and an id of
// TODOID or EmptyID acts as a wildcard on either side.
func (t Transaction) Equal(o Transaction) bool {
	if t.Chain != o.Chain || t.Memo != o.Memo {
		return false
	}
	if !coinsEqual(t.Coins, o.Coins) {
		return false
	}
	if t.ID != TODOID && t.ID != EmptyID && o.ID != TODOID && o.ID != EmptyID {
		if t.ID != o.ID {
			return false
		}
	}
	return true
}

func coinsEqual(a, b Coins) bool {
	if len(a) != len(b) {
		return false
	}
	as, bs := a.Sorted(), b.Sorted()
	for i := range as {
		if !as[i].Asset.Equal(bs[i].Asset) || as[i].Amount != bs[i].Amount {
			return false
		}
	}
	return true
}
