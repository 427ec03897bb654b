// Package replay implements the differential replay harness ("Smoker"):
// a driver that feeds scripted transactions to both the deterministic
// core.ThorchainState simulator and a live mocknet node, then compares
// the resulting pool balances and event windows.
package replay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"thorsmoker/core"
)

// NodeClient is a minimal read-only client for the live node's HTTP
// and websocket surfaces (spec §6, "Live node contract").
type NodeClient struct {
	BaseURL string
	WSURL   string

	http *http.Client
}

// NewNodeClient builds a client with a retrying HTTP transport (6
// retries, exponential backoff — spec §5) grounded on the smoke
// tooling's requests_retry_session.
func NewNodeClient(baseURL, wsURL string) *NodeClient {
	return &NodeClient{
		BaseURL: baseURL,
		WSURL:   wsURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *NodeClient) getJSON(ctx context.Context, path string, out any) error {
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusOK:
			return json.NewDecoder(resp.Body).Decode(out)
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusGatewayTimeout:
			return fmt.Errorf("retryable status %d from %s", resp.StatusCode, path)
		default:
			return backoff.Permanent(fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path))
		}
	}
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 6)
	return backoff.Retry(op, backoff.WithContext(b, ctx))
}

// WaitForNode polls /thorchain/lastblock until the node responds or
// the context's deadline (spec §5: 120s) expires.
func (c *NodeClient) WaitForNode(ctx context.Context) error {
	var lastBlock json.RawMessage
	op := func() error {
		return c.getJSON(ctx, "/thorchain/lastblock", &lastBlock)
	}
	return backoff.Retry(op, backoff.WithContext(backoff.NewConstantBackOff(time.Second), ctx))
}

type lastBlockEntry struct {
	Chain     string `json:"chain"`
	Thorchain int64  `json:"thorchain"`
}

// LastBlock returns the live node's current thorchain block height, the
// max `thorchain` field across /thorchain/lastblock's per-chain rows,
// used by the replay harness's catch-up wait to detect that the node
// has advanced past a replayed transaction.
func (c *NodeClient) LastBlock(ctx context.Context) (int64, error) {
	var entries []lastBlockEntry
	if err := c.getJSON(ctx, "/thorchain/lastblock", &entries); err != nil {
		return 0, err
	}
	var height int64
	for _, e := range entries {
		if e.Thorchain > height {
			height = e.Thorchain
		}
	}
	return height, nil
}

// RemotePool is the live node's /thorchain/pools JSON shape, enough to
// drive a pool-state differential comparison.
type RemotePool struct {
	Asset        string `json:"asset"`
	Status       string `json:"status"`
	BalanceRune  string `json:"balance_rune"`
	BalanceAsset string `json:"balance_asset"`
	SynthSupply  string `json:"synth_supply"`
	PoolUnits    string `json:"pool_units"`
}

// GetPools fetches the live node's current pool set.
func (c *NodeClient) GetPools(ctx context.Context) ([]RemotePool, error) {
	var pools []RemotePool
	if err := c.getJSON(ctx, "/thorchain/pools", &pools); err != nil {
		return nil, err
	}
	return pools, nil
}

type vaultResponse struct {
	PubKey string `json:"pub_key"`
}

// GetVaultPubkey fetches the active asgard vault's pubkey and decodes
// it from its bech32 wire form to the raw form custom_hash expects.
func (c *NodeClient) GetVaultPubkey(ctx context.Context) (string, error) {
	var v vaultResponse
	if err := c.getJSON(ctx, "/thorchain/vaults/asgard", &v); err != nil {
		return "", err
	}
	_, data, err := bech32.Decode(v.PubKey)
	if err != nil {
		return v.PubKey, nil // not bech32-encoded in this deployment; use as-is
	}
	return string(data), nil
}

// NetworkFees fetches per-chain network fee estimates.
func (c *NodeClient) NetworkFees(ctx context.Context) (map[string]int64, error) {
	var raw []struct {
		Chain        string `json:"chain"`
		TransactionSize int64 `json:"transaction_size"`
		TransactionFeeRate int64 `json:"transaction_fee_rate"`
	}
	if err := c.getJSON(ctx, "/thorchain/network", &raw); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(raw))
	for _, r := range raw {
		out[r.Chain] = r.TransactionFeeRate * r.TransactionSize
	}
	return out, nil
}

// subscribeRequest is the Tendermint JSON-RPC subscribe envelope.
type subscribeRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	ID      int               `json:"id"`
	Params  map[string]string `json:"params"`
}

type blockEventMessage struct {
	Result struct {
		Data struct {
			Value struct {
				Block struct {
					Header struct {
						Height string `json:"height"`
					} `json:"header"`
				} `json:"block"`
				ResultBeginBlock struct {
					Events []wireEvent `json:"events"`
				} `json:"result_begin_block"`
				ResultEndBlock struct {
					Events []wireEvent `json:"events"`
				} `json:"result_end_block"`
			} `json:"value"`
		} `json:"data"`
	} `json:"result"`
}

type wireEvent struct {
	Type       string `json:"type"`
	Attributes []struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	} `json:"attributes"`
}

func decodeWireEvent(e wireEvent, height int64) core.Event {
	attrs := make([]core.Attribute, 0, len(e.Attributes))
	for _, a := range e.Attributes {
		key, err := base64.StdEncoding.DecodeString(a.Key)
		if err != nil {
			key = []byte(a.Key)
		}
		val, err := base64.StdEncoding.DecodeString(a.Value)
		if err != nil {
			val = []byte(a.Value)
		}
		attrs = append(attrs, core.Attr(string(key), string(val)))
	}
	return core.Event{Type: e.Type, Attributes: attrs, Height: height}
}

// Subscribe opens the `tm.event='NewBlock'` websocket feed and streams
// decoded events on the returned channel until ctx is cancelled.
func (c *NodeClient) Subscribe(ctx context.Context) (<-chan core.Event, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.WSURL, nil)
	if err != nil {
		return nil, err
	}
	req := subscribeRequest{
		JSONRPC: "2.0",
		Method:  "subscribe",
		ID:      1,
		Params:  map[string]string{"query": "tm.event='NewBlock'"},
	}
	if err := conn.WriteJSON(req); err != nil {
		conn.Close()
		return nil, err
	}

	out := make(chan core.Event, 256)
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			var msg blockEventMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			var height int64
			fmt.Sscanf(msg.Result.Data.Value.Block.Header.Height, "%d", &height)
			for _, e := range msg.Result.Data.Value.ResultBeginBlock.Events {
				out <- decodeWireEvent(e, height)
			}
			for _, e := range msg.Result.Data.Value.ResultEndBlock.Events {
				out <- decodeWireEvent(e, height)
			}
		}
	}()
	return out, nil
}
