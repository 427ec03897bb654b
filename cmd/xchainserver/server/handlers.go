package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"thorsmoker/core"
	"thorsmoker/internal/chains"
)

// Server wires a single mock chain adapter to HTTP handlers, giving
// the replay harness a network-shaped surface for the adapter
// contract (spec §6) even though no real chain I/O occurs underneath.
type Server struct {
	Adapter *chains.Mock
}

// Height reports the mock chain's current tip height.
func (s *Server) Height(w http.ResponseWriter, r *http.Request) {
	h, err := s.Adapter.GetBlockHeight(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]int64{"height": h})
}

// Balance reports an address's coin balances, optionally filtered to
// one asset via the `asset` query parameter.
func (s *Server) Balance(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	var assetPtr *core.Asset
	if q := r.URL.Query().Get("asset"); q != "" {
		a, err := core.ParseAsset(q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		assetPtr = &a
	}
	coins, err := s.Adapter.GetBalance(r.Context(), address, assetPtr)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, coins)
}

type transferRequest struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Memo  string `json:"memo"`
	Coins []struct {
		Asset  string `json:"asset"`
		Amount int64  `json:"amount"`
	} `json:"coins"`
}

// Transfer broadcasts a transaction against the mock chain.
func (s *Server) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	coins := make(core.Coins, 0, len(req.Coins))
	for _, c := range req.Coins {
		asset, err := core.ParseAsset(c.Asset)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		coins = append(coins, core.Coin{Asset: asset, Amount: c.Amount})
	}
	tx := core.NewTransaction(s.Adapter.Chain, req.From, req.To, coins, req.Memo)
	if err := s.Adapter.Transfer(r.Context(), &tx); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, tx)
}

// SetVault registers the active asgard vault address.
func (s *Server) SetVault(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.Adapter.SetVaultAddress(req.Address)
	w.WriteHeader(http.StatusNoContent)
}

// Reorg rewinds the mock chain's tip, exercising --bitcoin-reorg /
// --ethereum-reorg.
func (s *Server) Reorg(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Depth int `json:"depth"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.Adapter.SimulateReorg(r.Context(), req.Depth); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
