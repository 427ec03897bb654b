package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"thorsmoker/internal/chains"
)

// NewRouter configures the HTTP routes for a single mock chain
// adapter's server, matching the adapter contract of spec §6.
func NewRouter(adapter *chains.Mock) *mux.Router {
	s := &Server{Adapter: adapter}

	r := mux.NewRouter()
	r.Use(RequestLogger)
	r.Use(JSONHeaders)

	r.HandleFunc("/height", s.Height).Methods(http.MethodGet)
	r.HandleFunc("/balance/{address}", s.Balance).Methods(http.MethodGet)
	r.HandleFunc("/transfer", s.Transfer).Methods(http.MethodPost)
	r.HandleFunc("/vault", s.SetVault).Methods(http.MethodPost)
	r.HandleFunc("/reorg", s.Reorg).Methods(http.MethodPost)

	return r
}
