package main

import (
	"net/http"
	"os"

	log "github.com/sirupsen/logrus"

	"thorsmoker/cmd/xchainserver/server"
	"thorsmoker/internal/chains"
)

// xchainserver serves a single mock chain adapter's HTTP surface, so
// the replay harness can drive a chain-shaped target over the network
// instead of linking the mock in-process. Which chain it mocks is
// chosen by CHAIN_NAME; the adapter itself never touches a real chain.
func main() {
	chain := os.Getenv("CHAIN_NAME")
	if chain == "" {
		chain = "BNB"
	}
	addr := os.Getenv("CROSSCHAIN_API_ADDR")
	if addr == "" {
		addr = ":8082"
	}

	adapter := chains.NewMock(chain)
	r := server.NewRouter(adapter)

	log.Printf("mock %s chain adapter listening on %s", chain, addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal(err)
	}
}
