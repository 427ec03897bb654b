package main

import (
	"encoding/json"
	"net/http"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appconfig "thorsmoker/cmd/config"
	"thorsmoker/core"
)

// poolView is the public JSON representation of one settlement pool.
type poolView struct {
	Asset        string `json:"asset"`
	Status       string `json:"status"`
	RuneBalance  int64  `json:"rune_balance"`
	AssetBalance int64  `json:"asset_balance"`
	SynthBalance int64  `json:"synth_balance"`
	LPUnits      int64  `json:"lp_units"`
	PoolUnits    int64  `json:"pool_units"`
}

var poolGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Name: "dexserver_pool_rune_balance",
	Help: "Current RUNE balance per settlement pool.",
}, []string{"asset"})

func init() {
	prometheus.MustRegister(poolGauge)
}

func poolsHandler(state *core.ThorchainState) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		pools := state.Pools()
		out := make([]poolView, 0, len(pools))
		for _, p := range pools {
			poolGauge.WithLabelValues(p.Asset.String()).Set(float64(p.RuneBalance))
			out = append(out, poolView{
				Asset:        p.Asset.String(),
				Status:       string(p.Status),
				RuneBalance:  p.RuneBalance,
				AssetBalance: p.AssetBalance,
				SynthBalance: p.SynthBalance,
				LPUnits:      p.LPUnits,
				PoolUnits:    p.PoolUnits(),
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

func reserveHandler(state *core.ThorchainState) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int64{"reserve": state.Reserve()})
	}
}

func main() {
	appconfig.LoadConfig(os.Getenv("SYNN_ENV"))
	logger := log.New()

	runeChain := appconfig.AppConfig.Harness.RuneChain
	if runeChain == "" {
		runeChain = core.ChainTHOR
	}
	cfg := core.DefaultConfig()
	if appconfig.AppConfig.Harness.RuneFee > 0 {
		cfg.RuneFee = appconfig.AppConfig.Harness.RuneFee
	}
	core.InitThorchainState(logger, cfg, runeChain)
	state := core.StateManager()

	addr := os.Getenv("DEX_API_ADDR")
	if addr == "" {
		addr = appconfig.AppConfig.Network.ListenAddr
	}
	if addr == "" {
		addr = "127.0.0.1:8081"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/pools", poolsHandler(state))
	mux.HandleFunc("/api/reserve", reserveHandler(state))
	mux.Handle("/metrics", promhttp.Handler())

	logger.Printf("dexserver listening on %s", addr)
	logger.Fatal(http.ListenAndServe(addr, mux))
}
