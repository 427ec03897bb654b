package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// HealthChecker waits for Midgard to report healthy before a run starts
// (thornode readiness is NodeClient.WaitForNode's job),
// a supplemented pre-flight feature absent from the distilled spec but
// present throughout the smoke tooling's wait_for_*_api functions.
type HealthChecker struct {
	MidgardURL string
	http       *http.Client
}

// NewHealthChecker builds a checker against the given Midgard base URL.
func NewHealthChecker(midgardURL string) *HealthChecker {
	return &HealthChecker{MidgardURL: midgardURL, http: &http.Client{Timeout: 5 * time.Second}}
}

type midgardHealth struct {
	Database          bool `json:"database"`
	ScannerHeight     int64 `json:"scannerHeight"`
	LastThorchainBlock int64 `json:"lastThorChainBlock"`
}

// WaitForMidgard polls Midgard's /v2/health until it reports both a
// live database connection and a scanner height that has caught up to
// thorchain's own last-seen block, or ctx expires.
func (h *HealthChecker) WaitForMidgard(ctx context.Context) error {
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.MidgardURL+"/v2/health", nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := h.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("midgard health returned status %d", resp.StatusCode)
		}
		var health midgardHealth
		if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
			return backoff.Permanent(err)
		}
		if !health.Database {
			return fmt.Errorf("midgard database not yet connected")
		}
		if health.ScannerHeight < health.LastThorchainBlock {
			return fmt.Errorf("midgard scanner at %d, thorchain at %d", health.ScannerHeight, health.LastThorchainBlock)
		}
		return nil
	}
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 0 // bounded by ctx instead
	return backoff.Retry(op, backoff.WithContext(b, ctx))
}
