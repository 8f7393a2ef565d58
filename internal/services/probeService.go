package services

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Prober checks whether the categories API answers its list endpoint.
type Prober struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

func NewProber(baseURL string, client *http.Client, timeout time.Duration) *Prober {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Prober{baseURL: baseURL, client: client, timeout: timeout}
}

// Probe issues a single GET {base}/categories bounded by the probe timeout and reports
// whether it came back with a 2xx status. No retries.
func (p *Prober) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/categories", nil)
	if err != nil {
		log.Error().Err(err).Str("base_url", p.baseURL).Msg("Failed to build probe request")
		return false
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("base_url", p.baseURL).Msg("API connection failed")
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299
	log.Debug().Int("status", resp.StatusCode).Bool("reachable", ok).Msg("API probe finished")
	return ok
}
