package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"categorydesk/internal/metrics"
)

// Monitor probes the categories API on a schedule. It only reports reachability; it never
// switches a workspace back to live mode, that stays an explicit user retry.
type Monitor struct {
	prober    *Prober
	cron      *cron.Cron
	reachable atomic.Bool
	checked   atomic.Bool
}

func NewMonitor(prober *Prober, loc *time.Location) *Monitor {
	if loc == nil {
		loc = time.Local
	}
	return &Monitor{
		prober: prober,
		cron:   cron.New(cron.WithLocation(loc), cron.WithSeconds()),
	}
}

// Schedule registers the periodic probe. Intervals under one second are rounded up.
func (m *Monitor) Schedule(interval time.Duration) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	schedule := fmt.Sprintf("@every %ds", seconds)
	return m.cron.AddFunc(schedule, func() { m.Check(context.Background()) })
}

func (m *Monitor) Start() {
	m.cron.Start()
}

func (m *Monitor) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
}

// Check runs one probe immediately and records the result.
func (m *Monitor) Check(ctx context.Context) bool {
	ok := m.prober.Probe(ctx)
	previous := m.reachable.Swap(ok)
	first := !m.checked.Swap(true)

	if ok {
		metrics.APIUp.Set(1)
	} else {
		metrics.APIUp.Set(0)
	}
	if first || previous != ok {
		log.Info().Bool("reachable", ok).Msg("Categories API reachability changed")
	}
	return ok
}

// Reachable reports the last probe result and whether any probe has run yet.
func (m *Monitor) Reachable() (reachable, checked bool) {
	return m.reachable.Load(), m.checked.Load()
}
