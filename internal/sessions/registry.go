package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"categorydesk/internal/metrics"
	"categorydesk/internal/services"
)

// DefaultIdleTimeout is how long an unused workspace is kept in memory.
const DefaultIdleTimeout = 30 * time.Minute

// Factory builds the CategoryService backing a new workspace.
type Factory func() services.CategoryService

type workspace struct {
	service  services.CategoryService
	lastSeen time.Time
}

// Registry holds one CategoryService per browser session.
type Registry struct {
	mu         sync.Mutex
	workspaces map[string]*workspace
	factory    Factory
	idle       time.Duration
	now        func() time.Time
}

func NewRegistry(factory Factory, idle time.Duration) *Registry {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Registry{
		workspaces: make(map[string]*workspace),
		factory:    factory,
		idle:       idle,
		now:        time.Now,
	}
}

// Get returns the workspace for id, creating it on first use. The second result reports
// whether it was just created and still needs its initial Load.
func (r *Registry) Get(id string) (services.CategoryService, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, exists := r.workspaces[id]
	if !exists {
		ws = &workspace{service: r.factory()}
		r.workspaces[id] = ws
		metrics.ActiveWorkspaces.Set(float64(len(r.workspaces)))
		log.Debug().Str("workspace_id", id).Msg("Workspace created")
	}
	ws.lastSeen = r.now()
	return ws.service, !exists
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// Evict drops workspaces idle for longer than the idle timeout and returns how many went.
func (r *Registry) Evict() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, ws := range r.workspaces {
		if r.now().Sub(ws.lastSeen) > r.idle {
			delete(r.workspaces, id)
			evicted++
		}
	}
	metrics.ActiveWorkspaces.Set(float64(len(r.workspaces)))
	if evicted > 0 {
		log.Info().Int("evicted", evicted).Int("remaining", len(r.workspaces)).Msg("Evicted idle workspaces")
	}
	return evicted
}

// Cleanup evicts idle workspaces every interval until ctx is done.
func (r *Registry) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Evict()
		}
	}
}
