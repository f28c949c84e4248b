package router

import (
	"github.com/nao1215/golddust/internal/model"
)

// FailureRateCeiling is the failure rate at or above which a backend is
// considered unhealthy and skipped.
const FailureRateCeiling = 0.05

// NoBackendMessage is the diagnostic carried by a "no backend" choice.
const NoBackendMessage = "no healthy backend available (oxen and tor exhausted)"

// Router selects a backend using the Oxen-first, Tor-fallback policy.
//
// Policy: sample every backend, discard those whose failure rate is at or
// above FailureRateCeiling, and pick the lowest-latency survivor of each
// kind (ties go to the earlier backend in registry order). A healthy Oxen
// backend always wins over Tor regardless of Tor's numbers. When neither
// kind has a healthy backend the result is an explicit "no backend" choice;
// there is no blind fallback to an unhealthy backend.
//
// Router never mutates the registry and is safe for concurrent use as long
// as its Sampler is.
type Router struct {
	registry *Registry
	sampler  Sampler
}

// New creates a Router over registry using sampler.
func New(registry *Registry, sampler Sampler) *Router {
	return &Router{registry: registry, sampler: sampler}
}

// Health samples every registered backend, in registry order.
func (r *Router) Health() []model.BackendHealth {
	backends := r.registry.Backends()
	out := make([]model.BackendHealth, 0, len(backends))
	for _, id := range backends {
		out = append(out, r.sampler.Sample(id))
	}
	return out
}

// Choose picks a backend for target.
// The target is accepted for interface stability but does not influence the
// decision: the policy is target-independent.
func (r *Router) Choose(_ string) model.BackendChoice {
	return Decide(r.Health())
}

// Evaluate samples every backend once and applies the policy to that same
// snapshot, so the returned list and choice always agree.
func (r *Router) Evaluate() ([]model.BackendHealth, model.BackendChoice) {
	health := r.Health()
	return health, Decide(health)
}

// Decide applies the policy to an existing health snapshot.
func Decide(health []model.BackendHealth) model.BackendChoice {
	if best, ok := bestOfKind(health, model.KindOxen); ok {
		return model.NewBackendChoice(best)
	}
	if best, ok := bestOfKind(health, model.KindTor); ok {
		return model.NewBackendChoice(best)
	}
	return model.NoBackend(NoBackendMessage)
}

// bestOfKind returns the healthy snapshot of kind with the lowest latency.
func bestOfKind(health []model.BackendHealth, kind model.BackendKind) (model.BackendHealth, bool) {
	var (
		best  model.BackendHealth
		found bool
	)
	for _, h := range health {
		if h.Kind != kind || !h.Enabled || h.FailureRate >= FailureRateCeiling {
			continue
		}
		// Strict comparison keeps the first backend on ties.
		if !found || h.LatencyMS < best.LatencyMS {
			best, found = h, true
		}
	}
	return best, found
}
