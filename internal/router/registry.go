package router

import (
	"fmt"

	"github.com/nao1215/golddust/internal/model"
)

// Number of synthetic backends created per enabled family.
const (
	oxenNodeCount = 2
	torExitCount  = 1
)

// Registry is the immutable list of known backends.
// It is built once per process and safe for concurrent reads.
type Registry struct {
	backends []model.BackendIdentity
}

// NewRegistry builds a registry from the two backend enable flags.
// Oxen nodes come first, followed by Tor exits. Names are deterministic:
// "oxen-node-1", "oxen-node-2", "tor-exit-1". If both flags are false the
// registry is empty and every routing call yields "no backend".
func NewRegistry(oxenEnabled, torEnabled bool) *Registry {
	var backends []model.BackendIdentity

	if oxenEnabled {
		for i := 1; i <= oxenNodeCount; i++ {
			backends = append(backends, model.BackendIdentity{
				Name: fmt.Sprintf("oxen-node-%d", i),
				Kind: model.KindOxen,
			})
		}
	}

	if torEnabled {
		for i := 1; i <= torExitCount; i++ {
			backends = append(backends, model.BackendIdentity{
				Name: fmt.Sprintf("tor-exit-%d", i),
				Kind: model.KindTor,
			})
		}
	}

	return &Registry{backends: backends}
}

// Backends returns a copy of the registered identities in registry order.
func (r *Registry) Backends() []model.BackendIdentity {
	out := make([]model.BackendIdentity, len(r.backends))
	copy(out, r.backends)
	return out
}

// Len returns the number of registered backends.
func (r *Registry) Len() int {
	return len(r.backends)
}
