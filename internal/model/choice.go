package model

// BackendChoice is the result of a routing decision.
//
// A choice either carries a concrete backend together with the health
// snapshot that was used to pick it, or reports that no backend is
// available. "No backend" is an expected outcome, so it is carried as data
// with a diagnostic Message rather than returned as an error.
type BackendChoice struct {
	// Backend is the selected backend. Zero value when Found reports false.
	Backend BackendIdentity `json:"backend,omitzero"`

	// Health is the snapshot taken at decision time.
	Health BackendHealth `json:"health,omitzero"`

	// Message explains why no backend was selected.
	Message string `json:"message,omitempty"`

	found bool
}

// NewBackendChoice returns a choice for the given backend and snapshot.
func NewBackendChoice(health BackendHealth) BackendChoice {
	return BackendChoice{
		Backend: health.Identity(),
		Health:  health,
		found:   true,
	}
}

// NoBackend returns a choice that reports no available backend.
func NoBackend(message string) BackendChoice {
	return BackendChoice{Message: message}
}

// Found reports whether a concrete backend was selected.
func (c BackendChoice) Found() bool {
	return c.found
}
