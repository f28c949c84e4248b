package model

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// BackendKind is the family a backend belongs to.
type BackendKind int

const (
	// KindOxen identifies Oxen nodes. Oxen backends always take priority
	// over Tor backends when at least one of them is healthy.
	KindOxen BackendKind = iota

	// KindTor identifies Tor exits. They are used only as a fallback.
	KindTor
)

// String returns the display name of the kind.
func (k BackendKind) String() string {
	switch k {
	case KindOxen:
		return "Oxen"
	case KindTor:
		return "Tor"
	default:
		return "Unknown"
	}
}

// ParseBackendKind converts a kind name into a BackendKind.
// Matching is case-insensitive and ignores surrounding whitespace.
// A Caser is stateful, so a new one is made per call.
func ParseBackendKind(s string) (BackendKind, error) {
	switch cases.Fold().String(strings.TrimSpace(s)) {
	case "oxen":
		return KindOxen, nil
	case "tor":
		return KindTor, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownBackendKind, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
// The lowercase form is used in JSON output and in the history database.
func (k BackendKind) MarshalText() ([]byte, error) {
	switch k {
	case KindOxen, KindTor:
		return []byte(strings.ToLower(k.String())), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownBackendKind, int(k))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *BackendKind) UnmarshalText(text []byte) error {
	kind, err := ParseBackendKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// BackendIdentity names a single backend. Identities are created once when
// the registry is built and never change afterwards.
type BackendIdentity struct {
	// Name is unique within one registry, e.g. "oxen-node-1".
	Name string `json:"name"`

	// Kind is the backend family.
	Kind BackendKind `json:"kind"`
}

// BackendHealth is a health snapshot for one backend.
// Snapshots are never cached: every query produces a new one, and
// LatencyMS and FailureRate are always generated together.
type BackendHealth struct {
	Name        string      `json:"name"`
	Kind        BackendKind `json:"kind"`
	LatencyMS   float64     `json:"latency_ms"`
	FailureRate float64     `json:"failure_rate"`
	Enabled     bool        `json:"enabled"`
}

// Identity returns the identity this snapshot belongs to.
func (h BackendHealth) Identity() BackendIdentity {
	return BackendIdentity{Name: h.Name, Kind: h.Kind}
}
