package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestBackendKindString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		kind     BackendKind
		expected string
	}{
		{KindOxen, "Oxen"},
		{KindTor, "Tor"},
		{BackendKind(42), "Unknown"},
	}

	for _, tc := range testCases {
		if got := tc.kind.String(); got != tc.expected {
			t.Errorf("BackendKind(%d).String() = %q, expected %q", tc.kind, got, tc.expected)
		}
	}
}

func TestParseBackendKind(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		input   string
		want    BackendKind
		wantErr bool
	}{
		{"lowercase oxen", "oxen", KindOxen, false},
		{"uppercase OXEN", "OXEN", KindOxen, false},
		{"mixed case Tor", "Tor", KindTor, false},
		{"surrounding whitespace", "  tor\n", KindTor, false},
		{"empty string", "", 0, true},
		{"unknown kind", "i2p", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseBackendKind(tc.input)
			if tc.wantErr {
				if !errors.Is(err, ErrUnknownBackendKind) {
					t.Fatalf("expected ErrUnknownBackendKind, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("ParseBackendKind(%q) = %v, expected %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestBackendHealthJSON(t *testing.T) {
	t.Parallel()

	health := BackendHealth{
		Name:        "tor-exit-1",
		Kind:        KindTor,
		LatencyMS:   251.5,
		FailureRate: 0.01,
		Enabled:     true,
	}

	data, err := json.Marshal(health)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded BackendHealth
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded != health {
		t.Errorf("round trip mismatch: got %+v, expected %+v", decoded, health)
	}

	t.Run("unknown kind cannot be marshaled", func(t *testing.T) {
		t.Parallel()
		_, err := json.Marshal(BackendHealth{Kind: BackendKind(7)})
		if err == nil {
			t.Error("expected error for unknown kind")
		}
	})
}

func TestBackendChoice(t *testing.T) {
	t.Parallel()

	t.Run("concrete choice reports found", func(t *testing.T) {
		t.Parallel()

		health := BackendHealth{Name: "oxen-node-1", Kind: KindOxen, LatencyMS: 55, Enabled: true}
		choice := NewBackendChoice(health)
		if !choice.Found() {
			t.Fatal("expected Found() to be true")
		}
		if choice.Backend.Name != "oxen-node-1" || choice.Backend.Kind != KindOxen {
			t.Errorf("unexpected backend: %+v", choice.Backend)
		}
		if choice.Message != "" {
			t.Errorf("expected empty message, got %q", choice.Message)
		}
	})

	t.Run("no backend carries message", func(t *testing.T) {
		t.Parallel()

		choice := NoBackend("nothing healthy")
		if choice.Found() {
			t.Fatal("expected Found() to be false")
		}
		if choice.Message != "nothing healthy" {
			t.Errorf("expected message, got %q", choice.Message)
		}
	})
}

func TestEgressModeFromFlag(t *testing.T) {
	t.Parallel()

	if got := EgressModeFromFlag(true); got != EgressTor {
		t.Errorf("expected EgressTor, got %v", got)
	}
	if got := EgressModeFromFlag(false); got != EgressDirect {
		t.Errorf("expected EgressDirect, got %v", got)
	}
	if EgressTor.String() != "tor" || EgressDirect.String() != "direct" {
		t.Error("unexpected egress mode names")
	}
	if EgressMode(9).String() != "unknown" {
		t.Error("expected unknown for invalid mode")
	}
}
