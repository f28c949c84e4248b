package egress

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Flag file contents.
const (
	valueOn  = "on"
	valueOff = "off"
)

// Flag reports the current value of the egress switch.
type Flag interface {
	// TorEnabled reports whether new connections should use the Tor relay.
	TorEnabled() bool
}

// Store is a Flag that can also be written.
type Store interface {
	Flag

	// SetTorEnabled updates the switch.
	SetTorEnabled(on bool) error
}

// ParseValue interprets flag file content.
// Only the trimmed literal "off" disables Tor; "on", any other content and
// empty content all mean Tor is enabled.
func ParseValue(content string) bool {
	return strings.TrimSpace(content) != valueOff
}

// FormatValue returns the file content written for a flag value.
func FormatValue(on bool) string {
	if on {
		return valueOn + "\n"
	}
	return valueOff + "\n"
}

// FileStore persists the switch in a text file.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore backed by path. The file does not need
// to exist; a missing file reads as "on".
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the flag file location.
func (s *FileStore) Path() string {
	return s.path
}

// TorEnabled reads the file on every call. Read errors of any kind,
// including a missing file, yield the default "on".
func (s *FileStore) TorEnabled() bool {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return true
	}
	return ParseValue(string(data))
}

// Read is like TorEnabled but reports whether the file existed.
func (s *FileStore) Read() (on bool, exists bool, err error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, false, nil
		}
		return true, false, fmt.Errorf("%w: %w", ErrReadFlag, err)
	}
	return ParseValue(string(data)), true, nil
}

// SetTorEnabled overwrites the flag file.
func (s *FileStore) SetTorEnabled(on bool) error {
	if err := os.WriteFile(s.path, []byte(FormatValue(on)), 0o600); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFlag, err)
	}
	return nil
}

// MemoryStore holds the switch in memory.
type MemoryStore struct {
	on     atomic.Bool
	mirror Store

	// mu orders mirror writes with the in-memory update.
	mu sync.Mutex
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMirror writes every update through to mirror as well.
// The mirror is written first; when that fails the in-memory value is left
// unchanged, so readers never see a toggle that was reported as failed.
func WithMirror(mirror Store) MemoryOption {
	return func(s *MemoryStore) {
		s.mirror = mirror
	}
}

// NewMemoryStore returns a MemoryStore with the given initial value.
func NewMemoryStore(initial bool, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{}
	s.on.Store(initial)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TorEnabled implements Flag.
func (s *MemoryStore) TorEnabled() bool {
	return s.on.Load()
}

// SetTorEnabled implements Store.
func (s *MemoryStore) SetTorEnabled(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mirror != nil {
		if err := s.mirror.SetTorEnabled(on); err != nil {
			return err
		}
	}
	s.on.Store(on)
	return nil
}
