// Package state holds the process-wide settings that can change at runtime:
// the upload endpoint and the hotkey combination.
package state

import "sync"

// DefaultHotkey is registered when nothing else is configured.
const DefaultHotkey = "Ctrl+U"

// State is safe for concurrent use. Values are opaque strings; a malformed
// endpoint only shows up as a later upload failure.
type State struct {
	mu       sync.RWMutex
	endpoint string
	hotkey   string
}

// New returns a State with the given initial values. An empty hotkey means
// DefaultHotkey.
func New(endpoint, hotkey string) *State {
	if hotkey == "" {
		hotkey = DefaultHotkey
	}
	return &State{endpoint: endpoint, hotkey: hotkey}
}

func (s *State) Endpoint() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.endpoint
}

// SetEndpoint replaces the endpoint and reports whether it changed.
func (s *State) SetEndpoint(endpoint string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.endpoint != endpoint
	s.endpoint = endpoint
	return changed
}

func (s *State) Hotkey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hotkey
}

// SetHotkey records the active hotkey and reports whether it changed. It does
// not register anything; callers rebind first and record on success.
func (s *State) SetHotkey(hotkey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.hotkey != hotkey
	s.hotkey = hotkey
	return changed
}
