// Package hotkey parses key-combination strings and keeps exactly one global
// hotkey binding registered at a time.
//
// This package never touches the window system. Platform registrars live in
// internal/hotkey/native, so parsing and the rebind rules work (and are
// tested) without a display.
package hotkey

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

// ErrUnsupported is returned on platforms without global hotkey support.
var ErrUnsupported = errors.New("global hotkeys are not supported on this platform")

// Combo is a parsed key combination.
type Combo struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Super bool
	// CmdOrCtrl resolves to Super on macOS and Ctrl elsewhere.
	CmdOrCtrl bool
	// Key is the canonical key name: "A".."Z", "0".."9", "F1".."F12",
	// "Space", "Enter", "Escape", "Tab", "Delete", "Up", "Down", "Left", "Right".
	Key string
}

var modifierAliases = map[string]string{
	"ctrl": "ctrl", "control": "ctrl", "ctl": "ctrl",
	"shift": "shift",
	"alt": "alt", "option": "alt", "opt": "alt",
	"super": "super", "cmd": "super", "command": "super", "win": "super", "meta": "super",
	"cmdorctrl": "cmdorctrl", "commandorcontrol": "cmdorctrl",
}

var namedKeys = map[string]string{
	"space": "Space",
	"enter": "Enter", "return": "Enter",
	"escape": "Escape", "esc": "Escape",
	"tab":    "Tab",
	"delete": "Delete", "del": "Delete",
	"up": "Up", "down": "Down", "left": "Left", "right": "Right",
}

// Parse parses a combination such as "Ctrl+Shift+U" or "CmdOrCtrl+F5".
// Tokens are case-insensitive. At least one modifier and exactly one key are
// required.
func Parse(spec string) (Combo, error) {
	var c Combo
	if strings.TrimSpace(spec) == "" {
		return c, errors.New("empty hotkey")
	}
	mods := 0
	for _, raw := range strings.Split(spec, "+") {
		tok := strings.ToLower(strings.TrimSpace(raw))
		if tok == "" {
			return Combo{}, fmt.Errorf("hotkey %q: empty token", spec)
		}
		if m, ok := modifierAliases[tok]; ok {
			switch m {
			case "ctrl":
				c.Ctrl = true
			case "shift":
				c.Shift = true
			case "alt":
				c.Alt = true
			case "super":
				c.Super = true
			case "cmdorctrl":
				c.CmdOrCtrl = true
			}
			mods++
			continue
		}
		key, ok := canonicalKey(tok)
		if !ok {
			return Combo{}, fmt.Errorf("hotkey %q: unknown key %q", spec, raw)
		}
		if c.Key != "" {
			return Combo{}, fmt.Errorf("hotkey %q: more than one key", spec)
		}
		c.Key = key
	}
	if c.Key == "" {
		return Combo{}, fmt.Errorf("hotkey %q: no key", spec)
	}
	if mods == 0 {
		return Combo{}, fmt.Errorf("hotkey %q: at least one modifier is required", spec)
	}
	return c, nil
}

func canonicalKey(tok string) (string, bool) {
	if len(tok) == 1 {
		ch := tok[0]
		if ch >= 'a' && ch <= 'z' {
			return strings.ToUpper(tok), true
		}
		if ch >= '0' && ch <= '9' {
			return tok, true
		}
		return "", false
	}
	if k, ok := namedKeys[tok]; ok {
		return k, true
	}
	if tok[0] == 'f' {
		if n, err := strconv.Atoi(tok[1:]); err == nil && n >= 1 && n <= 12 && tok[1] != '0' {
			return "F" + tok[1:], true
		}
	}
	return "", false
}

// String renders the combo in canonical form, e.g. "Ctrl+Shift+U".
func (c Combo) String() string {
	var parts []string
	if c.CmdOrCtrl {
		parts = append(parts, "CmdOrCtrl")
	}
	if c.Ctrl {
		parts = append(parts, "Ctrl")
	}
	if c.Shift {
		parts = append(parts, "Shift")
	}
	if c.Alt {
		parts = append(parts, "Alt")
	}
	if c.Super {
		parts = append(parts, "Super")
	}
	return strings.Join(append(parts, c.Key), "+")
}

// Binding is one live registration.
type Binding interface {
	Unregister() error
}

// Registrar registers a combo with the platform. fn is called on every key
// press, from whatever goroutine the platform delivers events on; it must not
// block.
type Registrar interface {
	Register(c Combo, fn func()) (Binding, error)
}

// Unavailable returns a Registrar whose every Register call fails with err.
// It stands in when the platform registrar could not be constructed, so the
// agent keeps running without a hotkey.
func Unavailable(err error) Registrar { return unavailable{err: err} }

type unavailable struct{ err error }

func (u unavailable) Register(Combo, func()) (Binding, error) {
	return nil, fmt.Errorf("global hotkeys unavailable: %w", u.err)
}

// Manager owns the set of live bindings and guarantees that at most one is
// active after every Rebind.
type Manager struct {
	reg Registrar

	mu     sync.Mutex
	active []Binding
	combo  Combo
}

// NewManager returns a Manager registering through reg.
func NewManager(reg Registrar) *Manager {
	return &Manager{reg: reg}
}

// Rebind replaces every existing binding with a single binding of spec.
// An unparsable spec leaves the current binding untouched. If registration
// fails after the old bindings were removed, no binding is left and the
// error is returned.
func (m *Manager) Rebind(spec string, fn func()) (Combo, error) {
	c, err := Parse(spec)
	if err != nil {
		return Combo{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.unregisterAllLocked(); err != nil {
		slog.Warn("hotkey unregister failed", "err", err)
	}
	b, err := m.reg.Register(c, fn)
	if err != nil {
		return Combo{}, fmt.Errorf("register %s: %w", c, err)
	}
	m.active = []Binding{b}
	m.combo = c
	slog.Info("hotkey registered", "combo", c.String())
	return c, nil
}

// UnregisterAll removes every binding.
func (m *Manager) UnregisterAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unregisterAllLocked()
}

func (m *Manager) unregisterAllLocked() error {
	var errs []error
	for _, b := range m.active {
		if err := b.Unregister(); err != nil {
			errs = append(errs, err)
		}
	}
	m.active = nil
	m.combo = Combo{}
	return errors.Join(errs...)
}

// Active returns the registered combo, if any.
func (m *Manager) Active() (Combo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.combo, len(m.active) > 0
}
