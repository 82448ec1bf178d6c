//go:build linux

package native

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jezek/xgb/xproto"
	"github.com/jezek/xgbutil"
	"github.com/jezek/xgbutil/keybind"
	"github.com/jezek/xgbutil/xevent"

	"go.klb.dev/nanoupload/internal/hotkey"
)

// x11Keys maps canonical key names to X keysym names.
var x11Keys = map[string]string{
	"Space":  "space",
	"Enter":  "Return",
	"Escape": "Escape",
	"Tab":    "Tab",
	"Delete": "Delete",
	"Up":     "Up",
	"Down":   "Down",
	"Left":   "Left",
	"Right":  "Right",
}

// keyString renders c in xgbutil's "control-shift-u" notation. On X11, Alt
// is Mod1 and Super is Mod4 on practically every keymap.
func keyString(c hotkey.Combo) string {
	var parts []string
	if c.Ctrl || c.CmdOrCtrl {
		parts = append(parts, "control")
	}
	if c.Shift {
		parts = append(parts, "shift")
	}
	if c.Alt {
		parts = append(parts, "mod1")
	}
	if c.Super {
		parts = append(parts, "mod4")
	}
	key, ok := x11Keys[c.Key]
	if !ok {
		// Letters are lower-case keysyms; digits and F-keys match as-is.
		key = strings.ToLower(c.Key)
		if len(c.Key) > 1 {
			key = c.Key
		}
	}
	return strings.Join(append(parts, key), "-")
}

type x11Registrar struct {
	xu *xgbutil.XUtil
}

// NewRegistrar connects to the X server named by $DISPLAY and starts the
// event loop that delivers key presses.
func NewRegistrar() (hotkey.Registrar, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X display: %w", err)
	}
	keybind.Initialize(xu)
	go xevent.Main(xu)
	return &x11Registrar{xu: xu}, nil
}

func (r *x11Registrar) Register(c hotkey.Combo, fn func()) (hotkey.Binding, error) {
	keyStr := keyString(c)
	root := r.xu.RootWin()
	cb := keybind.KeyPressFun(func(*xgbutil.XUtil, xevent.KeyPressEvent) { fn() })
	if err := cb.Connect(r.xu, root, keyStr, true); err != nil {
		return nil, fmt.Errorf("grab %s: %w", keyStr, err)
	}
	return &x11Binding{xu: r.xu, root: root, keyStr: keyStr}, nil
}

type x11Binding struct {
	xu     *xgbutil.XUtil
	root   xproto.Window
	keyStr string
	once   sync.Once
}

func (b *x11Binding) Unregister() error {
	var err error
	b.once.Do(func() {
		var mods uint16
		var codes []xproto.Keycode
		mods, codes, err = keybind.ParseString(b.xu, b.keyStr)
		for _, code := range codes {
			keybind.Ungrab(b.xu, b.root, mods, code)
		}
		// The Manager keeps one binding at a time, so every key handler on
		// the root window belongs to this binding.
		keybind.Detach(b.xu, b.root)
	})
	return err
}
