//go:build darwin || windows

package native

import (
	"fmt"
	"sync"

	gohotkey "golang.design/x/hotkey"

	"go.klb.dev/nanoupload/internal/hotkey"
)

var keyCodes = map[string]gohotkey.Key{
	"A": gohotkey.KeyA, "B": gohotkey.KeyB, "C": gohotkey.KeyC, "D": gohotkey.KeyD,
	"E": gohotkey.KeyE, "F": gohotkey.KeyF, "G": gohotkey.KeyG, "H": gohotkey.KeyH,
	"I": gohotkey.KeyI, "J": gohotkey.KeyJ, "K": gohotkey.KeyK, "L": gohotkey.KeyL,
	"M": gohotkey.KeyM, "N": gohotkey.KeyN, "O": gohotkey.KeyO, "P": gohotkey.KeyP,
	"Q": gohotkey.KeyQ, "R": gohotkey.KeyR, "S": gohotkey.KeyS, "T": gohotkey.KeyT,
	"U": gohotkey.KeyU, "V": gohotkey.KeyV, "W": gohotkey.KeyW, "X": gohotkey.KeyX,
	"Y": gohotkey.KeyY, "Z": gohotkey.KeyZ,

	"0": gohotkey.Key0, "1": gohotkey.Key1, "2": gohotkey.Key2, "3": gohotkey.Key3,
	"4": gohotkey.Key4, "5": gohotkey.Key5, "6": gohotkey.Key6, "7": gohotkey.Key7,
	"8": gohotkey.Key8, "9": gohotkey.Key9,

	"F1": gohotkey.KeyF1, "F2": gohotkey.KeyF2, "F3": gohotkey.KeyF3, "F4": gohotkey.KeyF4,
	"F5": gohotkey.KeyF5, "F6": gohotkey.KeyF6, "F7": gohotkey.KeyF7, "F8": gohotkey.KeyF8,
	"F9": gohotkey.KeyF9, "F10": gohotkey.KeyF10, "F11": gohotkey.KeyF11, "F12": gohotkey.KeyF12,

	"Space":  gohotkey.KeySpace,
	"Enter":  gohotkey.KeyReturn,
	"Escape": gohotkey.KeyEscape,
	"Tab":    gohotkey.KeyTab,
	"Delete": gohotkey.KeyDelete,
	"Up":     gohotkey.KeyUp,
	"Down":   gohotkey.KeyDown,
	"Left":   gohotkey.KeyLeft,
	"Right":  gohotkey.KeyRight,
}

type nativeRegistrar struct{}

// NewRegistrar returns the registrar for the platform hotkey API. It cannot
// fail on macOS or Windows.
func NewRegistrar() (hotkey.Registrar, error) { return nativeRegistrar{}, nil }

func (nativeRegistrar) Register(c hotkey.Combo, fn func()) (hotkey.Binding, error) {
	key, ok := keyCodes[c.Key]
	if !ok {
		return nil, fmt.Errorf("key %q has no platform code", c.Key)
	}
	hk := gohotkey.New(modifiers(c), key)
	if err := hk.Register(); err != nil {
		return nil, err
	}
	b := &nativeBinding{hk: hk, done: make(chan struct{})}
	go b.listen(fn)
	return b, nil
}

type nativeBinding struct {
	hk   *gohotkey.Hotkey
	done chan struct{}
	once sync.Once
}

func (b *nativeBinding) listen(fn func()) {
	keydown := b.hk.Keydown()
	for {
		select {
		case <-b.done:
			return
		case _, ok := <-keydown:
			if !ok {
				return
			}
			fn()
		}
	}
}

func (b *nativeBinding) Unregister() error {
	var err error
	b.once.Do(func() {
		close(b.done)
		err = b.hk.Unregister()
	})
	return err
}
