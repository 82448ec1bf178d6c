//go:build windows

package native

import (
	gohotkey "golang.design/x/hotkey"

	"go.klb.dev/nanoupload/internal/hotkey"
)

func modifiers(c hotkey.Combo) []gohotkey.Modifier {
	var mods []gohotkey.Modifier
	if c.Ctrl || c.CmdOrCtrl {
		mods = append(mods, gohotkey.ModCtrl)
	}
	if c.Shift {
		mods = append(mods, gohotkey.ModShift)
	}
	if c.Alt {
		mods = append(mods, gohotkey.ModAlt)
	}
	if c.Super {
		mods = append(mods, gohotkey.ModWin)
	}
	return mods
}
