//go:build !darwin && !linux && !windows

package native

import "go.klb.dev/nanoupload/internal/hotkey"

// NewRegistrar always fails: this platform has no global hotkey API.
func NewRegistrar() (hotkey.Registrar, error) {
	return nil, hotkey.ErrUnsupported
}
