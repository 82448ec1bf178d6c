// Package native registers global hotkeys with the host window system.
//
// macOS and Windows go through golang.design/x/hotkey. Linux talks to the X
// server directly through jezek/xgbutil so that a missing display is an
// error from NewRegistrar, not a crash at start-up. Everything else gets a
// registrar that always fails with hotkey.ErrUnsupported.
package native
