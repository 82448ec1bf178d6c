// Package clip provides a unified interface to the system clipboard across
// platforms. Build constraints select the appropriate implementation:
//
//	clip_system.go: macOS, Windows, Linux via golang.design/x/clipboard
//	clip_desktop.go: macOS / Windows constructor
//	clip_linux.go: Linux constructor, falls back to headless without X11
//	clip_other.go: headless stub for everything else
package clip

import "go.klb.dev/nanoupload/internal/content"

// Backend is the interface that all platform clipboard implementations satisfy.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// Read captures the clipboard as one snapshot. Image data is probed
	// before text; a clipboard holding both yields only the image.
	// An empty clipboard is a zero Snapshot and a nil error.
	Read() (content.Snapshot, error)

	// WriteText replaces the clipboard contents with text.
	WriteText(text string) error

	// Close releases any resources held by the backend.
	Close()
}
