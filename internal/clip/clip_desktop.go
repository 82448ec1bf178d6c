//go:build darwin || windows

package clip

import (
	"log/slog"
	"runtime"

	"golang.design/x/clipboard"
)

// New returns the native clipboard backend.
// clipboard.Init is called here rather than in init() so that CLI sub-commands
// that never construct a Backend don't log spurious warnings.
func New() Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return headlessBackend{}
	}
	name := "Windows Clipboard"
	if runtime.GOOS == "darwin" {
		name = "macOS NSPasteboard"
	}
	return &systemBackend{name: name}
}
