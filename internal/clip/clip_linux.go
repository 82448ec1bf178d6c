//go:build linux

package clip

import (
	"log/slog"

	"golang.design/x/clipboard"
)

// New returns the Linux clipboard backend, or a headless no-op backend if
// the display environment is unavailable (e.g. a headless server without X11).
// clipboard.Init is called here rather than in init() so that CLI sub-commands
// that only talk to the control socket don't trigger the warning.
func New() Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return headlessBackend{}
	}
	return &systemBackend{name: "Linux X11 clipboard"}
}
