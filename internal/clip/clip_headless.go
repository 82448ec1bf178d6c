package clip

import (
	"errors"

	"go.klb.dev/nanoupload/internal/content"
	"go.klb.dev/nanoupload/internal/failure"
)

var errNoClipboard = errors.New("no clipboard available (headless)")

// headlessBackend is used in environments without a display server
// (headless Linux servers, containers, etc.). It always reads as empty, so
// the pipeline never gets as far as writing back.
type headlessBackend struct{}

func (headlessBackend) Name() string                    { return "headless (no-op)" }
func (headlessBackend) Read() (content.Snapshot, error) { return content.Snapshot{}, nil }
func (headlessBackend) Close()                          {}

func (headlessBackend) WriteText(string) error {
	return failure.New(failure.KindClipboard, "write", errNoClipboard)
}

// Headless returns the no-op backend regardless of platform.
func Headless() Backend { return headlessBackend{} }
