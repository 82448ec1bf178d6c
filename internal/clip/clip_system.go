//go:build darwin || windows || linux

package clip

import (
	"bytes"
	"errors"
	"log/slog"

	"golang.design/x/clipboard"

	"go.klb.dev/nanoupload/internal/content"
	"go.klb.dev/nanoupload/internal/encode"
	"go.klb.dev/nanoupload/internal/failure"
)

var errWriteRejected = errors.New("clipboard did not take the new contents (locked by another process?)")

// systemBackend reads and writes the native clipboard through
// golang.design/x/clipboard, which hands images out as PNG.
type systemBackend struct {
	name string
}

func (b *systemBackend) Name() string { return b.name }

func (b *systemBackend) Read() (content.Snapshot, error) {
	if data := clipboard.Read(clipboard.FmtImage); len(data) > 0 {
		img, err := encode.DecodeImage(data)
		if err != nil {
			return content.Snapshot{}, failure.New(failure.KindClipboard, "read image", err)
		}
		slog.Debug("clipboard image captured", "width", img.Width, "height", img.Height)
		return content.ImageSnapshot(img), nil
	}
	if text := clipboard.Read(clipboard.FmtText); text != nil {
		return content.TextSnapshot(string(text)), nil
	}
	return content.Snapshot{}, nil
}

// WriteText writes text and reads it back; the library reports no errors of
// its own, so a mismatch is the only sign the write did not land.
func (b *systemBackend) WriteText(text string) error {
	clipboard.Write(clipboard.FmtText, []byte(text))
	if got := clipboard.Read(clipboard.FmtText); !bytes.Equal(got, []byte(text)) {
		return failure.New(failure.KindClipboard, "write", errWriteRejected)
	}
	return nil
}

func (b *systemBackend) Close() {}
