//go:build !windows

package ipc

import (
	"errors"
	"io/fs"
	"net"
	"os"
	"path/filepath"
)

func socketPath() string {
	// Linux: prefer XDG_RUNTIME_DIR
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "nanoupload.sock")
	}
	// macOS / fallback
	return filepath.Join(os.TempDir(), "nanoupload.sock")
}

func listenIPC(path string) (net.Listener, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	// Owner only; anyone who can reach the socket can trigger uploads.
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		return nil, err
	}
	return ln, nil
}

func dialIPC(path string) (net.Conn, error) {
	return net.Dial("unix", path)
}
