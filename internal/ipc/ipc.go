// Package ipc locates the local control socket used by CLI commands to talk
// to a running nanoupload agent.
//
// The agent listens on a Unix domain socket (a named pipe on Windows); the
// endpoint, hotkey, trigger and status commands dial it and exchange one
// newline-JSON request and reply (see internal/wire).
package ipc

import (
	"errors"
	"net"
	"os"
)

// SocketPath returns the platform-appropriate path for the control socket.
//
//   - Linux:   $XDG_RUNTIME_DIR/nanoupload.sock, else $TMPDIR/nanoupload.sock
//   - macOS:   $TMPDIR/nanoupload.sock
//   - Windows: \\.\pipe\nanoupload
//
// $NANOUPLOAD_SOCKET overrides the path on every platform.
func SocketPath() string {
	if s := os.Getenv("NANOUPLOAD_SOCKET"); s != "" {
		return s
	}
	return socketPath()
}

// IsRunning reports whether an agent appears to be listening on the control
// socket. It does a cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	c, err := Dial()
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// ErrAlreadyRunning is returned by Listen when another agent answers on the
// socket.
var ErrAlreadyRunning = errors.New("another nanoupload agent is already running")

// Listen creates a listener on the control socket. A stale socket file left
// behind by a crashed agent is replaced.
func Listen() (net.Listener, error) {
	path := SocketPath()
	if IsRunning() {
		return nil, ErrAlreadyRunning
	}
	return listenIPC(path)
}

// Dial connects to the control socket.
func Dial() (net.Conn, error) {
	return dialIPC(SocketPath())
}
