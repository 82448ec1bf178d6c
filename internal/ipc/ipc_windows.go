//go:build windows

package ipc

import (
	"net"

	"github.com/Microsoft/go-winio"
)

const pipeName = `\\.\pipe\nanoupload`

func socketPath() string { return pipeName }

func listenIPC(path string) (net.Listener, error) {
	// D:P(A;;GA;;;OW) grants access to the pipe owner only.
	return winio.ListenPipe(path, &winio.PipeConfig{SecurityDescriptor: "D:P(A;;GA;;;OW)"})
}

func dialIPC(path string) (net.Conn, error) {
	return winio.DialPipe(path, nil)
}
