// Package control serves the agent's local control channel.
//
// A client connects, writes one request, reads one reply and disconnects.
// The Controller is also what the config watcher calls when the config file
// changes, so both paths apply settings the same way.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"go.klb.dev/nanoupload/internal/dispatch"
	"go.klb.dev/nanoupload/internal/hotkey"
	"go.klb.dev/nanoupload/internal/ipc"
	"go.klb.dev/nanoupload/internal/message"
	"go.klb.dev/nanoupload/internal/state"
	"go.klb.dev/nanoupload/internal/wire"
)

const readTimeout = 5 * time.Second

// Hotkeys is the subset of *hotkey.Manager the controller needs.
type Hotkeys interface {
	Rebind(spec string, fn func()) (hotkey.Combo, error)
	Active() (hotkey.Combo, bool)
}

// Worker is the subset of *dispatch.Dispatcher the controller needs.
type Worker interface {
	Trigger() bool
	Stats() dispatch.Stats
}

// Controller applies setting changes to a running agent.
type Controller struct {
	State   *state.State
	Hotkeys Hotkeys
	Worker  Worker
	Version string
	Backend string
	Started time.Time

	// hotkeyMu keeps the registered combo and State.Hotkey in step when
	// the socket and the config watcher rebind at the same time.
	hotkeyMu sync.Mutex
}

// SetEndpoint stores a new endpoint. The value is opaque and not validated;
// a run already in progress keeps the endpoint it started with.
func (c *Controller) SetEndpoint(endpoint string) {
	if c.State.SetEndpoint(endpoint) {
		slog.Info("endpoint changed", "endpoint", endpoint)
	}
}

// SetHotkey replaces the registered hotkey with spec. Presses of the new
// combo go through the same trigger as TRIGGER requests. The stored hotkey
// only changes when registration succeeds.
func (c *Controller) SetHotkey(spec string) (hotkey.Combo, error) {
	c.hotkeyMu.Lock()
	defer c.hotkeyMu.Unlock()

	combo, err := c.Hotkeys.Rebind(spec, func() { c.Worker.Trigger() })
	if err != nil {
		return hotkey.Combo{}, err
	}
	c.State.SetHotkey(combo.String())
	return combo, nil
}

// Trigger requests a run exactly like a hotkey press.
func (c *Controller) Trigger() bool { return c.Worker.Trigger() }

// Status reports the current settings and worker counters.
func (c *Controller) Status() *message.Status {
	_, bound := c.Hotkeys.Active()
	return &message.Status{
		Version:   c.Version,
		StartedAt: c.Started,
		Endpoint:  c.State.Endpoint(),
		Hotkey:    c.State.Hotkey(),
		Bound:     bound,
		Backend:   c.Backend,
		Worker:    c.Worker.Stats(),
	}
}

// Apply executes one request and returns its reply.
func (c *Controller) Apply(req *message.Message) *message.Message {
	switch req.Type {
	case message.TypeGetEndpoint:
		return &message.Message{Type: message.TypeOK, Endpoint: c.State.Endpoint()}

	case message.TypeSetEndpoint:
		c.SetEndpoint(req.Endpoint)
		return &message.Message{Type: message.TypeOK, Endpoint: req.Endpoint}

	case message.TypeGetHotkey:
		return &message.Message{Type: message.TypeOK, Hotkey: c.State.Hotkey()}

	case message.TypeSetHotkey:
		combo, err := c.SetHotkey(req.Hotkey)
		if err != nil {
			return message.Errorf("%v", err)
		}
		return &message.Message{Type: message.TypeOK, Hotkey: combo.String()}

	case message.TypeTrigger:
		accepted := c.Trigger()
		return &message.Message{Type: message.TypeOK, Accepted: &accepted}

	case message.TypeStatus:
		return &message.Message{Type: message.TypeOK, Status: c.Status()}
	}
	return message.Errorf("unknown request type %q", req.Type)
}

// Serve accepts connections on ln until ctx is cancelled.
func (c *Controller) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			slog.Warn("control accept failed", "err", err)
			continue
		}
		go c.Handle(conn)
	}
}

// Handle answers a single request on conn and closes it.
func (c *Controller) Handle(conn net.Conn) {
	wc := wire.New(conn)
	defer wc.Close()

	wc.SetReadDeadline(readTimeout)
	req, err := wc.ReadMsg()
	if err != nil {
		slog.Debug("control read failed", "err", err)
		_ = wc.WriteMsg(message.Errorf("bad request: %v", err))
		return
	}
	wc.SetReadDeadline(0)

	reply := c.Apply(req)
	slog.Debug("control request", "type", req.Type, "reply", reply.Type)
	if err := wc.WriteMsg(reply); err != nil {
		slog.Debug("control write failed", "err", err)
	}
}

// Exchange writes req on conn and reads the reply. ERROR replies come back
// as a Go error.
func Exchange(ctx context.Context, conn net.Conn, req *message.Message) (*message.Message, error) {
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
	wc := wire.New(conn)
	if err := wc.WriteMsg(req); err != nil {
		return nil, fmt.Errorf("send %s: %w", req.Type, err)
	}
	reply, err := wc.ReadMsg()
	if err != nil {
		return nil, fmt.Errorf("read reply to %s: %w", req.Type, err)
	}
	if err := reply.Err(); err != nil {
		return nil, err
	}
	return reply, nil
}

// ErrNotRunning is returned by Request when no agent is listening.
var ErrNotRunning = errors.New("nanoupload agent is not running (start it with \"nanoupload run\")")

// Request dials the local agent and performs one exchange.
func Request(ctx context.Context, req *message.Message) (*message.Message, error) {
	conn, err := ipc.Dial()
	if err != nil {
		slog.Debug("control dial failed", "path", ipc.SocketPath(), "err", err)
		return nil, ErrNotRunning
	}
	defer conn.Close()
	return Exchange(ctx, conn, req)
}
