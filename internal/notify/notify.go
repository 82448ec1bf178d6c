// Package notify surfaces pipeline results to the user.
//
// Notifications are fire-and-forget: a sink never returns an error to the
// pipeline. Delivery failures are logged and dropped.
package notify

import (
	"log/slog"

	"github.com/gen2brain/beeep"
)

// Sink receives user-facing notifications.
type Sink interface {
	Notify(title, body string)
}

// Func adapts a plain function to Sink.
type Func func(title, body string)

func (f Func) Notify(title, body string) { f(title, body) }

// Desktop posts native desktop notifications.
type Desktop struct {
	// Icon is an optional path to an icon file.
	Icon string
}

// NewDesktop returns a desktop notification sink.
func NewDesktop(icon string) *Desktop {
	return &Desktop{Icon: icon}
}

func (d *Desktop) Notify(title, body string) {
	if err := beeep.Notify(title, body, d.Icon); err != nil {
		slog.Warn("desktop notification failed", "title", title, "err", err)
	}
}

// Log writes notifications to the structured log. It is used when desktop
// notifications are disabled or unavailable.
type Log struct{}

func (Log) Notify(title, body string) {
	slog.Info("notification", "title", title, "body", body)
}

// Multi fans a notification out to several sinks in order.
type Multi []Sink

func (m Multi) Notify(title, body string) {
	for _, s := range m {
		s.Notify(title, body)
	}
}
