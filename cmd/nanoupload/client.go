package main

import (
	"context"
	"time"

	"go.klb.dev/nanoupload/internal/control"
	"go.klb.dev/nanoupload/internal/message"
)

// requestTimeout bounds every control-socket exchange made by the CLI.
const requestTimeout = 5 * time.Second

// ask sends one request to the running agent.
func ask(ctx context.Context, req *message.Message) (*message.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	return control.Request(ctx, req)
}
