// Package commander is the publish side client for triggering refreshes
// over the command queue.
package commander

import (
	"context"
	"encoding/json"
	"fmt"
)

//go:generate mockery --name Sender --filename sender.go

// RefreshCommand asks the tracker to run a refresh cycle for a query.
type RefreshCommand struct {
	Query string `json:"query"`
}

// Sender sends messages.
type Sender interface {
	Send(context.Context, []byte) error
}

// RefreshCommander sends refresh commands.
type RefreshCommander struct {
	sender Sender
}

// NewRefreshCommander returns new RefreshCommander using provided sender for sending messages.
func NewRefreshCommander(sender Sender) RefreshCommander {
	return RefreshCommander{
		sender: sender,
	}
}

// SendRefreshCommand sends refresh command with provided query.
func (c RefreshCommander) SendRefreshCommand(ctx context.Context, query string) error {
	cmd := RefreshCommand{
		Query: query,
	}

	cmdMsg, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("can't marshal refresh command: %w", err)
	}

	return c.sender.Send(ctx, cmdMsg)
}
