package client

import (
	"context"
	"log/slog"
	"time"

	"github.com/scrypster/ephemera/internal/scheduler"
	"github.com/scrypster/ephemera/pkg/types"
)

// DefaultPollInterval matches the refresh period of the web client.
const DefaultPollInterval = 45 * time.Second

// Poller refreshes the state immediately and then every interval.
type Poller struct {
	client  *Client
	onState func(types.StatePayload)
	onError func(error)
	task    *scheduler.Task
}

// NewPoller creates a poller. onError may be nil.
func NewPoller(c *Client, interval time.Duration, onState func(types.StatePayload), onError func(error), logger *slog.Logger) (*Poller, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Poller{client: c, onState: onState, onError: onError}
	task, err := scheduler.New("state-poller", interval, p.poll,
		scheduler.WithImmediate(), scheduler.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	p.task = task
	return p, nil
}

// Run polls until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	return p.task.Run(ctx)
}

func (p *Poller) poll(ctx context.Context) {
	payload, err := p.client.FetchState(ctx)
	if err != nil {
		if p.onError != nil && ctx.Err() == nil {
			p.onError(err)
		}
		return
	}
	if p.onState != nil {
		p.onState(*payload)
	}
}
