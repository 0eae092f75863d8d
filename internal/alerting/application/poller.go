package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Poller runs evaluation passes on a fixed interval for the long-running
// deployment mode. One pass runs at a time; a slow pass delays the next tick
// rather than overlapping it.
type Poller struct {
	orchestrator *Orchestrator
	interval     time.Duration
	log          zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller constructs a poller around the orchestrator.
func NewPoller(orchestrator *Orchestrator, interval time.Duration, log zerolog.Logger) (*Poller, error) {
	if orchestrator == nil {
		return nil, errors.New("poller: nil orchestrator")
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{orchestrator: orchestrator, interval: interval, log: log}, nil
}

// Start launches the polling loop. It returns immediately; the loop stops
// when ctx is cancelled or Stop is called.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		p.runOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.runOnce(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for the in-flight pass to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Poller) runOnce(ctx context.Context) {
	report, err := p.orchestrator.RunPass(ctx)
	if err != nil {
		p.log.Warn().Err(err).Msg("evaluation pass failed")
		return
	}
	p.log.Debug().
		Int("subscribers", report.Subscribers).
		Int("sent", report.Sent).
		Int("skipped", report.Skipped).
		Msg("evaluation pass complete")
}
