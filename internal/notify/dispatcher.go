// Package notify dispatches abandoned-checkout recovery notifications to
// external delivery providers.
package notify

import (
	"context"
	"errors"
	"sync/atomic"
)

var (
	ErrNoHealthy = errors.New("no healthy providers")
	ErrNoAcquire = errors.New("provider not acquired")
)

// Dispatcher fans recovery notifications out over a provider set, rotating
// across whichever providers are healthy at each attempt.
type Dispatcher struct {
	providers   []Provider
	next        atomic.Uint64
	maxAttempts int
}

func NewDispatcher(provs []Provider, maxAttempts int) *Dispatcher {
	if maxAttempts < 1 {
		maxAttempts = 2
	}
	return &Dispatcher{providers: provs, maxAttempts: maxAttempts}
}

func (d *Dispatcher) healthy() []Provider {
	up := make([]Provider, 0, len(d.providers))
	for _, p := range d.providers {
		if p.Ready() {
			up = append(up, p)
		}
	}
	return up
}

// Send attempts delivery up to maxAttempts times. The healthy set is
// re-evaluated per attempt, so a provider whose breaker opened mid-loop
// drops out of rotation immediately.
func (d *Dispatcher) Send(ctx context.Context, r Recovery) error {
	var last error
	for i := 0; i < d.maxAttempts; i++ {
		up := d.healthy()
		if len(up) == 0 {
			last = ErrNoHealthy
			continue
		}

		p := up[int((d.next.Add(1)-1)%uint64(len(up)))]
		if !p.Acquire() {
			last = ErrNoAcquire
			continue
		}

		if err := p.Send(ctx, r); err != nil {
			last = err
			continue
		}
		return nil
	}
	return last
}
