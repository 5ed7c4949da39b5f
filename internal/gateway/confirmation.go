package gateway

import (
	"context"
	"sync"
)

type Outcome int

const (
	OutcomeCompleted Outcome = iota + 1
	OutcomeAbandoned
)

// Confirmation is a single-shot rendezvous with the external payment widget.
// Exactly one of Complete or Abandon wins; every later attempt reports that
// the confirmation was already settled. No timeout applies here, the widget
// is user-paced.
type Confirmation struct {
	once    sync.Once
	done    chan struct{}
	outcome Outcome
}

func NewConfirmation() *Confirmation {
	return &Confirmation{done: make(chan struct{})}
}

// Complete claims the confirmation for a gateway completion callback.
// Returns false if it was already settled.
func (c *Confirmation) Complete() bool {
	return c.settle(OutcomeCompleted)
}

// Abandon claims the confirmation for a widget dismissal.
func (c *Confirmation) Abandon() bool {
	return c.settle(OutcomeAbandoned)
}

// Wait blocks until the confirmation settles or the context ends.
func (c *Confirmation) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-c.done:
		return c.outcome, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (c *Confirmation) settle(o Outcome) bool {
	claimed := false
	c.once.Do(func() {
		c.outcome = o
		close(c.done)
		claimed = true
	})
	return claimed
}
