// Package effects runs post-commit side effects. Each effect is isolated: a panic,
// error or timeout in one is recorded in the Report and never reaches the caller
// or the other effects.
package effects

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"homeservices/internal/metrics"

	"github.com/rs/zerolog"
)

const DefaultTimeout = 10 * time.Second

var ErrTimeout = errors.New("effect timed out")

// Func performs one side effect. It should honour ctx cancellation.
type Func func(ctx context.Context) error

type Effect struct {
	Name string
	Run  Func
}

// List is an ordered set of effects executed concurrently by Run.
type List struct {
	effects []Effect
	timeout time.Duration
}

func NewList(timeout time.Duration) *List {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &List{timeout: timeout}
}

func (l *List) Add(name string, fn Func) *List {
	l.effects = append(l.effects, Effect{Name: name, Run: fn})
	return l
}

func (l *List) Len() int {
	return len(l.effects)
}

func (l *List) Names() []string {
	names := make([]string, len(l.effects))
	for i, e := range l.effects {
		names[i] = e.Name
	}
	return names
}

// Run executes every effect with its own deadline and waits for all of them.
// Outcomes keep the order in which effects were added.
func (l *List) Run(ctx context.Context) Report {
	started := time.Now()
	outcomes := make([]Outcome, len(l.effects))

	var wg sync.WaitGroup
	for i, e := range l.effects {
		wg.Add(1)
		go func(i int, e Effect) {
			defer wg.Done()
			outcomes[i] = l.runOne(ctx, e)
		}(i, e)
	}
	wg.Wait()

	for _, o := range outcomes {
		metrics.IncEffect(o.Name, o.OK())
	}
	return Report{Outcomes: outcomes, Elapsed: time.Since(started)}
}

func (l *List) runOne(parent context.Context, e Effect) Outcome {
	ctx, cancel := context.WithTimeout(parent, l.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic: %v", r)
			}
		}()
		done <- e.Run(ctx)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		// The effect may still be running; its result is discarded.
		err = fmt.Errorf("%w after %s", ErrTimeout, l.timeout)
	}
	return Outcome{Name: e.Name, Err: err, Duration: time.Since(start)}
}

type Outcome struct {
	Name     string
	Err      error
	Duration time.Duration
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

// Report is the diagnostic record of one Run.
type Report struct {
	Outcomes []Outcome
	Elapsed  time.Duration
}

func (r Report) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	return failed
}

func (r Report) Succeeded() int {
	return len(r.Outcomes) - len(r.Failed())
}

// Outcome returns the named outcome, if present.
func (r Report) Outcome(name string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Name == name {
			return o, true
		}
	}
	return Outcome{}, false
}

// Log writes one line per failed effect and a summary line.
func (r Report) Log(logger *zerolog.Logger, msg string) {
	if logger == nil {
		return
	}
	for _, o := range r.Failed() {
		logger.Warn().Err(o.Err).Str("effect", o.Name).Dur("duration", o.Duration).Msg("post-commit effect failed")
	}
	logger.Info().
		Int("total", len(r.Outcomes)).
		Int("succeeded", r.Succeeded()).
		Dur("elapsed", r.Elapsed).
		Msg(msg)
}
