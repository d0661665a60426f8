package effects

import (
	"context"
	"sync"

	"homeservices/internal/logging"

	"github.com/rs/zerolog"
)

// Runner executes effect lists either inline or in the background. Background
// runs are detached from the request context and tracked so Drain can wait for them.
type Runner struct {
	async  bool
	wg     sync.WaitGroup
	logger *zerolog.Logger
}

func NewRunner(async bool, logger *zerolog.Logger) *Runner {
	return &Runner{async: async, logger: logging.Component(logger, "effects")}
}

func (r *Runner) Async() bool {
	return r.async
}

// Run executes l and returns its report when synchronous. In async mode it
// returns immediately with ok=false and the report is only logged. after, when
// not nil, receives the report once every effect has finished.
func (r *Runner) Run(ctx context.Context, msg string, l *List, after func(context.Context, Report)) (Report, bool) {
	if l == nil || l.Len() == 0 {
		return Report{}, !r.async
	}

	if !r.async {
		return r.run(ctx, msg, l, after), true
	}

	detached := context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(detached, msg, l, after)
	}()
	return Report{}, false
}

func (r *Runner) run(ctx context.Context, msg string, l *List, after func(context.Context, Report)) Report {
	report := l.Run(ctx)
	report.Log(r.logger, msg)
	if after != nil {
		func() {
			defer func() {
				if p := recover(); p != nil {
					r.logger.Error().Interface("panic", p).Msg("effects callback panic")
				}
			}()
			after(ctx, report)
		}()
	}
	return report
}

// Drain blocks until every background run has finished or ctx is done.
func (r *Runner) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
