package effects

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func TestRunnerSync(t *testing.T) {
	r := NewRunner(false, discardLogger())
	list := NewList(time.Second).Add("one", func(context.Context) error { return nil })

	report, done := r.Run(context.Background(), "effects done", list, nil)
	require.True(t, done)
	assert.Len(t, report.Outcomes, 1)
}

func TestRunnerAsyncSurvivesRequestCancel(t *testing.T) {
	r := NewRunner(true, discardLogger())
	release := make(chan struct{})
	var sawCancel, ran int32

	list := NewList(time.Second).Add("slow", func(ctx context.Context) error {
		<-release
		if ctx.Err() != nil {
			atomic.StoreInt32(&sawCancel, 1)
		}
		atomic.StoreInt32(&ran, 1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	var got Report
	after := func(_ context.Context, rep Report) { got = rep }
	_, done := r.Run(ctx, "effects done", list, after)
	assert.False(t, done)

	cancel()
	close(release)

	drainCtx, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	require.NoError(t, r.Drain(drainCtx))
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
	assert.Equal(t, int32(0), atomic.LoadInt32(&sawCancel))
	assert.Equal(t, 1, got.Succeeded())
}

func TestRunnerDrainTimeout(t *testing.T) {
	r := NewRunner(true, discardLogger())
	block := make(chan struct{})
	defer close(block)

	r.Run(context.Background(), "effects done", NewList(time.Minute).Add("stuck", func(context.Context) error {
		<-block
		return nil
	}), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Drain(ctx), context.DeadlineExceeded)
}

func TestRunnerCallbackPanicIsContained(t *testing.T) {
	r := NewRunner(false, discardLogger())
	list := NewList(time.Second).Add("one", func(context.Context) error { return nil })

	assert.NotPanics(t, func() {
		r.Run(context.Background(), "effects done", list, func(context.Context, Report) { panic("boom") })
	})
}

func TestRunnerEmptyList(t *testing.T) {
	r := NewRunner(true, discardLogger())
	_, done := r.Run(context.Background(), "noop", NewList(0), nil)
	assert.False(t, done)
	assert.NoError(t, r.Drain(context.Background()))
}
