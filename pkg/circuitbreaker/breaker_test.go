package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBreaker(timeout time.Duration) *CircuitBreaker {
	return NewCircuitBreaker("test", Config{
		MaxRequests:      1,
		Timeout:          timeout,
		FailureThreshold: 2,
		SuccessThreshold: 1,
	})
}

func TestBreaker_StaysClosedOnSuccess(t *testing.T) {
	cb := newTestBreaker(time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, cb.Execute(ctx, func() error { return nil }))
	}
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	cb := newTestBreaker(time.Minute)
	ctx := context.Background()
	boom := errors.New("upstream down")

	for i := 0; i < 2; i++ {
		require.ErrorIs(t, cb.Execute(ctx, func() error { return boom }), boom)
	}
	assert.Equal(t, StateOpen, cb.State())

	err := cb.Execute(ctx, func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreaker_HalfOpenRecovers(t *testing.T) {
	cb := newTestBreaker(10 * time.Millisecond)
	ctx := context.Background()
	boom := errors.New("upstream down")

	for i := 0; i < 2; i++ {
		cb.Execute(ctx, func() error { return boom })
	}
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, cb.State())

	require.NoError(t, cb.Execute(ctx, func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := newTestBreaker(10 * time.Millisecond)
	ctx := context.Background()
	boom := errors.New("upstream down")

	for i := 0; i < 2; i++ {
		cb.Execute(ctx, func() error { return boom })
	}
	time.Sleep(20 * time.Millisecond)

	cb.Execute(ctx, func() error { return boom })
	assert.Equal(t, StateOpen, cb.State())
}

func TestBreaker_StateChangeCallback(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker("llm", Config{
		FailureThreshold: 1,
		Timeout:          time.Minute,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	cb.Execute(context.Background(), func() error { return errors.New("x") })
	require.Equal(t, []string{"closed->open"}, transitions)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "unknown", State(9).String())
}
