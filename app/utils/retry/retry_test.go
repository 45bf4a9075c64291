package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")
var errPermanent = errors.New("permanent")

func isTransient(err error) bool { return errors.Is(err, errTransient) }

func TestPolicyNext(t *testing.T) {
	p := Policy{MaxAttempts: 3, Delay: 2 * time.Second, Retryable: isTransient}

	tests := []struct {
		name    string
		attempt int
		err     error
		want    Decision
	}{
		{"success stops", 1, nil, Stop},
		{"transient first attempt", 1, errTransient, Retry},
		{"transient second attempt", 2, errTransient, Retry},
		{"transient budget exhausted", 3, errTransient, Stop},
		{"permanent never retried", 1, errPermanent, Stop},
		{"wrapped transient", 1, errors.Join(errors.New("ctx"), errTransient), Retry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Next(tt.attempt, tt.err))
		})
	}
}

func TestPolicyNextWithoutClassifier(t *testing.T) {
	p := Policy{MaxAttempts: 5}
	assert.Equal(t, Stop, p.Next(1, errTransient))
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	p := Policy{MaxAttempts: 3, Delay: 2 * time.Second, Retryable: isTransient}

	var slept []time.Duration
	sleeper := func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	got, attempts, err := Do(context.Background(), p, sleeper, func(attempt int) (string, error) {
		if attempt < 3 {
			return "", errTransient
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, slept)
}

func TestDoExhausted(t *testing.T) {
	p := Policy{MaxAttempts: 2, Retryable: isTransient}

	calls := 0
	_, attempts, err := Do(context.Background(), p, NoSleep, func(int) (int, error) {
		calls++
		return 0, errTransient
	})
	require.ErrorIs(t, err, errTransient)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 2, calls)
}

func TestDoPermanentAbortsImmediately(t *testing.T) {
	p := Policy{MaxAttempts: 3, Retryable: isTransient}

	calls := 0
	_, attempts, err := Do(context.Background(), p, NoSleep, func(int) (int, error) {
		calls++
		return 0, errPermanent
	})
	require.ErrorIs(t, err, errPermanent)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
}

func TestDoStopsWhenSleepInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Policy{MaxAttempts: 3, Delay: time.Hour, Retryable: isTransient}
	calls := 0
	_, _, err := Do(ctx, p, Sleep, func(int) (int, error) {
		calls++
		return 0, errTransient
	})
	require.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, calls)
}
