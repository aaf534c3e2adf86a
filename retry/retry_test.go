package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithBackoff(t *testing.T) {
	persistent := errors.New("persistent error")

	tests := []struct {
		name         string
		failures     int
		maxAttempts  int
		wantAttempts int
		wantErr      error
	}{
		{"first try", 0, 3, 1, nil},
		{"eventual success", 2, 5, 3, nil},
		{"all attempts fail", 10, 3, 3, persistent},
		{"zero attempts", 10, 0, 0, ErrInvalidMaxAttempts},
		{"negative attempts", 10, -1, 0, ErrInvalidMaxAttempts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := WithBackoff(context.Background(), func() error {
				attempts++
				if attempts <= tt.failures {
					return persistent
				}
				return nil
			}, tt.maxAttempts, time.Millisecond)

			assert.Equal(t, tt.wantAttempts, attempts)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := WithBackoff(ctx, func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("unavailable")
	}, 10, 10*time.Millisecond)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, attempts)
}

func TestWithBackoff_ContextTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	attempts := 0
	err := WithBackoff(ctx, func() error {
		attempts++
		time.Sleep(30 * time.Millisecond)
		return errors.New("slow")
	}, 10, 10*time.Millisecond)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.LessOrEqual(t, attempts, 3)
}

func TestWithBackoff_DelayDoubles(t *testing.T) {
	var delays []time.Duration
	last := time.Now()
	attempts := 0

	err := WithBackoff(context.Background(), func() error {
		attempts++
		if attempts > 1 {
			delays = append(delays, time.Since(last))
		}
		last = time.Now()
		if attempts < 4 {
			return errors.New("retry me")
		}
		return nil
	}, 5, 10*time.Millisecond)

	require.NoError(t, err)
	require.Len(t, delays, 3)
	assert.GreaterOrEqual(t, delays[0], 10*time.Millisecond)
	assert.GreaterOrEqual(t, delays[1], 20*time.Millisecond)
	assert.GreaterOrEqual(t, delays[2], 40*time.Millisecond)
}

func TestDo_LinearBackoff(t *testing.T) {
	var delays []time.Duration
	last := time.Now()
	attempts := 0

	err := Do(context.Background(), func() error {
		attempts++
		if attempts > 1 {
			delays = append(delays, time.Since(last))
		}
		last = time.Now()
		return errors.New("still failing")
	}, 4, 10*time.Millisecond, Linear)

	require.EqualError(t, err, "still failing")
	require.Len(t, delays, 3)
	assert.GreaterOrEqual(t, delays[0], 10*time.Millisecond)
	assert.GreaterOrEqual(t, delays[1], 20*time.Millisecond)
	assert.GreaterOrEqual(t, delays[2], 30*time.Millisecond)
	assert.Less(t, delays[2], 60*time.Millisecond)
}

func TestBackoffSchedules(t *testing.T) {
	base := 2 * time.Second
	for attempt, want := range map[int][2]time.Duration{
		1: {2 * time.Second, 2 * time.Second},
		2: {4 * time.Second, 4 * time.Second},
		3: {8 * time.Second, 6 * time.Second},
		4: {16 * time.Second, 8 * time.Second},
	} {
		assert.Equal(t, want[0], Exponential(attempt, base), "exponential attempt %d", attempt)
		assert.Equal(t, want[1], Linear(attempt, base), "linear attempt %d", attempt)
	}
}

func TestSleep(t *testing.T) {
	assert.True(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	assert.False(t, Sleep(ctx, time.Minute))
	assert.Less(t, time.Since(start), time.Second)
}
