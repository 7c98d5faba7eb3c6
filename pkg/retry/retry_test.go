package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fast(opts ...Option) []Option {
	return append([]Option{WithInitialDelay(time.Millisecond), WithMaxDelay(2 * time.Millisecond), WithJitter(0)}, opts...)
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	var retries []int

	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}, fast(WithMaxAttempts(5), WithOnRetry(func(attempt int, err error, delay time.Duration) {
		retries = append(retries, attempt)
	}))...)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	boom := errors.New("boom")
	calls := 0

	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return boom
	}, fast(WithMaxAttempts(3))...)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	auth := errors.New("password authentication failed")
	calls := 0

	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Permanent(auth)
	}, fast()...)

	assert.Equal(t, auth, err)
	assert.Equal(t, 1, calls)
	assert.False(t, IsPermanent(auth))
	assert.Nil(t, Permanent(nil))
}

func TestDo_RetryIf(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("not retried")
	}, fast(WithRetryIf(func(error) bool { return false }))...)

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextErrorsAreNotRetried(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return context.DeadlineExceeded
	}, fast()...)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)
}

func TestDo_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := Do(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestDoWithData(t *testing.T) {
	calls := 0
	v, err := DoWithData(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("transient")
		}
		return 42, nil
	}, fast()...)

	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestDelay(t *testing.T) {
	r := New(WithInitialDelay(100*time.Millisecond), WithMaxDelay(300*time.Millisecond), WithJitter(0))

	assert.Equal(t, 100*time.Millisecond, r.delay(1))
	assert.Equal(t, 200*time.Millisecond, r.delay(2))
	assert.Equal(t, 300*time.Millisecond, r.delay(3))
}

func TestOptions_IgnoreInvalid(t *testing.T) {
	cfg := New(WithMaxAttempts(0), WithMultiplier(0.5), WithJitter(2)).Config()
	def := DefaultConfig()

	assert.Equal(t, def.MaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, def.Multiplier, cfg.Multiplier)
	assert.Equal(t, def.JitterFactor, cfg.JitterFactor)
}

func TestConnectOptions(t *testing.T) {
	cfg := New(ConnectOptions()...).Config()
	assert.Equal(t, 4, cfg.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.InitialDelay)
}
