package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	errs "github.com/gorobchenkoann/save-from-inst/pkg/errors"
	"github.com/gorobchenkoann/save-from-inst/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Logger:      logger.NewNopLogger(),
	}
}

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   1 * time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1 * time.Second},
		{9, 1 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, backoff.NextDelay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestExponentialBackoffJitterBounds(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.5,
	}

	for i := 0; i < 50; i++ {
		delay := backoff.NextDelay(2)
		assert.GreaterOrEqual(t, delay, 100*time.Millisecond)
		assert.LessOrEqual(t, delay, 300*time.Millisecond)
	}
}

func TestDefaultRetryIf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"network", errs.New(errs.ErrorTypeNetwork, 0, "reset"), true},
		{"rate limit", errs.New(errs.ErrorTypeRateLimit, 429, "slow down"), true},
		{"server", errs.New(errs.ErrorTypeServerError, 502, "bad gateway"), true},
		{"not found", errs.New(errs.ErrorTypeNotFound, 404, "gone"), false},
		{"auth", errs.New(errs.ErrorTypeAuth, 401, "login"), false},
		{"untyped", errors.New("plain"), false},
		{"canceled", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultRetryIf(tt.err))
		})
	}
}

func TestDoRetriesTransientErrors(t *testing.T) {
	attempts := 0
	var retried []int

	cfg := fastConfig(5)
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		retried = append(retried, attempt)
	}

	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errs.New(errs.ErrorTypeServerError, 503, "unavailable")
		}
		return nil
	}, cfg)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	attempts := 0
	notFound := errs.New(errs.ErrorTypeNotFound, 404, "no such post")

	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return notFound
	}, fastConfig(5))

	assert.Equal(t, 1, attempts)
	assert.Same(t, notFound, err)
}

func TestDoExhaustsAttempts(t *testing.T) {
	attempts := 0
	tl := logger.NewTestLogger()
	cfg := fastConfig(3)
	cfg.Logger = tl

	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errs.New(errs.ErrorTypeNetwork, 0, "timeout")
	}, cfg)

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Contains(t, err.Error(), "max retry attempts (3) exceeded")
	assert.Equal(t, errs.ErrorTypeNetwork, errs.TypeOf(err))
	assert.Len(t, tl.GetMessagesByLevel("WARN"), 3)
}

func TestDoHonoursContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	cfg := fastConfig(10)
	cfg.Backoff = &ConstantBackoff{Delay: time.Hour}
	cfg.OnRetry = func(int, error, time.Duration) { cancel() }

	err := Do(ctx, func(ctx context.Context) error {
		attempts++
		return errs.New(errs.ErrorTypeNetwork, 0, "timeout")
	}, cfg)

	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	page, err := DoWithResult(context.Background(), func(ctx context.Context) (string, error) {
		attempts++
		if attempts == 1 {
			return "", errs.New(errs.ErrorTypeRateLimit, 429, "slow down")
		}
		return "<html>", nil
	}, fastConfig(3))

	require.NoError(t, err)
	assert.Equal(t, "<html>", page)
	assert.Equal(t, 2, attempts)
}

func TestDoNilConfigUsesDefaults(t *testing.T) {
	err := Do(context.Background(), func(ctx context.Context) error {
		return errors.New("plain")
	}, nil)
	assert.EqualError(t, err, "plain")
}

func TestWait(t *testing.T) {
	assert.NoError(t, Wait(context.Background(), 0))
	assert.NoError(t, Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
}
