// Package retry re-runs operations that fail with transient errors.
//
// Only errors typed by pkg/errors as network, rate limit or server errors are
// retried by default; everything else, including context cancellation, is
// returned on the first failure.
//
//	page, err := retry.DoWithResult(ctx, func(ctx context.Context) (string, error) {
//		return fetch(ctx, url)
//	}, &retry.Config{
//		MaxAttempts: 3,
//		Backoff:     &retry.ExponentialBackoff{BaseDelay: time.Second, MaxDelay: 15 * time.Second, Multiplier: 2},
//	})
package retry
