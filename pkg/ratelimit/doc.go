// Package ratelimit paces outbound requests to Instagram.
//
// Two strategies implement Limiter:
//
//   - TokenBucket refills to full capacity once per period; bursts are allowed
//   - SlidingWindow counts requests over a moving window
//
// Wait blocks until a slot frees up and returns early with ctx.Err() when the
// context is cancelled.
//
//	limiter, err := ratelimit.New(ratelimit.StrategyTokenBucket, 30)
//	if err := limiter.Wait(ctx); err != nil {
//		return err
//	}
package ratelimit
