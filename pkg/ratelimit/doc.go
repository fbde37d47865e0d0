// Package ratelimit paces outgoing provider requests.
//
// Keyed market-data APIs enforce a per-minute request quota; the token
// bucket here keeps the crawler under it:
//
//	limiter := ratelimit.PerMinute(5)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err // interrupted
//	}
package ratelimit
