// Package ratelimit bounds how often a key may perform an action.
package ratelimit

import "context"

// Limiter reports whether one more event for key fits in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Unlimited allows every event.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) (bool, error) { return true, nil }
