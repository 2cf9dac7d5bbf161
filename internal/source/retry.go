package source

import (
	"context"
	"regexp"
	"time"
)

// RetryConfig configures exponential backoff for downloads
type RetryConfig struct {
	MaxAttempts int           // Total attempts, including the first
	BaseDelay   time.Duration // Delay before the second attempt
	MaxDelay    time.Duration // Upper bound on any delay
	Multiplier  float64       // Growth factor between delays
}

// DefaultRetryConfig retries a failed download twice
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2.0,
	}
}

// go-getter reports HTTP failures only as text
var clientError = regexp.MustCompile(`bad response code: 4\d\d`)

// permanent reports whether retrying err cannot help
func permanent(err error) bool {
	return clientError.MatchString(err.Error())
}

// retryWithBackoff runs fn until it succeeds, fails permanently or the
// attempts run out. Context cancellation stops it immediately.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, fn func() error) error {
	var lastErr error
	backoff := cfg.BaseDelay
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if permanent(err) {
			return err
		}

		if attempt < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * cfg.Multiplier)
				if backoff > cfg.MaxDelay {
					backoff = cfg.MaxDelay
				}
			}
		}
	}

	return lastErr
}
