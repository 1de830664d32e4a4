// Package retrier repeats fallible calls with a fixed pause between attempts
package retrier

import (
	"context"
	"time"
)

// Connect calls connector up to retry times, sleeping sleep seconds between
// failed attempts. A zero retry still makes exactly one attempt.
//
//	conn, err := retrier.Connect(10, 5, func() (*amqp.Connection, error) {
//	    return amqp.Dial(url)
//	})
func Connect[T any](retry uint8, sleep uint, connector func() (T, error)) (T, error) {
	return Do(context.Background(), Opts{Count: uint(retry), Interval: sleep}, connector)
}

// Opts configures Do
type Opts struct {
	Count    uint // attempts, 0 is treated as 1
	Interval uint // seconds between attempts

	// Retryable reports whether a failed attempt is worth repeating,
	// nil retries every error
	Retryable func(error) bool
}

// Do runs fn until it succeeds, Opts.Count attempts are spent, fn returns an
// error that Opts.Retryable rejects, or ctx is done.
func Do[T any](ctx context.Context, opts Opts, fn func() (T, error)) (T, error) {
	var (
		out T
		err error
	)

	attempts := max(opts.Count, 1)

	for i := uint(0); i < attempts; i++ {
		out, err = fn()
		if err == nil {
			return out, nil
		}

		if opts.Retryable != nil && !opts.Retryable(err) {
			return out, err
		}

		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return out, ctx.Err()
		case <-time.After(time.Duration(opts.Interval) * time.Second):
		}
	}

	return out, err
}
