package util

import (
	"context"
	"errors"
	"time"
)

// Policy is an explicit retry schedule: up to Max extra attempts, waiting
// Backoff * 2^attempt between them. The zero Policy runs fn exactly once.
type Policy struct {
	Max     int
	Backoff time.Duration
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. Retry returns the inner error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func Retry(ctx context.Context, max int, backoff time.Duration, fn func() error) error {
	var err error
	for attempt := 0; attempt <= max; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err = fn()
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if attempt == max {
			break
		}
		wait := backoff * time.Duration(1<<attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return err
}

func (p Policy) Do(ctx context.Context, fn func() error) error {
	max := p.Max
	if max < 0 {
		max = 0
	}
	return Retry(ctx, max, p.Backoff, fn)
}
