package util

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPolicy_Do(t *testing.T) {
	t.Parallel()

	t.Run("zero policy calls once", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := Policy{}.Do(context.Background(), func() error {
			calls++
			return errors.New("boom")
		})
		require.EqualError(t, err, "boom")
		require.Equal(t, 1, calls)
	})

	t.Run("retries until success", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := Policy{Max: 3, Backoff: time.Millisecond}.Do(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, 3, calls)
	})

	t.Run("permanent error stops immediately", func(t *testing.T) {
		t.Parallel()

		sentinel := errors.New("not found")
		calls := 0
		err := Policy{Max: 5, Backoff: time.Millisecond}.Do(context.Background(), func() error {
			calls++
			return Permanent(sentinel)
		})
		require.Same(t, sentinel, err)
		require.Equal(t, 1, calls)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := Policy{Max: 2}.Do(ctx, func() error { return nil })
		require.ErrorIs(t, err, context.Canceled)
	})
}
