package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ctxKey string

func TestCombineContext(t *testing.T) {
	const key ctxKey = "target"

	t.Run("KeepsPrimaryValues", func(t *testing.T) {
		combined, cancel := CombineContext(context.WithValue(context.Background(), key, "tab-1"), context.Background())
		defer cancel()
		assert.Equal(t, "tab-1", combined.Value(key))
		assert.NoError(t, combined.Err())
	})

	cases := []struct {
		name       string
		cancelPrim bool
	}{
		{"CancelledByPrimary", true},
		{"CancelledByOperation", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prim, cancelPrim := context.WithCancel(context.Background())
			defer cancelPrim()
			op, cancelOp := context.WithCancel(context.Background())
			defer cancelOp()

			combined, cancel := CombineContext(prim, op)
			defer cancel()
			if tc.cancelPrim {
				cancelPrim()
			} else {
				cancelOp()
			}
			assert.Eventually(t, func() bool { return combined.Err() != nil }, time.Second, 5*time.Millisecond)
			assert.ErrorIs(t, combined.Err(), context.Canceled)
		})
	}

	t.Run("OperationDeadline", func(t *testing.T) {
		op, cancelOp := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancelOp()
		combined, cancel := CombineContext(context.Background(), op)
		defer cancel()
		<-combined.Done()
		assert.ErrorIs(t, op.Err(), context.DeadlineExceeded)
		assert.ErrorIs(t, combined.Err(), context.Canceled)
	})
}

func TestDetach(t *testing.T) {
	const key ctxKey = "target"
	parent, cancel := context.WithTimeout(context.WithValue(context.Background(), key, "tab-1"), 10*time.Millisecond)
	detached := Detach(parent)
	cancel()

	assert.Equal(t, "tab-1", detached.Value(key))
	assert.NoError(t, detached.Err())
	assert.Nil(t, detached.Done())
	_, ok := detached.Deadline()
	assert.False(t, ok)

	derived, cancelDerived := context.WithTimeout(detached, 20*time.Millisecond)
	defer cancelDerived()
	<-derived.Done()
	require.ErrorIs(t, derived.Err(), context.DeadlineExceeded)
}
