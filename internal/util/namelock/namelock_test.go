package namelock

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyed_SerializesSameName(t *testing.T) {
	t.Parallel()
	l := New()

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = With(l, "web", func() error {
				n := inside.Add(1)
				for {
					cur := maxInside.Load()
					if n <= cur || maxInside.CompareAndSwap(cur, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside.Load())
}

func TestKeyed_DifferentNamesDoNotBlock(t *testing.T) {
	t.Parallel()
	l := New()

	l.Lock("a")
	done := make(chan struct{})
	go func() {
		l.Lock("b")
		l.Unlock("b")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different name blocked")
	}
	l.Unlock("a")
}

func TestWith(t *testing.T) {
	t.Parallel()
	sentinel := errors.New("boom")

	assert.ErrorIs(t, With(nil, "x", func() error { return sentinel }), sentinel)
	assert.ErrorIs(t, With(Noop{}, "x", func() error { return sentinel }), sentinel)
	assert.NoError(t, With(New(), "x", func() error { return nil }))
}
