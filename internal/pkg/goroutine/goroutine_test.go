package goroutine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager(t *testing.T) {
	t.Run("CollectsErrors", func(t *testing.T) {
		// Arrange
		g := NewManager(4)
		boom := errors.New("boom")
		var ran atomic.Int32

		// Act
		for i := range 3 {
			g.Go(context.Background(), func(context.Context) error {
				ran.Add(1)
				if i == 1 {
					return boom
				}
				return nil
			})
		}
		err := g.Wait()

		// Assert
		assert.Equal(t, int32(3), ran.Load())
		assert.ErrorIs(t, err, boom)
	})

	t.Run("DropsWhenFull", func(t *testing.T) {
		g := NewManager(1)
		release := make(chan struct{})

		started := g.Go(context.Background(), func(context.Context) error {
			<-release
			return nil
		})
		dropped := g.Go(context.Background(), func(context.Context) error { return nil })
		close(release)

		assert.True(t, started)
		assert.False(t, dropped)
		assert.ErrorIs(t, g.Wait(), ErrLimitReached)
	})

	t.Run("ClosedAfterWait", func(t *testing.T) {
		g := NewManager(1)
		assert.NoError(t, g.Wait())

		assert.False(t, g.Go(context.Background(), func(context.Context) error { return nil }))
	})

	t.Run("RecoversPanic", func(t *testing.T) {
		g := NewManager(1)

		g.Go(context.Background(), func(context.Context) error { panic("kaboom") })

		assert.NoError(t, g.Wait())
	})

	t.Run("CanceledContextSkipsTask", func(t *testing.T) {
		g := NewManager(1)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		var ran atomic.Bool

		g.Go(ctx, func(context.Context) error { ran.Store(true); return nil })

		assert.NoError(t, g.Wait())
		assert.False(t, ran.Load())
	})

	t.Run("NilManager", func(t *testing.T) {
		var g *Manager

		assert.False(t, g.Go(context.Background(), func(context.Context) error { return nil }))
		assert.NoError(t, g.Wait())
	})
}
