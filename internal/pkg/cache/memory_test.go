package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/otpauth/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func TestMemory_SetGet(t *testing.T) {
	t.Run("VisibleUntilExpiry", func(t *testing.T) {
		// Arrange
		ctx := context.Background()
		c := clock.NewManual(start)
		m := NewMemory[string](c, 4)
		require.NoError(t, m.Set(ctx, "otp:code:123456", "SECRET", time.Minute))

		// Act
		c.Advance(time.Minute)
		v, exp, found, err := m.Get(ctx, "otp:code:123456")

		// Assert
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "SECRET", v)
		assert.Equal(t, start.Add(time.Minute), exp)
	})

	t.Run("ExpiredIsEvicted", func(t *testing.T) {
		ctx := context.Background()
		c := clock.NewManual(start)
		m := NewMemory[string](c, 4)
		require.NoError(t, m.Set(ctx, "k", "v", time.Minute))

		c.Advance(time.Minute + time.Nanosecond)
		_, _, found, err := m.Get(ctx, "k")

		require.NoError(t, err)
		assert.False(t, found)
		assert.Zero(t, m.Len())
	})

	t.Run("Missing", func(t *testing.T) {
		v, exp, found, err := NewMemory[int](clock.NewManual(start), 0).Get(context.Background(), "nope")

		require.NoError(t, err)
		assert.False(t, found)
		assert.Zero(t, v)
		assert.True(t, exp.IsZero())
	})

	t.Run("OverwriteResetsExpiry", func(t *testing.T) {
		ctx := context.Background()
		c := clock.NewManual(start)
		m := NewMemory[string](c, 4)
		require.NoError(t, m.Set(ctx, "k", "a", time.Minute))

		c.Advance(50 * time.Second)
		require.NoError(t, m.Set(ctx, "k", "b", time.Minute))
		c.Advance(50 * time.Second)
		v, _, found, err := m.Get(ctx, "k")

		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "b", v)
	})

	t.Run("InvalidTTL", func(t *testing.T) {
		m := NewMemory[string](clock.NewManual(start), 4)

		assert.ErrorIs(t, m.Set(context.Background(), "k", "v", 0), ErrInvalidTTL)
		_, err := m.SetIfAbsent(context.Background(), "k", "v", -time.Second)
		assert.ErrorIs(t, err, ErrInvalidTTL)
	})
}

func TestMemory_SetIfAbsent(t *testing.T) {
	// Arrange
	ctx := context.Background()
	c := clock.NewManual(start)
	m := NewMemory[string](c, 4)

	// Act
	first, err1 := m.SetIfAbsent(ctx, "otp:code:111111", "A", time.Minute)
	second, err2 := m.SetIfAbsent(ctx, "otp:code:111111", "B", time.Minute)
	c.Advance(2 * time.Minute)
	third, err3 := m.SetIfAbsent(ctx, "otp:code:111111", "C", time.Minute)

	// Assert
	require.NoError(t, err1)
	require.NoError(t, err2)
	require.NoError(t, err3)
	assert.True(t, first)
	assert.False(t, second)
	assert.True(t, third)

	v, _, _, err := m.Get(ctx, "otp:code:111111")
	require.NoError(t, err)
	assert.Equal(t, "C", v)
}

func TestMemory_Delete(t *testing.T) {
	// Arrange
	ctx := context.Background()
	m := NewMemory[string](clock.NewManual(start), 4)
	require.NoError(t, m.Set(ctx, "otp:code:123456", "SECRET", time.Minute))

	// Act
	err := m.Delete(ctx, "otp:code:123456")

	// Assert
	require.NoError(t, err)
	_, _, found, err := m.Get(ctx, "otp:code:123456")
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, m.Delete(ctx, "missing"))

	ok, err := m.SetIfAbsent(ctx, "otp:code:123456", "OTHER", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemory_Concurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[int](clock.NewManual(start), 8)

	var wg sync.WaitGroup
	winners := make(chan int, 50)
	for i := range 50 {
		wg.Go(func() {
			_ = m.Set(ctx, fmt.Sprintf("k%d", i), i, time.Minute)
			if ok, _ := m.SetIfAbsent(ctx, "shared", i, time.Minute); ok {
				winners <- i
			}
		})
	}
	wg.Wait()
	close(winners)

	assert.Len(t, winners, 1)
	assert.Equal(t, 51, m.Len())
}
