package budget

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudget_NilIsUnlimited(t *testing.T) {
	var b *Budget
	for i := 0; i < 1000; i++ {
		require.True(t, b.Tick())
	}
	assert.False(t, b.Exhausted())
	assert.Empty(t, b.Reason())
	assert.Equal(t, Stats{}, b.Stats())
}

func TestBudget_MaxVisits(t *testing.T) {
	b := New(Config{MaxVisits: 3})
	assert.True(t, b.Tick())
	assert.True(t, b.Tick())
	assert.True(t, b.Tick())
	assert.False(t, b.Tick())
	assert.False(t, b.Tick(), "exhausted budget stays exhausted")
	assert.Equal(t, ReasonVisits, b.Reason())
}

func TestBudget_DeadlineCheckedOnFirstTick(t *testing.T) {
	b := WithDeadline(time.Now().Add(-time.Second), 1000)
	assert.False(t, b.Tick())
	assert.Equal(t, ReasonDeadline, b.Reason())
}

func TestBudget_DeadlineIsAmortized(t *testing.T) {
	b := WithDeadline(time.Now().Add(20*time.Millisecond), 8)
	require.True(t, b.Tick())

	time.Sleep(30 * time.Millisecond)

	// The clock is only consulted again on the ninth tick.
	for i := 0; i < 7; i++ {
		assert.True(t, b.Tick(), "tick %d", i)
	}
	assert.False(t, b.Tick())
	assert.True(t, b.Exhausted())
}

func TestForContext(t *testing.T) {
	t.Run("no limits", func(t *testing.T) {
		assert.Nil(t, ForContext(context.Background(), Config{}))
	})

	t.Run("attached budget wins", func(t *testing.T) {
		attached := New(Config{MaxVisits: 1})
		ctx := WithBudget(context.Background(), attached)
		assert.Same(t, attached, ForContext(ctx, Config{MaxVisits: 100}))
	})

	t.Run("context deadline tightens config", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		defer cancel()

		b := ForContext(ctx, Config{MaxDuration: time.Hour})
		require.NotNil(t, b)
		assert.Less(t, b.Stats().TimeLimit, time.Minute)
	})
}

func TestBudget_Split(t *testing.T) {
	b := New(Config{MaxVisits: 10, MaxDuration: time.Hour})
	for i := 0; i < 4; i++ {
		b.Tick()
	}

	shares := b.Split(3)
	require.Len(t, shares, 3)
	for _, s := range shares {
		assert.Equal(t, int64(2), s.Stats().VisitLimit)
		assert.Equal(t, b.deadline, s.deadline)
	}

	assert.Nil(t, b.Split(0))

	var unlimited *Budget
	for _, s := range unlimited.Split(2) {
		assert.Nil(t, s)
	}
}
