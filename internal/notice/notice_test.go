package notice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueAssignsUniqueIDsInOrder(t *testing.T) {
	q := NewQueue(time.Minute)
	defer q.Close()

	a := q.Enqueue("Laptop added to cart!", KindSuccess)
	b := q.Enqueue("Laptop is already in cart!", KindError)

	assert.NotEqual(t, a.ID, b.ID)
	active := q.Active()
	require.Len(t, active, 2)
	assert.Equal(t, a.ID, active[0].ID)
	assert.Equal(t, KindError, active[1].Kind)
}

func TestNoticesExpireIndependently(t *testing.T) {
	q := NewQueue(80 * time.Millisecond)
	defer q.Close()

	first := q.Enqueue("first", KindSuccess)
	time.Sleep(40 * time.Millisecond)
	second := q.Enqueue("second", KindSuccess)

	assert.Eventually(t, func() bool {
		active := q.Active()
		return len(active) == 1 && active[0].ID == second.ID
	}, time.Second, 5*time.Millisecond, "first notice should go before the second")
	assert.NotEqual(t, first.ID, second.ID)

	assert.Eventually(t, func() bool { return q.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestDefaultTTL(t *testing.T) {
	q := NewQueue(0)
	defer q.Close()
	assert.Equal(t, DefaultTTL, q.ttl)
}

func TestCloseStopsTimers(t *testing.T) {
	q := NewQueue(time.Hour)
	q.Enqueue("pending", KindSuccess)
	q.Close()

	assert.Zero(t, q.Len())
	assert.Empty(t, q.timers)
	q.Enqueue("ignored", KindSuccess)
	assert.Zero(t, q.Len())
}
