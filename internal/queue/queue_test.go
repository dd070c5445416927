package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"telemetrix.dev/internal/models"
)

func newTestQueue(t *testing.T, capacity int) *Queue[int] {
	t.Helper()
	q, err := New[int](capacity)
	require.NoError(t, err)
	return q
}

func TestNewRejectsNonPositiveCapacity(t *testing.T) {
	for _, c := range []int{0, -1} {
		q, err := New[int](c)
		assert.Nil(t, q)
		assert.ErrorIs(t, err, ErrCapacity)
	}
}

func TestFIFOOrder(t *testing.T) {
	for _, n := range []int{1, 3, 7, 8} {
		q := newTestQueue(t, 8)
		for i := 0; i < n; i++ {
			require.True(t, q.Push(i))
		}
		for i := 0; i < n; i++ {
			v, ok := q.Pop()
			require.True(t, ok)
			assert.Equal(t, i, v)
		}
		assert.Equal(t, 0, q.Len())
	}
}

func TestFIFOOrderAcrossWraparound(t *testing.T) {
	q := newTestQueue(t, 4)
	next := 0
	expect := 0
	for round := 0; round < 10; round++ {
		for q.Len() < 3 {
			require.True(t, q.Push(next))
			next++
		}
		for i := 0; i < 2; i++ {
			v, ok := q.TryPop()
			require.True(t, ok)
			assert.Equal(t, expect, v)
			expect++
		}
	}
}

func TestPushBeyondCapacityReturnsFalse(t *testing.T) {
	q := newTestQueue(t, 4)
	for i := 0; i < 4; i++ {
		require.True(t, q.Push(i))
	}

	done := make(chan bool, 1)
	go func() { done <- q.Push(99) }()

	select {
	case ok := <-done:
		assert.False(t, ok, "push into a full queue must be rejected")
	case <-time.After(time.Second):
		t.Fatal("Push blocked on a full queue")
	}

	for i := 0; i < 4; i++ {
		v, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, i, v, "queued items must survive a rejected push")
	}
}

func TestPopAfterShutdownOnEmptyQueue(t *testing.T) {
	q := newTestQueue(t, 4)
	q.SignalShutdown()

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop()
		done <- ok
	}()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Pop blocked after shutdown")
	}
}

func TestPopDrainsQueueAfterShutdown(t *testing.T) {
	q := newTestQueue(t, 4)
	require.True(t, q.Push(1))
	require.True(t, q.Push(2))
	q.SignalShutdown()

	v, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, 2, v)
	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestShutdownWakesBlockedConsumer(t *testing.T) {
	q := newTestQueue(t, 4)

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop()
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	q.SignalShutdown()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("blocked Pop was not woken by shutdown")
	}
}

func TestPushWakesBlockedConsumer(t *testing.T) {
	q := newTestQueue(t, 4)

	done := make(chan int, 1)
	go func() {
		v, _ := q.Pop()
		done <- v
	}()

	time.Sleep(20 * time.Millisecond)
	require.True(t, q.Push(42))

	select {
	case v := <-done:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("blocked Pop was not woken by Push")
	}
}

func TestSignalShutdownIsIdempotent(t *testing.T) {
	q := newTestQueue(t, 2)
	assert.False(t, q.IsShutdown())
	q.SignalShutdown()
	q.SignalShutdown()
	assert.True(t, q.IsShutdown())
	assert.True(t, q.Push(1), "shutdown does not close the producer side")
}

func TestTryPopEmpty(t *testing.T) {
	q := newTestQueue(t, 2)
	_, ok := q.TryPop()
	assert.False(t, ok)
}

func TestMultipleProducersPreservePerProducerOrder(t *testing.T) {
	const (
		producers = 4
		perProd   = 2000
	)
	q, err := New[[2]int](64)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProd; {
				if q.Push([2]int{p, i}) {
					i++
				}
			}
		}(p)
	}

	go func() {
		wg.Wait()
		q.SignalShutdown()
	}()

	last := make([]int, producers)
	for i := range last {
		last[i] = -1
	}
	total := 0
	for {
		v, ok := q.Pop()
		if !ok {
			break
		}
		assert.Equal(t, last[v[0]]+1, v[1], "producer %d out of order", v[0])
		last[v[0]] = v[1]
		total++
	}
	assert.Equal(t, producers*perProd, total)
}

func TestVehicleRecordsSurviveQueue(t *testing.T) {
	q, err := New[models.VehicleRecord](DefaultCapacity)
	require.NoError(t, err)
	assert.Equal(t, 1024, q.Cap())

	rec := models.NewVehicleRecord()
	rec.SetFleetNumber("8412")
	rec.Speed = 11.5
	require.True(t, q.Push(rec))

	got, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, rec, got)
	assert.Equal(t, "8412", got.FleetNumber())
}
