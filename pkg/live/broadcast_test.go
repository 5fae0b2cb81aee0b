package live

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// keeps sending v until done is closed so the subscriber is guaranteed
// to be in a receive when a message arrives
func produce(source chan<- int, v int, done <-chan struct{}) {
	for {
		select {
		case source <- v:
		case <-done:
			return
		}
		time.Sleep(time.Millisecond)
	}
}

func TestBroadcastDeliversToSubscriber(t *testing.T) {
	source := make(chan int)
	b := NewBroadcastServer("evt-1", "test", source)
	defer b.Close()
	ch := b.Subscribe()

	done := make(chan struct{})
	defer close(done)
	go produce(source, 42, done)

	select {
	case got := <-ch:
		assert.Equal(t, 42, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestCancelSubscriptionClosesChannel(t *testing.T) {
	source := make(chan int)
	b := NewBroadcastServer("evt-1", "test", source)
	defer b.Close()
	ch := b.Subscribe()

	b.CancelSubscription(ch)
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel must be closed")
	case <-time.After(2 * time.Second):
		t.Fatal("channel was not closed")
	}
}

func TestCloseClosesSubscribers(t *testing.T) {
	source := make(chan int)
	b := NewBroadcastServer("evt-1", "test", source)
	ch := b.Subscribe()

	b.Close()
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel must be closed")
	case <-time.After(2 * time.Second):
		t.Fatal("channel was not closed")
	}
}

func TestSlowSubscriberDoesNotBlockOthers(t *testing.T) {
	source := make(chan int)
	b := NewBroadcastServer("evt-1", "test", source)
	defer b.Close()

	slow := b.Subscribe() // never read
	defer b.CancelSubscription(slow)
	fast := b.Subscribe()

	done := make(chan struct{})
	defer close(done)
	go produce(source, 1, done)

	received := 0
	timeout := time.After(2 * time.Second)
	for received < 3 {
		select {
		case <-fast:
			received++
		case <-timeout:
			t.Fatal("fast subscriber starved by slow subscriber")
		}
	}
}
