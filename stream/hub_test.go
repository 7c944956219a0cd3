package stream

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(capacity int) *Hub {
	return NewHub(capacity, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHubDeliversOnlyToMatchingStream(t *testing.T) {
	hub := newTestHub(4)
	bracketSub := hub.Subscribe(BracketStreamID("t1"))
	courtSub := hub.Subscribe(CourtStreamID("c1"))
	defer bracketSub.Close()
	defer courtSub.Close()

	hub.Publish(Event{Name: EventMatchStart, StreamID: BracketStreamID("t1")})

	ev := <-bracketSub.Events()
	assert.Equal(t, EventMatchStart, ev.Name)
	assert.False(t, ev.At.IsZero())

	select {
	case ev := <-courtSub.Events():
		t.Fatalf("court subscriber received %s", ev.Name)
	default:
	}
}

func TestHubPreservesPublishOrder(t *testing.T) {
	hub := newTestHub(16)
	sub := hub.Subscribe(BracketStreamID("t1"))
	defer sub.Close()

	names := []EventName{EventMatchComplete, EventBracketUpdate, EventTournamentUpdate}
	for _, name := range names {
		hub.Publish(Event{Name: name, StreamID: BracketStreamID("t1")})
	}

	for _, want := range names {
		ev := <-sub.Events()
		assert.Equal(t, want, ev.Name)
	}
}

func TestHubFanOut(t *testing.T) {
	hub := newTestHub(4)
	subs := make([]*Subscriber, 5)
	for i := range subs {
		subs[i] = hub.Subscribe(BracketStreamID("t1"))
	}
	require.Equal(t, 5, hub.SubscriberCount(BracketStreamID("t1")))

	hub.Publish(Event{Name: EventBracketUpdate, StreamID: BracketStreamID("t1")})
	for i, sub := range subs {
		ev := <-sub.Events()
		assert.Equal(t, EventBracketUpdate, ev.Name, "subscriber %d", i)
		sub.Close()
	}
	assert.Equal(t, 0, hub.SubscriberCount(BracketStreamID("t1")))
}

func TestHubDisconnectsOverflowedSubscriber(t *testing.T) {
	hub := newTestHub(2)
	slow := hub.Subscribe(BracketStreamID("t1"))
	healthy := hub.Subscribe(BracketStreamID("t1"))

	// The slow subscriber never drains; the third publish overflows it.
	for i := 0; i < 3; i++ {
		hub.Publish(Event{Name: EventMatchUpdate, StreamID: BracketStreamID("t1")})
	}

	assert.Equal(t, 1, hub.SubscriberCount(BracketStreamID("t1")))

	// Its queue is closed after the buffered events drain.
	for i := 0; i < 2; i++ {
		_, ok := <-slow.Events()
		require.True(t, ok)
	}
	_, ok := <-slow.Events()
	assert.False(t, ok)

	// The healthy subscriber got everything.
	for i := 0; i < 3; i++ {
		ev := <-healthy.Events()
		assert.Equal(t, EventMatchUpdate, ev.Name)
	}
	healthy.Close()
}

func TestSubscriberCloseIsIdempotent(t *testing.T) {
	hub := newTestHub(4)
	sub := hub.Subscribe(TournamentStreamID("t1"))

	sub.Close()
	sub.Close()
	hub.Unsubscribe(sub)

	assert.Equal(t, 0, hub.SubscriberCount(TournamentStreamID("t1")))
	_, ok := <-sub.Events()
	assert.False(t, ok)
}

func TestHubConcurrentPublishAndSubscribe(t *testing.T) {
	hub := newTestHub(1024)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			hub.Publish(Event{
				Name:     EventMatchUpdate,
				StreamID: BracketStreamID(fmt.Sprintf("t%d", i%4)),
			})
		}
	}()

	for i := 0; i < 20; i++ {
		sub := hub.Subscribe(BracketStreamID(fmt.Sprintf("t%d", i%4)))
		sub.Close()
	}
	<-done
}
