package library_test

import (
	"testing"
	"time"

	"github.com/lumenapp/lumen/pkg/library"
)

func TestHubSubscribePublish(t *testing.T) {
	h := library.NewHub()
	defer h.Close()

	sub := h.Subscribe()
	if sub == nil {
		t.Fatal("expected subscription")
	}
	if h.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber, got %d", h.SubscriberCount())
	}

	h.Publish(library.Event{Time: time.Now()})

	select {
	case <-sub.Events:
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	h := library.NewHub()
	defer h.Close()

	sub := h.Subscribe()
	h.Unsubscribe(sub.ID)

	if _, ok := <-sub.Events; ok {
		t.Error("expected closed channel after unsubscribe")
	}
	if h.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", h.SubscriberCount())
	}
}

func TestHubDropsWhenFull(t *testing.T) {
	h := library.NewHub()
	defer h.Close()

	sub := h.Subscribe()

	// Overflow the buffer; Publish must never block.
	for i := 0; i < 100; i++ {
		h.Publish(library.Event{Time: time.Now()})
	}

	drained := 0
	for {
		select {
		case <-sub.Events:
			drained++
		default:
			if drained == 0 || drained > cap(sub.Events) {
				t.Errorf("expected 1..%d buffered events, drained %d", cap(sub.Events), drained)
			}
			return
		}
	}
}

func TestHubClose(t *testing.T) {
	h := library.NewHub()

	sub := h.Subscribe()
	h.Close()

	if _, ok := <-sub.Events; ok {
		t.Error("expected closed channel after hub close")
	}
	if h.Subscribe() != nil {
		t.Error("subscribe on closed hub should return nil")
	}

	// Publishing after close is a no-op, not a panic.
	h.Publish(library.Event{Time: time.Now()})
}
