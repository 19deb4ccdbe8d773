package logging

import (
	"context"
	"testing"
	"time"
)

func TestStreamHubFetchReturnsNewEvents(t *testing.T) {
	hub := NewStreamHub(8)
	hub.Publish(LogEvent{Message: "one"})
	hub.Publish(LogEvent{Message: "two"})

	events, next, err := hub.Fetch(context.Background(), 0, 0, false)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Message != "one" || events[1].Message != "two" {
		t.Fatalf("events out of order: %+v", events)
	}
	if next != events[1].Sequence {
		t.Fatalf("next cursor mismatch: %d vs %d", next, events[1].Sequence)
	}

	events, _, err = hub.Fetch(context.Background(), next, 0, false)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no new events, got %d", len(events))
	}
}

func TestStreamHubDropsOldestAtCapacity(t *testing.T) {
	hub := NewStreamHub(2)
	hub.Publish(LogEvent{Message: "a"})
	hub.Publish(LogEvent{Message: "b"})
	hub.Publish(LogEvent{Message: "c"})

	events, _, err := hub.Fetch(context.Background(), 0, 0, false)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 buffered events, got %d", len(events))
	}
	if events[0].Message != "b" || events[1].Message != "c" {
		t.Fatalf("unexpected buffer contents: %+v", events)
	}
}

func TestStreamHubFetchWaitHonorsContext(t *testing.T) {
	hub := NewStreamHub(4)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := hub.Fetch(ctx, 0, 0, true)
	if err == nil {
		t.Fatal("expected context error from waiting fetch")
	}
}

func TestStreamHubFetchWaitWakesOnPublish(t *testing.T) {
	hub := NewStreamHub(4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		events, _, err := hub.Fetch(context.Background(), 0, 0, true)
		if err != nil || len(events) == 0 {
			t.Errorf("waiting fetch failed: events=%d err=%v", len(events), err)
		}
	}()

	time.Sleep(20 * time.Millisecond)
	hub.Publish(LogEvent{Message: "wake"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("waiting fetch never woke")
	}
}
