package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/tOgg1/devtime/internal/models"
)

func TestFilter_Matches(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		event  *models.Event
		want   bool
	}{
		{
			name:   "empty filter matches any event",
			filter: Filter{},
			event:  &models.Event{Type: models.EventTypePollSucceeded},
			want:   true,
		},
		{
			name:   "nil event returns false",
			filter: Filter{},
			event:  nil,
			want:   false,
		},
		{
			name:   "event type filter matches",
			filter: Filter{EventTypes: []models.EventType{models.EventTypePollFailed}},
			event:  &models.Event{Type: models.EventTypePollFailed},
			want:   true,
		},
		{
			name:   "event type filter rejects non-matching",
			filter: Filter{EventTypes: []models.EventType{models.EventTypePollFailed}},
			event:  &models.Event{Type: models.EventTypeNotice},
			want:   false,
		},
		{
			name: "multiple event types - matches any",
			filter: Filter{EventTypes: []models.EventType{
				models.EventTypeKeyRequired,
				models.EventTypeKeyAccepted,
			}},
			event: &models.Event{Type: models.EventTypeKeyAccepted},
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(tt.event); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInMemoryPublisher_Subscribe(t *testing.T) {
	pub := NewInMemoryPublisher()
	handler := func(event *models.Event) {}

	if err := pub.Subscribe("sub-1", Filter{}, handler); err != nil {
		t.Errorf("Subscribe() error = %v, want nil", err)
	}
	if pub.SubscriberCount() != 1 {
		t.Errorf("SubscriberCount() = %d, want 1", pub.SubscriberCount())
	}

	if err := pub.Subscribe("sub-1", Filter{}, handler); err != ErrSubscriptionExists {
		t.Errorf("Subscribe() duplicate error = %v, want %v", err, ErrSubscriptionExists)
	}
	if err := pub.Subscribe("", Filter{}, handler); err != ErrInvalidSubscriptionID {
		t.Errorf("Subscribe() empty ID error = %v, want %v", err, ErrInvalidSubscriptionID)
	}
	if err := pub.Subscribe("sub-2", Filter{}, nil); err != ErrNilHandler {
		t.Errorf("Subscribe() nil handler error = %v, want %v", err, ErrNilHandler)
	}
}

func TestInMemoryPublisher_Unsubscribe(t *testing.T) {
	pub := NewInMemoryPublisher()
	_ = pub.Subscribe("sub-1", Filter{}, func(event *models.Event) {})

	if err := pub.Unsubscribe("sub-1"); err != nil {
		t.Errorf("Unsubscribe() error = %v, want nil", err)
	}
	if pub.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", pub.SubscriberCount())
	}
	if err := pub.Unsubscribe("sub-1"); err != ErrSubscriptionNotFound {
		t.Errorf("Unsubscribe() non-existent error = %v, want %v", err, ErrSubscriptionNotFound)
	}
}

func TestInMemoryPublisher_PublishWithFilter(t *testing.T) {
	pub := NewInMemoryPublisher()
	ctx := context.Background()

	var failures, all int
	_ = pub.Subscribe("failures", Filter{EventTypes: []models.EventType{models.EventTypePollFailed}}, func(*models.Event) {
		failures++
	})
	_ = pub.Subscribe("all", Filter{}, func(*models.Event) {
		all++
	})

	pub.Publish(ctx, New(models.EventTypePollSucceeded, "ok", nil))
	pub.Publish(ctx, New(models.EventTypePollFailed, "boom", nil))
	pub.Publish(ctx, nil)

	if failures != 1 {
		t.Errorf("failures = %d, want 1", failures)
	}
	if all != 2 {
		t.Errorf("all = %d, want 2", all)
	}
}

func TestInMemoryPublisher_Close(t *testing.T) {
	pub := NewInMemoryPublisher()
	_ = pub.Subscribe("sub-1", Filter{}, func(*models.Event) {})
	_ = pub.Subscribe("sub-2", Filter{}, func(*models.Event) {})

	pub.Close()

	if pub.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() after Close = %d, want 0", pub.SubscriberCount())
	}
}

func TestInMemoryPublisher_ConcurrentAccess(t *testing.T) {
	pub := NewInMemoryPublisher()
	ctx := context.Background()

	var wg sync.WaitGroup
	var count int64

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			subID := "sub-" + string(rune('a'+id))
			_ = pub.Subscribe(subID, Filter{}, func(event *models.Event) {
				atomic.AddInt64(&count, 1)
			})
		}(i)
	}
	wg.Wait()

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pub.Publish(ctx, &models.Event{Type: models.EventTypeNotice})
		}()
	}
	wg.Wait()

	expected := int64(10 * 100)
	if atomic.LoadInt64(&count) != expected {
		t.Errorf("count = %d, want %d", count, expected)
	}
}

type failingSink struct{ calls int }

func (f *failingSink) Write(context.Context, *models.Event) error {
	f.calls++
	return errors.New("disk full")
}

func TestInMemoryPublisher_SinkFailureDoesNotBlockHandlers(t *testing.T) {
	sink := &failingSink{}
	pub := NewInMemoryPublisher(WithSink(sink))

	delivered := false
	_ = pub.Subscribe("sub-1", Filter{}, func(*models.Event) { delivered = true })
	pub.Publish(context.Background(), New(models.EventTypeNotice, "hello", nil))

	if sink.calls != 1 {
		t.Errorf("sink calls = %d, want 1", sink.calls)
	}
	if !delivered {
		t.Error("expected handler to receive event despite sink failure")
	}
}

func TestInMemoryPublisher_MultipleSinks(t *testing.T) {
	first, second := &failingSink{}, &failingSink{}
	pub := NewInMemoryPublisher(WithSink(first), WithSink(nil), WithSink(second))
	pub.Publish(context.Background(), New(models.EventTypeNotice, "hello", nil))

	if first.calls != 1 || second.calls != 1 {
		t.Errorf("sink calls = %d/%d, want 1/1", first.calls, second.calls)
	}
}

func TestJSONLSink(t *testing.T) {
	var buf bytes.Buffer
	pub := NewInMemoryPublisher(WithSink(NewJSONLSink(&buf)))
	ctx := context.Background()

	pub.Publish(ctx, New(models.EventTypePollSucceeded, "ok", models.PollSucceededPayload{
		DurationSeconds: 3600,
		NextPollSeconds: 60,
	}))
	pub.Publish(ctx, New(models.EventTypeKeyRequired, "enter key", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}

	var first models.Event
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode first line: %v", err)
	}
	if first.Type != models.EventTypePollSucceeded || first.ID == "" {
		t.Errorf("unexpected first event: %+v", first)
	}

	var payload models.PollSucceededPayload
	if err := json.Unmarshal(first.Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.DurationSeconds != 3600 || payload.NextPollSeconds != 60 {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestNew(t *testing.T) {
	event := New(models.EventTypeNotice, "hi", nil)
	if event.ID == "" {
		t.Error("expected an ID")
	}
	if event.Timestamp.IsZero() {
		t.Error("expected a timestamp")
	}
	if event.Payload != nil {
		t.Errorf("expected no payload, got %s", event.Payload)
	}
}
