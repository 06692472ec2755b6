package realtime

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/aletheia-backend/internal/platform/logger"
)

func recvMessage(t *testing.T, ch <-chan Message, timeout time.Duration) Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for stream message")
	}
	return Message{}
}

func TestHubOrderingAndReconnect(t *testing.T) {
	hub := NewHub(logger.Nop())
	user := uuid.New()
	channel := UserChannel(user)

	first := hub.NewClient(user)
	hub.Subscribe(first, channel)
	hub.Broadcast(Message{Channel: channel, Event: EventReward, Data: map[string]any{"seq": 1}})
	hub.Broadcast(Message{Channel: channel, Event: EventNotification, Data: map[string]any{"seq": 2}})

	if got := recvMessage(t, first.Outbound, time.Second); got.Event != EventReward {
		t.Fatalf("first event: want=%s got=%s", EventReward, got.Event)
	}
	if got := recvMessage(t, first.Outbound, time.Second); got.Event != EventNotification {
		t.Fatalf("second event: want=%s got=%s", EventNotification, got.Event)
	}

	hub.CloseClient(first)
	hub.CloseClient(first)
	if _, ok := <-first.Outbound; ok {
		t.Fatalf("outbound should be closed after disconnect")
	}
	if n := hub.Subscribers(channel); n != 0 {
		t.Fatalf("expected no subscribers after close, got %d", n)
	}

	second := hub.NewClient(user)
	hub.Subscribe(second, channel)
	hub.Broadcast(Message{Channel: channel, Event: EventNotification})
	if got := recvMessage(t, second.Outbound, time.Second); got.Event != EventNotification {
		t.Fatalf("reconnect event: got=%s", got.Event)
	}
}

func TestHubIsolatesChannelsAndDropsWhenFull(t *testing.T) {
	hub := NewHub(logger.Nop())
	alice, bob := uuid.New(), uuid.New()
	ca := hub.NewClient(alice)
	hub.Subscribe(ca, UserChannel(alice))
	cb := hub.NewClient(bob)
	hub.Subscribe(cb, UserChannel(bob))

	for i := 0; i < outboundBuffer+5; i++ {
		hub.Broadcast(Message{Channel: UserChannel(alice), Event: EventNotification})
	}
	if len(ca.Outbound) != outboundBuffer {
		t.Fatalf("expected a full buffer of %d, got %d", outboundBuffer, len(ca.Outbound))
	}
	if len(cb.Outbound) != 0 {
		t.Fatalf("bob received alice's messages")
	}

	hub.Unsubscribe(ca, UserChannel(alice))
	if n := hub.Subscribers(UserChannel(alice)); n != 0 {
		t.Fatalf("unsubscribe left %d subscribers", n)
	}
	hub.Shutdown()
	if _, ok := <-cb.Outbound; ok {
		t.Fatalf("shutdown should close every client")
	}
}

func TestServeHTTPWritesEventStream(t *testing.T) {
	hub := NewHub(logger.Nop())
	user := uuid.New()
	c := hub.NewClient(user)
	hub.Subscribe(c, UserChannel(user))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeHTTP(w, r, c)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer res.Body.Close()
	if ct := res.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type: got=%s", ct)
	}

	hub.Broadcast(Message{Channel: UserChannel(user), Event: EventReward, Data: map[string]any{"xp": 40}})

	sc := bufio.NewScanner(res.Body)
	var event, data string
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "event: ") {
			event = strings.TrimPrefix(line, "event: ")
		}
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	if event != string(EventReward) || !strings.Contains(data, `"xp":40`) {
		t.Fatalf("unexpected frame: event=%q data=%q", event, data)
	}
	hub.CloseClient(c)
}

type fakeBus struct {
	published []Message
	err       error
}

func (b *fakeBus) Publish(ctx context.Context, msg Message) error {
	if b.err != nil {
		return b.err
	}
	b.published = append(b.published, msg)
	return nil
}

func (b *fakeBus) StartForwarder(ctx context.Context, onMsg func(m Message)) error {
	return nil
}

func (b *fakeBus) Close() error { return nil }

func TestPublisherRouting(t *testing.T) {
	user := uuid.New()

	local := NewPublisher(logger.Nop(), NewHub(logger.Nop()), nil)
	c := local.Hub().NewClient(user)
	local.Hub().Subscribe(c, UserChannel(user))
	local.Push(context.Background(), user, EventNotification, "hi")
	if got := recvMessage(t, c.Outbound, time.Second); got.Data != "hi" {
		t.Fatalf("local delivery: got=%v", got.Data)
	}

	bus := &fakeBus{}
	viaBus := NewPublisher(logger.Nop(), NewHub(logger.Nop()), bus)
	c2 := viaBus.Hub().NewClient(user)
	viaBus.Hub().Subscribe(c2, UserChannel(user))
	viaBus.Push(context.Background(), user, EventReward, nil)
	if len(bus.published) != 1 || len(c2.Outbound) != 0 {
		t.Fatalf("expected bus-only delivery, bus=%d local=%d", len(bus.published), len(c2.Outbound))
	}

	bus.err = errors.New("redis down")
	viaBus.Push(context.Background(), user, EventReward, nil)
	if len(c2.Outbound) != 1 {
		t.Fatalf("expected local fallback when the bus fails")
	}

	var nilPub *Publisher
	nilPub.Push(context.Background(), user, EventReward, nil)
	if err := nilPub.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}
