package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/jlvsolutions/WorldCities-sub000/internal/events"
	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

type failSink struct{ count atomic.Int32 }

func (f *failSink) Emit(ctx context.Context, e events.Event) error {
	f.count.Add(1)
	return errors.New("fail")
}

type memDLQ struct {
	mu    sync.Mutex
	names []string
}

func (q *memDLQ) Store(_ context.Context, e events.Event, _ int, _ string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.names = append(q.names, e.Name)
	return nil
}

func TestRetry(t *testing.T) {
	s := &failSink{}
	dlq := &memDLQ{}
	d := events.NewDispatcher(events.Config{Retry: events.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond}}, dlq, s)
	d.Dispatch(context.Background(), events.Event{Name: "x"})
	d.Wait()
	if n := s.count.Load(); n != 2 {
		t.Fatalf("attempts=%d", n)
	}
	if len(dlq.names) != 1 || dlq.names[0] != "x" {
		t.Fatalf("dlq=%v", dlq.names)
	}
}

func TestNilDispatcher(t *testing.T) {
	var d *events.Dispatcher
	d.Dispatch(context.Background(), events.Event{Name: "x"})
	d.Wait()
	if d.Len() != 0 {
		t.Fatalf("len=%d", d.Len())
	}
}

func TestRecordEvent(t *testing.T) {
	e := events.RecordEvent(sdk.AdminRegions, events.Deleted, nil)
	if e.Name != "adminregions.deleted" || e.ID == "" || e.Time.IsZero() {
		t.Fatalf("event %+v", e)
	}
}

func TestWebhookSignature(t *testing.T) {
	var gotSig string
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get(events.SignatureHeader)
	}))
	defer srv.Close()
	wh := events.NewWebhookSink(events.WebhookConfig{Enabled: true, Endpoint: srv.URL, Secret: "s"})
	evt := events.RecordEvent(sdk.Cities, events.Created, sdk.City{ID: 1, Name: "Boerne"})
	if err := wh.Emit(context.Background(), evt); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(body) == 0 {
		t.Fatalf("no body")
	}
	if gotSig != events.Sign("s", body) {
		t.Fatalf("signature %q", gotSig)
	}
}

func TestWebhookStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	wh := events.NewWebhookSink(events.WebhookConfig{Enabled: true, Endpoint: srv.URL})
	if err := wh.Emit(context.Background(), events.Event{Name: "n"}); err == nil {
		t.Fatalf("expected error")
	}
	if events.NewWebhookSink(events.WebhookConfig{Endpoint: srv.URL}) != nil {
		t.Fatalf("disabled sink built")
	}
}

func TestRedisSink(t *testing.T) {
	s := miniredis.RunT(t)
	rs, err := events.NewRedisSink(events.RedisConfig{Enabled: true, DSN: "redis://" + s.Addr()})
	if err != nil {
		t.Fatalf("sink: %v", err)
	}
	if rs.Channel != events.DefaultChannel {
		t.Fatalf("channel %q", rs.Channel)
	}
	sub := rs.Client.Subscribe(context.Background(), rs.Channel)
	defer sub.Close()
	if _, err := sub.Receive(context.Background()); err != nil {
		t.Fatalf("sub: %v", err)
	}
	evt := events.Event{Name: "cities.created"}
	if err := rs.Emit(context.Background(), evt); err != nil {
		t.Fatalf("emit: %v", err)
	}
	select {
	case msg := <-sub.Channel():
		var got events.Event
		if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Name != evt.Name {
			t.Fatalf("event mismatch: %#v", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout")
	}
}

func TestRedisSinkByEntity(t *testing.T) {
	s := miniredis.RunT(t)
	rs, err := events.NewRedisSink(events.RedisConfig{Enabled: true, DSN: "redis://" + s.Addr(), Channel: "wc", ByEntity: true})
	if err != nil {
		t.Fatalf("sink: %v", err)
	}
	defer rs.Close()
	evt := events.RecordEvent(sdk.Countries, events.Updated, nil)
	if got := rs.ChannelFor(evt); got != "wc:countries" {
		t.Fatalf("channel %q", got)
	}
	sub := rs.Client.Subscribe(context.Background(), "wc:countries")
	defer sub.Close()
	if _, err := sub.Receive(context.Background()); err != nil {
		t.Fatalf("sub: %v", err)
	}
	if err := rs.Emit(context.Background(), evt); err != nil {
		t.Fatalf("emit: %v", err)
	}
	select {
	case msg := <-sub.Channel():
		if !strings.Contains(msg.Payload, `"countries.updated"`) {
			t.Fatalf("payload %s", msg.Payload)
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout")
	}
}
