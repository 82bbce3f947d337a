package events

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	sdk "github.com/jlvsolutions/WorldCities-sub000/sdk"
)

// Event represents a notification payload.
type Event struct {
	Name string    `json:"name"`
	Time time.Time `json:"time"`
	Data any       `json:"data"`
	ID   string    `json:"id"`
}

// Record change actions.
const (
	Created = "created"
	Updated = "updated"
	Deleted = "deleted"
)

// RecordEvent builds the event for a change of one record, e.g.
// "cities.deleted".
func RecordEvent(e sdk.Entity, action string, data any) Event {
	return Event{
		Name: strings.ToLower(string(e)) + "." + action,
		Time: time.Now().UTC(),
		Data: data,
		ID:   uuid.NewString(),
	}
}

// Sink publishes events.
type Sink interface {
	Emit(ctx context.Context, e Event) error
}

// DLQ stores failed events.
type DLQ interface {
	Store(ctx context.Context, e Event, attempts int, lastErr string) error
}

// Dispatcher broadcasts events to multiple sinks with retries.
type Dispatcher struct {
	sinks        []Sink
	maxAttempts  int
	initialDelay time.Duration
	dlq          DLQ
	wg           sync.WaitGroup
}

// Config provides dispatcher settings.
type Config struct {
	Sinks struct {
		Webhook WebhookConfig `yaml:"webhook"`
		Redis   RedisConfig   `yaml:"redis"`
	} `yaml:"sinks"`
	Retry RetryConfig `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
}

// NewDispatcher creates a dispatcher from sinks and retry config.
func NewDispatcher(cfg Config, dlq DLQ, sinks ...Sink) *Dispatcher {
	d := &Dispatcher{maxAttempts: 3, initialDelay: time.Second}
	if cfg.Retry.MaxAttempts > 0 {
		d.maxAttempts = cfg.Retry.MaxAttempts
	}
	if cfg.Retry.InitialDelay > 0 {
		d.initialDelay = cfg.Retry.InitialDelay
	}
	d.sinks = append(d.sinks, sinks...)
	d.dlq = dlq
	return d
}

// Len returns the number of sinks.
func (d *Dispatcher) Len() int {
	if d == nil {
		return 0
	}
	return len(d.sinks)
}

// Dispatch sends the event to all sinks asynchronously. The sends outlive
// ctx's cancellation but keep its values. A nil dispatcher drops e.
func (d *Dispatcher) Dispatch(ctx context.Context, e Event) {
	if d == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, s := range d.sinks {
		d.wg.Add(1)
		go d.retrySend(ctx, s, e)
	}
}

// Wait blocks until every pending send finished or gave up.
func (d *Dispatcher) Wait() {
	if d != nil {
		d.wg.Wait()
	}
}

func (d *Dispatcher) retrySend(ctx context.Context, s Sink, e Event) {
	defer d.wg.Done()
	delay := d.initialDelay
	var err error
	for i := 1; i <= d.maxAttempts; i++ {
		if err = s.Emit(ctx, e); err == nil {
			return
		}
		if i < d.maxAttempts {
			time.Sleep(delay)
			delay *= 2
		}
	}
	if d.dlq != nil {
		_ = d.dlq.Store(ctx, e, d.maxAttempts, err.Error())
	}
}

// LogDLQ records failed events in the log.
type LogDLQ struct {
	Logger *zap.SugaredLogger
}

// Store logs the failed event.
func (q LogDLQ) Store(_ context.Context, e Event, attempts int, lastErr string) error {
	if q.Logger == nil {
		return nil
	}
	q.Logger.Errorw("event dropped", "event", e.Name, "id", e.ID, "attempts", attempts, "err", lastErr)
	return nil
}
