// Package events publishes analytics events to Kafka.
//
// Request paths never talk to Kafka directly. They hand events to a
// Collector, which buffers them in a channel and writes batches from a
// single background goroutine. If the buffer is full the event is dropped:
// losing an event is better than making a dashboard request wait on a broker.
package events

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/student-dashboard/internal/model"
)

const TypeAnalyticsRefreshed = "analytics.refreshed"

// Event is the JSON payload written to the topic.
type Event struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Handles     map[string]string `json:"handles"`
	Platforms   []string          `json:"platforms"`
	Failed      []string          `json:"failed"`
	TotalSolved int               `json:"totalSolved"`
	OccurredAt  time.Time         `json:"occurredAt"`
}

// Key is the Kafka message key. Events for the same handle-set land on the
// same partition.
func (e Event) Key() string {
	return e.Handles[model.PlatformLeetCode] + "|" + e.Handles[model.PlatformCodeforces] + "|" + e.Handles[model.PlatformAtCoder]
}

// NewAnalyticsRefreshed describes one fresh aggregation.
func NewAnalyticsRefreshed(handles []model.PlatformHandle, result *model.CombinedAnalytics) Event {
	ev := Event{
		ID:         uuid.NewString(),
		Type:       TypeAnalyticsRefreshed,
		Handles:    make(map[string]string, len(handles)),
		Platforms:  make([]string, 0, len(result.Profiles)),
		Failed:     make([]string, 0, len(result.Failures)),
		OccurredAt: result.FetchedAt,
	}
	for _, h := range handles {
		ev.Handles[h.Platform] = h.Handle
	}
	for name := range result.Profiles {
		ev.Platforms = append(ev.Platforms, name)
	}
	sort.Strings(ev.Platforms)
	for _, f := range result.Failures {
		ev.Failed = append(ev.Failed, f.Platform)
	}
	ev.TotalSolved = result.Stats.TotalSolved
	return ev
}

// Tracker accepts events without blocking.
type Tracker interface {
	Track(ev Event)
}

// Publisher writes a batch of events somewhere durable.
type Publisher interface {
	PublishBatch(ctx context.Context, events []Event) error
	Close() error
}

// Noop is the Tracker used when no brokers are configured.
type Noop struct{}

func (Noop) Track(Event) {}
