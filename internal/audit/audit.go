// Package audit records listing state changes for later review.
//
// Persistence of the trail is owned by another service; the sinks here either
// log entries or keep them in memory.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/estatehub/listingguard/internal/logger"
)

// Entry describes one state change of an entity.
type Entry struct {
	EntityType  string         `json:"entityType"`
	EntityID    string         `json:"entityId"`
	Action      string         `json:"action"`
	ActorID     string         `json:"actorId"`
	BeforeState string         `json:"beforeState,omitempty"`
	AfterState  string         `json:"afterState,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
	At          time.Time      `json:"at"`
}

// Sink receives audit entries. Implementations must be safe for concurrent use.
type Sink interface {
	Record(ctx context.Context, e Entry) error
}

// LogSink writes entries to a logger at info level.
type LogSink struct {
	log logger.Logger
}

// NewLogSink creates a sink writing to log.
func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{log: log}
}

// Record implements Sink.
func (s *LogSink) Record(ctx context.Context, e Entry) error {
	fields := []logger.Field{
		logger.String("entity_type", e.EntityType),
		logger.String("entity_id", e.EntityID),
		logger.String("action", e.Action),
		logger.String("actor_id", e.ActorID),
		logger.String("before", e.BeforeState),
		logger.String("after", e.AfterState),
	}
	if len(e.Meta) > 0 {
		fields = append(fields, logger.Any("meta", e.Meta))
	}
	s.log.WithContext(ctx).Info("audit", fields...)
	return nil
}

// MemorySink keeps entries in memory.
type MemorySink struct {
	mu      sync.Mutex
	entries []Entry
	err     error
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Record implements Sink. It returns the error set by FailWith, if any.
func (s *MemorySink) Record(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, e)
	return nil
}

// FailWith makes subsequent Record calls fail with err. nil restores normal operation.
func (s *MemorySink) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Entries returns a copy of the recorded entries.
func (s *MemorySink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Actions returns the recorded actions in order.
func (s *MemorySink) Actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Action
	}
	return out
}
