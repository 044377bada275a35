package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"leadengine/internal/domain/models"
)

const securityWriteTimeout = 5 * time.Second

// SecurityStore persists one security event.
type SecurityStore interface {
	Insert(ctx context.Context, e models.SecurityEvent) error
}

// SecurityLogger records advisory security events off the request path.
// Log never blocks: events go through a buffered channel to one writer
// goroutine, and a full buffer drops the event with a warning.
type SecurityLogger struct {
	store  SecurityStore
	events chan models.SecurityEvent
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewSecurityLogger(store SecurityStore, buffer int) *SecurityLogger {
	if buffer <= 0 {
		buffer = 256
	}
	l := &SecurityLogger{
		store:  store,
		events: make(chan models.SecurityEvent, buffer),
		done:   make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *SecurityLogger) Log(e models.SecurityEvent) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}
	select {
	case l.events <- e:
	default:
		slog.Warn("security event dropped, buffer full",
			"event_type", string(e.Type),
			"severity", string(e.Severity),
		)
	}
}

// Close stops accepting events and waits until the buffer is written out.
func (l *SecurityLogger) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.closed = true
	close(l.events)
	l.mu.Unlock()
	<-l.done
}

func (l *SecurityLogger) run() {
	defer close(l.done)
	for e := range l.events {
		l.write(e)
	}
}

func (l *SecurityLogger) write(e models.SecurityEvent) {
	slog.Warn("security event",
		"event_type", string(e.Type),
		"severity", string(e.Severity),
		"fingerprint", e.Fingerprint,
	)
	if l.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), securityWriteTimeout)
	defer cancel()
	if err := l.store.Insert(ctx, e); err != nil {
		slog.Error("security event not stored", "event_type", string(e.Type), "error", err)
	}
}
