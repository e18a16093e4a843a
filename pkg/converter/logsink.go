package converter

import (
	"sync"
)

// LogSink is the ordered, append-only progress stream of a batch. Append is
// called concurrently by workers; each call delivers one whole line (which may
// itself contain newlines, as the summary block does) without interleaving.
// Lines from different workers have no relative order; the start line is
// always first and the summary block always last.
type LogSink interface {
	Append(line string)
}

// LogSinkFunc adapts a function to LogSink. It adds no synchronization: the
// function must tolerate concurrent calls. Wrap it with NewSyncSink otherwise.
type LogSinkFunc func(line string)

// Append implements LogSink.
func (f LogSinkFunc) Append(line string) { f(line) }

// SyncSink serializes Append calls to an observer with a mutex. The lock is
// held only for the duration of the observer call.
type SyncSink struct {
	mu       sync.Mutex
	observer func(line string)
}

// NewSyncSink wraps observer. A nil observer drops every line.
func NewSyncSink(observer func(line string)) *SyncSink {
	return &SyncSink{observer: observer}
}

// Append implements LogSink.
func (s *SyncSink) Append(line string) {
	if s.observer == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer(line)
}

// ChannelSink hands lines to a single consumer goroutine that owns the
// observer, so workers never wait on presentation code beyond a channel send.
// Close must be called once the producer side is done; it blocks until the
// observer has seen every line.
type ChannelSink struct {
	lines     chan string
	done      chan struct{}
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// NewChannelSink starts the consumer goroutine. buffer is the channel
// capacity; values below 1 are raised to 1. A nil observer drains silently.
func NewChannelSink(observer func(line string), buffer int) *ChannelSink {
	if buffer < 1 {
		buffer = 1
	}
	s := &ChannelSink{
		lines: make(chan string, buffer),
		done:  make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		for line := range s.lines {
			if observer != nil {
				observer(line)
			}
		}
	}()
	return s
}

// Append implements LogSink. Lines appended after Close are dropped.
func (s *ChannelSink) Append(line string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	s.lines <- line
}

// Close stops accepting lines and waits for the consumer to drain. It is safe
// to call more than once.
func (s *ChannelSink) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.lines)
		s.mu.Unlock()
	})
	<-s.done
}

// MemorySink collects lines in memory. Useful for services that poll
// progress, and for tests.
type MemorySink struct {
	mu    sync.Mutex
	lines []string
}

// Append implements LogSink.
func (s *MemorySink) Append(line string) {
	s.mu.Lock()
	s.lines = append(s.lines, line)
	s.mu.Unlock()
}

// Lines returns a copy of the lines appended so far.
func (s *MemorySink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}
