package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// AsyncSink decouples event producers from a slow backing sink using a
// buffered channel and a single background worker. Under backpressure the
// oldest buffered event is dropped so the evaluation hot path never blocks
// on analytics.
type AsyncSink struct {
	backend Sink
	events  chan Event
	done    chan struct{}
	wg      sync.WaitGroup
	log     *slog.Logger

	mu     sync.Mutex
	closed bool

	appendTimeout time.Duration
}

// AsyncOption configures the async sink.
type AsyncOption func(*AsyncSink)

// WithAsyncLogger sets the logger used for dropped events and backend
// failures.
func WithAsyncLogger(log *slog.Logger) AsyncOption {
	return func(s *AsyncSink) {
		if log != nil {
			s.log = log
		}
	}
}

// WithAppendTimeout bounds each backend append. Prevents a hung backend from
// stalling the worker forever.
func WithAppendTimeout(d time.Duration) AsyncOption {
	return func(s *AsyncSink) {
		if d > 0 {
			s.appendTimeout = d
		}
	}
}

// NewAsyncSink wraps a backend sink with asynchronous buffered delivery.
// Buffer size must be positive, otherwise it panics.
func NewAsyncSink(backend Sink, bufferSize int, opts ...AsyncOption) *AsyncSink {
	if backend == nil {
		panic("analytics: backend sink cannot be nil")
	}
	if bufferSize <= 0 {
		panic("analytics: buffer size must be positive")
	}

	s := &AsyncSink{
		backend:       backend,
		events:        make(chan Event, bufferSize),
		done:          make(chan struct{}),
		log:           slog.Default(),
		appendTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(1)
	go s.worker()

	return s
}

// Append queues the event for background delivery. When the buffer is full
// the oldest queued event is dropped to make room; the new event is only
// dropped if the buffer cannot be drained at all.
func (s *AsyncSink) Append(ctx context.Context, event Event) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSinkClosed
	}
	s.mu.Unlock()

	select {
	case s.events <- event:
		return nil
	default:
	}

	// Buffer full: drop the oldest queued event and retry once.
	select {
	case dropped := <-s.events:
		s.log.Warn("analytics buffer full, dropping oldest event",
			slog.String("event_id", dropped.ID),
			slog.String("type", dropped.Type))
	default:
	}

	select {
	case s.events <- event:
		return nil
	default:
		s.log.Warn("analytics buffer full, dropping event",
			slog.String("event_id", event.ID),
			slog.String("type", event.Type))
		return nil
	}
}

// Close stops the worker after draining buffered events, bounded by the
// context deadline.
func (s *AsyncSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)

	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *AsyncSink) worker() {
	defer s.wg.Done()

	for {
		select {
		case event := <-s.events:
			s.deliver(event)
		case <-s.done:
			// Drain whatever is still buffered before exiting.
			for {
				select {
				case event := <-s.events:
					s.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (s *AsyncSink) deliver(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), s.appendTimeout)
	defer cancel()

	if err := s.backend.Append(ctx, event); err != nil {
		s.log.Error("failed to deliver analytics event",
			slog.String("event_id", event.ID),
			slog.String("type", event.Type),
			slog.Any("error", err))
	}
}
