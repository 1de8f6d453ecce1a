package analytics_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advisorly/experimentkit/pkg/analytics"
)

func event(id string) analytics.Event {
	return analytics.Event{
		ID:        id,
		Type:      analytics.TypeEvaluation,
		Feature:   "checkout-v2",
		UserID:    "u1",
		Segment:   "beta",
		Enabled:   true,
		Variant:   "full",
		Reason:    "segment override",
		CreatedAt: time.Now(),
	}
}

func TestMemorySink_AppendAndRead(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	sink := analytics.NewMemorySink(10)
	require.NoError(t, sink.Append(ctx, event("e1")))
	require.NoError(t, sink.Append(ctx, event("e2")))

	events := sink.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "e1", events[0].ID)
	assert.Equal(t, "e2", events[1].ID)
}

func TestMemorySink_EvictsOldest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	sink := analytics.NewMemorySink(3)
	for i := range 5 {
		require.NoError(t, sink.Append(ctx, event(fmt.Sprintf("e%d", i))))
	}

	events := sink.Events()
	require.Len(t, events, 3)
	assert.Equal(t, "e2", events[0].ID)
	assert.Equal(t, "e4", events[2].ID)
}

func TestMemorySink_PanicsOnInvalidCapacity(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { analytics.NewMemorySink(0) })
}

// blockingSink lets tests control when the backend accepts events.
type blockingSink struct {
	mu     sync.Mutex
	events []analytics.Event
	fail   bool
}

func (b *blockingSink) Append(ctx context.Context, event analytics.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		return errors.New("backend down")
	}
	b.events = append(b.events, event)
	return nil
}

func (b *blockingSink) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

func TestAsyncSink_DeliversInBackground(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := &blockingSink{}
	sink := analytics.NewAsyncSink(backend, 100)

	for i := range 10 {
		require.NoError(t, sink.Append(ctx, event(fmt.Sprintf("e%d", i))))
	}

	closeCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, sink.Close(closeCtx))

	assert.Equal(t, 10, backend.len())
}

func TestAsyncSink_AppendAfterClose(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	sink := analytics.NewAsyncSink(&blockingSink{}, 10)
	require.NoError(t, sink.Close(ctx))

	err := sink.Append(ctx, event("late"))
	require.ErrorIs(t, err, analytics.ErrSinkClosed)
}

func TestAsyncSink_BackendFailureDoesNotPropagate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := &blockingSink{fail: true}
	sink := analytics.NewAsyncSink(backend, 10)

	// Appends succeed even though delivery will fail; analytics is
	// fire-and-forget.
	require.NoError(t, sink.Append(ctx, event("e1")))

	closeCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, sink.Close(closeCtx))
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	assert.NoError(t, analytics.Discard.Append(context.Background(), event("e1")))
}
