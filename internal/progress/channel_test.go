package progress

import (
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/streamforge/vodengine/internal/models"
	"github.com/streamforge/vodengine/pkg/logger"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	mu      sync.Mutex
	events  []models.ProgressEvent
	sendErr error
	closed  bool
}

func (f *fakeTransport) Send(event models.ProgressEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) snapshot() ([]models.ProgressEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ProgressEvent(nil), f.events...), f.closed
}

func TestPublishWithoutSubscriberIsNoop(t *testing.T) {
	ch := NewChannel(logger.NewNopLogger())

	require.NotPanics(t, func() {
		ch.Publish("orphan@@@ab12cd34ef.mp4", models.CheckedEvent("ok"))
	})
	require.False(t, ch.Subscribed("orphan@@@ab12cd34ef.mp4"))
}

func TestPublishDeliversToSubscriber(t *testing.T) {
	ch := NewChannel(logger.NewNopLogger())
	tr := &fakeTransport{}
	key := "myvideo@@@ab12cd34ef.mp4"

	ch.Subscribe(key, tr)
	ch.Publish(key, models.CheckedEvent("Video checked: duration 120 seconds"))
	ch.Publish(key, models.ProcessedEvent("480p"))

	events, closed := tr.snapshot()
	require.Len(t, events, 2)
	require.Equal(t, models.StatusChecked, events[0].Status)
	require.Equal(t, models.StatusProcessed, events[1].Status)
	require.False(t, closed)
	require.True(t, ch.Subscribed(key))
}

func TestSubscribeReplacesAndClosesOld(t *testing.T) {
	ch := NewChannel(logger.NewNopLogger())
	key := "myvideo@@@ab12cd34ef.mp4"
	old := &fakeTransport{}
	replacement := &fakeTransport{}

	ch.Subscribe(key, old)
	ch.Subscribe(key, replacement)

	_, oldClosed := old.snapshot()
	require.True(t, oldClosed)

	ch.Publish(key, models.CheckedEvent("ok"))
	oldEvents, _ := old.snapshot()
	newEvents, _ := replacement.snapshot()
	require.Empty(t, oldEvents)
	require.Len(t, newEvents, 1)
}

func TestTerminalEventTearsDownSubscription(t *testing.T) {
	ch := NewChannel(logger.NewNopLogger())
	key := "myvideo@@@ab12cd34ef.mp4"
	tr := &fakeTransport{}

	ch.Subscribe(key, tr)
	ch.Publish(key, models.DoneEvent("myvideo"))

	events, closed := tr.snapshot()
	require.Len(t, events, 1)
	require.True(t, closed)
	require.False(t, ch.Subscribed(key))

	// Further publishes after the terminal event are dropped.
	ch.Publish(key, models.CheckedEvent("late"))
	events, _ = tr.snapshot()
	require.Len(t, events, 1)
}

func TestSendFailureRemovesSubscriber(t *testing.T) {
	ch := NewChannel(logger.NewNopLogger())
	key := "myvideo@@@ab12cd34ef.mp4"
	tr := &fakeTransport{sendErr: errors.New("connection gone")}

	ch.Subscribe(key, tr)
	ch.Publish(key, models.CheckedEvent("ok"))

	_, closed := tr.snapshot()
	require.True(t, closed)
	require.False(t, ch.Subscribed(key))
}

func TestStaleUnsubscribeKeepsReplacement(t *testing.T) {
	ch := NewChannel(logger.NewNopLogger())
	key := "myvideo@@@ab12cd34ef.mp4"
	old := &fakeTransport{}
	replacement := &fakeTransport{}

	ch.Subscribe(key, old)
	ch.Subscribe(key, replacement)
	ch.Unsubscribe(key, old)

	require.True(t, ch.Subscribed(key))

	ch.Unsubscribe(key, replacement)
	require.False(t, ch.Subscribed(key))
	_, closed := replacement.snapshot()
	require.True(t, closed)
}

func TestShutdownClosesAll(t *testing.T) {
	ch := NewChannel(logger.NewNopLogger())
	a := &fakeTransport{}
	b := &fakeTransport{}

	ch.Subscribe("a@@@ab12cd34ef.mp4", a)
	ch.Subscribe("b@@@gh56ij78kl.mp4", b)
	ch.Shutdown()

	_, aClosed := a.snapshot()
	_, bClosed := b.snapshot()
	require.True(t, aClosed)
	require.True(t, bClosed)
	require.False(t, ch.Subscribed("a@@@ab12cd34ef.mp4"))
}
