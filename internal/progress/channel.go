package progress

import (
	"sync"

	"github.com/streamforge/vodengine/internal/models"
	"github.com/streamforge/vodengine/pkg/logger"
)

// Transport is one live delivery path for progress events. Send must be safe
// to call from any goroutine; Close releases the underlying connection.
type Transport interface {
	Send(event models.ProgressEvent) error
	Close() error
}

// Channel maps a job key to at most one live transport. Publishing to a key
// without a subscriber is a silent no-op: events emitted before the uploader
// attaches are lost by design, matching the join-after-upload client flow.
type Channel struct {
	mu     sync.Mutex
	subs   map[string]Transport
	logger logger.Logger
}

func NewChannel(logger logger.Logger) *Channel {
	return &Channel{
		subs:   make(map[string]Transport),
		logger: logger,
	}
}

// Subscribe registers transport for jobKey, closing and replacing any
// existing one. Events in flight while the swap happens may be delivered to
// either transport; no ordering guarantee is made across the replacement.
func (c *Channel) Subscribe(jobKey string, transport Transport) {
	c.mu.Lock()
	old := c.subs[jobKey]
	c.subs[jobKey] = transport
	c.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			c.logger.Warnf("failed to close replaced transport for %s: %v", jobKey, err)
		}
	}
}

// Publish delivers event to the subscriber for jobKey, if any. Delivery of a
// terminal event (done/error) or a send failure tears the subscription down.
func (c *Channel) Publish(jobKey string, event models.ProgressEvent) {
	c.mu.Lock()
	transport, ok := c.subs[jobKey]
	c.mu.Unlock()
	if !ok {
		return
	}

	if err := transport.Send(event); err != nil {
		c.logger.Warnf("failed to deliver %s event for %s: %v", event.Status, jobKey, err)
		c.remove(jobKey, transport)
		return
	}
	if event.Terminal() {
		c.remove(jobKey, transport)
	}
}

// Unsubscribe detaches transport from jobKey if it is still the registered
// one, so a transport closing late cannot evict its replacement.
func (c *Channel) Unsubscribe(jobKey string, transport Transport) {
	c.remove(jobKey, transport)
}

// Subscribed reports whether jobKey currently has a live transport.
func (c *Channel) Subscribed(jobKey string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.subs[jobKey]
	return ok
}

func (c *Channel) Shutdown() {
	c.mu.Lock()
	subs := c.subs
	c.subs = make(map[string]Transport)
	c.mu.Unlock()

	for jobKey, transport := range subs {
		if err := transport.Close(); err != nil {
			c.logger.Warnf("failed to close transport for %s: %v", jobKey, err)
		}
	}
}

func (c *Channel) remove(jobKey string, transport Transport) {
	c.mu.Lock()
	current, ok := c.subs[jobKey]
	if ok && current == transport {
		delete(c.subs, jobKey)
	} else {
		ok = false
	}
	c.mu.Unlock()

	if ok {
		if err := transport.Close(); err != nil {
			c.logger.Warnf("failed to close transport for %s: %v", jobKey, err)
		}
	}
}
