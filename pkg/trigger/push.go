package trigger

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jdziat/simple-asset-sync/pkg/core"
)

// PushEvent is a notification that new licenses are ready to sync.
type PushEvent struct {
	ChannelID  string    `json:"channel_id"`
	ReceivedAt time.Time `json:"received_at"`
}

// PushSource fans push notifications out to subscribed handlers.
type PushSource struct {
	channelID string
	logger    *slog.Logger

	mu       sync.RWMutex
	handlers []func(PushEvent)
}

// NewPushSource creates a push source. When channelID is set, events for
// other channels are ignored.
func NewPushSource(channelID string, logger *slog.Logger) *PushSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &PushSource{channelID: channelID, logger: logger}
}

// ChannelID returns the channel this source listens on.
func (p *PushSource) ChannelID() string {
	return p.channelID
}

// OnPushEvent registers handler for every accepted event.
func (p *PushSource) OnPushEvent(handler func(PushEvent)) {
	if handler == nil {
		return
	}
	p.mu.Lock()
	p.handlers = append(p.handlers, handler)
	p.mu.Unlock()
}

// Publish delivers ev to the handlers and reports whether it was accepted.
// Handlers run on the caller's goroutine and must not block.
func (p *PushSource) Publish(ev PushEvent) bool {
	if p.channelID != "" && ev.ChannelID != p.channelID {
		p.logger.Warn("ignoring push event for foreign channel", "channel_id", ev.ChannelID)
		return false
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now()
	}

	p.mu.RLock()
	handlers := make([]func(PushEvent), len(p.handlers))
	copy(handlers, p.handlers)
	p.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
	return true
}

// Bind feeds every push event into queue as a metadata-less job.
func (p *PushSource) Bind(queue Admitter, jobs JobFactory) {
	p.OnPushEvent(func(ev PushEvent) {
		job := jobs(core.OriginPush)
		if queue.AddForPush(job) {
			p.logger.Debug("push sync admitted", "job_id", job.ID, "channel_id", ev.ChannelID)
		} else {
			p.logger.Debug("push sync coalesced", "job_id", job.ID, "channel_id", ev.ChannelID)
		}
	})
}
