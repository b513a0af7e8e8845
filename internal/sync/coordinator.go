package sync

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/mvasques/ripple/internal/bus"
	"github.com/mvasques/ripple/internal/conn"
	"github.com/mvasques/ripple/internal/logging"
	"github.com/mvasques/ripple/internal/store"
	"github.com/mvasques/ripple/internal/wire"
	"go.uber.org/zap"
)

// viewLimit caps the in-memory summary view. Conversations beyond it
// stay in the store and re-enter the view on refresh.
const viewLimit = 100

// Coordinator sits between the connection manager and the store. Every
// forwarded new_message is absorbed exactly once; rejected events are
// logged without their content and dropped. It also keeps an in-memory
// conversation summary view that mirrors the store's ordering.
type Coordinator struct {
	db     *store.DB
	bus    *bus.Bus
	logger *zap.Logger
	cancel context.CancelFunc

	mu     sync.Mutex
	active int64 // conversation currently open, 0 if none
	view   []store.Conversation
}

// New creates a coordinator. Call Refresh to populate the view and
// Start to follow connection lifecycle events.
func New(db *store.DB, b *bus.Bus, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		db:     db,
		bus:    b,
		logger: logger,
	}
}

// Start subscribes to connection lifecycle events on the bus. The view
// is refreshed whenever the connection comes back up.
func (c *Coordinator) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	ch, unsub := c.bus.Subscribe("conn.", 256)

	go func() {
		defer unsub()
		for {
			select {
			case evt := <-ch:
				c.handleEvent(evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the coordinator.
func (c *Coordinator) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Coordinator) handleEvent(evt bus.Event) {
	if evt.Kind != bus.KindStateChanged {
		return
	}
	change, ok := evt.Payload.(conn.StateChange)
	if !ok {
		return
	}
	if change.To == conn.Connected {
		if err := c.Refresh(); err != nil {
			c.logger.Error("failed to refresh view after reconnect", zap.Error(err))
		}
	}
}

// ConsumeNewMessage absorbs one forwarded feed event into the store.
// Implements conn.Consumer.
func (c *Coordinator) ConsumeNewMessage(ev wire.Event) {
	msgID, err := c.db.Absorb(ev.ChatID, ev.TS, ev.Sender, ev.Body)
	if errors.Is(err, store.ErrNoConversation) {
		c.logger.Warn("dropping event for unknown conversation",
			logging.ConversationID(ev.ChatID),
			logging.MessageID(ev.MessageID),
			logging.Sender())
		return
	}
	if err != nil {
		c.logger.Error("failed to absorb message",
			zap.Error(err),
			logging.ConversationID(ev.ChatID),
			logging.MessageID(ev.MessageID))
		return
	}

	c.mu.Lock()
	read := c.active == ev.ChatID
	if read {
		// The conversation is open; the store keeps it read.
		if merr := c.db.MarkRead(ev.ChatID); merr != nil {
			c.logger.Error("failed to mark active conversation read", zap.Error(merr), logging.ConversationID(ev.ChatID))
		}
	}
	c.applyAbsorbedLocked(ev.ChatID, ev.TS, read)
	c.mu.Unlock()

	c.bus.Publish(bus.Event{
		Kind:      bus.KindMessageAbsorbed,
		Timestamp: time.Now(),
		Payload: map[string]int64{
			"conversation_id": ev.ChatID,
			"message_id":      msgID,
		},
	})
}

// applyAbsorbedLocked folds one absorbed message into the view. A
// conversation not currently in the view forces a full reload.
func (c *Coordinator) applyAbsorbedLocked(conversationID, ts int64, read bool) {
	for i := range c.view {
		if c.view[i].ID != conversationID {
			continue
		}
		if ts > c.view[i].LastMessageAt {
			c.view[i].LastMessageAt = ts
		}
		if read {
			c.view[i].UnreadCount = 0
		} else {
			c.view[i].UnreadCount++
		}
		sortView(c.view)
		return
	}
	if err := c.reloadLocked(); err != nil {
		c.logger.Error("failed to reload view", zap.Error(err))
	}
}

// Refresh replaces the view with the store's current ordering.
func (c *Coordinator) Refresh() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reloadLocked()
}

func (c *Coordinator) reloadLocked() error {
	convs, err := c.db.ListConversations(0, viewLimit)
	if err != nil {
		return err
	}
	c.view = convs
	c.bus.Publish(bus.Event{
		Kind:      bus.KindViewRefreshed,
		Timestamp: time.Now(),
		Payload:   len(convs),
	})
	return nil
}

// SetActive marks a conversation as the open one: its unread counter
// is zeroed now and stays zero while it remains active.
func (c *Coordinator) SetActive(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.db.MarkRead(id); err != nil {
		return err
	}
	c.active = id
	for i := range c.view {
		if c.view[i].ID == id {
			c.view[i].UnreadCount = 0
		}
	}
	return nil
}

// ClearActive drops the open-conversation marker. Subsequent absorbs
// count as unread again.
func (c *Coordinator) ClearActive() {
	c.mu.Lock()
	c.active = 0
	c.mu.Unlock()
}

// Active returns the open conversation id, 0 if none.
func (c *Coordinator) Active() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Snapshot returns a copy of the current summary view.
func (c *Coordinator) Snapshot() []store.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]store.Conversation, len(c.view))
	copy(out, c.view)
	return out
}

func sortView(view []store.Conversation) {
	sort.SliceStable(view, func(i, j int) bool {
		if view[i].LastMessageAt != view[j].LastMessageAt {
			return view[i].LastMessageAt > view[j].LastMessageAt
		}
		return view[i].ID > view[j].ID
	})
}
