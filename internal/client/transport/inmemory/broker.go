// Package inmemory is an in-process transport: every room topic is a struct
// behind a mutex, fan-out is a plain method call. It backs tests and lets
// several rooms (or several participants of one room) live in one process.
package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tiger020517/youtube-watch/internal/client/transport"
	"github.com/tiger020517/youtube-watch/internal/domain"
)

type Broker struct {
	mu    sync.Mutex
	rooms map[string]*topic
}

type topic struct {
	subscribers []*Channel
	// state is the durable room row: patches merge into it last-writer-wins
	// so late joiners replay the current canonical state.
	state    domain.PlayerState
	presence []domain.Participant
	messages []domain.ChatMessage
}

func NewBroker() *Broker {
	return &Broker{rooms: make(map[string]*topic)}
}

// Channel returns a fresh, not yet joined handle on roomId's topic.
func (b *Broker) Channel(roomId string) *Channel {
	return &Channel{broker: b, roomId: roomId}
}

func (b *Broker) getTopic(roomId string) *topic {
	t, ok := b.rooms[roomId]
	if !ok {
		t = &topic{}
		b.rooms[roomId] = t
	}

	return t
}

type Channel struct {
	broker *Broker
	roomId string

	mu         sync.Mutex
	self       domain.Participant
	joined     bool
	closed     bool
	onPatch    transport.PatchHandler
	onMessage  transport.MessageHandler
	onPresence transport.PresenceHandler
	onStatus   transport.StatusHandler
}

func (c *Channel) OnPatch(h transport.PatchHandler) {
	c.mu.Lock()
	c.onPatch = h
	c.mu.Unlock()
}

func (c *Channel) OnMessageInserted(h transport.MessageHandler) {
	c.mu.Lock()
	c.onMessage = h
	c.mu.Unlock()
}

func (c *Channel) OnPresenceChanged(h transport.PresenceHandler) {
	c.mu.Lock()
	c.onPresence = h
	c.mu.Unlock()
}

func (c *Channel) OnStatusChanged(h transport.StatusHandler) {
	c.mu.Lock()
	c.onStatus = h
	c.mu.Unlock()
}

// PublishPatch merges the patch into the room row and fans the merged row
// out to every subscriber, the publisher included: what subscribers receive
// is the full row after the write, exactly as a change feed on the durable
// row would deliver it. Fanning out the full row rather than the partial
// patch is what keeps replicas order-independent: a replica that drops one
// delivery as stale still gets every field from the next. A stale patch is
// dropped at the row and fans out nothing.
func (c *Channel) PublishPatch(ctx context.Context, patch domain.PlayerPatch) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return transport.ErrChannelClosed
	}
	c.mu.Unlock()

	b := c.broker
	b.mu.Lock()
	t := b.getTopic(c.roomId)
	if !patch.NewerThan(t.state.LastUpdate) {
		b.mu.Unlock()
		return nil
	}
	patch.ApplyTo(&t.state)
	merged := t.state.AsPatch()
	subscribers := append([]*Channel(nil), t.subscribers...)
	b.mu.Unlock()

	for _, sub := range subscribers {
		sub.deliverPatch(merged)
	}

	return nil
}

func (c *Channel) InsertMessage(ctx context.Context, msg domain.ChatMessage) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return transport.ErrChannelClosed
	}
	c.mu.Unlock()

	// the store of record stamps identity and time
	if msg.Id == "" {
		msg.Id = uuid.NewString()
	}
	if msg.CreatedAt == 0 {
		msg.CreatedAt = time.Now().UnixMilli()
	}
	msg.RoomId = c.roomId

	b := c.broker
	b.mu.Lock()
	t := b.getTopic(c.roomId)
	t.messages = append(t.messages, msg)
	subscribers := append([]*Channel(nil), t.subscribers...)
	b.mu.Unlock()

	for _, sub := range subscribers {
		sub.deliverMessage(msg)
	}

	return nil
}

func (c *Channel) JoinPresence(ctx context.Context, self domain.Participant) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return transport.ErrChannelClosed
	}
	c.self = self
	c.joined = true
	c.mu.Unlock()

	b := c.broker
	b.mu.Lock()
	t := b.getTopic(c.roomId)
	t.subscribers = append(t.subscribers, c)

	replaced := false
	for i, p := range t.presence {
		if p.Id == self.Id {
			t.presence[i] = self
			replaced = true
			break
		}
	}
	if !replaced {
		t.presence = append(t.presence, self)
	}

	state := t.state
	presence := append([]domain.Participant(nil), t.presence...)
	messages := append([]domain.ChatMessage(nil), t.messages...)
	subscribers := append([]*Channel(nil), t.subscribers...)
	b.mu.Unlock()

	c.deliverStatus(transport.StatusConnected)

	// replay the durable row and chat history to the joiner
	if state.LastUpdate > 0 {
		c.deliverPatch(state.AsPatch())
	}
	for _, msg := range messages {
		c.deliverMessage(msg)
	}

	for _, sub := range subscribers {
		sub.deliverPresence(presence)
	}

	return nil
}

func (c *Channel) LeavePresence(ctx context.Context) error {
	c.mu.Lock()
	if !c.joined {
		c.mu.Unlock()
		return nil
	}
	self := c.self
	c.joined = false
	c.mu.Unlock()

	b := c.broker
	b.mu.Lock()
	t := b.getTopic(c.roomId)
	for i, sub := range t.subscribers {
		if sub == c {
			t.subscribers = append(t.subscribers[:i], t.subscribers[i+1:]...)
			break
		}
	}
	for i, p := range t.presence {
		if p.Id == self.Id {
			t.presence = append(t.presence[:i], t.presence[i+1:]...)
			break
		}
	}
	presence := append([]domain.Participant(nil), t.presence...)
	subscribers := append([]*Channel(nil), t.subscribers...)
	b.mu.Unlock()

	for _, sub := range subscribers {
		sub.deliverPresence(presence)
	}

	c.deliverStatus(transport.StatusDisconnected)

	return nil
}

func (c *Channel) Close() error {
	c.LeavePresence(context.Background())

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	return nil
}

func (c *Channel) deliverPatch(patch domain.PlayerPatch) {
	c.mu.Lock()
	h := c.onPatch
	c.mu.Unlock()
	if h != nil {
		h(patch)
	}
}

func (c *Channel) deliverMessage(msg domain.ChatMessage) {
	c.mu.Lock()
	h := c.onMessage
	c.mu.Unlock()
	if h != nil {
		h(msg)
	}
}

func (c *Channel) deliverPresence(presence []domain.Participant) {
	c.mu.Lock()
	h := c.onPresence
	c.mu.Unlock()
	if h != nil {
		h(presence)
	}
}

func (c *Channel) deliverStatus(status transport.Status) {
	c.mu.Lock()
	h := c.onStatus
	c.mu.Unlock()
	if h != nil {
		h(status)
	}
}
