// Package ws implements transport.Channel over a websocket connection to the
// room server's realtime endpoint.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tiger020517/youtube-watch/internal/client/transport"
	"github.com/tiger020517/youtube-watch/internal/domain"
)

const defaultKeepaliveInterval = 30 * time.Second

type output struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type input struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type Channel struct {
	baseURL           string
	roomId            string
	logger            *slog.Logger
	keepaliveInterval time.Duration

	stopOnce sync.Once
	stop     chan struct{}

	writeMu sync.Mutex
	conn    *websocket.Conn

	mu         sync.Mutex
	joined     bool
	closed     bool
	onPatch    transport.PatchHandler
	onMessage  transport.MessageHandler
	onPresence transport.PresenceHandler
	onStatus   transport.StatusHandler
}

// NewChannel returns a not yet connected channel. baseURL is the server's
// websocket origin, e.g. "ws://localhost:8080".
func NewChannel(baseURL, roomId string, logger *slog.Logger) *Channel {
	return &Channel{
		baseURL:           baseURL,
		roomId:            roomId,
		logger:            logger,
		keepaliveInterval: defaultKeepaliveInterval,
		stop:              make(chan struct{}),
	}
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

func (c *Channel) JoinPresence(ctx context.Context, self domain.Participant) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return transport.ErrChannelClosed
	}
	if c.joined {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	query := url.Values{}
	query.Set("display-name", self.DisplayName)
	query.Set("participant-id", self.Id)
	endpoint := fmt.Sprintf("%s/api/v1/ws/room/%s/join?%s", c.baseURL, c.roomId, query.Encode())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to dial room: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.joined = true
	c.mu.Unlock()

	c.deliverStatus(transport.StatusConnected)

	go c.readLoop(conn)
	go c.keepaliveLoop()

	return nil
}

// keepaliveLoop tells the server the participant is still here; the server
// treats a silent connection like any other and eventually drops it.
func (c *Channel) keepaliveLoop() {
	ticker := time.NewTicker(c.keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if err := c.write(&input{Type: "ALIVE"}); err != nil {
				return
			}
		}
	}
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	defer c.deliverStatus(transport.StatusDisconnected)

	for {
		var msg output
		if err := conn.ReadJSON(&msg); err != nil {
			c.logger.Debug("read loop stopped", "error", err)
			return
		}

		if err := c.dispatch(msg); err != nil {
			c.logger.Info("failed to dispatch message", "type", msg.Type, "error", err)
		}
	}
}

func (c *Channel) dispatch(msg output) error {
	switch msg.Type {
	case "ROOM_STATE":
		var payload struct {
			Player       domain.PlayerState   `json:"player"`
			Participants []domain.Participant `json:"participants"`
			Messages     []domain.ChatMessage `json:"messages"`
		}
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return err
		}

		c.deliverPatch(payload.Player.AsPatch())
		c.deliverPresence(payload.Participants)
		for _, message := range payload.Messages {
			c.deliverMessage(message)
		}
	case "PLAYER_UPDATED":
		var player domain.PlayerState
		if err := json.Unmarshal(msg.Payload, &player); err != nil {
			return err
		}

		c.deliverPatch(player.AsPatch())
	case "MESSAGE_INSERTED":
		var message domain.ChatMessage
		if err := json.Unmarshal(msg.Payload, &message); err != nil {
			return err
		}

		c.deliverMessage(message)
	case "PRESENCE_CHANGED":
		var payload struct {
			Participants []domain.Participant `json:"participants"`
		}
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return err
		}

		c.deliverPresence(payload.Participants)
	case "ERROR":
		c.logger.Info("server reported error", "payload", string(msg.Payload))
	}

	return nil
}

func (c *Channel) PublishPatch(ctx context.Context, patch domain.PlayerPatch) error {
	return c.write(&input{Type: "UPDATE_PLAYER", Payload: patch})
}

func (c *Channel) InsertMessage(ctx context.Context, msg domain.ChatMessage) error {
	return c.write(&input{Type: "SEND_MESSAGE", Payload: map[string]string{"text": msg.Text}})
}

func (c *Channel) LeavePresence(ctx context.Context) error {
	// the server owns presence bookkeeping; dropping the connection is the
	// leave signal
	return c.Close()
}

func (c *Channel) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })

	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.joined = false
	c.closed = true
	c.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}

	return nil
}

func (c *Channel) write(msg *input) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return transport.ErrChannelClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

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
