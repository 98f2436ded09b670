package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/tiger020517/youtube-watch/internal/client/player"
	"github.com/tiger020517/youtube-watch/internal/client/transport"
	"github.com/tiger020517/youtube-watch/internal/domain"
	"github.com/tiger020517/youtube-watch/pkg/ytvideoid"
)

var ErrEmptyMessage = errors.New("message is empty")

// Snapshot is a consistent read of everything a UI renders about a room.
type Snapshot struct {
	Player       domain.PlayerState
	Participants []domain.Participant
	Messages     []domain.ChatMessage
	Connected    bool
}

// Controller is one participant's handle on a room. It owns the replica
// state, presence and chat views, and the reconciler, and exposes the
// operations a UI drives them with.
type Controller struct {
	channel    transport.Channel
	store      *Store
	presence   *Presence
	chat       *ChatLog
	reconciler *Reconciler
	self       domain.Participant
	skipStep   float64
	logger     *slog.Logger

	mu        sync.Mutex
	connected bool
}

func NewController(engine player.Engine, channel transport.Channel, self domain.Participant, config ReconcilerConfig, logger *slog.Logger) *Controller {
	store := NewStore(channel, domain.PlayerState{})

	c := &Controller{
		channel:    channel,
		store:      store,
		presence:   NewPresence(),
		chat:       NewChatLog(),
		reconciler: NewReconciler(engine, store, config, logger),
		self:       self,
		skipStep:   config.withDefaults().SkipStep,
		logger:     logger,
	}

	channel.OnPatch(func(patch domain.PlayerPatch) {
		c.store.Apply(patch)
	})
	channel.OnMessageInserted(func(msg domain.ChatMessage) {
		c.chat.Insert(msg)
	})
	channel.OnPresenceChanged(func(participants []domain.Participant) {
		c.presence.Sync(participants)
	})
	channel.OnStatusChanged(func(status transport.Status) {
		c.mu.Lock()
		c.connected = status == transport.StatusConnected
		c.mu.Unlock()
		c.logger.Debug("channel status changed", "status", status)
	})

	return c
}

// Join connects the participant to the room and starts the reconciler. The
// channel replays the room's durable state on join, so by the time Join
// returns on an in-process transport the snapshot is populated.
func (c *Controller) Join(ctx context.Context) error {
	if err := c.channel.JoinPresence(ctx, c.self); err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	c.reconciler.Start(ctx)

	return nil
}

// Leave stops reconciliation and withdraws the participant from the room.
func (c *Controller) Leave(ctx context.Context) error {
	c.reconciler.Stop()

	if err := c.channel.LeavePresence(ctx); err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}

	return nil
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()

	return Snapshot{
		Player:       c.store.State(),
		Participants: c.presence.Participants(),
		Messages:     c.chat.Messages(),
		Connected:    connected,
	}
}

// OnStateChange registers a handler for accepted player-state changes.
func (c *Controller) OnStateChange(h StateHandler) {
	c.store.OnChange(h)
}

func (c *Controller) OnMessage(h MessageHandler) {
	c.chat.OnInsert(h)
}

func (c *Controller) OnPresence(h PresenceHandler) {
	c.presence.OnChange(h)
}

// HandleEngineStateChange must be called on every local engine transition.
func (c *Controller) HandleEngineStateChange(ctx context.Context, state player.PlayState) {
	c.reconciler.HandleEngineStateChange(ctx, state)
}

// ChangeVideo swaps the room onto a new video, paused at its start. raw may
// be a watch URL, a short link, or a bare video id.
func (c *Controller) ChangeVideo(ctx context.Context, raw string) error {
	videoId, err := ytvideoid.Extract(raw)
	if err != nil {
		return fmt.Errorf("failed to extract video id: %w", err)
	}

	return c.store.Propose(ctx, domain.PlayerPatch{
		VideoId:     &videoId,
		IsPlaying:   boolPtr(false),
		CurrentTime: float64Ptr(0),
	})
}

func (c *Controller) Play(ctx context.Context) error {
	return c.store.Propose(ctx, domain.PlayerPatch{IsPlaying: boolPtr(true)})
}

// Pause freezes the room at the local playhead, falling back to the shared
// position when the engine cannot report one.
func (c *Controller) Pause(ctx context.Context) error {
	current := c.reconciler.expectedTime(c.store.State())
	if t, err := c.reconciler.engine.CurrentTime(); err == nil {
		current = t
	}

	return c.store.Propose(ctx, domain.PlayerPatch{
		IsPlaying:   boolPtr(false),
		CurrentTime: &current,
	})
}

// Seek moves the shared playhead to an absolute position, clamped at 0.
func (c *Controller) Seek(ctx context.Context, seconds float64) error {
	if seconds < 0 {
		seconds = 0
	}

	return c.store.Propose(ctx, domain.PlayerPatch{CurrentTime: &seconds})
}

func (c *Controller) SkipForward(ctx context.Context) {
	c.reconciler.Skip(ctx, c.skipStep)
}

func (c *Controller) SkipBack(ctx context.Context) {
	c.reconciler.Skip(ctx, -c.skipStep)
}

func (c *Controller) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	msg := domain.ChatMessage{
		Author: c.self.DisplayName,
		Text:   text,
	}
	if err := c.channel.InsertMessage(ctx, msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

func float64Ptr(f float64) *float64 { return &f }
