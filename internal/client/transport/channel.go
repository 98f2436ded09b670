// Package transport abstracts the realtime pub/sub + durable-store primitive
// a room runs on: patch fan-out, chat inserts, and a presence topic. It
// carries no policy; stale-patch rejection and reconciliation live above it.
package transport

import (
	"context"
	"errors"

	"github.com/tiger020517/youtube-watch/internal/domain"
)

var ErrChannelClosed = errors.New("channel is closed")

type Status string

const (
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

type (
	PatchHandler    func(domain.PlayerPatch)
	MessageHandler  func(domain.ChatMessage)
	PresenceHandler func([]domain.Participant)
	StatusHandler   func(Status)
)

// Channel is one participant's handle on a room topic. Delivery is
// at-least-once and unordered across publishers; publishes that fail are
// reported to the caller and never retried here.
type Channel interface {
	PublishPatch(ctx context.Context, patch domain.PlayerPatch) error
	InsertMessage(ctx context.Context, msg domain.ChatMessage) error
	JoinPresence(ctx context.Context, self domain.Participant) error
	LeavePresence(ctx context.Context) error

	// Handlers must be registered before JoinPresence; they are invoked
	// from the channel's delivery goroutine.
	OnPatch(PatchHandler)
	OnMessageInserted(MessageHandler)
	OnPresenceChanged(PresenceHandler)
	OnStatusChanged(StatusHandler)

	Close() error
}
