package room

import (
	"slices"
	"sync"

	"github.com/tiger020517/youtube-watch/internal/domain"
)

type MessageHandler func(domain.ChatMessage)

// ChatLog accumulates room chat. Delivery is at-least-once, so messages are
// deduplicated by id; ordering is by CreatedAt with arrival order breaking
// ties.
type ChatLog struct {
	mu       sync.Mutex
	messages []domain.ChatMessage
	seen     map[string]struct{}
	onInsert []MessageHandler
}

func NewChatLog() *ChatLog {
	return &ChatLog{
		seen: make(map[string]struct{}),
	}
}

func (l *ChatLog) OnInsert(h MessageHandler) {
	l.mu.Lock()
	l.onInsert = append(l.onInsert, h)
	l.mu.Unlock()
}

// Messages returns the log ordered oldest first.
func (l *ChatLog) Messages() []domain.ChatMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.messages)
}

func (l *ChatLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

// Insert adds a message to the log. Redeliveries of an already seen id are
// dropped; it reports whether the message was inserted.
func (l *ChatLog) Insert(msg domain.ChatMessage) bool {
	l.mu.Lock()
	if _, ok := l.seen[msg.Id]; ok {
		l.mu.Unlock()
		return false
	}
	l.seen[msg.Id] = struct{}{}

	// messages usually arrive in order; walk back only when one is late
	at := len(l.messages)
	for at > 0 && l.messages[at-1].CreatedAt > msg.CreatedAt {
		at--
	}
	l.messages = slices.Insert(l.messages, at, msg)

	handlers := l.onInsert
	l.mu.Unlock()

	for _, h := range handlers {
		h(msg)
	}

	return true
}
