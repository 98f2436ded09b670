package room

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tiger020517/youtube-watch/internal/domain"
	"github.com/tiger020517/youtube-watch/internal/repository/room"
)

type SendMessageParams struct {
	Text     string
	SenderId string
	RoomId   string
}

type SendMessageResponse struct {
	Message domain.ChatMessage
	Conns   []*websocket.Conn
}

// SendMessage stamps and stores a chat message. The store of record owns the
// id and timestamp, so duplicates from retrying senders get distinct ids.
func (s service) SendMessage(ctx context.Context, params *SendMessageParams) (SendMessageResponse, error) {
	text := strings.TrimSpace(params.Text)
	if text == "" {
		return SendMessageResponse{}, ErrEmptyMessage
	}

	sender, err := s.roomRepo.GetParticipant(ctx, params.SenderId)
	if err != nil {
		if err == room.ErrParticipantNotFound {
			return SendMessageResponse{}, ErrParticipantNotFound
		}

		return SendMessageResponse{}, fmt.Errorf("failed to get sender: %w", err)
	}

	message := domain.ChatMessage{
		Id:        uuid.NewString(),
		RoomId:    params.RoomId,
		Author:    sender.DisplayName,
		Text:      text,
		CreatedAt: time.Now().UnixMilli(),
	}

	if err := s.roomRepo.AddMessage(ctx, &room.AddMessageParams{
		Message: room.Message{
			Id:        message.Id,
			Author:    message.Author,
			Text:      message.Text,
			CreatedAt: message.CreatedAt,
		},
		RoomId: params.RoomId,
	}); err != nil {
		return SendMessageResponse{}, fmt.Errorf("failed to add message: %w", err)
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return SendMessageResponse{}, err
	}

	return SendMessageResponse{
		Message: message,
		Conns:   conns,
	}, nil
}
