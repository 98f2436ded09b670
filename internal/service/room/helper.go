package room

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/tiger020517/youtube-watch/internal/domain"
	"github.com/tiger020517/youtube-watch/internal/repository/room"
)

// getConnsByRoomId returns the live connections of a room. Participants that
// joined presence but have no connection yet are skipped, not errors.
func (s service) getConnsByRoomId(ctx context.Context, roomId string) ([]*websocket.Conn, error) {
	participantIds, err := s.roomRepo.GetParticipantIds(ctx, roomId)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant ids: %w", err)
	}

	conns := make([]*websocket.Conn, 0, len(participantIds))
	for _, participantId := range participantIds {
		conn, err := s.connRepo.GetConn(participantId)
		if err != nil {
			s.logger.DebugContext(ctx, "no conn for participant", "participantId", participantId)
			continue
		}

		conns = append(conns, conn)
	}

	return conns, nil
}

func (s service) getParticipants(ctx context.Context, roomId string) ([]domain.Participant, error) {
	participantIds, err := s.roomRepo.GetParticipantIds(ctx, roomId)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant ids: %w", err)
	}

	participants := make([]domain.Participant, 0, len(participantIds))
	for _, participantId := range participantIds {
		participant, err := s.roomRepo.GetParticipant(ctx, participantId)
		if err != nil {
			return nil, fmt.Errorf("failed to get participant: %w", err)
		}

		participants = append(participants, domain.Participant{
			Id:          participantId,
			DisplayName: participant.DisplayName,
			Status:      domain.ParticipantStatus(participant.Status),
		})
	}

	return participants, nil
}

func (s service) getPlayerState(ctx context.Context, roomId string) (domain.PlayerState, error) {
	player, err := s.roomRepo.GetPlayer(ctx, roomId)
	if err != nil {
		if err == room.ErrPlayerNotFound {
			return domain.PlayerState{}, ErrRoomNotFound
		}

		return domain.PlayerState{}, fmt.Errorf("failed to get player: %w", err)
	}

	return domain.PlayerState{
		VideoId:      player.VideoId,
		IsPlaying:    player.IsPlaying,
		CurrentTime:  player.CurrentTime,
		PlaybackRate: player.PlaybackRate,
		LastUpdate:   player.LastUpdate,
	}, nil
}

func (s service) getMessages(ctx context.Context, roomId string) ([]domain.ChatMessage, error) {
	messages, err := s.roomRepo.GetMessages(ctx, roomId)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	chatMessages := make([]domain.ChatMessage, 0, len(messages))
	for _, message := range messages {
		chatMessages = append(chatMessages, domain.ChatMessage{
			Id:        message.Id,
			RoomId:    roomId,
			Author:    message.Author,
			Text:      message.Text,
			CreatedAt: message.CreatedAt,
		})
	}

	return chatMessages, nil
}
