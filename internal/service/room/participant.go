package room

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/tiger020517/youtube-watch/internal/domain"
	"github.com/tiger020517/youtube-watch/internal/repository/room"
)

type ConnectParticipantParams struct {
	Conn          *websocket.Conn
	ParticipantId string
}

func (s service) ConnectParticipant(ctx context.Context, params *ConnectParticipantParams) error {
	// a rejoin replaces a still-live previous connection
	s.connRepo.RemoveByParticipantId(params.ParticipantId)

	if err := s.connRepo.Add(params.Conn, params.ParticipantId); err != nil {
		return fmt.Errorf("failed to add connection: %w", err)
	}

	return nil
}

type DisconnectParticipantParams struct {
	ParticipantId string
	RoomId        string
}

type DisconnectParticipantResponse struct {
	IsRoomDeleted bool
	Participants  []domain.Participant
	Conns         []*websocket.Conn
}

// DisconnectParticipant removes the participant from presence and tears the
// room down when it was the last one.
func (s service) DisconnectParticipant(ctx context.Context, params *DisconnectParticipantParams) (DisconnectParticipantResponse, error) {
	// conn may already be gone if the peer closed first
	s.connRepo.RemoveByParticipantId(params.ParticipantId)

	if err := s.roomRepo.RemoveParticipant(ctx, &room.RemoveParticipantParams{
		ParticipantId: params.ParticipantId,
		RoomId:        params.RoomId,
	}); err != nil && err != room.ErrParticipantNotFound {
		return DisconnectParticipantResponse{}, fmt.Errorf("failed to remove participant: %w", err)
	}

	participantIds, err := s.roomRepo.GetParticipantIds(ctx, params.RoomId)
	if err != nil {
		return DisconnectParticipantResponse{}, fmt.Errorf("failed to get participant ids: %w", err)
	}

	if len(participantIds) == 0 {
		if err := s.roomRepo.RemovePlayer(ctx, params.RoomId); err != nil && err != room.ErrPlayerNotFound {
			return DisconnectParticipantResponse{}, fmt.Errorf("failed to remove player: %w", err)
		}
		if err := s.roomRepo.RemoveMessages(ctx, params.RoomId); err != nil {
			return DisconnectParticipantResponse{}, fmt.Errorf("failed to remove messages: %w", err)
		}

		return DisconnectParticipantResponse{IsRoomDeleted: true}, nil
	}

	participants, err := s.getParticipants(ctx, params.RoomId)
	if err != nil {
		return DisconnectParticipantResponse{}, err
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return DisconnectParticipantResponse{}, err
	}

	return DisconnectParticipantResponse{
		Participants: participants,
		Conns:        conns,
	}, nil
}
