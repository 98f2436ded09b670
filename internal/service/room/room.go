package room

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tiger020517/youtube-watch/internal/domain"
	"github.com/tiger020517/youtube-watch/internal/repository/room"
)

type CreateRoomParams struct {
	DisplayName    string
	InitialVideoId string
}

type CreateRoomResponse struct {
	RoomId        string
	ParticipantId string
	Player        domain.PlayerState
}

func (s service) CreateRoom(ctx context.Context, params *CreateRoomParams) (CreateRoomResponse, error) {
	roomId := s.generator.GenerateRandomString(roomIdLength)
	participantId := uuid.NewString()
	now := time.Now().UnixMilli()

	videoId := params.InitialVideoId
	if videoId == "" {
		videoId = domain.DefaultVideoId
	}

	if err := s.roomRepo.SetPlayer(ctx, &room.SetPlayerParams{
		VideoId:      videoId,
		IsPlaying:    false,
		CurrentTime:  0,
		PlaybackRate: domain.DefaultPlaybackRate,
		LastUpdate:   now,
		RoomId:       roomId,
	}); err != nil {
		return CreateRoomResponse{}, fmt.Errorf("failed to set player: %w", err)
	}

	if err := s.roomRepo.SetParticipant(ctx, &room.SetParticipantParams{
		ParticipantId: participantId,
		DisplayName:   params.DisplayName,
		Status:        string(domain.StatusWatching),
		RoomId:        roomId,
	}); err != nil {
		return CreateRoomResponse{}, fmt.Errorf("failed to set participant: %w", err)
	}

	return CreateRoomResponse{
		RoomId:        roomId,
		ParticipantId: participantId,
		Player:        domain.NewPlayerState(videoId, now),
	}, nil
}

type JoinRoomParams struct {
	RoomId      string
	DisplayName string
	// ParticipantId is the caller's best-effort stable identity. Empty means
	// a fresh one is assigned. A re-join under the same id replaces the
	// previous presence entry.
	ParticipantId string
}

type JoinRoomResponse struct {
	JoinedParticipant domain.Participant
	Participants      []domain.Participant
	Player            domain.PlayerState
	Messages          []domain.ChatMessage
	Conns             []*websocket.Conn
}

func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	exists, err := s.roomRepo.IsPlayerExists(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to check if room exists: %w", err)
	}
	if !exists {
		return JoinRoomResponse{}, ErrRoomNotFound
	}

	participantIds, err := s.roomRepo.GetParticipantIds(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get participant ids: %w", err)
	}

	participantId := params.ParticipantId
	rejoin := false
	for _, id := range participantIds {
		if id == participantId {
			rejoin = true
			break
		}
	}
	if participantId == "" {
		participantId = uuid.NewString()
	}
	if !rejoin && len(participantIds) >= s.participantsLimit {
		return JoinRoomResponse{}, ErrParticipantsLimitReached
	}

	if err := s.roomRepo.SetParticipant(ctx, &room.SetParticipantParams{
		ParticipantId: participantId,
		DisplayName:   params.DisplayName,
		Status:        string(domain.StatusWatching),
		RoomId:        params.RoomId,
	}); err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to set participant: %w", err)
	}

	participants, err := s.getParticipants(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	player, err := s.getPlayerState(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	messages, err := s.getMessages(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	return JoinRoomResponse{
		JoinedParticipant: domain.Participant{
			Id:          participantId,
			DisplayName: params.DisplayName,
			Status:      domain.StatusWatching,
		},
		Participants: participants,
		Player:       player,
		Messages:     messages,
		Conns:        conns,
	}, nil
}

type RoomStateResponse struct {
	Player       domain.PlayerState
	Participants []domain.Participant
	Messages     []domain.ChatMessage
}

func (s service) GetRoomState(ctx context.Context, roomId string) (RoomStateResponse, error) {
	player, err := s.getPlayerState(ctx, roomId)
	if err != nil {
		return RoomStateResponse{}, err
	}

	participants, err := s.getParticipants(ctx, roomId)
	if err != nil {
		return RoomStateResponse{}, err
	}

	messages, err := s.getMessages(ctx, roomId)
	if err != nil {
		return RoomStateResponse{}, err
	}

	return RoomStateResponse{
		Player:       player,
		Participants: participants,
		Messages:     messages,
	}, nil
}
