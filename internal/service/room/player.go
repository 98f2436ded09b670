package room

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/tiger020517/youtube-watch/internal/domain"
	"github.com/tiger020517/youtube-watch/internal/repository/room"
)

type UpdatePlayerParams struct {
	Patch    domain.PlayerPatch
	SenderId string
	RoomId   string
}

type UpdatePlayerResponse struct {
	// Accepted is false when the patch lost the last-writer-wins check.
	// A stale patch is dropped silently, it is not an error.
	Accepted bool
	Player   domain.PlayerState
	Conns    []*websocket.Conn
}

func (s service) UpdatePlayer(ctx context.Context, params *UpdatePlayerParams) (UpdatePlayerResponse, error) {
	accepted, err := s.roomRepo.UpdatePlayer(ctx, &room.UpdatePlayerParams{
		VideoId:      params.Patch.VideoId,
		IsPlaying:    params.Patch.IsPlaying,
		CurrentTime:  params.Patch.CurrentTime,
		PlaybackRate: params.Patch.PlaybackRate,
		LastUpdate:   params.Patch.LastUpdate,
		RoomId:       params.RoomId,
	})
	if err != nil {
		if err == room.ErrPlayerNotFound {
			return UpdatePlayerResponse{}, ErrRoomNotFound
		}

		return UpdatePlayerResponse{}, fmt.Errorf("failed to update player: %w", err)
	}

	if !accepted {
		s.logger.DebugContext(ctx, "stale patch dropped",
			"roomId", params.RoomId,
			"senderId", params.SenderId,
			"lastUpdate", params.Patch.LastUpdate,
		)
		return UpdatePlayerResponse{Accepted: false}, nil
	}

	player, err := s.getPlayerState(ctx, params.RoomId)
	if err != nil {
		return UpdatePlayerResponse{}, err
	}

	conns, err := s.getConnsByRoomId(ctx, params.RoomId)
	if err != nil {
		return UpdatePlayerResponse{}, err
	}

	return UpdatePlayerResponse{
		Accepted: true,
		Player:   player,
		Conns:    conns,
	}, nil
}
