package controller

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/tiger020517/youtube-watch/internal/domain"
	"github.com/tiger020517/youtube-watch/internal/service/room"
)

func (c *controller) handleAlive(_ context.Context, _ *websocket.Conn, _ EmptyInput) error {
	return nil
}

type UpdatePlayerInput struct {
	VideoId      *string  `json:"video_id,omitempty"`
	IsPlaying    *bool    `json:"is_playing,omitempty"`
	CurrentTime  *float64 `json:"current_time,omitempty"`
	PlaybackRate *float64 `json:"playback_rate,omitempty"`
	LastUpdate   int64    `json:"last_update"`
}

func (c *controller) handleUpdatePlayer(ctx context.Context, conn *websocket.Conn, input UpdatePlayerInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	participantId := c.getParticipantIdFromCtx(ctx)

	updateResp, err := c.roomService.UpdatePlayer(ctx, &room.UpdatePlayerParams{
		Patch: domain.PlayerPatch{
			VideoId:      input.VideoId,
			IsPlaying:    input.IsPlaying,
			CurrentTime:  input.CurrentTime,
			PlaybackRate: input.PlaybackRate,
			LastUpdate:   input.LastUpdate,
		},
		SenderId: participantId,
		RoomId:   roomId,
	})
	if err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}

	// stale patches are dropped without fan-out
	if !updateResp.Accepted {
		return nil
	}

	if err := c.broadcast(ctx, updateResp.Conns, &Output{
		Type:    "PLAYER_UPDATED",
		Payload: updateResp.Player,
	}); err != nil {
		return fmt.Errorf("failed to broadcast player updated: %w", err)
	}

	return nil
}

type SendMessageInput struct {
	Text string `json:"text"`
}

func (c *controller) handleSendMessage(ctx context.Context, conn *websocket.Conn, input SendMessageInput) error {
	roomId := c.getRoomIdFromCtx(ctx)
	participantId := c.getParticipantIdFromCtx(ctx)

	sendResp, err := c.roomService.SendMessage(ctx, &room.SendMessageParams{
		Text:     input.Text,
		SenderId: participantId,
		RoomId:   roomId,
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	if err := c.broadcast(ctx, sendResp.Conns, &Output{
		Type:    "MESSAGE_INSERTED",
		Payload: sendResp.Message,
	}); err != nil {
		return fmt.Errorf("failed to broadcast message inserted: %w", err)
	}

	return nil
}
