package redis

import (
	"context"
	"fmt"

	"github.com/tiger020517/youtube-watch/internal/repository/room"
)

func (r repo) getParticipantKey(participantId string) string {
	return "participant:" + participantId
}

func (r repo) getParticipantListKey(roomId string) string {
	return "room:" + roomId + ":participantlist"
}

func (r repo) SetParticipant(ctx context.Context, params *room.SetParticipantParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	participant := room.Participant{
		DisplayName: params.DisplayName,
		Status:      params.Status,
	}
	participantKey := r.getParticipantKey(params.ParticipantId)
	pipe.HSet(ctx, participantKey, participant)
	pipe.Expire(ctx, participantKey, r.expireDuration)

	participantListKey := r.getParticipantListKey(params.RoomId)
	r.addWithIncrement(ctx, pipe, participantListKey, params.ParticipantId)
	pipe.Expire(ctx, participantListKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set participant: %w", err)
	}

	return nil
}

func (r repo) GetParticipant(ctx context.Context, participantId string) (room.Participant, error) {
	r.logger.DebugContext(ctx, "called", "participantId", participantId)
	participantKey := r.getParticipantKey(participantId)
	res, err := r.rc.Exists(ctx, participantKey).Result()
	if err != nil {
		return room.Participant{}, fmt.Errorf("failed to get participant: %w", err)
	}
	if res == 0 {
		return room.Participant{}, room.ErrParticipantNotFound
	}

	var participant room.Participant
	if err := r.rc.HGetAll(ctx, participantKey).Scan(&participant); err != nil {
		return room.Participant{}, fmt.Errorf("failed to get participant: %w", err)
	}

	return participant, nil
}

// GetParticipantIds returns the room's participant ids in join order.
func (r repo) GetParticipantIds(ctx context.Context, roomId string) ([]string, error) {
	r.logger.DebugContext(ctx, "called", "roomId", roomId)
	ids, err := r.rc.ZRange(ctx, r.getParticipantListKey(roomId), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get participant ids: %w", err)
	}

	return ids, nil
}

func (r repo) RemoveParticipant(ctx context.Context, params *room.RemoveParticipantParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	if err := r.rc.ZRem(ctx, r.getParticipantListKey(params.RoomId), params.ParticipantId).Err(); err != nil {
		return fmt.Errorf("failed to remove participant from list: %w", err)
	}

	res, err := r.rc.Del(ctx, r.getParticipantKey(params.ParticipantId)).Result()
	if err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}

	if res == 0 {
		return room.ErrParticipantNotFound
	}

	return nil
}
