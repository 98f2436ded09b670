package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tiger020517/youtube-watch/internal/repository/room"
)

func (r repo) getMessageListKey(roomId string) string {
	return "room:" + roomId + ":messages"
}

func (r repo) AddMessage(ctx context.Context, params *room.AddMessageParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	body, err := json.Marshal(params.Message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	pipe := r.rc.TxPipeline()
	messageListKey := r.getMessageListKey(params.RoomId)
	pipe.RPush(ctx, messageListKey, body)
	pipe.Expire(ctx, messageListKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to add message: %w", err)
	}

	return nil
}

// GetMessages returns the room's messages in insertion order.
func (r repo) GetMessages(ctx context.Context, roomId string) ([]room.Message, error) {
	r.logger.DebugContext(ctx, "called", "roomId", roomId)
	rows, err := r.rc.LRange(ctx, r.getMessageListKey(roomId), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	messages := make([]room.Message, 0, len(rows))
	for _, row := range rows {
		var message room.Message
		if err := json.Unmarshal([]byte(row), &message); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}

		messages = append(messages, message)
	}

	return messages, nil
}

func (r repo) RemoveMessages(ctx context.Context, roomId string) error {
	r.logger.DebugContext(ctx, "called", "roomId", roomId)
	if err := r.rc.Del(ctx, r.getMessageListKey(roomId)).Err(); err != nil {
		return fmt.Errorf("failed to remove messages: %w", err)
	}

	return nil
}
