package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tiger020517/youtube-watch/internal/repository/room"
)

func (r repo) getPlayerKey(roomId string) string {
	return "room:" + roomId + ":player"
}

func (r repo) SetPlayer(ctx context.Context, params *room.SetPlayerParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	player := room.Player{
		VideoId:      params.VideoId,
		IsPlaying:    params.IsPlaying,
		CurrentTime:  params.CurrentTime,
		PlaybackRate: params.PlaybackRate,
		LastUpdate:   params.LastUpdate,
	}
	playerKey := r.getPlayerKey(params.RoomId)
	pipe.HSet(ctx, playerKey, player)
	pipe.Expire(ctx, playerKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set player: %w", err)
	}

	return nil
}

func (r repo) IsPlayerExists(ctx context.Context, roomId string) (bool, error) {
	playerKey := r.getPlayerKey(roomId)
	res, err := r.rc.Exists(ctx, playerKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check if player exists: %w", err)
	}

	return res > 0, nil
}

func (r repo) GetPlayer(ctx context.Context, roomId string) (room.Player, error) {
	r.logger.DebugContext(ctx, "called", "roomId", roomId)
	playerKey := r.getPlayerKey(roomId)
	res, err := r.rc.Exists(ctx, playerKey).Result()
	if err != nil {
		return room.Player{}, fmt.Errorf("failed to get player: %w", err)
	}
	if res == 0 {
		return room.Player{}, room.ErrPlayerNotFound
	}

	var player room.Player
	if err := r.rc.HGetAll(ctx, playerKey).Scan(&player); err != nil {
		return room.Player{}, fmt.Errorf("failed to get player: %w", err)
	}

	r.rc.Expire(ctx, playerKey, r.expireDuration)

	return player, nil
}

// UpdatePlayer applies a partial update under last-writer-wins. It reports
// whether the patch was accepted; a stale patch is dropped atomically by the
// script, not an error.
func (r repo) UpdatePlayer(ctx context.Context, params *room.UpdatePlayerParams) (bool, error) {
	r.logger.DebugContext(ctx, "called", "params", params)
	playerKey := r.getPlayerKey(params.RoomId)
	cmd := r.rc.Exists(ctx, playerKey)
	if err := cmd.Err(); err != nil {
		return false, err
	}
	if cmd.Val() == 0 {
		return false, room.ErrPlayerNotFound
	}

	args := []interface{}{params.LastUpdate}
	if params.VideoId != nil {
		args = append(args, "video_id", *params.VideoId)
	}
	if params.IsPlaying != nil {
		args = append(args, "is_playing", boolToField(*params.IsPlaying))
	}
	if params.CurrentTime != nil {
		args = append(args, "current_time", strconv.FormatFloat(*params.CurrentTime, 'f', -1, 64))
	}
	if params.PlaybackRate != nil {
		args = append(args, "playback_rate", strconv.FormatFloat(*params.PlaybackRate, 'f', -1, 64))
	}

	accepted, err := r.rc.EvalSha(ctx, r.lwwUpdateScript, []string{playerKey}, args...).Int()
	if err != nil {
		return false, fmt.Errorf("failed to update player: %w", err)
	}

	r.rc.Expire(ctx, playerKey, r.expireDuration)

	return accepted == 1, nil
}

func (r repo) RemovePlayer(ctx context.Context, roomId string) error {
	r.logger.DebugContext(ctx, "called", "roomId", roomId)
	res, err := r.rc.Del(ctx, r.getPlayerKey(roomId)).Result()
	if err != nil {
		return fmt.Errorf("failed to remove player: %w", err)
	}

	if res == 0 {
		return room.ErrPlayerNotFound
	}

	return nil
}

func boolToField(b bool) string {
	if b {
		return "1"
	}

	return "0"
}
