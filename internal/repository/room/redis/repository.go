package redis

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type repo struct {
	rc              *redis.Client
	logger          *slog.Logger
	expireDuration  time.Duration
	maxScoreScript  string
	lwwUpdateScript string
}

func NewRepo(rc *redis.Client, logger *slog.Logger, expireDuration time.Duration) *repo {
	return &repo{
		rc:             rc,
		logger:         logger,
		expireDuration: expireDuration,
		maxScoreScript: rc.ScriptLoad(context.Background(), `
			local maxScore = redis.call('ZREVRANGE', KEYS[1], 0, 0, 'WITHSCORES')
			local nextScore = 1
			if #maxScore > 0 then
				nextScore = tonumber(maxScore[2]) + 1
			end
			redis.call('ZADD', KEYS[1], nextScore, ARGV[1])
			return nextScore
		`).Val(),
		lwwUpdateScript: rc.ScriptLoad(context.Background(), `
			local stored = redis.call('HGET', KEYS[1], 'last_update')
			if stored and tonumber(stored) >= tonumber(ARGV[1]) then
				return 0
			end
			for i = 2, #ARGV, 2 do
				redis.call('HSET', KEYS[1], ARGV[i], ARGV[i + 1])
			end
			redis.call('HSET', KEYS[1], 'last_update', ARGV[1])
			return 1
		`).Val(),
	}
}
