package repository

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/darsni/backend/internal/domain"
)

// LeaderboardStore keeps XP standings.
type LeaderboardStore interface {
	AddXP(ctx context.Context, userID string, points int64) (int64, error)
	Top(ctx context.Context, n int64) ([]domain.LeaderboardEntry, error)
	// Standing returns the user's entry, or nil when the user has no XP yet.
	Standing(ctx context.Context, userID string) (*domain.LeaderboardEntry, error)
}

type redisLeaderboard struct {
	client redis.Cmdable
	key    string
}

// NewLeaderboardStore returns a sorted-set backed leaderboard under key.
func NewLeaderboardStore(client redis.Cmdable, key string) LeaderboardStore {
	return &redisLeaderboard{client: client, key: key}
}

func (l *redisLeaderboard) AddXP(ctx context.Context, userID string, points int64) (int64, error) {
	total, err := l.client.ZIncrBy(ctx, l.key, float64(points), userID).Result()
	if err != nil {
		return 0, err
	}
	return int64(total), nil
}

func (l *redisLeaderboard) Top(ctx context.Context, n int64) ([]domain.LeaderboardEntry, error) {
	if n <= 0 {
		return nil, nil
	}
	members, err := l.client.ZRevRangeWithScores(ctx, l.key, 0, n-1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]domain.LeaderboardEntry, 0, len(members))
	for i, m := range members {
		id, _ := m.Member.(string)
		entries = append(entries, domain.LeaderboardEntry{UserID: id, XP: int64(m.Score), Rank: int64(i) + 1})
	}
	return entries, nil
}

func (l *redisLeaderboard) Standing(ctx context.Context, userID string) (*domain.LeaderboardEntry, error) {
	rank, err := l.client.ZRevRank(ctx, l.key, userID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	score, err := l.client.ZScore(ctx, l.key, userID).Result()
	if err != nil {
		return nil, err
	}
	return &domain.LeaderboardEntry{UserID: userID, XP: int64(score), Rank: rank + 1}, nil
}
