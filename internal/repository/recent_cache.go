package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/issue-triage-service/internal/domain"
)

const recentTitlesKey = "issues:recent-titles"

// RecentTitleCache keeps the duplicate-detection window (id + title of
// issues created in the last 24h) in a Redis sorted set scored by creation
// millis. It is a cache only: callers fall back to SQL when it is cold or
// unreachable.
type RecentTitleCache struct {
	client *redis.Client
	window time.Duration
}

// NewRecentTitleCache constructs the cache. A nil client disables it.
func NewRecentTitleCache(client *redis.Client, window time.Duration) *RecentTitleCache {
	return &RecentTitleCache{client: client, window: window}
}

// Add records a freshly created issue and trims expired members.
func (c *RecentTitleCache) Add(ctx context.Context, issue domain.Issue) error {
	if c == nil || c.client == nil {
		return errors.New("recent title cache not configured")
	}
	member := issue.ID + "|" + issue.Title
	pipe := c.client.TxPipeline()
	pipe.ZAdd(ctx, recentTitlesKey, redis.Z{
		Score:  float64(issue.CreatedAt.UnixMilli()),
		Member: member,
	})
	cutoff := issue.CreatedAt.Add(-c.window).UnixMilli()
	pipe.ZRemRangeByScore(ctx, recentTitlesKey, "-inf", fmt.Sprintf("(%d", cutoff))
	_, err := pipe.Exec(ctx)
	return err
}

// Recent returns cached issues created within the window ending at now,
// newest first.
func (c *RecentTitleCache) Recent(ctx context.Context, now time.Time) ([]domain.Issue, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("recent title cache not configured")
	}
	cutoff := now.Add(-c.window).UnixMilli()
	members, err := c.client.ZRevRangeByScore(ctx, recentTitlesKey, &redis.ZRangeBy{
		Min: strconv.FormatInt(cutoff, 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}
	issues := make([]domain.Issue, 0, len(members))
	for _, member := range members {
		id, title, ok := strings.Cut(member, "|")
		if !ok {
			continue
		}
		issues = append(issues, domain.Issue{ID: id, Title: title})
	}
	return issues, nil
}
