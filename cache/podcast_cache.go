package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"podforge/logger"
	"podforge/model"

	"github.com/redis/go-redis/v9"
)

const (
	podcastKeyPrefix = "podforge:podcast:"
	podcastCacheTTL  = 24 * time.Hour
)

// GetPodcast 读取缓存的播客记录，未命中时返回 nil
func GetPodcast(ctx context.Context, podcastID string) (*model.Podcast, error) {
	if RedisClient == nil {
		return nil, nil
	}

	data, err := RedisClient.Get(ctx, podcastKeyPrefix+podcastID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get podcast from cache: %w", err)
	}

	var p model.Podcast
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		// 缓存内容损坏时按未命中处理，由数据库兜底
		logger.Warn("[PodcastCache] 缓存记录解析失败", logger.String("podcastId", podcastID), logger.ErrorField(err))
		return nil, nil
	}
	return &p, nil
}

// SetPodcast 缓存终态的播客记录
// 只有 ready / error 状态会被缓存：终态记录不再变化，可以安全命中
func SetPodcast(ctx context.Context, p *model.Podcast) error {
	if RedisClient == nil || p == nil {
		return nil
	}
	if !p.Status.IsTerminal() {
		return nil
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal podcast for cache: %w", err)
	}

	if err := RedisClient.Set(ctx, podcastKeyPrefix+p.ID, data, podcastCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache podcast: %w", err)
	}
	return nil
}
