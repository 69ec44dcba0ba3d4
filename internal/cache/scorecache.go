// Package cache persists batch-run checkpoints and the latest run summary in
// Redis so an interrupted run can be inspected and resumed.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"retention-engine/internal/common/database"
	stderrors "retention-engine/internal/common/errors"
	"retention-engine/internal/common/logger"
	"retention-engine/internal/models"
)

const (
	checkpointKeyPrefix = "scoring:checkpoint:"
	summaryKey          = "scoring:summary:latest"
	checkpointTTL       = 24 * time.Hour
)

// ScoreCache stores pipeline progress markers keyed by run ID.
type ScoreCache struct {
	redis *database.RedisClient
	log   logger.Logger
}

// New creates a ScoreCache on top of an established Redis client.
func New(redis *database.RedisClient, log logger.Logger) *ScoreCache {
	return &ScoreCache{redis: redis, log: log}
}

// SetCheckpoint records how many records of a run have been scored so far.
func (c *ScoreCache) SetCheckpoint(ctx context.Context, runID string, processed int) error {
	key := checkpointKeyPrefix + runID
	if err := c.redis.Set(ctx, key, processed, checkpointTTL); err != nil {
		return stderrors.NewCheckpointFailedError(err)
	}
	c.log.Debug("Checkpoint recorded", map[string]interface{}{
		"runId":     runID,
		"processed": processed,
	})
	return nil
}

// GetCheckpoint returns the last recorded progress for a run, or 0 when the
// run has no checkpoint.
func (c *ScoreCache) GetCheckpoint(ctx context.Context, runID string) (int, error) {
	raw, err := c.redis.Get(ctx, checkpointKeyPrefix+runID)
	if err != nil {
		if database.IsRedisNil(err) {
			return 0, nil
		}
		return 0, stderrors.NewCheckpointFailedError(err)
	}
	processed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, stderrors.NewCheckpointFailedError(fmt.Errorf("corrupt checkpoint value %q: %w", raw, err))
	}
	return processed, nil
}

// ClearCheckpoint removes a completed run's marker.
func (c *ScoreCache) ClearCheckpoint(ctx context.Context, runID string) error {
	if err := c.redis.Del(ctx, checkpointKeyPrefix+runID); err != nil {
		return stderrors.NewCheckpointFailedError(err)
	}
	return nil
}

// SetSummary caches the latest completed batch summary for dashboards.
func (c *ScoreCache) SetSummary(ctx context.Context, summary models.BatchSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return stderrors.NewCheckpointFailedError(err)
	}
	if err := c.redis.Set(ctx, summaryKey, data, 0); err != nil {
		return stderrors.NewCheckpointFailedError(err)
	}
	return nil
}

// GetSummary returns the latest cached batch summary, or nil when no run has
// completed yet.
func (c *ScoreCache) GetSummary(ctx context.Context) (*models.BatchSummary, error) {
	raw, err := c.redis.Get(ctx, summaryKey)
	if err != nil {
		if database.IsRedisNil(err) {
			return nil, nil
		}
		return nil, stderrors.NewCheckpointFailedError(err)
	}
	var summary models.BatchSummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return nil, stderrors.NewCheckpointFailedError(err)
	}
	return &summary, nil
}
