package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/attendance-backend/internal/config"
	"github.com/stemsi/attendance-backend/internal/model"
)

// QueuePublisher pushes facts onto Redis lists for the workers in this
// package to consume.
type QueuePublisher struct {
	rdb *redis.Client
}

func NewQueuePublisher(rdb *redis.Client) *QueuePublisher {
	return &QueuePublisher{rdb: rdb}
}

// PublishRecorded enqueues a committed bulk write.
func (p *QueuePublisher) PublishRecorded(ctx context.Context, fact model.RecordedFact) error {
	raw, err := json.Marshal(fact)
	if err != nil {
		return fmt.Errorf("marshal recorded fact: %w", err)
	}
	return p.rdb.RPush(ctx, config.WorkerKey.AttendanceRecordedQueue, raw).Err()
}
