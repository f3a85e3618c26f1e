package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"minerva/internal/agents/schemas"
	"minerva/pkg/errors"
)

// ReportRepository caches finalized research reports by workflow ID so result
// polling does not have to query the workflow engine.
type ReportRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportRepository creates a report repository with the given retention TTL.
func NewReportRepository(client *redis.Client, ttl time.Duration) *ReportRepository {
	return &ReportRepository{client: client, ttl: ttl}
}

// Get retrieves a finalized report by workflow ID.
func (r *ReportRepository) Get(ctx context.Context, workflowID string) (*schemas.ResearchReport, error) {
	key := r.getKey(workflowID)

	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "report not found for workflow_id=%s", workflowID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get report from redis: workflow_id=%s", workflowID)
	}

	var report schemas.ResearchReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal report: workflow_id=%s", workflowID)
	}

	return &report, nil
}

// Save stores a finalized report. Overwriting an identical record is a no-op
// for readers, which keeps the persist activity safely retryable.
func (r *ReportRepository) Save(ctx context.Context, workflowID string, report *schemas.ResearchReport) error {
	key := r.getKey(workflowID)

	data, err := json.Marshal(report)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal report: workflow_id=%s", workflowID)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to save report to redis: workflow_id=%s", workflowID)
	}

	return nil
}

func (r *ReportRepository) getKey(workflowID string) string {
	return fmt.Sprintf("research:report:%s", workflowID)
}
