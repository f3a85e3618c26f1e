package tasks

import (
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"minerva/internal/adapters/config"
)

// Application error types attached to non-retryable failures. Retrying an
// empty prompt or a malformed reply cannot succeed, so these abort the
// activity on first occurrence.
const (
	ErrTypeConfiguration    = "ConfigurationError"
	ErrTypeSchemaValidation = "SchemaValidationError"
	ErrTypeAuthentication   = "AuthenticationError"
)

// ActivityOptions builds the shared retry and timeout policy every remote
// activity runs under. Bounded exponential backoff with an attempt cap;
// both ceilings apply per activity instance, not per run.
func ActivityOptions(cfg config.RetryConfig) workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout:    cfg.StartToCloseTimeout,
		ScheduleToCloseTimeout: cfg.ScheduleToCloseTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    cfg.InitialInterval,
			BackoffCoefficient: cfg.BackoffCoefficient,
			MaximumInterval:    cfg.MaximumInterval,
			MaximumAttempts:    int32(cfg.MaximumAttempts),
		},
	}
}
