// Package jobs defines the Redis job queue and event channel shared by the
// API and the worker.
package jobs

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// Queue is the Redis list jobs are pushed to and popped from.
	Queue = "jobs"
	// Channel is the Redis pub/sub channel events are published on.
	Channel = "events"

	TypeEvaluateTenant  = "evaluate_tenant"
	EventBatchCompleted = "sla_batch_completed"
)

var ErrNoQueue = errors.New("job queue not configured")

type Job struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// EvaluateTenant asks the worker to evaluate every ticket of a tenant.
type EvaluateTenant struct {
	JobID                  uuid.UUID `json:"job_id"`
	Tenant                 string    `json:"tenant"`
	SubstituteMissingDates *bool     `json:"substitute_missing_dates,omitempty"`
	RequestedBy            string    `json:"requested_by,omitempty"`
}

// Enqueue appends a job to the queue.
func Enqueue(ctx context.Context, rdb *redis.Client, typ string, data any) error {
	if rdb == nil {
		return ErrNoQueue
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	b, err := json.Marshal(Job{Type: typ, Data: raw})
	if err != nil {
		return err
	}
	return rdb.RPush(ctx, Queue, b).Err()
}

// Event is a message broadcast to subscribers. Tenant scopes who may see it.
type Event struct {
	Type   string      `json:"type"`
	Tenant string      `json:"tenant,omitempty"`
	Data   interface{} `json:"data"`
}

// Publish sends an event to Channel. A nil client is a no-op.
func Publish(ctx context.Context, rdb *redis.Client, ev Event) error {
	if rdb == nil {
		return nil
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return rdb.Publish(ctx, Channel, b).Err()
}
