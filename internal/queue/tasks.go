// Package queue defines the background tasks and the client that schedules them.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// ResumeExtractTask is scheduled each time a PDF resume replaces the old one.
	ResumeExtractTask = "resume:extract"
	// AssetPurgeTask retries deletion of an object the asset manager could not remove.
	AssetPurgeTask = "asset:purge"
)

// ResumePayload names the user and the resume object to index.
type ResumePayload struct {
	UserID  string `json:"user_id"`
	AssetID string `json:"asset_id"`
}

// PurgePayload names the object to delete.
type PurgePayload struct {
	AssetID string `json:"asset_id"`
}

// Enqueuer is the part of *asynq.Client the Client needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Client schedules tasks. It satisfies the asset manager's Purger and
// ResumeIndexer.
type Client struct {
	enqueuer Enqueuer
}

// NewClient wraps an asynq client.
func NewClient(enqueuer Enqueuer) *Client {
	return &Client{enqueuer: enqueuer}
}

// EnqueueResumeExtract schedules text extraction for a resume.
func (c *Client) EnqueueResumeExtract(ctx context.Context, userID, assetID string) error {
	return c.enqueue(ctx, ResumeExtractTask, ResumePayload{UserID: userID, AssetID: assetID},
		asynq.MaxRetry(5))
}

// EnqueuePurge schedules a delayed delete of an orphaned object.
func (c *Client) EnqueuePurge(ctx context.Context, assetID string) error {
	return c.enqueue(ctx, AssetPurgeTask, PurgePayload{AssetID: assetID},
		asynq.MaxRetry(10), asynq.ProcessIn(time.Minute))
}

func (c *Client) enqueue(ctx context.Context, typename string, payload any, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if _, err := c.enqueuer.EnqueueContext(ctx, asynq.NewTask(typename, data), opts...); err != nil {
		return fmt.Errorf("enqueue %s task: %w", typename, err)
	}
	return nil
}
