package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (c *captureEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.tasks = append(c.tasks, task)
	c.opts = append(c.opts, opts)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func TestEnqueueResumeExtract(t *testing.T) {
	capture := &captureEnqueuer{}
	client := NewClient(capture)

	require.NoError(t, client.EnqueueResumeExtract(context.Background(), "u1", "users/u1/resume/abc"))
	require.Len(t, capture.tasks, 1)
	assert.Equal(t, ResumeExtractTask, capture.tasks[0].Type())

	var payload ResumePayload
	require.NoError(t, json.Unmarshal(capture.tasks[0].Payload(), &payload))
	assert.Equal(t, ResumePayload{UserID: "u1", AssetID: "users/u1/resume/abc"}, payload)
}

func TestEnqueuePurgeIsDelayed(t *testing.T) {
	capture := &captureEnqueuer{}
	client := NewClient(capture)

	require.NoError(t, client.EnqueuePurge(context.Background(), "obj-1"))
	assert.Equal(t, AssetPurgeTask, capture.tasks[0].Type())
	assert.Len(t, capture.opts[0], 2)
}

func TestEnqueueError(t *testing.T) {
	client := NewClient(&captureEnqueuer{err: errors.New("redis down")})
	err := client.EnqueuePurge(context.Background(), "obj-1")
	assert.ErrorContains(t, err, "enqueue asset:purge task")
}
