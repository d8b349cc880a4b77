// Package processing runs queued tasks in-process on a fixed set of
// goroutines. The API server uses it in place of the Redis-backed queue when
// Redis is unreachable, so purge and resume extraction still happen.
package processing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// ErrQueueFull is returned when the buffer has no room for another task.
var ErrQueueFull = errors.New("processing queue full")

const (
	// QueueName is reported on TaskInfo for tasks accepted by a Pool.
	QueueName   = "local"
	maxAttempts = 3
)

// Pool consumes tasks and hands them to an asynq handler.
type Pool struct {
	handler asynq.Handler
	queue   chan *asynq.Task
	workers int
	backoff time.Duration
	log     *log.Logger
	wg      sync.WaitGroup
}

// New builds a Pool with queue capacity tied to worker count.
func New(handler asynq.Handler, workers int, logger *log.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{
		handler: handler,
		queue:   make(chan *asynq.Task, workers*16),
		workers: workers,
		backoff: 2 * time.Second,
		log:     logger.WithPrefix("processing"),
	}
}

// Start launches the workers. They exit when ctx is cancelled; Wait blocks
// until they have.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

// Wait blocks until every worker has stopped.
func (p *Pool) Wait() { p.wg.Wait() }

// EnqueueContext accepts a task without blocking. Scheduling options such as
// asynq.ProcessIn are ignored; tasks run as soon as a worker is free.
func (p *Pool) EnqueueContext(ctx context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case p.queue <- task:
	default:
		p.log.Warn("dropping task", "type", task.Type(), "err", ErrQueueFull)
		return nil, ErrQueueFull
	}
	return &asynq.TaskInfo{
		ID:       uuid.NewString(),
		Queue:    QueueName,
		Type:     task.Type(),
		Payload:  task.Payload(),
		State:    asynq.TaskStatePending,
		MaxRetry: maxAttempts - 1,
	}, nil
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-p.queue:
			p.process(ctx, task)
		}
	}
}

func (p *Pool) process(ctx context.Context, task *asynq.Task) {
	for attempt := 1; ; attempt++ {
		err := p.handler.ProcessTask(ctx, task)
		if err == nil {
			return
		}
		if errors.Is(err, asynq.SkipRetry) || attempt == maxAttempts {
			p.log.Error("task failed", "type", task.Type(), "attempt", attempt, "err", err)
			return
		}
		p.log.Warn("task failed, retrying", "type", task.Type(), "attempt", attempt, "err", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.backoff * time.Duration(attempt)):
		}
	}
}
