// Package worker runs the background tasks defined in package queue.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/hibiken/asynq"

	"github.com/dharsanguruparan/hirevault/internal/apperr"
	"github.com/dharsanguruparan/hirevault/internal/model"
	pdfutil "github.com/dharsanguruparan/hirevault/internal/pdf"
	"github.com/dharsanguruparan/hirevault/internal/queue"
)

// Objects is the part of the asset store the worker touches.
type Objects interface {
	Open(ctx context.Context, id string) (io.ReadCloser, error)
	Delete(ctx context.Context, id string) error
}

// Resumes reads users and stores extracted resume text.
type Resumes interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	SetResumeText(ctx context.Context, id, text string) error
}

// Processor is plugged into the asynq worker loop.
type Processor struct {
	objects Objects
	users   Resumes
	log     *log.Logger
	extract func(io.Reader) (string, error)
}

// NewProcessor constructs a worker processor.
func NewProcessor(objects Objects, users Resumes, logger *log.Logger) *Processor {
	return &Processor{
		objects: objects,
		users:   users,
		log:     logger.WithPrefix("worker"),
		extract: pdfutil.ExtractFromReader,
	}
}

// Handler registers the task handlers.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.ResumeExtractTask, p.handleResumeExtract)
	mux.HandleFunc(queue.AssetPurgeTask, p.handlePurge)
	return mux
}

func (p *Processor) handleResumeExtract(ctx context.Context, task *asynq.Task) error {
	var payload queue.ResumePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	user, err := p.users.GetUser(ctx, payload.UserID)
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			p.log.Warn("resume owner gone", "user", payload.UserID)
			return nil
		}
		return err
	}
	if user.Resume == nil || user.Resume.ID != payload.AssetID {
		p.log.Debug("resume superseded, skipping", "user", payload.UserID, "asset", payload.AssetID)
		return nil
	}
	rc, err := p.objects.Open(ctx, payload.AssetID)
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return nil
		}
		return err
	}
	defer rc.Close()
	text, err := p.extract(rc)
	if err != nil {
		p.log.Warn("resume extraction failed", "user", payload.UserID, "asset", payload.AssetID, "err", err)
		return fmt.Errorf("extract resume: %v: %w", err, asynq.SkipRetry)
	}
	if err := p.users.SetResumeText(ctx, payload.UserID, text); err != nil {
		return err
	}
	p.log.Info("resume indexed", "user", payload.UserID, "chars", len(text))
	return nil
}

func (p *Processor) handlePurge(ctx context.Context, task *asynq.Task) error {
	var payload queue.PurgePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if err := p.objects.Delete(ctx, payload.AssetID); err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return nil
		}
		p.log.Warn("purge failed, will retry", "asset", payload.AssetID, "err", err)
		return err
	}
	p.log.Info("orphaned asset purged", "asset", payload.AssetID)
	return nil
}
