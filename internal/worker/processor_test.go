package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/hirevault/internal/apperr"
	"github.com/dharsanguruparan/hirevault/internal/logging"
	"github.com/dharsanguruparan/hirevault/internal/model"
	"github.com/dharsanguruparan/hirevault/internal/queue"
	"github.com/dharsanguruparan/hirevault/internal/storage"
)

type fakeObjects struct {
	content   map[string]string
	deleteErr error
	deleted   []string
}

func (f *fakeObjects) Open(_ context.Context, id string) (io.ReadCloser, error) {
	body, ok := f.content[id]
	if !ok {
		return nil, apperr.Newf(apperr.NotFound, "no %s", id)
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (f *fakeObjects) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func task(t *testing.T, typename string, payload any) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(typename, data)
}

func newProcessor(objects *fakeObjects, users *storage.MemoryStore) *Processor {
	p := NewProcessor(objects, users, logging.NewTest().Logger)
	p.extract = func(r io.Reader) (string, error) {
		b, err := io.ReadAll(r)
		return strings.ToUpper(string(b)), err
	}
	return p
}

func TestResumeExtractStoresText(t *testing.T) {
	ctx := context.Background()
	users := storage.NewMemoryStore()
	u := users.SaveUser(&model.User{Resume: &model.AssetRef{ID: "r1"}})
	p := newProcessor(&fakeObjects{content: map[string]string{"r1": "go engineer"}}, users)

	require.NoError(t, p.handleResumeExtract(ctx, task(t, queue.ResumeExtractTask, queue.ResumePayload{UserID: u.ID, AssetID: "r1"})))
	got, _ := users.GetUser(ctx, u.ID)
	assert.Equal(t, "GO ENGINEER", got.ResumeText)
}

func TestResumeExtractSkipsSuperseded(t *testing.T) {
	ctx := context.Background()
	users := storage.NewMemoryStore()
	u := users.SaveUser(&model.User{Resume: &model.AssetRef{ID: "r2"}})
	p := newProcessor(&fakeObjects{content: map[string]string{"r1": "old"}}, users)

	require.NoError(t, p.handleResumeExtract(ctx, task(t, queue.ResumeExtractTask, queue.ResumePayload{UserID: u.ID, AssetID: "r1"})))
	got, _ := users.GetUser(ctx, u.ID)
	assert.Empty(t, got.ResumeText)
}

func TestResumeExtractFailureSkipsRetry(t *testing.T) {
	ctx := context.Background()
	users := storage.NewMemoryStore()
	u := users.SaveUser(&model.User{Resume: &model.AssetRef{ID: "r1"}})
	p := newProcessor(&fakeObjects{content: map[string]string{"r1": "x"}}, users)
	p.extract = func(io.Reader) (string, error) { return "", errors.New("malformed xref") }

	err := p.handleResumeExtract(ctx, task(t, queue.ResumeExtractTask, queue.ResumePayload{UserID: u.ID, AssetID: "r1"}))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestBadPayloadSkipsRetry(t *testing.T) {
	p := newProcessor(&fakeObjects{}, storage.NewMemoryStore())
	err := p.handlePurge(context.Background(), asynq.NewTask(queue.AssetPurgeTask, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestPurge(t *testing.T) {
	ctx := context.Background()
	objects := &fakeObjects{}
	p := newProcessor(objects, storage.NewMemoryStore())

	require.NoError(t, p.handlePurge(ctx, task(t, queue.AssetPurgeTask, queue.PurgePayload{AssetID: "o1"})))
	assert.Equal(t, []string{"o1"}, objects.deleted)

	objects.deleteErr = apperr.Newf(apperr.NotFound, "gone")
	assert.NoError(t, p.handlePurge(ctx, task(t, queue.AssetPurgeTask, queue.PurgePayload{AssetID: "o2"})))

	objects.deleteErr = errors.New("timeout")
	assert.Error(t, p.handlePurge(ctx, task(t, queue.AssetPurgeTask, queue.PurgePayload{AssetID: "o3"})))
}
