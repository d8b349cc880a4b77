// Package assets attaches, replaces and removes externally stored files
// against their owning records.
//
// Concurrency: replacement and portfolio append are last-write-wins per
// owner. Portfolio append is a single repository update so concurrent batches
// never drop each other's entries. The list-then-upload dedupe is not atomic
// against other writers into the same folder; two simultaneous batches can
// pick the same disambiguated name.
package assets

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dharsanguruparan/hirevault/internal/model"
	"github.com/dharsanguruparan/hirevault/internal/realtime"
)

// Object is the store's view of an uploaded file.
type Object struct {
	ID          string
	Name        string
	ContentType string
	Size        int64
}

// Store is the external object storage. Implementations return an
// apperr.NotFound error for missing objects.
type Store interface {
	ListNames(ctx context.Context, folderID string) ([]string, error)
	FindFolder(ctx context.Context, name, parentID string) (string, bool, error)
	CreateFolder(ctx context.Context, name, parentID string) (string, error)
	Upload(ctx context.Context, folderID, name, contentType string, body io.Reader, size int64) (Object, error)
	Delete(ctx context.Context, id string) error
	Stat(ctx context.Context, id string) (Object, error)
	Open(ctx context.Context, id string) (io.ReadCloser, error)
	GrantPublicRead(ctx context.Context, id string) error
}

// Users persists asset metadata on user records. Each method is one update.
type Users interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	SetAsset(ctx context.Context, id string, slot model.Slot, ref model.AssetRef) error
	AppendPortfolio(ctx context.Context, id string, refs []model.AssetRef) error
	RemovePortfolio(ctx context.Context, id string, assetIDs []string) error
	SetDirectories(ctx context.Context, id string, dirs model.Directories) error
}

// Threads resolves collaborator threads and stores chat messages.
type Threads interface {
	GetCollaborator(ctx context.Context, id string) (*model.Collaborator, error)
	CreateChat(ctx context.Context, msg *model.ChatMessage) error
}

// Purger retries deletion of superseded objects in the background.
type Purger interface {
	EnqueuePurge(ctx context.Context, assetID string) error
}

// ResumeIndexer schedules text extraction for a newly stored resume.
type ResumeIndexer interface {
	EnqueueResumeExtract(ctx context.Context, userID, assetID string) error
}

// File is one inbound upload.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// CleanupOutcome records what happened to a superseded object.
type CleanupOutcome int

const (
	// CleanupNone means there was nothing to delete.
	CleanupNone CleanupOutcome = iota
	CleanupDeleted
	// CleanupIgnored means deletion failed and the failure was tolerated.
	CleanupIgnored
)

func (o CleanupOutcome) String() string {
	switch o {
	case CleanupDeleted:
		return "deleted"
	case CleanupIgnored:
		return "ignored"
	default:
		return "none"
	}
}

// Cleanup is the result of a best-effort delete.
type Cleanup struct {
	AssetID string
	Outcome CleanupOutcome
	Err     error
}

// Replacement is returned by ReplaceSingleAsset.
type Replacement struct {
	Asset      model.AssetRef
	Superseded Cleanup
}

// Options configures a Manager. Zero values select no-op collaborators.
type Options struct {
	UsersRoot   string
	ChatsRoot   string
	ProfileSize int
	Notifier    realtime.Notifier
	Purger      Purger
	Indexer     ResumeIndexer
	Logger      *log.Logger
	Now         func() time.Time
}

const defaultProfileSize = 300
