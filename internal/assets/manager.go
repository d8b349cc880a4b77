package assets

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dharsanguruparan/hirevault/internal/apperr"
	"github.com/dharsanguruparan/hirevault/internal/filetype"
	"github.com/dharsanguruparan/hirevault/internal/model"
	"github.com/dharsanguruparan/hirevault/internal/naming"
	"github.com/dharsanguruparan/hirevault/internal/realtime"
)

// Manager is the single entry point for asset writes.
type Manager struct {
	store   Store
	users   Users
	threads Threads
	opts    Options
	log     *log.Logger
}

// New constructs a Manager.
func New(store Store, users Users, threads Threads, opts Options) *Manager {
	if opts.Notifier == nil {
		opts.Notifier = realtime.Discard{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ProfileSize <= 0 {
		opts.ProfileSize = defaultProfileSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Manager{
		store:   store,
		users:   users,
		threads: threads,
		opts:    opts,
		log:     logger.WithPrefix("assets"),
	}
}

// ReplaceSingleAsset swaps the profile photo or resume of ownerID. The old
// object is deleted best-effort before the upload; the owner record changes
// only after the new object is stored and shared.
func (m *Manager) ReplaceSingleAsset(ctx context.Context, ownerID string, slot model.Slot, file File) (Replacement, error) {
	if !slot.Valid() {
		return Replacement{}, apperr.Newf(apperr.ValidationFailed, "unknown slot %q", slot)
	}
	if file.Body == nil {
		return Replacement{}, apperr.Newf(apperr.ValidationFailed, "no %s file provided", slot)
	}
	user, err := m.users.GetUser(ctx, ownerID)
	if err != nil {
		return Replacement{}, err
	}
	folder := user.Directories.For(slot)
	if folder == "" {
		return Replacement{}, apperr.Newf(apperr.NotConfigured, "user does not have a %s directory assigned", slot)
	}

	upload, err := m.prepare(slot, user, file)
	if err != nil {
		return Replacement{}, err
	}

	var result Replacement
	if old := user.Asset(slot); old != nil && old.ID != "" {
		result.Superseded = m.discard(ctx, old.ID)
	}

	obj, err := m.put(ctx, folder, upload)
	if err != nil {
		return result, err
	}
	ref := refFor(obj)
	if err := m.users.SetAsset(ctx, ownerID, slot, ref); err != nil {
		m.discard(ctx, obj.ID)
		return result, err
	}
	result.Asset = ref
	m.log.Info("asset replaced", "owner", ownerID, "slot", slot, "asset", ref.ID, "superseded", result.Superseded.Outcome)

	m.publish(ctx, realtime.Event{
		Name:    realtime.EventAssetChanged,
		Payload: map[string]any{"owner": ownerID, "slot": slot, "file": ref},
	})
	if slot == model.SlotResume && ref.MimeType == "application/pdf" && m.opts.Indexer != nil {
		if err := m.opts.Indexer.EnqueueResumeExtract(ctx, ownerID, ref.ID); err != nil {
			m.log.Warn("schedule resume extraction", "owner", ownerID, "err", err)
		}
	}
	return result, nil
}

// AppendPortfolioAssets uploads files into the owner's portfolio folder under
// collision-free names and appends all references in a single update.
func (m *Manager) AppendPortfolioAssets(ctx context.Context, ownerID string, files []File) ([]model.AssetRef, error) {
	if len(files) == 0 {
		return nil, apperr.Newf(apperr.ValidationFailed, "No portfolio files provided.")
	}
	user, err := m.users.GetUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if user.Directories == nil || user.Directories.Portfolio == "" {
		return nil, apperr.Newf(apperr.NotConfigured, "user does not have a portfolio directory assigned")
	}
	refs, err := m.uploadBatch(ctx, user.Directories.Portfolio, files)
	if err != nil {
		return nil, err
	}
	if err := m.users.AppendPortfolio(ctx, ownerID, refs); err != nil {
		m.rollback(ctx, refs)
		return nil, err
	}
	m.log.Info("portfolio appended", "owner", ownerID, "count", len(refs))
	m.publish(ctx, realtime.Event{
		Name:    realtime.EventAssetChanged,
		Payload: map[string]any{"owner": ownerID, "slot": "portfolio", "files": refs},
	})
	return refs, nil
}

// RemovePortfolioAssets deletes the listed portfolio objects best-effort and
// drops their references in one update. Ids not in the portfolio are skipped.
func (m *Manager) RemovePortfolioAssets(ctx context.Context, ownerID string, assetIDs []string) ([]Cleanup, error) {
	if len(assetIDs) == 0 {
		return nil, apperr.Newf(apperr.ValidationFailed, "No portfolio files selected.")
	}
	user, err := m.users.GetUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	owned := make(map[string]bool, len(user.Portfolio))
	for _, ref := range user.Portfolio {
		owned[ref.ID] = true
	}
	var ids []string
	for _, id := range assetIDs {
		if owned[id] {
			ids = append(ids, id)
			owned[id] = false
		}
	}
	if len(ids) == 0 {
		return nil, apperr.Newf(apperr.NotFound, "none of the selected files belong to this portfolio")
	}
	cleanups := make([]Cleanup, 0, len(ids))
	for _, id := range ids {
		cleanups = append(cleanups, m.discard(ctx, id))
	}
	if err := m.users.RemovePortfolio(ctx, ownerID, ids); err != nil {
		return cleanups, err
	}
	m.publish(ctx, realtime.Event{
		Name:    realtime.EventAssetChanged,
		Payload: map[string]any{"owner": ownerID, "slot": "portfolio", "removed": ids},
	})
	return cleanups, nil
}

// AppendChatAttachment stores files in the collaborator's chat folder and
// records them as one chat message.
func (m *Manager) AppendChatAttachment(ctx context.Context, collaboratorID, senderID string, files []File) (*model.ChatMessage, error) {
	if len(files) == 0 {
		return nil, apperr.Newf(apperr.ValidationFailed, "No files provided.")
	}
	if m.opts.ChatsRoot == "" {
		return nil, apperr.Newf(apperr.NotConfigured, "chats root directory is not configured")
	}
	if _, err := m.users.GetUser(ctx, senderID); err != nil {
		return nil, err
	}
	collaborator, err := m.threads.GetCollaborator(ctx, collaboratorID)
	if err != nil {
		return nil, err
	}
	folder, err := m.ResolveFolder(ctx, collaborator.Title, m.opts.ChatsRoot)
	if err != nil {
		return nil, err
	}
	refs, err := m.uploadBatch(ctx, folder, files)
	if err != nil {
		return nil, err
	}
	now := m.opts.Now().UTC()
	entries := make([]model.ChatEntry, len(refs))
	for i, ref := range refs {
		entries[i] = model.ChatEntry{
			Type:      model.EntryFile,
			Content:   ref.ID,
			FileType:  ref.FileType,
			Filename:  ref.Filename,
			Extension: ref.Extension,
			Timestamp: now,
		}
	}
	msg := &model.ChatMessage{
		SenderID:       senderID,
		CollaboratorID: collaboratorID,
		Entries:        entries,
		CreatedAt:      now,
	}
	if err := m.threads.CreateChat(ctx, msg); err != nil {
		m.rollback(ctx, refs)
		return nil, err
	}
	m.publish(ctx, realtime.Event{Name: realtime.EventReceiveMessage, Room: collaboratorID, Payload: msg})
	return msg, nil
}

// StatAsset returns the object's metadata without opening its content.
func (m *Manager) StatAsset(ctx context.Context, assetID string) (Object, error) {
	if assetID == "" {
		return Object{}, apperr.Newf(apperr.ValidationFailed, "missing file id")
	}
	obj, err := m.store.Stat(ctx, assetID)
	if err != nil {
		return Object{}, storeErr("stat asset", err)
	}
	return obj, nil
}

// DownloadAsset returns the object's metadata and an open content stream. The
// caller closes the stream.
func (m *Manager) DownloadAsset(ctx context.Context, assetID string) (Object, io.ReadCloser, error) {
	obj, err := m.StatAsset(ctx, assetID)
	if err != nil {
		return Object{}, nil, err
	}
	rc, err := m.store.Open(ctx, assetID)
	if err != nil {
		return Object{}, nil, storeErr("open asset", err)
	}
	return obj, rc, nil
}

// ResolveFolder returns the folder called name under parentID, creating and
// sharing it when absent.
func (m *Manager) ResolveFolder(ctx context.Context, name, parentID string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", apperr.Newf(apperr.ValidationFailed, "folder name is required")
	}
	id, found, err := m.store.FindFolder(ctx, name, parentID)
	if err != nil {
		return "", storeErr("find folder", err)
	}
	if found {
		return id, nil
	}
	id, err = m.store.CreateFolder(ctx, name, parentID)
	if err != nil {
		return "", storeErr("create folder", err)
	}
	if err := m.store.GrantPublicRead(ctx, id); err != nil {
		return "", storeErr("share folder", err)
	}
	m.log.Debug("folder created", "name", name, "parent", parentID, "id", id)
	return id, nil
}

// ProvisionUserFolders assigns the root, profile, resume and portfolio
// folders of a user. Folders already assigned are kept as they are.
func (m *Manager) ProvisionUserFolders(ctx context.Context, userID string) (model.Directories, error) {
	if m.opts.UsersRoot == "" {
		return model.Directories{}, apperr.Newf(apperr.NotConfigured, "users root directory is not configured")
	}
	user, err := m.users.GetUser(ctx, userID)
	if err != nil {
		return model.Directories{}, err
	}
	var dirs model.Directories
	if user.Directories != nil {
		dirs = *user.Directories
	}
	if dirs.Root != "" && dirs.Profile != "" && dirs.Resume != "" && dirs.Portfolio != "" {
		return dirs, nil
	}
	if dirs.Root == "" {
		if dirs.Root, err = m.ResolveFolder(ctx, user.ID, m.opts.UsersRoot); err != nil {
			return model.Directories{}, err
		}
	}
	for _, sub := range []struct {
		name string
		dst  *string
	}{
		{"profile", &dirs.Profile},
		{"resume", &dirs.Resume},
		{"portfolio", &dirs.Portfolio},
	} {
		if *sub.dst != "" {
			continue
		}
		if *sub.dst, err = m.ResolveFolder(ctx, sub.name, dirs.Root); err != nil {
			return model.Directories{}, err
		}
	}
	if err := m.users.SetDirectories(ctx, userID, dirs); err != nil {
		return model.Directories{}, err
	}
	m.log.Info("user folders provisioned", "user", userID, "root", dirs.Root)
	return dirs, nil
}

// uploadBatch lists the folder once, then stores each file under a
// collision-free name. A failure discards what this batch already stored.
func (m *Manager) uploadBatch(ctx context.Context, folder string, files []File) ([]model.AssetRef, error) {
	existing, err := m.store.ListNames(ctx, folder)
	if err != nil {
		return nil, storeErr("list folder", err)
	}
	names := naming.NewSet(existing)
	refs := make([]model.AssetRef, 0, len(files))
	for _, f := range files {
		if f.Body == nil {
			m.rollback(ctx, refs)
			return nil, apperr.Newf(apperr.ValidationFailed, "file %q has no content", f.Name)
		}
		f.Name = names.Claim(fallbackName(f.Name))
		obj, err := m.put(ctx, folder, f)
		if err != nil {
			m.rollback(ctx, refs)
			return nil, err
		}
		refs = append(refs, refFor(obj))
	}
	return refs, nil
}

// put uploads one file and grants public read on it. A failed grant removes
// the fresh object again.
func (m *Manager) put(ctx context.Context, folder string, f File) (Object, error) {
	obj, err := m.store.Upload(ctx, folder, f.Name, f.ContentType, f.Body, f.Size)
	if err != nil {
		return Object{}, storeErr("upload file", err)
	}
	if err := m.store.GrantPublicRead(ctx, obj.ID); err != nil {
		m.discard(ctx, obj.ID)
		return Object{}, storeErr("share file", err)
	}
	if obj.Name == "" {
		obj.Name = f.Name
	}
	if obj.ContentType == "" {
		obj.ContentType = f.ContentType
	}
	return obj, nil
}

// discard deletes an object, tolerating failure. Failures other than a
// missing object are handed to the Purger for retry.
func (m *Manager) discard(ctx context.Context, id string) Cleanup {
	err := m.store.Delete(ctx, id)
	if err == nil {
		return Cleanup{AssetID: id, Outcome: CleanupDeleted}
	}
	m.log.Warn("file might not exist or already deleted", "asset", id, "err", err)
	if !apperr.Is(err, apperr.NotFound) && m.opts.Purger != nil {
		if perr := m.opts.Purger.EnqueuePurge(ctx, id); perr != nil {
			m.log.Warn("schedule purge", "asset", id, "err", perr)
		}
	}
	return Cleanup{AssetID: id, Outcome: CleanupIgnored, Err: err}
}

func (m *Manager) rollback(ctx context.Context, refs []model.AssetRef) {
	for _, ref := range refs {
		m.discard(ctx, ref.ID)
	}
}

func (m *Manager) publish(ctx context.Context, ev realtime.Event) {
	if err := m.opts.Notifier.Publish(ctx, ev); err != nil {
		m.log.Debug("publish event", "event", ev.Name, "err", err)
	}
}

// prepare applies the slot's naming convention and, for profile photos, the
// square crop.
func (m *Manager) prepare(slot model.Slot, user *model.User, f File) (File, error) {
	switch slot {
	case model.SlotProfile:
		data, err := squareJPEG(f.Body, m.opts.ProfileSize)
		if err != nil {
			return File{}, apperr.New(apperr.ValidationFailed, "profile image could not be processed", err)
		}
		return File{
			Name:        "profile_" + user.FullName,
			ContentType: "image/jpeg",
			Size:        int64(len(data)),
			Body:        newReader(data),
		}, nil
	default:
		f.Name = trimExt(fallbackName(f.Name))
		return f, nil
	}
}

func refFor(obj Object) model.AssetRef {
	info := filetype.Classify(obj.ContentType)
	return model.AssetRef{
		ID:        obj.ID,
		Name:      obj.Name,
		MimeType:  obj.ContentType,
		FileType:  info.Category,
		Filename:  obj.Name,
		Extension: info.Extension,
	}
}

func storeErr(op string, err error) error {
	if apperr.Is(err, apperr.NotFound) {
		return err
	}
	return apperr.New(apperr.StoreUnavailable, op, err)
}

func trimExt(name string) string {
	if ext := path.Ext(name); ext != "" && ext != name {
		return strings.TrimSuffix(name, ext)
	}
	return name
}

// fallbackName strips client-side directories, including Windows ones.
func fallbackName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return "upload"
	}
	return name
}
