// Package storage contains an in-memory user and chat repository. It backs the
// asset manager in tests and in single-process development runs.
package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dharsanguruparan/hirevault/internal/apperr"
	"github.com/dharsanguruparan/hirevault/internal/model"
)

// MemoryStore guards its maps with an RWMutex; readers get copies.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[string]*model.User
	collaborators map[string]*model.Collaborator
	chats         map[string][]model.ChatMessage
	writes        int
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]*model.User),
		collaborators: make(map[string]*model.Collaborator),
		chats:         make(map[string][]model.ChatMessage),
	}
}

// SaveUser inserts or replaces a user, assigning an id when missing.
func (m *MemoryStore) SaveUser(u *model.User) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	m.users[u.ID] = cloneUser(u)
	return cloneUser(u)
}

// SaveCollaborator inserts or replaces a collaborator thread.
func (m *MemoryStore) SaveCollaborator(c *model.Collaborator) *model.Collaborator {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	cp := *c
	m.collaborators[c.ID] = &cp
	return c
}

// GetUser returns a copy of the user.
func (m *MemoryStore) GetUser(_ context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.Newf(apperr.NotFound, "Cannot find any user with ID: %s", id)
	}
	return cloneUser(u), nil
}

// SetAsset overwrites the reference in slot.
func (m *MemoryStore) SetAsset(_ context.Context, id string, slot model.Slot, ref model.AssetRef) error {
	return m.update(id, func(u *model.User) {
		r := ref
		switch slot {
		case model.SlotProfile:
			u.Profile = &r
		case model.SlotResume:
			u.Resume = &r
		}
	})
}

// AppendPortfolio appends refs in one write.
func (m *MemoryStore) AppendPortfolio(_ context.Context, id string, refs []model.AssetRef) error {
	return m.update(id, func(u *model.User) {
		u.Portfolio = append(u.Portfolio, refs...)
	})
}

// RemovePortfolio drops the listed asset ids from the portfolio.
func (m *MemoryStore) RemovePortfolio(_ context.Context, id string, assetIDs []string) error {
	drop := make(map[string]bool, len(assetIDs))
	for _, a := range assetIDs {
		drop[a] = true
	}
	return m.update(id, func(u *model.User) {
		kept := u.Portfolio[:0]
		for _, ref := range u.Portfolio {
			if !drop[ref.ID] {
				kept = append(kept, ref)
			}
		}
		u.Portfolio = kept
	})
}

// SetDirectories records the user's folders.
func (m *MemoryStore) SetDirectories(_ context.Context, id string, dirs model.Directories) error {
	return m.update(id, func(u *model.User) {
		d := dirs
		u.Directories = &d
	})
}

// SetResumeText stores extracted resume text.
func (m *MemoryStore) SetResumeText(_ context.Context, id, text string) error {
	return m.update(id, func(u *model.User) { u.ResumeText = text })
}

// GetCollaborator returns a copy of the collaborator thread.
func (m *MemoryStore) GetCollaborator(_ context.Context, id string) (*model.Collaborator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collaborators[id]
	if !ok {
		return nil, apperr.Newf(apperr.NotFound, "Cannot find any collaborator with ID: %s", id)
	}
	cp := *c
	return &cp, nil
}

// CreateChat appends a message to its collaborator thread.
func (m *MemoryStore) CreateChat(_ context.Context, msg *model.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collaborators[msg.CollaboratorID]; !ok {
		return apperr.Newf(apperr.NotFound, "Cannot find any collaborator with ID: %s", msg.CollaboratorID)
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	cp := *msg
	cp.Entries = append([]model.ChatEntry(nil), msg.Entries...)
	m.chats[msg.CollaboratorID] = append(m.chats[msg.CollaboratorID], cp)
	m.writes++
	return nil
}

// Chats returns the messages of a thread in insertion order.
func (m *MemoryStore) Chats(collaboratorID string) []model.ChatMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.ChatMessage(nil), m.chats[collaboratorID]...)
}

// Writes counts successful mutating calls since construction.
func (m *MemoryStore) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

func (m *MemoryStore) update(id string, fn func(*model.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return apperr.Newf(apperr.NotFound, "Cannot find any user with ID: %s", id)
	}
	fn(u)
	u.UpdatedAt = time.Now().UTC()
	m.writes++
	return nil
}

func cloneUser(u *model.User) *model.User {
	cp := *u
	if u.Profile != nil {
		p := *u.Profile
		cp.Profile = &p
	}
	if u.Resume != nil {
		r := *u.Resume
		cp.Resume = &r
	}
	if u.Directories != nil {
		d := *u.Directories
		cp.Directories = &d
	}
	cp.Portfolio = append([]model.AssetRef(nil), u.Portfolio...)
	return &cp
}
