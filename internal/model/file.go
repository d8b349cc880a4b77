// Package model contains simple struct definitions shared across packages.
package model

// FileCategory is the semantic bucket a content type falls into.
type FileCategory string

const (
	CategoryImage    FileCategory = "image"
	CategoryDocument FileCategory = "document"
	CategoryMusic    FileCategory = "music"
	CategoryVideo    FileCategory = "video"
	CategoryUnknown  FileCategory = "unknown"
)

// Slot names a single-asset attachment point on a user.
type Slot string

const (
	SlotProfile Slot = "profile"
	SlotResume  Slot = "resume"
)

// Valid reports whether s is one of the known single-asset slots.
func (s Slot) Valid() bool {
	return s == SlotProfile || s == SlotResume
}

// AssetRef points at an object in the asset store. It is embedded in the
// owning record and never stored on its own.
type AssetRef struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	MimeType  string       `json:"mimeType"`
	FileType  FileCategory `json:"fileType"`
	Filename  string       `json:"filename"`
	Extension string       `json:"extension"`
}

// Directories are the asset store folders assigned to a user at registration.
type Directories struct {
	Root      string `json:"root"`
	Profile   string `json:"profile"`
	Resume    string `json:"resume"`
	Portfolio string `json:"portfolio"`
}

// For returns the folder that backs a slot, or "" when unassigned.
func (d *Directories) For(slot Slot) string {
	if d == nil {
		return ""
	}
	switch slot {
	case SlotProfile:
		return d.Profile
	case SlotResume:
		return d.Resume
	}
	return ""
}
