package model

import "time"

// EntryType distinguishes text and file chat entries.
type EntryType string

const (
	EntryText EntryType = "text"
	EntryFile EntryType = "file"
)

// ChatEntry is one item of a chat message. For file entries Content holds
// the asset identifier.
type ChatEntry struct {
	Type      EntryType    `json:"type"`
	Content   string       `json:"content"`
	FileType  FileCategory `json:"fileType,omitempty"`
	Filename  string       `json:"filename,omitempty"`
	Extension string       `json:"extension,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// ChatMessage is one send into a collaborator thread; a multi-file send is a
// single message with one entry per file.
type ChatMessage struct {
	ID             string       `json:"_id"`
	SenderID       string       `json:"-"`
	Sender         *UserSummary `json:"sender,omitempty"`
	CollaboratorID string       `json:"collaborator"`
	Entries        []ChatEntry  `json:"message"`
	CreatedAt      time.Time    `json:"createdAt"`
}
