package model

import "time"

// Position is the user's role on the platform.
type Position int

const (
	PositionAdmin     Position = 1
	PositionClient    Position = 2
	PositionApplicant Position = 3
)

// User is an account together with its asset references.
type User struct {
	ID                string       `json:"_id"`
	FullName          string       `json:"fullName"`
	Contact           string       `json:"contact"`
	Email             string       `json:"email"`
	Username          string       `json:"username"`
	PasswordHash      string       `json:"-"`
	Position          Position     `json:"position"`
	ApplicationStatus int          `json:"applicationStatus"`
	Directories       *Directories `json:"directories,omitempty"`
	Profile           *AssetRef    `json:"profile,omitempty"`
	Resume            *AssetRef    `json:"resume,omitempty"`
	Portfolio         []AssetRef   `json:"portfolio"`
	ResumeText        string       `json:"-"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// Asset returns the reference currently held in slot.
func (u *User) Asset(slot Slot) *AssetRef {
	switch slot {
	case SlotProfile:
		return u.Profile
	case SlotResume:
		return u.Resume
	}
	return nil
}

// UserSummary is the populated projection of a user embedded in other records.
type UserSummary struct {
	ID       string `json:"_id"`
	FullName string `json:"fullName"`
	Email    string `json:"email,omitempty"`
	Contact  string `json:"contact,omitempty"`
}

// Collaborator groups a job, a client and participant users into a chat thread.
type Collaborator struct {
	ID        string        `json:"_id"`
	Title     string        `json:"title"`
	JobID     string        `json:"-"`
	ClientID  string        `json:"client"`
	UserIDs   []string      `json:"-"`
	Job       *JobSummary   `json:"job,omitempty"`
	Users     []UserSummary `json:"users"`
	Status    int           `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}
