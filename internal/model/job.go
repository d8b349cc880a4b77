package model

import "time"

// Outcome statuses shared by applications and appointments. Values of 2 and
// above are in-progress phases.
const (
	StatusNegative = -1
	StatusPositive = 1
	StatusProgress = 2
)

// Category groups jobs.
type Category struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
}

// Job is a posted vacancy. CategoryID is the stored reference and Category the
// populated projection.
type Job struct {
	ID         string    `json:"_id"`
	Title      string    `json:"title"`
	Details    string    `json:"details"`
	CategoryID string    `json:"-"`
	Category   *Category `json:"category,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// JobListing is a job as seen by one viewer. DisabledUntil is computed at
// read time and never persisted.
type JobListing struct {
	Job
	DisabledUntil *time.Time `json:"disabledUntil,omitempty"`
}

// JobSummary is the populated projection of a job embedded in other records.
type JobSummary struct {
	ID      string `json:"_id"`
	Title   string `json:"title"`
	Details string `json:"details,omitempty"`
}

// Application links a user to a job they applied for.
type Application struct {
	ID        string       `json:"_id"`
	UserID    string       `json:"-"`
	JobID     string       `json:"-"`
	User      *UserSummary `json:"user,omitempty"`
	Job       *JobSummary  `json:"job,omitempty"`
	Phase     int          `json:"phase"`
	Status    int          `json:"applicationStatus"`
	Complete  int          `json:"complete"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Appointment is an interview scheduled for a user against a job.
type Appointment struct {
	ID             string       `json:"_id"`
	UserID         string       `json:"-"`
	JobID          string       `json:"-"`
	User           *UserSummary `json:"user,omitempty"`
	Job            *JobSummary  `json:"job,omitempty"`
	Phase          int          `json:"phase"`
	Status         int          `json:"appointmentStatus"`
	Complete       int          `json:"complete"`
	MeetingLink    string       `json:"meetingLink"`
	MeetingTime    *time.Time   `json:"meetingTime,omitempty"`
	InitialRemarks string       `json:"initialRemarks"`
	FinalRemarks   string       `json:"finalRemarks"`
	HiringRemarks  string       `json:"hiringRemarks"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}
