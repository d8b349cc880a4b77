// Package visibility computes per-viewer cooldown windows on the job catalog.
package visibility

import (
	"time"

	"github.com/dharsanguruparan/hirevault/internal/model"
)

// Window is how long a job stays disabled after the latest decisive outcome.
const Window = 30 * 24 * time.Hour

type record struct {
	status int
	at     time.Time
}

// Annotate returns one listing per job, in input order. A job is disabled for
// viewerID only when its history holds both a positive and a negative outcome;
// DisabledUntil is then the latest outcome timestamp plus Window, attached only
// while it is still after now. Records of other users are ignored.
func Annotate(viewerID string, jobs []model.Job, applications []model.Application, appointments []model.Appointment, now time.Time) []model.JobListing {
	history := make(map[string][]record)
	for _, a := range applications {
		if a.UserID != viewerID || a.JobID == "" {
			continue
		}
		history[a.JobID] = append(history[a.JobID], record{status: a.Status, at: a.CreatedAt})
	}
	for _, a := range appointments {
		if a.UserID != viewerID || a.JobID == "" {
			continue
		}
		history[a.JobID] = append(history[a.JobID], record{status: a.Status, at: a.CreatedAt})
	}

	out := make([]model.JobListing, len(jobs))
	for i, job := range jobs {
		out[i] = model.JobListing{Job: job}
		until, ok := disabledUntil(history[job.ID])
		if ok && until.After(now) {
			u := until
			out[i].DisabledUntil = &u
		}
	}
	return out
}

func disabledUntil(records []record) (time.Time, bool) {
	var positive, negative bool
	var latest time.Time
	for _, r := range records {
		switch r.status {
		case model.StatusPositive:
			positive = true
		case model.StatusNegative:
			negative = true
		default:
			continue
		}
		if r.at.After(latest) {
			latest = r.at
		}
	}
	if !positive || !negative {
		return time.Time{}, false
	}
	return latest.Add(Window), true
}
