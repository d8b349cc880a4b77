package visibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/hirevault/internal/model"
)

const viewer = "viewer-1"

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func jobs(ids ...string) []model.Job {
	out := make([]model.Job, len(ids))
	for i, id := range ids {
		out[i] = model.Job{ID: id, Title: "job " + id}
	}
	return out
}

func app(job string, status int, at time.Time) model.Application {
	return model.Application{UserID: viewer, JobID: job, Status: status, CreatedAt: at}
}

func appt(job string, status int, at time.Time) model.Appointment {
	return model.Appointment{UserID: viewer, JobID: job, Status: status, CreatedAt: at}
}

func TestOnlyPositiveOrOnlyNegativeNeverSuppressed(t *testing.T) {
	apps := []model.Application{
		app("pos", model.StatusPositive, t0),
		app("neg", model.StatusNegative, t0),
	}
	appts := []model.Appointment{
		appt("pos", model.StatusPositive, t0),
		appt("neg", model.StatusNegative, t0),
	}
	out := Annotate(viewer, jobs("pos", "neg"), apps, appts, t0.Add(time.Hour))
	for _, l := range out {
		assert.Nil(t, l.DisabledUntil, l.ID)
	}
}

func TestInProgressStatusesDoNotTrigger(t *testing.T) {
	apps := []model.Application{app("j", model.StatusPositive, t0), app("j", 2, t0), app("j", 3, t0)}
	out := Annotate(viewer, jobs("j"), apps, nil, t0.Add(time.Hour))
	assert.Nil(t, out[0].DisabledUntil)
}

func TestBothOutcomesSuppressUntilWindowEnds(t *testing.T) {
	apps := []model.Application{app("j", model.StatusPositive, t0)}
	appts := []model.Appointment{appt("j", model.StatusNegative, t0.Add(24*time.Hour))}
	// A later in-progress record must not move the window.
	apps = append(apps, app("j", 2, t0.Add(10*24*time.Hour)))
	want := t0.Add(24*time.Hour + Window)

	during := Annotate(viewer, jobs("j"), apps, appts, t0.Add(24*time.Hour))
	require.NotNil(t, during[0].DisabledUntil)
	assert.True(t, want.Equal(*during[0].DisabledUntil))

	justBefore := Annotate(viewer, jobs("j"), apps, appts, want.Add(-time.Nanosecond))
	assert.NotNil(t, justBefore[0].DisabledUntil)

	atBoundary := Annotate(viewer, jobs("j"), apps, appts, want)
	assert.Nil(t, atBoundary[0].DisabledUntil)

	after := Annotate(viewer, jobs("j"), apps, appts, want.Add(time.Second))
	assert.Nil(t, after[0].DisabledUntil)
}

func TestApplyThenRejectScenario(t *testing.T) {
	apps := []model.Application{
		app("J", model.StatusPositive, t0),
		app("J", model.StatusNegative, t0.AddDate(0, 0, 1)),
	}
	want := t0.AddDate(0, 0, 1).Add(30 * 24 * time.Hour)

	for _, now := range []time.Time{t0.AddDate(0, 0, 1), t0.AddDate(0, 0, 15), want.Add(-time.Minute)} {
		out := Annotate(viewer, jobs("J"), apps, nil, now)
		require.NotNil(t, out[0].DisabledUntil, now.String())
		assert.True(t, want.Equal(*out[0].DisabledUntil))
	}
	out := Annotate(viewer, jobs("J"), apps, nil, want.Add(time.Minute))
	assert.Nil(t, out[0].DisabledUntil)
	assert.Equal(t, "J", out[0].ID)
}

func TestNoHistoryPassesThroughInOrder(t *testing.T) {
	in := jobs("c", "a", "b", "a2")
	in[1].Details = "kept"
	apps := []model.Application{app("b", model.StatusPositive, t0), app("b", model.StatusNegative, t0)}
	out := Annotate(viewer, in, apps, nil, t0)

	require.Len(t, out, len(in))
	for i := range in {
		assert.Equal(t, in[i], out[i].Job)
	}
	assert.Nil(t, out[0].DisabledUntil)
	assert.NotNil(t, out[2].DisabledUntil)
}

func TestOtherViewersRecordsIgnored(t *testing.T) {
	apps := []model.Application{
		{UserID: "someone-else", JobID: "j", Status: model.StatusPositive, CreatedAt: t0},
		{UserID: "someone-else", JobID: "j", Status: model.StatusNegative, CreatedAt: t0},
	}
	out := Annotate(viewer, jobs("j"), apps, nil, t0)
	assert.Nil(t, out[0].DisabledUntil)
}

func TestEmptyCatalog(t *testing.T) {
	out := Annotate(viewer, nil, []model.Application{app("j", 1, t0)}, nil, t0)
	assert.Empty(t, out)
}
