package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharsanguruparan/hirevault/internal/model"
)

// AppointmentCounts are the named appointment tabs.
var AppointmentCounts = map[string]Filter{
	"awaiting": {Status: model.StatusPositive},
	"initial":  {Phase: 1, Status: model.StatusProgress},
	"final":    {Phase: 2, Status: model.StatusProgress},
	"briefing": {Phase: 3, Status: model.StatusProgress},
}

// Hired selects appointments that ended in a hire.
var Hired = Filter{Phase: 3, Status: model.StatusProgress, Complete: 1}

// NewAppointment is the input for CreateAppointment.
type NewAppointment struct {
	UserID      string     `json:"userId"`
	JobID       string     `json:"jobId"`
	MeetingLink string     `json:"meetingLink"`
	MeetingTime *time.Time `json:"meetingTime"`
}

// AppointmentUpdate is a partial update; nil fields are left unchanged.
type AppointmentUpdate struct {
	Status         *int       `json:"appointmentStatus"`
	Phase          *int       `json:"phase"`
	Complete       *int       `json:"complete"`
	MeetingLink    *string    `json:"meetingLink"`
	MeetingTime    *time.Time `json:"meetingTime"`
	InitialRemarks *string    `json:"initialRemarks"`
	FinalRemarks   *string    `json:"finalRemarks"`
	HiringRemarks  *string    `json:"hiringRemarks"`
}

// AppointmentRepository wraps the SQL for appointments.
type AppointmentRepository struct {
	pool *pgxpool.Pool
}

// NewAppointmentRepository constructs a repository.
func NewAppointmentRepository(pool *pgxpool.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

const appointmentSelect = `
	SELECT a.id, a.user_id, u.full_name, u.email, u.contact, a.job_id, j.title, j.details,
		a.phase, a.status, a.complete, a.meeting_link, a.meeting_time,
		a.initial_remarks, a.final_remarks, a.hiring_remarks, a.created_at, a.updated_at
	FROM appointments a
	JOIN users u ON u.id = a.user_id
	JOIN jobs j ON j.id = a.job_id`

// ListAppointments returns every appointment, newest first.
func (r *AppointmentRepository) ListAppointments(ctx context.Context) ([]model.Appointment, error) {
	return r.list(ctx, appointmentSelect+` ORDER BY a.created_at DESC`)
}

// ListAppointmentsByUser returns the appointments of one user, oldest first.
func (r *AppointmentRepository) ListAppointmentsByUser(ctx context.Context, userID string) ([]model.Appointment, error) {
	return r.list(ctx, appointmentSelect+` WHERE a.user_id=$1 ORDER BY a.created_at`, userID)
}

// ListHired returns the appointments matching Hired.
func (r *AppointmentRepository) ListHired(ctx context.Context) ([]model.Appointment, error) {
	return r.list(ctx, appointmentSelect+` WHERE a.phase=$1 AND a.status=$2 AND a.complete=$3 ORDER BY a.updated_at DESC`,
		Hired.Phase, Hired.Status, Hired.Complete)
}

// GetAppointment returns one appointment.
func (r *AppointmentRepository) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	a, err := scanAppointment(r.pool.QueryRow(ctx, appointmentSelect+` WHERE a.id=$1`, id))
	if err != nil {
		return nil, mapErr(err, "select appointment", "appointment", id)
	}
	return a, nil
}

// CreateAppointment schedules an appointment in phase 1 with a positive,
// incomplete status.
func (r *AppointmentRepository) CreateAppointment(ctx context.Context, in NewAppointment) (*model.Appointment, error) {
	now := time.Now().UTC()
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointments (id, user_id, job_id, phase, status, complete, meeting_link, meeting_time, created_at, updated_at)
		VALUES ($1,$2,$3,1,$4,0,$5,$6,$7,$7)
	`, id, in.UserID, in.JobID, model.StatusPositive, in.MeetingLink, in.MeetingTime, now)
	if err != nil {
		return nil, mapErr(err, "insert appointment", "appointment", id)
	}
	return r.GetAppointment(ctx, id)
}

// UpdateAppointment applies a partial update and returns the new state.
func (r *AppointmentRepository) UpdateAppointment(ctx context.Context, id string, upd AppointmentUpdate) (*model.Appointment, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments SET
			status = COALESCE($2, status),
			phase = COALESCE($3, phase),
			complete = COALESCE($4, complete),
			meeting_link = COALESCE($5, meeting_link),
			meeting_time = COALESCE($6, meeting_time),
			initial_remarks = COALESCE($7, initial_remarks),
			final_remarks = COALESCE($8, final_remarks),
			hiring_remarks = COALESCE($9, hiring_remarks),
			updated_at = now()
		WHERE id=$1
	`, id, upd.Status, upd.Phase, upd.Complete, upd.MeetingLink, upd.MeetingTime,
		upd.InitialRemarks, upd.FinalRemarks, upd.HiringRemarks)
	if err != nil {
		return nil, mapErr(err, "update appointment", "appointment", id)
	}
	if tag.RowsAffected() == 0 {
		return nil, mapErr(pgx.ErrNoRows, "update appointment", "appointment", id)
	}
	return r.GetAppointment(ctx, id)
}

// DeleteAppointment removes one appointment and returns it.
func (r *AppointmentRepository) DeleteAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	a, err := r.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id=$1`, id); err != nil {
		return nil, mapErr(err, "delete appointment", "appointment", id)
	}
	return a, nil
}

// DeleteAllAppointments empties the table.
func (r *AppointmentRepository) DeleteAllAppointments(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM appointments`)
	return mapErr(err, "delete appointments", "appointment", "")
}

// CountAppointments counts the user's appointments matching f.
func (r *AppointmentRepository) CountAppointments(ctx context.Context, userID string, f Filter) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM appointments
		WHERE user_id=$1 AND ($2 = 0 OR phase=$2) AND status=$3 AND complete=$4
	`, userID, f.Phase, f.Status, f.Complete).Scan(&n)
	return n, mapErr(err, "count appointments", "appointment", "")
}

func (r *AppointmentRepository) list(ctx context.Context, sql string, args ...any) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapErr(err, "list appointments", "appointment", "")
	}
	defer rows.Close()
	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, mapErr(err, "scan appointment", "appointment", "")
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	var (
		a    model.Appointment
		user model.UserSummary
		job  model.JobSummary
	)
	if err := row.Scan(&a.ID, &a.UserID, &user.FullName, &user.Email, &user.Contact, &a.JobID, &job.Title, &job.Details,
		&a.Phase, &a.Status, &a.Complete, &a.MeetingLink, &a.MeetingTime,
		&a.InitialRemarks, &a.FinalRemarks, &a.HiringRemarks, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	user.ID = a.UserID
	job.ID = a.JobID
	a.User = &user
	a.Job = &job
	return &a, nil
}
