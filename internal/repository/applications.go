package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharsanguruparan/hirevault/internal/model"
)

// Filter selects records of one user by progress fields. A zero Phase matches
// any phase.
type Filter struct {
	Phase    int
	Status   int
	Complete int
}

// ApplicationCounts are the named application tabs.
var ApplicationCounts = map[string]Filter{
	"pending":  {Phase: 1, Status: model.StatusPositive},
	"progress": {Phase: 1, Status: model.StatusProgress},
}

// ApplicationUpdate is a partial update; nil fields are left unchanged.
type ApplicationUpdate struct {
	Status   *int `json:"applicationStatus"`
	Phase    *int `json:"phase"`
	Complete *int `json:"complete"`
}

// ApplicationRepository wraps the SQL for applications.
type ApplicationRepository struct {
	pool *pgxpool.Pool
}

// NewApplicationRepository constructs a repository.
func NewApplicationRepository(pool *pgxpool.Pool) *ApplicationRepository {
	return &ApplicationRepository{pool: pool}
}

const applicationSelect = `
	SELECT a.id, a.user_id, u.full_name, u.email, u.contact, a.job_id, j.title, j.details,
		a.phase, a.status, a.complete, a.created_at, a.updated_at
	FROM applications a
	JOIN users u ON u.id = a.user_id
	JOIN jobs j ON j.id = a.job_id`

// ListApplications returns every application, newest first.
func (r *ApplicationRepository) ListApplications(ctx context.Context) ([]model.Application, error) {
	return r.list(ctx, applicationSelect+` ORDER BY a.created_at DESC`)
}

// ListApplicationsByUser returns the applications of one user, oldest first.
func (r *ApplicationRepository) ListApplicationsByUser(ctx context.Context, userID string) ([]model.Application, error) {
	return r.list(ctx, applicationSelect+` WHERE a.user_id=$1 ORDER BY a.created_at`, userID)
}

// GetApplication returns one application.
func (r *ApplicationRepository) GetApplication(ctx context.Context, id string) (*model.Application, error) {
	a, err := scanApplication(r.pool.QueryRow(ctx, applicationSelect+` WHERE a.id=$1`, id))
	if err != nil {
		return nil, mapErr(err, "select application", "application", id)
	}
	return a, nil
}

// CreateApplication records a new application in phase 1 with a positive,
// incomplete status.
func (r *ApplicationRepository) CreateApplication(ctx context.Context, userID, jobID string) (*model.Application, error) {
	now := time.Now().UTC()
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO applications (id, user_id, job_id, phase, status, complete, created_at, updated_at)
		VALUES ($1,$2,$3,1,$4,0,$5,$5)
	`, id, userID, jobID, model.StatusPositive, now)
	if err != nil {
		return nil, mapErr(err, "insert application", "application", id)
	}
	return r.GetApplication(ctx, id)
}

// UpdateApplication applies a partial update and returns the new state.
func (r *ApplicationRepository) UpdateApplication(ctx context.Context, id string, upd ApplicationUpdate) (*model.Application, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE applications SET
			status = COALESCE($2, status),
			phase = COALESCE($3, phase),
			complete = COALESCE($4, complete),
			updated_at = now()
		WHERE id=$1
	`, id, upd.Status, upd.Phase, upd.Complete)
	if err != nil {
		return nil, mapErr(err, "update application", "application", id)
	}
	if tag.RowsAffected() == 0 {
		return nil, mapErr(pgx.ErrNoRows, "update application", "application", id)
	}
	return r.GetApplication(ctx, id)
}

// DeleteApplication removes one application and returns it.
func (r *ApplicationRepository) DeleteApplication(ctx context.Context, id string) (*model.Application, error) {
	a, err := r.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM applications WHERE id=$1`, id); err != nil {
		return nil, mapErr(err, "delete application", "application", id)
	}
	return a, nil
}

// DeleteAllApplications empties the table.
func (r *ApplicationRepository) DeleteAllApplications(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM applications`)
	return mapErr(err, "delete applications", "application", "")
}

// CountApplications counts the user's applications matching f.
func (r *ApplicationRepository) CountApplications(ctx context.Context, userID string, f Filter) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM applications
		WHERE user_id=$1 AND ($2 = 0 OR phase=$2) AND status=$3 AND complete=$4
	`, userID, f.Phase, f.Status, f.Complete).Scan(&n)
	return n, mapErr(err, "count applications", "application", "")
}

func (r *ApplicationRepository) list(ctx context.Context, sql string, args ...any) ([]model.Application, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapErr(err, "list applications", "application", "")
	}
	defer rows.Close()
	var out []model.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, mapErr(err, "scan application", "application", "")
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scanApplication(row pgx.Row) (*model.Application, error) {
	var (
		a    model.Application
		user model.UserSummary
		job  model.JobSummary
	)
	if err := row.Scan(&a.ID, &a.UserID, &user.FullName, &user.Email, &user.Contact, &a.JobID, &job.Title, &job.Details,
		&a.Phase, &a.Status, &a.Complete, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	user.ID = a.UserID
	job.ID = a.JobID
	a.User = &user
	a.Job = &job
	return &a, nil
}
