package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharsanguruparan/hirevault/internal/model"
)

// JobRepository wraps the SQL for jobs and their categories.
type JobRepository struct {
	pool *pgxpool.Pool
}

// NewJobRepository constructs a repository.
func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

const jobSelect = `
	SELECT j.id, j.title, j.details, j.category_id, c.title, j.created_at, j.updated_at
	FROM jobs j LEFT JOIN categories c ON c.id = j.category_id`

// ListJobs returns all jobs with their category populated, newest first.
func (r *JobRepository) ListJobs(ctx context.Context) ([]model.Job, error) {
	rows, err := r.pool.Query(ctx, jobSelect+` ORDER BY j.created_at DESC`)
	if err != nil {
		return nil, mapErr(err, "list jobs", "job", "")
	}
	defer rows.Close()
	var jobs []model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, mapErr(err, "scan job", "job", "")
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// GetJob returns one job by id.
func (r *JobRepository) GetJob(ctx context.Context, id string) (*model.Job, error) {
	job, err := scanJob(r.pool.QueryRow(ctx, jobSelect+` WHERE j.id=$1`, id))
	if err != nil {
		return nil, mapErr(err, "select job", "job", id)
	}
	return job, nil
}

// CreateJob inserts a job.
func (r *JobRepository) CreateJob(ctx context.Context, job *model.Job) error {
	now := time.Now().UTC()
	job.ID = uuid.NewString()
	job.CreatedAt = now
	job.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO jobs (id, title, details, category_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, job.ID, job.Title, job.Details, nullable(job.CategoryID), job.CreatedAt, job.UpdatedAt)
	return mapErr(err, "insert job", "job", job.ID)
}

// UpdateJob overwrites title, details and category.
func (r *JobRepository) UpdateJob(ctx context.Context, job *model.Job) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE jobs SET title=$2, details=$3, category_id=$4, updated_at=now() WHERE id=$1
	`, job.ID, job.Title, job.Details, nullable(job.CategoryID))
	if err != nil {
		return mapErr(err, "update job", "job", job.ID)
	}
	if tag.RowsAffected() == 0 {
		return mapErr(pgx.ErrNoRows, "update job", "job", job.ID)
	}
	return nil
}

// DeleteJob removes a job and returns what was deleted.
func (r *JobRepository) DeleteJob(ctx context.Context, id string) (*model.Job, error) {
	job, err := r.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM jobs WHERE id=$1`, id); err != nil {
		return nil, mapErr(err, "delete job", "job", id)
	}
	return job, nil
}

// ListCategories returns all categories ordered by title.
func (r *JobRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, title FROM categories ORDER BY title`)
	if err != nil {
		return nil, mapErr(err, "list categories", "category", "")
	}
	defer rows.Close()
	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Title); err != nil {
			return nil, mapErr(err, "scan category", "category", "")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCategory inserts a category. Titles are unique.
func (r *JobRepository) CreateCategory(ctx context.Context, c *model.Category) error {
	c.ID = uuid.NewString()
	_, err := r.pool.Exec(ctx, `INSERT INTO categories (id, title) VALUES ($1,$2)`, c.ID, c.Title)
	return mapErr(err, "insert category", "category", c.ID)
}

func scanJob(row pgx.Row) (*model.Job, error) {
	var (
		job           model.Job
		categoryID    sql.NullString
		categoryTitle sql.NullString
	)
	if err := row.Scan(&job.ID, &job.Title, &job.Details, &categoryID, &categoryTitle, &job.CreatedAt, &job.UpdatedAt); err != nil {
		return nil, err
	}
	if categoryID.Valid {
		job.CategoryID = categoryID.String
		job.Category = &model.Category{ID: categoryID.String, Title: categoryTitle.String}
	}
	return &job, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
