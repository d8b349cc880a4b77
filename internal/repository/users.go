package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharsanguruparan/hirevault/internal/apperr"
	"github.com/dharsanguruparan/hirevault/internal/model"
)

// UserRepository wraps the SQL for users and their embedded asset references.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository constructs a repository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, full_name, contact, email, username, password_hash, position, application_status,
	directories, profile, resume, portfolio, resume_text, created_at, updated_at`

// CreateUser inserts a user. Duplicate email or username is a DuplicateField error.
func (r *UserRepository) CreateUser(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Position == 0 {
		u.Position = model.PositionApplicant
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Portfolio == nil {
		u.Portfolio = []model.AssetRef{}
	}
	portfolio, err := jsonArg(u.Portfolio)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO users (id, full_name, contact, email, username, password_hash, position, application_status, portfolio, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9::jsonb,$10,$11)
	`, u.ID, u.FullName, u.Contact, u.Email, u.Username, u.PasswordHash, u.Position, u.ApplicationStatus, portfolio, u.CreatedAt, u.UpdatedAt)
	return mapErr(err, "insert user", "user", u.ID)
}

// GetUser returns a user by id.
func (r *UserRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, mapErr(err, "select user", "user", id)
	}
	return u, nil
}

// SetAsset overwrites the profile or resume reference.
func (r *UserRepository) SetAsset(ctx context.Context, id string, slot model.Slot, ref model.AssetRef) error {
	var column string
	switch slot {
	case model.SlotProfile:
		column = "profile"
	case model.SlotResume:
		column = "resume"
	default:
		return apperr.Newf(apperr.ValidationFailed, "unknown slot %q", slot)
	}
	arg, err := jsonArg(ref)
	if err != nil {
		return err
	}
	return r.exec(ctx, id, "update "+column,
		`UPDATE users SET `+column+`=$2::jsonb, updated_at=now() WHERE id=$1`, id, arg)
}

// AppendPortfolio appends refs with a single UPDATE so concurrent appends
// never overwrite each other.
func (r *UserRepository) AppendPortfolio(ctx context.Context, id string, refs []model.AssetRef) error {
	arg, err := jsonArg(refs)
	if err != nil {
		return err
	}
	return r.exec(ctx, id, "append portfolio",
		`UPDATE users SET portfolio = portfolio || $2::jsonb, updated_at=now() WHERE id=$1`, id, arg)
}

// RemovePortfolio drops the portfolio entries whose id is in assetIDs.
func (r *UserRepository) RemovePortfolio(ctx context.Context, id string, assetIDs []string) error {
	return r.exec(ctx, id, "remove portfolio", `
		UPDATE users SET portfolio = COALESCE((
			SELECT jsonb_agg(entry ORDER BY ord)
			FROM jsonb_array_elements(portfolio) WITH ORDINALITY AS t(entry, ord)
			WHERE NOT (entry->>'id' = ANY($2))
		), '[]'::jsonb), updated_at=now()
		WHERE id=$1`, id, assetIDs)
}

// SetDirectories records the user's asset folders.
func (r *UserRepository) SetDirectories(ctx context.Context, id string, dirs model.Directories) error {
	arg, err := jsonArg(dirs)
	if err != nil {
		return err
	}
	return r.exec(ctx, id, "update directories",
		`UPDATE users SET directories=$2::jsonb, updated_at=now() WHERE id=$1`, id, arg)
}

// SetResumeText stores text extracted from the current resume.
func (r *UserRepository) SetResumeText(ctx context.Context, id, text string) error {
	return r.exec(ctx, id, "update resume text",
		`UPDATE users SET resume_text=$2, updated_at=now() WHERE id=$1`, id, text)
}

// ListUsers returns every user, newest first.
func (r *UserRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, mapErr(err, "list users", "user", "")
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, mapErr(err, "scan user", "user", "")
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *UserRepository) exec(ctx context.Context, id, op, sql string, args ...any) error {
	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return mapErr(err, op, "user", id)
	}
	if tag.RowsAffected() == 0 {
		return mapErr(pgx.ErrNoRows, op, "user", id)
	}
	return nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u                                   model.User
		dirs, profile, resume, portfolioRaw []byte
	)
	if err := row.Scan(&u.ID, &u.FullName, &u.Contact, &u.Email, &u.Username, &u.PasswordHash, &u.Position,
		&u.ApplicationStatus, &dirs, &profile, &resume, &portfolioRaw, &u.ResumeText, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if len(dirs) > 0 {
		u.Directories = &model.Directories{}
		if err := decodeJSON(dirs, u.Directories); err != nil {
			return nil, err
		}
	}
	if len(profile) > 0 {
		u.Profile = &model.AssetRef{}
		if err := decodeJSON(profile, u.Profile); err != nil {
			return nil, err
		}
	}
	if len(resume) > 0 {
		u.Resume = &model.AssetRef{}
		if err := decodeJSON(resume, u.Resume); err != nil {
			return nil, err
		}
	}
	u.Portfolio = []model.AssetRef{}
	if err := decodeJSON(portfolioRaw, &u.Portfolio); err != nil {
		return nil, err
	}
	return &u, nil
}
