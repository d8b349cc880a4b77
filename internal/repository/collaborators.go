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

// CollaboratorRepository wraps the SQL for collaborator threads and the chat
// messages posted into them.
type CollaboratorRepository struct {
	pool *pgxpool.Pool
}

// NewCollaboratorRepository constructs a repository.
func NewCollaboratorRepository(pool *pgxpool.Pool) *CollaboratorRepository {
	return &CollaboratorRepository{pool: pool}
}

const collaboratorSelect = `
	SELECT c.id, c.title, c.job_id, j.title, c.client_id, c.user_ids, c.status, c.created_at, c.updated_at,
		COALESCE((
			SELECT jsonb_agg(jsonb_build_object('_id', u.id, 'fullName', u.full_name, 'email', u.email, 'contact', u.contact))
			FROM users u WHERE u.id = ANY(c.user_ids)
		), '[]'::jsonb)
	FROM collaborators c LEFT JOIN jobs j ON j.id = c.job_id`

// ListCollaborators returns all threads with job and participants populated.
func (r *CollaboratorRepository) ListCollaborators(ctx context.Context) ([]model.Collaborator, error) {
	rows, err := r.pool.Query(ctx, collaboratorSelect+` ORDER BY c.created_at DESC`)
	if err != nil {
		return nil, mapErr(err, "list collaborators", "collaborator", "")
	}
	defer rows.Close()
	var out []model.Collaborator
	for rows.Next() {
		c, err := scanCollaborator(rows)
		if err != nil {
			return nil, mapErr(err, "scan collaborator", "collaborator", "")
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// GetCollaborator returns one thread.
func (r *CollaboratorRepository) GetCollaborator(ctx context.Context, id string) (*model.Collaborator, error) {
	c, err := scanCollaborator(r.pool.QueryRow(ctx, collaboratorSelect+` WHERE c.id=$1`, id))
	if err != nil {
		return nil, mapErr(err, "select collaborator", "collaborator", id)
	}
	return c, nil
}

// CreateCollaborator inserts a thread.
func (r *CollaboratorRepository) CreateCollaborator(ctx context.Context, c *model.Collaborator) error {
	now := time.Now().UTC()
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.UserIDs == nil {
		c.UserIDs = []string{}
	}
	if c.Status == 0 {
		c.Status = model.StatusPositive
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO collaborators (id, title, job_id, client_id, user_ids, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, c.ID, c.Title, nullable(c.JobID), c.ClientID, c.UserIDs, c.Status, c.CreatedAt, c.UpdatedAt)
	return mapErr(err, "insert collaborator", "collaborator", c.ID)
}

// CreateChat stores one message with all its entries.
func (r *CollaboratorRepository) CreateChat(ctx context.Context, msg *model.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	entries, err := jsonArg(msg.Entries)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO chats (id, collaborator_id, sender_id, message, created_at)
		VALUES ($1,$2,$3,$4::jsonb,$5)
	`, msg.ID, msg.CollaboratorID, msg.SenderID, entries, msg.CreatedAt)
	return mapErr(err, "insert chat", "chat", msg.ID)
}

// ListChats returns the messages of a thread in send order.
func (r *CollaboratorRepository) ListChats(ctx context.Context, collaboratorID string) ([]model.ChatMessage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.collaborator_id, m.sender_id, u.full_name, m.message, m.created_at
		FROM chats m JOIN users u ON u.id = m.sender_id
		WHERE m.collaborator_id=$1 ORDER BY m.created_at
	`, collaboratorID)
	if err != nil {
		return nil, mapErr(err, "list chats", "chat", "")
	}
	defer rows.Close()
	var out []model.ChatMessage
	for rows.Next() {
		var (
			msg    model.ChatMessage
			sender model.UserSummary
			raw    []byte
		)
		if err := rows.Scan(&msg.ID, &msg.CollaboratorID, &msg.SenderID, &sender.FullName, &raw, &msg.CreatedAt); err != nil {
			return nil, mapErr(err, "scan chat", "chat", "")
		}
		if err := decodeJSON(raw, &msg.Entries); err != nil {
			return nil, err
		}
		sender.ID = msg.SenderID
		msg.Sender = &sender
		out = append(out, msg)
	}
	return out, rows.Err()
}

func scanCollaborator(row pgx.Row) (*model.Collaborator, error) {
	var (
		c        model.Collaborator
		jobID    sql.NullString
		jobTitle sql.NullString
		users    []byte
	)
	if err := row.Scan(&c.ID, &c.Title, &jobID, &jobTitle, &c.ClientID, &c.UserIDs, &c.Status,
		&c.CreatedAt, &c.UpdatedAt, &users); err != nil {
		return nil, err
	}
	if jobID.Valid {
		c.JobID = jobID.String
		c.Job = &model.JobSummary{ID: jobID.String, Title: jobTitle.String}
	}
	c.Users = []model.UserSummary{}
	if err := decodeJSON(users, &c.Users); err != nil {
		return nil, err
	}
	return &c, nil
}
