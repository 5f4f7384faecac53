package handoff

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no matching handoff exists.
var ErrNotFound = errors.New("handoff: not found")

// Repository persists handoffs.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates the handoff repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const handoffColumns = `
	id, lead_id, project_id, developer_id, trigger_reason, status, summary,
	thread_id, started_at, completed_at, note, created_at`

func scanHandoff(row pgx.Row) (Handoff, error) {
	var h Handoff
	err := row.Scan(
		&h.ID, &h.LeadID, &h.ProjectID, &h.DeveloperID, &h.Trigger, &h.Status,
		&h.Summary, &h.ThreadID, &h.StartedAt, &h.CompletedAt, &h.Note, &h.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Handoff{}, ErrNotFound
	}
	return h, err
}

// Create inserts a pending handoff. A partial unique index on
// (lead_id, project_id) for non-completed rows makes concurrent initiations
// converge: the conflict clause returns the existing open row's id instead
// of inserting a second one.
func (r *Repository) Create(ctx context.Context, leadID, projectID, developerID uuid.UUID, trigger, summary string) (Handoff, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO handoffs (lead_id, project_id, developer_id, trigger_reason, status, summary)
		VALUES ($1, $2, $3, $4, 'pending', $5)
		ON CONFLICT (lead_id, project_id) WHERE status <> 'completed' DO UPDATE
		SET trigger_reason = handoffs.trigger_reason
		RETURNING id
	`, leadID, projectID, developerID, trigger, summary).Scan(&id)
	if err != nil {
		return Handoff{}, err
	}
	return r.GetByID(ctx, id)
}

// GetByID loads a handoff.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Handoff, error) {
	return scanHandoff(r.pool.QueryRow(ctx, `
		SELECT `+handoffColumns+` FROM handoffs WHERE id = $1
	`, id))
}

// GetOpenByLead returns the lead's pending or active handoff for a project.
func (r *Repository) GetOpenByLead(ctx context.Context, leadID, projectID uuid.UUID) (Handoff, error) {
	return scanHandoff(r.pool.QueryRow(ctx, `
		SELECT `+handoffColumns+`
		FROM handoffs
		WHERE lead_id = $1 AND project_id = $2 AND status <> 'completed'
	`, leadID, projectID))
}

// GetActiveByThread resolves an external thread back to its handoff.
func (r *Repository) GetActiveByThread(ctx context.Context, threadID int64) (Handoff, error) {
	return scanHandoff(r.pool.QueryRow(ctx, `
		SELECT `+handoffColumns+`
		FROM handoffs
		WHERE thread_id = $1 AND status = 'active'
	`, threadID))
}

// MarkActive records the opened thread and transitions pending -> active.
func (r *Repository) MarkActive(ctx context.Context, id uuid.UUID, threadID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE handoffs
		SET status = 'active', thread_id = $2, started_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id, threadID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkCompleted transitions an open handoff to completed with an optional
// note. Completed rows are untouched, making close a safe no-op.
func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID, note string) (bool, error) {
	var noteArg *string
	if note != "" {
		noteArg = &note
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE handoffs
		SET status = 'completed', completed_at = now(), note = $2
		WHERE id = $1 AND status <> 'completed'
	`, id, noteArg)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
