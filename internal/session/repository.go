package session

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session: not found")

// Repository persists sessions and conversation history.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates the session repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// getOrCreateLead inserts the lead row if the phone has never written to the
// project before. The unique constraint on (project_id, phone) plus
// ON CONFLICT DO NOTHING makes concurrent first messages converge on a
// single row; the follow-up SELECT reads whichever insert won.
func (r *Repository) getOrCreateLead(ctx context.Context, developerID, projectID uuid.UUID, phone string) (uuid.UUID, bool, error) {
	var leadID uuid.UUID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO leads (developer_id, project_id, phone)
		VALUES ($1, $2, $3)
		ON CONFLICT (project_id, phone) DO NOTHING
		RETURNING id
	`, developerID, projectID, phone).Scan(&leadID)
	if err == nil {
		return leadID, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, err
	}

	err = r.pool.QueryRow(ctx, `
		SELECT id FROM leads WHERE project_id = $1 AND phone = $2
	`, projectID, phone).Scan(&leadID)
	return leadID, false, err
}

// GetOrCreate returns the session for a phone within a project, creating the
// session and its backing lead on first contact. The second return value
// reports whether a new lead was created by this call.
func (r *Repository) GetOrCreate(ctx context.Context, developerID, projectID uuid.UUID, phone string) (Session, bool, error) {
	leadID, leadCreated, err := r.getOrCreateLead(ctx, developerID, projectID, phone)
	if err != nil {
		return Session{}, false, err
	}

	var s Session
	err = r.pool.QueryRow(ctx, `
		INSERT INTO sessions (lead_id, developer_id, project_id, phone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (lead_id) DO UPDATE SET last_activity_at = now()
		RETURNING id, lead_id, developer_id, project_id, phone, last_activity_at, created_at
	`, leadID, developerID, projectID, phone).Scan(
		&s.ID, &s.LeadID, &s.DeveloperID, &s.ProjectID, &s.Phone,
		&s.LastActivityAt, &s.CreatedAt,
	)
	return s, leadCreated, err
}

// GetByLead returns the lead's session, for flows that start from a lead id
// rather than an inbound message.
func (r *Repository) GetByLead(ctx context.Context, leadID uuid.UUID) (Session, error) {
	var s Session
	err := r.pool.QueryRow(ctx, `
		SELECT id, lead_id, developer_id, project_id, phone, last_activity_at, created_at
		FROM sessions
		WHERE lead_id = $1
	`, leadID).Scan(
		&s.ID, &s.LeadID, &s.DeveloperID, &s.ProjectID, &s.Phone,
		&s.LastActivityAt, &s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	return s, err
}

// AppendMessage stores one conversation turn.
func (r *Repository) AppendMessage(ctx context.Context, sessionID uuid.UUID, role, senderType, content string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO conversation_messages (session_id, role, sender_type, content)
		VALUES ($1, $2, $3, $4)
	`, sessionID, role, senderType, content)
	return err
}

// History returns the most recent messages in chronological order.
func (r *Repository) History(ctx context.Context, sessionID uuid.UUID, limit int) ([]HistoryMessage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, role, sender_type, content, created_at
		FROM (
			SELECT id, session_id, role, sender_type, content, created_at
			FROM conversation_messages
			WHERE session_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC
	`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []HistoryMessage
	for rows.Next() {
		var m HistoryMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.SenderType, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// TouchLeadActivity records the lead's latest inbound message time, used by
// nurturing to skip follow-ups for leads that wrote again.
func (r *Repository) TouchLeadActivity(ctx context.Context, leadID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE leads SET last_message_at = now() WHERE id = $1
	`, leadID)
	return err
}
