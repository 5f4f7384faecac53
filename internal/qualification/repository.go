package qualification

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a lead does not exist.
var ErrNotFound = errors.New("qualification: lead not found")

// Repository persists leads and their qualification state.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates the qualification repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `
	id, developer_id, project_id, phone, name, intent, financing, timeline,
	budget_usd, bedrooms, location_pref, score, band, last_message_at, created_at`

func scanLead(row pgx.Row) (Lead, error) {
	var l Lead
	err := row.Scan(
		&l.ID, &l.DeveloperID, &l.ProjectID, &l.Phone,
		&l.Qualification.Name, &l.Qualification.Intent,
		&l.Qualification.Financing, &l.Qualification.Timeline,
		&l.Qualification.BudgetUSD, &l.Qualification.Bedrooms,
		&l.Qualification.LocationPref,
		&l.Score, &l.Band, &l.LastMessageAt, &l.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return l, err
}

// GetLead loads a lead by id.
func (r *Repository) GetLead(ctx context.Context, id uuid.UUID) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE id = $1
	`, id))
}

// GetLeadByPhone finds a lead by phone suffix within a project, used by the
// get_lead_detail staff action where staff quote partial numbers.
func (r *Repository) GetLeadByPhone(ctx context.Context, projectID uuid.UUID, phoneSuffix string) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE project_id = $1 AND phone LIKE '%' || $2
		ORDER BY created_at DESC
		LIMIT 1
	`, projectID, phoneSuffix))
}

// UpdateQualification writes the merged extraction and recomputed score.
func (r *Repository) UpdateQualification(ctx context.Context, id uuid.UUID, e Extraction, score int, band string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET name = $2, intent = $3, financing = $4, timeline = $5,
		    budget_usd = $6, bedrooms = $7, location_pref = $8,
		    score = $9, band = $10
		WHERE id = $1
	`, id, e.Name, e.Intent, e.Financing, e.Timeline, e.BudgetUSD, e.Bedrooms, e.LocationPref, score, band)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListLeads returns a developer's leads, optionally filtered by band,
// newest first.
func (r *Repository) ListLeads(ctx context.Context, developerID uuid.UUID, band string) ([]Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE developer_id = $1`
	args := []any{developerID}
	if band != "" {
		query += ` AND band = $2`
		args = append(args, band)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}
