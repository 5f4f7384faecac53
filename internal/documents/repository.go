package documents

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no active document matches.
var ErrNotFound = errors.New("documents: not found")

// Repository persists document metadata.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates the documents repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create stores a document, flagging any previous active document of the
// same category+unit for the project inactive first. Both statements run in
// one transaction so a failure cannot leave the project with zero active
// versions.
func (r *Repository) Create(ctx context.Context, d Document) (Document, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Document{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `
		UPDATE documents
		SET active = false
		WHERE project_id = $1 AND category = $2 AND unit IS NOT DISTINCT FROM $3 AND active
	`, d.ProjectID, d.Category, d.Unit)
	if err != nil {
		return Document{}, err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO documents (project_id, category, unit, filename, mime_type, url, uploaded_by, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, true)
		RETURNING id, created_at
	`, d.ProjectID, d.Category, d.Unit, d.Filename, d.MimeType, d.URL, d.UploadedBy).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return Document{}, err
	}
	d.Active = true

	if err := tx.Commit(ctx); err != nil {
		return Document{}, err
	}
	return d, nil
}

// FindActive returns the active document for a category, preferring an
// exact unit match and falling back to the building-wide version.
func (r *Repository) FindActive(ctx context.Context, projectID uuid.UUID, category string, unit string) (Document, error) {
	var d Document
	err := r.pool.QueryRow(ctx, `
		SELECT id, project_id, category, unit, filename, mime_type, url, uploaded_by, active, created_at
		FROM documents
		WHERE project_id = $1 AND category = $2 AND active
		  AND (unit IS NULL OR upper(unit) = upper($3))
		ORDER BY unit NULLS LAST
		LIMIT 1
	`, projectID, category, unit).Scan(
		&d.ID, &d.ProjectID, &d.Category, &d.Unit, &d.Filename, &d.MimeType,
		&d.URL, &d.UploadedBy, &d.Active, &d.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return d, err
}

// ListByProject returns a project's active documents.
func (r *Repository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]Document, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, category, unit, filename, mime_type, url, uploaded_by, active, created_at
		FROM documents
		WHERE project_id = $1 AND active
		ORDER BY category, unit NULLS FIRST
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.Category, &d.Unit, &d.Filename, &d.MimeType, &d.URL, &d.UploadedBy, &d.Active, &d.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
