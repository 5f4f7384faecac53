package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned for missing developers, projects, units or contacts.
var ErrNotFound = errors.New("identity: not found")

// Repository provides tenant persistence over pgx.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates the identity repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const projectColumns = `
	id, developer_id, name, slug, address, neighborhood, city, description,
	amenities, total_floors, total_units, construction_start,
	estimated_delivery, delivery_status, payment_info, whatsapp_number,
	status, created_at`

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	err := row.Scan(
		&p.ID, &p.DeveloperID, &p.Name, &p.Slug, &p.Address, &p.Neighborhood,
		&p.City, &p.Description, &p.Amenities, &p.TotalFloors, &p.TotalUnits,
		&p.ConstructionStart, &p.EstimatedDelivery, &p.DeliveryStatus,
		&p.PaymentInfo, &p.WhatsAppNumber, &p.Status, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Project{}, ErrNotFound
	}
	return p, err
}

// GetDeveloperByID loads a developer.
func (r *Repository) GetDeveloperByID(ctx context.Context, id uuid.UUID) (Developer, error) {
	var d Developer
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, alert_email, created_at
		FROM developers WHERE id = $1
	`, id).Scan(&d.ID, &d.Name, &d.AlertEmail, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Developer{}, ErrNotFound
	}
	return d, err
}

// CreateDeveloper inserts a developer.
func (r *Repository) CreateDeveloper(ctx context.Context, name string, alertEmail *string) (Developer, error) {
	var d Developer
	err := r.pool.QueryRow(ctx, `
		INSERT INTO developers (name, alert_email)
		VALUES ($1, $2)
		RETURNING id, name, alert_email, created_at
	`, name, alertEmail).Scan(&d.ID, &d.Name, &d.AlertEmail, &d.CreatedAt)
	return d, err
}

// GetProjectByChannel finds the active project bound to a WhatsApp
// channel identifier.
func (r *Repository) GetProjectByChannel(ctx context.Context, channelID string) (Project, error) {
	return scanProject(r.pool.QueryRow(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE whatsapp_number = $1 AND status = 'active'
	`, channelID))
}

// GetProjectByID loads a project by id.
func (r *Repository) GetProjectByID(ctx context.Context, id uuid.UUID) (Project, error) {
	return scanProject(r.pool.QueryRow(ctx, `
		SELECT `+projectColumns+`
		FROM projects WHERE id = $1
	`, id))
}

// GetProjectBySlug loads an active project by slug within a developer.
func (r *Repository) GetProjectBySlug(ctx context.Context, developerID uuid.UUID, slug string) (Project, error) {
	return scanProject(r.pool.QueryRow(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE developer_id = $1 AND slug = $2 AND status = 'active'
	`, developerID, slug))
}

// ListActiveProjects returns a developer's active projects, stable order.
func (r *Repository) ListActiveProjects(ctx context.Context, developerID uuid.UUID) ([]Project, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE developer_id = $1 AND status = 'active'
		ORDER BY name ASC
	`, developerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// SlugExists reports whether any project already uses the slug,
// case-insensitively.
func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM projects WHERE lower(slug) = lower($1))
	`, slug).Scan(&exists)
	return exists, err
}

// CreateProjectParams describes a new project row.
type CreateProjectParams struct {
	DeveloperID       uuid.UUID
	Name              string
	Slug              string
	Address           *string
	Neighborhood      *string
	City              string
	Description       *string
	Amenities         []string
	TotalFloors       *int
	TotalUnits        *int
	ConstructionStart *time.Time
	EstimatedDelivery *time.Time
	DeliveryStatus    string
	PaymentInfo       *string
}

// CreateProject inserts an active project.
func (r *Repository) CreateProject(ctx context.Context, params CreateProjectParams) (Project, error) {
	return scanProject(r.pool.QueryRow(ctx, `
		INSERT INTO projects (
			developer_id, name, slug, address, neighborhood, city, description,
			amenities, total_floors, total_units, construction_start,
			estimated_delivery, delivery_status, payment_info, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 'active')
		RETURNING `+projectColumns,
		params.DeveloperID, params.Name, params.Slug, params.Address,
		params.Neighborhood, params.City, params.Description, params.Amenities,
		params.TotalFloors, params.TotalUnits, params.ConstructionStart,
		params.EstimatedDelivery, params.DeliveryStatus, params.PaymentInfo,
	))
}

// CreateUnitParams describes a new unit row.
type CreateUnitParams struct {
	Identifier string
	Floor      *int
	Bedrooms   *int
	AreaM2     *float64
	PriceUSD   *float64
	Status     string
}

// CreateUnits bulk-inserts units for a project and returns the count created.
func (r *Repository) CreateUnits(ctx context.Context, projectID uuid.UUID, units []CreateUnitParams) (int, error) {
	batch := &pgx.Batch{}
	for _, u := range units {
		batch.Queue(`
			INSERT INTO units (project_id, identifier, floor, bedrooms, area_m2, price_usd, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, projectID, u.Identifier, u.Floor, u.Bedrooms, u.AreaM2, u.PriceUSD, u.Status)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer func() {
		_ = results.Close()
	}()

	created := 0
	for range units {
		if _, err := results.Exec(); err != nil {
			return created, fmt.Errorf("insert unit: %w", err)
		}
		created++
	}
	return created, nil
}

// ListUnits returns a project's units ordered by identifier.
func (r *Repository) ListUnits(ctx context.Context, projectID uuid.UUID) ([]Unit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, identifier, floor, bedrooms, area_m2, price_usd, status, note
		FROM units
		WHERE project_id = $1
		ORDER BY identifier ASC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []Unit
	for rows.Next() {
		var u Unit
		if err := rows.Scan(&u.ID, &u.ProjectID, &u.Identifier, &u.Floor, &u.Bedrooms, &u.AreaM2, &u.PriceUSD, &u.Status, &u.Note); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// GetUnit finds a unit by identifier, case-insensitively.
func (r *Repository) GetUnit(ctx context.Context, projectID uuid.UUID, identifier string) (Unit, error) {
	var u Unit
	err := r.pool.QueryRow(ctx, `
		SELECT id, project_id, identifier, floor, bedrooms, area_m2, price_usd, status, note
		FROM units
		WHERE project_id = $1 AND upper(identifier) = upper($2)
	`, projectID, strings.TrimSpace(identifier)).Scan(
		&u.ID, &u.ProjectID, &u.Identifier, &u.Floor, &u.Bedrooms, &u.AreaM2, &u.PriceUSD, &u.Status, &u.Note,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Unit{}, ErrNotFound
	}
	return u, err
}

// UpdateUnitStatus sets a unit's status.
func (r *Repository) UpdateUnitStatus(ctx context.Context, unitID uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE units SET status = $2 WHERE id = $1`, unitID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateUnitPrice sets a unit's USD price.
func (r *Repository) UpdateUnitPrice(ctx context.Context, unitID uuid.UUID, priceUSD float64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE units SET price_usd = $2 WHERE id = $1`, unitID, priceUSD)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendUnitNote appends a staff note to a unit, newline-separated.
func (r *Repository) AppendUnitNote(ctx context.Context, unitID uuid.UUID, note string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE units
		SET note = CASE WHEN note IS NULL OR note = '' THEN $2 ELSE note || E'\n' || $2 END
		WHERE id = $1
	`, unitID, note)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ProjectUpdates lists the mutable project fields for the update_project
// staff action. Nil fields are left untouched.
type ProjectUpdates struct {
	Address           *string
	Neighborhood      *string
	City              *string
	Description       *string
	Amenities         []string
	TotalFloors       *int
	TotalUnits        *int
	PaymentInfo       *string
	DeliveryStatus    *string
	EstimatedDelivery *time.Time
}

// UpdateProject applies non-nil field updates to a project.
func (r *Repository) UpdateProject(ctx context.Context, projectID uuid.UUID, updates ProjectUpdates) error {
	sets := make([]string, 0, 10)
	args := []any{projectID}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if updates.Address != nil {
		add("address", *updates.Address)
	}
	if updates.Neighborhood != nil {
		add("neighborhood", *updates.Neighborhood)
	}
	if updates.City != nil {
		add("city", *updates.City)
	}
	if updates.Description != nil {
		add("description", *updates.Description)
	}
	if updates.Amenities != nil {
		add("amenities", updates.Amenities)
	}
	if updates.TotalFloors != nil {
		add("total_floors", *updates.TotalFloors)
	}
	if updates.TotalUnits != nil {
		add("total_units", *updates.TotalUnits)
	}
	if updates.PaymentInfo != nil {
		add("payment_info", *updates.PaymentInfo)
	}
	if updates.DeliveryStatus != nil {
		add("delivery_status", *updates.DeliveryStatus)
	}
	if updates.EstimatedDelivery != nil {
		add("estimated_delivery", *updates.EstimatedDelivery)
	}

	if len(sets) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE projects SET %s WHERE id = $1", strings.Join(sets, ", "))
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// BindChannel attaches a WhatsApp channel identifier to the project. The
// unique constraint on whatsapp_number keeps one channel per project.
func (r *Repository) BindChannel(ctx context.Context, projectID uuid.UUID, whatsappNumber string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE projects SET whatsapp_number = $2 WHERE id = $1
	`, projectID, whatsappNumber)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LookupContact finds the authorized contact for a phone within a developer.
// Returns nil (no error) when the phone is not authorized.
func (r *Repository) LookupContact(ctx context.Context, phone string, developerID uuid.UUID) (*Contact, error) {
	var c Contact
	err := r.pool.QueryRow(ctx, `
		SELECT id, developer_id, project_id, phone, name, role, status, activation_code, activated_at
		FROM authorized_numbers
		WHERE phone = $1 AND developer_id = $2
	`, phone, developerID).Scan(
		&c.ID, &c.DeveloperID, &c.ProjectID, &c.Phone, &c.Name, &c.Role,
		&c.Status, &c.ActivationCode, &c.ActivatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ActivateContact transitions a pending contact to active. The WHERE clause
// makes the transition one-way: revoked or already-active rows are untouched.
func (r *Repository) ActivateContact(ctx context.Context, contactID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE authorized_numbers
		SET status = 'active', activated_at = now()
		WHERE id = $1 AND status = 'pending'
	`, contactID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActiveContactsByRole returns a developer's active contacts with a role.
func (r *Repository) ListActiveContactsByRole(ctx context.Context, developerID uuid.UUID, role string) ([]Contact, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, developer_id, project_id, phone, name, role, status, activation_code, activated_at
		FROM authorized_numbers
		WHERE developer_id = $1 AND role = $2 AND status = 'active'
	`, developerID, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.DeveloperID, &c.ProjectID, &c.Phone, &c.Name, &c.Role, &c.Status, &c.ActivationCode, &c.ActivatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// CreateContactParams describes a new authorized number.
type CreateContactParams struct {
	DeveloperID    uuid.UUID
	ProjectID      *uuid.UUID
	Phone          string
	Name           string
	Role           string
	ActivationCode string
}

// CreateContact inserts a pending authorized number.
func (r *Repository) CreateContact(ctx context.Context, params CreateContactParams) (Contact, error) {
	var c Contact
	err := r.pool.QueryRow(ctx, `
		INSERT INTO authorized_numbers (developer_id, project_id, phone, name, role, status, activation_code)
		VALUES ($1, $2, $3, $4, $5, 'pending', $6)
		RETURNING id, developer_id, project_id, phone, name, role, status, activation_code, activated_at
	`, params.DeveloperID, params.ProjectID, params.Phone, params.Name, params.Role, params.ActivationCode).Scan(
		&c.ID, &c.DeveloperID, &c.ProjectID, &c.Phone, &c.Name, &c.Role,
		&c.Status, &c.ActivationCode, &c.ActivatedAt,
	)
	return c, err
}
