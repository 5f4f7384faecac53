package admin

import (
	"time"

	"github.com/google/uuid"

	"realia_backend/internal/identity"
	"realia_backend/internal/qualification"
)

// CreateDeveloperRequest creates a tenant business entity.
type CreateDeveloperRequest struct {
	Name       string  `json:"name" validate:"required,min=2,max=200"`
	AlertEmail *string `json:"alertEmail" validate:"omitempty,email"`
}

// CreateProjectRequest creates a project without going through the CSV flow.
type CreateProjectRequest struct {
	DeveloperID       uuid.UUID `json:"developerId" validate:"required"`
	Name              string    `json:"name" validate:"required,min=2,max=200"`
	City              string    `json:"city" validate:"required"`
	Address           *string   `json:"address"`
	Neighborhood      *string   `json:"neighborhood"`
	Description       *string   `json:"description"`
	Amenities         []string  `json:"amenities"`
	TotalFloors       *int      `json:"totalFloors" validate:"omitempty,min=1"`
	TotalUnits        *int      `json:"totalUnits" validate:"omitempty,min=1"`
	DeliveryStatus    string    `json:"deliveryStatus" validate:"required,oneof=en_pozo en_construccion terminado"`
	EstimatedDelivery *string   `json:"estimatedDelivery"`
	PaymentInfo       *string   `json:"paymentInfo"`
}

// BindChannelRequest attaches a WhatsApp channel id to a project.
type BindChannelRequest struct {
	WhatsAppNumber string `json:"whatsappNumber" validate:"required"`
}

// CreateContactRequest authorizes a staff phone number.
type CreateContactRequest struct {
	DeveloperID uuid.UUID  `json:"developerId" validate:"required"`
	ProjectID   *uuid.UUID `json:"projectId"`
	Phone       string     `json:"phone" validate:"required"`
	Name        string     `json:"name" validate:"required,min=2,max=100"`
	Role        string     `json:"role" validate:"required,oneof=admin obra ventas"`
}

// ContactResponse includes the activation code the operator hands to the
// staff member out of band.
type ContactResponse struct {
	ID             uuid.UUID `json:"id"`
	Phone          string    `json:"phone"`
	Name           string    `json:"name"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	ActivationCode string    `json:"activationCode"`
}

// ProjectResponse is a project with its units.
type ProjectResponse struct {
	Project identity.Project `json:"project"`
	Units   []identity.Unit  `json:"units,omitempty"`
}

// ImportResponse reports the outcome of a CSV import.
type ImportResponse struct {
	Project  identity.Project `json:"project"`
	Units    int              `json:"units"`
	Warnings []string         `json:"warnings,omitempty"`
}

// LeadResponse flattens a lead for listings.
type LeadResponse struct {
	ID            uuid.UUID  `json:"id"`
	ProjectID     uuid.UUID  `json:"projectId"`
	Phone         string     `json:"phone"`
	Name          *string    `json:"name,omitempty"`
	Score         int        `json:"score"`
	Band          string     `json:"band"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func toLeadResponse(l qualification.Lead) LeadResponse {
	return LeadResponse{
		ID:            l.ID,
		ProjectID:     l.ProjectID,
		Phone:         l.Phone,
		Name:          l.Qualification.Name,
		Score:         l.Score,
		Band:          l.Band,
		LastMessageAt: l.LastMessageAt,
		CreatedAt:     l.CreatedAt,
	}
}
