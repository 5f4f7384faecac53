// Package identity owns the tenant data model: developers (business
// entities), their projects and units, and the authorized staff numbers.
// It provides the role resolver used by the message router to decide who a
// sender is before any flow runs.
package identity

import (
	"time"

	"github.com/google/uuid"
)

// Contact roles.
const (
	RoleAdmin        = "admin"
	RoleConstruction = "obra"
	RoleSales        = "ventas"
)

// Contact statuses.
const (
	ContactPending = "pending"
	ContactActive  = "active"
	ContactRevoked = "revoked"
)

// Unit statuses (canonical, stored form).
const (
	UnitAvailable = "available"
	UnitReserved  = "reserved"
	UnitSold      = "sold"
)

// Project delivery statuses.
const (
	DeliveryPreConstruction = "en_pozo"
	DeliveryInConstruction  = "en_construccion"
	DeliveryFinished        = "terminado"
)

// Developer is a business entity operating one or more projects.
type Developer struct {
	ID         uuid.UUID
	Name       string
	AlertEmail *string
	CreatedAt  time.Time
}

// Project is a sellable real-estate development with units.
type Project struct {
	ID                uuid.UUID
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
	// WhatsAppNumber is the bound channel identifier (Cloud API
	// phone_number_id) used by the lookup resolution strategy.
	WhatsAppNumber *string
	Status         string
	CreatedAt      time.Time
}

// Unit is a single sellable unit within a project.
type Unit struct {
	ID         uuid.UUID
	ProjectID  uuid.UUID
	Identifier string
	Floor      *int
	Bedrooms   *int
	AreaM2     *float64
	PriceUSD   *float64
	Status     string
	Note       *string
}

// Contact is an authorized staff phone number scoped to a developer.
// A phone maps to at most one contact per developer (DB unique constraint).
type Contact struct {
	ID             uuid.UUID
	DeveloperID    uuid.UUID
	ProjectID      *uuid.UUID
	Phone          string
	Name           string
	Role           string
	Status         string
	ActivationCode string
	ActivatedAt    *time.Time
}

// BusinessContext is the resolved tenant for an inbound message.
type BusinessContext struct {
	Developer      Developer
	DefaultProject *Project
}
