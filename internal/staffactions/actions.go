// Package staffactions decodes and executes the structured instructions the
// staff-assistant layer emits for natural-language management commands.
package staffactions

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"realia_backend/platform/sanitize"
)

// Action names. The set is closed: anything else decodes to Unsupported.
const (
	NameUpdateUnitStatus   = "update_unit_status"
	NameUpdateUnitPrice    = "update_unit_price"
	NameAddUnitNote        = "add_unit_note"
	NameGetLeadDetail      = "get_lead_detail"
	NameImportInstructions = "create_project_instructions"
	NameUpdateProject      = "update_project"
	NameNone               = "none"
)

// Localized unit status words mapped to stored values.
var statusVocabulary = map[string]string{
	"disponible": "available",
	"reservada":  "reserved",
	"reservado":  "reserved",
	"vendida":    "sold",
	"vendido":    "sold",
	"available":  "available",
	"reserved":   "reserved",
	"sold":       "sold",
}

// StatusLabel renders a stored unit status back in staff vocabulary.
func StatusLabel(status string) string {
	switch status {
	case "available":
		return "disponible"
	case "reserved":
		return "reservada"
	case "sold":
		return "vendida"
	}
	return status
}

// Action is the decoded staff instruction, exactly one variant non-nil
// (or none for the "none" action).
type Action struct {
	UpdateUnitStatus   *UpdateUnitStatus
	UpdateUnitPrice    *UpdateUnitPrice
	AddUnitNote        *AddUnitNote
	GetLeadDetail      *GetLeadDetail
	ImportInstructions *ImportInstructions
	UpdateProject      *UpdateProject
	None               *None
}

// UpdateUnitStatus changes a unit's sale status.
type UpdateUnitStatus struct {
	Unit   string
	Status string // stored value, already mapped from vocabulary
}

// UpdateUnitPrice changes a unit's USD price.
type UpdateUnitPrice struct {
	Unit     string
	PriceUSD float64
}

// AddUnitNote appends a free-text note to a unit.
type AddUnitNote struct {
	Unit string
	Note string
}

// GetLeadDetail looks up a lead by (possibly partial) phone.
type GetLeadDetail struct {
	Phone string
}

// ImportInstructions asks for the blank CSV template.
type ImportInstructions struct{}

// UpdateProject patches listing-level fields. Nil fields stay untouched.
type UpdateProject struct {
	Address           *string
	Neighborhood      *string
	City              *string
	Description       *string
	PaymentInfo       *string
	DeliveryStatus    *string
	EstimatedDelivery *time.Time
}

// None carries the assistant's plain reply when no action applies.
type None struct {
	Reply string
}

// UnsupportedError is returned for unknown action names or invalid
// parameters. It is a user-facing condition, not a system failure.
type UnsupportedError struct {
	Reason string
}

func (e *UnsupportedError) Error() string { return e.Reason }

type envelope struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params"`
	Reply  string          `json:"reply"`
}

// Decode parses the assistant's JSON envelope into a typed action.
func Decode(raw []byte) (Action, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Action{}, &UnsupportedError{Reason: "no pude interpretar la instrucción"}
	}

	params := env.Params
	if len(params) == 0 {
		params = []byte("{}")
	}

	switch env.Action {
	case NameUpdateUnitStatus:
		var p struct {
			Unit   string `json:"unit"`
			Status string `json:"status"`
		}
		if err := json.Unmarshal(params, &p); err != nil || p.Unit == "" {
			return Action{}, &UnsupportedError{Reason: "falta la unidad para cambiar el estado"}
		}
		status, ok := statusVocabulary[sanitize.Fold(p.Status)]
		if !ok {
			return Action{}, &UnsupportedError{Reason: fmt.Sprintf("estado %q desconocido (disponible/reservada/vendida)", p.Status)}
		}
		return Action{UpdateUnitStatus: &UpdateUnitStatus{
			Unit:   strings.ToUpper(strings.TrimSpace(p.Unit)),
			Status: status,
		}}, nil

	case NameUpdateUnitPrice:
		var p struct {
			Unit     string  `json:"unit"`
			PriceUSD float64 `json:"price_usd"`
		}
		if err := json.Unmarshal(params, &p); err != nil || p.Unit == "" {
			return Action{}, &UnsupportedError{Reason: "falta la unidad para cambiar el precio"}
		}
		if p.PriceUSD <= 0 {
			return Action{}, &UnsupportedError{Reason: "el precio tiene que ser mayor a cero"}
		}
		return Action{UpdateUnitPrice: &UpdateUnitPrice{
			Unit:     strings.ToUpper(strings.TrimSpace(p.Unit)),
			PriceUSD: p.PriceUSD,
		}}, nil

	case NameAddUnitNote:
		var p struct {
			Unit string `json:"unit"`
			Note string `json:"note"`
		}
		if err := json.Unmarshal(params, &p); err != nil || p.Unit == "" || strings.TrimSpace(p.Note) == "" {
			return Action{}, &UnsupportedError{Reason: "falta la unidad o la nota"}
		}
		return Action{AddUnitNote: &AddUnitNote{
			Unit: strings.ToUpper(strings.TrimSpace(p.Unit)),
			Note: strings.TrimSpace(p.Note),
		}}, nil

	case NameGetLeadDetail:
		var p struct {
			Phone string `json:"phone"`
		}
		if err := json.Unmarshal(params, &p); err != nil || strings.TrimSpace(p.Phone) == "" {
			return Action{}, &UnsupportedError{Reason: "falta el teléfono del lead"}
		}
		return Action{GetLeadDetail: &GetLeadDetail{Phone: strings.TrimSpace(p.Phone)}}, nil

	case NameImportInstructions:
		return Action{ImportInstructions: &ImportInstructions{}}, nil

	case NameUpdateProject:
		var p struct {
			Address           *string `json:"address"`
			Neighborhood      *string `json:"neighborhood"`
			City              *string `json:"city"`
			Description       *string `json:"description"`
			PaymentInfo       *string `json:"payment_info"`
			DeliveryStatus    *string `json:"delivery_status"`
			EstimatedDelivery *string `json:"estimated_delivery"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return Action{}, &UnsupportedError{Reason: "no pude interpretar los campos del proyecto"}
		}
		up := &UpdateProject{
			Address:      p.Address,
			Neighborhood: p.Neighborhood,
			City:         p.City,
			Description:  p.Description,
			PaymentInfo:  p.PaymentInfo,
		}
		if p.DeliveryStatus != nil {
			folded := sanitize.Fold(*p.DeliveryStatus)
			switch folded {
			case "en_pozo", "pozo", "en_construccion", "construccion", "terminado":
				mapped := folded
				if mapped == "pozo" {
					mapped = "en_pozo"
				}
				if mapped == "construccion" {
					mapped = "en_construccion"
				}
				up.DeliveryStatus = &mapped
			default:
				return Action{}, &UnsupportedError{Reason: fmt.Sprintf("estado de obra %q desconocido", *p.DeliveryStatus)}
			}
		}
		if p.EstimatedDelivery != nil {
			for _, layout := range []string{"2006-01-02", "2006-01", "01/2006"} {
				if t, err := time.Parse(layout, *p.EstimatedDelivery); err == nil {
					up.EstimatedDelivery = &t
					break
				}
			}
			if up.EstimatedDelivery == nil {
				return Action{}, &UnsupportedError{Reason: fmt.Sprintf("fecha de entrega %q inválida", *p.EstimatedDelivery)}
			}
		}
		if up.Address == nil && up.Neighborhood == nil && up.City == nil &&
			up.Description == nil && up.PaymentInfo == nil &&
			up.DeliveryStatus == nil && up.EstimatedDelivery == nil {
			return Action{}, &UnsupportedError{Reason: "no hay campos para actualizar"}
		}
		return Action{UpdateProject: up}, nil

	case NameNone, "":
		return Action{None: &None{Reply: env.Reply}}, nil
	}

	return Action{}, &UnsupportedError{Reason: fmt.Sprintf("acción %q no soportada", env.Action)}
}
