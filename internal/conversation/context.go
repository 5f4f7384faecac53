package conversation

import (
	"fmt"
	"strings"

	"realia_backend/internal/identity"
	"realia_backend/internal/staffactions"
)

// BuildProjectContext renders a project as prompt context.
func BuildProjectContext(p *identity.Project, units []identity.Unit) string {
	if p == nil {
		return "Sin proyecto asignado."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Nombre: %s (%s)\n", p.Name, p.Slug)
	if p.Address != nil {
		fmt.Fprintf(&b, "Dirección: %s", *p.Address)
		if p.Neighborhood != nil {
			fmt.Fprintf(&b, ", %s", *p.Neighborhood)
		}
		if p.City != "" {
			fmt.Fprintf(&b, ", %s", p.City)
		}
		b.WriteString("\n")
	}
	if p.Description != nil {
		fmt.Fprintf(&b, "Descripción: %s\n", *p.Description)
	}
	fmt.Fprintf(&b, "Estado de obra: %s\n", p.DeliveryStatus)
	if p.EstimatedDelivery != nil {
		fmt.Fprintf(&b, "Entrega estimada: %s\n", p.EstimatedDelivery.Format("01/2006"))
	}
	if p.PaymentInfo != nil {
		fmt.Fprintf(&b, "Formas de pago: %s\n", *p.PaymentInfo)
	}
	if len(p.Amenities) > 0 {
		fmt.Fprintf(&b, "Amenities: %s\n", strings.Join(p.Amenities, ", "))
	}

	if available := availableUnits(units); available != "" {
		b.WriteString("Unidades disponibles:\n")
		b.WriteString(available)
	}
	return b.String()
}

// UnitList renders all units one per line, for staff prompts.
func UnitList(units []identity.Unit) string {
	var b strings.Builder
	for _, u := range units {
		fmt.Fprintf(&b, "%s", u.Identifier)
		if u.Floor != nil {
			fmt.Fprintf(&b, " piso %d", *u.Floor)
		}
		if u.Bedrooms != nil {
			fmt.Fprintf(&b, ", %d amb", *u.Bedrooms)
		}
		if u.AreaM2 != nil {
			fmt.Fprintf(&b, ", %.0f m²", *u.AreaM2)
		}
		if u.PriceUSD != nil {
			fmt.Fprintf(&b, ", USD %.0f", *u.PriceUSD)
		}
		fmt.Fprintf(&b, " — %s", staffactions.StatusLabel(u.Status))
		if u.Note != nil && *u.Note != "" {
			fmt.Fprintf(&b, " (%s)", *u.Note)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// availableUnits renders only sellable units, price included, for the
// lead-facing prompt. Sold units are omitted entirely.
func availableUnits(units []identity.Unit) string {
	var b strings.Builder
	for _, u := range units {
		if u.Status == identity.UnitSold {
			continue
		}
		fmt.Fprintf(&b, "  %s", u.Identifier)
		if u.Bedrooms != nil {
			fmt.Fprintf(&b, ", %d amb", *u.Bedrooms)
		}
		if u.AreaM2 != nil {
			fmt.Fprintf(&b, ", %.0f m²", *u.AreaM2)
		}
		if u.PriceUSD != nil {
			fmt.Fprintf(&b, ", USD %.0f", *u.PriceUSD)
		}
		if u.Status == identity.UnitReserved {
			b.WriteString(" (reservada)")
		}
		b.WriteString("\n")
	}
	return b.String()
}
