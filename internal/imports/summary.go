package imports

import (
	"fmt"
	"strings"

	"realia_backend/platform/sanitize"
)

var affirmativeWords = map[string]bool{
	"si": true, "sí": true, "yes": true, "dale": true, "ok": true,
	"okay": true, "confirmo": true, "confirmar": true, "afirmativo": true,
	"correcto": true, "listo": true,
}

var negativeWords = map[string]bool{
	"no": true, "cancelar": true, "cancela": true, "cancelo": true,
	"descartar": true, "descarta": true, "nop": true,
}

// IsAffirmative reports whether a confirmation reply commits the import.
func IsAffirmative(text string) bool {
	for _, w := range sanitize.Words(text) {
		if affirmativeWords[w] {
			return true
		}
	}
	return false
}

// IsNegative reports whether a confirmation reply discards the import.
func IsNegative(text string) bool {
	for _, w := range sanitize.Words(text) {
		if negativeWords[w] {
			return true
		}
	}
	return false
}

// ConfirmPrompt is the trailing yes/no question of every summary.
const ConfirmPrompt = "¿Confirmás la importación? Respondé *sí* para crear el proyecto o *no* para descartar."

// Summary renders the parsed import for the staff member to review.
func Summary(p *ParsedImport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📋 *%s* (%s)\n", p.Name, p.Slug)
	if p.Address != nil {
		fmt.Fprintf(&b, "Dirección: %s\n", *p.Address)
	}
	if p.Neighborhood != nil {
		fmt.Fprintf(&b, "Barrio: %s\n", *p.Neighborhood)
	}
	if p.City != "" {
		fmt.Fprintf(&b, "Ciudad: %s\n", p.City)
	}
	fmt.Fprintf(&b, "Estado de obra: %s\n", p.DeliveryStatus)
	if p.TotalFloors != nil {
		fmt.Fprintf(&b, "Pisos: %d\n", *p.TotalFloors)
	}
	if p.TotalUnits != nil {
		fmt.Fprintf(&b, "Unidades totales: %d\n", *p.TotalUnits)
	}
	if len(p.Amenities) > 0 {
		fmt.Fprintf(&b, "Amenities: %s\n", strings.Join(p.Amenities, ", "))
	}

	fmt.Fprintf(&b, "\n%d unidades en el archivo", len(p.Units))
	if min, max, ok := priceRange(p.Units); ok {
		fmt.Fprintf(&b, " — precios USD %.0f a %.0f", min, max)
	}
	b.WriteString("\n")

	for _, u := range p.Units {
		fmt.Fprintf(&b, "  • %s", u.Identifier)
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
		fmt.Fprintf(&b, " (%s)\n", u.Status)
	}

	if len(p.Warnings) > 0 {
		b.WriteString("\n⚠️ Avisos:\n")
		for _, w := range p.Warnings {
			fmt.Fprintf(&b, "  - %s\n", w)
		}
	}

	b.WriteString("\n" + ConfirmPrompt)
	return b.String()
}

func priceRange(units []ParsedUnit) (min, max float64, ok bool) {
	for _, u := range units {
		if u.PriceUSD == nil {
			continue
		}
		p := *u.PriceUSD
		if !ok {
			min, max, ok = p, p, true
			continue
		}
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	return min, max, ok
}
