// Package documents files staff-uploaded project documents and serves them
// back to leads on request.
package documents

import (
	"time"

	"github.com/google/uuid"

	"realia_backend/platform/sanitize"
)

// Document categories. Keys are what the marker protocol and storage use;
// labels are what staff see and type.
const (
	CategoryFloorPlan = "plano"
	CategoryPriceList = "precios"
	CategoryBrochure  = "brochure"
	CategoryTechSpec  = "memoria"
	CategoryRules     = "reglamento"
	CategoryFAQ       = "faq"
	CategoryContract  = "contrato"
	CategorySchedule  = "cronograma"
)

// categoryOrder fixes the presentation order of the vocabulary.
var categoryOrder = []string{
	CategoryFloorPlan, CategoryPriceList, CategoryBrochure, CategoryTechSpec,
	CategoryRules, CategoryFAQ, CategoryContract, CategorySchedule,
}

var categoryLabels = map[string]string{
	CategoryFloorPlan: "Plano",
	CategoryPriceList: "Lista de precios",
	CategoryBrochure:  "Brochure",
	CategoryTechSpec:  "Memoria descriptiva",
	CategoryRules:     "Reglamento",
	CategoryFAQ:       "Preguntas frecuentes",
	CategoryContract:  "Contrato",
	CategorySchedule:  "Cronograma de obra",
}

// ValidCategory reports whether key is in the fixed vocabulary.
func ValidCategory(key string) bool {
	_, ok := categoryLabels[key]
	return ok
}

// CategoryLabel returns the human label for a category key.
func CategoryLabel(key string) string {
	if label, ok := categoryLabels[key]; ok {
		return label
	}
	return key
}

// generalSynonyms mark a floor-plan as building-wide rather than unit-bound.
var generalSynonyms = map[string]bool{
	"general":  true,
	"edificio": true,
	"todo":     true,
	"todos":    true,
	"comun":    true,
	"ninguna":  true,
	"ninguno":  true,
}

// IsGeneral reports whether a unit reply means "not a specific unit".
func IsGeneral(text string) bool {
	folded := sanitize.Fold(text)
	if generalSynonyms[folded] {
		return true
	}
	for _, w := range sanitize.Words(text) {
		if generalSynonyms[w] {
			return true
		}
	}
	return false
}

// Document is a stored project file.
type Document struct {
	ID         uuid.UUID
	ProjectID  uuid.UUID
	Category   string
	Unit       *string // nil for building-wide documents
	Filename   string
	MimeType   string
	URL        string
	UploadedBy string
	Active     bool
	CreatedAt  time.Time
}
