package documents

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"realia_backend/internal/identity"
)

func testProjects() []identity.Project {
	return []identity.Project{
		{ID: uuid.New(), Name: "Demo Tower", Slug: "demo-tower"},
		{ID: uuid.New(), Name: "Manzanares 2088", Slug: "manzanares-2088"},
	}
}

func testUnits() []identity.Unit {
	return []identity.Unit{
		{Identifier: "1A"},
		{Identifier: "2B"},
	}
}

func TestNewUploadSkipsListingWithSingleProject(t *testing.T) {
	u := NewUpload(nil, "plano.pdf", "application/pdf", testProjects()[:1])
	if u.Step != StepAskType {
		t.Fatalf("step = %s, want ask_type", u.Step)
	}
	if u.Project == nil || u.Project.Slug != "demo-tower" {
		t.Fatalf("project not pre-bound: %+v", u.Project)
	}

	multi := NewUpload(nil, "plano.pdf", "application/pdf", testProjects())
	if multi.Step != StepAskListing {
		t.Fatalf("step = %s, want ask_listing", multi.Step)
	}
}

func TestFlowFullPath(t *testing.T) {
	u := NewUpload(nil, "plano.pdf", "application/pdf", testProjects())

	// Unmatched listing reply does not advance.
	if u.Advance("el otro") {
		t.Fatalf("advanced on unmatched listing")
	}
	if u.Step != StepAskListing {
		t.Fatalf("step moved to %s on unmatched reply", u.Step)
	}

	if !u.Advance("es para demo-tower") {
		t.Fatalf("slug substring did not match")
	}
	if u.Step != StepAskType || u.Project.Slug != "demo-tower" {
		t.Fatalf("step = %s, project = %+v", u.Step, u.Project)
	}

	if u.Advance("un archivo cualquiera") {
		t.Fatalf("advanced on unmatched category")
	}

	if !u.Advance("es un plano") {
		t.Fatalf("category key did not match")
	}
	if u.Step != StepAskUnit || u.Category != CategoryFloorPlan {
		t.Fatalf("step = %s, category = %s", u.Step, u.Category)
	}

	u.Units = testUnits()

	// Unknown unit identifier re-prompts instead of filing blindly.
	if u.Advance("9Z") {
		t.Fatalf("advanced on unknown unit")
	}
	if u.Step != StepAskUnit {
		t.Fatalf("step moved to %s on unknown unit", u.Step)
	}

	if !u.Advance("2b") {
		t.Fatalf("unit did not match case-insensitively")
	}
	if u.Step != StepFinalize || u.Unit == nil || *u.Unit != "2B" {
		t.Fatalf("step = %s, unit = %v", u.Step, u.Unit)
	}
}

func TestFlowNonPlanSkipsUnit(t *testing.T) {
	u := NewUpload(nil, "precios.pdf", "application/pdf", testProjects()[:1])
	if !u.Advance("lista de precios") {
		t.Fatalf("label did not match")
	}
	if u.Step != StepFinalize || u.Category != CategoryPriceList {
		t.Fatalf("step = %s, category = %s", u.Step, u.Category)
	}
	if u.Unit != nil {
		t.Fatalf("unit = %v, want nil", u.Unit)
	}
}

func TestFlowGeneralSynonymUnsetsUnit(t *testing.T) {
	u := NewUpload(nil, "plano.pdf", "application/pdf", testProjects()[:1])
	u.Advance("plano")
	u.Units = testUnits()

	if !u.Advance("es general del edificio") {
		t.Fatalf("general synonym did not match")
	}
	if u.Step != StepFinalize || u.Unit != nil {
		t.Fatalf("step = %s, unit = %v", u.Step, u.Unit)
	}
}

func TestMatchListingWordFallback(t *testing.T) {
	projects := testProjects()

	// "manzanares" is a >3-char name token; no slug substring present.
	p := MatchListing("el de Manzanares porfa", projects)
	if p == nil || p.Slug != "manzanares-2088" {
		t.Fatalf("match = %+v", p)
	}

	// Short tokens are ignored in the fallback.
	if p := MatchListing("el", projects); p != nil {
		t.Fatalf("matched on short token: %+v", p)
	}

	if p := MatchListing("", projects); p != nil {
		t.Fatalf("matched empty text: %+v", p)
	}
}

func TestMatchCategoryAccents(t *testing.T) {
	if got := matchCategory("el cronograma de obra"); got != CategorySchedule {
		t.Fatalf("got %q", got)
	}
	if got := matchCategory("Memoria Descriptiva"); got != CategoryTechSpec {
		t.Fatalf("got %q", got)
	}
	if got := matchCategory("reglamento de copropiedad"); got != CategoryRules {
		t.Fatalf("got %q", got)
	}
}

func TestPromptListsOptions(t *testing.T) {
	u := NewUpload(nil, "x.pdf", "application/pdf", testProjects())
	if p := u.Prompt(); !strings.Contains(p, "demo-tower") || !strings.Contains(p, "manzanares-2088") {
		t.Fatalf("listing prompt missing projects:\n%s", p)
	}

	u.Advance("demo-tower")
	if p := u.Prompt(); !strings.Contains(p, "plano") || !strings.Contains(p, "cronograma") {
		t.Fatalf("type prompt missing categories:\n%s", p)
	}

	u.Advance("plano")
	u.Units = testUnits()
	if p := u.Prompt(); !strings.Contains(p, "1A") || !strings.Contains(p, "2B") {
		t.Fatalf("unit prompt missing units:\n%s", p)
	}
}
