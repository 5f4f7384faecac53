package marker

import "testing"

func TestExtractRoundTrip(t *testing.T) {
	clean, d := Extract("Hola [SEND_DOC:plano:2B:demo-tower]")
	if clean != "Hola" {
		t.Fatalf("clean = %q, want %q", clean, "Hola")
	}
	if d == nil {
		t.Fatalf("expected directive")
	}
	if d.Category != "plano" || d.Unit != "2B" || d.ListingSlug != "demo-tower" {
		t.Fatalf("directive = %+v", d)
	}
}

func TestExtractNoToken(t *testing.T) {
	text := "Hola, ¿en qué puedo ayudarte?"
	clean, d := Extract(text)
	if clean != text {
		t.Fatalf("text changed: %q", clean)
	}
	if d != nil {
		t.Fatalf("unexpected directive %+v", d)
	}
}

func TestExtractNoneUnit(t *testing.T) {
	clean, d := Extract("Te envío el brochure. [SEND_DOC:brochure:NONE:torre-sur]")
	if d == nil {
		t.Fatalf("expected directive")
	}
	if d.Unit != "" {
		t.Fatalf("unit = %q, want empty for NONE sentinel", d.Unit)
	}
	if d.Category != "brochure" || d.ListingSlug != "torre-sur" {
		t.Fatalf("directive = %+v", d)
	}
	if clean != "Te envío el brochure." {
		t.Fatalf("clean = %q", clean)
	}
}

func TestExtractOmittedSlug(t *testing.T) {
	_, d := Extract("Acá va la lista de precios [SEND_DOC:precios:NONE]")
	if d == nil {
		t.Fatalf("expected directive")
	}
	if d.ListingSlug != "" {
		t.Fatalf("slug = %q, want empty", d.ListingSlug)
	}
	if d.Category != "precios" {
		t.Fatalf("category = %q", d.Category)
	}
}

func TestExtractMalformed(t *testing.T) {
	cases := []string{
		"Hola [SEND_DOC:plano]",
		"Hola [SEND_DOC:]",
		"Hola [SEND_DOC:plano:2B:x:y]",
		"Hola [SENDDOC:plano:2B]",
		"Hola [SEND_DOC plano 2B]",
	}
	for _, text := range cases {
		clean, d := Extract(text)
		if d != nil {
			t.Errorf("%q: unexpected directive %+v", text, d)
		}
		if clean != text {
			t.Errorf("%q: text changed to %q", text, clean)
		}
	}
}

func TestExtractMidTextKeepsSpacing(t *testing.T) {
	clean, d := Extract("Te lo mando. [SEND_DOC:plano:2B] ¿Querés ver  otra  unidad?")
	if d == nil {
		t.Fatalf("expected directive")
	}
	// Only the gap around the token closes; spacing elsewhere stays as the
	// model wrote it.
	if clean != "Te lo mando. ¿Querés ver  otra  unidad?" {
		t.Fatalf("clean = %q", clean)
	}
}

func TestExtractFirstTokenWins(t *testing.T) {
	clean, d := Extract("Hola [SEND_DOC:plano:1A:demo] [SEND_DOC:precios:NONE:demo]")
	if d == nil {
		t.Fatalf("expected directive")
	}
	if d.Category != "plano" || d.Unit != "1A" {
		t.Fatalf("directive = %+v, want first token", d)
	}
	if clean != "Hola" {
		t.Fatalf("clean = %q, want all tokens stripped", clean)
	}
}
