package imports

import (
	"errors"
	"strings"
	"testing"
)

const demoCSV = `proyecto_nombre,proyecto_ciudad,proyecto_estado_obra,proyecto_amenities,unidad,piso,ambientes,m2,precio_usd,estado
Demo Tower,Buenos Aires,en_pozo,pileta|sum,1A,1,2,55,50000,disponible
,,,,2B,2,3,72,,reservada
,,,,3C,,,,,`

func TestParseDemoTower(t *testing.T) {
	p, err := Parse([]byte(demoCSV))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.Name != "Demo Tower" || p.Slug != "demo-tower" {
		t.Fatalf("name/slug = %q/%q", p.Name, p.Slug)
	}
	if p.City != "Buenos Aires" {
		t.Fatalf("city = %q", p.City)
	}
	if p.DeliveryStatus != "en_pozo" {
		t.Fatalf("delivery status = %q", p.DeliveryStatus)
	}
	if len(p.Amenities) != 2 {
		t.Fatalf("amenities = %v", p.Amenities)
	}

	// 1A (floor+price) and 2B (floor only) are valid; 3C lacks both.
	if len(p.Units) != 2 {
		t.Fatalf("units = %d, want 2: %+v", len(p.Units), p.Units)
	}
	if p.Units[0].Identifier != "1A" || p.Units[1].Identifier != "2B" {
		t.Fatalf("unit identifiers = %s, %s", p.Units[0].Identifier, p.Units[1].Identifier)
	}
	if p.Units[0].PriceUSD == nil || *p.Units[0].PriceUSD != 50000 {
		t.Fatalf("1A price = %v", p.Units[0].PriceUSD)
	}
	if p.Units[1].PriceUSD != nil {
		t.Fatalf("2B price = %v, want nil", *p.Units[1].PriceUSD)
	}
	if p.Units[1].Status != "reserved" {
		t.Fatalf("2B status = %q", p.Units[1].Status)
	}

	if len(p.Warnings) != 1 || !strings.Contains(p.Warnings[0], "3C") {
		t.Fatalf("warnings = %v, want one about 3C", p.Warnings)
	}

	// total_units was not in the file: defaults to valid unit count.
	if p.TotalUnits == nil || *p.TotalUnits != 2 {
		t.Fatalf("total units = %v, want 2", p.TotalUnits)
	}
}

func TestParseStripsHeaderBOM(t *testing.T) {
	// Excel exports prepend a UTF-8 BOM; the first header must still match.
	p, err := Parse([]byte("\ufeff" + demoCSV))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Name != "Demo Tower" {
		t.Fatalf("name = %q, want Demo Tower", p.Name)
	}
}

func TestParseRejectsMissingName(t *testing.T) {
	csv := "proyecto_nombre,unidad,piso,precio_usd\n,1A,1,50000\n"
	if _, err := Parse([]byte(csv)); !errors.Is(err, ErrUnusable) {
		t.Fatalf("err = %v, want ErrUnusable", err)
	}
}

func TestParseRejectsZeroValidUnits(t *testing.T) {
	csv := "proyecto_nombre,unidad,piso,precio_usd\nDemo Tower,1A,,\n"
	if _, err := Parse([]byte(csv)); !errors.Is(err, ErrUnusable) {
		t.Fatalf("err = %v, want ErrUnusable", err)
	}
}

func TestParseStatusVocabulary(t *testing.T) {
	csv := `proyecto_nombre,unidad,piso,estado
Demo,1A,1,vendido
Demo,2B,2,VENDIDA
Demo,3C,3,Disponible
Demo,4D,4,algo raro`
	p, err := Parse([]byte(csv))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []string{"sold", "sold", "available", "available"}
	for i, u := range p.Units {
		if u.Status != want[i] {
			t.Errorf("unit %s status = %q, want %q", u.Identifier, u.Status, want[i])
		}
	}
}

func TestParseSemicolonDelimiter(t *testing.T) {
	csv := "proyecto_nombre;unidad;piso;precio_usd\nDemo;1A;1;50.000\n"
	p, err := Parse([]byte(csv))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(p.Units) != 1 || p.Units[0].PriceUSD == nil || *p.Units[0].PriceUSD != 50000 {
		t.Fatalf("units = %+v", p.Units)
	}
}

func TestParseNumberForms(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"50000", 50000},
		{"50.000", 50000},
		{"1.500,50", 1500.50},
		{"89,5", 89.5},
		{"89.5", 89.5},
	}
	for _, tc := range cases {
		got, err := parseNumber(tc.in)
		if err != nil || got != tc.want {
			t.Errorf("parseNumber(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
}

func TestTemplateRoundTrips(t *testing.T) {
	p, err := Parse(BlankTemplate())
	if err != nil {
		t.Fatalf("template does not parse: %v", err)
	}
	if p.Name != "Torre Ejemplo" || len(p.Units) != 1 {
		t.Fatalf("template parse = %+v", p)
	}
}

func TestConfirmationVocabulary(t *testing.T) {
	for _, text := range []string{"Sí", "si", "dale!", "ok, confirmo"} {
		if !IsAffirmative(text) {
			t.Errorf("IsAffirmative(%q) = false", text)
		}
	}
	for _, text := range []string{"No", "cancelar", "no, descarta eso"} {
		if !IsNegative(text) {
			t.Errorf("IsNegative(%q) = false", text)
		}
	}
	for _, text := range []string{"mmm", "cuántas unidades tiene?"} {
		if IsAffirmative(text) || IsNegative(text) {
			t.Errorf("%q matched confirmation vocabulary", text)
		}
	}
}

func TestSummaryContents(t *testing.T) {
	p, err := Parse([]byte(demoCSV))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s := Summary(p)

	for _, want := range []string{"Demo Tower", "1A", "2B", "50000", ConfirmPrompt} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q:\n%s", want, s)
		}
	}
}
