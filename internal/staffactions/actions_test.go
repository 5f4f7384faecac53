package staffactions

import (
	"errors"
	"strings"
	"testing"
)

func TestDecodeUpdateUnitStatus(t *testing.T) {
	// The assistant's resolution of "cambia la 2B a vendida".
	raw := `{"action":"update_unit_status","params":{"unit":"2b","status":"vendida"}}`

	action, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	a := action.UpdateUnitStatus
	if a == nil {
		t.Fatalf("wrong variant: %+v", action)
	}
	if a.Unit != "2B" {
		t.Fatalf("unit = %q, want 2B", a.Unit)
	}
	if a.Status != "sold" {
		t.Fatalf("status = %q, want sold", a.Status)
	}
	if !strings.Contains(StatusLabel(a.Status), "vendida") {
		t.Fatalf("confirmation label %q does not contain vendida", StatusLabel(a.Status))
	}
}

func TestDecodeStatusVocabulary(t *testing.T) {
	cases := map[string]string{
		"Disponible": "available",
		"RESERVADO":  "reserved",
		"vendido":    "sold",
		"sold":       "sold",
	}
	for in, want := range cases {
		raw := `{"action":"update_unit_status","params":{"unit":"1A","status":"` + in + `"}}`
		action, err := Decode([]byte(raw))
		if err != nil {
			t.Errorf("Decode(%q): %v", in, err)
			continue
		}
		if action.UpdateUnitStatus.Status != want {
			t.Errorf("status %q mapped to %q, want %q", in, action.UpdateUnitStatus.Status, want)
		}
	}

	raw := `{"action":"update_unit_status","params":{"unit":"1A","status":"alquilada"}}`
	if _, err := Decode([]byte(raw)); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestDecodeUpdateUnitPrice(t *testing.T) {
	action, err := Decode([]byte(`{"action":"update_unit_price","params":{"unit":"3c","price_usd":120000}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if action.UpdateUnitPrice == nil || action.UpdateUnitPrice.Unit != "3C" || action.UpdateUnitPrice.PriceUSD != 120000 {
		t.Fatalf("action = %+v", action.UpdateUnitPrice)
	}

	if _, err := Decode([]byte(`{"action":"update_unit_price","params":{"unit":"3c","price_usd":-5}}`)); err == nil {
		t.Fatalf("expected error for non-positive price")
	}
}

func TestDecodeNone(t *testing.T) {
	action, err := Decode([]byte(`{"action":"none","reply":"Todo en orden."}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if action.None == nil || action.None.Reply != "Todo en orden." {
		t.Fatalf("action = %+v", action.None)
	}
}

func TestDecodeUnknownActionIsUnsupported(t *testing.T) {
	_, err := Decode([]byte(`{"action":"delete_everything","params":{}}`))
	var unsupported *UnsupportedError
	if !errors.As(err, &unsupported) {
		t.Fatalf("err = %v, want UnsupportedError", err)
	}
}

func TestDecodeMalformedJSON(t *testing.T) {
	_, err := Decode([]byte(`{"action": broken`))
	var unsupported *UnsupportedError
	if !errors.As(err, &unsupported) {
		t.Fatalf("err = %v, want UnsupportedError", err)
	}
}

func TestDecodeUpdateProject(t *testing.T) {
	raw := `{"action":"update_project","params":{"delivery_status":"construccion","estimated_delivery":"2027-06"}}`
	action, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	up := action.UpdateProject
	if up == nil || up.DeliveryStatus == nil || *up.DeliveryStatus != "en_construccion" {
		t.Fatalf("action = %+v", up)
	}
	if up.EstimatedDelivery == nil || up.EstimatedDelivery.Year() != 2027 {
		t.Fatalf("estimated delivery = %v", up.EstimatedDelivery)
	}

	if _, err := Decode([]byte(`{"action":"update_project","params":{}}`)); err == nil {
		t.Fatalf("expected error for empty update")
	}
}

func TestDecodeImportInstructions(t *testing.T) {
	action, err := Decode([]byte(`{"action":"create_project_instructions"}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if action.ImportInstructions == nil {
		t.Fatalf("wrong variant: %+v", action)
	}
}
