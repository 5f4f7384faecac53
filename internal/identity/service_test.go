package identity

import (
	"context"
	"testing"

	"realia_backend/platform/logger"
)

func TestTryActivateRejectsWithoutMatching(t *testing.T) {
	s := NewService(nil, nil, nil, logger.New("development"))
	ctx := context.Background()

	cases := []struct {
		name    string
		contact *Contact
		text    string
	}{
		{"nil contact", nil, "VENTA-ABCD"},
		{"already active", &Contact{Status: ContactActive, ActivationCode: "VENTA-ABCD"}, "VENTA-ABCD"},
		{"no code issued", &Contact{Status: ContactPending, ActivationCode: ""}, "VENTA-ABCD"},
		{"wrong code", &Contact{Status: ContactPending, ActivationCode: "VENTA-ABCD"}, "VENTA-ZZZZ"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			activated, err := s.TryActivate(ctx, tc.contact, tc.text)
			if err != nil {
				t.Fatalf("TryActivate returned error: %v", err)
			}
			if activated {
				t.Fatalf("TryActivate = true, want false")
			}
		})
	}
}
