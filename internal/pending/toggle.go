package pending

import "sync"

// Toggles tracks which staff phones asked to be treated as leads
// ("modo lead" / "modo dev"). In-memory only; a restart restores everyone
// to their real role.
type Toggles struct {
	mu     sync.RWMutex
	asLead map[string]bool
}

// NewToggles creates an empty toggle set.
func NewToggles() *Toggles {
	return &Toggles{asLead: make(map[string]bool)}
}

// SetLeadMode marks or unmarks a phone as lead-mode.
func (t *Toggles) SetLeadMode(phone string, on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if on {
		t.asLead[phone] = true
	} else {
		delete(t.asLead, phone)
	}
}

// LeadMode reports whether a phone asked to be treated as a lead.
func (t *Toggles) LeadMode(phone string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.asLead[phone]
}
