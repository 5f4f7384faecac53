package handoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"realia_backend/internal/qualification"
	"realia_backend/platform/events"
	"realia_backend/platform/logger"
)

type fakeStore struct {
	handoffs map[uuid.UUID]*Handoff
}

func newFakeStore() *fakeStore {
	return &fakeStore{handoffs: make(map[uuid.UUID]*Handoff)}
}

func (s *fakeStore) Create(_ context.Context, leadID, projectID, developerID uuid.UUID, trigger, summary string) (Handoff, error) {
	for _, h := range s.handoffs {
		if h.LeadID == leadID && h.ProjectID == projectID && h.Status != StatusCompleted {
			return *h, nil
		}
	}
	h := &Handoff{
		ID:          uuid.New(),
		LeadID:      leadID,
		ProjectID:   projectID,
		DeveloperID: developerID,
		Trigger:     trigger,
		Status:      StatusPending,
		Summary:     summary,
		CreatedAt:   time.Now(),
	}
	s.handoffs[h.ID] = h
	return *h, nil
}

func (s *fakeStore) GetByID(_ context.Context, id uuid.UUID) (Handoff, error) {
	if h, ok := s.handoffs[id]; ok {
		return *h, nil
	}
	return Handoff{}, ErrNotFound
}

func (s *fakeStore) GetOpenByLead(_ context.Context, leadID, projectID uuid.UUID) (Handoff, error) {
	for _, h := range s.handoffs {
		if h.LeadID == leadID && h.ProjectID == projectID && h.Status != StatusCompleted {
			return *h, nil
		}
	}
	return Handoff{}, ErrNotFound
}

func (s *fakeStore) GetActiveByThread(_ context.Context, threadID int64) (Handoff, error) {
	for _, h := range s.handoffs {
		if h.Status == StatusActive && h.ThreadID != nil && *h.ThreadID == threadID {
			return *h, nil
		}
	}
	return Handoff{}, ErrNotFound
}

func (s *fakeStore) MarkActive(_ context.Context, id uuid.UUID, threadID int64) error {
	h, ok := s.handoffs[id]
	if !ok || h.Status != StatusPending {
		return ErrNotFound
	}
	now := time.Now()
	h.Status = StatusActive
	h.ThreadID = &threadID
	h.StartedAt = &now
	return nil
}

func (s *fakeStore) MarkCompleted(_ context.Context, id uuid.UUID, note string) (bool, error) {
	h, ok := s.handoffs[id]
	if !ok || h.Status == StatusCompleted {
		return false, nil
	}
	now := time.Now()
	h.Status = StatusCompleted
	h.CompletedAt = &now
	if note != "" {
		h.Note = &note
	}
	return true, nil
}

type fakeThreads struct {
	fail   bool
	opened int
	closed []int64
	posts  []string
	nextID int64
}

// OpenThread records the alert as a post, matching the real channel which
// posts the alert into the topic it just created.
func (t *fakeThreads) OpenThread(_ context.Context, _, alert string) (int64, error) {
	if t.fail {
		return 0, errors.New("telegram down")
	}
	t.opened++
	t.nextID++
	t.posts = append(t.posts, alert)
	return t.nextID, nil
}

func (t *fakeThreads) Post(_ context.Context, _ int64, text string) error {
	t.posts = append(t.posts, text)
	return nil
}

func (t *fakeThreads) CloseThread(_ context.Context, id int64) error {
	t.closed = append(t.closed, id)
	return nil
}

type fakeSender struct {
	sent []string
}

func (s *fakeSender) SendText(_ context.Context, _, text string) error {
	s.sent = append(s.sent, text)
	return nil
}

func testLead() qualification.Lead {
	return qualification.Lead{
		ID:          uuid.New(),
		DeveloperID: uuid.New(),
		ProjectID:   uuid.New(),
		Phone:       "5491155550001",
		Score:       9,
		Band:        qualification.BandHot,
	}
}

func newTestManager(threads ThreadChannel, sender TextSender) (*Manager, *fakeStore) {
	store := newFakeStore()
	log := logger.New("development")
	return NewManager(store, threads, sender, events.NewInMemoryBus(log), log), store
}

func TestInitiateOpensThreadOnce(t *testing.T) {
	threads := &fakeThreads{}
	sender := &fakeSender{}
	m, _ := newTestManager(threads, sender)
	lead := testLead()

	first, err := m.Initiate(context.Background(), lead, "pedido del lead")
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if first.Status != StatusActive || first.ThreadID == nil {
		t.Fatalf("handoff = %+v, want active with thread", first)
	}

	second, err := m.Initiate(context.Background(), lead, "otra vez")
	if err != nil {
		t.Fatalf("second Initiate: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("second initiate created a new handoff: %s vs %s", second.ID, first.ID)
	}
	if threads.opened != 1 {
		t.Fatalf("threads opened = %d, want 1", threads.opened)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("lead notified %d times, want 1", len(sender.sent))
	}
}

func TestInitiateThreadFailureStaysPending(t *testing.T) {
	threads := &fakeThreads{fail: true}
	m, store := newTestManager(threads, &fakeSender{})
	lead := testLead()

	h, err := m.Initiate(context.Background(), lead, "pedido")
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if h.Status != StatusPending {
		t.Fatalf("status = %s, want pending for retry", h.Status)
	}

	// Retry succeeds and reuses the same row.
	threads.fail = false
	retried, err := m.Initiate(context.Background(), lead, "pedido")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if retried.ID != h.ID || retried.Status != StatusActive {
		t.Fatalf("retry = %+v, want same id active", retried)
	}
	if len(store.handoffs) != 1 {
		t.Fatalf("handoffs = %d, want 1", len(store.handoffs))
	}
}

func TestRelayOnlyWhileActive(t *testing.T) {
	threads := &fakeThreads{}
	m, _ := newTestManager(threads, &fakeSender{})
	lead := testLead()

	h, _ := m.Initiate(context.Background(), lead, "pedido")
	if err := m.Relay(context.Background(), h, "Ana", "hola!"); err != nil {
		t.Fatalf("Relay: %v", err)
	}
	// Alert post plus relay.
	if len(threads.posts) != 2 {
		t.Fatalf("posts = %d, want 2", len(threads.posts))
	}

	pending := Handoff{Status: StatusPending}
	if err := m.Relay(context.Background(), pending, "Ana", "hola"); err != nil {
		t.Fatalf("relay on pending should be a no-op, got %v", err)
	}
	if len(threads.posts) != 2 {
		t.Fatalf("pending relay posted to thread")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	threads := &fakeThreads{}
	sender := &fakeSender{}
	m, _ := newTestManager(threads, sender)
	lead := testLead()

	h, _ := m.Initiate(context.Background(), lead, "pedido")
	if err := m.Close(context.Background(), h, "resuelto", lead.Phone); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(threads.closed) != 1 {
		t.Fatalf("threads closed = %d, want 1", len(threads.closed))
	}

	notified := len(sender.sent)
	if err := m.Close(context.Background(), h, "de nuevo", lead.Phone); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if len(threads.closed) != 1 || len(sender.sent) != notified {
		t.Fatalf("second close had side effects")
	}

	// Closing a handoff that never existed is also safe.
	if err := m.Close(context.Background(), Handoff{ID: uuid.New()}, "", ""); err != nil {
		t.Fatalf("close of unknown handoff: %v", err)
	}
}

func TestCloseByThread(t *testing.T) {
	threads := &fakeThreads{}
	m, store := newTestManager(threads, &fakeSender{})
	lead := testLead()

	h, _ := m.Initiate(context.Background(), lead, "pedido")
	if err := m.CloseByThread(context.Background(), *h.ThreadID, "listo", lead.Phone); err != nil {
		t.Fatalf("CloseByThread: %v", err)
	}
	got, _ := store.GetByID(context.Background(), h.ID)
	if got.Status != StatusCompleted || got.Note == nil || *got.Note != "listo" {
		t.Fatalf("handoff = %+v", got)
	}

	// Unknown thread is a no-op.
	if err := m.CloseByThread(context.Background(), 999, "", ""); err != nil {
		t.Fatalf("unknown thread: %v", err)
	}
}

func TestParseCloseCommand(t *testing.T) {
	cases := []struct {
		in      string
		isClose bool
		note    string
	}{
		{"/cerrar", true, ""},
		{"/cerrar ya compró", true, "ya compró"},
		{"  /cerrar  con nota  ", true, "con nota"},
		{"/cerrarlo", false, ""},
		{"cerrar", false, ""},
		{"hola /cerrar", false, ""},
	}
	for _, tc := range cases {
		isClose, note := ParseCloseCommand(tc.in)
		if isClose != tc.isClose || note != tc.note {
			t.Errorf("ParseCloseCommand(%q) = %v, %q; want %v, %q", tc.in, isClose, note, tc.isClose, tc.note)
		}
	}
}
