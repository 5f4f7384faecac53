package conversation

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"realia_backend/internal/agent"
	"realia_backend/internal/documents"
	"realia_backend/internal/handoff"
	"realia_backend/internal/identity"
	"realia_backend/internal/imports"
	"realia_backend/internal/qualification"
	"realia_backend/internal/session"
	"realia_backend/internal/whatsapp"
	"realia_backend/platform/events"
	"realia_backend/platform/logger"
)

// ---- fakes ----------------------------------------------------------------

type fakeIdentity struct {
	bc         identity.BusinessContext
	resolveErr error
	contact    *identity.Contact
	activated  bool
}

func (f *fakeIdentity) Resolve(_ context.Context, _ string) (identity.BusinessContext, error) {
	return f.bc, f.resolveErr
}

func (f *fakeIdentity) LookupContact(_ context.Context, _ string, _ uuid.UUID) (*identity.Contact, error) {
	return f.contact, nil
}

func (f *fakeIdentity) TryActivate(_ context.Context, contact *identity.Contact, text string) (bool, error) {
	if strings.TrimSpace(text) == contact.ActivationCode {
		contact.Status = identity.ContactActive
		f.activated = true
		return true, nil
	}
	return false, nil
}

type fakeSessions struct {
	sess    session.Session
	inbound []string
	replies []string
	history []session.HistoryMessage
}

func (f *fakeSessions) GetOrCreate(_ context.Context, _, _ uuid.UUID, _ string) (session.Session, error) {
	return f.sess, nil
}

func (f *fakeSessions) RecordInbound(_ context.Context, _ uuid.UUID, content string) error {
	f.inbound = append(f.inbound, content)
	return nil
}

func (f *fakeSessions) RecordReply(_ context.Context, _ uuid.UUID, content string) error {
	f.replies = append(f.replies, content)
	return nil
}

func (f *fakeSessions) History(_ context.Context, _ uuid.UUID) ([]session.HistoryMessage, error) {
	return f.history, nil
}

type fakeLeads struct {
	lead    qualification.Lead
	applied []qualification.Extraction
}

func (f *fakeLeads) Get(_ context.Context, _ uuid.UUID) (qualification.Lead, error) {
	return f.lead, nil
}

func (f *fakeLeads) Apply(_ context.Context, _ uuid.UUID, e qualification.Extraction) error {
	f.applied = append(f.applied, e)
	return nil
}

type fakeHandoffs struct {
	open      handoff.Handoff
	openErr   error
	initiated []string
	relayed   []string
}

func (f *fakeHandoffs) OpenFor(_ context.Context, _, _ uuid.UUID) (handoff.Handoff, error) {
	return f.open, f.openErr
}

func (f *fakeHandoffs) Initiate(_ context.Context, _ qualification.Lead, trigger string) (handoff.Handoff, error) {
	f.initiated = append(f.initiated, trigger)
	return handoff.Handoff{Status: handoff.StatusActive}, nil
}

func (f *fakeHandoffs) Relay(_ context.Context, _ handoff.Handoff, _, text string) error {
	f.relayed = append(f.relayed, text)
	return nil
}

type fakeDocuments struct {
	finalized []*documents.Upload
	sent      []string
	templates int
}

func (f *fakeDocuments) Finalize(_ context.Context, u *documents.Upload, _ string) (documents.Document, error) {
	f.finalized = append(f.finalized, u)
	doc := documents.Document{Category: u.Category}
	if u.Unit != nil {
		unit := *u.Unit
		doc.Unit = &unit
	}
	return doc, nil
}

func (f *fakeDocuments) Send(_ context.Context, _ string, _ uuid.UUID, category, unit string) error {
	f.sent = append(f.sent, category+"/"+unit)
	return nil
}

func (f *fakeDocuments) StoreTemplate(_ context.Context, _ string, _ []byte) (string, error) {
	f.templates++
	return "https://files.example.com/plantilla.csv", nil
}

type fakeImporter struct {
	committed []*imports.ParsedImport
}

func (f *fakeImporter) Commit(_ context.Context, _ uuid.UUID, p *imports.ParsedImport) (identity.Project, int, error) {
	f.committed = append(f.committed, p)
	return identity.Project{Name: p.Name}, len(p.Units), nil
}

type fakeDirectory struct {
	projects []identity.Project
	units    []identity.Unit
}

func (f *fakeDirectory) ListActiveProjects(_ context.Context, _ uuid.UUID) ([]identity.Project, error) {
	return f.projects, nil
}

func (f *fakeDirectory) ListUnits(_ context.Context, _ uuid.UUID) ([]identity.Unit, error) {
	return f.units, nil
}

func (f *fakeDirectory) GetProjectBySlug(_ context.Context, _ uuid.UUID, slug string) (identity.Project, error) {
	for _, p := range f.projects {
		if p.Slug == slug {
			return p, nil
		}
	}
	return identity.Project{}, identity.ErrNotFound
}

type fakeDeduper struct{ seen map[string]bool }

func (f *fakeDeduper) FirstSeen(_ context.Context, id string) bool {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[id] {
		return false
	}
	f.seen[id] = true
	return true
}

type staticResponder struct{ reply string }

func (s *staticResponder) Reply(_ context.Context, _ agent.ReplyRequest) (string, error) {
	return s.reply, nil
}

type nullExtractor struct{}

func (nullExtractor) Extract(_ context.Context, _, _ string) (qualification.Extraction, error) {
	return qualification.Extraction{}, nil
}

type staticActions struct {
	reply        string
	sendTemplate bool
}

func (s *staticActions) Resolve(_ context.Context, _ *identity.Project, _, _ string) (string, bool) {
	return s.reply, s.sendTemplate
}

type fakeSender struct {
	texts []sentText
	docs  []string
}

type sentText struct {
	phone string
	text  string
}

func (f *fakeSender) SendText(_ context.Context, phone, text string) error {
	f.texts = append(f.texts, sentText{phone, text})
	return nil
}

func (f *fakeSender) SendDocument(_ context.Context, _, url, _, _ string) error {
	f.docs = append(f.docs, url)
	return nil
}

type fakeMedia struct {
	data []byte
	mime string
}

func (f *fakeMedia) DownloadMedia(_ context.Context, _ string) ([]byte, string, error) {
	return f.data, f.mime, nil
}

// ---- helpers --------------------------------------------------------------

const demoCSV = "proyecto_nombre,ciudad,unidad,piso,ambientes,m2,precio_usd,estado\n" +
	"Demo Tower,Rosario,1A,1,2,55,95000,disponible\n" +
	"Demo Tower,Rosario,2B,2,3,78,140000,disponible\n"

type testEnv struct {
	router    *Router
	identity  *fakeIdentity
	sessions  *fakeSessions
	leads     *fakeLeads
	handoffs  *fakeHandoffs
	documents *fakeDocuments
	importer  *fakeImporter
	directory *fakeDirectory
	sender    *fakeSender
	media     *fakeMedia
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.New("development")

	slug := "demo-tower"
	wa := "123456"
	project := identity.Project{
		ID:             uuid.New(),
		DeveloperID:    uuid.New(),
		Name:           "Demo Tower",
		Slug:           slug,
		City:           "Rosario",
		Status:         "active",
		DeliveryStatus: identity.DeliveryInConstruction,
		WhatsAppNumber: &wa,
	}

	env := &testEnv{
		identity: &fakeIdentity{
			bc: identity.BusinessContext{
				Developer:      identity.Developer{ID: project.DeveloperID, Name: "Demo Dev"},
				DefaultProject: &project,
			},
		},
		sessions: &fakeSessions{sess: session.Session{
			ID:     uuid.New(),
			LeadID: uuid.New(),
			Phone:  "5493415550001",
		}},
		leads:     &fakeLeads{lead: qualification.Lead{ID: uuid.New(), Phone: "5493415550001"}},
		handoffs:  &fakeHandoffs{openErr: handoff.ErrNotFound},
		documents: &fakeDocuments{},
		importer:  &fakeImporter{},
		directory: &fakeDirectory{projects: []identity.Project{project}},
		sender:    &fakeSender{},
		media:     &fakeMedia{},
	}

	env.router = NewRouter(Config{
		Identity:  env.identity,
		Sessions:  env.sessions,
		Leads:     env.leads,
		Handoffs:  env.handoffs,
		Documents: env.documents,
		Importer:  env.importer,
		Directory: env.directory,
		Dedupe:    &fakeDeduper{},
		Responder: &staticResponder{reply: "¡Hola! ¿Buscás para vivir o invertir?"},
		Extractor: &nullExtractor{},
		Actions:   &staticActions{reply: "✅ Hecho."},
		Sender:    env.sender,
		Media:     env.media,
		EventBus:  events.NewInMemoryBus(log),
		Logger:    log,
	})
	return env
}

func textMsg(phone, text string) whatsapp.Message {
	return whatsapp.Message{
		MessageID:   uuid.NewString(),
		ChannelID:   "123456",
		SenderPhone: phone,
		Type:        whatsapp.TypeText,
		Text:        text,
	}
}

func lastText(t *testing.T, s *fakeSender) string {
	t.Helper()
	if len(s.texts) == 0 {
		t.Fatal("expected at least one outbound message")
	}
	return s.texts[len(s.texts)-1].text
}

// ---- tests ----------------------------------------------------------------

func TestActivationFlow(t *testing.T) {
	env := newTestEnv(t)
	env.identity.contact = &identity.Contact{
		Name:           "Caro",
		Status:         identity.ContactPending,
		ActivationCode: "OBRA-1234",
	}

	env.router.HandleInbound(context.Background(), textMsg("549341777", "hola"))
	if !strings.Contains(lastText(t, env.sender), "código") {
		t.Fatalf("expected code rejection, got %q", lastText(t, env.sender))
	}

	env.router.HandleInbound(context.Background(), textMsg("549341777", " OBRA-1234 "))
	if !env.identity.activated {
		t.Fatal("expected contact to be activated")
	}
	if !strings.Contains(lastText(t, env.sender), "Caro") {
		t.Fatalf("expected welcome by name, got %q", lastText(t, env.sender))
	}
}

func TestUnresolvedChannelDropsSilently(t *testing.T) {
	env := newTestEnv(t)
	env.identity.resolveErr = identity.ErrNotFound

	env.router.HandleInbound(context.Background(), textMsg("549341777", "hola"))
	if len(env.sender.texts) != 0 {
		t.Fatalf("expected silence, got %v", env.sender.texts)
	}
}

func TestDuplicateDeliveryDropped(t *testing.T) {
	env := newTestEnv(t)
	msg := textMsg("5493415550001", "hola")

	env.router.HandleInbound(context.Background(), msg)
	before := len(env.sender.texts)
	env.router.HandleInbound(context.Background(), msg)

	if len(env.sender.texts) != before {
		t.Fatal("duplicate message id should not produce a second reply")
	}
}

func TestLeadModeToggle(t *testing.T) {
	env := newTestEnv(t)
	env.identity.contact = &identity.Contact{Name: "Caro", Status: identity.ContactActive}

	env.router.HandleInbound(context.Background(), textMsg("549341777", "Modo Lead"))
	if !strings.Contains(lastText(t, env.sender), "interesado") {
		t.Fatalf("expected lead-mode confirmation, got %q", lastText(t, env.sender))
	}

	// Next message is answered by the assistant, not the staff flow.
	env.router.HandleInbound(context.Background(), textMsg("549341777", "hola, ¿qué unidades hay?"))
	if !strings.Contains(lastText(t, env.sender), "invertir") {
		t.Fatalf("expected assistant reply, got %q", lastText(t, env.sender))
	}

	env.router.HandleInbound(context.Background(), textMsg("549341777", "modo dev"))
	if !strings.Contains(lastText(t, env.sender), "staff") {
		t.Fatalf("expected staff-mode confirmation, got %q", lastText(t, env.sender))
	}
}

func TestLeadReplyRecordsAndStripsMarker(t *testing.T) {
	env := newTestEnv(t)
	env.router.responder = &staticResponder{reply: "Te paso el plano. [SEND_DOC:plano:2B:demo-tower]"}

	env.router.HandleInbound(context.Background(), textMsg("5493415550001", "¿tenés el plano del 2B?"))

	got := lastText(t, env.sender)
	if strings.Contains(got, "SEND_DOC") {
		t.Fatalf("marker leaked to the lead: %q", got)
	}
	if len(env.sessions.replies) != 1 || strings.Contains(env.sessions.replies[0], "SEND_DOC") {
		t.Fatalf("stored reply should be clean, got %v", env.sessions.replies)
	}
}

func TestLeadEscalationPhrase(t *testing.T) {
	env := newTestEnv(t)

	env.router.HandleInbound(context.Background(), textMsg("5493415550001", "Quiero hablar con una persona por favor"))

	if len(env.handoffs.initiated) != 1 {
		t.Fatalf("expected one handoff initiation, got %d", len(env.handoffs.initiated))
	}
	if env.handoffs.initiated[0] != "pedido del lead" {
		t.Fatalf("unexpected trigger %q", env.handoffs.initiated[0])
	}
}

func TestLeadRelayWhileHandoffActive(t *testing.T) {
	env := newTestEnv(t)
	env.handoffs.openErr = nil
	env.handoffs.open = handoff.Handoff{ID: uuid.New(), Status: handoff.StatusActive}

	env.router.HandleInbound(context.Background(), textMsg("5493415550001", "¿sigue disponible?"))

	if len(env.handoffs.relayed) != 1 {
		t.Fatalf("expected inbound relayed to thread, got %d", len(env.handoffs.relayed))
	}
	if len(env.sender.texts) != 0 {
		t.Fatalf("bot must stay silent during a handoff, got %v", env.sender.texts)
	}
	if len(env.sessions.inbound) != 1 {
		t.Fatal("inbound must still be recorded during a handoff")
	}
}

func TestImportConfirmAndCommit(t *testing.T) {
	env := newTestEnv(t)
	env.identity.contact = &identity.Contact{Name: "Caro", Status: identity.ContactActive}
	env.media.data = []byte(demoCSV)
	env.media.mime = "text/csv"

	env.router.HandleInbound(context.Background(), whatsapp.Message{
		MessageID:   uuid.NewString(),
		ChannelID:   "123456",
		SenderPhone: "549341777",
		Type:        whatsapp.TypeDocument,
		MediaID:     "media-1",
		Filename:    "proyecto.csv",
	})
	if !strings.Contains(lastText(t, env.sender), "Demo Tower") {
		t.Fatalf("expected import summary, got %q", lastText(t, env.sender))
	}

	// An unrelated answer re-issues the question instead of committing.
	env.router.HandleInbound(context.Background(), textMsg("549341777", "¿qué?"))
	if len(env.importer.committed) != 0 {
		t.Fatal("ambiguous answer must not commit")
	}

	env.router.HandleInbound(context.Background(), textMsg("549341777", "sí"))
	if len(env.importer.committed) != 1 {
		t.Fatalf("expected one commit, got %d", len(env.importer.committed))
	}
	if !strings.Contains(lastText(t, env.sender), "creado") {
		t.Fatalf("expected creation confirmation, got %q", lastText(t, env.sender))
	}

	// The pending state is gone: a plain "sí" now goes to the action flow.
	env.router.HandleInbound(context.Background(), textMsg("549341777", "sí"))
	if len(env.importer.committed) != 1 {
		t.Fatal("confirmation state must be cleared after commit")
	}
}

func TestImportDiscard(t *testing.T) {
	env := newTestEnv(t)
	env.identity.contact = &identity.Contact{Name: "Caro", Status: identity.ContactActive}
	env.media.data = []byte(demoCSV)
	env.media.mime = "text/csv"

	env.router.HandleInbound(context.Background(), whatsapp.Message{
		MessageID:   uuid.NewString(),
		ChannelID:   "123456",
		SenderPhone: "549341777",
		Type:        whatsapp.TypeDocument,
		MediaID:     "media-1",
		Filename:    "proyecto.csv",
	})
	env.router.HandleInbound(context.Background(), textMsg("549341777", "no"))

	if len(env.importer.committed) != 0 {
		t.Fatal("discard must not commit")
	}
	if !strings.Contains(lastText(t, env.sender), "descarté") {
		t.Fatalf("expected discard confirmation, got %q", lastText(t, env.sender))
	}
}

func TestUploadFlowSingleProject(t *testing.T) {
	env := newTestEnv(t)
	env.identity.contact = &identity.Contact{Name: "Caro", Status: identity.ContactActive}
	env.media.data = []byte("%PDF-1.4")
	env.media.mime = "application/pdf"
	env.directory.units = []identity.Unit{
		{Identifier: "1A", Status: identity.UnitAvailable},
		{Identifier: "2B", Status: identity.UnitAvailable},
	}

	env.router.HandleInbound(context.Background(), whatsapp.Message{
		MessageID:   uuid.NewString(),
		ChannelID:   "123456",
		SenderPhone: "549341777",
		Type:        whatsapp.TypeDocument,
		MediaID:     "media-2",
		Filename:    "plano_2b.pdf",
		MimeType:    "application/pdf",
	})
	// Single project: the listing question is skipped.
	if !strings.Contains(lastText(t, env.sender), "tipo") {
		t.Fatalf("expected document-type question, got %q", lastText(t, env.sender))
	}

	env.router.HandleInbound(context.Background(), textMsg("549341777", "plano"))
	if !strings.Contains(strings.ToLower(lastText(t, env.sender)), "unidad") {
		t.Fatalf("expected unit question, got %q", lastText(t, env.sender))
	}

	env.router.HandleInbound(context.Background(), textMsg("549341777", "2B"))
	if len(env.documents.finalized) != 1 {
		t.Fatalf("expected one finalized upload, got %d", len(env.documents.finalized))
	}
	up := env.documents.finalized[0]
	if up.Category != documents.CategoryFloorPlan {
		t.Fatalf("unexpected category %q", up.Category)
	}
	if up.Unit == nil || *up.Unit != "2B" {
		t.Fatalf("unexpected finalized unit: %v", up.Unit)
	}
	if !strings.Contains(lastText(t, env.sender), "2B") {
		t.Fatalf("expected confirmation naming the unit, got %q", lastText(t, env.sender))
	}
}

func TestStaffTextRunsActionResolver(t *testing.T) {
	env := newTestEnv(t)
	env.identity.contact = &identity.Contact{Name: "Caro", Status: identity.ContactActive}

	env.router.HandleInbound(context.Background(), textMsg("549341777", "marcá la 2B como vendida"))
	if lastText(t, env.sender) != "✅ Hecho." {
		t.Fatalf("expected executor reply, got %q", lastText(t, env.sender))
	}
}

func TestStaffTemplateRequestSendsDocument(t *testing.T) {
	env := newTestEnv(t)
	env.identity.contact = &identity.Contact{Name: "Caro", Status: identity.ContactActive}
	env.router.actions = &staticActions{reply: "Te mando la plantilla.", sendTemplate: true}

	env.router.HandleInbound(context.Background(), textMsg("549341777", "pasame la plantilla del csv"))

	if env.documents.templates != 1 {
		t.Fatalf("expected one template upload, got %d", env.documents.templates)
	}
	if len(env.sender.docs) != 1 {
		t.Fatalf("expected one document send, got %d", len(env.sender.docs))
	}
}
