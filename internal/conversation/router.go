// Package conversation routes every inbound WhatsApp message through
// activation, staff and lead flows.
package conversation

import (
	"context"
	"runtime/debug"

	"github.com/google/uuid"

	"realia_backend/internal/agent"
	"realia_backend/internal/documents"
	"realia_backend/internal/events"
	"realia_backend/internal/handoff"
	"realia_backend/internal/identity"
	"realia_backend/internal/imports"
	"realia_backend/internal/pending"
	"realia_backend/internal/qualification"
	"realia_backend/internal/session"
	"realia_backend/internal/whatsapp"
	"realia_backend/platform/logger"
	"realia_backend/platform/sanitize"
)

// Role-toggle trigger phrases for live testing by staff.
const (
	phraseLeadMode = "modo lead"
	phraseDevMode  = "modo dev"
)

const apologyText = "Perdón, tuve un problema procesando tu mensaje. ¿Me lo repetís?"

// Identity is the role-resolution surface the router needs.
type Identity interface {
	Resolve(ctx context.Context, channelID string) (identity.BusinessContext, error)
	LookupContact(ctx context.Context, phone string, developerID uuid.UUID) (*identity.Contact, error)
	TryActivate(ctx context.Context, contact *identity.Contact, text string) (bool, error)
}

// Sessions is the conversation persistence surface.
type Sessions interface {
	GetOrCreate(ctx context.Context, developerID, projectID uuid.UUID, phone string) (session.Session, error)
	RecordInbound(ctx context.Context, sessionID uuid.UUID, content string) error
	RecordReply(ctx context.Context, sessionID uuid.UUID, content string) error
	History(ctx context.Context, sessionID uuid.UUID) ([]session.HistoryMessage, error)
}

// Leads reads and requalifies leads.
type Leads interface {
	Get(ctx context.Context, leadID uuid.UUID) (qualification.Lead, error)
	Apply(ctx context.Context, leadID uuid.UUID, e qualification.Extraction) error
}

// Handoffs is the escalation surface.
type Handoffs interface {
	OpenFor(ctx context.Context, leadID, projectID uuid.UUID) (handoff.Handoff, error)
	Initiate(ctx context.Context, lead qualification.Lead, trigger string) (handoff.Handoff, error)
	Relay(ctx context.Context, h handoff.Handoff, leadName, text string) error
}

// Documents files uploads and serves document requests.
type Documents interface {
	Finalize(ctx context.Context, u *documents.Upload, uploadedBy string) (documents.Document, error)
	Send(ctx context.Context, phone string, projectID uuid.UUID, category, unit string) error
	StoreTemplate(ctx context.Context, filename string, data []byte) (string, error)
}

// Importer commits confirmed CSV imports.
type Importer interface {
	Commit(ctx context.Context, developerID uuid.UUID, p *imports.ParsedImport) (identity.Project, int, error)
}

// ProjectDirectory lists projects and units for staff flows.
type ProjectDirectory interface {
	ListActiveProjects(ctx context.Context, developerID uuid.UUID) ([]identity.Project, error)
	ListUnits(ctx context.Context, projectID uuid.UUID) ([]identity.Unit, error)
	GetProjectBySlug(ctx context.Context, developerID uuid.UUID, slug string) (identity.Project, error)
}

// Deduper suppresses repeated webhook deliveries.
type Deduper interface {
	FirstSeen(ctx context.Context, messageID string) bool
}

// ActionResolver turns a staff message into an executed action result.
type ActionResolver interface {
	Resolve(ctx context.Context, project *identity.Project, unitList, message string) (reply string, sendTemplate bool)
}

// Router drives the per-message state machine.
type Router struct {
	identity  Identity
	sessions  Sessions
	leads     Leads
	handoffs  Handoffs
	documents Documents
	importer  Importer
	directory ProjectDirectory
	dedupe    Deduper
	responder agent.Responder
	extractor agent.Extractor
	actions   ActionResolver
	sender    whatsapp.Sender
	media     whatsapp.MediaFetcher
	eventBus  events.Bus

	locks     *pending.Locks
	uploads   *pending.Store
	csvImport *pending.Store
	toggles   *pending.Toggles

	log *logger.Logger
}

// Config wires the router's collaborators.
type Config struct {
	Identity  Identity
	Sessions  Sessions
	Leads     Leads
	Handoffs  Handoffs
	Documents Documents
	Importer  Importer
	Directory ProjectDirectory
	Dedupe    Deduper
	Responder agent.Responder
	Extractor agent.Extractor
	Actions   ActionResolver
	Sender    whatsapp.Sender
	Media     whatsapp.MediaFetcher
	EventBus  events.Bus
	Logger    *logger.Logger
}

// NewRouter creates the message router. The pending stores notify the owner
// when an abandoned flow times out.
func NewRouter(cfg Config) *Router {
	r := &Router{
		identity:  cfg.Identity,
		sessions:  cfg.Sessions,
		leads:     cfg.Leads,
		handoffs:  cfg.Handoffs,
		documents: cfg.Documents,
		importer:  cfg.Importer,
		directory: cfg.Directory,
		dedupe:    cfg.Dedupe,
		responder: cfg.Responder,
		extractor: cfg.Extractor,
		actions:   cfg.Actions,
		sender:    cfg.Sender,
		media:     cfg.Media,
		eventBus:  cfg.EventBus,
		locks:     pending.NewLocks(),
		toggles:   pending.NewToggles(),
		log:       cfg.Logger,
	}
	expired := func(phone string, _ any) {
		r.send(context.Background(), phone, "Pasó un rato sin respuesta, así que descarté lo que estábamos cargando. Mandámelo de nuevo cuando quieras.")
	}
	r.uploads = pending.NewStore(pending.DefaultTTL, expired)
	r.csvImport = pending.NewStore(pending.DefaultTTL, expired)
	return r
}

// HandleInbound processes one normalized inbound message. It never returns
// an error upward: every failure is logged and answered with a best-effort
// apology so a single bad message cannot take the process down.
func (r *Router) HandleInbound(ctx context.Context, msg whatsapp.Message) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.WithPhone(msg.SenderPhone).Error("panic handling message",
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			r.send(ctx, msg.SenderPhone, apologyText)
		}
	}()

	bc, err := r.identity.Resolve(ctx, msg.ChannelID)
	if err != nil {
		// Channel noise (misconfigured numbers) is expected: drop silently.
		r.log.Debug("unresolved channel, dropping", "channel_id", msg.ChannelID)
		return
	}

	if !r.dedupe.FirstSeen(ctx, msg.MessageID) {
		r.log.WithPhone(msg.SenderPhone).Debug("duplicate delivery dropped", "message_id", msg.MessageID)
		return
	}

	// Two quick messages from the same phone can race; everything past this
	// point holds the phone's lock.
	release, err := r.locks.Acquire(ctx, msg.SenderPhone)
	if err != nil {
		return
	}
	defer release()

	contact, err := r.identity.LookupContact(ctx, msg.SenderPhone, bc.Developer.ID)
	if err != nil {
		r.log.WithPhone(msg.SenderPhone).Error("contact lookup failed", "error", err)
		r.send(ctx, msg.SenderPhone, apologyText)
		return
	}

	if contact != nil && contact.Status == identity.ContactPending {
		r.handleActivation(ctx, contact, msg)
		return
	}

	if contact != nil && contact.Status == identity.ContactActive {
		if r.handleToggle(ctx, msg) {
			return
		}
		if !r.toggles.LeadMode(msg.SenderPhone) {
			r.handleStaff(ctx, bc, contact, msg)
			return
		}
	}

	r.handleLead(ctx, bc, msg)
}

func (r *Router) handleActivation(ctx context.Context, contact *identity.Contact, msg whatsapp.Message) {
	activated, err := r.identity.TryActivate(ctx, contact, msg.Text)
	if err != nil {
		r.log.WithPhone(msg.SenderPhone).Error("activation failed", "error", err)
		r.send(ctx, msg.SenderPhone, apologyText)
		return
	}
	if activated {
		r.send(ctx, msg.SenderPhone, "✅ ¡Listo, "+contact.Name+"! Tu número quedó activado. Ya podés operar por acá.")
		return
	}
	r.send(ctx, msg.SenderPhone, "Ese código no es válido. Escribí el código de activación que te pasaron, tal cual lo recibiste.")
}

// handleToggle consumes lead-mode trigger phrases. Returns true when the
// message was a toggle command.
func (r *Router) handleToggle(ctx context.Context, msg whatsapp.Message) bool {
	switch sanitize.Fold(msg.Text) {
	case phraseLeadMode:
		r.toggles.SetLeadMode(msg.SenderPhone, true)
		r.send(ctx, msg.SenderPhone, "🧪 Ahora te atiendo como si fueras un interesado. Escribí \""+phraseDevMode+"\" para volver.")
		return true
	case phraseDevMode:
		r.toggles.SetLeadMode(msg.SenderPhone, false)
		r.send(ctx, msg.SenderPhone, "👔 Volviste al modo staff.")
		return true
	}
	return false
}

func (r *Router) send(ctx context.Context, phone, text string) {
	if err := r.sender.SendText(ctx, phone, text); err != nil {
		r.log.WithPhone(phone).Error("send failed", "error", err)
	}
}
