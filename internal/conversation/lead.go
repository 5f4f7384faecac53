package conversation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"realia_backend/internal/agent"
	"realia_backend/internal/events"
	"realia_backend/internal/identity"
	"realia_backend/internal/marker"
	"realia_backend/internal/qualification"
	"realia_backend/internal/session"
	"realia_backend/internal/whatsapp"
	"realia_backend/platform/sanitize"
)

// humanPhrases are the folded substrings that escalate a lead to a person.
var humanPhrases = []string{
	"hablar con un humano",
	"hablar con una persona",
	"hablar con alguien",
	"atencion humana",
	"un asesor",
	"una persona real",
	"quiero hablar con",
}

const backgroundTimeout = 30 * time.Second

// handleLead runs the assistant turn for a prospective buyer.
func (r *Router) handleLead(ctx context.Context, bc identity.BusinessContext, msg whatsapp.Message) {
	log := r.log.WithPhone(msg.SenderPhone)

	project := bc.DefaultProject
	if project == nil {
		log.Warn("no default project for channel, dropping lead message", "channel_id", msg.ChannelID)
		return
	}

	if msg.Type != whatsapp.TypeText || msg.Text == "" {
		r.send(ctx, msg.SenderPhone, "Por ahora solo puedo leer mensajes de texto. ¿Me contás por escrito?")
		return
	}

	sess, err := r.sessions.GetOrCreate(ctx, bc.Developer.ID, project.ID, msg.SenderPhone)
	if err != nil {
		log.Error("session get-or-create failed", "error", err)
		r.send(ctx, msg.SenderPhone, apologyText)
		return
	}

	// While a handoff is open the bot steps aside: the message is stored
	// and, if a human is already attending, relayed to their thread.
	if h, err := r.handoffs.OpenFor(ctx, sess.LeadID, project.ID); err == nil && h.Open() {
		if err := r.sessions.RecordInbound(ctx, sess.ID, msg.Text); err != nil {
			log.Error("record inbound during handoff", "error", err)
		}
		lead, err := r.leads.Get(ctx, sess.LeadID)
		if err != nil {
			log.Error("lead load during handoff", "error", err)
			return
		}
		if err := r.handoffs.Relay(ctx, h, lead.DisplayName(), msg.Text); err != nil {
			log.Warn("relay to thread failed", "error", err)
		}
		return
	}

	if err := r.sessions.RecordInbound(ctx, sess.ID, msg.Text); err != nil {
		log.Error("record inbound failed", "error", err)
	}

	if wantsHuman(msg.Text) {
		r.escalate(ctx, sess.LeadID, msg.SenderPhone)
		return
	}

	lead, err := r.leads.Get(ctx, sess.LeadID)
	if err != nil {
		log.Error("lead load failed", "error", err)
		r.send(ctx, msg.SenderPhone, apologyText)
		return
	}

	reply := r.generateReply(ctx, project, lead, sess, msg.Text)
	if reply == "" {
		r.send(ctx, msg.SenderPhone, apologyText)
		return
	}

	clean, directive := marker.Extract(reply)
	if err := r.sessions.RecordReply(ctx, sess.ID, clean); err != nil {
		log.Error("record reply failed", "error", err)
	}
	r.send(ctx, msg.SenderPhone, clean)

	// Qualification extraction and document delivery are best effort and
	// must not block the reply path.
	bg := context.WithoutCancel(ctx)
	go r.extractAndApply(bg, sess.LeadID, msg.SenderPhone, msg.Text, clean)
	if directive != nil {
		go r.sendDirectedDocument(bg, bc, project, msg.SenderPhone, directive)
	}

	r.eventBus.Publish(ctx, events.LeadWentQuiet{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      sess.LeadID,
		DeveloperID: bc.Developer.ID,
		Phone:       msg.SenderPhone,
	})
}

func (r *Router) generateReply(ctx context.Context, project *identity.Project, lead qualification.Lead, sess session.Session, text string) string {
	log := r.log.WithPhone(sess.Phone)

	history, err := r.sessions.History(ctx, sess.ID)
	if err != nil {
		log.Error("history load failed", "error", err)
		history = nil
	}

	units, err := r.directory.ListUnits(ctx, project.ID)
	if err != nil {
		log.Error("list units failed", "error", err)
	}

	snap := qualification.Summarize(lead.Qualification)
	req := agent.ReplyRequest{
		ProjectContext: BuildProjectContext(project, units),
		Known:          snap.Known,
		Missing:        snap.Missing,
		History:        toTurns(history),
		Message:        text,
	}

	reply, err := r.responder.Reply(ctx, req)
	if err != nil {
		log.Error("reply generation failed", "error", err)
		return ""
	}
	return reply
}

func (r *Router) escalate(ctx context.Context, leadID uuid.UUID, phone string) {
	log := r.log.WithPhone(phone)

	lead, err := r.leads.Get(ctx, leadID)
	if err != nil {
		log.Error("lead load for escalation failed", "error", err)
		r.send(ctx, phone, apologyText)
		return
	}
	if _, err := r.handoffs.Initiate(ctx, lead, "pedido del lead"); err != nil {
		log.Error("handoff initiation failed", "error", err)
		r.send(ctx, phone, apologyText)
	}
}

// extractAndApply runs the slow qualification pass after the reply went out.
func (r *Router) extractAndApply(ctx context.Context, leadID uuid.UUID, phone, userMessage, reply string) {
	ctx, cancel := context.WithTimeout(ctx, backgroundTimeout)
	defer cancel()

	extraction, err := r.extractor.Extract(ctx, userMessage, reply)
	if err != nil {
		r.log.WithPhone(phone).Warn("qualification extraction failed", "error", err)
		return
	}
	if err := r.leads.Apply(ctx, leadID, extraction); err != nil {
		r.log.WithPhone(phone).Error("qualification apply failed", "error", err)
	}
}

// sendDirectedDocument resolves an inline send token to a stored document.
func (r *Router) sendDirectedDocument(ctx context.Context, bc identity.BusinessContext, current *identity.Project, phone string, d *marker.Directive) {
	ctx, cancel := context.WithTimeout(ctx, backgroundTimeout)
	defer cancel()

	projectID := current.ID
	if d.ListingSlug != "" && d.ListingSlug != current.Slug {
		p, err := r.directory.GetProjectBySlug(ctx, bc.Developer.ID, d.ListingSlug)
		if err != nil {
			r.log.WithPhone(phone).Warn("unknown listing in send token", "slug", d.ListingSlug)
			return
		}
		projectID = p.ID
	}

	if err := r.documents.Send(ctx, phone, projectID, d.Category, d.Unit); err != nil {
		r.log.WithPhone(phone).Warn("directed document send failed",
			"category", d.Category,
			"unit", d.Unit,
			"error", err,
		)
		r.send(ctx, phone, "No tengo ese documento cargado todavía, pero le aviso al equipo para que te lo acerque.")
	}
}

func toTurns(history []session.HistoryMessage) []agent.Turn {
	turns := make([]agent.Turn, 0, len(history))
	for _, m := range history {
		turns = append(turns, agent.Turn{Role: m.Role, Content: m.Content})
	}
	return turns
}

func wantsHuman(text string) bool {
	folded := sanitize.Fold(text)
	for _, phrase := range humanPhrases {
		if strings.Contains(folded, phrase) {
			return true
		}
	}
	return false
}
