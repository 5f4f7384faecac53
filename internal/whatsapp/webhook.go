package whatsapp

import (
	"context"
	"net/http"

	apphttp "realia_backend/internal/http"
	"realia_backend/platform/config"
	"realia_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// InboundRouter consumes normalized messages. Implemented by the
// conversation router.
type InboundRouter interface {
	HandleInbound(ctx context.Context, msg Message)
}

// cloudPayload mirrors the Cloud API webhook envelope. Only the fields the
// normalizer reads are declared.
type cloudPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Metadata struct {
					PhoneNumberID string `json:"phone_number_id"`
				} `json:"metadata"`
				Messages []cloudMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type cloudMessage struct {
	From string `json:"from"`
	ID   string `json:"id"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
	Audio    *cloudMedia `json:"audio"`
	Image    *cloudMedia `json:"image"`
	Document *cloudMedia `json:"document"`
}

type cloudMedia struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Filename string `json:"filename"`
}

// normalize flattens a Cloud API payload into Message values.
func normalize(payload cloudPayload) []Message {
	var out []Message
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			channelID := change.Value.Metadata.PhoneNumberID
			for _, m := range change.Value.Messages {
				msg := Message{
					SenderPhone: m.From,
					ChannelID:   channelID,
					MessageID:   m.ID,
					Type:        MessageType(m.Type),
				}
				switch {
				case m.Text != nil:
					msg.Text = m.Text.Body
				case m.Document != nil:
					msg.MediaID = m.Document.ID
					msg.MimeType = m.Document.MimeType
					msg.Filename = m.Document.Filename
				case m.Image != nil:
					msg.MediaID = m.Image.ID
					msg.MimeType = m.Image.MimeType
				case m.Audio != nil:
					msg.MediaID = m.Audio.ID
					msg.MimeType = m.Audio.MimeType
				}
				out = append(out, msg)
			}
		}
	}
	return out
}

// Module mounts the WhatsApp webhook endpoints.
type Module struct {
	router      InboundRouter
	verifyToken string
	log         *logger.Logger
}

// NewModule creates the webhook module.
func NewModule(router InboundRouter, cfg config.WhatsAppConfig, log *logger.Logger) *Module {
	return &Module{
		router:      router,
		verifyToken: cfg.GetWhatsAppVerifyToken(),
		log:         log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "whatsapp" }

// RegisterRoutes mounts GET (verification challenge) and POST (messages).
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Webhooks.Group("/whatsapp")
	group.GET("/webhook", m.handleVerify)
	group.POST("/webhook", m.handleReceive)
}

// handleVerify answers the Cloud API subscription challenge.
func (m *Module) handleVerify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token != "" && token == m.verifyToken {
		c.String(http.StatusOK, challenge)
		return
	}
	c.Status(http.StatusForbidden)
}

// handleReceive decodes the provider payload and hands each normalized
// message to the conversation router. Always acknowledges 200: the provider
// retries on non-2xx and routing failures are handled internally.
func (m *Module) handleReceive(c *gin.Context) {
	var payload cloudPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		m.log.Warn("whatsapp webhook: undecodable payload", "error", err)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	messages := normalize(payload)
	for _, msg := range messages {
		m.log.Info("whatsapp inbound",
			"phone", msg.SenderPhone,
			"type", string(msg.Type),
			"messageId", msg.MessageID,
		)
		m.router.HandleInbound(c.Request.Context(), msg)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
