// Package whatsapp provides the WhatsApp Cloud API client and the inbound
// webhook that normalizes provider payloads into Message values. Everything
// past this package works with Message and the Sender/MediaFetcher
// interfaces, never with provider wire formats.
package whatsapp

import "context"

// MessageType classifies an inbound message.
type MessageType string

const (
	TypeText     MessageType = "text"
	TypeAudio    MessageType = "audio"
	TypeImage    MessageType = "image"
	TypeDocument MessageType = "document"
	TypeLocation MessageType = "location"
)

// Message is the normalized inbound message shape, provider-agnostic.
type Message struct {
	SenderPhone string
	// ChannelID is the routing identifier of the receiving number
	// (Cloud API phone_number_id), used to resolve the tenant.
	ChannelID string
	MessageID string
	Type      MessageType
	Text      string
	MediaID   string
	Filename  string
	MimeType  string
}

// Sender delivers outbound messages to a phone number.
type Sender interface {
	SendText(ctx context.Context, phone, text string) error
	SendDocument(ctx context.Context, phone, url, filename, caption string) error
}

// MediaFetcher downloads inbound media by its provider media id.
type MediaFetcher interface {
	DownloadMedia(ctx context.Context, mediaID string) ([]byte, string, error)
}
