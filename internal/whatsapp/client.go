package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"realia_backend/platform/config"
	"realia_backend/platform/logger"
	"realia_backend/platform/phone"
)

const maxMediaBytes = 64 * 1024 * 1024

// Client talks to the WhatsApp Cloud API (Graph API).
type Client struct {
	baseURL       string
	token         string
	phoneNumberID string
	http          *http.Client
	log           *logger.Logger
}

// NewClient creates a Cloud API client. Returns nil when WhatsApp is not
// configured; a nil client silently drops sends, which keeps local
// development usable without a provider account.
func NewClient(cfg config.WhatsAppConfig, log *logger.Logger) *Client {
	if cfg.GetWhatsAppToken() == "" || cfg.GetWhatsAppPhoneNumberID() == "" {
		return nil
	}

	return &Client{
		baseURL:       strings.TrimRight(cfg.GetWhatsAppAPIURL(), "/"),
		token:         cfg.GetWhatsAppToken(),
		phoneNumberID: cfg.GetWhatsAppPhoneNumberID(),
		http:          &http.Client{Timeout: 15 * time.Second},
		log:           log,
	}
}

type textPayload struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

type documentPayload struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Document         documentBody `json:"document"`
}

type documentBody struct {
	Link     string `json:"link"`
	Filename string `json:"filename,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

// SendText delivers a plain text message.
func (c *Client) SendText(ctx context.Context, phoneNumber, text string) error {
	if c == nil {
		return nil
	}

	payload := textPayload{
		MessagingProduct: "whatsapp",
		To:               phone.Digits(phoneNumber),
		Type:             "text",
		Text:             textBody{Body: text},
	}
	return c.post(ctx, payload)
}

// SendDocument delivers a document by public URL.
func (c *Client) SendDocument(ctx context.Context, phoneNumber, url, filename, caption string) error {
	if c == nil {
		return nil
	}

	payload := documentPayload{
		MessagingProduct: "whatsapp",
		To:               phone.Digits(phoneNumber),
		Type:             "document",
		Document:         documentBody{Link: url, Filename: filename, Caption: caption},
	}
	return c.post(ctx, payload)
}

func (c *Client) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("whatsapp api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return nil
}

type mediaLookupResponse struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}

// DownloadMedia resolves a media id to its temporary URL and downloads the
// bytes. Returns content and mime type.
func (c *Client) DownloadMedia(ctx context.Context, mediaID string) ([]byte, string, error) {
	if c == nil {
		return nil, "", fmt.Errorf("whatsapp client not configured")
	}

	lookupURL := fmt.Sprintf("%s/%s", c.baseURL, mediaID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("media lookup failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, "", fmt.Errorf("media lookup returned %d", resp.StatusCode)
	}

	var lookup mediaLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lookup); err != nil {
		return nil, "", fmt.Errorf("decode media lookup: %w", err)
	}
	if lookup.URL == "" {
		return nil, "", fmt.Errorf("media %s has no download url", mediaID)
	}

	dlReq, err := http.NewRequestWithContext(ctx, http.MethodGet, lookup.URL, nil)
	if err != nil {
		return nil, "", err
	}
	dlReq.Header.Set("Authorization", "Bearer "+c.token)

	dlResp, err := c.http.Do(dlReq)
	if err != nil {
		return nil, "", fmt.Errorf("media download failed: %w", err)
	}
	defer func() {
		_ = dlResp.Body.Close()
	}()

	if dlResp.StatusCode >= http.StatusBadRequest {
		return nil, "", fmt.Errorf("media download returned %d", dlResp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(dlResp.Body, maxMediaBytes))
	if err != nil {
		return nil, "", err
	}

	c.log.Debug("downloaded whatsapp media", "mediaId", mediaID, "bytes", len(data))
	return data, lookup.MimeType, nil
}
