// ABOUTME: WhatsApp Cloud API client implementing the engine's Transport contract
// ABOUTME: Sends text messages, interactive reply buttons and read receipts via the Graph API

package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/caribefreight/regina-gateway/internal/engine"
)

const (
	defaultBaseURL = "https://graph.facebook.com"
	defaultTimeout = 15 * time.Second

	// The platform rejects interactive messages with more than three buttons.
	maxButtons = 3
)

// Client talks to the WhatsApp Cloud API for one business phone number.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	apiVersion    string
	phoneNumberID string
	token         string
	logger        *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the Graph API base URL, mainly for tests.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Cloud API client. token authenticates every request;
// phoneNumberID selects the sending business number; apiVersion is the Graph
// API version path segment (for example "v21.0").
func NewClient(token, phoneNumberID, apiVersion string, logger *slog.Logger, opts ...ClientOption) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		httpClient:    &http.Client{Timeout: defaultTimeout},
		baseURL:       defaultBaseURL,
		apiVersion:    apiVersion,
		phoneNumberID: phoneNumberID,
		token:         token,
		logger:        logger.With("component", "whatsapp"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Outbound payload shapes for the /messages endpoint.

type textPayload struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

type interactivePayload struct {
	MessagingProduct string          `json:"messaging_product"`
	To               string          `json:"to"`
	Type             string          `json:"type"`
	Interactive      interactiveBody `json:"interactive"`
}

type interactiveBody struct {
	Type   string            `json:"type"`
	Body   textBody          `json:"body"`
	Action interactiveAction `json:"action"`
}

type interactiveAction struct {
	Buttons []replyButton `json:"buttons"`
}

type replyButton struct {
	Type  string      `json:"type"`
	Reply buttonReply `json:"reply"`
}

type buttonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type readReceiptPayload struct {
	MessagingProduct string `json:"messaging_product"`
	Status           string `json:"status"`
	MessageID        string `json:"message_id"`
}

// SendText sends a plain text message.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	return c.post(ctx, textPayload{
		MessagingProduct: "whatsapp",
		To:               to,
		Text:             textBody{Body: body},
	})
}

// SendButtons sends an interactive message with reply buttons. Buttons beyond
// the platform limit of three are dropped with a warning.
func (c *Client) SendButtons(ctx context.Context, to, body string, buttons []engine.Button) error {
	if len(buttons) > maxButtons {
		c.logger.Warn("truncating interactive buttons", "requested", len(buttons), "max", maxButtons)
		buttons = buttons[:maxButtons]
	}
	replies := make([]replyButton, len(buttons))
	for i, b := range buttons {
		replies[i] = replyButton{
			Type:  "reply",
			Reply: buttonReply{ID: b.ID, Title: b.Title},
		}
	}
	return c.post(ctx, interactivePayload{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "interactive",
		Interactive: interactiveBody{
			Type:   "button",
			Body:   textBody{Body: body},
			Action: interactiveAction{Buttons: replies},
		},
	})
}

// MarkRead sends a read receipt for an inbound message.
func (c *Client) MarkRead(ctx context.Context, messageID string) error {
	return c.post(ctx, readReceiptPayload{
		MessagingProduct: "whatsapp",
		Status:           "read",
		MessageID:        messageID,
	})
}

// post sends one payload to the business number's /messages endpoint.
func (c *Client) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.apiVersion, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending to cloud api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("cloud api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}
