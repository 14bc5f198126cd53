// ABOUTME: Webhook endpoint receiving inbound WhatsApp deliveries from the Cloud API
// ABOUTME: Handles subscription verification, signature checks, dedupe and event dispatch

package whatsapp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/caribefreight/regina-gateway/internal/dedupe"
	"github.com/caribefreight/regina-gateway/internal/engine"
	"github.com/caribefreight/regina-gateway/internal/metrics"
)

// maxPayloadBytes caps how much of a delivery body is read.
const maxPayloadBytes = 1 << 20

// dispatchTimeout bounds one event's processing, which may include
// language-model calls.
const dispatchTimeout = 2 * time.Minute

// Dispatcher consumes inbound conversation events. Satisfied by
// engine.Engine; tests substitute a recorder.
type Dispatcher interface {
	HandleEvent(ctx context.Context, ev engine.Event)
}

// Webhook is the HTTP surface the platform delivers to. Deliveries are
// acknowledged immediately and processed asynchronously; the platform retries
// non-200 responses, so handler-side failures must never surface as errors.
type Webhook struct {
	verifyToken string
	appSecret   string
	seen        *dedupe.Cache
	dispatcher  Dispatcher
	logger      *slog.Logger
}

// NewWebhook creates the webhook surface. verifyToken answers subscription
// handshakes; appSecret, when non-empty, enables payload signature
// verification.
func NewWebhook(verifyToken, appSecret string, seen *dedupe.Cache, dispatcher Dispatcher, logger *slog.Logger) *Webhook {
	if logger == nil {
		logger = slog.Default()
	}
	return &Webhook{
		verifyToken: verifyToken,
		appSecret:   appSecret,
		seen:        seen,
		dispatcher:  dispatcher,
		logger:      logger.With("component", "webhook"),
	}
}

// Routes registers the webhook endpoints on a chi router.
func (wh *Webhook) Routes(r chi.Router) {
	r.Get("/webhook", wh.handleVerify)
	r.Post("/webhook", wh.handleDelivery)
}

// Inbound payload shapes, the subset of the notification format this gateway
// consumes.

type notification struct {
	Object string  `json:"object"`
	Entry  []entry `json:"entry"`
}

type entry struct {
	ID      string   `json:"id"`
	Changes []change `json:"changes"`
}

type change struct {
	Field string      `json:"field"`
	Value changeValue `json:"value"`
}

type changeValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Contacts         []contact        `json:"contacts"`
	Messages         []inboundMessage `json:"messages"`
}

type contact struct {
	WaID    string  `json:"wa_id"`
	Profile profile `json:"profile"`
}

type profile struct {
	Name string `json:"name"`
}

type inboundMessage struct {
	From        string       `json:"from"`
	ID          string       `json:"id"`
	Type        string       `json:"type"`
	Text        *textBody    `json:"text,omitempty"`
	Interactive *interactive `json:"interactive,omitempty"`
}

type interactive struct {
	Type        string       `json:"type"`
	ButtonReply *buttonReply `json:"button_reply,omitempty"`
}

// handleVerify answers the platform's subscription handshake: echo the
// challenge when the verify token matches, 403 otherwise.
func (wh *Webhook) handleVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && q.Get("hub.verify_token") == wh.verifyToken {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(q.Get("hub.challenge")))
		return
	}
	wh.logger.Warn("webhook verification rejected", "mode", q.Get("hub.mode"))
	w.WriteHeader(http.StatusForbidden)
}

// handleDelivery accepts one notification. The response is always 200 for
// authenticated payloads, even when nothing in them is processable, so the
// platform does not retry what we have already decided to drop.
func (wh *Webhook) handleDelivery(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		wh.logger.Warn("reading delivery body failed", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	if !wh.signatureValid(r.Header.Get("X-Hub-Signature-256"), body) {
		wh.logger.Warn("delivery signature mismatch")
		metrics.EventsDropped.WithLabelValues("bad_signature").Inc()
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var n notification
	if err := json.Unmarshal(body, &n); err != nil {
		wh.logger.Warn("unparsable delivery payload", "error", err)
		metrics.EventsDropped.WithLabelValues("unparsable").Inc()
		w.WriteHeader(http.StatusOK)
		return
	}

	for _, ev := range wh.extractEvents(n) {
		go wh.dispatch(ev)
	}
	w.WriteHeader(http.StatusOK)
}

// extractEvents flattens the notification into conversation events, dropping
// duplicates and message types the engine does not consume.
func (wh *Webhook) extractEvents(n notification) []engine.Event {
	var out []engine.Event
	for _, e := range n.Entry {
		for _, ch := range e.Changes {
			names := profileNames(ch.Value.Contacts)
			for _, msg := range ch.Value.Messages {
				ev, ok := wh.toEvent(msg, names)
				if !ok {
					continue
				}
				if msg.ID != "" && wh.seen.Seen(msg.ID) {
					wh.logger.Debug("duplicate delivery suppressed", "message_id", msg.ID)
					metrics.EventsDropped.WithLabelValues("duplicate").Inc()
					continue
				}
				out = append(out, ev)
			}
		}
	}
	return out
}

// toEvent maps one inbound message to a conversation event. Only text and
// interactive button replies are consumable.
func (wh *Webhook) toEvent(msg inboundMessage, names map[string]string) (engine.Event, bool) {
	ev := engine.Event{
		Correspondent: msg.From,
		MessageID:     msg.ID,
		ProfileName:   names[msg.From],
	}
	switch msg.Type {
	case "text":
		if msg.Text == nil || strings.TrimSpace(msg.Text.Body) == "" {
			return engine.Event{}, false
		}
		ev.Kind = engine.EventText
		ev.Text = msg.Text.Body

	case "interactive":
		if msg.Interactive == nil || msg.Interactive.ButtonReply == nil {
			return engine.Event{}, false
		}
		ev.Kind = engine.EventInteractive
		ev.ButtonID = msg.Interactive.ButtonReply.ID

	default:
		wh.logger.Debug("ignoring unsupported message type", "type", msg.Type)
		metrics.EventsDropped.WithLabelValues("unsupported_type").Inc()
		return engine.Event{}, false
	}
	return ev, true
}

// dispatch runs one event through the engine detached from the delivery
// request, which has already been acknowledged.
func (wh *Webhook) dispatch(ev engine.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()
	wh.dispatcher.HandleEvent(ctx, ev)
}

// signatureValid checks the X-Hub-Signature-256 header against the raw body.
// Verification is skipped when no app secret is configured.
func (wh *Webhook) signatureValid(header string, body []byte) bool {
	if wh.appSecret == "" {
		return true
	}
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	want, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(wh.appSecret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), want)
}

func profileNames(contacts []contact) map[string]string {
	names := make(map[string]string, len(contacts))
	for _, c := range contacts {
		if c.WaID != "" {
			names[c.WaID] = c.Profile.Name
		}
	}
	return names
}
