// ABOUTME: ConversationEngine state machine driving the quote-request and assistance flows
// ABOUTME: Consumes inbound events, serializes per correspondent, and coordinates all collaborators

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caribefreight/regina-gateway/internal/ai"
	"github.com/caribefreight/regina-gateway/internal/ledger"
	"github.com/caribefreight/regina-gateway/internal/metrics"
	"github.com/caribefreight/regina-gateway/internal/normalize"
	"github.com/caribefreight/regina-gateway/internal/rates"
	"github.com/caribefreight/regina-gateway/internal/session"
	"github.com/caribefreight/regina-gateway/internal/store"
)

// retryBackoff is the pause before the single retry of an idempotent read.
const retryBackoff = 500 * time.Millisecond

// Event kinds delivered by the transport.
const (
	EventText        = "text"
	EventInteractive = "interactive"
)

// Button option ids understood by the state machine.
const (
	ButtonNewRequest       = "new_request"
	ButtonAskQuestion      = "ask_me_a_question"
	ButtonFinished         = "finished"
	ButtonContinueQuestion = "continue_question"
)

// Event is one inbound conversation event from the transport collaborator.
type Event struct {
	Correspondent string
	MessageID     string
	Kind          string // EventText or EventInteractive
	Text          string
	ButtonID      string
	ProfileName   string
}

// Button is one reply button in an interactive prompt.
type Button struct {
	ID    string
	Title string
}

// Transport is what the engine needs from the messaging layer. Sends are
// fire-and-forget from the engine's perspective; failures are logged, never
// propagated into the state machine.
type Transport interface {
	SendText(ctx context.Context, to, body string) error
	SendButtons(ctx context.Context, to, body string, buttons []Button) error
	MarkRead(ctx context.Context, messageID string) error
}

// AI is the language-model collaborator contract: field extraction,
// best-offer selection and open-ended assistance.
type AI interface {
	ExtractDraft(ctx context.Context, text string) (session.Draft, error)
	SelectBestOffer(ctx context.Context, draft session.Draft, candidates []rates.Record) (rates.Record, error)
	Assist(ctx context.Context, history []session.Turn) (string, error)
}

// User-facing copy.
const (
	msgWelcomeMenu     = "Choose an option"
	msgNewRequest      = "Great! Please, type all your requirements (POL - POD, Container type, empty pickup city, commodity)"
	msgAskQuestion     = "Awesome! How can I help you today?"
	msgFinished        = "Thank you for using our service. Have a great day!"
	msgInvalidOption   = "Please choose a valid option."
	msgRequestReceived = "Thank you for your request! We will be back soon with the best offer."
	msgProcessed       = "Your request has been processed."
	msgAnotherRequest  = "Do you want to send another request?"
	msgOfferUnusable   = "We couldn't determine a best offer based on your details. Could you please recheck your requirements and try again?"
	msgAssistFailed    = "Sorry, there was an error processing your request."
	msgAssistFollowUp  = "Was the response helpful? You can continue the conversation or end it."
)

// Engine is the per-correspondent conversation state machine.
type Engine struct {
	sessions  *session.Store
	store     store.Store
	allocator *ledger.Allocator
	matcher   *rates.Engine
	transport Transport
	ai        AI
	logger    *slog.Logger
	loc       *time.Location
	now       func() time.Time
}

// New creates a conversation engine with its collaborators. Outcome
// timestamps are recorded in the America/Bogota zone when available, UTC
// otherwise.
func New(sessions *session.Store, st store.Store, alloc *ledger.Allocator, matcher *rates.Engine, transport Transport, aiClient AI, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := time.LoadLocation("America/Bogota")
	if err != nil {
		loc = time.UTC
	}
	return &Engine{
		sessions:  sessions,
		store:     st,
		allocator: alloc,
		matcher:   matcher,
		transport: transport,
		ai:        aiClient,
		logger:    logger.With("component", "engine"),
		loc:       loc,
		now:       time.Now,
	}
}

// HandleEvent processes one inbound event. This is the only log-and-continue
// boundary: no failure escapes to the caller, and every failure is scoped to
// the one correspondent being handled. Events for the same correspondent
// serialize on the session store's per-key lock.
func (e *Engine) HandleEvent(ctx context.Context, ev Event) {
	if ev.Correspondent == "" || (ev.Kind != EventText && ev.Kind != EventInteractive) {
		metrics.EventsDropped.WithLabelValues("malformed").Inc()
		e.logger.Warn("dropping malformed event", "kind", ev.Kind, "message_id", ev.MessageID)
		return
	}
	metrics.EventsTotal.WithLabelValues(ev.Kind).Inc()

	e.sessions.Lock(ev.Correspondent)
	defer e.sessions.Unlock(ev.Correspondent)

	sess := e.sessions.Get(ev.Correspondent)

	if !sess.Welcomed {
		e.sendWelcome(ctx, ev)
		sess.Welcomed = true
	}

	var err error
	switch ev.Kind {
	case EventInteractive:
		err = e.handleButton(ctx, sess, ev)
	case EventText:
		err = e.handleText(ctx, sess, ev)
	}
	if err != nil {
		e.logger.Error("event handling failed",
			"error", err,
			"correspondent", ev.Correspondent,
			"state", sess.State)
	}

	if ev.MessageID != "" {
		e.send(ctx, func() error { return e.transport.MarkRead(ctx, ev.MessageID) }, "mark read")
	}
}

// sendWelcome greets a correspondent once: a personal greeting followed by
// the two-option welcome menu.
func (e *Engine) sendWelcome(ctx context.Context, ev Event) {
	name := strings.TrimSpace(ev.ProfileName)
	if name == "" {
		name = "trader"
	}
	greeting := fmt.Sprintf("Hello %s, it's Regina. How can I help you today?", name)
	e.send(ctx, func() error { return e.transport.SendText(ctx, ev.Correspondent, greeting) }, "welcome")
	e.send(ctx, func() error {
		return e.transport.SendButtons(ctx, ev.Correspondent, msgWelcomeMenu, []Button{
			{ID: ButtonNewRequest, Title: "New Request"},
			{ID: ButtonAskQuestion, Title: "Ask me a question"},
		})
	}, "welcome menu")
}

func (e *Engine) handleButton(ctx context.Context, sess *session.Session, ev Event) error {
	option := strings.ToLower(strings.TrimSpace(ev.ButtonID))
	switch option {
	case ButtonNewRequest:
		sess.State = session.StateCollectingInfo
		sess.Draft = session.Draft{}
		e.send(ctx, func() error { return e.transport.SendText(ctx, ev.Correspondent, msgNewRequest) }, "new request prompt")

	case ButtonAskQuestion:
		sess.State = session.StateAwaitingAssistance
		sess.Assistance = nil
		e.send(ctx, func() error { return e.transport.SendText(ctx, ev.Correspondent, msgAskQuestion) }, "assistance prompt")

	case ButtonFinished:
		sess.Reset()
		e.send(ctx, func() error { return e.transport.SendText(ctx, ev.Correspondent, msgFinished) }, "farewell")

	case ButtonContinueQuestion:
		// Remain in the assistance flow and wait for the next question.

	default:
		e.send(ctx, func() error { return e.transport.SendText(ctx, ev.Correspondent, msgInvalidOption) }, "invalid option")
	}
	return nil
}

func (e *Engine) handleText(ctx context.Context, sess *session.Session, ev Event) error {
	switch sess.State {
	case session.StateCollectingInfo:
		return e.handleRequestText(ctx, sess, ev)
	case session.StateAwaitingAssistance:
		return e.handleAssistanceText(ctx, sess, ev)
	default:
		// Idle text is ignored beyond the one-time welcome.
		return nil
	}
}

// handleRequestText runs the data-collection step: extraction, merge,
// completeness check, and on completion the full processing branch.
func (e *Engine) handleRequestText(ctx context.Context, sess *session.Session, ev Event) error {
	extracted, err := e.ai.ExtractDraft(ctx, ev.Text)
	if err != nil {
		if !errors.Is(err, ai.ErrUnparsable) {
			metrics.CollaboratorErrors.WithLabelValues("extraction").Inc()
			return fmt.Errorf("extraction failed: %w", err)
		}
		// Unparsable output is treated as an all-empty extraction.
		extracted = session.Draft{}
	}

	sess.Draft.Merge(normalizeDraft(extracted))

	if !sess.Draft.Complete() {
		missing := sess.Draft.Missing()
		// Deliberate start-over policy: the draft resets rather than
		// retrying partially.
		sess.Draft = session.Draft{}
		reply := fmt.Sprintf("I couldn't find all the details I need. Missing: %s. Please send the full requirements again.",
			strings.Join(missing, ", "))
		e.send(ctx, func() error { return e.transport.SendText(ctx, ev.Correspondent, reply) }, "missing fields")
		return nil
	}

	sess.State = session.StateProcessing
	e.send(ctx, func() error { return e.transport.SendText(ctx, ev.Correspondent, msgRequestReceived) }, "request ack")

	if err := e.processRequest(ctx, sess, ev.Correspondent); err != nil {
		// Abandon the remaining steps but leave the session re-enterable:
		// the draft is intact and the next text retries processing.
		sess.State = session.StateCollectingInfo
		return err
	}

	e.sendEpilogue(ctx, ev.Correspondent)
	sess.EndCycle()
	return nil
}

// processRequest matches the completed draft against the dataset and logs
// either a complete or a pending outcome.
func (e *Engine) processRequest(ctx context.Context, sess *session.Session, correspondent string) error {
	records, err := e.readRates(ctx)
	if err != nil {
		metrics.CollaboratorErrors.WithLabelValues("dataset").Inc()
		return fmt.Errorf("reading rate dataset: %w", err)
	}

	draft := sess.Draft
	query := rates.NewQuery(draft.POL, draft.POD, draft.ContainerType, draft.EmptyPickup)
	candidates := e.matcher.Filter(normalizeRecords(records), query)

	if len(candidates) == 0 {
		return e.logPending(ctx, correspondent, draft)
	}

	offer, err := e.ai.SelectBestOffer(ctx, draft, candidates)
	if err != nil && !errors.Is(err, ai.ErrUnparsable) {
		metrics.CollaboratorErrors.WithLabelValues("selection").Inc()
		return fmt.Errorf("offer selection failed: %w", err)
	}
	if err != nil || !offer.UsableOffer() {
		// Candidates existed but no usable offer came back: surface a retry
		// request and log nothing.
		e.send(ctx, func() error { return e.transport.SendText(ctx, correspondent, msgOfferUnusable) }, "offer unusable")
		return nil
	}

	return e.logComplete(ctx, correspondent, draft, offer)
}

// logComplete allocates a request id, records the complete outcome and sends
// the offer summary.
func (e *Engine) logComplete(ctx context.Context, correspondent string, draft session.Draft, offer rates.Record) error {
	requestID, err := e.allocator.Allocate(ctx, store.OutcomeComplete)
	if err != nil {
		metrics.CollaboratorErrors.WithLabelValues("ledger").Inc()
		return fmt.Errorf("allocating request id: %w", err)
	}

	outcome := &store.Outcome{
		RequestID:     requestID,
		Correspondent: correspondent,
		Kind:          store.OutcomeComplete,
		RecordedAt:    e.now().In(e.loc),
		POL:           offer.POL,
		POD:           offer.POD,
		Cost:          offer.Cost,
		FreeDaysPOL:   offer.FreeDaysPOL,
		FreeDaysPOD:   offer.FreeDaysPOD,
		ShippingLine:  offer.ShippingLine,
		Validity:      offer.Validity,
		ContainerType: offer.ContainerType,
		EmptyPickup:   offer.EmptyPickup,
		Commodity:     draft.Commodity,
	}
	if err := e.store.AppendOutcome(ctx, outcome); err != nil {
		metrics.CollaboratorErrors.WithLabelValues("ledger").Inc()
		return fmt.Errorf("logging complete outcome: %w", err)
	}
	metrics.OutcomesTotal.WithLabelValues(store.OutcomeComplete).Inc()

	e.send(ctx, func() error { return e.transport.SendText(ctx, correspondent, offerSummary(offer)) }, "offer summary")
	e.logger.Info("complete request logged",
		"request_id", requestID,
		"correspondent", correspondent,
		"pol", offer.POL,
		"pod", offer.POD)
	return nil
}

// logPending allocates a request id and records the pending outcome with the
// draft fields. No collaborator selection happens on this path.
func (e *Engine) logPending(ctx context.Context, correspondent string, draft session.Draft) error {
	requestID, err := e.allocator.Allocate(ctx, store.OutcomePending)
	if err != nil {
		metrics.CollaboratorErrors.WithLabelValues("ledger").Inc()
		return fmt.Errorf("allocating request id: %w", err)
	}

	outcome := &store.Outcome{
		RequestID:     requestID,
		Correspondent: correspondent,
		Kind:          store.OutcomePending,
		RecordedAt:    e.now().In(e.loc),
		POL:           draft.POL,
		POD:           draft.POD,
		ContainerType: draft.ContainerType,
		EmptyPickup:   draft.EmptyPickup,
		Commodity:     draft.Commodity,
	}
	if err := e.store.AppendOutcome(ctx, outcome); err != nil {
		metrics.CollaboratorErrors.WithLabelValues("ledger").Inc()
		return fmt.Errorf("logging pending outcome: %w", err)
	}
	metrics.OutcomesTotal.WithLabelValues(store.OutcomePending).Inc()

	e.logger.Info("pending request logged",
		"request_id", requestID,
		"correspondent", correspondent,
		"pol", draft.POL,
		"pod", draft.POD)
	return nil
}

// handleAssistanceText runs one turn of the expert Q&A flow with the full
// ordered history.
func (e *Engine) handleAssistanceText(ctx context.Context, sess *session.Session, ev Event) error {
	sess.Assistance = append(sess.Assistance, session.Turn{Role: "user", Content: ev.Text})

	reply, err := e.ai.Assist(ctx, sess.Assistance)
	if err != nil {
		metrics.CollaboratorErrors.WithLabelValues("assistance").Inc()
		e.send(ctx, func() error { return e.transport.SendText(ctx, ev.Correspondent, msgAssistFailed) }, "assistance failure")
		return fmt.Errorf("assistance failed: %w", err)
	}
	sess.Assistance = append(sess.Assistance, session.Turn{Role: "assistant", Content: reply})

	e.send(ctx, func() error { return e.transport.SendText(ctx, ev.Correspondent, reply) }, "assistance reply")
	e.send(ctx, func() error {
		return e.transport.SendButtons(ctx, ev.Correspondent, msgAssistFollowUp, []Button{
			{ID: ButtonFinished, Title: "End conversation"},
			{ID: ButtonContinueQuestion, Title: "Ask another question"},
		})
	}, "assistance menu")
	return nil
}

// sendEpilogue closes a request cycle with the "another request?" prompt.
func (e *Engine) sendEpilogue(ctx context.Context, correspondent string) {
	e.send(ctx, func() error { return e.transport.SendText(ctx, correspondent, msgProcessed) }, "processed notice")
	e.send(ctx, func() error {
		return e.transport.SendButtons(ctx, correspondent, msgAnotherRequest, []Button{
			{ID: ButtonNewRequest, Title: "Yes!"},
			{ID: ButtonFinished, Title: "No, Thank you"},
		})
	}, "another request menu")
}

// readRates reads the dataset snapshot, retrying the idempotent read once.
func (e *Engine) readRates(ctx context.Context) ([]rates.Record, error) {
	records, err := e.store.ReadRates(ctx)
	if err == nil {
		return records, nil
	}
	if waitErr := sleepCtx(ctx, retryBackoff); waitErr != nil {
		return nil, waitErr
	}
	return e.store.ReadRates(ctx)
}

// sleepCtx waits for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// send runs a fire-and-forget transport call, logging failures.
func (e *Engine) send(ctx context.Context, fn func() error, what string) {
	if err := fn(); err != nil {
		metrics.CollaboratorErrors.WithLabelValues("transport").Inc()
		e.logger.Error("transport send failed", "error", err, "send", what)
	}
}

// normalizeDraft applies the deterministic canonical tables on top of what
// the extraction collaborator returned, keeping the query side symmetric
// with the dataset side.
func normalizeDraft(d session.Draft) session.Draft {
	out := session.Draft{
		POL:           normalize.StandardizePort(d.POL),
		POD:           normalize.StandardizePort(d.POD),
		ContainerType: normalize.StandardizeContainer(d.ContainerType),
		Commodity:     normalize.StandardizeCommodity(d.Commodity),
	}
	if strings.TrimSpace(d.EmptyPickup) != "" {
		out.EmptyPickup = normalize.StandardizePickupCity(d.EmptyPickup)
	}
	return out
}

// normalizeRecords canonicalizes dataset rows with the same tables as the
// query side.
func normalizeRecords(records []rates.Record) []rates.Record {
	out := make([]rates.Record, len(records))
	for i, r := range records {
		n := r
		n.POL = normalize.StandardizePort(r.POL)
		n.POD = normalize.StandardizePort(r.POD)
		n.ContainerType = normalize.StandardizeContainer(r.ContainerType)
		// Rows with no pickup value stay empty so the filter excludes them;
		// only supplied values are canonicalized.
		if strings.TrimSpace(r.EmptyPickup) != "" {
			n.EmptyPickup = normalize.StandardizePickupCity(r.EmptyPickup)
		}
		out[i] = n
	}
	return out
}

// offerSummary formats the best-offer reply.
func offerSummary(offer rates.Record) string {
	return fmt.Sprintf(`Best Offer:
Port of Origin: %s
Port of Destination: %s
Container Type: %s
Cost: %s
FDO: %s, FDD: %s
Shipping Line: %s
Empty Pickup City: %s
Valid to: %s.`,
		offer.POL, offer.POD, offer.ContainerType, offer.Cost,
		offer.FreeDaysPOL, offer.FreeDaysPOD, offer.ShippingLine,
		offer.EmptyPickup, offer.Validity)
}
