// ABOUTME: OpenAI-backed collaborator for field extraction, best-offer selection and assistance
// ABOUTME: Model output is strict JSON dictionaries; fenced or unparsable replies surface ErrUnparsable

package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/caribefreight/regina-gateway/internal/rates"
	"github.com/caribefreight/regina-gateway/internal/session"
)

// ErrUnparsable is returned when the model reply cannot be decoded as the
// expected JSON dictionary. Callers treat extraction failures the same as an
// all-empty extraction.
var ErrUnparsable = errors.New("unparsable model output")

// defaultTimeout bounds a single model call.
const defaultTimeout = 30 * time.Second

// Client wraps the OpenAI API for the three collaborator roles.
type Client struct {
	api     openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithModel overrides the chat model (default gpt-4o-mini).
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient creates a collaborator client with the given API key.
func NewClient(apiKey string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		api:     openai.NewClient(option.WithAPIKey(apiKey)),
		model:   "gpt-4o-mini",
		timeout: defaultTimeout,
		logger:  logger.With("component", "ai"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// draftWire is the extraction dictionary shape the model returns.
type draftWire struct {
	POL           string `json:"pol"`
	POD           string `json:"pod"`
	ContainerType string `json:"type_container"`
	EmptyPickup   string `json:"empty_pickup"`
	Commodity     string `json:"commodity"`
}

// offerWire is the selection dictionary shape the model returns.
type offerWire struct {
	POL           string `json:"pol"`
	POD           string `json:"pod"`
	Cost          string `json:"cost"`
	FDO           string `json:"FDO"`
	FDD           string `json:"FDD"`
	ShippingLine  string `json:"shipping_line"`
	Validity      string `json:"validity"`
	ContainerType string `json:"type_container"`
	EmptyPickup   string `json:"empty_pickup"`
}

// ExtractDraft asks the model to pull the request fields out of free text.
// Unparsable model output returns ErrUnparsable with a zero draft.
func (c *Client) ExtractDraft(ctx context.Context, text string) (session.Draft, error) {
	content, err := c.complete(ctx, extractPrompt, text, 0.0)
	if err != nil {
		return session.Draft{}, err
	}

	var wire draftWire
	if err := decodeDictionary(content, &wire); err != nil {
		c.logger.Warn("extraction output unparsable", "error", err)
		return session.Draft{}, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}

	return session.Draft{
		POL:           wire.POL,
		POD:           wire.POD,
		ContainerType: wire.ContainerType,
		EmptyPickup:   wire.EmptyPickup,
		Commodity:     wire.Commodity,
	}, nil
}

// SelectBestOffer asks the model to pick the cheapest strict match from the
// candidate set. The returned record may be unusable (missing pol, pod or
// cost); the caller decides how to handle that.
func (c *Client) SelectBestOffer(ctx context.Context, draft session.Draft, candidates []rates.Record) (rates.Record, error) {
	input, err := json.Marshal(map[string]any{
		"request": draftWire{
			POL:           draft.POL,
			POD:           draft.POD,
			ContainerType: draft.ContainerType,
			EmptyPickup:   draft.EmptyPickup,
			Commodity:     draft.Commodity,
		},
		"dataset": candidatesWire(candidates),
	})
	if err != nil {
		return rates.Record{}, fmt.Errorf("encoding candidates: %w", err)
	}

	content, err := c.complete(ctx, selectPrompt, string(input), 0.0)
	if err != nil {
		return rates.Record{}, err
	}

	var wire offerWire
	if err := decodeDictionary(content, &wire); err != nil {
		c.logger.Warn("selection output unparsable", "error", err)
		return rates.Record{}, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}

	return rates.Record{
		POL:           wire.POL,
		POD:           wire.POD,
		Cost:          wire.Cost,
		FreeDaysPOL:   wire.FDO,
		FreeDaysPOD:   wire.FDD,
		ShippingLine:  wire.ShippingLine,
		Validity:      wire.Validity,
		ContainerType: wire.ContainerType,
		EmptyPickup:   wire.EmptyPickup,
	}, nil
}

// Assist answers one turn of the expert Q&A flow given the full ordered
// history.
func (c *Client) Assist(ctx context.Context, history []session.Turn) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	messages = append(messages, openai.SystemMessage(assistPrompt))
	for _, turn := range history {
		switch turn.Role {
		case "assistant":
			messages = append(messages, openai.AssistantMessage(turn.Content))
		default:
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	completion, err := c.api.Chat.Completions.New(callCtx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    messages,
		Temperature: openai.Float(0.7),
	})
	if err != nil {
		return "", fmt.Errorf("assistance request failed: %w", err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty assistance response")
	}
	return completion.Choices[0].Message.Content, nil
}

// complete runs one system+user completion and returns the raw content.
func (c *Client) complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	completion, err := c.api.Chat.Completions.New(callCtx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}
	return completion.Choices[0].Message.Content, nil
}

func candidatesWire(candidates []rates.Record) []offerWire {
	out := make([]offerWire, 0, len(candidates))
	for _, r := range candidates {
		out = append(out, offerWire{
			POL:           r.POL,
			POD:           r.POD,
			Cost:          r.Cost,
			FDO:           r.FreeDaysPOL,
			FDD:           r.FreeDaysPOD,
			ShippingLine:  r.ShippingLine,
			Validity:      r.Validity,
			ContainerType: r.ContainerType,
			EmptyPickup:   r.EmptyPickup,
		})
	}
	return out
}

// decodeDictionary strips markdown code fences the model sometimes adds and
// decodes the remaining JSON object.
func decodeDictionary(content string, v any) error {
	cleaned := strings.TrimSpace(content)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```JSON")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return fmt.Errorf("empty content")
	}
	return json.Unmarshal([]byte(cleaned), v)
}
