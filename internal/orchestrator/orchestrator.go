// Package orchestrator routes free-text requests to the domain specialists,
// records every delegation in the memory store, and turns failures into a
// user-facing apology.
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rcliao/site-assistant/internal/apperr"
	"github.com/rcliao/site-assistant/internal/conversation"
	"github.com/rcliao/site-assistant/internal/llm"
	"github.com/rcliao/site-assistant/internal/logging"
	"github.com/rcliao/site-assistant/internal/model"
	"github.com/rcliao/site-assistant/internal/store"
	"github.com/rcliao/site-assistant/internal/tool"
)

const (
	tracerName = "github.com/rcliao/site-assistant/internal/orchestrator"

	// Metadata on delegation records.
	MetaEvent   = "event"
	MetaHandler = "handler"

	EventDelegation    = "delegation"
	EventAgentResponse = "agent_response"

	apologyPrefix  = "I encountered an error processing your request: "
	genericFailure = "an upstream service failed"
	defaultHistory = 20
	systemPrompt   = "You are the orchestrator of a construction management assistant. " +
		"Analyze each request and delegate it to the specialist best suited to it, " +
		"or search memory and documents directly for simple lookups. " +
		"Pass the specialist the full request, including any identifiers and amounts."
)

// Memory is the slice of the memory store the orchestrator uses.
type Memory interface {
	Add(ctx context.Context, p store.AddParams) (string, error)
	Search(ctx context.Context, p store.SearchParams) ([]model.Record, error)
}

// DocumentSearcher runs similarity search over indexed documents.
type DocumentSearcher interface {
	SearchDocumentsWithScore(ctx context.Context, query string, k int) ([]model.ScoredChunk, error)
}

// Orchestrator dispatches requests to domains through a Responder.
type Orchestrator struct {
	responder llm.Responder
	memory    Memory
	docs      DocumentSearcher
	domains   []Domain
	tools     *tool.Registry

	conv         conversation.Memory
	agents       map[string]conversation.Memory
	historyLimit int

	tracer trace.Tracer
	logger logging.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = logging.OrNop(l) }
}

// WithTracerProvider sets the tracer provider. The global provider is used
// otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *Orchestrator) { o.tracer = tp.Tracer(tracerName) }
}

// WithConversation replaces the top-level conversation memory.
func WithConversation(m conversation.Memory) Option {
	return func(o *Orchestrator) { o.conv = m }
}

// WithHistoryLimit bounds the in-process history kept per conversation.
func WithHistoryLimit(n int) Option {
	return func(o *Orchestrator) { o.historyLimit = n }
}

// New builds an orchestrator over domains. docs may be nil, in which case
// document search reports that no index is configured.
func New(responder llm.Responder, memory Memory, docs DocumentSearcher, domains []Domain, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		responder:    responder,
		memory:       memory,
		docs:         docs,
		domains:      domains,
		agents:       make(map[string]conversation.Memory),
		historyLimit: defaultHistory,
		tracer:       otel.Tracer(tracerName),
		logger:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.conv == nil {
		o.conv = conversation.NewPersisting(conversation.NewBuffer(o.historyLimit), memory, "", o.logger)
	}
	for _, d := range domains {
		if !d.Placeholder() {
			o.agents[d.Agent] = conversation.NewPersisting(conversation.NewBuffer(o.historyLimit), memory, d.Title, o.logger)
		}
	}
	o.tools = tool.NewRegistry(o.buildTools()...)
	return o
}

// Tools returns the orchestrator-level tools: one delegation tool per
// domain plus memory and document search.
func (o *Orchestrator) Tools() []tool.Tool { return o.tools.List() }

// Domains returns the configured domains.
func (o *Orchestrator) Domains() []Domain { return o.domains }

// HandleQuery answers a free-text request. It never returns an error: any
// failure, including a panic, becomes an apology.
func (o *Orchestrator) HandleQuery(ctx context.Context, input string) (reply string) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.handle_query")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			reply = o.apologize(span, fmt.Errorf("internal error: %v", r))
		}
	}()

	o.logger.Info("processing query", "input", input)
	if strings.TrimSpace(input) == "" {
		return o.apologize(span, apperr.Required("orchestrator.HandleQuery", "query"))
	}

	out, err := o.dispatch(ctx, input)
	if err != nil {
		return o.apologize(span, err)
	}
	if err := o.conv.Save(ctx, input, out); err != nil {
		o.logger.Warn("conversation not saved", "err", err)
	}
	span.SetStatus(codes.Ok, "")
	return out
}

func (o *Orchestrator) dispatch(ctx context.Context, input string) (string, error) {
	if inv, ok := llm.ParseInvocation(input); ok {
		if _, own := o.tools.Get(inv.Tool); !own {
			for _, d := range o.domains {
				if d.Owns(inv.Tool) {
					return o.Delegate(ctx, d, input)
				}
			}
		}
	}

	history, err := o.conv.History(ctx)
	if err != nil {
		o.logger.Warn("conversation history unavailable", "err", err)
	}
	return o.responder.Respond(ctx, llm.Request{
		System:  systemPrompt,
		Input:   input,
		History: history,
		Tools:   o.tools.List(),
	})
}

// Delegate hands query to a domain specialist and records the request and
// the reply under the conversations category.
func (o *Orchestrator) Delegate(ctx context.Context, d Domain, query string) (string, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.delegate",
		trace.WithAttributes(attribute.String("handler", d.Title)))
	defer span.End()

	o.logger.Info("delegating", "handler", d.Title, "query", query)
	o.record(ctx, fmt.Sprintf("Delegated task to %s Agent: %s", d.Agent, query), EventDelegation, d.Title)

	resp, err := o.runDomain(ctx, d, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.logger.Error("delegation failed", "handler", d.Title, "kind", string(apperr.KindOf(err)), "err", err)
		return "", err
	}

	o.record(ctx, fmt.Sprintf("%s Agent response: %s", d.Agent, resp), EventAgentResponse, d.Title)
	return resp, nil
}

func (o *Orchestrator) runDomain(ctx context.Context, d Domain, query string) (string, error) {
	if d.Placeholder() {
		return NotImplemented, nil
	}
	mem := o.agents[d.Agent]
	history, err := mem.History(ctx)
	if err != nil {
		o.logger.Warn("agent history unavailable", "handler", d.Title, "err", err)
	}
	resp, err := o.responder.Respond(ctx, llm.Request{
		System:  d.systemPrompt(),
		Input:   query,
		History: history,
		Tools:   d.Tools,
	})
	if err != nil {
		return "", err
	}
	if err := mem.Save(ctx, query, resp); err != nil {
		o.logger.Warn("agent conversation not saved", "handler", d.Title, "err", err)
	}
	return resp, nil
}

// record writes a delegation event. Failures are logged, not returned.
func (o *Orchestrator) record(ctx context.Context, text, event, handler string) {
	_, err := o.memory.Add(ctx, store.AddParams{
		Text:     text,
		Category: model.CategoryConversations,
		Metadata: map[string]any{MetaEvent: event, MetaHandler: handler},
	})
	if err != nil {
		o.logger.Error("record delegation", "event", event, "handler", handler, "err", err)
	}
}

func (o *Orchestrator) apologize(span trace.Span, err error) string {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	o.logger.Error("query failed", "kind", string(apperr.KindOf(err)), "err", err)
	return apologyPrefix + userMessage(err)
}

// userMessage exposes validation and not-found details only.
func userMessage(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindNotFound:
		return apperr.Message(err)
	}
	return genericFailure
}
