// Package app is the composition root: it builds every component once from
// a Config and hands them to the CLI and the MCP server.
package app

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/rcliao/site-assistant/internal/category"
	"github.com/rcliao/site-assistant/internal/config"
	"github.com/rcliao/site-assistant/internal/conversation"
	"github.com/rcliao/site-assistant/internal/docconv"
	"github.com/rcliao/site-assistant/internal/document"
	"github.com/rcliao/site-assistant/internal/embedding"
	"github.com/rcliao/site-assistant/internal/finance"
	"github.com/rcliao/site-assistant/internal/llm"
	"github.com/rcliao/site-assistant/internal/logging"
	"github.com/rcliao/site-assistant/internal/model"
	"github.com/rcliao/site-assistant/internal/orchestrator"
	"github.com/rcliao/site-assistant/internal/project"
	"github.com/rcliao/site-assistant/internal/store"
	"github.com/rcliao/site-assistant/internal/tool"
	"github.com/rcliao/site-assistant/internal/tracker"
	"github.com/rcliao/site-assistant/internal/vectorindex"
)

const historyLimit = 20

// App holds the wired components.
type App struct {
	Config     *config.Config
	Logger     logging.Logger
	Store      *store.SQLiteStore
	Categories *category.Manager
	Index      *vectorindex.ChromemIndex
	Connector  *vectorindex.Connector

	Finance   *finance.Service
	Documents *document.Service
	Projects  *project.Service

	Orchestrator *orchestrator.Orchestrator
	// Tools holds every handler-level operation.
	Tools *tool.Registry
}

// Option overrides a component.
type Option func(*options)

type options struct {
	logger    logging.Logger
	responder llm.Responder
	tracerTP  trace.TracerProvider
	tracker   []tracker.Option
}

// WithLogger replaces the configured logger.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithResponder replaces the configured LLM capability.
func WithResponder(r llm.Responder) Option {
	return func(o *options) { o.responder = r }
}

// WithTracerProvider sets the tracer provider for orchestrator spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerTP = tp }
}

// WithTrackerOptions passes options to the ClickUp client.
func WithTrackerOptions(opts ...tracker.Option) Option {
	return func(o *options) { o.tracker = append(o.tracker, opts...) }
}

// New validates cfg and builds the application. Configuration problems are
// returned as configuration errors; the caller should treat them as fatal.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	}

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	taxonomy := model.DefaultTaxonomy()
	st, err := store.NewSQLiteStore(cfg.DBPath,
		store.WithEmbedder(embedder),
		store.WithTaxonomy(taxonomy),
		store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("open memory store: %w", err)
	}
	a := &App{Config: cfg, Logger: logger, Store: st}

	a.Categories = category.NewManager(st, taxonomy, logger)
	if err := a.provisionCategories(ctx); err != nil {
		st.Close()
		return nil, err
	}

	a.Index, err = vectorindex.NewChromemIndex(cfg.Vector.Dir, cfg.Vector.Collection, cfg.Vector.Compress, embedder)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("open vector index: %w", err)
	}
	a.Connector = vectorindex.NewConnector(a.Index, docconv.NewTextConverter(), st,
		vectorindex.WithExportMode(cfg.Vector.ExportMode),
		vectorindex.WithConnectorLogger(logger))

	a.Finance = finance.NewService(st, finance.WithLogger(logger))
	a.Documents = document.NewService(a.Connector, st, logger)

	if cfg.HasTracker() {
		client, err := tracker.New(cfg.Tracker, o.tracker...)
		if err != nil {
			st.Close()
			return nil, err
		}
		a.Projects = project.NewService(client, st, logger)
	} else {
		logger.Warn("CLICKUP_API_TOKEN not set; tracker-backed project operations are disabled")
		a.Projects = project.NewService(nil, st, logger)
	}

	a.Tools = tool.NewRegistry()
	a.Tools.Register(a.Finance.Tools()...)
	a.Tools.Register(a.Projects.Tools()...)
	a.Tools.Register(a.Documents.Tools()...)

	responder, err := newResponder(cfg, o.responder, logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	seed, err := conversation.LoadHistory(ctx, st, "", historyLimit)
	if err != nil {
		logger.Warn("conversation history not restored", "err", err)
	}
	orchOpts := []orchestrator.Option{
		orchestrator.WithLogger(logger),
		orchestrator.WithHistoryLimit(historyLimit),
		orchestrator.WithConversation(conversation.NewPersisting(
			conversation.NewBuffer(historyLimit, seed...), st, "", logger)),
	}
	if o.tracerTP != nil {
		orchOpts = append(orchOpts, orchestrator.WithTracerProvider(o.tracerTP))
	}
	domains := []orchestrator.Domain{
		orchestrator.FinancialDomain(a.Finance),
		orchestrator.ProjectDomain(a.Projects),
		orchestrator.DocumentDomain(a.Documents),
	}
	domains = append(domains, orchestrator.PlaceholderDomains()...)
	a.Orchestrator = orchestrator.New(responder, st, a.Connector, domains, orchOpts...)

	return a, nil
}

// provisionCategories writes the markers this database is still missing.
// Categories provisioned by an earlier process are seeded into the store
// first, so a partial run is completed rather than skipped or duplicated.
func (a *App) provisionCategories(ctx context.Context) error {
	found, err := a.Store.SeedCategories(ctx)
	if err != nil {
		return err
	}
	if len(found) == len(a.Categories.List()) {
		return nil
	}
	_, err = a.Categories.Initialize(ctx)
	return err
}

func newResponder(cfg *config.Config, override llm.Responder, logger logging.Logger) (llm.Responder, error) {
	if override != nil {
		return override, nil
	}
	if !cfg.HasLLM() {
		logger.Warn("ANTHROPIC_API_KEY not set; using the offline keyword router")
		return llm.NewKeyword(), nil
	}
	return llm.NewAnthropic(cfg.LLM, llm.WithLogger(logger))
}

// HandleQuery is the single free-text entry point.
func (a *App) HandleQuery(ctx context.Context, input string) string {
	return a.Orchestrator.HandleQuery(ctx, input)
}

// Close releases the memory store.
func (a *App) Close() error {
	if a == nil || a.Store == nil {
		return nil
	}
	return a.Store.Close()
}
