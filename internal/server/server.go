// Package server wires all components and creates the MCP server instance.
//
// This is the composition root (DIP): it creates concrete implementations
// once and injects them into the tools, prompts, resources and services
// that depend on them. No business logic lives here, only wiring.
package server

import (
	"fmt"

	"github.com/jkmcrg/diybot/internal/chat"
	"github.com/jkmcrg/diybot/internal/config"
	"github.com/jkmcrg/diybot/internal/inventory"
	"github.com/jkmcrg/diybot/internal/journal"
	"github.com/jkmcrg/diybot/internal/llm"
	"github.com/jkmcrg/diybot/internal/planner"
	"github.com/jkmcrg/diybot/internal/prompts"
	"github.com/jkmcrg/diybot/internal/resources"
	"github.com/jkmcrg/diybot/internal/tools"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Version is set at build time via ldflags.
var Version = "dev"

// App holds every long-lived component. Build it once with New.
type App struct {
	Config  *config.Config
	Store   *inventory.Store
	Router  *tools.Router
	Model   llm.Model
	Planner *planner.Generator
	Journal *journal.Store
	Chat    *chat.Service
	Log     *zap.Logger
}

// Option customizes New.
type Option func(*options)

type options struct {
	model llm.Model
}

// WithModel replaces the Ollama client, e.g. with a fake in tests.
func WithModel(m llm.Model) Option {
	return func(o *options) { o.model = m }
}

// New resolves every dependency from cfg.
//
// The returned cleanup function closes the journal and idle model
// connections and must be called on shutdown (typically via defer).
// It is always non-nil and safe to call even if New failed.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	// --- Entity store ---

	store := inventory.NewStore()
	if cfg.Inventory.SeedDefaults {
		store.Seed()
		logger.Debug("seeded default tools", zap.Int("count", len(inventory.DefaultTools())))
	}

	// --- Language model ---

	cleanup := noop
	model := o.model
	if model == nil {
		ollama := llm.NewOllama(llm.Config{
			BaseURL: cfg.Ollama.URL,
			Model:   cfg.Ollama.Model,
			Timeout: cfg.Ollama.Timeout,
		}, logger.Named("llm"))
		model = ollama
		cleanup = ollama.Close
	}

	// --- Transcript journal ---

	j, err := journal.New(journal.Config{
		MaxTurns:         cfg.Journal.MaxTurns,
		MaxContentLength: cfg.Journal.MaxContentLength,
	})
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("creating journal: %w", err)
	}
	closeModel := cleanup
	cleanup = func() {
		if err := j.Close(); err != nil {
			logger.Warn("journal close", zap.Error(err))
		}
		closeModel()
	}

	// --- Router, planner, chat ---

	router := tools.NewRouter(store, logger.Named("tools"))
	gen := planner.New(model, logger.Named("planner"))
	svc := chat.NewService(chat.Deps{
		Store:        store,
		Router:       router,
		Model:        model,
		Planner:      gen,
		Transcript:   j,
		HistoryLimit: cfg.Journal.HistoryLimit,
		Logger:       logger.Named("chat"),
	})

	return &App{
		Config:  cfg,
		Store:   store,
		Router:  router,
		Model:   model,
		Planner: gen,
		Journal: j,
		Chat:    svc,
		Log:     logger,
	}, cleanup, nil
}

// noop is a no-op cleanup function.
func noop() {}

// NewMCP creates the MCP server with the tool catalog, prompts and
// resources registered.
func NewMCP(app *App) *server.MCPServer {
	s := server.NewMCPServer(
		"diybot",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register tools ---

	app.Router.Register(s)

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(app.Store, app.Journal)
	s.AddResource(resourceHandler.SnapshotResource(), resourceHandler.HandleSnapshot)
	s.AddResource(resourceHandler.ProjectsResource(), resourceHandler.HandleProjects)
	s.AddResource(resourceHandler.SessionsResource(), resourceHandler.HandleSessions)

	return s
}

// serverInstructions tells the host model how to use the catalog.
func serverInstructions() string {
	return `You have access to DIY Bot, a toolroom, house and project tracker for DIY home improvement.

## HOW TO USE IT

- Before recommending tools, call get_toolroom_inventory to see what the user owns.
- When the user says they own or bought a tool, call add_tool_to_inventory.
- When a tool breaks or gets used up, call update_tool_condition or update_tool_quantity.
  Quantities never go below zero.
- When the user mentions an appliance or fixture, call add_house_object.

## PROJECTS

1. create_project starts a project in the planning state.
2. Ask clarifying questions first. Do not plan steps until the user is ready.
3. add_project_steps appends 3 to 6 steps. Name required tools by their toolroom name.
   Steps are appended, never replaced; numbering continues from existing steps.
4. get_projects shows status, current step and every step.

Errors come back as tool results with a kind (unknown_operation, invalid_argument,
not_found). Fix the arguments and retry instead of giving up.`
}
