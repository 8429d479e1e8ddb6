// Package resources implements MCP resource handlers for DIY Bot.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (diybot://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jkmcrg/diybot/internal/inventory"
	"github.com/jkmcrg/diybot/internal/journal"
	"github.com/mark3labs/mcp-go/mcp"
)

// Resource URIs.
const (
	SnapshotURI = "diybot://inventory/snapshot"
	ProjectsURI = "diybot://projects"
	SessionsURI = "diybot://sessions"
)

// SessionLister lists conversation sessions.
type SessionLister interface {
	Sessions(ctx context.Context) ([]journal.SessionSummary, error)
}

// Handler manages inventory resource endpoints.
type Handler struct {
	store    *inventory.Store
	sessions SessionLister
}

// NewHandler creates a resource Handler with its dependencies.
// sessions may be nil, in which case the sessions resource is empty.
func NewHandler(store *inventory.Store, sessions SessionLister) *Handler {
	return &Handler{store: store, sessions: sessions}
}

// SnapshotResource returns the MCP resource definition for the full inventory.
func (h *Handler) SnapshotResource() mcp.Resource {
	return mcp.NewResource(
		SnapshotURI,
		"DIY Inventory Snapshot",
		mcp.WithResourceDescription("Every tool, house object and project, as JSON"),
		mcp.WithMIMEType("application/json"),
	)
}

// ProjectsResource returns the MCP resource definition for projects only.
func (h *Handler) ProjectsResource() mcp.Resource {
	return mcp.NewResource(
		ProjectsURI,
		"DIY Projects",
		mcp.WithResourceDescription("All projects with steps, status and current step"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleSnapshot returns the current inventory as JSON.
func (h *Handler) HandleSnapshot(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, h.store.Snapshot())
}

// HandleProjects returns the project list as JSON.
func (h *Handler) HandleProjects(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, h.store.Projects())
}

// SessionsResource returns the MCP resource definition for chat sessions.
func (h *Handler) SessionsResource() mcp.Resource {
	return mcp.NewResource(
		SessionsURI,
		"DIY Chat Sessions",
		mcp.WithResourceDescription("Conversation sessions with turn counts, most recent first"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleSessions returns the session list as JSON.
func (h *Handler) HandleSessions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	out := []journal.SessionSummary{}
	if h.sessions != nil {
		list, err := h.sessions.Sessions(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing sessions: %w", err)
		}
		out = append(out, list...)
	}
	return jsonResource(req.Params.URI, out)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
