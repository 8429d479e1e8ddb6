// Package tools implements the tool-call router: the closed catalog of
// named operations an agent (or any caller) uses to read and mutate the
// inventory.
//
// Each operation has three parts, kept together in one file per area:
// - a Definition() that becomes the MCP tool schema
// - a typed argument record (a Call) decoded and validated at the boundary
// - an execute method that runs the matching inventory operation
//
// Dispatch never returns a Go error and never panics past the boundary.
// Failures come back as data in Result.Error so the caller can branch on
// the kind.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jkmcrg/diybot/internal/inventory"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Operation names. This set is closed.
const (
	OpGetToolroomInventory = "get_toolroom_inventory"
	OpAddTool              = "add_tool_to_inventory"
	OpUpdateToolQuantity   = "update_tool_quantity"
	OpUpdateToolCondition  = "update_tool_condition"
	OpAddHouseObject       = "add_house_object"
	OpGetHouseInventory    = "get_house_inventory"
	OpCreateProject        = "create_project"
	OpAddProjectSteps      = "add_project_steps"
	OpGetProjects          = "get_projects"
)

// Call is a decoded, validated operation request. The concrete types in
// this package are the only implementations.
type Call interface {
	Operation() string
}

// operation is one catalog entry.
type operation struct {
	definition mcp.Tool
	decode     func(raw map[string]any) (Call, error)
}

// Router dispatches calls to the inventory store.
type Router struct {
	store *inventory.Store
	log   *zap.Logger
	ops   map[string]operation
	order []string
}

// NewRouter builds the router with the full catalog.
func NewRouter(store *inventory.Store, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{store: store, log: logger, ops: map[string]operation{}}

	r.add(getToolroomDefinition(), decodeGetToolroom)
	r.add(addToolDefinition(), decodeAddTool)
	r.add(updateQuantityDefinition(), decodeUpdateQuantity)
	r.add(updateConditionDefinition(), decodeUpdateCondition)
	r.add(addHouseObjectDefinition(), decodeAddHouseObject)
	r.add(getHouseInventoryDefinition(), decodeGetHouseInventory)
	r.add(createProjectDefinition(), decodeCreateProject)
	r.add(addProjectStepsDefinition(), decodeAddProjectSteps)
	r.add(getProjectsDefinition(), decodeGetProjects)

	return r
}

func (r *Router) add(def mcp.Tool, decode func(map[string]any) (Call, error)) {
	r.ops[def.Name] = operation{definition: def, decode: decode}
	r.order = append(r.order, def.Name)
}

// Catalog returns every operation's schema in catalog order.
// It has no side effects.
func (r *Router) Catalog() []mcp.Tool {
	out := make([]mcp.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.ops[name].definition)
	}
	return out
}

// SchemaJSON renders the catalog as indented JSON for a model prompt.
func (r *Router) SchemaJSON() ([]byte, error) {
	data, err := json.MarshalIndent(r.Catalog(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling tool catalog: %w", err)
	}
	return data, nil
}

// Decode validates raw arguments for the named operation.
func (r *Router) Decode(name string, raw map[string]any) (Call, error) {
	op, ok := r.ops[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, name)
	}
	return op.decode(raw)
}

// Dispatch decodes and executes one call. It always returns a Result.
func (r *Router) Dispatch(ctx context.Context, name string, raw map[string]any) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("tool call panicked", zap.String("operation", name), zap.Any("panic", rec))
			res = failure(name, fmt.Errorf("executing %s: %v", name, rec))
		}
	}()

	call, err := r.Decode(name, raw)
	if err != nil {
		r.log.Info("tool call rejected", zap.String("operation", name), zap.Error(err))
		return failure(name, err)
	}
	return r.Execute(ctx, call)
}

// Execute runs an already-decoded call.
func (r *Router) Execute(ctx context.Context, call Call) Result {
	r.log.Debug("tool call", zap.String("operation", call.Operation()))

	var res Result
	switch c := call.(type) {
	case GetToolroom:
		res = r.getToolroom()
	case AddTool:
		res = r.addTool(c)
	case UpdateQuantity:
		res = r.updateQuantity(c)
	case UpdateCondition:
		res = r.updateCondition(c)
	case AddHouseObject:
		res = r.addHouseObject(c)
	case GetHouseInventory:
		res = r.getHouseInventory()
	case CreateProject:
		res = r.createProject(c)
	case AddProjectSteps:
		res = r.addProjectSteps(c)
	case GetProjects:
		res = r.getProjects()
	default:
		res = failure(call.Operation(), fmt.Errorf("%w: %s", ErrUnknownOperation, call.Operation()))
	}

	if !res.OK {
		r.log.Info("tool call failed",
			zap.String("operation", res.Operation),
			zap.String("kind", string(res.Kind())),
			zap.String("message", res.Error.Message))
	}
	return res
}

// Handle adapts the router to mcp-go's tool handler signature.
// Failures become error results, never Go errors.
func (r *Router) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res := r.Dispatch(ctx, req.Params.Name, req.GetArguments())
	if !res.OK {
		return mcp.NewToolResultError(res.String()), nil
	}
	return mcp.NewToolResultText(res.Text), nil
}

// Register adds every catalog operation to an MCP server.
func (r *Router) Register(s *server.MCPServer) {
	for _, def := range r.Catalog() {
		s.AddTool(def, r.Handle)
	}
}

// lookupError is the user-facing not-found message for an id.
type lookupError struct {
	entity string
	id     string
	err    error
}

func (e *lookupError) Error() string { return fmt.Sprintf("%s with ID %s not found", e.entity, e.id) }
func (e *lookupError) Unwrap() error { return e.err }

// storeError rewrites a store not-found into the catalog's wording.
func storeError(entity, id string, err error) error {
	if !errors.Is(err, inventory.ErrNotFound) {
		return err
	}
	return &lookupError{entity: entity, id: id, err: err}
}
