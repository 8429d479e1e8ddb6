package tools

import (
	"fmt"
	"strings"

	"github.com/jkmcrg/diybot/internal/inventory"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- get_toolroom_inventory ---

// GetToolroom lists every tool. It takes no arguments.
type GetToolroom struct{}

func (GetToolroom) Operation() string { return OpGetToolroomInventory }

func getToolroomDefinition() mcp.Tool {
	return mcp.NewTool(OpGetToolroomInventory,
		mcp.WithDescription("Get current toolroom inventory: every tool the user owns with quantity and condition."),
	)
}

func decodeGetToolroom(map[string]any) (Call, error) { return GetToolroom{}, nil }

func (r *Router) getToolroom() Result {
	return jsonSuccess(OpGetToolroomInventory, r.store.Tools())
}

// --- add_tool_to_inventory ---

// AddTool adds a tool the user owns.
type AddTool struct {
	Name         string              `json:"name"`
	Category     string              `json:"category"`
	Quantity     int                 `json:"quantity"`
	Condition    inventory.Condition `json:"condition"`
	IconKeywords []string            `json:"icon_keywords,omitempty"`
	Properties   map[string]string   `json:"properties,omitempty"`
}

func (AddTool) Operation() string { return OpAddTool }

// Args renders the call back into raw arguments, so commands built in
// code go through the same validation as model-issued ones.
func (c AddTool) Args() map[string]any {
	args := map[string]any{
		"name":      c.Name,
		"category":  c.Category,
		"quantity":  c.Quantity,
		"condition": string(c.Condition),
	}
	if len(c.IconKeywords) > 0 {
		kw := make([]any, len(c.IconKeywords))
		for i, k := range c.IconKeywords {
			kw[i] = k
		}
		args["icon_keywords"] = kw
	}
	if len(c.Properties) > 0 {
		props := make(map[string]any, len(c.Properties))
		for k, v := range c.Properties {
			props[k] = v
		}
		args["properties"] = props
	}
	return args
}

func addToolDefinition() mcp.Tool {
	return mcp.NewTool(OpAddTool,
		mcp.WithDescription(
			"Add a new tool to the toolroom inventory. "+
				"Call this when the user says they own or acquired a tool.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Display name of the tool, e.g. 'Power Drill'"),
		),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description("Tool category, e.g. 'Power Tools', 'Hand Tools', 'Consumables'"),
		),
		mcp.WithNumber("quantity",
			mcp.Required(),
			mcp.Description("How many the user owns (whole number, 0 or more)"),
			integer(),
			mcp.Min(0),
		),
		mcp.WithString("condition",
			mcp.Required(),
			mcp.Description("Current condition of the tool"),
			mcp.Enum(inventory.Conditions()...),
		),
		mcp.WithArray("icon_keywords",
			mcp.Description("Keywords used to pick an icon, e.g. ['drill', 'power']"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithObject("properties",
			mcp.Description("Free-form string properties, e.g. {\"voltage\": \"18V\"}"),
		),
	)
}

func decodeAddTool(raw map[string]any) (Call, error) {
	d := newDecoder(OpAddTool, raw)
	c := AddTool{
		Name:         d.requiredString("name"),
		Category:     d.requiredString("category"),
		Quantity:     d.requiredInt("quantity"),
		Condition:    d.condition("condition", true),
		IconKeywords: d.stringList("icon_keywords", false),
		Properties:   d.stringMap("properties"),
	}
	if err := d.Err(); err != nil {
		return nil, err
	}
	if c.Quantity < 0 {
		return nil, &ArgumentError{Operation: OpAddTool, Field: "quantity", Reason: "must be 0 or more"}
	}
	return c, nil
}

func (r *Router) addTool(c AddTool) Result {
	qty := c.Quantity
	tool := r.store.AddTool(inventory.ToolSpec{
		Name:         c.Name,
		Category:     c.Category,
		Quantity:     &qty,
		Condition:    c.Condition,
		IconKeywords: c.IconKeywords,
		Properties:   c.Properties,
	})
	return success(OpAddTool,
		fmt.Sprintf("Added tool '%s' to inventory with ID %s", tool.Name, tool.ID),
		tool)
}

// --- update_tool_quantity ---

// UpdateQuantity changes a tool's quantity by a signed amount.
type UpdateQuantity struct {
	ToolID       string `json:"tool_id"`
	ChangeAmount int    `json:"change_amount"`
	Reason       string `json:"reason"`
}

func (UpdateQuantity) Operation() string { return OpUpdateToolQuantity }

func updateQuantityDefinition() mcp.Tool {
	return mcp.NewTool(OpUpdateToolQuantity,
		mcp.WithDescription(
			"Update tool quantity (e.g., when tools are used up or broken). "+
				"The quantity never drops below zero.",
		),
		mcp.WithString("tool_id",
			mcp.Required(),
			mcp.Description("ID of the tool, from get_toolroom_inventory"),
		),
		mcp.WithNumber("change_amount",
			mcp.Required(),
			mcp.Description("Whole number to add; negative to remove"),
			integer(),
		),
		mcp.WithString("reason",
			mcp.Required(),
			mcp.Description("Why the quantity changed, echoed back to the user"),
		),
	)
}

func decodeUpdateQuantity(raw map[string]any) (Call, error) {
	d := newDecoder(OpUpdateToolQuantity, raw)
	c := UpdateQuantity{
		ToolID:       d.requiredString("tool_id"),
		ChangeAmount: d.requiredInt("change_amount"),
		Reason:       d.requiredString("reason"),
	}
	if err := d.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Router) updateQuantity(c UpdateQuantity) Result {
	oldQty, newQty, err := r.store.AdjustToolQuantity(c.ToolID, c.ChangeAmount, c.Reason)
	if err != nil {
		return failure(OpUpdateToolQuantity, storeError("Tool", c.ToolID, err))
	}
	tool, err := r.store.Tool(c.ToolID)
	if err != nil {
		return failure(OpUpdateToolQuantity, storeError("Tool", c.ToolID, err))
	}
	return success(OpUpdateToolQuantity,
		fmt.Sprintf("Updated %s quantity from %d to %d. Reason: %s", tool.Name, oldQty, newQty, c.Reason),
		tool)
}

// --- update_tool_condition ---

// UpdateCondition replaces a tool's condition.
type UpdateCondition struct {
	ToolID    string              `json:"tool_id"`
	Condition inventory.Condition `json:"condition"`
	Notes     string              `json:"notes,omitempty"`
}

func (UpdateCondition) Operation() string { return OpUpdateToolCondition }

func updateConditionDefinition() mcp.Tool {
	return mcp.NewTool(OpUpdateToolCondition,
		mcp.WithDescription("Update tool condition (working, broken, needs_maintenance)."),
		mcp.WithString("tool_id",
			mcp.Required(),
			mcp.Description("ID of the tool, from get_toolroom_inventory"),
		),
		mcp.WithString("condition",
			mcp.Required(),
			mcp.Description("New condition"),
			mcp.Enum(inventory.Conditions()...),
		),
		mcp.WithString("notes",
			mcp.Description("Optional note shown to the user, e.g. 'chuck is stripped'"),
		),
	)
}

func decodeUpdateCondition(raw map[string]any) (Call, error) {
	d := newDecoder(OpUpdateToolCondition, raw)
	c := UpdateCondition{
		ToolID:    d.requiredString("tool_id"),
		Condition: d.condition("condition", true),
		Notes:     d.optionalString("notes"),
	}
	if err := d.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Router) updateCondition(c UpdateCondition) Result {
	oldCond, newCond, err := r.store.SetToolCondition(c.ToolID, c.Condition, c.Notes)
	if err != nil {
		return failure(OpUpdateToolCondition, storeError("Tool", c.ToolID, err))
	}
	tool, err := r.store.Tool(c.ToolID)
	if err != nil {
		return failure(OpUpdateToolCondition, storeError("Tool", c.ToolID, err))
	}
	text := fmt.Sprintf("Updated %s condition from %s to %s.", tool.Name, oldCond, newCond)
	if notes := strings.TrimSpace(c.Notes); notes != "" {
		text += " " + notes
	}
	return success(OpUpdateToolCondition, text, tool)
}
