package tools

import (
	"fmt"

	"github.com/jkmcrg/diybot/internal/inventory"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- add_house_object ---

// AddHouseObject records an appliance or fixture in the house.
type AddHouseObject struct {
	Name       string            `json:"name"`
	Location   string            `json:"location"`
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties,omitempty"`
}

func (AddHouseObject) Operation() string { return OpAddHouseObject }

func addHouseObjectDefinition() mcp.Tool {
	return mcp.NewTool(OpAddHouseObject,
		mcp.WithDescription("Add an object or appliance in the house, e.g. a water heater in the basement."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Name of the object, e.g. 'Kitchen Faucet'"),
		),
		mcp.WithString("location",
			mcp.Required(),
			mcp.Description("Where it is, e.g. 'Kitchen'"),
		),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Kind of object, e.g. 'Plumbing Fixture'"),
		),
		mcp.WithObject("properties",
			mcp.Description("Free-form string properties, e.g. {\"brand\": \"Moen\"}"),
		),
	)
}

func decodeAddHouseObject(raw map[string]any) (Call, error) {
	d := newDecoder(OpAddHouseObject, raw)
	c := AddHouseObject{
		Name:       d.requiredString("name"),
		Location:   d.requiredString("location"),
		Type:       d.requiredString("type"),
		Properties: d.stringMap("properties"),
	}
	if err := d.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Router) addHouseObject(c AddHouseObject) Result {
	obj := r.store.AddHouseObject(inventory.HouseObjectSpec{
		Name:       c.Name,
		Location:   c.Location,
		Type:       c.Type,
		Properties: c.Properties,
	})
	return success(OpAddHouseObject,
		fmt.Sprintf("Added house object '%s' in %s with ID %s", obj.Name, obj.Location, obj.ID),
		obj)
}

// --- get_house_inventory ---

// GetHouseInventory lists every house object.
type GetHouseInventory struct{}

func (GetHouseInventory) Operation() string { return OpGetHouseInventory }

func getHouseInventoryDefinition() mcp.Tool {
	return mcp.NewTool(OpGetHouseInventory,
		mcp.WithDescription("Get house objects and appliances inventory."),
	)
}

func decodeGetHouseInventory(map[string]any) (Call, error) { return GetHouseInventory{}, nil }

func (r *Router) getHouseInventory() Result {
	return jsonSuccess(OpGetHouseInventory, r.store.HouseObjects())
}
