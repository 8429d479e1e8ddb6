package tools

import (
	"fmt"

	"github.com/jkmcrg/diybot/internal/inventory"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- create_project ---

// CreateProject starts a project in the planning state.
type CreateProject struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (CreateProject) Operation() string { return OpCreateProject }

func createProjectDefinition() mcp.Tool {
	return mcp.NewTool(OpCreateProject,
		mcp.WithDescription("Create a new DIY project. It starts in the planning state with no steps."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short project title"),
		),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("What the user wants to do, in their words"),
		),
	)
}

func decodeCreateProject(raw map[string]any) (Call, error) {
	d := newDecoder(OpCreateProject, raw)
	c := CreateProject{
		Title:       d.requiredString("title"),
		Description: d.requiredString("description"),
	}
	if err := d.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Router) createProject(c CreateProject) Result {
	p := r.store.CreateProject(c.Title, c.Description)
	return success(OpCreateProject,
		fmt.Sprintf("Created project '%s' with ID %s", p.Title, p.ID),
		p)
}

// --- add_project_steps ---

// AddProjectSteps appends steps to a project. Existing steps are kept and
// numbering continues from the current length.
type AddProjectSteps struct {
	ProjectID string               `json:"project_id"`
	Steps     []inventory.StepSpec `json:"steps"`
}

func (AddProjectSteps) Operation() string { return OpAddProjectSteps }

func addProjectStepsDefinition() mcp.Tool {
	return mcp.NewTool(OpAddProjectSteps,
		mcp.WithDescription(
			"Append steps to a project. Steps are numbered after any existing ones; "+
				"the first step of an empty project becomes active.",
		),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("ID of the project, from get_projects"),
		),
		mcp.WithArray("steps",
			mcp.Required(),
			mcp.Description("Ordered steps to append"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":       map[string]any{"type": "string"},
					"description": map[string]any{"type": "string"},
					"required_tools": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "Tool names (or IDs) needed for the step",
					},
				},
				"required": []string{"title", "description", "required_tools"},
			}),
		),
	)
}

func decodeAddProjectSteps(raw map[string]any) (Call, error) {
	d := newDecoder(OpAddProjectSteps, raw)
	c := AddProjectSteps{
		ProjectID: d.requiredString("project_id"),
		Steps:     d.stepSpecs("steps"),
	}
	if err := d.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Router) addProjectSteps(c AddProjectSteps) Result {
	p, err := r.store.AppendProjectSteps(c.ProjectID, c.Steps)
	if err != nil {
		return failure(OpAddProjectSteps, storeError("Project", c.ProjectID, err))
	}
	return success(OpAddProjectSteps,
		fmt.Sprintf("Added %d steps to project '%s'", len(c.Steps), p.Title),
		p)
}

// --- get_projects ---

// GetProjects lists every project with its steps.
type GetProjects struct{}

func (GetProjects) Operation() string { return OpGetProjects }

func getProjectsDefinition() mcp.Tool {
	return mcp.NewTool(OpGetProjects,
		mcp.WithDescription("Get all projects with their steps and status."),
	)
}

func decodeGetProjects(map[string]any) (Call, error) { return GetProjects{}, nil }

func (r *Router) getProjects() Result {
	return jsonSuccess(OpGetProjects, r.store.Projects())
}
