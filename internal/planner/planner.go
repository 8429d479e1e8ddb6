// Package planner turns a project description and the user's tools into an
// ordered list of step specs using the language model.
//
// Model output is untrusted text. ExtractPlan parses it defensively and the
// generator substitutes a single fallback step when nothing usable comes
// back, so Generate never returns zero steps on a successful upstream call.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jkmcrg/diybot/internal/inventory"
	"github.com/jkmcrg/diybot/internal/llm"
	"go.uber.org/zap"
)

// FallbackTitle is the title of the step used when no plan can be parsed.
const FallbackTitle = "Begin Project"

// ErrMalformedPlan marks model output that is not the expected JSON shape.
// Generate recovers from it; only ExtractPlan returns it.
var ErrMalformedPlan = errors.New("malformed plan")

// Plan is the JSON shape requested from the model.
type Plan struct {
	Title string               `json:"title"`
	Steps []inventory.StepSpec `json:"steps"`
}

// Generator produces step plans.
type Generator struct {
	model llm.Model
	log   *zap.Logger
}

// New creates a Generator.
func New(model llm.Model, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{model: model, log: logger}
}

// Generate asks the model for a plan. Upstream failures are returned as
// is; a malformed or empty plan becomes the single fallback step.
func (g *Generator) Generate(ctx context.Context, description string, tools []inventory.Tool) ([]inventory.StepSpec, error) {
	raw, err := g.model.Complete(ctx, Prompt(description, tools))
	if err != nil {
		return nil, fmt.Errorf("generating steps: %w", err)
	}

	plan, err := ExtractPlan(raw)
	if err != nil {
		g.log.Warn("unusable plan from model, using fallback step",
			zap.Error(err),
			zap.Int("response_len", len(raw)))
		return []inventory.StepSpec{Fallback(description)}, nil
	}
	return plan.Steps, nil
}

// Fallback is the step substituted when plan generation yields nothing.
func Fallback(description string) inventory.StepSpec {
	return inventory.StepSpec{
		Title:         FallbackTitle,
		Description:   fmt.Sprintf("Start working on: %s", description),
		RequiredTools: []string{},
	}
}

// Prompt builds the step-generation prompt.
func Prompt(description string, tools []inventory.Tool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Based on this project: %q\n", description)
	if len(tools) == 0 {
		b.WriteString("The user has no tools in their inventory yet.\n")
	} else {
		b.WriteString("And these available tools:\n")
		for _, t := range tools {
			fmt.Fprintf(&b, "- %s (%dx, %s)\n", t.Name, t.Quantity, t.Condition)
		}
	}
	b.WriteString(`
Generate a detailed step-by-step plan with 3 to 6 steps. For each step, specify:
1. Step title
2. Detailed description
3. Required tools, by tool name, only from the available tools

Respond with JSON only, using this structure:
{
  "title": "Project Title",
  "steps": [
    {
      "title": "Step 1 Title",
      "description": "Detailed instructions...",
      "required_tools": ["Tool Name"]
    }
  ]
}
`)
	return b.String()
}

// ExtractPlan parses the span from the first '{' to the last '}' of raw,
// which tolerates conversational text around the JSON. Steps with a blank
// title are dropped and nil tool lists become empty. It returns
// ErrMalformedPlan when no span parses or no step survives.
func ExtractPlan(raw string) (Plan, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return Plan{}, fmt.Errorf("%w: no JSON object in response", ErrMalformedPlan)
	}

	var plan Plan
	if err := json.Unmarshal([]byte(raw[start:end+1]), &plan); err != nil {
		return Plan{}, fmt.Errorf("%w: %v", ErrMalformedPlan, err)
	}

	steps := make([]inventory.StepSpec, 0, len(plan.Steps))
	for _, st := range plan.Steps {
		if strings.TrimSpace(st.Title) == "" {
			continue
		}
		st.Title = strings.TrimSpace(st.Title)
		st.Description = strings.TrimSpace(st.Description)
		if st.RequiredTools == nil {
			st.RequiredTools = []string{}
		}
		steps = append(steps, st)
	}
	if len(steps) == 0 {
		return Plan{}, fmt.Errorf("%w: plan has no steps", ErrMalformedPlan)
	}

	plan.Steps = steps
	return plan, nil
}
