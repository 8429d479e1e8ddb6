package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/jkmcrg/diybot/internal/inventory"
	"github.com/jkmcrg/diybot/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeModel returns a canned completion and records the prompt.
type fakeModel struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeModel) Chat(context.Context, []llm.Message) (string, error) { return f.reply, f.err }

func (f *fakeModel) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

func TestExtractPlan_WrappedJSON(t *testing.T) {
	raw := `Sure! Here is your plan:
{"title": "Faucet swap", "steps": [
  {"title": "Shut off water", "description": "Close both valves", "required_tools": []},
  {"title": "Remove old faucet", "description": "Loosen the nuts", "required_tools": ["Socket Wrench Set"]}
]}
Let me know if you need anything else.`

	plan, err := ExtractPlan(raw)
	require.NoError(t, err)
	assert.Equal(t, "Faucet swap", plan.Title)
	require.Len(t, plan.Steps, 2)
	assert.Equal(t, "Remove old faucet", plan.Steps[1].Title)
	assert.Equal(t, []string{"Socket Wrench Set"}, plan.Steps[1].RequiredTools)
}

func TestExtractPlan_Malformed(t *testing.T) {
	tests := map[string]string{
		"no braces":      "I think you should start by turning off the water.",
		"reversed":       "} oops {",
		"broken json":    `{"title": "x", "steps": [`,
		"empty steps":    `{"title": "x", "steps": []}`,
		"no steps field": `{"title": "x"}`,
		"blank titles":   `{"steps": [{"title": "  ", "description": "d", "required_tools": []}]}`,
		"wrong types":    `{"steps": [{"title": "a", "description": "b", "required_tools": [1, 2]}]}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ExtractPlan(raw)
			assert.ErrorIs(t, err, ErrMalformedPlan)
		})
	}
}

func TestExtractPlan_NormalizesSteps(t *testing.T) {
	plan, err := ExtractPlan(`{"steps": [
		{"title": "", "description": "skipped"},
		{"title": " Sand ", "description": " Use 120 grit "}
	]}`)
	require.NoError(t, err)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, "Sand", plan.Steps[0].Title)
	assert.Equal(t, "Use 120 grit", plan.Steps[0].Description)
	assert.NotNil(t, plan.Steps[0].RequiredTools)
	assert.Empty(t, plan.Steps[0].RequiredTools)
}

func TestGenerate_UsesParsedSteps(t *testing.T) {
	model := &fakeModel{reply: `{"title":"t","steps":[{"title":"a","description":"b","required_tools":["Hammer"]},{"title":"c","description":"d","required_tools":[]},{"title":"e","description":"f","required_tools":[]}]}`}
	g := New(model, nil)

	tools := []inventory.Tool{
		{Name: "Hammer", Quantity: 1, Condition: inventory.ConditionWorking},
		{Name: "Cutoff Wheels", Quantity: 3, Condition: inventory.ConditionNeedsMaintenance},
	}
	steps, err := g.Generate(context.Background(), "Hang a shelf", tools)
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, []string{"Hammer"}, steps[0].RequiredTools)

	assert.Contains(t, model.prompt, `"Hang a shelf"`)
	assert.Contains(t, model.prompt, "- Hammer (1x, working)")
	assert.Contains(t, model.prompt, "- Cutoff Wheels (3x, needs_maintenance)")
}

func TestGenerate_FallbackWhenNoJSON(t *testing.T) {
	g := New(&fakeModel{reply: "Step one: buy paint. Step two: paint."}, nil)

	steps, err := g.Generate(context.Background(), "Paint the fence", nil)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, FallbackTitle, steps[0].Title)
	assert.Contains(t, steps[0].Description, "Paint the fence")
	assert.NotNil(t, steps[0].RequiredTools)
	assert.Empty(t, steps[0].RequiredTools)
}

func TestGenerate_FallbackWhenEmpty(t *testing.T) {
	g := New(&fakeModel{reply: `{"title":"x","steps":[]}`}, nil)

	steps, err := g.Generate(context.Background(), "Fix the door", nil)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, "Begin Project", steps[0].Title)
}

func TestGenerate_UpstreamFailurePropagates(t *testing.T) {
	upstream := &llm.UpstreamError{Op: "complete", StatusCode: 500}
	g := New(&fakeModel{err: upstream}, nil)

	steps, err := g.Generate(context.Background(), "Fix the door", nil)
	assert.Nil(t, steps)
	assert.ErrorIs(t, err, llm.ErrUpstream)

	var ue *llm.UpstreamError
	assert.True(t, errors.As(err, &ue))
}

func TestPrompt_NoTools(t *testing.T) {
	p := Prompt("Patch drywall", nil)
	assert.Contains(t, p, "no tools")
	assert.Contains(t, p, `"required_tools"`)
}
