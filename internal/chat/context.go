package chat

import (
	"fmt"
	"strings"

	"github.com/jkmcrg/diybot/internal/inventory"
	"github.com/jkmcrg/diybot/internal/llm"
)

// Phase selects the system framing for a turn.
type Phase string

const (
	PhaseGeneral       Phase = ""
	PhaseDiscovery     Phase = "discovery"
	PhaseStepExecution Phase = "step_execution"
)

// SessionContext is what the client says about where the user is.
type SessionContext struct {
	SessionID string `json:"session_id,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
	StepID    string `json:"step_id,omitempty"`
	Phase     Phase  `json:"phase,omitempty"`
}

// EffectivePhase resolves the framing: an explicit discovery phase wins,
// then a step id (or explicit step_execution), then the general framing.
func (sc SessionContext) EffectivePhase() Phase {
	switch {
	case sc.Phase == PhaseDiscovery:
		return PhaseDiscovery
	case sc.StepID != "" || sc.Phase == PhaseStepExecution:
		return PhaseStepExecution
	default:
		return PhaseGeneral
	}
}

// HistoryEntry is one prior turn. Any role other than "user" is treated
// as the assistant.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// maxSummaryTools is how many tools the inventory summary names.
const maxSummaryTools = 3

const basePrompt = `You are DIY Bot, an assistant that helps users plan and execute DIY home-improvement projects.

Your capabilities include:
- Analyzing project requirements and breaking them into steps
- Tracking the user's tool inventory
- Cataloging house objects and appliances mentioned in conversation
- Giving step-by-step guidance that names the required tools
- Handling tool breakage and replacement during a project

Always be conversational and helpful. Say so when you assume something about the user's tools or house.`

const discoveryPrompt = `The user just created this project. Your job right now is discovery:
- Ask specific clarifying questions about the project and the house
- Ask which tools the user already owns for this job
- Point out tools they will likely need to buy or borrow
Do NOT generate a step-by-step plan yet. The user will ask for steps when ready.`

const stepExecutionPrompt = `The user is working on a specific step of their project. Help them complete it:
- Keep answers focused on the current step
- Give safety notes where relevant
- If a tool breaks or runs out, suggest a workaround or substitute and tell the user
  their inventory will need updating`

// BuildContext assembles the model messages for one turn. It reads the
// snapshot but never changes anything, so it is safe to call concurrently.
// snap may be nil.
func BuildContext(userMessage string, sc SessionContext, snap *inventory.Snapshot, history []HistoryEntry) []llm.Message {
	var system strings.Builder
	system.WriteString(basePrompt)

	switch sc.EffectivePhase() {
	case PhaseDiscovery:
		system.WriteString("\n\n" + discoveryPrompt)
	case PhaseStepExecution:
		system.WriteString("\n\n" + stepExecutionPrompt)
	}

	msgs := []llm.Message{{Role: llm.RoleSystem, Content: system.String()}}

	if snap != nil {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: inventorySummary(snap.Tools)})
		if pc := projectContext(sc, snap); pc != "" {
			msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: pc})
		}
	}

	for _, h := range history {
		role := llm.RoleAssistant
		if strings.EqualFold(h.Role, llm.RoleUser) {
			role = llm.RoleUser
		}
		msgs = append(msgs, llm.Message{Role: role, Content: h.Content})
	}

	return append(msgs, llm.Message{Role: llm.RoleUser, Content: userMessage})
}

// inventorySummary names up to maxSummaryTools tools and counts the rest.
func inventorySummary(tools []inventory.Tool) string {
	if len(tools) == 0 {
		return "The user's toolroom is empty."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The user's toolroom has %d tools", len(tools))
	b.WriteString(", including:")
	n := min(len(tools), maxSummaryTools)
	for _, t := range tools[:n] {
		fmt.Fprintf(&b, "\n- %s (%dx, %s)", t.Name, t.Quantity, t.Condition)
	}
	if rest := len(tools) - n; rest > 0 {
		fmt.Fprintf(&b, "\n- and %d more", rest)
	}
	return b.String()
}

// projectContext describes the referenced project and, in step execution,
// the step being worked on with its tools resolved against the inventory.
func projectContext(sc SessionContext, snap *inventory.Snapshot) string {
	if sc.ProjectID == "" {
		return ""
	}
	var project *inventory.Project
	for i := range snap.Projects {
		if snap.Projects[i].ID == sc.ProjectID {
			project = &snap.Projects[i]
			break
		}
	}
	if project == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Current project: %s (%s)\n%s", project.Title, project.Status, project.Description)
	if project.TotalSteps != nil && project.CurrentStep != nil {
		fmt.Fprintf(&b, "\nProgress: step %d of %d", *project.CurrentStep, *project.TotalSteps)
	}

	if sc.EffectivePhase() != PhaseStepExecution {
		return b.String()
	}

	step, ok := findStep(project, sc.StepID)
	if !ok {
		return b.String()
	}
	fmt.Fprintf(&b, "\n\nCurrent step %d: %s\n%s", step.StepNumber, step.Title, step.Description)

	found, missing := inventory.ResolveToolRefs(step.RequiredTools, snap.Tools)
	for _, t := range found {
		fmt.Fprintf(&b, "\n- needs %s (%dx, %s)", t.Name, t.Quantity, t.Condition)
	}
	for _, name := range missing {
		fmt.Fprintf(&b, "\n- needs %s (not in toolroom)", name)
	}
	return b.String()
}

// findStep looks the step up by id, falling back to the active step.
func findStep(p *inventory.Project, stepID string) (inventory.Step, bool) {
	if stepID != "" {
		for _, st := range p.Steps {
			if st.ID == stepID {
				return st, true
			}
		}
	}
	return inventory.ActiveStep(p)
}
