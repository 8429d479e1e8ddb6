// Package inventory is the in-memory entity store for DIY Bot.
//
// It owns every Tool, HouseObject and Project (with its Steps) for the
// lifetime of the process. Nothing is persisted: a restart starts from
// the seeded defaults again.
//
// The package follows the same layout as the other state packages:
// - types.go: entities and enums
// - store.go: collections and mutations
// - steps.go: the step state machine
package inventory

import (
	"errors"
	"fmt"
	"time"
)

// --- Tool condition enum ---

// Condition describes whether a tool can be used right now.
type Condition string

const (
	ConditionWorking          Condition = "working"
	ConditionBroken           Condition = "broken"
	ConditionNeedsMaintenance Condition = "needs_maintenance"
)

// validConditions is the set of allowed tool conditions.
var validConditions = map[Condition]bool{
	ConditionWorking:          true,
	ConditionBroken:           true,
	ConditionNeedsMaintenance: true,
}

// Conditions lists the allowed values in schema order.
func Conditions() []string {
	return []string{string(ConditionWorking), string(ConditionBroken), string(ConditionNeedsMaintenance)}
}

// ValidateCondition returns an error if the condition is not recognized.
func ValidateCondition(c Condition) error {
	if !validConditions[c] {
		return fmt.Errorf("invalid condition %q: must be one of: working, broken, needs_maintenance", c)
	}
	return nil
}

// --- Project status enum ---

// ProjectStatus tracks the lifecycle of a project.
type ProjectStatus string

const (
	StatusPlanning   ProjectStatus = "planning"
	StatusInProgress ProjectStatus = "in_progress"
	StatusCompleted  ProjectStatus = "completed"
	StatusPaused     ProjectStatus = "paused"
)

var validStatuses = map[ProjectStatus]bool{
	StatusPlanning:   true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusPaused:     true,
}

// ErrInvalidStatus is returned for a status outside the enum.
var ErrInvalidStatus = errors.New("invalid project status")

// ValidateStatus returns an error if the status is not recognized.
func ValidateStatus(s ProjectStatus) error {
	if !validStatuses[s] {
		return fmt.Errorf("%w %q: must be one of: planning, in_progress, completed, paused", ErrInvalidStatus, s)
	}
	return nil
}

// --- Entities ---

// Tool is an item in the user's toolroom.
type Tool struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Category     string            `json:"category"`
	Quantity     int               `json:"quantity"`
	Condition    Condition         `json:"condition"`
	IconKeywords []string          `json:"icon_keywords"`
	Properties   map[string]string `json:"properties"`
}

// HouseObject is an appliance or fixture discovered during conversation.
type HouseObject struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Location   string            `json:"location"`
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties"`
}

// Step is one instruction within a project plan. Steps have no lifecycle
// of their own; they live and die with their project.
type Step struct {
	ID            string   `json:"id"`
	StepNumber    int      `json:"step_number"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	RequiredTools []string `json:"required_tools"` // tool names, see ResolveToolRefs
	IsActive      bool     `json:"is_active"`
	IsCompleted   bool     `json:"is_completed"`
}

// Project is a DIY project with its ordered plan.
type Project struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	Status           ProjectStatus `json:"status"`
	CreatedAt        time.Time     `json:"created_at"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
	CurrentStep      *int          `json:"current_step,omitempty"` // 1-based
	TotalSteps       *int          `json:"total_steps,omitempty"`
	Steps            []Step        `json:"steps"`
	InitialAIMessage string        `json:"initial_ai_message,omitempty"`
}

// --- Creation specs ---

// ToolSpec holds the caller-supplied fields for a new tool.
// Quantity is a pointer so "unspecified" can default to 1.
type ToolSpec struct {
	Name         string
	Category     string
	Quantity     *int
	Condition    Condition
	IconKeywords []string
	Properties   map[string]string
}

// HouseObjectSpec holds the caller-supplied fields for a new house object.
type HouseObjectSpec struct {
	Name       string
	Location   string
	Type       string
	Properties map[string]string
}

// StepSpec is an unnumbered step waiting to be appended to a project.
type StepSpec struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	RequiredTools []string `json:"required_tools"`
}

// Snapshot is a point-in-time copy of every collection.
type Snapshot struct {
	Tools        []Tool        `json:"tools"`
	HouseObjects []HouseObject `json:"house_objects"`
	Projects     []Project     `json:"projects"`
}

// --- Copy helpers ---

func (t Tool) clone() Tool {
	t.IconKeywords = append([]string{}, t.IconKeywords...)
	t.Properties = cloneProps(t.Properties)
	return t
}

func (h HouseObject) clone() HouseObject {
	h.Properties = cloneProps(h.Properties)
	return h
}

func (p Project) clone() Project {
	steps := make([]Step, len(p.Steps))
	for i, s := range p.Steps {
		s.RequiredTools = append([]string{}, s.RequiredTools...)
		steps[i] = s
	}
	p.Steps = steps
	if p.CurrentStep != nil {
		v := *p.CurrentStep
		p.CurrentStep = &v
	}
	if p.TotalSteps != nil {
		v := *p.TotalSteps
		p.TotalSteps = &v
	}
	if p.CompletedAt != nil {
		v := *p.CompletedAt
		p.CompletedAt = &v
	}
	return p
}

func cloneProps(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
