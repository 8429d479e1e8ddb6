package inventory

import (
	"errors"
	"fmt"
	"sort"
)

// --- Step state machine ---
//
// Steps are append-only. step_number is derived from the current length
// of the list at append time and is never renumbered. At most one step
// per project is active; by convention it is the first incomplete step
// in step_number order.

// ErrNoActiveStep is returned when a project has no incomplete step left.
var ErrNoActiveStep = errors.New("no incomplete step")

// AppendProjectSteps appends specs to a project in order. Only the very
// first step ever appended to an empty project is activated; later
// appends never auto-activate. Regenerating a plan therefore continues
// the numbering rather than replacing the existing steps.
func (s *Store) AppendProjectSteps(projectID string, specs []StepSpec) (Project, error) {
	var out Project
	err := s.updateProject(projectID, func(p *Project) error {
		wasEmpty := len(p.Steps) == 0
		for i, spec := range specs {
			p.Steps = append(p.Steps, Step{
				ID:            newID(),
				StepNumber:    len(p.Steps) + 1,
				Title:         spec.Title,
				Description:   spec.Description,
				RequiredTools: append([]string{}, spec.RequiredTools...),
				IsActive:      wasEmpty && i == 0,
			})
		}

		total := len(p.Steps)
		p.TotalSteps = &total
		if p.CurrentStep == nil && total > 0 {
			one := 1
			p.CurrentStep = &one
		}
		p.Status = StatusInProgress
		p.CompletedAt = nil
		out = p.clone()
		return nil
	})
	if err != nil {
		return Project{}, err
	}
	return out, nil
}

// ActiveStep returns the project's active step, falling back to the first
// incomplete step when none is flagged. ok is false when every step is done.
func ActiveStep(p *Project) (step Step, ok bool) {
	for _, st := range p.Steps {
		if st.IsActive {
			return st, true
		}
	}
	idx := firstIncomplete(p.Steps, 0)
	if idx < 0 {
		return Step{}, false
	}
	return p.Steps[idx], true
}

// CompleteActiveStep marks the active step completed and activates the
// next incomplete step. When nothing is left the project is completed.
func (s *Store) CompleteActiveStep(projectID string) (Project, error) {
	var out Project
	err := s.updateProject(projectID, func(p *Project) error {
		sortSteps(p.Steps)

		idx := -1
		for i, st := range p.Steps {
			if st.IsActive {
				idx = i
				break
			}
		}
		if idx < 0 {
			idx = firstIncomplete(p.Steps, 0)
		}
		if idx < 0 {
			return fmt.Errorf("project %q: %w", projectID, ErrNoActiveStep)
		}

		p.Steps[idx].IsActive = false
		p.Steps[idx].IsCompleted = true

		next := firstIncomplete(p.Steps, idx+1)
		if next < 0 {
			next = firstIncomplete(p.Steps, 0)
		}
		if next < 0 {
			// Every step is done.
			num := p.Steps[idx].StepNumber
			p.CurrentStep = &num
			p.Status = StatusCompleted
			now := timeNow().UTC()
			p.CompletedAt = &now
			out = p.clone()
			return nil
		}

		p.Steps[next].IsActive = true
		num := p.Steps[next].StepNumber
		p.CurrentStep = &num
		out = p.clone()
		return nil
	})
	if err != nil {
		return Project{}, err
	}
	return out, nil
}

func firstIncomplete(steps []Step, from int) int {
	for i := from; i < len(steps); i++ {
		if !steps[i].IsCompleted {
			return i
		}
	}
	return -1
}

func sortSteps(steps []Step) {
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].StepNumber < steps[j].StepNumber
	})
}
