package inventory

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a referenced id does not exist.
var ErrNotFound = errors.New("not found")

// newID is a package-level variable for testability.
var newID = func() string { return uuid.New().String() }

// Store is the process-wide entity store. It is constructed once by the
// composition root and passed to every component that needs it.
//
// A single RWMutex guards all collections; every operation is a short
// in-memory map update, so finer-grained locking buys nothing.
type Store struct {
	mu sync.RWMutex

	tools    map[string]*Tool
	objects  map[string]*HouseObject
	projects map[string]*Project

	// Insertion order, so listings are stable across calls.
	toolOrder    []string
	objectOrder  []string
	projectOrder []string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		tools:    map[string]*Tool{},
		objects:  map[string]*HouseObject{},
		projects: map[string]*Project{},
	}
}

// --- Tools ---

// AddTool inserts a new tool and returns the stored copy. There is no
// duplicate detection: two calls with the same name yield two tools.
func (s *Store) AddTool(spec ToolSpec) Tool {
	qty := 1
	if spec.Quantity != nil {
		qty = *spec.Quantity
	}
	if qty < 0 {
		qty = 0
	}
	cond := spec.Condition
	if cond == "" {
		cond = ConditionWorking
	}

	t := Tool{
		ID:           newID(),
		Name:         spec.Name,
		Category:     spec.Category,
		Quantity:     qty,
		Condition:    cond,
		IconKeywords: append([]string{}, spec.IconKeywords...),
		Properties:   cloneProps(spec.Properties),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertTool(&t)
	return t.clone()
}

func (s *Store) insertTool(t *Tool) {
	if _, exists := s.tools[t.ID]; !exists {
		s.toolOrder = append(s.toolOrder, t.ID)
	}
	s.tools[t.ID] = t
}

// AdjustToolQuantity adds delta to a tool's quantity, clamping at zero.
// The reason is not stored; callers echo it back to the user.
func (s *Store) AdjustToolQuantity(id string, delta int, reason string) (oldQty, newQty int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tools[id]
	if !ok {
		return 0, 0, fmt.Errorf("tool %q: %w", id, ErrNotFound)
	}
	oldQty = t.Quantity
	t.Quantity = addClamped(t.Quantity, delta)
	return oldQty, t.Quantity, nil
}

// addClamped returns qty+delta bounded to [0, math.MaxInt]. qty is never
// negative, so only a positive delta can overflow.
func addClamped(qty, delta int) int {
	if delta > 0 && qty > math.MaxInt-delta {
		return math.MaxInt
	}
	if sum := qty + delta; sum > 0 {
		return sum
	}
	return 0
}

// SetToolCondition replaces a tool's condition. Notes are not stored.
func (s *Store) SetToolCondition(id string, cond Condition, notes string) (oldCond, newCond Condition, err error) {
	if err := ValidateCondition(cond); err != nil {
		return "", "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tools[id]
	if !ok {
		return "", "", fmt.Errorf("tool %q: %w", id, ErrNotFound)
	}
	oldCond = t.Condition
	t.Condition = cond
	return oldCond, t.Condition, nil
}

// Tool returns a copy of a single tool.
func (s *Store) Tool(id string) (Tool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tools[id]
	if !ok {
		return Tool{}, fmt.Errorf("tool %q: %w", id, ErrNotFound)
	}
	return t.clone(), nil
}

// Tools returns a snapshot of every tool.
func (s *Store) Tools() []Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Tool, 0, len(s.toolOrder))
	for _, id := range s.toolOrder {
		out = append(out, s.tools[id].clone())
	}
	return out
}

// --- House objects ---

// AddHouseObject inserts a new house object and returns the stored copy.
func (s *Store) AddHouseObject(spec HouseObjectSpec) HouseObject {
	h := HouseObject{
		ID:         newID(),
		Name:       spec.Name,
		Location:   spec.Location,
		Type:       spec.Type,
		Properties: cloneProps(spec.Properties),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[h.ID] = &h
	s.objectOrder = append(s.objectOrder, h.ID)
	return h.clone()
}

// HouseObject returns a copy of a single house object.
func (s *Store) HouseObject(id string) (HouseObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.objects[id]
	if !ok {
		return HouseObject{}, fmt.Errorf("house object %q: %w", id, ErrNotFound)
	}
	return h.clone(), nil
}

// HouseObjects returns a snapshot of every house object.
func (s *Store) HouseObjects() []HouseObject {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]HouseObject, 0, len(s.objectOrder))
	for _, id := range s.objectOrder {
		out = append(out, s.objects[id].clone())
	}
	return out
}

// --- Projects ---

// CreateProject inserts a new project in the planning state with no steps.
func (s *Store) CreateProject(title, description string) Project {
	p := Project{
		ID:          newID(),
		Title:       title,
		Description: description,
		Status:      StatusPlanning,
		CreatedAt:   timeNow().UTC(),
		Steps:       []Step{},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = &p
	s.projectOrder = append(s.projectOrder, p.ID)
	return p.clone()
}

// Project returns a copy of a single project.
func (s *Store) Project(id string) (Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return Project{}, fmt.Errorf("project %q: %w", id, ErrNotFound)
	}
	return p.clone(), nil
}

// Projects returns a snapshot of every project.
func (s *Store) Projects() []Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Project, 0, len(s.projectOrder))
	for _, id := range s.projectOrder {
		out = append(out, s.projects[id].clone())
	}
	return out
}

// SetInitialMessage records the assistant's first reply for a project.
func (s *Store) SetInitialMessage(id, text string) error {
	return s.updateProject(id, func(p *Project) error {
		p.InitialAIMessage = text
		return nil
	})
}

// SetProjectStatus moves a project to the given status. Pausing and
// resuming are driven from outside the conversation. Completing stamps
// completed_at and any other status clears it.
func (s *Store) SetProjectStatus(id string, status ProjectStatus) (Project, error) {
	if err := ValidateStatus(status); err != nil {
		return Project{}, err
	}
	var out Project
	err := s.updateProject(id, func(p *Project) error {
		p.Status = status
		switch {
		case status != StatusCompleted:
			p.CompletedAt = nil
		case p.CompletedAt == nil:
			now := timeNow().UTC()
			p.CompletedAt = &now
		}
		out = p.clone()
		return nil
	})
	return out, err
}

func (s *Store) updateProject(id string, fn func(p *Project) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return fmt.Errorf("project %q: %w", id, ErrNotFound)
	}
	return fn(p)
}

// Snapshot returns copies of all collections taken under one lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Tools:        make([]Tool, 0, len(s.toolOrder)),
		HouseObjects: make([]HouseObject, 0, len(s.objectOrder)),
		Projects:     make([]Project, 0, len(s.projectOrder)),
	}
	for _, id := range s.toolOrder {
		snap.Tools = append(snap.Tools, s.tools[id].clone())
	}
	for _, id := range s.objectOrder {
		snap.HouseObjects = append(snap.HouseObjects, s.objects[id].clone())
	}
	for _, id := range s.projectOrder {
		snap.Projects = append(snap.Projects, s.projects[id].clone())
	}
	return snap
}

// ResolveToolRefs maps a step's required_tools entries to inventory tools.
// An entry matches a tool by exact id or by case-insensitive name.
// Entries with no match are returned in missing, in input order.
func ResolveToolRefs(refs []string, tools []Tool) (found []Tool, missing []string) {
	for _, ref := range refs {
		key := strings.TrimSpace(ref)
		var match *Tool
		for i := range tools {
			if tools[i].ID == key || strings.EqualFold(tools[i].Name, key) {
				match = &tools[i]
				break
			}
		}
		if match == nil {
			missing = append(missing, ref)
			continue
		}
		found = append(found, *match)
	}
	return found, missing
}
