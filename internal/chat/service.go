// Package chat runs conversational turns: it frames the model call with the
// current inventory and project, turns ownership claims in the user's text
// into inventory commands, and drives project creation and planning.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jkmcrg/diybot/internal/inventory"
	"github.com/jkmcrg/diybot/internal/journal"
	"github.com/jkmcrg/diybot/internal/llm"
	"github.com/jkmcrg/diybot/internal/planner"
	"github.com/jkmcrg/diybot/internal/tools"
	"go.uber.org/zap"
)

// maxTitleLength is where a project title cut from its description stops.
const maxTitleLength = 50

var (
	// ErrEmptyMessage is returned for a blank chat message.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrEmptyDescription is returned for a blank project description.
	ErrEmptyDescription = errors.New("project description is empty")
)

var timeNow = time.Now

// Transcript is the slice of the journal the service needs.
type Transcript interface {
	Append(ctx context.Context, sessionID, role, content string) (int64, error)
	History(ctx context.Context, sessionID string, limit int) ([]journal.Entry, error)
}

// Turn is one inbound user message.
type Turn struct {
	Message string         `json:"content"`
	Context SessionContext `json:"context"`
}

// Reply is the assistant's answer to a Turn.
type Reply struct {
	Content   string           `json:"content"`
	Added     []inventory.Tool `json:"added_tools,omitempty"`
	Upstream  bool             `json:"upstream_error,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Service orchestrates conversational turns and planning.
type Service struct {
	store        *inventory.Store
	router       *tools.Router
	model        llm.Model
	planner      *planner.Generator
	transcript   Transcript
	historyLimit int
	log          *zap.Logger
}

// Deps are the collaborators a Service is built from. Transcript may be nil.
type Deps struct {
	Store        *inventory.Store
	Router       *tools.Router
	Model        llm.Model
	Planner      *planner.Generator
	Transcript   Transcript
	HistoryLimit int
	Logger       *zap.Logger
}

// NewService creates a Service.
func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Planner == nil {
		d.Planner = planner.New(d.Model, d.Logger)
	}
	if d.Router == nil {
		d.Router = tools.NewRouter(d.Store, d.Logger)
	}
	return &Service{
		store:        d.Store,
		router:       d.Router,
		model:        d.Model,
		planner:      d.Planner,
		transcript:   d.Transcript,
		historyLimit: d.HistoryLimit,
		log:          d.Logger,
	}
}

// Respond answers one turn. An unreachable model degrades to an error
// text in the reply and leaves the inventory untouched. Ownership claims
// in the user's own message are added to the toolroom through the router.
func (s *Service) Respond(ctx context.Context, turn Turn) (Reply, error) {
	message := strings.TrimSpace(turn.Message)
	if message == "" {
		return Reply{}, ErrEmptyMessage
	}
	sessionID := sessionKey(turn.Context)

	history := s.history(ctx, sessionID)
	snap := s.store.Snapshot()
	msgs := BuildContext(message, turn.Context, &snap, history)

	text, err := s.model.Chat(ctx, msgs)
	if err != nil {
		s.log.Warn("chat upstream failure", zap.String("session", sessionID), zap.Error(err))
		return Reply{
			Content:   fmt.Sprintf("Error communicating with AI: %v", err),
			Upstream:  true,
			Timestamp: timeNow().UTC(),
		}, nil
	}

	added := s.applyOwnershipClaims(ctx, message)
	if len(added) > 0 {
		var b strings.Builder
		b.WriteString(strings.TrimRight(text, "\n"))
		b.WriteString("\n")
		for _, t := range added {
			fmt.Fprintf(&b, "\nAdded %s to your toolroom.", t.Name)
		}
		text = b.String()
	}

	s.record(ctx, sessionID, journal.RoleUser, message)
	s.record(ctx, sessionID, journal.RoleAssistant, text)

	return Reply{Content: text, Added: added, Timestamp: timeNow().UTC()}, nil
}

// applyOwnershipClaims dispatches extractor commands like any other call.
func (s *Service) applyOwnershipClaims(ctx context.Context, message string) []inventory.Tool {
	claims := ExtractOwnershipClaims(message, s.store.Tools())

	var added []inventory.Tool
	for _, c := range claims {
		res := s.router.Dispatch(ctx, tools.OpAddTool, c.Args())
		if !res.OK {
			s.log.Warn("ownership claim rejected", zap.String("tool", c.Name), zap.String("error", res.String()))
			continue
		}
		if t, ok := res.Data.(inventory.Tool); ok {
			added = append(added, t)
		}
	}
	return added
}

// CreateProject creates a project from a free-text description and runs
// the discovery turn. The discovery reply is stored on the project.
func (s *Service) CreateProject(ctx context.Context, description string) (inventory.Project, string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return inventory.Project{}, "", ErrEmptyDescription
	}

	p := s.store.CreateProject(TitleFromDescription(description), description)
	s.log.Info("project created", zap.String("project", p.ID), zap.String("title", p.Title))

	reply, err := s.Respond(ctx, Turn{
		Message: fmt.Sprintf(
			"I just created a new project: %s. Please ask clarifying questions to understand the project "+
				"requirements, check my tool inventory, and help me plan this project step by step.",
			description),
		Context: SessionContext{ProjectID: p.ID, Phase: PhaseDiscovery},
	})
	if err != nil {
		return p, "", fmt.Errorf("discovery turn: %w", err)
	}

	if err := s.store.SetInitialMessage(p.ID, reply.Content); err != nil {
		return p, reply.Content, fmt.Errorf("storing discovery reply: %w", err)
	}
	p, err = s.store.Project(p.ID)
	if err != nil {
		return inventory.Project{}, reply.Content, fmt.Errorf("reloading project: %w", err)
	}
	return p, reply.Content, nil
}

// GenerateSteps plans the project against the current toolroom and appends
// the steps. An upstream failure writes nothing.
func (s *Service) GenerateSteps(ctx context.Context, projectID string) (inventory.Project, error) {
	p, err := s.store.Project(projectID)
	if err != nil {
		return inventory.Project{}, err
	}

	specs, err := s.planner.Generate(ctx, p.Description, s.store.Tools())
	if err != nil {
		return inventory.Project{}, err
	}

	p, err = s.store.AppendProjectSteps(projectID, specs)
	if err != nil {
		return inventory.Project{}, fmt.Errorf("appending steps: %w", err)
	}
	s.log.Info("steps generated",
		zap.String("project", projectID),
		zap.Int("added", len(specs)),
		zap.Int("total", len(p.Steps)))
	return p, nil
}

// CompleteStep marks the active step done and activates the next one.
func (s *Service) CompleteStep(_ context.Context, projectID string) (inventory.Project, error) {
	p, err := s.store.CompleteActiveStep(projectID)
	if err != nil {
		return inventory.Project{}, err
	}
	if p.Status == inventory.StatusCompleted {
		s.log.Info("project completed", zap.String("project", projectID))
	}
	return p, nil
}

// TitleFromDescription keeps the first 50 characters, adding "..." when cut.
func TitleFromDescription(description string) string {
	if utf8.RuneCountInString(description) <= maxTitleLength {
		return description
	}
	return string([]rune(description)[:maxTitleLength]) + "..."
}

// sessionKey picks the transcript a turn belongs to. Turns about a project
// without an explicit session share the project's transcript.
func sessionKey(sc SessionContext) string {
	switch {
	case sc.SessionID != "":
		return sc.SessionID
	case sc.ProjectID != "":
		return "project:" + sc.ProjectID
	default:
		return ""
	}
}

func (s *Service) history(ctx context.Context, sessionID string) []HistoryEntry {
	if s.transcript == nil || sessionID == "" {
		return nil
	}
	entries, err := s.transcript.History(ctx, sessionID, s.historyLimit)
	if err != nil {
		s.log.Warn("loading history", zap.String("session", sessionID), zap.Error(err))
		return nil
	}
	out := make([]HistoryEntry, len(entries))
	for i, e := range entries {
		out[i] = HistoryEntry{Role: e.Role, Content: e.Content}
	}
	return out
}

func (s *Service) record(ctx context.Context, sessionID, role, content string) {
	if s.transcript == nil || sessionID == "" {
		return
	}
	if _, err := s.transcript.Append(ctx, sessionID, role, content); err != nil {
		s.log.Warn("recording turn", zap.String("session", sessionID), zap.Error(err))
	}
}
