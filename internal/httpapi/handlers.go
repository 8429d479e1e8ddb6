package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/jkmcrg/diybot/internal/inventory"
	"github.com/jkmcrg/diybot/internal/journal"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "DIY Bot API is running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ── Inventory ───────────────────────────────────────────

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Store.Tools())
}

func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	t, err := s.app.Store.Tool(r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleHouseObjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Store.HouseObjects())
}

func (s *Server) handleHouseObject(w http.ResponseWriter, r *http.Request) {
	h, err := s.app.Store.HouseObject(r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

// ── Projects ────────────────────────────────────────────

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Store.Projects())
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.app.Store.Project(r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type createProjectRequest struct {
	Description string `json:"description"`
}

type createProjectResponse struct {
	ProjectID  string `json:"project_id"`
	AIResponse string `json:"ai_response"`
	Status     string `json:"status"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, aiResponse, err := s.app.Chat.CreateProject(r.Context(), req.Description)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, createProjectResponse{
		ProjectID:  p.ID,
		AIResponse: aiResponse,
		Status:     "created",
	})
}

func (s *Server) handleGenerateSteps(w http.ResponseWriter, r *http.Request) {
	p, err := s.app.Chat.GenerateSteps(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCompleteStep(w http.ResponseWriter, r *http.Request) {
	p, err := s.app.Chat.CompleteStep(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type statusRequest struct {
	Status inventory.ProjectStatus `json:"status"`
}

// handleProjectStatus pauses, resumes or closes a project by hand.
func (s *Server) handleProjectStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.app.Store.SetProjectStatus(r.PathValue("id"), req.Status)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ── Tool calls ──────────────────────────────────────────

type toolCallRequest struct {
	FunctionName string         `json:"function_name"`
	Arguments    map[string]any `json:"arguments"`
}

// handleToolCall always answers 200 once the body parses; failures are
// data in the result.
func (s *Server) handleToolCall(w http.ResponseWriter, r *http.Request) {
	var req toolCallRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.app.Router.Dispatch(r.Context(), req.FunctionName, req.Arguments))
}

func (s *Server) handleToolSchema(w http.ResponseWriter, r *http.Request) {
	data, err := s.app.Router.SchemaJSON()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// ── Sessions ────────────────────────────────────────────

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.app.Journal.Sessions(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []journal.SessionSummary{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

// handleSessionHistory accepts ?limit=N; zero or absent means the
// journal's own cap.
func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := s.app.Journal.History(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Journal.Clear(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
