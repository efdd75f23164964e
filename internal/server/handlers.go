package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"codearh/internal/agent"
	"codearh/internal/app"
	"codearh/internal/client"
	"codearh/internal/project"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

type instructionView struct {
	Name string `json:"name"`
	Size int    `json:"size"`
	Type string `json:"type"`
}

type agentView struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Icon         string            `json:"icon"`
	Description  string            `json:"description"`
	Enabled      bool              `json:"enabled"`
	Model        string            `json:"model"`
	Keywords     []string          `json:"keywords"`
	Instructions []instructionView `json:"instructions"`
}

func viewAgent(a agent.Agent) agentView {
	v := agentView{
		ID:           a.ID,
		Name:         a.Name,
		Icon:         a.Icon,
		Description:  a.Description,
		Enabled:      a.Enabled,
		Model:        a.Model,
		Keywords:     a.Keywords,
		Instructions: []instructionView{},
	}
	for _, in := range a.Instructions() {
		v.Instructions = append(v.Instructions, instructionView{Name: in.Name, Size: in.Size, Type: in.Type})
	}
	return v
}

type fileView struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	Language  string `json:"language"`
	Revision  int    `json:"revision"`
	Size      int    `json:"size"`
	InContext bool   `json:"inContext"`
	Content   string `json:"content,omitempty"`
}

func viewFile(p *project.Project, f project.VirtualFile, withContent bool) fileView {
	v := fileView{
		Path:      f.Path,
		Name:      f.Name,
		Language:  f.Language,
		Revision:  f.Revision,
		Size:      f.Size(),
		InContext: p.InContext(f.Path),
	}
	if withContent {
		v.Content = f.Content
	}
	return v
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.app.Config().Version,
		"agents":  s.app.Registry().StatusText(),
	})
}

func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	p := s.app.Project()
	resp := map[string]any{
		"state":        s.app.States().State(),
		"status":       s.app.Status(),
		"loop":         s.app.Loop().State(),
		"agentsStatus": s.app.Registry().StatusText(),
		"projectId":    p.ID(),
		"activeFile":   p.ActiveFile(),
		"contextFiles": p.ContextKeys(),
	}
	if costs := s.app.Costs(); costs != nil {
		resp["costs"] = costs.Summary()
	}
	JSON(w, http.StatusOK, resp)
}

func (s *Server) listAgents(w http.ResponseWriter, r *http.Request) {
	agents := s.app.Registry().Agents()
	out := make([]agentView, 0, len(agents))
	for _, a := range agents {
		out = append(out, viewAgent(a))
	}
	JSON(w, http.StatusOK, out)
}

// agentFromPath writes a 404 and returns false for unknown agent ids.
func (s *Server) agentFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, ok := s.app.Registry().Get(id); !ok {
		Error(w, http.StatusNotFound, "unknown agent: "+id)
		return "", false
	}
	return id, true
}

func (s *Server) toggleAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.agentFromPath(w, r)
	if !ok {
		return
	}
	enabled, err := s.app.ToggleAgent(r.Context(), id)
	if err != nil {
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	JSON(w, http.StatusOK, map[string]any{"id": id, "enabled": enabled})
}

func (s *Server) setAgentModel(w http.ResponseWriter, r *http.Request) {
	id, ok := s.agentFromPath(w, r)
	if !ok {
		return
	}
	var body struct {
		Model string `json:"model"`
	}
	if err := decode(w, r, &body); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.app.SetAgentModel(r.Context(), id, body.Model); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	a, _ := s.app.Registry().Get(id)
	JSON(w, http.StatusOK, viewAgent(a))
}

func (s *Server) addInstruction(w http.ResponseWriter, r *http.Request) {
	id, ok := s.agentFromPath(w, r)
	if !ok {
		return
	}
	var body struct {
		Name    string `json:"name"`
		Content string `json:"content"`
		Type    string `json:"type"`
	}
	if err := decode(w, r, &body); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in := agent.Instruction{Name: body.Name, Content: body.Content, Type: body.Type}
	if err := s.app.AddAgentInstruction(r.Context(), id, in); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	a, _ := s.app.Registry().Get(id)
	JSON(w, http.StatusCreated, viewAgent(a))
}

func (s *Server) removeInstruction(w http.ResponseWriter, r *http.Request) {
	id, ok := s.agentFromPath(w, r)
	if !ok {
		return
	}
	if err := s.app.RemoveAgentInstruction(r.Context(), id, chi.URLParam(r, "name")); err != nil {
		Error(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	p := s.app.Project()
	files := p.Files()
	out := make([]fileView, 0, len(files))
	for _, f := range files {
		out = append(out, viewFile(p, f, false))
	}
	JSON(w, http.StatusOK, out)
}

func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	p := s.app.Project()
	path := chi.URLParam(r, "*")
	f, ok := p.File(path)
	if !ok {
		Error(w, http.StatusNotFound, "file not found: "+path)
		return
	}
	JSON(w, http.StatusOK, viewFile(p, f, true))
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, s.app.Messages())
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if err := decode(w, r, &body); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	before := len(s.app.Messages())
	err := s.app.SendMessage(r.Context(), body.Message)

	var cfgErr *app.ConfigurationError
	var execErr *app.ExecutionError
	switch {
	case errors.Is(err, app.ErrBusy):
		Error(w, http.StatusConflict, err.Error())
		return
	case errors.As(err, &cfgErr):
		status := http.StatusUnprocessableEntity
		if errors.Is(err, client.ErrMissingKey) {
			status = http.StatusPreconditionFailed
		}
		Error(w, status, cfgErr.Error())
		return
	case errors.As(err, &execErr):
		JSON(w, http.StatusBadGateway, map[string]any{
			"error":    execErr.Error(),
			"attempts": execErr.Attempts,
			"log":      execErr.Log,
		})
		return
	case err != nil:
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	msgs := s.app.Messages()
	if before > len(msgs) {
		before = 0
	}
	JSON(w, http.StatusOK, map[string]any{
		"messages": msgs[before:],
		"state":    s.app.States().State(),
		"status":   s.app.Status(),
	})
}
