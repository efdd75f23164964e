package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"codearh/internal/undo"
)

type changeView struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	Source     string    `json:"source"`
	Time       time.Time `json:"time"`
	WasNew     bool      `json:"wasNew"`
	SizeChange int       `json:"sizeChange"`
}

func viewChange(c undo.Change) changeView {
	return changeView{
		ID:         c.ID,
		Path:       c.Path,
		Source:     string(c.Source),
		Time:       c.Time,
		WasNew:     c.WasNew,
		SizeChange: c.SizeChange(),
	}
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	n := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		n = parsed
	}
	changes := s.app.History(n)
	out := make([]changeView, 0, len(changes))
	for _, c := range changes {
		out = append(out, viewChange(c))
	}
	JSON(w, http.StatusOK, out)
}

func (s *Server) undo(w http.ResponseWriter, r *http.Request) {
	s.applyHistory(w, r, s.app.Undo)
}

func (s *Server) redo(w http.ResponseWriter, r *http.Request) {
	s.applyHistory(w, r, s.app.Redo)
}

func (s *Server) applyHistory(w http.ResponseWriter, r *http.Request, op func(context.Context) (undo.Change, error)) {
	c, err := op(r.Context())
	switch {
	case errors.Is(err, undo.ErrNothingToUndo), errors.Is(err, undo.ErrNothingToRedo):
		Error(w, http.StatusConflict, err.Error())
		return
	case err != nil && c.Path == "":
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	// the edit was applied even when saving failed
	JSON(w, http.StatusOK, viewChange(c))
}
