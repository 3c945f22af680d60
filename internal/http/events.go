package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomek7667/emsboard/internal/domain"
)

func (s *Server) addEventRoutes(r chi.Router) {
	r.Route("/api/events", func(r chi.Router) {
		r.Get("/", s.listEvents)
		r.Post("/", s.createEvent)
		r.Get("/{id}", s.getEvent)
		r.Put("/{id}", s.updateEvent)
		r.Post("/{id}/actions", s.addAction)
	})
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = domain.StatusOpen
	}
	if !domain.ValidStatusFilter(status) {
		s.writeError(w, r, fmt.Errorf("%w: status %q", domain.ErrInvalid, status))
		return
	}
	events, err := s.store.Events(r.Context(), status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if events == nil {
		events = []domain.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var in domain.EventInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.store.CreateEvent(r.Context(), in, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ok{Success: true, Message: "event created", ID: id})
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.store.Event(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var u domain.EventUpdate
	if err := decode(r, &u); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.UpdateEvent(r.Context(), id, u); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok{Success: true, Message: "event updated"})
}

func (s *Server) addAction(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in domain.ActionInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.AddAction(r.Context(), id, in, s.now()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ok{Success: true, Message: "action plan added"})
}
