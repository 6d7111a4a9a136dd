package api

import (
	"context"
	"net/http"

	"menu-service/models"

	"github.com/gorilla/mux"
)

func (s *Server) listSubmenus(w http.ResponseWriter, r *http.Request) {
	menuID := mux.Vars(r)["menu_id"]
	subs, err := read(s, r, submenusKey(menuID), func(ctx context.Context) ([]models.Submenu, error) {
		return s.store.ListSubmenus(ctx, menuID)
	})
	if err != nil {
		s.writeStoreError(w, r, err, menuErrors)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) getSubmenu(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	menuID, id := vars["menu_id"], vars["submenu_id"]
	sub, err := read(s, r, submenuKey(menuID, id), func(ctx context.Context) (*models.Submenu, error) {
		return s.store.GetSubmenu(ctx, menuID, id)
	})
	if err != nil {
		s.writeStoreError(w, r, err, submenuErrors)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) createSubmenu(w http.ResponseWriter, r *http.Request) {
	menuID := mux.Vars(r)["menu_id"]
	var in models.CreateSubmenuInput
	if !decode(w, r, &in) {
		return
	}
	sub, err := s.store.CreateSubmenu(r.Context(), menuID, in)
	if err != nil {
		s.writeStoreError(w, r, err, menuErrors)
		return
	}
	s.invalidate(menuID)
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) updateSubmenu(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	menuID, id := vars["menu_id"], vars["submenu_id"]
	var in models.UpdateSubmenuInput
	if !decode(w, r, &in) {
		return
	}
	if in.Title == nil && in.Description == nil {
		writeError(w, http.StatusBadRequest, codeEmptyUpdate, "no data provided for update", nil)
		return
	}
	sub, err := s.store.UpdateSubmenu(r.Context(), menuID, id, in)
	if err != nil {
		s.writeStoreError(w, r, err, submenuErrors)
		return
	}
	s.invalidate(menuID)
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) deleteSubmenu(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	menuID, id := vars["menu_id"], vars["submenu_id"]
	if err := s.store.DeleteSubmenu(r.Context(), menuID, id); err != nil {
		s.writeStoreError(w, r, err, submenuErrors)
		return
	}
	s.invalidate(menuID)
	writeJSON(w, http.StatusOK, DeleteResult{Status: true, Message: "The submenu has been deleted"})
}
