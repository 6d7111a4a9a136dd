package api

import (
	"context"
	"fmt"
	"net/http"

	"menu-service/models"

	"github.com/gorilla/mux"
)

func (s *Server) listMenus(w http.ResponseWriter, r *http.Request) {
	menus, err := read(s, r, menusKey(), s.store.ListMenus)
	if err != nil {
		s.writeStoreError(w, r, err, menuErrors)
		return
	}
	writeJSON(w, http.StatusOK, menus)
}

func (s *Server) getMenu(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["menu_id"]
	menu, err := read(s, r, menuKey(id), func(ctx context.Context) (*models.Menu, error) {
		return s.store.GetMenu(ctx, id)
	})
	if err != nil {
		s.writeStoreError(w, r, err, menuErrors)
		return
	}
	writeJSON(w, http.StatusOK, menu)
}

func (s *Server) createMenu(w http.ResponseWriter, r *http.Request) {
	var in models.CreateMenuInput
	if !decode(w, r, &in) {
		return
	}
	menu, err := s.store.CreateMenu(r.Context(), in)
	if err != nil {
		s.writeStoreError(w, r, err, menuErrors)
		return
	}
	s.invalidate(menu.ID)
	s.notifyMenuCreated(*menu)
	writeJSON(w, http.StatusCreated, menu)
}

func (s *Server) notifyMenuCreated(menu models.Menu) {
	if s.notifier == nil {
		return
	}
	s.queue.Enqueue("notify menu created", func(ctx context.Context) error {
		return s.notifier.Notify(ctx, "Menu created", fmt.Sprintf("%s\n%s", menu.Title, menu.Description))
	})
}

func (s *Server) updateMenu(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["menu_id"]
	var in models.UpdateMenuInput
	if !decode(w, r, &in) {
		return
	}
	if in.Title == nil && in.Description == nil {
		writeError(w, http.StatusBadRequest, codeEmptyUpdate, "no data provided for update", nil)
		return
	}
	menu, err := s.store.UpdateMenu(r.Context(), id, in)
	if err != nil {
		s.writeStoreError(w, r, err, menuErrors)
		return
	}
	s.invalidate(id)
	writeJSON(w, http.StatusOK, menu)
}

func (s *Server) deleteMenu(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["menu_id"]
	if err := s.store.DeleteMenu(r.Context(), id); err != nil {
		s.writeStoreError(w, r, err, menuErrors)
		return
	}
	s.invalidate(id)
	writeJSON(w, http.StatusOK, DeleteResult{Status: true, Message: "The menu has been deleted"})
}
