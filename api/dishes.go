package api

import (
	"context"
	"net/http"

	"menu-service/models"

	"github.com/gorilla/mux"
)

func (s *Server) listDishes(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	menuID, submenuID := vars["menu_id"], vars["submenu_id"]
	dishes, err := read(s, r, dishesKey(menuID, submenuID), func(ctx context.Context) ([]models.Dish, error) {
		return s.store.ListDishes(ctx, menuID, submenuID)
	})
	if err != nil {
		s.writeStoreError(w, r, err, submenuErrors)
		return
	}
	writeJSON(w, http.StatusOK, dishes)
}

func (s *Server) getDish(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	menuID, submenuID, id := vars["menu_id"], vars["submenu_id"], vars["dish_id"]
	dish, err := read(s, r, dishKey(menuID, submenuID, id), func(ctx context.Context) (*models.Dish, error) {
		return s.store.GetDish(ctx, menuID, submenuID, id)
	})
	if err != nil {
		s.writeStoreError(w, r, err, dishErrors)
		return
	}
	writeJSON(w, http.StatusOK, dish)
}

func (s *Server) createDish(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	menuID, submenuID := vars["menu_id"], vars["submenu_id"]
	var in models.CreateDishInput
	if !decode(w, r, &in) {
		return
	}
	dish, err := s.store.CreateDish(r.Context(), menuID, submenuID, in)
	if err != nil {
		s.writeStoreError(w, r, err, submenuErrors)
		return
	}
	s.invalidate(menuID)
	writeJSON(w, http.StatusCreated, dish)
}

func (s *Server) updateDish(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	menuID, submenuID, id := vars["menu_id"], vars["submenu_id"], vars["dish_id"]
	var in models.UpdateDishInput
	if !decode(w, r, &in) {
		return
	}
	if in.Title == nil && in.Description == nil && in.Price == nil {
		writeError(w, http.StatusBadRequest, codeEmptyUpdate, "no data provided for update", nil)
		return
	}
	dish, err := s.store.UpdateDish(r.Context(), menuID, submenuID, id, in)
	if err != nil {
		s.writeStoreError(w, r, err, dishErrors)
		return
	}
	s.invalidate(menuID)
	writeJSON(w, http.StatusOK, dish)
}

func (s *Server) deleteDish(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	menuID, submenuID, id := vars["menu_id"], vars["submenu_id"], vars["dish_id"]
	if err := s.store.DeleteDish(r.Context(), menuID, submenuID, id); err != nil {
		s.writeStoreError(w, r, err, dishErrors)
		return
	}
	s.invalidate(menuID)
	writeJSON(w, http.StatusOK, DeleteResult{Status: true, Message: "The dish has been deleted"})
}
