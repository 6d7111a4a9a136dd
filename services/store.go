package services

import (
	"context"
	"errors"
	"fmt"

	"menu-service/models"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("conflict")
	ErrInvalidID = errors.New("invalid id")
)

// Store persists the menu -> submenu -> dish hierarchy. Lookups are scoped by
// parent ids: a submenu that exists under another menu is reported as
// ErrNotFound. Counters on parents are kept in step with child writes.
type Store interface {
	ListMenus(ctx context.Context) ([]models.Menu, error)
	GetMenu(ctx context.Context, id string) (*models.Menu, error)
	CreateMenu(ctx context.Context, in models.CreateMenuInput) (*models.Menu, error)
	UpdateMenu(ctx context.Context, id string, in models.UpdateMenuInput) (*models.Menu, error)
	DeleteMenu(ctx context.Context, id string) error

	ListSubmenus(ctx context.Context, menuID string) ([]models.Submenu, error)
	GetSubmenu(ctx context.Context, menuID, id string) (*models.Submenu, error)
	CreateSubmenu(ctx context.Context, menuID string, in models.CreateSubmenuInput) (*models.Submenu, error)
	UpdateSubmenu(ctx context.Context, menuID, id string, in models.UpdateSubmenuInput) (*models.Submenu, error)
	DeleteSubmenu(ctx context.Context, menuID, id string) error

	ListDishes(ctx context.Context, menuID, submenuID string) ([]models.Dish, error)
	GetDish(ctx context.Context, menuID, submenuID, id string) (*models.Dish, error)
	CreateDish(ctx context.Context, menuID, submenuID string, in models.CreateDishInput) (*models.Dish, error)
	UpdateDish(ctx context.Context, menuID, submenuID, id string, in models.UpdateDishInput) (*models.Dish, error)
	DeleteDish(ctx context.Context, menuID, submenuID, id string) error
}

// newID returns the requested id, or a fresh one when none was given.
func newID(requested string) (string, error) {
	if requested == "" {
		return uuid.NewString(), nil
	}
	id, err := uuid.Parse(requested)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, requested)
	}
	return id.String(), nil
}

// validID reports whether s can name a stored entity. Anything else cannot
// exist and is treated as not found.
func validID(ids ...string) bool {
	for _, s := range ids {
		if _, err := uuid.Parse(s); err != nil {
			return false
		}
	}
	return true
}
