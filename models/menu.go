package models

type Menu struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	SubmenuCount int    `json:"submenu_count"`
	DishCount    int    `json:"dish_count"`
}

type Submenu struct {
	ID          string `json:"id"`
	MenuID      string `json:"menu_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DishCount   int    `json:"dish_count"`
}

type Dish struct {
	ID          string `json:"id"`
	SubmenuID   string `json:"submenu_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
}

// CreateMenuInput is the POST body for a menu. ID is optional; the store
// generates one when it is empty.
type CreateMenuInput struct {
	ID          string `json:"id" validate:"omitempty,uuid"`
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
}

type CreateSubmenuInput struct {
	ID          string `json:"id" validate:"omitempty,uuid"`
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
}

type CreateDishInput struct {
	ID          string `json:"id" validate:"omitempty,uuid"`
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
	Price       string `json:"price" validate:"required,decimal"`
}

// Patch inputs leave nil fields untouched.
type UpdateMenuInput struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
}

type UpdateSubmenuInput struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
}

type UpdateDishInput struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	Price       *string `json:"price" validate:"omitempty,decimal"`
}
