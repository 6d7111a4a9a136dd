package services

import (
	"context"

	"menu-service/models"

	"github.com/jackc/pgx/v5"
)

func scanDish(row pgx.Row) (*models.Dish, error) {
	var d models.Dish
	if err := row.Scan(&d.ID, &d.SubmenuID, &d.Title, &d.Description, &d.Price); err != nil {
		return nil, mapErr(err)
	}
	return &d, nil
}

func (s *PostgresStore) ListDishes(ctx context.Context, menuID, submenuID string) ([]models.Dish, error) {
	dishes := []models.Dish{}
	if !validID(menuID, submenuID) {
		return dishes, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT d.id::text, d.submenu_id::text, d.title, d.description, d.price
		FROM dishes d
		JOIN submenus s ON s.id = d.submenu_id
		WHERE d.submenu_id = $1 AND s.menu_id = $2
		ORDER BY d.created_at, d.id`,
		submenuID, menuID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		d, err := scanDish(rows)
		if err != nil {
			return nil, err
		}
		dishes = append(dishes, *d)
	}
	return dishes, rows.Err()
}

func (s *PostgresStore) GetDish(ctx context.Context, menuID, submenuID, id string) (*models.Dish, error) {
	if !validID(menuID, submenuID, id) {
		return nil, ErrNotFound
	}
	return scanDish(s.pool.QueryRow(ctx, `
		SELECT d.id::text, d.submenu_id::text, d.title, d.description, d.price
		FROM dishes d
		JOIN submenus s ON s.id = d.submenu_id
		WHERE d.id = $1 AND d.submenu_id = $2 AND s.menu_id = $3`,
		id, submenuID, menuID,
	))
}

// CreateDish inserts the dish and bumps dish_count on both the submenu and the menu.
func (s *PostgresStore) CreateDish(ctx context.Context, menuID, submenuID string, in models.CreateDishInput) (*models.Dish, error) {
	if !validID(menuID, submenuID) {
		return nil, ErrNotFound
	}
	id, err := newID(in.ID)
	if err != nil {
		return nil, err
	}

	var created *models.Dish
	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		res, err := tx.Exec(ctx, `
			UPDATE submenus SET dish_count = dish_count + 1, updated_at = now()
			WHERE id = $1 AND menu_id = $2`,
			submenuID, menuID,
		)
		if err != nil {
			return mapErr(err)
		}
		if res.RowsAffected() == 0 {
			return ErrNotFound
		}
		if _, err := tx.Exec(ctx, `
			UPDATE menus SET dish_count = dish_count + 1, updated_at = now()
			WHERE id = $1`,
			menuID,
		); err != nil {
			return mapErr(err)
		}
		created, err = scanDish(tx.QueryRow(ctx, `
			INSERT INTO dishes (id, submenu_id, title, description, price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id::text, submenu_id::text, title, description, price`,
			id, submenuID, in.Title, in.Description, in.Price,
		))
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *PostgresStore) UpdateDish(ctx context.Context, menuID, submenuID, id string, in models.UpdateDishInput) (*models.Dish, error) {
	if !validID(menuID, submenuID, id) {
		return nil, ErrNotFound
	}
	return scanDish(s.pool.QueryRow(ctx, `
		UPDATE dishes d SET
			title = COALESCE($4::text, d.title),
			description = COALESCE($5::text, d.description),
			price = COALESCE($6::text, d.price),
			updated_at = now()
		FROM submenus s
		WHERE d.id = $1 AND d.submenu_id = $2 AND s.id = d.submenu_id AND s.menu_id = $3
		RETURNING d.id::text, d.submenu_id::text, d.title, d.description, d.price`,
		id, submenuID, menuID, in.Title, in.Description, in.Price,
	))
}

// DeleteDish removes the dish and decrements dish_count on the submenu and the menu.
func (s *PostgresStore) DeleteDish(ctx context.Context, menuID, submenuID, id string) error {
	if !validID(menuID, submenuID, id) {
		return ErrNotFound
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		res, err := tx.Exec(ctx, `
			DELETE FROM dishes d
			USING submenus s
			WHERE d.id = $1 AND d.submenu_id = $2 AND s.id = d.submenu_id AND s.menu_id = $3`,
			id, submenuID, menuID,
		)
		if err != nil {
			return mapErr(err)
		}
		if res.RowsAffected() == 0 {
			return ErrNotFound
		}
		if _, err := tx.Exec(ctx, `
			UPDATE submenus SET dish_count = dish_count - 1, updated_at = now()
			WHERE id = $1`,
			submenuID,
		); err != nil {
			return mapErr(err)
		}
		_, err = tx.Exec(ctx, `
			UPDATE menus SET dish_count = dish_count - 1, updated_at = now()
			WHERE id = $1`,
			menuID,
		)
		return mapErr(err)
	})
}
