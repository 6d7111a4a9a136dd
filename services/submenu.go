package services

import (
	"context"

	"menu-service/models"

	"github.com/jackc/pgx/v5"
)

func scanSubmenu(row pgx.Row) (*models.Submenu, error) {
	var sm models.Submenu
	if err := row.Scan(&sm.ID, &sm.MenuID, &sm.Title, &sm.Description, &sm.DishCount); err != nil {
		return nil, mapErr(err)
	}
	return &sm, nil
}

func (s *PostgresStore) ListSubmenus(ctx context.Context, menuID string) ([]models.Submenu, error) {
	submenus := []models.Submenu{}
	if !validID(menuID) {
		return submenus, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, menu_id::text, title, description, dish_count
		FROM submenus
		WHERE menu_id = $1
		ORDER BY created_at, id`,
		menuID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		sm, err := scanSubmenu(rows)
		if err != nil {
			return nil, err
		}
		submenus = append(submenus, *sm)
	}
	return submenus, rows.Err()
}

func (s *PostgresStore) GetSubmenu(ctx context.Context, menuID, id string) (*models.Submenu, error) {
	if !validID(menuID, id) {
		return nil, ErrNotFound
	}
	return scanSubmenu(s.pool.QueryRow(ctx, `
		SELECT id::text, menu_id::text, title, description, dish_count
		FROM submenus WHERE id = $1 AND menu_id = $2`,
		id, menuID,
	))
}

// CreateSubmenu inserts the submenu and bumps the parent's submenu_count in one transaction.
func (s *PostgresStore) CreateSubmenu(ctx context.Context, menuID string, in models.CreateSubmenuInput) (*models.Submenu, error) {
	if !validID(menuID) {
		return nil, ErrNotFound
	}
	id, err := newID(in.ID)
	if err != nil {
		return nil, err
	}

	var created *models.Submenu
	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		res, err := tx.Exec(ctx, `
			UPDATE menus SET submenu_count = submenu_count + 1, updated_at = now()
			WHERE id = $1`,
			menuID,
		)
		if err != nil {
			return mapErr(err)
		}
		if res.RowsAffected() == 0 {
			return ErrNotFound
		}
		created, err = scanSubmenu(tx.QueryRow(ctx, `
			INSERT INTO submenus (id, menu_id, title, description)
			VALUES ($1, $2, $3, $4)
			RETURNING id::text, menu_id::text, title, description, dish_count`,
			id, menuID, in.Title, in.Description,
		))
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *PostgresStore) UpdateSubmenu(ctx context.Context, menuID, id string, in models.UpdateSubmenuInput) (*models.Submenu, error) {
	if !validID(menuID, id) {
		return nil, ErrNotFound
	}
	return scanSubmenu(s.pool.QueryRow(ctx, `
		UPDATE submenus SET
			title = COALESCE($3::text, title),
			description = COALESCE($4::text, description),
			updated_at = now()
		WHERE id = $1 AND menu_id = $2
		RETURNING id::text, menu_id::text, title, description, dish_count`,
		id, menuID, in.Title, in.Description,
	))
}

// DeleteSubmenu removes the submenu with its dishes and takes both off the
// parent menu's counters.
func (s *PostgresStore) DeleteSubmenu(ctx context.Context, menuID, id string) error {
	if !validID(menuID, id) {
		return ErrNotFound
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var dishCount int
		err := tx.QueryRow(ctx, `
			DELETE FROM submenus WHERE id = $1 AND menu_id = $2
			RETURNING dish_count`,
			id, menuID,
		).Scan(&dishCount)
		if err != nil {
			return mapErr(err)
		}
		_, err = tx.Exec(ctx, `
			UPDATE menus SET
				submenu_count = submenu_count - 1,
				dish_count = dish_count - $2,
				updated_at = now()
			WHERE id = $1`,
			menuID, dishCount,
		)
		return mapErr(err)
	})
}
