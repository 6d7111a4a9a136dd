package services

import (
	"context"
	"errors"

	"menu-service/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// mapErr translates driver errors into store errors.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrConflict
		case pgForeignKeyViolation:
			return ErrNotFound
		}
	}
	return err
}

func scanMenu(row pgx.Row) (*models.Menu, error) {
	var m models.Menu
	if err := row.Scan(&m.ID, &m.Title, &m.Description, &m.SubmenuCount, &m.DishCount); err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}

func (s *PostgresStore) ListMenus(ctx context.Context) ([]models.Menu, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, title, description, submenu_count, dish_count
		FROM menus
		ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	menus := []models.Menu{}
	for rows.Next() {
		m, err := scanMenu(rows)
		if err != nil {
			return nil, err
		}
		menus = append(menus, *m)
	}
	return menus, rows.Err()
}

func (s *PostgresStore) GetMenu(ctx context.Context, id string) (*models.Menu, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	return scanMenu(s.pool.QueryRow(ctx, `
		SELECT id::text, title, description, submenu_count, dish_count
		FROM menus WHERE id = $1`,
		id,
	))
}

func (s *PostgresStore) CreateMenu(ctx context.Context, in models.CreateMenuInput) (*models.Menu, error) {
	id, err := newID(in.ID)
	if err != nil {
		return nil, err
	}
	return scanMenu(s.pool.QueryRow(ctx, `
		INSERT INTO menus (id, title, description)
		VALUES ($1, $2, $3)
		RETURNING id::text, title, description, submenu_count, dish_count`,
		id, in.Title, in.Description,
	))
}

func (s *PostgresStore) UpdateMenu(ctx context.Context, id string, in models.UpdateMenuInput) (*models.Menu, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	return scanMenu(s.pool.QueryRow(ctx, `
		UPDATE menus SET
			title = COALESCE($2::text, title),
			description = COALESCE($3::text, description),
			updated_at = now()
		WHERE id = $1
		RETURNING id::text, title, description, submenu_count, dish_count`,
		id, in.Title, in.Description,
	))
}

// DeleteMenu removes the menu; submenus and dishes go with it via ON DELETE CASCADE.
func (s *PostgresStore) DeleteMenu(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	res, err := s.pool.Exec(ctx, `DELETE FROM menus WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
