package sheetsync

import (
	"context"
	"errors"
	"fmt"

	"menu-service/client"
)

// Tree is the reconciliation context of one run: the hierarchy the sheet
// declares, one entry per row, in file order.
type Tree struct {
	Menus []MenuNode
}

type MenuNode struct {
	client.Record
	Submenus []SubmenuNode
}

type SubmenuNode struct {
	client.Record
	Dishes []client.Record
}

// MalformedRowError reports a row that cannot be placed in the hierarchy.
// Row is 1-based, as spreadsheet editors number rows. Err is set when the
// remote API rejected the row.
type MalformedRowError struct {
	Row    int
	Reason string
	Err    error
}

func (e *MalformedRowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("row %d: %s: %v", e.Row, e.Reason, e.Err)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

func (e *MalformedRowError) Unwrap() error { return e.Err }

// Builder folds sheet rows into a Tree, reconciling each row as it goes.
type Builder struct {
	schema Schema
	rec    *Reconciler

	// seen maps kind and id to the row that declared it.
	seen map[client.Kind]map[string]int
}

func NewBuilder(schema Schema, rec *Reconciler) *Builder {
	return &Builder{schema: schema, rec: rec}
}

// Build reconciles rows in order. An id may appear only once per level.
func (b *Builder) Build(ctx context.Context, rows [][]string) (Tree, error) {
	var acc Tree
	b.seen = map[client.Kind]map[string]int{}
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return acc, err
		}
		var err error
		acc, err = b.step(ctx, acc, i+1, row)
		if err != nil {
			return acc, err
		}
	}
	return acc, nil
}

// step applies one row to acc. The current menu is the last menu and the
// current submenu is the last submenu of that menu.
func (b *Builder) step(ctx context.Context, acc Tree, rowNum int, row []string) (Tree, error) {
	switch b.schema.Classify(row) {
	case NewMenu:
		want, err := b.schema.Menu.record(row)
		if err != nil {
			return acc, &MalformedRowError{Row: rowNum, Reason: err.Error()}
		}
		if err := b.declare(client.KindMenu, want.ID, rowNum); err != nil {
			return acc, err
		}
		got, err := b.reconcile(ctx, rowNum, client.MenuRef(want.ID), want)
		if err != nil {
			return acc, err
		}
		acc.Menus = append(acc.Menus, MenuNode{Record: got})

	case NewSubmenu:
		if len(acc.Menus) == 0 {
			return acc, &MalformedRowError{Row: rowNum, Reason: "submenu row before any menu row"}
		}
		want, err := b.schema.Submenu.record(row)
		if err != nil {
			return acc, &MalformedRowError{Row: rowNum, Reason: err.Error()}
		}
		if err := b.declare(client.KindSubmenu, want.ID, rowNum); err != nil {
			return acc, err
		}
		menu := &acc.Menus[len(acc.Menus)-1]
		got, err := b.reconcile(ctx, rowNum, client.SubmenuRef(menu.ID, want.ID), want)
		if err != nil {
			return acc, err
		}
		menu.Submenus = append(menu.Submenus, SubmenuNode{Record: got})

	case NewDish:
		if len(acc.Menus) == 0 {
			return acc, &MalformedRowError{Row: rowNum, Reason: "dish row before any menu row"}
		}
		menu := &acc.Menus[len(acc.Menus)-1]
		if len(menu.Submenus) == 0 {
			return acc, &MalformedRowError{Row: rowNum, Reason: "dish row with no submenu in menu " + menu.ID}
		}
		want, err := b.schema.Dish.record(row)
		if err != nil {
			return acc, &MalformedRowError{Row: rowNum, Reason: err.Error()}
		}
		if err := b.declare(client.KindDish, want.ID, rowNum); err != nil {
			return acc, err
		}
		sub := &menu.Submenus[len(menu.Submenus)-1]
		got, err := b.reconcile(ctx, rowNum, client.DishRef(menu.ID, sub.ID, want.ID), want)
		if err != nil {
			return acc, err
		}
		sub.Dishes = append(sub.Dishes, got)
	}
	return acc, nil
}

func (b *Builder) declare(kind client.Kind, id string, rowNum int) error {
	ids := b.seen[kind]
	if ids == nil {
		ids = map[string]int{}
		b.seen[kind] = ids
	}
	if first, ok := ids[id]; ok {
		return &MalformedRowError{
			Row:    rowNum,
			Reason: fmt.Sprintf("duplicate %s id %s, first declared at row %d", kind, id, first),
		}
	}
	ids[id] = rowNum
	return nil
}

// reconcile runs the reconciler for one row. A conflict, such as an id already
// used under another parent, is reported against the row.
func (b *Builder) reconcile(ctx context.Context, rowNum int, ref client.Ref, want client.Record) (client.Record, error) {
	got, _, err := b.rec.Reconcile(ctx, ref, want)
	switch {
	case errors.Is(err, client.ErrConflict):
		return client.Record{}, &MalformedRowError{Row: rowNum, Reason: conflictReason(ref, want), Err: err}
	case err != nil:
		return client.Record{}, fmt.Errorf("row %d: %w", rowNum, err)
	}
	return got, nil
}

func conflictReason(ref client.Ref, want client.Record) string {
	switch ref.Kind {
	case client.KindSubmenu:
		return fmt.Sprintf("submenu %s already exists outside menu %s", ref.ID, ref.MenuID)
	case client.KindDish:
		return fmt.Sprintf("dish %s already exists outside submenu %s of menu %s", ref.ID, ref.SubmenuID, ref.MenuID)
	default:
		return fmt.Sprintf("menu %s conflicts with an existing menu titled %q", ref.ID, want.Title)
	}
}
