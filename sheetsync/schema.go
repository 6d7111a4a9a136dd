// Package sheetsync reconciles the menu spreadsheet with the remote API.
//
// A run reads every row of the sheet, classifies it against a declarative
// column Schema, creates or updates the matching remote entity, folds the
// results into a Tree that mirrors the sheet, and finally deletes remote
// entities the sheet no longer declares.
package sheetsync

import (
	"fmt"
	"strings"

	"menu-service/client"

	"github.com/google/uuid"
)

type Field string

const (
	FieldID          Field = "id"
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldPrice       Field = "price"
)

// Column maps a named field to a cell index.
type Column struct {
	Field    Field
	Index    int
	Required bool
}

// Level describes how one level of the hierarchy is laid out in a row.
// A row belongs to the level when every Trigger cell is non-empty and every
// Blank cell is empty.
type Level struct {
	Kind    client.Kind
	Columns []Column
	Trigger []int
	Blank   []int
}

// Schema is the full row layout. Levels are tried in order menu, submenu,
// dish; the first match wins.
type Schema struct {
	Menu    Level
	Submenu Level
	Dish    Level
}

// DefaultSchema is the layout of the hand-authored menu workbook. Each level
// is shifted one column right of its parent.
func DefaultSchema() Schema {
	return Schema{
		Menu: Level{
			Kind: client.KindMenu,
			Columns: []Column{
				{Field: FieldID, Index: 0, Required: true},
				{Field: FieldTitle, Index: 1, Required: true},
				{Field: FieldDescription, Index: 2},
			},
			Trigger: []int{0},
		},
		Submenu: Level{
			Kind: client.KindSubmenu,
			Columns: []Column{
				{Field: FieldID, Index: 1, Required: true},
				{Field: FieldTitle, Index: 2, Required: true},
				{Field: FieldDescription, Index: 3},
			},
			Trigger: []int{1, 2, 3},
			Blank:   []int{0},
		},
		Dish: Level{
			Kind: client.KindDish,
			Columns: []Column{
				{Field: FieldID, Index: 2, Required: true},
				{Field: FieldTitle, Index: 3, Required: true},
				{Field: FieldDescription, Index: 4},
				{Field: FieldPrice, Index: 5, Required: true},
			},
			Trigger: []int{2, 3, 4, 5},
		},
	}
}

func (s Schema) levels() []Level {
	return []Level{s.Menu, s.Submenu, s.Dish}
}

// Validate checks the layout once, before any row is read.
func (s Schema) Validate() error {
	want := []client.Kind{client.KindMenu, client.KindSubmenu, client.KindDish}
	for i, l := range s.levels() {
		if l.Kind != want[i] {
			return fmt.Errorf("schema: level %d has kind %q, want %q", i, l.Kind, want[i])
		}
		if err := l.validate(); err != nil {
			return fmt.Errorf("schema: %s: %w", l.Kind, err)
		}
	}
	if _, ok := s.Dish.column(FieldPrice); !ok {
		return fmt.Errorf("schema: dish: missing %q column", FieldPrice)
	}
	return nil
}

func (l Level) validate() error {
	if len(l.Trigger) == 0 {
		return fmt.Errorf("no trigger columns")
	}
	seenField := make(map[Field]bool, len(l.Columns))
	seenIndex := make(map[int]Field, len(l.Columns))
	for _, c := range l.Columns {
		if c.Index < 0 {
			return fmt.Errorf("column %q has negative index %d", c.Field, c.Index)
		}
		if seenField[c.Field] {
			return fmt.Errorf("column %q declared twice", c.Field)
		}
		if other, ok := seenIndex[c.Index]; ok {
			return fmt.Errorf("columns %q and %q share index %d", other, c.Field, c.Index)
		}
		seenField[c.Field] = true
		seenIndex[c.Index] = c.Field
	}
	for _, f := range []Field{FieldID, FieldTitle} {
		if !seenField[f] {
			return fmt.Errorf("missing %q column", f)
		}
	}
	for _, i := range append(append([]int(nil), l.Trigger...), l.Blank...) {
		if i < 0 {
			return fmt.Errorf("negative trigger index %d", i)
		}
	}
	return nil
}

func (l Level) column(f Field) (Column, bool) {
	for _, c := range l.Columns {
		if c.Field == f {
			return c, true
		}
	}
	return Column{}, false
}

func (l Level) matches(row []string) bool {
	for _, i := range l.Trigger {
		if cell(row, i) == "" {
			return false
		}
	}
	for _, i := range l.Blank {
		if cell(row, i) != "" {
			return false
		}
	}
	return true
}

// record pulls the level's fields out of row. It returns the first required
// field that is empty. Ids are returned in canonical lowercase UUID form, the
// form the API lists them in.
func (l Level) record(row []string) (client.Record, error) {
	var rec client.Record
	for _, c := range l.Columns {
		v := cell(row, c.Index)
		if v == "" && c.Required {
			return client.Record{}, fmt.Errorf("%s row has empty %s (column %d)", l.Kind, c.Field, c.Index)
		}
		switch c.Field {
		case FieldID:
			if v == "" {
				break
			}
			id, err := uuid.Parse(v)
			if err != nil {
				return client.Record{}, fmt.Errorf("%s row has invalid id %q (column %d)", l.Kind, v, c.Index)
			}
			rec.ID = id.String()
		case FieldTitle:
			rec.Title = v
		case FieldDescription:
			rec.Description = v
		case FieldPrice:
			rec.Price = v
		}
	}
	return rec, nil
}

type RowKind int

const (
	Skip RowKind = iota
	NewMenu
	NewSubmenu
	NewDish
)

func (k RowKind) String() string {
	switch k {
	case NewMenu:
		return "menu"
	case NewSubmenu:
		return "submenu"
	case NewDish:
		return "dish"
	default:
		return "skip"
	}
}

// Classify places row in exactly one level, or Skip.
func (s Schema) Classify(row []string) RowKind {
	switch {
	case s.Menu.matches(row):
		return NewMenu
	case s.Submenu.matches(row):
		return NewSubmenu
	case s.Dish.matches(row):
		return NewDish
	default:
		return Skip
	}
}

// cell returns the trimmed value at i. Cells past the end of the row are empty.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
