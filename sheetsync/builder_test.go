package sheetsync

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"menu-service/client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, api API, rows [][]string) (Tree, *Report, error) {
	t.Helper()
	report := &Report{}
	tree, err := NewBuilder(DefaultSchema(), NewReconciler(api, report, quietLog())).Build(context.Background(), rows)
	return tree, report, err
}

func TestBuild_Hierarchy(t *testing.T) {
	m1, m2 := sheetID("m1"), sheetID("m2")
	s1, s2, s3 := sheetID("s1"), sheetID("s2"), sheetID("s3")
	d1, d2, d3 := sheetID("d1"), sheetID("d2"), sheetID("d3")
	rows := [][]string{
		{m1, "Lunch", "Midday"},
		{"", s1, "Mains", "Hot"},
		{"", "", d1, "Burger", "Beef", "9.99"},
		{"", "", d2, "Fries", "Salted", "2.50"},
		{},
		{"", s2, "Drinks", "Cold"},
		{"", "", d3, "Cola", "Can", "1.20"},
		{m2, "Dinner"},
		{"", s3, "Mains", "Evening"},
	}
	api := newFakeAPI()
	tree, report, err := build(t, api, rows)
	require.NoError(t, err)

	require.Len(t, tree.Menus, 2)
	lunch := tree.Menus[0]
	assert.Equal(t, m1, lunch.ID)
	require.Len(t, lunch.Submenus, 2)
	assert.Equal(t, []string{d1, d2}, []string{lunch.Submenus[0].Dishes[0].ID, lunch.Submenus[0].Dishes[1].ID})
	assert.Equal(t, d3, lunch.Submenus[1].Dishes[0].ID)

	dinner := tree.Menus[1]
	require.Len(t, dinner.Submenus, 1)
	assert.Equal(t, s3, dinner.Submenus[0].ID)
	assert.Empty(t, dinner.Submenus[0].Dishes)

	assert.Equal(t, Counts{Created: 2}, report.Menus)
	assert.Equal(t, Counts{Created: 3}, report.Submenus)
	assert.Equal(t, Counts{Created: 3}, report.Dishes)

	// Children are created under the parent they follow in the sheet.
	_, err = api.Get(context.Background(), client.SubmenuRef(m2, s3))
	assert.NoError(t, err)
	_, err = api.Get(context.Background(), client.DishRef(m1, s2, d3))
	assert.NoError(t, err)
}

func TestBuild_SecondRunIsNoop(t *testing.T) {
	rows := [][]string{
		{sheetID("m1"), "Lunch", "Midday"},
		{"", sheetID("s1"), "Mains", "Hot"},
		{"", "", sheetID("d1"), "Burger", "Beef", "9.99"},
	}
	api := newFakeAPI()
	_, _, err := build(t, api, rows)
	require.NoError(t, err)
	api.calls = nil

	_, report, err := build(t, api, rows)
	require.NoError(t, err)
	assert.Empty(t, api.writes())
	assert.Equal(t, 3, report.Menus.Unchanged+report.Submenus.Unchanged+report.Dishes.Unchanged)
}

func TestBuild_CanonicalisesIDs(t *testing.T) {
	m1 := sheetID("m1")
	api := newFakeAPI()
	api.put(client.MenuRef(m1), client.Record{Title: "Lunch"})

	tree, report, err := build(t, api, [][]string{{strings.ToUpper(m1), "Lunch"}})
	require.NoError(t, err)
	require.Len(t, tree.Menus, 1)
	assert.Equal(t, m1, tree.Menus[0].ID)
	assert.Equal(t, Counts{Unchanged: 1}, report.Menus)
	assert.Equal(t, []string{"get " + m1}, api.calls)
}

func TestBuild_MalformedRows(t *testing.T) {
	m1, m2, s1, d1 := sheetID("m1"), sheetID("m2"), sheetID("s1"), sheetID("d1")
	tests := []struct {
		name   string
		rows   [][]string
		row    int
		reason string
	}{
		{
			name:   "submenu before menu",
			rows:   [][]string{{}, {"", s1, "Mains", "Hot"}},
			row:    2,
			reason: "submenu row before any menu row",
		},
		{
			name:   "dish before menu",
			rows:   [][]string{{"", "", d1, "Burger", "Beef", "9.99"}},
			row:    1,
			reason: "dish row before any menu row",
		},
		{
			name: "dish before submenu of current menu",
			rows: [][]string{
				{m1, "Lunch"},
				{"", s1, "Mains", "Hot"},
				{m2, "Dinner"},
				{"", "", d1, "Burger", "Beef", "9.99"},
			},
			row:    4,
			reason: "dish row with no submenu in menu " + m2,
		},
		{
			name:   "menu without title",
			rows:   [][]string{{m1}},
			row:    1,
			reason: "menu row has empty title (column 1)",
		},
		{
			name:   "id is not a uuid",
			rows:   [][]string{{"lunch-1", "Lunch"}},
			row:    1,
			reason: `menu row has invalid id "lunch-1" (column 0)`,
		},
		{
			name: "duplicate menu id",
			rows: [][]string{
				{m1, "Lunch", "a"},
				{"", s1, "Mains", "x"},
				{m1, "Lunch", "a"},
				{"", sheetID("s2"), "Drinks", "y"},
			},
			row:    3,
			reason: "duplicate menu id " + m1 + ", first declared at row 1",
		},
		{
			name: "duplicate menu id in other case",
			rows: [][]string{
				{m1, "Lunch"},
				{strings.ToUpper(m1), "Dinner"},
			},
			row:    2,
			reason: "duplicate menu id " + m1 + ", first declared at row 1",
		},
		{
			name: "duplicate submenu id across menus",
			rows: [][]string{
				{m1, "Lunch"},
				{"", s1, "Mains", "x"},
				{m2, "Dinner"},
				{"", s1, "Mains", "x"},
			},
			row:    4,
			reason: "duplicate submenu id " + s1 + ", first declared at row 2",
		},
		{
			name: "duplicate dish id",
			rows: [][]string{
				{m1, "Lunch"},
				{"", s1, "Mains", "x"},
				{"", "", d1, "Burger", "Beef", "9.99"},
				{"", "", d1, "Burger", "Beef", "9.99"},
			},
			row:    4,
			reason: "duplicate dish id " + d1 + ", first declared at row 3",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := build(t, newFakeAPI(), tt.rows)
			var mr *MalformedRowError
			require.ErrorAs(t, err, &mr)
			assert.Equal(t, tt.row, mr.Row)
			assert.Equal(t, tt.reason, mr.Reason)
		})
	}
}

func TestBuild_DuplicateIDStopsBeforeWrites(t *testing.T) {
	m1 := sheetID("m1")
	api := newFakeAPI()
	_, _, err := build(t, api, [][]string{
		{m1, "Lunch"},
		{m1, "Lunch"},
	})
	require.Error(t, err)
	assert.Equal(t, []string{"create " + m1}, api.writes())
}

func TestBuild_ConflictIsReportedAgainstRow(t *testing.T) {
	m1, s1 := sheetID("m1"), sheetID("s1")
	conflict := &client.StatusError{Method: http.MethodPost, Path: "/api/v1/menus/" + m1 + "/submenus", Status: http.StatusConflict}
	api := newFakeAPI()
	api.createErr[s1] = conflict

	_, _, err := build(t, api, [][]string{
		{m1, "Lunch"},
		{"", s1, "Mains", "Hot"},
	})
	var mr *MalformedRowError
	require.ErrorAs(t, err, &mr)
	assert.Equal(t, 2, mr.Row)
	assert.Equal(t, "submenu "+s1+" already exists outside menu "+m1, mr.Reason)
	assert.ErrorIs(t, err, client.ErrConflict)

	var se *client.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.Status)
}

func TestBuild_OtherRemoteErrorsKeepRow(t *testing.T) {
	m1 := sheetID("m1")
	api := newFakeAPI()
	api.createErr[m1] = &client.StatusError{Method: http.MethodPost, Path: "/api/v1/menus", Status: http.StatusInternalServerError}

	_, _, err := build(t, api, [][]string{{m1, "Lunch"}})
	require.Error(t, err)
	var mr *MalformedRowError
	assert.False(t, errors.As(err, &mr))
	assert.Contains(t, err.Error(), "row 1:")
}

func TestBuild_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	api := newFakeAPI()
	_, err := NewBuilder(DefaultSchema(), NewReconciler(api, &Report{}, quietLog())).
		Build(ctx, [][]string{{sheetID("m1"), "Lunch"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, api.calls)
}
