package sheetsync

import (
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"menu-service/api"
	"menu-service/cache"
	"menu-service/client"
	"menu-service/models"
	"menu-service/services"
	"menu-service/tasks"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type syncQueue struct{}

func (syncQueue) Enqueue(name string, fn tasks.Func) bool {
	_ = fn(context.Background())
	return true
}

type env struct {
	store *services.MemoryStore
	url   string
	path  string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	c, err := cache.NewSturdyc(cache.DefaultConfig())
	require.NoError(t, err)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := services.NewMemoryStore()
	srv := httptest.NewServer(api.NewServer(store, c, syncQueue{}, nil, logger).Handler())
	t.Cleanup(srv.Close)
	return &env{store: store, url: srv.URL, path: filepath.Join(t.TempDir(), "Menu.xlsx")}
}

// writeSheet saves rows as the first worksheet of the workbook at e.path.
func (e *env) writeSheet(t *testing.T, rows [][]string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		start, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", start, &cells))
	}
	require.NoError(t, f.SaveAs(e.path))
}

func (e *env) job(t *testing.T) *Job {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	job, err := NewJob(JobConfig{
		Source:  XLSXSource{Path: e.path},
		Schema:  DefaultSchema(),
		BaseURL: e.url,
		Timeout: 5 * time.Second,
	}, logger)
	require.NoError(t, err)
	return job
}

func (e *env) menu(t *testing.T, id string) *models.Menu {
	t.Helper()
	m, err := e.store.GetMenu(context.Background(), id)
	require.NoError(t, err)
	return m
}

type ids struct {
	menu, submenu, dish string
}

func lunchRows(id ids) [][]string {
	return [][]string{
		{id.menu, "Lunch", "Midday menu"},
		{"", id.submenu, "Mains", "Hot dishes"},
		{"", "", id.dish, "Burger", "Beef patty", "9.99"},
	}
}

func newIDs() ids {
	return ids{uuid.NewString(), uuid.NewString(), uuid.NewString()}
}

func TestJob_CreatesHierarchyFromEmptyStore(t *testing.T) {
	e := newEnv(t)
	id := newIDs()
	e.writeSheet(t, lunchRows(id))

	report, err := e.job(t).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Rows)
	assert.Equal(t, 3, report.Mutations())

	menu := e.menu(t, id.menu)
	assert.Equal(t, "Lunch", menu.Title)
	assert.Equal(t, "Midday menu", menu.Description)
	assert.Equal(t, 1, menu.SubmenuCount)
	assert.Equal(t, 1, menu.DishCount)

	sub, err := e.store.GetSubmenu(context.Background(), id.menu, id.submenu)
	require.NoError(t, err)
	assert.Equal(t, "Mains", sub.Title)
	assert.Equal(t, 1, sub.DishCount)

	dish, err := e.store.GetDish(context.Background(), id.menu, id.submenu, id.dish)
	require.NoError(t, err)
	assert.Equal(t, "Burger", dish.Title)
	assert.Equal(t, "9.99", dish.Price)
}

func TestJob_SecondRunOnUnchangedSheetIsNoop(t *testing.T) {
	e := newEnv(t)
	id := newIDs()
	e.writeSheet(t, lunchRows(id))
	job := e.job(t)

	_, err := job.Run(context.Background())
	require.NoError(t, err)

	report, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Mutations())
	assert.Equal(t, Counts{Unchanged: 1}, report.Menus)
	assert.Equal(t, Counts{Unchanged: 1}, report.Submenus)
	assert.Equal(t, Counts{Unchanged: 1}, report.Dishes)
}

func TestJob_UpdatesChangedRows(t *testing.T) {
	e := newEnv(t)
	id := newIDs()
	e.writeSheet(t, lunchRows(id))
	job := e.job(t)
	_, err := job.Run(context.Background())
	require.NoError(t, err)

	rows := lunchRows(id)
	rows[0][1] = "Business lunch"
	rows[2][5] = "9.990" // same price, other scale
	e.writeSheet(t, rows)

	report, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Counts{Updated: 1}, report.Menus)
	assert.Equal(t, Counts{Unchanged: 1}, report.Dishes)
	assert.Equal(t, "Business lunch", e.menu(t, id.menu).Title)
}

func TestJob_RemovedDishRowIsDeleted(t *testing.T) {
	e := newEnv(t)
	id := newIDs()
	e.writeSheet(t, lunchRows(id))
	job := e.job(t)
	_, err := job.Run(context.Background())
	require.NoError(t, err)

	e.writeSheet(t, lunchRows(id)[:2])
	report, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Dishes.Deleted)

	ctx := context.Background()
	_, err = e.store.GetDish(ctx, id.menu, id.submenu, id.dish)
	assert.ErrorIs(t, err, services.ErrNotFound)

	sub, err := e.store.GetSubmenu(ctx, id.menu, id.submenu)
	require.NoError(t, err)
	assert.Equal(t, 0, sub.DishCount)

	menu := e.menu(t, id.menu)
	assert.Equal(t, 1, menu.SubmenuCount)
	assert.Equal(t, 0, menu.DishCount)
}

func TestJob_ExtraRemoteSubmenuIsDeleted(t *testing.T) {
	e := newEnv(t)
	id := newIDs()
	e.writeSheet(t, lunchRows(id))
	job := e.job(t)
	_, err := job.Run(context.Background())
	require.NoError(t, err)

	ctx := context.Background()
	extra, err := e.store.CreateSubmenu(ctx, id.menu, models.CreateSubmenuInput{Title: "Desserts"})
	require.NoError(t, err)
	for _, title := range []string{"Cake", "Pie"} {
		_, err := e.store.CreateDish(ctx, id.menu, extra.ID, models.CreateDishInput{Title: title, Price: "3"})
		require.NoError(t, err)
	}
	before := e.menu(t, id.menu)
	require.Equal(t, 2, before.SubmenuCount)
	require.Equal(t, 3, before.DishCount)

	report, err := job.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Submenus.Deleted)
	assert.Zero(t, report.Dishes.Deleted, "dishes go with their submenu")

	_, err = e.store.GetSubmenu(ctx, id.menu, extra.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
	dishes, err := e.store.ListDishes(ctx, id.menu, extra.ID)
	require.NoError(t, err)
	assert.Empty(t, dishes)

	after := e.menu(t, id.menu)
	assert.Equal(t, 1, after.SubmenuCount)
	assert.Equal(t, 1, after.DishCount)
}

func TestJob_RemoteMatchesSheetAfterRun(t *testing.T) {
	e := newEnv(t)
	id := newIDs()
	ctx := context.Background()

	// Remote state the sheet does not declare.
	stray, err := e.store.CreateMenu(ctx, models.CreateMenuInput{Title: "Breakfast"})
	require.NoError(t, err)
	_, err = e.store.CreateMenu(ctx, models.CreateMenuInput{ID: id.menu, Title: "Lunch", Description: "Midday menu"})
	require.NoError(t, err)
	_, err = e.store.CreateSubmenu(ctx, id.menu, models.CreateSubmenuInput{ID: id.submenu, Title: "Mains", Description: "Hot dishes"})
	require.NoError(t, err)
	strayDish, err := e.store.CreateDish(ctx, id.menu, id.submenu, models.CreateDishInput{Title: "Soup", Price: "4"})
	require.NoError(t, err)

	e.writeSheet(t, lunchRows(id))
	report, err := e.job(t).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{Unchanged: 1, Deleted: 1}, report.Menus)
	assert.Equal(t, Counts{Created: 1, Deleted: 1}, report.Dishes)

	menus, err := e.store.ListMenus(ctx)
	require.NoError(t, err)
	require.Len(t, menus, 1)
	assert.Equal(t, id.menu, menus[0].ID)

	_, err = e.store.GetMenu(ctx, stray.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	dishes, err := e.store.ListDishes(ctx, id.menu, id.submenu)
	require.NoError(t, err)
	require.Len(t, dishes, 1)
	assert.Equal(t, id.dish, dishes[0].ID)
	assert.NotEqual(t, strayDish.ID, dishes[0].ID)
}

func TestJob_MalformedSheetFailsRun(t *testing.T) {
	e := newEnv(t)
	e.writeSheet(t, [][]string{
		{"", "", uuid.NewString(), "Burger", "Beef", "9.99"},
	})
	_, err := e.job(t).Run(context.Background())
	var mr *MalformedRowError
	require.ErrorAs(t, err, &mr)
	assert.Equal(t, 1, mr.Row)
}

func TestJob_DuplicateMenuRowsFailWithoutDeleting(t *testing.T) {
	e := newEnv(t)
	menuID, s1, s2 := uuid.NewString(), uuid.NewString(), uuid.NewString()
	e.writeSheet(t, [][]string{
		{menuID, "Lunch", "a"},
		{"", s1, "Mains", "x"},
		{menuID, "Lunch", "a"},
		{"", s2, "Drinks", "y"},
	})
	job := e.job(t)

	_, err := job.Run(context.Background())
	var mr *MalformedRowError
	require.ErrorAs(t, err, &mr)
	assert.Equal(t, 3, mr.Row)

	// Rows before the duplicate are applied and nothing is cleaned.
	_, err = e.store.GetSubmenu(context.Background(), menuID, s1)
	require.NoError(t, err)

	report, err := job.Run(context.Background())
	require.Error(t, err)
	assert.Zero(t, report.Mutations())
}

func TestJob_SubmenuMovedToAnotherMenuNamesTheRow(t *testing.T) {
	e := newEnv(t)
	a, b, sub := uuid.NewString(), uuid.NewString(), uuid.NewString()
	e.writeSheet(t, [][]string{
		{a, "Lunch", "a"},
		{"", sub, "Mains", "x"},
		{b, "Dinner", "b"},
	})
	job := e.job(t)
	_, err := job.Run(context.Background())
	require.NoError(t, err)

	e.writeSheet(t, [][]string{
		{a, "Lunch", "a"},
		{b, "Dinner", "b"},
		{"", sub, "Mains", "x"},
	})
	_, err = job.Run(context.Background())

	var mr *MalformedRowError
	require.ErrorAs(t, err, &mr)
	assert.Equal(t, 3, mr.Row)
	assert.Contains(t, mr.Reason, sub)
	assert.Contains(t, mr.Reason, "outside menu "+b)
	assert.ErrorIs(t, err, client.ErrConflict)

	ctx := context.Background()
	_, err = e.store.GetSubmenu(ctx, a, sub)
	assert.NoError(t, err, "submenu stays under its old menu")
	assert.Equal(t, 0, e.menu(t, b).SubmenuCount)
}

func TestJob_UppercaseIDsMatchExistingEntities(t *testing.T) {
	e := newEnv(t)
	id := newIDs()
	e.writeSheet(t, lunchRows(id))
	job := e.job(t)
	_, err := job.Run(context.Background())
	require.NoError(t, err)

	upper := lunchRows(ids{strings.ToUpper(id.menu), strings.ToUpper(id.submenu), strings.ToUpper(id.dish)})
	e.writeSheet(t, upper)

	report, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Mutations())

	menu := e.menu(t, id.menu)
	assert.Equal(t, 1, menu.SubmenuCount)
	assert.Equal(t, 1, menu.DishCount)
}

func TestJob_UppercaseIDsAreCreatedCanonical(t *testing.T) {
	e := newEnv(t)
	id := newIDs()
	e.writeSheet(t, lunchRows(ids{strings.ToUpper(id.menu), strings.ToUpper(id.submenu), strings.ToUpper(id.dish)}))

	_, err := e.job(t).Run(context.Background())
	require.NoError(t, err)

	_, err = e.store.GetDish(context.Background(), id.menu, id.submenu, id.dish)
	assert.NoError(t, err)
}

// blockingSource holds a run open until release is closed.
type blockingSource struct {
	started chan struct{}
	release chan struct{}
}

func (b blockingSource) Rows(ctx context.Context) ([][]string, error) {
	close(b.started)
	<-b.release
	return nil, nil
}

func TestJob_OverlappingRunIsSkipped(t *testing.T) {
	e := newEnv(t)
	src := blockingSource{started: make(chan struct{}), release: make(chan struct{})}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	job, err := NewJob(JobConfig{Source: src, Schema: DefaultSchema(), BaseURL: e.url}, logger)
	require.NoError(t, err)

	done := make(chan error)
	go func() {
		_, err := job.Run(context.Background())
		done <- err
	}()
	<-src.started

	_, err = job.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(src.release)
	require.NoError(t, <-done)
}

func TestNewJob_Validates(t *testing.T) {
	logger := logrus.New()
	_, err := NewJob(JobConfig{Schema: DefaultSchema(), BaseURL: "http://x"}, logger)
	assert.Error(t, err)

	_, err = NewJob(JobConfig{Source: rowsSource{}, Schema: DefaultSchema()}, logger)
	assert.Error(t, err)

	bad := DefaultSchema()
	bad.Menu.Trigger = nil
	_, err = NewJob(JobConfig{Source: rowsSource{}, Schema: bad, BaseURL: "http://x"}, logger)
	assert.Error(t, err)
}

func TestXLSXSource(t *testing.T) {
	e := newEnv(t)
	e.writeSheet(t, [][]string{{"a", "b"}, {}, {"", "c"}})

	rows, err := XLSXSource{Path: e.path}.Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"a", "b"}, rows[0])
	assert.Empty(t, rows[1])
	assert.Equal(t, []string{"", "c"}, rows[2])

	rows, err = XLSXSource{Path: e.path, Sheet: "Sheet1"}.Rows(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	_, err = XLSXSource{Path: e.path, Sheet: "Missing"}.Rows(context.Background())
	assert.Error(t, err)

	_, err = XLSXSource{Path: filepath.Join(t.TempDir(), "nope.xlsx")}.Rows(context.Background())
	assert.Error(t, err)
}
