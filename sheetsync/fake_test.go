package sheetsync

import (
	"context"
	"fmt"
	"io"
	"strings"

	"menu-service/client"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// sheetID returns a stable UUID for a short test name.
func sheetID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// fakeAPI is an in-memory API that records every call. It does not cascade
// deletes.
type fakeAPI struct {
	order     []client.Ref
	recs      map[client.Ref]client.Record
	calls     []string
	getErr    error
	listErr   error
	createErr map[string]error
	deleteErr map[string]error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		recs:      map[client.Ref]client.Record{},
		createErr: map[string]error{},
		deleteErr: map[string]error{},
	}
}

func (f *fakeAPI) put(ref client.Ref, rec client.Record) {
	rec.ID = ref.ID
	if _, ok := f.recs[ref]; !ok {
		f.order = append(f.order, ref)
	}
	f.recs[ref] = rec
}

func (f *fakeAPI) Get(ctx context.Context, ref client.Ref) (client.Record, error) {
	f.calls = append(f.calls, "get "+ref.ID)
	if f.getErr != nil {
		return client.Record{}, f.getErr
	}
	rec, ok := f.recs[ref]
	if !ok {
		return client.Record{}, fmt.Errorf("GET %s: %w", ref, client.ErrNotFound)
	}
	return rec, nil
}

func (f *fakeAPI) List(ctx context.Context, scope client.Ref) ([]client.Record, error) {
	f.calls = append(f.calls, "list "+string(scope.Kind))
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []client.Record
	for _, ref := range f.order {
		rec, ok := f.recs[ref]
		if !ok {
			continue
		}
		if ref.Kind == scope.Kind && ref.MenuID == scope.MenuID && ref.SubmenuID == scope.SubmenuID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeAPI) Create(ctx context.Context, ref client.Ref, rec client.Record) (client.Record, error) {
	f.calls = append(f.calls, "create "+ref.ID)
	if err := f.createErr[ref.ID]; err != nil {
		return client.Record{}, err
	}
	f.put(ref, rec)
	return f.recs[ref], nil
}

func (f *fakeAPI) Update(ctx context.Context, ref client.Ref, rec client.Record) (client.Record, error) {
	f.calls = append(f.calls, "update "+ref.ID)
	f.put(ref, rec)
	return f.recs[ref], nil
}

func (f *fakeAPI) Delete(ctx context.Context, ref client.Ref) error {
	f.calls = append(f.calls, "delete "+ref.ID)
	if err := f.deleteErr[ref.ID]; err != nil {
		return err
	}
	if _, ok := f.recs[ref]; !ok {
		return fmt.Errorf("DELETE %s: %w", ref, client.ErrNotFound)
	}
	delete(f.recs, ref)
	return nil
}

// writes returns the create, update and delete calls in order.
func (f *fakeAPI) writes() []string {
	var out []string
	for _, c := range f.calls {
		if !strings.HasPrefix(c, "get ") && !strings.HasPrefix(c, "list ") {
			out = append(out, c)
		}
	}
	return out
}

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// rowsSource serves rows held in memory.
type rowsSource [][]string

func (r rowsSource) Rows(ctx context.Context) ([][]string, error) {
	return r, nil
}
