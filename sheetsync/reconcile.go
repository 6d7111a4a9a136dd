package sheetsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"menu-service/client"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// API is the remote surface the sync needs. *client.Client satisfies it.
type API interface {
	Get(ctx context.Context, ref client.Ref) (client.Record, error)
	List(ctx context.Context, ref client.Ref) ([]client.Record, error)
	Create(ctx context.Context, ref client.Ref, rec client.Record) (client.Record, error)
	Update(ctx context.Context, ref client.Ref, rec client.Record) (client.Record, error)
	Delete(ctx context.Context, ref client.Ref) error
}

type Action string

const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionUnchanged Action = "unchanged"
	ActionDeleted   Action = "deleted"
)

type Counts struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Deleted   int `json:"deleted"`
}

// Report summarises one run.
type Report struct {
	Rows     int           `json:"rows"`
	Menus    Counts        `json:"menus"`
	Submenus Counts        `json:"submenus"`
	Dishes   Counts        `json:"dishes"`
	Duration time.Duration `json:"duration"`
}

func (r *Report) record(kind client.Kind, action Action) {
	var c *Counts
	switch kind {
	case client.KindMenu:
		c = &r.Menus
	case client.KindSubmenu:
		c = &r.Submenus
	default:
		c = &r.Dishes
	}
	switch action {
	case ActionCreated:
		c.Created++
	case ActionUpdated:
		c.Updated++
	case ActionUnchanged:
		c.Unchanged++
	case ActionDeleted:
		c.Deleted++
	}
	getMetrics().rowsTotal.WithLabelValues(string(kind), string(action)).Inc()
}

// Mutations reports the number of create, update and delete calls issued.
func (r Report) Mutations() int {
	n := 0
	for _, c := range []Counts{r.Menus, r.Submenus, r.Dishes} {
		n += c.Created + c.Updated + c.Deleted
	}
	return n
}

func (r Report) Fields() logrus.Fields {
	return logrus.Fields{
		"rows":     r.Rows,
		"menus":    r.Menus,
		"submenus": r.Submenus,
		"dishes":   r.Dishes,
		"duration": r.Duration,
	}
}

// Reconciler makes one remote entity match one sheet row.
type Reconciler struct {
	api    API
	report *Report
	log    *logrus.Entry
}

func NewReconciler(api API, report *Report, log *logrus.Entry) *Reconciler {
	return &Reconciler{api: api, report: report, log: log}
}

// Reconcile fetches ref, then creates it, updates it, or leaves it alone. The
// returned record is the server's answer after a write, or want when nothing
// changed.
func (r *Reconciler) Reconcile(ctx context.Context, ref client.Ref, want client.Record) (client.Record, Action, error) {
	log := r.log.WithFields(logrus.Fields{"kind": ref.Kind, "id": ref.ID})

	got, err := r.api.Get(ctx, ref)
	switch {
	case errors.Is(err, client.ErrNotFound):
		created, err := r.api.Create(ctx, ref, want)
		if err != nil {
			return client.Record{}, "", fmt.Errorf("create %s: %w", ref, err)
		}
		r.report.record(ref.Kind, ActionCreated)
		log.Debug("created")
		return created, ActionCreated, nil
	case err != nil:
		return client.Record{}, "", fmt.Errorf("fetch %s: %w", ref, err)
	}

	if sameFields(ref.Kind, want, got) {
		r.report.record(ref.Kind, ActionUnchanged)
		want.ID = ref.ID
		return want, ActionUnchanged, nil
	}

	updated, err := r.api.Update(ctx, ref, want)
	if err != nil {
		return client.Record{}, "", fmt.Errorf("update %s: %w", ref, err)
	}
	r.report.record(ref.Kind, ActionUpdated)
	log.Debug("updated")
	return updated, ActionUpdated, nil
}

func sameFields(kind client.Kind, a, b client.Record) bool {
	if a.Title != b.Title || a.Description != b.Description {
		return false
	}
	if kind != client.KindDish {
		return true
	}
	return samePrice(a.Price, b.Price)
}

// samePrice compares prices as decimals so "9.9" equals "9.90". Unparseable
// values fall back to string equality.
func samePrice(a, b string) bool {
	da, errA := decimal.NewFromString(a)
	db, errB := decimal.NewFromString(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return da.Equal(db)
}
