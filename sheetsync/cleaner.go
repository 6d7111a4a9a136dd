package sheetsync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"menu-service/client"

	"github.com/sirupsen/logrus"
)

// CleanupError stops a cleanup at its first failure. Completed lists the
// deletions that went through before it.
type CleanupError struct {
	Completed []client.Ref
	Failed    client.Ref
	Err       error
}

func (e *CleanupError) Error() string {
	done := make([]string, len(e.Completed))
	for i, r := range e.Completed {
		done[i] = r.String()
	}
	return fmt.Sprintf("cleanup failed at %s after %d deletions [%s]: %v",
		e.Failed, len(e.Completed), strings.Join(done, "; "), e.Err)
}

func (e *CleanupError) Unwrap() error { return e.Err }

// Cleaner deletes remote entities that the sheet no longer declares.
type Cleaner struct {
	api    API
	report *Report
	log    *logrus.Entry

	done []client.Ref
}

func NewCleaner(api API, report *Report, log *logrus.Entry) *Cleaner {
	return &Cleaner{api: api, report: report, log: log}
}

// Clean diffs tree against a fresh remote listing and deletes the orphans one
// at a time: menus first, then per sheet menu the dishes of each sheet
// submenu, then the submenus.
func (c *Cleaner) Clean(ctx context.Context, tree Tree) ([]client.Ref, error) {
	c.done = nil

	keep := make([]string, len(tree.Menus))
	for i, m := range tree.Menus {
		keep[i] = m.ID
	}
	if err := c.prune(ctx, client.MenuRef(""), keep); err != nil {
		return c.done, err
	}

	for _, m := range tree.Menus {
		for _, s := range m.Submenus {
			keep := make([]string, len(s.Dishes))
			for i, d := range s.Dishes {
				keep[i] = d.ID
			}
			if err := c.prune(ctx, client.DishRef(m.ID, s.ID, ""), keep); err != nil {
				return c.done, err
			}
		}

		keep := make([]string, len(m.Submenus))
		for i, s := range m.Submenus {
			keep[i] = s.ID
		}
		if err := c.prune(ctx, client.SubmenuRef(m.ID, ""), keep); err != nil {
			return c.done, err
		}
	}
	return c.done, nil
}

// prune lists the collection scope names and deletes every member whose id is
// not in keep.
func (c *Cleaner) prune(ctx context.Context, scope client.Ref, keep []string) error {
	remote, err := c.api.List(ctx, scope)
	if err != nil {
		return c.fail(scope, fmt.Errorf("list: %w", err))
	}

	wanted := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		wanted[id] = struct{}{}
	}

	for _, rec := range remote {
		if _, ok := wanted[rec.ID]; ok {
			continue
		}
		ref := scope
		ref.ID = rec.ID
		err := c.api.Delete(ctx, ref)
		switch {
		case errors.Is(err, client.ErrNotFound):
			c.log.WithFields(logrus.Fields{"kind": ref.Kind, "id": ref.ID}).Debug("orphan already gone")
			continue
		case err != nil:
			return c.fail(ref, err)
		}
		c.done = append(c.done, ref)
		c.report.record(ref.Kind, ActionDeleted)
		c.log.WithFields(logrus.Fields{"kind": ref.Kind, "id": ref.ID, "title": rec.Title}).Info("orphan deleted")
	}
	return nil
}

func (c *Cleaner) fail(ref client.Ref, err error) error {
	return &CleanupError{
		Completed: append([]client.Ref(nil), c.done...),
		Failed:    ref,
		Err:       err,
	}
}
