// Package api exposes the menu hierarchy over HTTP.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"menu-service/cache"
	"menu-service/notify"
	"menu-service/services"
	"menu-service/tasks"

	"github.com/NYTimes/gziphandler"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const (
	PathPrefix = "/api/v1"

	// Requests carrying this Cache-Control directive skip the response cache.
	noCacheDirective = "no-cache"
)

// Enqueuer accepts background work. *tasks.Queue satisfies it.
type Enqueuer interface {
	Enqueue(name string, fn tasks.Func) bool
}

type Server struct {
	store    services.Store
	cache    cache.Service
	queue    Enqueuer
	notifier notify.Notifier
	log      *logrus.Entry
}

func NewServer(store services.Store, c cache.Service, queue Enqueuer, notifier notify.Notifier, logger *logrus.Logger) *Server {
	return &Server{
		store:    store,
		cache:    c,
		queue:    queue,
		notifier: notifier,
		log:      logger.WithField("component", "api"),
	}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", s.health).Methods(http.MethodGet)

	v1 := r.PathPrefix(PathPrefix).Subrouter()

	v1.HandleFunc("/menus", s.listMenus).Methods(http.MethodGet)
	v1.HandleFunc("/menus", s.createMenu).Methods(http.MethodPost)
	v1.HandleFunc("/menus/{menu_id}", s.getMenu).Methods(http.MethodGet)
	v1.HandleFunc("/menus/{menu_id}", s.updateMenu).Methods(http.MethodPatch)
	v1.HandleFunc("/menus/{menu_id}", s.deleteMenu).Methods(http.MethodDelete)

	v1.HandleFunc("/menus/{menu_id}/submenus", s.listSubmenus).Methods(http.MethodGet)
	v1.HandleFunc("/menus/{menu_id}/submenus", s.createSubmenu).Methods(http.MethodPost)
	v1.HandleFunc("/menus/{menu_id}/submenus/{submenu_id}", s.getSubmenu).Methods(http.MethodGet)
	v1.HandleFunc("/menus/{menu_id}/submenus/{submenu_id}", s.updateSubmenu).Methods(http.MethodPatch)
	v1.HandleFunc("/menus/{menu_id}/submenus/{submenu_id}", s.deleteSubmenu).Methods(http.MethodDelete)

	v1.HandleFunc("/menus/{menu_id}/submenus/{submenu_id}/dishes", s.listDishes).Methods(http.MethodGet)
	v1.HandleFunc("/menus/{menu_id}/submenus/{submenu_id}/dishes", s.createDish).Methods(http.MethodPost)
	v1.HandleFunc("/menus/{menu_id}/submenus/{submenu_id}/dishes/{dish_id}", s.getDish).Methods(http.MethodGet)
	v1.HandleFunc("/menus/{menu_id}/submenus/{submenu_id}/dishes/{dish_id}", s.updateDish).Methods(http.MethodPatch)
	v1.HandleFunc("/menus/{menu_id}/submenus/{submenu_id}/dishes/{dish_id}", s.deleteDish).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})
	return r
}

func (s *Server) Handler() http.Handler {
	return gziphandler.GzipHandler(s.Router())
}

// NewHTTPServer wraps Handler in an http.Server listening on addr.
func (s *Server) NewHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.cache.Ping(ctx); err != nil {
		s.log.WithError(err).Warn("cache ping failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "cache": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func bypassCache(r *http.Request) bool {
	for _, v := range r.Header.Values("Cache-Control") {
		for _, d := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(d), noCacheDirective) {
				return true
			}
		}
	}
	return false
}

// read serves a GET through the response cache unless the client asked to
// bypass it.
func read[T any](s *Server, r *http.Request, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	if bypassCache(r) {
		return fetch(r.Context())
	}
	return cache.GetOrFetch(r.Context(), s.cache, key, fetch)
}

func menusKey() string { return cache.Key("menus") }

func menuKey(menuID string) string { return cache.Key("menus", menuID) }

func submenusKey(menuID string) string { return cache.Key("menus", menuID, "submenus") }

func submenuKey(menuID, submenuID string) string {
	return cache.Key("menus", menuID, "submenus", submenuID)
}

func dishesKey(menuID, submenuID string) string {
	return cache.Key("menus", menuID, "submenus", submenuID, "dishes")
}

func dishKey(menuID, submenuID, dishID string) string {
	return cache.Key("menus", menuID, "submenus", submenuID, "dishes", dishID)
}

// invalidate drops the menu list and everything cached under menuID. Counters
// bubble up to the menu, so any write below it stales the whole subtree.
func (s *Server) invalidate(menuID string) {
	s.queue.Enqueue("invalidate "+menuKey(menuID), func(ctx context.Context) error {
		if err := s.cache.Delete(ctx, menusKey()); err != nil {
			return err
		}
		return s.cache.DeleteByPrefix(ctx, menuKey(menuID))
	})
}
