package services

import (
	"context"
	"sort"
	"sync"

	"menu-service/models"
)

type memMenu struct {
	models.Menu
	seq int64
}

type memSubmenu struct {
	models.Submenu
	seq int64
}

type memDish struct {
	models.Dish
	seq int64
}

// MemoryStore is an in-process Store with the same scoping and counter rules
// as PostgresStore. Lists come back in insertion order.
type MemoryStore struct {
	mu       sync.RWMutex
	seq      int64
	menus    map[string]*memMenu
	submenus map[string]*memSubmenu
	dishes   map[string]*memDish
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		menus:    make(map[string]*memMenu),
		submenus: make(map[string]*memSubmenu),
		dishes:   make(map[string]*memDish),
	}
}

func (s *MemoryStore) next() int64 {
	s.seq++
	return s.seq
}

func (s *MemoryStore) ListMenus(ctx context.Context) ([]models.Menu, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]*memMenu, 0, len(s.menus))
	for _, m := range s.menus {
		rows = append(rows, m)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	menus := make([]models.Menu, 0, len(rows))
	for _, m := range rows {
		menus = append(menus, m.Menu)
	}
	return menus, nil
}

func (s *MemoryStore) GetMenu(ctx context.Context, id string) (*models.Menu, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.menus[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := m.Menu
	return &out, nil
}

func (s *MemoryStore) CreateMenu(ctx context.Context, in models.CreateMenuInput) (*models.Menu, error) {
	id, err := newID(in.ID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.menus[id]; exists {
		return nil, ErrConflict
	}
	if s.menuTitleTaken(in.Title, "") {
		return nil, ErrConflict
	}
	m := &memMenu{
		Menu: models.Menu{ID: id, Title: in.Title, Description: in.Description},
		seq:  s.next(),
	}
	s.menus[id] = m
	out := m.Menu
	return &out, nil
}

func (s *MemoryStore) menuTitleTaken(title, exceptID string) bool {
	for id, m := range s.menus {
		if id != exceptID && m.Title == title {
			return true
		}
	}
	return false
}

func (s *MemoryStore) UpdateMenu(ctx context.Context, id string, in models.UpdateMenuInput) (*models.Menu, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.menus[id]
	if !ok {
		return nil, ErrNotFound
	}
	if in.Title != nil {
		if s.menuTitleTaken(*in.Title, id) {
			return nil, ErrConflict
		}
		m.Title = *in.Title
	}
	if in.Description != nil {
		m.Description = *in.Description
	}
	out := m.Menu
	return &out, nil
}

func (s *MemoryStore) DeleteMenu(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.menus[id]; !ok {
		return ErrNotFound
	}
	for sid, sm := range s.submenus {
		if sm.MenuID == id {
			s.dropSubmenu(sid)
		}
	}
	delete(s.menus, id)
	return nil
}

// dropSubmenu removes a submenu and its dishes without touching counters.
func (s *MemoryStore) dropSubmenu(id string) {
	for did, d := range s.dishes {
		if d.SubmenuID == id {
			delete(s.dishes, did)
		}
	}
	delete(s.submenus, id)
}

func (s *MemoryStore) ListSubmenus(ctx context.Context, menuID string) ([]models.Submenu, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []*memSubmenu
	for _, sm := range s.submenus {
		if sm.MenuID == menuID {
			rows = append(rows, sm)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	submenus := make([]models.Submenu, 0, len(rows))
	for _, sm := range rows {
		submenus = append(submenus, sm.Submenu)
	}
	return submenus, nil
}

func (s *MemoryStore) submenuIn(menuID, id string) (*memSubmenu, bool) {
	sm, ok := s.submenus[id]
	if !ok || sm.MenuID != menuID {
		return nil, false
	}
	return sm, true
}

func (s *MemoryStore) GetSubmenu(ctx context.Context, menuID, id string) (*models.Submenu, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sm, ok := s.submenuIn(menuID, id)
	if !ok {
		return nil, ErrNotFound
	}
	out := sm.Submenu
	return &out, nil
}

func (s *MemoryStore) CreateSubmenu(ctx context.Context, menuID string, in models.CreateSubmenuInput) (*models.Submenu, error) {
	id, err := newID(in.ID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.menus[menuID]
	if !ok {
		return nil, ErrNotFound
	}
	if _, exists := s.submenus[id]; exists {
		return nil, ErrConflict
	}
	sm := &memSubmenu{
		Submenu: models.Submenu{ID: id, MenuID: menuID, Title: in.Title, Description: in.Description},
		seq:     s.next(),
	}
	s.submenus[id] = sm
	m.SubmenuCount++
	out := sm.Submenu
	return &out, nil
}

func (s *MemoryStore) UpdateSubmenu(ctx context.Context, menuID, id string, in models.UpdateSubmenuInput) (*models.Submenu, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sm, ok := s.submenuIn(menuID, id)
	if !ok {
		return nil, ErrNotFound
	}
	if in.Title != nil {
		sm.Title = *in.Title
	}
	if in.Description != nil {
		sm.Description = *in.Description
	}
	out := sm.Submenu
	return &out, nil
}

func (s *MemoryStore) DeleteSubmenu(ctx context.Context, menuID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sm, ok := s.submenuIn(menuID, id)
	if !ok {
		return ErrNotFound
	}
	if m, ok := s.menus[menuID]; ok {
		m.SubmenuCount--
		m.DishCount -= sm.DishCount
	}
	s.dropSubmenu(id)
	return nil
}

func (s *MemoryStore) ListDishes(ctx context.Context, menuID, submenuID string) ([]models.Dish, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dishes := []models.Dish{}
	if _, ok := s.submenuIn(menuID, submenuID); !ok {
		return dishes, nil
	}
	var rows []*memDish
	for _, d := range s.dishes {
		if d.SubmenuID == submenuID {
			rows = append(rows, d)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	for _, d := range rows {
		dishes = append(dishes, d.Dish)
	}
	return dishes, nil
}

func (s *MemoryStore) dishIn(menuID, submenuID, id string) (*memDish, bool) {
	if _, ok := s.submenuIn(menuID, submenuID); !ok {
		return nil, false
	}
	d, ok := s.dishes[id]
	if !ok || d.SubmenuID != submenuID {
		return nil, false
	}
	return d, true
}

func (s *MemoryStore) GetDish(ctx context.Context, menuID, submenuID, id string) (*models.Dish, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.dishIn(menuID, submenuID, id)
	if !ok {
		return nil, ErrNotFound
	}
	out := d.Dish
	return &out, nil
}

func (s *MemoryStore) CreateDish(ctx context.Context, menuID, submenuID string, in models.CreateDishInput) (*models.Dish, error) {
	id, err := newID(in.ID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sm, ok := s.submenuIn(menuID, submenuID)
	if !ok {
		return nil, ErrNotFound
	}
	if _, exists := s.dishes[id]; exists {
		return nil, ErrConflict
	}
	d := &memDish{
		Dish: models.Dish{
			ID:          id,
			SubmenuID:   submenuID,
			Title:       in.Title,
			Description: in.Description,
			Price:       in.Price,
		},
		seq: s.next(),
	}
	s.dishes[id] = d
	sm.DishCount++
	s.menus[menuID].DishCount++
	out := d.Dish
	return &out, nil
}

func (s *MemoryStore) UpdateDish(ctx context.Context, menuID, submenuID, id string, in models.UpdateDishInput) (*models.Dish, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.dishIn(menuID, submenuID, id)
	if !ok {
		return nil, ErrNotFound
	}
	if in.Title != nil {
		d.Title = *in.Title
	}
	if in.Description != nil {
		d.Description = *in.Description
	}
	if in.Price != nil {
		d.Price = *in.Price
	}
	out := d.Dish
	return &out, nil
}

func (s *MemoryStore) DeleteDish(ctx context.Context, menuID, submenuID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.dishIn(menuID, submenuID, id); !ok {
		return ErrNotFound
	}
	delete(s.dishes, id)
	s.submenus[submenuID].DishCount--
	s.menus[menuID].DishCount--
	return nil
}
