package client

import "net/url"

type Kind string

const (
	KindMenu    Kind = "menu"
	KindSubmenu Kind = "submenu"
	KindDish    Kind = "dish"
)

// Ref addresses one remote entity: its level, its parent scope and its id.
type Ref struct {
	Kind      Kind
	MenuID    string
	SubmenuID string
	ID        string
}

func MenuRef(id string) Ref {
	return Ref{Kind: KindMenu, ID: id}
}

func SubmenuRef(menuID, id string) Ref {
	return Ref{Kind: KindSubmenu, MenuID: menuID, ID: id}
}

func DishRef(menuID, submenuID, id string) Ref {
	return Ref{Kind: KindDish, MenuID: menuID, SubmenuID: submenuID, ID: id}
}

func (r Ref) String() string {
	switch r.Kind {
	case KindSubmenu:
		return "submenu " + r.ID + " (menu " + r.MenuID + ")"
	case KindDish:
		return "dish " + r.ID + " (menu " + r.MenuID + ", submenu " + r.SubmenuID + ")"
	default:
		return "menu " + r.ID
	}
}

func (r Ref) collectionPath() string {
	switch r.Kind {
	case KindSubmenu:
		return pathPrefix + "/menus/" + url.PathEscape(r.MenuID) + "/submenus"
	case KindDish:
		return pathPrefix + "/menus/" + url.PathEscape(r.MenuID) +
			"/submenus/" + url.PathEscape(r.SubmenuID) + "/dishes"
	default:
		return pathPrefix + "/menus"
	}
}

func (r Ref) path() string {
	return r.collectionPath() + "/" + url.PathEscape(r.ID)
}
