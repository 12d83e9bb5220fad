package service

import (
	"ryven-shop/internal/domain"
)

// CatalogState is the product administration screen state
type CatalogState struct {
	Products       []*domain.Product
	Loading        bool
	LoadError      bool
	Selected       *domain.Product
	PendingRemoval int64
	Notifications  []Notification
}

// CatalogAction is an event the catalog reducer understands
type CatalogAction interface {
	catalogAction()
}

type (
	CatalogRefreshStarted   struct{}
	CatalogRefreshSucceeded struct{ Products []*domain.Product }
	CatalogRefreshFailed    struct{}
	ProductSelected         struct{ Product *domain.Product }
	FormReset               struct{}
	ProductRemovalRequested struct{ ID int64 }
	ProductRemovalCancelled struct{}
	ProductRemoved          struct{ ID int64 }
)

func (CatalogRefreshStarted) catalogAction()   {}
func (CatalogRefreshSucceeded) catalogAction() {}
func (CatalogRefreshFailed) catalogAction()    {}
func (ProductSelected) catalogAction()         {}
func (FormReset) catalogAction()               {}
func (ProductRemovalRequested) catalogAction() {}
func (ProductRemovalCancelled) catalogAction() {}
func (ProductRemoved) catalogAction()          {}
func (Notified) catalogAction()                {}

// ReduceCatalog returns the state after applying action without modifying the input
func ReduceCatalog(state CatalogState, action CatalogAction) CatalogState {
	next := state

	switch a := action.(type) {
	case CatalogRefreshStarted:
		next.Loading = true
	case CatalogRefreshSucceeded:
		next.Products = append([]*domain.Product{}, a.Products...)
		next.Loading = false
		next.LoadError = false
	case CatalogRefreshFailed:
		next.Products = []*domain.Product{}
		next.Loading = false
		next.LoadError = true
	case ProductSelected:
		selected := *a.Product
		next.Selected = &selected
	case FormReset:
		next.Selected = nil
	case ProductRemovalRequested:
		next.PendingRemoval = a.ID
	case ProductRemovalCancelled:
		next.PendingRemoval = 0
	case ProductRemoved:
		products := make([]*domain.Product, 0, len(state.Products))
		for _, p := range state.Products {
			if p.ID != a.ID {
				products = append(products, p)
			}
		}
		next.Products = products
		if next.PendingRemoval == a.ID {
			next.PendingRemoval = 0
		}
		if next.Selected != nil && next.Selected.ID == a.ID {
			next.Selected = nil
		}
	case Notified:
		next.Notifications = appendNotification(state.Notifications, a.Notification)
	}

	return next
}

// FindProduct returns the product with the given id, or nil
func FindProduct(state CatalogState, id int64) *domain.Product {
	for _, p := range state.Products {
		if p.ID == id {
			return p
		}
	}
	return nil
}
