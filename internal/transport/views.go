package transport

import (
	"fmt"
	"strings"
	"time"

	"ryven-shop/internal/domain"
	"ryven-shop/internal/service"

	"github.com/shopspring/decimal"
)

// OrderRow is one line of the admin order table
type OrderRow struct {
	OrderID         string   `json:"order_id"`
	ProductName     string   `json:"product_name"`
	DiscordUsername string   `json:"discord_username"`
	Email           string   `json:"email"`
	Price           string   `json:"price"`
	Status          string   `json:"status"`
	Badge           string   `json:"badge"`
	Actions         []string `json:"actions"`
	PendingRemoval  bool     `json:"pending_removal"`
}

// OrderListView is the rendered admin order list
type OrderListView struct {
	Rows            []OrderRow `json:"rows"`
	Filter          string     `json:"filter"`
	Filters         []string   `json:"filters"`
	Search          string     `json:"search"`
	Loading         bool       `json:"loading"`
	ConnectionError bool       `json:"connection_error"`
	CanLoadDemo     bool       `json:"can_load_demo"`
	PendingRemoval  string     `json:"pending_removal,omitempty"`
	EmptyMessage    string     `json:"empty_message,omitempty"`
	Footer          string     `json:"footer"`
}

// ProductCard is one product in the admin catalog grid or the storefront
type ProductCard struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Icon        string   `json:"icon"`
	Summary     []string `json:"summary"`
	Truncated   bool     `json:"truncated"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Price       string   `json:"price"`
	ImageURL    string   `json:"image_url,omitempty"`
}

// CatalogView is the rendered admin catalog
type CatalogView struct {
	Products       []ProductCard       `json:"products"`
	Loading        bool                `json:"loading"`
	LoadError      bool                `json:"load_error"`
	Editing        bool                `json:"editing"`
	Form           service.ProductForm `json:"form"`
	PendingRemoval int64               `json:"pending_removal,omitempty"`
	Icons          []string            `json:"icons"`
}

// NotificationView is a drained toast
type NotificationView struct {
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description"`
	At          string `json:"at"`
}

func orEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func money(p decimal.Decimal) string {
	return "$" + p.StringFixed(2)
}

// badgeFor maps a status to its display variant
func badgeFor(status domain.OrderStatus) string {
	switch status {
	case domain.StatusCompleted:
		return "success"
	case domain.StatusPending:
		return "warning"
	case domain.StatusCancelled:
		return "destructive"
	default:
		return "secondary"
	}
}

func orderRow(o *domain.Order, pending string) OrderRow {
	actions := make([]string, 0, len(domain.OrderStatuses)+1)
	for _, s := range domain.AvailableTransitions(o.Status) {
		actions = append(actions, string(s))
	}
	actions = append(actions, "delete")

	return OrderRow{
		OrderID:         orEmpty(o.OrderID, "No ID"),
		ProductName:     orEmpty(o.ProductName, "Unnamed product"),
		DiscordUsername: orEmpty(o.DiscordUsername, "No user"),
		Email:           orEmpty(o.Email, "No email"),
		Price:           money(o.Price),
		Status:          orEmpty(string(o.Status), string(domain.StatusPending)),
		Badge:           badgeFor(o.Status),
		Actions:         actions,
		PendingRemoval:  pending != "" && pending == o.OrderID,
	}
}

// RenderOrders turns order review state into its list view
func RenderOrders(state service.OrderState) OrderListView {
	shown := service.Displayed(state)

	view := OrderListView{
		Rows:            make([]OrderRow, 0, len(shown)),
		Filter:          string(state.Filter),
		Search:          state.Search,
		Loading:         state.Loading,
		ConnectionError: state.ConnectionError,
		CanLoadDemo:     state.ConnectionError,
		PendingRemoval:  state.PendingRemoval,
		Footer:          orderFooter(len(shown), state.Filter, state.Search),
	}
	for _, f := range service.OrderFilters() {
		view.Filters = append(view.Filters, string(f))
	}
	for _, o := range shown {
		view.Rows = append(view.Rows, orderRow(o, state.PendingRemoval))
	}

	if len(shown) == 0 && !state.Loading {
		view.EmptyMessage = "Try changing the filters or the search"
		if len(state.Orders) == 0 {
			view.EmptyMessage = "No orders registered"
		}
	}
	return view
}

func orderFooter(n int, filter service.OrderFilter, search string) string {
	var b strings.Builder
	if n == 1 {
		b.WriteString("Showing 1 order")
	} else {
		fmt.Fprintf(&b, "Showing %d orders", n)
	}
	if filter != "" && filter != service.FilterAll {
		fmt.Fprintf(&b, " with status %q", string(filter))
	}
	if search != "" {
		fmt.Fprintf(&b, " matching %q", search)
	}
	return b.String()
}

// productCard shows the first two description lines and flags the rest as truncated
func productCard(p *domain.Product) ProductCard {
	lines := strings.Split(p.Description, "\n")
	summary := lines
	if len(lines) > 2 {
		summary = lines[:2]
	}
	return ProductCard{
		ID:          p.ID,
		Name:        p.Name,
		Icon:        string(domain.DisplayIcon(p.IconName)),
		Summary:     summary,
		Truncated:   len(lines) > 2,
		Description: p.Description,
		Category:    p.Category,
		Price:       money(p.Price),
		ImageURL:    p.ImageURL,
	}
}

func productCards(products []*domain.Product) []ProductCard {
	cards := make([]ProductCard, 0, len(products))
	for _, p := range products {
		cards = append(cards, productCard(p))
	}
	return cards
}

// RenderCatalog turns catalog state into its admin view
func RenderCatalog(state service.CatalogState) CatalogView {
	view := CatalogView{
		Products:       productCards(state.Products),
		Loading:        state.Loading,
		LoadError:      state.LoadError,
		Editing:        state.Selected != nil,
		Form:           service.ProductForm{IconName: string(domain.DefaultIcon)},
		PendingRemoval: state.PendingRemoval,
	}
	if state.Selected != nil {
		view.Form = service.FormFor(state.Selected)
	}
	for _, icon := range domain.Icons {
		view.Icons = append(view.Icons, string(icon))
	}
	return view
}

func renderNotifications(ns []service.Notification) []NotificationView {
	out := make([]NotificationView, 0, len(ns))
	for _, n := range ns {
		out = append(out, NotificationView{
			Kind:        string(n.Kind),
			Title:       n.Title,
			Description: n.Description,
			At:          n.At.UTC().Format(time.RFC3339),
		})
	}
	return out
}
