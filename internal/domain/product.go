package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Icon is a symbolic product icon tag
type Icon string

const (
	IconCode        Icon = "Code"
	IconShoppingBag Icon = "ShoppingBag"
	IconMap         Icon = "Map"
	IconPalette     Icon = "Palette"
	IconBrain       Icon = "Brain"

	DefaultIcon = IconCode
)

// Icons is the closed set of selectable icons
var Icons = []Icon{IconCode, IconPalette, IconBrain, IconShoppingBag, IconMap}

// ValidIcon reports whether name is in the closed icon set
func ValidIcon(name string) bool {
	for _, icon := range Icons {
		if string(icon) == name {
			return true
		}
	}
	return false
}

// DisplayIcon resolves a stored icon name for rendering, falling back to the default
func DisplayIcon(name string) Icon {
	if ValidIcon(name) {
		return Icon(name)
	}
	return DefaultIcon
}

// Product is a catalog entry
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	IconName    string          `json:"icon_name"`
	ImageURL    string          `json:"image_url,omitempty"`
}

var priceInput = regexp.MustCompile(`^\d*\.?\d{0,2}$`)

// ValidPriceInput reports whether raw is a non-negative amount with at most two decimals
func ValidPriceInput(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "." {
		return false
	}
	return priceInput.MatchString(raw)
}

// ParsePrice parses a form price, rejecting anything ValidPriceInput rejects
func ParsePrice(raw string) (decimal.Decimal, error) {
	if !ValidPriceInput(raw) {
		return decimal.Zero, fmt.Errorf("invalid price %q: expected a non-negative amount with at most two decimals", raw)
	}
	return decimal.NewFromString(strings.TrimSpace(raw))
}

// CoercePrice reads a price the store may hand back as a number or as text
func CoercePrice(v interface{}) (decimal.Decimal, error) {
	switch p := v.(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		return p, nil
	case float64:
		return decimal.NewFromFloat(p), nil
	case float32:
		return decimal.NewFromFloat32(p), nil
	case int64:
		return decimal.NewFromInt(p), nil
	case int32:
		return decimal.NewFromInt32(p), nil
	case int:
		return decimal.NewFromInt(int64(p)), nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(p))
	case []byte:
		return decimal.NewFromString(strings.TrimSpace(string(p)))
	default:
		return decimal.Zero, fmt.Errorf("unsupported price type %T", v)
	}
}

// FormatPrice renders an amount the way the console shows it
func FormatPrice(p decimal.Decimal) string {
	return "$" + p.StringFixed(2)
}
