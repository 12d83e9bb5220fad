package service

import (
	"reflect"
	"strings"

	"ryven-shop/internal/domain"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
)

// DefaultMaxImageBytes is the largest accepted product image
const DefaultMaxImageBytes int64 = 5 * 1024 * 1024

// ProductForm is the catalog editing form as typed by the operator
type ProductForm struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	Price       string `json:"price" validate:"required,price"`
	Category    string `json:"category" validate:"required"`
	IconName    string `json:"icon_name" validate:"omitempty,icon"`
	// ImageURL is the image already attached to the product being edited
	ImageURL string `json:"image_url"`
}

// ImageUpload is an image file picked in the form
type ImageUpload struct {
	Filename string
	Data     []byte
}

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		return domain.ValidPriceInput(fl.Field().String())
	})
	_ = v.RegisterValidation("icon", func(fl validator.FieldLevel) bool {
		return domain.ValidIcon(fl.Field().String())
	})
	return v
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "price":
		return "Enter a non-negative amount with at most two decimals"
	case "icon":
		return "Choose one of Code, Palette, Brain, ShoppingBag or Map"
	default:
		return "Invalid value"
	}
}

// Validate checks the form without touching the store
func (f ProductForm) Validate() error {
	err := formValidator.Struct(f)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := &ValidationError{}
	for _, e := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: e.Field(), Message: fieldMessage(e)})
	}
	return out
}

// Product converts a validated form into a product record
func (f ProductForm) Product() (*domain.Product, error) {
	price, err := domain.ParsePrice(f.Price)
	if err != nil {
		return nil, err
	}
	icon := f.IconName
	if icon == "" {
		icon = string(domain.DefaultIcon)
	}
	return &domain.Product{
		Name:        strings.TrimSpace(f.Name),
		Description: f.Description,
		Price:       price,
		Category:    strings.TrimSpace(f.Category),
		IconName:    icon,
		ImageURL:    f.ImageURL,
	}, nil
}

// FormFor fills the form from an existing product
func FormFor(p *domain.Product) ProductForm {
	return ProductForm{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Category:    p.Category,
		IconName:    p.IconName,
		ImageURL:    p.ImageURL,
	}
}

// ValidateImage rejects oversized or non-image files before any upload
func ValidateImage(img *ImageUpload, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	if int64(len(img.Data)) > maxBytes {
		return ErrImageTooLarge
	}
	if !strings.HasPrefix(mimetype.Detect(img.Data).String(), "image/") {
		return ErrImageNotImage
	}
	return nil
}
