package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"ryven-shop/internal/inflight"
	"ryven-shop/internal/repository"

	"go.uber.org/zap"
)

// CatalogOptions tunes the catalog view-model
type CatalogOptions struct {
	MaxImageBytes int64
}

// Catalog is the product administration view-model of one operator session
type Catalog struct {
	mu       sync.Mutex
	state    CatalogState
	products repository.ProductRepository
	guard    inflight.Guard
	opts     CatalogOptions
	logger   *zap.Logger
}

// NewCatalog creates a catalog view-model in its initial loading state
func NewCatalog(products repository.ProductRepository, guard inflight.Guard, opts CatalogOptions, logger *zap.Logger) *Catalog {
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = DefaultMaxImageBytes
	}
	return &Catalog{
		state:    CatalogState{Loading: true},
		products: products,
		guard:    guard,
		opts:     opts,
		logger:   logger,
	}
}

// State returns a snapshot of the current state
func (c *Catalog) State() CatalogState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// DrainNotifications returns and clears the pending notifications
func (c *Catalog) DrainNotifications() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.state.Notifications
	c.state.Notifications = nil
	return out
}

func (c *Catalog) dispatch(actions ...CatalogAction) CatalogState {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range actions {
		if n, ok := a.(Notified); ok {
			logNotification(c.logger, n.Notification)
		}
		c.state = ReduceCatalog(c.state, a)
	}
	return c.state
}

// Refresh reloads the product list ordered by id
func (c *Catalog) Refresh(ctx context.Context) error {
	c.dispatch(CatalogRefreshStarted{})

	products, err := c.products.List(ctx)
	if err != nil {
		c.logger.Error("Failed to load products", zap.Error(err))
		c.dispatch(
			CatalogRefreshFailed{},
			Notified{notify(NotifyError, "Error loading products", fmt.Sprintf("Could not load products: %v", err))},
		)
		return err
	}

	c.dispatch(CatalogRefreshSucceeded{Products: products})
	return nil
}

// Edit selects a product from the current list for editing
func (c *Catalog) Edit(id int64) (ProductForm, error) {
	p := FindProduct(c.State(), id)
	if p == nil {
		return ProductForm{}, repository.ErrProductNotFound
	}
	c.dispatch(ProductSelected{Product: p})
	return FormFor(p), nil
}

// ResetForm leaves editing mode
func (c *Catalog) ResetForm() CatalogState {
	return c.dispatch(FormReset{})
}

// Save validates the form and image, uploads the image if any, then creates
// or updates the product. The list is reloaded only after the store accepted it.
func (c *Catalog) Save(ctx context.Context, form ProductForm, img *ImageUpload) error {
	selected := c.State().Selected

	// an icon tag kept from the stored product is saved as-is, even outside the known set
	keptIcon := selected != nil && form.IconName == selected.IconName
	check := form
	if keptIcon {
		check.IconName = ""
	}
	if err := check.Validate(); err != nil {
		c.dispatch(Notified{notify(NotifyError, "Error", formErrorDescription(err))})
		return err
	}
	if img != nil {
		if err := ValidateImage(img, c.opts.MaxImageBytes); err != nil {
			c.dispatch(Notified{notify(NotifyError, "Error", err.Error())})
			return err
		}
	}

	product, err := form.Product()
	if err != nil {
		return err
	}

	key := "products:new:" + strings.ToLower(product.Name)
	if selected != nil {
		product.ID = selected.ID
		key = "products:" + strconv.FormatInt(selected.ID, 10)
		if keptIcon {
			product.IconName = selected.IconName
		}
		if product.ImageURL == "" {
			product.ImageURL = selected.ImageURL
		}
	}

	release, err := c.guard.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer release()

	if img != nil {
		url, err := c.products.UploadImage(ctx, img.Filename, img.Data)
		if err != nil {
			c.logger.Error("Failed to upload product image", zap.String("filename", img.Filename), zap.Error(err))
			c.dispatch(Notified{notify(NotifyError, "Error", fmt.Sprintf("Could not upload the image: %v", err))})
			return err
		}
		product.ImageURL = url
	}

	title := "Product added"
	if selected != nil {
		err = c.products.Update(ctx, product)
		title = "Product updated"
	} else {
		err = c.products.Create(ctx, product)
	}
	if err != nil {
		c.logger.Error("Failed to save product", zap.Int64("id", product.ID), zap.Error(err))
		c.dispatch(Notified{notify(NotifyError, "Error", fmt.Sprintf("Could not save the product: %v", err))})
		return err
	}

	c.dispatch(
		FormReset{},
		Notified{notify(NotifySuccess, title, fmt.Sprintf("%s has been saved.", product.Name))},
	)
	_ = c.Refresh(ctx)
	return nil
}

// RequestRemove marks a product as awaiting removal confirmation
func (c *Catalog) RequestRemove(id int64) CatalogState {
	return c.dispatch(ProductRemovalRequested{ID: id})
}

// CancelRemove drops a pending removal request
func (c *Catalog) CancelRemove() CatalogState {
	return c.dispatch(ProductRemovalCancelled{})
}

// ConfirmRemove deletes the product whose removal was requested, then reloads the list
func (c *Catalog) ConfirmRemove(ctx context.Context, id int64) error {
	if pending := c.State().PendingRemoval; pending == 0 || pending != id {
		return ErrConfirmationRequired
	}

	release, err := c.guard.Acquire(ctx, "products:"+strconv.FormatInt(id, 10))
	if err != nil {
		return err
	}
	defer release()

	if err := c.products.Delete(ctx, id); err != nil {
		c.logger.Error("Failed to delete product", zap.Int64("id", id), zap.Error(err))
		c.dispatch(Notified{notify(NotifyError, "Error", "Could not delete the product.")})
		return err
	}

	c.dispatch(
		ProductRemoved{ID: id},
		Notified{notify(NotifySuccess, "Product deleted", "The product has been deleted.")},
	)
	_ = c.Refresh(ctx)
	return nil
}

// formErrorDescription lists what is wrong with each rejected field
func formErrorDescription(err error) string {
	ve, ok := IsValidationError(err)
	if !ok || len(ve.Fields) == 0 {
		return "Please check the form."
	}
	parts := make([]string, len(ve.Fields))
	for i, f := range ve.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return strings.Join(parts, "; ") + "."
}
