package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"ryven-shop/internal/domain"
	"ryven-shop/internal/inflight"
	"ryven-shop/internal/repository"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

func validForm() ProductForm {
	return ProductForm{
		Name:        "Discord bot",
		Description: "Custom moderation bot",
		Price:       "49.99",
		Category:    "Development",
		IconName:    "Brain",
	}
}

func seededCatalog(t *testing.T) (*Catalog, *mockProductRepository) {
	repo := newMockProductRepository(
		&domain.Product{ID: 1, Name: "Logo", Price: decimal.NewFromInt(15), IconName: "Palette", ImageURL: "https://cdn.test/logo.png"},
		&domain.Product{ID: 2, Name: "Map pack", Price: decimal.NewFromInt(8), IconName: "Map"},
	)
	c := NewCatalog(repo, inflight.NewLocal(), CatalogOptions{}, zap.NewNop())
	require.NoError(t, c.Refresh(context.Background()))
	return c, repo
}

// Property: an image over the size limit never reaches the store
func TestProperty_OversizedImageMakesNoStoreCall(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("oversized image is rejected before upload", prop.ForAll(
		func(extra int) bool {
			repo := newMockProductRepository()
			c := NewCatalog(repo, inflight.NewLocal(), CatalogOptions{MaxImageBytes: 1024}, zap.NewNop())

			data := append(append([]byte{}, pngBytes...), bytes.Repeat([]byte{0}, 1024+extra)...)
			err := c.Save(context.Background(), validForm(), &ImageUpload{Filename: "big.png", Data: data})

			return errors.Is(err, ErrImageTooLarge) && repo.total() == 0
		},
		gen.IntRange(1, 4096),
	))

	properties.TestingRun(t)
}

func TestValidateImage_DefaultLimitIsFiveMegabytes(t *testing.T) {
	atLimit := append(append([]byte{}, pngBytes...), make([]byte, int(DefaultMaxImageBytes)-len(pngBytes))...)
	assert.NoError(t, ValidateImage(&ImageUpload{Data: atLimit}, 0))

	over := append(atLimit, 0)
	assert.ErrorIs(t, ValidateImage(&ImageUpload{Data: over}, 0), ErrImageTooLarge)
}

func TestCatalog_SaveRejectsNonImage(t *testing.T) {
	repo := newMockProductRepository()
	c := NewCatalog(repo, inflight.NewLocal(), CatalogOptions{}, zap.NewNop())

	err := c.Save(context.Background(), validForm(), &ImageUpload{Filename: "notes.png", Data: []byte("just some text")})
	assert.ErrorIs(t, err, ErrImageNotImage)
	assert.Zero(t, repo.total())
}

func TestCatalog_SaveValidatesForm(t *testing.T) {
	repo := newMockProductRepository()
	c := NewCatalog(repo, inflight.NewLocal(), CatalogOptions{}, zap.NewNop())

	form := validForm()
	form.Name = ""
	form.Price = "1.234"
	form.IconName = "Rocket"

	err := c.Save(context.Background(), form, nil)
	ve, ok := IsValidationError(err)
	require.True(t, ok)

	fields := map[string]string{}
	for _, f := range ve.Fields {
		fields[f.Field] = f.Message
	}
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "price")
	assert.Contains(t, fields, "icon_name")
	assert.Zero(t, repo.total())
}

func TestProductForm_PriceRules(t *testing.T) {
	for raw, ok := range map[string]bool{
		"10":    true,
		"10.5":  true,
		"0.99":  true,
		".5":    true,
		"":      false,
		".":     false,
		"-1":    false,
		"1.234": false,
		"1e3":   false,
	} {
		form := validForm()
		form.Price = raw
		assert.Equal(t, ok, form.Validate() == nil, raw)
	}
}

// Property: an upload that succeeds followed by a failed save leaves the list unchanged
func TestProperty_FailedSaveAfterUploadKeepsList(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("product list is untouched", prop.ForAll(
		func(name string, editing bool) bool {
			c, repo := seededCatalog(t)
			before := c.State().Products
			if editing {
				if _, err := c.Edit(1); err != nil {
					return false
				}
			}

			repo.saveErr = errors.New("insert failed")
			form := validForm()
			form.Name = name

			err := c.Save(context.Background(), form, &ImageUpload{Filename: "a.png", Data: pngBytes})
			if err == nil || repo.calls["upload"] != 1 {
				return false
			}

			after := c.State().Products
			if len(after) != len(before) {
				return false
			}
			for i := range before {
				if after[i] != before[i] {
					return false
				}
			}
			return true
		},
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestCatalog_SaveCreatesAndReloads(t *testing.T) {
	c, repo := seededCatalog(t)

	require.NoError(t, c.Save(context.Background(), validForm(), &ImageUpload{Filename: "bot.png", Data: pngBytes}))

	state := c.State()
	require.Len(t, state.Products, 3)
	created := state.Products[2]
	assert.Equal(t, "Discord bot", created.Name)
	assert.Equal(t, "https://cdn.test/storage/v1/object/public/product-images/bot.png", created.ImageURL)
	assert.True(t, decimal.RequireFromString("49.99").Equal(created.Price))
	assert.Nil(t, state.Selected)
	assert.Equal(t, 2, repo.calls["list"])
}

func TestCatalog_EditKeepsExistingImage(t *testing.T) {
	c, repo := seededCatalog(t)

	form, err := c.Edit(1)
	require.NoError(t, err)
	assert.Equal(t, "15.00", form.Price)
	assert.Equal(t, "Palette", form.IconName)

	form.Name = "Logo v2"
	form.Description = "Vector logo"
	form.Category = "Design"
	form.ImageURL = ""
	require.NoError(t, c.Save(context.Background(), form, nil))

	assert.Equal(t, 1, repo.calls["update"])
	assert.Zero(t, repo.calls["create"])
	p := FindProduct(c.State(), 1)
	require.NotNil(t, p)
	assert.Equal(t, "Logo v2", p.Name)
	assert.Equal(t, "https://cdn.test/logo.png", p.ImageURL)
}

func TestCatalog_EditPreservesUnknownIcon(t *testing.T) {
	repo := newMockProductRepository(
		&domain.Product{ID: 1, Name: "Launch kit", Price: decimal.NewFromInt(20), IconName: "Rocket"},
	)
	c := NewCatalog(repo, inflight.NewLocal(), CatalogOptions{}, zap.NewNop())
	require.NoError(t, c.Refresh(context.Background()))

	form, err := c.Edit(1)
	require.NoError(t, err)
	assert.Equal(t, "Rocket", form.IconName)

	form.Name = "Launch kit v2"
	form.Category = "Development"
	require.NoError(t, c.Save(context.Background(), form, nil))

	p := FindProduct(c.State(), 1)
	require.NotNil(t, p)
	assert.Equal(t, "Launch kit v2", p.Name)
	assert.Equal(t, "Rocket", p.IconName)

	// picking a different unknown tag is still rejected
	form, err = c.Edit(1)
	require.NoError(t, err)
	form.IconName = "Satellite"
	_, ok := IsValidationError(c.Save(context.Background(), form, nil))
	assert.True(t, ok)
}

func TestCatalog_ValidationNotificationNamesFields(t *testing.T) {
	c, _ := seededCatalog(t)
	c.DrainNotifications()

	form := validForm()
	form.Price = "49.999"
	_, ok := IsValidationError(c.Save(context.Background(), form, nil))
	require.True(t, ok)

	notes := c.DrainNotifications()
	require.Len(t, notes, 1)
	assert.Equal(t, NotifyError, notes[0].Kind)
	assert.Contains(t, notes[0].Description, "price")
	assert.Contains(t, notes[0].Description, "at most two decimals")
	assert.NotContains(t, notes[0].Description, "required")
}

func TestCatalog_UploadFailureAbortsSave(t *testing.T) {
	c, repo := seededCatalog(t)
	repo.uploadErr = errors.New("bucket policy")

	err := c.Save(context.Background(), validForm(), &ImageUpload{Filename: "a.png", Data: pngBytes})
	require.Error(t, err)
	assert.Zero(t, repo.calls["create"])
	assert.Len(t, c.State().Products, 2)
}

func TestCatalog_EditUnknownProduct(t *testing.T) {
	c, _ := seededCatalog(t)

	_, err := c.Edit(99)
	assert.ErrorIs(t, err, repository.ErrProductNotFound)

	_, err = c.Edit(2)
	require.NoError(t, err)
	assert.Nil(t, c.ResetForm().Selected)
}

func TestCatalog_RemoveFlow(t *testing.T) {
	c, repo := seededCatalog(t)
	ctx := context.Background()

	assert.ErrorIs(t, c.ConfirmRemove(ctx, 1), ErrConfirmationRequired)
	assert.Zero(t, repo.calls["delete"])

	_, err := c.Edit(1)
	require.NoError(t, err)
	c.RequestRemove(1)
	require.NoError(t, c.ConfirmRemove(ctx, 1))

	state := c.State()
	assert.Len(t, state.Products, 1)
	assert.Nil(t, state.Selected)
	assert.Zero(t, state.PendingRemoval)
}

func TestCatalog_RefreshFailure(t *testing.T) {
	c, repo := seededCatalog(t)
	repo.listErr = errors.New("down")

	require.Error(t, c.Refresh(context.Background()))
	state := c.State()
	assert.Empty(t, state.Products)
	assert.True(t, state.LoadError)
}
