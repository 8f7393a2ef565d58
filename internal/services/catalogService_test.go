package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"categorydesk/internal/models"
	"categorydesk/internal/repositories"
)

func TestCatalogServiceCRUD(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalogService(repositories.NewMemoryCategoryRepository(models.SampleCategories()))

	created, err := svc.AddCategory(ctx, models.CategoryInput{Name: " Science "})
	require.NoError(t, err)
	assert.Equal(t, int64(5), created.ID)
	assert.Equal(t, "Science", created.Name)

	found, err := svc.GetCategoryByID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, *created, *found)

	updated, err := svc.UpdateCategory(ctx, 5, models.CategoryInput{Name: "Physics"})
	require.NoError(t, err)
	assert.Equal(t, "Physics", updated.Name)

	require.NoError(t, svc.DeleteCategory(ctx, 5))
	categories, err := svc.GetCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 4)
}

func TestCatalogServiceValidationAndNotFound(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalogService(repositories.NewMemoryCategoryRepository(nil))

	_, err := svc.AddCategory(ctx, models.CategoryInput{Name: "   "})
	assert.ErrorIs(t, err, ErrNameRequired)
	_, err = svc.UpdateCategory(ctx, 1, models.CategoryInput{})
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = svc.GetCategoryByID(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.UpdateCategory(ctx, 1, models.CategoryInput{Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.DeleteCategory(ctx, 1), ErrNotFound)
}
