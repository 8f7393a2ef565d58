package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"categorydesk/internal/models"
	"categorydesk/internal/repositories"
)

// CatalogService is the server side of the categories API, as served by the stub API.
type CatalogService interface {
	AddCategory(ctx context.Context, input models.CategoryInput) (*models.Category, error)
	GetCategories(ctx context.Context) ([]models.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*models.Category, error)
	UpdateCategory(ctx context.Context, id int64, input models.CategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

type catalogServiceImpl struct {
	categoryRepo repositories.CategoryRepository
}

func NewCatalogService(categoryRepo repositories.CategoryRepository) CatalogService {
	return &catalogServiceImpl{categoryRepo: categoryRepo}
}

func (s *catalogServiceImpl) AddCategory(ctx context.Context, input models.CategoryInput) (*models.Category, error) {
	log.Debug().Str("categoryName", input.Name).Msg("Attempting to add category")
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		log.Warn().Msg("Rejected category without a name")
		return nil, ErrNameRequired
	}

	created, err := s.categoryRepo.Create(ctx, input)
	if err != nil {
		log.Error().Err(err).Str("category_name", input.Name).Msg("Failed to insert category")
		return nil, err
	}
	log.Info().Int64("categoryID", created.ID).Str("categoryName", created.Name).Msg("Category added successfully")
	return created, nil
}

func (s *catalogServiceImpl) GetCategories(ctx context.Context) ([]models.Category, error) {
	log.Debug().Msg("Attempting to retrieve categories")
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Error finding categories")
		return nil, err
	}
	log.Debug().Int("count", len(categories)).Msg("Successfully retrieved categories")
	return categories, nil
}

func (s *catalogServiceImpl) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	log.Debug().Int64("categoryID", id).Msg("Attempting to retrieve category by ID")
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Warn().Int64("categoryID", id).Msg("Category not found")
			return nil, ErrNotFound
		}
		log.Error().Err(err).Int64("category_id", id).Msg("Error finding category by ID")
		return nil, err
	}
	return category, nil
}

func (s *catalogServiceImpl) UpdateCategory(ctx context.Context, id int64, input models.CategoryInput) (*models.Category, error) {
	log.Debug().Int64("categoryID", id).Str("categoryName", input.Name).Msg("Attempting to update category")
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		log.Warn().Int64("categoryID", id).Msg("Rejected category update without a name")
		return nil, ErrNameRequired
	}

	updated, err := s.categoryRepo.Update(ctx, id, input)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Warn().Int64("categoryID", id).Msg("Category not found for update")
			return nil, ErrNotFound
		}
		log.Error().Err(err).Int64("category_id", id).Msg("Failed to update category")
		return nil, err
	}
	log.Info().Int64("categoryID", id).Msg("Category updated successfully")
	return updated, nil
}

func (s *catalogServiceImpl) DeleteCategory(ctx context.Context, id int64) error {
	log.Debug().Int64("categoryID", id).Msg("Attempting to delete category")
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Warn().Int64("categoryID", id).Msg("Category not found for delete")
			return ErrNotFound
		}
		log.Error().Err(err).Int64("category_id", id).Msg("Failed to delete category")
		return err
	}
	log.Info().Int64("categoryID", id).Msg("Category deleted successfully")
	return nil
}
