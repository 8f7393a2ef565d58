package repositories

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"categorydesk/internal/models"
)

// CategoryRepository is the storage behind a category workspace: the remote REST API in
// live mode, an in-memory store in demo mode and inside the stub API.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id int64) (*models.Category, error)
	Create(ctx context.Context, input models.CategoryInput) (*models.Category, error)
	// Update returns nil without error when the backend acknowledges the change
	// without echoing the category back.
	Update(ctx context.Context, id int64, input models.CategoryInput) (*models.Category, error)
	Delete(ctx context.Context, id int64) error
}

var (
	ErrNotFound          = errors.New("category not found")
	ErrMalformedResponse = errors.New("malformed response")
)

// StatusError reports a non-2xx answer from the categories API.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}
