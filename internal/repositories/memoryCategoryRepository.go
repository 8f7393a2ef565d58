package repositories

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"categorydesk/internal/models"
	"categorydesk/internal/utils"
)

// MemoryCategoryRepository keeps categories in process memory. Identifiers come from a
// counter that only moves forward, so ids are never reused after a delete.
type MemoryCategoryRepository struct {
	mu         sync.Mutex
	categories []models.Category
	nextID     int64
	now        func() time.Time
}

type MemoryOption func(*MemoryCategoryRepository)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) MemoryOption {
	return func(r *MemoryCategoryRepository) {
		r.now = now
	}
}

// WithNextID makes the counter start at id or later, never below the seed.
func WithNextID(id int64) MemoryOption {
	return func(r *MemoryCategoryRepository) {
		if id > r.nextID {
			r.nextID = id
		}
	}
}

func NewMemoryCategoryRepository(seed []models.Category, opts ...MemoryOption) *MemoryCategoryRepository {
	r := &MemoryCategoryRepository{
		categories: append([]models.Category(nil), seed...),
		nextID:     1,
		now:        time.Now,
	}
	for _, c := range seed {
		if c.ID >= r.nextID {
			r.nextID = c.ID + 1
		}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *MemoryCategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	defer observeStore("list", nil)()

	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Category{}, r.categories...), nil
}

func (r *MemoryCategoryRepository) FindByID(ctx context.Context, id int64) (*models.Category, error) {
	var err error
	defer observeStore("findByID", &err)()

	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		err = ErrNotFound
		return nil, err
	}
	category := r.categories[i]
	return &category, nil
}

func (r *MemoryCategoryRepository) Create(ctx context.Context, input models.CategoryInput) (*models.Category, error) {
	defer observeStore("create", nil)()

	r.mu.Lock()
	defer r.mu.Unlock()
	stamp := r.timestamp()
	category := models.Category{
		ID:        r.nextID,
		Name:      strings.TrimSpace(input.Name),
		CreatedAt: stamp,
		UpdatedAt: stamp,
	}
	r.nextID++
	r.categories = append(r.categories, category)
	return &category, nil
}

func (r *MemoryCategoryRepository) Update(ctx context.Context, id int64, input models.CategoryInput) (*models.Category, error) {
	var err error
	defer observeStore("update", &err)()

	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		err = ErrNotFound
		return nil, err
	}
	r.categories[i].Name = strings.TrimSpace(input.Name)
	r.categories[i].UpdatedAt = r.timestamp()
	category := r.categories[i]
	return &category, nil
}

func (r *MemoryCategoryRepository) Delete(ctx context.Context, id int64) error {
	var err error
	defer observeStore("delete", &err)()

	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		err = ErrNotFound
		return err
	}
	r.categories = append(r.categories[:i], r.categories[i+1:]...)
	return nil
}

// NextID reports the identifier the next Create will assign.
func (r *MemoryCategoryRepository) NextID() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nextID
}

func (r *MemoryCategoryRepository) indexOf(id int64) int {
	for i, c := range r.categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (r *MemoryCategoryRepository) timestamp() string {
	return r.now().UTC().Format(time.RFC3339)
}

// observeStore starts a timer; the returned func records duration and, when *errp is
// set, the failure.
func observeStore(queryType string, errp *error) func() {
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		status := "success"
		if errp != nil && *errp != nil {
			status = "error"
			utils.StoreQueryErrorsTotal.WithLabelValues(queryType).Inc()
		}
		utils.StoreQueryDurationSeconds.WithLabelValues(queryType, status).Observe(v)
	}))
	return func() { timer.ObserveDuration() }
}
