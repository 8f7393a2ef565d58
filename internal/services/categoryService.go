package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"categorydesk/internal/metrics"
	"categorydesk/internal/models"
	"categorydesk/internal/repositories"
)

var (
	ErrNameRequired = errors.New("category name is required")
	ErrNoNames      = errors.New("at least one category name is required")
	ErrDeclined     = errors.New("deletion was not confirmed")
	ErrNotFound     = errors.New("category not found")
	ErrModeChanged  = errors.New("connection mode changed")
)

const (
	bannerUnreachable = "Cannot connect to the categories API. Running in demo mode with sample data."
)

// ConfirmFunc is asked before a category is deleted; returning false cancels the deletion.
type ConfirmFunc func(category models.Category) bool

// Confirmed approves every deletion. Use it when the prompt was already answered.
func Confirmed(models.Category) bool { return true }

// Snapshot is a copy of a workspace's state, safe to render.
type Snapshot struct {
	Categories []models.Category
	Mode       models.Mode
	Banner     string
	Loaded     bool
}

func (s Snapshot) Demo() bool {
	return s.Mode == models.ModeDemo
}

// CategoryService owns one in-memory category list and decides, per call, whether to talk
// to the remote API (live mode) or to the local sample dataset (demo mode).
type CategoryService interface {
	Load(ctx context.Context) models.Notice
	Retry(ctx context.Context) models.Notice
	Snapshot() Snapshot
	Create(ctx context.Context, name string) (*models.Category, models.Notice, error)
	Rename(ctx context.Context, id int64, name string) (*models.Category, models.Notice, error)
	Delete(ctx context.Context, id int64, confirm ConfirmFunc) (models.Notice, error)
	BulkCreate(ctx context.Context, raw string, onProgress func(models.BulkResult)) (models.BulkResult, models.Notice, error)
}

type categoryServiceImpl struct {
	mu          sync.Mutex
	remote      repositories.CategoryRepository
	demo        *repositories.MemoryCategoryRepository
	loadTimeout time.Duration
	clock       func() time.Time

	mode       models.Mode
	categories []models.Category
	banner     string
	loaded     bool
	demoNextID int64
}

type Option func(*categoryServiceImpl)

// WithLoadTimeout bounds the initial fetch. Defaults to five seconds.
func WithLoadTimeout(d time.Duration) Option {
	return func(s *categoryServiceImpl) {
		if d > 0 {
			s.loadTimeout = d
		}
	}
}

// WithClock sets the timestamp source for demo records.
func WithClock(now func() time.Time) Option {
	return func(s *categoryServiceImpl) {
		s.clock = now
	}
}

// NewCategoryService creates a new CategoryService in live mode. Call Load before use.
func NewCategoryService(remote repositories.CategoryRepository, opts ...Option) CategoryService {
	s := &categoryServiceImpl{
		remote:      remote,
		loadTimeout: 5 * time.Second,
		clock:       time.Now,
		mode:        models.ModeLive,
		categories:  []models.Category{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *categoryServiceImpl) Load(ctx context.Context) models.Notice {
	log.Debug().Msg("Attempting to load categories")

	s.mu.Lock()
	defer s.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	defer cancel()

	categories, err := s.remote.List(fetchCtx)
	s.loaded = true
	if err == nil {
		s.mode = models.ModeLive
		s.keepDemoCounter()
		s.demo = nil
		s.banner = ""
		s.categories = categories
		log.Info().Int("count", len(categories)).Msg("Categories loaded from API")
		return models.Notice{}
	}

	s.enterDemoMode()
	if errors.Is(err, repositories.ErrMalformedResponse) {
		metrics.FallbackActivationsTotal.WithLabelValues("malformed").Inc()
		log.Warn().Err(err).Msg("Categories API answered with an unreadable body, switching to demo mode")
		s.banner = fmt.Sprintf("API Error: %s. Running in demo mode.", err)
		return models.Notice{
			Title:       "Connection Error",
			Description: "Switched to demo mode. Check your categories API configuration.",
			Variant:     models.VariantDestructive,
		}
	}

	metrics.FallbackActivationsTotal.WithLabelValues("unreachable").Inc()
	log.Warn().Err(err).Msg("Categories API is unreachable, switching to demo mode")
	s.banner = bannerUnreachable
	return models.Notice{
		Title:       "Demo Mode",
		Description: "Using sample data. Set API_URL to connect to real data.",
		Variant:     models.VariantDefault,
	}
}

func (s *categoryServiceImpl) Retry(ctx context.Context) models.Notice {
	log.Info().Msg("Retrying categories API connection")
	return s.Load(ctx)
}

func (s *categoryServiceImpl) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Categories: append([]models.Category{}, s.categories...),
		Mode:       s.mode,
		Banner:     s.banner,
		Loaded:     s.loaded,
	}
}

func (s *categoryServiceImpl) Create(ctx context.Context, name string) (*models.Category, models.Notice, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, s.reject("create"), ErrNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log.Debug().Str("category_name", name).Str("mode", string(s.mode)).Msg("Attempting to add category")
	created, err := s.backend().Create(ctx, models.CategoryInput{Name: name})
	if err != nil {
		log.Error().Err(err).Str("category_name", name).Msg("Failed to create category")
		metrics.CategoryOperationsTotal.WithLabelValues("create", string(s.mode), "failed").Inc()
		return nil, failureNotice("create", err), err
	}

	s.categories = append(s.categories, *created)
	metrics.CategoryOperationsTotal.WithLabelValues("create", string(s.mode), "success").Inc()
	log.Info().Int64("category_id", created.ID).Str("category_name", created.Name).Str("mode", string(s.mode)).Msg("Category added successfully")
	return created, s.successNotice("Category created successfully.", "Category created in demo mode."), nil
}

func (s *categoryServiceImpl) Rename(ctx context.Context, id int64, name string) (*models.Category, models.Notice, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, s.reject("update"), ErrNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		log.Warn().Int64("category_id", id).Msg("Category not found for update")
		return nil, notFoundNotice(), ErrNotFound
	}

	log.Debug().Int64("category_id", id).Str("category_name", name).Str("mode", string(s.mode)).Msg("Attempting to update category")
	updated, err := s.backend().Update(ctx, id, models.CategoryInput{Name: name})
	if err != nil {
		log.Error().Err(err).Int64("category_id", id).Msg("Failed to update category")
		metrics.CategoryOperationsTotal.WithLabelValues("update", string(s.mode), "failed").Inc()
		return nil, failureNotice("update", err), err
	}

	updated = mergeRename(s.categories[i], name, updated)
	s.categories[i] = *updated

	metrics.CategoryOperationsTotal.WithLabelValues("update", string(s.mode), "success").Inc()
	log.Info().Int64("category_id", id).Str("mode", string(s.mode)).Msg("Category updated successfully")
	return updated, s.successNotice("Category updated successfully.", "Category updated in demo mode."), nil
}

func (s *categoryServiceImpl) Delete(ctx context.Context, id int64, confirm ConfirmFunc) (models.Notice, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	var target models.Category
	if i >= 0 {
		target = s.categories[i]
	}
	mode, demo := s.mode, s.demo
	s.mu.Unlock()

	if i < 0 {
		log.Warn().Int64("category_id", id).Msg("Category not found for delete")
		return notFoundNotice(), ErrNotFound
	}

	// The prompt may block, so it is asked without holding the workspace lock.
	if confirm == nil || !confirm(target) {
		log.Debug().Int64("category_id", id).Msg("Category deletion declined")
		metrics.CategoryOperationsTotal.WithLabelValues("delete", string(s.Snapshot().Mode), "declined").Inc()
		return models.Notice{}, ErrDeclined
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A Retry may have switched the workspace while the prompt was open. The answer was
	// given for the old data, so nothing is sent to the new backend.
	if s.mode != mode || s.demo != demo {
		log.Warn().Int64("category_id", id).Str("from", string(mode)).Str("to", string(s.mode)).Msg("Connection mode changed during delete confirmation")
		metrics.CategoryOperationsTotal.WithLabelValues("delete", string(mode), "aborted").Inc()
		return models.Notice{
			Title:       "Error",
			Description: "The connection changed while confirming. Nothing was deleted.",
			Variant:     models.VariantDestructive,
		}, ErrModeChanged
	}

	log.Debug().Int64("category_id", id).Str("mode", string(s.mode)).Msg("Attempting to delete category")
	if err := s.backend().Delete(ctx, id); err != nil {
		log.Error().Err(err).Int64("category_id", id).Msg("Failed to delete category")
		metrics.CategoryOperationsTotal.WithLabelValues("delete", string(s.mode), "failed").Inc()
		return failureNotice("delete", err), err
	}

	if i := s.indexOf(id); i >= 0 {
		s.categories = append(s.categories[:i], s.categories[i+1:]...)
	}
	metrics.CategoryOperationsTotal.WithLabelValues("delete", string(s.mode), "success").Inc()
	log.Info().Int64("category_id", id).Str("mode", string(s.mode)).Msg("Category deleted successfully")
	return s.successNotice("Category deleted successfully.", "Category deleted in demo mode."), nil
}

func (s *categoryServiceImpl) BulkCreate(ctx context.Context, raw string, onProgress func(models.BulkResult)) (models.BulkResult, models.Notice, error) {
	names := ParseBulkNames(raw)
	if len(names) == 0 {
		log.Warn().Msg("Bulk create rejected: no names")
		return models.BulkResult{}, models.Notice{
			Title:       "Error",
			Description: "Please enter at least one category name.",
			Variant:     models.VariantDestructive,
		}, ErrNoNames
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mode := string(s.mode)
	result := models.BulkResult{Total: len(names), Failed: []string{}}
	log.Debug().Int("count", len(names)).Str("mode", mode).Msg("Attempting bulk category creation")

	// One request at a time: N names cost N sequential round trips.
	for _, name := range names {
		created, err := s.backend().Create(ctx, models.CategoryInput{Name: name})
		if err != nil {
			log.Error().Err(err).Str("category_name", name).Msg("Failed to create category during bulk creation")
			result.Failed = append(result.Failed, name)
			metrics.BulkItemsTotal.WithLabelValues(mode, "failed").Inc()
		} else {
			s.categories = append(s.categories, *created)
			result.Completed++
			metrics.BulkItemsTotal.WithLabelValues(mode, "success").Inc()
		}
		if onProgress != nil {
			onProgress(copyResult(result))
		}
	}

	log.Info().Int("completed", result.Completed).Int("failed", len(result.Failed)).Str("mode", mode).Msg("Bulk category creation finished")

	switch {
	case s.mode == models.ModeDemo:
		return result, models.Notice{
			Title:       "Success (Demo)",
			Description: fmt.Sprintf("%d categories created in demo mode.", result.Completed),
			Variant:     models.VariantDefault,
		}, nil
	case len(result.Failed) == 0:
		return result, models.Notice{
			Title:       "Success",
			Description: fmt.Sprintf("All %d categories created successfully.", result.Completed),
			Variant:     models.VariantDefault,
		}, nil
	default:
		return result, models.Notice{
			Title:       "Partial Success",
			Description: fmt.Sprintf("%d categories created, %d failed.", result.Completed, len(result.Failed)),
			Variant:     models.VariantDestructive,
		}, nil
	}
}

// ParseBulkNames splits newline-separated input, trims each line, and drops blank lines
// and exact duplicates while keeping first-seen order.
func ParseBulkNames(raw string) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, line := range strings.Split(raw, "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// enterDemoMode swaps in a fresh copy of the sample dataset. Demo ids continue from the
// previous demo session. Caller holds s.mu.
func (s *categoryServiceImpl) enterDemoMode() {
	s.keepDemoCounter()
	s.mode = models.ModeDemo
	s.demo = repositories.NewMemoryCategoryRepository(
		models.SampleCategories(),
		repositories.WithClock(s.clock),
		repositories.WithNextID(s.demoNextID),
	)
	s.categories = models.SampleCategories()
}

// keepDemoCounter remembers where the demo id counter stopped. Caller holds s.mu.
func (s *categoryServiceImpl) keepDemoCounter() {
	if s.demo != nil {
		s.demoNextID = max(s.demoNextID, s.demo.NextID())
	}
}

// backend picks the repository for the current mode. Caller holds s.mu.
func (s *categoryServiceImpl) backend() repositories.CategoryRepository {
	if s.mode == models.ModeDemo && s.demo != nil {
		return s.demo
	}
	return s.remote
}

func (s *categoryServiceImpl) indexOf(id int64) int {
	for i, c := range s.categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (s *categoryServiceImpl) reject(operation string) models.Notice {
	log.Warn().Str("operation", operation).Msg("Category name is required")
	metrics.CategoryOperationsTotal.WithLabelValues(operation, string(s.Snapshot().Mode), "rejected").Inc()
	return models.Notice{
		Title:       "Error",
		Description: "Category name is required.",
		Variant:     models.VariantDestructive,
	}
}

// successNotice tags demo-mode messages. Caller holds s.mu.
func (s *categoryServiceImpl) successNotice(live, demo string) models.Notice {
	if s.mode == models.ModeDemo {
		return models.Notice{Title: "Success (Demo)", Description: demo, Variant: models.VariantDefault}
	}
	return models.Notice{Title: "Success", Description: live, Variant: models.VariantDefault}
}

// mergeRename applies a rename to the local record. An echoed record is used only when it
// carries a name; otherwise just the name (and any echoed updated_at) changes.
func mergeRename(current models.Category, name string, echoed *models.Category) *models.Category {
	if echoed != nil && echoed.ID == current.ID && strings.TrimSpace(echoed.Name) != "" {
		return echoed
	}
	current.Name = name
	if echoed != nil && echoed.UpdatedAt != "" {
		current.UpdatedAt = echoed.UpdatedAt
	}
	return &current
}

func failureNotice(verb string, err error) models.Notice {
	return models.Notice{
		Title:       "Error",
		Description: fmt.Sprintf("Failed to %s category: %s", verb, err),
		Variant:     models.VariantDestructive,
	}
}

func notFoundNotice() models.Notice {
	return models.Notice{
		Title:       "Error",
		Description: "Category not found.",
		Variant:     models.VariantDestructive,
	}
}

func copyResult(r models.BulkResult) models.BulkResult {
	r.Failed = append([]string{}, r.Failed...)
	return r
}
