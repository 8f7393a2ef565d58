package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"categorydesk/internal/models"
	"categorydesk/internal/repositories"
)

// fakeRepo records calls made by the service in live mode.
type fakeRepo struct {
	mu        sync.Mutex
	list      []models.Category
	listErr   error
	failNames map[string]error
	updateErr error
	echo      bool
	echoBlank bool
	nextID    int64
	created   []string
	updated   []int64
	deleted   []int64
	calls     int
}

func newFakeRepo(list ...models.Category) *fakeRepo {
	return &fakeRepo{list: list, nextID: 100, failNames: map[string]error{}}
}

func (f *fakeRepo) List(ctx context.Context) ([]models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Category{}, f.list...), nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id int64) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil, repositories.ErrNotFound
}

func (f *fakeRepo) Create(ctx context.Context, input models.CategoryInput) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.created = append(f.created, input.Name)
	if err := f.failNames[input.Name]; err != nil {
		return nil, err
	}
	f.nextID++
	return &models.Category{ID: f.nextID, Name: input.Name, CreatedAt: "server-time"}, nil
}

func (f *fakeRepo) Update(ctx context.Context, id int64, input models.CategoryInput) (*models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.updated = append(f.updated, id)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if f.echo {
		return &models.Category{ID: id, Name: input.Name, UpdatedAt: "echoed"}, nil
	}
	if f.echoBlank {
		return &models.Category{ID: id, UpdatedAt: "echoed"}, nil
	}
	return nil, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRepo) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func liveService(t *testing.T, repo *fakeRepo) CategoryService {
	t.Helper()
	svc := NewCategoryService(repo)
	notice := svc.Load(context.Background())
	require.True(t, notice.IsZero())
	require.Equal(t, models.ModeLive, svc.Snapshot().Mode)
	return svc
}

func demoService(t *testing.T) CategoryService {
	t.Helper()
	repo := newFakeRepo()
	repo.listErr = &repositories.StatusError{Method: http.MethodGet, StatusCode: http.StatusServiceUnavailable}
	svc := NewCategoryService(repo, WithClock(func() time.Time {
		return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	}))
	svc.Load(context.Background())
	require.Equal(t, models.ModeDemo, svc.Snapshot().Mode)
	return svc
}

func TestLoadUnreachableAPIUsesSampleData(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	svc := NewCategoryService(repositories.NewRemoteCategoryRepository(url, nil))
	notice := svc.Load(context.Background())

	snap := svc.Snapshot()
	assert.Equal(t, models.SampleCategories(), snap.Categories)
	assert.Equal(t, models.ModeDemo, snap.Mode)
	assert.True(t, snap.Demo())
	assert.True(t, snap.Loaded)
	assert.Equal(t, bannerUnreachable, snap.Banner)
	assert.Equal(t, "Demo Mode", notice.Title)
	assert.False(t, notice.Destructive())
}

func TestLoadNonOKStatusUsesSampleData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := NewCategoryService(repositories.NewRemoteCategoryRepository(srv.URL, srv.Client()))
	svc.Load(context.Background())

	snap := svc.Snapshot()
	assert.Equal(t, models.ModeDemo, snap.Mode)
	assert.Equal(t, bannerUnreachable, snap.Banner)
}

func TestLoadMalformedBodyReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	svc := NewCategoryService(repositories.NewRemoteCategoryRepository(srv.URL, srv.Client()))
	notice := svc.Load(context.Background())

	snap := svc.Snapshot()
	assert.Equal(t, models.ModeDemo, snap.Mode)
	assert.Equal(t, models.SampleCategories(), snap.Categories)
	assert.Contains(t, snap.Banner, "API Error:")
	assert.Contains(t, snap.Banner, "Running in demo mode.")
	assert.Equal(t, "Connection Error", notice.Title)
	assert.True(t, notice.Destructive())
}

func TestLoadTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	svc := NewCategoryService(repositories.NewRemoteCategoryRepository(srv.URL, srv.Client()), WithLoadTimeout(50*time.Millisecond))
	svc.Load(context.Background())
	assert.Equal(t, models.ModeDemo, svc.Snapshot().Mode)
}

func TestRetryReturnsToLive(t *testing.T) {
	repo := newFakeRepo(models.Category{ID: 7, Name: "Travel"})
	repo.listErr = errors.New("connection refused")

	svc := NewCategoryService(repo)
	svc.Load(context.Background())
	require.Equal(t, models.ModeDemo, svc.Snapshot().Mode)

	repo.listErr = nil
	notice := svc.Retry(context.Background())

	snap := svc.Snapshot()
	assert.True(t, notice.IsZero())
	assert.Equal(t, models.ModeLive, snap.Mode)
	assert.Empty(t, snap.Banner)
	assert.Equal(t, []models.Category{{ID: 7, Name: "Travel"}}, snap.Categories)
}

func TestCreateRejectsBlankNames(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n"} {
		repo := newFakeRepo(models.Category{ID: 1, Name: "Technology"})
		svc := liveService(t, repo)
		before := repo.callCount()

		created, notice, err := svc.Create(context.Background(), name)
		assert.ErrorIs(t, err, ErrNameRequired)
		assert.Nil(t, created)
		assert.Equal(t, "Category name is required.", notice.Description)
		assert.True(t, notice.Destructive())
		assert.Equal(t, before, repo.callCount(), "no request for %q", name)
		assert.Len(t, svc.Snapshot().Categories, 1)
	}
}

func TestRenameRejectsBlankNames(t *testing.T) {
	repo := newFakeRepo(models.Category{ID: 1, Name: "Technology"})
	svc := liveService(t, repo)

	_, _, err := svc.Rename(context.Background(), 1, "  ")
	assert.ErrorIs(t, err, ErrNameRequired)
	assert.Empty(t, repo.updated)
	assert.Equal(t, "Technology", svc.Snapshot().Categories[0].Name)
}

func TestCreateLiveAppendsServerRecord(t *testing.T) {
	repo := newFakeRepo()
	svc := liveService(t, repo)

	created, notice, err := svc.Create(context.Background(), "  Science  ")
	require.NoError(t, err)
	assert.Equal(t, "Science", created.Name)
	assert.Equal(t, []string{"Science"}, repo.created)
	assert.Equal(t, "Success", notice.Title)
	assert.Equal(t, "Category created successfully.", notice.Description)
	assert.Equal(t, []models.Category{*created}, svc.Snapshot().Categories)
}

func TestCreateInDemoModeMakesNoRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	svc := NewCategoryService(repositories.NewRemoteCategoryRepository(srv.URL, srv.Client()))
	svc.Load(context.Background())
	require.Equal(t, int32(1), hits.Load())

	created, notice, err := svc.Create(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "demo mode must not call the API")
	assert.Equal(t, "Success (Demo)", notice.Title)
	assert.Equal(t, "Category created in demo mode.", notice.Description)

	snap := svc.Snapshot()
	require.Len(t, snap.Categories, 5)
	assert.Equal(t, *created, snap.Categories[4])
	for _, c := range snap.Categories[:4] {
		assert.NotEqual(t, c.ID, created.ID)
	}
}

func TestDemoIDsKeepIncreasing(t *testing.T) {
	svc := demoService(t)
	ctx := context.Background()

	first, _, err := svc.Create(ctx, "One")
	require.NoError(t, err)
	_, err = svc.Delete(ctx, first.ID, Confirmed)
	require.NoError(t, err)
	second, _, err := svc.Create(ctx, "Two")
	require.NoError(t, err)

	assert.Equal(t, int64(5), first.ID)
	assert.Equal(t, int64(6), second.ID)
	assert.Equal(t, "2025-01-02T03:04:05Z", second.CreatedAt)
}

func TestDemoIDsContinueAfterFailedRetry(t *testing.T) {
	svc := demoService(t)
	ctx := context.Background()

	first, _, err := svc.Create(ctx, "One")
	require.NoError(t, err)
	second, _, err := svc.Create(ctx, "Two")
	require.NoError(t, err)

	svc.Retry(ctx)
	require.True(t, svc.Snapshot().Demo())

	third, _, err := svc.Create(ctx, "Three")
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 6, 7}, []int64{first.ID, second.ID, third.ID})
}

func TestRenameLiveKeepsFieldsWhenServerDoesNotEcho(t *testing.T) {
	repo := newFakeRepo(models.Category{ID: 3, Name: "Education", CreatedAt: "2024-01-03"})
	svc := liveService(t, repo)

	updated, notice, err := svc.Rename(context.Background(), 3, " Learning ")
	require.NoError(t, err)
	assert.Equal(t, models.Category{ID: 3, Name: "Learning", CreatedAt: "2024-01-03"}, *updated)
	assert.Equal(t, []int64{3}, repo.updated)
	assert.Equal(t, "Category updated successfully.", notice.Description)
	assert.Equal(t, *updated, svc.Snapshot().Categories[0])
}

func TestRenameLiveUsesEchoedRecord(t *testing.T) {
	repo := newFakeRepo(models.Category{ID: 3, Name: "Education"})
	repo.echo = true
	svc := liveService(t, repo)

	updated, _, err := svc.Rename(context.Background(), 3, "Learning")
	require.NoError(t, err)
	assert.Equal(t, "echoed", updated.UpdatedAt)
}

func TestRenameLiveIgnoresEchoWithoutName(t *testing.T) {
	repo := newFakeRepo(models.Category{ID: 3, Name: "Education", CreatedAt: "2024-01-03"})
	repo.echoBlank = true
	svc := liveService(t, repo)

	updated, _, err := svc.Rename(context.Background(), 3, "Learning")
	require.NoError(t, err)
	assert.Equal(t, models.Category{ID: 3, Name: "Learning", CreatedAt: "2024-01-03", UpdatedAt: "echoed"}, *updated)
	assert.Equal(t, "Learning", svc.Snapshot().Categories[0].Name)
}

func TestRenameLiveAgainstAPIWithPartialEcho(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`[{"id":3,"name":"Education"}]`))
			return
		}
		_, _ = w.Write([]byte(`{"id":3}`))
	}))
	defer srv.Close()

	svc := NewCategoryService(repositories.NewRemoteCategoryRepository(srv.URL, srv.Client()))
	require.True(t, svc.Load(context.Background()).IsZero())

	_, _, err := svc.Rename(context.Background(), 3, "Learning")
	require.NoError(t, err)
	assert.Equal(t, "Learning", svc.Snapshot().Categories[0].Name)
}

func TestRenameDemoStampsUpdatedAt(t *testing.T) {
	svc := demoService(t)

	updated, notice, err := svc.Rename(context.Background(), 2, "Finance")
	require.NoError(t, err)
	assert.Equal(t, "Finance", updated.Name)
	assert.Equal(t, "2024-01-02", updated.CreatedAt)
	assert.Equal(t, "2025-01-02T03:04:05Z", updated.UpdatedAt)
	assert.Equal(t, "Success (Demo)", notice.Title)
}

func TestRenameUnknownID(t *testing.T) {
	svc := demoService(t)
	_, _, err := svc.Rename(context.Background(), 99, "Ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFailedMutationLeavesStateUnchanged(t *testing.T) {
	repo := newFakeRepo(models.Category{ID: 1, Name: "Technology"})
	repo.failNames["Science"] = &repositories.StatusError{Method: http.MethodPost, StatusCode: http.StatusInternalServerError}
	repo.updateErr = errors.New("connection reset")
	svc := liveService(t, repo)
	before := svc.Snapshot()

	_, notice, err := svc.Create(context.Background(), "Science")
	require.Error(t, err)
	assert.Equal(t, "Failed to create category: HTTP error! status: 500", notice.Description)
	assert.True(t, notice.Destructive())

	_, notice, err = svc.Rename(context.Background(), 1, "Tech")
	require.Error(t, err)
	assert.Equal(t, "Failed to update category: connection reset", notice.Description)

	assert.Equal(t, before, svc.Snapshot(), "list and mode stay as they were")
}

func TestDeleteDeclinedLeavesListUnchanged(t *testing.T) {
	repo := newFakeRepo(models.Category{ID: 1, Name: "Technology"}, models.Category{ID: 2, Name: "Business"})
	svc := liveService(t, repo)

	var asked models.Category
	notice, err := svc.Delete(context.Background(), 2, func(c models.Category) bool {
		asked = c
		return false
	})

	assert.ErrorIs(t, err, ErrDeclined)
	assert.True(t, notice.IsZero())
	assert.Equal(t, "Business", asked.Name)
	assert.Empty(t, repo.deleted)
	assert.Len(t, svc.Snapshot().Categories, 2)

	_, err = svc.Delete(context.Background(), 2, nil)
	assert.ErrorIs(t, err, ErrDeclined)
	assert.Empty(t, repo.deleted)
}

func TestDeleteConfirmed(t *testing.T) {
	repo := newFakeRepo(models.Category{ID: 1, Name: "Technology"}, models.Category{ID: 2, Name: "Business"})
	svc := liveService(t, repo)

	notice, err := svc.Delete(context.Background(), 1, Confirmed)
	require.NoError(t, err)
	assert.Equal(t, "Category deleted successfully.", notice.Description)
	assert.Equal(t, []int64{1}, repo.deleted)
	assert.Equal(t, []models.Category{{ID: 2, Name: "Business"}}, svc.Snapshot().Categories)
}

func TestDeleteInDemoMode(t *testing.T) {
	svc := demoService(t)

	notice, err := svc.Delete(context.Background(), 4, Confirmed)
	require.NoError(t, err)
	assert.Equal(t, "Success (Demo)", notice.Title)
	assert.Len(t, svc.Snapshot().Categories, 3)
}

func TestDeleteAbortsWhenRetrySwitchesMode(t *testing.T) {
	var up atomic.Bool
	var deletes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !up.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if r.Method == http.MethodDelete {
			deletes.Add(1)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write([]byte(`[{"id":2,"name":"Business"}]`))
	}))
	defer srv.Close()

	ctx := context.Background()
	svc := NewCategoryService(repositories.NewRemoteCategoryRepository(srv.URL, srv.Client()))
	svc.Load(ctx)
	require.True(t, svc.Snapshot().Demo())

	notice, err := svc.Delete(ctx, 2, func(models.Category) bool {
		up.Store(true)
		svc.Retry(ctx)
		return true
	})
	assert.ErrorIs(t, err, ErrModeChanged)
	assert.True(t, notice.Destructive())
	assert.Equal(t, int32(0), deletes.Load())

	snap := svc.Snapshot()
	assert.Equal(t, models.ModeLive, snap.Mode)
	assert.Equal(t, []models.Category{{ID: 2, Name: "Business"}}, snap.Categories)
}

func TestBulkCreateDedupesInput(t *testing.T) {
	repo := newFakeRepo()
	svc := liveService(t, repo)

	var progress []models.BulkResult
	result, notice, err := svc.BulkCreate(context.Background(), "A\nA\nB\n\n", func(r models.BulkResult) {
		progress = append(progress, r)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, repo.created)
	assert.Equal(t, models.BulkResult{Total: 2, Completed: 2, Failed: []string{}}, result)
	assert.Equal(t, "All 2 categories created successfully.", notice.Description)
	require.Len(t, progress, 2)
	assert.Equal(t, 1, progress[0].Completed)
	assert.Equal(t, 2, progress[1].Completed)
	assert.Len(t, svc.Snapshot().Categories, 2)
}

func TestBulkCreatePartialFailureKeepsSuccesses(t *testing.T) {
	repo := newFakeRepo()
	repo.failNames["Beta"] = errors.New("timeout")
	svc := liveService(t, repo)

	result, notice, err := svc.BulkCreate(context.Background(), "Alpha\nBeta\nGamma", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, repo.created, "sequential, in input order")
	assert.Equal(t, 2, result.Completed)
	assert.Equal(t, []string{"Beta"}, result.Failed)
	assert.Equal(t, "Partial Success", notice.Title)
	assert.Equal(t, "2 categories created, 1 failed.", notice.Description)
	assert.True(t, notice.Destructive())

	names := []string{}
	for _, c := range svc.Snapshot().Categories {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Alpha", "Gamma"}, names)
}

func TestBulkCreateInDemoMode(t *testing.T) {
	svc := demoService(t)

	result, notice, err := svc.BulkCreate(context.Background(), "Music\nSports", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Completed)
	assert.Equal(t, "2 categories created in demo mode.", notice.Description)

	categories := svc.Snapshot().Categories
	require.Len(t, categories, 6)
	assert.Equal(t, int64(5), categories[4].ID)
	assert.Equal(t, int64(6), categories[5].ID)
}

func TestBulkCreateRejectsEmptyInput(t *testing.T) {
	repo := newFakeRepo()
	svc := liveService(t, repo)
	before := repo.callCount()

	_, notice, err := svc.BulkCreate(context.Background(), "\n  \n\t", nil)
	assert.ErrorIs(t, err, ErrNoNames)
	assert.Equal(t, "Please enter at least one category name.", notice.Description)
	assert.Equal(t, before, repo.callCount())
}

func TestParseBulkNames(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"A\nA\nB\n\n", []string{"A", "B"}},
		{"  Tech \r\nTech\nBusiness", []string{"Tech", "Business"}},
		{"a\nA", []string{"a", "A"}},
		{"", nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseBulkNames(tt.raw), "input %q", tt.raw)
	}
}
