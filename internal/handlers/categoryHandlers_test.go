package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"categorydesk/internal/models"
	"categorydesk/internal/repositories"
	"categorydesk/internal/services"
)

func newAPIRouter(bare bool) http.Handler {
	service := services.NewCatalogService(repositories.NewMemoryCategoryRepository(models.SampleCategories()))
	h := NewCategoryHandler(service, bare)

	r := mux.NewRouter()
	r.HandleFunc("/api/categories", h.GetCategories).Methods("GET")
	r.HandleFunc("/api/categories", h.AddCategory).Methods("POST")
	r.HandleFunc("/api/categories/{id}", h.GetCategoryByID).Methods("GET")
	r.HandleFunc("/api/categories/{id}", h.UpdateCategory).Methods("PUT")
	r.HandleFunc("/api/categories/{id}", h.DeleteCategory).Methods("DELETE")
	return r
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCategoryAPIEnvelope(t *testing.T) {
	router := newAPIRouter(false)

	rec := serve(router, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data []models.Category `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data, 4)

	rec = serve(router, http.MethodPost, "/api/categories", `{"name":"Science"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Data models.Category `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, int64(5), created.Data.ID)
	assert.Equal(t, "Science", created.Data.Name)
}

func TestCategoryAPIBare(t *testing.T) {
	router := newAPIRouter(true)

	rec := serve(router, http.MethodGet, "/api/categories/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var category models.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &category))
	assert.Equal(t, "Technology", category.Name)
}

func TestCategoryAPIStatusCodes(t *testing.T) {
	router := newAPIRouter(false)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"blank name", http.MethodPost, "/api/categories", `{"name":"  "}`, http.StatusUnprocessableEntity},
		{"bad json", http.MethodPost, "/api/categories", `{`, http.StatusBadRequest},
		{"unknown id", http.MethodGet, "/api/categories/99", "", http.StatusNotFound},
		{"invalid id", http.MethodGet, "/api/categories/abc", "", http.StatusBadRequest},
		{"update", http.MethodPut, "/api/categories/2", `{"name":"Finance"}`, http.StatusOK},
		{"update blank", http.MethodPut, "/api/categories/2", `{"name":""}`, http.StatusUnprocessableEntity},
		{"update unknown", http.MethodPut, "/api/categories/99", `{"name":"x"}`, http.StatusNotFound},
		{"delete", http.MethodDelete, "/api/categories/3", "", http.StatusNoContent},
		{"delete again", http.MethodDelete, "/api/categories/3", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.want, rec.Code)
			if rec.Code >= 400 {
				var body map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestRemoteRepositoryAgainstCategoryAPI(t *testing.T) {
	for _, bare := range []bool{false, true} {
		srv := httptest.NewServer(newAPIRouter(bare))
		repo := repositories.NewRemoteCategoryRepository(srv.URL+"/api", srv.Client())

		categories, err := repo.List(context.Background())
		require.NoError(t, err)
		assert.Len(t, categories, 4)

		created, err := repo.Create(context.Background(), models.CategoryInput{Name: "Science"})
		require.NoError(t, err)
		assert.Equal(t, int64(5), created.ID)

		updated, err := repo.Update(context.Background(), 5, models.CategoryInput{Name: "Physics"})
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, "Physics", updated.Name)

		require.NoError(t, repo.Delete(context.Background(), 5))
		assert.ErrorIs(t, repo.Delete(context.Background(), 5), repositories.ErrNotFound)
		srv.Close()
	}
}
