package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"categorydesk/internal/models"
	"categorydesk/internal/utils"
)

type remoteCategoryRepository struct {
	baseURL string
	client  *http.Client
}

// NewRemoteCategoryRepository talks to {baseURL}/categories. A nil client means http.DefaultClient.
func NewRemoteCategoryRepository(baseURL string, client *http.Client) CategoryRepository {
	if client == nil {
		client = http.DefaultClient
	}
	return &remoteCategoryRepository{baseURL: baseURL, client: client}
}

func (r *remoteCategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.do(ctx, "list", http.MethodGet, "/categories", nil, &categories); err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

func (r *remoteCategoryRepository) FindByID(ctx context.Context, id int64) (*models.Category, error) {
	var category models.Category
	if err := r.do(ctx, "findByID", http.MethodGet, categoryPath(id), nil, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *remoteCategoryRepository) Create(ctx context.Context, input models.CategoryInput) (*models.Category, error) {
	var category models.Category
	if err := r.do(ctx, "create", http.MethodPost, "/categories", input, &category); err != nil {
		return nil, err
	}
	if category.ID == 0 || category.Name == "" {
		utils.APICallErrorsTotal.WithLabelValues("create").Inc()
		return nil, fmt.Errorf("%w: created category has no id or name", ErrMalformedResponse)
	}
	return &category, nil
}

func (r *remoteCategoryRepository) Update(ctx context.Context, id int64, input models.CategoryInput) (*models.Category, error) {
	var raw json.RawMessage
	if err := r.do(ctx, "update", http.MethodPut, categoryPath(id), input, &raw); err != nil {
		return nil, err
	}

	// The API may answer with the updated record, an envelope, or nothing at all.
	// A partial echo without a name is treated as no echo.
	var category models.Category
	if len(bytes.TrimSpace(raw)) == 0 || decodeEnvelope(raw, &category) != nil || category.ID != id {
		return nil, nil
	}
	if strings.TrimSpace(category.Name) == "" {
		return nil, nil
	}
	return &category, nil
}

func (r *remoteCategoryRepository) Delete(ctx context.Context, id int64) error {
	return r.do(ctx, "delete", http.MethodDelete, categoryPath(id), nil, nil)
}

func (r *remoteCategoryRepository) do(ctx context.Context, operation, method, path string, body, out any) error {
	status := "success"
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.APICallDurationSeconds.WithLabelValues(operation, status).Observe(v)
	}))
	defer timer.ObserveDuration()

	fail := func(err error) error {
		status = "error"
		utils.APICallErrorsTotal.WithLabelValues(operation).Inc()
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fail(fmt.Errorf("encode %s request: %w", operation, err))
		}
		reader = bytes.NewReader(payload)
	}

	url := r.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fail(fmt.Errorf("build %s request: %w", operation, err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fail(fmt.Errorf("%s %s: %w", method, url, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		log.Debug().Str("method", method).Str("url", url).Int("status", resp.StatusCode).Msg("Categories API returned non-OK status")
		return fail(&StatusError{Method: method, URL: url, StatusCode: resp.StatusCode})
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(fmt.Errorf("read %s response: %w", operation, err))
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = data
		return nil
	}
	if err := decodeEnvelope(data, out); err != nil {
		return fail(err)
	}
	return nil
}

// decodeEnvelope accepts both a bare JSON value and one wrapped as {"data": ...}.
func decodeEnvelope(data []byte, out any) error {
	payload := bytes.TrimSpace(data)
	if len(payload) > 0 && payload[0] == '{' {
		var env models.Envelope
		if err := json.Unmarshal(payload, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
			payload = env.Data
		}
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func categoryPath(id int64) string {
	return "/categories/" + strconv.FormatInt(id, 10)
}
