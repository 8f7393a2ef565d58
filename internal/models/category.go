package models

import "encoding/json"

type Category struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// CategoryInput is the write payload accepted by the categories API.
type CategoryInput struct {
	Name string `json:"name"`
}

// Envelope matches responses wrapped as {"data": ...}.
type Envelope struct {
	Data json.RawMessage `json:"data"`
}

// SampleCategories returns a fresh copy of the dataset used while the API is unreachable.
func SampleCategories() []Category {
	return []Category{
		{ID: 1, Name: "Technology", CreatedAt: "2024-01-01", UpdatedAt: "2024-01-01"},
		{ID: 2, Name: "Business", CreatedAt: "2024-01-02", UpdatedAt: "2024-01-02"},
		{ID: 3, Name: "Education", CreatedAt: "2024-01-03", UpdatedAt: "2024-01-03"},
		{ID: 4, Name: "Health", CreatedAt: "2024-01-04", UpdatedAt: "2024-01-04"},
	}
}
