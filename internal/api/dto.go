package api

import "github.com/starford/chartboard/internal/models"

// ColumnsResponse lists the dataset's column names in header order.
type ColumnsResponse struct {
	Columns []string `json:"columns" validate:"required"`
}

// CountsResponse is the per-value record count of one column.
type CountsResponse struct {
	Column string         `json:"column" example:"degree_t" validate:"required"`
	Counts []models.Count `json:"counts" validate:"required"`
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status string `json:"status" example:"ok" validate:"required"`
	Rows   *int   `json:"rows,omitempty"`
}
