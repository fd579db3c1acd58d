package models

// ErrorResponse is the envelope for failed API requests.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// ListResponse is the envelope for paginated collections.
type ListResponse[T any] struct {
	Success bool `json:"success"`
	Items   []T  `json:"items"`
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	Total   int  `json:"total"`
}

// ItemResponse is the envelope for single resources.
type ItemResponse[T any] struct {
	Success bool `json:"success"`
	Item    T    `json:"item"`
}

// PostContentResponse is the response for GET /api/v1/posts/:id with a
// format parameter; Content holds the body rendered in that format.
type PostContentResponse struct {
	Success bool   `json:"success"`
	Item    Post   `json:"item"`
	Format  string `json:"format"`
	Content string `json:"content"`
}

// PoolStats is a snapshot of browser page-pool utilisation.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Version   string    `json:"version"`
}
