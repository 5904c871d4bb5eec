package models

const (
	DefaultPageSize    = 10
	MaxOrderPageSize   = 50
	MaxProductPageSize = 100
)

// PageRequest is a normalized page selector. Out of range values fall back to
// page 1 and DefaultPageSize.
type PageRequest struct {
	Page     int
	PageSize int
}

func NewPageRequest(page, pageSize, maxPageSize int) PageRequest {
	if page < 1 {
		page = 1
	}

	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = DefaultPageSize
	}

	return PageRequest{Page: page, PageSize: pageSize}
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type PaginatedResponse struct {
	Data       any `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

func NewPaginatedResponse(data any, total int, p PageRequest) PaginatedResponse {
	totalPages := 0
	if p.PageSize > 0 {
		totalPages = (total + p.PageSize - 1) / p.PageSize
	}

	return PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages,
	}
}
