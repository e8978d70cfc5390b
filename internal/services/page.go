package services

import "math"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is a zero-based page request
type Page struct {
	Number int
	Size   int
}

// NewPage clamps raw query values. maxSize <= 0 uses MaxPageSize.
// Numbers past the largest representable offset are pulled back to it.
func NewPage(number, size, maxSize int) Page {
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}
	if number < 0 {
		number = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > maxSize {
		size = maxSize
	}
	// Offset must not overflow
	if number > math.MaxInt/size {
		number = math.MaxInt / size
	}
	return Page{Number: number, Size: size}
}

// clamp re-applies NewPage with the service's configured maximum
func (p Page) clamp(maxSize int) Page {
	return NewPage(p.Number, p.Size, maxSize)
}

func (p Page) Offset() int {
	return p.Number * p.Size
}

// PageResponse is the paged envelope returned by list endpoints
type PageResponse[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
}

func newPageResponse[T any](content []T, total int64, p Page) *PageResponse[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if p.Size > 0 {
		totalPages = int((total + int64(p.Size) - 1) / int64(p.Size))
	}
	return &PageResponse[T]{
		Content:       content,
		TotalElements: total,
		TotalPages:    totalPages,
		Page:          p.Number,
		Size:          p.Size,
	}
}
