package models

// Page is the pagination envelope the authority returns for list endpoints.
type Page[T any] struct {
	Content          []T  `json:"content"`
	TotalElements    int  `json:"totalElements"`
	TotalPages       int  `json:"totalPages"`
	Size             int  `json:"size"`
	Number           int  `json:"number"`
	NumberOfElements int  `json:"numberOfElements"`
	First            bool `json:"first"`
	Last             bool `json:"last"`
	Empty            bool `json:"empty"`
}

// NewPage slices items for the requested zero-based page and fills in the
// envelope bookkeeping.
func NewPage[T any](items []T, number, size int) Page[T] {
	if size <= 0 {
		size = 10
	}
	if number < 0 {
		number = 0
	}
	total := len(items)
	totalPages := (total + size - 1) / size
	start := number * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	content := items[start:end]
	return Page[T]{
		Content:          content,
		TotalElements:    total,
		TotalPages:       totalPages,
		Size:             size,
		Number:           number,
		NumberOfElements: len(content),
		First:            number == 0,
		Last:             number >= totalPages-1,
		Empty:            len(content) == 0,
	}
}
