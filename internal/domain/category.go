package domain

// Category is a distinct product grouping used for list filtering.
type Category struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
