package domain

// Category is a gallery filter facet derived from product categories.
type Category struct {
	Name     string `json:"name"`
	Products int    `json:"products"`
}
