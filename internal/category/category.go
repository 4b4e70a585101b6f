package category

// Category is the public DTO returned by the category API.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ImageURL    string `json:"imageUrl"`
	Description string `json:"description,omitempty"`
}

// SampleCategories matches the product samples used for seeding.
func SampleCategories() []Category {
	return []Category{
		{ID: "electronics", Name: "Electronics", ImageURL: "/images/categories/electronics.png"},
		{ID: "fashion", Name: "Fashion", ImageURL: "/images/categories/fashion.png"},
		{ID: "home", Name: "Home & Living", ImageURL: "/images/categories/home.png"},
	}
}
