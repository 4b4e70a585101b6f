package banner

// BannerItem is the public DTO returned by the banner API.
type BannerItem struct {
	ID       string `json:"bannerId"`
	ImageURL string `json:"imageUrl"`
	Title    string `json:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`
	Link     string `json:"link,omitempty"`
	Ord      int    `json:"ord"`
}

// SampleBanners is the home carousel used by the dev seed.
func SampleBanners() []BannerItem {
	return []BannerItem{
		{ID: "sale", ImageURL: "/images/banners/sale.jpg", Title: "Super Sale Today!", Subtitle: "Up to 70% off everything", Ord: 3},
		{ID: "free-shipping", ImageURL: "/images/banners/shipping.jpg", Title: "Free shipping", Subtitle: "On orders from 99,000", Ord: 2},
		{ID: "new-arrivals", ImageURL: "/images/banners/new.jpg", Title: "New arrivals", Subtitle: "Discover the autumn collection", Ord: 1},
	}
}
