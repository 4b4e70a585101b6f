package address

import "strings"

// Address is one shipping address stored under users/{uid}/addresses.
type Address struct {
	ID            string `json:"id"`
	UserID        string `json:"userId"`
	ReceiverName  string `json:"receiverName"`
	PhoneNumber   string `json:"phoneNumber"`
	StreetAddress string `json:"streetAddress"`
	City          string `json:"city"`
	District      string `json:"district"`
	Ward          string `json:"ward"`
	IsDefault     bool   `json:"isDefault"`
}

// FullAddress joins the non-empty parts, street first, city last.
func (a Address) FullAddress() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.StreetAddress, a.Ward, a.District, a.City} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// view adds the formatted address to API responses.
type view struct {
	Address
	FullAddress string `json:"fullAddress"`
}

func toView(a Address) view {
	return view{Address: a, FullAddress: a.FullAddress()}
}

func toViews(in []Address) []view {
	out := make([]view, 0, len(in))
	for _, a := range in {
		out = append(out, toView(a))
	}
	return out
}
