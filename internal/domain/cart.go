package domain

// CartItem's ID is the menu item id; it is the merge key, so a cart never
// holds two entries for the same dish.
type CartItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Image    string `json:"image"`
	Category string `json:"category"`
}
