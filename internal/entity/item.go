package entity

// Item represents a receipt line item for data transfer between layers.
// StoresChecked is an opaque mapping owned by the backend contract; the
// client round-trips it without interpreting the values.
type Item struct {
	ItemUUID      string             `json:"item_uuid"`
	Receipt       int                `json:"receipt"`
	Name          string             `json:"name"`
	Quantity      int                `json:"quantity"`
	Price         float64            `json:"price"`
	StoresChecked map[string]float64 `json:"stores_checked"`
	LastUpdated   string             `json:"last_updated"`
}

// BaseItem is the "no item selected" sentinel.
var BaseItem = Item{StoresChecked: map[string]float64{}}

// LineTotal is price times quantity. Always recomputed; never cached as
// authoritative.
func (i Item) LineTotal() float64 {
	return i.Price * float64(i.Quantity)
}
