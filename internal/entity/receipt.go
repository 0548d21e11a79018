package entity

// Receipt represents a receipt for data transfer between layers. Monetary
// fields are computed server-side from the constituent items; the client
// treats them as read-only facts, never as something it can derive.
type Receipt struct {
	ID            int     `json:"id"`
	User          int     `json:"user"`
	ReceiptUUID   string  `json:"receipt_uuid"`
	Name          string  `json:"name"`
	Store         string  `json:"store"`
	Address       string  `json:"address"`
	DatePurchased string  `json:"date_purchased"`
	LastUpdated   string  `json:"last_updated"`
	NumItems      int     `json:"num_items"`
	Total         float64 `json:"total"`
	Subtotal      float64 `json:"subtotal"`
	Tax           float64 `json:"tax"`
	TaxPercent    float64 `json:"taxpercent"`
}

// BaseReceipt is the "no receipt selected" sentinel.
var BaseReceipt = Receipt{}
