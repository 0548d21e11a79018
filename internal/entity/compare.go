package entity

// ComparedItem is one store-price lookup result. Results are ephemeral: they
// exist only for the duration of a comparison and are never persisted.
type ComparedItem struct {
	Name          string  `json:"name"`
	ProductLink   string  `json:"productLink"`
	Price         float64 `json:"price"`
	ImgURL        string  `json:"imgURL"`
	Rating        float64 `json:"rating"`
	ReviewsAmount int     `json:"reviewsAmount"`
}

// BaseComparedItem is the empty sentinel.
var BaseComparedItem = ComparedItem{}
