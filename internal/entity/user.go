package entity

// User represents the authenticated account for data transfer between layers.
type User struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	UserUUID    string `json:"user_uuid"`
	NumReceipts int    `json:"num_receipts"`
}

// BaseUser is the anonymous sentinel. An empty Username means the session is
// unauthenticated.
var BaseUser = User{}

// Authenticated reports whether the user is a real identity rather than the
// anonymous sentinel.
func (u User) Authenticated() bool {
	return u.Username != ""
}

// Figures is the monthly spend / savings summary for the home view.
type Figures struct {
	MonthlySpent float64 `json:"monthlyspent"`
	Savings      float64 `json:"savings"`
}
