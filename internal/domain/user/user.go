package user

// Identity is the authenticated shopper a session acts for.
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
}
