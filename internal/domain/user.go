package domain

import "time"

// User is a registered storefront customer.
type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Image        string    `json:"image,omitempty"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	District     string    `json:"district"`
	Pincode      string    `json:"pincode"`
	Address      string    `json:"address"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ShippingAddress formats the profile address the way checkout submits it.
func (u User) ShippingAddress() string {
	return u.Address + ", " + u.City + ", " + u.District + ", " + u.State + " - " + u.Pincode
}
