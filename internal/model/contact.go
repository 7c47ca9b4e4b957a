package model

import "fmt"

// Contact represents a supply chain contact stored in the database.
// Optional address fields are non-null with empty-string defaults so the
// display string is always well formed.
type Contact struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Email       string `json:"email" gorm:"type:varchar(255);not null"`
	Country     string `json:"country" gorm:"type:varchar(100);not null;default:''"`
	City        string `json:"city" gorm:"type:varchar(100);not null;default:''"`
	Street      string `json:"street" gorm:"type:varchar(100);not null;default:''"`
	HouseNumber string `json:"house_number" gorm:"type:varchar(10);not null;default:''"`
}

// Address returns the contact rendered as a single display string
func (c Contact) Address() string {
	return fmt.Sprintf("%s: %s, %s, %s, %s", c.Email, c.Country, c.City, c.Street, c.HouseNumber)
}
