package model

// Product represents the product master data
type Product struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"type:varchar(255);not null"`
	Model       string `json:"model" gorm:"type:varchar(255);not null;default:''"`
	ReleaseDate Date   `json:"release_date" gorm:"type:date;not null"`
}
