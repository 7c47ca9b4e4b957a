package model

import "time"

// ChainLink represents a node in a supply chain. SupplierID optionally points
// at another link; deleting that link nulls the reference instead of
// cascading. CreationDate refreshes on every save, not just on creation.
type ChainLink struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"type:varchar(255);not null"`
	Dept         float64   `json:"dept" gorm:"type:numeric(15,2);not null;default:0"`
	SupplierID   *uint     `json:"supplier" gorm:"index"`
	CreationDate time.Time `json:"creation_date" gorm:"autoUpdateTime"`
}

// ChainLinkContact is a junction row binding a link to a contact. The
// surrogate key preserves assignment order so membership reads back in the
// order it was submitted.
type ChainLinkContact struct {
	ID          uint `gorm:"primaryKey"`
	ChainLinkID uint `gorm:"index;not null"`
	ContactID   uint `gorm:"index;not null"`
}

// ChainLinkProduct is a junction row binding a link to a product
type ChainLinkProduct struct {
	ID          uint `gorm:"primaryKey"`
	ChainLinkID uint `gorm:"index;not null"`
	ProductID   uint `gorm:"index;not null"`
}
