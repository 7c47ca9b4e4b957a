package model

import "time"

// User represents the user model stored in the database. The password is a
// bcrypt hash and is never serialized.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"type:varchar(150);uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"type:varchar(255)"`
	IsStaff   bool      `json:"is_staff" gorm:"not null;default:false"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
