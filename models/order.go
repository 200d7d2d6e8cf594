package models

import "time"

type Order struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Quantity   int       `json:"quantity" gorm:"not null;default:1"`
	MenuItemID uint      `json:"menu_item_id" gorm:"not null;index"`
	MenuItem   *MenuItem `json:"menu_item,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	UserID     uint      `json:"user_id" gorm:"not null;index"`
	User       *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Notification struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Title     string    `json:"title" gorm:"not null"`
	Message   string    `json:"message" gorm:"not null"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	User      *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// All lists every model in migration order
func All() []any {
	return []any{
		&User{},
		&Blacklist{},
		&PasswordReset{},
		&Meal{},
		&Menu{},
		&MenuItem{},
		&Order{},
		&Notification{},
	}
}
