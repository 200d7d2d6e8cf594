package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// MenuCategory is the serving window of a menu
type MenuCategory int

const (
	CategoryBreakfast MenuCategory = 1
	CategoryLunch     MenuCategory = 2
	CategorySupper    MenuCategory = 3
)

var categoryNames = map[MenuCategory]string{
	CategoryBreakfast: "BREAKFAST",
	CategoryLunch:     "LUNCH",
	CategorySupper:    "SUPPER",
}

func (c MenuCategory) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

func (c MenuCategory) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("MenuCategory(%d)", int(c))
}

// ParseMenuCategory accepts a category name such as "lunch" or "LUNCH"
func ParseMenuCategory(name string) (MenuCategory, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for c, n := range categoryNames {
		if n == name {
			return c, true
		}
	}
	return 0, false
}

type Meal struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	Cost      float64   `json:"cost" gorm:"not null"`
	ImgPath   string    `json:"img_path"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Menu struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	Category  MenuCategory `json:"category" gorm:"not null"`
	Day       Date         `json:"day" gorm:"type:date;not null;index"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Expired reports whether the menu's day is strictly before today
func (m *Menu) Expired(today Date) bool {
	return m.Day.Before(today)
}

// MenuItem places a meal on a menu with the number of portions left
type MenuItem struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	MenuID    uint      `json:"menu_id" gorm:"not null;uniqueIndex:idx_menu_meal"`
	Menu      *Menu     `json:"menu,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	MealID    uint      `json:"meal_id" gorm:"not null;uniqueIndex:idx_menu_meal"`
	Meal      *Meal     `json:"meal,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const dateLayout = "2006-01-02"

// Date is a calendar day without a time component
type Date struct {
	time.Time
}

// DateOf truncates t to its calendar day
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }

func (d Date) String() string { return d.Format(dateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	parsed, err := ParseDate(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores the day as YYYY-MM-DD so sqlite and postgres compare it the same way
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	case nil:
		*d = Date{}
		return nil
	}
	return fmt.Errorf("cannot scan %T into Date", src)
}

func (d *Date) scanString(s string) error {
	if len(s) >= len(dateLayout) {
		if parsed, err := ParseDate(s[:len(dateLayout)]); err == nil {
			*d = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}
