package model

import "time"

// Category is a user-owned record with a name, item count and optional image path.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	ItemCount int       `gorm:"default:0" json:"itemCount"`
	Image     string    `gorm:"default:''" json:"image"`
	CreatedBy uint      `gorm:"not null;index" json:"-"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"-"`
	Owner     *User     `gorm:"foreignKey:CreatedBy" json:"-"`
}

// NewCategory carries the fields of a category to insert.
type NewCategory struct {
	Name      string
	ItemCount int
	Image     string
	CreatedBy uint
}

// CategoryUpdate is a partial update. Name is always applied; nil fields keep
// their stored value.
type CategoryUpdate struct {
	Name      string
	ItemCount *int
	Image     *string
}
