package models

import "time"

// Review is one archived code-review run belonging to a user. Append-only;
// Result holds the normalized review serialized as JSON.
type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	Code      string    `gorm:"type:text;not null" json:"code"`
	Language  string    `gorm:"size:32;not null" json:"language"`
	Result    string    `gorm:"type:text;not null" json:"reviewResult"`
}
