package models

import "time"

// Review is unique per (UserID, ProductID); the index is the authoritative duplicate check.
type Review struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID string    `json:"productId" gorm:"type:varchar(36);not null;uniqueIndex:idx_review_user_product,priority:2;index"`
	UserID    string    `json:"userId" gorm:"type:varchar(36);not null;uniqueIndex:idx_review_user_product,priority:1"`
	Rating    int       `json:"rating" gorm:"not null"`
	Title     string    `json:"title"`
	Content   string    `json:"content" gorm:"not null"`
	Helpful   int       `json:"helpful" gorm:"not null;default:0"`
	Verified  bool      `json:"verified" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type SavedProduct struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"userId" gorm:"type:varchar(36);not null;uniqueIndex:idx_saved_user_product,priority:1"`
	ProductID string    `json:"productId" gorm:"type:varchar(36);not null;uniqueIndex:idx_saved_user_product,priority:2"`
	CreatedAt time.Time `json:"createdAt"`
}
