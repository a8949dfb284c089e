package models

import (
	"time"
)

// BookView records one user opening a book. Views are the personalization
// and trending signal.
type BookView struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	BookID   int64     `gorm:"index:idx_view_book" json:"book_id"`
	UserID   int64     `gorm:"index:idx_view_user" json:"user_id"`
	ViewedAt time.Time `gorm:"index:idx_viewed_at" json:"viewed_at"`
}

// Rating is a user's 1-5 score for a book; one row per (book, user)
type Rating struct {
	BookID    int64     `gorm:"primaryKey;autoIncrement:false" json:"book_id"`
	UserID    int64     `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Rating score bounds
const (
	MinRatingScore = 1
	MaxRatingScore = 5
)

// ActivityStats summarizes stored activity
type ActivityStats struct {
	Books       int64 `json:"books"`
	Views       int64 `json:"views"`
	Ratings     int64 `json:"ratings"`
	UniqueUsers int64 `json:"unique_users"`
}
