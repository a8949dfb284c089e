package models

import (
	"time"

	"gorm.io/gorm"
)

// Book status values
const (
	StatusDraft     = "DRAFT"
	StatusOngoing   = "ONGOING"
	StatusHiatus    = "HIATUS"
	StatusCompleted = "COMPLETED"
	StatusUnlisted  = "UNLISTED"
)

// DiscoverableStatuses lists the statuses a book may have to appear in any shelf
var DiscoverableStatuses = []string{StatusOngoing, StatusHiatus, StatusCompleted}

type Genre struct {
	ID   int    `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex" json:"name"`
}

type Tag struct {
	ID   int    `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex" json:"name"`
}

// Book is the catalog row. Heavy fields stay here; shelves only ever load a BookCandidate.
type Book struct {
	ID          int64          `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"index:idx_title" json:"title"`
	CoverURL    string         `json:"cover_url"`
	Description string         `json:"description"`
	GenreID     int            `gorm:"index:idx_genre" json:"genre_id"`
	AuthorID    int64          `gorm:"index:idx_author" json:"author_id"`
	Status      string         `gorm:"index:idx_status" json:"status"`
	CreatedAt   time.Time      `gorm:"index:idx_created_at" json:"created_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Tags        []Tag          `gorm:"many2many:book_tags;" json:"tags,omitempty"`
}

// BookCandidate is the minimal projection returned in categories
type BookCandidate struct {
	BookID   int64  `json:"book_id"`
	Title    string `json:"title"`
	CoverURL string `json:"cover_url"`
}

// TrendingBook is a candidate with its in-window view count
type TrendingBook struct {
	BookCandidate
	ViewCount int       `json:"view_count"`
	CreatedAt time.Time `json:"created_at"`
}

// RatedBook is a candidate with its rating aggregate.
// RatingAverage is meaningless when RatingCount is zero.
type RatedBook struct {
	BookCandidate
	RatingCount   int       `json:"rating_count"`
	RatingAverage float64   `json:"rating_average"`
	CreatedAt     time.Time `json:"created_at"`
	BayesScore    float64   `gorm:"-" json:"bayes_score"`
}

// Sortable accessors shared by the ranking helpers

func (t TrendingBook) GetID() int64            { return t.BookID }
func (t TrendingBook) GetCreatedAtUnix() int64 { return t.CreatedAt.UnixNano() }
func (r RatedBook) GetID() int64               { return r.BookID }
func (r RatedBook) GetCreatedAtUnix() int64    { return r.CreatedAt.UnixNano() }

// Candidates strips ranking data, keeping order
func Candidates[T interface{ Candidate() BookCandidate }](items []T) []BookCandidate {
	out := make([]BookCandidate, len(items))
	for i := range items {
		out[i] = items[i].Candidate()
	}
	return out
}

func (t TrendingBook) Candidate() BookCandidate { return t.BookCandidate }
func (r RatedBook) Candidate() BookCandidate    { return r.BookCandidate }
