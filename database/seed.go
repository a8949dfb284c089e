package database

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"explore-backend/models"
)

// catalogDateFormat is the timestamp layout used in catalog files
const catalogDateFormat = "2006-01-02T15:04:05"

// CatalogFile is the JSON layout of a catalog seed file
type CatalogFile struct {
	Genres []models.Genre `json:"genres"`
	Tags   []models.Tag   `json:"tags"`
	Books  []CatalogBook  `json:"books"`
}

// CatalogBook is a book entry; tags are referenced by id
type CatalogBook struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	CoverURL    string `json:"cover_url"`
	Description string `json:"description"`
	GenreID     int    `json:"genre_id"`
	AuthorID    int64  `json:"author_id"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	Tags        []int  `json:"tags"`
}

// ToBook converts the entry, parsing its creation time as UTC
func (b CatalogBook) ToBook() (models.Book, error) {
	created, err := time.ParseInLocation(catalogDateFormat, b.CreatedAt, time.UTC)
	if err != nil {
		return models.Book{}, fmt.Errorf("book %d: invalid created_at %q: %w", b.ID, b.CreatedAt, err)
	}
	tags := make([]models.Tag, len(b.Tags))
	for i, id := range b.Tags {
		tags[i] = models.Tag{ID: id}
	}
	return models.Book{
		ID:          b.ID,
		Title:       b.Title,
		CoverURL:    b.CoverURL,
		Description: b.Description,
		GenreID:     b.GenreID,
		AuthorID:    b.AuthorID,
		Status:      b.Status,
		CreatedAt:   created,
		Tags:        tags,
	}, nil
}

// LoadCatalog loads genres, tags and books from a JSON file.
// It does nothing when books already exist.
//
//nolint:gocritic // zerolog.Logger is passed by value
func LoadCatalog(db *gorm.DB, filePath string, log zerolog.Logger) error {
	var count int64
	if err := db.Model(&models.Book{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count books: %w", err)
	}
	if count > 0 {
		log.Info().Int64("books", count).Msg("catalog already loaded, skipping")
		return nil
	}

	raw, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read catalog file: %w", err)
	}

	var catalog CatalogFile
	if err := json.Unmarshal(raw, &catalog); err != nil {
		return fmt.Errorf("failed to parse catalog: %w", err)
	}

	books := make([]models.Book, 0, len(catalog.Books))
	for _, entry := range catalog.Books {
		book, err := entry.ToBook()
		if err != nil {
			return err
		}
		books = append(books, book)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if len(catalog.Genres) > 0 {
			if err := tx.Create(&catalog.Genres).Error; err != nil {
				return fmt.Errorf("failed to insert genres: %w", err)
			}
		}
		if len(catalog.Tags) > 0 {
			if err := tx.Create(&catalog.Tags).Error; err != nil {
				return fmt.Errorf("failed to insert tags: %w", err)
			}
		}
		if len(books) > 0 {
			if err := tx.CreateInBatches(&books, 100).Error; err != nil {
				return fmt.Errorf("failed to insert books: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().
		Int("genres", len(catalog.Genres)).
		Int("tags", len(catalog.Tags)).
		Int("books", len(books)).
		Msg("catalog loaded")
	return nil
}

// SeedActivity generates deterministic sample views and ratings so trending,
// top rated and personalization have data. It does nothing when views exist.
//
//nolint:gocritic // zerolog.Logger is passed by value
func SeedActivity(db *gorm.DB, now time.Time, log zerolog.Logger) error {
	var count int64
	if err := db.Model(&models.BookView{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count views: %w", err)
	}
	if count > 0 {
		log.Info().Int64("views", count).Msg("activity already seeded, skipping")
		return nil
	}

	var books []models.Book
	if err := db.Scopes(discoverable).Order("id").Limit(50).Find(&books).Error; err != nil {
		return fmt.Errorf("failed to load books: %w", err)
	}
	if len(books) == 0 {
		return fmt.Errorf("no books found to create activity for")
	}

	const users = 20
	now = now.UTC()
	var views []models.BookView
	var ratings []models.Rating

	for i, book := range books {
		// Earlier books are more popular
		viewsPerBook := 4
		if i < 10 {
			viewsPerBook = 20
		} else if i < 20 {
			viewsPerBook = 10
		}

		for j := 0; j < viewsPerBook; j++ {
			// Spread over the last six days plus a tail outside the trending window
			hoursAgo := (j*7 + i) % (6 * 24)
			if j%9 == 8 {
				hoursAgo += 10 * 24
			}
			views = append(views, models.BookView{
				BookID:   book.ID,
				UserID:   int64((i+j)%users + 1),
				ViewedAt: now.Add(-time.Duration(hoursAgo) * time.Hour),
			})
		}

		raters := (viewsPerBook + 1) / 2
		for j := 0; j < raters; j++ {
			userID := int64((i*3+j)%users + 1)
			if userID == book.AuthorID {
				continue
			}
			ratings = append(ratings, models.Rating{
				BookID: book.ID,
				UserID: userID,
				Score:  models.MinRatingScore + (i+j*j)%models.MaxRatingScore,
			})
		}
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(&views, 500).Error; err != nil {
			return fmt.Errorf("failed to insert views: %w", err)
		}
		if len(ratings) > 0 {
			if err := tx.CreateInBatches(&ratings, 500).Error; err != nil {
				return fmt.Errorf("failed to insert ratings: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Int("views", len(views)).Int("ratings", len(ratings)).Msg("sample activity seeded")
	return nil
}
