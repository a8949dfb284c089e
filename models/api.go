package models

// ExploreResponse is the body of GET /api/v1/explore
type ExploreResponse struct {
	Categories []Category        `json:"categories"`
	Metadata   *ResponseMetadata `json:"metadata"`
}

// RecordViewRequest is the body of POST /api/v1/books/:id/views
type RecordViewRequest struct {
	UserID int64 `json:"user_id" binding:"required,gt=0"`
}

// RateBookRequest is the body of PUT /api/v1/books/:id/rating
type RateBookRequest struct {
	UserID int64 `json:"user_id" binding:"required,gt=0"`
	Score  int   `json:"score" binding:"required,min=1,max=5"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Code      int    `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// ResponseMetadata describes a composed feed
type ResponseMetadata struct {
	Count        int    `json:"count"`        // Number of categories returned
	Personalized bool   `json:"personalized"` // Whether a user-specific shelf is present
	RequestID    string `json:"request_id,omitempty"`
}

// NewResponseMetadata builds metadata for a feed
func NewResponseMetadata(categories []Category, requestID string) *ResponseMetadata {
	personalized := false
	for _, c := range categories {
		if c.ID == CategoryRecommended {
			personalized = true
			break
		}
	}
	return &ResponseMetadata{
		Count:        len(categories),
		Personalized: personalized,
		RequestID:    requestID,
	}
}
