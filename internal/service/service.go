// Package service holds the business rules behind the REST API: account
// management, the user directory, message history, contacts and Q&A.
// Services take and return domain values and *apperror.AppError; they know
// nothing about HTTP.
package service

const (
	DefaultGlobalHistoryLimit  = 30
	DefaultPrivateHistoryLimit = 20
	DefaultQuestionLimit       = 10
	MaxQuestionLimit           = 50
	MaxHistoryLimit            = 100
	DefaultSearchLimit         = 20
)

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

// normalize clamps p and returns the repository offset.
func (p Page) normalize(def, max int) (page, limit, offset int) {
	page, limit = p.Page, p.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return page, limit, (page - 1) * limit
}
