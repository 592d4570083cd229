package repository

import (
	"strings"

	"gorm.io/gorm"
)

// ListQuery represents common query parameters
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	SortBy  string
	SortDir string
	Filters map[string]string
}

// NewListQuery creates a ListQuery with defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
		Filters: make(map[string]string),
	}
}

// Filter returns a trimmed filter value or ""
func (q *ListQuery) Filter(key string) string {
	if q == nil || q.Filters == nil {
		return ""
	}
	return strings.TrimSpace(q.Filters[key])
}

// applySort orders by SortBy when it is one of the sortable columns,
// falling back to defaultOrder
func applySort(db *gorm.DB, q *ListQuery, sortable map[string]string, defaultOrder string) *gorm.DB {
	column, ok := sortable[q.SortBy]
	if !ok {
		return db.Order(defaultOrder)
	}
	if strings.EqualFold(q.SortDir, "desc") {
		column += " DESC"
	}
	return db.Order(column)
}

// applyPage limits the query to the requested page
func applyPage(db *gorm.DB, q *ListQuery) *gorm.DB {
	if q.PerPage <= 0 {
		return db
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	return db.Offset((page - 1) * q.PerPage).Limit(q.PerPage)
}

// endOfDay widens a bare YYYY-MM-DD upper bound to include the whole day
func endOfDay(val string) string {
	if len(val) == 10 {
		return val + " 23:59:59"
	}
	return val
}
