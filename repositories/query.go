package repositories

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// PageSize is the fixed number of items on every listing page
const PageSize = 7

type PageRequest struct {
	Page int
}

// Number normalizes the requested page: anything below 1 is the first page.
func (r PageRequest) Number() int {
	if r.Page < 1 {
		return 1
	}
	return r.Page
}

func (r PageRequest) offset() int {
	return (r.Number() - 1) * PageSize
}

type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func (p *Page[T]) HasNext() bool {
	return p.Page < p.TotalPages
}

// Paginate counts the rows matched by q and loads one ordered page of them.
// Pages past the end come back empty with the real totals. Preloads apply to
// the page query only.
func Paginate[T any](q *gorm.DB, order string, req PageRequest, preloads ...string) (*Page[T], error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}

	page := &Page[T]{
		Items:      []T{},
		Page:       req.Number(),
		PageSize:   PageSize,
		Total:      total,
		TotalPages: int((total + PageSize - 1) / PageSize),
	}

	// checked before offset() so huge page numbers cannot overflow it
	if page.Page > page.TotalPages {
		return page, nil
	}

	find := q.Order(order).Offset(req.offset()).Limit(PageSize)
	for _, p := range preloads {
		find = find.Preload(p)
	}
	if err := find.Find(&page.Items).Error; err != nil {
		return nil, fmt.Errorf("failed to load page: %w", err)
	}

	return page, nil
}

// likeEscape is the escape character used by containsPattern
const likeEscape = "!"

// containsPattern builds a lower-case LIKE pattern matching s anywhere,
// with LIKE wildcards in s taken literally.
func containsPattern(s string) string {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

// whereContains adds a case-insensitive substring match on any of columns
func whereContains(q *gorm.DB, s string, columns ...string) *gorm.DB {
	s = strings.TrimSpace(s)
	if s == "" || len(columns) == 0 {
		return q
	}
	pattern := containsPattern(s)
	clauses := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))
	for _, col := range columns {
		clauses = append(clauses, "LOWER("+col+") LIKE ? ESCAPE '"+likeEscape+"'")
		args = append(args, pattern)
	}
	return q.Where(strings.Join(clauses, " OR "), args...)
}
