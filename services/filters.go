package services

import (
	"math"
	"strings"

	"gorm.io/gorm"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 50
	// maxPage keeps (page-1)*limit far from int overflow.
	maxPage = 1_000_000
)

type Pagination struct {
	Page  int
	Limit int
}

func (p Pagination) normalize() Pagination {
	return p.normalizeWith(defaultPageLimit, maxPageLimit)
}

func (p Pagination) normalizeWith(def, max int) Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > maxPage {
		p.Page = maxPage
	}
	if p.Limit < 1 {
		p.Limit = def
	}
	if p.Limit > max {
		p.Limit = max
	}
	return p
}

func (p Pagination) offset() int {
	return (p.Page - 1) * p.Limit
}

type PageMeta struct {
	Total        int64 `json:"total"`
	CurrentPage  int   `json:"currentPage"`
	Limit        int   `json:"limit"`
	TotalPages   int   `json:"totalPages"`
	HasPrevPage  bool  `json:"hasPrevPage"`
	HasNextPage  bool  `json:"hasNextPage"`
	PreviousPage int   `json:"previousPage"`
	NextPage     int   `json:"nextPage"`
}

func newPageMeta(p Pagination, total int64) PageMeta {
	totalPages := int(math.Ceil(float64(total) / float64(p.Limit)))
	return PageMeta{
		Total:        total,
		CurrentPage:  p.Page,
		Limit:        p.Limit,
		TotalPages:   totalPages,
		HasPrevPage:  p.Page > 1,
		HasNextPage:  totalPages > p.Page,
		PreviousPage: p.Page - 1,
		NextPage:     p.Page + 1,
	}
}

// OrderFilter is the set of recognized admin list filters.
type OrderFilter struct {
	Status        string
	PaymentStatus string
	// Search matches buyer name, buyer email or order id.
	Search string
	Pagination
}

// applyOrderFilter is the only place filter predicates are built; the page query and its
// count query must both go through it.
func applyOrderFilter(q *gorm.DB, f OrderFilter) *gorm.DB {
	if f.Status != "" {
		q = q.Where("orders.status = ?", f.Status)
	}
	if f.PaymentStatus != "" {
		q = q.Where("orders.payment_status = ?", f.PaymentStatus)
	}
	if f.Search != "" {
		like := "%" + likeEscaper.Replace(f.Search) + "%"
		q = q.Where("(orders.name LIKE ? ESCAPE '!' OR orders.email LIKE ? ESCAPE '!' OR orders.id LIKE ? ESCAPE '!')", like, like, like)
	}
	return q
}

// likeEscaper makes wildcard characters in a search term match literally.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
