package service

import "github.com/aussiebroadwan/murmur/internal/auth/domain"

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Page is one slice of a paged identity listing.
type Page struct {
	Items      []domain.Identity
	Page       int
	PerPage    int
	TotalItems int
	TotalPages int
}

// HasNext reports whether a page follows this one.
func (p Page) HasNext() bool { return p.Page < p.TotalPages }

// HasPrev reports whether a page precedes this one.
func (p Page) HasPrev() bool { return p.Page > 1 }

// normalizePage clamps page to at least 1 and perPage to [1, MaxPerPage],
// returning the row offset as well.
func normalizePage(page, perPage int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage, (page - 1) * perPage
}

func newPage(items []domain.Identity, page, perPage, total int) Page {
	pages := (total + perPage - 1) / perPage
	if items == nil {
		items = []domain.Identity{}
	}
	return Page{Items: items, Page: page, PerPage: perPage, TotalItems: total, TotalPages: pages}
}
