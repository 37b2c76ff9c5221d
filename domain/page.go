package domain

import "strconv"

// PageSize is the fixed number of posts on a listing page.
const PageSize = 10

// Page is one page of a newest-first post listing. A listing always has at
// least one page; an empty listing yields page 1 with no posts.
type Page struct {
	Posts  []Post `json:"posts"`
	Number int    `json:"number"`
	Count  int    `json:"count"`
	Pages  int    `json:"pages"`
}

// NewPage returns an empty Page for the given total item count, with the
// requested page number clamped to the valid range.
func NewPage(requested, count int) *Page {
	pages := (count + PageSize - 1) / PageSize
	if pages < 1 {
		pages = 1
	}
	number := requested
	if number < 1 {
		number = 1
	}
	if number > pages {
		number = pages
	}
	return &Page{
		Number: number,
		Count:  count,
		Pages:  pages,
	}
}

// Offset returns the item offset of the first post on the page.
func (p *Page) Offset() int {
	return (p.Number - 1) * PageSize
}

func (p *Page) HasPrev() bool { return p.Number > 1 }
func (p *Page) HasNext() bool { return p.Number < p.Pages }
func (p *Page) Prev() int     { return p.Number - 1 }
func (p *Page) Next() int     { return p.Number + 1 }

// ParsePage interprets a "page" query parameter. Anything that is not a
// positive number falls back to page 1; clamping against the upper bound
// happens in NewPage once the total count is known.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
