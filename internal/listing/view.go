package listing

import (
	"strings"
	"sync"
)

// StatusAll is the categorical filter value that matches every record.
const StatusAll = "All"

// Filterable exposes the fields the view searches and filters on.
type Filterable interface {
	SearchText() []string
	StatusValue() string
}

// Filter keeps records matching the search term (case-insensitive substring
// of any search field) and the status filter. Order is preserved.
func Filter[T Filterable](records []T, search, status string) []T {
	needle := strings.ToLower(search)
	matched := make([]T, 0, len(records))
	for _, rec := range records {
		if !matchesStatus(rec, status) || !matchesSearch(rec, needle) {
			continue
		}
		matched = append(matched, rec)
	}
	return matched
}

func matchesStatus[T Filterable](rec T, status string) bool {
	return status == "" || status == StatusAll || rec.StatusValue() == status
}

func matchesSearch[T Filterable](rec T, needle string) bool {
	if needle == "" {
		return true
	}
	for _, text := range rec.SearchText() {
		if strings.Contains(strings.ToLower(text), needle) {
			return true
		}
	}
	return false
}

// PageCount is ceil(n/size); zero when nothing matched.
func PageCount(n, size int) int {
	if size < 1 {
		size = 1
	}
	return (n + size - 1) / size
}

// ClampPage bounds page to [1, max(1, pageCount)].
func ClampPage(page, pageCount int) int {
	upper := pageCount
	if upper < 1 {
		upper = 1
	}
	if page < 1 {
		return 1
	}
	if page > upper {
		return upper
	}
	return page
}

// Window is one rendered page of a filtered collection.
type Window[T any] struct {
	Items     []T `json:"items"`
	Page      int `json:"page"`
	PageSize  int `json:"page_size"`
	PageCount int `json:"page_count"`
	Total     int `json:"total"`
}

// Paginate slices matched to page [(k-1)*size, k*size) ∩ [0, n) after
// clamping k.
func Paginate[T any](matched []T, page, size int) Window[T] {
	if size < 1 {
		size = 1
	}
	n := len(matched)
	pageCount := PageCount(n, size)
	page = ClampPage(page, pageCount)

	start := (page - 1) * size
	end := start + size
	if start > n {
		start = n
	}
	if end > n {
		end = n
	}

	items := make([]T, end-start)
	copy(items, matched[start:end])
	return Window[T]{
		Items:     items,
		Page:      page,
		PageSize:  size,
		PageCount: pageCount,
		Total:     n,
	}
}

// ViewState is the user-controlled half of a view.
type ViewState struct {
	Search   string `json:"search"`
	Status   string `json:"status"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

// View holds search, status and paging for one screen. It never fetches.
type View[T Filterable] struct {
	mu          sync.RWMutex
	state       ViewState
	maxPageSize int
}

func NewView[T Filterable](defaultPageSize, maxPageSize int) *View[T] {
	if maxPageSize < 1 {
		maxPageSize = 100
	}
	if defaultPageSize < 1 || defaultPageSize > maxPageSize {
		defaultPageSize = min(10, maxPageSize)
	}
	return &View[T]{
		state:       ViewState{Status: StatusAll, Page: 1, PageSize: defaultPageSize},
		maxPageSize: maxPageSize,
	}
}

func (v *View[T]) State() ViewState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

// SetSearch always returns to page 1, even when the term is unchanged.
func (v *View[T]) SetSearch(search string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Search = search
	v.state.Page = 1
}

// SetStatus always returns to page 1. An empty status means All.
func (v *View[T]) SetStatus(status string) {
	if status == "" {
		status = StatusAll
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Status = status
	v.state.Page = 1
}

// SetPageSize returns to page 1 and caps size at the configured maximum.
func (v *View[T]) SetPageSize(size int) {
	if size < 1 {
		size = 1
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if size > v.maxPageSize {
		size = v.maxPageSize
	}
	v.state.PageSize = size
	v.state.Page = 1
}

func (v *View[T]) SetPage(page int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Page = page
}

func (v *View[T]) Next() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Page++
}

func (v *View[T]) Prev() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state.Page > 1 {
		v.state.Page--
	}
}

// Apply evaluates the view over records and stores the clamped page back, so
// a later Next starts from a page that exists.
func (v *View[T]) Apply(records []T) Window[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	w := Paginate(Filter(records, v.state.Search, v.state.Status), v.state.Page, v.state.PageSize)
	v.state.Page = w.Page
	return w
}
