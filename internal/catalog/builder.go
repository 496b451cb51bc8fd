package catalog

// Query request defaults and caps.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	DefaultSortBy   = "id"
)

// SearchMode selects where the search term is applied.
type SearchMode string

const (
	// SearchModePage refines the fetched page after pagination, matching
	// titles fuzzily within the current window only.
	SearchModePage SearchMode = "page"
	// SearchModeStore pushes the term down to the store as a substring
	// filter applied before pagination.
	SearchModeStore SearchMode = "store"
)

// sortFields is the allow-list of sortable fields. Anything else falls
// back to id.
var sortFields = map[string]struct{}{
	"id":    {},
	"price": {},
	"title": {},
}

// Request is a normalized product listing request.
type Request struct {
	Page     int
	PageSize int
	Search   string
	Category string
	SortBy   string
	Desc     bool
	Cursor   string
}

// Normalize clamps the page to 1, applies the page size default and cap,
// and resolves the sort field against the allow-list.
func (r Request) Normalize() Request {
	if r.Page <= 0 {
		r.Page = 1
	}
	if r.PageSize <= 0 {
		r.PageSize = DefaultPageSize
	}
	if r.PageSize > MaxPageSize {
		r.PageSize = MaxPageSize
	}
	if _, ok := sortFields[r.SortBy]; !ok {
		r.SortBy = DefaultSortBy
	}
	return r
}

// Builder turns requests into ordered constraint lists.
type Builder struct {
	searchMode SearchMode
}

// NewBuilder creates a builder for the given search mode.
func NewBuilder(mode SearchMode) *Builder {
	if mode != SearchModeStore {
		mode = SearchModePage
	}
	return &Builder{searchMode: mode}
}

// SearchMode reports the configured search mode.
func (b *Builder) SearchMode() SearchMode {
	return b.searchMode
}

// Build emits the request's constraints in fixed order: filters, then
// order-by, then the supplied window. The request must already be
// normalized; Build never reorders.
func (b *Builder) Build(req Request, window Window) (Query, error) {
	var constraints []Constraint

	if req.Category != "" {
		constraints = append(constraints, FieldFilter{Field: "category", Op: OpEqual, Value: req.Category})
	}
	if b.searchMode == SearchModeStore && req.Search != "" {
		constraints = append(constraints, FieldFilter{Field: "title", Op: OpContains, Value: req.Search})
	}

	constraints = append(constraints, OrderBy{Field: req.SortBy, Desc: req.Desc})
	constraints = append(constraints, window)

	return NewQuery(constraints...)
}
