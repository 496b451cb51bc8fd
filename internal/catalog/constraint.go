// Package catalog implements the product query pipeline: a builder that
// emits ordered store constraints, a pager for offset and cursor windows,
// a fuzzy search refiner and a result assembler.
package catalog

import (
	"context"
	"errors"
	"fmt"
)

// ErrBadQuery reports a query whose constraints are malformed or
// mis-ordered. It signals a programming or configuration error, not bad
// user input.
var ErrBadQuery = errors.New("catalog: bad query")

// Op is a filter comparison operator.
type Op string

const (
	// OpEqual matches documents whose field equals the value exactly.
	OpEqual Op = "eq"
	// OpContains matches documents whose field contains the value as a
	// case-insensitive substring.
	OpContains Op = "contains"
)

// constraint kinds, in the only order a query may carry them.
type kind int

const (
	kindFilter kind = iota
	kindOrder
	kindWindow
)

// Constraint is one clause of a store query. Concrete types are
// FieldFilter, OrderBy and Window.
type Constraint interface {
	kind() kind
}

// FieldFilter restricts documents by a field predicate.
type FieldFilter struct {
	Field string
	Op    Op
	Value string
}

func (FieldFilter) kind() kind { return kindFilter }

// OrderBy sorts documents by a field. Stores break ties by document ID so
// ordering is total.
type OrderBy struct {
	Field string
	Desc  bool
}

func (OrderBy) kind() kind { return kindOrder }

// Mark identifies the position after which a window starts: the sort field
// value and ID of the last document of the previous window.
type Mark struct {
	SortValue any    `json:"v"`
	ID        string `json:"id"`
}

// Window bounds the result set. Offset and StartAfter are mutually
// exclusive: offset paging uses Offset, cursor paging uses StartAfter.
type Window struct {
	Limit      int
	Offset     int
	StartAfter *Mark
}

func (Window) kind() kind { return kindWindow }

// Query is an ordered list of constraints: filters first, then at most one
// order-by, then at most one window. NewQuery is the only constructor.
type Query struct {
	constraints []Constraint
}

// NewQuery validates the constraint ordering and returns the query.
// Mis-ordered constraints, multiple order-bys or multiple windows surface
// ErrBadQuery rather than a silently reordered query.
func NewQuery(constraints ...Constraint) (Query, error) {
	var (
		last    = kindFilter
		orders  int
		windows int
	)
	for i, c := range constraints {
		k := c.kind()
		if k < last {
			return Query{}, fmt.Errorf("%w: constraint %d (%T) out of order", ErrBadQuery, i, c)
		}
		last = k

		switch c := c.(type) {
		case FieldFilter:
			if c.Field == "" {
				return Query{}, fmt.Errorf("%w: filter with empty field", ErrBadQuery)
			}
		case OrderBy:
			if c.Field == "" {
				return Query{}, fmt.Errorf("%w: order-by with empty field", ErrBadQuery)
			}
			orders++
		case Window:
			if c.Limit < 0 || c.Offset < 0 {
				return Query{}, fmt.Errorf("%w: negative window bounds", ErrBadQuery)
			}
			if c.Offset > 0 && c.StartAfter != nil {
				return Query{}, fmt.Errorf("%w: window mixes offset and start-after", ErrBadQuery)
			}
			windows++
		}
	}
	if orders > 1 {
		return Query{}, fmt.Errorf("%w: multiple order-by constraints", ErrBadQuery)
	}
	if windows > 1 {
		return Query{}, fmt.Errorf("%w: multiple window constraints", ErrBadQuery)
	}
	return Query{constraints: constraints}, nil
}

// Constraints returns the validated constraint list in execution order.
func (q Query) Constraints() []Constraint {
	return q.constraints
}

// Filters returns only the filter constraints, for count queries.
func (q Query) Filters() []FieldFilter {
	var filters []FieldFilter
	for _, c := range q.constraints {
		if f, ok := c.(FieldFilter); ok {
			filters = append(filters, f)
		}
	}
	return filters
}

// Order returns the order-by constraint, or a zero OrderBy when absent.
func (q Query) Order() (OrderBy, bool) {
	for _, c := range q.constraints {
		if o, ok := c.(OrderBy); ok {
			return o, true
		}
	}
	return OrderBy{}, false
}

// Document is a raw store record: the store-assigned ID plus the stored
// fields. The assembler merges the two into a flat product.
type Document struct {
	ID     string
	Fields map[string]any
}

// Store executes queries against the product collection.
type Store interface {
	// Run executes the query and returns matching documents in order.
	Run(ctx context.Context, q Query) ([]Document, error)
	// Count returns the number of documents matching the filters alone,
	// ignoring any ordering or windowing.
	Count(ctx context.Context, filters []FieldFilter) (int, error)
}
