package catalog

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// PageMode selects how the pager positions a window in the result set.
type PageMode string

const (
	// ModeOffset computes the window as offset = (page-1)*size.
	ModeOffset PageMode = "offset"
	// ModeCursor positions the window after an opaque start-after marker,
	// prefetching the preceding rows when no cursor token is supplied.
	ModeCursor PageMode = "cursor"
)

// Pager fetches one window of documents from the store.
type Pager struct {
	mode  PageMode
	store Store
}

// NewPager creates a pager in the given mode.
func NewPager(mode PageMode, store Store) *Pager {
	if mode != ModeCursor {
		mode = ModeOffset
	}
	return &Pager{mode: mode, store: store}
}

// Fetch runs the windowed query for the request and returns the documents
// together with the marker of the last document, usable as the next
// cursor. The request must already be normalized.
func (p *Pager) Fetch(ctx context.Context, builder *Builder, req Request) ([]Document, *Mark, error) {
	window, empty, err := p.window(ctx, builder, req)
	if err != nil {
		return nil, nil, err
	}
	if empty {
		return nil, nil, nil
	}

	q, err := builder.Build(req, window)
	if err != nil {
		return nil, nil, err
	}

	docs, err := p.store.Run(ctx, q)
	if err != nil {
		return nil, nil, fmt.Errorf("run windowed query: %w", err)
	}

	var next *Mark
	if len(docs) == req.PageSize {
		next = markFor(docs[len(docs)-1], req.SortBy)
	}
	return docs, next, nil
}

// window resolves the request into a store window. In cursor mode without
// a token, pages beyond the first require a bounded prefetch whose last
// row becomes the start-after marker; a short prefetch means the requested
// page is past the end and the result is empty.
func (p *Pager) window(ctx context.Context, builder *Builder, req Request) (Window, bool, error) {
	size := req.PageSize

	if p.mode == ModeOffset {
		return Window{Limit: size, Offset: (req.Page - 1) * size}, false, nil
	}

	if req.Cursor != "" {
		mark, err := DecodeCursor(req.Cursor)
		if err != nil {
			return Window{}, false, err
		}
		return Window{Limit: size, StartAfter: mark}, false, nil
	}

	if req.Page == 1 {
		return Window{Limit: size}, false, nil
	}

	prefetch := (req.Page - 1) * size
	q, err := builder.Build(req, Window{Limit: prefetch})
	if err != nil {
		return Window{}, false, err
	}
	docs, err := p.store.Run(ctx, q)
	if err != nil {
		return Window{}, false, fmt.Errorf("run prefetch query: %w", err)
	}
	if len(docs) < prefetch {
		return Window{}, true, nil
	}

	return Window{Limit: size, StartAfter: markFor(docs[len(docs)-1], req.SortBy)}, false, nil
}

func markFor(doc Document, sortBy string) *Mark {
	m := &Mark{ID: doc.ID}
	if sortBy == "id" {
		m.SortValue = doc.ID
	} else {
		m.SortValue = doc.Fields[sortBy]
	}
	return m
}

// EncodeCursor serializes a marker into an opaque URL-safe token.
func EncodeCursor(m *Mark) (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeCursor parses an opaque token back into a marker. A token that does
// not decode is a bad query, not a server fault.
func DecodeCursor(token string) (*Mark, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable cursor", ErrBadQuery)
	}
	var m Mark
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: malformed cursor", ErrBadQuery)
	}
	if m.ID == "" {
		return nil, fmt.Errorf("%w: cursor missing document id", ErrBadQuery)
	}
	return &m, nil
}
