package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/jobrunner/geocat/internal/domain"
	"github.com/jobrunner/geocat/internal/ports/output"
)

// CanSort implements output.Facade.
func (s *Store) CanSort(kind domain.Kind, path string) bool {
	return domain.CanSort(kind, path)
}

// candidates returns the entities of every concrete kind kind covers.
func (s *Store) candidates(kind domain.Kind) []domain.Info {
	var out []domain.Info
	for _, l := range s.lookupsFor(kind) {
		out = append(out, l.snapshot()...)
	}
	return out
}

// List implements output.Facade. Unsorted queries are scanned lazily; sorted
// queries are filtered and ordered before paging.
func (s *Store) List(_ context.Context, kind domain.Kind, q domain.Query) (output.Iterator, error) {
	for _, sb := range q.SortBy {
		if !domain.CanSort(kind, sb.Property) {
			return nil, fmt.Errorf("%w: %s by %q", domain.ErrUnsupportedSort, kind, sb.Property)
		}
	}
	items := s.candidates(kind)
	if len(q.SortBy) == 0 {
		return &scanIterator{items: items, filter: q.Filter, skip: q.Offset, limit: q.Limit}, nil
	}

	matched := items[:0:0]
	for _, info := range items {
		if q.Filter.Matches(info) {
			matched = append(matched, info)
		}
	}
	slices.SortStableFunc(matched, func(a, b domain.Info) int {
		for _, sb := range q.SortBy {
			av, _ := domain.Property(a, sb.Property)
			bv, _ := domain.Property(b, sb.Property)
			c := domain.Compare(av, bv)
			if sb.Descending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
	matched = page(matched, q.Offset, q.Limit)
	out := make([]domain.Handle, len(matched))
	for i, info := range matched {
		out[i] = wrap(info)
	}
	return output.NewSliceIterator(out), nil
}

// Count implements output.Facade.
func (s *Store) Count(_ context.Context, kind domain.Kind, filter domain.Filter) int {
	n := 0
	for _, info := range s.candidates(kind) {
		if filter.Matches(info) {
			n++
		}
	}
	return n
}

func page(items []domain.Info, offset, limit int) []domain.Info {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// scanIterator applies the filter, offset and limit while iterating.
type scanIterator struct {
	items    []domain.Info
	filter   domain.Filter
	skip     int
	limit    int // <= 0 means unlimited
	returned int
	pos      int
	cur      domain.Info
}

func (it *scanIterator) Next() bool {
	it.cur = nil
	if it.limit > 0 && it.returned >= it.limit {
		return false
	}
	for it.pos < len(it.items) {
		info := it.items[it.pos]
		it.pos++
		if !it.filter.Matches(info) {
			continue
		}
		if it.skip > 0 {
			it.skip--
			continue
		}
		it.cur = info
		it.returned++
		return true
	}
	return false
}

func (it *scanIterator) Value() domain.Handle {
	return wrap(it.cur)
}

func (it *scanIterator) Close() error {
	it.items = nil
	it.pos = 0
	it.cur = nil
	return nil
}
