package rowstore

import "github.com/kirychukyurii/partview/internal/model"

// Store is the row surface the reconcile engine works against
type Store interface {
	// Len returns the number of rows
	Len() int
	// At returns the i-th row in display order; the row may be modified in place
	At(i int) *model.Row
	// Append adds a row at the end and returns it
	Append(row model.Row) *model.Row
	// RemoveFunc removes every row for which fn returns true and reports how many were removed
	RemoveFunc(fn func(*model.Row) bool) int
}

// List is an in-memory Store. It is not safe for concurrent use; the owning
// session serializes access.
type List struct {
	rows []*model.Row
}

// New creates an empty list
func New() *List {
	return &List{}
}

// Len returns the number of rows
func (l *List) Len() int {
	return len(l.rows)
}

// At returns the i-th row
func (l *List) At(i int) *model.Row {
	return l.rows[i]
}

// Append adds a row at the end
func (l *List) Append(row model.Row) *model.Row {
	r := row
	l.rows = append(l.rows, &r)
	return &r
}

// RemoveFunc removes matching rows, keeping the order of the rest
func (l *List) RemoveFunc(fn func(*model.Row) bool) int {
	kept := l.rows[:0]
	for _, r := range l.rows {
		if !fn(r) {
			kept = append(kept, r)
		}
	}
	removed := len(l.rows) - len(kept)
	for i := len(kept); i < len(l.rows); i++ {
		l.rows[i] = nil
	}
	l.rows = kept
	return removed
}

// Rows returns a copy of the rows in display order
func (l *List) Rows() []model.Row {
	out := make([]model.Row, len(l.rows))
	for i, r := range l.rows {
		out[i] = *r
	}
	return out
}
