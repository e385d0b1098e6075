package reconcile

import (
	"github.com/kirychukyurii/partview/internal/model"
	"github.com/kirychukyurii/partview/internal/rowstore"
)

// Find returns the first row named name. When there is none it returns nil
// and the position for a new row: one past the last row's position, or 0 for
// an empty store.
func Find(store rowstore.Store, name string) (*model.Row, int) {
	next := 0
	for i := 0; i < store.Len(); i++ {
		row := store.At(i)
		if row.Name == name {
			return row, row.Position
		}
		next = row.Position + 1
	}
	return nil, next
}
