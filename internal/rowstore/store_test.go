package rowstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirychukyurii/partview/internal/model"
)

func TestList_AppendAndAt(t *testing.T) {
	l := New()
	a := l.Append(model.Row{Name: "a", Position: 0})
	l.Append(model.Row{Name: "b", Position: 1})

	require.Equal(t, 2, l.Len())
	assert.Same(t, a, l.At(0))

	a.Avail = model.AvailDown
	assert.Equal(t, model.AvailDown, l.At(0).Avail, "rows are updated in place")
}

func TestList_RemoveFunc(t *testing.T) {
	l := New()
	for _, name := range []string{"a", "b", "c", "d"} {
		l.Append(model.Row{Name: name})
	}

	removed := l.RemoveFunc(func(r *model.Row) bool { return r.Name == "b" || r.Name == "d" })

	assert.Equal(t, 2, removed)
	names := make([]string, 0, l.Len())
	for _, r := range l.Rows() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"a", "c"}, names)
}

func TestList_RowsIsACopy(t *testing.T) {
	l := New()
	l.Append(model.Row{Name: "a"})

	rows := l.Rows()
	rows[0].Name = "changed"

	assert.Equal(t, "a", l.At(0).Name)
}
