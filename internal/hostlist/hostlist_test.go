package hostlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want []string
	}{
		{"empty", "", nil},
		{"single host", "login1", []string{"login1"}},
		{"simple range", "n[1-4]", []string{"n1", "n2", "n3", "n4"}},
		{"mixed list", "n[1-2,5]", []string{"n1", "n2", "n5"}},
		{"zero padded", "c[08-11]", []string{"c08", "c09", "c10", "c11"}},
		{"top-level commas", "n[1-2],login", []string{"n1", "n2", "login"}},
		{"whitespace separated", "a1 b2", []string{"a1", "b2"}},
		{"suffix", "r[1-2]-ib", []string{"r1-ib", "r2-ib"}},
		{"two groups", "r[1-2]n[1-2]", []string{"r1n1", "r1n2", "r2n1", "r2n2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpand_Malformed(t *testing.T) {
	for _, expr := range []string{"n[1-4", "n1-4]", "n[4-1]", "n[a-b]", "n[1,,2]", "n[[1]]"} {
		t.Run(expr, func(t *testing.T) {
			_, err := Expand(expr)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestExpand_TooLarge(t *testing.T) {
	_, err := Expand("n[0-9999999]")
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestFirst(t *testing.T) {
	assert.Equal(t, "n3", First("n[3-8]"))
	assert.Equal(t, "c07", First("c[07-09],login"))
	assert.Equal(t, "", First(""))
	assert.Equal(t, "", First("n[3-"))
}

func TestContains(t *testing.T) {
	ok, err := Contains("n[1-4]", "n3")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Contains("n[5-8]", "n3")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = Contains("n[5-", "n3")
	assert.Error(t, err)
}

func TestCompress(t *testing.T) {
	tests := []struct {
		name  string
		hosts []string
		want  string
	}{
		{"empty", nil, ""},
		{"single", []string{"n1"}, "n1"},
		{"range", []string{"n3", "n1", "n2", "n4"}, "n[1-4]"},
		{"gaps", []string{"n1", "n2", "n5"}, "n[1-2,5]"},
		{"padding kept", []string{"c08", "c09", "c10"}, "c[08-10]"},
		{"duplicates", []string{"n1", "n1", "n2"}, "n[1-2]"},
		{"same number different padding", []string{"n1", "n01"}, "n[01,1]"},
		{"padding change breaks range", []string{"n01", "n02", "n3"}, "n[01-02,3]"},
		{"several prefixes", []string{"gpu1", "n2", "gpu2", "login"}, "gpu[1-2],n2,login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compress(tt.hosts))
		})
	}
}

func TestCompress_RoundTrip(t *testing.T) {
	tests := [][]string{
		{"n1", "n2", "n3", "n7", "c01", "c02", "login"},
		{"n1", "n01"},
		{"n001", "n01", "n1", "n2", "n02"},
	}

	for _, hosts := range tests {
		expanded, err := Expand(Compress(hosts))
		require.NoError(t, err)
		assert.ElementsMatch(t, hosts, expanded, "hosts %v", hosts)
	}
}
