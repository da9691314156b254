package coord

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expectErr bool
		expected  Coordinate
	}{
		{
			name:     "simple",
			raw:      "example.com/widgets@v1.2.0",
			expected: Coordinate{Path: "example.com/widgets", Version: "v1.2.0"},
		},
		{
			name:     "surrounding whitespace",
			raw:      "  example.com/widgets@v0.1.0 ",
			expected: Coordinate{Path: "example.com/widgets", Version: "v0.1.0"},
		},
		{
			name:      "error - missing version",
			raw:       "example.com/widgets",
			expectErr: true,
		},
		{
			name:      "error - empty version",
			raw:       "example.com/widgets@",
			expectErr: true,
		},
		{
			name:      "error - invalid version",
			raw:       "example.com/widgets@latest",
			expectErr: true,
		},
		{
			name:      "error - invalid path",
			raw:       "@v1.0.0",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Parse(tc.raw)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, c)
		})
	}
}

func TestCoordinate_Escaped(t *testing.T) {
	c := MustParse("github.com/Example/Widgets@v1.0.0")
	escaped, err := c.Escaped()
	require.NoError(t, err)
	assert.Equal(t, "github.com/!example/!widgets@v1.0.0", escaped)
}

func TestCoordinate_NewerAndSort(t *testing.T) {
	a := MustParse("example.com/a@v1.2.0")
	b := MustParse("example.com/a@v1.10.0")
	assert.True(t, b.Newer(a))
	assert.False(t, a.Newer(b))

	cs := []Coordinate{b, MustParse("example.com/0@v0.0.1"), a}
	Sort(cs)
	assert.Equal(t, []string{"example.com/0@v0.0.1", "example.com/a@v1.2.0", "example.com/a@v1.10.0"},
		[]string{cs[0].String(), cs[1].String(), cs[2].String()})
}
