package symbology_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/drihop/internal/symbology"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	table, err := symbology.Default()
	require.NoError(t, err)
	assert.Equal(t, 60, table.Len())

	white, ok := table.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, symbology.RGB{R: 255, G: 255, B: 255}, white)

	_, ok = table.Lookup(9999)
	assert.False(t, ok)

	again, err := symbology.Default()
	require.NoError(t, err)
	assert.Same(t, table, again)
}

func TestParse(t *testing.T) {
	t.Parallel()

	table, err := symbology.Parse(strings.NewReader("101: \"12, 34,56\"\n7: \"0,0,0\"\n"))
	require.NoError(t, err)
	assert.Equal(t, []int{7, 101}, table.Codes())

	c, ok := table.Lookup(101)
	require.True(t, ok)
	assert.Equal(t, "12,34,56", c.String())
	assert.Equal(t, "#0c2238", c.Hex())
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	table, err := symbology.Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Zero(t, table.Len())
}

func TestParseInvalid(t *testing.T) {
	t.Parallel()

	for name, doc := range map[string]string{
		"out of range":   "1: \"256,0,0\"\n",
		"missing band":   "1: \"10,20\"\n",
		"not a number":   "1: \"red,0,0\"\n",
		"negative value": "1: \"-1,0,0\"\n",
	} {
		_, err := symbology.Parse(strings.NewReader(doc))
		assert.ErrorIs(t, err, symbology.ErrInvalidColor, name)
	}

	_, err := symbology.Parse(strings.NewReader("not: [a, map"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "scheme.yaml")
	require.NoError(t, os.WriteFile(path, []byte("42: \"1,2,3\"\n"), 0o600))

	table, err := symbology.Load(path)
	require.NoError(t, err)
	c, ok := table.Lookup(42)
	require.True(t, ok)
	assert.Equal(t, symbology.RGB{R: 1, G: 2, B: 3}, c)

	_, err = symbology.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseCode(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		in       string
		code     int
		ok       bool
		hasError bool
	}{
		"integer":     {in: "412", code: 412, ok: true},
		"padded":      {in: " 12 ", code: 12, ok: true},
		"float text":  {in: "12.0", code: 12, ok: true},
		"empty":       {in: ""},
		"null marker": {in: "<Null>"},
		"fraction":    {in: "12.5", hasError: true},
		"text":        {in: "Qal", hasError: true},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			code, ok, err := symbology.ParseCode(tc.in)
			if tc.hasError {
				assert.ErrorIs(t, err, symbology.ErrInvalidCode)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.code, code)
		})
	}
}
