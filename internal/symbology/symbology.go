// Package symbology maps DescriptionOfMapUnits symbol codes to RGB colors.
package symbology

import (
	"bytes"
	_ "embed"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint
	"gopkg.in/yaml.v3"
)

//go:embed wpgcmyk.yaml
var defaultScheme []byte

var (
	// ErrInvalidColor is returned for a table entry that is not an "R,G,B" triple of bytes.
	ErrInvalidColor = errors.New("invalid color")
	// ErrInvalidCode is returned for a Symbol value that is not an integer code.
	ErrInvalidCode = errors.New("invalid symbol code")
)

// RGB is an 8-bit color.
type RGB struct {
	R, G, B uint8
}

// String renders the color the way it is written in a table.
func (c RGB) String() string {
	return strconv.Itoa(int(c.R)) + "," + strconv.Itoa(int(c.G)) + "," + strconv.Itoa(int(c.B))
}

// Hex renders the color as #rrggbb.
func (c RGB) Hex() string {
	color, err := colors.RGB(c.R, c.G, c.B) //nolint
	if err != nil {
		return ""
	}

	return color.ToHEX().String()
}

// Table is an immutable symbol code to color mapping.
type Table struct {
	colors map[int]RGB
}

// Lookup returns the color of code.
func (t *Table) Lookup(code int) (RGB, bool) {
	c, ok := t.colors[code]

	return c, ok
}

// Len returns the number of codes in the table.
func (t *Table) Len() int {
	return len(t.colors)
}

// Codes returns the codes of the table in ascending order.
func (t *Table) Codes() []int {
	codes := make([]int, 0, len(t.colors))
	for code := range t.colors {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	return codes
}

// ParseColor parses an "R,G,B" triple.
func ParseColor(s string) (RGB, error) {
	compact := strings.ReplaceAll(s, " ", "")
	color, err := colors.ParseRGB("rgb(" + compact + ")") //nolint
	if err != nil {
		return RGB{}, errors.Wrapf(ErrInvalidColor, "%q", s)
	}

	return RGB{R: color.R, G: color.G, B: color.B}, nil
}

// Parse reads a YAML mapping of integer codes to "R,G,B" strings.
func Parse(r io.Reader) (*Table, error) {
	raw := map[int]string{}

	err := yaml.NewDecoder(r).Decode(&raw)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "unable to decode symbol table")
	}

	table := &Table{colors: make(map[int]RGB, len(raw))}
	for code, value := range raw {
		c, err := ParseColor(value)
		if err != nil {
			return nil, errors.Wrapf(err, "symbol %d", code)
		}
		table.colors[code] = c
	}

	return table, nil
}

// Load reads a symbol table file.
func Load(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open symbol table %s", path)
	}
	defer file.Close()

	return Parse(file)
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
	defaultErr   error
)

// Default returns the embedded symbol table. It is parsed once.
func Default() (*Table, error) {
	defaultOnce.Do(func() {
		defaultTable, defaultErr = Parse(bytes.NewReader(defaultScheme))
	})

	return defaultTable, defaultErr
}

// ParseCode converts a Symbol column value to a code.
// Empty values and "<Null>" report false; other non-integer values are errors.
func ParseCode(s string) (int, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "<Null>") {
		return 0, false, nil
	}

	code, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, false, errors.Wrapf(ErrInvalidCode, "%q", s)
		}
		code = int(f)
	}

	return code, true, nil
}
