package grid

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Parse reads the text form of a grid: one line per pitch row, one
// character per time slot. 'x', 'X', '#' and '1' are on; '.', '-' and '0'
// are off. Blank lines and lines starting with ';' are skipped.
func Parse(r io.Reader) (*Grid, error) {
	var cells [][]bool
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, ";") {
			continue
		}
		row := make([]bool, 0, len(text))
		for i, ch := range text {
			switch ch {
			case 'x', 'X', '#', '1':
				row = append(row, true)
			case '.', '-', '0':
				row = append(row, false)
			case ' ', '|':
				// separators for readability
			default:
				return nil, fmt.Errorf("line %d col %d: unexpected %q", line, i+1, ch)
			}
		}
		cells = append(cells, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read grid: %w", err)
	}
	return FromBools(cells)
}

// ParseFile reads a grid from a text file
func ParseFile(filename string) (*Grid, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open grid file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// String renders the text form accepted by Parse, prefixed by pitch names
// as comments.
func (g *Grid) String() string {
	var b strings.Builder
	for r, row := range g.cells {
		fmt.Fprintf(&b, "; %s\n", PitchForRow(r).Name)
		for _, on := range row {
			if on {
				b.WriteByte('x')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
