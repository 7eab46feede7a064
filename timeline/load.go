package timeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

const (
	ColBeginTime = "BeginTime"
	ColText      = "Text"
)

// Load parses a prosody CSV: a BeginTime column, a Text column and one
// numeric column per category. Cells are coerced by type: numbers become
// values, empty or non-numeric cells are treated as missing. When categories
// is empty every column other than BeginTime and Text is read as a category.
func Load(r io.Reader, categories []string) (Timeline, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("timeline header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	cols := columnMap(header)
	beginCol, ok := cols.find(ColBeginTime)
	if !ok {
		return nil, fmt.Errorf("timeline: column %q not found in %v", ColBeginTime, header)
	}
	textCol, ok := cols.find(ColText)
	if !ok {
		return nil, fmt.Errorf("timeline: column %q not found in %v", ColText, header)
	}

	if len(categories) == 0 {
		for i, h := range header {
			if i != beginCol && i != textCol {
				categories = append(categories, h)
			}
		}
	}
	valueCols := map[string]int{}
	for _, c := range categories {
		if i, ok := cols.find(c); ok {
			valueCols[c] = i
		}
	}

	var tl Timeline
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("timeline row %d: %w", row, err)
		}

		begin, ok := number(cell(record, beginCol))
		if !ok {
			return nil, fmt.Errorf("timeline row %d: %s %q is not a number", row, ColBeginTime, cell(record, beginCol))
		}
		idx := LineIndex(len(tl))
		if idx > 0 && begin < tl[idx-1].BeginTime {
			return nil, fmt.Errorf("timeline row %d: begins at %.3f, before previous line at %.3f", row, begin, tl[idx-1].BeginTime)
		}

		vals := Values{}
		for name, i := range valueCols {
			if v, ok := number(cell(record, i)); ok {
				vals[name] = v
			}
		}
		tl = append(tl, Line{
			Index:     idx,
			BeginTime: begin,
			Text:      strings.TrimSpace(cell(record, textCol)),
			Values:    vals,
		})
	}
	return tl, nil
}

// Numbered renders the transcript as "<n>. <text>" lines, one-based.
func Numbered(tl Timeline) string {
	var b strings.Builder
	for i, l := range tl {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", l.Number(), l.Text)
	}
	return b.String()
}

type columns struct {
	exact map[string]int
	fold  map[string]int
}

func columnMap(header []string) columns {
	c := columns{exact: map[string]int{}, fold: map[string]int{}}
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := c.exact[h]; !dup {
			c.exact[h] = i
		}
		if _, dup := c.fold[strings.ToLower(h)]; !dup {
			c.fold[strings.ToLower(h)] = i
		}
	}
	return c
}

func (c columns) find(name string) (int, bool) {
	if i, ok := c.exact[name]; ok {
		return i, true
	}
	i, ok := c.fold[strings.ToLower(name)]
	return i, ok
}

func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

func number(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
