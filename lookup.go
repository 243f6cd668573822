/*
Copyright © 2021 the TagTools authors.
This file is part of TagTools.

TagTools is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

TagTools is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with TagTools.  If not, see <http://www.gnu.org/licenses/>.
*/

package tagtools

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Chooser selects one of several options, returning its index. A
// negative index declines all options.
type Chooser func(prompt string, options []string) (int, error)

// LookupTable is a table of researchers or species keyed by the
// Initial column.
type LookupTable struct {
	// Name describes the table in messages, e.g. "species".
	Name    string
	Columns []string
	Rows    []Attributes

	// Label is the column shown beside the initials when listing
	// or choosing entries.
	Label string
}

// LoadLookupTable reads a lookup table from a CSV file with a header
// line. One of the columns must be named Initial.
func LoadLookupTable(path, name, label string) (*LookupTable, error) {
	f, err := os.Open(os.ExpandEnv(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("tagtools: %s file %s: %w", name, path, ErrNotFound)
		}
		return nil, fmt.Errorf("tagtools: reading %s file: %w", name, err)
	}
	defer f.Close()
	t, err := ReadLookupTable(f, name, label)
	if err != nil {
		return nil, fmt.Errorf("%w (file %s)", err, path)
	}
	return t, nil
}

// ReadLookupTable reads a lookup table in CSV format from r.
func ReadLookupTable(r io.Reader, name, label string) (*LookupTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("tagtools: reading %s table header: %w", name, err)
	}
	t := &LookupTable{Name: name, Label: label}
	for _, h := range hdr {
		t.Columns = append(t.Columns, StripQuotes(strings.TrimPrefix(h, "\ufeff")))
	}
	if t.column("Initial") < 0 {
		return nil, fmt.Errorf("tagtools: %s table has no Initial column: %w", name, ErrInvalidArgument)
	}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tagtools: reading %s table: %w", name, err)
		}
		row := make(Attributes)
		for i, c := range t.Columns {
			if i < len(rec) {
				row[c] = StripQuotes(rec[i])
			} else {
				row[c] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func (t *LookupTable) column(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func (t *LookupTable) describe(row Attributes) string {
	d := row.String("Initial")
	if t.Label != "" {
		d += " " + row.String(t.Label)
	}
	return d
}

// List returns one line per entry holding its initials and label.
func (t *LookupTable) List() []string {
	o := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		o[i] = t.describe(r)
	}
	return o
}

// Find returns the entry whose initials match initial, ignoring case.
// If several entries match, choose selects one; a nil choose takes the
// first match.
func (t *LookupTable) Find(initial string, choose Chooser) (Attributes, error) {
	if initial == "" {
		return nil, fmt.Errorf("tagtools: no %s initials given: %w", t.Name, ErrInvalidArgument)
	}
	var matches []Attributes
	for _, r := range t.Rows {
		if strings.EqualFold(r.String("Initial"), initial) {
			matches = append(matches, r)
		}
	}
	switch {
	case len(matches) == 0:
		return nil, fmt.Errorf("tagtools: no entry matching %s in %s table: %w", initial, t.Name, ErrNotFound)
	case len(matches) == 1 || choose == nil:
		return matches[0].Copy(), nil
	}
	opts := make([]string, len(matches))
	for i, m := range matches {
		opts[i] = t.describe(m)
	}
	n, err := choose(fmt.Sprintf("Multiple entries matching %s in %s table", initial, t.Name), opts)
	if err != nil {
		return nil, err
	}
	if n < 0 || n >= len(matches) {
		return nil, fmt.Errorf("tagtools: no %s selected: %w", t.Name, ErrDeclined)
	}
	return matches[n].Copy(), nil
}
