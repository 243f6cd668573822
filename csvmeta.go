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
	"path/filepath"
	"strings"
)

// StripQuotes trims s and removes a pair of bracketing double quotes.
func StripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return s
}

// ReadMetadataCSV reads a metadata file with one entry per line. The
// first field of each line is a dot-separated key path, such as
// "animal.dbase.url", and the last field is the value. Dots in keys are
// replaced by underscores. A header line is skipped unless the first
// line holds the depid entry. The .csv suffix is added to name if it is
// missing; dir may be empty.
func ReadMetadataCSV(dir, name string) (Attributes, error) {
	if name == "" {
		return nil, fmt.Errorf("tagtools: metadata file name: %w", ErrInvalidArgument)
	}
	if !strings.HasSuffix(name, ".csv") {
		name += ".csv"
	}
	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("tagtools: metadata file %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("tagtools: reading metadata: %w", err)
	}
	defer f.Close()
	return readMetadata(f, path)
}

func readMetadata(r io.Reader, name string) (Attributes, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	o := make(Attributes)
	first := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tagtools: reading metadata file %s: %w", name, err)
		}
		if first {
			first = false
			if !containsField(rec, "depid") {
				continue
			}
		}
		if len(rec) == 0 {
			continue
		}
		key := strings.ReplaceAll(StripQuotes(rec[0]), ".", "_")
		if key == "" {
			continue
		}
		o.Set(key, StripQuotes(rec[len(rec)-1]))
	}
	return o, nil
}

func containsField(rec []string, s string) bool {
	for _, r := range rec {
		if StripQuotes(r) == s {
			return true
		}
	}
	return false
}
