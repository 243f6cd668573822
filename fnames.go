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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// RenamePrefix renames the files in dir whose names start with prefix,
// replacing the prefix with newPrefix and keeping the rest of the name.
// Files that cannot be renamed, or whose new name is taken, are logged
// and skipped. It returns the number of files renamed.
func RenamePrefix(dir, prefix, newPrefix string, log logrus.FieldLogger) (int, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if dir == "" || prefix == "" || newPrefix == "" {
		return 0, fmt.Errorf("tagtools: renaming files: directory, prefix and new prefix are required: %w", ErrInvalidArgument)
	}
	dir = filepath.FromSlash(strings.ReplaceAll(dir, "\\", "/"))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("tagtools: renaming files: directory %s: %w", dir, ErrNotFound)
		}
		return 0, fmt.Errorf("tagtools: renaming files: %w", err)
	}
	var found bool
	n := 0
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		found = true
		newName := newPrefix + name[len(prefix):]
		from, to := filepath.Join(dir, name), filepath.Join(dir, newName)
		if _, err := os.Stat(to); err == nil {
			log.WithFields(logrus.Fields{"from": name, "to": newName}).Warn("file exists: not renaming")
			continue
		}
		if err := os.Rename(from, to); err != nil {
			log.WithError(err).WithField("file", name).Warn("rename failed")
			continue
		}
		n++
	}
	if !found {
		return 0, fmt.Errorf("tagtools: no files starting with %s in %s: %w", prefix, dir, ErrNotFound)
	}
	return n, nil
}
