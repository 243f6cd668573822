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
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
)

// CreationDateLayout is the layout of the creation_date attribute.
const CreationDateLayout = "02-Jan-2006 15:04:05"

// Archive is a NetCDF file holding the sensor and metadata records of
// one deployment. Archives are not safe for concurrent use by multiple
// processes.
type Archive struct {
	// Path is the location of the archive file.
	Path string

	// Log receives diagnostic messages. It defaults to the standard logger.
	Log logrus.FieldLogger

	// Confirm is asked whether an existing variable should be replaced.
	// If it is nil, existing variables are never replaced.
	Confirm func(prompt string) bool

	// Now returns the current time. It defaults to time.Now.
	Now func() time.Time
}

// NewArchive returns an Archive for path, adding the .nc suffix if
// it is missing.
func NewArchive(path string) *Archive {
	if !strings.HasSuffix(path, ".nc") {
		path += ".nc"
	}
	return &Archive{Path: path}
}

func (a *Archive) log() logrus.FieldLogger {
	if a.Log == nil {
		return logrus.StandardLogger()
	}
	return a.Log
}

func (a *Archive) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

// Exists reports whether the archive file exists.
func (a *Archive) Exists() bool {
	_, err := os.Stat(a.Path)
	return err == nil
}

// Dataset is the content of an archive.
type Dataset struct {
	Info    *Info
	Sensors map[string]*Sensor
}

// Names returns the sorted sensor names.
func (d *Dataset) Names() []string {
	names := make([]string, 0, len(d.Sensors))
	for n := range d.Sensors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Records returns the info record followed by the sensors sorted by
// name, suitable for passing to Save.
func (d *Dataset) Records() []Record {
	var r []Record
	if d.Info != nil {
		r = append(r, d.Info)
	}
	for _, n := range d.Names() {
		r = append(r, d.Sensors[n])
	}
	return r
}

// Variables returns the names of the sensors stored in the archive.
func (a *Archive) Variables() ([]string, error) {
	c, err := readArchive(a.Path)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, v := range c.vars {
		if !strings.HasPrefix(v.name, "_") {
			names = append(names, v.name)
		}
	}
	return names, nil
}

// Load reads the named sensors, or all sensors if no names are given,
// along with the file-level metadata. Variables with names starting
// with an underscore are never returned.
func (a *Archive) Load(names ...string) (*Dataset, error) {
	c, err := readArchive(a.Path)
	if err != nil {
		return nil, err
	}
	want := make(map[string]bool)
	for _, n := range names {
		if n == InfoName {
			continue
		}
		if c.find(n) < 0 {
			return nil, fmt.Errorf("tagtools: loading %s from %s: %w", n, a.Path, ErrNoVariable)
		}
		want[n] = true
	}
	d := &Dataset{
		Info:    &Info{Attributes: c.global.Copy()},
		Sensors: make(map[string]*Sensor),
	}
	for _, v := range c.vars {
		if strings.HasPrefix(v.name, "_") || (len(want) > 0 && !want[v.name]) {
			continue
		}
		d.Sensors[v.name] = v.sensor()
	}
	a.log().WithFields(logrus.Fields{
		"archive": a.Path,
		"sensors": len(d.Sensors),
	}).Debug("loaded archive")
	return d, nil
}

// sensor converts v to a Sensor.
func (v *archiveVar) sensor() *Sensor {
	s := &Sensor{Name: v.name, Attributes: v.attrs.Copy()}
	if cn, ok := s.Attributes["column_names"]; ok {
		s.Attributes["column_name"] = cn
		delete(s.Attributes, "column_names")
	}
	if v.empty() {
		return s
	}
	s.Data = sparse.ZerosDense(v.shape...)
	copy(s.Data.Elements, v.data)
	return s
}

// Add writes r to the archive, creating the archive if it does not
// exist. A sensor is stored as a variable; the info record is merged
// into the file-level attributes. Records from a different deployment
// are rejected and leave the archive unchanged.
func (a *Archive) Add(r Record) error {
	if r == nil {
		return fmt.Errorf("tagtools: adding to %s: nil record: %w", a.Path, ErrInvalidArgument)
	}
	s, isSensor := r.(*Sensor)
	if isSensor {
		if err := s.Validate(); err != nil {
			return err
		}
	}

	c, err := readArchive(a.Path)
	if errors.Is(err, ErrNotFound) {
		c = newArchiveContents()
	} else if err != nil {
		return err
	}

	fileDep := c.global.DepID()
	recDep := r.RecordAttributes().DepID()
	if fileDep != "" && recDep != "" && fileDep != recDep {
		return fmt.Errorf("tagtools: %s has depid %s but %s has depid %s: %w",
			a.Path, fileDep, r.RecordName(), recDep, ErrDepIDMismatch)
	}

	if isSensor {
		if c.find(s.Name) >= 0 {
			prompt := fmt.Sprintf("Variable %s already exists in file %s: do you want to replace it", s.Name, a.Path)
			if a.Confirm == nil || !a.Confirm(prompt) {
				return fmt.Errorf("tagtools: variable %s in %s: %w", s.Name, a.Path, ErrDeclined)
			}
		}
		c.put(s)
	} else {
		for k, v := range r.RecordAttributes() {
			c.global.Set(k, v)
		}
	}
	if fileDep == "" && recDep != "" {
		c.global.Set("depid", recDep)
	}
	c.global.Set("creation_date", a.now().Format(CreationDateLayout))

	if err := writeArchive(a.Path, c, a.log()); err != nil {
		return err
	}
	a.log().WithFields(logrus.Fields{
		"archive": a.Path,
		"record":  r.RecordName(),
	}).Info("added record")
	return nil
}

// Save replaces any existing archive with one holding recs.
func (a *Archive) Save(recs ...Record) error {
	if len(recs) == 0 {
		return fmt.Errorf("tagtools: saving %s: no records: %w", a.Path, ErrInvalidArgument)
	}
	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("tagtools: saving %s: %w", a.Path, err)
	}
	for _, r := range recs {
		if err := a.Add(r); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes the sensor called name by rebuilding the archive
// without it. The info record cannot be removed.
func (a *Archive) Remove(name string) error {
	if name == InfoName {
		return fmt.Errorf("tagtools: removing %s from %s: %w", name, a.Path, ErrReservedName)
	}
	c, err := readArchive(a.Path)
	if err != nil {
		return err
	}
	if !c.remove(name) {
		return fmt.Errorf("tagtools: removing %s from %s: %w", name, a.Path, ErrNoVariable)
	}
	c.global.Set("creation_date", a.now().Format(CreationDateLayout))
	if err := writeArchive(a.Path, c, a.log()); err != nil {
		return err
	}
	a.log().WithFields(logrus.Fields{
		"archive": a.Path,
		"record":  name,
	}).Info("removed record")
	return nil
}
