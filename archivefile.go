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
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/ctessum/cdf"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

// fillValue is the NetCDF default fill value for DOUBLE variables. A
// sensor with no samples is stored as a single fill value.
const fillValue = 9.9692099683868690e+36

// emptyName is the placeholder variable written when an archive holds
// no sensors, since a classic header needs at least one variable.
const emptyName = "_empty"

// archiveVar is one variable of an archive file held in memory.
type archiveVar struct {
	name  string
	dims  []string
	shape []int
	data  []float64
	attrs Attributes
}

// empty reports whether v is a placeholder for a sensor with no samples.
func (v *archiveVar) empty() bool {
	return len(v.data) == 1 && v.data[0] == fillValue
}

// archiveContents is the whole content of an archive file. The classic
// NetCDF header cannot be changed once it is defined, so every mutation
// reads the contents, changes them in memory and writes a new file.
type archiveContents struct {
	global Attributes
	vars   []*archiveVar
}

func newArchiveContents() *archiveContents {
	return &archiveContents{global: make(Attributes)}
}

func (c *archiveContents) find(name string) int {
	for i, v := range c.vars {
		if v.name == name {
			return i
		}
	}
	return -1
}

func (c *archiveContents) remove(name string) bool {
	i := c.find(name)
	if i < 0 {
		return false
	}
	c.vars = append(c.vars[:i], c.vars[i+1:]...)
	return true
}

// put adds or replaces the variable for sensor s.
func (c *archiveContents) put(s *Sensor) {
	v := &archiveVar{name: s.Name, attrs: s.Attributes.Copy()}
	switch {
	case s.NumSamples() == 0 || len(s.Data.Elements) == 0:
		v.dims = []string{s.Name}
		v.shape = []int{1}
		v.data = []float64{fillValue}
	case len(s.Data.Shape) == 1:
		v.dims = []string{s.Name + "_samples"}
		v.shape = []int{s.Data.Shape[0]}
	default:
		v.dims = []string{s.Name + "_samples", s.Name + "_axis"}
		v.shape = []int{s.Data.Shape[0], s.Data.Shape[1]}
	}
	if v.data == nil {
		v.data = make([]float64, len(s.Data.Elements))
		copy(v.data, s.Data.Elements)
	}
	if i := c.find(s.Name); i >= 0 {
		c.vars[i] = v
		return
	}
	c.vars = append(c.vars, v)
}

// readArchive reads the full contents of the archive file at path.
func readArchive(path string) (*archiveContents, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("tagtools: archive %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("tagtools: opening archive: %w", err)
	}
	defer f.Close()

	cf, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("tagtools: reading archive %s: %w", path, err)
	}
	h := cf.Header
	c := newArchiveContents()
	for _, a := range h.Attributes("") {
		c.global[a] = attrFromCDF(h.GetAttribute("", a))
	}
	for _, name := range h.Variables() {
		if h.IsRecordVariable(name) {
			return nil, fmt.Errorf("tagtools: archive %s: record variable %s is not supported", path, name)
		}
		v := &archiveVar{
			name:  name,
			dims:  h.Dimensions(name),
			shape: h.Lengths(name),
			attrs: make(Attributes),
		}
		n := 1
		for _, l := range v.shape {
			n *= l
		}
		r := cf.Reader(name, nil, nil)
		buf := r.Zero(n)
		if _, err := r.Read(buf); err != nil && err != io.EOF {
			return nil, fmt.Errorf("tagtools: reading variable %s: %w", name, err)
		}
		if v.data, err = valuesToFloat64(buf); err != nil {
			return nil, fmt.Errorf("tagtools: reading variable %s: %w", name, err)
		}
		if len(v.data) != n {
			return nil, fmt.Errorf("tagtools: variable %s: dims are %d but array length is %d",
				name, n, len(v.data))
		}
		if fv := h.FillValue(name); fv != nil && len(v.data) == 1 && v.data[0] == cast.ToFloat64(fv) {
			v.data[0] = fillValue
		}
		for _, a := range h.Attributes(name) {
			v.attrs[a] = attrFromCDF(h.GetAttribute(name, a))
		}
		c.vars = append(c.vars, v)
	}
	return c, nil
}

// writeArchive writes c to a temporary file in the same directory as
// path and then renames it over path.
func writeArchive(path string, c *archiveContents, log logrus.FieldLogger) error {
	c.remove(emptyName)
	if len(c.vars) == 0 {
		c.vars = append(c.vars, &archiveVar{
			name:  emptyName,
			dims:  []string{emptyName},
			shape: []int{1},
			data:  []float64{fillValue},
			attrs: make(Attributes),
		})
	}

	var dims []string
	dimLen := make(map[string]int)
	for _, v := range c.vars {
		for i, d := range v.dims {
			l, ok := dimLen[d]
			if !ok {
				dims = append(dims, d)
				dimLen[d] = v.shape[i]
				continue
			}
			if l != v.shape[i] {
				return fmt.Errorf("tagtools: dimension %s of variable %s has length %d but %d is already defined",
					d, v.name, v.shape[i], l)
			}
		}
	}
	lengths := make([]int, len(dims))
	for i, d := range dims {
		lengths[i] = dimLen[d]
	}

	h := cdf.NewHeader(dims, lengths)
	for _, k := range c.global.Keys() {
		h.AddAttribute("", k, attrToCDF(k, c.global[k], log))
	}
	for _, v := range c.vars {
		h.AddVariable(v.name, v.dims, []float64{0})
		for _, k := range v.attrs.Keys() {
			h.AddAttribute(v.name, k, attrToCDF(k, v.attrs[k], log))
		}
	}
	h.Define()

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("tagtools: creating temporary archive: %w", err)
	}
	tmpName := tmp.Name()
	if err := writeArchiveData(tmp, h, c); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("tagtools: closing temporary archive: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("tagtools: replacing archive %s: %w", path, err)
	}
	return nil
}

func writeArchiveData(w *os.File, h *cdf.Header, c *archiveContents) error {
	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("tagtools: writing archive header: %w", err)
	}
	for _, v := range c.vars {
		end := f.Header.Lengths(v.name)
		start := make([]int, len(end))
		if _, err := f.Writer(v.name, start, end).Write(v.data); err != nil {
			return fmt.Errorf("tagtools: writing variable %s: %w", v.name, err)
		}
	}
	if err := cdf.UpdateNumRecs(w); err != nil {
		return fmt.Errorf("tagtools: writing archive: %w", err)
	}
	return nil
}

// attrToCDF converts an attribute value to one of the types that can be
// stored in a NetCDF header. Values that cannot be represented are
// stored as empty strings.
func attrToCDF(key string, val interface{}, log logrus.FieldLogger) interface{} {
	switch v := normalizeAttr(val).(type) {
	case string:
		return v
	case float64:
		return []float64{v}
	case int:
		if !fitsInt32(v) {
			return []float64{float64(v)}
		}
		return []int32{int32(v)}
	case []float64:
		o := make([]float64, len(v))
		copy(o, v)
		return o
	case []int:
		for _, x := range v {
			if !fitsInt32(x) {
				o := make([]float64, len(v))
				for i, x := range v {
					o[i] = float64(x)
				}
				return o
			}
		}
		o := make([]int32, len(v))
		for i, x := range v {
			o[i] = int32(x)
		}
		return o
	}
	log.WithFields(logrus.Fields{
		"attribute": key,
		"type":      fmt.Sprintf("%T", val),
	}).Warn("metadata must be strings or numbers: leaving attribute blank")
	return ""
}

// fitsInt32 reports whether v can be stored as a NetCDF INT. Classic
// files have no 64-bit integers, so larger values are stored as DOUBLE.
func fitsInt32(v int) bool {
	return v >= math.MinInt32 && v <= math.MaxInt32
}

// attrFromCDF converts a NetCDF attribute value to a scalar when it
// holds a single element.
func attrFromCDF(val interface{}) interface{} {
	switch v := val.(type) {
	case string:
		return v
	case []float64:
		if len(v) == 1 {
			return v[0]
		}
		o := make([]float64, len(v))
		copy(o, v)
		return o
	case []float32:
		if len(v) == 1 {
			return float64(v[0])
		}
		return normalizeAttr(v)
	case []int32:
		if len(v) == 1 {
			return int(v[0])
		}
		return normalizeAttr(v)
	case []int16:
		if len(v) == 1 {
			return int(v[0])
		}
		o := make([]int, len(v))
		for i, x := range v {
			o[i] = int(x)
		}
		return o
	case []uint8:
		if len(v) == 1 {
			return int(v[0])
		}
		o := make([]int, len(v))
		for i, x := range v {
			o[i] = int(x)
		}
		return o
	}
	return val
}

func valuesToFloat64(buf interface{}) ([]float64, error) {
	switch b := buf.(type) {
	case []float64:
		return b, nil
	case []float32:
		o := make([]float64, len(b))
		for i, x := range b {
			o[i] = float64(x)
		}
		return o, nil
	case []int32:
		o := make([]float64, len(b))
		for i, x := range b {
			o[i] = float64(x)
		}
		return o, nil
	case []int16:
		o := make([]float64, len(b))
		for i, x := range b {
			o[i] = float64(x)
		}
		return o, nil
	case []uint8:
		o := make([]float64, len(b))
		for i, x := range b {
			o[i] = float64(x)
		}
		return o, nil
	}
	return nil, fmt.Errorf("unsupported variable type %T", buf)
}
