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
	"sort"

	"github.com/spf13/cast"
)

// Attributes holds the metadata of a record. Values are stored as
// string, float64, int, []float64 or []int. Other values can be held
// in memory but are written to archives as empty strings.
type Attributes map[string]interface{}

// Set normalizes val and stores it under key.
func (a Attributes) Set(key string, val interface{}) {
	a[key] = normalizeAttr(val)
}

func normalizeAttr(val interface{}) interface{} {
	switch v := val.(type) {
	case string, float64, int, []float64, []int:
		return v
	case float32:
		return float64(v)
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return cast.ToInt(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case []float32:
		o := make([]float64, len(v))
		for i, x := range v {
			o[i] = float64(x)
		}
		return o
	case []int32:
		o := make([]int, len(v))
		for i, x := range v {
			o[i] = int(x)
		}
		return o
	case []int64:
		o := make([]int, len(v))
		for i, x := range v {
			o[i] = int(x)
		}
		return o
	case fmt.Stringer:
		return v.String()
	}
	return val
}

// String returns the value of key formatted as a string, or "" if
// key is not present.
func (a Attributes) String(key string) string {
	v, ok := a[key]
	if !ok {
		return ""
	}
	switch vv := v.(type) {
	case []float64, []int:
		return fmt.Sprint(vv)
	}
	return cast.ToString(v)
}

// Float64 returns the value of key as a float64. ok is false if the
// key is missing or cannot be converted.
func (a Attributes) Float64(key string) (v float64, ok bool) {
	x, present := a[key]
	if !present {
		return 0, false
	}
	v, err := cast.ToFloat64E(x)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Int returns the value of key as an int.
func (a Attributes) Int(key string) (v int, ok bool) {
	x, present := a[key]
	if !present {
		return 0, false
	}
	v, err := cast.ToIntE(x)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Keys returns the sorted attribute names.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Copy returns a shallow copy of a.
func (a Attributes) Copy() Attributes {
	o := make(Attributes, len(a))
	for k, v := range a {
		o[k] = v
	}
	return o
}

// DepID returns the deployment identifier.
func (a Attributes) DepID() string { return a.String("depid") }
