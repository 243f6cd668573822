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
	"strings"

	"github.com/ctessum/sparse"
)

// Sampling modes.
const (
	Regular   = "regular"
	Irregular = "irregular"
)

// A Record is a named sensor or metadata entry that can be stored in an
// Archive.
type Record interface {
	RecordName() string
	RecordAttributes() Attributes
}

// Sensor is a named array of samples with its attributes. Data has
// time along the first dimension and is either [samples] or
// [samples, columns]. Irregularly sampled sensors store the sample
// times, in seconds, in the first column. Data is nil for a sensor
// with no samples.
type Sensor struct {
	Name string
	Data *sparse.DenseArray
	Attributes
}

// RecordName implements Record.
func (s *Sensor) RecordName() string { return s.Name }

// RecordAttributes implements Record.
func (s *Sensor) RecordAttributes() Attributes { return s.Attributes }

// Info holds file-level deployment metadata.
type Info struct {
	Attributes
}

// NewInfo returns deployment metadata for depid.
func NewInfo(depid string) *Info {
	i := &Info{Attributes: make(Attributes)}
	if depid != "" {
		i.Set("depid", depid)
	}
	return i
}

// RecordName implements Record.
func (i *Info) RecordName() string { return InfoName }

// RecordAttributes implements Record.
func (i *Info) RecordAttributes() Attributes { return i.Attributes }

// NewSensor creates a regularly sampled sensor record.
func NewSensor(name, depid string, data *sparse.DenseArray, fs float64) *Sensor {
	s := &Sensor{Name: name, Data: data, Attributes: make(Attributes)}
	s.Set("name", name)
	s.Set("depid", depid)
	s.Set("sampling", Regular)
	s.Set("sampling_rate", fs)
	s.Set("sampling_rate_unit", "Hz")
	return s
}

// NewIrregularSensor creates a sensor record whose sample times, in
// seconds, are held in the first column of data.
func NewIrregularSensor(name, depid string, data *sparse.DenseArray) *Sensor {
	s := &Sensor{Name: name, Data: data, Attributes: make(Attributes)}
	s.Set("name", name)
	s.Set("depid", depid)
	s.Set("sampling", Irregular)
	return s
}

// sensorType describes a common sensor kind.
type sensorType struct {
	name, fullName, description, unit, unitName, unitLabel, axes, columns string
}

var sensorTypes = map[string]sensorType{
	"acc":   {"A", "acceleration", "triaxial acceleration", "m/s2", "meters per second squared", "acceleration (m/s^2)", "FRU", "x,y,z"},
	"mag":   {"M", "magnetic field", "triaxial magnetic field", "uT", "microTesla", "magnetic field (uT)", "FRU", "x,y,z"},
	"gyro":  {"G", "gyroscope", "triaxial angular rate", "rad/s", "radians per second", "angular rate (rad/s)", "FRU", "x,y,z"},
	"press": {"P", "depth", "depth", "m H20", "meters H20 (salt)", "depth (m)", "D", ""},
	"temp":  {"T", "temperature", "temperature", "degrees Celsius", "degrees Celsius", "temperature (C)", "", ""},
	"light": {"L", "light", "light level", "counts", "counts", "light (counts)", "", ""},
	"pos":   {"POS", "position", "GPS position", "degrees", "decimal degrees", "position (deg)", "", "time,lat,long"},
}

var sensorAliases = map[string]string{
	"a": "acc", "accel": "acc", "acceleration": "acc",
	"m": "mag", "magnet": "mag",
	"g": "gyro", "gyr": "gyro",
	"p": "press", "pres": "press", "depth": "press", "pressure": "press",
	"t": "temp", "temperature": "temp",
	"l": "light",
	"gps": "pos", "position": "pos",
}

// NewTypedSensor creates a regularly sampled sensor record pre-filled
// with the attributes of a common sensor type such as "acc", "mag",
// "gyro", "press", "temp", "light" or "pos". A sampling rate of 0
// creates an irregularly sampled record.
func NewTypedSensor(data *sparse.DenseArray, fs float64, depid, sensType string) (*Sensor, error) {
	key := strings.ToLower(sensType)
	if a, ok := sensorAliases[key]; ok {
		key = a
	}
	st, ok := sensorTypes[key]
	if !ok {
		return nil, fmt.Errorf("tagtools: unknown sensor type %q: %w", sensType, ErrInvalidArgument)
	}
	var s *Sensor
	if fs > 0 {
		s = NewSensor(st.name, depid, data, fs)
	} else {
		s = NewIrregularSensor(st.name, depid, data)
	}
	s.Set("full_name", st.fullName)
	s.Set("description", st.description)
	s.Set("unit", st.unit)
	s.Set("unit_name", st.unitName)
	s.Set("unit_label", st.unitLabel)
	if st.axes != "" {
		s.Set("axes", st.axes)
		if st.axes != "D" {
			s.Set("frame", "tag")
		}
	}
	if st.columns != "" {
		s.Set("column_name", st.columns)
	}
	return s, s.Validate()
}

// Regular reports whether s is regularly sampled.
func (s *Sensor) Regular() bool { return s.String("sampling") == Regular }

// SamplingRate returns the sampling rate in Hz, or 0 for irregular
// sensors.
func (s *Sensor) SamplingRate() float64 {
	if !s.Regular() {
		return 0
	}
	fs, _ := s.Float64("sampling_rate")
	return fs
}

// NumSamples returns the length of the first data dimension.
func (s *Sensor) NumSamples() int {
	if s.Data == nil || len(s.Data.Shape) == 0 {
		return 0
	}
	return s.Data.Shape[0]
}

// NumColumns returns the number of data columns.
func (s *Sensor) NumColumns() int {
	if s.Data == nil || len(s.Data.Shape) == 0 {
		return 0
	}
	if len(s.Data.Shape) == 1 {
		return 1
	}
	return s.Data.Shape[1]
}

// Column returns a copy of column j of the data.
func (s *Sensor) Column(j int) []float64 {
	return column(s.Data, j)
}

func column(d *sparse.DenseArray, j int) []float64 {
	if d == nil || len(d.Shape) == 0 {
		return nil
	}
	n := d.Shape[0]
	o := make([]float64, n)
	if len(d.Shape) == 1 {
		copy(o, d.Elements)
		return o
	}
	for i := 0; i < n; i++ {
		o[i] = d.Get(i, j)
	}
	return o
}

// columns returns a new array holding columns [from, to) of d.
func columns(d *sparse.DenseArray, from, to int) *sparse.DenseArray {
	n := d.Shape[0]
	w := to - from
	o := sparse.ZerosDense(n, w)
	for i := 0; i < n; i++ {
		for j := 0; j < w; j++ {
			o.Set(d.Get(i, from+j), i, j)
		}
	}
	return o
}

// ColumnNames returns the column_name attribute split at commas.
func (s *Sensor) ColumnNames() []string {
	c := s.String("column_name")
	if c == "" {
		return nil
	}
	names := strings.Split(c, ",")
	for i, n := range names {
		names[i] = strings.TrimSpace(n)
	}
	return names
}

// StartOffset returns the time in seconds from the deployment start to
// the first sample.
func (s *Sensor) StartOffset() float64 {
	v, _ := s.Float64("start_offset")
	return v
}

// Validate checks that s holds a consistent sensor record.
func (s *Sensor) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("tagtools: sensor has no name: %w", ErrInvalidArgument)
	}
	if s.Name == InfoName || strings.HasPrefix(s.Name, "_") {
		return fmt.Errorf("tagtools: %q cannot be used as a sensor name: %w", s.Name, ErrReservedName)
	}
	if s.DepID() == "" {
		return fmt.Errorf("tagtools: sensor %s has no depid: %w", s.Name, ErrInvalidArgument)
	}
	switch s.String("sampling") {
	case Regular:
		if fs, ok := s.Float64("sampling_rate"); !ok || fs <= 0 {
			return fmt.Errorf("tagtools: sensor %s is regularly sampled but has no sampling rate: %w",
				s.Name, ErrSampling)
		}
	case Irregular:
		if s.NumSamples() > 0 && s.NumColumns() < 1 {
			return fmt.Errorf("tagtools: sensor %s is irregularly sampled but has no time column: %w",
				s.Name, ErrSampling)
		}
	default:
		return fmt.Errorf("tagtools: sensor %s sampling must be %q or %q: %w",
			s.Name, Regular, Irregular, ErrSampling)
	}
	if s.Data != nil && len(s.Data.Shape) > 2 {
		return fmt.Errorf("tagtools: sensor %s has %d dimensions, at most 2 are allowed: %w",
			s.Name, len(s.Data.Shape), ErrInvalidArgument)
	}
	return nil
}

// SensorData holds the samples of a sensor along with their timing.
// Fs is set for regularly sampled data and Times otherwise.
type SensorData struct {
	Data  *sparse.DenseArray
	Fs    float64
	Times []float64
}

// SensorVars extracts the samples and timing from s. When
// requireRegular is true an irregularly sampled sensor is an error.
func SensorVars(s *Sensor, requireRegular bool) (*SensorData, error) {
	if s == nil {
		return nil, fmt.Errorf("tagtools: nil sensor: %w", ErrInvalidArgument)
	}
	if s.Regular() {
		return &SensorData{Data: s.Data, Fs: s.SamplingRate()}, nil
	}
	if requireRegular {
		return nil, fmt.Errorf("tagtools: sensor %s must be regularly sampled: %w", s.Name, ErrSampling)
	}
	if s.String("sampling") != Irregular {
		return nil, fmt.Errorf("tagtools: sensor %s has unknown sampling: %w", s.Name, ErrSampling)
	}
	o := &SensorData{Times: s.Column(0)}
	if s.NumColumns() > 1 {
		o.Data = columns(s.Data, 1, s.NumColumns())
	} else {
		o.Data = sparse.ZerosDense(len(o.Times), 1)
		for i := range o.Data.Elements {
			o.Data.Elements[i] = 1
		}
	}
	return o, nil
}

// SensorVarsPair extracts the samples of x and y after checking that
// they are sampled the same way, at the same rate and with the same
// number of samples.
func SensorVarsPair(x, y *Sensor, requireRegular bool) (xd, yd *SensorData, err error) {
	if x == nil || y == nil {
		return nil, nil, fmt.Errorf("tagtools: nil sensor: %w", ErrInvalidArgument)
	}
	if x.Regular() != y.Regular() {
		return nil, nil, fmt.Errorf("tagtools: sensors %s and %s must both be sampled in the same way: %w",
			x.Name, y.Name, ErrSampling)
	}
	if xd, err = SensorVars(x, requireRegular); err != nil {
		return nil, nil, err
	}
	if yd, err = SensorVars(y, requireRegular); err != nil {
		return nil, nil, err
	}
	if x.Regular() && xd.Fs != yd.Fs {
		return nil, nil, fmt.Errorf("tagtools: sensors %s and %s must have the same sampling rate (%g != %g): %w",
			x.Name, y.Name, xd.Fs, yd.Fs, ErrSampling)
	}
	if x.NumSamples() != y.NumSamples() {
		return nil, nil, fmt.Errorf("tagtools: sensors %s and %s must have the same number of samples (%d != %d): %w",
			x.Name, y.Name, x.NumSamples(), y.NumSamples(), ErrSampling)
	}
	return xd, yd, nil
}
