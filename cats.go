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
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

// CATS loggers write the date and time of each row, and of each GPS
// fix, as two separate fields.
const (
	catsGPSDate = "GPS (raw) 1 [raw]"
	catsGPSTime = "GPS (raw) 2 [raw]"
	catsLayout  = "02-01-2006 15:04:05"
)

// CATSData holds the contents of a CATS CSV file. Values has a row for
// each data line. Column 0 holds the row time as a serial day number and
// the remaining columns follow Header. Empty names the fields that held
// no numbers in any row; they are not in Values.
type CATSData struct {
	Values [][]float64
	Header []string
	Empty  []string
}

// ReadCATSCSV reads a CSV file written by a CATS tag. The .csv suffix is
// added to name if missing. If maxSamps is greater than zero at most
// that many rows are read. Fields that do not hold a number read as NaN.
func ReadCATSCSV(name string, maxSamps int, log logrus.FieldLogger) (*CATSData, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if !strings.HasSuffix(name, ".csv") {
		name += ".csv"
	}
	f, err := os.Open(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("tagtools: CATS file %s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("tagtools: reading CATS file: %w", err)
	}
	defer f.Close()
	d, err := readCATS(f, maxSamps, log.WithField("file", name))
	if err != nil {
		return nil, fmt.Errorf("tagtools: reading CATS file %s: %w", name, err)
	}
	return d, nil
}

// catsColumns maps the fields of a CATS line to output columns.
type catsColumns struct {
	header  []string
	nfields int
	fields  []int // source field for each output column after the first
	gpsDate int   // -1 if absent
	gpsTime int
}

func newCATSColumns(hdr []string) (*catsColumns, error) {
	if len(hdr) < 2 {
		return nil, fmt.Errorf("header has %d fields, need at least date and time: %w",
			len(hdr), ErrInvalidArgument)
	}
	c := &catsColumns{nfields: len(hdr), gpsDate: -1, gpsTime: -1}
	for i, h := range hdr {
		switch h {
		case catsGPSDate:
			c.gpsDate = i
		case catsGPSTime:
			c.gpsTime = i
		}
	}
	if c.gpsTime < 0 {
		c.gpsDate = -1
	}
	c.header = append(c.header, hdr[0])
	for i := 2; i < len(hdr); i++ {
		if i == c.gpsTime && c.gpsDate >= 0 {
			continue
		}
		c.header = append(c.header, hdr[i])
		c.fields = append(c.fields, i)
	}
	return c, nil
}

func (c *catsColumns) row(fields []string) []float64 {
	get := func(i int) string {
		if i < len(fields) {
			return strings.TrimSpace(fields[i])
		}
		return ""
	}
	o := make([]float64, len(c.header))
	o[0] = catsDatenum(get(0), get(1))
	for j, i := range c.fields {
		if i == c.gpsDate {
			o[j+1] = catsDatenum(get(i), get(c.gpsTime))
			continue
		}
		v, err := strconv.ParseFloat(get(i), 64)
		if err != nil {
			v = math.NaN()
		}
		o[j+1] = v
	}
	return o
}

// catsDatenum converts a dd.mm.yyyy date and a HH:MM:SS.fff time to a
// serial day number. Unparseable values give NaN.
func catsDatenum(date, tm string) float64 {
	if date == "" || tm == "" {
		return math.NaN()
	}
	date = strings.NewReplacer(".", "-", "/", "-").Replace(date)
	t, err := time.ParseInLocation(catsLayout, date+" "+tm, time.UTC)
	if err != nil {
		return math.NaN()
	}
	return TimeToDatenum(t)
}

func readCATS(r io.Reader, maxSamps int, log logrus.FieldLogger) (*CATSData, error) {
	br := bufio.NewReaderSize(r, 1<<20)
	line, err := br.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return nil, fmt.Errorf("no header found: %w", ErrInvalidArgument)
		}
		return nil, err
	}
	cols, err := newCATSColumns(strings.Split(strings.TrimRight(line, "\r\n"), ","))
	if err != nil {
		return nil, err
	}
	d := &CATSData{}
	for n := 1; maxSamps <= 0 || len(d.Values) < maxSamps; n++ {
		line, err = br.ReadString('\n')
		if line = strings.TrimRight(line, "\r\n"); line != "" {
			fields := strings.Split(line, ",")
			if len(fields) > cols.nfields {
				log.WithFields(logrus.Fields{"line": n, "fields": len(fields)}).Warn("too many fields in line: ignoring the extra fields")
			}
			d.Values = append(d.Values, cols.row(fields))
			if n%1000000 == 0 {
				log.WithField("rows", n).Info("reading CATS data")
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	d.Header = cols.header
	d.dropEmpty()
	return d, nil
}

// dropEmpty removes the columns that are NaN in every row.
func (d *CATSData) dropEmpty() {
	if len(d.Values) == 0 {
		return
	}
	var keep []int
	var header []string
	for j, h := range d.Header {
		empty := true
		for _, row := range d.Values {
			if !math.IsNaN(row[j]) {
				empty = false
				break
			}
		}
		if empty {
			d.Empty = append(d.Empty, h)
			continue
		}
		keep = append(keep, j)
		header = append(header, h)
	}
	if len(keep) == len(d.Header) {
		return
	}
	for i, row := range d.Values {
		o := make([]float64, len(keep))
		for k, j := range keep {
			o[k] = row[j]
		}
		d.Values[i] = o
	}
	d.Header = header
}

// Column returns the values of the named column, or nil.
func (d *CATSData) Column(name string) []float64 {
	for j, h := range d.Header {
		if h == name {
			o := make([]float64, len(d.Values))
			for i, row := range d.Values {
				o[i] = row[j]
			}
			return o
		}
	}
	return nil
}

// SamplingRate estimates the sampling rate in Hz from the median
// interval between row times.
func (d *CATSData) SamplingRate() float64 {
	var dt []float64
	for i := 1; i < len(d.Values); i++ {
		// Serial day numbers resolve about 10 us.
		v := math.Round((d.Values[i][0]-d.Values[i-1][0])*86400*1e4) / 1e4
		if !math.IsNaN(v) && v > 0 {
			dt = append(dt, v)
		}
	}
	if len(dt) == 0 {
		return 0
	}
	sort.Float64s(dt)
	m := stat.Quantile(0.5, stat.Empirical, dt, nil)
	return math.Round(1/m*1000) / 1000
}

var catsField = regexp.MustCompile(`^(.*?)\s*(?:\[(.*)\])?$`)

// splitCATSHeader splits a field name such as "Accelerometer X [m/s²]"
// into a group name, an axis and a unit.
func splitCATSHeader(h string) (group, axis, unit string) {
	m := catsField.FindStringSubmatch(strings.TrimSpace(h))
	name := m[1]
	unit = m[2]
	words := strings.Fields(name)
	if n := len(words); n > 1 && len(words[n-1]) == 1 {
		axis = strings.ToLower(words[n-1])
		words = words[:n-1]
	}
	return strings.Join(words, " "), axis, unit
}

// sensorName returns a variable name made of lower-case letters, digits
// and underscores.
func sensorName(s string) string {
	var b strings.Builder
	under := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			under = false
		} else if !under && b.Len() > 0 {
			b.WriteByte('_')
			under = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// Sensors groups the columns of d into regularly sampled sensor records,
// one per measured quantity. Columns that differ only in their axis,
// such as "Accelerometer X" and "Accelerometer Y", form one record.
// Timestamp columns are not converted.
func (d *CATSData) Sensors(depid string) ([]*Sensor, error) {
	fs := d.SamplingRate()
	if fs <= 0 {
		return nil, fmt.Errorf("tagtools: CATS data has no regular sampling: %w", ErrNoSampleRate)
	}
	type group struct {
		name, full, unit string
		cols       []int
		axes       []string
	}
	var groups []*group
	byName := make(map[string]*group)
	for j := 1; j < len(d.Header); j++ {
		if d.Header[j] == catsGPSDate {
			continue
		}
		g, axis, unit := splitCATSHeader(d.Header[j])
		name := sensorName(g)
		if name == "" || name == InfoName {
			continue
		}
		gr, ok := byName[name]
		if !ok {
			gr = &group{name: name, full: g, unit: unit}
			byName[name] = gr
			groups = append(groups, gr)
		}
		gr.cols = append(gr.cols, j)
		gr.axes = append(gr.axes, axis)
	}
	var o []*Sensor
	for _, g := range groups {
		data := sparse.ZerosDense(len(d.Values), len(g.cols))
		for i, row := range d.Values {
			for k, j := range g.cols {
				data.Set(row[j], i, k)
			}
		}
		if len(g.cols) == 1 {
			data.Shape = []int{len(d.Values)}
		}
		s := NewSensor(g.name, depid, data, fs)
		s.Set("full_name", g.full)
		if g.unit != "" {
			s.Set("unit", g.unit)
		}
		if len(g.cols) > 1 && g.axes[0] != "" {
			s.Set("column_name", strings.Join(g.axes, ","))
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		o = append(o, s)
	}
	return o, nil
}
