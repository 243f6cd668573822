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
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/ctessum/sparse"
	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"
)

func testArchive(t *testing.T) *Archive {
	a := NewArchive(filepath.Join(t.TempDir(), "testset"))
	a.Now = func() time.Time { return time.Date(2021, time.July, 25, 13, 4, 5, 0, time.UTC) }
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)
	a.Log = log
	return a
}

func testAccel(depid string) *Sensor {
	d := sparse.ZerosDense(5, 3)
	for i := range d.Elements {
		d.Elements[i] = float64(i)*0.25 - 1
	}
	s := NewSensor("A", depid, d, 50)
	s.Set("unit", "m/s2")
	s.Set("axes", "FRU")
	s.Set("column_name", "x,y,z")
	s.Set("naxes", 3)
	s.Set("calibration", []float64{1.5, -2, 0.25})
	return s
}

func testDepth(depid string) *Sensor {
	d := sparse.ZerosDense(7)
	for i := range d.Elements {
		d.Elements[i] = 10 + float64(i)
	}
	s := NewSensor("P", depid, d, 5)
	s.Set("unit", "m H20")
	s.Set("axes", "D")
	return s
}

func TestNewArchiveSuffix(t *testing.T) {
	if p := NewArchive("mn12_345a").Path; p != "mn12_345a.nc" {
		t.Errorf("path = %s", p)
	}
	if p := NewArchive("mn12_345a.nc").Path; p != "mn12_345a.nc" {
		t.Errorf("path = %s", p)
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	a := testArchive(t)
	A := testAccel("mn21_001a")
	P := testDepth("mn21_001a")
	if err := a.Save(NewInfo("mn21_001a"), A, P); err != nil {
		t.Fatal(err)
	}

	t.Run("one", func(t *testing.T) {
		d, err := a.Load("A")
		if err != nil {
			t.Fatal(err)
		}
		if len(d.Sensors) != 1 {
			t.Fatalf("loaded %d sensors", len(d.Sensors))
		}
		got := d.Sensors["A"]
		if !reflect.DeepEqual(got.Data.Shape, A.Data.Shape) {
			t.Errorf("shape %v != %v", got.Data.Shape, A.Data.Shape)
		}
		if !reflect.DeepEqual(got.Data.Elements, A.Data.Elements) {
			t.Errorf("data %v != %v", got.Data.Elements, A.Data.Elements)
		}
		if diff := pretty.Diff(A.Attributes, got.Attributes); len(diff) > 0 {
			t.Errorf("attributes differ: %v", diff)
		}
	})

	t.Run("all", func(t *testing.T) {
		d, err := a.Load()
		if err != nil {
			t.Fatal(err)
		}
		if names := d.Names(); !reflect.DeepEqual(names, []string{"A", "P"}) {
			t.Errorf("names = %v", names)
		}
		if dep := d.Info.DepID(); dep != "mn21_001a" {
			t.Errorf("depid = %s", dep)
		}
		if cd := d.Info.String("creation_date"); cd != "25-Jul-2021 13:04:05" {
			t.Errorf("creation_date = %s", cd)
		}
		if !reflect.DeepEqual(d.Sensors["P"].Data.Elements, P.Data.Elements) {
			t.Errorf("P data %v", d.Sensors["P"].Data.Elements)
		}
		if fs := d.Sensors["P"].SamplingRate(); fs != 5 {
			t.Errorf("P sampling rate = %g", fs)
		}
	})

	t.Run("missing", func(t *testing.T) {
		if _, err := a.Load("Q"); !errors.Is(err, ErrNoVariable) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestArchiveLoadNotFound(t *testing.T) {
	a := testArchive(t)
	if _, err := a.Load(); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestArchiveDepIDMismatch(t *testing.T) {
	a := testArchive(t)
	if err := a.Save(testDepth("mn21_001a")); err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(a.Path)
	if err != nil {
		t.Fatal(err)
	}
	err = a.Add(testAccel("zc21_002b"))
	if !errors.Is(err, ErrDepIDMismatch) {
		t.Fatalf("err = %v", err)
	}
	after, err := os.ReadFile(a.Path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Error("archive changed after rejected write")
	}
	info := NewInfo("zc21_002b")
	if err := a.Add(info); !errors.Is(err, ErrDepIDMismatch) {
		t.Errorf("info err = %v", err)
	}
}

func TestArchiveRemove(t *testing.T) {
	a := testArchive(t)
	X := NewSensor("X", "mn21_001a", sparse.ZerosDense(4), 1)
	if err := a.Save(NewInfo("mn21_001a"), testAccel("mn21_001a"), X, testDepth("mn21_001a")); err != nil {
		t.Fatal(err)
	}
	if err := a.Remove("X"); err != nil {
		t.Fatal(err)
	}
	names, err := a.Variables()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(names, []string{"A", "P"}) {
		t.Errorf("variables = %v", names)
	}
	d, err := a.Load()
	if err != nil {
		t.Fatal(err)
	}
	if d.Info.DepID() != "mn21_001a" {
		t.Errorf("info lost: %v", d.Info.Attributes)
	}
	if d.Sensors["A"].Data.Shape[1] != 3 {
		t.Errorf("A shape = %v", d.Sensors["A"].Data.Shape)
	}

	if err := a.Remove(InfoName); !errors.Is(err, ErrReservedName) {
		t.Errorf("remove info: %v", err)
	}
	if err := a.Remove("X"); !errors.Is(err, ErrNoVariable) {
		t.Errorf("remove twice: %v", err)
	}
	missing := testArchive(t)
	if err := missing.Remove("A"); !errors.Is(err, ErrNotFound) {
		t.Errorf("remove from missing archive: %v", err)
	}
}

func TestArchiveOverwrite(t *testing.T) {
	a := testArchive(t)
	if err := a.Save(testDepth("mn21_001a")); err != nil {
		t.Fatal(err)
	}
	replacement := NewSensor("P", "mn21_001a", sparse.ZerosDense(3), 1)
	if err := a.Add(replacement); !errors.Is(err, ErrDeclined) {
		t.Fatalf("err = %v", err)
	}
	var asked string
	a.Confirm = func(prompt string) bool {
		asked = prompt
		return true
	}
	if err := a.Add(replacement); err != nil {
		t.Fatal(err)
	}
	if asked == "" {
		t.Error("overwrite was not confirmed")
	}
	d, err := a.Load("P")
	if err != nil {
		t.Fatal(err)
	}
	if n := d.Sensors["P"].NumSamples(); n != 3 {
		t.Errorf("samples = %d", n)
	}
}

func TestArchiveEmptySensor(t *testing.T) {
	a := testArchive(t)
	if err := a.Save(NewSensor("L", "mn21_001a", nil, 1)); err != nil {
		t.Fatal(err)
	}
	d, err := a.Load("L")
	if err != nil {
		t.Fatal(err)
	}
	if d.Sensors["L"].Data != nil {
		t.Errorf("data = %v", d.Sensors["L"].Data)
	}
}

func TestArchiveInfoMerge(t *testing.T) {
	a := testArchive(t)
	if err := a.Save(testDepth("mn21_001a")); err != nil {
		t.Fatal(err)
	}
	info := NewInfo("mn21_001a")
	info.Set("animal_species_common", "humpback whale")
	info.Set("dtype_nfiles", 4)
	info.Set("nested", map[string]string{"a": "b"})
	if err := a.Add(info); err != nil {
		t.Fatal(err)
	}
	d, err := a.Load()
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]interface{}{
		"animal_species_common": "humpback whale",
		"dtype_nfiles":          4,
		"nested":                "",
		"depid":                 "mn21_001a",
	}
	for k, v := range want {
		if !reflect.DeepEqual(d.Info.Attributes[k], v) {
			t.Errorf("%s: %#v != %#v", k, d.Info.Attributes[k], v)
		}
	}
	if _, ok := d.Sensors["P"]; !ok {
		t.Error("sensor lost after info merge")
	}
}

func TestArchiveInfoOnly(t *testing.T) {
	a := testArchive(t)
	if err := a.Save(NewInfo("mn21_001a")); err != nil {
		t.Fatal(err)
	}
	d, err := a.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Sensors) != 0 {
		t.Errorf("sensors = %v", d.Names())
	}
	if dep := d.Info.DepID(); dep != "mn21_001a" {
		t.Errorf("depid = %s", dep)
	}
	names, err := a.Variables()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 0 {
		t.Errorf("variables = %v", names)
	}

	t.Run("add sensor", func(t *testing.T) {
		if err := a.Add(testDepth("mn21_001a")); err != nil {
			t.Fatal(err)
		}
		c, err := readArchive(a.Path)
		if err != nil {
			t.Fatal(err)
		}
		if len(c.vars) != 1 || c.vars[0].name != "P" {
			t.Errorf("placeholder kept alongside sensors: %d variables", len(c.vars))
		}
	})

	t.Run("remove last sensor", func(t *testing.T) {
		if err := a.Remove("P"); err != nil {
			t.Fatal(err)
		}
		d, err := a.Load()
		if err != nil {
			t.Fatal(err)
		}
		if len(d.Sensors) != 0 {
			t.Errorf("sensors = %v", d.Names())
		}
	})
}

func TestArchiveLargeIntAttributes(t *testing.T) {
	a := testArchive(t)
	s := testDepth("mn21_001a")
	s.Set("start_ms", int64(5000000000))
	s.Set("offsets", []int64{1, -3000000000})
	s.Set("nsamps", 7)
	if err := a.Save(s); err != nil {
		t.Fatal(err)
	}
	d, err := a.Load("P")
	if err != nil {
		t.Fatal(err)
	}
	got := d.Sensors["P"]
	if v, ok := got.Int("start_ms"); !ok || v != 5000000000 {
		t.Errorf("start_ms = %v", got.Attributes["start_ms"])
	}
	if v, ok := got.Int("nsamps"); !ok || v != 7 {
		t.Errorf("nsamps = %v", got.Attributes["nsamps"])
	}
	want := []float64{1, -3000000000}
	if !reflect.DeepEqual(got.Attributes["offsets"], want) {
		t.Errorf("offsets = %v", got.Attributes["offsets"])
	}
}

func TestDatasetRecordsSave(t *testing.T) {
	a := testArchive(t)
	if err := a.Save(NewInfo("mn21_001a"), testDepth("mn21_001a"), testAccel("mn21_001a")); err != nil {
		t.Fatal(err)
	}
	d, err := a.Load()
	if err != nil {
		t.Fatal(err)
	}
	recs := d.Records()
	var names []string
	for _, r := range recs {
		names = append(names, r.RecordName())
	}
	if want := []string{InfoName, "A", "P"}; !reflect.DeepEqual(names, want) {
		t.Errorf("records = %v, want %v", names, want)
	}

	b := NewArchive(filepath.Join(t.TempDir(), "copy"))
	b.Now = a.Now
	b.Log = a.Log
	if err := b.Save(recs...); err != nil {
		t.Fatal(err)
	}
	d2, err := b.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(d2.Names(), []string{"A", "P"}) {
		t.Errorf("names = %v", d2.Names())
	}
	if dep := d2.Info.DepID(); dep != "mn21_001a" {
		t.Errorf("depid = %s", dep)
	}
}
