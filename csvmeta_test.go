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
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/kr/pretty"
)

func TestStripQuotes(t *testing.T) {
	for in, want := range map[string]string{
		`"abc"`:   "abc",
		` "a b" `: "a b",
		`"`:       `"`,
		`abc"`:    `abc"`,
		``:        ``,
	} {
		if got := StripQuotes(in); got != want {
			t.Errorf("%q: %q != %q", in, got, want)
		}
	}
}

func TestReadMetadataCSV(t *testing.T) {
	dir := t.TempDir()
	t.Run("header", func(t *testing.T) {
		content := "field,description,value\n" +
			"depid,deployment,\"mn16_212a\"\n" +
			"animal.dbase.url,link,\"http://example.org/a,b\"\n" +
			"dephist.device.regset,format,dd-mm-yyyy HH:MM:SS\n"
		if err := os.WriteFile(filepath.Join(dir, "h.csv"), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		got, err := ReadMetadataCSV(dir, "h")
		if err != nil {
			t.Fatal(err)
		}
		want := Attributes{
			"depid":                 "mn16_212a",
			"animal_dbase_url":      "http://example.org/a,b",
			"dephist_device_regset": "dd-mm-yyyy HH:MM:SS",
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%v", pretty.Diff(got, want))
		}
	})
	t.Run("no header", func(t *testing.T) {
		content := "depid,x\nanimal.species,Mesoplodon\n"
		if err := os.WriteFile(filepath.Join(dir, "n.csv"), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		got, err := ReadMetadataCSV(dir, "n.csv")
		if err != nil {
			t.Fatal(err)
		}
		if got.DepID() != "x" || got.String("animal_species") != "Mesoplodon" {
			t.Errorf("%v", got)
		}
	})
	t.Run("missing", func(t *testing.T) {
		if _, err := ReadMetadataCSV(dir, "nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v", err)
		}
		if _, err := ReadMetadataCSV(dir, ""); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("err = %v", err)
		}
	})
}

const testCATS = "Date (UTC),Time (UTC),Accelerometer X [m/s²],Accelerometer Y [m/s²],Light [],Depth [m],GPS (raw) 1 [raw],GPS (raw) 2 [raw]\r\n" +
	"30.07.2016,09:11:17.000,1.5,0.5,,10.25,,\r\n" +
	"30.07.2016,09:11:17.040,1.6,0.25,,10.5,,\r\n" +
	"30.07.2016,09:11:17.080,1.7,0,,10.75,30.07.2016,09:11:17.000\r\n" +
	"30.07.2016,09:11:17.120,1.8,-0.5,,11,,\r\n"

func writeCATS(t *testing.T) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "20160730-091117-Froback 11")
	if err := os.WriteFile(name+".csv", []byte(testCATS), 0644); err != nil {
		t.Fatal(err)
	}
	return name
}

func TestReadCATSCSV(t *testing.T) {
	name := writeCATS(t)
	d, err := ReadCATSCSV(name, 0, quietLog())
	if err != nil {
		t.Fatal(err)
	}
	wantHdr := []string{"Date (UTC)", "Accelerometer X [m/s²]", "Accelerometer Y [m/s²]", "Depth [m]", catsGPSDate}
	if !reflect.DeepEqual(d.Header, wantHdr) {
		t.Errorf("header: %v", pretty.Diff(d.Header, wantHdr))
	}
	if !reflect.DeepEqual(d.Empty, []string{"Light []"}) {
		t.Errorf("empty = %v", d.Empty)
	}
	if len(d.Values) != 4 {
		t.Fatalf("rows = %d", len(d.Values))
	}
	t0 := 736541 + (9*3600+11*60+17.0)/86400
	if math.Abs(d.Values[0][0]-t0) > 1e-9 {
		t.Errorf("time = %f != %f", d.Values[0][0], t0)
	}
	if math.Abs(d.Values[2][4]-t0) > 1e-9 {
		t.Errorf("gps time = %f != %f", d.Values[2][4], t0)
	}
	if !math.IsNaN(d.Values[0][4]) {
		t.Errorf("empty gps field = %f", d.Values[0][4])
	}
	if dep := d.Column("Depth [m]"); !reflect.DeepEqual(dep, []float64{10.25, 10.5, 10.75, 11}) {
		t.Errorf("depth = %v", dep)
	}
	if fs := d.SamplingRate(); fs != 25 {
		t.Errorf("fs = %g", fs)
	}

	t.Run("maxsamps", func(t *testing.T) {
		d, err := ReadCATSCSV(name+".csv", 2, quietLog())
		if err != nil {
			t.Fatal(err)
		}
		if len(d.Values) != 2 {
			t.Errorf("rows = %d", len(d.Values))
		}
	})
	t.Run("missing", func(t *testing.T) {
		if _, err := ReadCATSCSV(name+"x", 0, quietLog()); !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestCATSSensors(t *testing.T) {
	d, err := ReadCATSCSV(writeCATS(t), 0, quietLog())
	if err != nil {
		t.Fatal(err)
	}
	ss, err := d.Sensors("mn16_212a")
	if err != nil {
		t.Fatal(err)
	}
	if len(ss) != 2 {
		t.Fatalf("sensors = %d", len(ss))
	}
	acc, dep := ss[0], ss[1]
	if acc.Name != "accelerometer" || acc.NumColumns() != 2 || acc.NumSamples() != 4 {
		t.Errorf("acc = %s %d %d", acc.Name, acc.NumColumns(), acc.NumSamples())
	}
	if !reflect.DeepEqual(acc.ColumnNames(), []string{"x", "y"}) {
		t.Errorf("columns = %v", acc.ColumnNames())
	}
	if acc.String("unit") != "m/s²" || acc.SamplingRate() != 25 {
		t.Errorf("acc attrs = %v", acc.Attributes)
	}
	if dep.Name != "depth" || dep.Column(0)[3] != 11 {
		t.Errorf("depth = %s %v", dep.Name, dep.Column(0))
	}
}

func TestSplitCATSHeader(t *testing.T) {
	tests := []struct{ h, group, axis, unit string }{
		{"Accelerometer X [m/s²]", "Accelerometer", "x", "m/s²"},
		{"Depth [m]", "Depth", "", "m"},
		{"Temperature (depth) [°C]", "Temperature (depth)", "", "°C"},
		{"Battery", "Battery", "", ""},
	}
	for _, test := range tests {
		g, a, u := splitCATSHeader(test.h)
		if g != test.group || a != test.axis || u != test.unit {
			t.Errorf("%s: %q %q %q", test.h, g, a, u)
		}
	}
}
