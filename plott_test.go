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
	"testing"

	"github.com/ctessum/sparse"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

func TestTimeUnit(t *testing.T) {
	tests := []struct {
		span float64
		div  float64
		unit string
	}{
		{10, 1, "s"},
		{1999, 1, "s"},
		{2000, 60, "min"},
		{3e4, 3600, "hr"},
		{6e5, 86400, "day"},
	}
	for _, test := range tests {
		div, unit := timeUnit(test.span)
		if div != test.div || unit != test.unit {
			t.Errorf("%g: %g %s", test.span, div, unit)
		}
	}
}

func TestPlott(t *testing.T) {
	depth := testDepth("tt21_001a")
	depth.Set("axes", "D")
	depth.Set("full_name", "depth")
	depth.Set("unit", "m")
	pd, err := PanelFromSensor(depth)
	if err != nil {
		t.Fatal(err)
	}
	if !pd.Reverse || pd.Label != "depth (m)" {
		t.Errorf("panel = %+v", pd)
	}

	acc := testAccel("tt21_001a")
	pa, err := PanelFromSensor(acc)
	if err != nil {
		t.Fatal(err)
	}

	ev := sparse.ZerosDense(3, 2)
	for i, v := range []float64{100, 1, 2500, math.NaN(), 4000, 3} {
		ev.Elements[i] = v
	}
	events := NewIrregularSensor("E", "tt21_001a", ev)
	pe, err := PanelFromSensor(events)
	if err != nil {
		t.Fatal(err)
	}

	f, err := Plott(pd, pa, pe)
	if err != nil {
		t.Fatal(err)
	}
	if f.Unit != "min" || f.Start != 0 || math.Abs(f.End-4000.0/60) > 1e-9 {
		t.Errorf("axis = %s %g %g", f.Unit, f.Start, f.End)
	}
	if _, ok := f.Plots[0].Y.Scale.(plot.InvertedScale); !ok {
		t.Errorf("depth axis is not reversed")
	}
	if f.Plots[2].X.Label.Text != "Time (min)" {
		t.Errorf("x label = %q", f.Plots[2].X.Label.Text)
	}
	path := filepath.Join(t.TempDir(), "f.png")
	if err := f.Save(path, 6*vg.Inch, 4*vg.Inch); err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Errorf("figure not written: %v", err)
	}
}

func TestPlottErrors(t *testing.T) {
	if _, err := Plott(); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty: %v", err)
	}
	p := &Panel{Data: sparse.ZerosDense(4)}
	if _, err := Plott(p); !errors.Is(err, ErrNoSampleRate) {
		t.Errorf("no rate: %v", err)
	}
}
