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
	"math"
	"os"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Panel is one time series panel of a figure.
type Panel struct {
	// Data holds a row per sample.
	Data *sparse.DenseArray

	// Fs is the sampling rate in Hz of regularly sampled data. When
	// Fs is zero, Times holds the time of each sample in seconds.
	Fs    float64
	Times []float64

	// Offset is the time in seconds of the first sample relative to
	// the other panels.
	Offset float64

	// Reverse draws larger values lower, as for depth.
	Reverse bool

	Label  string
	Legend []string
}

// PanelFromSensor creates a panel from a sensor record, taking the
// timing, direction and labels from its attributes.
func PanelFromSensor(s *Sensor) (*Panel, error) {
	sd, err := SensorVars(s, false)
	if err != nil {
		return nil, err
	}
	p := &Panel{
		Data:   sd.Data,
		Fs:     sd.Fs,
		Times:  sd.Times,
		Offset: s.StartOffset(),
	}
	if ax := s.String("axes"); len(ax) == 1 && (ax == "D" || ax == "d") {
		p.Reverse = true
	}
	if fn, u := s.String("full_name"), s.String("unit"); fn != "" && u != "" {
		p.Label = fmt.Sprintf("%s (%s)", fn, u)
	}
	if cn := s.ColumnNames(); cn != nil {
		p.Legend = cn
	} else {
		p.Legend = []string{s.Name}
	}
	return p, nil
}

// times returns the sample times of column data in seconds.
func (p *Panel) times() []float64 {
	if p.Fs <= 0 {
		t := make([]float64, len(p.Times))
		copy(t, p.Times)
		floats.AddConst(p.Offset, t)
		return t
	}
	n := 0
	if p.Data != nil && len(p.Data.Shape) > 0 {
		n = p.Data.Shape[0]
	}
	t := make([]float64, n)
	for i := range t {
		t[i] = float64(i)/p.Fs + p.Offset
	}
	return t
}

// span returns the first and last time in seconds covered by p.
func (p *Panel) span() (start, end float64) {
	if p.Fs > 0 {
		n := 0
		if p.Data != nil && len(p.Data.Shape) > 0 {
			n = p.Data.Shape[0]
		}
		return p.Offset, float64(n)/p.Fs + p.Offset
	}
	t := p.times()
	if len(t) == 0 {
		return math.Inf(1), math.Inf(-1)
	}
	return floats.Min(t), floats.Max(t)
}

// timeUnits are the x axis units, used when the time span is at
// least breakAt seconds.
var timeUnits = []struct {
	breakAt, div float64
	label        string
}{
	{0, 1, "s"},
	{2e3, 60, "min"},
	{2e4, 3600, "hr"},
	{5e5, 24 * 3600, "day"},
}

// timeUnit returns the divisor and name of the unit used to show a time
// span in seconds.
func timeUnit(span float64) (div float64, label string) {
	k := 0
	for i, u := range timeUnits {
		if span >= u.breakAt {
			k = i
		}
	}
	return timeUnits[k].div, timeUnits[k].label
}

// Figure is a stack of panels sharing a time axis.
type Figure struct {
	Plots []*plot.Plot

	// Unit is the time unit of the x axis.
	Unit string

	// Start and End are the x axis limits in Unit.
	Start, End float64
}

// Plott plots each panel against time, one above the other, with a
// common time axis whose unit is chosen from the time span.
func Plott(panels ...*Panel) (*Figure, error) {
	if len(panels) == 0 {
		return nil, fmt.Errorf("tagtools: nothing to plot: %w", ErrInvalidArgument)
	}
	start, end := math.Inf(1), math.Inf(-1)
	for i, p := range panels {
		if p.Fs <= 0 && len(p.Times) == 0 {
			return nil, fmt.Errorf("tagtools: sampling rate undefined for panel %d: %w", i, ErrNoSampleRate)
		}
		s, e := p.span()
		start = math.Min(start, s)
		end = math.Max(end, e)
	}
	if start > end {
		return nil, fmt.Errorf("tagtools: no data to plot: %w", ErrInvalidArgument)
	}
	div, unit := timeUnit(end - start)
	f := &Figure{Unit: unit, Start: start / div, End: end / div}
	for i, p := range panels {
		pl, err := p.plot(div)
		if err != nil {
			return nil, fmt.Errorf("tagtools: plotting panel %d: %w", i, err)
		}
		pl.X.Min, pl.X.Max = f.Start, f.End
		if i == len(panels)-1 {
			pl.X.Label.Text = fmt.Sprintf("Time (%s)", unit)
		}
		f.Plots = append(f.Plots, pl)
	}
	return f, nil
}

// segments splits the points into runs without NaN values.
func segments(t, y []float64) []plotter.XYs {
	var o []plotter.XYs
	var cur plotter.XYs
	for i := range t {
		if math.IsNaN(y[i]) || math.IsInf(y[i], 0) || math.IsNaN(t[i]) {
			if len(cur) > 0 {
				o = append(o, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: t[i], Y: y[i]})
	}
	if len(cur) > 0 {
		o = append(o, cur)
	}
	return o
}

func (p *Panel) plot(div float64) (*plot.Plot, error) {
	pl := plot.New()
	pl.Add(plotter.NewGrid())
	pl.Y.Label.Text = p.Label
	if p.Reverse {
		pl.Y.Scale = plot.InvertedScale{Normalizer: pl.Y.Scale}
	}
	t := p.times()
	floats.Scale(1/div, t)
	ncol := 1
	if p.Data != nil && len(p.Data.Shape) > 1 {
		ncol = p.Data.Shape[1]
	}
	for j := 0; j < ncol; j++ {
		y := column(p.Data, j)
		if len(y) != len(t) {
			return nil, fmt.Errorf("%d times for %d samples: %w", len(t), len(y), ErrSampling)
		}
		c := plotutil.Color(j)
		var thumb plot.Thumbnailer
		for _, seg := range segments(t, y) {
			if p.Fs > 0 {
				l, err := plotter.NewLine(seg)
				if err != nil {
					return nil, err
				}
				l.Color = c
				pl.Add(l)
				thumb = l
			} else {
				s, err := plotter.NewScatter(seg)
				if err != nil {
					return nil, err
				}
				s.GlyphStyle.Color = c
				s.GlyphStyle.Shape = draw.CircleGlyph{}
				s.GlyphStyle.Radius = 0.5 * vg.Millimeter
				pl.Add(s)
				thumb = s
			}
		}
		if thumb != nil && j < len(p.Legend) && len(p.Legend) > 1 {
			pl.Legend.Add(p.Legend[j], thumb)
		}
	}
	pl.Legend.Top = true
	return pl, nil
}

// Save renders the figure to a PNG file of the given size.
func (f *Figure) Save(path string, w, h vg.Length) error {
	img := vgimg.New(w, h)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      len(f.Plots),
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(2),
		PadBottom: vg.Points(2),
		PadLeft:   vg.Points(2),
		PadRight:  vg.Points(2),
	}
	plots := make([][]*plot.Plot, len(f.Plots))
	for i, p := range f.Plots {
		plots[i] = []*plot.Plot{p}
	}
	canvases := plot.Align(plots, tiles, dc)
	for i, p := range f.Plots {
		p.Draw(canvases[i][0])
	}
	w2, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("tagtools: saving figure: %w", err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w2); err != nil {
		w2.Close()
		return fmt.Errorf("tagtools: saving figure %s: %w", path, err)
	}
	return w2.Close()
}
