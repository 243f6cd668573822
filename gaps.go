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
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

const (
	// TimingErrorThreshold is the smallest timing discrepancy, in
	// seconds, between consecutive blocks that is treated as a gap.
	TimingErrorThreshold = 0.005

	// SampleErrorThreshold is the smallest timing discrepancy, in
	// samples, between consecutive blocks that is treated as a gap.
	SampleErrorThreshold = 3
)

// Block status values.
const (
	StatusData       = 0
	StatusZeroFilled = 1
	StatusGap        = -1
)

// block is one contiguous run of samples from a raw recording. Sec is
// the UNIX time of the first sample and Micro its microsecond offset.
type block struct {
	File    int
	Sec     float64
	Micro   float64
	Samples float64
	Status  int
}

// start returns the block start time in seconds.
func (b block) start() float64 { return b.Sec + b.Micro*1e-6 }

// Gap describes a timing discontinuity found between two blocks.
type Gap struct {
	// File and NextFile are the indices of the files holding the blocks
	// before and after the gap.
	File, NextFile int

	// Seconds and Samples give the gap length.
	Seconds float64
	Samples int
}

// gapState is the state of a gapReconciler.
type gapState int

const (
	// gapScan computes the timing error of every block.
	gapScan gapState = iota

	// gapInsert inserts a gap segment at the first violation.
	gapInsert

	// gapAbsorb folds the residual jitter into the block timestamps.
	gapAbsorb

	// gapDone means the timeline is contiguous.
	gapDone
)

// gapReconciler rebuilds a contiguous timeline from a block table.
// Each scan compares the predicted start of every block, from the
// cumulative sample count, with its recorded start. The first block
// whose error exceeds both thresholds is preceded by a gap segment;
// otherwise all remaining errors are jitter and are absorbed.
type gapReconciler struct {
	fs     float64
	blocks []block

	state gapState
	terr  []float64
	serr  []float64
	tpred []float64
	k     int

	gaps     []Gap
	overruns int
	overrun  float64
	passes   int
}

func newGapReconciler(blocks []block, fs float64) *gapReconciler {
	b := make([]block, len(blocks))
	copy(b, blocks)
	return &gapReconciler{fs: fs, blocks: b, state: gapScan}
}

// step performs one state transition.
func (g *gapReconciler) step() {
	switch g.state {
	case gapScan:
		g.scan()
	case gapInsert:
		g.insert()
	case gapAbsorb:
		g.absorb(len(g.blocks) - 1)
		g.countOverruns()
		g.state = gapDone
	}
}

// run steps until done. Each insertion resolves one discrepancy, so the
// number of passes is bounded by the number of blocks.
func (g *gapReconciler) run() {
	limit := 2*len(g.blocks) + 2
	for g.state != gapDone {
		if g.state == gapScan {
			g.passes++
			if g.passes > limit {
				g.state = gapAbsorb
				continue
			}
		}
		g.step()
	}
}

func (g *gapReconciler) scan() {
	n := len(g.blocks)
	if n < 2 {
		g.state = gapDone
		return
	}
	samples := make([]float64, n-1)
	for i := range samples {
		samples[i] = g.blocks[i].Samples
	}
	g.tpred = floats.CumSum(make([]float64, n-1), samples)
	floats.Scale(1/g.fs, g.tpred)

	b0 := g.blocks[0]
	g.terr = make([]float64, n-1)
	g.serr = make([]float64, n-1)
	for i := 1; i < n; i++ {
		tnxt := (g.blocks[i].Sec - b0.Sec) + (g.blocks[i].Micro-b0.Micro)*1e-6
		g.terr[i-1] = tnxt - g.tpred[i-1]
		g.serr[i-1] = math.Round(g.terr[i-1] * g.fs)
	}
	g.k = -1
	for i, t := range g.terr {
		if t > TimingErrorThreshold && g.serr[i] > SampleErrorThreshold {
			g.k = i
			break
		}
	}
	if g.k < 0 {
		g.state = gapAbsorb
		return
	}
	g.state = gapInsert
}

// absorb shifts the timestamps of blocks 1 through last so they start
// exactly where the preceding samples predict.
func (g *gapReconciler) absorb(last int) {
	for i := 1; i <= last && i < len(g.blocks); i++ {
		g.blocks[i].Micro -= g.terr[i-1] * 1e6
	}
}

func (g *gapReconciler) insert() {
	k := g.k
	g.absorb(k)
	g.gaps = append(g.gaps, Gap{
		File:     g.blocks[k].File,
		NextFile: g.blocks[k+1].File,
		Seconds:  g.terr[k],
		Samples:  int(g.serr[k]),
	})
	st := g.tpred[k] + g.blocks[0].start()
	sec := math.Floor(st)
	gap := block{
		File:    g.blocks[k].File,
		Sec:     sec,
		Micro:   (st - sec) * 1e6,
		Samples: g.serr[k],
		Status:  StatusGap,
	}
	g.blocks = append(g.blocks, block{})
	copy(g.blocks[k+2:], g.blocks[k+1:])
	g.blocks[k+1] = gap
	g.state = gapScan
}

// countOverruns records blocks that started earlier than predicted by
// more than both thresholds.
func (g *gapReconciler) countOverruns() {
	for i, t := range g.terr {
		if t < -TimingErrorThreshold && g.serr[i] < -SampleErrorThreshold {
			g.overruns++
			if -t > g.overrun {
				g.overrun = -t
			}
		}
	}
}

// reconcileGaps returns blocks with gap segments inserted and timing
// jitter removed.
func reconcileGaps(blocks []block, fs float64, fnames []string, log logrus.FieldLogger) ([]block, []Gap) {
	g := newGapReconciler(blocks, fs)
	g.run()
	if len(g.gaps) > 0 {
		log.Warn("gaps found between data blocks: gaps are allowed and are managed by " +
			"the tag tools but if gaps are unexpected check the version of the offload software")
	}
	for _, gap := range g.gaps {
		fields := logrus.Fields{
			"seconds": gap.Seconds,
			"samples": gap.Samples,
			"file":    fileName(fnames, gap.File),
		}
		if gap.File == gap.NextFile {
			log.WithFields(fields).Warn("gap in file")
			continue
		}
		fields["next"] = fileName(fnames, gap.NextFile)
		log.WithFields(fields).Warn("gap between files")
	}
	if g.overruns > 0 {
		log.WithFields(logrus.Fields{
			"count":       g.overruns,
			"max_seconds": g.overrun,
			"max_samples": math.Round(g.overrun * fs),
		}).Warn("data overruns detected")
	}
	return g.blocks, g.gaps
}

func fileName(fnames []string, i int) string {
	if i >= 0 && i < len(fnames) {
		return fnames[i]
	}
	return ""
}
