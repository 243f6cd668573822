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
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

// Cue is one segment of a reconstructed recording timeline.
type Cue struct {
	// File is the index into CueTable.FileNames of the file holding the
	// segment.
	File int `toml:"file"`

	// Start is the segment start in seconds since CueTable.StartTime.
	Start float64 `toml:"start"`

	Samples int `toml:"samples"`

	// Status is StatusData, StatusZeroFilled or StatusGap.
	Status int `toml:"status"`
}

// CueTable is the timing and file information of a set of DTAG
// recordings.
type CueTable struct {
	Cues      []Cue    `toml:"cuetab"`
	Fs        float64  `toml:"fs"`
	FileNames []string `toml:"fnames"`
	RecDir    string   `toml:"recdir"`
	ID        int64    `toml:"id"`

	// StartTime is the UNIX time of the first sample.
	StartTime float64 `toml:"start_time"`

	// DType is the tag generation, such as "D3" or "D4".
	DType string `toml:"dtype"`

	// Gaps lists the timing discontinuities found while building the
	// table. It is not cached.
	Gaps []Gap `toml:"-"`
}

// Duration returns the total length of the timeline in seconds.
func (c *CueTable) Duration() float64 {
	if len(c.Cues) == 0 || c.Fs == 0 {
		return 0
	}
	last := c.Cues[len(c.Cues)-1]
	return last.Start + float64(last.Samples)/c.Fs
}

// CueConfig specifies where to find a set of DTAG recordings. All files
// named RecDir/Prefix<nnn>.xml, where nnn is a 3 digit number, are
// included.
type CueConfig struct {
	RecDir string
	Prefix string

	// Suffix is the suffix of the WAV-format data files, such as "wav"
	// (the default) or "swv".
	Suffix string

	// TempDir is the directory holding the cue cache file. It defaults
	// to the working directory.
	TempDir string

	Log logrus.FieldLogger
}

func (cfg *CueConfig) log() logrus.FieldLogger {
	if cfg.Log == nil {
		return logrus.StandardLogger()
	}
	return cfg.Log
}

func (cfg *CueConfig) suffix() string {
	if cfg.Suffix == "" {
		return "wav"
	}
	return cfg.Suffix
}

// CacheFile returns the location of the cue cache file.
func (cfg *CueConfig) CacheFile() string {
	return filepath.Join(cfg.TempDir, "_"+cfg.Prefix+cfg.suffix()+"cues.toml")
}

// CueTable returns the cue table for the recordings, reading it from
// the cache file when present and otherwise building and caching it.
func (cfg *CueConfig) CueTable() (*CueTable, error) {
	if cfg.Prefix == "" {
		return nil, fmt.Errorf("tagtools: cue table: no file prefix: %w", ErrInvalidArgument)
	}
	cache := cfg.CacheFile()
	if _, err := os.Stat(cache); err == nil {
		c := new(CueTable)
		if _, err := toml.DecodeFile(cache, c); err != nil {
			return nil, fmt.Errorf("tagtools: reading cue file %s: %w", cache, err)
		}
		return c, nil
	}
	c, err := cfg.buildCueTable()
	if err != nil {
		return nil, err
	}
	if err := writeCueCache(cache, c); err != nil {
		return nil, err
	}
	return c, nil
}

func writeCueCache(path string, c *CueTable) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("tagtools: writing cue file: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return fmt.Errorf("tagtools: writing cue file %s: %w", path, err)
	}
	return f.Close()
}

// recordingStems returns the sorted names, without the .xml suffix, of
// the recordings in dir that start with prefix.
func recordingStems(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("tagtools: listing recordings: %w", err)
	}
	var stems []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".xml") {
			continue
		}
		stem := strings.TrimSuffix(name, ".xml")
		if len(stem) < 3 {
			continue
		}
		if _, err := strconv.Atoi(stem[len(stem)-3:]); err != nil {
			continue
		}
		stems = append(stems, stem)
	}
	return stems, nil
}

func (cfg *CueConfig) buildCueTable() (*CueTable, error) {
	log := cfg.log()
	suffix := cfg.suffix()
	recdir := cfg.RecDir
	if recdir == "" {
		recdir = "."
		log.WithField("prefix", cfg.Prefix).Info("no recording directory given: searching the working directory")
	}
	stems, err := recordingStems(recdir, cfg.Prefix)
	if err != nil {
		return nil, err
	}
	if len(stems) == 0 {
		return nil, fmt.Errorf("tagtools: no recordings starting with %s in %s: %w", cfg.Prefix, recdir, ErrNotFound)
	}
	log.WithFields(logrus.Fields{"files": len(stems), "suffix": suffix}).Info("generating cue table")

	c := &CueTable{FileNames: stems, RecDir: recdir}
	var fsne float64
	var blocks []block
	for k, stem := range stems {
		d3, err := ReadD3XML(filepath.Join(recdir, stem+".xml"))
		if err != nil {
			return nil, err
		}
		if c.Fs == 0 {
			c.Fs, fsne = d3SampleRate(d3, suffix)
			c.ID = d3DeviceID(d3)
		}
		c.DType = d3Generation(d3)

		blks := d3Blocks(d3, suffix)
		if len(blks) == 0 {
			if blks, err = wavtBlocks(filepath.Join(recdir, stem), suffix); err != nil {
				return nil, err
			}
		}
		if len(blks) == 0 {
			return nil, fmt.Errorf("tagtools: recording %s has no WAVBLK data or timing file: %w", stem, ErrNotFound)
		}
		for i := range blks {
			blks[i].File = k
		}
		cfg.checkAudio(filepath.Join(recdir, stem+"."+suffix), stem, fsne, blks)
		blocks = append(blocks, blks...)
	}

	if c.Fs == 0 {
		log.WithField("prefix", cfg.Prefix).Warn("unable to determine sampling rate for this configuration")
		return nil, fmt.Errorf("tagtools: cue table for %s: %w", cfg.Prefix, ErrNoSampleRate)
	}
	if len(blocks) > 1 {
		blocks, c.Gaps = reconcileGaps(blocks, c.Fs, stems, log)
	}

	b0 := blocks[0]
	c.StartTime = b0.start()
	c.Cues = make([]Cue, len(blocks))
	for i, b := range blocks {
		c.Cues[i] = Cue{
			File:    b.File,
			Start:   (b.Sec - b0.Sec) + (b.Micro-b0.Micro)*1e-6,
			Samples: int(math.Round(b.Samples)),
			Status:  b.Status,
		}
	}
	return c, nil
}

// checkAudio compares the WAV file, if present, with the block table.
// Mismatches are logged but not fatal.
func (cfg *CueConfig) checkAudio(path, stem string, fs float64, blks []block) {
	log := cfg.log().WithField("recording", stem)
	info, err := AudioSize(path)
	if errors.Is(err, ErrNotFound) {
		log.Info("no audio file found for recording: skipping")
		return
	} else if err != nil {
		log.WithError(err).Warn("unable to read audio file")
		return
	}
	if info.Fs != fs {
		log.WithFields(logrus.Fields{"xml": fs, "wav": info.Fs}).Warn("sampling rate mismatch")
	}
	var n float64
	for _, b := range blks {
		n += b.Samples
	}
	if float64(info.Samples) != n {
		log.WithFields(logrus.Fields{"xml": n, "wav": info.Samples}).Warn("sample count mismatch")
	}
}

// d3SampleRate returns the sampling rate of the first wav configuration
// whose suffix starts with suffix, both scaled by its exponent and as
// written.
func d3SampleRate(d3 *XMLNode, suffix string) (fs, fsne float64) {
	for _, c := range d3.Find("CFG") {
		if c.Attrs["FTYPE"] != "wav" {
			continue
		}
		s, ok := c.Value("SUFFIX")
		if !ok || !strings.HasPrefix(s, suffix) {
			continue
		}
		v, ok := c.Value("FS")
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			continue
		}
		exp := 0
		if e, ok := c.Value("EXP"); ok {
			exp, _ = strconv.Atoi(strings.TrimSpace(e))
		}
		return f * math.Pow10(exp), f
	}
	return 0, 0
}

// d3DeviceID decodes the DEVID field, which holds hexadecimal bytes
// separated by commas or spaces.
func d3DeviceID(d3 *XMLNode) int64 {
	s, ok := d3.Value("DEVID")
	if !ok {
		return 0
	}
	var z []string
	if strings.Contains(s, ",") {
		z = strings.Split(s, ",")
	} else {
		z = strings.Fields(s)
	}
	for i := range z {
		z[i] = strings.TrimSpace(z[i])
	}
	var hex string
	switch {
	case len(z) >= 4:
		hex = strings.Join(z[2:4], "")
	case len(z) >= 2:
		hex = strings.Join(z[:2], "")
	default:
		hex = strings.Join(z, "")
	}
	id, err := strconv.ParseInt(hex, 16, 64)
	if err != nil {
		return 0
	}
	return id
}

// d3Generation returns the tag generation from the DGEN field or from
// the name of the host program.
func d3Generation(d3 *XMLNode) string {
	if g, ok := d3.Value("DGEN"); ok {
		return g
	}
	if h := d3.First("HOST"); h != nil {
		p := h.Attrs["PROG"]
		if len(p) > 2 {
			p = p[:2]
		}
		return strings.ToUpper(p)
	}
	return ""
}

// d3Blocks returns the WAVBLK entries with the given suffix.
func d3Blocks(d3 *XMLNode, suffix string) []block {
	var o []block
	for _, c := range d3.Find("WAVBLK") {
		if s, ok := c.Value("SUFFIX"); !ok || s != suffix {
			continue
		}
		var v [3]float64
		ok := true
		for i, f := range []string{"RTIME", "MTICKS", "NSAMPS"} {
			s, present := c.Value(f)
			x, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if !present || err != nil {
				ok = false
				break
			}
			v[i] = x
		}
		if ok {
			o = append(o, block{Sec: v[0], Micro: v[1], Samples: v[2], Status: StatusData})
		}
	}
	return o
}

// wavtBlocks reads the blocks with the given suffix from the .wavt
// timing file next to a recording. A missing file gives no blocks.
func wavtBlocks(stem, suffix string) ([]block, error) {
	f, err := os.Open(stem + ".wavt")
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("tagtools: reading timing file: %w", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	hdr, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("tagtools: reading timing file %s.wavt: %w", stem, err)
	}
	col := make(map[string]int)
	for i, h := range hdr {
		col[strings.ToUpper(strings.TrimSpace(h))] = i
	}
	for _, h := range []string{"SUFFIX", "RTIME", "MTICKS", "NSAMPS", "STATUS"} {
		if _, ok := col[h]; !ok {
			return nil, fmt.Errorf("tagtools: timing file %s.wavt has no %s column", stem, h)
		}
	}
	var o []block
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tagtools: reading timing file %s.wavt: %w", stem, err)
		}
		if !strings.EqualFold(field(rec, col["SUFFIX"]), suffix) {
			continue
		}
		var v [4]float64
		for i, h := range []string{"RTIME", "MTICKS", "NSAMPS", "STATUS"} {
			if v[i], err = strconv.ParseFloat(field(rec, col[h]), 64); err != nil {
				return nil, fmt.Errorf("tagtools: timing file %s.wavt: bad %s: %w", stem, h, err)
			}
		}
		o = append(o, block{Sec: v[0], Micro: v[1], Samples: v[2], Status: int(v[3])})
	}
	return o, nil
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return strings.TrimSpace(rec[i])
	}
	return ""
}
