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

	"github.com/go-audio/wav"
)

// AudioInfo describes the size of a WAV file.
type AudioInfo struct {
	// Samples is the number of samples per channel.
	Samples  int
	Channels int
	Fs       float64
	Bits     int
}

// Audio holds samples read from a WAV file, normalized to the range
// [-1, 1). Samples has one row per sample and one column per channel.
type Audio struct {
	Samples [][]float64
	Fs      float64
	Bits    int
}

func openWAV(path string) (*os.File, *wav.Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("tagtools: audio file %s: %w", path, ErrNotFound)
		}
		return nil, nil, fmt.Errorf("tagtools: opening audio file: %w", err)
	}
	d := wav.NewDecoder(f)
	d.ReadInfo()
	if err := d.Err(); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("tagtools: reading audio file %s: %w", path, err)
	}
	if d.NumChans < 1 || d.BitDepth < 8 {
		f.Close()
		return nil, nil, fmt.Errorf("tagtools: %s is not a valid WAV file", path)
	}
	return f, d, nil
}

// AudioSize returns the number of samples, channels and the sampling
// rate of the WAV file at path without reading the samples.
func AudioSize(path string) (*AudioInfo, error) {
	f, d, err := openWAV(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := d.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("tagtools: reading audio file %s: %w", path, err)
	}
	frame := int(d.NumChans) * ((int(d.BitDepth)-1)/8 + 1)
	return &AudioInfo{
		Samples:  d.PCMSize / frame,
		Channels: int(d.NumChans),
		Fs:       float64(d.SampleRate),
		Bits:     int(d.BitDepth),
	}, nil
}

// ReadAudio reads samples start through end (counting from 1,
// inclusive) of the WAV file at path. If start and end are both 0 the
// whole file is read.
func ReadAudio(path string, start, end int) (*Audio, error) {
	if start < 0 || end < 0 || (end > 0 && end < start) {
		return nil, fmt.Errorf("tagtools: reading %s: bad sample range %d-%d: %w",
			path, start, end, ErrInvalidArgument)
	}
	f, d, err := openWAV(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("tagtools: reading audio file %s: %w", path, err)
	}
	nch := int(d.NumChans)
	n := len(buf.Data) / nch
	if start == 0 {
		start = 1
	}
	if end == 0 || end > n {
		end = n
	}
	bits := int(d.BitDepth)
	scale := math.Pow(2, float64(bits-1))
	a := &Audio{Fs: float64(d.SampleRate), Bits: bits}
	for i := start - 1; i < end; i++ {
		row := make([]float64, nch)
		for j := range row {
			v := float64(buf.Data[i*nch+j])
			if bits == 8 {
				v -= 128
			}
			row[j] = v / scale
		}
		a.Samples = append(a.Samples, row)
	}
	return a, nil
}
