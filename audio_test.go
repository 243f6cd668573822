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
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeTestWAV writes a 16 bit WAV file with n samples per channel.
// Sample i of channel j has the value 100*i + j.
func writeTestWAV(t *testing.T, path string, fs, n, nch int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	e := wav.NewEncoder(f, fs, 16, nch, 1)
	data := make([]int, n*nch)
	for i := 0; i < n; i++ {
		for j := 0; j < nch; j++ {
			data[i*nch+j] = 100*i + j
		}
	}
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: nch, SampleRate: fs},
		SourceBitDepth: 16,
	}
	if err := e.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestAudioSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wav")
	writeTestWAV(t, path, 8000, 250, 2)
	info, err := AudioSize(path)
	if err != nil {
		t.Fatal(err)
	}
	want := AudioInfo{Samples: 250, Channels: 2, Fs: 8000, Bits: 16}
	if *info != want {
		t.Errorf("%+v != %+v", *info, want)
	}
	if _, err := AudioSize(filepath.Join(t.TempDir(), "missing.wav")); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file: %v", err)
	}
}

func TestReadAudio(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wav")
	writeTestWAV(t, path, 8000, 20, 2)
	a, err := ReadAudio(path, 3, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Samples) != 3 || len(a.Samples[0]) != 2 {
		t.Fatalf("shape %d x %d", len(a.Samples), len(a.Samples[0]))
	}
	// Sample 3 is index 2.
	if want := 200.0 / 32768; a.Samples[0][0] != want {
		t.Errorf("%g != %g", a.Samples[0][0], want)
	}
	if want := 401.0 / 32768; a.Samples[2][1] != want {
		t.Errorf("%g != %g", a.Samples[2][1], want)
	}
	all, err := ReadAudio(path, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all.Samples) != 20 || all.Fs != 8000 {
		t.Errorf("samples %d, fs %g", len(all.Samples), all.Fs)
	}
	if _, err := ReadAudio(path, 5, 2); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("bad range: %v", err)
	}
}
