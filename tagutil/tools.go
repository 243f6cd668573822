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

package tagutil

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/biologging/tagtools"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"
)

var cuesCmd = &cobra.Command{
	Use:   "cues prefix",
	Short: "Build the cue table of a DTAG recording",
	Long: `cues reads the XML metadata files of a DTAG deployment, the files named
<recdir>/<prefix><nnn>.xml, and prints the cue table relating the data blocks
to deployment time. Gaps in the recording are reported. The table is cached
in the tempdir directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cueConfig(Cfg, args[0]).CueTable()
		if err != nil {
			return err
		}
		PrintCues(cmd, c)
		return nil
	},
	DisableAutoGenTag: true,
}

// PrintCues prints a summary of a cue table.
func PrintCues(cmd *cobra.Command, c *tagtools.CueTable) {
	cmd.Printf("device %d (%s), %d files, %d blocks, %g Hz\n",
		c.ID, c.DType, len(c.FileNames), len(c.Cues), c.Fs)
	cmd.Printf("start %s, duration %.1f s\n",
		unixTime(c.StartTime).Format(tagtools.CreationDateLayout), c.Duration())
	for _, q := range c.Cues {
		if q.Status == tagtools.StatusGap {
			cmd.Printf("gap of %d samples at %.3f s in %s\n", q.Samples, q.Start, c.FileNames[q.File])
		}
	}
}

// unixTime converts seconds since 1970 to a UTC time.
func unixTime(sec float64) time.Time {
	s, f := math.Modf(sec)
	return time.Unix(int64(s), int64(f*1e9)).UTC()
}

var datefmtCmd = &cobra.Command{
	Use:   "datefmt format...",
	Short: "Convert date formats",
	Long: `datefmt converts date formats between the datestr style used in tag
metadata, such as dd-mm-yyyy HH:MM:SS, and the strftime style, such as
%d-%m-%Y %H:%M:%S. Formats containing % are taken to be in strftime style.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, f := range args {
			if strings.Contains(f, "%") {
				cmd.Println(tagtools.StrftimeToDatestr(f, nil))
			} else {
				cmd.Println(tagtools.DatestrToStrftime(f, nil))
			}
		}
	},
	DisableAutoGenTag: true,
}

var citeCmd = &cobra.Command{
	Use:   "cite doi",
	Short: "Get the citation of a DOI",
	Long: `cite retrieves the APA and BibTeX citations of a digital object
identifier, given as a number (10.1109/JOE.2002.808212) or a URL.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := tagtools.Cite(context.Background(), args[0])
		if err != nil {
			return err
		}
		cmd.Println(c.APA)
		cmd.Println()
		cmd.Println(c.BibTeX)
		if Cfg.GetBool("open") {
			return tagtools.OpenDOI(c.DOI)
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var plotCmd = &cobra.Command{
	Use:   "plot archive",
	Short: "Plot sensor data",
	Long: `plot draws the sensor variables of an archive against time, one
panel per variable with a shared time axis, and saves the figure as a PNG
file. Use --vars to choose the variables and their order.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return Plot(archive(args[0], nil), expandStringSlice(Cfg.GetStringSlice("vars")),
			expand(Cfg.GetString("output")), Cfg.GetFloat64("width"), Cfg.GetFloat64("height"))
	},
	DisableAutoGenTag: true,
}

// Plot plots the variables of a to the PNG file out, which is w by h
// inches.
func Plot(a *tagtools.Archive, vars []string, out string, w, h float64) error {
	if !(w > 0 && h > 0) {
		return fmt.Errorf("tagtools: plot size %gx%g: %w", w, h, tagtools.ErrInvalidArgument)
	}
	d, err := a.Load(vars...)
	if err != nil {
		return err
	}
	if len(vars) == 0 {
		vars = d.Names()
	}
	var panels []*tagtools.Panel
	for _, v := range vars {
		s, ok := d.Sensors[v]
		if !ok || s.Data == nil {
			continue
		}
		p, err := tagtools.PanelFromSensor(s)
		if err != nil {
			return err
		}
		panels = append(panels, p)
	}
	f, err := tagtools.Plott(panels...)
	if err != nil {
		return err
	}
	return f.Save(out, vg.Length(w)*vg.Inch, vg.Length(h)*vg.Inch)
}

var renameCmd = &cobra.Command{
	Use:   "rename dir prefix newprefix",
	Short: "Rename a set of files",
	Long: `rename changes the first part of the names of the files in dir that
start with prefix to newprefix. The rest of each name is kept. Check the
result on copies of valuable data first.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := tagtools.RenamePrefix(expand(args[0]), args[1], args[2], nil)
		if err != nil {
			return err
		}
		cmd.Printf("renamed %d files\n", n)
		return nil
	},
	DisableAutoGenTag: true,
}

var lookupCmd = &cobra.Command{
	Use:   "lookup species|researchers [initials]",
	Short: "Look up species and researchers",
	Long: `lookup lists the entries of the species or researchers table, or
prints the details of the entry matching the given initials.`,
	Args:      cobra.RangeArgs(1, 2),
	ValidArgs: []string{"species", "researchers"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var t *tagtools.LookupTable
		var err error
		switch args[0] {
		case "species":
			t, err = speciesTable(Cfg)
		case "researchers", "researcher":
			t, err = researcherTable(Cfg)
		default:
			return fmt.Errorf("tagtools: unknown table %q: %w", args[0], tagtools.ErrInvalidArgument)
		}
		if err != nil {
			return err
		}
		if len(args) == 1 {
			for _, l := range t.List() {
				cmd.Println(l)
			}
			return nil
		}
		e, err := t.Find(args[1], newPrompter(cmd, false).choose)
		if err != nil {
			return err
		}
		for _, c := range t.Columns {
			cmd.Printf("%s: %s\n", c, e.String(c))
		}
		return nil
	},
	DisableAutoGenTag: true,
}
