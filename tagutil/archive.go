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
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/biologging/tagtools"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls archive",
	Short: "List the contents of an archive",
	Long: `ls loads an archive and lists the deployment metadata and the
sensor variables it holds. Use --vars to list only some variables.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return List(cmd, archive(args[0], nil), expandStringSlice(Cfg.GetStringSlice("vars")))
	},
	DisableAutoGenTag: true,
}

// List prints a summary of the variables in the archive.
func List(cmd *cobra.Command, a *tagtools.Archive, vars []string) error {
	d, err := a.Load(vars...)
	if err != nil {
		return err
	}
	if d.Info != nil {
		cmd.Printf("%s: deployment %s\n", a.Path, d.Info.DepID())
		for _, k := range d.Info.Keys() {
			cmd.Printf("  %s: %s\n", k, d.Info.String(k))
		}
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "name\tsampling\trate\tsize\tdescription")
	for _, n := range d.Names() {
		s := d.Sensors[n]
		rate := "-"
		if s.Regular() {
			rate = fmt.Sprintf("%g Hz", s.SamplingRate())
		}
		size := "empty"
		if s.Data != nil {
			size = strings.Trim(strings.ReplaceAll(fmt.Sprint(s.Data.Shape), " ", "x"), "[]")
		}
		desc := s.String("full_name")
		if desc == "" {
			desc = s.String("description")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", n, s.String("sampling"), rate, size, desc)
	}
	return w.Flush()
}

var rmCmd = &cobra.Command{
	Use:   "rm archive variable...",
	Short: "Remove variables from an archive",
	Long: `rm removes one or more sensor variables from an archive. The info
metadata cannot be removed.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := archive(args[0], nil)
		for _, v := range args[1:] {
			if err := a.Remove(v); err != nil {
				return err
			}
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var cpCmd = &cobra.Command{
	Use:   "cp source destination",
	Short: "Copy an archive",
	Long: `cp loads an archive and saves it to a new file. Use --vars to copy
only some variables. An existing destination is replaced after confirmation.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPrompter(cmd, Cfg.GetBool("yes"))
		return Copy(archive(args[0], nil), archive(args[1], p), expandStringSlice(Cfg.GetStringSlice("vars")))
	},
	DisableAutoGenTag: true,
}

// Copy saves the selected variables of src, with its metadata, to dst.
// An existing dst is replaced only if dst.Confirm agrees.
func Copy(src, dst *tagtools.Archive, vars []string) error {
	if filepath.Clean(src.Path) == filepath.Clean(dst.Path) {
		return fmt.Errorf("tagtools: cannot copy %s onto itself: %w", src.Path, tagtools.ErrInvalidArgument)
	}
	d, err := src.Load(vars...)
	if err != nil {
		return err
	}
	if dst.Exists() && (dst.Confirm == nil || !dst.Confirm(fmt.Sprintf("File %s exists: do you want to replace it", dst.Path))) {
		return fmt.Errorf("tagtools: replacing %s: %w", dst.Path, tagtools.ErrDeclined)
	}
	return dst.Save(d.Records()...)
}

var infoCmd = &cobra.Command{
	Use:   "info depid tagtype [species] [researcher]",
	Short: "Create deployment metadata",
	Long: `info creates the metadata for a deployment from a template for the
tag type and adds it to the archive named after the deployment. Species
and researcher are given as initials and are looked up in the species and
researcher tables. Recognized tag types are: ` + strings.Join(tagtools.TagTypes, ", ") + `.`,
	Args: cobra.RangeArgs(2, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPrompter(cmd, Cfg.GetBool("yes"))
		st, err := speciesTable(Cfg)
		if err != nil {
			return err
		}
		rt, err := researcherTable(Cfg)
		if err != nil {
			return err
		}
		ic := tagtools.InfoConfig{
			DepID:        args[0],
			TagType:      args[1],
			DTagVersion:  Cfg.GetInt("dtagversion"),
			SpeciesTable: st,
			Researchers:  rt,
			Choose:       p.choose,
			RecDir:       expand(Cfg.GetString("recdir")),
			TempDir:      expand(Cfg.GetString("tempdir")),
		}
		if len(args) > 2 {
			ic.Species = args[2]
		}
		if len(args) > 3 {
			ic.Researcher = args[3]
		}
		info, err := tagtools.MakeInfo(ic)
		if err != nil {
			return err
		}
		return archive(args[0], p).Add(info)
	},
	DisableAutoGenTag: true,
}

var catsCmd = &cobra.Command{
	Use:   "cats file depid",
	Short: "Import a CATS CSV file",
	Long: `cats reads the sensor data in a CSV file written by a CATS tag and
saves it, with metadata from the CATS template, to the archive named after
the deployment. Columns that differ only in their axis are stored together.
Columns without any data are reported and skipped.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		units, err := GetStringMapString("units", Cfg)
		if err != nil {
			return err
		}
		p := newPrompter(cmd, Cfg.GetBool("yes"))
		return ImportCATS(expand(args[0]), args[1], Cfg.GetInt("maxsamps"), units, archive(args[1], p))
	},
	DisableAutoGenTag: true,
}

// ImportCATS reads a CATS CSV file and adds its sensors and metadata
// to a.
func ImportCATS(file, depid string, maxSamps int, units map[string]string, a *tagtools.Archive) error {
	log := logrus.StandardLogger().WithField("depid", depid)
	d, err := tagtools.ReadCATSCSV(file, maxSamps, log)
	if err != nil {
		return err
	}
	for _, e := range d.Empty {
		log.WithField("field", e).Info("CATS field has no data")
	}
	sensors, err := d.Sensors(depid)
	if err != nil {
		return err
	}
	info, err := tagtools.MakeInfo(tagtools.InfoConfig{DepID: depid, TagType: "cats", Log: log})
	if err != nil {
		return err
	}
	info.Set("dtype_source", filepath.Base(file))
	info.Set("dtype_nfiles", 1)
	if len(d.Values) > 0 {
		t := tagtools.DatenumToTime(d.Values[0][0]).Round(time.Millisecond)
		if st, err := tagtools.FormatDatestr(t, info.String("dephist_device_regset")); err == nil {
			info.Set("dephist_device_datetime_start", st)
		}
	}
	if err := a.Add(info); err != nil {
		return err
	}
	for _, s := range sensors {
		if u, ok := units[s.Name]; ok {
			s.Set("unit", u)
		}
		if err := a.Add(s); err != nil {
			return err
		}
	}
	return nil
}
