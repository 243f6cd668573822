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
	"embed"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

//go:embed templates/*.csv
var templates embed.FS

// tagTemplates maps tag type names to metadata templates.
var tagTemplates = map[string]string{
	"sm": "sm", "smrt": "sm",
	"d4": "d4", "dtag4": "d4",
	"d3": "d3", "dtag3": "d3",
	"d2": "d2", "dtag2": "d2",
	"cats": "cats", "ll": "ll", "leo": "ll", "lleo": "ll",
	"ac": "ac", "acous": "ac",
	"dd": "mk10", "mk10": "mk10",
}

// TagTypes lists the recognized tag types.
var TagTypes = []string{"dtag", "cats", "lleo", "mk10", "acous", "sm", "d2", "d3", "d4"}

func loadTemplate(name string) (Attributes, error) {
	f, err := templates.Open("templates/" + name + ".csv")
	if err != nil {
		return nil, fmt.Errorf("tagtools: opening %s template: %w", name, err)
	}
	defer f.Close()
	return readMetadata(f, name)
}

func loadEmbeddedTable(file, name, label string) *LookupTable {
	f, err := templates.Open("templates/" + file)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	t, err := ReadLookupTable(f, name, label)
	if err != nil {
		panic(err)
	}
	return t
}

// DefaultSpecies returns the built-in species table.
func DefaultSpecies() *LookupTable {
	return loadEmbeddedTable("species.csv", "species", "Common_name")
}

// DefaultResearchers returns the built-in researchers table.
func DefaultResearchers() *LookupTable {
	return loadEmbeddedTable("researchers.csv", "researchers", "Name")
}

// InfoConfig holds the settings for MakeInfo.
type InfoConfig struct {
	DepID string

	// TagType selects the metadata template, e.g. "cats" or "d3".
	// An unknown type gives a mostly empty template.
	TagType string

	// DTagVersion (2, 3 or 4) is required when TagType is "dtag".
	DTagVersion int

	// Species and Researcher hold the initials to look up in
	// SpeciesTable and Researchers. Empty values are skipped.
	Species, Researcher string
	SpeciesTable        *LookupTable
	Researchers         *LookupTable
	Choose              Chooser

	// RecDir and TempDir locate the recordings and the cue cache of
	// DTAG and SMRT deployments.
	RecDir, TempDir string

	Now func() time.Time
	Log logrus.FieldLogger
}

func (cfg *InfoConfig) template() (string, error) {
	tt := strings.ToLower(cfg.TagType)
	if tt == "dtag" {
		switch cfg.DTagVersion {
		case 2, 3, 4:
			return fmt.Sprintf("d%d", cfg.DTagVersion), nil
		}
		return "", fmt.Errorf("tagtools: dtag version must be 2, 3 or 4, not %d: %w",
			cfg.DTagVersion, ErrInvalidArgument)
	}
	if t, ok := tagTemplates[tt]; ok {
		return t, nil
	}
	cfg.Log.WithField("tagtype", cfg.TagType).Warn("unknown tag type: fill out metadata by hand")
	return "blank", nil
}

// MakeInfo creates deployment metadata from the template for a tag type,
// filling in species and researcher details from the lookup tables.
func MakeInfo(cfg InfoConfig) (*Info, error) {
	if cfg.DepID == "" {
		return nil, fmt.Errorf("tagtools: making info: no depid: %w", ErrInvalidArgument)
	}
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	tname, err := cfg.template()
	if err != nil {
		return nil, err
	}
	t, err := loadTemplate(tname)
	if err != nil {
		return nil, err
	}
	regset := t.String("dephist_device_regset")
	if regset == "" {
		regset = "dd-mm-yyyy HH:MM:SS"
	}
	now, err := FormatDatestr(cfg.Now(), regset)
	if err != nil {
		return nil, err
	}
	t.Set("depid", cfg.DepID)
	t.Set("dtype_datetime_made", now)
	for _, k := range []string{"dtype_nfiles", "dtype_source", "device_serial",
		"dephist_deploy_datetime_start", "dephist_device_datetime_start"} {
		t.Set(k, "UNKNOWN")
	}
	if dm := t.String("device_make"); dm == "DTAG" || dm == "SMRT" {
		cfg.addCueInfo(t, regset)
	}
	if cfg.Species != "" {
		if err := cfg.addSpecies(t); err != nil {
			return nil, err
		}
	}
	if cfg.Researcher != "" {
		if err := cfg.addResearcher(t); err != nil {
			return nil, err
		}
	}
	return &Info{Attributes: t}, nil
}

// addCueInfo fills in file and timing details from the sensor cue table
// of a DTAG or SMRT deployment. Missing recordings leave the fields
// unknown.
func (cfg *InfoConfig) addCueInfo(t Attributes, regset string) {
	cc := &CueConfig{RecDir: cfg.RecDir, Prefix: cfg.DepID, Suffix: "swv", TempDir: cfg.TempDir, Log: cfg.Log}
	c, err := cc.CueTable()
	if err != nil {
		cfg.Log.WithError(err).WithField("depid", cfg.DepID).Debug("no cue table for deployment")
		return
	}
	t.Set("dtype_nfiles", len(c.FileNames))
	t.Set("dtype_source", strings.Join(c.FileNames, ","))
	t.Set("device_serial", c.ID)
	sec, frac := math.Modf(c.StartTime)
	st, err := FormatDatestr(time.Unix(int64(sec), int64(frac*1e9)).UTC(), regset)
	if err != nil {
		cfg.Log.WithError(err).Warn("formatting deployment start time")
		return
	}
	t.Set("dephist_deploy_datetime_start", st)
	t.Set("dephist_device_datetime_start", st)
}

func (cfg *InfoConfig) addSpecies(t Attributes) error {
	tab := cfg.SpeciesTable
	if tab == nil {
		tab = DefaultSpecies()
	}
	s, err := tab.Find(cfg.Species, cfg.Choose)
	if err != nil {
		return err
	}
	t.Set("animal_species_common", s.String("Common_name"))
	t.Set("animal_species_science", s.String("Binomial"))
	t.Set("animal_dbase_url", s.String("URL"))
	if _, ok := s["ITIS"]; ok {
		t.Set("animal_dbase_itis", s.String("ITIS"))
	}
	return nil
}

func (cfg *InfoConfig) addResearcher(t Attributes) error {
	tab := cfg.Researchers
	if tab == nil {
		tab = DefaultResearchers()
	}
	r, err := tab.Find(cfg.Researcher, cfg.Choose)
	if err != nil {
		return err
	}
	t.Set("provider_name", r.String("Name"))
	t.Set("provider_details", r.String("Details"))
	t.Set("provider_email", r.String("Email"))
	t.Set("provider_license", r.String("License"))
	t.Set("provider_cite", r.String("Cite"))
	t.Set("provider_doi", r.String("DOI"))
	return nil
}
