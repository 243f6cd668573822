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
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/biologging/tagtools"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// expand expands the environment variables in a path.
func expand(path string) string {
	return os.ExpandEnv(path)
}

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case nil:
		return map[string]string{}, nil
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapStringE(v)
	case string:
		o := make(map[string]string)
		if v == "" {
			return o, nil
		}
		if err := json.NewDecoder(bytes.NewBufferString(v)).Decode(&o); err != nil {
			return nil, fmt.Errorf("tagtools: parsing %s: %v", varName, err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("tagtools: invalid type for %s: %#v", varName, i)
	}
}

// archive returns the archive at the given path, with its logger and
// confirmation prompt set up from the configuration.
func archive(path string, c *prompter) *tagtools.Archive {
	a := tagtools.NewArchive(expand(path))
	if c != nil {
		a.Confirm = c.confirm
	}
	return a
}

// lookupTable loads the table at path, or returns def if path is empty.
func lookupTable(path, name, label string, def func() *tagtools.LookupTable) (*tagtools.LookupTable, error) {
	if path == "" {
		return def(), nil
	}
	return tagtools.LoadLookupTable(expand(path), name, label)
}

func speciesTable(cfg *viper.Viper) (*tagtools.LookupTable, error) {
	return lookupTable(cfg.GetString("species"), "species", "Common_name", tagtools.DefaultSpecies)
}

func researcherTable(cfg *viper.Viper) (*tagtools.LookupTable, error) {
	return lookupTable(cfg.GetString("researchers"), "researchers", "Name", tagtools.DefaultResearchers)
}

// cueConfig returns the cue table settings for the recordings starting
// with prefix.
func cueConfig(cfg *viper.Viper, prefix string) *tagtools.CueConfig {
	return &tagtools.CueConfig{
		RecDir:  expand(cfg.GetString("recdir")),
		Prefix:  prefix,
		Suffix:  cfg.GetString("suffix"),
		TempDir: expand(cfg.GetString("tempdir")),
	}
}
