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

	"github.com/biologging/tagtools"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to TagTools.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "verbose",
			usage: `
              verbose turns on debugging messages.`,
			shorthand:  "v",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "recdir",
			usage: `
              recdir specifies the directory holding the raw recordings
              of a deployment. The working directory is used if it is
              not set.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cuesCmd.Flags(), infoCmd.Flags()},
		},
		{
			name: "tempdir",
			usage: `
              tempdir specifies the directory where cue tables are
              cached. Delete the cache file to force a cue table to be
              rebuilt.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cuesCmd.Flags(), infoCmd.Flags()},
		},
		{
			name: "suffix",
			usage: `
              suffix specifies the suffix of the recording files that
              the cue table describes, such as wav or swv.`,
			defaultVal: "wav",
			flagsets:   []*pflag.FlagSet{cuesCmd.Flags()},
		},
		{
			name: "vars",
			usage: `
              vars specifies the sensor variables to use. All variables
              are used if it is empty.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{lsCmd.Flags(), cpCmd.Flags(), plotCmd.Flags()},
		},
		{
			name: "yes",
			usage: `
              yes replaces existing variables and files without asking.`,
			shorthand:  "y",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{cpCmd.Flags(), infoCmd.Flags(), catsCmd.Flags()},
		},
		{
			name: "species",
			usage: `
              species specifies a CSV file of species to use instead of
              the built-in table. It must have Initial, Common_name,
              Binomial and URL columns.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{infoCmd.Flags(), lookupCmd.Flags()},
		},
		{
			name: "researchers",
			usage: `
              researchers specifies a CSV file of researchers to use
              instead of the built-in table. It must have Initial, Name,
              Details, Email, License, Cite and DOI columns.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{infoCmd.Flags(), lookupCmd.Flags()},
		},
		{
			name: "dtagversion",
			usage: `
              dtagversion specifies the DTAG version (2, 3 or 4) when
              the tag type is dtag.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{infoCmd.Flags()},
		},
		{
			name: "output",
			usage: `
              output specifies the location of the plot file, which is
              written in PNG format.`,
			shorthand:  "o",
			defaultVal: "plot.png",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "width",
			usage: `
              width specifies the width of the plot in inches.`,
			defaultVal: 8.0,
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "height",
			usage: `
              height specifies the height of the plot in inches.`,
			defaultVal: 6.0,
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "maxsamps",
			usage: `
              maxsamps limits the number of rows read from a CATS file.
              The whole file is read if it is 0.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{catsCmd.Flags()},
		},
		{
			name: "open",
			usage: `
              open opens the web page of the cited object.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{citeCmd.Flags()},
		},
		{
			name: "units",
			usage: `
              units maps sensor variable names to units, overriding the
              units read from the raw data, e.g. {"depth":"m H2O"}.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{catsCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("TAGTOOLS")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(lsCmd)
	Root.AddCommand(rmCmd)
	Root.AddCommand(cpCmd)
	Root.AddCommand(cuesCmd)
	Root.AddCommand(infoCmd)
	Root.AddCommand(datefmtCmd)
	Root.AddCommand(citeCmd)
	Root.AddCommand(plotCmd)
	Root.AddCommand(renameCmd)
	Root.AddCommand(catsCmd)
	Root.AddCommand(lookupCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets up logging.
func setConfig(cmd *cobra.Command) error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(expand(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("tagtools: problem reading configuration file: %v", err)
		}
	}
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cmd != nil {
		log.SetOutput(cmd.ErrOrStderr())
	}
	if Cfg.GetBool("verbose") {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "tagtools",
	Short: "Tools for biologging tag data.",
	Long: `TagTools reads, writes and manipulates the sensor data recorded by
animal-borne tags. Sensor data and deployment metadata are kept in NetCDF
archive files, one per deployment. Use the subcommands specified below to
work with archives and raw recordings.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'TAGTOOLS_var' where 'var' is the
name of the variable to be set. Paths are additionally allowed to contain
environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return setConfig(cmd) },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of TagTools.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("TagTools v%s\n", tagtools.Version)
	},
	DisableAutoGenTag: true,
}
