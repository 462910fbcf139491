/*
Copyright © 2019 the colrad authors.
This file is part of colrad.

colrad is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

colrad is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with colrad.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package colradutil contains the colrad command-line interface.
package colradutil

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/colrad"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

// Log receives messages from the commands.
var Log = logrus.StandardLogger()

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
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
			name: "LogLevel",
			usage: `
              LogLevel is the minimum level of messages to print: one of
              debug, info, warning or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "CoefficientsSW",
			usage: `
              CoefficientsSW is the path to the shortwave gas optics
              coefficient file. It can contain environment variables.`,
			defaultVal: "${COLRAD_DATA}/" + colrad.CoefficientsFileSW,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "CoefficientsLW",
			usage: `
              CoefficientsLW is the path to the longwave gas optics
              coefficient file. It can contain environment variables.`,
			defaultVal: "${COLRAD_DATA}/" + colrad.CoefficientsFileLW,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "CloudOpticsSW",
			usage: `
              CloudOpticsSW is the path to the shortwave cloud optics
              file. It can contain environment variables.`,
			defaultVal: "${COLRAD_DATA}/" + colrad.CloudOpticsFileSW,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "CloudOpticsLW",
			usage: `
              CloudOpticsLW is the path to the longwave cloud optics
              file. It can contain environment variables.`,
			defaultVal: "${COLRAD_DATA}/" + colrad.CloudOpticsFileLW,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Scenario",
			usage: `
              Scenario is the path to a TOML file holding the column
              states to solve.`,
			shorthand:  "s",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), thetaCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path where the netCDF output file should
              be written.`,
			shorthand:  "o",
			defaultVal: "colrad_output.nc",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables specifies which variables should be written
              to the output file, as a map of output names to expressions
              over the model variables sw_flux_up, sw_flux_dn,
              sw_flux_dn_dir, lw_flux_up, lw_flux_dn, sw_heating and
              lw_heating. On the command line it is given as a JSON object.`,
			defaultVal: map[string]string{
				"sw_net": "sw_flux_dn - sw_flux_up",
				"lw_net": "lw_flux_up - lw_flux_dn",
			},
			flagsets: []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "TSIScaling",
			usage: `
              TSIScaling multiplies the solar flux at the top of
              the atmosphere.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "GaussAngles",
			usage: `
              GaussAngles is the number of quadrature angles (1 to 4) of
              the longwave solve.`,
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Synth.Gpts",
			usage: `
              Synth.Gpts is the number of g-points per band of the
              synthetic k-distributions.`,
			defaultVal: 4,
			flagsets:   []*pflag.FlagSet{coeffsCmd.Flags()},
		},
		{
			name: "Synth.Gases",
			usage: `
              Synth.Gases lists the absorbing gases of the synthetic
              k-distributions.`,
			defaultVal: []string{"h2o", "co2", "o3", "ch4", "n2o"},
			flagsets:   []*pflag.FlagSet{coeffsCmd.Flags()},
		},
		{
			name: "Synth.CloudSizes",
			usage: `
              Synth.CloudSizes is the number of effective radii in the
              synthetic cloud optics tables.`,
			defaultVal: 20,
			flagsets:   []*pflag.FlagSet{coeffsCmd.Flags()},
		},
		{
			name: "Synth.OutputDir",
			usage: `
              Synth.OutputDir is the data directory to write the synthetic
              coefficient files to. The files are written to the init
              subdirectory under their default names.`,
			defaultVal: "${COLRAD_DATA}",
			flagsets:   []*pflag.FlagSet{coeffsCmd.Flags()},
		},
		{
			name: "Diag.TemperatureKind",
			usage: `
              Diag.TemperatureKind selects total ("Tot") or liquid water
              ("Liq") potential temperature.`,
			defaultVal: "Tot",
			flagsets:   []*pflag.FlagSet{thetaCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("COLRAD")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case []string:
				set.StringSliceP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, v, option.usage)
			case map[string]string:
				b := bytes.NewBuffer(nil)
				json.NewEncoder(b).Encode(v)
				set.StringP(option.name, option.shorthand, b.String(), option.usage)
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
	Root.AddCommand(runCmd)
	Root.AddCommand(coeffsCmd)
	Root.AddCommand(diagCmd)
	diagCmd.AddCommand(thetaCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets up logging.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("colrad: problem reading configuration file: %v", err)
		}
	}
	level, err := logrus.ParseLevel(Cfg.GetString("LogLevel"))
	if err != nil {
		return fmt.Errorf("colrad: invalid LogLevel: %v", err)
	}
	Log.Level = level
	Log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "colrad",
	Short: "A column radiative transfer model.",
	Long: `colrad computes shortwave and longwave radiative fluxes in
atmospheric columns using correlated-k gas optics, two-stream shortwave
and no-scattering longwave solvers.
Use the subcommands specified below to access the model functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'COLRAD_var' where 'var' is the
name of the variable to be set. File paths are allowed to contain environment
variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of colrad.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("colrad v%s\n", colrad.Version)
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Solve the radiative fluxes of a scenario.",
	Long: `run loads the coefficient tables, solves the shortwave and longwave
fluxes of the columns in the Scenario file, partitions the surface fluxes
into visible and near-infrared parts, and writes the results to OutputFile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Run(Cfg, Log)
	},
	DisableAutoGenTag: true,
}

var coeffsCmd = &cobra.Command{
	Use:   "coeffs",
	Short: "Write synthetic coefficient files.",
	Long: `coeffs writes physically plausible but synthetic gas and cloud optics
coefficient files to Synth.OutputDir, for testing and demonstration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Coeffs(Cfg, Log)
	},
	DisableAutoGenTag: true,
}

var diagCmd = &cobra.Command{
	Use:               "diag",
	Short:             "Compute diagnostic fields.",
	Long:              `diag computes derived fields from the state in a scenario file.`,
	DisableAutoGenTag: true,
}

var thetaCmd = &cobra.Command{
	Use:   "theta",
	Short: "Print the potential temperature of a scenario.",
	Long: `theta prints the potential temperature [K] of each column and layer
of the Scenario file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Theta(Cfg, cmd.OutOrStdout())
	},
	DisableAutoGenTag: true,
}
