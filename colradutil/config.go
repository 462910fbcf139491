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

package colradutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ctessum/sparse"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/colrad"
	"github.com/spf13/cast"
)

// Scenario holds the atmospheric state of a set of columns. Profiles are
// given per column, by layer or by level, in the same vertical order for
// every field.
type Scenario struct {
	Mu0 []float64

	PLay, TLay [][]float64 // [Pa], [K]
	PLev, TLev [][]float64 // [Pa], [K]

	// Gases maps absorbing gas names to volume mixing ratio profiles.
	Gases map[string][][]float64

	SfcAlbDirVis, SfcAlbDirNir []float64
	SfcAlbDifVis, SfcAlbDifNir []float64

	LWP, IWP [][]float64 // [g/m2]
	Rel, Rei [][]float64 // [micron]

	// Qc is the cloud liquid mixing ratio [kg/kg], used by diagnostics.
	Qc [][]float64

	// Aerosol optical properties by column, layer and band.
	AerTauSW, AerSsaSW, AerAsmSW [][][]float64
	AerTauLW                     [][][]float64
}

// LoadScenario reads a scenario from a TOML file.
func LoadScenario(path string) (*Scenario, error) {
	s := new(Scenario)
	if _, err := toml.DecodeFile(path, s); err != nil {
		return nil, fmt.Errorf("colrad: reading scenario %s: %v", path, err)
	}
	if len(s.Mu0) == 0 {
		return nil, fmt.Errorf("colrad: scenario %s has no columns", path)
	}
	if len(s.PLay) == 0 || len(s.PLay[0]) == 0 {
		return nil, fmt.Errorf("colrad: scenario %s has no layers", path)
	}
	return s, nil
}

// Ncol returns the number of columns in the scenario.
func (s *Scenario) Ncol() int { return len(s.Mu0) }

// Nlay returns the number of layers in the scenario.
func (s *Scenario) Nlay() int { return len(s.PLay[0]) }

// GasNames returns the names of the gases in the scenario in sorted
// order.
func (s *Scenario) GasNames() []string {
	var names []string
	for n := range s.Gases {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// fill2 copies the profiles in src to dst, which is dimensioned
// (ncol, n). A nil src leaves dst unchanged.
func fill2(name string, dst *sparse.DenseArray, src [][]float64) error {
	if src == nil {
		return nil
	}
	ncol, n := dst.Shape[0], dst.Shape[1]
	if len(src) != ncol {
		return fmt.Errorf("colrad: scenario field %s has %d columns, want %d", name, len(src), ncol)
	}
	for c, p := range src {
		if len(p) != n {
			return fmt.Errorf("colrad: scenario field %s column %d has %d values, want %d", name, c, len(p), n)
		}
		copy(dst.Elements[c*n:(c+1)*n], p)
	}
	return nil
}

// fill3 copies the band-resolved profiles in src to dst, which is
// dimensioned (ncol, nlay, nband). A nil src leaves dst unchanged.
func fill3(name string, dst *sparse.DenseArray, src [][][]float64) error {
	if src == nil {
		return nil
	}
	ncol, nlay, nband := dst.Shape[0], dst.Shape[1], dst.Shape[2]
	if len(src) != ncol {
		return fmt.Errorf("colrad: scenario field %s has %d columns, want %d", name, len(src), ncol)
	}
	for c, col := range src {
		if len(col) != nlay {
			return fmt.Errorf("colrad: scenario field %s column %d has %d layers, want %d", name, c, len(col), nlay)
		}
		for k, b := range col {
			if len(b) != nband {
				return fmt.Errorf("colrad: scenario field %s column %d layer %d has %d bands, want %d", name, c, k, len(b), nband)
			}
			copy(dst.Elements[(c*nlay+k)*nband:(c*nlay+k+1)*nband], b)
		}
	}
	return nil
}

func fill1(name string, dst, src []float64) error {
	if src == nil {
		return nil
	}
	if len(src) != len(dst) {
		return fmt.Errorf("colrad: scenario field %s has %d values, want %d", name, len(src), len(dst))
	}
	copy(dst, src)
	return nil
}

// Inputs returns solver inputs holding the scenario state, for the band
// structure of the initialized context r.
func (s *Scenario) Inputs(r *colrad.Radiation) (*colrad.Inputs, error) {
	if s.PLay == nil || s.TLay == nil || s.PLev == nil || s.TLev == nil {
		return nil, fmt.Errorf("colrad: scenario needs PLay, TLay, PLev and TLev")
	}
	in, err := r.NewInputs(s.Ncol(), s.Nlay(), s.GasNames())
	if err != nil {
		return nil, err
	}
	copy(in.Mu0, s.Mu0)
	for _, f := range []struct {
		name string
		dst  *sparse.DenseArray
		src  [][]float64
	}{
		{"PLay", in.PLay, s.PLay},
		{"TLay", in.TLay, s.TLay},
		{"PLev", in.PLev, s.PLev},
		{"TLev", in.TLev, s.TLev},
		{"LWP", in.LWP, s.LWP},
		{"IWP", in.IWP, s.IWP},
		{"Rel", in.Rel, s.Rel},
		{"Rei", in.Rei, s.Rei},
	} {
		if err = fill2(f.name, f.dst, f.src); err != nil {
			return nil, err
		}
	}
	for _, f := range []struct {
		name     string
		dst, src []float64
	}{
		{"SfcAlbDirVis", in.SfcAlbDirVis, s.SfcAlbDirVis},
		{"SfcAlbDirNir", in.SfcAlbDirNir, s.SfcAlbDirNir},
		{"SfcAlbDifVis", in.SfcAlbDifVis, s.SfcAlbDifVis},
		{"SfcAlbDifNir", in.SfcAlbDifNir, s.SfcAlbDifNir},
	} {
		if err = fill1(f.name, f.dst, f.src); err != nil {
			return nil, err
		}
	}
	for _, f := range []struct {
		name string
		dst  *sparse.DenseArray
		src  [][][]float64
	}{
		{"AerTauSW", in.AerTauSW, s.AerTauSW},
		{"AerSsaSW", in.AerSsaSW, s.AerSsaSW},
		{"AerAsmSW", in.AerAsmSW, s.AerAsmSW},
		{"AerTauLW", in.AerTauLW, s.AerTauLW},
	} {
		if err = fill3(f.name, f.dst, f.src); err != nil {
			return nil, err
		}
	}
	for _, name := range s.GasNames() {
		vmr := sparse.ZerosDense(s.Ncol(), s.Nlay())
		if err = fill2("Gases."+name, vmr, s.Gases[name]); err != nil {
			return nil, err
		}
		if err = in.Gas.Set(name, vmr); err != nil {
			return nil, err
		}
	}
	return in, nil
}

// FileLoader returns a coefficient loader for the file locations in cfg,
// with environment variables expanded.
func FileLoader(cfg *viper.Viper) *colrad.FileLoader {
	return &colrad.FileLoader{
		CoefficientsSW: os.ExpandEnv(cfg.GetString("CoefficientsSW")),
		CoefficientsLW: os.ExpandEnv(cfg.GetString("CoefficientsLW")),
		CloudOpticsSW:  os.ExpandEnv(cfg.GetString("CloudOpticsSW")),
		CloudOpticsLW:  os.ExpandEnv(cfg.GetString("CloudOpticsLW")),
	}
}

// checkOutputVars removes end lines and expands environment
// variables in the output variables.
func checkOutputVars(vars map[string]string) (map[string]string, error) {
	if len(vars) == 0 {
		return nil, fmt.Errorf("colrad: there are no variables specified for output. Please fill in " +
			"the OutputVariables configuration and try again")
	}
	out := make(map[string]string, len(vars))
	for k, v := range vars {
		v = strings.Replace(v, "\r\n", " ", -1)
		v = strings.Replace(v, "\n", " ", -1)
		out[os.ExpandEnv(k)] = os.ExpandEnv(v)
	}
	return out, nil
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expands any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`colrad: you need to specify an output file configuration variable (for example: OutputFile="output.nc")`)
	}
	f = os.ExpandEnv(f)
	if _, err := os.Stat(filepath.Dir(f)); err != nil {
		return f, fmt.Errorf("colrad: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapStringE(v)
	case string:
		o := make(map[string]string)
		if err := json.NewDecoder(bytes.NewBufferString(v)).Decode(&o); err != nil {
			return nil, fmt.Errorf("colrad: parsing %s: %v", varName, err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("colrad: invalid type for %s: %#v", varName, i)
	}
}
