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

package kdist

import (
	"fmt"
	"os"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/colrad/internal/ncf"
)

// Load reads a k-distribution from the netCDF file at path, keeping only
// the absorbing gases in gasNames.
func Load(path string, gasNames []string) (*KDistribution, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("kdist: opening coefficient file: %v", err)
	}
	defer f.Close()
	k, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("kdist: reading %s: %v", path, err)
	}
	return k.Select(gasNames), nil
}

// Read reads a k-distribution from netCDF data.
func Read(rw cdf.ReaderWriterAt) (*KDistribution, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, err
	}
	k := new(KDistribution)
	spectrum, err := ncf.String(f, "", "spectrum")
	if err != nil {
		return nil, err
	}
	if k.Spectrum, err = ParseSpectrum(spectrum); err != nil {
		return nil, err
	}

	lims, err := ncf.Read(f, "band_lims_wavenumber")
	if err != nil {
		return nil, err
	}
	k.BandLims = ncf.Pairs(lims)
	gpts, err := ncf.Read(f, "bnd_limits_gpt")
	if err != nil {
		return nil, err
	}
	for _, p := range ncf.Pairs(gpts) {
		// The file stores 1-based g-point indices.
		k.BandGpt = append(k.BandGpt, [2]int{int(p[0]) - 1, int(p[1]) - 1})
	}
	if k.PressRef, err = read1d(f, "press_ref"); err != nil {
		return nil, err
	}
	if k.TempRef, err = read1d(f, "temp_ref"); err != nil {
		return nil, err
	}

	names, err := ncf.String(f, "", "gas_names")
	if err != nil {
		return nil, err
	}
	k.GasNames = strings.Fields(names)
	if len(k.GasNames) > 0 {
		kabs, err := ncf.Read(f, "kabs")
		if err != nil {
			return nil, err
		}
		if len(kabs.Shape) != 4 || kabs.Shape[0] != len(k.GasNames) {
			return nil, fmt.Errorf("kabs has shape %v for %d gases", kabs.Shape, len(k.GasNames))
		}
		n := kabs.Shape[1] * kabs.Shape[2] * kabs.Shape[3]
		for i := range k.GasNames {
			a := sparse.ZerosDense(kabs.Shape[1], kabs.Shape[2], kabs.Shape[3])
			copy(a.Elements, kabs.Elements[i*n:(i+1)*n])
			k.Kabs = append(k.Kabs, a)
		}
	}

	switch k.Spectrum {
	case SW:
		if k.Rayl, err = read1d(f, "rayl"); err != nil {
			return nil, err
		}
		if k.SolarSrc, err = read1d(f, "solar_src"); err != nil {
			return nil, err
		}
	case LW:
		if k.PlanckTemp, err = read1d(f, "temp_Planck"); err != nil {
			return nil, err
		}
		if k.TotPlnk, err = ncf.Read(f, "totplnk"); err != nil {
			return nil, err
		}
		if k.PlanckFrac, err = read1d(f, "plank_fraction"); err != nil {
			return nil, err
		}
	}
	if err = k.Check(); err != nil {
		return nil, err
	}
	return k, nil
}

func read1d(f *cdf.File, v string) ([]float64, error) {
	a, err := ncf.Read(f, v)
	if err != nil {
		return nil, err
	}
	return a.Elements, nil
}

func array1d(x []float64) *sparse.DenseArray {
	a := sparse.ZerosDense(len(x))
	copy(a.Elements, x)
	return a
}

// Write writes the k-distribution to w in the format read by Read.
func (k *KDistribution) Write(w cdf.ReaderWriterAt) error {
	if err := k.Check(); err != nil {
		return err
	}
	ngpt := k.NGpt()
	dims := []string{"bnd", "pair", "gpt", "temperature", "pressure"}
	lengths := []int{k.NBand(), 2, ngpt, len(k.TempRef), len(k.PressRef)}
	if len(k.GasNames) > 0 {
		dims = append(dims, "gas")
		lengths = append(lengths, len(k.GasNames))
	}
	if k.Spectrum == LW {
		dims = append(dims, "temperature_Planck")
		lengths = append(lengths, len(k.PlanckTemp))
	}
	h := cdf.NewHeader(dims, lengths)
	h.AddAttribute("", "comment", "colrad k-distribution coefficients")
	h.AddAttribute("", "spectrum", k.Spectrum.String())
	h.AddAttribute("", "gas_names", strings.Join(k.GasNames, " "))

	type variable struct {
		name  string
		dims  []string
		units string
		data  *sparse.DenseArray
	}
	gpts := sparse.ZerosDense(k.NBand(), 2)
	for b, l := range k.BandGpt {
		gpts.Elements[2*b] = float64(l[0] + 1)
		gpts.Elements[2*b+1] = float64(l[1] + 1)
	}
	vars := []variable{
		{"band_lims_wavenumber", []string{"bnd", "pair"}, "cm-1", ncf.FlattenPairs(k.BandLims)},
		{"press_ref", []string{"pressure"}, "Pa", array1d(k.PressRef)},
		{"temp_ref", []string{"temperature"}, "K", array1d(k.TempRef)},
	}
	if len(k.GasNames) > 0 {
		n := ngpt * len(k.TempRef) * len(k.PressRef)
		kabs := sparse.ZerosDense(len(k.GasNames), ngpt, len(k.TempRef), len(k.PressRef))
		for i, a := range k.Kabs {
			copy(kabs.Elements[i*n:(i+1)*n], a.Elements)
		}
		vars = append(vars, variable{"kabs", []string{"gas", "gpt", "temperature", "pressure"}, "m2 mol-1", kabs})
	}
	switch k.Spectrum {
	case SW:
		vars = append(vars,
			variable{"rayl", []string{"gpt"}, "m2 mol-1", array1d(k.Rayl)},
			variable{"solar_src", []string{"gpt"}, "W m-2", array1d(k.SolarSrc)},
		)
	case LW:
		vars = append(vars,
			variable{"temp_Planck", []string{"temperature_Planck"}, "K", array1d(k.PlanckTemp)},
			variable{"totplnk", []string{"temperature_Planck", "bnd"}, "W m-2 sr-1", k.TotPlnk},
			variable{"plank_fraction", []string{"gpt"}, "1", array1d(k.PlanckFrac)},
		)
	}
	h.AddVariable("bnd_limits_gpt", []string{"bnd", "pair"}, []int32{0})
	for _, v := range vars {
		h.AddVariable(v.name, v.dims, []float64{0})
		h.AddAttribute(v.name, "units", v.units)
	}
	h.Define()

	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("kdist: creating coefficient file: %v", err)
	}
	if err = ncf.Write(f, "bnd_limits_gpt", gpts); err != nil {
		return fmt.Errorf("kdist: writing coefficient file: %v", err)
	}
	for _, v := range vars {
		if err = ncf.Write(f, v.name, v.data); err != nil {
			return fmt.Errorf("kdist: writing coefficient file: %v", err)
		}
	}
	return nil
}
