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

package colrad

import (
	"fmt"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/colrad/kdist"
)

// Inputs is the atmospheric state of a set of columns. Layer fields are
// dimensioned (Ncol, Nlay) and level fields (Ncol, Nlay+1); levels may be
// ordered from the top of the atmosphere down or from the surface up, as
// long as all fields agree.
type Inputs struct {
	Ncol, Nlay int

	// PLay [Pa] and TLay [K] are layer pressure and temperature; PLev
	// and TLev are the same at layer interfaces.
	PLay, TLay, PLev, TLev *sparse.DenseArray

	// Gas holds the gas volume mixing ratios.
	Gas *kdist.GasConcs

	// Broadband surface albedos for direct and diffuse radiation in
	// the visible and near-infrared, one per column.
	SfcAlbDirVis, SfcAlbDirNir []float64
	SfcAlbDifVis, SfcAlbDifNir []float64

	// Mu0 is the cosine of the solar zenith angle of each column.
	Mu0 []float64

	// Liquid and ice water paths [g/m2] and effective radii [micron].
	LWP, IWP, Rel, Rei *sparse.DenseArray

	// Aerosol optical depth, single-scattering albedo and asymmetry
	// parameter, dimensioned (Ncol, Nlay, nband) for the shortwave
	// bands, and aerosol absorption optical depth for the longwave bands.
	AerTauSW, AerSsaSW, AerAsmSW *sparse.DenseArray
	AerTauLW                     *sparse.DenseArray
}

// NewInputs returns zeroed inputs for ncol columns of nlay layers with
// the named gases and nswbands and nlwbands aerosol bands.
func NewInputs(ncol, nlay, nswbands, nlwbands int, gasNames []string) (*Inputs, error) {
	gas, err := kdist.NewGasConcs(gasNames, ncol, nlay)
	if err != nil {
		return nil, err
	}
	return &Inputs{
		Ncol:         ncol,
		Nlay:         nlay,
		PLay:         sparse.ZerosDense(ncol, nlay),
		TLay:         sparse.ZerosDense(ncol, nlay),
		PLev:         sparse.ZerosDense(ncol, nlay+1),
		TLev:         sparse.ZerosDense(ncol, nlay+1),
		Gas:          gas,
		SfcAlbDirVis: make([]float64, ncol),
		SfcAlbDirNir: make([]float64, ncol),
		SfcAlbDifVis: make([]float64, ncol),
		SfcAlbDifNir: make([]float64, ncol),
		Mu0:          make([]float64, ncol),
		LWP:          sparse.ZerosDense(ncol, nlay),
		IWP:          sparse.ZerosDense(ncol, nlay),
		Rel:          sparse.ZerosDense(ncol, nlay),
		Rei:          sparse.ZerosDense(ncol, nlay),
		AerTauSW:     sparse.ZerosDense(ncol, nlay, nswbands),
		AerSsaSW:     sparse.ZerosDense(ncol, nlay, nswbands),
		AerAsmSW:     sparse.ZerosDense(ncol, nlay, nswbands),
		AerTauLW:     sparse.ZerosDense(ncol, nlay, nlwbands),
	}, nil
}

// check returns an error wrapping ErrDimension if any field is
// inconsistent with the column and layer counts or the band counts.
func (in *Inputs) check(nswbands, nlwbands int) error {
	if in.Ncol <= 0 || in.Nlay <= 0 {
		return fmt.Errorf("colrad: %w: %d columns and %d layers", ErrDimension, in.Ncol, in.Nlay)
	}
	ncol, nlay := in.Ncol, in.Nlay
	arrays := []struct {
		name  string
		a     *sparse.DenseArray
		shape []int
	}{
		{"PLay", in.PLay, []int{ncol, nlay}},
		{"TLay", in.TLay, []int{ncol, nlay}},
		{"PLev", in.PLev, []int{ncol, nlay + 1}},
		{"TLev", in.TLev, []int{ncol, nlay + 1}},
		{"LWP", in.LWP, []int{ncol, nlay}},
		{"IWP", in.IWP, []int{ncol, nlay}},
		{"Rel", in.Rel, []int{ncol, nlay}},
		{"Rei", in.Rei, []int{ncol, nlay}},
		{"AerTauSW", in.AerTauSW, []int{ncol, nlay, nswbands}},
		{"AerSsaSW", in.AerSsaSW, []int{ncol, nlay, nswbands}},
		{"AerAsmSW", in.AerAsmSW, []int{ncol, nlay, nswbands}},
		{"AerTauLW", in.AerTauLW, []int{ncol, nlay, nlwbands}},
	}
	for _, v := range arrays {
		if err := checkShape(v.name, v.a, v.shape...); err != nil {
			return err
		}
	}
	for _, v := range []struct {
		name string
		s    []float64
	}{
		{"Mu0", in.Mu0},
		{"SfcAlbDirVis", in.SfcAlbDirVis},
		{"SfcAlbDirNir", in.SfcAlbDirNir},
		{"SfcAlbDifVis", in.SfcAlbDifVis},
		{"SfcAlbDifNir", in.SfcAlbDifNir},
	} {
		if len(v.s) != ncol {
			return fmt.Errorf("colrad: %w: %s has %d values for %d columns", ErrDimension, v.name, len(v.s), ncol)
		}
	}
	if in.Gas == nil || in.Gas.Ncol != ncol || in.Gas.Nlay != nlay {
		return fmt.Errorf("colrad: %w: gas concentrations do not match %d columns and %d layers", ErrDimension, ncol, nlay)
	}
	return nil
}

func checkShape(name string, a *sparse.DenseArray, shape ...int) error {
	if a == nil {
		return fmt.Errorf("colrad: %w: %s is not allocated", ErrDimension, name)
	}
	if len(a.Shape) != len(shape) {
		return fmt.Errorf("colrad: %w: %s has shape %v, want %v", ErrDimension, name, a.Shape, shape)
	}
	for i, s := range shape {
		if a.Shape[i] != s {
			return fmt.Errorf("colrad: %w: %s has shape %v, want %v", ErrDimension, name, a.Shape, shape)
		}
	}
	return nil
}
