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

// Package kdist implements correlated-k gas optics: k-distribution
// coefficient tables, their conversion of gas concentrations, pressure
// and temperature into optical properties and source functions by
// g-point, and the netCDF coefficient file format.
package kdist

import (
	"fmt"

	"github.com/ctessum/sparse"
)

// Spectrum distinguishes shortwave (solar) from longwave (thermal)
// k-distributions.
type Spectrum int

// The spectra.
const (
	SW Spectrum = iota
	LW
)

func (s Spectrum) String() string {
	switch s {
	case SW:
		return "sw"
	case LW:
		return "lw"
	default:
		panic(fmt.Errorf("kdist: invalid spectrum %d", int(s)))
	}
}

// ParseSpectrum converts "sw" or "lw" to a Spectrum.
func ParseSpectrum(s string) (Spectrum, error) {
	switch s {
	case "sw":
		return SW, nil
	case "lw":
		return LW, nil
	default:
		return 0, fmt.Errorf("kdist: invalid spectrum %q", s)
	}
}

// KDistribution is a set of correlated-k coefficient tables. It is not
// modified after it is loaded.
type KDistribution struct {
	Spectrum Spectrum

	// BandLims holds the wavenumber limits of each band [cm-1].
	BandLims [][2]float64

	// BandGpt holds the first and last (inclusive, zero-based) g-point
	// of each band.
	BandGpt [][2]int

	// GasNames are the absorbing gases, in the order of Kabs.
	GasNames []string

	// PressRef [Pa] and TempRef [K] are the strictly increasing pressure
	// and temperature grids of the absorption tables.
	PressRef, TempRef []float64

	// Kabs holds one absorption coefficient table per gas, dimensioned
	// (ngpt, ntemp, npres) [m2/mol].
	Kabs []*sparse.DenseArray

	// Rayl is the Rayleigh scattering coefficient by g-point [m2/mol]
	// and SolarSrc the top-of-atmosphere solar flux by g-point [W/m2].
	// Shortwave only.
	Rayl, SolarSrc []float64

	// PlanckTemp is the strictly increasing temperature grid [K] of
	// TotPlnk, the band-integrated Planck radiance dimensioned
	// (ntemp_planck, nband) [W m-2 sr-1]. PlanckFrac is the fraction
	// of its band's radiance emitted in each g-point. Longwave only.
	PlanckTemp []float64
	TotPlnk    *sparse.DenseArray
	PlanckFrac []float64
}

// NBand returns the number of bands.
func (k *KDistribution) NBand() int { return len(k.BandLims) }

// NGpt returns the number of g-points.
func (k *KDistribution) NGpt() int {
	if len(k.BandGpt) == 0 {
		return 0
	}
	return k.BandGpt[len(k.BandGpt)-1][1] + 1
}

// GptBand returns the band of each g-point.
func (k *KDistribution) GptBand() []int {
	out := make([]int, k.NGpt())
	for b, l := range k.BandGpt {
		for g := l[0]; g <= l[1]; g++ {
			out[g] = b
		}
	}
	return out
}

// TSI returns the total solar irradiance of the table [W/m2].
func (k *KDistribution) TSI() float64 {
	var s float64
	for _, v := range k.SolarSrc {
		s += v
	}
	return s
}

// Check returns an error if the tables are inconsistent with each other.
func (k *KDistribution) Check() error {
	nband := k.NBand()
	if nband == 0 || len(k.BandGpt) != nband {
		return fmt.Errorf("kdist: %d band limits but %d band g-point ranges", nband, len(k.BandGpt))
	}
	next := 0
	for b, l := range k.BandGpt {
		if l[0] != next || l[1] < l[0] {
			return fmt.Errorf("kdist: band %d g-points %v are not contiguous", b, l)
		}
		next = l[1] + 1
	}
	for b, l := range k.BandLims {
		if !(l[1] > l[0]) {
			return fmt.Errorf("kdist: band %d has limits %v", b, l)
		}
	}
	ngpt := k.NGpt()
	if err := increasing("press_ref", k.PressRef); err != nil {
		return err
	}
	if err := increasing("temp_ref", k.TempRef); err != nil {
		return err
	}
	if len(k.Kabs) != len(k.GasNames) {
		return fmt.Errorf("kdist: %d gases but %d absorption tables", len(k.GasNames), len(k.Kabs))
	}
	for i, a := range k.Kabs {
		if len(a.Shape) != 3 || a.Shape[0] != ngpt || a.Shape[1] != len(k.TempRef) || a.Shape[2] != len(k.PressRef) {
			return fmt.Errorf("kdist: absorption table for %s has shape %v, want [%d %d %d]",
				k.GasNames[i], a.Shape, ngpt, len(k.TempRef), len(k.PressRef))
		}
	}
	switch k.Spectrum {
	case SW:
		if len(k.Rayl) != ngpt || len(k.SolarSrc) != ngpt {
			return fmt.Errorf("kdist: shortwave tables need %d Rayleigh and solar source values", ngpt)
		}
	case LW:
		if len(k.PlanckFrac) != ngpt {
			return fmt.Errorf("kdist: longwave tables need %d Planck fractions", ngpt)
		}
		if err := increasing("temperature_Planck", k.PlanckTemp); err != nil {
			return err
		}
		if k.TotPlnk == nil || len(k.TotPlnk.Shape) != 2 ||
			k.TotPlnk.Shape[0] != len(k.PlanckTemp) || k.TotPlnk.Shape[1] != nband {
			return fmt.Errorf("kdist: Planck table must be [%d %d]", len(k.PlanckTemp), nband)
		}
	default:
		return fmt.Errorf("kdist: invalid spectrum %d", int(k.Spectrum))
	}
	return nil
}

func increasing(name string, x []float64) error {
	if len(x) < 2 {
		return fmt.Errorf("kdist: %s needs at least 2 values", name)
	}
	for i := 1; i < len(x); i++ {
		if !(x[i] > x[i-1]) {
			return fmt.Errorf("kdist: %s is not strictly increasing", name)
		}
	}
	return nil
}

// Select returns a copy of k that only absorbs by the gases in names
// that k has tables for. The tables themselves are shared.
func (k *KDistribution) Select(names []string) *KDistribution {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	o := *k
	o.GasNames = nil
	o.Kabs = nil
	for i, n := range k.GasNames {
		if want[n] {
			o.GasNames = append(o.GasNames, n)
			o.Kabs = append(o.Kabs, k.Kabs[i])
		}
	}
	return &o
}
