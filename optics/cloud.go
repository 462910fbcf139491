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

package optics

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/colrad/internal/par"
)

// DefaultIceRoughness is the ice crystal roughness category (1-based:
// 1 smooth, 2 medium, 3 rough) used for all-sky calculations.
const DefaultIceRoughness = 2

// CloudOptics is a lookup table of liquid and ice cloud optical
// properties on uniformly spaced effective radius grids.
type CloudOptics struct {
	// BandLims holds the wavenumber limits of each band [cm-1].
	BandLims [][2]float64

	// Effective radius limits of the liquid and ice tables [micron].
	RadLiqLwr, RadLiqUpr float64
	RadIceLwr, RadIceUpr float64

	// ExtLiq [m2/g], SsaLiq and AsyLiq are dimensioned (nsize_liq, nband).
	ExtLiq, SsaLiq, AsyLiq *sparse.DenseArray

	// ExtIce [m2/g], SsaIce and AsyIce are dimensioned
	// (nrghice, nsize_ice, nband).
	ExtIce, SsaIce, AsyIce *sparse.DenseArray

	// IceRoughness is the 1-based ice roughness category.
	IceRoughness int

	// Clamped, if not nil, is called with the number of cloudy cells
	// whose effective radius was clamped to the table range; phase is
	// "liquid" or "ice".
	Clamped func(phase string, n int)
}

// NBand returns the number of bands in the table.
func (c *CloudOptics) NBand() int { return len(c.BandLims) }

// Check returns an error if the table dimensions are inconsistent.
func (c *CloudOptics) Check() error {
	nband := len(c.BandLims)
	for _, a := range []*sparse.DenseArray{c.ExtLiq, c.SsaLiq, c.AsyLiq} {
		if a == nil || len(a.Shape) != 2 || a.Shape[1] != nband || a.Shape[0] < 2 {
			return fmt.Errorf("optics: liquid cloud table must be (nsize_liq>=2, %d)", nband)
		}
	}
	for _, a := range []*sparse.DenseArray{c.ExtIce, c.SsaIce, c.AsyIce} {
		if a == nil || len(a.Shape) != 3 || a.Shape[2] != nband || a.Shape[1] < 2 {
			return fmt.Errorf("optics: ice cloud table must be (nrghice, nsize_ice>=2, %d)", nband)
		}
	}
	if !(c.RadLiqUpr > c.RadLiqLwr) || !(c.RadIceUpr > c.RadIceLwr) {
		return fmt.Errorf("optics: invalid cloud table radius limits")
	}
	return nil
}

// LimitToBounds returns a copy of x with every element clamped to
// [lo, hi], along with the number of elements that were changed.
func LimitToBounds(x *sparse.DenseArray, lo, hi float64) (*sparse.DenseArray, int) {
	out := x.Copy()
	n := 0
	for i, v := range out.Elements {
		c := math.Min(math.Max(v, lo), hi)
		if c != v {
			n++
		}
		out.Elements[i] = c
	}
	return out, n
}

// changed counts the elements of a and b that differ where path is
// positive.
func changed(a, b, path *sparse.DenseArray) int {
	n := 0
	for i, v := range a.Elements {
		if path.Elements[i] > 0 && b.Elements[i] != v {
			n++
		}
	}
	return n
}

// lut linearly interpolates a table stored (nsize, nband) starting at
// element offset off, on a radius grid from lo with spacing step.
func lut(a []float64, off, nsize, nband, band int, lo, step, r float64) float64 {
	x := (r - lo) / step
	i := int(x)
	if i >= nsize-1 {
		i = nsize - 2
	}
	if i < 0 {
		i = 0
	}
	w := x - float64(i)
	return a[off+i*nband+band] + w*(a[off+(i+1)*nband+band]-a[off+i*nband+band])
}

// cloudState holds per-phase optical depth, scattering optical depth and
// scattering-weighted asymmetry for one (column, layer, band).
type cloudState struct {
	tau, taussa, taussag float64
}

// compute evaluates the liquid plus ice optical state for every
// (column, layer, band). lwp and iwp are in g/m2, rel and rei in micron.
func (c *CloudOptics) compute(lwp, iwp, rel, rei *sparse.DenseArray) (ncol, nlay int, liq, ice []cloudState, err error) {
	if err = c.Check(); err != nil {
		return
	}
	if len(lwp.Shape) != 2 {
		err = fmt.Errorf("optics: cloud water path must be (ncol, nlay), got %v", lwp.Shape)
		return
	}
	for _, a := range []*sparse.DenseArray{iwp, rel, rei} {
		if len(a.Shape) != 2 || a.Shape[0] != lwp.Shape[0] || a.Shape[1] != lwp.Shape[1] {
			err = fmt.Errorf("optics: cloud inputs have shapes %v and %v", lwp.Shape, a.Shape)
			return
		}
	}
	ncol, nlay = lwp.Shape[0], lwp.Shape[1]
	relC, _ := LimitToBounds(rel, c.RadLiqLwr, c.RadLiqUpr)
	reiC, _ := LimitToBounds(rei, c.RadIceLwr, c.RadIceUpr)
	if c.Clamped != nil {
		c.Clamped("liquid", changed(rel, relC, lwp))
		c.Clamped("ice", changed(rei, reiC, iwp))
	}

	nband := c.NBand()
	nsl := c.ExtLiq.Shape[0]
	nsi := c.ExtIce.Shape[1]
	stepLiq := (c.RadLiqUpr - c.RadLiqLwr) / float64(nsl-1)
	stepIce := (c.RadIceUpr - c.RadIceLwr) / float64(nsi-1)
	rgh := c.IceRoughness
	if rgh < 1 {
		rgh = DefaultIceRoughness
	}
	if rgh > c.ExtIce.Shape[0] {
		rgh = c.ExtIce.Shape[0]
	}
	offIce := (rgh - 1) * nsi * nband

	liq = make([]cloudState, ncol*nlay*nband)
	ice = make([]cloudState, ncol*nlay*nband)
	par.For2(ncol*nlay, nband, func(cl, b int) {
		i := cl*nband + b
		if w := lwp.Elements[cl]; w > 0 {
			r := relC.Elements[cl]
			ext := lut(c.ExtLiq.Elements, 0, nsl, nband, b, c.RadLiqLwr, stepLiq, r)
			ssa := lut(c.SsaLiq.Elements, 0, nsl, nband, b, c.RadLiqLwr, stepLiq, r)
			asy := lut(c.AsyLiq.Elements, 0, nsl, nband, b, c.RadLiqLwr, stepLiq, r)
			tau := w * ext
			liq[i] = cloudState{tau: tau, taussa: tau * ssa, taussag: tau * ssa * asy}
		}
		if w := iwp.Elements[cl]; w > 0 {
			r := reiC.Elements[cl]
			ext := lut(c.ExtIce.Elements, offIce, nsi, nband, b, c.RadIceLwr, stepIce, r)
			ssa := lut(c.SsaIce.Elements, offIce, nsi, nband, b, c.RadIceLwr, stepIce, r)
			asy := lut(c.AsyIce.Elements, offIce, nsi, nband, b, c.RadIceLwr, stepIce, r)
			tau := w * ext
			ice[i] = cloudState{tau: tau, taussa: tau * ssa, taussag: tau * ssa * asy}
		}
	})
	return
}

// ComputeSW returns by-band two-stream cloud optical properties for the
// given liquid and ice water paths [g/m2] and effective radii [micron].
// Radii outside the table range are clamped.
func (c *CloudOptics) ComputeSW(lwp, iwp, rel, rei *sparse.DenseArray) (*TwoStream, error) {
	ncol, nlay, liq, ice, err := c.compute(lwp, iwp, rel, rei)
	if err != nil {
		return nil, err
	}
	out := NewTwoStream(c.BandLims, ncol, nlay)
	par.For(len(liq), func(i int) {
		tau := liq[i].tau + ice[i].tau
		taussa := liq[i].taussa + ice[i].taussa
		taussag := liq[i].taussag + ice[i].taussag
		out.Tau.Elements[i] = tau
		out.Ssa.Elements[i] = taussa / math.Max(eps, tau)
		out.G.Elements[i] = taussag / math.Max(eps, taussa)
	})
	return out, nil
}

// ComputeLW returns by-band absorption cloud optical depths for the given
// liquid and ice water paths [g/m2] and effective radii [micron].
func (c *CloudOptics) ComputeLW(lwp, iwp, rel, rei *sparse.DenseArray) (*OneScalar, error) {
	ncol, nlay, liq, ice, err := c.compute(lwp, iwp, rel, rei)
	if err != nil {
		return nil, err
	}
	out := NewOneScalar(c.BandLims, ncol, nlay)
	par.For(len(liq), func(i int) {
		out.Tau.Elements[i] = (liq[i].tau - liq[i].taussa) + (ice[i].tau - ice[i].taussa)
	})
	return out, nil
}
