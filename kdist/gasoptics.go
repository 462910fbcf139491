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
	"math"
	"sort"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/colrad/internal/par"
	"github.com/spatialmodel/colrad/optics"
	"github.com/spatialmodel/colrad/rte"
)

// Physical constants
const (
	grav = 9.80665   // gravitational acceleration [m/s2]
	mDry = 0.0289644 // molar mass of dry air [kg/mol]
	mH2O = 0.018016  // molar mass of water vapor [kg/mol]
)

const eps = 3 * 2.2250738585072014e-308

// ColDry returns the number of moles of dry air per unit area [mol/m2]
// in a layer bounded by pressures p1 and p2 [Pa] with water vapor
// mixing ratio h2o [mol/mol dry air].
func ColDry(p1, p2, h2o float64) float64 {
	fact := 1 / (1 + h2o)
	mAir := (mDry + mH2O*h2o) * fact
	return math.Abs(p1-p2) / (grav * mAir) * fact
}

// weights returns the lower bracketing index of x in the increasing
// grid and the linear weight of the upper point. x is clamped to the
// grid.
func weights(grid []float64, x float64) (int, float64) {
	n := len(grid)
	if x <= grid[0] {
		return 0, 0
	}
	if x >= grid[n-1] {
		return n - 2, 1
	}
	i := sort.SearchFloat64s(grid, x) - 1
	return i, (x - grid[i]) / (grid[i+1] - grid[i])
}

// state is the interpolation state of one column layer.
type state struct {
	it, ip   int
	ft, fp   float64
	colDry   float64
	colTotal float64
}

// resolve returns, for each absorbing gas of k, the index of its
// concentrations in gas, and the index of water vapor (-1 if absent).
func (k *KDistribution) resolve(gas *GasConcs) ([]int, int, error) {
	idx := make([]int, len(k.GasNames))
	for i, n := range k.GasNames {
		j, ok := gas.Index(n)
		if !ok {
			return nil, -1, fmt.Errorf("kdist: no concentrations for gas %s", n)
		}
		idx[i] = j
	}
	h2o, ok := gas.Index("h2o")
	if !ok {
		h2o = -1
	}
	return idx, h2o, nil
}

// checkState returns an error wrapping rte.ErrDimension if the
// atmospheric state arrays are inconsistent.
func checkState(play, plev, tlay *sparse.DenseArray, gas *GasConcs) (ncol, nlay int, err error) {
	if len(play.Shape) != 2 {
		return 0, 0, fmt.Errorf("kdist: %w: layer pressure has shape %v", rte.ErrDimension, play.Shape)
	}
	ncol, nlay = play.Shape[0], play.Shape[1]
	if len(tlay.Shape) != 2 || tlay.Shape[0] != ncol || tlay.Shape[1] != nlay {
		return 0, 0, fmt.Errorf("kdist: %w: layer temperature has shape %v, want [%d %d]", rte.ErrDimension, tlay.Shape, ncol, nlay)
	}
	if len(plev.Shape) != 2 || plev.Shape[0] != ncol || plev.Shape[1] != nlay+1 {
		return 0, 0, fmt.Errorf("kdist: %w: level pressure has shape %v, want [%d %d]", rte.ErrDimension, plev.Shape, ncol, nlay+1)
	}
	if gas.Ncol != ncol || gas.Nlay != nlay {
		return 0, 0, fmt.Errorf("kdist: %w: gas concentrations are [%d %d], want [%d %d]", rte.ErrDimension, gas.Ncol, gas.Nlay, ncol, nlay)
	}
	return ncol, nlay, nil
}

// absorption computes the gas absorption optical depth of every
// (column, layer, g-point) into tau and returns the per-layer
// interpolation states.
func (k *KDistribution) absorption(play, plev, tlay *sparse.DenseArray, gas *GasConcs, tau []float64) ([]state, error) {
	ncol, nlay, err := checkState(play, plev, tlay, gas)
	if err != nil {
		return nil, err
	}
	idx, h2o, err := k.resolve(gas)
	if err != nil {
		return nil, err
	}
	ngpt := k.NGpt()
	ntemp, npres := len(k.TempRef), len(k.PressRef)
	lnp := make([]float64, npres)
	for i, p := range k.PressRef {
		lnp[i] = math.Log(p)
	}
	st := make([]state, ncol*nlay)
	par.For(ncol*nlay, func(cl int) {
		c, l := cl/nlay, cl%nlay
		var q float64
		if h2o >= 0 {
			q = gas.VMR(h2o).Elements[cl]
		}
		s := &st[cl]
		s.colDry = ColDry(plev.Elements[c*(nlay+1)+l], plev.Elements[c*(nlay+1)+l+1], q)
		s.colTotal = s.colDry * (1 + q)
		s.it, s.ft = weights(k.TempRef, tlay.Elements[cl])
		s.ip, s.fp = weights(lnp, math.Log(play.Elements[cl]))

		t := tau[cl*ngpt : (cl+1)*ngpt]
		for i := range t {
			t[i] = 0
		}
		w00 := (1 - s.ft) * (1 - s.fp)
		w01 := (1 - s.ft) * s.fp
		w10 := s.ft * (1 - s.fp)
		w11 := s.ft * s.fp
		o00 := s.it*npres + s.ip
		for ig, j := range idx {
			col := gas.VMR(j).Elements[cl] * s.colDry
			if col == 0 {
				continue
			}
			ka := k.Kabs[ig].Elements
			for gpt := 0; gpt < ngpt; gpt++ {
				o := gpt*ntemp*npres + o00
				kk := w00*ka[o] + w01*ka[o+1] + w10*ka[o+npres] + w11*ka[o+npres+1]
				t[gpt] += kk * col
			}
		}
	})
	return st, nil
}

// GasOpticsSW computes gas optical properties into out, which must be
// stored by g-point with the bands of k, and the top-of-atmosphere
// solar flux of each column and g-point into toaFlux (ncol, ngpt).
// play and tlay are dimensioned (ncol, nlay) and plev (ncol, nlay+1).
func (k *KDistribution) GasOpticsSW(play, plev, tlay *sparse.DenseArray, gas *GasConcs, out *optics.TwoStream, toaFlux *sparse.DenseArray) error {
	if k.Spectrum != SW {
		return fmt.Errorf("kdist: shortwave gas optics from %s tables", k.Spectrum)
	}
	if err := k.checkOut(out.Spectral, out.Ncol, out.Nlay, play); err != nil {
		return err
	}
	ngpt := k.NGpt()
	if len(toaFlux.Shape) != 2 || toaFlux.Shape[0] != out.Ncol || toaFlux.Shape[1] != ngpt {
		return fmt.Errorf("kdist: %w: TOA flux has shape %v, want [%d %d]", rte.ErrDimension, toaFlux.Shape, out.Ncol, ngpt)
	}
	st, err := k.absorption(play, plev, tlay, gas, out.Tau.Elements)
	if err != nil {
		return err
	}
	tau, ssa, asy := out.Tau.Elements, out.Ssa.Elements, out.G.Elements
	par.For(len(st), func(cl int) {
		for gpt := 0; gpt < ngpt; gpt++ {
			i := cl*ngpt + gpt
			tauRay := k.Rayl[gpt] * st[cl].colTotal
			tau[i] += tauRay
			ssa[i] = tauRay / math.Max(eps, tau[i])
			asy[i] = 0
		}
	})
	par.For(out.Ncol, func(c int) {
		copy(toaFlux.Elements[c*ngpt:(c+1)*ngpt], k.SolarSrc)
	})
	return nil
}

// GasOpticsLW computes gas absorption optical depths into out, which
// must be stored by g-point with the bands of k, and the Planck sources
// at the layer, level and surface temperatures into src. tlev is
// dimensioned (ncol, nlay+1) and tsfc has one value per column.
func (k *KDistribution) GasOpticsLW(play, plev, tlay, tlev *sparse.DenseArray, tsfc []float64, gas *GasConcs, out *optics.OneScalar, src *rte.LWSources) error {
	if k.Spectrum != LW {
		return fmt.Errorf("kdist: longwave gas optics from %s tables", k.Spectrum)
	}
	if err := k.checkOut(out.Spectral, out.Ncol, out.Nlay, play); err != nil {
		return err
	}
	ncol, nlay, ngpt := out.Ncol, out.Nlay, k.NGpt()
	if len(tlev.Shape) != 2 || tlev.Shape[0] != ncol || tlev.Shape[1] != nlay+1 {
		return fmt.Errorf("kdist: %w: level temperature has shape %v, want [%d %d]", rte.ErrDimension, tlev.Shape, ncol, nlay+1)
	}
	if len(tsfc) != ncol {
		return fmt.Errorf("kdist: %w: %d surface temperatures, want %d", rte.ErrDimension, len(tsfc), ncol)
	}
	if src.LaySrc.Shape[0] != ncol || src.LaySrc.Shape[1] != nlay || src.LaySrc.Shape[2] != ngpt {
		return fmt.Errorf("kdist: %w: sources have shape %v, want [%d %d %d]", rte.ErrDimension, src.LaySrc.Shape, ncol, nlay, ngpt)
	}
	if _, err := k.absorption(play, plev, tlay, gas, out.Tau.Elements); err != nil {
		return err
	}
	gptBand := k.GptBand()
	planck := func(t float64, dst []float64) {
		it, ft := weights(k.PlanckTemp, t)
		nband := k.NBand()
		p := k.TotPlnk.Elements
		for gpt, b := range gptBand {
			lo := p[it*nband+b]
			dst[gpt] = k.PlanckFrac[gpt] * (lo + ft*(p[(it+1)*nband+b]-lo))
		}
	}
	par.For(ncol*nlay, func(cl int) {
		planck(tlay.Elements[cl], src.LaySrc.Elements[cl*ngpt:(cl+1)*ngpt])
	})
	par.For(ncol*(nlay+1), func(cl int) {
		planck(tlev.Elements[cl], src.LevSrc.Elements[cl*ngpt:(cl+1)*ngpt])
	})
	par.For(ncol, func(c int) {
		planck(tsfc[c], src.SfcSrc.Elements[c*ngpt:(c+1)*ngpt])
	})
	return nil
}

func (k *KDistribution) checkOut(s optics.Spectral, ncol, nlay int, play *sparse.DenseArray) error {
	if !s.ByGpoint() || s.NGpt() != k.NGpt() {
		return fmt.Errorf("kdist: %w: output optics need %d g-points", optics.ErrBands, k.NGpt())
	}
	if err := s.CheckBands(k.BandLims); err != nil {
		return err
	}
	if len(play.Shape) != 2 || play.Shape[0] != ncol || play.Shape[1] != nlay {
		return fmt.Errorf("kdist: %w: output optics are [%d %d] but layer pressure is %v", rte.ErrDimension, ncol, nlay, play.Shape)
	}
	return nil
}
