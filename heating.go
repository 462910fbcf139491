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
	"github.com/spatialmodel/colrad/internal/par"
	"github.com/spatialmodel/colrad/rte"
)

const (
	gravity = 9.80665 // m/s2
	cpAir   = 1004.64 // specific heat of dry air at constant pressure, J/kg/K
)

// HeatingRates returns the radiative heating rate [K/s] of each layer
// implied by the fluxes f and the level pressures pLev (ncol, nlay+1)
// [Pa]. The result is dimensioned (ncol, nlay) and does not depend on
// whether the first level is at the top or the bottom of the atmosphere.
func HeatingRates(f *rte.Fluxes, pLev *sparse.DenseArray) (*sparse.DenseArray, error) {
	if err := checkShape("PLev", pLev, f.Ncol, f.Nlay+1); err != nil {
		return nil, err
	}
	if err := checkShape("FluxUp", f.FluxUp, f.Ncol, f.Nlay+1); err != nil {
		return nil, err
	}
	if err := checkShape("FluxDn", f.FluxDn, f.Ncol, f.Nlay+1); err != nil {
		return nil, err
	}
	ncol, nlay := f.Ncol, f.Nlay
	nlev := nlay + 1
	for i, p := range pLev.Elements {
		if (i+1)%nlev != 0 && pLev.Elements[i+1] == p {
			return nil, fmt.Errorf("colrad: layer %d of column %d has zero pressure thickness", i%nlev, i/nlev)
		}
	}
	hr := sparse.ZerosDense(ncol, nlay)
	par.For2(ncol, nlay, func(c, k int) {
		i := c*nlev + k
		net0 := f.FluxUp.Elements[i] - f.FluxDn.Elements[i]
		net1 := f.FluxUp.Elements[i+1] - f.FluxDn.Elements[i+1]
		dp := pLev.Elements[i+1] - pLev.Elements[i]
		hr.Elements[c*nlay+k] = gravity / cpAir * (net1 - net0) / dp
	})
	return hr, nil
}
