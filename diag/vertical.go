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

package diag

import (
	"fmt"

	"github.com/ctessum/unit"
	"github.com/spatialmodel/colrad/internal/par"
	"github.com/spf13/cast"
)

func init() {
	Register("z_int", func(p Params) (Diagnostic, error) { return NewVerticalLayerInterface(false, p) })
	Register("geopotential_int", func(p Params) (Diagnostic, error) { return NewVerticalLayerInterface(true, p) })
}

var geopotentialUnits = unit.Dimensions{unit.LengthDim: 2, unit.TimeDim: -2}

// VerticalLayerInterface computes the height [m] or geopotential
// [m2/s2] of layer interfaces by integrating hydrostatic layer
// thicknesses upward from the surface. If the "from_sea_level" parameter
// is true (the default) the integration starts at the surface
// geopotential phis, otherwise at zero.
type VerticalLayerInterface struct {
	base
	geopotential bool
	fromSeaLevel bool
}

// NewVerticalLayerInterface returns an interface height diagnostic, or
// an interface geopotential diagnostic if geopotential is true.
func NewVerticalLayerInterface(geopotential bool, params Params) (Diagnostic, error) {
	name, units := "z_int", unit.Meter
	if geopotential {
		name, units = "geopotential_int", geopotentialUnits
	}
	fromSeaLevel := true
	if v, ok := params["from_sea_level"]; ok {
		var err error
		if fromSeaLevel, err = cast.ToBoolE(v); err != nil {
			return nil, fmt.Errorf("diag: %s: from_sea_level: %v", name, err)
		}
	}
	return &VerticalLayerInterface{
		base: newBase(name,
			FieldRequest{Name: name, Units: units, Layout: Interfaces},
			FieldRequest{Name: "phis", Units: geopotentialUnits, Layout: Surface},
			FieldRequest{Name: "T_mid", Units: unit.Kelvin},
			FieldRequest{Name: "pseudo_density", Units: unit.Pascal},
			FieldRequest{Name: "p_mid", Units: unit.Pascal},
			FieldRequest{Name: "qv", Units: unit.Dimless},
		),
		geopotential: geopotential,
		fromSeaLevel: fromSeaLevel,
	}, nil
}

// VirtualTemperature returns the virtual temperature of air at
// temperature t [K] with water vapor mixing ratio qv [kg/kg].
func VirtualTemperature(t, qv float64) float64 {
	return t * (qv + Ep2) / (Ep2 * (1 + qv))
}

// LayerThickness returns the hydrostatic thickness [m] of a layer with
// pressure thickness pseudoDensity [Pa], midpoint pressure p [Pa],
// temperature t [K] and water vapor mixing ratio qv [kg/kg].
func LayerThickness(pseudoDensity, p, t, qv float64) float64 {
	return Rd * VirtualTemperature(t, qv) * pseudoDensity / (Gravit * p)
}

// Compute implements Diagnostic.
func (d *VerticalLayerInterface) Compute() error {
	f, err := d.fields()
	if err != nil {
		return err
	}
	phis, t, dp, p, qv := f[0].Elements, f[1].Elements, f[2].Elements, f[3].Elements, f[4].Elements
	nlev := d.grid.Nlev
	out := d.out.Data.Elements
	scale := 1.
	if !d.geopotential {
		scale = 1 / Gravit
	}
	par.For(d.grid.Ncol, func(c int) {
		z := out[c*(nlev+1) : (c+1)*(nlev+1)]
		z[nlev] = 0
		if d.fromSeaLevel {
			z[nlev] = phis[c] * scale
		}
		for k := nlev - 1; k >= 0; k-- {
			i := c*nlev + k
			z[k] = z[k+1] + LayerThickness(dp[i], p[i], t[i], qv[i])*Gravit*scale
		}
	})
	return nil
}
