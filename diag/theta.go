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
	"math"

	"github.com/ctessum/unit"
	"github.com/spatialmodel/colrad/internal/par"
	"github.com/spf13/cast"
)

func init() {
	Register("PotentialTemperature", NewPotentialTemperature)
}

// PotentialTemperature computes potential temperature at layer
// midpoints. With the "Temperature Kind" parameter set to "Liq" it
// computes liquid water potential temperature instead; the default is
// "Tot".
type PotentialTemperature struct {
	base
	liquid bool
}

// NewPotentialTemperature returns a potential temperature diagnostic.
func NewPotentialTemperature(params Params) (Diagnostic, error) {
	kind := "Tot"
	if v, ok := params["Temperature Kind"]; ok {
		var err error
		if kind, err = cast.ToStringE(v); err != nil {
			return nil, fmt.Errorf("diag: PotentialTemperature: Temperature Kind: %v", err)
		}
	}
	if kind != "Tot" && kind != "Liq" {
		return nil, fmt.Errorf("diag: PotentialTemperature: Temperature Kind %q is not Tot or Liq", kind)
	}
	name := "PotentialTemperature"
	if kind == "Liq" {
		name = "LiqPotentialTemperature"
	}
	return &PotentialTemperature{
		base: newBase(name,
			FieldRequest{Name: name, Units: unit.Kelvin},
			FieldRequest{Name: "T_mid", Units: unit.Kelvin},
			FieldRequest{Name: "p_mid", Units: unit.Pascal},
			FieldRequest{Name: "qc", Units: unit.Dimless},
		),
		liquid: kind == "Liq",
	}, nil
}

// Theta returns the potential temperature of air at temperature t [K]
// and pressure p [Pa].
func Theta(t, p float64) float64 {
	return t * math.Pow(P0/p, Rd/Cp)
}

// Compute implements Diagnostic.
func (d *PotentialTemperature) Compute() error {
	f, err := d.fields()
	if err != nil {
		return err
	}
	t, p, qc := f[0].Elements, f[1].Elements, f[2].Elements
	out := d.out.Data.Elements
	par.For(len(out), func(i int) {
		theta := Theta(t[i], p[i])
		if d.liquid {
			theta -= theta / t[i] * LatVap / Cp * qc[i]
		}
		out[i] = theta
	})
	return nil
}
