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

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/colrad/optics"
)

// GasConcs holds volume mixing ratios [mol/mol] of named gases, each
// dimensioned (ncol, nlay). Gas names are resolved to indices once, at
// construction.
type GasConcs struct {
	Ncol, Nlay int
	names      []string
	index      map[string]int
	vmr        []*sparse.DenseArray
}

// NewGasConcs returns zero concentrations of the named gases.
func NewGasConcs(names []string, ncol, nlay int) (*GasConcs, error) {
	g := &GasConcs{
		Ncol:  ncol,
		Nlay:  nlay,
		names: append([]string(nil), names...),
		index: make(map[string]int, len(names)),
		vmr:   make([]*sparse.DenseArray, len(names)),
	}
	for i, n := range names {
		if _, ok := g.index[n]; ok {
			return nil, fmt.Errorf("kdist: duplicate gas %s", n)
		}
		g.index[n] = i
		g.vmr[i] = sparse.ZerosDense(ncol, nlay)
	}
	return g, nil
}

// Names returns the gas names in index order.
func (g *GasConcs) Names() []string { return g.names }

// Index returns the index of the named gas.
func (g *GasConcs) Index(name string) (int, bool) {
	i, ok := g.index[name]
	return i, ok
}

// VMR returns the mixing ratios of the gas with index i.
func (g *GasConcs) VMR(i int) *sparse.DenseArray { return g.vmr[i] }

// Set sets the mixing ratios of the named gas.
func (g *GasConcs) Set(name string, vmr *sparse.DenseArray) error {
	i, ok := g.index[name]
	if !ok {
		return fmt.Errorf("kdist: gas %s is not in the concentration set", name)
	}
	if len(vmr.Shape) != 2 || vmr.Shape[0] != g.Ncol || vmr.Shape[1] != g.Nlay {
		return fmt.Errorf("kdist: gas %s has shape %v, want [%d %d]", name, vmr.Shape, g.Ncol, g.Nlay)
	}
	g.vmr[i] = vmr
	return nil
}

// Subset returns the concentrations of the given columns, in order.
func (g *GasConcs) Subset(cols []int) *GasConcs {
	o := &GasConcs{
		Ncol:  len(cols),
		Nlay:  g.Nlay,
		names: g.names,
		index: g.index,
		vmr:   make([]*sparse.DenseArray, len(g.vmr)),
	}
	for i, v := range g.vmr {
		o.vmr[i] = optics.GatherColumns(v, cols)
	}
	return o
}
