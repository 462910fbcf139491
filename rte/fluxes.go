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

// Package rte solves for radiative fluxes given column optical properties
// and boundary conditions: a two-stream adding solver for shortwave
// radiation and a no-scattering Gaussian quadrature solver for longwave
// radiation.
package rte

import (
	"errors"
	"fmt"

	"github.com/ctessum/sparse"
)

// ErrDimension is wrapped by errors reporting inputs whose dimensions
// disagree with each other.
var ErrDimension = errors.New("dimension mismatch")

// Fluxes holds broadband fluxes dimensioned (ncol, nlay+1) and band
// fluxes dimensioned (ncol, nlay+1, nband) [W/m2]. The direct beam fields
// are nil for longwave fluxes.
type Fluxes struct {
	Ncol, Nlay, Nband int

	FluxUp, FluxDn, FluxDnDir          *sparse.DenseArray
	BndFluxUp, BndFluxDn, BndFluxDnDir *sparse.DenseArray
}

// NewFluxes allocates zeroed fluxes. direct selects whether the direct
// beam fields are allocated.
func NewFluxes(ncol, nlay, nband int, direct bool) *Fluxes {
	f := &Fluxes{
		Ncol:      ncol,
		Nlay:      nlay,
		Nband:     nband,
		FluxUp:    sparse.ZerosDense(ncol, nlay+1),
		FluxDn:    sparse.ZerosDense(ncol, nlay+1),
		BndFluxUp: sparse.ZerosDense(ncol, nlay+1, nband),
		BndFluxDn: sparse.ZerosDense(ncol, nlay+1, nband),
	}
	if direct {
		f.FluxDnDir = sparse.ZerosDense(ncol, nlay+1)
		f.BndFluxDnDir = sparse.ZerosDense(ncol, nlay+1, nband)
	}
	return f
}

// Arrays returns the non-nil flux arrays.
func (f *Fluxes) Arrays() []*sparse.DenseArray {
	var out []*sparse.DenseArray
	for _, a := range []*sparse.DenseArray{f.FluxUp, f.FluxDn, f.FluxDnDir, f.BndFluxUp, f.BndFluxDn, f.BndFluxDnDir} {
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}

// Zero sets every flux to zero.
func (f *Fluxes) Zero() {
	for _, a := range f.Arrays() {
		for i := range a.Elements {
			a.Elements[i] = 0
		}
	}
}

// Check returns an error wrapping ErrDimension if the fluxes are not
// dimensioned for ncol columns, nlay layers and nband bands, or if the
// direct fields are missing when direct is true.
func (f *Fluxes) Check(ncol, nlay, nband int, direct bool) error {
	if f == nil {
		return fmt.Errorf("rte: %w: nil fluxes", ErrDimension)
	}
	if err := checkShape("FluxUp", f.FluxUp, ncol, nlay+1); err != nil {
		return err
	}
	if err := checkShape("FluxDn", f.FluxDn, ncol, nlay+1); err != nil {
		return err
	}
	if err := checkShape("BndFluxUp", f.BndFluxUp, ncol, nlay+1, nband); err != nil {
		return err
	}
	if err := checkShape("BndFluxDn", f.BndFluxDn, ncol, nlay+1, nband); err != nil {
		return err
	}
	if direct {
		if err := checkShape("FluxDnDir", f.FluxDnDir, ncol, nlay+1); err != nil {
			return err
		}
		if err := checkShape("BndFluxDnDir", f.BndFluxDnDir, ncol, nlay+1, nband); err != nil {
			return err
		}
	}
	return nil
}

// LWSources holds the Planck source functions of a longwave solve, by
// g-point [W m-2 sr-1]: LaySrc (ncol, nlay, ngpt) at layer temperatures,
// LevSrc (ncol, nlay+1, ngpt) at level temperatures, and SfcSrc
// (ncol, ngpt) at the surface temperature.
type LWSources struct {
	LaySrc, LevSrc, SfcSrc *sparse.DenseArray
}

// NewLWSources allocates zeroed sources.
func NewLWSources(ncol, nlay, ngpt int) *LWSources {
	return &LWSources{
		LaySrc: sparse.ZerosDense(ncol, nlay, ngpt),
		LevSrc: sparse.ZerosDense(ncol, nlay+1, ngpt),
		SfcSrc: sparse.ZerosDense(ncol, ngpt),
	}
}
