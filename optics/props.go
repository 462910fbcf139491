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

// Package optics holds the optical properties of atmospheric columns and the
// operations that compose them: delta-scaling, increments of one set of
// properties by another, column gathers, and cloud optics lookup tables.
//
// Properties are stored either by band or by g-point (spectral quadrature
// point). Arrays are indexed (column, layer, band|g-point).
package optics

import (
	"errors"
	"fmt"
	"math"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/colrad/internal/par"
)

// ErrBands is returned when two sets of optical properties or a set of
// optical properties and a k-distribution disagree on their spectral
// discretization.
var ErrBands = errors.New("optics: band definitions do not match")

// eps guards divisions by vanishing optical depths.
const eps = 3 * 2.2250738585072014e-308

// Spectral describes the spectral discretization shared by all optical
// property representations.
type Spectral struct {
	// BandLims holds the lower and upper wavenumber limit of each band [cm-1].
	BandLims [][2]float64

	// GptBand maps each g-point to its band. It is nil when the
	// properties are stored by band.
	GptBand []int
}

// NBand returns the number of bands.
func (s Spectral) NBand() int { return len(s.BandLims) }

// NGpt returns the number of g-points, or zero when the properties are
// stored by band.
func (s Spectral) NGpt() int { return len(s.GptBand) }

// ByGpoint reports whether the properties are stored by g-point.
func (s Spectral) ByGpoint() bool { return s.GptBand != nil }

// n is the length of the spectral axis.
func (s Spectral) n() int {
	if s.ByGpoint() {
		return len(s.GptBand)
	}
	return len(s.BandLims)
}

// CheckBands returns an error wrapping ErrBands if lims are not the
// band limits of s.
func (s Spectral) CheckBands(lims [][2]float64) error {
	if len(lims) != len(s.BandLims) {
		return fmt.Errorf("%w: %d bands, want %d", ErrBands, len(s.BandLims), len(lims))
	}
	for i, l := range lims {
		if math.Abs(l[0]-s.BandLims[i][0]) > 1e-6*math.Abs(l[0]) ||
			math.Abs(l[1]-s.BandLims[i][1]) > 1e-6*math.Abs(l[1]) {
			return fmt.Errorf("%w: band %d is %v, want %v", ErrBands, i, s.BandLims[i], l)
		}
	}
	return nil
}

func copyLims(lims [][2]float64) [][2]float64 {
	return append([][2]float64(nil), lims...)
}

// TwoStream holds optical depth, single-scattering albedo and asymmetry
// parameter. It represents scattering media.
type TwoStream struct {
	Spectral
	Ncol, Nlay int
	Tau, Ssa, G *sparse.DenseArray
}

// NewTwoStream returns zeroed two-stream properties stored by band.
func NewTwoStream(bandLims [][2]float64, ncol, nlay int) *TwoStream {
	return newTwoStream(Spectral{BandLims: copyLims(bandLims)}, ncol, nlay)
}

// NewTwoStreamGpt returns zeroed two-stream properties stored by g-point.
func NewTwoStreamGpt(bandLims [][2]float64, gptBand []int, ncol, nlay int) *TwoStream {
	return newTwoStream(Spectral{BandLims: copyLims(bandLims), GptBand: append([]int(nil), gptBand...)}, ncol, nlay)
}

func newTwoStream(s Spectral, ncol, nlay int) *TwoStream {
	n := s.n()
	return &TwoStream{
		Spectral: s,
		Ncol:     ncol,
		Nlay:     nlay,
		Tau:      sparse.ZerosDense(ncol, nlay, n),
		Ssa:      sparse.ZerosDense(ncol, nlay, n),
		G:        sparse.ZerosDense(ncol, nlay, n),
	}
}

// DeltaScale rescales the properties in place so that the forward
// scattering peak, with fraction f = g*g, is treated as unscattered.
func (o *TwoStream) DeltaScale() {
	tau, ssa, g := o.Tau.Elements, o.Ssa.Elements, o.G.Elements
	par.For(len(tau), func(i int) {
		f := g[i] * g[i]
		wf := ssa[i] * f
		tau[i] = (1 - wf) * tau[i]
		ssa[i] = ssa[i] * (1 - f) / math.Max(eps, 1-wf)
		g[i] = (g[i] - f) / math.Max(eps, 1-f)
	})
}

// Increment adds the properties of o to dst: optical depths add and the
// single-scattering albedo and asymmetry parameter are weighted by
// scattering optical depth. o may be stored by band and dst by g-point,
// in which case each g-point of dst is incremented by its band of o.
func (o *TwoStream) Increment(dst *TwoStream) error {
	bandOf, err := incrementMap(o.Spectral, dst.Spectral, o.Ncol, o.Nlay, dst.Ncol, dst.Nlay)
	if err != nil {
		return err
	}
	n1, n2 := o.n(), dst.n()
	tau1, ssa1, g1 := o.Tau.Elements, o.Ssa.Elements, o.G.Elements
	tau2, ssa2, g2 := dst.Tau.Elements, dst.Ssa.Elements, dst.G.Elements
	par.For2(dst.Ncol*dst.Nlay, n2, func(cl, j int) {
		i1 := cl*n1 + bandOf[j]
		i2 := cl*n2 + j
		tau12 := tau1[i1] + tau2[i2]
		tauscat1 := tau1[i1] * ssa1[i1]
		tauscat2 := tau2[i2] * ssa2[i2]
		tauscat12 := tauscat1 + tauscat2
		g2[i2] = (tauscat1*g1[i1] + tauscat2*g2[i2]) / math.Max(eps, tauscat12)
		ssa2[i2] = tauscat12 / math.Max(eps, tau12)
		tau2[i2] = tau12
	})
	return nil
}

// Gather returns the properties of the given columns, in order.
func (o *TwoStream) Gather(cols []int) *TwoStream {
	out := newTwoStream(o.Spectral, len(cols), o.Nlay)
	gatherCols(o.Tau, out.Tau, cols)
	gatherCols(o.Ssa, out.Ssa, cols)
	gatherCols(o.G, out.G, cols)
	return out
}

// OneScalar holds absorption optical depth only.
type OneScalar struct {
	Spectral
	Ncol, Nlay int
	Tau        *sparse.DenseArray
}

// NewOneScalar returns zeroed absorption properties stored by band.
func NewOneScalar(bandLims [][2]float64, ncol, nlay int) *OneScalar {
	return newOneScalar(Spectral{BandLims: copyLims(bandLims)}, ncol, nlay)
}

// NewOneScalarGpt returns zeroed absorption properties stored by g-point.
func NewOneScalarGpt(bandLims [][2]float64, gptBand []int, ncol, nlay int) *OneScalar {
	return newOneScalar(Spectral{BandLims: copyLims(bandLims), GptBand: append([]int(nil), gptBand...)}, ncol, nlay)
}

func newOneScalar(s Spectral, ncol, nlay int) *OneScalar {
	return &OneScalar{
		Spectral: s,
		Ncol:     ncol,
		Nlay:     nlay,
		Tau:      sparse.ZerosDense(ncol, nlay, s.n()),
	}
}

// Increment adds the optical depth of o to dst.
func (o *OneScalar) Increment(dst *OneScalar) error {
	bandOf, err := incrementMap(o.Spectral, dst.Spectral, o.Ncol, o.Nlay, dst.Ncol, dst.Nlay)
	if err != nil {
		return err
	}
	n1, n2 := o.n(), dst.n()
	tau1, tau2 := o.Tau.Elements, dst.Tau.Elements
	par.For2(dst.Ncol*dst.Nlay, n2, func(cl, j int) {
		tau2[cl*n2+j] += tau1[cl*n1+bandOf[j]]
	})
	return nil
}

// Gather returns the properties of the given columns, in order.
func (o *OneScalar) Gather(cols []int) *OneScalar {
	out := newOneScalar(o.Spectral, len(cols), o.Nlay)
	gatherCols(o.Tau, out.Tau, cols)
	return out
}

// incrementMap checks that src can increment dst and returns, for each
// spectral point of dst, the matching spectral index of src.
func incrementMap(src, dst Spectral, ncol1, nlay1, ncol2, nlay2 int) ([]int, error) {
	if ncol1 != ncol2 || nlay1 != nlay2 {
		return nil, fmt.Errorf("optics: increment of %dx%d properties by %dx%d properties", ncol2, nlay2, ncol1, nlay1)
	}
	if err := dst.CheckBands(src.BandLims); err != nil {
		return nil, err
	}
	m := make([]int, dst.n())
	switch {
	case src.ByGpoint() && dst.ByGpoint():
		if src.NGpt() != dst.NGpt() {
			return nil, fmt.Errorf("%w: %d g-points, want %d", ErrBands, src.NGpt(), dst.NGpt())
		}
		for i := range m {
			m[i] = i
		}
	case src.ByGpoint():
		return nil, fmt.Errorf("%w: cannot increment band properties by g-point properties", ErrBands)
	case dst.ByGpoint():
		copy(m, dst.GptBand)
	default:
		for i := range m {
			m[i] = i
		}
	}
	return m, nil
}

// gatherCols copies the leading-axis rows cols of src into dst.
func gatherCols(src, dst *sparse.DenseArray, cols []int) {
	stride := 1
	for _, s := range src.Shape[1:] {
		stride *= s
	}
	par.For(len(cols), func(i int) {
		copy(dst.Elements[i*stride:(i+1)*stride], src.Elements[cols[i]*stride:(cols[i]+1)*stride])
	})
}

// GatherColumns returns the rows cols of the leading axis of a, in order.
func GatherColumns(a *sparse.DenseArray, cols []int) *sparse.DenseArray {
	shape := append([]int{len(cols)}, a.Shape[1:]...)
	out := sparse.ZerosDense(shape...)
	gatherCols(a, out, cols)
	return out
}

// ScatterColumns copies row i of the leading axis of src into row cols[i]
// of dst. Rows of dst not named in cols are left unchanged.
func ScatterColumns(src, dst *sparse.DenseArray, cols []int) {
	stride := 1
	for _, s := range src.Shape[1:] {
		stride *= s
	}
	par.For(len(cols), func(i int) {
		copy(dst.Elements[cols[i]*stride:(cols[i]+1)*stride], src.Elements[i*stride:(i+1)*stride])
	})
}
