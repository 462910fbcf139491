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

package rte

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/colrad/internal/par"
	"github.com/spatialmodel/colrad/optics"
)

// machEps is the float64 machine epsilon.
const machEps = 2.220446049250313e-16

// twoStream holds the layer reflectances and transmittances of a
// homogeneous layer for diffuse and direct radiation.
type twoStream struct {
	rdif, tdif, rdir, tdir, tnoscat float64
}

// swTwoStream returns the layer coefficients of a layer with optical
// depth tau, single-scattering albedo w0 and asymmetry parameter g
// illuminated at zenith cosine mu0, using the practical improved flux
// method of Zdunkowski et al. (1980).
func swTwoStream(mu0, tau, w0, g float64) twoStream {
	gamma1 := (8 - w0*(5+3*g)) * .25
	gamma2 := 3 * (w0 * (1 - g)) * .25
	gamma3 := (2 - 3*mu0*g) * .25
	gamma4 := 1 - gamma3
	alpha1 := gamma1*gamma4 + gamma2*gamma3
	alpha2 := gamma1*gamma3 + gamma2*gamma4

	k := math.Sqrt(math.Max((gamma1-gamma2)*(gamma1+gamma2), 1e-12))
	expKTau := math.Exp(-tau * k)
	exp2KTau := expKTau * expKTau
	rt := 1 / (k*(1+exp2KTau) + gamma1*(1-exp2KTau))

	var s twoStream
	s.rdif = rt * gamma2 * (1 - exp2KTau)
	s.tdif = rt * 2 * k * expKTau
	s.tnoscat = math.Exp(-tau / mu0)

	kMu := k * mu0
	kGamma3 := k * gamma3
	kGamma4 := k * gamma4
	denom := 1 - kMu*kMu
	if math.Abs(denom) < machEps {
		denom = machEps
	}
	rt = w0 * rt / denom
	s.rdir = rt * ((1-kMu)*(alpha2+kGamma3) -
		(1+kMu)*(alpha2-kGamma3)*exp2KTau -
		2*(kGamma3-alpha2*kMu)*expKTau*s.tnoscat)
	s.tdir = -rt * ((1+kMu)*(alpha1+kGamma4)*s.tnoscat -
		(1-kMu)*(alpha1-kGamma4)*exp2KTau*s.tnoscat -
		2*(kGamma4+alpha1*kMu)*expKTau)
	s.rdir = math.Max(0, math.Min(s.rdir, 1-s.tnoscat))
	s.tdir = math.Max(0, math.Min(s.tdir, 1-s.tnoscat-s.rdir))
	return s
}

// orient maps top-down level and layer indices to storage indices.
type orient struct {
	topAt1 bool
	nlay   int
}

func (o orient) lev(i int) int {
	if o.topAt1 {
		return i
	}
	return o.nlay - i
}

func (o orient) lay(i int) int {
	if o.topAt1 {
		return i
	}
	return o.nlay - 1 - i
}

// SW computes shortwave fluxes into f, which must be dimensioned for
// the columns, layers and bands of op and include the direct beam
// fields. op must be stored by g-point. mu0 is the solar zenith cosine of
// each column and must be positive; toaFlux (ncol, ngpt) is the incident
// solar flux normal to the beam [W/m2]; sfcAlbDir and sfcAlbDif are the
// surface albedos for direct and diffuse radiation, dimensioned
// (nband, ncol). topAt1 reports whether the first layer is at the top of
// the atmosphere.
func SW(op *optics.TwoStream, topAt1 bool, mu0 []float64, toaFlux, sfcAlbDir, sfcAlbDif *sparse.DenseArray, f *Fluxes) error {
	if !op.ByGpoint() {
		return fmt.Errorf("rte: %w: shortwave optics must be stored by g-point", ErrDimension)
	}
	ncol, nlay, nband, ngpt := op.Ncol, op.Nlay, op.NBand(), op.NGpt()
	if len(mu0) != ncol {
		return fmt.Errorf("rte: %w: %d zenith cosines for %d columns", ErrDimension, len(mu0), ncol)
	}
	if err := checkShape("TOA flux", toaFlux, ncol, ngpt); err != nil {
		return err
	}
	if err := checkShape("direct albedo", sfcAlbDir, nband, ncol); err != nil {
		return err
	}
	if err := checkShape("diffuse albedo", sfcAlbDif, nband, ncol); err != nil {
		return err
	}
	if err := f.Check(ncol, nlay, nband, true); err != nil {
		return err
	}
	f.Zero()
	or := orient{topAt1: topAt1, nlay: nlay}
	tau, ssa, asy := op.Tau.Elements, op.Ssa.Elements, op.G.Elements

	par.For(ncol, func(c int) {
		var (
			coef   = make([]twoStream, nlay)
			srcUp  = make([]float64, nlay)
			srcDn  = make([]float64, nlay)
			denom  = make([]float64, nlay)
			dir    = make([]float64, nlay+1)
			albedo = make([]float64, nlay+1)
			src    = make([]float64, nlay+1)
			dn     = make([]float64, nlay+1)
			up     = make([]float64, nlay+1)
		)
		m := mu0[c]
		for gpt := 0; gpt < ngpt; gpt++ {
			b := op.GptBand[gpt]
			for i := 0; i < nlay; i++ {
				j := (c*nlay+or.lay(i))*ngpt + gpt
				coef[i] = swTwoStream(m, tau[j], ssa[j], asy[j])
			}

			// Direct beam and the sources it creates.
			dir[0] = toaFlux.Elements[c*ngpt+gpt] * m
			for i := 0; i < nlay; i++ {
				srcUp[i] = coef[i].rdir * dir[i]
				srcDn[i] = coef[i].tdir * dir[i]
				dir[i+1] = coef[i].tnoscat * dir[i]
			}

			// Adding: albedo and source of the atmosphere below each level.
			albedo[nlay] = sfcAlbDif.Elements[b*ncol+c]
			src[nlay] = dir[nlay] * sfcAlbDir.Elements[b*ncol+c]
			for i := nlay - 1; i >= 0; i-- {
				denom[i] = 1 / (1 - coef[i].rdif*albedo[i+1])
				albedo[i] = coef[i].rdif + coef[i].tdif*coef[i].tdif*albedo[i+1]*denom[i]
				src[i] = srcUp[i] + coef[i].tdif*denom[i]*(src[i+1]+albedo[i+1]*srcDn[i])
			}
			dn[0] = 0
			up[0] = dn[0]*albedo[0] + src[0]
			for i := 0; i < nlay; i++ {
				dn[i+1] = (coef[i].tdif*dn[i] + coef[i].rdif*src[i+1] + srcDn[i]) * denom[i]
				up[i+1] = dn[i+1]*albedo[i+1] + src[i+1]
			}

			for i := 0; i <= nlay; i++ {
				l := or.lev(i)
				total := dn[i] + dir[i]
				f.FluxUp.Elements[c*(nlay+1)+l] += up[i]
				f.FluxDn.Elements[c*(nlay+1)+l] += total
				f.FluxDnDir.Elements[c*(nlay+1)+l] += dir[i]
				bi := (c*(nlay+1)+l)*nband + b
				f.BndFluxUp.Elements[bi] += up[i]
				f.BndFluxDn.Elements[bi] += total
				f.BndFluxDnDir.Elements[bi] += dir[i]
			}
		}
	})
	return nil
}

func checkShape(name string, a *sparse.DenseArray, shape ...int) error {
	if a == nil || len(a.Shape) != len(shape) {
		return fmt.Errorf("rte: %w: %s has the wrong number of dimensions", ErrDimension, name)
	}
	for i, s := range shape {
		if a.Shape[i] != s {
			return fmt.Errorf("rte: %w: %s has shape %v, want %v", ErrDimension, name, a.Shape, shape)
		}
	}
	return nil
}
