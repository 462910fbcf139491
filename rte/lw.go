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

// tauThresh is the optical depth below which the linear-in-tau source
// uses its series expansion.
var tauThresh = math.Sqrt(machEps)

// LW computes longwave fluxes into f, which must be dimensioned for the
// columns, layers and bands of op, neglecting scattering. Radiance is
// integrated over angle with the nGaussAngles-point rule of GaussDs and
// GaussWts. op must be stored by g-point. sfcEmis is the surface
// emissivity dimensioned (nband, ncol). topAt1 reports whether the first
// layer is at the top of the atmosphere.
func LW(nGaussAngles int, op *optics.OneScalar, topAt1 bool, src *LWSources, sfcEmis *sparse.DenseArray, f *Fluxes) error {
	if nGaussAngles < 1 || nGaussAngles > MaxGaussAngles {
		return fmt.Errorf("rte: %d Gauss angles; must be between 1 and %d", nGaussAngles, MaxGaussAngles)
	}
	if !op.ByGpoint() {
		return fmt.Errorf("rte: %w: longwave optics must be stored by g-point", ErrDimension)
	}
	ncol, nlay, nband, ngpt := op.Ncol, op.Nlay, op.NBand(), op.NGpt()
	if src == nil {
		return fmt.Errorf("rte: %w: nil longwave sources", ErrDimension)
	}
	if err := checkShape("layer source", src.LaySrc, ncol, nlay, ngpt); err != nil {
		return err
	}
	if err := checkShape("level source", src.LevSrc, ncol, nlay+1, ngpt); err != nil {
		return err
	}
	if err := checkShape("surface source", src.SfcSrc, ncol, ngpt); err != nil {
		return err
	}
	if err := checkShape("surface emissivity", sfcEmis, nband, ncol); err != nil {
		return err
	}
	if err := f.Check(ncol, nlay, nband, false); err != nil {
		return err
	}
	f.Zero()
	ds, wts := Quadrature(nGaussAngles)
	or := orient{topAt1: topAt1, nlay: nlay}
	tau := op.Tau.Elements
	laySrc, levSrc, sfcSrc := src.LaySrc.Elements, src.LevSrc.Elements, src.SfcSrc.Elements

	par.For(ncol, func(c int) {
		var (
			trans    = make([]float64, nlay)
			sourceUp = make([]float64, nlay)
			sourceDn = make([]float64, nlay)
			iUp      = make([]float64, nlay+1)
			iDn      = make([]float64, nlay+1)
		)
		for gpt := 0; gpt < ngpt; gpt++ {
			b := op.GptBand[gpt]
			emis := sfcEmis.Elements[b*ncol+c]
			bSfc := sfcSrc[c*ngpt+gpt]
			for a, d := range ds {
				for i := 0; i < nlay; i++ {
					tauLoc := tau[(c*nlay+or.lay(i))*ngpt+gpt] * d
					tr := math.Exp(-tauLoc)
					var fact float64
					if tauLoc > tauThresh {
						fact = (1-tr)/tauLoc - tr
					} else {
						fact = tauLoc * (0.5 - tauLoc/3)
					}
					bLay := laySrc[(c*nlay+or.lay(i))*ngpt+gpt]
					bTop := levSrc[(c*(nlay+1)+or.lev(i))*ngpt+gpt]
					bBot := levSrc[(c*(nlay+1)+or.lev(i+1))*ngpt+gpt]
					trans[i] = tr
					// Radiance leaving a layer is weighted toward the
					// temperature of the face it leaves through.
					sourceDn[i] = (1-tr)*bBot + 2*fact*(bLay-bBot)
					sourceUp[i] = (1-tr)*bTop + 2*fact*(bLay-bTop)
				}
				iDn[0] = 0
				for i := 0; i < nlay; i++ {
					iDn[i+1] = trans[i]*iDn[i] + sourceDn[i]
				}
				iUp[nlay] = iDn[nlay]*(1-emis) + emis*bSfc
				for i := nlay - 1; i >= 0; i-- {
					iUp[i] = trans[i]*iUp[i+1] + sourceUp[i]
				}
				w := 2 * math.Pi * wts[a]
				for i := 0; i <= nlay; i++ {
					l := or.lev(i)
					up, dn := w*iUp[i], w*iDn[i]
					f.FluxUp.Elements[c*(nlay+1)+l] += up
					f.FluxDn.Elements[c*(nlay+1)+l] += dn
					bi := (c*(nlay+1)+l)*nband + b
					f.BndFluxUp.Elements[bi] += up
					f.BndFluxDn.Elements[bi] += dn
				}
			}
		}
	})
	return nil
}
