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
	"math"

	"github.com/ctessum/sparse"
)

// Radius limits of the synthetic cloud optics tables [micron].
const (
	synthRadLiqLwr, synthRadLiqUpr = 2.5, 21.5
	synthRadIceLwr, synthRadIceUpr = 10, 180
)

// SyntheticCloudOptics returns a physically plausible cloud optics table
// for the given bands with nsize radii per phase. Extinction follows the
// geometric optics limit 3/(2 rho re); absorption grows toward low
// wavenumbers and large particles.
func SyntheticCloudOptics(bandLims [][2]float64, nsize int) *CloudOptics {
	if nsize < 2 {
		panic("optics: synthetic cloud optics needs at least 2 radii")
	}
	const nrgh = 3
	nband := len(bandLims)
	c := &CloudOptics{
		BandLims:     copyLims(bandLims),
		RadLiqLwr:    synthRadLiqLwr,
		RadLiqUpr:    synthRadLiqUpr,
		RadIceLwr:    synthRadIceLwr,
		RadIceUpr:    synthRadIceUpr,
		ExtLiq:       sparse.ZerosDense(nsize, nband),
		SsaLiq:       sparse.ZerosDense(nsize, nband),
		AsyLiq:       sparse.ZerosDense(nsize, nband),
		ExtIce:       sparse.ZerosDense(nrgh, nsize, nband),
		SsaIce:       sparse.ZerosDense(nrgh, nsize, nband),
		AsyIce:       sparse.ZerosDense(nrgh, nsize, nband),
		IceRoughness: DefaultIceRoughness,
	}
	coalbedo := func(nu, r float64) float64 {
		return math.Min(0.7, 0.5*math.Exp(-nu/2500)*math.Sqrt(r/10))
	}
	for i := 0; i < nsize; i++ {
		rl := synthRadLiqLwr + float64(i)*(synthRadLiqUpr-synthRadLiqLwr)/float64(nsize-1)
		ri := synthRadIceLwr + float64(i)*(synthRadIceUpr-synthRadIceLwr)/float64(nsize-1)
		for b, l := range bandLims {
			nu := 0.5 * (l[0] + l[1])
			c.ExtLiq.Set(1.5/rl, i, b)
			c.SsaLiq.Set(1-coalbedo(nu, rl), i, b)
			c.AsyLiq.Set(math.Min(0.9, 0.8+0.005*rl), i, b)
			for g := 0; g < nrgh; g++ {
				c.ExtIce.Set(1.64/ri, g, i, b)
				c.SsaIce.Set(1-coalbedo(nu, ri/4), g, i, b)
				c.AsyIce.Set(0.8-0.04*float64(g), g, i, b)
			}
		}
	}
	return c
}
