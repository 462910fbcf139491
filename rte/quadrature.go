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

// Gaussian quadrature secants of the zenith angle (diffusivity factors)
// and weights for angular integration of longwave radiance, from Clough
// et al. (1992), doi:10.1029/92JD01419. Row n-1 holds the n-point rule;
// unused entries are zero. The weights of each rule sum to one half, so
// that flux = 2 pi sum(w I) is the hemispheric integral of radiance I.
var (
	GaussDs = [4][4]float64{
		{1.66, 0, 0, 0},
		{1.18350343, 2.81649655, 0, 0},
		{1.09719858, 1.69338507, 4.70941630, 0},
		{1.06056257, 1.38282560, 2.40148179, 7.15513024},
	}

	GaussWts = [4][4]float64{
		{0.5, 0, 0, 0},
		{0.3180413817, 0.1819586183, 0, 0},
		{0.2009319137, 0.2292411064, 0.0698269799, 0},
		{0.1355069134, 0.2034645680, 0.1298475476, 0.0311809710},
	}
)

// MaxGaussAngles is the highest supported quadrature order.
const MaxGaussAngles = len(GaussDs)

// Quadrature returns the secants and weights of the n-point rule.
func Quadrature(n int) (ds, wts []float64) {
	return GaussDs[n-1][:n], GaussWts[n-1][:n]
}
