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
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

// Radiation constants for wavenumbers in cm-1.
const (
	planckC1 = 1.191042972e-8 // 2 h c^2 [W m-2 sr-1 (cm-1)-4]
	planckC2 = 1.4387769      // h c / k [cm K]
)

// planckPoints is the number of Gauss-Legendre nodes per band integral.
const planckPoints = 128

// PlanckRadiance returns the blackbody spectral radiance at wavenumber
// nu [cm-1] and temperature t [K], in W m-2 sr-1 (cm-1)-1.
func PlanckRadiance(nu, t float64) float64 {
	return planckC1 * nu * nu * nu / math.Expm1(planckC2*nu/t)
}

// PlanckBand returns the blackbody radiance at temperature t [K]
// integrated over wavenumbers nu1 to nu2 [cm-1], in W m-2 sr-1.
func PlanckBand(nu1, nu2, t float64) float64 {
	return quad.Fixed(func(nu float64) float64 {
		return PlanckRadiance(nu, t)
	}, nu1, nu2, planckPoints, quad.Legendre{}, 0)
}
