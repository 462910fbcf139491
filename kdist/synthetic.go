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

	"github.com/ctessum/sparse"
)

// Band limits of the synthetic k-distributions [cm-1]. They follow the
// RRTMGP band structure.
var (
	SWBandLims = [][2]float64{
		{820, 2680}, {2680, 3250}, {3250, 4000}, {4000, 4650},
		{4650, 5150}, {5150, 6150}, {6150, 7700}, {7700, 8050},
		{8050, 12850}, {12850, 16000}, {16000, 22650}, {22650, 29000},
		{29000, 38000}, {38000, 50000},
	}
	LWBandLims = [][2]float64{
		{10, 250}, {250, 500}, {500, 630}, {630, 700},
		{700, 820}, {820, 980}, {980, 1080}, {1080, 1180},
		{1180, 1390}, {1390, 1480}, {1480, 1800}, {1800, 2080},
		{2080, 2250}, {2250, 2390}, {2390, 2680}, {2680, 3250},
	}
)

// Parameters of the synthetic solar spectrum.
const (
	SolarConstant = 1360.9 // total solar irradiance [W/m2]
	sunTemp       = 5778.  // solar photosphere temperature [K]
)

// synthGasStrength is the absorption coefficient scale [m2/mol] of
// gases used in synthetic tables. Gases not listed use 1e-3.
var synthGasStrength = map[string]float64{
	"h2o": 1,
	"co2": 0.1,
	"o3":  10,
	"ch4": 1,
	"n2o": 1,
	"co":  0.1,
	"o2":  1e-6,
	"n2":  1e-8,
}

// Synthetic returns a k-distribution for spectrum s with gptsPerBand
// g-points in each band and absorption by the named gases. It is
// physically plausible but not derived from line-by-line calculations;
// it exists for testing and demonstration.
func Synthetic(s Spectrum, gptsPerBand int, gasNames []string) *KDistribution {
	if gptsPerBand < 1 {
		panic("kdist: synthetic tables need at least one g-point per band")
	}
	k := &KDistribution{Spectrum: s, GasNames: append([]string(nil), gasNames...)}
	switch s {
	case SW:
		k.BandLims = append([][2]float64(nil), SWBandLims...)
	case LW:
		k.BandLims = append([][2]float64(nil), LWBandLims...)
	}
	nband := len(k.BandLims)
	for b := 0; b < nband; b++ {
		k.BandGpt = append(k.BandGpt, [2]int{b * gptsPerBand, (b+1)*gptsPerBand - 1})
	}
	ngpt := k.NGpt()
	gptBand := k.GptBand()

	const npres = 30
	k.PressRef = make([]float64, npres)
	for i := range k.PressRef {
		k.PressRef[i] = math.Pow(110000, float64(i)/float64(npres-1))
	}
	for t := 160.; t <= 355; t += 15 {
		k.TempRef = append(k.TempRef, t)
	}

	// strength of g-point j within its band spans five decades.
	gptStrength := func(j int) float64 {
		if gptsPerBand == 1 {
			return 1e-3
		}
		return math.Pow(10, -5+5*float64(j%gptsPerBand)/float64(gptsPerBand-1))
	}
	for ig, name := range k.GasNames {
		base, ok := synthGasStrength[name]
		if !ok {
			base = 1e-3
		}
		a := sparse.ZerosDense(ngpt, len(k.TempRef), len(k.PressRef))
		for gpt := 0; gpt < ngpt; gpt++ {
			bandFactor := math.Exp(3 * math.Sin(1.7*float64((gptBand[gpt]+1)*(ig+1))))
			for it, t := range k.TempRef {
				for ip, p := range k.PressRef {
					v := base * bandFactor * gptStrength(gpt) * math.Sqrt(p/1e4) * math.Sqrt(250/t)
					a.Set(v, gpt, it, ip)
				}
			}
		}
		k.Kabs = append(k.Kabs, a)
	}

	switch s {
	case SW:
		k.Rayl = make([]float64, ngpt)
		k.SolarSrc = make([]float64, ngpt)
		bandSrc := make([]float64, nband)
		var total float64
		for b, l := range k.BandLims {
			bandSrc[b] = PlanckBand(l[0], l[1], sunTemp)
			total += bandSrc[b]
		}
		for gpt, b := range gptBand {
			nu := 0.5 * (k.BandLims[b][0] + k.BandLims[b][1])
			k.Rayl[gpt] = 4e-7 * math.Pow(nu/20000, 4)
			k.SolarSrc[gpt] = SolarConstant * bandSrc[b] / total / float64(gptsPerBand)
		}
	case LW:
		for t := 160.; t <= 355; t++ {
			k.PlanckTemp = append(k.PlanckTemp, t)
		}
		k.TotPlnk = sparse.ZerosDense(len(k.PlanckTemp), nband)
		for it, t := range k.PlanckTemp {
			for b, l := range k.BandLims {
				k.TotPlnk.Set(PlanckBand(l[0], l[1], t), it, b)
			}
		}
		k.PlanckFrac = make([]float64, ngpt)
		for gpt := range k.PlanckFrac {
			k.PlanckFrac[gpt] = 1 / float64(gptsPerBand)
		}
	}
	return k
}
