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

package colrad

import (
	"fmt"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/colrad/internal/par"
	"github.com/spatialmodel/colrad/kdist"
	"github.com/spatialmodel/colrad/rte"
)

// VisibleThreshold is the wavenumber [cm-1] separating visible from
// near-infrared radiation (0.7 micron).
const VisibleThreshold = 14286.

type spectralRegion int

const (
	nearIR spectralRegion = iota
	visible
	straddle
)

// classify returns the spectral region of a band from its wavenumber
// limits. Wavenumbers above VisibleThreshold are visible.
func classify(lims [2]float64) spectralRegion {
	vis1 := lims[0] > VisibleThreshold
	vis2 := lims[1] > VisibleThreshold
	switch {
	case vis1 && vis2:
		return visible
	case !vis1 && !vis2:
		return nearIR
	default:
		return straddle
	}
}

// ComputeBandByBandSurfaceAlbedos expands the broadband visible and
// near-infrared albedos of each column to the shortwave bands of k. Bands
// that straddle VisibleThreshold get the mean of the two. The returned
// arrays are dimensioned (ncol, nband).
func ComputeBandByBandSurfaceAlbedos(k *kdist.KDistribution, dirVis, dirNir, difVis, difNir []float64) (albDir, albDif *sparse.DenseArray, err error) {
	ncol := len(dirVis)
	if len(dirNir) != ncol || len(difVis) != ncol || len(difNir) != ncol {
		return nil, nil, fmt.Errorf("colrad: surface albedos have lengths %d, %d, %d, %d: %w",
			len(dirVis), len(dirNir), len(difVis), len(difNir), ErrDimension)
	}
	nband := k.NBand()
	albDir = sparse.ZerosDense(ncol, nband)
	albDif = sparse.ZerosDense(ncol, nband)
	par.For2(nband, ncol, func(b, c int) {
		i := c*nband + b
		switch classify(k.BandLims[b]) {
		case visible:
			albDir.Elements[i] = dirVis[c]
			albDif.Elements[i] = difVis[c]
		case nearIR:
			albDir.Elements[i] = dirNir[c]
			albDif.Elements[i] = difNir[c]
		default:
			albDir.Elements[i] = 0.5 * (dirVis[c] + dirNir[c])
			albDif.Elements[i] = 0.5 * (difVis[c] + difNir[c])
		}
	})
	return albDir, albDif, nil
}

// SurfaceFluxes holds broadband shortwave fluxes at the surface split
// into visible and near-infrared parts [W/m2], one value per column.
type SurfaceFluxes struct {
	DirVis, DirNir []float64
	DifVis, DifNir []float64
}

// NewSurfaceFluxes returns zeroed surface fluxes for ncol columns.
func NewSurfaceFluxes(ncol int) *SurfaceFluxes {
	return &SurfaceFluxes{
		DirVis: make([]float64, ncol),
		DirNir: make([]float64, ncol),
		DifVis: make([]float64, ncol),
		DifNir: make([]float64, ncol),
	}
}

// ComputeBroadbandSurfaceFluxes sums the band fluxes at level kSfc into
// visible and near-infrared totals in out, which is zeroed first.
// bndFluxDir and bndFluxDif are the direct and diffuse downward band
// fluxes, dimensioned (ncol, nlay+1, nband). A band straddling
// VisibleThreshold contributes half its flux to each total.
func ComputeBroadbandSurfaceFluxes(k *kdist.KDistribution, kSfc int, bndFluxDir, bndFluxDif *sparse.DenseArray, out *SurfaceFluxes) error {
	if len(bndFluxDir.Shape) != 3 {
		return fmt.Errorf("colrad: direct band flux has %d dimensions, want 3: %w", len(bndFluxDir.Shape), ErrDimension)
	}
	ncol, nlev, nband := bndFluxDir.Shape[0], bndFluxDir.Shape[1], bndFluxDir.Shape[2]
	if nband != k.NBand() {
		return fmt.Errorf("colrad: band fluxes have %d bands but the k-distribution has %d: %w", nband, k.NBand(), ErrDimension)
	}
	if err := checkShape("diffuse band flux", bndFluxDif, ncol, nlev, nband); err != nil {
		return err
	}
	if kSfc < 0 || kSfc >= nlev {
		return fmt.Errorf("colrad: surface level %d out of range [0, %d): %w", kSfc, nlev, ErrDimension)
	}
	for _, v := range [][]float64{out.DirVis, out.DirNir, out.DifVis, out.DifNir} {
		if len(v) != ncol {
			return fmt.Errorf("colrad: surface flux length %d, want %d: %w", len(v), ncol, ErrDimension)
		}
		for i := range v {
			v[i] = 0
		}
	}

	par.For2(nband, ncol, func(b, c int) {
		i := (c*nlev+kSfc)*nband + b
		dir, dif := bndFluxDir.Elements[i], bndFluxDif.Elements[i]
		switch classify(k.BandLims[b]) {
		case visible:
			par.AtomicAdd(&out.DirVis[c], dir)
			par.AtomicAdd(&out.DifVis[c], dif)
		case nearIR:
			par.AtomicAdd(&out.DirNir[c], dir)
			par.AtomicAdd(&out.DifNir[c], dif)
		default:
			par.AtomicAdd(&out.DirVis[c], 0.5*dir)
			par.AtomicAdd(&out.DifVis[c], 0.5*dif)
			par.AtomicAdd(&out.DirNir[c], 0.5*dir)
			par.AtomicAdd(&out.DifNir[c], 0.5*dif)
		}
	})
	return nil
}

// DiffuseBandFlux returns the diffuse downward band flux of f, the total
// downward band flux minus the direct beam.
func DiffuseBandFlux(f *rte.Fluxes) *sparse.DenseArray {
	dif := f.BndFluxDn.Copy()
	dif.Shape = append([]int(nil), f.BndFluxDn.Shape...)
	for i, v := range f.BndFluxDnDir.Elements {
		dif.Elements[i] -= v
	}
	return dif
}

// SurfaceLevel returns the index of the surface level for interface
// pressures plev (ncol, nlay+1).
func SurfaceLevel(plev *sparse.DenseArray) int {
	if topAt1(plev) {
		return plev.Shape[1] - 1
	}
	return 0
}
