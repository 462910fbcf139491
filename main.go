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
	"time"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/colrad/internal/metrics"
	"github.com/spatialmodel/colrad/internal/par"
	"github.com/spatialmodel/colrad/optics"
	"github.com/spatialmodel/colrad/rte"
)

// SurfaceEmissivity is the longwave emissivity of the surface in every
// band.
const SurfaceEmissivity = 0.98

// Main computes shortwave fluxes into sw and longwave fluxes into lw for
// the columns in in. sw must be allocated with the direct beam fields
// and the shortwave band count, lw with the longwave band count (see
// NewFluxes). The solar flux at the top of the atmosphere is scaled by
// tsiScaling. Main returns ErrNotInitialized if r is not initialized, and
// an error wrapping ErrDimension if any input or output does not match
// the column, layer or band counts. Warnings go to log, which may be nil.
func (r *Radiation) Main(in *Inputs, sw, lw *rte.Fluxes, tsiScaling float64, log logrus.FieldLogger) error {
	if !r.initialized {
		return ErrNotInitialized
	}
	log = orDiscard(log)
	kSW, kLW := r.kdistSW, r.kdistLW
	nsw, nlw := kSW.NBand(), kLW.NBand()
	if err := in.check(nsw, nlw); err != nil {
		return err
	}
	if err := sw.Check(in.Ncol, in.Nlay, nsw, true); err != nil {
		return fmt.Errorf("colrad: shortwave fluxes: %w", err)
	}
	if err := lw.Check(in.Ncol, in.Nlay, nlw, false); err != nil {
		return fmt.Errorf("colrad: longwave fluxes: %w", err)
	}

	albDir, albDif, err := ComputeBandByBandSurfaceAlbedos(kSW, in.SfcAlbDirVis, in.SfcAlbDirNir, in.SfcAlbDifVis, in.SfcAlbDifNir)
	if err != nil {
		return err
	}

	aerosolSW := optics.NewTwoStream(kSW.BandLims, in.Ncol, in.Nlay)
	copy(aerosolSW.Tau.Elements, in.AerTauSW.Elements)
	copy(aerosolSW.Ssa.Elements, in.AerSsaSW.Elements)
	copy(aerosolSW.G.Elements, in.AerAsmSW.Elements)
	aerosolLW := optics.NewOneScalar(kLW.BandLims, in.Ncol, in.Nlay)
	copy(aerosolLW.Tau.Elements, in.AerTauLW.Elements)

	cloudsSW, err := r.cloudSW.ComputeSW(in.LWP, in.IWP, in.Rel, in.Rei)
	if err != nil {
		return fmt.Errorf("colrad: shortwave cloud optics: %v", err)
	}
	cloudsLW, err := r.cloudLW.ComputeLW(in.LWP, in.IWP, in.Rel, in.Rei)
	if err != nil {
		return fmt.Errorf("colrad: longwave cloud optics: %v", err)
	}

	start := time.Now()
	if err = r.shortwave(in, albDir, albDif, aerosolSW, cloudsSW, sw, tsiScaling, log); err != nil {
		return err
	}
	metrics.SolveSeconds.WithLabelValues("sw").Observe(time.Since(start).Seconds())

	start = time.Now()
	if err = r.longwave(in, aerosolLW, cloudsLW, lw); err != nil {
		return err
	}
	metrics.SolveSeconds.WithLabelValues("lw").Observe(time.Since(start).Seconds())
	return nil
}

// topAt1 reports whether the first level of plev (ncol, nlay+1) is at the
// top of the atmosphere. Interfaces are compared because the first and last
// layer coincide when there is only one.
func topAt1(plev *sparse.DenseArray) bool {
	nlev := plev.Shape[1]
	return plev.Elements[0] < plev.Elements[nlev-1]
}

// dayIndices returns the indices of the columns whose zenith cosine is
// strictly positive, in increasing order.
func dayIndices(mu0 []float64) []int {
	var day []int
	for i, m := range mu0 {
		if m > 0 {
			day = append(day, i)
		}
	}
	return day
}

// shortwave runs the shortwave solve over the sunlit columns of in and
// scatters the fluxes back into f. Fluxes of all other columns are zero.
// albDir and albDif are dimensioned (ncol, nband).
func (r *Radiation) shortwave(in *Inputs, albDir, albDif *sparse.DenseArray, aerosol, clouds *optics.TwoStream, f *rte.Fluxes, tsiScaling float64, log logrus.FieldLogger) error {
	f.Zero()

	day := dayIndices(in.Mu0)
	metrics.DaytimeColumns.Set(float64(len(day)))
	if len(day) == 0 {
		log.WithFields(logrus.Fields{"ncol": in.Ncol}).Warn("colrad: no daytime columns; skipping shortwave")
		return nil
	}
	k := r.kdistSW
	nday, nlay, nband := len(day), in.Nlay, k.NBand()

	mu0 := make([]float64, nday)
	for i, c := range day {
		mu0[i] = in.Mu0[c]
	}
	pLay := optics.GatherColumns(in.PLay, day)
	tLay := optics.GatherColumns(in.TLay, day)
	pLev := optics.GatherColumns(in.PLev, day)
	gas := in.Gas.Subset(day)
	aerosolDay := aerosol.Gather(day)
	cloudsDay := clouds.Gather(day)

	// The solver takes albedos band-major.
	albDirT := sparse.ZerosDense(nband, nday)
	albDifT := sparse.ZerosDense(nband, nday)
	par.For2(nband, nday, func(b, i int) {
		albDirT.Elements[b*nday+i] = albDir.Elements[day[i]*nband+b]
		albDifT.Elements[b*nday+i] = albDif.Elements[day[i]*nband+b]
	})

	op := optics.NewTwoStreamGpt(k.BandLims, k.GptBand(), nday, nlay)
	toa := sparse.ZerosDense(nday, k.NGpt())
	if err := k.GasOpticsSW(pLay, pLev, tLay, gas, op, toa); err != nil {
		return fmt.Errorf("colrad: shortwave gas optics: %w", err)
	}
	toa.Scale(tsiScaling)

	aerosolDay.DeltaScale()
	if err := aerosolDay.Increment(op); err != nil {
		return fmt.Errorf("colrad: shortwave aerosol optics: %w", err)
	}
	cloudsDay.DeltaScale()
	if err := cloudsDay.Increment(op); err != nil {
		return fmt.Errorf("colrad: shortwave cloud optics: %w", err)
	}

	fDay := rte.NewFluxes(nday, nlay, nband, true)
	if err := rte.SW(op, topAt1(pLev), mu0, toa, albDirT, albDifT, fDay); err != nil {
		return fmt.Errorf("colrad: shortwave solve: %w", err)
	}

	src, dst := fDay.Arrays(), f.Arrays()
	for i := range src {
		optics.ScatterColumns(src[i], dst[i], day)
	}
	log.WithFields(logrus.Fields{"ncol": in.Ncol, "nday": nday}).Debug("colrad: shortwave solved")
	return nil
}

// longwave runs the longwave solve over every column of in.
func (r *Radiation) longwave(in *Inputs, aerosol, clouds *optics.OneScalar, f *rte.Fluxes) error {
	k := r.kdistLW
	ncol, nlay, nband := in.Ncol, in.Nlay, k.NBand()
	top := topAt1(in.PLev)

	sfcLev := 0
	if top {
		sfcLev = nlay
	}
	tSfc := make([]float64, ncol)
	for c := range tSfc {
		tSfc[c] = in.TLev.Elements[c*(nlay+1)+sfcLev]
	}
	emis := sparse.ZerosDense(nband, ncol)
	for i := range emis.Elements {
		emis.Elements[i] = SurfaceEmissivity
	}

	op := optics.NewOneScalarGpt(k.BandLims, k.GptBand(), ncol, nlay)
	src := rte.NewLWSources(ncol, nlay, k.NGpt())
	if err := k.GasOpticsLW(in.PLay, in.PLev, in.TLay, in.TLev, tSfc, in.Gas, op, src); err != nil {
		return fmt.Errorf("colrad: longwave gas optics: %w", err)
	}
	if err := aerosol.Increment(op); err != nil {
		return fmt.Errorf("colrad: longwave aerosol optics: %w", err)
	}
	if err := clouds.Increment(op); err != nil {
		return fmt.Errorf("colrad: longwave cloud optics: %w", err)
	}
	if err := rte.LW(r.GaussAngles, op, top, src, emis, f); err != nil {
		return fmt.Errorf("colrad: longwave solve: %w", err)
	}
	return nil
}

// NewFluxes allocates zeroed shortwave and longwave fluxes for ncol
// columns and nlay layers with the band counts of r.
func (r *Radiation) NewFluxes(ncol, nlay int) (sw, lw *rte.Fluxes, err error) {
	if !r.initialized {
		return nil, nil, ErrNotInitialized
	}
	return rte.NewFluxes(ncol, nlay, r.kdistSW.NBand(), true),
		rte.NewFluxes(ncol, nlay, r.kdistLW.NBand(), false), nil
}

// NewInputs returns zeroed inputs for ncol columns and nlay layers with
// the band counts of r and the named gases.
func (r *Radiation) NewInputs(ncol, nlay int, gasNames []string) (*Inputs, error) {
	if !r.initialized {
		return nil, ErrNotInitialized
	}
	return NewInputs(ncol, nlay, r.kdistSW.NBand(), r.kdistLW.NBand(), gasNames)
}
