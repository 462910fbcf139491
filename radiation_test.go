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
	"errors"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/ctessum/sparse"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spatialmodel/colrad/internal/metrics"
	"github.com/spatialmodel/colrad/kdist"
	"github.com/spatialmodel/colrad/optics"
	"github.com/spatialmodel/colrad/rte"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

// memLoader provides synthetic tables and counts how many were loaded.
type memLoader struct {
	gpts  int
	loads int
}

func (m *memLoader) LoadKDistribution(s kdist.Spectrum, gasNames []string) (*kdist.KDistribution, error) {
	m.loads++
	return kdist.Synthetic(s, m.gpts, gasNames), nil
}

func (m *memLoader) LoadCloudOptics(s kdist.Spectrum) (*optics.CloudOptics, error) {
	m.loads++
	if s == kdist.LW {
		return optics.SyntheticCloudOptics(kdist.LWBandLims, 10), nil
	}
	return optics.SyntheticCloudOptics(kdist.SWBandLims, 10), nil
}

func initialized(t *testing.T, gasNames []string) *Radiation {
	r := New(&memLoader{gpts: 2}, nil)
	if err := r.Initialize(gasNames); err != nil {
		t.Fatal(err)
	}
	return r
}

// testInputs returns ncol identical two-layer columns, with the first
// layer at the top of the atmosphere if topAt1 is true.
func testInputs(t *testing.T, r *Radiation, ncol int, topAt1 bool, gasNames []string) *Inputs {
	in, err := r.NewInputs(ncol, 2, gasNames)
	if err != nil {
		t.Fatal(err)
	}
	pLev := []float64{100, 50000, 100000}
	tLev := []float64{220, 260, 290}
	pLay := []float64{25000, 75000}
	tLay := []float64{240, 275}
	for c := 0; c < ncol; c++ {
		for k := 0; k < 3; k++ {
			kk := k
			if !topAt1 {
				kk = 2 - k
			}
			in.PLev.Set(pLev[kk], c, k)
			in.TLev.Set(tLev[kk], c, k)
		}
		for k := 0; k < 2; k++ {
			kk := k
			if !topAt1 {
				kk = 1 - k
			}
			in.PLay.Set(pLay[kk], c, k)
			in.TLay.Set(tLay[kk], c, k)
		}
		in.Mu0[c] = 1
	}
	for _, g := range gasNames {
		vmr := sparse.ZerosDense(ncol, 2)
		for i := range vmr.Elements {
			vmr.Elements[i] = 1e-3
		}
		if err := in.Gas.Set(g, vmr); err != nil {
			t.Fatal(err)
		}
	}
	return in
}

func TestInitializeIdempotent(t *testing.T) {
	l := &memLoader{gpts: 1}
	r := New(l, nil)
	for i := 0; i < 2; i++ {
		if err := r.Initialize([]string{"h2o"}); err != nil {
			t.Fatal(err)
		}
	}
	if l.loads != 4 {
		t.Errorf("loaded %d tables, want 4", l.loads)
	}
	if !r.Initialized() {
		t.Error("not initialized")
	}
	r.Finalize()
	if r.Initialized() || r.KDistSW() != nil {
		t.Error("finalize did not release the tables")
	}
	if err := r.Initialize([]string{"h2o"}); err != nil {
		t.Fatal(err)
	}
	if l.loads != 8 {
		t.Errorf("loaded %d tables after reinitializing, want 8", l.loads)
	}
}

func TestNotInitialized(t *testing.T) {
	r := New(&memLoader{gpts: 1}, nil)
	sw := rte.NewFluxes(1, 1, 14, true)
	lw := rte.NewFluxes(1, 1, 16, false)
	if err := r.Main(&Inputs{}, sw, lw, 1, nil); err != ErrNotInitialized {
		t.Errorf("err = %v, want ErrNotInitialized", err)
	}
	if _, _, err := r.NewFluxes(1, 1); err != ErrNotInitialized {
		t.Errorf("err = %v, want ErrNotInitialized", err)
	}
}

func TestDayIndices(t *testing.T) {
	got := dayIndices([]float64{0.5, 0, -0.1, 1e-9})
	want := []int{0, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
	if dayIndices([]float64{0, -1}) != nil {
		t.Error("night columns should give no indices")
	}
}

func TestMainTOAFlux(t *testing.T) {
	const (
		tsi = 0.5
		mu0 = 0.5
	)
	for _, top := range []bool{true, false} {
		r := initialized(t, nil)
		in := testInputs(t, r, 1, top, nil)
		in.Mu0[0] = mu0
		sw, lw, err := r.NewFluxes(1, 2)
		if err != nil {
			t.Fatal(err)
		}
		if err = r.Main(in, sw, lw, tsi, nil); err != nil {
			t.Fatal(err)
		}
		toa := 0
		if !top {
			toa = 2
		}
		want := tsi * mu0 * r.KDistSW().TSI()
		if got := sw.FluxDn.Get(0, toa); different(got, want, 1e-10) {
			t.Errorf("topAt1=%v: TOA downward flux %g, want %g", top, got, want)
		}
		if got := sw.FluxDnDir.Get(0, toa); different(got, want, 1e-10) {
			t.Errorf("topAt1=%v: TOA direct flux %g, want %g", top, got, want)
		}
		// Non-absorbing atmosphere over a black surface.
		sfc := 2 - toa
		net := func(k int) float64 { return sw.FluxDn.Get(0, k) - sw.FluxUp.Get(0, k) }
		if different(net(toa), net(sfc), 1e-9) {
			t.Errorf("topAt1=%v: net flux at TOA %g and surface %g differ", top, net(toa), net(sfc))
		}
		if sw.FluxUp.Get(0, sfc) > 1e-9 {
			t.Errorf("topAt1=%v: black surface reflects %g", top, sw.FluxUp.Get(0, sfc))
		}
		if lw.FluxUp.Get(0, sfc) <= 0 {
			t.Errorf("topAt1=%v: no longwave surface emission", top)
		}
	}
}

func TestMainSingleLayer(t *testing.T) {
	const sigma = 5.670374419e-8
	for _, top := range []bool{true, false} {
		r := initialized(t, nil)
		in, err := r.NewInputs(1, 1, nil)
		if err != nil {
			t.Fatal(err)
		}
		toa, sfc := 0, 1
		if !top {
			toa, sfc = 1, 0
		}
		in.PLev.Set(100, 0, toa)
		in.PLev.Set(100000, 0, sfc)
		in.TLev.Set(200, 0, toa)
		in.TLev.Set(300, 0, sfc)
		in.PLay.Set(50000, 0, 0)
		in.TLay.Set(250, 0, 0)
		in.Mu0[0] = 1
		if got := SurfaceLevel(in.PLev); got != sfc {
			t.Errorf("topAt1=%v: surface level %d, want %d", top, got, sfc)
		}
		sw, lw, err := r.NewFluxes(1, 1)
		if err != nil {
			t.Fatal(err)
		}
		if err = r.Main(in, sw, lw, 1, nil); err != nil {
			t.Fatal(err)
		}
		want := r.KDistSW().TSI()
		if got := sw.FluxDn.Get(0, toa); different(got, want, 1e-10) {
			t.Errorf("topAt1=%v: TOA downward flux %g, want %g", top, got, want)
		}
		if got := sw.FluxDn.Get(0, sfc); got >= want {
			t.Errorf("topAt1=%v: surface downward flux %g not below TOA %g", top, got, want)
		}
		// The surface emits at the surface interface temperature.
		wantLW := SurfaceEmissivity * sigma * math.Pow(300, 4)
		if got := lw.FluxUp.Get(0, sfc); different(got, wantLW, 0.05) {
			t.Errorf("topAt1=%v: longwave surface emission %g, want about %g", top, got, wantLW)
		}
	}
}

func TestMainTSIScalingLinear(t *testing.T) {
	gases := []string{"h2o"}
	r := initialized(t, gases)
	scales := []float64{0.25, 0.5, 1, 1.5, 2}
	sfc := make([]float64, len(scales))
	for i, tsi := range scales {
		in := testInputs(t, r, 1, true, gases)
		in.SfcAlbDirVis[0], in.SfcAlbDifNir[0] = 0.3, 0.2
		sw, lw, err := r.NewFluxes(1, 2)
		if err != nil {
			t.Fatal(err)
		}
		if err = r.Main(in, sw, lw, tsi, nil); err != nil {
			t.Fatal(err)
		}
		sfc[i] = sw.FluxDn.Get(0, 2)
	}
	slope, intercept, rsquared, _, _, _ := stats.LinearRegression(scales, sfc)
	if different(slope, sfc[2], 1e-9) {
		t.Errorf("slope = %g, want %g", slope, sfc[2])
	}
	if math.Abs(intercept) > 1e-9*sfc[2] {
		t.Errorf("intercept = %g, want 0", intercept)
	}
	if different(rsquared, 1, 1e-9) {
		t.Errorf("R2 = %g, want 1", rsquared)
	}
}

func TestMainNightColumns(t *testing.T) {
	gases := []string{"h2o", "o3"}
	r := initialized(t, gases)
	in := testInputs(t, r, 3, true, gases)
	in.Mu0[1] = 0
	in.LWP.Set(20, 2, 1)
	in.Rel.Set(40, 2, 1) // clamped
	sw, lw, err := r.NewFluxes(3, 2)
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range sw.Arrays() {
		for i := range a.Elements {
			a.Elements[i] = -1
		}
	}
	clamped := testutil.ToFloat64(metrics.RadiusClamped.WithLabelValues("liquid"))
	if err = r.Main(in, sw, lw, 1, nil); err != nil {
		t.Fatal(err)
	}
	if n := testutil.ToFloat64(metrics.DaytimeColumns); n != 2 {
		t.Errorf("daytime columns = %g, want 2", n)
	}
	// Counted by both the shortwave and the longwave cloud optics.
	if d := testutil.ToFloat64(metrics.RadiusClamped.WithLabelValues("liquid")) - clamped; d != 2 {
		t.Errorf("clamped %g liquid radii, want 2", d)
	}
	for _, a := range sw.Arrays() {
		n := len(a.Elements) / 3
		for i, v := range a.Elements[n : 2*n] {
			if v != 0 {
				t.Fatalf("night column flux %d = %g, want 0", i, v)
			}
		}
		for i, v := range a.Elements[:n] {
			if v < 0 {
				t.Fatalf("day column flux %d = %g", i, v)
			}
		}
	}
	// The cloud in the last column reduces the surface direct beam.
	if sw.FluxDnDir.Get(2, 2) >= sw.FluxDnDir.Get(0, 2) {
		t.Errorf("cloudy direct beam %g is not below clear-sky %g", sw.FluxDnDir.Get(2, 2), sw.FluxDnDir.Get(0, 2))
	}
	// Both day and night columns emit longwave radiation.
	if different(lw.FluxUp.Get(0, 2), lw.FluxUp.Get(1, 2), 1e-12) {
		t.Errorf("longwave surface emission differs: %g, %g", lw.FluxUp.Get(0, 2), lw.FluxUp.Get(1, 2))
	}
}

func TestMainAllNight(t *testing.T) {
	r := initialized(t, nil)
	in := testInputs(t, r, 2, true, nil)
	in.Mu0[0], in.Mu0[1] = 0, -0.5
	sw, lw, _ := r.NewFluxes(2, 2)
	if err := r.Main(in, sw, lw, 1, nil); err != nil {
		t.Fatal(err)
	}
	for _, a := range sw.Arrays() {
		if s := a.Sum(); s != 0 {
			t.Errorf("shortwave flux sum %g, want 0", s)
		}
	}
	if lw.FluxUp.Sum() <= 0 {
		t.Error("longwave fluxes were not computed")
	}
}

func TestMainDimensionErrors(t *testing.T) {
	r := initialized(t, nil)
	for name, modify := range map[string]func(in *Inputs, sw, lw *rte.Fluxes){
		"mu0":     func(in *Inputs, sw, lw *rte.Fluxes) { in.Mu0 = in.Mu0[:1] },
		"plev":    func(in *Inputs, sw, lw *rte.Fluxes) { in.PLev = sparse.ZerosDense(2, 2) },
		"aerosol": func(in *Inputs, sw, lw *rte.Fluxes) { in.AerTauSW = sparse.ZerosDense(2, 2, 3) },
		"sw":      func(in *Inputs, sw, lw *rte.Fluxes) { sw.BndFluxDnDir = nil },
		"lw":      func(in *Inputs, sw, lw *rte.Fluxes) { lw.FluxUp = sparse.ZerosDense(2, 2) },
	} {
		in := testInputs(t, r, 2, true, nil)
		sw, lw, _ := r.NewFluxes(2, 2)
		modify(in, sw, lw)
		if err := r.Main(in, sw, lw, 1, nil); !errors.Is(err, ErrDimension) {
			t.Errorf("%s: err = %v, want dimension error", name, err)
		}
	}
}

func TestFileLoader(t *testing.T) {
	dir, err := ioutil.TempDir("", "colrad")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	if err = os.Mkdir(filepath.Join(dir, "init"), 0755); err != nil {
		t.Fatal(err)
	}
	l := NewFileLoader(dir)
	write := func(path string, w func(f *os.File) error) {
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		if err = w(f); err != nil {
			t.Fatal(err)
		}
		f.Close()
	}
	gases := []string{"h2o", "co2"}
	write(l.CoefficientsSW, func(f *os.File) error { return kdist.Synthetic(kdist.SW, 2, gases).Write(f) })
	write(l.CoefficientsLW, func(f *os.File) error { return kdist.Synthetic(kdist.LW, 2, gases).Write(f) })
	write(l.CloudOpticsSW, func(f *os.File) error { return optics.SyntheticCloudOptics(kdist.SWBandLims, 5).Write(f) })
	write(l.CloudOpticsLW, func(f *os.File) error { return optics.SyntheticCloudOptics(kdist.LWBandLims, 5).Write(f) })

	r := New(l, nil)
	if err = r.Initialize([]string{"h2o"}); err != nil {
		t.Fatal(err)
	}
	if len(r.KDistSW().GasNames) != 1 || r.KDistSW().GasNames[0] != "h2o" {
		t.Errorf("shortwave gases = %v", r.KDistSW().GasNames)
	}
	if r.KDistLW().NGpt() != 32 {
		t.Errorf("longwave g-points = %d, want 32", r.KDistLW().NGpt())
	}

	swapped := *l
	swapped.CoefficientsSW = l.CoefficientsLW
	if err = New(&swapped, nil).Initialize(nil); err == nil {
		t.Error("loading longwave coefficients as shortwave should fail")
	}
	missing := NewFileLoader(filepath.Join(dir, "missing"))
	if err = New(missing, nil).Initialize(nil); err == nil {
		t.Error("missing files should fail")
	}
}
