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
	"errors"
	"io/ioutil"
	"math"
	"os"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/colrad/optics"
	"github.com/spatialmodel/colrad/rte"
	"gonum.org/v1/gonum/floats"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func TestPlanckBand(t *testing.T) {
	const sigma = 5.670374419e-8
	for _, temp := range []float64{200, 288, 320} {
		var total float64
		for _, l := range LWBandLims {
			total += PlanckBand(l[0], l[1], temp)
		}
		want := sigma * math.Pow(temp, 4) / math.Pi
		if different(total, want, 2e-3) {
			t.Errorf("T=%g: integrated radiance %g, want %g", temp, total, want)
		}
	}
}

func TestColDry(t *testing.T) {
	if v := ColDry(90000, 100000, 0); different(v, 1e4/(9.80665*0.0289644), 1e-12) {
		t.Errorf("dry column = %g", v)
	}
	if ColDry(100000, 90000, 0.01) >= ColDry(100000, 90000, 0) {
		t.Error("water vapor should displace dry air")
	}
}

func testState(ncol, nlay int, k *KDistribution, it, ip int) (play, plev, tlay, tlev *sparse.DenseArray) {
	play = sparse.ZerosDense(ncol, nlay)
	tlay = sparse.ZerosDense(ncol, nlay)
	plev = sparse.ZerosDense(ncol, nlay+1)
	tlev = sparse.ZerosDense(ncol, nlay+1)
	for c := 0; c < ncol; c++ {
		for l := 0; l <= nlay; l++ {
			plev.Set(k.PressRef[ip]*(0.8+0.4*float64(l)/float64(nlay)), c, l)
			tlev.Set(k.TempRef[it], c, l)
		}
		for l := 0; l < nlay; l++ {
			play.Set(k.PressRef[ip], c, l)
			tlay.Set(k.TempRef[it], c, l)
		}
	}
	return
}

func TestGasOpticsSW(t *testing.T) {
	const ncol, nlay = 3, 2
	k := Synthetic(SW, 2, []string{"h2o", "o3"})
	if err := k.Check(); err != nil {
		t.Fatal(err)
	}
	if different(k.TSI(), SolarConstant, 1e-12) {
		t.Errorf("TSI = %g, want %g", k.TSI(), SolarConstant)
	}
	gas, err := NewGasConcs([]string{"h2o", "o3", "co2"}, ncol, nlay)
	if err != nil {
		t.Fatal(err)
	}
	play, plev, tlay, _ := testState(ncol, nlay, k, 4, 20)
	out := optics.NewTwoStreamGpt(k.BandLims, k.GptBand(), ncol, nlay)
	toa := sparse.ZerosDense(ncol, k.NGpt())
	if err = k.GasOpticsSW(play, plev, tlay, gas, out, toa); err != nil {
		t.Fatal(err)
	}
	// Without absorbers only Rayleigh scattering remains.
	for i, v := range out.Ssa.Elements {
		if different(v, 1, 1e-12) {
			t.Fatalf("ssa[%d] = %g, want 1", i, v)
		}
	}
	for c := 0; c < ncol; c++ {
		row := toa.Elements[c*k.NGpt() : (c+1)*k.NGpt()]
		if different(floats.Sum(row), SolarConstant, 1e-12) {
			t.Errorf("column %d TOA flux %g", c, floats.Sum(row))
		}
	}

	o3 := sparse.ZerosDense(ncol, nlay)
	for i := range o3.Elements {
		o3.Elements[i] = 1e-6
	}
	if err = gas.Set("o3", o3); err != nil {
		t.Fatal(err)
	}
	if err = k.GasOpticsSW(play, plev, tlay, gas, out, toa); err != nil {
		t.Fatal(err)
	}
	dry := ColDry(plev.Get(0, 0), plev.Get(0, 1), 0)
	for gpt := 0; gpt < k.NGpt(); gpt++ {
		want := k.Kabs[1].Get(gpt, 4, 20)*1e-6*dry + k.Rayl[gpt]*dry
		if different(out.Tau.Get(0, 0, gpt), want, 1e-9) {
			t.Errorf("gpt %d: tau = %g, want %g", gpt, out.Tau.Get(0, 0, gpt), want)
		}
	}
}

func TestGasOpticsErrors(t *testing.T) {
	k := Synthetic(SW, 1, []string{"h2o", "co2"})
	gas, _ := NewGasConcs([]string{"h2o"}, 1, 1)
	play, plev, tlay, _ := testState(1, 1, k, 0, 0)
	out := optics.NewTwoStreamGpt(k.BandLims, k.GptBand(), 1, 1)
	toa := sparse.ZerosDense(1, k.NGpt())
	if err := k.GasOpticsSW(play, plev, tlay, gas, out, toa); err == nil {
		t.Error("expected error for missing co2")
	}
	bad := optics.NewTwoStreamGpt(LWBandLims, k.GptBand(), 1, 1)
	if err := k.Select([]string{"h2o"}).GasOpticsSW(play, plev, tlay, gas, bad, toa); !errors.Is(err, optics.ErrBands) {
		t.Errorf("err = %v, want ErrBands", err)
	}
	if err := k.Select([]string{"h2o"}).GasOpticsSW(play, plev, tlay, gas, out, sparse.ZerosDense(2, k.NGpt())); !errors.Is(err, rte.ErrDimension) {
		t.Errorf("err = %v, want ErrDimension", err)
	}
}

func TestGasOpticsLW(t *testing.T) {
	const ncol, nlay = 2, 3
	k := Synthetic(LW, 3, []string{"h2o", "co2"})
	if err := k.Check(); err != nil {
		t.Fatal(err)
	}
	gas, _ := NewGasConcs([]string{"co2", "h2o"}, ncol, nlay)
	co2 := sparse.ZerosDense(ncol, nlay)
	for i := range co2.Elements {
		co2.Elements[i] = 4e-4
	}
	gas.Set("co2", co2)
	play, plev, tlay, tlev := testState(ncol, nlay, k, 6, 25)
	tsfc := []float64{k.TempRef[6], k.TempRef[6]}
	out := optics.NewOneScalarGpt(k.BandLims, k.GptBand(), ncol, nlay)
	src := rte.NewLWSources(ncol, nlay, k.NGpt())
	if err := k.GasOpticsLW(play, plev, tlay, tlev, tsfc, gas, out, src); err != nil {
		t.Fatal(err)
	}
	dry := ColDry(plev.Get(1, 2), plev.Get(1, 3), 0)
	gptBand := k.GptBand()
	it := int(k.TempRef[6] - k.PlanckTemp[0])
	for gpt := 0; gpt < k.NGpt(); gpt++ {
		want := k.Kabs[1].Get(gpt, 6, 25) * 4e-4 * dry
		if different(out.Tau.Get(1, 2, gpt), want, 1e-9) {
			t.Errorf("gpt %d: tau = %g, want %g", gpt, out.Tau.Get(1, 2, gpt), want)
		}
		b := k.TotPlnk.Get(it, gptBand[gpt]) * k.PlanckFrac[gpt]
		if different(src.LaySrc.Get(1, 2, gpt), b, 1e-9) ||
			different(src.LevSrc.Get(0, 3, gpt), b, 1e-9) ||
			different(src.SfcSrc.Get(1, gpt), b, 1e-9) {
			t.Errorf("gpt %d: sources %g %g %g, want %g", gpt, src.LaySrc.Get(1, 2, gpt),
				src.LevSrc.Get(0, 3, gpt), src.SfcSrc.Get(1, gpt), b)
		}
	}
	sw := optics.NewTwoStreamGpt(k.BandLims, k.GptBand(), ncol, nlay)
	if err := k.GasOpticsSW(play, plev, tlay, gas, sw, sparse.ZerosDense(ncol, k.NGpt())); err == nil {
		t.Error("expected error for shortwave optics from longwave tables")
	}
}

func TestRoundTrip(t *testing.T) {
	for _, s := range []Spectrum{SW, LW} {
		k := Synthetic(s, 2, []string{"h2o", "co2", "o3"})
		f, err := ioutil.TempFile("", "kdist")
		if err != nil {
			t.Fatal(err)
		}
		defer os.Remove(f.Name())
		if err = k.Write(f); err != nil {
			t.Fatal(err)
		}
		f.Close()
		k2, err := Load(f.Name(), []string{"co2", "o3", "ch4"})
		if err != nil {
			t.Fatal(err)
		}
		if k2.Spectrum != s || k2.NGpt() != k.NGpt() || k2.NBand() != k.NBand() {
			t.Fatalf("%v: loaded %v with %d g-points and %d bands", s, k2.Spectrum, k2.NGpt(), k2.NBand())
		}
		if len(k2.GasNames) != 2 || k2.GasNames[0] != "co2" || k2.GasNames[1] != "o3" {
			t.Errorf("%v: gases %v", s, k2.GasNames)
		}
		if !floats.Equal(k2.Kabs[1].Elements, k.Kabs[2].Elements) {
			t.Errorf("%v: o3 table changed", s)
		}
		for b, l := range k.BandGpt {
			if k2.BandGpt[b] != l {
				t.Errorf("%v: band %d g-points %v, want %v", s, b, k2.BandGpt[b], l)
			}
		}
		if s == SW && !floats.Equal(k2.SolarSrc, k.SolarSrc) {
			t.Error("solar source changed")
		}
		if s == LW && !floats.Equal(k2.TotPlnk.Elements, k.TotPlnk.Elements) {
			t.Error("Planck table changed")
		}
	}
}

func TestGasConcs(t *testing.T) {
	if _, err := NewGasConcs([]string{"h2o", "h2o"}, 1, 1); err == nil {
		t.Error("expected error for duplicate gas")
	}
	g, err := NewGasConcs([]string{"h2o", "o3"}, 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	v := sparse.ZerosDense(3, 2)
	for c := 0; c < 3; c++ {
		v.Set(float64(c), c, 1)
	}
	if err = g.Set("o3", v); err != nil {
		t.Fatal(err)
	}
	if err = g.Set("ch4", v); err == nil {
		t.Error("expected error for unknown gas")
	}
	if err = g.Set("h2o", sparse.ZerosDense(2, 2)); err == nil {
		t.Error("expected error for wrong shape")
	}
	s := g.Subset([]int{2, 0})
	i, _ := s.Index("o3")
	if s.Ncol != 2 || s.VMR(i).Get(0, 1) != 2 || s.VMR(i).Get(1, 1) != 0 {
		t.Errorf("subset %v", s.VMR(i).Elements)
	}
}
