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
	"io/ioutil"
	"os"
	"testing"

	"github.com/ctessum/sparse"
)

func constField(v float64, ncol, nlay int) *sparse.DenseArray {
	a := sparse.ZerosDense(ncol, nlay)
	for i := range a.Elements {
		a.Elements[i] = v
	}
	return a
}

func TestLimitToBounds(t *testing.T) {
	x := sparse.ZerosDense(5)
	x.Elements = []float64{1, 2.5, 10, 21.5, 40}
	once, n := LimitToBounds(x, 2.5, 21.5)
	if n != 2 {
		t.Errorf("clamped %d values, want 2", n)
	}
	want := []float64{2.5, 2.5, 10, 21.5, 21.5}
	for i, v := range want {
		if once.Elements[i] != v {
			t.Errorf("element %d = %g, want %g", i, once.Elements[i], v)
		}
	}
	twice, n := LimitToBounds(once, 2.5, 21.5)
	if n != 0 {
		t.Errorf("second clamp changed %d values", n)
	}
	for i := range want {
		if twice.Elements[i] != once.Elements[i] {
			t.Errorf("clamping is not idempotent at %d", i)
		}
	}
	if x.Elements[0] != 1 {
		t.Error("input was modified")
	}
}

func TestCloudSW(t *testing.T) {
	const tol = 1e-12
	c := SyntheticCloudOptics(testLims, 5)
	var clamped = map[string]int{}
	c.Clamped = func(phase string, n int) { clamped[phase] += n }

	// Radius below the table is clamped to the first table entry.
	lwp := constField(10, 1, 2)
	iwp := constField(0, 1, 2)
	rel := constField(1, 1, 2)
	rei := constField(50, 1, 2)
	o, err := c.ComputeSW(lwp, iwp, rel, rei)
	if err != nil {
		t.Fatal(err)
	}
	if clamped["liquid"] != 2 || clamped["ice"] != 0 {
		t.Errorf("clamp counts = %v", clamped)
	}
	for b := range testLims {
		want := 10 * c.ExtLiq.Get(0, b)
		if absDifferent(o.Tau.Get(0, 1, b), want, tol) {
			t.Errorf("band %d: tau = %g, want %g", b, o.Tau.Get(0, 1, b), want)
		}
		if absDifferent(o.Ssa.Get(0, 1, b), c.SsaLiq.Get(0, b), tol) {
			t.Errorf("band %d: ssa = %g, want %g", b, o.Ssa.Get(0, 1, b), c.SsaLiq.Get(0, b))
		}
		if absDifferent(o.G.Get(0, 1, b), c.AsyLiq.Get(0, b), tol) {
			t.Errorf("band %d: g = %g, want %g", b, o.G.Get(0, 1, b), c.AsyLiq.Get(0, b))
		}
	}

	// Halfway between two table radii.
	rel = constField(0.5*(c.RadLiqLwr+c.RadLiqUpr), 1, 2)
	o, err = c.ComputeSW(lwp, iwp, rel, rei)
	if err != nil {
		t.Fatal(err)
	}
	want := 10 * c.ExtLiq.Get(2, 0)
	if absDifferent(o.Tau.Get(0, 0, 0), want, tol) {
		t.Errorf("midpoint tau = %g, want %g", o.Tau.Get(0, 0, 0), want)
	}
}

func TestCloudLW(t *testing.T) {
	const tol = 1e-12
	c := SyntheticCloudOptics(testLims, 4)
	lwp := constField(5, 2, 1)
	iwp := constField(3, 2, 1)
	rel := constField(c.RadLiqUpr, 2, 1)
	rei := constField(c.RadIceLwr, 2, 1)
	o, err := c.ComputeLW(lwp, iwp, rel, rei)
	if err != nil {
		t.Fatal(err)
	}
	for b := range testLims {
		tl := 5 * c.ExtLiq.Get(3, b)
		ti := 3 * c.ExtIce.Get(DefaultIceRoughness-1, 0, b)
		want := tl*(1-c.SsaLiq.Get(3, b)) + ti*(1-c.SsaIce.Get(DefaultIceRoughness-1, 0, b))
		if absDifferent(o.Tau.Get(1, 0, b), want, tol) {
			t.Errorf("band %d: tau = %g, want %g", b, o.Tau.Get(1, 0, b), want)
		}
	}
	if _, err := c.ComputeLW(lwp, iwp, rel, constField(1, 3, 1)); err == nil {
		t.Error("expected shape error")
	}
}

func TestCloudOpticsFile(t *testing.T) {
	c := SyntheticCloudOptics(testLims, 6)
	f, err := ioutil.TempFile("", "cloudoptics")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	defer f.Close()
	if err = c.Write(f); err != nil {
		t.Fatal(err)
	}
	c2, err := LoadCloudOptics(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	if err = (Spectral{BandLims: c2.BandLims}).CheckBands(c.BandLims); err != nil {
		t.Error(err)
	}
	if c2.RadIceUpr != c.RadIceUpr || c2.RadLiqLwr != c.RadLiqLwr {
		t.Errorf("radius limits %g %g", c2.RadIceUpr, c2.RadLiqLwr)
	}
	for i, v := range c.SsaIce.Elements {
		if c2.SsaIce.Elements[i] != v {
			t.Fatalf("ice ssa element %d = %g, want %g", i, c2.SsaIce.Elements[i], v)
		}
	}
	if c2.IceRoughness != DefaultIceRoughness {
		t.Errorf("ice roughness = %d", c2.IceRoughness)
	}
}
