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

package diag

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ctessum/unit"
)

var t0 = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

// setup creates the named diagnostic on g and gives it freshly allocated
// required fields, checking that none of them can be set as computed.
func setup(t *testing.T, name string, params Params, g Grid) (Diagnostic, map[string]*Field) {
	d, err := Create(name, params)
	if err != nil {
		t.Fatal(err)
	}
	d.SetGrid(g)
	fields := make(map[string]*Field)
	for _, r := range d.RequiredFieldRequests() {
		f := NewField(r, g)
		if err = d.SetRequiredField(f); err != nil {
			t.Fatal(err)
		}
		if err = d.SetComputedField(f); err == nil {
			t.Errorf("%s: setting required field %s as computed should fail", name, r.Name)
		}
		fields[r.Name] = f
	}
	if err = d.Initialize(t0, Initial); err != nil {
		t.Fatal(err)
	}
	return d, fields
}

func TestPotentialTemperature(t *testing.T) {
	g := Grid{Ncol: 2, Nlev: 3}
	temps := []float64{200, 250, 300, 210, 260, 400}
	press := []float64{P0, 50000, 1000, 90000, P0, 20000}
	qc := []float64{0, 1e-3, 2e-4, 5e-4, 0, 1e-5}
	for _, kind := range []string{"Tot", "Liq"} {
		d, f := setup(t, "PotentialTemperature", Params{"Temperature Kind": kind}, g)
		copy(f["T_mid"].Data.Elements, temps)
		copy(f["p_mid"].Data.Elements, press)
		copy(f["qc"].Data.Elements, qc)
		if err := d.Compute(); err != nil {
			t.Fatal(err)
		}
		out := d.Diagnostic()
		if !out.Units.Matches(unit.Kelvin) {
			t.Errorf("%s: units %s", kind, out.Units)
		}
		for i, v := range out.Data.Elements {
			want := temps[i] * math.Pow(P0/press[i], Rd/Cp)
			if kind == "Liq" {
				want -= want / temps[i] * LatVap / Cp * qc[i]
			}
			if different(v, want, 1e-14) {
				t.Errorf("%s %d: theta = %g, want %g", kind, i, v, want)
			}
		}
		// At the reference pressure, dry potential temperature is the
		// temperature.
		if kind == "Tot" && out.Data.Elements[0] != temps[0] {
			t.Errorf("theta at P0 = %g, want %g", out.Data.Elements[0], temps[0])
		}
		d.Finalize()
	}
	if _, err := Create("PotentialTemperature", Params{"Temperature Kind": "Ice"}); err == nil {
		t.Error("unknown temperature kind should fail")
	}
}

func TestRequiredFieldChecks(t *testing.T) {
	g := Grid{Ncol: 2, Nlev: 3}
	d, err := Create("PotentialTemperature", nil)
	if err != nil {
		t.Fatal(err)
	}
	d.SetGrid(g)
	if err = d.SetRequiredField(NewField(FieldRequest{Name: "T_mid", Units: unit.Pascal}, g)); err == nil {
		t.Error("wrong units should fail")
	}
	if err = d.SetRequiredField(NewField(FieldRequest{Name: "T_mid", Units: unit.Kelvin}, Grid{Ncol: 1, Nlev: 3})); err == nil {
		t.Error("wrong shape should fail")
	}
	if err = d.SetRequiredField(NewField(FieldRequest{Name: "u", Units: unit.MeterPerSecond}, g)); err == nil {
		t.Error("unrequested field should fail")
	}
	if err = d.SetComputedField(NewField(FieldRequest{Name: "T_mid", Units: unit.Kelvin}, g)); err == nil {
		t.Error("an input field should not be accepted as computed before it is set")
	}
	if err = d.SetComputedField(NewField(FieldRequest{Name: "u", Units: unit.MeterPerSecond}, g)); err == nil {
		t.Error("a field the diagnostic does not produce should not be accepted as computed")
	}
	if err = d.SetComputedField(NewField(FieldRequest{Name: "PotentialTemperature", Units: unit.Pascal}, g)); err == nil {
		t.Error("computed field with wrong units should fail")
	}
	if err = d.Compute(); !errors.Is(err, ErrNotReady) {
		t.Errorf("uninitialized compute: err = %v", err)
	}
	if err = d.Initialize(t0, Initial); err != nil {
		t.Fatal(err)
	}
	if err = d.Compute(); !errors.Is(err, ErrNotReady) {
		t.Errorf("compute without fields: err = %v", err)
	}
	if _, err = Create("nonsense", nil); err == nil {
		t.Error("unknown diagnostic should fail")
	}
}

func TestComputedField(t *testing.T) {
	g := Grid{Ncol: 1, Nlev: 2}
	d, f := setup(t, "PotentialTemperature", nil, g)
	out := NewField(FieldRequest{Name: "PotentialTemperature", Units: unit.Kelvin}, g)
	if err := d.SetComputedField(out); err != nil {
		t.Fatal(err)
	}
	copy(f["T_mid"].Data.Elements, []float64{250, 300})
	copy(f["p_mid"].Data.Elements, []float64{P0, P0})
	if err := d.Compute(); err != nil {
		t.Fatal(err)
	}
	if d.Diagnostic() != out {
		t.Error("diagnostic is not the computed field")
	}
	if out.Data.Elements[0] != 250 || out.Data.Elements[1] != 300 {
		t.Errorf("computed field = %v, want [250 300]", out.Data.Elements)
	}
}

func TestVerticalLayerInterface(t *testing.T) {
	g := Grid{Ncol: 2, Nlev: 4}
	for _, name := range []string{"z_int", "geopotential_int"} {
		for _, fromSeaLevel := range []bool{true, false} {
			d, f := setup(t, name, Params{"from_sea_level": fromSeaLevel}, g)
			f["phis"].Data.Elements[0] = 0
			f["phis"].Data.Elements[1] = 5000
			for c := 0; c < g.Ncol; c++ {
				for k := 0; k < g.Nlev; k++ {
					f["T_mid"].Data.Set(220+15*float64(k), c, k)
					f["p_mid"].Data.Set(20000+25000*float64(k), c, k)
					f["pseudo_density"].Data.Set(25000, c, k)
					f["qv"].Data.Set(1e-4*float64(k+c), c, k)
				}
			}
			if err := d.Compute(); err != nil {
				t.Fatal(err)
			}
			out := d.Diagnostic().Data
			if s := out.Shape; s[0] != 2 || s[1] != 5 {
				t.Fatalf("shape %v, want [2 5]", s)
			}
			scale := 1.
			if name == "z_int" {
				scale = 1 / Gravit
			}
			for c := 0; c < g.Ncol; c++ {
				want := 0.
				if fromSeaLevel {
					want = f["phis"].Data.Get(c) * scale
				}
				if got := out.Get(c, g.Nlev); got != want {
					t.Errorf("%s: column %d surface = %g, want %g", name, c, got, want)
				}
				for k := g.Nlev - 1; k >= 0; k-- {
					dz := Rd * VirtualTemperature(f["T_mid"].Data.Get(c, k), f["qv"].Data.Get(c, k)) *
						25000 / (Gravit * f["p_mid"].Data.Get(c, k))
					want += dz * Gravit * scale
					if got := out.Get(c, k); different(got, want, 1e-12) {
						t.Errorf("%s: column %d level %d = %g, want %g", name, c, k, got, want)
					}
					if out.Get(c, k) <= out.Get(c, k+1) {
						t.Errorf("%s: column %d not increasing upward at %d", name, c, k)
					}
				}
			}
		}
	}
}

func TestVirtualTemperature(t *testing.T) {
	if different(VirtualTemperature(280, 0), 280, 1e-15) {
		t.Error("dry virtual temperature should equal the temperature")
	}
	if VirtualTemperature(280, 0.01) <= 280 {
		t.Error("moist air should be virtually warmer")
	}
}

func TestNames(t *testing.T) {
	want := []string{"PotentialTemperature", "geopotential_int", "z_int"}
	got := Names()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}
