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
	"fmt"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/colrad/internal/ncf"
)

// LoadCloudOptics reads a cloud optics lookup table from the netCDF file
// at path.
func LoadCloudOptics(path string) (*CloudOptics, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("optics: opening cloud optics file: %v", err)
	}
	defer f.Close()
	return ReadCloudOptics(f)
}

// ReadCloudOptics reads a cloud optics lookup table from netCDF data.
func ReadCloudOptics(rw cdf.ReaderWriterAt) (*CloudOptics, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("optics.ReadCloudOptics: %v", err)
	}
	c := &CloudOptics{IceRoughness: DefaultIceRoughness}
	lims, err := ncf.Read(f, "bnd_limits_wavenumber")
	if err != nil {
		return nil, fmt.Errorf("optics.ReadCloudOptics: %v", err)
	}
	c.BandLims = ncf.Pairs(lims)

	for _, a := range []struct {
		name string
		v    *float64
	}{
		{"radliq_lwr", &c.RadLiqLwr},
		{"radliq_upr", &c.RadLiqUpr},
		{"radice_lwr", &c.RadIceLwr},
		{"radice_upr", &c.RadIceUpr},
	} {
		val, err := ncf.Float64s(f, "", a.name)
		if err != nil {
			return nil, fmt.Errorf("optics.ReadCloudOptics: %v", err)
		}
		*a.v = val[0]
	}

	for _, v := range []struct {
		name string
		a    **sparse.DenseArray
	}{
		{"lut_extliq", &c.ExtLiq},
		{"lut_ssaliq", &c.SsaLiq},
		{"lut_asyliq", &c.AsyLiq},
		{"lut_extice", &c.ExtIce},
		{"lut_ssaice", &c.SsaIce},
		{"lut_asyice", &c.AsyIce},
	} {
		if *v.a, err = ncf.Read(f, v.name); err != nil {
			return nil, fmt.Errorf("optics.ReadCloudOptics: %v", err)
		}
	}
	if err = c.Check(); err != nil {
		return nil, err
	}
	return c, nil
}

// Write writes the lookup table to w in the format read by
// ReadCloudOptics.
func (c *CloudOptics) Write(w cdf.ReaderWriterAt) error {
	if err := c.Check(); err != nil {
		return err
	}
	nband := c.NBand()
	h := cdf.NewHeader(
		[]string{"nband", "pair", "nsize_liq", "nsize_ice", "nrghice"},
		[]int{nband, 2, c.ExtLiq.Shape[0], c.ExtIce.Shape[1], c.ExtIce.Shape[0]})
	h.AddAttribute("", "comment", "colrad cloud optics lookup table")
	h.AddAttribute("", "radliq_lwr", []float64{c.RadLiqLwr})
	h.AddAttribute("", "radliq_upr", []float64{c.RadLiqUpr})
	h.AddAttribute("", "radice_lwr", []float64{c.RadIceLwr})
	h.AddAttribute("", "radice_upr", []float64{c.RadIceUpr})
	h.AddVariable("bnd_limits_wavenumber", []string{"nband", "pair"}, []float64{0})
	h.AddAttribute("bnd_limits_wavenumber", "units", "cm-1")
	vars := []struct {
		name  string
		dims  []string
		units string
		data  *sparse.DenseArray
	}{
		{"lut_extliq", []string{"nsize_liq", "nband"}, "m2 g-1", c.ExtLiq},
		{"lut_ssaliq", []string{"nsize_liq", "nband"}, "1", c.SsaLiq},
		{"lut_asyliq", []string{"nsize_liq", "nband"}, "1", c.AsyLiq},
		{"lut_extice", []string{"nrghice", "nsize_ice", "nband"}, "m2 g-1", c.ExtIce},
		{"lut_ssaice", []string{"nrghice", "nsize_ice", "nband"}, "1", c.SsaIce},
		{"lut_asyice", []string{"nrghice", "nsize_ice", "nband"}, "1", c.AsyIce},
	}
	for _, v := range vars {
		h.AddVariable(v.name, v.dims, []float64{0})
		h.AddAttribute(v.name, "units", v.units)
	}
	h.Define()

	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("optics: creating cloud optics file: %v", err)
	}
	if err = ncf.Write(f, "bnd_limits_wavenumber", ncf.FlattenPairs(c.BandLims)); err != nil {
		return fmt.Errorf("optics: writing cloud optics file: %v", err)
	}
	for _, v := range vars {
		if err = ncf.Write(f, v.name, v.data); err != nil {
			return fmt.Errorf("optics: writing cloud optics file: %v", err)
		}
	}
	return nil
}
