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

package colradutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/ctessum/cdf"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/colrad"
	"github.com/spatialmodel/colrad/diag"
	"github.com/spatialmodel/colrad/kdist"
	"github.com/spatialmodel/colrad/optics"
)

// Run solves the scenario named in cfg and writes the output file.
func Run(cfg *viper.Viper, log logrus.FieldLogger) error {
	s, err := LoadScenario(os.ExpandEnv(cfg.GetString("Scenario")))
	if err != nil {
		return err
	}
	outputFile, err := checkOutputFile(cfg.GetString("OutputFile"))
	if err != nil {
		return err
	}
	vars, err := GetStringMapString("OutputVariables", cfg)
	if err != nil {
		return err
	}
	if vars, err = checkOutputVars(vars); err != nil {
		return err
	}
	o, err := colrad.NewOutputter(outputFile, vars, nil)
	if err != nil {
		return err
	}

	r := colrad.New(FileLoader(cfg), log)
	r.GaussAngles = cfg.GetInt("GaussAngles")
	if err = r.Initialize(s.GasNames()); err != nil {
		return err
	}
	defer r.Finalize()

	in, err := s.Inputs(r)
	if err != nil {
		return err
	}
	sw, lw, err := r.NewFluxes(in.Ncol, in.Nlay)
	if err != nil {
		return err
	}
	start := time.Now()
	if err = r.Main(in, sw, lw, cfg.GetFloat64("TSIScaling"), log); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"ncol":     in.Ncol,
		"nlay":     in.Nlay,
		"duration": time.Since(start),
	}).Info("colrad: fluxes computed")

	sfc := colrad.NewSurfaceFluxes(in.Ncol)
	err = colrad.ComputeBroadbandSurfaceFluxes(r.KDistSW(), colrad.SurfaceLevel(in.PLev),
		sw.BndFluxDnDir, colrad.DiffuseBandFlux(sw), sfc)
	if err != nil {
		return err
	}
	if err = o.Write(&colrad.Result{SW: sw, LW: lw, PLev: in.PLev, Surface: sfc}); err != nil {
		return err
	}
	log.WithField("file", outputFile).Info("colrad: output written")
	return nil
}

// Coeffs writes synthetic coefficient files under their default names
// in the data directory given by cfg.
func Coeffs(cfg *viper.Viper, log logrus.FieldLogger) error {
	dir := os.ExpandEnv(cfg.GetString("Synth.OutputDir"))
	if dir == "" {
		return fmt.Errorf("colrad: Synth.OutputDir is not set")
	}
	if err := os.MkdirAll(filepath.Join(dir, "init"), 0755); err != nil {
		return fmt.Errorf("colrad: creating coefficient directory: %v", err)
	}
	gpts := cfg.GetInt("Synth.Gpts")
	if gpts < 1 {
		return fmt.Errorf("colrad: Synth.Gpts must be positive, not %d", gpts)
	}
	nsize := cfg.GetInt("Synth.CloudSizes")
	if nsize < 2 {
		return fmt.Errorf("colrad: Synth.CloudSizes must be at least 2, not %d", nsize)
	}
	gases := expandStringSlice(cfg.GetStringSlice("Synth.Gases"))
	l := colrad.NewFileLoader(dir)
	for _, f := range []struct {
		path  string
		write func(w cdf.ReaderWriterAt) error
	}{
		{l.CoefficientsSW, kdist.Synthetic(kdist.SW, gpts, gases).Write},
		{l.CoefficientsLW, kdist.Synthetic(kdist.LW, gpts, gases).Write},
		{l.CloudOpticsSW, optics.SyntheticCloudOptics(kdist.SWBandLims, nsize).Write},
		{l.CloudOpticsLW, optics.SyntheticCloudOptics(kdist.LWBandLims, nsize).Write},
	} {
		if err := writeFile(f.path, f.write); err != nil {
			return err
		}
		log.WithField("file", f.path).Info("colrad: wrote coefficients")
	}
	return nil
}

func writeFile(path string, write func(w cdf.ReaderWriterAt) error) error {
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("colrad: %v", err)
	}
	if err = write(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// Theta writes the potential temperature of each column and layer of
// the scenario named in cfg to w.
func Theta(cfg *viper.Viper, w io.Writer) error {
	s, err := LoadScenario(os.ExpandEnv(cfg.GetString("Scenario")))
	if err != nil {
		return err
	}
	d, err := diag.Create("PotentialTemperature", diag.Params{
		"Temperature Kind": cfg.GetString("Diag.TemperatureKind"),
	})
	if err != nil {
		return err
	}
	g := diag.Grid{Ncol: s.Ncol(), Nlev: s.Nlay()}
	d.SetGrid(g)
	src := map[string][][]float64{"T_mid": s.TLay, "p_mid": s.PLay, "qc": s.Qc}
	for _, req := range d.RequiredFieldRequests() {
		f := diag.NewField(req, g)
		if err = fill2(req.Name, f.Data, src[req.Name]); err != nil {
			return err
		}
		if err = d.SetRequiredField(f); err != nil {
			return err
		}
	}
	if err = d.Initialize(time.Now(), diag.Initial); err != nil {
		return err
	}
	defer d.Finalize()
	if err = d.Compute(); err != nil {
		return err
	}
	out := d.Diagnostic().Data

	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)
	fmt.Fprintln(tw, "column\tlayer\tpressure [Pa]\ttheta [K]")
	for c := 0; c < g.Ncol; c++ {
		for k := 0; k < g.Nlev; k++ {
			fmt.Fprintf(tw, "%d\t%d\t%.1f\t%.3f\n", c, k, s.PLay[c][k], out.Get(c, k))
		}
	}
	return tw.Flush()
}
