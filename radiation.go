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

// Package colrad computes shortwave and longwave radiative fluxes in
// atmospheric columns. A Radiation context owns the gas and cloud optics
// tables; Main composes gas, aerosol and cloud optical properties and
// runs the shortwave solve over sunlit columns and the longwave solve
// over all columns.
package colrad

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/colrad/internal/metrics"
	"github.com/spatialmodel/colrad/kdist"
	"github.com/spatialmodel/colrad/optics"
	"github.com/spatialmodel/colrad/rte"
)

// Version gives the version number.
const Version = "0.1.0"

// ErrNotInitialized is returned when a Radiation context is used before
// Initialize has been called.
var ErrNotInitialized = errors.New("colrad: radiation context is not initialized")

// ErrDimension is wrapped by errors reporting inputs whose dimensions
// disagree with each other or with the loaded tables.
var ErrDimension = rte.ErrDimension

// Default coefficient file names, relative to the data directory.
const (
	CoefficientsFileSW = "init/rrtmgp-data-sw-g224-2018-12-04.nc"
	CoefficientsFileLW = "init/rrtmgp-data-lw-g256-2018-12-04.nc"
	CloudOpticsFileSW  = "init/rrtmgp-cloud-optics-coeffs-sw.nc"
	CloudOpticsFileLW  = "init/rrtmgp-cloud-optics-coeffs-lw.nc"
)

// A Loader provides the coefficient tables of a Radiation context.
type Loader interface {
	// LoadKDistribution returns the k-distribution for spectrum s,
	// restricted to the absorbing gases in gasNames.
	LoadKDistribution(s kdist.Spectrum, gasNames []string) (*kdist.KDistribution, error)

	// LoadCloudOptics returns the cloud optics table for spectrum s.
	LoadCloudOptics(s kdist.Spectrum) (*optics.CloudOptics, error)
}

// FileLoader loads coefficient tables from netCDF files.
type FileLoader struct {
	CoefficientsSW, CoefficientsLW string
	CloudOpticsSW, CloudOpticsLW   string
}

// NewFileLoader returns a FileLoader for the default file names within
// dataDir.
func NewFileLoader(dataDir string) *FileLoader {
	return &FileLoader{
		CoefficientsSW: filepath.Join(dataDir, CoefficientsFileSW),
		CoefficientsLW: filepath.Join(dataDir, CoefficientsFileLW),
		CloudOpticsSW:  filepath.Join(dataDir, CloudOpticsFileSW),
		CloudOpticsLW:  filepath.Join(dataDir, CloudOpticsFileLW),
	}
}

// LoadKDistribution implements Loader.
func (l *FileLoader) LoadKDistribution(s kdist.Spectrum, gasNames []string) (*kdist.KDistribution, error) {
	path := l.CoefficientsSW
	if s == kdist.LW {
		path = l.CoefficientsLW
	}
	k, err := kdist.Load(os.ExpandEnv(path), gasNames)
	if err != nil {
		return nil, err
	}
	if k.Spectrum != s {
		return nil, fmt.Errorf("colrad: %s contains %s coefficients, want %s", path, k.Spectrum, s)
	}
	return k, nil
}

// LoadCloudOptics implements Loader.
func (l *FileLoader) LoadCloudOptics(s kdist.Spectrum) (*optics.CloudOptics, error) {
	path := l.CloudOpticsSW
	if s == kdist.LW {
		path = l.CloudOpticsLW
	}
	return optics.LoadCloudOptics(os.ExpandEnv(path))
}

// Radiation is a radiative transfer context. It holds the coefficient
// tables between solves; they are read-only while solving. A Radiation
// must not be used by more than one solve at a time.
type Radiation struct {
	loader Loader
	log    logrus.FieldLogger

	// GaussAngles is the number of quadrature angles of the longwave
	// solve (1 to 4).
	GaussAngles int

	kdistSW, kdistLW *kdist.KDistribution
	cloudSW, cloudLW *optics.CloudOptics
	initialized      bool
}

// New returns an uninitialized context whose tables will come from
// loader. Informational messages go to log, which may be nil.
func New(loader Loader, log logrus.FieldLogger) *Radiation {
	return &Radiation{
		loader:      loader,
		log:         orDiscard(log),
		GaussAngles: 1,
	}
}

// orDiscard returns log, or a logger that discards everything if log is
// nil.
func orDiscard(log logrus.FieldLogger) logrus.FieldLogger {
	if log != nil {
		return log
	}
	l := logrus.New()
	l.Out = ioutil.Discard
	return l
}

// Initialize loads the shortwave and longwave k-distributions, keeping
// the gases in gasNames, and the cloud optics tables. Calling Initialize
// on an initialized context does nothing.
func (r *Radiation) Initialize(gasNames []string) error {
	if r.initialized {
		r.log.Info("colrad: radiation is already initialized; skipping")
		return nil
	}
	var err error
	if r.kdistSW, err = r.loader.LoadKDistribution(kdist.SW, gasNames); err != nil {
		return fmt.Errorf("colrad: loading shortwave coefficients: %v", err)
	}
	if r.kdistLW, err = r.loader.LoadKDistribution(kdist.LW, gasNames); err != nil {
		return fmt.Errorf("colrad: loading longwave coefficients: %v", err)
	}
	if r.cloudSW, err = r.loader.LoadCloudOptics(kdist.SW); err != nil {
		return fmt.Errorf("colrad: loading shortwave cloud optics: %v", err)
	}
	if r.cloudLW, err = r.loader.LoadCloudOptics(kdist.LW); err != nil {
		return fmt.Errorf("colrad: loading longwave cloud optics: %v", err)
	}
	for _, c := range []struct {
		name string
		k    *kdist.KDistribution
		co   *optics.CloudOptics
	}{{"shortwave", r.kdistSW, r.cloudSW}, {"longwave", r.kdistLW, r.cloudLW}} {
		if err = (optics.Spectral{BandLims: c.co.BandLims}).CheckBands(c.k.BandLims); err != nil {
			return fmt.Errorf("colrad: %s cloud optics: %v", c.name, err)
		}
		c.co.IceRoughness = optics.DefaultIceRoughness
		c.co.Clamped = metrics.ClampRecorder()
	}
	r.initialized = true
	r.log.WithFields(logrus.Fields{
		"sw_bands": r.kdistSW.NBand(),
		"sw_gpts":  r.kdistSW.NGpt(),
		"lw_bands": r.kdistLW.NBand(),
		"lw_gpts":  r.kdistLW.NGpt(),
	}).Info("colrad: radiation initialized")
	return nil
}

// Finalize releases the coefficient tables. The context may be
// initialized again afterwards.
func (r *Radiation) Finalize() {
	r.initialized = false
	r.kdistSW, r.kdistLW = nil, nil
	r.cloudSW, r.cloudLW = nil, nil
}

// Initialized reports whether the tables are loaded.
func (r *Radiation) Initialized() bool { return r.initialized }

// KDistSW returns the shortwave k-distribution, or nil if the context is
// not initialized.
func (r *Radiation) KDistSW() *kdist.KDistribution { return r.kdistSW }

// KDistLW returns the longwave k-distribution, or nil if the context is
// not initialized.
func (r *Radiation) KDistLW() *kdist.KDistribution { return r.kdistLW }
