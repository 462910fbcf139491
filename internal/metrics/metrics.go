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

// Package metrics holds the prometheus collectors updated by radiation solves.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RadiusClamped counts cloudy cells whose effective radius was moved
	// into the optics table range, by phase (liquid or ice).
	RadiusClamped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colrad_radius_clamped_total",
			Help: "Cloud effective radii clamped to the optics table range",
		},
		[]string{"phase"},
	)

	// DaytimeColumns is the number of sunlit columns in the last shortwave
	// solve.
	DaytimeColumns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "colrad_daytime_columns",
			Help: "Number of sunlit columns in the most recent shortwave solve",
		},
	)

	// SolveSeconds observes the wall time of each solve, by spectrum.
	SolveSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "colrad_solve_seconds",
			Help:    "Radiative transfer solve duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"spectrum"},
	)
)

// ClampRecorder returns a function that adds clamp counts to
// RadiusClamped.
func ClampRecorder() func(phase string, n int) {
	return func(phase string, n int) {
		if n > 0 {
			RadiusClamped.WithLabelValues(phase).Add(float64(n))
		}
	}
}
