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
	"math"
	"os"
	"sort"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/colrad/internal/ncf"
	"github.com/spatialmodel/colrad/rte"
)

// Result holds the outputs of one call to Main along with the level
// pressures they were computed on.
type Result struct {
	SW, LW  *rte.Fluxes
	PLev    *sparse.DenseArray
	Surface *SurfaceFluxes
}

// levelVars and layerVars are the model variables available to output
// expressions, evaluated at levels (ncol, nlay+1) and layers (ncol, nlay).
var (
	levelVars = map[string]func(r *Result) *sparse.DenseArray{
		"sw_flux_up":     func(r *Result) *sparse.DenseArray { return r.SW.FluxUp },
		"sw_flux_dn":     func(r *Result) *sparse.DenseArray { return r.SW.FluxDn },
		"sw_flux_dn_dir": func(r *Result) *sparse.DenseArray { return r.SW.FluxDnDir },
		"lw_flux_up":     func(r *Result) *sparse.DenseArray { return r.LW.FluxUp },
		"lw_flux_dn":     func(r *Result) *sparse.DenseArray { return r.LW.FluxDn },
	}
	layerVars = map[string]func(r *Result) (*sparse.DenseArray, error){
		"sw_heating": func(r *Result) (*sparse.DenseArray, error) { return HeatingRates(r.SW, r.PLev) },
		"lw_heating": func(r *Result) (*sparse.DenseArray, error) { return HeatingRates(r.LW, r.PLev) },
	}
)

// ModelVariables returns the names of the variables that output
// expressions can refer to.
func ModelVariables() []string {
	var names []string
	for n := range levelVars {
		names = append(names, n)
	}
	for n := range layerVars {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Outputter writes selected results to a netCDF file.
//
// outputVariables maps the names of the output variables to expressions
// over the model variables (see ModelVariables) and functions, for
// example {"sw_net": "sw_flux_dn - sw_flux_up"}. An expression may use
// level variables or layer variables but not both.
type Outputter struct {
	fileName        string
	outputVariables map[string]*govaluate.EvaluableExpression
	layer           map[string]bool
	outputFunctions map[string]govaluate.ExpressionFunction
}

// NewOutputter parses the output expressions and checks that they only
// refer to model variables. The default functions are 'exp(x)', 'abs(x)'
// and 'pow(x, y)'. outputFunctions may add to or replace them.
func NewOutputter(fileName string, outputVariables map[string]string, outputFunctions map[string]govaluate.ExpressionFunction) (*Outputter, error) {
	funcs := map[string]govaluate.ExpressionFunction{
		"exp": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("colrad: got %d arguments for function 'exp', but needs 1", len(arg))
			}
			return math.Exp(arg[0].(float64)), nil
		},
		"abs": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("colrad: got %d arguments for function 'abs', but needs 1", len(arg))
			}
			return math.Abs(arg[0].(float64)), nil
		},
		"pow": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 2 {
				return nil, fmt.Errorf("colrad: got %d arguments for function 'pow', but needs 2", len(arg))
			}
			return math.Pow(arg[0].(float64), arg[1].(float64)), nil
		},
	}
	for k, f := range outputFunctions {
		funcs[k] = f
	}
	o := &Outputter{
		fileName:        fileName,
		outputVariables: make(map[string]*govaluate.EvaluableExpression),
		layer:           make(map[string]bool),
		outputFunctions: funcs,
	}
	for name, expr := range outputVariables {
		e, err := govaluate.NewEvaluableExpressionWithFunctions(expr, funcs)
		if err != nil {
			return nil, fmt.Errorf("colrad: output variable %s: %v", name, err)
		}
		var nLev, nLay int
		for _, v := range e.Vars() {
			if _, ok := levelVars[v]; ok {
				nLev++
			} else if _, ok := layerVars[v]; ok {
				nLay++
			} else {
				return nil, fmt.Errorf("colrad: undefined variable name '%s' in output variable %s", v, name)
			}
		}
		if nLev > 0 && nLay > 0 {
			return nil, fmt.Errorf("colrad: output variable %s mixes level and layer variables", name)
		}
		o.outputVariables[name] = e
		o.layer[name] = nLay > 0
	}
	return o, nil
}

// Output evaluates the output expressions for r.
func (o *Outputter) Output(r *Result) (map[string]*sparse.DenseArray, error) {
	ncol, nlay := r.SW.Ncol, r.SW.Nlay
	layerCache := make(map[string]*sparse.DenseArray)
	out := make(map[string]*sparse.DenseArray, len(o.outputVariables))
	for name, e := range o.outputVariables {
		vars := make(map[string]*sparse.DenseArray)
		for _, v := range e.Vars() {
			if f, ok := levelVars[v]; ok {
				a := f(r)
				if a == nil {
					return nil, fmt.Errorf("colrad: output variable %s: %s is not available", name, v)
				}
				vars[v] = a
				continue
			}
			a, ok := layerCache[v]
			if !ok {
				var err error
				if a, err = layerVars[v](r); err != nil {
					return nil, fmt.Errorf("colrad: output variable %s: %v", name, err)
				}
				layerCache[v] = a
			}
			vars[v] = a
		}
		n := nlay + 1
		if o.layer[name] {
			n = nlay
		}
		res := sparse.ZerosDense(ncol, n)
		params := make(map[string]interface{}, len(vars))
		for i := range res.Elements {
			for v, a := range vars {
				params[v] = a.Elements[i]
			}
			val, err := e.Evaluate(params)
			if err != nil {
				return nil, fmt.Errorf("colrad: evaluating output variable %s: %v", name, err)
			}
			f, ok := val.(float64)
			if !ok {
				return nil, fmt.Errorf("colrad: output variable %s evaluates to %T, not a number", name, val)
			}
			res.Elements[i] = f
		}
		out[name] = res
	}
	return out, nil
}

type outputVar struct {
	name, units string
	dims        []string
	data        *sparse.DenseArray
}

// Write writes the evaluated output expressions, the band fluxes,
// and the partitioned surface fluxes (if r.Surface is not nil) to the
// output file.
func (o *Outputter) Write(r *Result) error {
	vals, err := o.Output(r)
	if err != nil {
		return err
	}
	var vars []outputVar
	names := make([]string, 0, len(vals))
	for n := range vals {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		dims := []string{"col", "lev"}
		if o.layer[n] {
			dims = []string{"col", "lay"}
		}
		vars = append(vars, outputVar{name: n, dims: dims, data: vals[n]})
	}
	vars = append(vars,
		outputVar{"sw_bnd_flux_up", "W m-2", []string{"col", "lev", "bnd_sw"}, r.SW.BndFluxUp},
		outputVar{"sw_bnd_flux_dn", "W m-2", []string{"col", "lev", "bnd_sw"}, r.SW.BndFluxDn},
		outputVar{"sw_bnd_flux_dn_dir", "W m-2", []string{"col", "lev", "bnd_sw"}, r.SW.BndFluxDnDir},
		outputVar{"lw_bnd_flux_up", "W m-2", []string{"col", "lev", "bnd_lw"}, r.LW.BndFluxUp},
		outputVar{"lw_bnd_flux_dn", "W m-2", []string{"col", "lev", "bnd_lw"}, r.LW.BndFluxDn},
	)
	if s := r.Surface; s != nil {
		for _, v := range []struct {
			name string
			x    []float64
		}{
			{"sfc_flux_dir_vis", s.DirVis},
			{"sfc_flux_dir_nir", s.DirNir},
			{"sfc_flux_dif_vis", s.DifVis},
			{"sfc_flux_dif_nir", s.DifNir},
		} {
			a := sparse.ZerosDense(len(v.x))
			copy(a.Elements, v.x)
			vars = append(vars, outputVar{v.name, "W m-2", []string{"col"}, a})
		}
	}

	h := cdf.NewHeader(
		[]string{"col", "lev", "lay", "bnd_sw", "bnd_lw"},
		[]int{r.SW.Ncol, r.SW.Nlay + 1, r.SW.Nlay, r.SW.Nband, r.LW.Nband},
	)
	h.AddAttribute("", "comment", "colrad radiative fluxes")
	for _, v := range vars {
		if v.data == nil {
			return fmt.Errorf("colrad: writing output: %s is not allocated", v.name)
		}
		h.AddVariable(v.name, v.dims, []float64{0})
		if v.units != "" {
			h.AddAttribute(v.name, "units", v.units)
		}
	}
	h.Define()

	w, err := os.Create(os.ExpandEnv(o.fileName))
	if err != nil {
		return fmt.Errorf("colrad: creating output file: %v", err)
	}
	f, err := cdf.Create(w, h)
	if err != nil {
		w.Close()
		return fmt.Errorf("colrad: creating output file: %v", err)
	}
	for _, v := range vars {
		if err = ncf.Write(f, v.name, v.data); err != nil {
			w.Close()
			return fmt.Errorf("colrad: writing output: %v", err)
		}
	}
	if err = cdf.UpdateNumRecs(w); err != nil {
		w.Close()
		return fmt.Errorf("colrad: writing output: %v", err)
	}
	return w.Close()
}
