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

// Package ncf reads and writes whole netCDF variables as dense arrays.
package ncf

import (
	"fmt"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// Read reads the whole of variable v from f. Integer and single
// precision variables are converted to float64.
func Read(f *cdf.File, v string) (*sparse.DenseArray, error) {
	dims := f.Header.Lengths(v)
	if len(dims) == 0 {
		return nil, fmt.Errorf("variable %s not in file", v)
	}
	r := f.Reader(v, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("reading variable %s: %v", v, err)
	}
	data := sparse.ZerosDense(dims...)
	n := len(data.Elements)
	switch b := buf.(type) {
	case []float64:
		if len(b) != n {
			return nil, lengthError(v, n, len(b))
		}
		copy(data.Elements, b)
	case []float32:
		if len(b) != n {
			return nil, lengthError(v, n, len(b))
		}
		for i, val := range b {
			data.Elements[i] = float64(val)
		}
	case []int32:
		if len(b) != n {
			return nil, lengthError(v, n, len(b))
		}
		for i, val := range b {
			data.Elements[i] = float64(val)
		}
	case []int16:
		if len(b) != n {
			return nil, lengthError(v, n, len(b))
		}
		for i, val := range b {
			data.Elements[i] = float64(val)
		}
	default:
		return nil, fmt.Errorf("variable %s has unsupported type %T", v, buf)
	}
	return data, nil
}

func lengthError(v string, want, got int) error {
	return fmt.Errorf("variable %s: dims are %d but array length is %d", v, want, got)
}

// Write writes data to variable v of f, converting to the type the
// variable was defined with. The variable must be defined with the
// []float64{0}, []float32{0} or []int32{0} prototype.
func Write(f *cdf.File, v string, data *sparse.DenseArray) error {
	end := f.Header.Lengths(v)
	n := 1
	for _, l := range end {
		n *= l
	}
	if len(data.Elements) != n {
		return lengthError(v, n, len(data.Elements))
	}
	start := make([]int, len(end))
	w := f.Writer(v, start, end)
	var err error
	switch f.Header.ZeroValue(v, 0).(type) {
	case []float64:
		_, err = w.Write(data.Elements)
	case []float32:
		data32 := make([]float32, n)
		for i, e := range data.Elements {
			data32[i] = float32(e)
		}
		_, err = w.Write(data32)
	case []int32:
		data32 := make([]int32, n)
		for i, e := range data.Elements {
			data32[i] = int32(e)
		}
		_, err = w.Write(data32)
	default:
		return fmt.Errorf("variable %s has unsupported type", v)
	}
	if err != nil {
		return fmt.Errorf("writing variable %s: %v", v, err)
	}
	return nil
}

// Float64s returns the float64 attribute a of variable v (global when v
// is empty).
func Float64s(f *cdf.File, v, a string) ([]float64, error) {
	val, ok := f.Header.GetAttribute(v, a).([]float64)
	if !ok {
		return nil, fmt.Errorf("missing float64 attribute %s:%s", v, a)
	}
	return val, nil
}

// String returns the text attribute a of variable v (global when v is
// empty).
func String(f *cdf.File, v, a string) (string, error) {
	val, ok := f.Header.GetAttribute(v, a).(string)
	if !ok {
		return "", fmt.Errorf("missing text attribute %s:%s", v, a)
	}
	return val, nil
}

// Pairs converts an (n, 2) array to a slice of pairs.
func Pairs(a *sparse.DenseArray) [][2]float64 {
	n := a.Shape[0]
	out := make([][2]float64, n)
	for i := range out {
		out[i] = [2]float64{a.Elements[2*i], a.Elements[2*i+1]}
	}
	return out
}

// FlattenPairs converts a slice of pairs to an (n, 2) array.
func FlattenPairs(p [][2]float64) *sparse.DenseArray {
	a := sparse.ZerosDense(len(p), 2)
	for i, v := range p {
		a.Elements[2*i] = v[0]
		a.Elements[2*i+1] = v[1]
	}
	return a
}
