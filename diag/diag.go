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

// Package diag computes derived atmospheric fields from model state.
// Diagnostics declare the fields they require, are handed those fields,
// and compute one output field. Fields are dimensioned (ncol, nlev) at
// layer midpoints, (ncol, nlev+1) at interfaces, or (ncol) at the
// surface; the first level is at the top of the atmosphere.
package diag

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ctessum/sparse"
	"github.com/ctessum/unit"
)

// Physical constants.
const (
	P0     = 100000.         // reference pressure [Pa]
	Rd     = 287.042         // gas constant of dry air [J/kg/K]
	Cp     = 1004.64         // specific heat of dry air at constant pressure [J/kg/K]
	LatVap = 2.501e6         // latent heat of vaporization [J/kg]
	Gravit = 9.80616         // gravitational acceleration [m/s2]
	Ep2    = 18.016 / 28.966 // ratio of the molecular weights of water and dry air
)

// Layout is the placement of a field within a column.
type Layout int

// Field layouts.
const (
	Midpoints Layout = iota
	Interfaces
	Surface
)

// Grid is the horizontal and vertical size of the fields a diagnostic
// works on.
type Grid struct {
	Ncol, Nlev int
}

func (g Grid) shape(l Layout) []int {
	switch l {
	case Interfaces:
		return []int{g.Ncol, g.Nlev + 1}
	case Surface:
		return []int{g.Ncol}
	default:
		return []int{g.Ncol, g.Nlev}
	}
}

// FieldRequest identifies a field a diagnostic needs.
type FieldRequest struct {
	Name   string
	Units  unit.Dimensions
	Layout Layout
}

// Field holds the values of a named quantity.
type Field struct {
	Name   string
	Units  unit.Dimensions
	Layout Layout
	Data   *sparse.DenseArray
}

// NewField returns a zeroed field satisfying r on grid g.
func NewField(r FieldRequest, g Grid) *Field {
	return &Field{
		Name:   r.Name,
		Units:  r.Units,
		Layout: r.Layout,
		Data:   sparse.ZerosDense(g.shape(r.Layout)...),
	}
}

// RunType tells a diagnostic whether the run starts from initial
// conditions or a restart.
type RunType int

// Run types.
const (
	Initial RunType = iota
	Restarted
)

// A Diagnostic computes a field from other fields.
type Diagnostic interface {
	Name() string
	SetGrid(Grid)
	RequiredFieldRequests() []FieldRequest

	// SetRequiredField hands the diagnostic one of the fields it
	// requested.
	SetRequiredField(*Field) error

	// SetComputedField registers a field the diagnostic may modify. It
	// fails for fields the diagnostic only reads.
	SetComputedField(*Field) error

	Initialize(time.Time, RunType) error
	Compute() error
	Diagnostic() *Field
	Finalize()
}

// ErrNotReady is returned by Compute when the diagnostic has not been
// initialized or is missing required fields.
var ErrNotReady = errors.New("diag: diagnostic is not ready")

// base implements the field bookkeeping shared by all diagnostics.
type base struct {
	name     string
	grid     Grid
	requests []FieldRequest
	required map[string]*Field
	out      *Field
	start    time.Time
	ready    bool
}

func newBase(name string, out FieldRequest, requests ...FieldRequest) base {
	return base{
		name:     name,
		requests: requests,
		required: make(map[string]*Field),
		out:      &Field{Name: out.Name, Units: out.Units, Layout: out.Layout},
	}
}

func (b *base) Name() string { return b.name }

func (b *base) SetGrid(g Grid) {
	b.grid = g
	b.out.Data = sparse.ZerosDense(g.shape(b.out.Layout)...)
}

func (b *base) RequiredFieldRequests() []FieldRequest {
	return append([]FieldRequest(nil), b.requests...)
}

func (b *base) request(name string) (FieldRequest, bool) {
	for _, r := range b.requests {
		if r.Name == name {
			return r, true
		}
	}
	return FieldRequest{}, false
}

func (b *base) SetRequiredField(f *Field) error {
	r, ok := b.request(f.Name)
	if !ok {
		return fmt.Errorf("diag: %s does not require field %s", b.name, f.Name)
	}
	if err := b.check(r, f); err != nil {
		return err
	}
	b.required[f.Name] = f
	return nil
}

// check returns an error if f does not match request r on the current
// grid.
func (b *base) check(r FieldRequest, f *Field) error {
	if !r.Units.Matches(f.Units) {
		return fmt.Errorf("diag: %s: field %s has units %s, want %s", b.name, f.Name, f.Units, r.Units)
	}
	if f.Layout != r.Layout {
		return fmt.Errorf("diag: %s: field %s has the wrong layout", b.name, f.Name)
	}
	want := b.grid.shape(r.Layout)
	if f.Data == nil || len(f.Data.Shape) != len(want) {
		return fmt.Errorf("diag: %s: field %s is not allocated for the grid", b.name, f.Name)
	}
	for i, s := range want {
		if f.Data.Shape[i] != s {
			return fmt.Errorf("diag: %s: field %s has shape %v, want %v", b.name, f.Name, f.Data.Shape, want)
		}
	}
	return nil
}

// SetComputedField makes f the storage that Compute writes the diagnostic
// into. Only the diagnostic's own output can be computed.
func (b *base) SetComputedField(f *Field) error {
	if _, ok := b.request(f.Name); ok {
		return fmt.Errorf("diag: %s: field %s is required and cannot be computed", b.name, f.Name)
	}
	if f.Name != b.out.Name {
		return fmt.Errorf("diag: %s does not compute field %s", b.name, f.Name)
	}
	r := FieldRequest{Name: b.out.Name, Units: b.out.Units, Layout: b.out.Layout}
	if err := b.check(r, f); err != nil {
		return err
	}
	b.out = f
	return nil
}

func (b *base) Initialize(t time.Time, _ RunType) error {
	if b.out.Data == nil {
		return fmt.Errorf("diag: %s: no grid set", b.name)
	}
	b.start = t
	b.ready = true
	return nil
}

// fields returns the required fields in the order requested, or
// ErrNotReady.
func (b *base) fields() ([]*sparse.DenseArray, error) {
	if !b.ready {
		return nil, fmt.Errorf("%w: %s is not initialized", ErrNotReady, b.name)
	}
	out := make([]*sparse.DenseArray, len(b.requests))
	var missing []string
	for i, r := range b.requests {
		f, ok := b.required[r.Name]
		if !ok {
			missing = append(missing, r.Name)
			continue
		}
		out[i] = f.Data
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s is missing fields %v", ErrNotReady, b.name, missing)
	}
	return out, nil
}

func (b *base) Diagnostic() *Field { return b.out }

func (b *base) Finalize() {
	b.ready = false
	b.required = make(map[string]*Field)
}

// Params holds diagnostic parameters by name.
type Params map[string]interface{}

var registry = map[string]func(Params) (Diagnostic, error){}

// Register makes a diagnostic constructor available to Create.
func Register(name string, f func(Params) (Diagnostic, error)) {
	if _, ok := registry[name]; ok {
		panic("diag: diagnostic " + name + " registered twice")
	}
	registry[name] = f
}

// Create returns a new instance of the named diagnostic.
func Create(name string, params Params) (Diagnostic, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("diag: unknown diagnostic %q", name)
	}
	return f(params)
}

// Names returns the names of the registered diagnostics.
func Names() []string {
	var n []string
	for k := range registry {
		n = append(n, k)
	}
	sort.Strings(n)
	return n
}
