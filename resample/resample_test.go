/*
Copyright © 2026 the polar2grid authors.
This file is part of polar2grid.

polar2grid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

polar2grid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with polar2grid.  If not, see <http://www.gnu.org/licenses/>.
*/

package resample

import (
	"math"
	"testing"

	"github.com/ctessum/sparse"
)

func navArray(vals ...float64) *sparse.DenseArray {
	a := sparse.ZerosDense(1, len(vals))
	copy(a.Elements, vals)
	return a
}

func TestNearestPlacement(t *testing.T) {
	cols := navArray(2.3, math.NaN(), 0.0, 7.0)
	rows := navArray(1.6, math.NaN(), 0.0, 1.0)
	band := Band{Data: navArray(5, 9, 7, 3), Fill: -999}

	out, err := Nearest{}.Resample(cols, rows, []Band{band}, 5, 4, -1)
	if err != nil {
		t.Fatal(err)
	}
	raster := out[0]
	if got := raster.Get(2, 2); got != 5 {
		t.Errorf("cell (2,2) = %g, want 5", got)
	}
	if got := raster.Get(0, 0); got != 7 {
		t.Errorf("cell (0,0) = %g, want 7", got)
	}
	// Unmapped navigation and out-of-grid samples leave fill; everything
	// else is untouched.
	written := 0
	for _, v := range raster.Elements {
		if v != -1 {
			written++
		}
	}
	if written != 2 {
		t.Errorf("%d cells written, want 2", written)
	}
}

func TestNearestKeepsClosestSample(t *testing.T) {
	// Two samples compete for cell (1,1); the one at the exact cell
	// center must win regardless of input order.
	tests := []struct {
		cols, vals []float64
	}{
		{cols: []float64{1.1, 1.0}, vals: []float64{8, 6}},
		{cols: []float64{1.0, 1.1}, vals: []float64{6, 8}},
	}
	for _, test := range tests {
		cols := navArray(test.cols...)
		rows := navArray(1.0, 1.0)
		band := Band{Data: navArray(test.vals...), Fill: -999}
		out, err := Nearest{}.Resample(cols, rows, []Band{band}, 3, 3, -1)
		if err != nil {
			t.Fatal(err)
		}
		if got := out[0].Get(1, 1); got != 6 {
			t.Errorf("cols %v: cell (1,1) = %g, want 6", test.cols, got)
		}
	}
}

func TestNearestMaxDistance(t *testing.T) {
	cols := navArray(2.3)
	rows := navArray(1.6)
	band := Band{Data: navArray(5), Fill: -999}
	out, err := Nearest{MaxDistance: 0.4}.Resample(cols, rows, []Band{band}, 5, 4, -1)
	if err != nil {
		t.Fatal(err)
	}
	if got := out[0].Get(2, 2); got != -1 {
		t.Errorf("cell (2,2) = %g, want fill for a sample beyond the distance cap", got)
	}
}

func TestNearestSharedGroupFill(t *testing.T) {
	// The second band carries its fill value at the only sample, so no
	// band in the group receives the sample.
	cols := navArray(1.0)
	rows := navArray(1.0)
	bands := []Band{
		{Data: navArray(5), Fill: -999},
		{Data: navArray(-999), Fill: -999},
	}
	out, err := Nearest{}.Resample(cols, rows, bands, 3, 3, -1)
	if err != nil {
		t.Fatal(err)
	}
	for bi := range out {
		if got := out[bi].Get(1, 1); got != -1 {
			t.Errorf("band %d cell (1,1) = %g, want fill", bi, got)
		}
	}
}

func TestEWAAveraging(t *testing.T) {
	cols := navArray(1.0, 1.0)
	rows := navArray(1.0, 1.0)
	band := Band{Data: navArray(10, 20), Fill: -999}
	out, err := EWA{}.Resample(cols, rows, []Band{band}, 4, 4, math.NaN())
	if err != nil {
		t.Fatal(err)
	}
	if got := out[0].Get(1, 1); math.Abs(got-15) > 1e-12 {
		t.Errorf("cell (1,1) = %g, want 15 (equal-weight average)", got)
	}
	if got := out[0].Get(3, 3); !math.IsNaN(got) {
		t.Errorf("cell (3,3) = %g, want fill beyond the distribution radius", got)
	}
}

func TestEWAWeightMin(t *testing.T) {
	cols := navArray(1.0)
	rows := navArray(1.0)
	band := Band{Data: navArray(10), Fill: -999}
	out, err := EWA{WeightMin: 10}.Resample(cols, rows, []Band{band}, 3, 3, -1)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range out[0].Elements {
		if v != -1 {
			t.Fatalf("cell = %g, want fill everywhere under a high weight floor", v)
		}
	}
}

func TestEWAMaximumWeight(t *testing.T) {
	cols := navArray(1.0, 1.4)
	rows := navArray(1.0, 1.0)
	band := Band{Data: navArray(10, 20), Fill: -999}

	out, err := EWA{MaximumWeight: true}.Resample(cols, rows, []Band{band}, 3, 3, -1)
	if err != nil {
		t.Fatal(err)
	}
	if got := out[0].Get(1, 1); got != 10 {
		t.Errorf("max-weight cell (1,1) = %g, want the nearer sample's 10", got)
	}

	out, err = EWA{}.Resample(cols, rows, []Band{band}, 3, 3, -1)
	if err != nil {
		t.Fatal(err)
	}
	if got := out[0].Get(1, 1); got <= 10 || got >= 20 {
		t.Errorf("averaged cell (1,1) = %g, want strictly between 10 and 20", got)
	}
}

func TestResampleInputErrors(t *testing.T) {
	cols := navArray(1.0, 2.0)
	rows := navArray(1.0)
	band := Band{Data: navArray(5, 6), Fill: -999}
	for _, k := range []Kernel{Nearest{}, EWA{}} {
		if _, err := k.Resample(cols, rows, []Band{band}, 3, 3, -1); err == nil {
			t.Errorf("%s: expected an error for mismatched navigation shapes", k.Name())
		}
		if _, err := k.Resample(cols, cols, nil, 3, 3, -1); err == nil {
			t.Errorf("%s: expected an error for zero bands", k.Name())
		}
		if _, err := k.Resample(cols, cols, []Band{band}, 0, 3, -1); err == nil {
			t.Errorf("%s: expected an error for a non-positive output shape", k.Name())
		}
	}
}

func TestKernelNames(t *testing.T) {
	if got := (Nearest{}).Name(); got != "nearest" {
		t.Errorf("Nearest.Name() = %q", got)
	}
	if got := (EWA{}).Name(); got != "ewa" {
		t.Errorf("EWA.Name() = %q", got)
	}
}
