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

// Package resample provides forward-navigation resampling kernels: given
// each swath sample's fractional column and row in a target grid (the
// phase-1 output), a kernel fills one output raster per band. Kernels are
// pluggable; Nearest and EWA are provided.
package resample

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
)

// A Band is one input array submitted to a kernel call. All bands in one
// call share input fill semantics: a sample with the fill value in any
// band is skipped for the whole group.
type Band struct {
	Data *sparse.DenseArray
	Fill float64
}

// A Kernel resamples a group of swath bands onto a target grid. cols and
// rows have the same shape as every band's data and give each sample's
// fractional grid position (NaN for unmapped samples). The returned
// rasters have shape [height, width], one per input band in order, with
// outFill wherever no sample contributed.
type Kernel interface {
	Name() string
	Resample(cols, rows *sparse.DenseArray, bands []Band, width, height int, outFill float64) ([]*sparse.DenseArray, error)
}

func checkInputs(cols, rows *sparse.DenseArray, bands []Band, width, height int) (n int, err error) {
	if width < 1 || height < 1 {
		return 0, fmt.Errorf("resample: output shape %dx%d is not positive", width, height)
	}
	if len(bands) == 0 {
		return 0, fmt.Errorf("resample: no bands to resample")
	}
	n = len(cols.Elements)
	if len(rows.Elements) != n {
		return 0, fmt.Errorf("resample: column array has %d samples but row array has %d", n, len(rows.Elements))
	}
	for i, b := range bands {
		if len(b.Data.Elements) != n {
			return 0, fmt.Errorf("resample: band %d has %d samples but navigation has %d", i, len(b.Data.Elements), n)
		}
	}
	return n, nil
}

// sampleValid reports whether sample i carries usable data in every band
// of the group.
func sampleValid(bands []Band, i int) bool {
	for _, b := range bands {
		v := b.Data.Elements[i]
		if math.IsNaN(v) || v == b.Fill {
			return false
		}
	}
	return true
}

func filledRasters(nbands, width, height int, fill float64) []*sparse.DenseArray {
	out := make([]*sparse.DenseArray, nbands)
	for i := range out {
		out[i] = sparse.ZerosDense(height, width)
		for j := range out[i].Elements {
			out[i].Elements[j] = fill
		}
	}
	return out
}
