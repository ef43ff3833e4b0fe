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

	"github.com/ctessum/sparse"
)

// Nearest fills each output cell with the value of the swath sample whose
// projected position is closest to the cell center.
type Nearest struct {
	// MaxDistance is the greatest distance, in grid cells, between a
	// sample and the center of the cell it may fill. Non-positive means
	// one cell.
	MaxDistance float64
}

func (k Nearest) Name() string { return "nearest" }

func (k Nearest) Resample(cols, rows *sparse.DenseArray, bands []Band, width, height int, outFill float64) ([]*sparse.DenseArray, error) {
	n, err := checkInputs(cols, rows, bands, width, height)
	if err != nil {
		return nil, err
	}
	maxD := k.MaxDistance
	if maxD <= 0 {
		maxD = 1
	}
	maxD2 := maxD * maxD

	out := filledRasters(len(bands), width, height, outFill)
	best := make([]float64, width*height)
	for i := range best {
		best[i] = math.Inf(1)
	}

	for i := 0; i < n; i++ {
		c, r := cols.Elements[i], rows.Elements[i]
		if math.IsNaN(c) || math.IsNaN(r) {
			continue
		}
		ci := int(math.Floor(c + 0.5))
		ri := int(math.Floor(r + 0.5))
		if ci < 0 || ci >= width || ri < 0 || ri >= height {
			continue
		}
		dc, dr := c-float64(ci), r-float64(ri)
		d2 := dc*dc + dr*dr
		if d2 > maxD2 || !sampleValid(bands, i) {
			continue
		}
		cell := ri*width + ci
		if d2 < best[cell] {
			best[cell] = d2
			for bi, b := range bands {
				out[bi].Elements[cell] = b.Data.Elements[i]
			}
		}
	}
	return out, nil
}
