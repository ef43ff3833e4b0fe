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

// EWA distributes each swath sample over the output cells within an
// elliptical-weighted-averaging footprint, accumulating
// distance-weighted contributions and normalizing by the total weight.
type EWA struct {
	// DistanceMax is the maximum pixel-distribution distance: samples
	// contribute to cells up to this many grid cells away. Non-positive
	// means one cell.
	DistanceMax float64

	// WeightMin is the minimum accumulated weight an output cell needs
	// before it is considered covered; cells below it keep the fill
	// value. Non-positive means 1e-4.
	WeightMin float64

	// MaximumWeight switches from weighted averaging to keeping the
	// single highest-weighted sample per cell.
	MaximumWeight bool
}

func (k EWA) Name() string { return "ewa" }

func (k EWA) Resample(cols, rows *sparse.DenseArray, bands []Band, width, height int, outFill float64) ([]*sparse.DenseArray, error) {
	n, err := checkInputs(cols, rows, bands, width, height)
	if err != nil {
		return nil, err
	}
	distMax := k.DistanceMax
	if distMax <= 0 {
		distMax = 1
	}
	weightMin := k.WeightMin
	if weightMin <= 0 {
		weightMin = 1e-4
	}
	distMax2 := distMax * distMax
	// Gaussian falloff chosen so the weight at DistanceMax is e^-2.
	alpha := 2 / distMax2

	ncells := width * height
	sumW := make([]float64, ncells)
	sumWV := make([][]float64, len(bands))
	var maxW []float64
	var maxV [][]float64
	if k.MaximumWeight {
		maxW = make([]float64, ncells)
		maxV = make([][]float64, len(bands))
	}
	for bi := range bands {
		sumWV[bi] = make([]float64, ncells)
		if k.MaximumWeight {
			maxV[bi] = make([]float64, ncells)
		}
	}

	for i := 0; i < n; i++ {
		c, r := cols.Elements[i], rows.Elements[i]
		if math.IsNaN(c) || math.IsNaN(r) || !sampleValid(bands, i) {
			continue
		}
		c0 := int(math.Ceil(c - distMax))
		c1 := int(math.Floor(c + distMax))
		r0 := int(math.Ceil(r - distMax))
		r1 := int(math.Floor(r + distMax))
		if c0 < 0 {
			c0 = 0
		}
		if r0 < 0 {
			r0 = 0
		}
		if c1 >= width {
			c1 = width - 1
		}
		if r1 >= height {
			r1 = height - 1
		}
		for ri := r0; ri <= r1; ri++ {
			for ci := c0; ci <= c1; ci++ {
				dc, dr := c-float64(ci), r-float64(ri)
				d2 := dc*dc + dr*dr
				if d2 > distMax2 {
					continue
				}
				w := math.Exp(-alpha * d2)
				cell := ri*width + ci
				sumW[cell] += w
				for bi, b := range bands {
					sumWV[bi][cell] += w * b.Data.Elements[i]
				}
				if k.MaximumWeight && w > maxW[cell] {
					maxW[cell] = w
					for bi, b := range bands {
						maxV[bi][cell] = b.Data.Elements[i]
					}
				}
			}
		}
	}

	out := filledRasters(len(bands), width, height, outFill)
	for cell := 0; cell < ncells; cell++ {
		if sumW[cell] < weightMin {
			continue
		}
		for bi := range bands {
			if k.MaximumWeight {
				out[bi].Elements[cell] = maxV[bi][cell]
			} else {
				out[bi].Elements[cell] = sumWV[bi][cell] / sumW[cell]
			}
		}
	}
	return out, nil
}
