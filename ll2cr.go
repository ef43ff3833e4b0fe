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

package regrid

import (
	"fmt"
	"math"

	"github.com/ctessum/geom/proj"
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// Ll2crResult is the phase-1 output for one grid: per-swath-pixel
// fractional target-grid columns and rows (NaN where navigation is
// invalid or the pixel does not project), the number of scan lines that
// actually mapped into the grid, and the grid definition with any dynamic
// fields resolved to concrete numbers.
type Ll2crResult struct {
	Grid            GridDefinition
	Cols, Rows      *sparse.DenseArray
	ScanLinesMapped int
}

// A Projector computes each swath pixel's fractional column and row in a
// target grid, resolving dynamic grids against the data extent. It is an
// interface so executors can be instrumented and tested without real
// projection math.
type Projector interface {
	Project(s *Swath, grid GridDefinition) (*Ll2crResult, error)
}

// NewProjector returns the default projector backed by the proj package's
// coordinate transforms.
func NewProjector() Projector { return projProjector{} }

type projProjector struct{}

func (projProjector) Project(s *Swath, grid GridDefinition) (*Ll2crResult, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	if grid.Kind != Projected {
		return nil, fmt.Errorf("regrid: grid %q: cannot project into a %v grid", grid.Name, grid.Kind)
	}
	if grid.SR == nil {
		sr, err := proj.Parse(grid.ProjString)
		if err != nil {
			return nil, fmt.Errorf("regrid: grid %q: parsing projection: %w", grid.Name, err)
		}
		grid.SR = sr
	}
	ll, err := proj.Parse("+proj=longlat")
	if err != nil {
		return nil, fmt.Errorf("regrid: parsing longlat projection: %w", err)
	}
	forward, err := ll.NewTransform(grid.SR)
	if err != nil {
		return nil, fmt.Errorf("regrid: grid %q: building forward transform: %w", grid.Name, err)
	}
	if forward == nil {
		// NewTransform returns a nil Transformer when the source and
		// destination reference systems are equal, as they are for every
		// geographic grid.
		forward = identityTransform
	}

	rows, cols := s.Dims()
	n := rows * cols
	xproj := make([]float64, n)
	yproj := make([]float64, n)
	var xs, ys []float64 // valid projected coordinates, for grid fitting
	for i := 0; i < n; i++ {
		xproj[i] = math.NaN()
		yproj[i] = math.NaN()
		if !s.validNav(i) {
			continue
		}
		x, y, err := forward(s.Lons.Elements[i], s.Lats.Elements[i])
		if err != nil || math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			continue
		}
		xproj[i], yproj[i] = x, y
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("regrid: swath %q: no navigation samples project into grid %q", s.Name, grid.Name)
	}

	resolved, err := resolveGrid(grid, xs, ys)
	if err != nil {
		return nil, err
	}

	colArr := sparse.ZerosDense(rows, cols)
	rowArr := sparse.ZerosDense(rows, cols)
	for i := 0; i < n; i++ {
		if math.IsNaN(xproj[i]) {
			colArr.Elements[i] = math.NaN()
			rowArr.Elements[i] = math.NaN()
			continue
		}
		colArr.Elements[i] = (xproj[i] - resolved.OriginX) / resolved.CellWidth
		rowArr.Elements[i] = (yproj[i] - resolved.OriginY) / resolved.CellHeight
	}

	mapped := scanLinesMapped(colArr, rowArr, rows, cols, s.RowsPerScan, resolved.Width, resolved.Height)
	if mapped == 0 {
		return nil, fmt.Errorf("regrid: swath %q: no swath pixels land inside grid %q", s.Name, resolved.Name)
	}

	return &Ll2crResult{
		Grid:            resolved,
		Cols:            colArr,
		Rows:            rowArr,
		ScanLinesMapped: mapped,
	}, nil
}

func identityTransform(x, y float64) (float64, float64, error) { return x, y, nil }

// resolveGrid fills in a dynamic grid's missing cell size, origin, and
// shape from the projected data extent. Static grids pass through
// unchanged.
func resolveGrid(grid GridDefinition, xs, ys []float64) (GridDefinition, error) {
	if grid.IsStatic() {
		return grid, nil
	}
	xmin, xmax := floats.Min(xs), floats.Max(xs)
	ymin, ymax := floats.Min(ys), floats.Max(ys)

	if !grid.HasCellSize() {
		// Shape is specified (grids with neither are rejected at load
		// time); stretch the cells to cover the data extent. A specified
		// origin anchors the fit so the data stays inside the grid.
		x0, y0 := xmin, ymax
		if grid.HasOrigin() {
			x0, y0 = grid.OriginX, grid.OriginY
		}
		if xmax <= x0 || ymin >= y0 {
			return grid, fmt.Errorf("regrid: grid %q: data extent is degenerate or outside the grid origin; cannot fit cell size", grid.Name)
		}
		grid.CellWidth = (xmax - x0) / float64(grid.Width)
		grid.CellHeight = -(y0 - ymin) / float64(grid.Height)
	}
	if !grid.HasOrigin() {
		grid.OriginX = xmin
		grid.OriginY = ymax
	}
	if !grid.HasShape() {
		w := int(math.Ceil((xmax - grid.OriginX) / grid.CellWidth))
		h := int(math.Ceil((ymin - grid.OriginY) / grid.CellHeight))
		if w < 1 || h < 1 {
			return grid, fmt.Errorf("regrid: grid %q: data lies outside the grid origin; cannot fit shape", grid.Name)
		}
		grid.Width, grid.Height = w, h
	}
	return grid, nil
}

// scanLinesMapped counts the swath lines belonging to scan blocks with at
// least one pixel inside the resolved grid.
func scanLinesMapped(colArr, rowArr *sparse.DenseArray, rows, cols, rowsPerScan, width, height int) int {
	if rowsPerScan < 1 {
		rowsPerScan = 1
	}
	mapped := 0
	for r0 := 0; r0 < rows; r0 += rowsPerScan {
		r1 := r0 + rowsPerScan
		if r1 > rows {
			r1 = rows
		}
		hit := false
		for i := r0 * cols; i < r1*cols && !hit; i++ {
			c, r := colArr.Elements[i], rowArr.Elements[i]
			if c >= 0 && c < float64(width) && r >= 0 && r < float64(height) {
				hit = true
			}
		}
		if hit {
			mapped += r1 - r0
		}
	}
	return mapped
}
