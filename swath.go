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

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
)

// A Swath holds one navigation set's per-pixel geolocation: two arrays of
// shape [rows, cols] giving each sample's longitude and latitude in
// degrees. RowsPerScan is the scan block height for sensors whose data
// comes in fixed-size scan blocks; zero or one means the data is not
// scan-blocked. Fill marks invalid navigation samples; set it to NaN when
// the sensor has no explicit navigation fill (NaN entries are always
// treated as invalid). Swaths are created by an external
// reader and are read-only afterward, so they may be shared freely across
// workers.
type Swath struct {
	Name        string
	Lons, Lats  *sparse.DenseArray
	RowsPerScan int
	Fill        float64
}

// Dims returns the swath's row and column counts.
func (s *Swath) Dims() (rows, cols int) {
	return s.Lons.Shape[0], s.Lons.Shape[1]
}

func (s *Swath) validate() error {
	if s.Lons == nil || s.Lats == nil {
		return fmt.Errorf("regrid: swath %q: missing longitude or latitude array", s.Name)
	}
	if len(s.Lons.Shape) != 2 || len(s.Lats.Shape) != 2 {
		return fmt.Errorf("regrid: swath %q: navigation arrays must be 2-dimensional", s.Name)
	}
	if s.Lons.Shape[0] != s.Lats.Shape[0] || s.Lons.Shape[1] != s.Lats.Shape[1] {
		return fmt.Errorf("regrid: swath %q: longitude shape %v does not match latitude shape %v",
			s.Name, s.Lons.Shape, s.Lats.Shape)
	}
	return nil
}

// validNav reports whether the sample at flat index i has usable
// navigation.
func (s *Swath) validNav(i int) bool {
	lon, lat := s.Lons.Elements[i], s.Lats.Elements[i]
	if math.IsNaN(lon) || math.IsNaN(lat) {
		return false
	}
	if !math.IsNaN(s.Fill) && (lon == s.Fill || lat == s.Fill) {
		return false
	}
	return lat >= -90 && lat <= 90
}

// A BoundingBox is an axis-aligned lon/lat extent.
type BoundingBox struct {
	LonMin, LatMin, LonMax, LatMax float64
}

// Ring returns the box as a closed 5-vertex ring.
func (b BoundingBox) Ring() []geom.Point {
	return []geom.Point{
		{X: b.LonMin, Y: b.LatMin},
		{X: b.LonMax, Y: b.LatMin},
		{X: b.LonMax, Y: b.LatMax},
		{X: b.LonMin, Y: b.LatMax},
		{X: b.LonMin, Y: b.LatMin},
	}
}

// FootprintRing reduces a swath's full-resolution navigation to a closed
// lon/lat ring by walking its perimeter, keeping every stride-th valid
// sample. A stride below one walks every perimeter sample.
func FootprintRing(s *Swath, stride int) ([]geom.Point, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	if stride < 1 {
		stride = 1
	}
	rows, cols := s.Dims()

	var ring []geom.Point
	add := func(r, c int) {
		i := r*cols + c
		if s.validNav(i) {
			ring = append(ring, geom.Point{X: s.Lons.Elements[i], Y: s.Lats.Elements[i]})
		}
	}
	for c := 0; c < cols; c += stride { // top edge, west to east
		add(0, c)
	}
	for r := stride; r < rows; r += stride { // east edge
		add(r, cols-1)
	}
	for c := cols - 1 - stride; c >= 0; c -= stride { // bottom edge, east to west
		add(rows-1, c)
	}
	for r := rows - 1 - stride; r > 0; r -= stride { // west edge
		add(r, 0)
	}
	if len(ring) < 3 {
		return nil, fmt.Errorf("regrid: swath %q: too few valid navigation samples for a footprint", s.Name)
	}
	ring = append(ring, ring[0])
	return ring, nil
}
