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
	"github.com/sirupsen/logrus"
)

// DefaultCoverageThreshold is the minimum fraction of a candidate grid's
// area that swath data must intersect before the grid is selected.
const DefaultCoverageThreshold = 0.1

// CoverageError indicates that grid selection could not be attempted for a
// navigation set: no candidate grids were supplied or the footprint is
// unusable. It maps to the grid-determination status bit.
type CoverageError struct {
	Reason string
}

func (e *CoverageError) Error() string {
	return "regrid: grid coverage determination failed: " + e.Reason
}

// SelectGrids decides which candidate grids have enough overlap with the
// swath footprint to be worth resampling into. footprint is a closed ring
// of lon/lat vertices. For each static projected candidate the fraction
// intersection_area/grid_area is compared against threshold (a
// non-positive threshold means DefaultCoverageThreshold). Dynamic grids
// are never filtered: they are returned unconditionally. Legacy template
// grids are skipped. Rings that cross the anti-meridian are compared in
// the 0-360 degree longitude domain; the shift is recomputed for every
// candidate because different grids may or may not themselves cross.
func SelectGrids(footprint []geom.Point, candidates []string, catalog *Catalog, threshold float64) (map[string]bool, error) {
	if len(candidates) == 0 {
		return nil, &CoverageError{Reason: "no candidate grids supplied"}
	}
	if threshold <= 0 {
		threshold = DefaultCoverageThreshold
	}
	ring, err := normalizeRing(footprint)
	if err != nil {
		return nil, &CoverageError{Reason: err.Error()}
	}

	selected := make(map[string]bool)
	for _, name := range candidates {
		def, err := catalog.Get(name)
		if err != nil {
			return nil, err
		}
		if def.Kind == LegacyTemplateGrid {
			catalog.Log.WithField("grid", name).Debug("skipping deprecated template grid in coverage check")
			continue
		}
		if !def.IsStatic() {
			selected[name] = true
			continue
		}
		corners, err := catalog.Corners(name)
		if err != nil {
			return nil, err
		}
		frac := overlapFraction(ring, corners[0])
		if frac >= threshold {
			selected[name] = true
		} else {
			catalog.Log.WithFields(logrus.Fields{
				"grid":     name,
				"coverage": frac,
			}).Debug("grid coverage below threshold")
		}
	}
	return selected, nil
}

// SelectGridsFromBbox is a convenience wrapper that turns an axis-aligned
// bounding box into a 5-vertex ring and defers to SelectGrids.
func SelectGridsFromBbox(box BoundingBox, candidates []string, catalog *Catalog, threshold float64) (map[string]bool, error) {
	return SelectGrids(box.Ring(), candidates, catalog, threshold)
}

// overlapFraction returns intersection_area(footprint, grid)/area(grid),
// normalizing both rings into a common longitude domain first.
func overlapFraction(footprint, grid []geom.Point) float64 {
	fp := append([]geom.Point(nil), footprint...)
	gr := append([]geom.Point(nil), grid...)
	if crossesDateline(fp) || crossesDateline(gr) {
		shiftLons(fp)
		shiftLons(gr)
	}
	gridPoly := geom.Polygon{gr}
	gridArea := gridPoly.Area()
	if gridArea == 0 {
		return 0
	}
	isect := geom.Polygon{fp}.Intersection(gridPoly)
	return isect.Area() / gridArea
}

// crossesDateline reports whether a ring's longitude span exceeds 180
// degrees, the signature of an anti-meridian crossing.
func crossesDateline(ring []geom.Point) bool {
	lonMin, lonMax := math.Inf(1), math.Inf(-1)
	for _, p := range ring {
		lonMin = math.Min(lonMin, p.X)
		lonMax = math.Max(lonMax, p.X)
	}
	return lonMax-lonMin > 180
}

// shiftLons moves negative longitudes into the 0-360 degree domain.
func shiftLons(ring []geom.Point) {
	for i, p := range ring {
		if p.X < 0 {
			ring[i].X = p.X + 360
		}
	}
}

// normalizeRing drops invalid and consecutive-duplicate vertices and
// closes the ring.
func normalizeRing(ring []geom.Point) ([]geom.Point, error) {
	out := make([]geom.Point, 0, len(ring))
	for _, p := range ring {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			continue
		}
		if n := len(out); n > 0 && out[n-1] == p {
			continue
		}
		out = append(out, p)
	}
	// Drop a closing vertex so the distinct-vertex count is honest, then
	// re-close.
	if n := len(out); n > 1 && out[0] == out[n-1] {
		out = out[:n-1]
	}
	if len(out) < 3 {
		return nil, fmt.Errorf("footprint has %d usable vertices; a polygon needs at least 3", len(out))
	}
	out = append(out, out[0])
	return out, nil
}
