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
	"math"
	"strings"
	"testing"

	"github.com/ctessum/geom"
)

// boxGrid writes a static geographic grid covering the given lon/lat box
// at 0.2 degree resolution.
func boxGrid(t *testing.T, c *Catalog, name string, lonMin, latMin, lonMax, latMax float64) {
	t.Helper()
	err := c.Add(GridDefinition{
		Name:       name,
		Kind:       Projected,
		ProjString: "+proj=longlat",
		Width:      int(math.Round((lonMax - lonMin) / 0.2)),
		Height:     int(math.Round((latMax - latMin) / 0.2)),
		CellWidth:  0.2,
		CellHeight: -0.2,
		OriginX:    lonMin,
		OriginY:    latMax,
		FillValue:  math.NaN(),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestSelectGridsThresholdMonotonic(t *testing.T) {
	c := NewCatalog()
	boxGrid(t, c, "full", 0, 0, 10, 10)    // fully covered
	boxGrid(t, c, "half", 0, 0, 20, 10)    // half covered
	boxGrid(t, c, "tenth", 0, -15, 40, 10) // one tenth covered
	boxGrid(t, c, "none", 50, 0, 60, 10)   // not covered
	candidates := []string{"full", "half", "tenth", "none"}
	footprint := BoundingBox{LonMin: 0, LatMin: 0, LonMax: 10, LatMax: 10}.Ring()

	prev := map[string]bool(nil)
	for _, threshold := range []float64{0.9, 0.4, 0.05} {
		selected, err := SelectGrids(footprint, candidates, c, threshold)
		if err != nil {
			t.Fatal(err)
		}
		if prev != nil {
			// Lowering the threshold may only add grids.
			for name := range prev {
				if !selected[name] {
					t.Errorf("grid %q selected at a higher threshold but not at %g", name, threshold)
				}
			}
		}
		prev = selected
	}
	if !prev["full"] || !prev["half"] || !prev["tenth"] || prev["none"] {
		t.Errorf("selection at threshold 0.05 = %v, want full, half, and tenth", prev)
	}
}

func TestSelectGridsDateline(t *testing.T) {
	c := NewCatalog()
	boxGrid(t, c, "pacific", 170, -10, 190, 10) // spans the anti-meridian in 0-360
	boxGrid(t, c, "atlantic", 0, 0, 90, 45)
	footprint := []geom.Point{
		{X: 179, Y: 10}, {X: -179, Y: 10}, {X: -179, Y: -10}, {X: 179, Y: -10}, {X: 179, Y: 10},
	}

	pacific, err := c.Corners("pacific")
	if err != nil {
		t.Fatal(err)
	}
	if frac := overlapFraction(footprint, pacific[0]); frac <= 0 {
		t.Errorf("footprint straddling the dateline has overlap %g with a 170-190 grid, want > 0", frac)
	}
	atlantic, err := c.Corners("atlantic")
	if err != nil {
		t.Fatal(err)
	}
	if frac := overlapFraction(footprint, atlantic[0]); frac != 0 {
		t.Errorf("footprint straddling the dateline has overlap %g with a 0-90 grid, want 0", frac)
	}

	selected, err := SelectGrids(footprint, []string{"pacific", "atlantic"}, c, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	if !selected["pacific"] || selected["atlantic"] {
		t.Errorf("selection = %v, want only pacific", selected)
	}
}

func TestSelectGridsShiftNotCachedAcrossGrids(t *testing.T) {
	// One dateline-crossing grid and one far-western grid: the 0-360
	// shift applied for the first must not leak into the second.
	c := NewCatalog()
	boxGrid(t, c, "dateline", 170, -10, 190, 10)
	boxGrid(t, c, "west", -100, -10, -80, 10)
	footprint := BoundingBox{LonMin: -95, LatMin: -5, LonMax: -85, LatMax: 5}.Ring()

	selected, err := SelectGrids(footprint, []string{"dateline", "west"}, c, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	if selected["dateline"] || !selected["west"] {
		t.Errorf("selection = %v, want only west", selected)
	}
}

func TestSelectGridsDynamicNeverFiltered(t *testing.T) {
	c := NewCatalog()
	boxGrid(t, c, "far", 100, 0, 120, 20)
	if err := c.Load(strings.NewReader("fit,proj4,+proj=longlat,None,None,0.1,-0.1,None,None")); err != nil {
		t.Fatal(err)
	}
	footprint := BoundingBox{LonMin: 0, LatMin: 0, LonMax: 10, LatMax: 10}.Ring()
	selected, err := SelectGrids(footprint, []string{"far", "fit"}, c, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if !selected["fit"] {
		t.Error("dynamic grid was filtered by coverage")
	}
	if selected["far"] {
		t.Error("non-overlapping static grid was selected")
	}
}

func TestSelectGridsErrors(t *testing.T) {
	c := NewCatalog()
	boxGrid(t, c, "full", 0, 0, 10, 10)
	footprint := BoundingBox{LonMin: 0, LatMin: 0, LonMax: 10, LatMax: 10}.Ring()

	if _, err := SelectGrids(footprint, nil, c, 0.1); err == nil {
		t.Error("expected an error for no candidate grids")
	}
	bad := []geom.Point{{X: math.NaN(), Y: math.NaN()}, {X: 1, Y: 1}}
	if _, err := SelectGrids(bad, []string{"full"}, c, 0.1); err == nil {
		t.Error("expected an error for an unusable footprint")
	}
	if _, err := SelectGrids(footprint, []string{"missing"}, c, 0.1); err == nil {
		t.Error("expected an error for an unknown candidate")
	}
}

func TestSelectGridsFromBbox(t *testing.T) {
	c := NewCatalog()
	boxGrid(t, c, "full", 0, 0, 10, 10)
	selected, err := SelectGridsFromBbox(
		BoundingBox{LonMin: 0, LatMin: 0, LonMax: 10, LatMax: 10},
		[]string{"full"}, c, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if !selected["full"] {
		t.Errorf("selection = %v, want full", selected)
	}
}
