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
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ctessum/sparse"
)

func planTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c := NewCatalog()
	boxGrid(t, c, "g1", 0, 0, 10, 10)
	boxGrid(t, c, "g2", 0, 0, 20, 10)
	if err := c.Load(strings.NewReader("nh,gpd,grids/nh.gpd,None,None,None,None,None,None,45.0,-100.0")); err != nil {
		t.Fatal(err)
	}
	return c
}

func planBand(kind, id, group string, compat GridCompat) BandDescriptor {
	return BandDescriptor{
		Kind: kind, ID: id,
		Data:       sparse.ZerosDense(2, 2),
		Fill:       -999,
		RemapGroup: group,
		Compat:     compat,
	}
}

func TestPlanCompleteness(t *testing.T) {
	c := planTestCatalog(t)
	bands := []BandDescriptor{
		planBand("reflectance", "a", "vis", CompatGrids("g1")),
		planBand("reflectance", "b", "vis", CompatAny()),
	}
	selected := map[string]bool{"g1": true, "g2": true}

	p := &Planner{}
	job, err := p.Plan(bands, selected, c)
	if err != nil {
		t.Fatal(err)
	}
	if got := job.GridNames(); !reflect.DeepEqual(got, []string{"g1", "g2"}) {
		t.Fatalf("job grids = %v, want [g1 g2]", got)
	}
	keyA := BandKey{Kind: "reflectance", ID: "a"}
	keyB := BandKey{Kind: "reflectance", ID: "b"}
	if _, ok := job.Grids["g1"].Bands[keyA]; !ok {
		t.Error("band a missing under g1")
	}
	if _, ok := job.Grids["g2"].Bands[keyA]; ok {
		t.Error("band a planned under g2 despite its explicit grid list")
	}
	for _, g := range []string{"g1", "g2"} {
		if _, ok := job.Grids[g].Bands[keyB]; !ok {
			t.Errorf("band b missing under %s", g)
		}
	}
}

func TestPlanKindFilters(t *testing.T) {
	c := planTestCatalog(t)
	selected := map[string]bool{"g1": true, "nh": true}
	bands := []BandDescriptor{
		planBand("btemp", "p", "ir", CompatProjected()),
		planBand("btemp", "l", "ir", CompatLegacy()),
	}
	p := &Planner{}
	job, err := p.Plan(bands, selected, c)
	if err != nil {
		t.Fatal(err)
	}
	keyP := BandKey{Kind: "btemp", ID: "p"}
	keyL := BandKey{Kind: "btemp", ID: "l"}
	if _, ok := job.Grids["g1"].Bands[keyP]; !ok {
		t.Error("projected-only band missing under projected grid")
	}
	if _, ok := job.Grids["nh"].Bands[keyP]; ok {
		t.Error("projected-only band planned under a template grid")
	}
	if _, ok := job.Grids["nh"].Bands[keyL]; !ok {
		t.Error("legacy-only band missing under template grid")
	}
	if _, ok := job.Grids["g1"].Bands[keyL]; ok {
		t.Error("legacy-only band planned under a projected grid")
	}
}

func TestPlanForcedGridMismatchIsFatal(t *testing.T) {
	c := planTestCatalog(t)
	bands := []BandDescriptor{
		planBand("reflectance", "a", "vis", CompatGrids("g9")),
	}
	selected := map[string]bool{"g1": true}

	p := &Planner{ForcedGrids: true}
	if _, err := p.Plan(bands, selected, c); err == nil {
		t.Fatal("expected a fatal error when a forced grid set excludes a band's explicit grids")
	} else {
		var pe *PlanningError
		if !errors.As(err, &pe) {
			t.Errorf("error type = %T, want *PlanningError", err)
		}
	}

	// Without forcing, the band is dropped with a warning; since it is
	// the only band, planning then fails for emptiness.
	p = &Planner{}
	if _, err := p.Plan(bands, selected, c); err == nil {
		t.Fatal("expected an error for an empty job table")
	}
}

func TestPlanDropsIncompatibleBandOnly(t *testing.T) {
	c := planTestCatalog(t)
	bands := []BandDescriptor{
		planBand("reflectance", "a", "vis", CompatGrids("g9")), // incompatible
		planBand("reflectance", "b", "vis", CompatAny()),
	}
	selected := map[string]bool{"g1": true}
	p := &Planner{}
	job, err := p.Plan(bands, selected, c)
	if err != nil {
		t.Fatal(err)
	}
	if len(job.Grids["g1"].Bands) != 1 {
		t.Errorf("job has %d bands under g1, want 1", len(job.Grids["g1"].Bands))
	}
}

func TestPlanEmptyInputs(t *testing.T) {
	c := planTestCatalog(t)
	p := &Planner{}
	if _, err := p.Plan(nil, map[string]bool{"g1": true}, c); err == nil {
		t.Error("expected an error for no bands")
	}
	if _, err := p.Plan([]BandDescriptor{planBand("x", "y", "g", CompatAny())}, nil, c); err == nil {
		t.Error("expected an error for no selected grids")
	}
}
