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
	"sort"

	"github.com/sirupsen/logrus"
)

// A RemapJob is the table of (grid, band) work built once per navigation
// set. Entries are only ever removed after planning, and removal always
// builds new maps rather than mutating while iterating.
type RemapJob struct {
	Grids map[string]*GridJob
}

// A GridJob holds the bands to be remapped into one grid, along with the
// grid definition they will remap into.
type GridJob struct {
	Grid  GridDefinition
	Bands map[BandKey]BandDescriptor
}

// GridNames returns the job's grid names in sorted order.
func (j *RemapJob) GridNames() []string {
	names := make([]string, 0, len(j.Grids))
	for name := range j.Grids {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// bandKeys returns g's band keys in sorted order.
func (g *GridJob) bandKeys() []BandKey {
	keys := make([]BandKey, 0, len(g.Bands))
	for k := range g.Bands {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}
		return keys[i].ID < keys[j].ID
	})
	return keys
}

// PlanningError indicates that no remap work could be planned for a
// navigation set. It maps to the frontend status bit.
type PlanningError struct {
	Reason string
}

func (e *PlanningError) Error() string {
	return "regrid: remap planning failed: " + e.Reason
}

// A Planner reconciles per-band grid-compatibility declarations against
// the globally selected grid set.
type Planner struct {
	Log logrus.FieldLogger

	// ForcedGrids records whether the selected grid set was forced by the
	// caller rather than derived from coverage. When true, a band whose
	// explicit grid list has no overlap with the selection is a fatal
	// configuration error instead of a silent drop.
	ForcedGrids bool
}

func (p *Planner) logger() logrus.FieldLogger {
	if p.Log != nil {
		return p.Log
	}
	return logrus.StandardLogger()
}

// Plan builds the job table for bands against the selected grid names.
// Bands compatible with none of the selected grids are dropped with a
// warning; an empty resulting table is an error. Each job entry stores a
// copy of the band descriptor plus the grid definition it will remap into.
func (p *Planner) Plan(bands []BandDescriptor, selected map[string]bool, catalog *Catalog) (*RemapJob, error) {
	if len(selected) == 0 {
		return nil, &PlanningError{Reason: "no grids selected"}
	}
	if len(bands) == 0 {
		return nil, &PlanningError{Reason: "no bands submitted"}
	}

	defs := make(map[string]GridDefinition, len(selected))
	for name := range selected {
		def, err := catalog.Get(name)
		if err != nil {
			return nil, err
		}
		defs[name] = def
	}

	job := &RemapJob{Grids: make(map[string]*GridJob)}
	for i := range bands {
		band := bands[i]
		grids, err := p.resolveCompat(&band, defs)
		if err != nil {
			return nil, err
		}
		if len(grids) == 0 {
			p.logger().WithFields(logrus.Fields{
				"band":   band.Key().String(),
				"compat": band.Compat.String(),
			}).Warn("band is not compatible with any selected grid; dropping it")
			continue
		}
		for _, name := range grids {
			gj, ok := job.Grids[name]
			if !ok {
				gj = &GridJob{Grid: defs[name], Bands: make(map[BandKey]BandDescriptor)}
				job.Grids[name] = gj
			}
			gj.Bands[band.Key()] = band
		}
	}
	if len(job.Grids) == 0 {
		return nil, &PlanningError{Reason: "no band is compatible with any selected grid"}
	}
	return job, nil
}

// resolveCompat returns the sorted grid names band may remap into.
func (p *Planner) resolveCompat(band *BandDescriptor, defs map[string]GridDefinition) ([]string, error) {
	var grids []string
	switch band.Compat.Kind {
	case AnyGrid:
		for name := range defs {
			grids = append(grids, name)
		}
	case AnyProjectedGrid:
		for name, def := range defs {
			if def.Kind == Projected {
				grids = append(grids, name)
			}
		}
	case AnyLegacyGrid:
		for name, def := range defs {
			if def.Kind == LegacyTemplateGrid {
				grids = append(grids, name)
			}
		}
	case ExplicitGrids:
		for _, name := range band.Compat.Grids {
			if _, ok := defs[name]; ok {
				grids = append(grids, name)
			}
		}
		if p.ForcedGrids && len(grids) == 0 && len(band.Compat.Grids) > 0 {
			return nil, &PlanningError{
				Reason: fmt.Sprintf("band %v only handles %v, none of which are in the forced grid set",
					band.Key(), band.Compat.Grids),
			}
		}
	default:
		return nil, &PlanningError{
			Reason: fmt.Sprintf("band %v has unknown grid compatibility %d", band.Key(), int(band.Compat.Kind)),
		}
	}
	sort.Strings(grids)
	return grids, nil
}
