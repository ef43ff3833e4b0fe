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
	"context"
	"fmt"

	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"
)

// A NavigationSet is one independent unit of input: a swath, the bands to
// remap from it, and the knobs controlling grid selection and resampling.
type NavigationSet struct {
	Name  string
	Swath *Swath
	Bands []BandDescriptor

	// Footprint is a closed lon/lat ring outlining the swath. When nil it
	// is derived from the swath navigation arrays by perimeter
	// subsampling with FootprintStride.
	Footprint       []geom.Point
	FootprintStride int

	// ForcedGrids overrides coverage-based grid selection. Duplicate
	// names collapse to one grid.
	ForcedGrids []string

	// CandidateGrids are the names considered by coverage selection; nil
	// means every grid in the catalog.
	CandidateGrids []string

	// CoverageThreshold is the minimum grid-area overlap fraction;
	// non-positive means DefaultCoverageThreshold.
	CoverageThreshold float64

	// Kernels selects the resampling kernel per remap group; nil means
	// nearest-neighbor everywhere.
	Kernels KernelSelector

	// Prefilter, when non-nil, runs before grid selection (for example a
	// day/night solar-coverage filter supplied by a collaborator). A
	// prefilter error fails this set only.
	Prefilter func(*Swath) (*Swath, error)
}

// A Processor runs any number of independent navigation sets through grid
// selection, planning, and remap execution, OR-ing each set's failures
// into one status accumulator. A fatal error in one set never aborts the
// others; only cancellation stops the whole run.
type Processor struct {
	Log      logrus.FieldLogger
	Catalog  *Catalog
	Executor Executor
}

func (p *Processor) logger() logrus.FieldLogger {
	if p.Log != nil {
		return p.Log
	}
	return logrus.StandardLogger()
}

// Run processes each navigation set and returns the per-set, per-grid
// results plus the accumulated status (the process exit contract: zero is
// full success, nonzero means at least one sub-failure). The returned
// error is non-nil only when the context is cancelled.
func (p *Processor) Run(ctx context.Context, sets []NavigationSet) (map[string]map[string]*GridResult, Status, error) {
	var status Status
	results := make(map[string]map[string]*GridResult)
	used := make(map[string]bool)

	for i := range sets {
		set := &sets[i]
		name := set.Name
		if name == "" {
			name = fmt.Sprintf("set%d", i)
		}
		if used[name] {
			// Sets are independent, so a repeated name must not let one
			// set's results overwrite another's.
			base := name
			for n := 2; used[name]; n++ {
				name = fmt.Sprintf("%s#%d", base, n)
			}
			p.logger().WithFields(logrus.Fields{
				"navigation_set": base,
				"renamed_to":     name,
			}).Warn("duplicate navigation set name")
		}
		used[name] = true
		log := p.logger().WithField("navigation_set", name)

		swath := set.Swath
		if set.Prefilter != nil {
			filtered, err := set.Prefilter(swath)
			if err != nil {
				status.Add(StatusFrontend)
				log.Warnf("prefilter failed; skipping set: %v", err)
				continue
			}
			swath = filtered
		}

		selected, err := p.selectGrids(set, swath, log)
		if err != nil {
			status.Add(StatusGridDetermination)
			log.Warnf("grid determination failed; skipping set: %v", err)
			continue
		}

		planner := Planner{Log: log, ForcedGrids: len(set.ForcedGrids) > 0}
		job, err := planner.Plan(set.Bands, selected, p.Catalog)
		if err != nil {
			status.Add(StatusFrontend)
			log.Warnf("remap planning failed; skipping set: %v", err)
			continue
		}

		gridResults, execStatus, err := p.Executor.Run(ctx, swath, job, set.Kernels)
		status.Add(execStatus)
		if err != nil {
			if ctx.Err() != nil {
				return results, status, err
			}
			// execStatus already carries the phase failure bits.
			log.Warnf("remapping produced no output for set: %v", err)
			continue
		}
		results[name] = gridResults
	}
	return results, status, nil
}

// selectGrids resolves a set's grid selection: the forced list when given,
// coverage-based selection otherwise.
func (p *Processor) selectGrids(set *NavigationSet, swath *Swath, log logrus.FieldLogger) (map[string]bool, error) {
	if len(set.ForcedGrids) > 0 {
		selected := make(map[string]bool)
		for _, name := range set.ForcedGrids {
			if selected[name] {
				log.WithField("grid", name).Debug("duplicate grid in forced grid list")
				continue
			}
			if _, err := p.Catalog.Get(name); err != nil {
				return nil, err
			}
			selected[name] = true
		}
		return selected, nil
	}

	footprint := set.Footprint
	if footprint == nil {
		ring, err := FootprintRing(swath, set.FootprintStride)
		if err != nil {
			return nil, err
		}
		footprint = ring
	}
	candidates := set.CandidateGrids
	if candidates == nil {
		candidates = p.Catalog.Names()
	}
	selected, err := SelectGrids(footprint, candidates, p.Catalog, set.CoverageThreshold)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, &CoverageError{Reason: "no grid meets the coverage threshold"}
	}
	return selected, nil
}
