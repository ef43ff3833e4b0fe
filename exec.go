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
	"sort"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ssec/polar2grid-sub002/resample"
)

// DefaultConcurrency is the worker pool size used when none is given.
const DefaultConcurrency = 4

// A KernelSelector chooses the resampling kernel for a remap group. A nil
// selector, or a selector returning nil, falls back to nearest-neighbor.
type KernelSelector func(remapGroup string) resample.Kernel

// NoOutputError indicates that every grid of a navigation set's job table
// failed; the set produced no output at all.
type NoOutputError struct {
	Swath string
}

func (e *NoOutputError) Error() string {
	return fmt.Sprintf("regrid: swath %q: all remapping jobs failed; no output produced", e.Swath)
}

// A GridResult holds everything the executor produced for one surviving
// grid: the resolved definition, the phase-1 navigation, and one raster
// per surviving band.
type GridResult struct {
	Grid    GridDefinition
	Ll2cr   *Ll2crResult
	Rasters map[BandKey]*sparse.DenseArray
}

// An Executor runs the two-phase remap for every job in a table using a
// bounded worker pool. Grids fail independently in phase 1 and remap
// groups fail independently in phase 2; failing entries are pruned from
// the job table without aborting the rest of the run.
type Executor struct {
	Log logrus.FieldLogger

	// Projector runs phase 1. Nil means the default proj-backed
	// projector.
	Projector Projector

	// Concurrency bounds the worker pool. Non-positive means
	// DefaultConcurrency.
	Concurrency int
}

func (e *Executor) logger() logrus.FieldLogger {
	if e.Log != nil {
		return e.Log
	}
	return logrus.StandardLogger()
}

func (e *Executor) projector() Projector {
	if e.Projector != nil {
		return e.Projector
	}
	return NewProjector()
}

func (e *Executor) concurrency() int {
	if e.Concurrency > 0 {
		return e.Concurrency
	}
	return DefaultConcurrency
}

// Run executes the job table against swath. Both phases barrier globally:
// every phase-1 unit joins before any phase-2 unit starts. On return the
// job table has been pruned to the entries that succeeded, and the status
// carries a bit for every recovered failure. The returned error is
// non-nil only for total failure of the set (no output produced) or
// cancellation; cancellation during phase 1 skips phase 2 entirely.
func (e *Executor) Run(ctx context.Context, swath *Swath, job *RemapJob, kernels KernelSelector) (map[string]*GridResult, Status, error) {
	var status Status

	// Phase 1: project the swath navigation into every grid.
	names := job.GridNames()
	type p1slot struct {
		res *Ll2crResult
		err error
	}
	p1 := make([]p1slot, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency())
	for i, name := range names {
		i, name := i, name
		grid := job.Grids[name].Grid
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := e.projector().Project(swath, grid)
			p1[i] = p1slot{res: res, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Cancellation: do not attempt phase 2 for any grid.
		return nil, status, fmt.Errorf("regrid: remapping interrupted during projection: %w", err)
	}

	survivors := make(map[string]*GridJob)
	navigation := make(map[string]*Ll2crResult)
	for i, name := range names {
		if p1[i].err != nil {
			status.Add(StatusLl2cr)
			e.logger().WithFields(logrus.Fields{
				"swath": swath.Name,
				"grid":  name,
				"phase": "ll2cr",
			}).Warnf("removing grid from job table: %v", p1[i].err)
			continue
		}
		gj := job.Grids[name]
		survivors[name] = &GridJob{Grid: p1[i].res.Grid, Bands: gj.Bands}
		navigation[name] = p1[i].res
	}
	job.Grids = survivors
	if len(job.Grids) == 0 {
		return nil, status, &NoOutputError{Swath: swath.Name}
	}

	// Phase 2: resample each surviving grid's bands, one unit of work
	// per remap group.
	type p2unit struct {
		grid, group string
		keys        []BandKey
	}
	var units []p2unit
	for _, name := range job.GridNames() {
		gj := job.Grids[name]
		byGroup := make(map[string][]BandKey)
		for _, key := range gj.bandKeys() {
			group := gj.Bands[key].RemapGroup
			byGroup[group] = append(byGroup[group], key)
		}
		groups := make([]string, 0, len(byGroup))
		for group := range byGroup {
			groups = append(groups, group)
		}
		sort.Strings(groups)
		for _, group := range groups {
			units = append(units, p2unit{grid: name, group: group, keys: byGroup[group]})
		}
	}

	type p2slot struct {
		rasters []*sparse.DenseArray
		err     error
	}
	p2 := make([]p2slot, len(units))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency())
	for i, u := range units {
		i, u := i, u
		gj := job.Grids[u.grid]
		nav := navigation[u.grid]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			kernel := resample.Kernel(nil)
			if kernels != nil {
				kernel = kernels(u.group)
			}
			if kernel == nil {
				kernel = resample.Nearest{}
			}
			bands := make([]resample.Band, len(u.keys))
			for bi, key := range u.keys {
				desc := gj.Bands[key]
				bands[bi] = resample.Band{Data: desc.Data, Fill: desc.Fill}
			}
			rasters, err := kernel.Resample(nav.Cols, nav.Rows, bands,
				gj.Grid.Width, gj.Grid.Height, gj.Grid.FillValue)
			p2[i] = p2slot{rasters: rasters, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, status, fmt.Errorf("regrid: remapping interrupted during resampling: %w", err)
	}

	results := make(map[string]*GridResult)
	failed := make(map[string]map[BandKey]bool) // grid -> bands to prune
	for i, u := range units {
		if p2[i].err != nil {
			status.Add(StatusFornav)
			e.logger().WithFields(logrus.Fields{
				"swath":       swath.Name,
				"grid":        u.grid,
				"remap_group": u.group,
				"bands":       fmt.Sprint(u.keys),
				"phase":       "fornav",
			}).Warnf("removing remap group from job table: %v", p2[i].err)
			if failed[u.grid] == nil {
				failed[u.grid] = make(map[BandKey]bool)
			}
			for _, key := range u.keys {
				failed[u.grid][key] = true
			}
			continue
		}
		res, ok := results[u.grid]
		if !ok {
			res = &GridResult{
				Grid:    job.Grids[u.grid].Grid,
				Ll2cr:   navigation[u.grid],
				Rasters: make(map[BandKey]*sparse.DenseArray),
			}
			results[u.grid] = res
		}
		for bi, key := range u.keys {
			res.Rasters[key] = p2[i].rasters[bi]
		}
	}

	// Prune phase-2 failures, dropping any grid left without bands.
	pruned := make(map[string]*GridJob)
	for name, gj := range job.Grids {
		keep := make(map[BandKey]BandDescriptor)
		for key, desc := range gj.Bands {
			if !failed[name][key] {
				keep[key] = desc
			}
		}
		if len(keep) == 0 {
			delete(results, name)
			continue
		}
		pruned[name] = &GridJob{Grid: gj.Grid, Bands: keep}
	}
	job.Grids = pruned
	if len(job.Grids) == 0 {
		return nil, status, &NoOutputError{Swath: swath.Name}
	}
	return results, status, nil
}
