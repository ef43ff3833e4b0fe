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

// Command regrid remaps flat binary swath dumps onto the grids in a
// configuration file. Input arrays are row-major little-endian float64;
// output rasters are written in the same layout, one file per grid and
// band. The process exit code is the accumulated status bitmask: zero for
// full success.
package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	regrid "github.com/ssec/polar2grid-sub002"
	"github.com/ssec/polar2grid-sub002/resample"
)

var (
	gridFile    string
	forcedGrids []string
	threshold   float64
	concurrency int
	method      string
	rows, cols  int
	rowsPerScan int
	navFill     float64
	dataFill    float64
	outputDir   string

	ewaDistanceMax float64
	ewaWeightMin   float64
	ewaMaxWeight   bool

	// exitStatus accumulates across run so main can exit exactly once,
	// after every deferred cleanup has run.
	exitStatus regrid.Status
)

var root = &cobra.Command{
	Use:   "regrid lons.dat lats.dat band.dat [band.dat...]",
	Short: "Remap satellite swath data onto named target grids",
	Args:  cobra.MinimumNArgs(3),
	RunE:  run,

	SilenceUsage: true,
}

func init() {
	root.Flags().StringVar(&gridFile, "grids", "", "grid configuration file (required)")
	root.Flags().StringArrayVar(&forcedGrids, "grid", nil, "force remapping to this grid (repeatable; overrides coverage selection)")
	root.Flags().Float64Var(&threshold, "threshold", regrid.DefaultCoverageThreshold, "minimum grid coverage fraction")
	root.Flags().IntVar(&concurrency, "concurrency", regrid.DefaultConcurrency, "worker pool size")
	root.Flags().StringVar(&method, "method", "nearest", "resampling method: nearest or ewa")
	root.Flags().IntVar(&rows, "rows", 0, "swath row count (required)")
	root.Flags().IntVar(&cols, "cols", 0, "swath column count (required)")
	root.Flags().IntVar(&rowsPerScan, "rows-per-scan", 0, "scan block height (0 for unblocked data)")
	root.Flags().Float64Var(&navFill, "nav-fill", math.NaN(), "navigation fill value")
	root.Flags().Float64Var(&dataFill, "fill", math.NaN(), "band fill value")
	root.Flags().StringVar(&outputDir, "output-dir", ".", "directory for output rasters")
	root.Flags().Float64Var(&ewaDistanceMax, "ewa-distance-max", 1, "EWA maximum pixel-distribution distance in grid cells")
	root.Flags().Float64Var(&ewaWeightMin, "ewa-weight-min", 1e-4, "EWA minimum accumulated weight")
	root.Flags().BoolVar(&ewaMaxWeight, "ewa-max-weight", false, "EWA maximum-weight mode")
	cobra.CheckErr(root.MarkFlagRequired("grids"))
}

func run(cmd *cobra.Command, args []string) error {
	if rows < 1 || cols < 1 {
		return fmt.Errorf("--rows and --cols are required")
	}
	log := logrus.StandardLogger()

	catalog := regrid.NewCatalog()
	if err := catalog.LoadFile(gridFile); err != nil {
		return err
	}

	lons, err := readArray(args[0])
	if err != nil {
		return err
	}
	lats, err := readArray(args[1])
	if err != nil {
		return err
	}
	swath := &regrid.Swath{
		Name:        strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0])),
		Lons:        lons,
		Lats:        lats,
		RowsPerScan: rowsPerScan,
		Fill:        navFill,
	}

	bands := make([]regrid.BandDescriptor, 0, len(args)-2)
	for _, path := range args[2:] {
		data, err := readArray(path)
		if err != nil {
			return err
		}
		bands = append(bands, regrid.BandDescriptor{
			Kind:       "image",
			ID:         strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Data:       data,
			Fill:       dataFill,
			RemapGroup: "image",
			Compat:     regrid.CompatAny(),
		})
	}

	var kernel resample.Kernel
	switch method {
	case "nearest":
		kernel = resample.Nearest{}
	case "ewa":
		kernel = resample.EWA{
			DistanceMax:   ewaDistanceMax,
			WeightMin:     ewaWeightMin,
			MaximumWeight: ewaMaxWeight,
		}
	default:
		return fmt.Errorf("unknown resampling method %q", method)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := &regrid.Processor{
		Log:      log,
		Catalog:  catalog,
		Executor: regrid.Executor{Log: log, Concurrency: concurrency},
	}
	sets := []regrid.NavigationSet{{
		Name:              swath.Name,
		Swath:             swath,
		Bands:             bands,
		ForcedGrids:       forcedGrids,
		CoverageThreshold: threshold,
		Kernels:           func(string) resample.Kernel { return kernel },
	}}
	results, status, err := p.Run(ctx, sets)
	exitStatus.Add(status)
	if err != nil {
		return err
	}

	for setName, grids := range results {
		for gridName, res := range grids {
			for key, raster := range res.Rasters {
				name := fmt.Sprintf("%s_%s_%s.dat", setName, gridName, key.ID)
				path := filepath.Join(outputDir, name)
				if err := writeArray(path, raster); err != nil {
					exitStatus.Add(regrid.StatusBackend)
					log.WithFields(logrus.Fields{
						"grid": gridName,
						"band": key.String(),
					}).Errorf("writing raster: %v", err)
					continue
				}
				log.WithFields(logrus.Fields{
					"grid":   gridName,
					"band":   key.String(),
					"file":   path,
					"width":  res.Grid.Width,
					"height": res.Grid.Height,
				}).Info("wrote raster")
			}
		}
	}
	if exitStatus != regrid.StatusSuccess {
		log.Warnf("completed with failures: %v", exitStatus)
	}
	return nil
}

// readArray reads a row-major little-endian float64 dump with the
// command-line swath shape.
func readArray(path string) (*sparse.DenseArray, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	want := rows * cols * 8
	if len(b) != want {
		return nil, fmt.Errorf("%s: got %d bytes, want %d for a %dx%d float64 array", path, len(b), want, rows, cols)
	}
	arr := sparse.ZerosDense(rows, cols)
	for i := range arr.Elements {
		arr.Elements[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return arr, nil
}

func writeArray(path string, arr *sparse.DenseArray) error {
	b := make([]byte, len(arr.Elements)*8)
	for i, v := range arr.Elements {
		binary.LittleEndian.PutUint64(b[i*8:], math.Float64bits(v))
	}
	return os.WriteFile(path, b, 0o644)
}

func main() {
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		exitStatus.Add(regrid.StatusFrontend)
	}
	if exitStatus != regrid.StatusSuccess {
		os.Exit(exitStatus.ExitCode())
	}
}
