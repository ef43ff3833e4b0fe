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

// Package regrid maps satellite swath data onto named target grids.
//
// A swath is imagery in sensor-scan order with per-pixel longitude and
// latitude. A grid is a target raster defined by a projection, pixel size,
// origin, and pixel dimensions; it is static if fully specified and dynamic
// if it is fit to the data at remap time. Remapping happens in two phases:
// phase 1 ("project") computes each swath pixel's fractional column and row
// in the target grid, and phase 2 ("resample") fills the target raster from
// the swath samples using a pluggable kernel from the resample package.
package regrid

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/sirupsen/logrus"
)

// GridKind identifies how a grid is defined.
type GridKind int

const (
	// Projected grids are defined by a PROJ4-style projection string
	// plus shape, cell size, and origin.
	Projected GridKind = iota

	// LegacyTemplateGrid grids are defined by an external template file.
	// They are deprecated; the catalog round-trips them but the remapping
	// code does not target them.
	LegacyTemplateGrid
)

func (k GridKind) String() string {
	switch k {
	case Projected:
		return "proj4"
	case LegacyTemplateGrid:
		return "gpd"
	}
	return fmt.Sprintf("GridKind(%d)", int(k))
}

// GridDefinition describes one target grid. Width and Height are zero when
// unspecified; CellWidth, CellHeight, OriginX, and OriginY are NaN when
// unspecified. By convention CellHeight is negative for north-up rasters.
// OriginX and OriginY give the top-left corner in the grid's own units,
// which are degrees for geographic (longlat) projections and meters
// otherwise.
type GridDefinition struct {
	Name       string
	Kind       GridKind
	ProjString string
	SR         *proj.SR

	Width, Height         int
	CellWidth, CellHeight float64
	OriginX, OriginY      float64

	// FillValue is written to output rasters where no swath pixel
	// contributes. It is not part of the grid configuration format.
	FillValue float64

	// TemplateCornerX and TemplateCornerY hold the two extra fields of an
	// 11-field configuration line, reserved for the legacy grid kind's
	// corner coordinates.
	TemplateCornerX, TemplateCornerY float64

	corners geom.Polygon // memoized lon/lat corner ring
}

// HasShape reports whether pixel dimensions are specified.
func (g *GridDefinition) HasShape() bool { return g.Width != 0 && g.Height != 0 }

// HasCellSize reports whether ground distance per pixel is specified.
func (g *GridDefinition) HasCellSize() bool {
	return !math.IsNaN(g.CellWidth) && !math.IsNaN(g.CellHeight)
}

// HasOrigin reports whether the top-left corner is specified.
func (g *GridDefinition) HasOrigin() bool {
	return !math.IsNaN(g.OriginX) && !math.IsNaN(g.OriginY)
}

// IsStatic reports whether the grid is fully specified. Dynamic grids are
// resolved to concrete numbers when the data is projected into them.
func (g *GridDefinition) IsStatic() bool {
	return g.HasShape() && g.HasCellSize() && g.HasOrigin()
}

// IsGeographic reports whether the grid's projection works in degrees.
func (g *GridDefinition) IsGeographic() bool {
	return g.SR != nil && g.SR.Name == "longlat"
}

// copyDef returns a field-by-field copy, sharing the immutable SR and the
// memoized corner ring.
func (g *GridDefinition) copyDef() GridDefinition {
	return GridDefinition{
		Name:            g.Name,
		Kind:            g.Kind,
		ProjString:      g.ProjString,
		SR:              g.SR,
		Width:           g.Width,
		Height:          g.Height,
		CellWidth:       g.CellWidth,
		CellHeight:      g.CellHeight,
		OriginX:         g.OriginX,
		OriginY:         g.OriginY,
		FillValue:       g.FillValue,
		TemplateCornerX: g.TemplateCornerX,
		TemplateCornerY: g.TemplateCornerY,
		corners:         g.corners,
	}
}

// ConfigParseError describes a malformed grid configuration line. It is
// fatal to loading that configuration source but leaves previously loaded
// grids intact.
type ConfigParseError struct {
	Line int    // 1-based line number within the source
	Text string // the offending line
	Err  error
}

func (e *ConfigParseError) Error() string {
	return fmt.Sprintf("regrid: grid configuration line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ConfigParseError) Unwrap() error { return e.Err }

// GridNotFoundError is returned by catalog lookups for unknown grid names.
type GridNotFoundError struct {
	Name string
}

func (e *GridNotFoundError) Error() string {
	return fmt.Sprintf("regrid: no grid named %q in catalog", e.Name)
}

// A Catalog owns a set of grid definitions keyed by name. Each catalog owns
// its mapping exclusively; two catalogs never share storage. The zero value
// is not usable; use NewCatalog.
type Catalog struct {
	Log logrus.FieldLogger

	mu    sync.Mutex
	grids map[string]*GridDefinition
}

// NewCatalog returns an empty catalog logging to the standard logger.
func NewCatalog() *Catalog {
	return &Catalog{
		Log:   logrus.StandardLogger(),
		grids: make(map[string]*GridDefinition),
	}
}

// Load parses a newline-delimited grid configuration block, one grid per
// non-comment line; see ParseGridLine for the line format. Lines beginning
// with '#' and blank lines are skipped. If any line fails to parse, no grid
// from r is added and previously loaded grids are untouched. A name that
// appears twice within r is kept last-one-wins with a warning; a name that
// collides with an already-loaded grid silently overwrites it.
func (c *Catalog) Load(r io.Reader) error {
	parsed := make(map[string]*GridDefinition)
	var order []string

	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		def, err := ParseGridLine(line)
		if err != nil {
			return &ConfigParseError{Line: lineno, Text: line, Err: err}
		}
		if _, ok := parsed[def.Name]; ok {
			c.Log.WithFields(logrus.Fields{
				"grid": def.Name,
				"line": lineno,
			}).Warn("duplicate grid definition in configuration source; keeping the later one")
		} else {
			order = append(order, def.Name)
		}
		parsed[def.Name] = def
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("regrid: reading grid configuration: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range order {
		c.grids[name] = parsed[name]
	}
	return nil
}

// LoadFile loads grid definitions from the named configuration file.
func (c *Catalog) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("regrid: opening grid configuration: %w", err)
	}
	defer f.Close()
	return c.Load(f)
}

// Add validates def and inserts it, overwriting any existing definition of
// the same name.
func (c *Catalog) Add(def GridDefinition) error {
	if err := validateGrid(&def); err != nil {
		return fmt.Errorf("regrid: grid %q: %w", def.Name, err)
	}
	def.corners = nil
	c.mu.Lock()
	defer c.mu.Unlock()
	d := def.copyDef()
	c.grids[def.Name] = &d
	return nil
}

// Get returns a copy of the named grid definition.
func (c *Catalog) Get(name string) (GridDefinition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	def, ok := c.grids[name]
	if !ok {
		return GridDefinition{}, &GridNotFoundError{Name: name}
	}
	return def.copyDef(), nil
}

// Remove deletes the named grid. Removing an unknown name is a no-op.
func (c *Catalog) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.grids, name)
}

// Names returns the sorted names of all grids in the catalog.
func (c *Catalog) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.grids))
	for name := range c.grids {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Corners computes, memoizes, and returns the closed lon/lat ring of the
// named grid's four corners. It is an error to call Corners on a dynamic
// grid or on a legacy template grid.
func (c *Catalog) Corners(name string) (geom.Polygon, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	def, ok := c.grids[name]
	if !ok {
		return nil, &GridNotFoundError{Name: name}
	}
	if def.corners != nil {
		return def.corners, nil
	}
	ring, err := gridCornerRing(def)
	if err != nil {
		return nil, err
	}
	def.corners = ring
	return ring, nil
}

// gridCornerRing computes the grid's corner ring in lon/lat degrees.
func gridCornerRing(def *GridDefinition) (geom.Polygon, error) {
	if def.Kind != Projected {
		return nil, fmt.Errorf("regrid: grid %q: corners are not defined for %v grids", def.Name, def.Kind)
	}
	if !def.IsStatic() {
		return nil, fmt.Errorf("regrid: grid %q: corners are not defined for dynamic grids", def.Name)
	}
	ll, err := proj.Parse("+proj=longlat")
	if err != nil {
		return nil, fmt.Errorf("regrid: parsing longlat projection: %w", err)
	}
	inverse, err := def.SR.NewTransform(ll)
	if err != nil {
		return nil, fmt.Errorf("regrid: grid %q: building inverse transform: %w", def.Name, err)
	}
	if inverse == nil {
		// Equal reference systems yield a nil Transformer.
		inverse = identityTransform
	}
	x0, y0 := def.OriginX, def.OriginY
	x1 := x0 + float64(def.Width)*def.CellWidth
	y1 := y0 + float64(def.Height)*def.CellHeight
	xy := []geom.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0}}
	ring := make([]geom.Point, len(xy))
	for i, p := range xy {
		lon, lat, err := inverse(p.X, p.Y)
		if err != nil {
			return nil, fmt.Errorf("regrid: grid %q: inverse-projecting corner (%g, %g): %w", def.Name, p.X, p.Y, err)
		}
		ring[i] = geom.Point{X: lon, Y: lat}
	}
	return geom.Polygon{ring}, nil
}

// ParseGridLine parses one comma-separated grid configuration line with the
// mandatory field order
//
//	name, kind, projection, width, height, cell_width, cell_height, origin_x, origin_y
//
// optionally followed by two extra fields reserved for the legacy grid
// kind's corner coordinates. An empty string or the literal token "None" in
// a numeric field means unspecified.
func ParseGridLine(line string) (*GridDefinition, error) {
	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if len(fields) != 9 && len(fields) != 11 {
		return nil, fmt.Errorf("expected 9 or 11 comma-separated fields, got %d", len(fields))
	}

	def := &GridDefinition{
		Name:            fields[0],
		ProjString:      fields[2],
		CellWidth:       math.NaN(),
		CellHeight:      math.NaN(),
		OriginX:         math.NaN(),
		OriginY:         math.NaN(),
		FillValue:       math.NaN(),
		TemplateCornerX: math.NaN(),
		TemplateCornerY: math.NaN(),
	}
	if def.Name == "" {
		return nil, fmt.Errorf("grid name is empty")
	}
	switch fields[1] {
	case "proj4":
		def.Kind = Projected
	case "gpd":
		def.Kind = LegacyTemplateGrid
	default:
		return nil, fmt.Errorf("unknown grid kind %q (expected \"proj4\" or \"gpd\")", fields[1])
	}

	var err error
	if def.Width, err = parseOptInt(fields[3]); err != nil {
		return nil, fmt.Errorf("width: %w", err)
	}
	if def.Height, err = parseOptInt(fields[4]); err != nil {
		return nil, fmt.Errorf("height: %w", err)
	}
	if def.CellWidth, err = parseOptFloat(fields[5]); err != nil {
		return nil, fmt.Errorf("cell_width: %w", err)
	}
	if def.CellHeight, err = parseOptFloat(fields[6]); err != nil {
		return nil, fmt.Errorf("cell_height: %w", err)
	}
	if def.OriginX, err = parseOptFloat(fields[7]); err != nil {
		return nil, fmt.Errorf("origin_x: %w", err)
	}
	if def.OriginY, err = parseOptFloat(fields[8]); err != nil {
		return nil, fmt.Errorf("origin_y: %w", err)
	}
	if len(fields) == 11 {
		if def.TemplateCornerX, err = parseOptFloat(fields[9]); err != nil {
			return nil, fmt.Errorf("extra corner field: %w", err)
		}
		if def.TemplateCornerY, err = parseOptFloat(fields[10]); err != nil {
			return nil, fmt.Errorf("extra corner field: %w", err)
		}
	}

	if err := validateGrid(def); err != nil {
		return nil, err
	}
	return def, nil
}

// validateGrid enforces the grid definition invariants and parses the
// projection for projected grids.
func validateGrid(def *GridDefinition) error {
	if (def.Width != 0) != (def.Height != 0) {
		return fmt.Errorf("width and height must both be specified or both be unspecified")
	}
	if math.IsNaN(def.CellWidth) != math.IsNaN(def.CellHeight) {
		return fmt.Errorf("cell_width and cell_height must both be specified or both be unspecified")
	}
	if math.IsNaN(def.OriginX) != math.IsNaN(def.OriginY) {
		return fmt.Errorf("origin_x and origin_y must both be specified or both be unspecified")
	}
	if def.Width < 0 || def.Height < 0 {
		return fmt.Errorf("width and height must be positive")
	}
	if def.Kind != Projected {
		// Legacy template grids carry an external template reference in
		// the projection field; it is stored but not parsed, and the
		// template supplies any geometry the line leaves out.
		return nil
	}
	if !def.HasShape() && !def.HasCellSize() {
		return fmt.Errorf("a grid must specify a pixel size or a pixel count (or both)")
	}
	sr, err := proj.Parse(def.ProjString)
	if err != nil {
		return fmt.Errorf("parsing projection %q: %w", def.ProjString, err)
	}
	def.SR = sr
	if def.IsGeographic() && def.HasOrigin() {
		// The configuration format carries no unit tag, so reject origins
		// that cannot be degrees.
		if math.Abs(def.OriginX) > 360 || math.Abs(def.OriginY) > 90 {
			return fmt.Errorf("origin (%g, %g) appears to be in meters; geographic grids require degrees", def.OriginX, def.OriginY)
		}
	}
	return nil
}

func parseOptInt(s string) (int, error) {
	if s == "" || s == "None" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return v, nil
}

func parseOptFloat(s string) (float64, error) {
	if s == "" || s == "None" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN(), fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}
