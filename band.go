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

	"github.com/ctessum/sparse"
)

// A BandKey identifies one band within a navigation set by its kind (e.g.
// a sensor channel family) and identifier (e.g. the channel number).
type BandKey struct {
	Kind, ID string
}

func (k BandKey) String() string { return k.Kind + ":" + k.ID }

// GridCompatKind enumerates the ways a band can declare which grids it may
// be remapped into.
type GridCompatKind int

const (
	// AnyGrid accepts every selected grid.
	AnyGrid GridCompatKind = iota
	// AnyProjectedGrid accepts selected grids of the Projected kind.
	AnyProjectedGrid
	// AnyLegacyGrid accepts selected grids of the LegacyTemplateGrid kind.
	AnyLegacyGrid
	// ExplicitGrids accepts only the listed grid names.
	ExplicitGrids
)

// GridCompat is a band's grid-compatibility declaration. Grids is only
// consulted when Kind is ExplicitGrids.
type GridCompat struct {
	Kind  GridCompatKind
	Grids []string
}

func (c GridCompat) String() string {
	switch c.Kind {
	case AnyGrid:
		return "any grid"
	case AnyProjectedGrid:
		return "any projected grid"
	case AnyLegacyGrid:
		return "any legacy grid"
	case ExplicitGrids:
		return fmt.Sprintf("grids %v", c.Grids)
	}
	return fmt.Sprintf("GridCompat(%d)", int(c.Kind))
}

// CompatAny declares compatibility with every selected grid.
func CompatAny() GridCompat { return GridCompat{Kind: AnyGrid} }

// CompatProjected declares compatibility with projected grids only.
func CompatProjected() GridCompat { return GridCompat{Kind: AnyProjectedGrid} }

// CompatLegacy declares compatibility with legacy template grids only.
func CompatLegacy() GridCompat { return GridCompat{Kind: AnyLegacyGrid} }

// CompatGrids declares compatibility with an explicit list of grid names.
func CompatGrids(names ...string) GridCompat {
	return GridCompat{Kind: ExplicitGrids, Grids: names}
}

// A BandDescriptor is one swath band submitted for remapping. Data has the
// same shape as the swath navigation arrays. Fill marks invalid samples in
// Data. Bands sharing a RemapGroup are resampled together in one phase-2
// call because they share input fill semantics.
type BandDescriptor struct {
	Kind, ID   string
	Data       *sparse.DenseArray
	Fill       float64
	RemapGroup string
	Compat     GridCompat
}

// Key returns the band's identity within a navigation set.
func (b *BandDescriptor) Key() BandKey { return BandKey{Kind: b.Kind, ID: b.ID} }
