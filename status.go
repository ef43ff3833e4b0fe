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

import "strings"

// Status is a bitmask of failure categories, combined with bitwise OR
// across every navigation set and every job. Zero means total success. A
// nonzero value means at least one sub-failure occurred; it does not by
// itself mean that no output was produced.
type Status int

const (
	// StatusFrontend marks a failure reading or planning input data.
	StatusFrontend Status = 1 << iota
	// StatusBackend marks a failure writing output; it is set by backend
	// collaborators reporting into the shared accumulator.
	StatusBackend
	// StatusLl2cr marks a phase-1 (projection) failure.
	StatusLl2cr
	// StatusFornav marks a phase-2 (resampling) failure.
	StatusFornav
	// StatusGridDetermination marks a failure selecting grids for a
	// navigation set.
	StatusGridDetermination
)

// StatusSuccess is the all-clear value.
const StatusSuccess Status = 0

// StatusRemap covers both remapping phases.
const StatusRemap = StatusLl2cr | StatusFornav

var statusNames = []struct {
	bit  Status
	name string
}{
	{StatusFrontend, "frontend"},
	{StatusBackend, "backend"},
	{StatusLl2cr, "ll2cr"},
	{StatusFornav, "fornav"},
	{StatusGridDetermination, "grid-determination"},
}

func (s Status) String() string {
	if s == StatusSuccess {
		return "success"
	}
	var parts []string
	for _, sn := range statusNames {
		if s&sn.bit != 0 {
			parts = append(parts, sn.name)
		}
	}
	return strings.Join(parts, "|")
}

// Add ORs bits into the accumulator.
func (s *Status) Add(bits Status) { *s |= bits }

// Has reports whether every bit in bits is set.
func (s Status) Has(bits Status) bool { return s&bits == bits }

// ExitCode converts the accumulated status into a process exit code.
func (s Status) ExitCode() int { return int(s) }
