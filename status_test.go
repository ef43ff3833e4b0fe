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

import "testing"

func TestStatusAccumulation(t *testing.T) {
	var s Status
	if s != StatusSuccess || s.ExitCode() != 0 {
		t.Error("zero status should be success")
	}
	s.Add(StatusLl2cr)
	s.Add(StatusGridDetermination)
	s.Add(StatusLl2cr) // OR-ing is idempotent
	if !s.Has(StatusLl2cr) || !s.Has(StatusGridDetermination) {
		t.Errorf("status %v is missing accumulated bits", s)
	}
	if s.Has(StatusFornav) || s.Has(StatusBackend) || s.Has(StatusFrontend) {
		t.Errorf("status %v has bits that were never set", s)
	}
	if s.ExitCode() == 0 {
		t.Error("failed status must map to a nonzero exit code")
	}
}

func TestStatusRemapCoversBothPhases(t *testing.T) {
	var s Status
	s.Add(StatusLl2cr)
	if s.Has(StatusRemap) {
		t.Error("ll2cr alone should not satisfy the combined remap mask")
	}
	s.Add(StatusFornav)
	if !s.Has(StatusRemap) {
		t.Error("both phase bits should satisfy the combined remap mask")
	}
}

func TestStatusString(t *testing.T) {
	if got := StatusSuccess.String(); got != "success" {
		t.Errorf("String() = %q, want success", got)
	}
	s := StatusFrontend | StatusFornav
	if got := s.String(); got != "frontend|fornav" {
		t.Errorf("String() = %q, want frontend|fornav", got)
	}
}
