// Copyright the patconv authors.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package stil

// Direction describes which way a signal flows with respect to the device
// under test.
type Direction uint8

// Enumeration of signal directions.
const (
	// In signals are driven by the tester.
	In Direction = iota
	// Out signals are driven by the device and compared by the tester.
	Out
	// InOut signals are bidirectional.
	InOut
	// Supply signals provide power.
	Supply
	// Pseudo signals exist only in the pattern, not on the device.
	Pseudo
)

// ParseDirection maps a STIL direction keyword to its enumeration value.
func ParseDirection(name string) (Direction, bool) {
	switch name {
	case "In":
		return In, true
	case "Out":
		return Out, true
	case "InOut":
		return InOut, true
	case "Supply":
		return Supply, true
	case "Pseudo":
		return Pseudo, true
	}
	//
	return In, false
}

// String returns the STIL keyword for this direction.
func (d Direction) String() string {
	switch d {
	case In:
		return "In"
	case Out:
		return "Out"
	case InOut:
		return "InOut"
	case Supply:
		return "Supply"
	case Pseudo:
		return "Pseudo"
	}
	//
	return "In"
}

// Signal is a declared STIL signal.  Declaration order is significant (the
// GASC emitter renders signals in declared order).
type Signal struct {
	// Name of this signal.
	Name string
	// Direction of this signal.
	Dir Direction
	// Default waveform character, or zero when none was declared.
	Default rune
}

// DefaultWFC returns the waveform character a signal holds before its first
// assignment.  Signals without a declared default hold 'X'.
func (s *Signal) DefaultWFC() rune {
	if s.Default == 0 {
		return 'X'
	}
	//
	return s.Default
}
