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

// Statement is a single statement within a Pattern body (or a procedure or
// macro body).  This is a closed sum; the lowering engine handles every
// variant exhaustively.
type Statement interface {
	// Pos returns the byte offset at which this statement begins.
	Pos() int
	// isStatement restricts implementations to this package.
	isStatement()
}

// Assignment is one (target, wfc string) pair within a vector statement.
// The target is either a signal name or a signal-group name; the WFC string
// has all backslash repeats already expanded.
type Assignment struct {
	// Target signal or group name.
	Target string
	// Expanded waveform characters, one per resolved signal.
	WFCs string
}

// Vector is a V{...} statement.
type Vector struct {
	At      int
	Assigns []Assignment
}

// WaveformSwitch is a W statement selecting the active waveform table.
type WaveformSwitch struct {
	At    int
	Table string
}

// Loop is a bounded repetition of its body.
type Loop struct {
	At    int
	Count uint
	Body  []Statement
}

// MatchLoop is a bounded repetition which additionally signals a
// comparator-match context.
type MatchLoop struct {
	At    int
	Count uint
	Body  []Statement
}

// Call invokes a named procedure.
type Call struct {
	At   int
	Name string
}

// MacroCall invokes a named macro.
type MacroCall struct {
	At   int
	Name string
}

// Stop halts the pattern.
type Stop struct {
	At int
}

// Goto jumps to a labelled vector.
type Goto struct {
	At     int
	Target string
}

// IddqTestPoint marks an IDDQ measurement point.
type IddqTestPoint struct {
	At int
}

// Return returns from a procedure when inlining is disabled.
type Return struct {
	At int
}

// Label names the next emitted vector.
type Label struct {
	At   int
	Name string
}

// Pos implementations.

// Pos returns the byte offset at which this statement begins.
func (s *Vector) Pos() int { return s.At }

// Pos returns the byte offset at which this statement begins.
func (s *WaveformSwitch) Pos() int { return s.At }

// Pos returns the byte offset at which this statement begins.
func (s *Loop) Pos() int { return s.At }

// Pos returns the byte offset at which this statement begins.
func (s *MatchLoop) Pos() int { return s.At }

// Pos returns the byte offset at which this statement begins.
func (s *Call) Pos() int { return s.At }

// Pos returns the byte offset at which this statement begins.
func (s *MacroCall) Pos() int { return s.At }

// Pos returns the byte offset at which this statement begins.
func (s *Stop) Pos() int { return s.At }

// Pos returns the byte offset at which this statement begins.
func (s *Goto) Pos() int { return s.At }

// Pos returns the byte offset at which this statement begins.
func (s *IddqTestPoint) Pos() int { return s.At }

// Pos returns the byte offset at which this statement begins.
func (s *Return) Pos() int { return s.At }

// Pos returns the byte offset at which this statement begins.
func (s *Label) Pos() int { return s.At }

func (s *Vector) isStatement()         {}
func (s *WaveformSwitch) isStatement() {}
func (s *Loop) isStatement()           {}
func (s *MatchLoop) isStatement()      {}
func (s *Call) isStatement()           {}
func (s *MacroCall) isStatement()      {}
func (s *Stop) isStatement()           {}
func (s *Goto) isStatement()           {}
func (s *IddqTestPoint) isStatement()  {}
func (s *Return) isStatement()         {}
func (s *Label) isStatement()          {}
