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
package lower

import "fmt"

// MicroOp identifies the micro-instruction attached to a lowered vector.
type MicroOp uint8

// Enumeration of micro-instructions.
const (
	// Adv advances to the next vector (the default).
	Adv MicroOp = iota
	// Mssa marks the start address of a run.
	Mssa
	// Halt stops the pattern.
	Halt
	// Jump transfers control to a labelled vector.
	Jump
	// Iddq marks an IDDQ measurement point.
	Iddq
	// Rpt repeats its vector a given number of times.
	Rpt
	// Li loads a loop index register.
	Li
	// Jni jumps back while the loop index register is non-zero.
	Jni
	// Imatch repeats its vector until the comparators match.
	Imatch
	// Mbgn opens a match-loop region.
	Mbgn
	// Mend closes a match-loop region.
	Mend
	// CallOp transfers control to a named subroutine.
	CallOp
	// Ret returns from a subroutine.
	Ret
)

// Micro is a micro-instruction instance: an opcode plus whichever operands
// that opcode takes.
type Micro struct {
	// Opcode.
	Op MicroOp
	// Repetition or load count (Rpt, Li, Mbgn).
	Count uint
	// Loop register index 0..3 (Li, Jni).
	Depth uint8
	// Jump or call target (Jump, CallOp).
	Target string
}

// String renders this micro-instruction in its output spelling.
func (m Micro) String() string {
	switch m.Op {
	case Adv:
		return "ADV"
	case Mssa:
		return "MSSA"
	case Halt:
		return "HALT"
	case Jump:
		return fmt.Sprintf("JUMP %s", m.Target)
	case Iddq:
		return "IDDQ"
	case Rpt:
		return fmt.Sprintf("RPT %d", m.Count)
	case Li:
		return fmt.Sprintf("LI%d %d", m.Depth, m.Count)
	case Jni:
		return fmt.Sprintf("JNI%d", m.Depth)
	case Imatch:
		return "IMATCH"
	case Mbgn:
		return fmt.Sprintf("MBGN %d", m.Count)
	case Mend:
		return "MEND"
	case CallOp:
		return fmt.Sprintf("CALL %s", m.Target)
	case Ret:
		return "RET"
	}
	//
	return "ADV"
}
