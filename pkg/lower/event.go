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

import "github.com/htol-tools/patconv/pkg/stil"

// Vector is one lowered event: the driven waveform character of every
// declared signal at one tester address, together with the attached
// micro-instruction and waveform table context.
type Vector struct {
	// Tester address, contiguous from zero.
	Address uint32
	// Attached micro-instruction.
	Micro Micro
	// Name of the active waveform table.
	WFT string
	// Declaration-order id of the active waveform table.
	WFTID int
	// Driven characters, one per declared signal, in declaration order.
	Chars []rune
	// Labels naming this vector, in source order.
	Labels []string
}

// Sink receives lowered vectors in address order.
type Sink interface {
	// Emit receives the next lowered vector.  The vector is only valid for
	// the duration of the call.
	Emit(v *Vector) *stil.Error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(v *Vector) *stil.Error

// Emit implements the Sink interface.
func (f SinkFunc) Emit(v *Vector) *stil.Error {
	return f(v)
}
