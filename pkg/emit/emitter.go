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

// Package emit renders lowered vectors into the VCT and GASC output formats.
package emit

import (
	"github.com/htol-tools/patconv/pkg/lower"
	"github.com/htol-tools/patconv/pkg/stil"
)

// Emitter renders a stream of lowered vectors into an output format.  Begin
// writes everything preceding the first vector; End writes the closing
// marker.  End is called on success and on cancellation, never after a fatal
// error (a truncated file must not carry a closing marker).  Every emitter
// doubles as the lowering engine's sink.
type Emitter interface {
	lower.Sink
	// Begin writes the output preamble.
	Begin() *stil.Error
	// End writes the closing marker and flushes.
	End(cancelled bool) *stil.Error
	// Flush forces out everything written so far without closing.
	Flush() *stil.Error
}
