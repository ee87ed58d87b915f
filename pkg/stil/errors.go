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

import "fmt"

// ErrorKind identifies the category of a conversion error.  The set is
// closed; every error surfaced by the core carries exactly one kind.
type ErrorKind uint

// Enumeration of error kinds.
const (
	// LexError indicates a malformed token (e.g. unterminated string,
	// malformed repeat).
	LexError ErrorKind = iota
	// ParseError indicates a structural violation (e.g. unbalanced braces).
	ParseError
	// MalformedSymbolTable indicates a cyclic group or recursive
	// procedure/macro definition.
	MalformedSymbolTable
	// MissingWaveformContext indicates a vector before the first waveform
	// table selection.
	MissingWaveformContext
	// VectorWidthError indicates a WFC string whose expanded length does not
	// match its target signal list.
	VectorWidthError
	// UnsupportedConstruct indicates a construct outside the supported
	// grammar subset (e.g. excessive loop nesting).
	UnsupportedConstruct
	// TooManyWaveformTables indicates more than eight waveform tables when
	// VCT output was requested.
	TooManyWaveformTables
	// ChannelMapConflict indicates a channel bound to more than one signal.
	ChannelMapConflict
	// ChannelMapParseError indicates a malformed channel map file.
	ChannelMapParseError
	// AddressOverflow indicates a vector address beyond 0xFFFFFF.
	AddressOverflow
	// IOError indicates a failure reading the source or writing the output.
	IOError
)

// String returns the canonical name of this error kind.
func (k ErrorKind) String() string {
	switch k {
	case LexError:
		return "LexError"
	case ParseError:
		return "ParseError"
	case MalformedSymbolTable:
		return "MalformedSymbolTable"
	case MissingWaveformContext:
		return "MissingWaveformContext"
	case VectorWidthError:
		return "VectorWidthError"
	case UnsupportedConstruct:
		return "UnsupportedConstruct"
	case TooManyWaveformTables:
		return "TooManyWaveformTables"
	case ChannelMapConflict:
		return "ChannelMapConflict"
	case ChannelMapParseError:
		return "ChannelMapParseError"
	case AddressOverflow:
		return "AddressOverflow"
	case IOError:
		return "IOError"
	}
	//
	return "UnknownError"
}

// Error is a structured conversion error carrying the byte offset into the
// source at which the problem arose (or a negative offset when no position
// applies, e.g. channel-map errors).
type Error struct {
	// Kind of this error.
	Kind ErrorKind
	// Byte offset into the source, or negative when not applicable.
	Offset int
	// Human-readable description.
	Message string
}

// NewError constructs a new error of a given kind.
func NewError(kind ErrorKind, offset int, msg string) *Error {
	return &Error{kind, offset, msg}
}

// Errorf constructs a new error of a given kind with a formatted message.
func Errorf(kind ErrorKind, offset int, format string, args ...any) *Error {
	return &Error{kind, offset, fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset %d: %s", e.Kind, e.Offset, e.Message)
	}
	//
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// IsKind checks whether a given error is a conversion error of the given
// kind.
func IsKind(err error, kind ErrorKind) bool {
	if e, ok := err.(*Error); ok {
		return e.Kind == kind
	}
	//
	return false
}
