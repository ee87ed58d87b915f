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
package conv

import (
	log "github.com/sirupsen/logrus"
)

// Event is a notification produced during a conversion.  Events are
// delivered synchronously, in production order, on the converting goroutine.
type Event interface {
	isEvent()
}

// Progress reports how far through the source the conversion has read.
type Progress struct {
	// Percent of the source consumed, 0..100.
	Percent int
}

// Log is a leveled informational message.
type Log struct {
	// Level is the logrus severity of this message.
	Level log.Level
	// Message text.
	Message string
}

// Warning is a non-fatal diagnostic.
type Warning struct {
	// Byte offset into the source, or negative when not applicable.
	Offset int
	// Description.
	Message string
}

// Cancelled reports that the conversion stopped on the cancellation flag.
type Cancelled struct {
	// Address of the last vector written before stopping.
	LastAddress uint32
}

// Done reports successful completion.
type Done struct {
	// Total vectors written.
	TotalVectors uint64
}

func (Progress) isEvent()  {}
func (Log) isEvent()       {}
func (Warning) isEvent()   {}
func (Cancelled) isEvent() {}
func (Done) isEvent()      {}

// Sink receives conversion events.
type Sink interface {
	Notify(event Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(event Event)

// Notify implements the Sink interface.
func (f SinkFunc) Notify(event Event) {
	f(event)
}

// discard drops all events.
type discard struct{}

func (discard) Notify(Event) {}
