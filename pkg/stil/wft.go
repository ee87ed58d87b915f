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

// Edge is one timed event row within a waveform declaration.  Events holds
// one event string per waveform character position; a single entry applies
// to all positions.
type Edge struct {
	// Time expression, e.g. "10ns" (quotes stripped).
	Time string
	// Event characters, slash-separated in the source.
	Events []string
}

// WaveformEntry is one declared waveform row: a signal (or group) reference,
// the waveform characters it defines, and the timed events for each.
type WaveformEntry struct {
	// Signal or group reference.
	SigRef string
	// Waveform characters defined by this row.
	WFCs string
	// Timed events, in declaration order.
	Edges []Edge
}

// WaveformTable is a named mapping from raw waveform characters to the
// characters the tester actually drives, derived per signal from the
// declared waveform events.
type WaveformTable struct {
	// Name of this table.
	Name string
	// Period expression (quotes stripped), e.g. "100ns".
	Period string
	// Declared waveform rows, in declaration order.
	Entries []WaveformEntry
	// Derived signal -> raw -> driven mapping.
	mapping map[string]map[rune]rune
}

// NewWaveformTable constructs an empty waveform table.
func NewWaveformTable(name string) *WaveformTable {
	return &WaveformTable{
		Name:    name,
		mapping: make(map[string]map[rune]rune),
	}
}

// Bind records the driven character for a given (signal, raw) pair.
func (t *WaveformTable) Bind(signal string, raw rune, driven rune) {
	m, ok := t.mapping[signal]
	if !ok {
		m = make(map[rune]rune)
		t.mapping[signal] = m
	}
	//
	m[raw] = driven
}

// Map translates a raw waveform character for a given signal into the driven
// character.  Characters with no binding pass through unchanged.
func (t *WaveformTable) Map(signal string, raw rune) rune {
	if m, ok := t.mapping[signal]; ok {
		if driven, ok := m[raw]; ok {
			return driven
		}
	}
	//
	return raw
}

// DeriveDriven collapses the event characters a waveform character sees
// across its timed edges into the single character the tester drives.  A
// down-up-down pulse becomes P, an up-down-up pulse becomes N; a uniform
// sequence is itself; anything else keeps its first event.
func DeriveDriven(events []rune) rune {
	if len(events) == 0 {
		return 0
	}
	//
	uniform := true
	//
	for _, e := range events[1:] {
		if e != events[0] {
			uniform = false
			break
		}
	}
	//
	switch {
	case uniform:
		return events[0]
	case string(events) == "DUD":
		return 'P'
	case string(events) == "UDU":
		return 'N'
	}
	//
	return events[0]
}
