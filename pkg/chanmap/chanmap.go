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

// Package chanmap models the assignment of STIL signals to tester channels,
// including the CSV and JSON interchange formats of the channel-mapping
// dialog.
package chanmap

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/htol-tools/patconv/pkg/stil"
)

// NumChannels is the number of tester channels.
const NumChannels = 256

// Map assigns signals to tester channels.  A signal may drive several
// channels; a channel belongs to at most one signal.  Signal order is
// insertion order.
type Map struct {
	order    []string
	channels map[string][]int
	// Owner of each bound channel.
	owner map[int]string
}

// New constructs an empty channel map.
func New() *Map {
	return &Map{
		channels: make(map[string][]int),
		owner:    make(map[int]string),
	}
}

// Bind assigns a channel to a signal.  Channels outside [0,255] and channels
// already bound to a different signal are rejected.
func (m *Map) Bind(signal string, channel int) *stil.Error {
	if channel < 0 || channel >= NumChannels {
		return stil.Errorf(stil.ChannelMapParseError, -1,
			"channel %d out of range for signal %q", channel, signal)
	}
	//
	if owner, bound := m.owner[channel]; bound {
		if owner == signal {
			return nil
		}
		//
		return stil.Errorf(stil.ChannelMapConflict, -1,
			"channel %d bound to both %q and %q", channel, owner, signal)
	}
	//
	if _, seen := m.channels[signal]; !seen {
		m.order = append(m.order, signal)
	}
	//
	m.channels[signal] = append(m.channels[signal], channel)
	m.owner[channel] = signal
	//
	return nil
}

// Signals returns the mapped signal names in insertion order.
func (m *Map) Signals() []string {
	return m.order
}

// Channels returns the channels bound to a signal, in binding order.
func (m *Map) Channels(signal string) []int {
	return m.channels[signal]
}

// Owner returns the signal a channel is bound to.
func (m *Map) Owner(channel int) (string, bool) {
	s, ok := m.owner[channel]
	return s, ok
}

// Len returns the number of mapped signals.
func (m *Map) Len() int {
	return len(m.order)
}

// ReadFile loads a channel map, dispatching on the file extension (.csv or
// .json).
func ReadFile(path string) (*Map, *stil.Error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, stil.Errorf(stil.IOError, -1, "%v", err)
	}
	//
	defer f.Close()
	//
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ParseCSV(f)
	case ".json":
		return ParseJSON(f)
	}
	//
	return nil, stil.Errorf(stil.ChannelMapParseError, -1,
		"unrecognised channel map format %q", filepath.Ext(path))
}

// ParseCSV reads the dialog's CSV table: a "Signal,Channel" header row
// followed by one row per signal, whose remaining cells are that signal's
// channel indices in binding order.
func ParseCSV(r io.Reader) (*Map, *stil.Error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	//
	records, err := reader.ReadAll()
	if err != nil {
		return nil, stil.Errorf(stil.ChannelMapParseError, -1, "%v", err)
	}
	//
	if len(records) == 0 || len(records[0]) < 2 || records[0][0] != "Signal" {
		return nil, stil.NewError(stil.ChannelMapParseError, -1,
			"missing \"Signal,Channel\" header row")
	}
	//
	m := New()
	//
	for _, record := range records[1:] {
		if len(record) < 2 {
			return nil, stil.Errorf(stil.ChannelMapParseError, -1,
				"short row %q", strings.Join(record, ","))
		}
		//
		signal := strings.TrimSpace(record[0])
		//
		for _, cell := range record[1:] {
			channel, err := strconv.Atoi(strings.TrimSpace(cell))
			if err != nil {
				return nil, stil.Errorf(stil.ChannelMapParseError, -1,
					"invalid channel %q for signal %q", cell, signal)
			}
			//
			if berr := m.Bind(signal, channel); berr != nil {
				return nil, berr
			}
		}
	}
	//
	return m, nil
}

// ParseJSON reads the dialog's JSON export: an object mapping signal names
// to channel arrays.  Signals are bound in name order, since JSON objects
// carry none.
func ParseJSON(r io.Reader) (*Map, *stil.Error) {
	var raw map[string][]int
	//
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, stil.Errorf(stil.ChannelMapParseError, -1, "%v", err)
	}
	//
	names := make([]string, 0, len(raw))
	//
	for name := range raw {
		names = append(names, name)
	}
	//
	sort.Strings(names)
	//
	m := New()
	//
	for _, name := range names {
		for _, channel := range raw[name] {
			if err := m.Bind(name, channel); err != nil {
				return nil, err
			}
		}
	}
	//
	return m, nil
}

// WriteCSV writes the dialog's CSV table.
func (m *Map) WriteCSV(w io.Writer) *stil.Error {
	writer := csv.NewWriter(w)
	//
	if err := writer.Write([]string{"Signal", "Channel"}); err != nil {
		return stil.Errorf(stil.IOError, -1, "%v", err)
	}
	//
	for _, signal := range m.order {
		for _, channel := range m.channels[signal] {
			if err := writer.Write([]string{signal, strconv.Itoa(channel)}); err != nil {
				return stil.Errorf(stil.IOError, -1, "%v", err)
			}
		}
	}
	//
	writer.Flush()
	//
	if err := writer.Error(); err != nil {
		return stil.Errorf(stil.IOError, -1, "%v", err)
	}
	//
	return nil
}

// WriteJSON writes the dialog's JSON export.
func (m *Map) WriteJSON(w io.Writer) *stil.Error {
	raw := make(map[string][]int, len(m.channels))
	//
	for signal, channels := range m.channels {
		raw[signal] = channels
	}
	//
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	//
	if err := encoder.Encode(raw); err != nil {
		return stil.Errorf(stil.IOError, -1, "%v", err)
	}
	//
	return nil
}
