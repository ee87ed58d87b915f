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
package emit

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/htol-tools/patconv/pkg/chanmap"
	"github.com/htol-tools/patconv/pkg/lower"
	"github.com/htol-tools/patconv/pkg/stil"
)

// MaxVCTTables is the number of waveform tables the VCT RRADR field can
// address.
const MaxVCTTables = 8

// vctPrefix is the width of everything preceding the channel columns; the
// signal legend and ruler comments are padded to it.
const vctPrefix = 51

// VCT renders lowered vectors as an HTOL VCT file.  Each vector becomes one
// fixed-column line: micro-instruction, control flags, RRADR, 256 channel
// characters and the hex address.
type VCT struct {
	out    *bufio.Writer
	symtab *stil.SymbolTable
	mapped *chanmap.Map
	warn   func(offset int, message string)
	// Basename of the source, echoed into the banner.
	sourceName string
	// Clock for the banner timestamp (overridable in tests).
	now func() time.Time
	// Set once the first vector has been written (it carries MRST).
	started bool
}

// NewVCT constructs a VCT emitter over a writer.
func NewVCT(w io.Writer, symtab *stil.SymbolTable, mapped *chanmap.Map,
	sourceName string, warn func(offset int, message string)) *VCT {
	if warn == nil {
		warn = func(int, string) {}
	}
	//
	return &VCT{
		out:        bufio.NewWriter(w),
		symtab:     symtab,
		mapped:     mapped,
		warn:       warn,
		sourceName: sourceName,
		now:        time.Now,
	}
}

// Begin writes the banner, timing echo, driver assignments and the vector
// section preamble.  More waveform tables than RRADR can address is fatal
// here, before anything is written.
func (e *VCT) Begin() *stil.Error {
	if n := len(e.symtab.WaveformTables()); n > MaxVCTTables {
		return stil.Errorf(stil.TooManyWaveformTables, -1,
			"%d waveform tables declared, VCT addresses at most %d", n, MaxVCTTables)
	}
	//
	for _, sig := range e.symtab.Signals() {
		if len(e.mapped.Channels(sig.Name)) == 0 {
			e.warn(-1, fmt.Sprintf("signal %q has no channel assignment", sig.Name))
		}
	}
	//
	e.banner()
	e.timingSection()
	e.drvrSection()
	e.vectorPreamble()
	//
	return e.Flush()
}

// Emit writes one vector line, preceded by its label lines.
func (e *VCT) Emit(v *lower.Vector) *stil.Error {
	for _, label := range v.Labels {
		fmt.Fprintf(e.out, "%s:\n", label)
	}
	//
	mrst := ".."
	if !e.started {
		e.started = true
		mrst = "1."
	}
	//
	channels := make([]rune, chanmap.NumChannels)
	//
	for i := range channels {
		channels[i] = '.'
	}
	//
	for i, sig := range e.symtab.Signals() {
		for _, channel := range e.mapped.Channels(sig.Name) {
			channels[channel] = v.Chars[i]
		}
	}
	//
	_, err := fmt.Fprintf(e.out, "  %-14s%% %s ..0 %s ... %d 1  %s ; 0x%06X\n",
		v.Micro.String(), mrst, strings.Repeat(".", 16), v.WFTID,
		string(channels), v.Address)
	//
	if err != nil {
		return stil.Errorf(stil.IOError, -1, "%v", err)
	}
	//
	return nil
}

// End writes the closing marker.
func (e *VCT) End(cancelled bool) *stil.Error {
	if cancelled {
		fmt.Fprintf(e.out, "; translation cancelled\n")
	}
	//
	fmt.Fprintf(e.out, "#VECTOREND\n")
	//
	return e.Flush()
}

// Flush implements the Emitter interface.
func (e *VCT) Flush() *stil.Error {
	if err := e.out.Flush(); err != nil {
		return stil.Errorf(stil.IOError, -1, "%v", err)
	}
	//
	return nil
}

// banner writes the leading comment block, echoing the source header when
// one was declared.
func (e *VCT) banner() {
	stamp := e.now().Format("Mon Jan 2 15:04:05 2006")
	//
	fmt.Fprintf(e.out, ";\n")
	fmt.Fprintf(e.out, ";  HTOL vector file created by the patconv translator\n")
	fmt.Fprintf(e.out, ";  from the source file %s\n", e.sourceName)
	fmt.Fprintf(e.out, ";  translated %s\n", stamp)
	//
	header := e.symtab.Header
	//
	if header.Title != "" {
		fmt.Fprintf(e.out, ";  title: %s\n", header.Title)
	}
	//
	if header.Date != "" {
		fmt.Fprintf(e.out, ";  source date: %s\n", header.Date)
	}
	//
	if header.Source != "" {
		fmt.Fprintf(e.out, ";  source: %s\n", header.Source)
	}
	//
	fmt.Fprintf(e.out, ";\n\n")
}

// timingSection echoes the declared waveform tables as comments.
func (e *VCT) timingSection() {
	tables := e.symtab.WaveformTables()
	if len(tables) == 0 {
		return
	}
	//
	fmt.Fprintf(e.out, ";\n;       Timing definitions:\n;\n")
	//
	for _, name := range tables {
		wft, _ := e.symtab.WaveformTable(name)
		//
		fmt.Fprintf(e.out, ";  Timing [%s] (%d entries):\n", name, len(wft.Entries))
		//
		for _, entry := range wft.Entries {
			fmt.Fprintf(e.out, ";    %s, %s, %s", entry.SigRef, wft.Period, entry.WFCs)
			//
			for _, edge := range entry.Edges {
				fmt.Fprintf(e.out, ", %s, %s", edge.Time, strings.Join(edge.Events, "/"))
			}
			//
			fmt.Fprintf(e.out, "\n")
		}
	}
	//
	fmt.Fprintf(e.out, ";\n\n")
}

// drvrSection writes the driver/receiver channel assignments.
func (e *VCT) drvrSection() {
	fmt.Fprintf(e.out, ";\n;       driver/receiver pin to DUT signal assignments:\n;\n")
	//
	for channel := 0; channel < chanmap.NumChannels; channel++ {
		name := "<none>"
		//
		if owner, ok := e.mapped.Owner(channel); ok {
			name = owner
		}
		//
		fmt.Fprintf(e.out, ";   DRVR%4d: %s\n", channel, name)
	}
	//
	fmt.Fprintf(e.out, ";   DRVR  CS: '. .'\n;\n\n")
}

// vectorPreamble writes the vector section header: ORG, the vertical signal
// legend, the channel ruler and the start label.
func (e *VCT) vectorPreamble() {
	fmt.Fprintf(e.out, "#VECTOR\n")
	fmt.Fprintf(e.out, "  ORG 0\n")
	//
	for _, line := range e.signalLegend() {
		fmt.Fprintf(e.out, "%s\n", line)
	}
	//
	hundreds, tens, ones := channelRuler()
	//
	fmt.Fprintf(e.out, ";                 MM GTT  C                S  T\n")
	fmt.Fprintf(e.out, ";                 RC TEM  S                Y  0    %s\n", hundreds)
	fmt.Fprintf(e.out, ";                 SM SNE  A  RESERVED      N  E C  %s\n", tens)
	fmt.Fprintf(e.out, ";                 TP TAM  L                C  N S  %s\n", ones)
	//
	fmt.Fprintf(e.out, "VECTOR:\n")
	fmt.Fprintf(e.out, "START:\n")
}

// signalLegend renders the mapped signal names vertically above their
// channel columns.
func (e *VCT) signalLegend() []string {
	height := 0
	//
	for _, signal := range e.mapped.Signals() {
		height = max(height, len(signal))
	}
	//
	if height == 0 {
		return nil
	}
	//
	prefix := ";" + strings.Repeat(" ", vctPrefix-1)
	lines := make([]string, height)
	//
	for row := 0; row < height; row++ {
		columns := make([]byte, chanmap.NumChannels)
		//
		for channel := range columns {
			columns[channel] = ' '
			//
			if owner, ok := e.mapped.Owner(channel); ok && row < len(owner) {
				columns[channel] = owner[row]
			}
		}
		//
		lines[row] = prefix + string(columns)
	}
	//
	return lines
}

// channelRuler renders the hundreds, tens and ones digit rows of the channel
// numbers 0..255.
func channelRuler() (string, string, string) {
	var hundreds, tens, ones strings.Builder
	//
	for i := 0; i < chanmap.NumChannels; i++ {
		if i >= 100 {
			hundreds.WriteByte(byte('0' + i/100))
		} else {
			hundreds.WriteByte(' ')
		}
		//
		if i >= 10 {
			tens.WriteByte(byte('0' + (i/10)%10))
		} else {
			tens.WriteByte(' ')
		}
		//
		ones.WriteByte(byte('0' + i%10))
	}
	//
	return hundreds.String(), tens.String(), ones.String()
}
